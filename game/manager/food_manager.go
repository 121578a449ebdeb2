package manager

import (
	"errors"

	"snake-qlearning/game/entity"
	"snake-qlearning/game/types"
)

// MaxSpawnAttempts bounds rejection sampling before falling back to a scan
// of the free cells.
const MaxSpawnAttempts = 64

// ErrNoFreeCell is returned when the snake covers the whole grid.
var ErrNoFreeCell = errors.New("no free cell for food")

type FoodManager struct {
	grid         types.Grid
	rng          types.Rand
	collisionMgr *CollisionManager
}

func NewFoodManager(grid types.Grid, rng types.Rand, collisionMgr *CollisionManager) *FoodManager {
	return &FoodManager{
		grid:         grid,
		rng:          rng,
		collisionMgr: collisionMgr,
	}
}

// GenerateFood picks a uniformly random cell not occupied by the snake.
// Both the sampler and the fallback are uniform over the free cells.
func (fm *FoodManager) GenerateFood(snake *entity.Snake) (types.Point, error) {
	for i := 0; i < MaxSpawnAttempts; i++ {
		food := types.Point{
			X: fm.rng.Intn(fm.grid.Width),
			Y: fm.rng.Intn(fm.grid.Height),
		}
		if fm.collisionMgr.ValidateSpawnPosition(food, snake) {
			return food, nil
		}
	}

	free := fm.FreeCells(snake)
	if len(free) == 0 {
		return types.Point{}, ErrNoFreeCell
	}
	return free[fm.rng.Intn(len(free))], nil
}

// FreeCells lists the cells not occupied by the snake, row by row.
func (fm *FoodManager) FreeCells(snake *entity.Snake) []types.Point {
	occupied := make(map[types.Point]struct{}, snake.Len())
	for _, p := range snake.Body {
		occupied[p] = struct{}{}
	}

	free := make([]types.Point, 0, fm.grid.Area()-len(occupied))
	for y := 0; y < fm.grid.Height; y++ {
		for x := 0; x < fm.grid.Width; x++ {
			p := types.Point{X: x, Y: y}
			if _, ok := occupied[p]; !ok {
				free = append(free, p)
			}
		}
	}
	return free
}
