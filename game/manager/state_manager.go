package manager

import (
	"snake-qlearning/game/entity"
	"snake-qlearning/game/types"
)

// StateManager turns the full grid into the agent's feature vector.
type StateManager struct {
	collisionMgr *CollisionManager
}

func NewStateManager(collisionMgr *CollisionManager) *StateManager {
	return &StateManager{
		collisionMgr: collisionMgr,
	}
}

// Observe builds the state for the current snake, food and heading.
// Danger flags look one cell away in the left, straight and right turn
// directions; food flags compare coordinates strictly, so an aligned axis
// leaves both of its flags unset.
func (sm *StateManager) Observe(snake *entity.Snake, food types.Point) types.State {
	head := snake.GetHead()
	dir := snake.Direction

	var s types.State
	s[types.DangerLeft] = boolToInt(sm.collisionMgr.IsDanger(head.Add(dir.TurnLeft().ToPoint()), snake))
	s[types.DangerStraight] = boolToInt(sm.collisionMgr.IsDanger(head.Add(dir.ToPoint()), snake))
	s[types.DangerRight] = boolToInt(sm.collisionMgr.IsDanger(head.Add(dir.TurnRight().ToPoint()), snake))
	s[types.FoodLeft] = boolToInt(food.X < head.X)
	s[types.FoodRight] = boolToInt(food.X > head.X)
	s[types.FoodUp] = boolToInt(food.Y < head.Y)
	s[types.FoodDown] = boolToInt(food.Y > head.Y)
	s[types.Heading] = int(dir)
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
