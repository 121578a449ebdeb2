package game

import (
	"errors"
	"fmt"
	"io"
	"log"

	"snake-qlearning/game/entity"
	"snake-qlearning/game/manager"
	"snake-qlearning/game/types"
)

// Reward values returned by Step.
const (
	RewardFood      = 1.0
	RewardCollision = -1.0
	RewardCloser    = 0.1
	RewardFarther   = -0.05
	StepPenalty     = 0.01
)

// StartLength is the snake length after Reset.
const StartLength = 3

var (
	// ErrInvalidState is returned by Step once the episode has ended.
	ErrInvalidState = errors.New("game is terminated, call Reset")
	// ErrInvalidAction is returned for actions outside 0..2.
	ErrInvalidAction = errors.New("invalid action")
	// ErrInvalidConfig is returned by NewGame and Load for unusable input.
	ErrInvalidConfig = errors.New("invalid game config")
	// ErrDisplayClosed is returned by a Renderer when the user closed the display.
	ErrDisplayClosed = errors.New("display closed")
)

// Renderer consumes snapshots of the game. Implementations live outside the core.
// Render returns ErrDisplayClosed once the user has dismissed the display.
type Renderer interface {
	Render(types.Snapshot) error
	Close() error
}

// Config holds the grid dimensions.
type Config struct {
	Width  int
	Height int
}

// DefaultConfig returns the 30x30 board.
func DefaultConfig() Config {
	return Config{Width: 30, Height: 30}
}

// MinWidth fits the starting snake laid out left of the centre column.
const MinWidth = 2 * (StartLength - 1)

// Validate checks the grid can hold a starting snake with room around it.
func (c Config) Validate() error {
	if c.Width < MinWidth {
		return fmt.Errorf("%w: width %d is smaller than %d", ErrInvalidConfig, c.Width, MinWidth)
	}
	if c.Height < StartLength {
		return fmt.Errorf("%w: height %d is smaller than %d", ErrInvalidConfig, c.Height, StartLength)
	}
	return nil
}

// Option configures a Game.
type Option func(*Game)

// WithRenderer attaches the display collaborator.
func WithRenderer(r Renderer) Option {
	return func(g *Game) {
		g.renderer = r
	}
}

// WithLogger overrides the default logger.
func WithLogger(l *log.Logger) Option {
	return func(g *Game) {
		g.logger = l
	}
}

// Game is the snake environment. It is not safe for concurrent use.
type Game struct {
	Grid types.Grid

	snake         *entity.Snake
	food          types.Point
	score         int
	steps         int
	done          bool
	lastCollision manager.CollisionType

	collisionMgr *manager.CollisionManager
	foodMgr      *manager.FoodManager
	stateMgr     *manager.StateManager

	renderer Renderer
	closed   bool
	logger   *log.Logger
}

// NewGame creates a game and resets it.
func NewGame(cfg Config, rng types.Rand, opts ...Option) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvalidConfig)
	}

	grid := types.Grid{Width: cfg.Width, Height: cfg.Height}
	collisionMgr := manager.NewCollisionManager(grid)
	g := &Game{
		Grid:         grid,
		collisionMgr: collisionMgr,
		foodMgr:      manager.NewFoodManager(grid, rng, collisionMgr),
		stateMgr:     manager.NewStateManager(collisionMgr),
		logger:       log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(g)
	}

	if _, err := g.Reset(); err != nil {
		return nil, err
	}
	return g, nil
}

// Reset starts a new episode: a length-3 snake centred on the grid facing
// right, fresh food and a zero score.
func (g *Game) Reset() (types.State, error) {
	g.snake = entity.NewSnake(g.Grid.Center(), types.Right, StartLength)
	g.score = 0
	g.steps = 0
	g.lastCollision = manager.NoCollision

	food, err := g.foodMgr.GenerateFood(g.snake)
	if err != nil {
		g.done = true
		return types.State{}, fmt.Errorf("reset: %w", err)
	}
	g.food = food
	g.done = false
	return g.Observe(), nil
}

// Step applies a relative action and returns the next state, the reward and
// whether the episode ended. Collisions end the episode; they are not errors.
func (g *Game) Step(action types.Action) (types.State, float64, bool, error) {
	if g.done {
		return types.State{}, 0, true, ErrInvalidState
	}
	if !action.Valid() {
		return types.State{}, 0, false, fmt.Errorf("%w: %d", ErrInvalidAction, int(action))
	}

	g.snake.Turn(action)
	head := g.snake.GetHead()
	newHead := g.snake.NextHead()
	oldDist := types.ManhattanDistance(head, g.food)

	// Checked against the body before the move.
	if collision := g.collisionMgr.CheckCollision(newHead, g.snake); collision != manager.NoCollision {
		g.done = true
		g.lastCollision = collision
		g.logger.Printf("episode over after %d steps: %s collision at %v, score %d",
			g.steps, collision, newHead, g.score)
		return g.Observe(), RewardCollision, true, nil
	}

	g.steps++
	g.snake.Move(newHead)

	reward := 0.0
	if g.collisionMgr.IsFoodCollision(newHead, g.food) {
		reward = RewardFood
		g.score++
		food, err := g.foodMgr.GenerateFood(g.snake)
		if err != nil {
			g.done = true
			return g.Observe(), reward - StepPenalty, true, fmt.Errorf("step: %w", err)
		}
		g.food = food
	} else {
		g.snake.RemoveTail()
		if types.ManhattanDistance(newHead, g.food) < oldDist {
			reward += RewardCloser
		} else {
			reward += RewardFarther
		}
	}

	reward -= StepPenalty
	return g.Observe(), reward, false, nil
}

// Observe returns the agent's view of the current position.
func (g *Game) Observe() types.State {
	return g.stateMgr.Observe(g.snake, g.food)
}

// Load replaces the position with an arbitrary valid one and makes the game
// active. Score and step count are cleared.
func (g *Game) Load(body []types.Point, heading types.Direction, food types.Point) error {
	if len(body) == 0 {
		return fmt.Errorf("%w: empty snake", ErrInvalidConfig)
	}
	if !heading.Valid() {
		return fmt.Errorf("%w: heading %d", ErrInvalidConfig, int(heading))
	}
	seen := make(map[types.Point]struct{}, len(body))
	for _, p := range body {
		if !g.Grid.Contains(p) {
			return fmt.Errorf("%w: snake cell %v out of bounds", ErrInvalidConfig, p)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("%w: duplicate snake cell %v", ErrInvalidConfig, p)
		}
		seen[p] = struct{}{}
	}
	if !g.Grid.Contains(food) {
		return fmt.Errorf("%w: food %v out of bounds", ErrInvalidConfig, food)
	}
	if _, onSnake := seen[food]; onSnake {
		return fmt.Errorf("%w: food %v on snake", ErrInvalidConfig, food)
	}

	g.snake = &entity.Snake{
		Body:      append([]types.Point(nil), body...),
		Direction: heading,
	}
	g.food = food
	g.score = 0
	g.steps = 0
	g.done = false
	g.lastCollision = manager.NoCollision
	return nil
}

// Snapshot copies the state renderers need.
func (g *Game) Snapshot() types.Snapshot {
	return types.Snapshot{
		Grid:    g.Grid,
		Snake:   g.snake.Cells(),
		Food:    g.food,
		Score:   g.score,
		Heading: g.snake.Direction,
		Steps:   g.steps,
		Done:    g.done,
	}
}

// Render hands the current snapshot to the renderer, if any.
func (g *Game) Render() error {
	if g.renderer == nil {
		return nil
	}
	return g.renderer.Render(g.Snapshot())
}

// Renderer returns the attached renderer, or nil.
func (g *Game) Renderer() Renderer {
	return g.renderer
}

// Close releases the renderer. Safe to call more than once.
func (g *Game) Close() error {
	if g.renderer == nil || g.closed {
		return nil
	}
	g.closed = true
	return g.renderer.Close()
}

func (g *Game) Done() bool {
	return g.done
}

func (g *Game) Score() int {
	return g.score
}

// Steps counts the moves committed since Reset.
func (g *Game) Steps() int {
	return g.steps
}

func (g *Game) Food() types.Point {
	return g.food
}

func (g *Game) Heading() types.Direction {
	return g.snake.Direction
}

// Snake returns a copy of the body, head first.
func (g *Game) Snake() []types.Point {
	return g.snake.Cells()
}

// LastCollision reports what ended the episode, or NoCollision.
func (g *Game) LastCollision() manager.CollisionType {
	return g.lastCollision
}
