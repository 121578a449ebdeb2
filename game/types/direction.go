package types

import "fmt"

// Direction is an index into the cyclic list of headings.
type Direction int

const (
	Up Direction = iota
	Right
	Down
	Left

	numDirections = 4
)

// directions holds the unit vector for each heading, in turning order.
var directions = [numDirections]Point{
	{X: 0, Y: -1}, // Up
	{X: 1, Y: 0},  // Right
	{X: 0, Y: 1},  // Down
	{X: -1, Y: 0}, // Left
}

// Valid reports whether d is one of the four headings.
func (d Direction) Valid() bool {
	return d >= Up && d <= Left
}

// ToPoint returns the movement vector for the heading.
func (d Direction) ToPoint() Point {
	return directions[d.normalize()]
}

// TurnLeft returns the heading after a 90 degree counter-clockwise turn.
func (d Direction) TurnLeft() Direction {
	return (d - 1).normalize()
}

// TurnRight returns the heading after a 90 degree clockwise turn.
func (d Direction) TurnRight() Direction {
	return (d + 1).normalize()
}

// Apply returns the heading that results from a relative action.
func (d Direction) Apply(a Action) Direction {
	switch a {
	case TurnLeft:
		return d.TurnLeft()
	case TurnRight:
		return d.TurnRight()
	default:
		return d
	}
}

// normalize maps any integer onto 0..3; Go's % keeps the sign of the dividend.
func (d Direction) normalize() Direction {
	return ((d % numDirections) + numDirections) % numDirections
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Action is a move relative to the current heading.
type Action int

const (
	TurnLeft Action = iota
	Straight
	TurnRight
)

// NumActions is the size of the action space.
const NumActions = 3

// Valid reports whether a is one of the three relative actions.
func (a Action) Valid() bool {
	return a >= TurnLeft && a <= TurnRight
}

func (a Action) String() string {
	switch a {
	case TurnLeft:
		return "left"
	case Straight:
		return "straight"
	case TurnRight:
		return "right"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}
