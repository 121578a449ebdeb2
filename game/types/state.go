package types

import (
	"fmt"
	"strings"
)

// Feature indexes into State.
const (
	DangerLeft = iota
	DangerStraight
	DangerRight
	FoodLeft
	FoodRight
	FoodUp
	FoodDown
	Heading

	NumFeatures
)

// State is what the agent observes: three danger flags relative to the
// heading, four food-direction flags and the heading index.
// It is comparable and is used directly as the Q-table key.
type State [NumFeatures]int

// Flag reports whether the binary feature i is set.
func (s State) Flag(i int) bool {
	return s[i] != 0
}

// Direction returns the heading feature.
func (s State) Direction() Direction {
	return Direction(s[Heading])
}

func (s State) String() string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = fmt.Sprint(v)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// Snapshot is a read-only copy of the game handed to renderers.
type Snapshot struct {
	Grid    Grid      `json:"grid"`
	Snake   []Point   `json:"snake"`
	Food    Point     `json:"food"`
	Score   int       `json:"score"`
	Heading Direction `json:"heading"`
	Steps   int       `json:"steps"`
	Done    bool      `json:"done"`
}

// Head returns the first snake cell.
func (s Snapshot) Head() Point {
	return s.Snake[0]
}
