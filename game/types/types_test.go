package types

import "testing"

func TestDirectionTurns(t *testing.T) {
	tests := []struct {
		dir   Direction
		left  Direction
		right Direction
	}{
		{Up, Left, Right},
		{Right, Up, Down},
		{Down, Right, Left},
		{Left, Down, Up},
	}

	for _, tt := range tests {
		if got := tt.dir.TurnLeft(); got != tt.left {
			t.Errorf("%v.TurnLeft() = %v, want %v", tt.dir, got, tt.left)
		}
		if got := tt.dir.TurnRight(); got != tt.right {
			t.Errorf("%v.TurnRight() = %v, want %v", tt.dir, got, tt.right)
		}
	}
}

func TestDirectionApply(t *testing.T) {
	if got := Right.Apply(Straight); got != Right {
		t.Errorf("Right.Apply(Straight) = %v, want right", got)
	}
	if got := Up.Apply(TurnLeft); got != Left {
		t.Errorf("Up.Apply(TurnLeft) = %v, want left", got)
	}
	if got := Left.Apply(TurnRight); got != Up {
		t.Errorf("Left.Apply(TurnRight) = %v, want up", got)
	}
}

func TestDirectionToPoint(t *testing.T) {
	want := map[Direction]Point{
		Up:    {0, -1},
		Right: {1, 0},
		Down:  {0, 1},
		Left:  {-1, 0},
	}
	for d, p := range want {
		if got := d.ToPoint(); got != p {
			t.Errorf("%v.ToPoint() = %v, want %v", d, got, p)
		}
	}
}

func TestGridContains(t *testing.T) {
	g := Grid{Width: 5, Height: 4}

	tests := []struct {
		p    Point
		want bool
	}{
		{Point{0, 0}, true},
		{Point{4, 3}, true},
		{Point{5, 0}, false},
		{Point{0, 4}, false},
		{Point{-1, 2}, false},
		{Point{2, -1}, false},
	}
	for _, tt := range tests {
		if got := g.Contains(tt.p); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestManhattanDistance(t *testing.T) {
	if d := ManhattanDistance(Point{2, 2}, Point{4, 2}); d != 2 {
		t.Errorf("distance = %d, want 2", d)
	}
	if d := ManhattanDistance(Point{0, 5}, Point{3, 1}); d != 7 {
		t.Errorf("distance = %d, want 7", d)
	}
}

func TestStateString(t *testing.T) {
	s := State{0, 1, 0, 0, 1, 0, 0, 1}
	if got := s.String(); got != "(0,1,0,0,1,0,0,1)" {
		t.Errorf("String() = %q", got)
	}
	if !s.Flag(DangerStraight) || s.Flag(DangerLeft) {
		t.Error("Flag returned wrong values")
	}
	if s.Direction() != Right {
		t.Errorf("Direction() = %v, want right", s.Direction())
	}
}
