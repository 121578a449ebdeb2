package qlearning

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"

	"snake-qlearning/game/types"
)

// scriptedRand replays fixed values.
type scriptedRand struct {
	floats []float64
	ints   []int
}

func (r *scriptedRand) Float64() float64 {
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *scriptedRand) Intn(int) int {
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v
}

var testState = types.State{0, 0, 1, 0, 1, 0, 0, 1}

func TestQValuesLazyInsert(t *testing.T) {
	a := NewDefaultAgent(rand.New(rand.NewSource(1)))

	if a.Size() != 0 {
		t.Fatalf("Size() = %d, want 0", a.Size())
	}
	q := a.QValues(testState)
	if *q != (QValues{}) {
		t.Errorf("new entry = %v, want zeros", *q)
	}
	if a.Size() != 1 {
		t.Errorf("Size() = %d after lookup, want 1", a.Size())
	}
	if a.QValues(testState) != q {
		t.Error("second lookup returned a different entry")
	}
}

func TestChooseActionTieBreak(t *testing.T) {
	a := NewDefaultAgent(rand.New(rand.NewSource(1)))

	for i := 0; i < 100; i++ {
		if got := a.ChooseAction(testState, 0); got != types.TurnLeft {
			t.Fatalf("ChooseAction() = %v with equal values, want left", got)
		}
	}
	if a.Size() != 1 {
		t.Errorf("unseen state was not inserted")
	}
}

func TestChooseActionGreedy(t *testing.T) {
	a := NewDefaultAgent(rand.New(rand.NewSource(1)))

	tests := []struct {
		values QValues
		want   types.Action
	}{
		{QValues{0, 1, 0}, types.Straight},
		{QValues{0, 1, 1}, types.Straight},
		{QValues{-1, -2, -0.5}, types.TurnRight},
		{QValues{3, 3, 3}, types.TurnLeft},
	}
	for _, tt := range tests {
		*a.QValues(testState) = tt.values
		if got := a.ChooseAction(testState, 0); got != tt.want {
			t.Errorf("ChooseAction(%v) = %v, want %v", tt.values, got, tt.want)
		}
	}
}

func TestChooseActionExplores(t *testing.T) {
	rng := &scriptedRand{
		floats: []float64{0.05, 0.5},
		ints:   []int{2},
	}
	a := NewDefaultAgent(rng)
	*a.QValues(testState) = QValues{0, 5, 0}

	if got := a.ChooseAction(testState, 0.1); got != types.TurnRight {
		t.Errorf("explore draw: got %v, want right", got)
	}
	if got := a.ChooseAction(testState, 0.1); got != types.Straight {
		t.Errorf("exploit draw: got %v, want straight", got)
	}
}

func TestChooseActionFullExploration(t *testing.T) {
	a := NewDefaultAgent(rand.New(rand.NewSource(9)))
	counts := make(map[types.Action]int)
	for i := 0; i < 3000; i++ {
		counts[a.ChooseAction(testState, 1)]++
	}
	for act := types.TurnLeft; act <= types.TurnRight; act++ {
		if counts[act] < 800 {
			t.Errorf("action %v chosen %d times out of 3000", act, counts[act])
		}
	}
}

func TestLearnNonTerminal(t *testing.T) {
	a := NewAgent(0.5, 0.9, rand.New(rand.NewSource(1)))
	next := types.State{1, 0, 0, 0, 0, 0, 1, 2}
	*a.QValues(next) = QValues{0.2, 1.0, -0.3}
	*a.QValues(testState) = QValues{0, 0.4, 0}

	a.Learn(testState, types.Straight, 0.09, next, false)

	// 0.4 + 0.5 * (0.09 + 0.9*1.0 - 0.4)
	want := 0.4 + 0.5*(0.09+0.9-0.4)
	if got := a.QValues(testState)[types.Straight]; math.Abs(got-want) > 1e-12 {
		t.Errorf("Q = %v, want %v", got, want)
	}
}

func TestLearnTerminalIgnoresNextState(t *testing.T) {
	a := NewDefaultAgent(rand.New(rand.NewSource(1)))
	next := types.State{1, 1, 1, 0, 0, 0, 0, 0}
	*a.QValues(next) = QValues{10, 10, 10}

	a.Learn(testState, types.TurnLeft, -1, next, true)

	if got := a.QValues(testState)[types.TurnLeft]; math.Abs(got-(-0.1)) > 1e-12 {
		t.Errorf("Q = %v, want -0.1", got)
	}
}

func TestLearnCreatesEntries(t *testing.T) {
	a := NewDefaultAgent(rand.New(rand.NewSource(1)))
	next := types.State{0, 0, 0, 1, 0, 0, 0, 3}

	a.Learn(testState, types.Straight, 1, next, true)

	if a.Size() != 2 {
		t.Errorf("Size() = %d, want both states inserted", a.Size())
	}
}

func TestLearnConvergesToReward(t *testing.T) {
	const reward = 0.99
	a := NewDefaultAgent(rand.New(rand.NewSource(1)))

	prevGap := reward
	for i := 1; i <= 200; i++ {
		a.Learn(testState, types.TurnRight, reward, testState, true)
		gap := reward - a.QValues(testState)[types.TurnRight]
		want := reward * math.Pow(1-DefaultLearningRate, float64(i))
		if math.Abs(gap-want) > 1e-9 {
			t.Fatalf("iteration %d: gap %v, want %v", i, gap, want)
		}
		if gap > prevGap {
			t.Fatalf("iteration %d: gap grew from %v to %v", i, prevGap, gap)
		}
		prevGap = gap
	}
	if prevGap > 1e-6 {
		t.Errorf("Q did not converge: gap %v", prevGap)
	}
}

func TestScheduleDecay(t *testing.T) {
	s := Schedule{Start: 1, Min: 0.5, Decay: 0.5}

	if v := s.Value(); v != 1 {
		t.Fatalf("Value() = %v, want 1", v)
	}
	if v := s.Next(); v != 0.5 {
		t.Errorf("Next() = %v, want 0.5", v)
	}
	if v := s.Next(); v != 0.5 {
		t.Errorf("Next() = %v, want floor 0.5", v)
	}
	if v := s.Value(); v != 0.5 {
		t.Errorf("Value() = %v, want 0.5", v)
	}
}

func TestDefaultScheduleReachesFloor(t *testing.T) {
	s := DefaultSchedule()
	var v float64
	for i := 0; i < 1200; i++ {
		v = s.Next()
	}
	if v != MinEpsilon {
		t.Errorf("epsilon after 1200 episodes = %v, want %v", v, MinEpsilon)
	}
}

func TestScheduleValidate(t *testing.T) {
	tests := []struct {
		name string
		s    Schedule
		ok   bool
	}{
		{"default", DefaultSchedule(), true},
		{"start above one", Schedule{Start: 1.5, Min: 0, Decay: 0.9}, false},
		{"negative min", Schedule{Start: 1, Min: -0.1, Decay: 0.9}, false},
		{"zero decay", Schedule{Start: 1, Min: 0, Decay: 0}, false},
		{"growing", Schedule{Start: 1, Min: 0, Decay: 1.1}, false},
		{"floor above start", Schedule{Start: 0.1, Min: 0.5, Decay: 0.9}, false},
		{"constant", Schedule{Start: 0.3, Min: 0.3, Decay: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.s.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() error = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}
