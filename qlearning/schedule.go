package qlearning

import (
	"errors"
	"fmt"
)

const (
	InitialEpsilon = 1.0
	MinEpsilon     = 0.02
	EpsilonDecay   = 0.995
)

// ErrInvalidSchedule is returned by Schedule.Validate.
var ErrInvalidSchedule = errors.New("invalid epsilon schedule")

// Schedule decays the exploration rate once per episode, never below Min.
type Schedule struct {
	Start float64
	Min   float64
	Decay float64

	current float64
	started bool
}

// DefaultSchedule starts fully exploring and decays to 0.02.
func DefaultSchedule() Schedule {
	return Schedule{Start: InitialEpsilon, Min: MinEpsilon, Decay: EpsilonDecay}
}

// Validate checks the rates are probabilities and the decay shrinks.
func (s Schedule) Validate() error {
	switch {
	case s.Start < 0 || s.Start > 1:
		return fmt.Errorf("%w: start %v not in [0,1]", ErrInvalidSchedule, s.Start)
	case s.Min < 0 || s.Min > 1:
		return fmt.Errorf("%w: min %v not in [0,1]", ErrInvalidSchedule, s.Min)
	case s.Decay <= 0 || s.Decay > 1:
		return fmt.Errorf("%w: decay %v not in (0,1]", ErrInvalidSchedule, s.Decay)
	case s.Min > s.Start:
		return fmt.Errorf("%w: min %v above start %v", ErrInvalidSchedule, s.Min, s.Start)
	}
	return nil
}

// Value returns the current epsilon.
func (s *Schedule) Value() float64 {
	if !s.started {
		s.current = s.Start
		s.started = true
	}
	return s.current
}

// Next decays epsilon and returns the new value.
func (s *Schedule) Next() float64 {
	s.current = s.Value() * s.Decay
	if s.current < s.Min {
		s.current = s.Min
	}
	return s.current
}
