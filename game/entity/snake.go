package entity

import (
	"snake-qlearning/game/types"
)

// Snake holds the body cells, head first.
type Snake struct {
	Body      []types.Point
	Direction types.Direction
}

// NewSnake lays out a snake of the given length behind head, opposite to dir.
func NewSnake(head types.Point, dir types.Direction, length int) *Snake {
	back := dir.TurnLeft().TurnLeft().ToPoint()
	body := make([]types.Point, 0, length)
	p := head
	for i := 0; i < length; i++ {
		body = append(body, p)
		p = p.Add(back)
	}
	return &Snake{
		Body:      body,
		Direction: dir,
	}
}

// Move prepends the new head.
func (s *Snake) Move(newHead types.Point) {
	s.Body = append(s.Body, types.Point{})
	copy(s.Body[1:], s.Body)
	s.Body[0] = newHead
}

// RemoveTail drops the last cell.
func (s *Snake) RemoveTail() {
	if len(s.Body) > 0 {
		s.Body = s.Body[:len(s.Body)-1]
	}
}

func (s *Snake) GetHead() types.Point {
	return s.Body[0]
}

func (s *Snake) GetTail() types.Point {
	return s.Body[len(s.Body)-1]
}

func (s *Snake) Len() int {
	return len(s.Body)
}

// Contains reports whether p is any body cell, tail included.
func (s *Snake) Contains(p types.Point) bool {
	for _, part := range s.Body {
		if part == p {
			return true
		}
	}
	return false
}

// Cells returns a copy of the body.
func (s *Snake) Cells() []types.Point {
	body := make([]types.Point, len(s.Body))
	copy(body, s.Body)
	return body
}

// Turn applies a relative action to the heading.
func (s *Snake) Turn(a types.Action) {
	s.Direction = s.Direction.Apply(a)
}

// NextHead is the cell the head would enter with the current heading.
func (s *Snake) NextHead() types.Point {
	return s.GetHead().Add(s.Direction.ToPoint())
}
