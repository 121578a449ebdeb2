package ui

import (
	"errors"

	"snake-qlearning/game"
	"snake-qlearning/game/types"
)

// Multi fans every snapshot out to several renderers.
type Multi []game.Renderer

func (m Multi) Render(s types.Snapshot) error {
	var errs []error
	for _, r := range m {
		if err := r.Render(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, r := range m {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
