package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/logrusorgru/aurora"

	"snake-qlearning/game/types"
)

// Terminal prints each snapshot as a character grid:
// '.' empty, 'S' snake, 'F' food, followed by the score.
type Terminal struct {
	out   io.Writer
	au    aurora.Aurora
	delay time.Duration
}

// NewTerminal writes to out. delay, if positive, is slept after every frame.
func NewTerminal(out io.Writer, colors bool, delay time.Duration) *Terminal {
	return &Terminal{
		out:   out,
		au:    aurora.NewAurora(colors),
		delay: delay,
	}
}

func (t *Terminal) Render(s types.Snapshot) error {
	board := make([][]byte, s.Grid.Height)
	for y := range board {
		board[y] = []byte(strings.Repeat(".", s.Grid.Width))
	}
	for _, p := range s.Snake {
		if s.Grid.Contains(p) {
			board[p.Y][p.X] = 'S'
		}
	}
	if s.Grid.Contains(s.Food) {
		board[s.Food.Y][s.Food.X] = 'F'
	}

	var b strings.Builder
	for y, row := range board {
		for x, c := range row {
			switch {
			case c == 'F':
				fmt.Fprint(&b, t.au.Red("F"))
			case c == 'S' && len(s.Snake) > 0 && s.Head() == (types.Point{X: x, Y: y}):
				fmt.Fprint(&b, t.au.Bold(t.au.Cyan("S")))
			case c == 'S':
				fmt.Fprint(&b, t.au.Cyan("S"))
			default:
				b.WriteByte(c)
			}
		}
		b.WriteByte('\n')
	}
	fmt.Fprintln(&b, t.au.Green(fmt.Sprintf("Score: %d", s.Score)))

	if _, err := io.WriteString(t.out, b.String()); err != nil {
		return fmt.Errorf("terminal render: %w", err)
	}
	if t.delay > 0 {
		time.Sleep(t.delay)
	}
	return nil
}

func (t *Terminal) Close() error {
	return nil
}
