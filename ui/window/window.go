package window

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"snake-qlearning/game"
	"snake-qlearning/game/types"
)

const (
	DefaultCellSize = 20
	FPS             = 10
	windowTitle     = "Snake Q-Learning"
)

var (
	snakeColor = rl.Color{R: 0, G: 229, B: 255, A: 255}
	foodColor  = rl.Color{R: 255, G: 107, B: 0, A: 255}
)

// Window draws snapshots in a raylib window and paces playback to FPS.
// The window opens on the first Render and must be driven from the main goroutine.
type Window struct {
	cellSize int32
	fps      int32
	opened   bool
}

func New(cellSize int) *Window {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Window{
		cellSize: int32(cellSize),
		fps:      FPS,
	}
}

func (w *Window) Render(s types.Snapshot) error {
	if !w.opened {
		rl.InitWindow(int32(s.Grid.Width)*w.cellSize, int32(s.Grid.Height)*w.cellSize, windowTitle)
		rl.SetTargetFPS(w.fps)
		w.opened = true
	}
	if rl.WindowShouldClose() {
		return game.ErrDisplayClosed
	}

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	for j, p := range s.Snake {
		color := snakeColor
		if j == 0 { // Head
			color = rl.Color{
				R: brighten(snakeColor.R),
				G: brighten(snakeColor.G),
				B: brighten(snakeColor.B),
				A: 255,
			}
		}
		w.drawCell(p, color)
	}
	if len(s.Snake) > 0 {
		w.drawHeading(s.Head(), s.Heading)
	}

	w.drawCell(s.Food, foodColor)

	fontSize := w.cellSize
	if fontSize < 10 {
		fontSize = 10
	}
	rl.DrawText(fmt.Sprintf("Score: %d", s.Score), 4, 4, fontSize, rl.White)

	rl.EndDrawing()
	return nil
}

func (w *Window) Close() error {
	if w.opened {
		rl.CloseWindow()
		w.opened = false
	}
	return nil
}

func (w *Window) drawCell(p types.Point, color rl.Color) {
	rl.DrawRectangle(
		int32(p.X)*w.cellSize,
		int32(p.Y)*w.cellSize,
		w.cellSize, w.cellSize, color)
}

// drawHeading marks the head with a triangle pointing where the snake moves.
func (w *Window) drawHeading(head types.Point, dir types.Direction) {
	headX := float32(int32(head.X) * w.cellSize)
	headY := float32(int32(head.Y) * w.cellSize)
	cell := float32(w.cellSize)
	half := cell / 2

	switch dir {
	case types.Right:
		rl.DrawTriangle(
			rl.Vector2{X: headX + cell, Y: headY + half},
			rl.Vector2{X: headX + half, Y: headY},
			rl.Vector2{X: headX + half, Y: headY + cell},
			rl.Yellow)
	case types.Left:
		rl.DrawTriangle(
			rl.Vector2{X: headX, Y: headY + half},
			rl.Vector2{X: headX + half, Y: headY + cell},
			rl.Vector2{X: headX + half, Y: headY},
			rl.Yellow)
	case types.Down:
		rl.DrawTriangle(
			rl.Vector2{X: headX + half, Y: headY + cell},
			rl.Vector2{X: headX + cell, Y: headY + half},
			rl.Vector2{X: headX, Y: headY + half},
			rl.Yellow)
	default: // Up
		rl.DrawTriangle(
			rl.Vector2{X: headX + half, Y: headY},
			rl.Vector2{X: headX, Y: headY + half},
			rl.Vector2{X: headX + cell, Y: headY + half},
			rl.Yellow)
	}
}

func brighten(c uint8) uint8 {
	v := float32(c) * 1.3
	if v > 255 {
		return 255
	}
	return uint8(v)
}
