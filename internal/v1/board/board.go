// Package board implements the gomoku rule engine: a 15×15 grid with
// placement validation and five-in-a-row detection. The engine is
// deterministic, performs no I/O, and is the only code allowed to mutate
// cells; callers serialize access.
package board

import (
	"errors"

	"github.com/omoknet/gomoku-server/internal/v1/protocol"
)

// Size is the board edge length.
const Size = 15

// winLength is the minimum run for a win. Longer runs (overlines) also win.
const winLength = 5

var (
	ErrInvalidPosition = errors.New("invalid position")
	ErrOccupied        = errors.New("position already occupied")
	ErrBadColor        = errors.New("invalid stone color")
)

// Board holds the grid. The zero value of a cell means empty.
type Board struct {
	cells [Size][Size]protocol.StoneColor
}

// New returns an empty board.
func New() *Board {
	return &Board{}
}

// IsValid reports whether (x, y) is on the board.
func (b *Board) IsValid(x, y int) bool {
	return x >= 0 && x < Size && y >= 0 && y < Size
}

// StoneAt returns the color at (x, y), or ColorNone for empty or
// out-of-range coordinates.
func (b *Board) StoneAt(x, y int) protocol.StoneColor {
	if !b.IsValid(x, y) {
		return protocol.ColorNone
	}
	return b.cells[x][y]
}

// Place sets the cell at (x, y) to color.
func (b *Board) Place(x, y int, color protocol.StoneColor) error {
	if !b.IsValid(x, y) {
		return ErrInvalidPosition
	}
	if b.cells[x][y] != protocol.ColorNone {
		return ErrOccupied
	}
	if !color.Valid() {
		return ErrBadColor
	}
	b.cells[x][y] = color
	return nil
}

// axes are the four win directions as (dx, dy) pairs; each is walked in both
// orientations from the placed stone.
var axes = [4][2][2]int{
	{{0, 1}, {0, -1}},  // horizontal
	{{1, 0}, {-1, 0}},  // vertical
	{{1, 1}, {-1, -1}}, // diagonal ↘
	{{1, -1}, {-1, 1}}, // diagonal ↙
}

// CheckWinner reports whether the stone at (x, y) completes a run of five or
// more along any axis, returning the winning color. Returns ColorNone when
// the cell is empty or no run reaches five.
func (b *Board) CheckWinner(x, y int) protocol.StoneColor {
	if !b.IsValid(x, y) {
		return protocol.ColorNone
	}
	color := b.cells[x][y]
	if color == protocol.ColorNone {
		return protocol.ColorNone
	}

	for _, axis := range axes {
		count := 1 // the placed stone
		for _, dir := range axis {
			nx, ny := x+dir[0], y+dir[1]
			for b.IsValid(nx, ny) && b.cells[nx][ny] == color {
				count++
				nx += dir[0]
				ny += dir[1]
			}
		}
		if count >= winLength {
			return color
		}
	}
	return protocol.ColorNone
}

// Reset clears every cell.
func (b *Board) Reset() {
	b.cells = [Size][Size]protocol.StoneColor{}
}

// Snapshot returns an independent copy of the grid in the wire layout:
// Size rows of Size cells, empty cells as ColorNone.
func (b *Board) Snapshot() [][]protocol.StoneColor {
	grid := make([][]protocol.StoneColor, Size)
	for x := range b.cells {
		row := make([]protocol.StoneColor, Size)
		copy(row, b.cells[x][:])
		grid[x] = row
	}
	return grid
}

// IsFull reports whether no empty cell remains, which ends the game in a
// draw when no winner was found.
func (b *Board) IsFull() bool {
	for x := range b.cells {
		for y := range b.cells[x] {
			if b.cells[x][y] == protocol.ColorNone {
				return false
			}
		}
	}
	return true
}

// Count returns the number of black and white stones on the board.
func (b *Board) Count() (black, white int) {
	for x := range b.cells {
		for y := range b.cells[x] {
			switch b.cells[x][y] {
			case protocol.ColorBlack:
				black++
			case protocol.ColorWhite:
				white++
			}
		}
	}
	return black, white
}
