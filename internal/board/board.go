// Package board implements the 8x8 grid that owns every placed piece and
// provides the occupancy queries the rule layers evaluate against.
package board

import (
	"fmt"
	"strings"

	"chesscore/internal/core"
)

// Piece is a placed chessman. Its Pos field is authoritative only while the
// piece sits on a board; the board keeps it in sync with the storage cell.
type Piece struct {
	Color core.Color
	Kind  core.Kind
	Pos   core.Position
}

// Cell is a transient query result pairing a position with its occupant,
// never owned by the board.
type Cell struct {
	Piece *Piece
	Pos   core.Position
}

// Board is an 8x8 grid where each cell holds at most one piece. The board
// exclusively owns every placed piece; a captured piece is destroyed.
type Board struct {
	grid [8][8]*Piece
}

// New returns an empty board.
func New() *Board {
	return &Board{}
}

// NewInitial returns a board with the standard starting layout: black on
// rows 0-1, white on rows 6-7.
func NewInitial() *Board {
	b := New()
	back := []core.Kind{core.Rook, core.Knight, core.Bishop, core.Queen, core.King, core.Bishop, core.Knight, core.Rook}
	for col := 0; col < 8; col++ {
		b.mustPlace(Piece{Color: core.ColorBlack, Kind: back[col]}, core.Position{Row: 0, Col: col})
		b.mustPlace(Piece{Color: core.ColorBlack, Kind: core.Pawn}, core.Position{Row: 1, Col: col})
		b.mustPlace(Piece{Color: core.ColorWhite, Kind: core.Pawn}, core.Position{Row: 6, Col: col})
		b.mustPlace(Piece{Color: core.ColorWhite, Kind: back[col]}, core.Position{Row: 7, Col: col})
	}
	return b
}

func (b *Board) mustPlace(pc Piece, pos core.Position) {
	if err := b.Place(pc, pos); err != nil {
		panic(err)
	}
}

// At returns the piece at pos, or nil for an empty in-range cell.
func (b *Board) At(pos core.Position) (*Piece, error) {
	if !pos.InBounds() {
		return nil, fmt.Errorf("%w: %s", core.ErrOutOfRange, pos)
	}
	return b.grid[pos.Row][pos.Col], nil
}

// CellAt returns the cell query value for pos.
func (b *Board) CellAt(pos core.Position) (Cell, error) {
	pc, err := b.At(pos)
	if err != nil {
		return Cell{}, err
	}
	return Cell{Piece: pc, Pos: pos}, nil
}

// Place puts a copy of pc on pos, replacing any occupant.
func (b *Board) Place(pc Piece, pos core.Position) error {
	if !pos.InBounds() {
		return fmt.Errorf("%w: %s", core.ErrOutOfRange, pos)
	}
	pc.Pos = pos
	b.grid[pos.Row][pos.Col] = &pc
	return nil
}

// Remove clears pos. Removing from an empty cell is not an error.
func (b *Board) Remove(pos core.Position) error {
	if !pos.InBounds() {
		return fmt.Errorf("%w: %s", core.ErrOutOfRange, pos)
	}
	b.grid[pos.Row][pos.Col] = nil
	return nil
}

// Move relocates the piece on from to to, destroying any occupant of to.
func (b *Board) Move(from, to core.Position) error {
	if !from.InBounds() {
		return fmt.Errorf("%w: %s", core.ErrOutOfRange, from)
	}
	if !to.InBounds() {
		return fmt.Errorf("%w: %s", core.ErrOutOfRange, to)
	}
	pc := b.grid[from.Row][from.Col]
	if pc == nil {
		return fmt.Errorf("%w: %s", core.ErrEmptySource, from)
	}
	pc.Pos = to
	b.grid[to.Row][to.Col] = pc
	b.grid[from.Row][from.Col] = nil
	return nil
}

// Snapshot produces a deep, independently-owned copy. The legality filter
// simulates hypothetical moves on snapshots so the live board never sees a
// partially applied move.
func (b *Board) Snapshot() *Board {
	c := New()
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if pc := b.grid[row][col]; pc != nil {
				cp := *pc
				c.grid[row][col] = &cp
			}
		}
	}
	return c
}

// Pieces returns all pieces of the given color.
func (b *Board) Pieces(c core.Color) []*Piece {
	var out []*Piece
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if pc := b.grid[row][col]; pc != nil && pc.Color == c {
				out = append(out, pc)
			}
		}
	}
	return out
}

// King locates the king of the given color.
func (b *Board) King(c core.Color) (*Piece, bool) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if pc := b.grid[row][col]; pc != nil && pc.Color == c && pc.Kind == core.King {
				return pc, true
			}
		}
	}
	return nil, false
}

// Equal reports whether two boards hold the same pieces on the same cells.
func (b *Board) Equal(other *Board) bool {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			a, o := b.grid[row][col], other.grid[row][col]
			switch {
			case a == nil && o == nil:
			case a == nil || o == nil:
				return false
			case *a != *o:
				return false
			}
		}
	}
	return true
}

var fenLetters = map[core.Kind]byte{
	core.King:   'k',
	core.Queen:  'q',
	core.Rook:   'r',
	core.Bishop: 'b',
	core.Knight: 'n',
	core.Pawn:   'p',
}

func fenLetter(pc *Piece) byte {
	ch := fenLetters[pc.Kind]
	if pc.Color == core.ColorWhite {
		ch -= 'a' - 'A'
	}
	return ch
}

// Placement returns the piece-placement field of a FEN string.
func (b *Board) Placement() string {
	var sb strings.Builder
	for row := 0; row < 8; row++ {
		empty := 0
		for col := 0; col < 8; col++ {
			pc := b.grid[row][col]
			if pc == nil {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(fenLetter(pc))
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if row != 7 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

// ToASCII creates an ASCII representation of the board
func (b *Board) ToASCII() string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")
	for row := 0; row < 8; row++ {
		sb.WriteString(fmt.Sprintf("%d ", 8-row))
		for col := 0; col < 8; col++ {
			if pc := b.grid[row][col]; pc != nil {
				sb.WriteString(fmt.Sprintf("%c ", fenLetter(pc)))
			} else {
				sb.WriteString(". ")
			}
		}
		sb.WriteString(fmt.Sprintf(" %d\n", 8-row))
	}
	sb.WriteString("  a b c d e f g h")
	return sb.String()
}
