package canvas

const (
	tileSize = 75

	// Rows and Cols are the board dimensions.
	Rows = 8
	Cols = 4

	// BoardWidth and BoardHeight size a surface that fits the board.
	BoardWidth  = Cols * tileSize
	BoardHeight = Rows * tileSize
)

// Cell is one board square. The zero value is empty.
type Cell struct {
	occupied bool
}

// Empty reports whether nothing has been placed on the cell.
func (c Cell) Empty() bool {
	return !c.occupied
}

// Board is the game grid. Nothing reads or changes it yet; every cell stays empty.
type Board struct {
	cells [Rows][Cols]Cell
}

// NewBoard creates a board with every cell empty.
func NewBoard() *Board {
	return &Board{}
}

// Cell returns the cell at row, col and false if either is out of range.
func (b *Board) Cell(row, col int) (Cell, bool) {
	if row < 0 || row >= Rows || col < 0 || col >= Cols {
		return Cell{}, false
	}
	return b.cells[row][col], true
}

// Empty reports whether every cell is empty.
func (b *Board) Empty() bool {
	for _, row := range b.cells {
		for _, c := range row {
			if !c.Empty() {
				return false
			}
		}
	}
	return true
}
