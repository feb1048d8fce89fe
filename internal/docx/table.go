package docx

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Table is a w:tbl element.
type Table struct {
	el *etree.Element
}

// Element returns the underlying w:tbl element.
func (t *Table) Element() *etree.Element {
	return t.el
}

// Rows returns the w:tr elements of the table.
func (t *Table) Rows() []*etree.Element {
	return t.el.SelectElements("w:tr")
}

// Row returns the cells of row i.
func (t *Table) Row(i int) ([]*Cell, error) {
	rows := t.Rows()
	if i < 0 || i >= len(rows) {
		return nil, fmt.Errorf("row %d of %d: %w", i, len(rows), ErrOutOfRange)
	}
	return rowCells(rows[i]), nil
}

// Cell returns the cell at row r, column c.
func (t *Table) Cell(r, c int) (*Cell, error) {
	cells, err := t.Row(r)
	if err != nil {
		return nil, err
	}
	if c < 0 || c >= len(cells) {
		return nil, fmt.Errorf("cell %d,%d (row has %d): %w", r, c, len(cells), ErrOutOfRange)
	}
	return cells[c], nil
}

// Cells returns every cell in row-major order.
func (t *Table) Cells() []*Cell {
	var cells []*Cell
	for _, row := range t.Rows() {
		cells = append(cells, rowCells(row)...)
	}
	return cells
}

func rowCells(row *etree.Element) []*Cell {
	els := row.SelectElements("w:tc")
	cells := make([]*Cell, len(els))
	for i, el := range els {
		cells[i] = &Cell{el: el}
	}
	return cells
}

// Text returns the table text, cells separated by tabs and rows by newlines.
func (t *Table) Text() string {
	rows := t.Rows()
	lines := make([]string, len(rows))
	for i, row := range rows {
		cells := rowCells(row)
		parts := make([]string, len(cells))
		for j, c := range cells {
			parts[j] = c.Text()
		}
		lines[i] = strings.Join(parts, "\t")
	}
	return strings.Join(lines, "\n")
}

// Contains reports whether s occurs in any cell.
func (t *Table) Contains(s string) bool {
	for _, c := range t.Cells() {
		if strings.Contains(c.Text(), s) {
			return true
		}
	}
	return false
}

// Clone returns a detached deep copy of the table.
func (t *Table) Clone() *Table {
	return &Table{el: t.el.Copy()}
}

// Spacer returns the paragraph directly after the table, or nil when the
// next sibling is not a paragraph.
func (t *Table) Spacer() *etree.Element {
	next := nextElement(t.el)
	if !is(next, "p") {
		return nil
	}
	return next
}
