// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package reportgen

import "strconv"

// DocElement is the capability shared by all element kinds. The variant set
// is closed (sealed through base), so the flow machinery never needs to know
// a concrete kind beyond the page-break marker.
type DocElement interface {
	// base exposes the shared geometry and flow state; it also seals the
	// interface to this package's element kinds.
	base() *ElementBase

	// ID is the element's stable identity within its report.
	ID() int

	// Prepare readies the element against the data context: evaluates its
	// content, loads assets (skipped under verify) and computes intrinsic
	// size.
	Prepare(ctx *Context, verify bool) error
	// IsPrinted evaluates the element's visibility condition.
	IsPrinted(ctx *Context) (bool, error)
	// NextFragment produces the element's next page-sized fragment at the
	// given vertical offset. A nil fragment with complete=false defers the
	// whole element to the next page. An element returning complete=true
	// has recorded its final render bottom and completion state.
	NextFragment(offsetY, avail float64, ctx *Context) (frag Fragment, complete bool, err error)
	// FinishEmpty records the final position of an element that produced no
	// output (hidden by its visibility condition).
	FinishEmpty(offsetY float64)
	// ColumnSpan is the number of spreadsheet columns the element advances
	// the column cursor by.
	ColumnSpan() int
	// EmitCells writes the element's spreadsheet cells starting at
	// (row, col) and returns the next free row.
	EmitCells(row, col int, ctx *Context, sink WorksheetSink) (int, error)
	// Release drops buffered resources after the element has been drawn.
	Release()
}

// Fragment is one page's worth of an element's output. A fragment is drawn
// exactly once and released afterwards by the consuming band.
type Fragment interface {
	Draw(offsetX, offsetY float64, sink PageSink) error
	Release()
}

// pageBreakFragment delimits physical pages in a band's pending fragments.
type pageBreakFragment struct{}

func (pageBreakFragment) Draw(_, _ float64, _ PageSink) error { return nil }
func (pageBreakFragment) Release()                            {}

// noopFragment is returned by elements that complete without drawable
// output (empty image source, empty bar code). A completing element always
// hands back a fragment so its dependents are unlinked at the end of the
// pass.
type noopFragment struct{}

func (noopFragment) Draw(_, _ float64, _ PageSink) error { return nil }
func (noopFragment) Release()                            {}

// ElementBase carries the geometry, spreadsheet attributes and flow state
// shared by every element kind. Predecessor/successor links are element ids
// resolved through the owning band, never direct references, so clearing a
// link cannot leave dangling state.
type ElementBase struct {
	id                     int
	x, y, width, height    float64
	sortOrder              int
	printIf                string
	spreadsheetHide        bool
	spreadsheetColspan     int
	spreadsheetAddEmptyRow bool

	predecessor  int // element id, 0 = none
	successors   []int
	firstRender  bool
	complete     bool
	renderBottom float64
}

func newElementBase(d elementDef) ElementBase {
	return ElementBase{
		id:                     int(d.ID),
		x:                      float64(d.X),
		y:                      float64(d.Y),
		width:                  float64(d.Width),
		height:                 float64(d.Height),
		sortOrder:              1,
		printIf:                d.PrintIf,
		spreadsheetHide:        bool(d.SpreadsheetHide),
		spreadsheetColspan:     int(d.SpreadsheetColspan),
		spreadsheetAddEmptyRow: bool(d.SpreadsheetAddEmptyRow),
		firstRender:            true,
	}
}

func (b *ElementBase) base() *ElementBase { return b }

// ID is the element's stable identity within its report.
func (b *ElementBase) ID() int { return b.id }

// Bottom is the lower edge in band coordinates.
func (b *ElementBase) Bottom() float64 { return b.y + b.height }

func (b *ElementBase) objectID() string { return strconv.Itoa(b.id) }

// resetFlow rebuilds the per-pass flow state at the start of a render.
func (b *ElementBase) resetFlow() {
	b.predecessor = 0
	b.successors = b.successors[:0]
	b.firstRender = true
	b.complete = false
	b.renderBottom = 0
}

func (b *ElementBase) Prepare(_ *Context, _ bool) error { return nil }

func (b *ElementBase) IsPrinted(ctx *Context) (bool, error) {
	if b.printIf == "" {
		return true, nil
	}
	return ctx.EvaluateBool(b.printIf, b.objectID(), "printIf")
}

func (b *ElementBase) NextFragment(_, _ float64, _ *Context) (Fragment, bool, error) {
	return nil, false, nil
}

func (b *ElementBase) FinishEmpty(offsetY float64) {
	b.renderBottom = offsetY
	b.complete = true
}

func (b *ElementBase) ColumnSpan() int {
	if b.spreadsheetColspan > 0 {
		return b.spreadsheetColspan
	}
	return 1
}

func (b *ElementBase) EmitCells(row, _ int, _ *Context, _ WorksheetSink) (int, error) {
	return row, nil
}

func (b *ElementBase) Release() {}

// nextRow advances the spreadsheet row cursor past this element.
func (b *ElementBase) nextRow(row int) int {
	if b.spreadsheetAddEmptyRow {
		return row + 2
	}
	return row + 1
}

// PageBreakElement forces the content band onto a new page. It sorts before
// regular elements at the same vertical position.
type PageBreakElement struct {
	ElementBase
}

func newPageBreakElement(d elementDef) *PageBreakElement {
	e := &PageBreakElement{ElementBase: newElementBase(d)}
	e.sortOrder = 0
	return e
}

// newElement builds the concrete element for a definition entry. Unsupported
// kinds are collected as faults and skipped.
func newElement(d elementDef, styles map[int]*TextStyle, errs *[]Error) (DocElement, bool) {
	switch d.ElementType {
	case "text":
		return newTextElement(d, styles), true
	case "line":
		return newLineElement(d), true
	case "image":
		return newImageElement(d), true
	case "bar_code":
		return newBarCodeElement(d), true
	case "table":
		return newTableElement(d, styles), true
	case "page_break":
		return newPageBreakElement(d), true
	}
	*errs = append(*errs, Error{
		Code:     CodeUnsupportedElement,
		ObjectID: strconv.Itoa(int(d.ID)),
		Field:    "elementType",
	})
	return nil, false
}

// resolveStyle picks the shared style referenced by styleId, falling back to
// the element's inline style attributes.
func resolveStyle(d elementDef, styles map[int]*TextStyle) *TextStyle {
	if id := int(d.StyleID); id != 0 {
		if s, ok := styles[id]; ok {
			return s
		}
	}
	return newTextStyle(d.textStyleDef)
}
