// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package reportgen renders declarative report definitions (fixed-position
// elements grouped into header/content/footer bands) into paginated
// documents and row-oriented spreadsheets.
//
// The engine only talks to the two sink interfaces below; concrete sinks
// live in the pdf and xlsx subpackages.
package reportgen

import "errors"

// ErrTooManyPages is returned when the content band does not converge within
// the page cap, almost always a cyclic or degenerate element configuration.
var ErrTooManyPages = errors.New("too many pages")

// maxRenderPages is the hard cap on the sizing phase.
const maxRenderPages = 10000

// PageSink receives the drawing primitives of a paginated render. All
// coordinates and sizes are device units (points, 72 dpi) with the origin at
// the top-left corner of the page.
//
// Drawing errors accumulate inside the sink and surface when the document is
// finalized; only operations that can fail early (images) report directly.
type PageSink interface {
	// AddPage starts a new physical page.
	AddPage()
	// SetFont selects the typeface for subsequent CellText calls.
	SetFont(f Font)
	// SetTextColor selects the fill color for subsequent CellText calls.
	SetTextColor(c Color)
	// CellText draws a single line of text into the given box.
	CellText(x, y, w, h float64, txt string, align HAlign)
	// FillRect fills a rectangle.
	FillRect(x, y, w, h float64, c Color)
	// DrawLine draws a straight line of the given width.
	DrawLine(x1, y1, x2, y2, width float64, c Color)
	// DrawImage places an image. key identifies identical content across
	// calls so a backend can register the bytes once; format is the image
	// format name ("png", "jpg").
	DrawImage(key string, data []byte, format string, x, y, w, h float64) error
}

// TextMeasurer is implemented by sinks that can measure text, letting text
// elements wrap their content against real font metrics. Without a measurer
// the engine falls back to breaking on newlines only.
type TextMeasurer interface {
	TextWidth(f Font, s string) float64
	SplitText(f Font, s string, width float64) []string
}

// WorksheetSink receives the cells of a row-oriented render. Rows and
// columns are zero-based.
type WorksheetSink interface {
	SetCell(row, col int, value any, style *TextStyle) error
	MergeCells(row, col, rowSpan, colSpan int) error
	SetColumnWidth(col int, width float64) error
	AddImage(row, col int, data []byte, ext string) error
}
