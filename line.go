// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package reportgen

// LineElement is a horizontal rule. It never splits; if it does not fit on
// the current page it moves to the next one whole.
type LineElement struct {
	ElementBase
	color Color
}

func newLineElement(d elementDef) *LineElement {
	e := &LineElement{ElementBase: newElementBase(d), color: ParseColor(d.Color)}
	if !e.color.Valid {
		e.color = black
	}
	return e
}

func (e *LineElement) NextFragment(offsetY, avail float64, _ *Context) (Fragment, bool, error) {
	if offsetY+e.height > avail && offsetY > 0 {
		return nil, false, nil
	}
	e.complete = true
	e.renderBottom = offsetY + e.height
	e.firstRender = false
	return &lineFragment{
		x: e.x, y: offsetY, width: e.width, height: e.height, color: e.color,
	}, true, nil
}

type lineFragment struct {
	x, y          float64
	width, height float64
	color         Color
}

func (f *lineFragment) Draw(offsetX, offsetY float64, sink PageSink) error {
	// the line is centered in its declared box
	y := offsetY + f.y + f.height/2
	sink.DrawLine(offsetX+f.x, y, offsetX+f.x+f.width, y, f.height, f.color)
	return nil
}

func (f *lineFragment) Release() {}
