// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package reportgen

import "strings"

// TextElement is a box of wrapped text. It grows beyond its declared height
// when the content needs more lines, and splits line-wise across pages.
type TextElement struct {
	ElementBase
	content               string
	eval                  bool
	pattern               string
	alwaysPrintOnSamePage bool
	style                 *TextStyle

	// prepared per render pass
	value       any // typed value for spreadsheet cells
	lines       []string
	lineIdx     int
	totalHeight float64
}

func newTextElement(d elementDef, styles map[int]*TextStyle) *TextElement {
	return &TextElement{
		ElementBase:           newElementBase(d),
		content:               d.Content,
		eval:                  bool(d.Eval),
		pattern:               d.Pattern,
		alwaysPrintOnSamePage: bool(d.AlwaysPrintOnSamePage),
		style:                 resolveStyle(d, styles),
	}
}

func (e *TextElement) Prepare(ctx *Context, verify bool) error {
	var text string
	if e.eval {
		v, err := ctx.EvaluateExpression(e.content, e.objectID(), "content")
		if err != nil {
			return err
		}
		e.value = v
		text = ctx.FormatValue(v, e.pattern)
	} else {
		t, err := ctx.FillParameters(e.content, e.objectID(), "content")
		if err != nil {
			return err
		}
		e.value = t
		text = t
	}
	if verify {
		return nil
	}

	avail := e.width - e.style.PaddingLeft - e.style.PaddingRight
	if ctx.measurer != nil {
		e.lines = ctx.measurer.SplitText(e.style.Font(), text, avail)
	} else if text == "" {
		e.lines = nil
	} else {
		e.lines = strings.Split(text, "\n")
	}
	e.lineIdx = 0
	textHeight := float64(len(e.lines)) * e.style.LineHeight()
	e.totalHeight = max(e.height, textHeight+e.style.PaddingTop+e.style.PaddingBottom)
	return nil
}

func (e *TextElement) NextFragment(offsetY, avail float64, ctx *Context) (Fragment, bool, error) {
	availHeight := avail - offsetY
	if e.alwaysPrintOnSamePage && e.firstRender && e.totalHeight > availHeight && offsetY > 0 {
		// keep the whole element together, try again on an empty page
		return nil, false, nil
	}

	lineHeight := e.style.LineHeight()
	used := 0.0
	textOff := 0.0
	if e.firstRender {
		used = e.style.PaddingTop
		textOff = e.style.PaddingTop
	}
	start := e.lineIdx
	for e.lineIdx < len(e.lines) && used+lineHeight <= availHeight {
		used += lineHeight
		e.lineIdx++
	}
	if e.lineIdx == start && e.lineIdx < len(e.lines) {
		if offsetY > 0 {
			return nil, false, nil
		}
		// a full empty page must always make progress
		used += lineHeight
		e.lineIdx++
	}

	last := e.lineIdx == len(e.lines)
	if last {
		used += e.style.PaddingBottom
	}
	height := used
	if e.firstRender && last {
		// unsplit element keeps its declared box
		height = e.totalHeight
		textOff += valignOffset(e.style, height, float64(len(e.lines))*lineHeight)
	}

	frag := &textFragment{
		style:  e.style,
		x:      e.x,
		y:      offsetY,
		width:  e.width,
		height: height,
		lines:  e.lines[start:e.lineIdx],
		textY:  textOff,
		first:  e.firstRender,
		last:   last,
	}
	e.firstRender = false
	if last {
		e.complete = true
		e.renderBottom = offsetY + height
	}
	return frag, last, nil
}

func valignOffset(s *TextStyle, boxHeight, textHeight float64) float64 {
	free := boxHeight - s.PaddingTop - s.PaddingBottom - textHeight
	if free <= 0 {
		return 0
	}
	switch s.VAlign {
	case VMiddle:
		return free / 2
	case VBottom:
		return free
	}
	return 0
}

func (e *TextElement) EmitCells(row, col int, ctx *Context, sink WorksheetSink) (int, error) {
	st := *e.style
	st.Pattern = e.pattern
	if err := sink.SetCell(row, col, e.value, &st); err != nil {
		return 0, err
	}
	if n := e.spreadsheetColspan; n > 1 {
		if err := sink.MergeCells(row, col, 1, n); err != nil {
			return 0, err
		}
	}
	return e.nextRow(row), nil
}

func (e *TextElement) Release() { e.lines = nil }

// textFragment is one page's slice of a text element: background and side
// borders always, top/bottom border and padding only on the first/last
// slice.
type textFragment struct {
	style  *TextStyle
	x, y   float64
	width  float64
	height float64
	lines  []string
	textY  float64
	first  bool
	last   bool
}

func (f *textFragment) Draw(offsetX, offsetY float64, sink PageSink) error {
	x, y := offsetX+f.x, offsetY+f.y
	s := f.style
	if s.BackgroundColor.Valid {
		sink.FillRect(x, y, f.width, f.height, s.BackgroundColor)
	}
	drawBorders(sink, s, x, y, f.width, f.height, f.first, f.last)

	sink.SetFont(s.Font())
	sink.SetTextColor(s.TextColor)
	tx := x + s.PaddingLeft
	tw := f.width - s.PaddingLeft - s.PaddingRight
	ty := y + f.textY
	lh := s.LineHeight()
	for i, line := range f.lines {
		sink.CellText(tx, ty+float64(i)*lh, tw, lh, line, s.HAlign)
	}
	return nil
}

func (f *textFragment) Release() { f.lines = nil }

// drawBorders draws the enabled box borders; the top edge belongs to the
// first fragment of an element, the bottom edge to the last.
func drawBorders(sink PageSink, s *TextStyle, x, y, w, h float64, first, last bool) {
	if !s.hasBorder() {
		return
	}
	if s.BorderLeft {
		sink.DrawLine(x, y, x, y+h, s.BorderWidth, s.BorderColor)
	}
	if s.BorderRight {
		sink.DrawLine(x+w, y, x+w, y+h, s.BorderWidth, s.BorderColor)
	}
	if s.BorderTop && first {
		sink.DrawLine(x, y, x+w, y, s.BorderWidth, s.BorderColor)
	}
	if s.BorderBottom && last {
		sink.DrawLine(x, y+h, x+w, y+h, s.BorderWidth, s.BorderColor)
	}
}
