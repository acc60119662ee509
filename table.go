// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package reportgen

import (
	"strconv"
	"strings"
)

// TableElement renders one row per entry of an array parameter, framed by
// optional header and footer rows. Tables split at row boundaries only; a
// split can repeat the header row on every continuation page.
type TableElement struct {
	ElementBase
	dataSource   string
	repeatHeader bool
	border       string

	headerTpl  *rowTemplate
	contentTpl *rowTemplate
	footerTpl  *rowTemplate

	headerRow *tableRow
	bodyRows  []*tableRow // data rows followed by the footer row
	rowIdx    int
}

// rowTemplate is the static definition of a table row: declared height and
// the cell definitions evaluated against each data row.
type rowTemplate struct {
	height float64
	cells  []cellTemplate
}

type cellTemplate struct {
	width   float64
	content string
	eval    bool
	pattern string
	style   *TextStyle
	id      string
}

// tableRow is one prepared output row with per-cell content and the row
// height grown to the tallest cell.
type tableRow struct {
	height float64
	cells  []preparedCell
}

type preparedCell struct {
	x, width float64
	lines    []string
	value    any
	pattern  string
	style    *TextStyle
}

func newTableElement(d elementDef, styles map[int]*TextStyle) *TableElement {
	e := &TableElement{
		ElementBase:  newElementBase(d),
		dataSource:   d.DataSource,
		repeatHeader: bool(d.RepeatHeader),
		border:       d.Border,
	}
	if e.border == "" {
		e.border = "grid"
	}
	if bool(d.Header) && d.HeaderData != nil {
		e.headerTpl = newRowTemplate(*d.HeaderData, styles)
	}
	if d.ContentData != nil {
		e.contentTpl = newRowTemplate(*d.ContentData, styles)
	}
	if bool(d.Footer) && d.FooterData != nil {
		e.footerTpl = newRowTemplate(*d.FooterData, styles)
	}
	return e
}

func newRowTemplate(d tableRowDef, styles map[int]*TextStyle) *rowTemplate {
	t := rowTemplate{height: float64(d.Height), cells: make([]cellTemplate, len(d.ColumnData))}
	for i, cd := range d.ColumnData {
		t.cells[i] = cellTemplate{
			width:   float64(cd.Width),
			content: cd.Content,
			eval:    bool(cd.Eval),
			pattern: cd.Pattern,
			style:   resolveStyle(cd, styles),
			id:      objectIDOf(cd),
		}
	}
	return &t
}

func (e *TableElement) Prepare(ctx *Context, verify bool) error {
	rows, err := e.sourceRows(ctx)
	if err != nil {
		return err
	}

	e.headerRow, e.bodyRows, e.rowIdx = nil, nil, 0
	lastBody := len(rows) - 1
	if e.footerTpl != nil {
		lastBody++
	}
	if e.headerTpl != nil {
		r, err := e.prepareRow(ctx, e.headerTpl, true, lastBody < 0)
		if err != nil {
			return err
		}
		e.headerRow = r
	}
	if e.contentTpl != nil {
		for i, rowData := range rows {
			ctx.pushRow(rowData, i+1)
			r, err := e.prepareRow(ctx, e.contentTpl, e.headerTpl == nil && i == 0, i == lastBody)
			ctx.popRow()
			if err != nil {
				return err
			}
			e.bodyRows = append(e.bodyRows, r)
		}
	}
	if e.footerTpl != nil {
		r, err := e.prepareRow(ctx, e.footerTpl, e.headerTpl == nil && len(e.bodyRows) == 0, true)
		if err != nil {
			return err
		}
		e.bodyRows = append(e.bodyRows, r)
	}
	return nil
}

// sourceRows resolves the table's array parameter. An empty data source
// yields a table of header and footer only.
func (e *TableElement) sourceRows(ctx *Context) ([]map[string]any, error) {
	name := strings.TrimSpace(e.dataSource)
	if inner := placeholderRx.FindStringSubmatch(name); inner != nil {
		name = inner[1]
	}
	if name == "" {
		return nil, nil
	}
	v, ok := ctx.lookup(name)
	if !ok {
		return nil, Error{Code: CodeInvalidDataSource, ObjectID: e.objectID(), Field: "dataSource"}
	}
	rows, ok := coerceRows(v)
	if !ok {
		return nil, Error{Code: CodeInvalidDataSource, ObjectID: e.objectID(), Field: "dataSource"}
	}
	return rows, nil
}

func (e *TableElement) prepareRow(ctx *Context, tpl *rowTemplate, firstRow, lastRow bool) (*tableRow, error) {
	row := tableRow{height: tpl.height, cells: make([]preparedCell, len(tpl.cells))}
	x := 0.0
	for i := range tpl.cells {
		ct := &tpl.cells[i]
		var text string
		var value any
		if ct.eval {
			v, err := ctx.EvaluateExpression(ct.content, ct.id, "content")
			if err != nil {
				return nil, err
			}
			value = v
			text = ctx.FormatValue(v, ct.pattern)
		} else {
			t, err := ctx.FillParameters(ct.content, ct.id, "content")
			if err != nil {
				return nil, err
			}
			value, text = t, t
		}

		var lines []string
		if ctx.measurer != nil {
			lines = ctx.measurer.SplitText(ct.style.Font(), text, ct.width-ct.style.PaddingLeft-ct.style.PaddingRight)
		} else if text != "" {
			lines = strings.Split(text, "\n")
		}
		if h := float64(len(lines))*ct.style.LineHeight() + ct.style.PaddingTop + ct.style.PaddingBottom; h > row.height {
			row.height = h
		}
		row.cells[i] = preparedCell{
			x: x, width: ct.width,
			lines: lines, value: value, pattern: ct.pattern,
			style: e.cellBorderStyle(ct.style, firstRow, lastRow, i == 0, i == len(tpl.cells)-1),
		}
		x += ct.width
	}
	return &row, nil
}

// cellBorderStyle clones the cell style with border edges according to the
// table border mode and the cell's position in the grid.
func (e *TableElement) cellBorderStyle(base *TextStyle, firstRow, lastRow, firstCol, lastCol bool) *TextStyle {
	s := *base
	s.BorderLeft, s.BorderTop, s.BorderRight, s.BorderBottom = false, false, false, false
	switch e.border {
	case "grid":
		s.BorderLeft, s.BorderTop, s.BorderRight, s.BorderBottom = true, true, true, true
	case "frame_row":
		s.BorderLeft, s.BorderRight = firstCol, lastCol
		s.BorderTop = firstRow
		s.BorderBottom = true
	case "frame":
		s.BorderLeft, s.BorderRight = firstCol, lastCol
		s.BorderTop, s.BorderBottom = firstRow, lastRow
	case "row":
		s.BorderBottom = true
	}
	return &s
}

func (e *TableElement) NextFragment(offsetY, avail float64, _ *Context) (Fragment, bool, error) {
	availHeight := avail - offsetY
	used := 0.0
	frag := &tableFragment{x: e.x, y: offsetY}

	if e.headerRow != nil && (e.firstRender || e.repeatHeader) {
		if e.headerRow.height > availHeight && offsetY > 0 {
			return nil, false, nil
		}
		frag.rows = append(frag.rows, e.headerRow)
		used += e.headerRow.height
	}
	taken := 0
	for e.rowIdx < len(e.bodyRows) {
		r := e.bodyRows[e.rowIdx]
		if used+r.height > availHeight && !(offsetY == 0 && taken == 0) {
			break
		}
		frag.rows = append(frag.rows, r)
		used += r.height
		e.rowIdx++
		taken++
	}
	if taken == 0 && e.rowIdx < len(e.bodyRows) {
		// nothing fit below the header; retry the whole block on the next
		// page
		if offsetY > 0 {
			return nil, false, nil
		}
	}

	frag.height = used
	e.firstRender = false
	complete := e.rowIdx == len(e.bodyRows)
	if complete {
		e.complete = true
		e.renderBottom = offsetY + used
	}
	return frag, complete, nil
}

// ColumnSpan is the table's column count, so a neighboring element in the
// same spreadsheet row starts after all table columns.
func (e *TableElement) ColumnSpan() int {
	if e.contentTpl == nil || len(e.contentTpl.cells) == 0 {
		return 1
	}
	return len(e.contentTpl.cells)
}

func (e *TableElement) EmitCells(row, col int, _ *Context, sink WorksheetSink) (int, error) {
	if e.contentTpl != nil {
		for i := range e.contentTpl.cells {
			if err := sink.SetColumnWidth(col+i, e.contentTpl.cells[i].width); err != nil {
				return 0, err
			}
		}
	}
	r := row
	rows := e.bodyRows
	if e.headerRow != nil {
		rows = append([]*tableRow{e.headerRow}, rows...)
	}
	for _, tr := range rows {
		for i := range tr.cells {
			c := &tr.cells[i]
			st := *c.style
			st.Pattern = c.pattern
			if err := sink.SetCell(r, col+i, c.value, &st); err != nil {
				return 0, err
			}
		}
		r++
	}
	if e.spreadsheetAddEmptyRow {
		r++
	}
	return r, nil
}

func (e *TableElement) Release() { e.headerRow, e.bodyRows = nil, nil }

// tableFragment draws a run of prepared rows at the table's position.
type tableFragment struct {
	x, y   float64
	height float64
	rows   []*tableRow
}

func (f *tableFragment) Draw(offsetX, offsetY float64, sink PageSink) error {
	y := offsetY + f.y
	for _, r := range f.rows {
		for i := range r.cells {
			c := &r.cells[i]
			s := c.style
			x := offsetX + f.x + c.x
			if s.BackgroundColor.Valid {
				sink.FillRect(x, y, c.width, r.height, s.BackgroundColor)
			}
			drawBorders(sink, s, x, y, c.width, r.height, true, true)
			if len(c.lines) == 0 {
				continue
			}
			sink.SetFont(s.Font())
			sink.SetTextColor(s.TextColor)
			lh := s.LineHeight()
			ty := y + s.PaddingTop + valignOffset(s, r.height, float64(len(c.lines))*lh)
			for j, line := range c.lines {
				sink.CellText(x+s.PaddingLeft, ty+float64(j)*lh, c.width-s.PaddingLeft-s.PaddingRight, lh, line, s.HAlign)
			}
		}
		y += r.height
	}
	return nil
}

func (f *tableFragment) Release() { f.rows = nil }

func objectIDOf(d elementDef) string {
	return strconv.Itoa(int(d.ID))
}
