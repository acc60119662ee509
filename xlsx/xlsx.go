// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package xlsx renders reports into xlsx workbooks.
package xlsx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/UNO-SOFT/reportgen"
)

var _ = (reportgen.WorksheetSink)((*Writer)(nil))

// MaxRowCount is the row limit of the xlsx format.
const MaxRowCount = 1_048_576

// ErrTooManyRows is returned when a render would exceed MaxRowCount.
var ErrTooManyRows = errors.New("too many rows")

// Writer is a reportgen.WorksheetSink writing one worksheet.
//
// Everything is collected in memory and written out on Close, so very big
// reports may impose problems.
type Writer struct {
	w      io.Writer
	xl     *excelize.File
	sheet  string
	styles map[string]int
	mu     sync.Mutex
}

// NewWriter returns a Writer that emits the workbook to w on Close.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, xl: excelize.NewFile(), sheet: "Sheet1"}
}

// Close finalizes the workbook and writes it out.
func (xlw *Writer) Close() error {
	if xlw == nil {
		return nil
	}
	xlw.mu.Lock()
	defer xlw.mu.Unlock()
	xl, w := xlw.xl, xlw.w
	xlw.xl, xlw.w = nil, nil
	if xl == nil || w == nil {
		return nil
	}
	_, err := xl.WriteTo(w)
	return err
}

// SetCell writes one typed value. Numbers stay numbers and dates stay
// dates, so formulas over the emitted sheet keep working; the style's
// pattern becomes the cell number format.
func (xlw *Writer) SetCell(row, col int, value any, style *reportgen.TextStyle) error {
	xlw.mu.Lock()
	defer xlw.mu.Unlock()
	if row >= MaxRowCount {
		return ErrTooManyRows
	}
	axis, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return fmt.Errorf("%d/%d: %w", col, row, err)
	}
	if style != nil {
		s, err := xlw.getStyle(style)
		if err != nil {
			return err
		}
		if s != 0 {
			if err = xlw.xl.SetCellStyle(xlw.sheet, axis, axis, s); err != nil {
				return fmt.Errorf("%s[%s]: %w", xlw.sheet, axis, err)
			}
		}
	}
	switch x := value.(type) {
	case nil:
		return nil
	case string:
		err = xlw.xl.SetCellStr(xlw.sheet, axis, x)
	case decimal.Decimal:
		f, _ := x.Float64()
		err = xlw.xl.SetCellFloat(xlw.sheet, axis, f, -1, 64)
	case float64:
		err = xlw.xl.SetCellFloat(xlw.sheet, axis, x, -1, 64)
	case bool:
		err = xlw.xl.SetCellBool(xlw.sheet, axis, x)
	case time.Time:
		if x.IsZero() {
			return nil
		}
		layout := "2006-01-02 15:04:05"
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 {
			layout = "2006-01-02"
		}
		err = xlw.xl.SetCellStr(xlw.sheet, axis, x.Format(layout))
	case fmt.Stringer:
		err = xlw.xl.SetCellStr(xlw.sheet, axis, x.String())
	default:
		err = xlw.xl.SetCellValue(xlw.sheet, axis, x)
	}
	if err != nil {
		return fmt.Errorf("%s[%s]: %w", xlw.sheet, axis, err)
	}
	return nil
}

// MergeCells merges the rowSpan x colSpan block starting at (row, col).
func (xlw *Writer) MergeCells(row, col, rowSpan, colSpan int) error {
	xlw.mu.Lock()
	defer xlw.mu.Unlock()
	from, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(col+colSpan, row+rowSpan)
	if err != nil {
		return err
	}
	return xlw.xl.MergeCell(xlw.sheet, from, to)
}

// SetColumnWidth sets a column's width from a device-unit (point) size.
func (xlw *Writer) SetColumnWidth(col int, width float64) error {
	xlw.mu.Lock()
	defer xlw.mu.Unlock()
	name, err := excelize.ColumnNumberToName(col + 1)
	if err != nil {
		return err
	}
	// xlsx column widths are in character units, roughly 7 points each
	return xlw.xl.SetColWidth(xlw.sheet, name, name, width/7)
}

// AddImage anchors an image at (row, col). ext is the file extension with
// the leading dot (".png", ".jpg").
func (xlw *Writer) AddImage(row, col int, data []byte, ext string) error {
	xlw.mu.Lock()
	defer xlw.mu.Unlock()
	axis, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return err
	}
	return xlw.xl.AddPictureFromBytes(xlw.sheet, axis, &excelize.Picture{
		Extension: ext,
		File:      data,
	})
}

func (xlw *Writer) getStyle(style *reportgen.TextStyle) (int, error) {
	k := styleKey(style)
	if s, ok := xlw.styles[k]; ok {
		return s, nil
	}
	st := excelize.Style{
		Font: &excelize.Font{
			Bold:   style.Bold,
			Italic: style.Italic,
			Size:   style.FontSize,
			Family: style.FontFamily,
		},
		Alignment: &excelize.Alignment{
			Horizontal: style.HAlign.String(),
			Vertical:   vAlignName(style.VAlign),
			WrapText:   true,
		},
	}
	if style.Underline {
		st.Font.Underline = "single"
	}
	if style.TextColor.Valid {
		st.Font.Color = colorHex(style.TextColor)
	}
	if style.BackgroundColor.Valid {
		st.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colorHex(style.BackgroundColor)}}
	}
	for _, b := range []struct {
		on  bool
		typ string
	}{
		{style.BorderLeft, "left"},
		{style.BorderTop, "top"},
		{style.BorderRight, "right"},
		{style.BorderBottom, "bottom"},
	} {
		if b.on {
			st.Border = append(st.Border, excelize.Border{Type: b.typ, Color: colorHex(style.BorderColor), Style: 1})
		}
	}
	if style.Pattern != "" {
		pattern := style.Pattern
		st.CustomNumFmt = &pattern
	}
	s, err := xlw.xl.NewStyle(&st)
	if err != nil {
		return 0, err
	}
	if xlw.styles == nil {
		xlw.styles = make(map[string]int)
	}
	xlw.styles[k] = s
	return s, nil
}

func styleKey(s *reportgen.TextStyle) string {
	return fmt.Sprintf("%t\t%t\t%t\t%s\t%g\t%d\t%d\t%v\t%v\t%t%t%t%t\t%v\t%s",
		s.Bold, s.Italic, s.Underline, s.FontFamily, s.FontSize,
		s.HAlign, s.VAlign, s.TextColor, s.BackgroundColor,
		s.BorderLeft, s.BorderTop, s.BorderRight, s.BorderBottom, s.BorderColor,
		s.Pattern)
}

func vAlignName(a reportgen.VAlign) string {
	switch a {
	case reportgen.VMiddle:
		return "center"
	case reportgen.VBottom:
		return "bottom"
	default:
		return "top"
	}
}

func colorHex(c reportgen.Color) string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// Generate renders the report and returns the workbook bytes.
func Generate(r *reportgen.Report) ([]byte, error) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := r.RenderRows(w); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GenerateFile renders the report into the named file.
func GenerateFile(r *reportgen.Report, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	w := NewWriter(f)
	if err = r.RenderRows(w); err != nil {
		f.Close()
		return err
	}
	if err = w.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
