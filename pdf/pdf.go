// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package pdf renders reports into PDF documents.
package pdf

import (
	"bytes"
	"io"
	"strings"

	"github.com/UNO-SOFT/reportgen"
	"github.com/jung-kurt/gofpdf"
)

var (
	_ = (reportgen.PageSink)((*Writer)(nil))
	_ = (reportgen.TextMeasurer)((*Writer)(nil))
)

// Writer is a reportgen.PageSink backed by gofpdf. It holds one document;
// create a new Writer for every render.
//
// Core fonts (helvetica, times, courier) cover cp1252 text. Full Unicode
// needs a font registered with WithFont.
type Writer struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	utf8   map[string]bool
	images map[string]bool

	curFamily string
	curSize   float64
}

// Option configures a Writer.
type Option func(*Writer)

// WithFont registers a UTF-8 TrueType font file under the given family and
// style ("", "B", "I" or "BI"). Elements using the family then bypass the
// cp1252 translation of the core fonts.
func WithFont(family, style, filename string) Option {
	return func(w *Writer) {
		w.pdf.AddUTF8Font(family, style, filename)
		w.utf8[strings.ToLower(family)] = true
	}
}

// NewWriter builds a page sink for the given document geometry. The page
// size is fixed for the whole document.
func NewWriter(props *reportgen.DocumentProperties, opts ...Option) *Writer {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: props.PageWidth, Ht: props.PageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetCellMargin(0)
	pdf.SetAutoPageBreak(false, 0)
	w := &Writer{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		utf8:   make(map[string]bool),
		images: make(map[string]bool),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

func (w *Writer) AddPage() { w.pdf.AddPage() }

func (w *Writer) SetFont(f reportgen.Font) {
	family := strings.ToLower(f.Family)
	switch family {
	case "helvetica", "times", "courier":
	default:
		if !w.utf8[family] {
			family = "helvetica"
		}
	}
	var style string
	if f.Bold {
		style += "B"
	}
	if f.Italic {
		style += "I"
	}
	if f.Underline {
		style += "U"
	}
	w.pdf.SetFont(family, style, f.Size)
	w.curFamily, w.curSize = family, f.Size
}

func (w *Writer) SetTextColor(c reportgen.Color) {
	w.pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
}

func (w *Writer) CellText(x, y, wd, h float64, txt string, align reportgen.HAlign) {
	w.pdf.SetXY(x, y)
	var alignStr string
	switch align {
	case reportgen.HCenter:
		alignStr = "C"
	case reportgen.HRight:
		alignStr = "R"
	case reportgen.HJustify:
		alignStr = "J"
	default:
		alignStr = "L"
	}
	w.pdf.CellFormat(wd, h, w.translate(txt), "", 0, alignStr, false, 0, "")
}

func (w *Writer) FillRect(x, y, wd, h float64, c reportgen.Color) {
	w.pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
	w.pdf.Rect(x, y, wd, h, "F")
}

func (w *Writer) DrawLine(x1, y1, x2, y2, width float64, c reportgen.Color) {
	w.pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
	w.pdf.SetLineWidth(width)
	w.pdf.Line(x1, y1, x2, y2)
}

func (w *Writer) DrawImage(key string, data []byte, format string, x, y, wd, h float64) error {
	opts := gofpdf.ImageOptions{ImageType: format}
	if !w.images[key] {
		w.pdf.RegisterImageOptionsReader(key, opts, bytes.NewReader(data))
		w.images[key] = true
	}
	w.pdf.ImageOptions(key, x, y, wd, h, false, opts, 0, "")
	return w.pdf.Error()
}

func (w *Writer) translate(s string) string {
	if w.utf8[w.curFamily] {
		return s
	}
	return w.tr(s)
}

// TextWidth measures a string in the given font.
func (w *Writer) TextWidth(f reportgen.Font, s string) float64 {
	w.SetFont(f)
	return w.pdf.GetStringWidth(w.translate(s))
}

// SplitText wraps a string into lines not wider than width, breaking on
// newlines, then spaces, then inside over-long words.
func (w *Writer) SplitText(f reportgen.Font, s string, width float64) []string {
	if s == "" {
		return nil
	}
	w.SetFont(f)
	var out []string
	for _, para := range strings.Split(s, "\n") {
		out = append(out, w.wrapLine(para, width)...)
	}
	return out
}

func (w *Writer) wrapLine(s string, width float64) []string {
	measure := func(s string) float64 { return w.pdf.GetStringWidth(w.translate(s)) }
	var lines []string
	cur := ""
	for _, word := range strings.Split(s, " ") {
		cand := word
		if cur != "" {
			cand = cur + " " + word
		}
		if measure(cand) <= width {
			cur = cand
			continue
		}
		if cur != "" {
			lines = append(lines, cur)
		}
		for measure(word) > width {
			runes := []rune(word)
			n := len(runes)
			for n > 1 && measure(string(runes[:n])) > width {
				n--
			}
			lines = append(lines, string(runes[:n]))
			word = string(runes[n:])
		}
		cur = word
	}
	return append(lines, cur)
}

// Output finalizes the document and writes it to wr. Deferred drawing
// errors of the whole document surface here.
func (w *Writer) Output(wr io.Writer) error { return w.pdf.Output(wr) }

// Generate renders the report and returns the PDF bytes.
func Generate(r *reportgen.Report, opts ...Option) ([]byte, error) {
	w := NewWriter(r.DocumentProperties(), opts...)
	if err := r.RenderPaged(w); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := w.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GenerateFile renders the report into the named file.
func GenerateFile(r *reportgen.Report, filename string, opts ...Option) error {
	w := NewWriter(r.DocumentProperties(), opts...)
	if err := r.RenderPaged(w); err != nil {
		return err
	}
	return w.pdf.OutputFileAndClose(filename)
}
