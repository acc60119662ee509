// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package reportgen

import "math"

// All layout happens in device units: points at a fixed 72 dpi.
const dpi = 72

const docPropsID = "0_document_properties"

// PageFormat is a named page size, or FormatUserDefined with explicit
// width/height plus unit.
type PageFormat int

const (
	FormatA4 PageFormat = iota
	FormatA5
	FormatLetter
	FormatUserDefined
)

func parsePageFormat(s string) PageFormat {
	switch s {
	case "a4", "A4":
		return FormatA4
	case "a5", "A5":
		return FormatA5
	case "letter", "Letter":
		return FormatLetter
	default:
		return FormatUserDefined
	}
}

// Unit is the measurement unit of a user-defined page size.
type Unit int

const (
	UnitMM Unit = iota
	UnitInch
)

func parseUnit(s string) Unit {
	if s == "inch" {
		return UnitInch
	}
	return UnitMM
}

func toPoints(v float64, u Unit) float64 {
	if u == UnitInch {
		return math.Round(dpi * v)
	}
	return math.Round(dpi * v / 25.4)
}

// Orientation of the page.
type Orientation int

const (
	Portrait Orientation = iota
	Landscape
)

func parseOrientation(s string) Orientation {
	if s == "landscape" {
		return Landscape
	}
	return Portrait
}

// BandDisplay governs on which pages a header or footer band appears.
type BandDisplay int

const (
	DisplayAlways BandDisplay = iota
	DisplayNever
	DisplayNotOnFirstPage
)

func parseBandDisplay(s string) BandDisplay {
	switch s {
	case "never":
		return DisplayNever
	case "not_on_first_page", "notOnFirstPage":
		return DisplayNotOnFirstPage
	default:
		return DisplayAlways
	}
}

// VisibleOn reports whether a band with this display policy appears on the
// given 1-based page number.
func (d BandDisplay) VisibleOn(pageNo int) bool {
	switch d {
	case DisplayNever:
		return false
	case DisplayNotOnFirstPage:
		return pageNo != 1
	default:
		return true
	}
}

// DocumentProperties is the resolved page geometry of a report. All sizes
// are device units. Immutable after construction.
type DocumentProperties struct {
	PageWidth, PageHeight     float64
	ContentHeight             float64
	MarginLeft, MarginTop     float64
	MarginRight, MarginBottom float64

	Header        bool
	HeaderDisplay BandDisplay
	HeaderSize    float64
	Footer        bool
	FooterDisplay BandDisplay
	FooterSize    float64

	Orientation           Orientation
	PatternLocale         string
	PatternCurrencySymbol string
}

var validPatternLocales = map[string]bool{
	"de": true, "en": true, "es": true, "fr": true, "it": true,
}

// parseDocumentProperties resolves the geometry and validates it, appending
// field-scoped faults instead of failing.
func parseDocumentProperties(d docPropsDef, errs *[]Error) *DocumentProperties {
	p := DocumentProperties{
		Orientation:           parseOrientation(d.Orientation),
		PatternLocale:         d.PatternLocale,
		PatternCurrencySymbol: d.PatternCurrencySymbol,
	}

	var w, h float64
	var unit Unit
	switch parsePageFormat(d.PageFormat) {
	case FormatA4:
		w, h, unit = 210, 297, UnitMM
	case FormatA5:
		w, h, unit = 148, 210, UnitMM
	case FormatLetter:
		w, h, unit = 8.5, 11, UnitInch
	default:
		w, h = float64(d.PageWidth), float64(d.PageHeight)
		unit = parseUnit(d.Unit)
		var lo, hi float64 = 100, 100000
		if unit == UnitInch {
			lo, hi = 1, 1000
		}
		if w < lo || w >= hi {
			*errs = append(*errs, Error{Code: CodeInvalidPageSize, ObjectID: docPropsID, Field: "page"})
		} else if h < lo || h >= hi {
			*errs = append(*errs, Error{Code: CodeInvalidPageSize, ObjectID: docPropsID, Field: "page"})
		}
	}
	if p.Orientation == Landscape && parsePageFormat(d.PageFormat) != FormatUserDefined {
		w, h = h, w
	}
	p.PageWidth = toPoints(w, unit)
	p.PageHeight = toPoints(h, unit)

	p.MarginLeft = float64(d.MarginLeft)
	p.MarginTop = float64(d.MarginTop)
	p.MarginRight = float64(d.MarginRight)
	p.MarginBottom = float64(d.MarginBottom)

	if p.PatternLocale == "" {
		p.PatternLocale = "en"
	} else if !validPatternLocales[p.PatternLocale] {
		*errs = append(*errs, Error{Code: CodeInvalidPatternLocale, ObjectID: docPropsID, Field: "patternLocale"})
		p.PatternLocale = "en"
	}

	p.Header = bool(d.Header)
	if p.Header {
		p.HeaderDisplay = parseBandDisplay(d.HeaderDisplay)
		p.HeaderSize = float64(d.HeaderSize)
	} else {
		p.HeaderDisplay = DisplayNever
	}
	p.Footer = bool(d.Footer)
	if p.Footer {
		p.FooterDisplay = parseBandDisplay(d.FooterDisplay)
		p.FooterSize = float64(d.FooterSize)
	} else {
		p.FooterDisplay = DisplayNever
	}

	p.ContentHeight = float64(d.ContentHeight)
	if p.ContentHeight == 0 {
		p.ContentHeight = p.PageHeight - p.HeaderSize - p.FooterSize - p.MarginTop - p.MarginBottom
	}
	return &p
}

// contentWidth is the horizontal space available to all bands.
func (p *DocumentProperties) contentWidth() float64 {
	return p.PageWidth - p.MarginLeft - p.MarginRight
}
