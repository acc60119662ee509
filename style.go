// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package reportgen

import "strconv"

// Color is an RGB color. The zero value means "unset": transparent for
// backgrounds, backend default for text and borders.
type Color struct {
	R, G, B uint8
	Valid   bool
}

var black = Color{Valid: true}

// ParseColor parses a "#rrggbb" string. Anything else yields the unset color.
func ParseColor(s string) Color {
	if len(s) != 7 || s[0] != '#' {
		return Color{}
	}
	n, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return Color{}
	}
	return Color{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), Valid: true}
}

// HAlign is the horizontal alignment of text within its box.
type HAlign int

const (
	HLeft HAlign = iota
	HCenter
	HRight
	HJustify
)

func (a HAlign) String() string {
	switch a {
	case HCenter:
		return "center"
	case HRight:
		return "right"
	case HJustify:
		return "justify"
	default:
		return "left"
	}
}

func parseHAlign(s string) HAlign {
	switch s {
	case "center":
		return HCenter
	case "right":
		return HRight
	case "justify":
		return HJustify
	default:
		return HLeft
	}
}

// VAlign is the vertical alignment of content within its box.
type VAlign int

const (
	VTop VAlign = iota
	VMiddle
	VBottom
)

func parseVAlign(s string) VAlign {
	switch s {
	case "middle":
		return VMiddle
	case "bottom":
		return VBottom
	default:
		return VTop
	}
}

// Font describes the typeface a sink should select before drawing text.
type Font struct {
	Family                  string
	Size                    float64
	Bold, Italic, Underline bool
}

// TextStyle is the resolved style of a text-carrying element or table cell.
type TextStyle struct {
	Bold, Italic, Underline bool
	HAlign                  HAlign
	VAlign                  VAlign
	TextColor               Color
	BackgroundColor         Color
	FontFamily              string
	FontSize                float64
	LineSpacing             float64

	BorderLeft, BorderTop, BorderRight, BorderBottom bool
	BorderColor                                      Color
	BorderWidth                                      float64

	PaddingLeft, PaddingTop, PaddingRight, PaddingBottom float64

	// Pattern is the number/date display pattern of the element the style
	// is attached to. It only matters for worksheet cells, where it becomes
	// the cell's number format.
	Pattern string
}

func newTextStyle(d textStyleDef) *TextStyle {
	s := TextStyle{
		Bold:            bool(d.Bold),
		Italic:          bool(d.Italic),
		Underline:       bool(d.Underline),
		HAlign:          parseHAlign(d.HorizontalAlignment),
		VAlign:          parseVAlign(d.VerticalAlignment),
		TextColor:       ParseColor(d.TextColor),
		BackgroundColor: ParseColor(d.BackgroundColor),
		FontFamily:      d.Font,
		FontSize:        float64(d.FontSize),
		LineSpacing:     float64(d.LineSpacing),
		BorderLeft:      bool(d.BorderAll) || bool(d.BorderLeft),
		BorderTop:       bool(d.BorderAll) || bool(d.BorderTop),
		BorderRight:     bool(d.BorderAll) || bool(d.BorderRight),
		BorderBottom:    bool(d.BorderAll) || bool(d.BorderBottom),
		BorderColor:     ParseColor(d.BorderColor),
		BorderWidth:     float64(d.BorderWidth),
		PaddingLeft:     float64(d.PaddingLeft),
		PaddingTop:      float64(d.PaddingTop),
		PaddingRight:    float64(d.PaddingRight),
		PaddingBottom:   float64(d.PaddingBottom),
	}
	if s.FontFamily == "" {
		s.FontFamily = "helvetica"
	}
	if s.FontSize == 0 {
		s.FontSize = 12
	}
	if s.LineSpacing == 0 {
		s.LineSpacing = 1
	}
	if !s.TextColor.Valid {
		s.TextColor = black
	}
	if !s.BorderColor.Valid {
		s.BorderColor = black
	}
	if s.BorderWidth == 0 {
		s.BorderWidth = 1
	}
	return &s
}

// Font returns the typeface part of the style.
func (s *TextStyle) Font() Font {
	return Font{
		Family:    s.FontFamily,
		Size:      s.FontSize,
		Bold:      s.Bold,
		Italic:    s.Italic,
		Underline: s.Underline,
	}
}

// LineHeight is the vertical advance of one text line.
func (s *TextStyle) LineHeight() float64 { return s.FontSize * s.LineSpacing }

func (s *TextStyle) hasBorder() bool {
	return s.BorderLeft || s.BorderTop || s.BorderRight || s.BorderBottom
}
