// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package reportgen

import (
	"bytes"
	"fmt"
	"strconv"
)

// The report designer serializes numeric attributes inconsistently: a width
// may arrive as 58, "58" or "". intVal and floatVal accept all of these,
// treating null and the empty string as zero. boolVal additionally accepts
// 0/1 and "true"/"false".

type intVal int

func (v *intVal) UnmarshalJSON(b []byte) error {
	f, err := jsonNumber(b)
	if err != nil {
		return err
	}
	*v = intVal(int(f))
	return nil
}

type floatVal float64

func (v *floatVal) UnmarshalJSON(b []byte) error {
	f, err := jsonNumber(b)
	if err != nil {
		return err
	}
	*v = floatVal(f)
	return nil
}

type boolVal bool

func (v *boolVal) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	switch s {
	case "", "null", "false", "0":
		*v = false
	case "true", "1":
		*v = true
	default:
		return fmt.Errorf("%q: not a boolean", s)
	}
	return nil
}

func jsonNumber(b []byte) (float64, error) {
	s := string(bytes.Trim(b, `"`))
	if s == "" || s == "null" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, err)
	}
	return f, nil
}

// definition mirrors the designer's JSON document.
type definition struct {
	DocumentProperties docPropsDef  `json:"documentProperties"`
	Parameters         []paramDef   `json:"parameters"`
	Styles             []styleDef   `json:"styles"`
	DocElements        []elementDef `json:"docElements"`
}

type docPropsDef struct {
	PageFormat            string  `json:"pageFormat"`
	PageWidth             intVal  `json:"pageWidth"`
	PageHeight            intVal  `json:"pageHeight"`
	Unit                  string  `json:"unit"`
	Orientation           string  `json:"orientation"`
	ContentHeight         intVal  `json:"contentHeight"`
	MarginLeft            intVal  `json:"marginLeft"`
	MarginTop             intVal  `json:"marginTop"`
	MarginRight           intVal  `json:"marginRight"`
	MarginBottom          intVal  `json:"marginBottom"`
	Header                boolVal `json:"header"`
	HeaderDisplay         string  `json:"headerDisplay"`
	HeaderSize            intVal  `json:"headerSize"`
	Footer                boolVal `json:"footer"`
	FooterDisplay         string  `json:"footerDisplay"`
	FooterSize            intVal  `json:"footerSize"`
	PatternLocale         string  `json:"patternLocale"`
	PatternCurrencySymbol string  `json:"patternCurrencySymbol"`
}

type paramDef struct {
	ID         intVal     `json:"id"`
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Eval       boolVal    `json:"eval"`
	Expression string     `json:"expression"`
	Pattern    string     `json:"pattern"`
	Children   []paramDef `json:"children"`
}

type styleDef struct {
	ID intVal `json:"id"`
	textStyleDef
}

// textStyleDef carries the style attributes that appear both inline on
// elements and in the shared styles list.
type textStyleDef struct {
	Bold                boolVal  `json:"bold"`
	Italic              boolVal  `json:"italic"`
	Underline           boolVal  `json:"underline"`
	HorizontalAlignment string   `json:"horizontalAlignment"`
	VerticalAlignment   string   `json:"verticalAlignment"`
	TextColor           string   `json:"textColor"`
	BackgroundColor     string   `json:"backgroundColor"`
	Font                string   `json:"font"`
	FontSize            intVal   `json:"fontSize"`
	LineSpacing         floatVal `json:"lineSpacing"`
	BorderAll           boolVal  `json:"borderAll"`
	BorderLeft          boolVal  `json:"borderLeft"`
	BorderTop           boolVal  `json:"borderTop"`
	BorderRight         boolVal  `json:"borderRight"`
	BorderBottom        boolVal  `json:"borderBottom"`
	BorderColor         string   `json:"borderColor"`
	BorderWidth         floatVal `json:"borderWidth"`
	PaddingLeft         intVal   `json:"paddingLeft"`
	PaddingTop          intVal   `json:"paddingTop"`
	PaddingRight        intVal   `json:"paddingRight"`
	PaddingBottom       intVal   `json:"paddingBottom"`
}

type elementDef struct {
	ID          intVal `json:"id"`
	ElementType string `json:"elementType"`
	ContainerID string `json:"containerId"`
	X           intVal `json:"x"`
	Y           intVal `json:"y"`
	Width       intVal `json:"width"`
	Height      intVal `json:"height"`
	PrintIf     string `json:"printIf"`
	StyleID     intVal `json:"styleId"`
	textStyleDef

	// text
	Content               string  `json:"content"`
	Eval                  boolVal `json:"eval"`
	Pattern               string  `json:"pattern"`
	AlwaysPrintOnSamePage boolVal `json:"alwaysPrintOnSamePage"`

	// line
	Color string `json:"color"`

	// image
	Source string `json:"source"`
	Image  string `json:"image"`

	// bar code
	Format       string  `json:"format"`
	DisplayValue boolVal `json:"displayValue"`

	// table
	DataSource   string       `json:"dataSource"`
	Header       boolVal      `json:"header"`
	Footer       boolVal      `json:"footer"`
	HeaderData   *tableRowDef `json:"headerData"`
	ContentData  *tableRowDef `json:"contentData"`
	FooterData   *tableRowDef `json:"footerData"`
	RepeatHeader boolVal      `json:"repeatHeader"`
	Border       string       `json:"border"`

	// spreadsheet
	SpreadsheetHide        boolVal `json:"spreadsheetHide"`
	SpreadsheetColspan     intVal  `json:"spreadsheetColspan"`
	SpreadsheetAddEmptyRow boolVal `json:"spreadsheetAddEmptyRow"`
}

type tableRowDef struct {
	Height     intVal       `json:"height"`
	ColumnData []elementDef `json:"columnData"`
}
