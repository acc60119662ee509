// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package reportgen

import (
	"bytes"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/qr"
)

// displayValueHeight is the space reserved under the bars for the encoded
// text when displayValue is set.
const displayValueHeight = 22

// BarCodeElement renders its evaluated content as a Code 128 or QR symbol,
// optionally with the encoded value printed underneath. Like images, bar
// codes never split across pages.
type BarCodeElement struct {
	ElementBase
	content      string
	eval         bool
	format       string
	displayValue bool

	text string
	data []byte
	key  string
}

func newBarCodeElement(d elementDef) *BarCodeElement {
	e := &BarCodeElement{
		ElementBase:  newElementBase(d),
		content:      d.Content,
		eval:         bool(d.Eval),
		format:       d.Format,
		displayValue: bool(d.DisplayValue),
	}
	if e.format == "" {
		e.format = "code128"
	}
	return e
}

func (e *BarCodeElement) Prepare(ctx *Context, verify bool) error {
	if e.eval {
		v, err := ctx.EvaluateExpression(e.content, e.objectID(), "content")
		if err != nil {
			return err
		}
		e.text = ctx.FormatValue(v, "")
	} else {
		t, err := ctx.FillParameters(e.content, e.objectID(), "content")
		if err != nil {
			return err
		}
		e.text = t
	}
	e.data = nil
	if e.text == "" || verify {
		return nil
	}

	barHeight := e.height
	if e.displayValue {
		barHeight -= displayValueHeight
	}
	var (
		bc  barcode.Barcode
		err error
	)
	switch e.format {
	case "code128":
		if bc, err = code128.Encode(e.text); err == nil {
			bc, err = barcode.Scale(bc, int(e.width), int(barHeight))
		}
	case "qr", "qrcode":
		side := int(min(e.width, barHeight))
		if bc, err = qr.Encode(e.text, qr.M, qr.Auto); err == nil {
			bc, err = barcode.Scale(bc, side, side)
		}
	default:
		return Error{Code: CodeInvalidBarCode, ObjectID: e.objectID(), Field: "format"}
	}
	if err != nil {
		return Error{Code: CodeInvalidBarCode, ObjectID: e.objectID(), Field: "content"}
	}

	var buf bytes.Buffer
	if err = png.Encode(&buf, bc); err != nil {
		return Error{Code: CodeInvalidBarCode, ObjectID: e.objectID(), Field: "content"}
	}
	e.data = buf.Bytes()
	e.key = imageKey(e.data)
	return nil
}

func (e *BarCodeElement) NextFragment(offsetY, avail float64, _ *Context) (Fragment, bool, error) {
	if offsetY+e.height > avail && offsetY > 0 {
		return nil, false, nil
	}
	e.complete = true
	e.renderBottom = offsetY + e.height
	e.firstRender = false
	if len(e.data) == 0 {
		return noopFragment{}, true, nil
	}
	barHeight := e.height
	value := ""
	if e.displayValue {
		barHeight -= displayValueHeight
		value = e.text
	}
	return &barCodeFragment{
		key: e.key, data: e.data,
		x: e.x, y: offsetY, width: e.width, height: barHeight,
		value: value,
	}, true, nil
}

func (e *BarCodeElement) EmitCells(row, col int, _ *Context, sink WorksheetSink) (int, error) {
	if err := sink.SetCell(row, col, e.text, nil); err != nil {
		return 0, err
	}
	return e.nextRow(row), nil
}

func (e *BarCodeElement) Release() { e.data = nil }

type barCodeFragment struct {
	key           string
	data          []byte
	x, y          float64
	width, height float64
	value         string
}

func (f *barCodeFragment) Draw(offsetX, offsetY float64, sink PageSink) error {
	if err := sink.DrawImage(f.key, f.data, "png", offsetX+f.x, offsetY+f.y, f.width, f.height); err != nil {
		return err
	}
	if f.value != "" {
		sink.SetFont(Font{Family: "helvetica", Size: 10})
		sink.SetTextColor(black)
		sink.CellText(offsetX+f.x, offsetY+f.y+f.height, f.width, displayValueHeight, f.value, HCenter)
	}
	return nil
}

func (f *barCodeFragment) Release() { f.data = nil }
