// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package reportgen

import (
	"bytes"
	"encoding/base64"
	"hash/fnv"
	"strconv"
	"strings"
)

// ImageElement places a raster image into its declared box. The image comes
// either from a parameter reference (source) or inline base64 data; png and
// jpg are supported. Images never split across pages.
type ImageElement struct {
	ElementBase
	source string
	inline string

	data   []byte
	format string
	key    string
}

func newImageElement(d elementDef) *ImageElement {
	return &ImageElement{
		ElementBase: newElementBase(d),
		source:      d.Source,
		inline:      d.Image,
	}
}

func (e *ImageElement) Prepare(ctx *Context, verify bool) error {
	raw := e.inline
	if e.source != "" {
		name := strings.TrimSpace(e.source)
		if inner := placeholderRx.FindStringSubmatch(name); inner != nil {
			name = inner[1]
		}
		v, ok := ctx.lookup(name)
		if !ok {
			return Error{Code: CodeInvalidImageSource, ObjectID: e.objectID(), Field: "source"}
		}
		switch x := v.(type) {
		case nil:
			raw = ""
		case string:
			raw = x
		case []byte:
			e.data, e.format = x, sniffImageFormat(x)
			if e.format == "" {
				return Error{Code: CodeInvalidImage, ObjectID: e.objectID(), Field: "source"}
			}
			e.key = imageKey(e.data)
			return nil
		default:
			return Error{Code: CodeInvalidImageSource, ObjectID: e.objectID(), Field: "source"}
		}
	}
	if raw == "" || verify {
		e.data = nil
		return nil
	}

	// inline form: a data URL or bare base64
	b64 := raw
	if rest, ok := strings.CutPrefix(raw, "data:"); ok {
		if _, b64, ok = strings.Cut(rest, ","); !ok {
			return Error{Code: CodeInvalidImage, ObjectID: e.objectID(), Field: "image"}
		}
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return Error{Code: CodeInvalidImage, ObjectID: e.objectID(), Field: "image"}
	}
	e.data = data
	if e.format = sniffImageFormat(data); e.format == "" {
		return Error{Code: CodeInvalidImageSource, ObjectID: e.objectID(), Field: "image"}
	}
	e.key = imageKey(data)
	return nil
}

func (e *ImageElement) NextFragment(offsetY, avail float64, _ *Context) (Fragment, bool, error) {
	if offsetY+e.height > avail && offsetY > 0 {
		return nil, false, nil
	}
	e.complete = true
	e.renderBottom = offsetY + e.height
	e.firstRender = false
	if len(e.data) == 0 {
		return noopFragment{}, true, nil
	}
	return &imageFragment{
		key: e.key, data: e.data, format: e.format,
		x: e.x, y: offsetY, width: e.width, height: e.height,
	}, true, nil
}

func (e *ImageElement) EmitCells(row, col int, _ *Context, sink WorksheetSink) (int, error) {
	if len(e.data) > 0 {
		if err := sink.AddImage(row, col, e.data, "."+e.format); err != nil {
			return 0, err
		}
	}
	return e.nextRow(row), nil
}

func (e *ImageElement) Release() { e.data = nil }

type imageFragment struct {
	key           string
	data          []byte
	format        string
	x, y          float64
	width, height float64
}

func (f *imageFragment) Draw(offsetX, offsetY float64, sink PageSink) error {
	return sink.DrawImage(f.key, f.data, f.format, offsetX+f.x, offsetY+f.y, f.width, f.height)
}

func (f *imageFragment) Release() { f.data = nil }

var (
	pngMagic  = []byte{0x89, 'P', 'N', 'G'}
	jpegMagic = []byte{0xff, 0xd8}
)

func sniffImageFormat(data []byte) string {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return "png"
	case bytes.HasPrefix(data, jpegMagic):
		return "jpg"
	}
	return ""
}

// imageKey identifies identical image content so a page sink can register
// the bytes once and reuse them across pages.
func imageKey(data []byte) string {
	h := fnv.New64a()
	h.Write(data)
	return "img" + strconv.FormatUint(h.Sum64(), 36)
}
