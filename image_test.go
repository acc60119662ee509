// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package reportgen

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestSniffImageFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}, "png"},
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0}, "jpg"},
		{"garbage", []byte("GIF89a"), ""},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sniffImageFormat(tt.data); got != tt.want {
				t.Errorf("sniffImageFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestImagePrepareInline(t *testing.T) {
	ctx := newContext(nil, nil, "en", "")

	t.Run("bare base64", func(t *testing.T) {
		e := newImageElement(elementDef{ID: 1, Width: 50, Height: 50, Image: tinyPNG})
		if err := e.Prepare(ctx, false); err != nil {
			t.Fatal(err)
		}
		if len(e.data) == 0 || e.format != "png" {
			t.Errorf("data=%d bytes format=%q, want decoded png", len(e.data), e.format)
		}
		if !strings.HasPrefix(e.key, "img") {
			t.Errorf("key = %q, want content-derived", e.key)
		}
	})

	t.Run("data url", func(t *testing.T) {
		e := newImageElement(elementDef{ID: 1, Width: 50, Height: 50, Image: "data:image/png;base64," + tinyPNG})
		if err := e.Prepare(ctx, false); err != nil {
			t.Fatal(err)
		}
		if e.format != "png" {
			t.Errorf("format = %q, want png", e.format)
		}
	})

	t.Run("bad base64", func(t *testing.T) {
		e := newImageElement(elementDef{ID: 1, Image: "!!!"})
		var re Error
		if err := e.Prepare(ctx, false); !errors.As(err, &re) || re.Code != CodeInvalidImage {
			t.Errorf("Prepare() = %v, want %s", err, CodeInvalidImage)
		}
	})

	t.Run("undecodable content", func(t *testing.T) {
		e := newImageElement(elementDef{ID: 1, Image: base64.StdEncoding.EncodeToString([]byte("notanimage"))})
		var re Error
		if err := e.Prepare(ctx, false); !errors.As(err, &re) || re.Code != CodeInvalidImageSource {
			t.Errorf("Prepare() = %v, want %s", err, CodeInvalidImageSource)
		}
	})

	t.Run("empty", func(t *testing.T) {
		e := newImageElement(elementDef{ID: 1})
		if err := e.Prepare(ctx, false); err != nil {
			t.Fatal(err)
		}
		if e.data != nil {
			t.Error("empty element must carry no data")
		}
	})

	t.Run("verify skips decoding", func(t *testing.T) {
		e := newImageElement(elementDef{ID: 1, Image: tinyPNG})
		if err := e.Prepare(ctx, true); err != nil {
			t.Fatal(err)
		}
		if e.data != nil {
			t.Error("verify must not load image data")
		}
	})
}

func TestImagePrepareSource(t *testing.T) {
	png, err := base64.StdEncoding.DecodeString(tinyPNG)
	if err != nil {
		t.Fatal(err)
	}
	ctx := newContext(nil, map[string]any{
		"b64":   tinyPNG,
		"raw":   png,
		"bad":   []byte("notanimage"),
		"num":   3.0,
		"empty": nil,
	}, "en", "")

	tests := []struct {
		name     string
		source   string
		wantErr  ErrorCode
		wantData bool
	}{
		{name: "base64 parameter", source: "${b64}", wantData: true},
		{name: "byte parameter", source: "${raw}", wantData: true},
		{name: "unsniffable bytes", source: "${bad}", wantErr: CodeInvalidImage},
		{name: "missing parameter", source: "${missing}", wantErr: CodeInvalidImageSource},
		{name: "wrong type", source: "${num}", wantErr: CodeInvalidImageSource},
		{name: "nil value", source: "${empty}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newImageElement(elementDef{ID: 2, Width: 50, Height: 50, Source: tt.source})
			err := e.Prepare(ctx, false)
			if tt.wantErr != "" {
				var re Error
				if !errors.As(err, &re) || re.Code != tt.wantErr {
					t.Fatalf("Prepare() = %v, want %s", err, tt.wantErr)
				}
				if re.ObjectID != "2" || re.Field != "source" {
					t.Errorf("fault = %+v, want object 2 field source", re)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := len(e.data) > 0; got != tt.wantData {
				t.Errorf("data loaded = %t, want %t", got, tt.wantData)
			}
		})
	}
}

func TestImageNextFragment(t *testing.T) {
	ctx := newContext(nil, nil, "en", "")
	e := newImageElement(elementDef{ID: 1, X: 5, Width: 50, Height: 20, Image: tinyPNG})
	if err := e.Prepare(ctx, false); err != nil {
		t.Fatal(err)
	}

	// no room mid-page: move whole to the next page
	frag, done, err := e.NextFragment(50, 60, nil)
	if err != nil {
		t.Fatal(err)
	}
	if frag != nil || done {
		t.Fatalf("NextFragment() = %v, %t; want deferral", frag, done)
	}

	// top of page places even when oversized
	frag, done, err = e.NextFragment(0, 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !done || e.renderBottom != 20 {
		t.Fatalf("done=%t bottom=%g, want true/20", done, e.renderBottom)
	}

	sink := &recordingSink{}
	if err := frag.Draw(10, 100, sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.images) != 1 || sink.images[0] != e.key {
		t.Errorf("images = %v, want one draw keyed %q", sink.images, e.key)
	}
}

func TestImageNextFragmentEmpty(t *testing.T) {
	e := newImageElement(elementDef{ID: 1, Width: 50, Height: 20})
	if err := e.Prepare(newContext(nil, nil, "en", ""), false); err != nil {
		t.Fatal(err)
	}
	frag, done, err := e.NextFragment(0, 100, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Fatal("empty image must complete")
	}
	if _, ok := frag.(noopFragment); !ok {
		t.Errorf("fragment = %T, want a placement-only fragment", frag)
	}
}

func TestImageEmitCells(t *testing.T) {
	ctx := newContext(nil, nil, "en", "")
	e := newImageElement(elementDef{ID: 1, Width: 50, Height: 20, Image: tinyPNG})
	if err := e.Prepare(ctx, false); err != nil {
		t.Fatal(err)
	}
	sink := &cellSink{}
	next, err := e.EmitCells(3, 1, ctx, sink)
	if err != nil {
		t.Fatal(err)
	}
	if next != 4 {
		t.Errorf("next row = %d, want 4", next)
	}
	if len(sink.images) != 1 || sink.images[0] != ".png" {
		t.Errorf("images = %v, want one png", sink.images)
	}

	// an empty image still advances the row
	e = newImageElement(elementDef{ID: 1})
	if err := e.Prepare(ctx, false); err != nil {
		t.Fatal(err)
	}
	sink = &cellSink{}
	if next, err = e.EmitCells(3, 1, ctx, sink); err != nil || next != 4 {
		t.Errorf("EmitCells() = %d, %v; want 4, nil", next, err)
	}
	if len(sink.images) != 0 {
		t.Errorf("images = %v, want none", sink.images)
	}
}
