// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package reportgen

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLookup(t *testing.T) {
	data := map[string]any{
		"name": "World",
		"user": map[string]any{"address": map[string]any{"city": "Budapest"}},
	}
	ctx := newContext(nil, data, "en", "")

	tests := []struct {
		name  string
		want  any
		found bool
	}{
		{"name", "World", true},
		{"user.address.city", "Budapest", true},
		{"user.address.zip", nil, false},
		{"missing", nil, false},
		{"name.deeper", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ctx.lookup(tt.name)
			if ok != tt.found {
				t.Fatalf("lookup(%q) found = %t, want %t", tt.name, ok, tt.found)
			}
			if ok && got != tt.want {
				t.Errorf("lookup(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestLookupRowScopes(t *testing.T) {
	data := map[string]any{"amount": 1}
	ctx := newContext(nil, data, "en", "")

	ctx.pushRow(map[string]any{"amount": 2}, 1)
	ctx.pushRow(map[string]any{"amount": 3}, 2)
	if v, _ := ctx.lookup("amount"); v != 3 {
		t.Errorf("innermost row should win, got %v", v)
	}
	if v, _ := ctx.lookup("row_number"); v != 2 {
		t.Errorf("row_number = %v, want 2", v)
	}
	ctx.popRow()
	if v, _ := ctx.lookup("amount"); v != 2 {
		t.Errorf("after pop, got %v, want 2", v)
	}
	ctx.popRow()
	if v, _ := ctx.lookup("amount"); v != 1 {
		t.Errorf("after pop, got %v, want 1", v)
	}
}

func TestLookupPageCounters(t *testing.T) {
	ctx := newContext(nil, nil, "en", "")
	ctx.IncPageNumber()
	ctx.IncPageNumber()
	ctx.SetPageCount(5)
	if v, _ := ctx.lookup("page_number"); v != 2 {
		t.Errorf("page_number = %v, want 2", v)
	}
	if v, _ := ctx.lookup("page_count"); v != 5 {
		t.Errorf("page_count = %v, want 5", v)
	}
}

func TestFillParameters(t *testing.T) {
	params := map[string]*Parameter{
		"price": {name: "price", typ: TypeNumber, pattern: "#,##0.00"},
	}
	data := map[string]any{
		"name":  "World",
		"price": decimal.NewFromFloat(1234.5),
		"user":  map[string]any{"city": "Budapest"},
	}
	ctx := newContext(params, data, "en", "")

	tests := []struct {
		text string
		want string
	}{
		{"no placeholders", "no placeholders"},
		{"Hello ${name}!", "Hello World!"},
		{"Total: ${price}", "Total: 1,234.50"},
		{"${user.city}", "Budapest"},
		{"${name} and ${name}", "World and World"},
	}
	for _, tt := range tests {
		got, err := ctx.FillParameters(tt.text, "1", "content")
		if err != nil {
			t.Fatalf("FillParameters(%q): %+v", tt.text, err)
		}
		if got != tt.want {
			t.Errorf("FillParameters(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}

	_, err := ctx.FillParameters("${missing}", "7", "content")
	var re Error
	if !errors.As(err, &re) || re.Code != CodeMissingParameter {
		t.Fatalf("missing parameter: got %v, want %s", err, CodeMissingParameter)
	}
	if re.ObjectID != "7" || re.Field != "content" {
		t.Errorf("fault scope = %s/%s, want 7/content", re.ObjectID, re.Field)
	}
}

func TestFormatValue(t *testing.T) {
	date := time.Date(2020, 1, 31, 14, 30, 5, 0, time.UTC)
	tests := []struct {
		name     string
		value    any
		pattern  string
		locale   string
		currency string
		want     string
	}{
		{"grouped en", decimal.NewFromFloat(1234.5), "#,##0.00", "en", "", "1,234.50"},
		{"grouped de", decimal.NewFromFloat(1234.5), "#,##0.00", "de", "", "1.234,50"},
		{"plain en", decimal.NewFromFloat(1234.5), "0.00", "en", "", "1234.50"},
		{"plain de", decimal.NewFromFloat(1234.5), "0.00", "de", "", "1234,50"},
		{"currency prefix", decimal.NewFromFloat(1234.5), "$#,##0.00", "en", "€", "€1,234.50"},
		{"currency suffix", decimal.NewFromFloat(1234.5), "#,##0.00 $", "en", "Ft", "1,234.50 Ft"},
		{"currency fallback", decimal.NewFromFloat(2.5), "$0.00", "en", "", "$2.50"},
		{"no pattern", decimal.NewFromFloat(1234.5), "", "en", "", "1234.5"},
		{"float", 0.25, "0.00", "en", "", "0.25"},
		{"int", 7, "", "en", "", "7"},
		{"string", "plain", "", "en", "", "plain"},
		{"nil", nil, "", "en", "", ""},
		{"date pattern", date, "dd.MM.yyyy", "en", "", "31.01.2020"},
		{"date default", date, "", "en", "", "2020-01-31 14:30:05"},
		{"date time pattern", date, "yyyy-MM-dd HH:mm", "en", "", "2020-01-31 14:30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newContext(nil, nil, tt.locale, tt.currency)
			if got := ctx.FormatValue(tt.value, tt.pattern); got != tt.want {
				t.Errorf("FormatValue(%v, %q) = %q, want %q", tt.value, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestParseNumberPattern(t *testing.T) {
	tests := []struct {
		pattern  string
		currency string
		prefix   string
		suffix   string
		group    bool
		decimals int
	}{
		{"#,##0.00", "", "", "", true, 2},
		{"0.000", "", "", "", false, 3},
		{"#,##0", "", "", "", true, 0},
		{"$#,##0.00", "€", "€", "", true, 2},
		{"#,##0.00$", "Ft", "", "Ft", true, 2},
		{"$0.00", "", "$", "", false, 2},
	}
	for _, tt := range tests {
		prefix, suffix, group, decimals := parseNumberPattern(tt.pattern, tt.currency)
		if prefix != tt.prefix || suffix != tt.suffix || group != tt.group || decimals != tt.decimals {
			t.Errorf("parseNumberPattern(%q, %q) = (%q, %q, %t, %d), want (%q, %q, %t, %d)",
				tt.pattern, tt.currency, prefix, suffix, group, decimals,
				tt.prefix, tt.suffix, tt.group, tt.decimals)
		}
	}
}

func TestTranslateDatePattern(t *testing.T) {
	tests := []struct{ pattern, want string }{
		{"dd.MM.yyyy", "02.01.2006"},
		{"yyyy-MM-dd HH:mm:ss", "2006-01-02 15:04:05"},
		{"d.M.yy", "2.1.06"},
	}
	for _, tt := range tests {
		if got := translateDatePattern(tt.pattern); got != tt.want {
			t.Errorf("translateDatePattern(%q) = %q, want %q", tt.pattern, got, tt.want)
		}
	}
}

func TestEvaluateExpression(t *testing.T) {
	data := map[string]any{"a": decimal.NewFromInt(2), "b": 3}
	ctx := newContext(nil, data, "en", "")

	v, err := ctx.EvaluateExpression("${a} + ${b}", "1", "content")
	if err != nil {
		t.Fatalf("evaluate: %+v", err)
	}
	if f, ok := v.(float64); !ok || f != 5 {
		t.Errorf("got %v (%T), want 5.0", v, v)
	}

	v, err = ctx.EvaluateExpression("${a} > 1 && ${b} == 3", "1", "content")
	if err != nil {
		t.Fatalf("evaluate: %+v", err)
	}
	if v != true {
		t.Errorf("got %v, want true", v)
	}

	_, err = ctx.EvaluateExpression("1 +", "9", "printIf")
	var re Error
	if !errors.As(err, &re) || re.Code != CodeInvalidExpression {
		t.Fatalf("bad syntax: got %v, want %s", err, CodeInvalidExpression)
	}
	if re.ObjectID != "9" || re.Field != "printIf" {
		t.Errorf("fault scope = %s/%s, want 9/printIf", re.ObjectID, re.Field)
	}
}

func TestEvaluateExpressionCachesPrograms(t *testing.T) {
	ctx := newContext(nil, map[string]any{"a": 1}, "en", "")
	for range 3 {
		if _, err := ctx.EvaluateExpression("${a} + 1", "1", "content"); err != nil {
			t.Fatal(err)
		}
	}
	if len(ctx.programs) != 1 {
		t.Errorf("program cache holds %d entries, want 1", len(ctx.programs))
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"nil", nil, false},
		{"false", false, false},
		{"true", true, true},
		{"empty string", "", false},
		{"string", "x", true},
		{"zero int", 0, false},
		{"int", 5, true},
		{"zero float", 0.0, false},
		{"float", 0.5, true},
		{"zero decimal", decimal.Decimal{}, false},
		{"decimal", decimal.NewFromInt(1), true},
		{"empty slice", []any{}, false},
		{"slice", []any{1}, true},
		{"empty rows", []map[string]any{}, false},
		{"rows", []map[string]any{{}}, true},
		{"empty map", map[string]any{}, false},
		{"map", map[string]any{"k": 1}, true},
		{"other", struct{}{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truthy(tt.value); got != tt.want {
				t.Errorf("truthy(%v) = %t, want %t", tt.value, got, tt.want)
			}
		})
	}
}

func TestEvaluateBool(t *testing.T) {
	data := map[string]any{"n": decimal.NewFromInt(4), "s": ""}
	ctx := newContext(nil, data, "en", "")
	tests := []struct {
		expr string
		want bool
	}{
		{"${n} > 1", true},
		{"${n} > 10", false},
		{"${s}", false},
		{"${n}", true},
	}
	for _, tt := range tests {
		got, err := ctx.EvaluateBool(tt.expr, "1", "printIf")
		if err != nil {
			t.Fatalf("EvaluateBool(%q): %+v", tt.expr, err)
		}
		if got != tt.want {
			t.Errorf("EvaluateBool(%q) = %t, want %t", tt.expr, got, tt.want)
		}
	}
}
