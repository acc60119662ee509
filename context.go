// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package reportgen

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// placeholderRx matches ${name} references in element content and
// expressions. The name part may use dots for map fields.
var placeholderRx = regexp.MustCompile(`\$\{([^}]+)\}`)

// Context is the evaluation state of one render call: typed parameter
// values, expression evaluation, localized formatting and the page-number
// counter. A Context is never shared between independently constructed
// reports.
type Context struct {
	params map[string]*Parameter
	data   map[string]any
	rows   []map[string]any // pushed row scopes, innermost last

	pageNumber int
	pageCount  int

	printer        *message.Printer
	decimalComma   bool
	currencySymbol string

	measurer TextMeasurer
	programs map[string]*vm.Program
}

func newContext(params map[string]*Parameter, data map[string]any, locale, currencySymbol string) *Context {
	return &Context{
		params:         params,
		data:           data,
		printer:        message.NewPrinter(language.Make(locale)),
		decimalComma:   locale != "en",
		currencySymbol: currencySymbol,
		programs:       make(map[string]*vm.Program),
	}
}

func (c *Context) resetPages() { c.pageNumber, c.pageCount = 0, 0 }

// setMeasurer wires a sink's font metrics in so text elements can wrap
// against real glyph widths. Without one, text breaks on newlines only.
func (c *Context) setMeasurer(m TextMeasurer) { c.measurer = m }

// IncPageNumber advances the page counter at the start of a physical page.
func (c *Context) IncPageNumber() { c.pageNumber++ }

// PageNumber is the 1-based number of the page being emitted, 0 before the
// first page.
func (c *Context) PageNumber() int { return c.pageNumber }

// SetPageCount records the total page count computed by the sizing phase.
func (c *Context) SetPageCount(n int) { c.pageCount = n }

// PageCount returns the recorded total page count.
func (c *Context) PageCount() int { return c.pageCount }

// pushRow enters a table-row scope: names resolve against row first, then
// the report data. rowNumber is 1-based.
func (c *Context) pushRow(row map[string]any, rowNumber int) {
	scope := make(map[string]any, len(row)+1)
	for k, v := range row {
		scope[k] = v
	}
	scope["row_number"] = rowNumber
	c.rows = append(c.rows, scope)
}

func (c *Context) popRow() {
	if len(c.rows) > 0 {
		c.rows = c.rows[:len(c.rows)-1]
	}
}

// lookup resolves a possibly dotted parameter name against row scopes, data
// and the internal page counters.
func (c *Context) lookup(name string) (any, bool) {
	switch name {
	case "page_number":
		return c.pageNumber, true
	case "page_count":
		return c.pageCount, true
	}
	head, rest, dotted := strings.Cut(name, ".")
	for i := len(c.rows) - 1; i >= 0; i-- {
		if v, ok := c.rows[i][head]; ok {
			return drill(v, rest, dotted)
		}
	}
	if v, ok := c.data[head]; ok {
		return drill(v, rest, dotted)
	}
	return nil, false
}

func drill(v any, rest string, dotted bool) (any, bool) {
	if !dotted {
		return v, true
	}
	for rest != "" {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		var head string
		head, rest, _ = strings.Cut(rest, ".")
		if v, ok = m[head]; !ok {
			return nil, false
		}
	}
	return v, true
}

// parameter returns the parameter definition for a possibly dotted name,
// resolving nested names through array/map children.
func (c *Context) parameter(name string) *Parameter {
	head, rest, _ := strings.Cut(name, ".")
	p := c.params[head]
	for p != nil && rest != "" {
		head, rest, _ = strings.Cut(rest, ".")
		p = p.children[head]
	}
	return p
}

// stripPlaceholders rewrites ${name} references to bare identifiers so the
// expression engine sees ordinary variables.
func stripPlaceholders(s string) string {
	return placeholderRx.ReplaceAllString(s, "$1")
}

// EvaluateExpression evaluates an expression against the current data.
// Failures are reported as field-scoped faults attributed to objectID/field.
func (c *Context) EvaluateExpression(expression, objectID, field string) (any, error) {
	code := stripPlaceholders(expression)
	prog, ok := c.programs[code]
	if !ok {
		var err error
		if prog, err = expr.Compile(code); err != nil {
			return nil, Error{Code: CodeInvalidExpression, ObjectID: objectID, Field: field}
		}
		c.programs[code] = prog
	}
	out, err := expr.Run(prog, c.env())
	if err != nil {
		return nil, Error{Code: CodeInvalidExpression, ObjectID: objectID, Field: field}
	}
	return out, nil
}

// EvaluateBool evaluates a condition expression with the usual truthiness
// rules (empty/zero values are false).
func (c *Context) EvaluateBool(expression, objectID, field string) (bool, error) {
	v, err := c.EvaluateExpression(expression, objectID, field)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

// env flattens report data, row scopes and page counters into one
// evaluation environment. Decimals are handed to the expression engine as
// floats.
func (c *Context) env() map[string]any {
	env := make(map[string]any, len(c.data)+len(c.rows)*4+2)
	for k, v := range c.data {
		env[k] = envValue(v)
	}
	for _, row := range c.rows {
		for k, v := range row {
			env[k] = envValue(v)
		}
	}
	env["page_number"] = c.pageNumber
	env["page_count"] = c.pageCount
	return env
}

func envValue(v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		f, _ := x.Float64()
		return f
	case json.Number:
		f, _ := x.Float64()
		return f
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[k] = envValue(e)
		}
		return m
	case []any:
		s := make([]any, len(x))
		for i, e := range x {
			s[i] = envValue(e)
		}
		return s
	case []map[string]any:
		s := make([]any, len(x))
		for i, e := range x {
			s[i] = envValue(e)
		}
		return s
	}
	return v
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	case json.Number:
		f, _ := x.Float64()
		return f != 0
	case decimal.Decimal:
		return !x.IsZero()
	case []any:
		return len(x) > 0
	case []map[string]any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return true
}

// FillParameters substitutes ${name} references in text content with the
// formatted parameter values. A reference to an unknown parameter is a
// field-scoped fault.
func (c *Context) FillParameters(text, objectID, field string) (string, error) {
	if !strings.Contains(text, "${") {
		return text, nil
	}
	var firstErr error
	out := placeholderRx.ReplaceAllStringFunc(text, func(match string) string {
		name := match[2 : len(match)-1]
		v, ok := c.lookup(name)
		if !ok {
			if firstErr == nil {
				firstErr = Error{Code: CodeMissingParameter, ObjectID: objectID, Field: field}
			}
			return ""
		}
		var pattern string
		if p := c.parameter(name); p != nil {
			pattern = p.pattern
		}
		return c.FormatValue(v, pattern)
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// FormatValue renders a value for display, applying a number or date
// pattern when one is given. Number patterns follow the designer's
// "#,##0.00" family: ',' requests locale grouping, the digits after '.'
// fix the fraction width, '$' inserts the document's currency symbol.
func (c *Context) FormatValue(v any, pattern string) string {
	switch x := v.(type) {
	case time.Time:
		if pattern != "" {
			return x.Format(translateDatePattern(pattern))
		}
		return x.Format("2006-01-02 15:04:05")
	case decimal.Decimal:
		return c.formatNumber(x, pattern)
	case float64:
		return c.formatNumber(decimal.NewFromFloat(x), pattern)
	case int:
		return c.formatNumber(decimal.NewFromInt(int64(x)), pattern)
	case int64:
		return c.formatNumber(decimal.NewFromInt(x), pattern)
	case json.Number:
		if d, err := decimal.NewFromString(string(x)); err == nil {
			return c.formatNumber(d, pattern)
		}
		return string(x)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func (c *Context) formatNumber(d decimal.Decimal, pattern string) string {
	if pattern == "" {
		return d.String()
	}
	prefix, suffix, group, decimals := parseNumberPattern(pattern, c.currencySymbol)
	var s string
	if group {
		f, _ := d.Float64()
		s = c.printer.Sprintf("%v", number.Decimal(f, number.Scale(decimals)))
	} else {
		s = d.StringFixed(int32(decimals))
		if c.decimalComma {
			s = strings.Replace(s, ".", ",", 1)
		}
	}
	return prefix + s + suffix
}

// parseNumberPattern reduces a "#,##0.00" style pattern to its salient
// properties. The currency placeholder '$' may lead or trail, with an
// optional space between symbol and number.
func parseNumberPattern(pattern, currencySymbol string) (prefix, suffix string, group bool, decimals int) {
	if currencySymbol == "" {
		currencySymbol = "$"
	}
	if strings.HasPrefix(pattern, "$") {
		prefix = currencySymbol
		pattern = pattern[1:]
		for strings.HasPrefix(pattern, " ") {
			prefix += " "
			pattern = pattern[1:]
		}
	} else if strings.HasSuffix(pattern, "$") {
		suffix = currencySymbol
		pattern = pattern[:len(pattern)-1]
		for strings.HasSuffix(pattern, " ") {
			suffix = " " + suffix
			pattern = pattern[:len(pattern)-1]
		}
	}
	group = strings.Contains(pattern, ",")
	if _, frac, ok := strings.Cut(pattern, "."); ok {
		decimals = len(frac)
	}
	return prefix, suffix, group, decimals
}

var datePatternReplacer = strings.NewReplacer(
	"yyyy", "2006",
	"yy", "06",
	"MM", "01",
	"M", "1",
	"dd", "02",
	"d", "2",
	"HH", "15",
	"mm", "04",
	"ss", "05",
)

func translateDatePattern(pattern string) string {
	return datePatternReplacer.Replace(pattern)
}
