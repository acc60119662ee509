// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package reportgen

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParameterType enumerates the value kinds a report parameter can declare.
type ParameterType uint8

const (
	TypeString ParameterType = iota
	TypeNumber
	TypeBoolean
	TypeDate
	TypeImage
	TypeArray
	TypeMap
	TypeSum
	TypeAverage
)

func parseParameterType(s string) (ParameterType, bool) {
	switch s {
	case "string":
		return TypeString, true
	case "number":
		return TypeNumber, true
	case "boolean":
		return TypeBoolean, true
	case "date":
		return TypeDate, true
	case "image":
		return TypeImage, true
	case "array":
		return TypeArray, true
	case "map":
		return TypeMap, true
	case "sum":
		return TypeSum, true
	case "average":
		return TypeAverage, true
	}
	return TypeString, false
}

// identifierRx is the valid parameter name shape: a letter or underscore
// followed by letters, digits or underscores.
var identifierRx = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_]*$`)

// Parameter is one declared input of the report: a typed name, optionally
// computed from an expression, with child parameters for array rows and
// map fields.
type Parameter struct {
	id         int
	name       string
	typ        ParameterType
	eval       bool
	expression string
	pattern    string

	childList []*Parameter
	children  map[string]*Parameter
}

// Internal parameters are provided by the engine itself and never
// validated against input data.
func (p *Parameter) isInternal() bool {
	switch p.name {
	case "page_number", "page_count", "row_number":
		return true
	}
	return false
}

func (p *Parameter) objectID() string { return strconv.Itoa(p.id) }

func newParameter(d paramDef, errs *[]Error) *Parameter {
	p := &Parameter{
		id:         int(d.ID),
		name:       d.Name,
		eval:       bool(d.Eval),
		expression: d.Expression,
		pattern:    d.Pattern,
	}
	var ok bool
	if p.typ, ok = parseParameterType(d.Type); !ok {
		*errs = append(*errs, Error{Code: CodeInvalidParameterData, ObjectID: p.objectID(), Field: "type"})
	}
	if len(d.Children) > 0 {
		p.childList = make([]*Parameter, 0, len(d.Children))
		p.children = make(map[string]*Parameter, len(d.Children))
		for _, cd := range d.Children {
			c := newParameter(cd, errs)
			p.childList = append(p.childList, c)
			p.children[c.name] = c
		}
	}
	return p
}

// computedParameter is a sum/average/eval parameter whose value is derived
// after all plain data has been normalized. parentNames locates the map it
// is assigned into.
type computedParameter struct {
	param       *Parameter
	parentNames []string
}

// paramFrame is one unit of data-normalization work: a data mapping and
// the parameters to check it against. Nested arrays and maps push further
// frames instead of recursing, so faults deep in the tree are still
// attributed to the exact parameter that owns them.
type paramFrame struct {
	data        map[string]any
	params      []*Parameter
	parentNames []string
	inArray     bool
}

// processData validates and normalizes the report data against the
// declared parameters: numbers become decimals, date strings become
// timestamps, arrays and maps are walked one frame at a time. Faults are
// collected, not raised. Computed parameters are only registered here and
// resolved later by computeParameters.
func (r *Report) processData(data map[string]any, params []*Parameter) []computedParameter {
	field := "type"
	if r.isTestData {
		field = "test_data"
	}
	var computed []computedParameter
	stack := []paramFrame{{data: data, params: params}}
	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// Sub-frames collected while walking this frame; pushed in reverse
		// so they are processed in declaration order.
		var pending []paramFrame
		for _, p := range frame.params {
			if p.isInternal() {
				continue
			}
			if !identifierRx.MatchString(p.name) {
				r.addError(Error{Code: CodeInvalidParameterName, ObjectID: p.objectID(), Field: "name"})
			}
			if p.typ == TypeSum || p.typ == TypeAverage || p.eval {
				if p.expression == "" {
					r.addError(Error{Code: CodeMissingExpression, ObjectID: p.objectID(), Field: "expression"})
				} else if frame.inArray {
					// A computed value per array row has no single home in
					// the data mapping.
					r.addError(Error{Code: CodeInvalidParameterData, ObjectID: p.objectID(), Field: "expression"})
				} else {
					computed = append(computed, computedParameter{param: p, parentNames: frame.parentNames})
				}
				continue
			}

			value, ok := frame.data[p.name]
			if (!ok || value == nil) && !r.isTestData {
				r.addError(Error{Code: CodeMissingData, ObjectID: p.objectID(), Field: field})
				continue
			}
			switch p.typ {
			case TypeString:
				if value == nil {
					value = ""
				} else if _, ok := value.(string); !ok {
					r.addError(Error{Code: CodeInvalidParameterData, ObjectID: p.objectID(), Field: field})
					continue
				}
			case TypeNumber:
				if d, ok := coerceDecimal(value); ok {
					value = d
				} else {
					r.addError(Error{Code: CodeInvalidNumber, ObjectID: p.objectID(), Field: field})
					continue
				}
			case TypeDate:
				if t, ok := coerceDate(value, r.isTestData); ok {
					value = t
				} else {
					r.addError(Error{Code: CodeInvalidDate, ObjectID: p.objectID(), Field: field})
					continue
				}
			case TypeArray:
				rows, ok := coerceRows(value)
				if !ok {
					r.addError(Error{Code: CodeInvalidArray, ObjectID: p.objectID(), Field: field})
					continue
				}
				value = rows
				parents := appendName(frame.parentNames, p.name)
				for _, row := range rows {
					pending = append(pending, paramFrame{
						data: row, params: p.childList, parentNames: parents, inArray: true,
					})
				}
			case TypeMap:
				m, ok := value.(map[string]any)
				if !ok {
					r.addError(Error{Code: CodeMissingData, ObjectID: p.objectID(), Field: "name"})
					continue
				}
				if p.childList == nil {
					r.addError(Error{Code: CodeInvalidMap, ObjectID: p.objectID(), Field: "type"})
					continue
				}
				pending = append(pending, paramFrame{
					data: m, params: p.childList,
					parentNames: appendName(frame.parentNames, p.name),
					inArray:     frame.inArray,
				})
			}
			frame.data[p.name] = value
		}
		for i := len(pending) - 1; i >= 0; i-- {
			stack = append(stack, pending[i])
		}
	}
	return computed
}

func appendName(names []string, name string) []string {
	out := make([]string, len(names), len(names)+1)
	copy(out, names)
	return append(out, name)
}

// computeParameters resolves sum, average and eval parameters in
// declaration order and assigns the results into the data mapping. The
// first failing eval expression aborts the remaining ones.
func (r *Report) computeParameters(computed []computedParameter, data map[string]any) error {
	for _, cp := range computed {
		p := cp.param
		var value any
		if p.typ == TypeSum || p.typ == TypeAverage {
			total, n, ok := r.sumOverArray(p, data)
			if !ok {
				continue
			}
			if p.typ == TypeAverage {
				value = total.Div(decimal.NewFromInt(int64(n)))
			} else {
				value = total
			}
		} else {
			v, err := r.ctx.EvaluateExpression(p.expression, p.objectID(), "expression")
			if err != nil {
				return err
			}
			value = v
		}

		entry := data
		valid := true
		for _, name := range cp.parentNames {
			m, ok := entry[name].(map[string]any)
			if !ok {
				r.addError(Error{Code: CodeInvalidParameterData, ObjectID: p.objectID(), Field: "name"})
				valid = false
				break
			}
			entry = m
		}
		if valid {
			entry[p.name] = value
		}
	}
	return nil
}

// sumOverArray evaluates an "array.field" expression: the decimal sum of
// one field over every row, plus the row count.
func (r *Report) sumOverArray(p *Parameter, data map[string]any) (decimal.Decimal, int, bool) {
	invalid := func() (decimal.Decimal, int, bool) {
		r.addError(Error{Code: CodeInvalidAvgSumExpression, ObjectID: p.objectID(), Field: "expression"})
		return decimal.Decimal{}, 0, false
	}
	name, field, ok := strings.Cut(stripPlaceholders(p.expression), ".")
	if !ok {
		return invalid()
	}
	rows, ok := data[name].([]map[string]any)
	if !ok || len(rows) == 0 {
		return invalid()
	}
	var total decimal.Decimal
	for _, row := range rows {
		d, ok := coerceDecimal(row[field])
		if row[field] == nil || !ok {
			return invalid()
		}
		total = total.Add(d)
	}
	return total, len(rows), true
}

// coerceDecimal accepts numbers and numeric strings. A decimal comma is
// tolerated; empty and nil count as zero.
func coerceDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case nil:
		return decimal.Decimal{}, true
	case decimal.Decimal:
		return x, true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case float64:
		return decimal.NewFromFloat(x), true
	case json.Number:
		d, err := decimal.NewFromString(string(x))
		return d, err == nil
	case string:
		if x == "" {
			return decimal.Decimal{}, true
		}
		d, err := decimal.NewFromString(strings.Replace(x, ",", ".", 1))
		return d, err == nil
	}
	return decimal.Decimal{}, false
}

// coerceDate accepts timestamps and ISO date strings with an optional
// time part. In test-data mode an absent value defaults to now.
func coerceDate(v any, isTestData bool) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case nil:
		if isTestData {
			return time.Now(), true
		}
	case string:
		if x == "" && isTestData {
			return time.Now(), true
		}
		layout := "2006-01-02"
		switch strings.Count(x, ":") {
		case 1:
			layout = "2006-01-02 15:04"
		case 2:
			layout = "2006-01-02 15:04:05"
		}
		t, err := time.Parse(layout, x)
		return t, err == nil
	}
	return time.Time{}, false
}

// coerceRows accepts an array parameter value as a list of row mappings.
func coerceRows(v any) ([]map[string]any, bool) {
	switch x := v.(type) {
	case []map[string]any:
		return x, true
	case []any:
		rows := make([]map[string]any, len(x))
		for i, e := range x {
			row, ok := e.(map[string]any)
			if !ok {
				return nil, false
			}
			rows[i] = row
		}
		return rows, true
	}
	return nil, false
}
