// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package reportgen

import "fmt"

// ErrorCode identifies a template fault. The codes are stable identifiers
// (not display strings) so callers can map them to localized messages.
type ErrorCode string

const (
	CodeInvalidPageSize         ErrorCode = "errorMsgInvalidPageSize"
	CodeInvalidPatternLocale    ErrorCode = "errorMsgInvalidPatternLocale"
	CodeInvalidParameterName    ErrorCode = "errorMsgInvalidParameterName"
	CodeInvalidParameterData    ErrorCode = "errorMsgInvalidParameterData"
	CodeDuplicateParameter      ErrorCode = "errorMsgDuplicateParameter"
	CodeMissingExpression       ErrorCode = "errorMsgMissingExpression"
	CodeMissingData             ErrorCode = "errorMsgMissingData"
	CodeMissingParameter        ErrorCode = "errorMsgMissingParameter"
	CodeInvalidNumber           ErrorCode = "errorMsgInvalidNumber"
	CodeInvalidDate             ErrorCode = "errorMsgInvalidDate"
	CodeInvalidArray            ErrorCode = "errorMsgInvalidArray"
	CodeInvalidMap              ErrorCode = "errorMsgInvalidMap"
	CodeInvalidPosition         ErrorCode = "errorMsgInvalidPosition"
	CodeInvalidSize             ErrorCode = "errorMsgInvalidSize"
	CodeInvalidExpression       ErrorCode = "errorMsgInvalidExpression"
	CodeInvalidAvgSumExpression ErrorCode = "errorMsgInvalidAvgSumExpression"
	CodeInvalidImage            ErrorCode = "errorMsgInvalidImage"
	CodeInvalidImageSource      ErrorCode = "errorMsgInvalidImageSource"
	CodeInvalidBarCode          ErrorCode = "errorMsgInvalidBarCode"
	CodeInvalidDataSource       ErrorCode = "errorMsgInvalidDataSource"
	CodeUnsupportedElement      ErrorCode = "errorMsgUnsupportedElementType"
)

// Error is a field-scoped template fault. ObjectID names the definition
// object (element id, parameter id or "0_document_properties") and Field the
// offending attribute, so a designer front-end can highlight the exact spot.
//
// Template faults are collected on the Report instead of stopping processing,
// letting a caller surface all of them at once.
type Error struct {
	Code     ErrorCode
	ObjectID string
	Field    string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: object %s, field %q", string(e.Code), e.ObjectID, e.Field)
}
