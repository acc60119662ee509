// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package reportgen

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// EncName is the default charset of CSV data files, sniffed from LANG.
var EncName = "utf-8"

func init() {
	if lang := os.Getenv("LANG"); lang != "" {
		if i := strings.IndexByte(lang, '.'); i >= 0 {
			EncName = strings.ToLower(lang[i+1:])
		}
	}
}

// GetEncoding returns the named charset ("" and utf-8 mean no conversion).
func GetEncoding(encName string) (encoding.Encoding, error) {
	encName = strings.ToLower(encName)
	if encName == "" || encName == "utf-8" || encName == "utf8" {
		return nil, nil
	}
	enc, err := htmlindex.Get(encName)
	if err != nil {
		err = fmt.Errorf("%q: %w", encName, err)
	}
	return enc, err
}

// CSVReader reads one CSV file, decoded from its charset, with the field
// separator sniffed from the header line.
type CSVReader struct {
	*csv.Reader
	io.Closer
}

// OpenCSV opens the named CSV file ("" and "-" mean stdin), converting from
// encName (see GetEncoding; "" means EncName). The field separator is the
// first rune of the header line that cannot be part of a field name.
func OpenCSV(fn, encName string) (*CSVReader, error) {
	if encName == "" {
		encName = EncName
	}
	enc, err := GetEncoding(encName)
	if err != nil {
		return nil, err
	}
	fh := os.Stdin
	if !(fn == "" || fn == "-") {
		if fh, err = os.Open(fn); err != nil {
			return nil, err
		}
	}
	r := io.ReadCloser(fh)
	if enc != nil {
		r = struct {
			io.Reader
			io.Closer
		}{enc.NewDecoder().Reader(r), r}
	}
	br := bufio.NewReaderSize(r, 1<<20)
	b, err := br.Peek(1024)
	if err != nil && len(b) == 0 {
		r.Close()
		return nil, fmt.Errorf("%q: %w", fn, err)
	}
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		b = b[:i]
	}
	b = bytes.TrimSuffix(b, []byte{'\r'})
	sep := ','
	for _, c := range string(b) {
		if c == '"' || c == '_' || unicode.IsLetter(c) || unicode.IsNumber(c) {
			continue
		}
		sep = c
		break
	}

	cr := csv.NewReader(br)
	cr.ReuseRecord = true
	cr.Comma = sep
	return &CSVReader{Reader: cr, Closer: r}, nil
}

// ReadCSVRows reads the whole CSV file into one map per data row, keyed by
// the header row, ready to be used as an array parameter's data. Field
// values stay strings; the parameter's declared item types coerce them.
func ReadCSVRows(fn, encName string) ([]map[string]any, error) {
	cr, err := OpenCSV(fn, encName)
	if err != nil {
		return nil, err
	}
	defer cr.Close()
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%q: read header: %w", fn, err)
	}
	// the reader reuses its record slice
	header = slices.Clone(header)
	var rows []map[string]any
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return rows, nil
			}
			return rows, fmt.Errorf("%q: %w", fn, err)
		}
		m := make(map[string]any, len(header))
		for i, h := range header {
			if i < len(rec) {
				m[h] = rec[i]
			}
		}
		rows = append(rows, m)
	}
}
