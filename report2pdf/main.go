// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/UNO-SOFT/zlog/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/UNO-SOFT/reportgen"
	"github.com/UNO-SOFT/reportgen/pdf"
)

var verbose zlog.VerboseVar
var logger = zlog.NewLogger(zlog.MaybeConsoleHandler(&verbose, os.Stderr)).SLog()

func main() {
	if err := Main(); err != nil {
		slog.Error("MAIN", "error", err)
		os.Exit(1)
	}
}

func Main() error {
	fs := flag.NewFlagSet("report2pdf", flag.ContinueOnError)
	fs.Var(&verbose, "v", "logging verbosity")
	flagOut := fs.String("o", "", "output file name (default input + .pdf, \"-\" is stdout)")
	flagData := fs.String("data", "", "JSON data file (\"-\" is stdin)")
	flagTestData := fs.Bool("test-data", false, "treat the data as designer test data")
	flagWatermark := fs.String("watermark", "", "png/jpg image placed behind every page")
	flagCharset := fs.String("charset", reportgen.EncName, "charset of -csv data files")
	var csvs csvFlag
	fs.Var(&csvs, "csv", "CSV data file as name=file.csv, its rows become the named array parameter (repeatable)")
	var fonts fontsFlag
	fs.Var(&fonts, "font", "extra TTF font as family=style=file.ttf (repeatable)")

	app := ffcli.Command{Name: "report2pdf",
		ShortUsage: "report2pdf [flags] definition.json[.gz]",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("report definition file is required")
			}
			defn, err := readMaybeGzipped(args[0])
			if err != nil {
				return err
			}
			data, err := readData(*flagData)
			if err != nil {
				return err
			}
			if len(csvs) != 0 && data == nil {
				data = make(map[string]any, len(csvs))
			}
			for _, c := range csvs {
				if data[c.name], err = reportgen.ReadCSVRows(c.path, *flagCharset); err != nil {
					return err
				}
			}

			opts := []reportgen.Option{reportgen.WithLogger(logger)}
			if *flagTestData {
				opts = append(opts, reportgen.WithTestData())
			}
			if *flagWatermark != "" {
				wm, err := os.ReadFile(*flagWatermark)
				if err != nil {
					return err
				}
				opts = append(opts, reportgen.WithWatermark(wm))
			}
			rpt, err := reportgen.New(defn, data, opts...)
			if err != nil {
				return err
			}
			if errs := rpt.Errors(); len(errs) != 0 {
				for _, e := range errs {
					logger.Error("invalid", "object", e.ObjectID, "field", e.Field, "code", e.Code)
				}
				return fmt.Errorf("report definition has %d errors", len(errs))
			}

			pdfOpts := make([]pdf.Option, 0, len(fonts))
			for _, f := range fonts {
				pdfOpts = append(pdfOpts, pdf.WithFont(f.family, f.style, f.path))
			}
			out := *flagOut
			if out == "" && args[0] != "-" {
				out = strings.TrimSuffix(strings.TrimSuffix(args[0], ".gz"), ".json") + ".pdf"
			}
			if out == "" || out == "-" {
				b, err := pdf.Generate(rpt, pdfOpts...)
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(b)
				return err
			}
			logger.Info("render", "definition", args[0], "output", out)
			return pdf.GenerateFile(rpt, out, pdfOpts...)
		},
	}

	if err := app.Parse(os.Args[1:]); err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return app.Run(ctx)
}

// readMaybeGzipped reads a file ("-" is stdin), transparently decompressing
// gzip input.
func readMaybeGzipped(path string) ([]byte, error) {
	var b []byte
	var err error
	if path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if len(b) > 2 && b[0] == 0x1f && b[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(b))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if b, err = io.ReadAll(zr); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return b, nil
}

func readData(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	b, err := readMaybeGzipped(path)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err = json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("decode data %s: %w", path, err)
	}
	return data, nil
}

type csvSpec struct{ name, path string }

type csvFlag []csvSpec

func (cf csvFlag) String() string {
	var sb strings.Builder
	for i, c := range cf {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%s=%s", c.name, c.path)
	}
	return sb.String()
}

func (cf *csvFlag) Set(s string) error {
	name, path, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("want name=file.csv, got %q", s)
	}
	*cf = append(*cf, csvSpec{name: name, path: path})
	return nil
}

type fontSpec struct{ family, style, path string }

type fontsFlag []fontSpec

func (ff fontsFlag) String() string {
	var sb strings.Builder
	for i, f := range ff {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%s=%s=%s", f.family, f.style, f.path)
	}
	return sb.String()
}

func (ff *fontsFlag) Set(s string) error {
	parts := strings.SplitN(s, "=", 3)
	if len(parts) != 3 {
		return fmt.Errorf("want family=style=file.ttf, got %q", s)
	}
	*ff = append(*ff, fontSpec{family: parts[0], style: parts[1], path: parts[2]})
	return nil
}
