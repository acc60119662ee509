// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package reportgen

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"

	_ "image/jpeg"
	_ "image/png"
)

// Report is one report definition bound to one data mapping. Construction
// collects template and data faults into Errors instead of failing; the
// render calls only fail on structural problems (runaway pagination, sink
// errors).
//
// The data mapping is normalized in place: numbers become decimals, date
// strings become timestamps.
type Report struct {
	props      *DocumentProperties
	containers map[string]*Band
	header     *Band
	content    *Band
	footer     *Band

	params    map[string]*Parameter
	paramList []*Parameter
	styles    map[int]*TextStyle
	data      map[string]any

	ctx        *Context
	errors     []Error
	isTestData bool
	watermark  []byte
	logger     *slog.Logger
}

// Option configures a Report at construction.
type Option func(*Report)

// WithTestData marks the data mapping as designer test data: missing values
// are tolerated and empty dates default to the current time.
func WithTestData() Option { return func(r *Report) { r.isTestData = true } }

// WithWatermark places the given png or jpg image as a background mark on
// every page of a paged render.
func WithWatermark(img []byte) Option { return func(r *Report) { r.watermark = img } }

// WithLogger routes debug events of the render passes to lgr.
func WithLogger(lgr *slog.Logger) Option { return func(r *Report) { r.logger = lgr } }

// New builds a Report from a JSON report definition and its data mapping.
// The error is only non-nil when the definition is not valid JSON; template
// faults (bad geometry, unknown parameters, out-of-bounds elements) are
// collected and available through Errors.
func New(definitionJSON []byte, data map[string]any, opts ...Option) (*Report, error) {
	var def definition
	if err := json.Unmarshal(definitionJSON, &def); err != nil {
		return nil, fmt.Errorf("decode report definition: %w", err)
	}
	if data == nil {
		data = make(map[string]any)
	}
	r := &Report{
		containers: make(map[string]*Band),
		params:     make(map[string]*Parameter),
		styles:     make(map[int]*TextStyle),
		data:       data,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(r)
	}

	r.props = parseDocumentProperties(def.DocumentProperties, &r.errors)
	r.header = newBand(BandHeader, "0_header", r.props, r.containers)
	r.content = newBand(BandContent, "0_content", r.props, r.containers)
	r.footer = newBand(BandFooter, "0_footer", r.props, r.containers)

	for _, pd := range def.Parameters {
		p := newParameter(pd, &r.errors)
		if _, dup := r.params[p.name]; dup {
			r.addError(Error{Code: CodeDuplicateParameter, ObjectID: p.objectID(), Field: "name"})
		}
		r.params[p.name] = p
		r.paramList = append(r.paramList, p)
	}
	for _, sd := range def.Styles {
		r.styles[int(sd.ID)] = newTextStyle(sd.textStyleDef)
	}

	for _, ed := range def.DocElements {
		elem, ok := newElement(ed, r.styles, &r.errors)
		if !ok {
			continue
		}
		container := r.containers[ed.ContainerID]
		if container == nil {
			continue
		}
		if container.visible() {
			r.checkBounds(elem, container)
		}
		container.add(elem)
	}

	r.ctx = newContext(r.params, r.data, r.props.PatternLocale, r.props.PatternCurrencySymbol)
	computed := r.processData(r.data, r.paramList)
	if len(r.errors) == 0 {
		if err := r.computeParameters(computed, r.data); err != nil {
			var re Error
			if !errors.As(err, &re) {
				re = Error{Code: CodeInvalidExpression, ObjectID: docPropsID, Field: "expression"}
			}
			r.addError(re)
		}
	}
	return r, nil
}

func (r *Report) addError(e Error) { r.errors = append(r.errors, e) }

func (r *Report) checkBounds(elem DocElement, c *Band) {
	eb := elem.base()
	if eb.x < 0 {
		r.addError(Error{Code: CodeInvalidPosition, ObjectID: eb.objectID(), Field: "position"})
	} else if eb.x+eb.width > c.width {
		r.addError(Error{Code: CodeInvalidSize, ObjectID: eb.objectID(), Field: "position"})
	}
	if eb.y < 0 {
		r.addError(Error{Code: CodeInvalidPosition, ObjectID: eb.objectID(), Field: "position"})
	} else if eb.y+eb.height > c.height {
		r.addError(Error{Code: CodeInvalidSize, ObjectID: eb.objectID(), Field: "position"})
	}
}

// Errors returns the faults collected while building the report. The slice
// is owned by the Report; callers must not modify it.
func (r *Report) Errors() []Error { return r.errors }

// DocumentProperties returns the resolved page geometry.
func (r *Report) DocumentProperties() *DocumentProperties { return r.props }

// Verify re-runs layout preparation without emitting anything and returns
// the first problem found, or the first fault collected at construction.
func (r *Report) Verify() error {
	if len(r.errors) > 0 {
		return r.errors[0]
	}
	if r.props.HeaderDisplay != DisplayNever {
		if err := r.header.Prepare(r.ctx, false, true); err != nil {
			return err
		}
	}
	if err := r.content.Prepare(r.ctx, false, true); err != nil {
		return err
	}
	if r.props.FooterDisplay != DisplayNever {
		if err := r.footer.Prepare(r.ctx, false, true); err != nil {
			return err
		}
	}
	return nil
}

// RenderPaged renders the report into a page sink. The content band is
// sized first, computing every page's worth of fragments against the space
// left by header and footer for that page, and then emitted page by page.
// At least one page is always produced so header and footer stay visible
// for empty content.
func (r *Report) RenderPaged(sink PageSink) error {
	r.ctx.resetPages()
	m, _ := sink.(TextMeasurer)
	r.ctx.setMeasurer(m)
	defer r.ctx.setMeasurer(nil)

	wmWidth, wmHeight, wmFormat := r.watermarkBox()

	if err := r.content.Prepare(r.ctx, true, false); err != nil {
		return err
	}
	pageCount := 1
	for {
		height := r.props.PageHeight - r.props.MarginTop - r.props.MarginBottom
		if r.props.HeaderDisplay.VisibleOn(pageCount) {
			height -= r.props.HeaderSize
		}
		if r.props.FooterDisplay.VisibleOn(pageCount) {
			height -= r.props.FooterSize
		}
		done, err := r.content.LayoutPage(height, r.ctx)
		if err != nil {
			return err
		}
		if done {
			break
		}
		pageCount++
		if pageCount >= maxRenderPages {
			return fmt.Errorf("layout did not converge after %d pages: %w", pageCount, ErrTooManyPages)
		}
	}
	r.ctx.SetPageCount(pageCount)
	r.logger.Debug("sized", "pages", pageCount)

	footerY := r.props.PageHeight - r.props.FooterSize - r.props.MarginBottom
	for !r.content.Finished() || r.ctx.PageNumber() == 0 {
		sink.AddPage()
		r.ctx.IncPageNumber()
		pageNo := r.ctx.PageNumber()

		if wmHeight > 0 && wmHeight < r.props.PageHeight {
			err := sink.DrawImage("watermark", r.watermark, wmFormat,
				(r.props.PageWidth-wmWidth)/2, r.props.PageHeight-wmHeight, wmWidth, wmHeight)
			if err != nil {
				return err
			}
		}

		contentY := r.props.MarginTop
		if r.props.HeaderDisplay.VisibleOn(pageNo) {
			contentY += r.props.HeaderSize
			if err := r.renderBandPage(r.header, r.props.HeaderSize, r.props.MarginTop, sink); err != nil {
				return err
			}
		}
		if r.props.FooterDisplay.VisibleOn(pageNo) {
			if err := r.renderBandPage(r.footer, r.props.FooterSize, footerY, sink); err != nil {
				return err
			}
		}
		if err := r.content.DrainPage(r.props.MarginLeft, contentY, sink, true); err != nil {
			return err
		}
	}
	r.header.releaseElements()
	r.footer.releaseElements()
	return nil
}

// renderBandPage fully re-prepares and draws a non-breaking band for the
// current page.
func (r *Report) renderBandPage(b *Band, height, offsetY float64, sink PageSink) error {
	if err := b.Prepare(r.ctx, true, false); err != nil {
		return err
	}
	if _, err := b.LayoutPage(height, r.ctx); err != nil {
		return err
	}
	return b.DrainPage(r.props.MarginLeft, offsetY, sink, false)
}

// watermarkBox derives the on-page size of the configured watermark: a
// third of the page width, scaled by the image's aspect ratio, anchored
// bottom-center.
func (r *Report) watermarkBox() (w, h float64, format string) {
	if len(r.watermark) == 0 {
		return 0, 0, ""
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(r.watermark))
	if err != nil || cfg.Width <= 0 {
		r.logger.Warn("unusable watermark image", "error", err)
		return 0, 0, ""
	}
	w = r.props.PageWidth / 3
	h = w * float64(cfg.Height) / float64(cfg.Width)
	return w, h, format
}

// RenderRows renders the report into a worksheet sink as one sequential
// run of rows: header, content, footer, each gated by its own display
// policy.
func (r *Report) RenderRows(sink WorksheetSink) error {
	r.ctx.resetPages()
	row := 0
	emit := func(b *Band) error {
		if err := b.Prepare(r.ctx, false, false); err != nil {
			return err
		}
		next, err := b.EmitRows(row, r.ctx, sink)
		if err != nil {
			return err
		}
		row = next
		return nil
	}
	if r.props.HeaderDisplay != DisplayNever {
		if err := emit(r.header); err != nil {
			return err
		}
	}
	if err := emit(r.content); err != nil {
		return err
	}
	if r.props.FooterDisplay != DisplayNever {
		if err := emit(r.footer); err != nil {
			return err
		}
	}
	r.logger.Debug("rows emitted", "rows", row)
	return nil
}
