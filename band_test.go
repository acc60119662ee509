// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package reportgen

import (
	"strings"
	"testing"
)

// textEl builds a text element of the given number of 20pt lines.
func textEl(id, y, height, lines int) *TextElement {
	content := strings.TrimSuffix(strings.Repeat("x\n", lines), "\n")
	return newTextElement(elementDef{
		ID: intVal(id), Y: intVal(y), Width: 100, Height: intVal(height),
		Content:      content,
		textStyleDef: textStyleDef{FontSize: 20},
	}, nil)
}

// contentBand wires elements into a content band prepared for a page render.
func contentBand(t *testing.T, data map[string]any, elems ...DocElement) (*Band, *Context) {
	t.Helper()
	var errs []Error
	dp := parseDocumentProperties(docPropsDef{PageFormat: "a4"}, &errs)
	b := newBand(BandContent, "0_content", dp, map[string]*Band{})
	for _, e := range elems {
		b.add(e)
	}
	ctx := newContext(nil, data, "en", "")
	if err := b.Prepare(ctx, true, false); err != nil {
		t.Fatal(err)
	}
	return b, ctx
}

func sortedIDs(b *Band) []int {
	ids := make([]int, len(b.sorted))
	for i, e := range b.sorted {
		ids[i] = e.ID()
	}
	return ids
}

func TestBandPrepareOrdering(t *testing.T) {
	mk := func() []DocElement {
		t1 := textEl(1, 50, 20, 1)
		t2 := textEl(2, 0, 20, 1)
		t2.x = 30
		t4 := textEl(4, 0, 20, 1)
		t4.x = 10
		pb := newPageBreakElement(elementDef{ID: 3, Y: 0})
		return []DocElement{t1, t2, pb, t4}
	}

	// page target: (top, draw order), page breaks first within a row
	b, _ := contentBand(t, nil, mk()...)
	want := []int{3, 2, 4, 1}
	if got := sortedIDs(b); !equalInts(got, want) {
		t.Errorf("page order = %v, want %v", got, want)
	}

	// row target: (top, left)
	b, ctx := contentBand(t, nil, mk()...)
	if err := b.Prepare(ctx, false, false); err != nil {
		t.Fatal(err)
	}
	want = []int{3, 4, 2, 1}
	if got := sortedIDs(b); !equalInts(got, want) {
		t.Errorf("row order = %v, want %v", got, want)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBandPreparePredecessors(t *testing.T) {
	a := textEl(1, 0, 30, 1)  // bottom 30
	c := textEl(2, 30, 10, 1) // bottom 40
	d := textEl(3, 40, 20, 1)
	contentBand(t, nil, a, c, d)

	if c.predecessor != 1 {
		t.Errorf("c.predecessor = %d, want 1", c.predecessor)
	}
	// both a (bottom 30) and c (bottom 40) are above d; the greater bottom wins
	if d.predecessor != 2 {
		t.Errorf("d.predecessor = %d, want 2", d.predecessor)
	}
	if len(a.successors) != 1 || a.successors[0] != 2 {
		t.Errorf("a.successors = %v, want [2]", a.successors)
	}
}

func TestBandPreparePredecessorSkipsPageBreaks(t *testing.T) {
	a := textEl(1, 0, 60, 3)
	pb := newPageBreakElement(elementDef{ID: 9, Y: 60})
	b := textEl(2, 60, 60, 3)
	contentBand(t, nil, a, pb, b)

	if b.predecessor != 1 {
		t.Errorf("b.predecessor = %d, want 1 (page break is not a candidate)", b.predecessor)
	}
}

// A band 100 units high with two stacked 60-unit elements: the second one
// splits, consuming the 40 units left on the first page and finishing with
// its remaining 20 units at the top of the second.
func TestBandLayoutSplitAcrossPages(t *testing.T) {
	a := textEl(1, 0, 60, 3)
	b := textEl(2, 60, 60, 3)
	band, ctx := contentBand(t, nil, a, b)

	done, err := band.LayoutPage(100, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Fatal("first page cannot finish the band")
	}
	if !a.complete || a.renderBottom != 60 {
		t.Errorf("a: complete=%t bottom=%g, want true/60", a.complete, a.renderBottom)
	}
	if len(band.fragments) != 3 {
		t.Fatalf("fragments = %d, want a, partial b, sentinel", len(band.fragments))
	}
	fb := band.fragments[1].(*textFragment)
	if fb.y != 60 || len(fb.lines) != 2 || fb.last {
		t.Errorf("partial fragment: y=%g lines=%d last=%t, want 60/2/false", fb.y, len(fb.lines), fb.last)
	}
	if _, ok := band.fragments[2].(pageBreakFragment); !ok {
		t.Errorf("missing page sentinel")
	}
	// a finished, so b is no longer chained to it on the next page
	if b.predecessor != 0 {
		t.Errorf("b.predecessor = %d, want cleared", b.predecessor)
	}

	done, err = band.LayoutPage(100, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Fatal("second page must finish the band")
	}
	fb = band.fragments[3].(*textFragment)
	if fb.y != 0 || len(fb.lines) != 1 || !fb.last {
		t.Errorf("final fragment: y=%g lines=%d last=%t, want 0/1/true", fb.y, len(fb.lines), fb.last)
	}
	if !b.complete || b.renderBottom != 20 {
		t.Errorf("b: complete=%t bottom=%g, want true/20", b.complete, b.renderBottom)
	}
}

// An element whose predecessor is still incomplete must wait for the next
// page, keeping its chain intact across the boundary.
func TestBandLayoutPredecessorGate(t *testing.T) {
	a := textEl(1, 0, 120, 6)
	b := textEl(2, 120, 20, 1)
	band, ctx := contentBand(t, nil, a, b)

	done, err := band.LayoutPage(100, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Fatal("band cannot finish while a is split")
	}
	if b.predecessor != 1 {
		t.Errorf("b.predecessor = %d, want 1 (a is not complete yet)", b.predecessor)
	}

	done, err = band.LayoutPage(100, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Fatal("second page must finish the band")
	}
	// a's last line ends at 20; b keeps its declared 0-unit gap to a
	last := band.fragments[len(band.fragments)-1].(*textFragment)
	if last.y != 20 {
		t.Errorf("b placed at %g, want 20", last.y)
	}
}

// An explicit page break positions the next page's elements relative to the
// break, not the page top.
func TestBandLayoutExplicitPageBreak(t *testing.T) {
	a := textEl(1, 0, 20, 1)
	pb := newPageBreakElement(elementDef{ID: 9, Y: 40})
	b := textEl(2, 50, 20, 1)
	band, ctx := contentBand(t, nil, a, pb, b)

	done, err := band.LayoutPage(100, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Fatal("elements remain after the break")
	}
	if band.pageY != 40 {
		t.Errorf("pageY = %g, want 40", band.pageY)
	}

	done, err = band.LayoutPage(100, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Fatal("second page must finish the band")
	}
	last := band.fragments[len(band.fragments)-1].(*textFragment)
	if last.y != 10 {
		t.Errorf("b placed at %g, want 10 (50 - break position 40)", last.y)
	}
}

// A page break in a non-breaking band drops everything after it and reports
// the band done in a single pass.
func TestBandPageBreakInHeader(t *testing.T) {
	var errs []Error
	dp := parseDocumentProperties(docPropsDef{PageFormat: "a4", Header: true, HeaderSize: 60}, &errs)
	band := newBand(BandHeader, "0_header", dp, map[string]*Band{})
	band.add(textEl(1, 0, 20, 1))
	band.add(newPageBreakElement(elementDef{ID: 9, Y: 30}))
	band.add(textEl(2, 40, 20, 1))
	ctx := newContext(nil, nil, "en", "")
	if err := band.Prepare(ctx, true, false); err != nil {
		t.Fatal(err)
	}

	done, err := band.LayoutPage(60, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Fatal("non-breaking band must finish in one pass")
	}
	if len(band.fragments) != 1 {
		t.Errorf("fragments = %d, want only the element before the break", len(band.fragments))
	}
	if len(band.sorted) != 0 {
		t.Errorf("remaining elements must be dropped")
	}
}

// Hidden elements keep the flow intact: dependents move up into the space
// the hidden element would have taken.
func TestBandLayoutHiddenElement(t *testing.T) {
	a := textEl(1, 0, 20, 1)
	a.printIf = "${show}"
	b := textEl(2, 30, 20, 1)
	band, ctx := contentBand(t, map[string]any{"show": false}, a, b)

	done, err := band.LayoutPage(100, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Fatal("single page expected")
	}
	if len(band.fragments) != 1 {
		t.Fatalf("fragments = %d, want only b", len(band.fragments))
	}
	fb := band.fragments[0].(*textFragment)
	if fb.y != 10 {
		t.Errorf("b placed at %g, want 10 (hidden a ends at 0, gap 30-20 kept)", fb.y)
	}
}

func TestBandDrainPage(t *testing.T) {
	a := textEl(1, 0, 60, 3)
	b := textEl(2, 60, 60, 3)
	band, ctx := contentBand(t, nil, a, b)
	for range 2 {
		if _, err := band.LayoutPage(100, ctx); err != nil {
			t.Fatal(err)
		}
	}
	// fragments now hold both pages: a, partial b, sentinel, rest of b

	sink := &recordingSink{}
	if err := band.DrainPage(10, 5, sink, true); err != nil {
		t.Fatal(err)
	}
	if band.Finished() {
		t.Fatal("second page still pending")
	}
	if n := len(sink.texts); n != 5 {
		t.Fatalf("first page drew %d lines, want 5", n)
	}
	if sink.texts[0].x != 10 || sink.texts[0].y != 5 {
		t.Errorf("first line at (%g, %g), want translated (10, 5)", sink.texts[0].x, sink.texts[0].y)
	}
	if sink.texts[3].y != 5+60 {
		t.Errorf("b's first line at y=%g, want 65", sink.texts[3].y)
	}

	if err := band.DrainPage(10, 5, sink, true); err != nil {
		t.Fatal(err)
	}
	if !band.Finished() {
		t.Fatal("everything must be drained")
	}
	if n := len(sink.texts); n != 6 {
		t.Errorf("second page drew %d lines in total, want 6", n)
	}
}

func TestBandLayoutTerminates(t *testing.T) {
	band, ctx := contentBand(t, nil, textEl(1, 0, 0, 50))
	pages := 0
	for {
		done, err := band.LayoutPage(100, ctx)
		if err != nil {
			t.Fatal(err)
		}
		pages++
		if done {
			break
		}
		if pages > maxRenderPages {
			t.Fatal("layout did not terminate")
		}
	}
	if pages != 10 {
		t.Errorf("50 lines of 20 in pages of 100 = %d pages, want 10", pages)
	}
}

func TestBandEmitRows(t *testing.T) {
	a := textEl(1, 0, 20, 1)
	b := textEl(2, 0, 20, 1)
	b.x = 50
	b.spreadsheetColspan = 3
	c := textEl(3, 0, 20, 1)
	c.x = 120
	d := textEl(4, 30, 20, 1)
	d.spreadsheetAddEmptyRow = true
	hidden := textEl(5, 60, 20, 1)
	hidden.spreadsheetHide = true

	band, ctx := contentBand(t, nil, a, b, c, d, hidden)
	if err := band.Prepare(ctx, false, false); err != nil {
		t.Fatal(err)
	}
	sink := &cellSink{}
	next, err := band.EmitRows(0, ctx, sink)
	if err != nil {
		t.Fatal(err)
	}

	want := []cell{{0, 0, "x"}, {0, 1, "x"}, {0, 4, "x"}, {1, 0, "x"}}
	if len(sink.cells) != len(want) {
		t.Fatalf("cells = %+v, want %+v", sink.cells, want)
	}
	for i, w := range want {
		if sink.cells[i] != w {
			t.Errorf("cell %d = %+v, want %+v", i, sink.cells[i], w)
		}
	}
	if len(sink.merges) != 1 || sink.merges[0] != [4]int{0, 1, 1, 3} {
		t.Errorf("merges = %+v, want one 1x3 at (0,1)", sink.merges)
	}
	if next != 3 {
		t.Errorf("next row = %d, want 3 (empty row appended)", next)
	}
}
