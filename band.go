// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package reportgen

import (
	"cmp"
	"slices"
)

// BandKind tags the three report bands.
type BandKind uint8

const (
	BandHeader BandKind = iota
	BandContent
	BandFooter
)

// Container holds elements in insertion order and the dimensions of their
// coordinate space. Bounds checks against width/height happen where the
// model is built, not here.
type Container struct {
	id       string
	width    float64
	height   float64
	elements []DocElement
}

func (c *Container) add(e DocElement) { c.elements = append(c.elements, e) }

// Band is a Container with flow semantics: it orders its elements for a
// pass, links them through predecessor ids and, for the content band,
// carves the element list into pages. Header and footer bands are fully
// re-prepared for every physical page and never break.
type Band struct {
	Container
	kind           BandKind
	allowPageBreak bool
	docProps       *DocumentProperties

	sorted    []DocElement       // elements still pending in the current pass
	byID      map[int]DocElement // identity table for predecessor links
	fragments []Fragment         // produced output, delimited by page-break sentinels

	// explicitPageBreak and pageY position the first element of a page that
	// was started by an explicit page-break marker: the element is placed
	// relative to the break position instead of the page top.
	explicitPageBreak bool
	pageY             float64
}

func newBand(kind BandKind, id string, dp *DocumentProperties, containers map[string]*Band) *Band {
	b := &Band{
		kind:              kind,
		docProps:          dp,
		explicitPageBreak: true,
	}
	b.id = id
	b.width = dp.contentWidth()
	switch kind {
	case BandContent:
		b.allowPageBreak = true
		b.height = dp.ContentHeight
	case BandHeader:
		b.height = dp.HeaderSize
	case BandFooter:
		b.height = dp.FooterSize
	}
	containers[id] = b
	return b
}

// visible reports whether the band participates in output at all. Header
// and footer are gated by the document flags; element bounds are only
// validated for visible bands.
func (b *Band) visible() bool {
	switch b.kind {
	case BandHeader:
		return b.docProps.Header
	case BandFooter:
		return b.docProps.Footer
	}
	return true
}

// Prepare rebuilds the band's flow state for a rendering pass: elements are
// readied against the data context, ordered, and (for page targets) linked
// to their predecessors. The content band is prepared once per document,
// header and footer once per physical page.
func (b *Band) Prepare(ctx *Context, forPage, verify bool) error {
	b.sorted = b.sorted[:0]
	for _, elem := range b.elements {
		if !forPage && elem.base().spreadsheetHide && !verify {
			continue
		}
		if err := elem.Prepare(ctx, verify); err != nil {
			return err
		}
		b.sorted = append(b.sorted, elem)
	}

	if !forPage {
		slices.SortStableFunc(b.sorted, func(a, c DocElement) int {
			if r := cmp.Compare(a.base().y, c.base().y); r != 0 {
				return r
			}
			return cmp.Compare(a.base().x, c.base().x)
		})
		return nil
	}

	for _, elem := range b.sorted {
		elem.base().resetFlow()
	}
	slices.SortStableFunc(b.sorted, func(a, c DocElement) int {
		if r := cmp.Compare(a.base().y, c.base().y); r != 0 {
			return r
		}
		return cmp.Compare(a.base().sortOrder, c.base().sortOrder)
	})

	// An element's predecessor is the element above it with the greatest
	// bottom edge not below its own top edge. Page-break markers never
	// complete as content, so they are not candidates.
	b.byID = make(map[int]DocElement, len(b.sorted))
	for _, elem := range b.sorted {
		b.byID[elem.ID()] = elem
	}
	for i, elem := range b.sorted {
		var pred *ElementBase
		for j := i - 1; j >= 0; j-- {
			if isPageBreak(b.sorted[j]) {
				continue
			}
			cand := b.sorted[j].base()
			if cand.Bottom() <= elem.base().y && (pred == nil || cand.Bottom() > pred.Bottom()) {
				pred = cand
			}
		}
		if pred != nil {
			elem.base().predecessor = pred.id
			pred.successors = append(pred.successors, elem.ID())
		}
	}

	b.fragments = b.fragments[:0]
	b.explicitPageBreak = true
	b.pageY = 0
	return nil
}

func isPageBreak(e DocElement) bool {
	_, ok := e.(*PageBreakElement)
	return ok
}

// LayoutPage carves one page's worth of fragments out of the pending
// elements. It returns true when the band has nothing left, false when a
// page boundary was reached with elements still pending; the caller then
// calls again for the next page.
func (b *Band) LayoutPage(avail float64, ctx *Context) (bool, error) {
	i := 0
	newPage := false
	var processed []DocElement
	completed := make(map[int]bool)

	setExplicitBreak := false
	for !newPage && i < len(b.sorted) {
		elem := b.sorted[i]
		eb := elem.base()
		if pid := eb.predecessor; pid != 0 {
			if pred := b.byID[pid]; !completed[pid] || !pred.base().complete {
				// predecessor not placed yet, the element must wait for the
				// next page
				newPage = true
				continue
			}
		}

		deleted := false
		if isPageBreak(elem) {
			if !b.allowPageBreak {
				// A page break in a non-breaking band has nowhere to go;
				// drop everything after it and call the band done.
				b.sorted = b.sorted[:0]
				return true, nil
			}
			b.sorted = slices.Delete(b.sorted, i, i+1)
			deleted = true
			newPage = true
			setExplicitBreak = true
			b.pageY = eb.y
		} else {
			complete := false
			var offsetY float64
			switch {
			case eb.predecessor != 0:
				// same page as the predecessor, keep the declared gap
				pred := b.byID[eb.predecessor].base()
				offsetY = pred.renderBottom + (eb.y - pred.Bottom())
			case b.allowPageBreak:
				if eb.firstRender && b.explicitPageBreak {
					offsetY = eb.y - b.pageY
				}
			default:
				offsetY = eb.y
			}

			printed, err := elem.IsPrinted(ctx)
			if err != nil {
				return false, err
			}
			if printed {
				if offsetY >= avail {
					newPage = true
				}
				if !newPage {
					frag, done, err := elem.NextFragment(offsetY, avail, ctx)
					if err != nil {
						return false, err
					}
					complete = done
					if frag != nil {
						if done {
							processed = append(processed, elem)
						}
						b.fragments = append(b.fragments, frag)
					}
				}
			} else {
				processed = append(processed, elem)
				elem.FinishEmpty(offsetY)
				complete = true
			}
			if complete {
				completed[eb.id] = true
				b.sorted = slices.Delete(b.sorted, i, i+1)
				deleted = true
			}
		}
		if !deleted {
			i++
		}
	}

	b.explicitPageBreak = setExplicitBreak || !b.allowPageBreak

	if len(b.sorted) > 0 {
		b.fragments = append(b.fragments, pageBreakFragment{})
		// Once an element is fully placed, dependents pushed to a later
		// page restart relative to the page top instead of chaining to it.
		for _, p := range processed {
			for _, sid := range p.base().successors {
				if s := b.byID[sid]; s != nil {
					s.base().predecessor = 0
				}
			}
		}
	}
	return len(b.sorted) == 0, nil
}

// DrainPage draws the pending fragments up to and including the next
// page-break sentinel, translated by the band's position on the physical
// page. With release set, each fragment's resources are dropped right after
// drawing, so at most one page of output is ever held.
func (b *Band) DrainPage(offsetX, offsetY float64, sink PageSink, release bool) error {
	n := 0
	for _, frag := range b.fragments {
		n++
		if _, ok := frag.(pageBreakFragment); ok {
			break
		}
		if err := frag.Draw(offsetX, offsetY, sink); err != nil {
			return err
		}
		if release {
			frag.Release()
		}
	}
	b.fragments = b.fragments[n:]
	return nil
}

// Finished reports whether every produced fragment has been drained.
func (b *Band) Finished() bool { return len(b.fragments) == 0 }

// EmitRows writes the band's elements as spreadsheet rows. Elements sharing
// a top coordinate form one output row: each advances the column cursor by
// its own span, and the row cursor advances past the tallest of them.
func (b *Band) EmitRows(startRow int, ctx *Context, sink WorksheetSink) (int, error) {
	row := startRow
	i := 0
	for i < len(b.sorted) {
		j := i + 1
		for j < len(b.sorted) && b.sorted[j].base().y == b.sorted[i].base().y {
			j++
		}
		runRow, col := row, 0
		for _, elem := range b.sorted[i:j] {
			next, err := elem.EmitCells(runRow, col, ctx, sink)
			if err != nil {
				return 0, err
			}
			row = max(row, next)
			col += elem.ColumnSpan()
		}
		i = j
	}
	return row, nil
}

// releaseElements drops buffered element resources after a render pass.
func (b *Band) releaseElements() {
	for _, elem := range b.elements {
		elem.Release()
	}
}
