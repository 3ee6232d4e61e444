package domain

import (
	"fmt"

	"github.com/aidoku-host/wasmhost/postcard"
)

// HomeComponentVariant is the tagged-union discriminant for a
// HomeComponent's value (§4.3).
type HomeComponentVariant uint8

const (
	HomeComponentImageScroller HomeComponentVariant = iota
	HomeComponentBigScroller
	HomeComponentScroller
	HomeComponentMangaList
	HomeComponentMangaChapterList
	HomeComponentFilters
	HomeComponentLinks
)

// HomeComponent is one entry in a HomeLayout. Title and Subtitle are both
// optional; only the fields relevant to Variant are populated. ImageScroller,
// BigScroller, Scroller, Filters and Links carry no wire payload beyond the
// tag itself — §4.3 names no further fields for them, and this decoder does
// not guess at an unspecified shape (see the Range-filter precedent in §9).
type HomeComponent struct {
	Title    *string
	Subtitle *string
	Variant  HomeComponentVariant

	// MangaList
	ListingID string
	Ranking   bool
	PageSize  uint32

	// MangaChapterList also uses ListingID and PageSize.
}

// DecodeHomeComponent reads option<title>, option<subtitle>, then the
// tagged HomeComponentValue.
func DecodeHomeComponent(r *postcard.Reader) (HomeComponent, error) {
	var c HomeComponent
	var err error

	if c.Title, err = r.OptionString(); err != nil {
		return c, err
	}
	if c.Subtitle, err = r.OptionString(); err != nil {
		return c, err
	}

	tag, err := r.Uvarint()
	if err != nil {
		return c, err
	}
	c.Variant = HomeComponentVariant(tag)

	switch c.Variant {
	case HomeComponentImageScroller, HomeComponentBigScroller, HomeComponentScroller,
		HomeComponentFilters, HomeComponentLinks:
		// no additional payload
	case HomeComponentMangaList:
		if c.ListingID, err = r.String(); err != nil {
			return c, err
		}
		if c.Ranking, err = r.Bool(); err != nil {
			return c, err
		}
		size, err := r.Uvarint()
		if err != nil {
			return c, err
		}
		c.PageSize = uint32(size)
	case HomeComponentMangaChapterList:
		if c.ListingID, err = r.String(); err != nil {
			return c, err
		}
		size, err := r.Uvarint()
		if err != nil {
			return c, err
		}
		c.PageSize = uint32(size)
	default:
		return c, fmt.Errorf("domain: unknown HomeComponentValue variant tag %d", tag)
	}
	return c, nil
}

// EncodeRequest writes a HomeComponent in the same shape DecodeHomeComponent
// reads, used when the host must re-emit an accumulated partial component.
func (c HomeComponent) EncodeRequest(w *postcard.Writer) {
	w.OptionString(c.Title)
	w.OptionString(c.Subtitle)
	w.Uvarint(uint64(c.Variant))
	switch c.Variant {
	case HomeComponentMangaList:
		w.String(c.ListingID)
		w.Bool(c.Ranking)
		w.Uvarint(uint64(c.PageSize))
	case HomeComponentMangaChapterList:
		w.String(c.ListingID)
		w.Uvarint(uint64(c.PageSize))
	}
}

// HomeLayout is an ordered sequence of HomeComponents, the full shape a
// plugin's get_home export (or a final partial-result snapshot) returns.
type HomeLayout struct {
	Components []HomeComponent
}

// DecodeHomeLayout decodes vec<HomeComponent>.
func DecodeHomeLayout(r *postcard.Reader) (HomeLayout, error) {
	var layout HomeLayout
	n, err := r.VecLen()
	if err != nil {
		return layout, err
	}
	layout.Components = make([]HomeComponent, 0, n)
	for i := 0; i < n; i++ {
		c, err := DecodeHomeComponent(r)
		if err != nil {
			return layout, err
		}
		layout.Components = append(layout.Components, c)
	}
	return layout, nil
}

// PartialResultVariant distinguishes the two payload shapes a plugin may
// pass to send_partial_result during a home call (§4.10).
type PartialResultVariant uint8

const (
	// PartialResultLayout carries a complete HomeLayout snapshot.
	PartialResultLayout PartialResultVariant = iota
	// PartialResultComponent carries a single HomeComponent.
	PartialResultComponent
)

// PartialResult is one send_partial_result invocation's decoded payload.
type PartialResult struct {
	Variant   PartialResultVariant
	Layout    HomeLayout
	Component HomeComponent
}

// DecodePartialResult reads the variant 0/1 payload send_partial_result
// passes the host.
func DecodePartialResult(r *postcard.Reader) (PartialResult, error) {
	var pr PartialResult

	tag, err := r.Uvarint()
	if err != nil {
		return pr, err
	}
	pr.Variant = PartialResultVariant(tag)

	switch pr.Variant {
	case PartialResultLayout:
		if pr.Layout, err = DecodeHomeLayout(r); err != nil {
			return pr, err
		}
	case PartialResultComponent:
		if pr.Component, err = DecodeHomeComponent(r); err != nil {
			return pr, err
		}
	default:
		return pr, fmt.Errorf("domain: unknown partial result variant tag %d", tag)
	}
	return pr, nil
}
