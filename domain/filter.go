package domain

import (
	"fmt"

	"github.com/aidoku-host/wasmhost/postcard"
)

// FilterVariant is the tagged-union discriminant for a Filter descriptor,
// the shape a plugin's get_filters export returns (§4.3).
type FilterVariant uint8

const (
	FilterVariantTitle FilterVariant = iota
	FilterVariantAuthor
	FilterVariantSelect
	FilterVariantSort
	FilterVariantCheck
	FilterVariantGroup
	FilterVariantGenre
)

// SortDefault is Sort's default{index, ascending} payload.
type SortDefault struct {
	Index     uint32
	Ascending bool
}

// GenreDefault is one entry of Genre's defaults[{index, state}] list. State
// has already been zigzag-decoded to {-1, 0, 1} (Excluded, None, Included).
type GenreDefault struct {
	Index uint32
	State int32
}

// Filter is a single filter descriptor a plugin exposes through
// get_filters. Only the fields relevant to Variant are populated.
type Filter struct {
	Variant FilterVariant
	Name    string

	Options      []string // Select, Sort, Genre
	DefaultIndex uint32   // Select

	SortDefault SortDefault // Sort
	CanAscend   bool        // Sort

	DefaultBool bool // Check

	Filters []Filter // Group

	CanExclude    bool           // Genre
	GenreDefaults []GenreDefault // Genre
}

// DecodeFilter reads a single Filter descriptor, recursing into Group's
// nested filter list.
func DecodeFilter(r *postcard.Reader) (Filter, error) {
	var f Filter

	tag, err := r.Uvarint()
	if err != nil {
		return f, err
	}
	f.Variant = FilterVariant(tag)

	switch f.Variant {
	case FilterVariantTitle, FilterVariantAuthor:
		if f.Name, err = r.String(); err != nil {
			return f, err
		}
	case FilterVariantSelect:
		if f.Name, err = r.String(); err != nil {
			return f, err
		}
		if f.Options, err = r.StringSlice(); err != nil {
			return f, err
		}
		idx, err := r.Uvarint()
		if err != nil {
			return f, err
		}
		f.DefaultIndex = uint32(idx)
	case FilterVariantSort:
		if f.Name, err = r.String(); err != nil {
			return f, err
		}
		if f.Options, err = r.StringSlice(); err != nil {
			return f, err
		}
		idx, err := r.Uvarint()
		if err != nil {
			return f, err
		}
		f.SortDefault.Index = uint32(idx)
		if f.SortDefault.Ascending, err = r.Bool(); err != nil {
			return f, err
		}
		if f.CanAscend, err = r.Bool(); err != nil {
			return f, err
		}
	case FilterVariantCheck:
		if f.Name, err = r.String(); err != nil {
			return f, err
		}
		if f.DefaultBool, err = r.Bool(); err != nil {
			return f, err
		}
	case FilterVariantGroup:
		if f.Name, err = r.String(); err != nil {
			return f, err
		}
		n, err := r.VecLen()
		if err != nil {
			return f, err
		}
		f.Filters = make([]Filter, 0, n)
		for i := 0; i < n; i++ {
			child, err := DecodeFilter(r)
			if err != nil {
				return f, err
			}
			f.Filters = append(f.Filters, child)
		}
	case FilterVariantGenre:
		if f.Name, err = r.String(); err != nil {
			return f, err
		}
		if f.Options, err = r.StringSlice(); err != nil {
			return f, err
		}
		if f.CanExclude, err = r.Bool(); err != nil {
			return f, err
		}
		n, err := r.VecLen()
		if err != nil {
			return f, err
		}
		f.GenreDefaults = make([]GenreDefault, 0, n)
		for i := 0; i < n; i++ {
			idx, err := r.Uvarint()
			if err != nil {
				return f, err
			}
			state, err := r.Varint32()
			if err != nil {
				return f, err
			}
			f.GenreDefaults = append(f.GenreDefaults, GenreDefault{Index: uint32(idx), State: state})
		}
	default:
		return f, fmt.Errorf("domain: unknown Filter variant tag %d", tag)
	}
	return f, nil
}

// DecodeFilterList decodes vec<Filter>, the shape get_filters returns.
func DecodeFilterList(r *postcard.Reader) ([]Filter, error) {
	n, err := r.VecLen()
	if err != nil {
		return nil, err
	}
	out := make([]Filter, 0, n)
	for i := 0; i < n; i++ {
		f, err := DecodeFilter(r)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// FilterValueVariant is the tagged-union discriminant for a FilterValue
// on the wire — the shape the host sends to a plugin's search export
// describing the caller's selected filter state (§4.3).
type FilterValueVariant uint8

const (
	FilterValueVariantText FilterValueVariant = iota
	FilterValueVariantSort
	FilterValueVariantCheck
	FilterValueVariantSelect
	FilterValueVariantMultiSelect
	// FilterValueVariantGroup is the host's neutral representation of wire
	// tag 5 (Range). Range's upstream semantics are unclear; the host folds
	// it here rather than guessing at numeric bounds, and preserves the two
	// option<f32> values so it can re-emit the same bytes it received.
	FilterValueVariantGroup
)

// FilterValue is a single search-filter selection sent to a plugin.
type FilterValue struct {
	Variant FilterValueVariant
	ID      string

	Text string // Text

	SortIndex     int32 // Sort
	SortAscending bool  // Sort

	CheckValue bool // Check

	SelectValue string // Select

	Included []string // MultiSelect
	Excluded []string // MultiSelect

	RangeMin *float32 // Group (folded Range)
	RangeMax *float32 // Group (folded Range)
}

// EncodeRequest writes a FilterValue in the exact wire shape §4.3 defines,
// including the wire tag 5 layout for a folded Range value.
func (v FilterValue) EncodeRequest(w *postcard.Writer) {
	w.Uvarint(uint64(v.Variant))
	w.String(v.ID)
	switch v.Variant {
	case FilterValueVariantText:
		w.String(v.Text)
	case FilterValueVariantSort:
		w.Varint32(v.SortIndex)
		w.Bool(v.SortAscending)
	case FilterValueVariantCheck:
		if v.CheckValue {
			w.Varint32(1)
		} else {
			w.Varint32(0)
		}
	case FilterValueVariantSelect:
		w.String(v.SelectValue)
	case FilterValueVariantMultiSelect:
		w.StringSlice(v.Included)
		w.StringSlice(v.Excluded)
	case FilterValueVariantGroup:
		w.OptionF32(v.RangeMin)
		w.OptionF32(v.RangeMax)
	}
}

// DecodeFilterValue reads a single FilterValue, folding wire tag 5 (Range)
// into FilterValueVariantGroup.
func DecodeFilterValue(r *postcard.Reader) (FilterValue, error) {
	var v FilterValue

	tag, err := r.Uvarint()
	if err != nil {
		return v, err
	}
	if v.ID, err = r.String(); err != nil {
		return v, err
	}

	switch tag {
	case 0:
		v.Variant = FilterValueVariantText
		if v.Text, err = r.String(); err != nil {
			return v, err
		}
	case 1:
		v.Variant = FilterValueVariantSort
		if v.SortIndex, err = r.Varint32(); err != nil {
			return v, err
		}
		if v.SortAscending, err = r.Bool(); err != nil {
			return v, err
		}
	case 2:
		v.Variant = FilterValueVariantCheck
		i, err := r.Varint32()
		if err != nil {
			return v, err
		}
		v.CheckValue = i != 0
	case 3:
		v.Variant = FilterValueVariantSelect
		if v.SelectValue, err = r.String(); err != nil {
			return v, err
		}
	case 4:
		v.Variant = FilterValueVariantMultiSelect
		if v.Included, err = r.StringSlice(); err != nil {
			return v, err
		}
		if v.Excluded, err = r.StringSlice(); err != nil {
			return v, err
		}
	case 5:
		v.Variant = FilterValueVariantGroup
		if v.RangeMin, err = r.OptionF32(); err != nil {
			return v, err
		}
		if v.RangeMax, err = r.OptionF32(); err != nil {
			return v, err
		}
	default:
		return v, fmt.Errorf("domain: unknown FilterValue variant tag %d", tag)
	}
	return v, nil
}
