package domain

import (
	"testing"

	"github.com/aidoku-host/wasmhost/postcard"
)

func encodeFilterFixture(w *postcard.Writer) {
	// Title("query")
	w.Uvarint(uint64(FilterVariantTitle))
	w.String("query")

	// Sort("order", ["a","b"], default={0,false}, canAscend=true)
	w.Uvarint(uint64(FilterVariantSort))
	w.String("order")
	w.StringSlice([]string{"a", "b"})
	w.Uvarint(0)
	w.Bool(false)
	w.Bool(true)

	// Genre("tags", ["x"], canExclude=true, defaults=[])
	w.Uvarint(uint64(FilterVariantGenre))
	w.String("tags")
	w.StringSlice([]string{"x"})
	w.Bool(true)
	w.VecLen(0)
}

func TestDecodeFilterListScenarioS3(t *testing.T) {
	w := postcard.NewWriter()
	w.VecLen(3)
	encodeFilterFixture(w)

	got, err := DecodeFilterList(postcard.NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("DecodeFilterList: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 filters, got %d", len(got))
	}

	if got[0].Variant != FilterVariantTitle || got[0].Name != "query" {
		t.Fatalf("filter 0: %+v", got[0])
	}

	sort := got[1]
	if sort.Variant != FilterVariantSort || sort.Name != "order" {
		t.Fatalf("filter 1: %+v", sort)
	}
	if len(sort.Options) != 2 || sort.Options[0] != "a" || sort.Options[1] != "b" {
		t.Fatalf("sort options: %+v", sort.Options)
	}
	if sort.SortDefault.Index != 0 || sort.SortDefault.Ascending != false || !sort.CanAscend {
		t.Fatalf("sort default: %+v", sort)
	}

	genre := got[2]
	if genre.Variant != FilterVariantGenre || genre.Name != "tags" || !genre.CanExclude {
		t.Fatalf("filter 2: %+v", genre)
	}
	if len(genre.Options) != 1 || genre.Options[0] != "x" {
		t.Fatalf("genre options: %+v", genre.Options)
	}
	if len(genre.GenreDefaults) != 0 {
		t.Fatalf("expected no genre defaults, got %v", genre.GenreDefaults)
	}
}

func TestGenreSelectionStateZigzag(t *testing.T) {
	w := postcard.NewWriter()
	w.Uvarint(uint64(FilterVariantGenre))
	w.String("tags")
	w.StringSlice([]string{"action", "romance"})
	w.Bool(true)
	w.VecLen(2)
	w.Uvarint(0) // index 0
	w.Varint32(1)
	w.Uvarint(1) // index 1
	w.Varint32(-1)

	got, err := DecodeFilter(postcard.NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("DecodeFilter: %v", err)
	}
	if len(got.GenreDefaults) != 2 {
		t.Fatalf("want 2 defaults, got %d", len(got.GenreDefaults))
	}
	if got.GenreDefaults[0].State != 1 {
		t.Fatalf("want Included(1), got %d", got.GenreDefaults[0].State)
	}
	if got.GenreDefaults[1].State != -1 {
		t.Fatalf("want Excluded(-1), got %d", got.GenreDefaults[1].State)
	}
}

func TestFilterValueEncodeDecodeRoundTrip(t *testing.T) {
	cases := []FilterValue{
		{Variant: FilterValueVariantText, ID: "query", Text: "isekai"},
		{Variant: FilterValueVariantSort, ID: "order", SortIndex: 2, SortAscending: true},
		{Variant: FilterValueVariantCheck, ID: "adult", CheckValue: true},
		{Variant: FilterValueVariantSelect, ID: "status", SelectValue: "ongoing"},
		{Variant: FilterValueVariantMultiSelect, ID: "tags", Included: []string{"a"}, Excluded: []string{"b", "c"}},
	}
	for _, want := range cases {
		w := postcard.NewWriter()
		want.EncodeRequest(w)
		got, err := DecodeFilterValue(postcard.NewReader(w.Bytes()))
		if err != nil {
			t.Fatalf("DecodeFilterValue(%v): %v", want.Variant, err)
		}
		if got.ID != want.ID || got.Variant != want.Variant {
			t.Fatalf("mismatch for %v: got %+v", want, got)
		}
	}
}

func TestFilterValueRangeFoldsToGroup(t *testing.T) {
	min := float32(1.5)
	max := float32(9.9)
	want := FilterValue{Variant: FilterValueVariantGroup, ID: "score", RangeMin: &min, RangeMax: &max}

	w := postcard.NewWriter()
	// Manually emit wire tag 5, as an upstream plugin fixture would.
	w.Uvarint(5)
	w.String(want.ID)
	w.OptionF32(want.RangeMin)
	w.OptionF32(want.RangeMax)

	got, err := DecodeFilterValue(postcard.NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("DecodeFilterValue: %v", err)
	}
	if got.Variant != FilterValueVariantGroup {
		t.Fatalf("want folded Group, got %v", got.Variant)
	}
	if got.RangeMin == nil || *got.RangeMin != min || got.RangeMax == nil || *got.RangeMax != max {
		t.Fatalf("range values not preserved: %+v", got)
	}

	// Re-emitting must reproduce the exact bytes received.
	w2 := postcard.NewWriter()
	got.EncodeRequest(w2)
	if string(w2.Bytes()) != string(w.Bytes()) {
		t.Fatalf("re-emitted bytes differ:\n got  %v\n want %v", w2.Bytes(), w.Bytes())
	}
}
