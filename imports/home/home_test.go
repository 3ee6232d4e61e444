package home

import (
	"testing"

	"github.com/aidoku-host/wasmhost/domain"
)

func strPtr(s string) *string { return &s }

func TestMergeComponentsByTitleReplace(t *testing.T) {
	var calls []domain.HomeLayout
	acc := New(func(l domain.HomeLayout) { calls = append(calls, l) })

	acc.Merge(domain.PartialResult{
		Variant:   domain.PartialResultComponent,
		Component: domain.HomeComponent{Title: strPtr("Trending"), Variant: domain.HomeComponentScroller},
	})
	acc.Merge(domain.PartialResult{
		Variant:   domain.PartialResultComponent,
		Component: domain.HomeComponent{Title: strPtr("Trending"), Variant: domain.HomeComponentBigScroller},
	})

	layout := acc.Layout()
	if len(layout.Components) != 1 {
		t.Fatalf("layout has %d components, want 1", len(layout.Components))
	}
	if layout.Components[0].Variant != domain.HomeComponentBigScroller {
		t.Fatalf("later emission for same title did not replace earlier one")
	}
	if len(calls) != 2 {
		t.Fatalf("onPartial invoked %d times, want 2", len(calls))
	}
}

func TestMergeUntitledComponentsGetDistinctSlots(t *testing.T) {
	acc := New(nil)
	acc.Merge(domain.PartialResult{Variant: domain.PartialResultComponent, Component: domain.HomeComponent{Variant: domain.HomeComponentFilters}})
	acc.Merge(domain.PartialResult{Variant: domain.PartialResultComponent, Component: domain.HomeComponent{Variant: domain.HomeComponentLinks}})

	layout := acc.Layout()
	if len(layout.Components) != 2 {
		t.Fatalf("layout has %d components, want 2", len(layout.Components))
	}
}

func TestResolvePrefersPartialsWhenPresent(t *testing.T) {
	acc := New(nil)
	acc.Merge(domain.PartialResult{
		Variant:   domain.PartialResultComponent,
		Component: domain.HomeComponent{Title: strPtr("A"), Variant: domain.HomeComponentScroller},
	})

	final := domain.HomeLayout{Components: []domain.HomeComponent{{Title: strPtr("B")}}}
	resolved, err := acc.Resolve(final, nil)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(resolved.Components) != 1 || *resolved.Components[0].Title != "A" {
		t.Fatalf("Resolve did not prefer partials: %+v", resolved)
	}
}

func TestResolveFallsBackToFinalWhenNoPartials(t *testing.T) {
	acc := New(nil)
	final := domain.HomeLayout{Components: []domain.HomeComponent{{Title: strPtr("Only")}}}
	resolved, err := acc.Resolve(final, nil)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(resolved.Components) != 1 || *resolved.Components[0].Title != "Only" {
		t.Fatalf("Resolve did not fall back to final layout: %+v", resolved)
	}
}

func TestMergeFullLayoutReplacesAccumulator(t *testing.T) {
	acc := New(nil)
	acc.Merge(domain.PartialResult{
		Variant:   domain.PartialResultComponent,
		Component: domain.HomeComponent{Title: strPtr("Old"), Variant: domain.HomeComponentScroller},
	})
	acc.Merge(domain.PartialResult{
		Variant: domain.PartialResultLayout,
		Layout: domain.HomeLayout{Components: []domain.HomeComponent{
			{Title: strPtr("New1")},
			{Title: strPtr("New2")},
		}},
	})

	layout := acc.Layout()
	if len(layout.Components) != 2 {
		t.Fatalf("layout has %d components, want 2", len(layout.Components))
	}
	if *layout.Components[0].Title != "New1" || *layout.Components[1].Title != "New2" {
		t.Fatalf("full layout merge did not replace accumulator: %+v", layout)
	}
}
