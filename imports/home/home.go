// Package home implements the partial home-result protocol (§4.10): a
// per-call accumulator keyed by component title (or a synthetic index when
// absent) that the envaidoku import namespace's send_partial_result feeds,
// invoking a caller-supplied callback after every update.
package home

import (
	"fmt"

	"github.com/aidoku-host/wasmhost/domain"
)

// OnPartial is invoked with the accumulated layout after each partial
// result is merged in.
type OnPartial func(domain.HomeLayout)

// Accumulator tracks partial HomeComponent/HomeLayout emissions across one
// get_home call. It is per-call: callers construct a fresh Accumulator on
// entry and discard it on exit, per §4.10 ("cleared on entry and exit").
type Accumulator struct {
	order     []string
	byKey     map[string]domain.HomeComponent
	onPartial OnPartial
}

// New creates an empty Accumulator that invokes onPartial (if non-nil)
// after every merged partial.
func New(onPartial OnPartial) *Accumulator {
	return &Accumulator{
		byKey:     make(map[string]domain.HomeComponent),
		onPartial: onPartial,
	}
}

// Merge applies one decoded send_partial_result payload: a full layout
// replaces the accumulator wholesale (still keyed by title, so later
// single-component partials can still replace pieces of it); a single
// component is keyed by title, or by a synthetic per-call index when its
// title is absent, so later emissions for the same titled component
// replace earlier ones while untitled components each get their own slot.
func (a *Accumulator) Merge(pr domain.PartialResult) {
	switch pr.Variant {
	case domain.PartialResultLayout:
		a.order = nil
		a.byKey = make(map[string]domain.HomeComponent, len(pr.Layout.Components))
		for i, c := range pr.Layout.Components {
			a.put(a.keyFor(c, i), c)
		}
	case domain.PartialResultComponent:
		a.put(a.keyFor(pr.Component, len(a.order)), pr.Component)
	}
	if a.onPartial != nil {
		a.onPartial(a.Layout())
	}
}

func (a *Accumulator) keyFor(c domain.HomeComponent, index int) string {
	if c.Title != nil && *c.Title != "" {
		return "title:" + *c.Title
	}
	return fmt.Sprintf("index:%d", index)
}

func (a *Accumulator) put(key string, c domain.HomeComponent) {
	if _, exists := a.byKey[key]; !exists {
		a.order = append(a.order, key)
	}
	a.byKey[key] = c
}

// Layout returns the ordered components accumulated so far.
func (a *Accumulator) Layout() domain.HomeLayout {
	components := make([]domain.HomeComponent, 0, len(a.order))
	for _, key := range a.order {
		components = append(components, a.byKey[key])
	}
	return domain.HomeLayout{Components: components}
}

// Empty reports whether no partial has been merged yet.
func (a *Accumulator) Empty() bool {
	return len(a.order) == 0
}

// Resolve implements §4.10's final-result precedence: partials are
// authoritative when present; otherwise the plugin's final decoded layout
// is returned (and an empty final layout becomes no layout at all).
func (a *Accumulator) Resolve(final domain.HomeLayout, finalErr error) (domain.HomeLayout, error) {
	if !a.Empty() {
		return a.Layout(), nil
	}
	if finalErr != nil {
		return domain.HomeLayout{}, finalErr
	}
	return final, nil
}
