package resource

import "sync"

// unifiedTable implements Table using a localBackend.
type unifiedTable struct {
	backend   *localBackend
	observers []Observer
	obsMu     sync.RWMutex
}

// NewTable creates a new unified resource table.
func NewTable() Table {
	return &unifiedTable{
		backend: newLocalBackend(),
	}
}

func (t *unifiedTable) Insert(kind Kind, value any) Handle {
	handle, err := t.backend.Create(kind, value)
	if err != nil {
		return 0
	}

	t.notify(Event{Type: EventCreated, Handle: handle, Kind: kind, Value: value})
	return handle
}

func (t *unifiedTable) Get(handle Handle) (any, bool) {
	return t.backend.Get(handle)
}

func (t *unifiedTable) GetTyped(handle Handle, kind Kind) (any, bool) {
	actual, ok := t.backend.Kind(handle)
	if !ok || actual != kind {
		return nil, false
	}
	return t.backend.Get(handle)
}

func (t *unifiedTable) Update(handle Handle, value any) bool {
	return t.backend.Update(handle, value)
}

func (t *unifiedTable) KindOf(handle Handle) (Kind, bool) {
	return t.backend.Kind(handle)
}

func (t *unifiedTable) Retain(handle Handle) bool {
	return t.backend.Retain(handle)
}

func (t *unifiedTable) Release(handle Handle) bool {
	kind, _ := t.backend.Kind(handle)
	removed := t.backend.Release(handle)
	if removed {
		// Release only notifies EventDropped when the entry actually left
		// the table (refcount reached zero); Kind lookup above happened
		// before the drop so it still reflects the entry that was there.
		if _, stillThere := t.backend.Kind(handle); !stillThere {
			t.notify(Event{Type: EventDropped, Handle: handle, Kind: kind})
		}
	}
	return removed
}

func (t *unifiedTable) ForceRemove(handle Handle) (any, bool) {
	kind, _ := t.backend.Kind(handle)
	value, ok := t.backend.ForceRemove(handle)
	if ok {
		t.notify(Event{Type: EventDropped, Handle: handle, Kind: kind, Value: value})
	}
	return value, ok
}

// Destroy is the single import-facing entry point for the plugin's unified
// std.destroy. It drops the entry unconditionally, regardless of kind or
// outstanding refcount, and reports whether it existed.
func (t *unifiedTable) Destroy(handle Handle) bool {
	_, ok := t.ForceRemove(handle)
	return ok
}

func (t *unifiedTable) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

func (t *unifiedTable) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

func (t *unifiedTable) Len() int {
	return t.backend.Len()
}

func (t *unifiedTable) Clear() {
	var handles []Handle
	t.backend.Each(func(h Handle, kind Kind, createdAt int64, refcount uint32, value any) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		t.ForceRemove(h)
	}
}

func (t *unifiedTable) Close() error {
	return t.backend.Close()
}

func (t *unifiedTable) NewScope() *Scope {
	return &Scope{table: t}
}

func (t *unifiedTable) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
