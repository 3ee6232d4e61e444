package resource

// Handle is a resource id ("rid"): a positive 32-bit integer naming an entry
// in the table. Handle 0 is reserved and always invalid; negative values
// have no representation here because they encode ABI error codes, not
// resource ids.
type Handle uint32

// Kind tags the logical category of a resource's payload. The dispatcher and
// import namespaces use it to validate that a handle refers to the expected
// kind of thing (e.g. net.send rejecting a handle that is actually a canvas
// context) and the Sweeper uses it to apply the separate request-age
// threshold to in-flight HTTP requests.
type Kind uint8

const (
	KindValue Kind = iota
	KindRequest
	KindHTMLDocument
	KindHTMLNodeSet
	KindCanvasContext
	KindImage
	KindFont
	KindJSContext

	// KindLegacyObject tags the result of one of the aidoku namespace's
	// legacy object constructors (§4.2's "legacy mode" arguments/results):
	// a domain.Manga, domain.MangaListResult, domain.Chapter,
	// []domain.Chapter, domain.Page, or []domain.Page stored verbatim
	// rather than through the generic value.Value model, since the legacy
	// ABI's dispatcher reads these straight back into domain types with no
	// postcard encoding involved.
	KindLegacyObject
)

// EventType identifies a resource lifecycle notification.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
)

// Event represents a resource lifecycle event delivered to Observers.
type Event struct {
	Value  any
	Handle Handle
	Kind   Kind
	Type   EventType
}

// Observer receives notifications about resource lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// Dropper is optionally implemented by resource payloads that need cleanup
// (closing a file, releasing a decoded image) when their entry is removed.
type Dropper interface {
	Drop()
}

// Backend provides the underlying storage mechanism for resources.
type Backend interface {
	// Create stores a value under a kind and returns a handle with refcount 1.
	Create(kind Kind, value any) (Handle, error)

	// Get retrieves a value by handle.
	Get(handle Handle) (any, bool)

	// Update replaces the payload of an existing handle in place, preserving
	// its kind, refcount, and creation time. Used to cache the encoded-bytes
	// form of a string so buffer_len and a subsequent read_buffer observe
	// the same bytes.
	Update(handle Handle, value any) bool

	// Kind returns the resource kind for a handle.
	Kind(handle Handle) (Kind, bool)

	// Retain increments the refcount for a handle.
	Retain(handle Handle) bool

	// Release decrements the refcount for a handle, removing and disposing
	// the entry when it reaches zero. Returns whether the handle existed.
	Release(handle Handle) bool

	// ForceRemove deletes an entry unconditionally, ignoring refcount.
	// Returns whether the handle existed.
	ForceRemove(handle Handle) (any, bool)

	// Len returns the number of active resources.
	Len() int

	// Each iterates over all active resources. fn returning false stops
	// iteration early.
	Each(fn func(handle Handle, kind Kind, createdAt int64, refcount uint32, value any) bool)

	// Close releases all resources held by the backend.
	Close() error
}

// Table manages resources with kind information and observer support.
type Table interface {
	Insert(kind Kind, value any) Handle
	Get(handle Handle) (any, bool)
	GetTyped(handle Handle, kind Kind) (any, bool)
	Update(handle Handle, value any) bool
	KindOf(handle Handle) (Kind, bool)
	Retain(handle Handle) bool
	Release(handle Handle) bool
	ForceRemove(handle Handle) (any, bool)
	Destroy(handle Handle) bool
	Subscribe(Observer)
	Unsubscribe(Observer)
	Len() int
	Clear()
	Close() error
	NewScope() *Scope
}
