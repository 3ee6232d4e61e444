// Package resource implements the host's unified resource table: the
// process-local, per-plugin mapping from positive 32-bit resource ids
// ("rids", called Handle here) to entries carrying an arbitrary payload, a
// resource kind tag, a reference count, and a creation timestamp.
//
// # Resource lifecycle
//
// Every entry starts at refcount 1 on Insert. Retain/Release adjust the
// count; Release at zero removes the entry and disposes its payload (if it
// implements Dropper). Destroy is the single import-facing entry point
// behind the plugin's unified std.destroy: it drops the entry
// unconditionally regardless of outstanding count, the same way ForceRemove
// does for host-internal scoped cleanup.
//
//	table := resource.NewTable()
//	h := table.Insert(resource.KindValue, myValue)
//	v, ok := table.Get(h)
//	table.Release(h)
//
// # Scopes
//
// A Scope tracks the rids a single host-driven call allocates and releases
// every one of them on Close, success or failure:
//
//	scope := table.NewScope()
//	defer scope.Close()
//	h := scope.Insert(resource.KindValue, arg)
//
// Rids the plugin allocates through imports during the call are not tracked
// by the scope; they are the plugin's own responsibility to destroy, or are
// reclaimed by the Sweeper.
//
// # Sweeper
//
// A periodic Sweeper removes zero-refcount entries older than a configured
// age threshold, removes Request-kind entries older than a separate
// (by default longer) threshold, and additionally trims populations exceeding
// configured caps by evicting the oldest zero-refcount entries first.
package resource
