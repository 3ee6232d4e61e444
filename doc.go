// Package wasmhost is the embedding layer for running sandboxed content-source
// plugins packaged as WebAssembly modules.
//
// A plugin is a plain core WASM module (not a Component Model binary) exposing
// a fixed set of entry points (search, details, chapter list, page list,
// filters, home layout, image request modification, image post-processing).
// The host supplies a set of imported capability namespaces the plugin calls
// back into, drives the plugin's exports, and decodes postcard-serialised
// byte payloads returned from the plugin into host-side domain values.
//
// # Architecture Overview
//
//	wasmhost/              Root package: Memory contract, HttpBridge, SettingsGetter/Setter
//	├── resource/          Resource table: typed payloads, refcounting, scopes, sweeper
//	├── hosterr/           Structured Phase/Kind errors
//	├── postcard/          Wire codec: varint/zigzag/strings/options/vecs/maps/tagged unions
//	├── domain/            Manga/Chapter/Page/FilterValue/HomeLayout/Listing
//	├── abidispatch/       Dual-ABI (legacy/modern) dispatcher and plugin loader
//	├── imports/std        Value table ops, buffer len/read, destroy, date parsing
//	├── imports/net        Request lifecycle, synchronous send, cookie jar
//	├── imports/html       CSS selection/traversal over parsed documents
//	├── imports/json       Byte buffer to generic value
//	├── imports/defaults   Settings get/set
//	├── imports/envaidoku  abort/print/partial-result, legacy object constructors
//	├── imports/canvas     2D context, image decode/compose/encode, text
//	├── imports/js         Sandboxed expression evaluator (goja)
//	├── imports/home       Partial home-layout accumulator
//	├── internal/logging   zap logger singleton
//	└── cmd/plugintool     Developer CLI for driving a plugin directly
//
// # Quick start
//
//	host, err := wasmhost.New(ctx, wasmhost.Config{
//	    Bridge:         myBridge,
//	    SettingsGetter: mySettings,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer host.Close(ctx)
//
//	plugin, err := host.LoadPlugin(ctx, wasmBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer plugin.Close(ctx)
//
//	result, err := plugin.SearchMangaList(ctx, "query", 1, nil)
//
// # Thread safety
//
// A Host (wazero runtime wrapper) is safe for concurrent use when loading
// independent Plugin instances. A single Plugin instance is NOT safe to call
// from two goroutines concurrently — it is single-threaded cooperative: one
// exported call is in flight at a time.
//
// # Memory model
//
// WASM linear memory can only grow, never shrink. Plugin-allocated
// descriptors not explicitly destroyed accumulate until the age-based
// sweeper (resource.Sweeper) reclaims them.
package wasmhost
