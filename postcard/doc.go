// Package postcard implements the wire format used across the plugin ABI:
// little-endian primitives, unsigned LEB128 varints for lengths and u32
// tags, zigzag+LEB128 for signed integers, direct IEEE-754 little-endian
// floats, strings as (varint length, utf-8 bytes), vecs as (varint length,
// elements), maps as (varint length, (key, value) pairs), and options as a
// tag byte in {0, 1} (0 = None) followed by the inner value when present.
//
// Tagged unions (Page, Filter, FilterValue, HomeComponentValue, ...)
// are encoded as a single leading varint variant index followed by the
// variant's payload; the variant orderings are fixed by the ABI (see
// package domain) and must never be re-ordered.
//
// The codec is pure and stateless: Reader and Writer operate over an
// in-memory []byte and never allocate a resource-table entry themselves.
// Malformed input surfaces as an error from the Reader; decoding code at
// the ABI boundary is responsible for turning that into an empty result
// rather than letting it escape to the plugin-visible surface (see
// hosterr and abidispatch).
package postcard
