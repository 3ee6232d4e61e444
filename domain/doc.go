// Package domain holds the logical entities exchanged across the plugin
// ABI — Manga, Chapter, Page, Filter/FilterValue, HomeLayout, Listing — and
// their postcard encoders/decoders.
//
// Each entity's wire shape and tagged-union variant ordering is fixed by the
// ABI and must never be re-ordered; see the per-file comments for the exact
// field sequence. Encoding is used to build arguments passed to a plugin
// export; decoding is used to interpret the bytes a plugin export returns.
package domain
