package abidispatch

import (
	"github.com/aidoku-host/wasmhost/domain"
	"github.com/aidoku-host/wasmhost/postcard"
	"github.com/aidoku-host/wasmhost/resource"
	"github.com/aidoku-host/wasmhost/value"
)

// noArg is the -1 sentinel the modern ABI uses for an absent descriptor
// argument (e.g. get_search_manga_list's query_rid_or_-1).
const noArg int32 = -1

// stringArg allocates a scoped descriptor for a plain string argument.
func stringArg(scope *resource.Scope, s string) (resource.Handle, error) {
	return scope.Insert(resource.KindValue, value.Str(s))
}

// encodedArg postcard-encodes via encode and stores the raw bytes as a
// scoped descriptor — the shape every non-string modern-ABI argument
// (filters, Manga, Chapter request echoes) takes, per §4.2's "encoded
// arguments" description.
func encodedArg(scope *resource.Scope, encode func(w *postcard.Writer)) (resource.Handle, error) {
	w := postcard.NewWriter()
	encode(w)
	return scope.Insert(resource.KindValue, value.Raw(w.Bytes()))
}

// filtersArg encodes vec<FilterValue>, the shape a search/listing call's
// filters_rid argument carries.
func filtersArg(scope *resource.Scope, filters []domain.FilterValue) (resource.Handle, error) {
	return encodedArg(scope, func(w *postcard.Writer) {
		w.VecLen(len(filters))
		for _, f := range filters {
			f.EncodeRequest(w)
		}
	})
}

func mangaArg(scope *resource.Scope, m domain.Manga) (resource.Handle, error) {
	return encodedArg(scope, m.EncodeRequest)
}

func chapterArg(scope *resource.Scope, c domain.Chapter) (resource.Handle, error) {
	return encodedArg(scope, c.EncodeRequest)
}
