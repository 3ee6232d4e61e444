package domain

import "github.com/aidoku-host/wasmhost/postcard"

// Manga is the host-side representation of a content source's catalog
// entry.
type Manga struct {
	Key           string
	Title         string
	Cover         *string
	Authors       []string
	Artists       []string
	Description   *string
	URL           *string
	Tags          []string
	Status        Status
	ContentRating ContentRating
	Viewer        Viewer
	NextUpdate    *int64
	Chapters      []Chapter
}

// updateStrategy is always 0 (host does not yet distinguish strategies);
// kept as a named constant so the wire writer documents the field instead
// of embedding a bare literal.
const updateStrategyDefault = 0

// EncodeRequest writes the to-plugin wire shape of Manga (§6): key, title,
// option<cover>, option<vec<authors>>, option<vec<artists>>,
// option<description>, option<url>, option<vec<tags>>, status:u8,
// contentRating:u8, viewer:u8, updateStrategy:u8 = 0, option<nextUpdate> =
// None, option<chapters> = None. The two trailing options are always None
// when building a request argument — only a decoded result may carry them.
func (m Manga) EncodeRequest(w *postcard.Writer) {
	w.String(m.Key)
	w.String(m.Title)
	w.OptionString(m.Cover)
	w.OptionStringSlice(m.Authors)
	w.OptionStringSlice(m.Artists)
	w.OptionString(m.Description)
	w.OptionString(m.URL)
	w.OptionStringSlice(m.Tags)
	w.U8(uint8(m.Status))
	w.U8(uint8(m.ContentRating))
	w.U8(uint8(m.Viewer))
	w.U8(updateStrategyDefault)
	w.OptionNone() // nextUpdate
	w.OptionNone() // chapters
}

// DecodeManga reads a Manga value in the same field order EncodeRequest
// writes, except the two trailing options may legitimately carry values —
// used when interpreting a Manga the plugin returned (search results,
// get_manga_update).
func DecodeManga(r *postcard.Reader) (Manga, error) {
	var m Manga
	var err error

	if m.Key, err = r.String(); err != nil {
		return m, err
	}
	if m.Title, err = r.String(); err != nil {
		return m, err
	}
	if m.Cover, err = r.OptionString(); err != nil {
		return m, err
	}
	if m.Authors, err = r.OptionStringSlice(); err != nil {
		return m, err
	}
	if m.Artists, err = r.OptionStringSlice(); err != nil {
		return m, err
	}
	if m.Description, err = r.OptionString(); err != nil {
		return m, err
	}
	if m.URL, err = r.OptionString(); err != nil {
		return m, err
	}
	if m.Tags, err = r.OptionStringSlice(); err != nil {
		return m, err
	}
	status, err := r.U8()
	if err != nil {
		return m, err
	}
	m.Status = Status(status)

	rating, err := r.U8()
	if err != nil {
		return m, err
	}
	m.ContentRating = ContentRating(rating)

	viewer, err := r.U8()
	if err != nil {
		return m, err
	}
	m.Viewer = Viewer(viewer)

	if _, err = r.U8(); err != nil { // updateStrategy, unused by the host
		return m, err
	}
	if m.NextUpdate, err = r.OptionI64(); err != nil {
		return m, err
	}

	hasChapters, err := r.OptionTag()
	if err != nil {
		return m, err
	}
	if hasChapters {
		n, err := r.VecLen()
		if err != nil {
			return m, err
		}
		m.Chapters = make([]Chapter, 0, n)
		for i := 0; i < n; i++ {
			ch, err := DecodeChapter(r)
			if err != nil {
				return m, err
			}
			m.Chapters = append(m.Chapters, ch)
		}
	}

	return m, nil
}

// MangaListResult is the decoded shape of get_search_manga_list /
// get_manga_list: an entry page plus a has-next-page flag.
type MangaListResult struct {
	Entries     []Manga
	HasNextPage bool
}

// DecodeMangaListResult decodes vec<Manga> followed by a bool.
func DecodeMangaListResult(r *postcard.Reader) (MangaListResult, error) {
	var out MangaListResult
	n, err := r.VecLen()
	if err != nil {
		return out, err
	}
	out.Entries = make([]Manga, 0, n)
	for i := 0; i < n; i++ {
		m, err := DecodeManga(r)
		if err != nil {
			return out, err
		}
		out.Entries = append(out.Entries, m)
	}
	if out.HasNextPage, err = r.Bool(); err != nil {
		return out, err
	}
	return out, nil
}
