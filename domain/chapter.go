package domain

import "github.com/aidoku-host/wasmhost/postcard"

// Chapter is a single entry in a Manga's chapter list.
type Chapter struct {
	Key         string
	Title       *string
	Chapter     *float32
	Volume      *float32
	DateUpload  *int64
	Scanlators  []string
	URL         *string
	Language    *string
	Thumbnail   *string
	Locked      bool
}

// EncodeRequest writes the to-plugin wire shape of Chapter (§6): key,
// option<title>, option<f32 chapter>, option<f32 volume>, option<i64 date>,
// option<vec<scanlators>>, option<url>, option<lang>, option<thumbnail> =
// None, bool locked = false.
func (c Chapter) EncodeRequest(w *postcard.Writer) {
	w.String(c.Key)
	w.OptionString(c.Title)
	w.OptionF32(c.Chapter)
	w.OptionF32(c.Volume)
	w.OptionI64(c.DateUpload)
	w.OptionStringSlice(c.Scanlators)
	w.OptionString(c.URL)
	w.OptionString(c.Language)
	w.OptionNone() // thumbnail, always None on requests
	w.Bool(false)  // locked, always false on requests
}

// DecodeChapter reads a Chapter value in the same field order as
// EncodeRequest, except thumbnail/locked may legitimately carry values —
// used when interpreting a Chapter the plugin returned.
func DecodeChapter(r *postcard.Reader) (Chapter, error) {
	var c Chapter
	var err error

	if c.Key, err = r.String(); err != nil {
		return c, err
	}
	if c.Title, err = r.OptionString(); err != nil {
		return c, err
	}
	if c.Chapter, err = r.OptionF32(); err != nil {
		return c, err
	}
	if c.Volume, err = r.OptionF32(); err != nil {
		return c, err
	}
	if c.DateUpload, err = r.OptionI64(); err != nil {
		return c, err
	}
	if c.Scanlators, err = r.OptionStringSlice(); err != nil {
		return c, err
	}
	if c.URL, err = r.OptionString(); err != nil {
		return c, err
	}
	if c.Language, err = r.OptionString(); err != nil {
		return c, err
	}
	if c.Thumbnail, err = r.OptionString(); err != nil {
		return c, err
	}
	if c.Locked, err = r.Bool(); err != nil {
		return c, err
	}
	return c, nil
}

// DecodeChapterList decodes vec<Chapter>, keeping the wire order.
func DecodeChapterList(r *postcard.Reader) ([]Chapter, error) {
	n, err := r.VecLen()
	if err != nil {
		return nil, err
	}
	out := make([]Chapter, 0, n)
	for i := 0; i < n; i++ {
		c, err := DecodeChapter(r)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
