package domain

import (
	"fmt"

	"github.com/aidoku-host/wasmhost/postcard"
)

// PageVariant is the tagged-union discriminant for Page (§4.3): variant
// orderings are fixed by the ABI and must never be re-ordered.
type PageVariant uint8

const (
	PageVariantURL PageVariant = iota
	PageVariantText
	PageVariantZip
)

// Page is one image (or text, or zip-archive entry) in a Chapter's page
// list.
type Page struct {
	Variant        PageVariant
	URL            string
	Context        map[string]string // set only for PageVariantURL
	Text           string            // set only for PageVariantText
	ArchiveURL     string            // set only for PageVariantZip
	FilePath       string            // set only for PageVariantZip
	Thumbnail      *string
	HasDescription bool
	Description    *string
}

// DecodePage reads a single Page: a variant tag, the variant's payload,
// then option<thumbnail>, bool has-description, option<description>.
func DecodePage(r *postcard.Reader) (Page, error) {
	var p Page

	tag, err := r.Uvarint()
	if err != nil {
		return p, err
	}
	p.Variant = PageVariant(tag)

	switch p.Variant {
	case PageVariantURL:
		if p.URL, err = r.String(); err != nil {
			return p, err
		}
		some, err := r.OptionTag()
		if err != nil {
			return p, err
		}
		if some {
			if p.Context, err = r.StringMap(); err != nil {
				return p, err
			}
		}
	case PageVariantText:
		if p.Text, err = r.String(); err != nil {
			return p, err
		}
	case PageVariantZip:
		if p.ArchiveURL, err = r.String(); err != nil {
			return p, err
		}
		if p.FilePath, err = r.String(); err != nil {
			return p, err
		}
	default:
		return p, fmt.Errorf("domain: unknown Page variant tag %d", tag)
	}

	if p.Thumbnail, err = r.OptionString(); err != nil {
		return p, err
	}
	if p.HasDescription, err = r.Bool(); err != nil {
		return p, err
	}
	if p.Description, err = r.OptionString(); err != nil {
		return p, err
	}
	return p, nil
}

// DecodePageList decodes vec<Page>.
func DecodePageList(r *postcard.Reader) ([]Page, error) {
	n, err := r.VecLen()
	if err != nil {
		return nil, err
	}
	out := make([]Page, 0, n)
	for i := 0; i < n; i++ {
		p, err := DecodePage(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// EncodeRequest writes a Page in the same shape DecodePage reads, used when
// a plugin-echo fixture or a host-constructed Page must be re-serialised
// (e.g. tests).
func (p Page) EncodeRequest(w *postcard.Writer) {
	w.Uvarint(uint64(p.Variant))
	switch p.Variant {
	case PageVariantURL:
		w.String(p.URL)
		if p.Context == nil {
			w.OptionNone()
		} else {
			w.OptionSome()
			w.StringMap(p.Context)
		}
	case PageVariantText:
		w.String(p.Text)
	case PageVariantZip:
		w.String(p.ArchiveURL)
		w.String(p.FilePath)
	}
	w.OptionString(p.Thumbnail)
	w.Bool(p.HasDescription)
	w.OptionString(p.Description)
}
