package domain

import "github.com/aidoku-host/wasmhost/postcard"

// Listing is a named, orderable manga list a plugin exposes (e.g. "Latest",
// "Popular"). Kind distinguishes a plain listing from one whose entries the
// plugin pages through get_manga_list.
type Listing struct {
	ID   string
	Name string
	Kind ListingKind
}

// DecodeListing reads a single Listing: id, name, kind:u8.
func DecodeListing(r *postcard.Reader) (Listing, error) {
	var l Listing
	var err error

	if l.ID, err = r.String(); err != nil {
		return l, err
	}
	if l.Name, err = r.String(); err != nil {
		return l, err
	}
	kind, err := r.U8()
	if err != nil {
		return l, err
	}
	l.Kind = ListingKind(kind)
	return l, nil
}

// EncodeRequest writes a Listing in the same shape DecodeListing reads, the
// shape get_manga_list's listing_rid argument carries back to the plugin.
func (l Listing) EncodeRequest(w *postcard.Writer) {
	w.String(l.ID)
	w.String(l.Name)
	w.U8(uint8(l.Kind))
}

// DecodeListingList decodes vec<Listing>, the shape get_listings returns.
func DecodeListingList(r *postcard.Reader) ([]Listing, error) {
	n, err := r.VecLen()
	if err != nil {
		return nil, err
	}
	out := make([]Listing, 0, n)
	for i := 0; i < n; i++ {
		l, err := DecodeListing(r)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}
