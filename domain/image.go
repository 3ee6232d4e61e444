package domain

import "github.com/aidoku-host/wasmhost/postcard"

// ImageFetchRequest is the wire shape get_image_request's result pointer
// decodes to: a plugin-customised request the host should issue before
// handing the bytes back to process_page_image (§6 row: "default image
// request" is the DecodeImageFetchRequest fallback on a decode failure).
// No formal field list is fixed by the ABI beyond the ImageResponse row's
// headers shape, so this mirrors that: a URL plus a bare header map,
// optional method (defaults to GET when absent).
type ImageFetchRequest struct {
	URL     string
	Method  string // empty means GET
	Headers map[string]string
}

// DecodeImageFetchRequest reads a string URL, an option<string> method, and
// an option<map<string,string>> headers.
func DecodeImageFetchRequest(r *postcard.Reader) (ImageFetchRequest, error) {
	var req ImageFetchRequest
	var err error
	if req.URL, err = r.String(); err != nil {
		return req, err
	}
	method, err := r.OptionString()
	if err != nil {
		return req, err
	}
	if method != nil {
		req.Method = *method
	}
	some, err := r.OptionTag()
	if err != nil {
		return req, err
	}
	if some {
		if req.Headers, err = r.StringMap(); err != nil {
			return req, err
		}
	}
	return req, nil
}

// ImageResponse is the wire shape the host encodes to hand a fetched image
// and its request context to process_page_image (§6): response code,
// response headers, the option<request URL> and request headers that
// produced it, and the zigzag-varint rid of the decoded image already
// materialised on the canvas side.
type ImageResponse struct {
	Code           uint16
	Headers        map[string]string
	RequestURL     *string
	RequestHeaders map[string]string
	ImageRid       int32
}

// EncodeRequest writes an ImageResponse in the order §6 fixes: u16 code,
// map headers, option<string> requestUrl, map requestHeaders, zigzag-varint
// i32 imageRid.
func (resp ImageResponse) EncodeRequest(w *postcard.Writer) {
	w.Uvarint(uint64(resp.Code))
	w.StringMap(resp.Headers)
	w.OptionString(resp.RequestURL)
	w.StringMap(resp.RequestHeaders)
	w.Varint32(resp.ImageRid)
}
