package abidispatch

import (
	"context"

	"github.com/aidoku-host/wasmhost/domain"
	"github.com/aidoku-host/wasmhost/imports/canvas"
	"github.com/aidoku-host/wasmhost/imports/home"
	"github.com/aidoku-host/wasmhost/internal/logging"
	"github.com/aidoku-host/wasmhost/postcard"
	"github.com/aidoku-host/wasmhost/resource"
)

// decodeOrEmpty runs decode over payload when status is ResultOK, falling
// back to the zero value on any decode failure (§7: a malformed plugin
// payload is logged and turned into an empty result, never an error the
// caller has to handle).
func decodeOrEmpty[T any](status ResultStatus, payload []byte, decode func(*postcard.Reader) (T, error)) T {
	var zero T
	if status != ResultOK || payload == nil {
		return zero
	}
	v, err := decode(postcard.NewReader(payload))
	if err != nil {
		logging.Logger().Sugar().Debugw("abidispatch: decode failed", "error", err)
		return zero
	}
	return v
}

// SearchMangaList calls get_search_manga_list(query_rid_or_-1, page, filters_rid).
func (p *Plugin) SearchMangaList(ctx context.Context, query string, page int32, filters []domain.FilterValue) (domain.MangaListResult, error) {
	scope := p.table.NewScope()
	defer scope.Close()

	queryArg := uint64(uint32(noArg))
	if query != "" {
		h, err := stringArg(scope, query)
		if err != nil {
			return domain.MangaListResult{}, err
		}
		queryArg = uint64(h)
	}
	filtersHandle, err := filtersArg(scope, filters)
	if err != nil {
		return domain.MangaListResult{}, err
	}

	ptr, err := callExportResultPtr(ctx, p.mod, p.sourceID, "get_search_manga_list", queryArg, uint64(uint32(page)), uint64(filtersHandle))
	if err != nil {
		return domain.MangaListResult{}, err
	}
	payload, status := readModernResult(ctx, p.mod, ptr)
	return decodeOrEmpty(status, payload, domain.DecodeMangaListResult), nil
}

// MangaUpdate calls get_manga_update(manga_rid, needs_details, needs_chapters).
func (p *Plugin) MangaUpdate(ctx context.Context, m domain.Manga, needsDetails, needsChapters bool) (domain.Manga, error) {
	scope := p.table.NewScope()
	defer scope.Close()

	h, err := mangaArg(scope, m)
	if err != nil {
		return domain.Manga{}, err
	}

	ptr, err := callExportResultPtr(ctx, p.mod, p.sourceID, "get_manga_update", uint64(h), uint64(boolArg(needsDetails)), uint64(boolArg(needsChapters)))
	if err != nil {
		return domain.Manga{}, err
	}
	payload, status := readModernResult(ctx, p.mod, ptr)
	return decodeOrEmpty(status, payload, domain.DecodeManga), nil
}

// PageList calls get_page_list(manga_rid, chapter_rid).
func (p *Plugin) PageList(ctx context.Context, m domain.Manga, c domain.Chapter) ([]domain.Page, error) {
	scope := p.table.NewScope()
	defer scope.Close()

	mangaH, err := mangaArg(scope, m)
	if err != nil {
		return nil, err
	}
	chapterH, err := chapterArg(scope, c)
	if err != nil {
		return nil, err
	}

	ptr, err := callExportResultPtr(ctx, p.mod, p.sourceID, "get_page_list", uint64(mangaH), uint64(chapterH))
	if err != nil {
		return nil, err
	}
	payload, status := readModernResult(ctx, p.mod, ptr)
	return decodeOrEmpty(status, payload, domain.DecodePageList), nil
}

// Filters calls get_filters().
func (p *Plugin) Filters(ctx context.Context) ([]domain.Filter, error) {
	ptr, err := callExportResultPtr(ctx, p.mod, p.sourceID, "get_filters")
	if err != nil {
		return nil, err
	}
	payload, status := readModernResult(ctx, p.mod, ptr)
	return decodeOrEmpty(status, payload, domain.DecodeFilterList), nil
}

// Listings calls get_listings().
func (p *Plugin) Listings(ctx context.Context) ([]domain.Listing, error) {
	ptr, err := callExportResultPtr(ctx, p.mod, p.sourceID, "get_listings")
	if err != nil {
		return nil, err
	}
	payload, status := readModernResult(ctx, p.mod, ptr)
	return decodeOrEmpty(status, payload, domain.DecodeListingList), nil
}

// MangaList calls get_manga_list(listing_rid, page) — the modern-ABI
// listing page fetch, distinct from legacy's filter-driven export of the
// same name (§4.2's mode detection keys off other exports specifically
// because this name is shared and ambiguous between dialects).
func (p *Plugin) MangaList(ctx context.Context, listing domain.Listing, page int32) (domain.MangaListResult, error) {
	scope := p.table.NewScope()
	defer scope.Close()

	h, err := encodedArg(scope, listing.EncodeRequest)
	if err != nil {
		return domain.MangaListResult{}, err
	}

	ptr, err := callExportResultPtr(ctx, p.mod, p.sourceID, "get_manga_list", uint64(h), uint64(uint32(page)))
	if err != nil {
		return domain.MangaListResult{}, err
	}
	payload, status := readModernResult(ctx, p.mod, ptr)
	return decodeOrEmpty(status, payload, domain.DecodeMangaListResult), nil
}

// Home calls get_home(), installing a fresh home.Accumulator on env.Home for
// the duration of the call so envaidoku's send_partial_result has somewhere
// to report to, and clearing it again on every exit path (§4.10). onPartial
// may be nil. The final decoded layout defers to any partials that arrived,
// per Accumulator.Resolve.
func (p *Plugin) Home(ctx context.Context, onPartial home.OnPartial) (domain.HomeLayout, error) {
	acc := home.New(onPartial)
	p.env.Home = acc
	defer func() { p.env.Home = nil }()

	ptr, err := callExportResultPtr(ctx, p.mod, p.sourceID, "get_home")
	if err != nil {
		return domain.HomeLayout{}, err
	}
	payload, status := readModernResult(ctx, p.mod, ptr)
	final := decodeOrEmpty(status, payload, domain.DecodeHomeLayout)
	return acc.Resolve(final, nil)
}

// ImageRequest calls get_image_request(url_rid, context_rid_or_-1).
func (p *Plugin) ImageRequest(ctx context.Context, url string, requestContext map[string]string) (domain.ImageFetchRequest, error) {
	scope := p.table.NewScope()
	defer scope.Close()

	urlH, err := stringArg(scope, url)
	if err != nil {
		return domain.ImageFetchRequest{}, err
	}

	contextArg := uint64(uint32(noArg))
	if requestContext != nil {
		h, err := encodedArg(scope, func(w *postcard.Writer) { w.StringMap(requestContext) })
		if err != nil {
			return domain.ImageFetchRequest{}, err
		}
		contextArg = uint64(h)
	}

	ptr, err := callExportResultPtr(ctx, p.mod, p.sourceID, "get_image_request", uint64(urlH), contextArg)
	if err != nil {
		return domain.ImageFetchRequest{}, err
	}
	payload, status := readModernResult(ctx, p.mod, ptr)
	return decodeOrEmpty(status, payload, domain.DecodeImageFetchRequest), nil
}

// ProcessPageImage calls process_page_image(response_rid, context_rid_or_-1).
// It returns the PNG encoding of the image rid the plugin hands back, or nil
// with no error when the result is empty or an error status, or when the rid
// does not name a decoded image; a failed call returns an error.
func (p *Plugin) ProcessPageImage(ctx context.Context, resp domain.ImageResponse, requestContext map[string]string) ([]byte, error) {
	scope := p.table.NewScope()
	defer scope.Close()

	respH, err := encodedArg(scope, resp.EncodeRequest)
	if err != nil {
		return nil, err
	}

	contextArg := uint64(uint32(noArg))
	if requestContext != nil {
		h, err := encodedArg(scope, func(w *postcard.Writer) { w.StringMap(requestContext) })
		if err != nil {
			return nil, err
		}
		contextArg = uint64(h)
	}

	ptr, err := callExportResultPtr(ctx, p.mod, p.sourceID, "process_page_image", uint64(respH), contextArg)
	if err != nil {
		return nil, err
	}
	payload, status := readModernResult(ctx, p.mod, ptr)
	if status != ResultOK || payload == nil {
		return nil, nil
	}

	rid, err := postcard.NewReader(payload).Varint32()
	if err != nil {
		logging.Logger().Sugar().Debugw("abidispatch: process_page_image rid decode failed", "error", err)
		return nil, nil
	}

	png, ok := canvas.EncodePNG(p.table, resource.Handle(rid))
	if !ok {
		logging.Logger().Sugar().Debugw("abidispatch: process_page_image rid is not an image resource", "rid", rid)
		return nil, nil
	}
	return png, nil
}

func boolArg(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
