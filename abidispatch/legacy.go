package abidispatch

import (
	"context"

	"github.com/aidoku-host/wasmhost/domain"
	"github.com/aidoku-host/wasmhost/hosterr"
	"github.com/aidoku-host/wasmhost/resource"
	"github.com/tetratelabs/wazero/api"
)

// Legacy-mode arguments and results are generic object rids stored under
// resource.KindLegacyObject rather than postcard-encoded blobs (§4.2
// "Legacy mode"): the host inserts a domain value directly and passes the
// resulting rid, and a legacy export's returned rid is read back the same
// way instead of through the result-pointer convention.

func legacyArg(scope *resource.Scope, v any) (resource.Handle, error) {
	return scope.Insert(resource.KindLegacyObject, v)
}

func legacyResult[T any](table resource.Table, rid resource.Handle) T {
	var zero T
	raw, ok := table.GetTyped(rid, resource.KindLegacyObject)
	if !ok {
		return zero
	}
	v, ok := raw.(T)
	if !ok {
		return zero
	}
	return v
}

// LegacyMangaList calls the legacy get_manga_list(filter_rid, page) → rid
// export, decoding the returned rid as a domain.MangaListResult. Named
// distinctly from the modern-ABI MangaList since the two share an export
// name but take different argument shapes (§4.2's mode detection exists
// precisely because this name is ambiguous between dialects).
func (p *Plugin) LegacyMangaList(ctx context.Context, filters []domain.FilterValue, page int32) (domain.MangaListResult, error) {
	scope := p.table.NewScope()
	defer scope.Close()

	filterRid, err := legacyArg(scope, filters)
	if err != nil {
		return domain.MangaListResult{}, err
	}

	resultRid, err := callExportRid(ctx, p.mod, p.sourceID, "get_manga_list", uint64(filterRid), uint64(uint32(page)))
	if err != nil {
		return domain.MangaListResult{}, err
	}
	return legacyResult[domain.MangaListResult](p.table, resultRid), nil
}

// MangaDetails calls the legacy get_manga_details(manga_rid) → rid export.
func (p *Plugin) MangaDetails(ctx context.Context, m domain.Manga) (domain.Manga, error) {
	scope := p.table.NewScope()
	defer scope.Close()

	mangaRid, err := legacyArg(scope, m)
	if err != nil {
		return domain.Manga{}, err
	}

	resultRid, err := callExportRid(ctx, p.mod, p.sourceID, "get_manga_details", uint64(mangaRid))
	if err != nil {
		return domain.Manga{}, err
	}
	return legacyResult[domain.Manga](p.table, resultRid), nil
}

// ChapterList calls the legacy get_chapter_list(manga_rid) → rid export.
func (p *Plugin) ChapterList(ctx context.Context, m domain.Manga) ([]domain.Chapter, error) {
	scope := p.table.NewScope()
	defer scope.Close()

	mangaRid, err := legacyArg(scope, m)
	if err != nil {
		return nil, err
	}

	resultRid, err := callExportRid(ctx, p.mod, p.sourceID, "get_chapter_list", uint64(mangaRid))
	if err != nil {
		return nil, err
	}
	return legacyResult[[]domain.Chapter](p.table, resultRid), nil
}

// LegacyPageList calls the legacy get_page_list(chapter_rid) → rid export.
// Named distinctly from the modern-ABI PageList since the two take
// different argument shapes and a Plugin only ever exposes one of them for
// a given Mode.
func (p *Plugin) LegacyPageList(ctx context.Context, c domain.Chapter) ([]domain.Page, error) {
	scope := p.table.NewScope()
	defer scope.Close()

	chapterRid, err := legacyArg(scope, c)
	if err != nil {
		return nil, err
	}

	resultRid, err := callExportRid(ctx, p.mod, p.sourceID, "get_page_list", uint64(chapterRid))
	if err != nil {
		return nil, err
	}
	return legacyResult[[]domain.Page](p.table, resultRid), nil
}

// ModifyImageRequest calls the legacy modify_image_request(request_rid)
// export. The export returns nothing; a plugin that wants to change the
// request mutates it through the same field-setter imports it uses for any
// other legacy object, so the host re-reads the same rid afterward rather
// than relying on a second return value the ABI doesn't have.
func (p *Plugin) ModifyImageRequest(ctx context.Context, req domain.ImageFetchRequest) (domain.ImageFetchRequest, error) {
	requestRid := p.table.Insert(resource.KindLegacyObject, req)
	defer p.table.ForceRemove(requestRid)

	if _, err := callExport(ctx, p.mod, p.sourceID, "modify_image_request", uint64(requestRid)); err != nil {
		return req, err
	}
	return legacyResult[domain.ImageFetchRequest](p.table, requestRid), nil
}

// callExportRid is callExport for the legacy-ABI shape: a single i32 result
// interpreted as a plain resource handle rather than a result pointer.
func callExportRid(ctx context.Context, mod api.Module, sourceID, name string, args ...uint64) (resource.Handle, error) {
	results, err := callExport(ctx, mod, sourceID, name, args...)
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, hosterr.InvalidInput(hosterr.PhaseDispatch, "export %q returned no value", name)
	}
	return resource.Handle(uint32(results[0])), nil
}
