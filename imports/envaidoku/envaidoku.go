// Package envaidoku implements the two import namespaces that don't fit
// the std/net/html/defaults/canvas/js mould: "env" (abort, print, sleep,
// send_partial_result — §4.10, §6) and the legacy "aidoku" namespace's
// generic object constructors (§4.2 "legacy mode"), used by content
// sources that predate the postcard-encoded modern ABI.
package envaidoku

import (
	"context"
	"fmt"
	"time"

	"github.com/aidoku-host/wasmhost/domain"
	"github.com/aidoku-host/wasmhost/imports/hostenv"
	"github.com/aidoku-host/wasmhost/internal/wire"
	"github.com/aidoku-host/wasmhost/internal/logging"
	"github.com/aidoku-host/wasmhost/postcard"
	"github.com/aidoku-host/wasmhost/resource"
	"github.com/aidoku-host/wasmhost/value"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// Chapter/volume sentinel used by the legacy aidoku.create_chapter
// constructor in place of an optional f32: no number supplied.
const legacyNoNumber float32 = -1

// AbortError is the panic value env.abort raises. It propagates across the
// wazero call boundary as a trap; the dispatcher's top-level Call wrapper
// recovers it and prefixes it with the plugin's source id to produce §6's
// "[source-id] Abort: <msg> at <file>:<line>:<col>" fatal-error format —
// this package has no notion of which plugin is loaded, so it stops short
// of that prefix.
type AbortError struct {
	Message string
	File    string
	Line    int32
	Column  int32
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("Abort: %s at %s:%d:%d", e.Message, e.File, e.Line, e.Column)
}

// Register builds the "env" and "aidoku" host modules.
func Register(ctx context.Context, rt wazero.Runtime, env *hostenv.Env) error {
	if err := wire.Module(ctx, rt, "env", []wire.Func{
		{Name: "abort", Fn: abort(), Params: []api.ValueType{wire.I32, wire.I32, wire.I32, wire.I32}},
		{Name: "print", Fn: printMsg(), Params: []api.ValueType{wire.I32}},
		{Name: "sleep", Fn: sleep(), Params: []api.ValueType{wire.F64}},
		{Name: "send_partial_result", Fn: sendPartialResult(env), Params: []api.ValueType{wire.I32}},
	}); err != nil {
		return err
	}
	return wire.Module(ctx, rt, "aidoku", []wire.Func{
		{Name: "create_manga", Fn: createManga(env), Params: []api.ValueType{
			wire.I32, wire.I32, // key
			wire.I32, wire.I32, // cover
			wire.I32, wire.I32, // title
			wire.I32, wire.I32, // author
			wire.I32, wire.I32, // artist
			wire.I32, wire.I32, // description
			wire.I32, wire.I32, // url
			wire.I32,           // tags_rid
			wire.I32, wire.I32, wire.I32, // status, nsfw, viewer
		}, Results: []api.ValueType{wire.I32}},
		{Name: "create_manga_result", Fn: createMangaResult(env), Params: []api.ValueType{wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "create_chapter", Fn: createChapter(env), Params: []api.ValueType{
			wire.I32, wire.I32, // key
			wire.I32, wire.I32, // title
			wire.F32,           // chapter number (legacyNoNumber if absent)
			wire.F32,           // volume number (legacyNoNumber if absent)
			wire.I64,           // date_upload, 0 if absent
			wire.I32, wire.I32, // scanlator
			wire.I32, wire.I32, // url
			wire.I32, wire.I32, // language
		}, Results: []api.ValueType{wire.I32}},
		{Name: "create_chapter_result", Fn: createChapterResult(env), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "create_page", Fn: createPage(env), Params: []api.ValueType{wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "create_page_result", Fn: createPageResult(env), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
	})
}

// readASString implements §6's AssemblyScript string-length convention: the
// four bytes at ptr-4 are a little-endian length; if reading that many
// bytes at ptr fails (the length is nonsensical), fall back to treating the
// single byte at ptr-4 as the length instead (historical compatibility).
func readASString(mod api.Module, ptr uint32) (string, bool) {
	if ptr < 4 {
		return "", false
	}
	if length, ok := mod.Memory().ReadUint32Le(ptr - 4); ok {
		if b, ok := mod.Memory().Read(ptr, length); ok {
			return string(b), true
		}
	}
	if lengthByte, ok := mod.Memory().ReadByte(ptr - 4); ok {
		if b, ok := mod.Memory().Read(ptr, uint32(lengthByte)); ok {
			return string(b), true
		}
	}
	return "", false
}

func abort() api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		msg, _ := readASString(mod, uint32(stack[0]))
		file, _ := readASString(mod, uint32(stack[1]))
		line := int32(uint32(stack[2]))
		col := int32(uint32(stack[3]))
		panic(&AbortError{Message: msg, File: file, Line: line, Column: col})
	}
}

func printMsg() api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		msg, ok := readASString(mod, uint32(stack[0]))
		if !ok {
			return
		}
		logging.Logger().Sugar().Infow("plugin print", "message", msg)
	}
}

// sleep blocks for the requested duration with time.Sleep. §5 requires synchronous
// semantics from every import but net.send/net.send_all, so this blocks
// the calling goroutine outright rather than yielding cooperatively.
func sleep() api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		seconds := api.DecodeF64(stack[0])
		if seconds <= 0 {
			return
		}
		time.Sleep(time.Duration(seconds * float64(time.Second)))
	}
}

// sendPartialResult decodes one send_partial_result payload and merges it
// into the accumulator the dispatcher installed for the in-flight get_home
// call (§4.10). Called outside of a home call — env.Home is nil — this is
// a no-op, since there is nowhere for the partial to go.
func sendPartialResult(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		if env.Home == nil {
			return
		}
		buf, ok := wire.ReadResultBuffer(mod, uint32(stack[0]))
		if !ok || len(buf) == 0 {
			return
		}
		pr, err := domain.DecodePartialResult(postcard.NewReader(buf))
		if err != nil {
			logging.Logger().Sugar().Debugw("send_partial_result: decode failed", "error", err)
			return
		}
		env.Home.Merge(pr)
	}
}

func optString(mod api.Module, ptr, length uint32) *string {
	s, ok := wire.ReadString(mod, ptr, length)
	if !ok || s == "" {
		return nil
	}
	return &s
}

// stringsFromHandleArray resolves a rid referring to a KindValue Array
// (each element itself a KindValue string) into a plain []string, the
// shape a legacy aidoku.create_manga's tags_rid argument carries.
func stringsFromHandleArray(env *hostenv.Env, rid resource.Handle) []string {
	raw, ok := env.Table.GetTyped(rid, resource.KindValue)
	if !ok {
		return nil
	}
	v, ok := raw.(value.Value)
	if !ok || v.Kind != value.KindArray {
		return nil
	}
	out := make([]string, 0, len(v.Array))
	for _, h := range v.Array {
		elemRaw, ok := env.Table.GetTyped(h, resource.KindValue)
		if !ok {
			continue
		}
		if elem, ok := elemRaw.(value.Value); ok && elem.Kind == value.KindString {
			out = append(out, elem.Str)
		}
	}
	return out
}

func createManga(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		key, _ := wire.ReadString(mod, uint32(stack[0]), uint32(stack[1]))
		cover := optString(mod, uint32(stack[2]), uint32(stack[3]))
		title, _ := wire.ReadString(mod, uint32(stack[4]), uint32(stack[5]))
		author := optString(mod, uint32(stack[6]), uint32(stack[7]))
		artist := optString(mod, uint32(stack[8]), uint32(stack[9]))
		description := optString(mod, uint32(stack[10]), uint32(stack[11]))
		url := optString(mod, uint32(stack[12]), uint32(stack[13]))
		tagsRid := resource.Handle(uint32(stack[14]))
		status := domain.Status(uint32(stack[15]))
		nsfw := domain.ContentRating(uint32(stack[16]))
		viewer := domain.Viewer(uint32(stack[17]))

		m := domain.Manga{
			Key:           key,
			Title:         title,
			Cover:         cover,
			Description:   description,
			URL:           url,
			Status:        status,
			ContentRating: nsfw,
			Viewer:        viewer,
		}
		if author != nil {
			m.Authors = []string{*author}
		}
		if artist != nil {
			m.Artists = []string{*artist}
		}
		if tags := stringsFromHandleArray(env, tagsRid); len(tags) > 0 {
			m.Tags = tags
		}
		handle := env.Table.Insert(resource.KindLegacyObject, m)
		stack[0] = uint64(handle)
	}
}

func createMangaResult(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		arrayRid := resource.Handle(uint32(stack[0]))
		hasMore := uint32(stack[1]) != 0

		raw, ok := env.Table.GetTyped(arrayRid, resource.KindValue)
		var entries []domain.Manga
		if ok {
			if v, ok := raw.(value.Value); ok && v.Kind == value.KindArray {
				entries = make([]domain.Manga, 0, len(v.Array))
				for _, h := range v.Array {
					if mangaRaw, ok := env.Table.GetTyped(h, resource.KindLegacyObject); ok {
						if m, ok := mangaRaw.(domain.Manga); ok {
							entries = append(entries, m)
						}
					}
				}
			}
		}
		handle := env.Table.Insert(resource.KindLegacyObject, domain.MangaListResult{Entries: entries, HasNextPage: hasMore})
		stack[0] = uint64(handle)
	}
}

func createChapter(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		key, _ := wire.ReadString(mod, uint32(stack[0]), uint32(stack[1]))
		title := optString(mod, uint32(stack[2]), uint32(stack[3]))
		chapterNum := api.DecodeF32(stack[4])
		volumeNum := api.DecodeF32(stack[5])
		dateUpload := int64(stack[6])
		scanlator := optString(mod, uint32(stack[7]), uint32(stack[8]))
		url := optString(mod, uint32(stack[9]), uint32(stack[10]))
		language := optString(mod, uint32(stack[11]), uint32(stack[12]))

		c := domain.Chapter{Key: key, Title: title, URL: url, Language: language}
		if chapterNum != legacyNoNumber {
			v := chapterNum
			c.Chapter = &v
		}
		if volumeNum != legacyNoNumber {
			v := volumeNum
			c.Volume = &v
		}
		if dateUpload != 0 {
			v := dateUpload
			c.DateUpload = &v
		}
		if scanlator != nil {
			c.Scanlators = []string{*scanlator}
		}
		handle := env.Table.Insert(resource.KindLegacyObject, c)
		stack[0] = uint64(handle)
	}
}

func createChapterResult(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		arrayRid := resource.Handle(uint32(stack[0]))
		raw, ok := env.Table.GetTyped(arrayRid, resource.KindValue)
		var chapters []domain.Chapter
		if ok {
			if v, ok := raw.(value.Value); ok && v.Kind == value.KindArray {
				chapters = make([]domain.Chapter, 0, len(v.Array))
				for _, h := range v.Array {
					if chRaw, ok := env.Table.GetTyped(h, resource.KindLegacyObject); ok {
						if c, ok := chRaw.(domain.Chapter); ok {
							chapters = append(chapters, c)
						}
					}
				}
			}
		}
		handle := env.Table.Insert(resource.KindLegacyObject, chapters)
		stack[0] = uint64(handle)
	}
}

func createPage(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		// index (stack[0]) is positional only — DecodePageList order already
		// reflects it, so legacy callers' explicit index is accepted and
		// discarded, matching how the modern Page decoder has no index field.
		imageURL, _ := wire.ReadString(mod, uint32(stack[1]), uint32(stack[2]))
		p := domain.Page{Variant: domain.PageVariantURL, URL: imageURL}
		handle := env.Table.Insert(resource.KindLegacyObject, p)
		stack[0] = uint64(handle)
	}
}

func createPageResult(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		arrayRid := resource.Handle(uint32(stack[0]))
		raw, ok := env.Table.GetTyped(arrayRid, resource.KindValue)
		var pages []domain.Page
		if ok {
			if v, ok := raw.(value.Value); ok && v.Kind == value.KindArray {
				pages = make([]domain.Page, 0, len(v.Array))
				for _, h := range v.Array {
					if pRaw, ok := env.Table.GetTyped(h, resource.KindLegacyObject); ok {
						if p, ok := pRaw.(domain.Page); ok {
							pages = append(pages, p)
						}
					}
				}
			}
		}
		handle := env.Table.Insert(resource.KindLegacyObject, pages)
		stack[0] = uint64(handle)
	}
}
