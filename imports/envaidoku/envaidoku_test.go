package envaidoku

import (
	"context"
	"testing"

	"github.com/aidoku-host/wasmhost/domain"
	"github.com/aidoku-host/wasmhost/imports/home"
	"github.com/aidoku-host/wasmhost/imports/hostenv"
	"github.com/aidoku-host/wasmhost/postcard"
	"github.com/aidoku-host/wasmhost/resource"
	"github.com/aidoku-host/wasmhost/value"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental/wazerotest"
)

func newTestEnv() (*hostenv.Env, *wazerotest.Module) {
	tbl := resource.NewTable()
	env := hostenv.New(tbl, nil, hostenv.SettingsPair{}, nil)
	mod := wazerotest.NewModule(wazerotest.NewMemory(65536))
	return env, mod
}

func strPtr(s string) *string { return &s }

func writeResultBuffer(t *testing.T, mod *wazerotest.Module, ptr uint32, payload []byte) {
	t.Helper()
	header := make([]byte, 8+len(payload))
	total := uint32(8 + len(payload))
	header[0] = byte(total)
	header[1] = byte(total >> 8)
	header[2] = byte(total >> 16)
	header[3] = byte(total >> 24)
	copy(header[8:], payload)
	if !mod.Memory().Write(ptr, header) {
		t.Fatal("failed to seed result buffer")
	}
}

func TestAbortPanicsWithAbortError(t *testing.T) {
	env, mod := newTestEnv()
	_ = env
	ctx := context.Background()

	msg := "boom"
	file := "source.ts"
	// AS convention: 4-byte LE length at ptr-4, bytes at ptr.
	mod.Memory().WriteUint32Le(96, uint32(len(msg)))
	mod.Memory().Write(100, []byte(msg))
	mod.Memory().WriteUint32Le(196, uint32(len(file)))
	mod.Memory().Write(200, []byte(file))

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("abort did not panic")
		}
		abortErr, ok := r.(*AbortError)
		if !ok {
			t.Fatalf("panic value = %T, want *AbortError", r)
		}
		if abortErr.Message != msg || abortErr.File != file || abortErr.Line != 12 || abortErr.Column != 3 {
			t.Fatalf("abort error = %+v", abortErr)
		}
	}()

	stack := []uint64{100, 200, 12, 3}
	abort()(ctx, mod, stack)
}

func TestSendPartialResultMergesComponent(t *testing.T) {
	env, mod := newTestEnv()
	ctx := context.Background()

	var captured []domain.HomeLayout
	env.Home = home.New(func(l domain.HomeLayout) { captured = append(captured, l) })

	w := postcard.NewWriter()
	w.Uvarint(uint64(domain.PartialResultComponent))
	domain.HomeComponent{Title: strPtr("Trending"), Variant: domain.HomeComponentScroller}.EncodeRequest(w)
	writeResultBuffer(t, mod, 16, w.Bytes())

	stack := []uint64{16}
	sendPartialResult(env)(ctx, mod, stack)

	if env.Home.Empty() {
		t.Fatal("accumulator is empty after send_partial_result")
	}
	layout := env.Home.Layout()
	if len(layout.Components) != 1 || *layout.Components[0].Title != "Trending" {
		t.Fatalf("layout after merge = %+v", layout)
	}
	if len(captured) != 1 {
		t.Fatalf("onPartial invoked %d times, want 1", len(captured))
	}
}

func TestSendPartialResultNoopWithoutHome(t *testing.T) {
	env, mod := newTestEnv()
	ctx := context.Background()
	env.Home = nil

	w := postcard.NewWriter()
	w.Uvarint(uint64(domain.PartialResultComponent))
	domain.HomeComponent{Variant: domain.HomeComponentScroller}.EncodeRequest(w)
	writeResultBuffer(t, mod, 0, w.Bytes())

	stack := []uint64{0}
	sendPartialResult(env)(ctx, mod, stack)
}

func TestSleepZeroReturnsImmediately(t *testing.T) {
	_, mod := newTestEnv()
	ctx := context.Background()
	stack := []uint64{api.EncodeF64(0)}
	sleep()(ctx, mod, stack)
}

func TestCreateMangaAndResult(t *testing.T) {
	env, mod := newTestEnv()
	ctx := context.Background()

	key := "manga-1"
	title := "Chainsaw Man"
	mod.Memory().Write(0, []byte(key))
	mod.Memory().Write(50, []byte(title))

	tag1 := env.Table.Insert(resource.KindValue, value.Str("action"))
	tag2 := env.Table.Insert(resource.KindValue, value.Str("horror"))
	tagsArray := env.Table.Insert(resource.KindValue, value.Value{Kind: value.KindArray, Array: []resource.Handle{tag1, tag2}})

	stack := []uint64{
		0, uint64(len(key)), // key
		0, 0, // cover (absent)
		50, uint64(len(title)), // title
		0, 0, // author (absent)
		0, 0, // artist (absent)
		0, 0, // description (absent)
		0, 0, // url (absent)
		uint64(tagsArray),                                                             // tags_rid
		uint64(domain.StatusOngoing), uint64(domain.ContentRatingSafe), uint64(domain.ViewerRightToLeft), // status, nsfw, viewer
	}
	createManga(env)(ctx, mod, stack)
	mangaHandle := resource.Handle(uint32(stack[0]))

	raw, ok := env.Table.GetTyped(mangaHandle, resource.KindLegacyObject)
	if !ok {
		t.Fatal("create_manga did not store a KindLegacyObject entry")
	}
	m, ok := raw.(domain.Manga)
	if !ok {
		t.Fatalf("stored value is %T, want domain.Manga", raw)
	}
	if m.Key != key || m.Title != title || len(m.Tags) != 2 {
		t.Fatalf("decoded manga = %+v", m)
	}
	if m.Status != domain.StatusOngoing || m.Viewer != domain.ViewerRightToLeft {
		t.Fatalf("manga status/viewer = %v/%v", m.Status, m.Viewer)
	}

	mangaArray := env.Table.Insert(resource.KindValue, value.Value{Kind: value.KindArray, Array: []resource.Handle{mangaHandle}})
	stack = []uint64{uint64(mangaArray), 1}
	createMangaResult(env)(ctx, mod, stack)
	resultHandle := resource.Handle(uint32(stack[0]))

	resultRaw, ok := env.Table.GetTyped(resultHandle, resource.KindLegacyObject)
	if !ok {
		t.Fatal("create_manga_result did not store a KindLegacyObject entry")
	}
	result, ok := resultRaw.(domain.MangaListResult)
	if !ok {
		t.Fatalf("stored value is %T, want domain.MangaListResult", resultRaw)
	}
	if len(result.Entries) != 1 || !result.HasNextPage {
		t.Fatalf("manga list result = %+v", result)
	}
}

func TestCreateChapterNumberSentinel(t *testing.T) {
	env, mod := newTestEnv()
	ctx := context.Background()

	key := "ch-1"
	mod.Memory().Write(0, []byte(key))

	stack := []uint64{
		0, uint64(len(key)), // key
		0, 0, // title (absent)
		uint64(api.EncodeF32(legacyNoNumber)), // chapter number absent
		uint64(api.EncodeF32(3.5)),            // volume number present
		0,                                     // date_upload absent
		0, 0, // scanlator (absent)
		0, 0, // url (absent)
		0, 0, // language (absent)
	}
	createChapter(env)(ctx, mod, stack)
	handle := resource.Handle(uint32(stack[0]))

	raw, ok := env.Table.GetTyped(handle, resource.KindLegacyObject)
	if !ok {
		t.Fatal("create_chapter did not store a KindLegacyObject entry")
	}
	c, ok := raw.(domain.Chapter)
	if !ok {
		t.Fatalf("stored value is %T, want domain.Chapter", raw)
	}
	if c.Chapter != nil {
		t.Fatalf("chapter number = %v, want nil (sentinel)", *c.Chapter)
	}
	if c.Volume == nil || *c.Volume != 3.5 {
		t.Fatalf("volume number = %v, want 3.5", c.Volume)
	}
}

func TestCreatePageAndResult(t *testing.T) {
	env, mod := newTestEnv()
	ctx := context.Background()

	url := "https://example.com/page1.png"
	mod.Memory().Write(0, []byte(url))

	stack := []uint64{0, 0, uint64(len(url))}
	createPage(env)(ctx, mod, stack)
	pageHandle := resource.Handle(uint32(stack[0]))

	raw, ok := env.Table.GetTyped(pageHandle, resource.KindLegacyObject)
	if !ok {
		t.Fatal("create_page did not store a KindLegacyObject entry")
	}
	p, ok := raw.(domain.Page)
	if !ok || p.URL != url || p.Variant != domain.PageVariantURL {
		t.Fatalf("created page = %+v", raw)
	}

	pagesArray := env.Table.Insert(resource.KindValue, value.Value{Kind: value.KindArray, Array: []resource.Handle{pageHandle}})
	stack = []uint64{uint64(pagesArray)}
	createPageResult(env)(ctx, mod, stack)
	resultHandle := resource.Handle(uint32(stack[0]))

	resultRaw, ok := env.Table.GetTyped(resultHandle, resource.KindLegacyObject)
	if !ok {
		t.Fatal("create_page_result did not store a KindLegacyObject entry")
	}
	pages, ok := resultRaw.([]domain.Page)
	if !ok || len(pages) != 1 {
		t.Fatalf("page result = %+v", resultRaw)
	}
}
