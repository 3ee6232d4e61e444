package abidispatch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/aidoku-host/wasmhost/domain"
	"github.com/aidoku-host/wasmhost/imports/canvas"
	"github.com/aidoku-host/wasmhost/imports/envaidoku"
	"github.com/aidoku-host/wasmhost/postcard"
	"github.com/aidoku-host/wasmhost/resource"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental/wazerotest"
)

func TestDetectMode(t *testing.T) {
	cases := []struct {
		name    string
		exports map[string]bool
		want    Mode
	}{
		{"modern signal wins", map[string]bool{"get_search_manga_list": true, "get_manga_details": true}, ModeModern},
		{"legacy signal alone", map[string]bool{"get_manga_details": true, "get_chapter_list": true}, ModeLegacy},
		{"shared name alone selects legacy", map[string]bool{"get_manga_list": true}, ModeLegacy},
		{"no signals defaults modern", map[string]bool{"start": true}, ModeModern},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := DetectMode(c.exports); got != c.want {
				t.Fatalf("DetectMode(%v) = %v, want %v", c.exports, got, c.want)
			}
		})
	}
}

func TestDetectCapabilities(t *testing.T) {
	exports := map[string]bool{
		"process_page_image": true,
		"get_image_request":  true,
		"get_home":           true,
		"get_listings":       true,
		"get_manga_list":     true,
	}
	caps := DetectCapabilities(ModeModern, exports)
	if !caps.HasImageProcessor || !caps.HasImageRequestProvider || !caps.HasHome {
		t.Fatalf("capabilities = %+v, want all presence flags set", caps)
	}
	if !caps.HasListingProvider || !caps.HasDynamicListings {
		t.Fatalf("capabilities = %+v, want listing provider + dynamic listings", caps)
	}

	legacyCaps := DetectCapabilities(ModeLegacy, exports)
	if legacyCaps.HasListingProvider || legacyCaps.HasDynamicListings {
		t.Fatalf("legacy capabilities = %+v, want listing fields unset outside modern mode", legacyCaps)
	}
}

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

func TestReadModernResultNegativePointer(t *testing.T) {
	mod := wazerotest.NewModule(wazerotest.NewMemory(65536))
	ctx := context.Background()

	payload, status := readModernResult(ctx, mod, -2)
	if payload != nil || status != ResultUnimplemented {
		t.Fatalf("readModernResult(-2) = (%v, %v), want (nil, ResultUnimplemented)", payload, status)
	}
}

func TestReadModernResultZeroPointer(t *testing.T) {
	mod := wazerotest.NewModule(wazerotest.NewMemory(65536))
	ctx := context.Background()

	payload, status := readModernResult(ctx, mod, 0)
	if payload != nil || status != ResultOK {
		t.Fatalf("readModernResult(0) = (%v, %v), want (nil, ResultOK)", payload, status)
	}
}

func TestReadModernResultPayloadCallsFreeResult(t *testing.T) {
	var freed []uint32
	freeFn := &wazerotest.Function{
		GoModuleFunction: api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			freed = append(freed, api.DecodeU32(stack[0]))
		}),
		ParamTypes:  []api.ValueType{api.ValueTypeI32},
		ResultTypes: []api.ValueType{},
		ExportNames: []string{"free_result"},
	}
	mod := wazerotest.NewModule(wazerotest.NewMemory(65536), freeFn)
	ctx := context.Background()

	writeResultBuffer(t, mod, 128, []byte{1, 2, 3})

	payload, status := readModernResult(ctx, mod, 128)
	if status != ResultOK {
		t.Fatalf("status = %v, want ResultOK", status)
	}
	if string(payload) != "\x01\x02\x03" {
		t.Fatalf("payload = %v, want [1 2 3]", payload)
	}
	if len(freed) != 1 || freed[0] != 128 {
		t.Fatalf("free_result calls = %v, want [128]", freed)
	}
}

func TestAsFatalUnwrapsAbortError(t *testing.T) {
	abortErr := &envaidoku.AbortError{Message: "boom", File: "source.ts", Line: 12, Column: 3}
	wrapped := fmt.Errorf("call export: %w", abortErr)

	err := asFatal("test-source", wrapped)
	var fatal *FatalError
	if !errors.As(err, &fatal) {
		t.Fatalf("asFatal did not produce a *FatalError, got %T: %v", err, err)
	}
	if fatal.SourceID != "test-source" || fatal.Abort != abortErr {
		t.Fatalf("fatal = %+v, want SourceID=test-source Abort=%v", fatal, abortErr)
	}
	if want := "[test-source] Abort: boom at source.ts:12:3"; fatal.Error() != want {
		t.Fatalf("fatal.Error() = %q, want %q", fatal.Error(), want)
	}
}

func TestAsFatalPassesThroughOtherErrors(t *testing.T) {
	plain := errors.New("trap: out of bounds memory access")
	if got := asFatal("test-source", plain); got != plain {
		t.Fatalf("asFatal(plain) = %v, want unchanged %v", got, plain)
	}
}

// TestPluginSearchMangaListDecodesResult exercises SearchMangaList end to
// end against a fake get_search_manga_list export, standing in for a
// compiled plugin module the way the other import namespaces' tests stand
// in for one with a bare wazerotest.Module.
func TestPluginSearchMangaListDecodesResult(t *testing.T) {
	const resultPtr = 512

	searchFn := &wazerotest.Function{
		GoModuleFunction: api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			w := postcard.NewWriter()
			w.VecLen(1)
			domain.Manga{Key: "one-piece", Title: "One Piece"}.EncodeRequest(w)
			w.Bool(true) // hasNextPage

			header := make([]byte, 8+len(w.Bytes()))
			total := uint32(len(header))
			header[0] = byte(total)
			header[1] = byte(total >> 8)
			header[2] = byte(total >> 16)
			header[3] = byte(total >> 24)
			copy(header[8:], w.Bytes())
			mod.Memory().Write(resultPtr, header)

			stack[0] = api.EncodeI32(resultPtr)
		}),
		ParamTypes:  []api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32},
		ResultTypes: []api.ValueType{api.ValueTypeI32},
		ExportNames: []string{"get_search_manga_list"},
	}
	mod := wazerotest.NewModule(wazerotest.NewMemory(65536), searchFn)

	p := &Plugin{
		sourceID: "test-source",
		mod:      mod,
		table:    resource.NewTable(),
		mode:     ModeModern,
	}

	got, err := p.SearchMangaList(context.Background(), "one piece", 1, nil)
	if err != nil {
		t.Fatalf("SearchMangaList returned error: %v", err)
	}
	if !got.HasNextPage {
		t.Fatal("HasNextPage = false, want true")
	}
	if len(got.Entries) != 1 || got.Entries[0].Key != "one-piece" || got.Entries[0].Title != "One Piece" {
		t.Fatalf("Entries = %+v, want a single one-piece entry", got.Entries)
	}
}

// TestPluginSearchMangaListMissingExport confirms a plugin lacking the
// export surfaces a NotFound error rather than panicking, per the same
// hosterr.NotFound path callExport takes for any absent export.
func TestPluginSearchMangaListMissingExport(t *testing.T) {
	mod := wazerotest.NewModule(wazerotest.NewMemory(65536))
	p := &Plugin{sourceID: "test-source", mod: mod, table: resource.NewTable(), mode: ModeModern}

	_, err := p.SearchMangaList(context.Background(), "", 1, nil)
	if err == nil {
		t.Fatal("expected an error for a missing export")
	}
}

// TestPluginProcessPageImageEncodesPNG exercises ProcessPageImage end to
// end: the fake process_page_image export returns a postcard-encoded
// zigzag-varint32 rid pointing at a pre-decoded image resource, and the
// method must resolve that rid through canvas.EncodePNG rather than
// handing the raw rid bytes back as if they were image data.
func TestPluginProcessPageImageEncodesPNG(t *testing.T) {
	const resultPtr = 512

	table := resource.NewTable()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	rid := table.Insert(resource.KindImage, canvas.ImagePayload{Img: img})

	processFn := &wazerotest.Function{
		GoModuleFunction: api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			w := postcard.NewWriter()
			w.Varint32(int32(rid))

			header := make([]byte, 8+len(w.Bytes()))
			total := uint32(len(header))
			header[0] = byte(total)
			header[1] = byte(total >> 8)
			header[2] = byte(total >> 16)
			header[3] = byte(total >> 24)
			copy(header[8:], w.Bytes())
			mod.Memory().Write(resultPtr, header)

			stack[0] = api.EncodeI32(resultPtr)
		}),
		ParamTypes:  []api.ValueType{api.ValueTypeI32, api.ValueTypeI32},
		ResultTypes: []api.ValueType{api.ValueTypeI32},
		ExportNames: []string{"process_page_image"},
	}
	mod := wazerotest.NewModule(wazerotest.NewMemory(65536), processFn)

	p := &Plugin{sourceID: "test-source", mod: mod, table: table, mode: ModeModern}

	png, err := p.ProcessPageImage(context.Background(), domain.ImageResponse{Code: 200, ImageRid: int32(rid)}, nil)
	if err != nil {
		t.Fatalf("ProcessPageImage returned error: %v", err)
	}
	if len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Fatalf("ProcessPageImage did not return PNG bytes, got %d bytes: %v", len(png), png[:min(len(png), 16)])
	}
}
