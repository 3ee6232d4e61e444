// Package canvas implements the optional software 2D context import
// namespace (§4.8): context creation and transform, image decode,
// composition (draw_image), PNG encode (get_image_data) and text rendering
// with the built-in system font, all operating on resource.KindCanvasContext,
// resource.KindImage and resource.KindFont entries in the shared table. No
// path fill/stroke, copy_image or font-loading import is registered.
package canvas

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/aidoku-host/wasmhost/imports/hostenv"
	"github.com/aidoku-host/wasmhost/internal/wire"
	"github.com/aidoku-host/wasmhost/postcard"
	"github.com/aidoku-host/wasmhost/resource"
	"github.com/aidoku-host/wasmhost/value"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// Canvas error codes (§4.8), returned as small negative i32s.
const (
	ErrInvalidContext     = -1
	ErrInvalidImagePointer = -2
	ErrInvalidImage       = -3
	ErrInvalidSrcRect     = -4
	ErrInvalidResult      = -5
	ErrInvalidBounds      = -6
	ErrInvalidPath        = -7
	ErrInvalidStyle       = -8
	ErrInvalidString      = -9
	ErrInvalidFont        = -10
	ErrFontLoadFailed     = -11
)

// Ctx is the payload stored under resource.KindCanvasContext: a software
// RGBA framebuffer plus the active affine transform.
type Ctx struct {
	Img       *image.RGBA
	Transform Transform
}

// Transform is a 2D affine transform (a,b,c,d,e,f) applied to points before
// they're rasterised, matching the canvas 2D API convention.
type Transform struct {
	A, B, C, D, E, F float64
}

// Identity is the default, no-op transform.
func Identity() Transform { return Transform{A: 1, D: 1} }

func (t Transform) apply(x, y float64) (float64, float64) {
	return t.A*x + t.C*y + t.E, t.B*x + t.D*y + t.F
}

// Font is the payload stored under resource.KindFont.
type Font struct {
	Face font.Face
	Size float64
}

// ImagePayload is the payload stored under resource.KindImage: the decoded
// image.
type ImagePayload struct {
	Img image.Image
}

// DecodeImageBytes decodes raw image bytes (PNG/JPEG/GIF) and inserts the
// result as a resource.KindImage entry, returning its handle. Used both by
// canvas.new_image and by net's get_image inspection operation.
func DecodeImageBytes(tbl resource.Table, data []byte) (resource.Handle, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	return tbl.Insert(resource.KindImage, ImagePayload{Img: img}), nil
}

// EncodePNG extracts PNG bytes from a decoded image resource, the
// companion helper the dispatcher uses after process_page_image runs.
func EncodePNG(tbl resource.Table, handle resource.Handle) ([]byte, bool) {
	raw, ok := tbl.GetTyped(handle, resource.KindImage)
	if !ok {
		return nil, false
	}
	payload, ok := raw.(ImagePayload)
	if !ok {
		return nil, false
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, payload.Img); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

// Register builds the "canvas" host module.
func Register(ctx context.Context, rt wazero.Runtime, env *hostenv.Env) error {
	return wire.Module(ctx, rt, "canvas", []wire.Func{
		{Name: "new_context", Fn: newContext(env), Params: []api.ValueType{wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "set_transform", Fn: setTransform(env), Params: []api.ValueType{wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "new_image", Fn: newImage(env), Params: []api.ValueType{wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "get_image_width", Fn: imageDim(env, true), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "get_image_height", Fn: imageDim(env, false), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "draw_image", Fn: drawImage(env), Params: []api.ValueType{wire.I32, wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "get_image_data", Fn: getImageData(env), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "system_font", Fn: systemFont(env), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "draw_text", Fn: drawText(env), Params: []api.ValueType{wire.I32, wire.I32, wire.I32, wire.I32, wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
	})
}

func newContext(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		w := uint32(stack[0])
		h := uint32(stack[1])
		if w == 0 || h == 0 || w > 1<<16 || h > 1<<16 {
			stack[0] = errCode(ErrInvalidBounds)
			return
		}
		img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
		draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)
		handle := env.Table.Insert(resource.KindCanvasContext, &Ctx{Img: img, Transform: Identity()})
		stack[0] = uint64(handle)
	}
}

func setTransform(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		handle := resource.Handle(uint32(stack[0]))
		ptr := uint32(stack[1])
		length := uint32(stack[2])
		raw, ok := env.Table.GetTyped(handle, resource.KindCanvasContext)
		if !ok {
			stack[0] = errCode(ErrInvalidContext)
			return
		}
		ctxPayload := raw.(*Ctx)
		b, ok := mod.Memory().Read(ptr, length)
		if !ok {
			stack[0] = errCode(ErrInvalidPath)
			return
		}
		r := postcard.NewReader(b)
		a, err1 := r.F32()
		bb, err2 := r.F32()
		c, err3 := r.F32()
		d, err4 := r.F32()
		e, err5 := r.F32()
		f, err6 := r.F32()
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil || err6 != nil {
			stack[0] = errCode(ErrInvalidPath)
			return
		}
		ctxPayload.Transform = Transform{A: float64(a), B: float64(bb), C: float64(c), D: float64(d), E: float64(e), F: float64(f)}
		stack[0] = 0
	}
}

func newImage(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		ptr := uint32(stack[0])
		length := uint32(stack[1])
		data, ok := mod.Memory().Read(ptr, length)
		if !ok {
			stack[0] = errCode(ErrInvalidImagePointer)
			return
		}
		handle, err := DecodeImageBytes(env.Table, data)
		if err != nil {
			stack[0] = errCode(ErrInvalidImage)
			return
		}
		stack[0] = uint64(handle)
	}
}

func imageDim(env *hostenv.Env, width bool) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		handle := resource.Handle(uint32(stack[0]))
		raw, ok := env.Table.GetTyped(handle, resource.KindImage)
		if !ok {
			stack[0] = errCode(ErrInvalidImage)
			return
		}
		payload := raw.(ImagePayload)
		b := payload.Img.Bounds()
		if width {
			stack[0] = uint64(uint32(b.Dx()))
		} else {
			stack[0] = uint64(uint32(b.Dy()))
		}
	}
}

func drawImage(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		ctxHandle := resource.Handle(uint32(stack[0]))
		imgHandle := resource.Handle(uint32(stack[1]))
		dx := int(int32(uint32(stack[2])))
		dy := int(int32(uint32(stack[3])))

		rawCtx, ok := env.Table.GetTyped(ctxHandle, resource.KindCanvasContext)
		if !ok {
			stack[0] = errCode(ErrInvalidContext)
			return
		}
		rawImg, ok := env.Table.GetTyped(imgHandle, resource.KindImage)
		if !ok {
			stack[0] = errCode(ErrInvalidImage)
			return
		}
		ctxPayload := rawCtx.(*Ctx)
		imgPayload := rawImg.(ImagePayload)

		dstRect := imgPayload.Img.Bounds().Add(image.Pt(dx, dy))
		draw.Draw(ctxPayload.Img, dstRect, imgPayload.Img, imgPayload.Img.Bounds().Min, draw.Over)
		stack[0] = 0
	}
}

func getImageData(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		ctxHandle := resource.Handle(uint32(stack[0]))
		raw, ok := env.Table.GetTyped(ctxHandle, resource.KindCanvasContext)
		if !ok {
			stack[0] = errCode(ErrInvalidContext)
			return
		}
		ctxPayload := raw.(*Ctx)
		var buf bytes.Buffer
		if err := png.Encode(&buf, ctxPayload.Img); err != nil {
			stack[0] = errCode(ErrInvalidResult)
			return
		}
		resultHandle := env.Table.Insert(resource.KindValue, value.Raw(buf.Bytes()))
		stack[0] = uint64(resultHandle)
	}
}

func systemFont(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		sizePtr := uint32(stack[0])
		_ = sizePtr
		handle := env.Table.Insert(resource.KindFont, &Font{Face: basicfont.Face7x13, Size: 13})
		stack[0] = uint64(handle)
	}
}

// DrawText rasterises s onto ctx at (x, y) using f.
func DrawText(ctxPayload *Ctx, f *Font, s string, x, y int, col color.Color) {
	d := &font.Drawer{
		Dst:  ctxPayload.Img,
		Src:  image.NewUniform(col),
		Face: f.Face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func drawText(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		ctxHandle := resource.Handle(uint32(stack[0]))
		fontHandle := resource.Handle(uint32(stack[1]))
		textPtr := uint32(stack[2])
		textLen := uint32(stack[3])
		x := int(int32(uint32(stack[4])))
		y := int(int32(uint32(stack[5])))
		rgba := uint32(stack[6])

		rawCtx, ok := env.Table.GetTyped(ctxHandle, resource.KindCanvasContext)
		if !ok {
			stack[0] = errCode(ErrInvalidContext)
			return
		}
		rawFont, ok := env.Table.GetTyped(fontHandle, resource.KindFont)
		if !ok {
			stack[0] = errCode(ErrInvalidFont)
			return
		}
		s, ok := wire.ReadString(mod, textPtr, textLen)
		if !ok {
			stack[0] = errCode(ErrInvalidString)
			return
		}

		col := color.RGBA{R: byte(rgba >> 24), G: byte(rgba >> 16), B: byte(rgba >> 8), A: byte(rgba)}
		DrawText(rawCtx.(*Ctx), rawFont.(*Font), s, x, y, col)
		stack[0] = 0
	}
}

func errCode(code int) uint64 {
	return uint64(uint32(int32(code)))
}

// silence unused-import guard for gif/jpeg decoders registered for their
// side effect on image.Decode.
var _ = gif.Decode
var _ = jpeg.Decode
