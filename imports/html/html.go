// Package html implements the html import namespace (§4.6): a synchronous
// DOM/selector engine built on goquery, addressed through
// resource.KindHTMLDocument (a parsed document) and resource.KindHTMLNodeSet
// (a selection within one) entries.
package html

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	nethtml "golang.org/x/net/html"

	"github.com/aidoku-host/wasmhost/imports/hostenv"
	"github.com/aidoku-host/wasmhost/internal/wire"
	"github.com/aidoku-host/wasmhost/resource"
	"github.com/aidoku-host/wasmhost/value"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// html error codes (§7), returned as small negative i32s. ErrInvalidQuery
// is reserved for future selector-syntax validation; goquery's selector
// parser only surfaces failures as empty results today.
const (
	ErrInvalidDescriptor = -1
	ErrInvalidString     = -2
	ErrInvalidHtml       = -3
	ErrInvalidQuery      = -4
	ErrNoResult          = -5
	ErrBackendError      = -6
)

// Document is the payload stored under resource.KindHTMLDocument.
type Document struct {
	Root    *goquery.Document
	BaseURI string
}

// NodeSet is the payload stored under resource.KindHTMLNodeSet: a
// selection scoped to the document it was produced from.
type NodeSet struct {
	Doc *Document
	Sel *goquery.Selection
}

// wildcardAttr matches the two historical wildcard idioms a selector may
// contain: "[*]" (has any attribute) and ":not([*])" (has no attributes).
// Native CSS selector engines don't support either, so they're stripped
// before parsing and re-applied as a post-filter.
var wildcardAttr = regexp.MustCompile(`\[\*\]`)
var wildcardNotAttr = regexp.MustCompile(`:not\(\[\*\]\)`)

type wildcardMode int

const (
	wildcardNone wildcardMode = iota
	wildcardHasAttr
	wildcardNoAttr
)

func rewriteSelector(sel string) (string, wildcardMode) {
	if wildcardNotAttr.MatchString(sel) {
		return wildcardNotAttr.ReplaceAllString(sel, ""), wildcardNoAttr
	}
	if wildcardAttr.MatchString(sel) {
		return wildcardAttr.ReplaceAllString(sel, ""), wildcardHasAttr
	}
	return sel, wildcardNone
}

func applyWildcardFilter(sel *goquery.Selection, mode wildcardMode) *goquery.Selection {
	switch mode {
	case wildcardHasAttr:
		return sel.FilterFunction(func(_ int, s *goquery.Selection) bool {
			return len(s.Nodes[0].Attr) > 0
		})
	case wildcardNoAttr:
		return sel.FilterFunction(func(_ int, s *goquery.Selection) bool {
			return len(s.Nodes[0].Attr) == 0
		})
	default:
		return sel
	}
}

// Parse builds a Document from raw HTML bytes, the entry point net.html and
// canvas.new_image's sibling html.parse both funnel through.
func Parse(tbl resource.Table, body []byte, baseURL string) (resource.Handle, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return 0, err
	}
	return tbl.Insert(resource.KindHTMLDocument, &Document{Root: doc, BaseURI: baseURL}), nil
}

// ParseFragment builds a Document from an HTML fragment (no enclosing
// <html>/<body>). No html import calls it: the namespace registers no
// parse_fragment operation.
func ParseFragment(tbl resource.Table, body []byte, baseURL string) (resource.Handle, error) {
	nodes, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + string(body) + "</body>"))
	if err != nil {
		return 0, err
	}
	return tbl.Insert(resource.KindHTMLDocument, &Document{Root: nodes, BaseURI: baseURL}), nil
}

// Register builds the "html" host module.
func Register(ctx context.Context, rt wazero.Runtime, env *hostenv.Env) error {
	return wire.Module(ctx, rt, "html", []wire.Func{
		{Name: "parse", Fn: parseOp(env), Params: []api.ValueType{wire.I32, wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "select", Fn: selectOp(env), Params: []api.ValueType{wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "select_first", Fn: selectFirstOp(env), Params: []api.ValueType{wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "attr", Fn: attrOp(env), Params: []api.ValueType{wire.I32, wire.I32, wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "text", Fn: textOp(env, textModeTrimmed), Params: []api.ValueType{wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "untrimmed_text", Fn: textOp(env, textModeUntrimmed), Params: []api.ValueType{wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "own_text", Fn: textOp(env, textModeOwn), Params: []api.ValueType{wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "html", Fn: outerHTMLOp(env), Params: []api.ValueType{wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "size", Fn: sizeOp(env), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "parent", Fn: traverseOp(env, func(s *goquery.Selection) *goquery.Selection { return s.Parent() }), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "children", Fn: traverseOp(env, func(s *goquery.Selection) *goquery.Selection { return s.Children() }), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "next", Fn: traverseOp(env, func(s *goquery.Selection) *goquery.Selection { return s.Next() }), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "previous", Fn: traverseOp(env, func(s *goquery.Selection) *goquery.Selection { return s.Prev() }), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "tag_name", Fn: tagNameOp(env), Params: []api.ValueType{wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
	})
}

type textMode int

const (
	textModeTrimmed textMode = iota
	textModeUntrimmed
	textModeOwn
)

func docAndSel(env *hostenv.Env, handle resource.Handle) (*NodeSet, bool) {
	raw, ok := env.Table.GetTyped(handle, resource.KindHTMLNodeSet)
	if ok {
		return raw.(*NodeSet), true
	}
	rawDoc, ok := env.Table.GetTyped(handle, resource.KindHTMLDocument)
	if !ok {
		return nil, false
	}
	doc := rawDoc.(*Document)
	return &NodeSet{Doc: doc, Sel: doc.Root.Selection}, true
}

func parseOp(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		body, ok := mod.Memory().Read(uint32(stack[0]), uint32(stack[1]))
		if !ok {
			stack[0] = errCode(ErrInvalidString)
			return
		}
		baseURL, _ := wire.ReadString(mod, uint32(stack[2]), uint32(stack[3]))
		handle, err := Parse(env.Table, body, baseURL)
		if err != nil {
			stack[0] = errCode(ErrInvalidHtml)
			return
		}
		stack[0] = uint64(handle)
	}
}

func selectOp(env *hostenv.Env) api.GoModuleFunc {
	return selectImpl(env, false)
}

func selectFirstOp(env *hostenv.Env) api.GoModuleFunc {
	return selectImpl(env, true)
}

func selectImpl(env *hostenv.Env, first bool) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		handle := resource.Handle(uint32(stack[0]))
		ns, ok := docAndSel(env, handle)
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		query, ok := wire.ReadString(mod, uint32(stack[1]), uint32(stack[2]))
		if !ok {
			stack[0] = errCode(ErrInvalidString)
			return
		}
		rewritten, mode := rewriteSelector(query)
		found := ns.Sel.Find(rewritten)
		found = applyWildcardFilter(found, mode)
		if first {
			found = found.First()
		}
		if found.Length() == 0 && first {
			stack[0] = errCode(ErrNoResult)
			return
		}
		result := env.Table.Insert(resource.KindHTMLNodeSet, &NodeSet{Doc: ns.Doc, Sel: found})
		stack[0] = uint64(result)
	}
}

func attrOp(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		handle := resource.Handle(uint32(stack[0]))
		ns, ok := docAndSel(env, handle)
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		name, ok := wire.ReadString(mod, uint32(stack[1]), uint32(stack[2]))
		if !ok {
			stack[0] = errCode(ErrInvalidString)
			return
		}
		resolveAbs := strings.HasPrefix(name, "abs:")
		if resolveAbs {
			name = strings.TrimPrefix(name, "abs:")
		}
		val, exists := ns.Sel.Attr(name)
		if !exists {
			stack[0] = errCode(ErrNoResult)
			return
		}
		if resolveAbs {
			val = resolveAbsolute(ns.Doc.BaseURI, val)
		}
		writeString(env, mod, stack, val)
	}
}

func resolveAbsolute(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

func textOp(env *hostenv.Env, mode textMode) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		handle := resource.Handle(uint32(stack[0]))
		ns, ok := docAndSel(env, handle)
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		var s string
		switch mode {
		case textModeTrimmed:
			s = strings.TrimSpace(ns.Sel.Text())
		case textModeUntrimmed:
			s = ns.Sel.Text()
		case textModeOwn:
			s = ownText(ns.Sel)
		}
		writeString(env, mod, stack, s)
	}
}

func ownText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == nethtml.TextNode {
				b.WriteString(c.Data)
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func outerHTMLOp(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		handle := resource.Handle(uint32(stack[0]))
		ns, ok := docAndSel(env, handle)
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		s, err := goquery.OuterHtml(ns.Sel)
		if err != nil {
			stack[0] = errCode(ErrBackendError)
			return
		}
		writeString(env, mod, stack, s)
	}
}

func sizeOp(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		handle := resource.Handle(uint32(stack[0]))
		ns, ok := docAndSel(env, handle)
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		stack[0] = uint64(uint32(ns.Sel.Length()))
	}
}

func traverseOp(env *hostenv.Env, fn func(*goquery.Selection) *goquery.Selection) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		handle := resource.Handle(uint32(stack[0]))
		ns, ok := docAndSel(env, handle)
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		result := env.Table.Insert(resource.KindHTMLNodeSet, &NodeSet{Doc: ns.Doc, Sel: fn(ns.Sel)})
		stack[0] = uint64(result)
	}
}

func tagNameOp(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		handle := resource.Handle(uint32(stack[0]))
		ns, ok := docAndSel(env, handle)
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		if len(ns.Sel.Nodes) == 0 {
			stack[0] = errCode(ErrNoResult)
			return
		}
		node := ns.Sel.Nodes[0]
		name := node.Data
		if node.DataAtom != 0 {
			name = node.DataAtom.String()
		}
		writeString(env, mod, stack, name)
	}
}

// writeString stores s as a resource.KindValue string and leaves its
// handle in stack[0]; callers read it back through std's buffer_len/
// read_buffer the same way any other string rid works.
func writeString(env *hostenv.Env, mod api.Module, stack []uint64, s string) {
	handle := env.Table.Insert(resource.KindValue, value.Str(s))
	stack[0] = uint64(handle)
}

func errCode(code int) uint64 {
	return uint64(uint32(int32(code)))
}
