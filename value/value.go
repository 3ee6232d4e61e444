// Package value implements the dynamic, any-typed values the std and
// defaults import namespaces traffic in. Plugins were originally written
// against a scripting-language object model (arrays, objects, dates,
// strings that are sometimes numbers); the host represents that dynamism
// as a tagged sum stored in the resource table rather than a native Go
// union, since every value must also carry a stable rid.
package value

import (
	"fmt"

	"github.com/aidoku-host/wasmhost/postcard"
	"github.com/aidoku-host/wasmhost/resource"
)

// Kind is the typeof() tag reported across the std import namespace.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
	KindArray
	KindObject
	KindDate
	KindNode
	KindUnknown
)

// Value is one entry stored under resource.KindValue.
type Value struct {
	Kind   Kind
	Int    int64
	Float  float64
	Str    string
	Bool   bool
	Array  []resource.Handle          // element rids, each itself a Value
	Object map[string]resource.Handle // field rids, each itself a Value
	Date   int64                      // seconds since epoch
	Node   any                        // KindNode payload; no import namespace here sets it
	Raw    []byte                     // raw bytes, used for defaults.get results
	isRaw  bool

	// nested/nestedObject hold array/object children before they've been
	// allocated table entries of their own (e.g. fresh from ParseJSON).
	// Materialize walks these into Array/Object handles.
	nested       []Value
	nestedObject map[string]Value
}

// Materialize recursively allocates table entries for a freshly-built
// Value's nested children (as ParseJSON produces), turning nested/
// nestedObject into Array/Object handle lists, and returns the handle for
// v itself.
func Materialize(tbl resource.Table, v Value) resource.Handle {
	switch v.Kind {
	case KindArray:
		handles := make([]resource.Handle, 0, len(v.nested))
		for _, child := range v.nested {
			handles = append(handles, Materialize(tbl, child))
		}
		v.Array = handles
		v.nested = nil
	case KindObject:
		fields := make(map[string]resource.Handle, len(v.nestedObject))
		for k, child := range v.nestedObject {
			fields[k] = Materialize(tbl, child)
		}
		v.Object = fields
		v.nestedObject = nil
	}
	return tbl.Insert(resource.KindValue, v)
}

// Null, Int64, Float64, Str, Bool, Date construct the corresponding Value.
func Null() Value                { return Value{Kind: KindNull} }
func Int64(v int64) Value        { return Value{Kind: KindInt, Int: v} }
func Float64(v float64) Value    { return Value{Kind: KindFloat, Float: v} }
func Str(v string) Value         { return Value{Kind: KindString, Str: v} }
func Bool(v bool) Value          { return Value{Kind: KindBool, Bool: v} }
func DateValue(v int64) Value    { return Value{Kind: KindDate, Date: v} }
func Array() Value               { return Value{Kind: KindArray} }
func Object() Value              { return Value{Kind: KindObject, Object: map[string]resource.Handle{}} }
func Raw(b []byte) Value         { return Value{Kind: KindUnknown, Raw: b, isRaw: true} }

// EncodeBuffer produces the byte form buffer_len/read_buffer expose for a
// String or Array-of-strings value: the in-place "postcard-encoded" cache
// §4.4 describes. A raw value (see Raw) reports its bytes unchanged. Other
// kinds report ok=false (buffer_len returns -1 for them).
func EncodeBuffer(tbl resource.Table, v Value) (encoded []byte, ok bool) {
	switch v.Kind {
	case KindString:
		return []byte(v.Str), true
	case KindArray:
		w := postcard.NewWriter()
		w.VecLen(len(v.Array))
		for _, h := range v.Array {
			elem, found := tbl.GetTyped(h, resource.KindValue)
			if !found {
				return nil, false
			}
			ev, isValue := elem.(Value)
			if !isValue || ev.Kind != KindString {
				return nil, false
			}
			w.String(ev.Str)
		}
		return w.Bytes(), true
	case KindUnknown:
		if v.isRaw {
			return v.Raw, true
		}
	}
	return nil, false
}

// ReadInt, ReadFloat, ReadBool opportunistically coerce a Value, including
// the raw-bytes compatibility path defaults.get results take: try postcard
// string decode, then numeric/bool decode, before giving up.
func ReadInt(v Value) (int64, error) {
	switch v.Kind {
	case KindInt:
		return v.Int, nil
	case KindFloat:
		return int64(v.Float), nil
	case KindBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	case KindUnknown:
		if v.isRaw {
			if s, ok := decodeRawString(v.Raw); ok {
				var n int64
				if _, err := fmt.Sscanf(s, "%d", &n); err == nil {
					return n, nil
				}
			}
			if len(v.Raw) > 0 {
				r := postcard.NewReader(v.Raw)
				if n, err := r.Varint(); err == nil {
					return n, nil
				}
			}
		}
	}
	return 0, fmt.Errorf("value: cannot read int from kind %d", v.Kind)
}

func ReadFloat(v Value) (float64, error) {
	switch v.Kind {
	case KindFloat:
		return v.Float, nil
	case KindInt:
		return float64(v.Int), nil
	case KindUnknown:
		if v.isRaw {
			if s, ok := decodeRawString(v.Raw); ok {
				var f float64
				if _, err := fmt.Sscanf(s, "%g", &f); err == nil {
					return f, nil
				}
			}
			if len(v.Raw) == 4 {
				r := postcard.NewReader(v.Raw)
				if f, err := r.F32(); err == nil {
					return float64(f), nil
				}
			}
		}
	}
	return 0, fmt.Errorf("value: cannot read float from kind %d", v.Kind)
}

func ReadBool(v Value) (bool, error) {
	switch v.Kind {
	case KindBool:
		return v.Bool, nil
	case KindInt:
		return v.Int != 0, nil
	case KindUnknown:
		if v.isRaw {
			if len(v.Raw) == 1 {
				return v.Raw[0] != 0, nil
			}
			if s, ok := decodeRawString(v.Raw); ok {
				return s == "true" || s == "1", nil
			}
		}
	}
	return false, fmt.Errorf("value: cannot read bool from kind %d", v.Kind)
}

func decodeRawString(b []byte) (string, bool) {
	r := postcard.NewReader(b)
	s, err := r.String()
	if err != nil || !r.Done() {
		return "", false
	}
	return s, true
}
