// Package hostapi defines the embedder-facing collaborator interfaces: the
// synchronous HTTP bridge (§4.11) and the settings store (§4.7). It is kept
// dependency-free so both the root wasmhost package and the import
// namespaces that need these types (imports/net, imports/hostenv) can
// depend on it without creating an import cycle through abidispatch.
package hostapi

import "context"

// Memory is the subset of WASM linear memory access the import namespaces
// need. It is satisfied directly by github.com/tetratelabs/wazero/api.Memory,
// and can be faked in tests without depending on wazero.
type Memory interface {
	Size() uint32
	Read(offset, length uint32) ([]byte, bool)
	Write(offset uint32, data []byte) bool
	ReadByte(offset uint32) (byte, bool)
	ReadUint32Le(offset uint32) (uint32, bool)
	ReadUint64Le(offset uint32) (uint64, bool)
	ReadFloat32Le(offset uint32) (float32, bool)
	ReadFloat64Le(offset uint32) (float64, bool)
	WriteUint32Le(offset uint32, v uint32) bool
	WriteUint64Le(offset uint32, v uint64) bool
}

// HttpRequest is the synchronous outbound request shape crossing the bridge.
type HttpRequest struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    []byte
}

// HttpResponse is the synchronous response shape crossing the bridge.
// Status == 0 signals a transport-level failure; the bridge must still
// return a non-nil HttpResponse in that case rather than only an error.
type HttpResponse struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// HttpBridge is the injected synchronous request/response interface the
// plugin's net import namespace calls through. Implementations must block
// until the response is received, must not throw/panic for ordinary HTTP
// error responses, and should enforce their own per-request timeout.
//
// The core makes no assumption about how that synchrony is achieved; see
// imports/net's DefaultBridge for a *net/http-backed reference
// implementation.
type HttpBridge interface {
	Do(ctx context.Context, req HttpRequest) (HttpResponse, error)
}

// SettingsGetter is the injected key/value settings reader. Values may be
// nil, bool, int64, float64, string, or []string; anything else is treated
// as absent.
type SettingsGetter interface {
	GetSetting(key string) (value any, ok bool)
}

// SettingsSetter is the injected key/value settings writer.
type SettingsSetter interface {
	SetSetting(key string, value any) error
}
