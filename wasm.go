package wasmhost

import "github.com/aidoku-host/wasmhost/hostapi"

// These aliases keep the embedder-facing names at the module root while the
// actual definitions live in hostapi, which the import namespaces depend on
// directly (see hostapi's doc comment for why the split exists).
type (
	Memory         = hostapi.Memory
	HttpRequest    = hostapi.HttpRequest
	HttpResponse   = hostapi.HttpResponse
	HttpBridge     = hostapi.HttpBridge
	SettingsGetter = hostapi.SettingsGetter
	SettingsSetter = hostapi.SettingsSetter
)
