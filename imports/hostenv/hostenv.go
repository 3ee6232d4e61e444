// Package hostenv carries the per-plugin-instance collaborators every
// import namespace needs: the resource table, the injected HTTP bridge and
// settings store, the cookie jar, and a clock. One Env is constructed per
// loaded plugin instance and is not safe to share across instances.
package hostenv

import (
	"time"

	"github.com/aidoku-host/wasmhost/hostapi"
	"github.com/aidoku-host/wasmhost/imports/home"
	"github.com/aidoku-host/wasmhost/resource"
)

// Env is the shared state every import namespace's host functions close
// over.
type Env struct {
	Table    resource.Table
	Bridge   hostapi.HttpBridge
	Settings SettingsPair
	Jar      CookieJar
	Now      func() time.Time

	// Home is the partial-result accumulator for the home call currently in
	// flight (§4.10). It is nil outside of a get_home call; the dispatcher
	// installs a fresh Accumulator before invoking the plugin's get_home
	// export and clears this field again once the call returns, so
	// send_partial_result has somewhere to report to only while it's valid
	// to call.
	Home *home.Accumulator
}

// SettingsPair bundles the optional getter/setter the host was configured
// with; either may be nil if the embedder didn't wire one in.
type SettingsPair struct {
	Getter hostapi.SettingsGetter
	Setter hostapi.SettingsSetter
}

// CookieJar is the subset of imports/net's jar that hostenv depends on,
// kept as an interface here so this package does not import imports/net
// (which in turn depends on hostenv).
type CookieJar interface {
	CookiesFor(host string) string
	Store(host string, setCookie []string)
}

// New creates an Env with a real wall clock.
func New(tbl resource.Table, bridge hostapi.HttpBridge, settings SettingsPair, jar CookieJar) *Env {
	return &Env{Table: tbl, Bridge: bridge, Settings: settings, Jar: jar, Now: time.Now}
}
