package abidispatch

// Mode is the ABI dialect a loaded plugin speaks (§4.2).
type Mode uint8

const (
	// ModeModern is the postcard-encoded ABI: arguments are descriptors to
	// encoded blobs, results are length-prefixed buffers at a returned
	// pointer.
	ModeModern Mode = iota
	// ModeLegacy is the pre-postcard ABI: arguments and results are generic
	// object descriptors built and read through the aidoku namespace's
	// create_* constructors.
	ModeLegacy
)

func (m Mode) String() string {
	if m == ModeLegacy {
		return "legacy"
	}
	return "modern"
}

// modernSignals are exports whose presence selects modern mode (§4.2).
var modernSignals = []string{"get_search_manga_list", "get_manga_update"}

// legacySignals are exports whose presence selects legacy mode when no
// modern signal is present.
var legacySignals = []string{"get_manga_details", "get_chapter_list", "get_manga_list"}

// DetectMode inspects a plugin's exported function names and picks a mode
// per §4.2: modern if any modern signal is present; else legacy if any
// legacy signal is present; otherwise modern by default.
func DetectMode(exports map[string]bool) Mode {
	for _, name := range modernSignals {
		if exports[name] {
			return ModeModern
		}
	}
	for _, name := range legacySignals {
		if exports[name] {
			return ModeLegacy
		}
	}
	return ModeModern
}

// Capabilities are booleans published purely from the presence of exports
// (and, where noted, manifest fields) — §4.2.
type Capabilities struct {
	HasImageProcessor       bool // process_page_image exported
	HasImageRequestProvider bool // get_image_request exported
	HasHome                 bool // get_home exported
	HasListingProvider      bool // get_listings exported (modern only)
	HasDynamicListings      bool // get_manga_list exported alongside a Listing provider
	HandlesBasicLogin       bool // handle_basic_login exported
	HandlesWebLogin         bool // handle_web_login exported
}

// DetectCapabilities derives Capabilities from the plugin's exported
// function names. handle_basic_login/handle_web_login are not among §6's
// enumerated exports consumed list; this host still probes for them by
// name, following the same presence-only rule §4.2 states for every other
// capability, since a manifest has no field of its own for login support.
func DetectCapabilities(mode Mode, exports map[string]bool) Capabilities {
	c := Capabilities{
		HasImageProcessor:       exports["process_page_image"],
		HasImageRequestProvider: exports["get_image_request"],
		HasHome:                 exports["get_home"],
		HandlesBasicLogin:       exports["handle_basic_login"],
		HandlesWebLogin:         exports["handle_web_login"],
	}
	if mode == ModeModern {
		c.HasListingProvider = exports["get_listings"]
		c.HasDynamicListings = c.HasListingProvider && exports["get_manga_list"]
	}
	return c
}
