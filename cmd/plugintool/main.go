// Command plugintool is a developer CLI for driving a content-source plugin
// directly: list its exports and detected ABI dialect, or invoke one of the
// common modern-ABI operations and print the decoded result.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/aidoku-host/wasmhost"
	"github.com/aidoku-host/wasmhost/domain"
)

func main() {
	var (
		wasmFile = flag.String("wasm", "", "Path to a content-source plugin .wasm file")
		list     = flag.Bool("list", false, "List detected ABI mode, capabilities, and exports, then exit")
		search   = flag.String("search", "", "Call get_search_manga_list with this query")
		page     = flag.Int("page", 1, "Page number for -search / -listing")
		listing  = flag.String("listing", "", "Call get_manga_list for the listing with this id (modern ABI only)")
		home     = flag.Bool("home", false, "Call get_home and print the resolved layout")
		filters  = flag.Bool("filters", false, "Call get_filters and print the filter definitions")
		listings = flag.Bool("listings", false, "Call get_listings and print the available listings")
	)
	flag.Parse()

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: plugintool -wasm <file.wasm> [-list] [-search query [-page n]] [-listing id [-page n]] [-home] [-filters] [-listings]")
		os.Exit(1)
	}

	if err := run(*wasmFile, *list, *search, *page, *listing, *home, *filters, *listings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(wasmFile string, listOnly bool, search string, page int, listingID string, wantHome, wantFilters, wantListings bool) error {
	ctx := context.Background()

	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	host, err := wasmhost.New(ctx, wasmhost.Config{})
	if err != nil {
		return fmt.Errorf("create host: %w", err)
	}
	defer host.Close(ctx)

	plugin, err := host.LoadPlugin(ctx, data)
	if err != nil {
		return fmt.Errorf("load plugin: %w", err)
	}
	defer plugin.Close(ctx)

	fmt.Printf("Plugin: %s\n", wasmFile)
	fmt.Printf("ABI mode: %s\n", plugin.Mode())
	fmt.Printf("Capabilities: %+v\n", plugin.Capabilities())

	if listOnly {
		return nil
	}

	switch {
	case search != "":
		result, err := plugin.SearchMangaList(ctx, search, int32(page), nil)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		fmt.Printf("\nSearch %q page %d: %d entries, hasNextPage=%v\n", search, page, len(result.Entries), result.HasNextPage)
		for _, m := range result.Entries {
			fmt.Printf("  %s — %s\n", m.Key, m.Title)
		}

	case listingID != "":
		result, err := plugin.MangaList(ctx, domain.Listing{ID: listingID}, int32(page))
		if err != nil {
			return fmt.Errorf("listing page: %w", err)
		}
		fmt.Printf("\nListing %q page %d: %d entries, hasNextPage=%v\n", listingID, page, len(result.Entries), result.HasNextPage)
		for _, m := range result.Entries {
			fmt.Printf("  %s — %s\n", m.Key, m.Title)
		}

	case wantHome:
		layout, err := plugin.Home(ctx, nil)
		if err != nil {
			return fmt.Errorf("home: %w", err)
		}
		fmt.Printf("\nHome: %d components\n", len(layout.Components))
		for _, c := range layout.Components {
			title := ""
			if c.Title != nil {
				title = *c.Title
			}
			fmt.Printf("  [%v] %s\n", c.Variant, title)
		}

	case wantFilters:
		defs, err := plugin.Filters(ctx)
		if err != nil {
			return fmt.Errorf("filters: %w", err)
		}
		fmt.Printf("\nFilters: %d\n", len(defs))
		for _, f := range defs {
			fmt.Printf("  %s (%v)\n", f.Name, f.Variant)
		}

	case wantListings:
		defs, err := plugin.Listings(ctx)
		if err != nil {
			return fmt.Errorf("listings: %w", err)
		}
		fmt.Printf("\nListings: %d\n", len(defs))
		for _, l := range defs {
			fmt.Printf("  %s — %s\n", l.ID, l.Name)
		}
	}

	return nil
}
