// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI renders the watchlist and stays current by subscribing to the store:
//  1. [ListView] : Browse entries, toggle watched, cycle priority
//  2. [ConfirmView] : Confirm removal of the selected entry
//  3. [SearchView] : Query the catalog for a title to add
//  4. [ResultView] : Pick a search result to add
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Snapshots flow from the store's dispatcher through a one-slot channel, so a slow render only ever sees the latest state.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
