package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/marquee/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSnapshot MsgKind = iota
	MsgSearchResults
)

type searchResults struct {
	query string
	kind  models.MediaType
	items []models.CatalogItem
	err   error
}

// snapshotMsg is the constructor for [MsgSnapshot]
func snapshotMsg(snap models.Snapshot) Msg {
	return Msg{kind: MsgSnapshot, data: snap}
}

// searchResultsMsg is the constructor for [MsgSearchResults]
func searchResultsMsg(query string, kind models.MediaType, items []models.CatalogItem, err error) Msg {
	return Msg{kind: MsgSearchResults, data: searchResults{query, kind, items, err}}
}
