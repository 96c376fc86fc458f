package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/hypertrack/internal/formatter"
	"github.com/desertthunder/hypertrack/internal/models"
)

var (
	_ list.Item = artistItem{}
)

// artistItem wraps [models.Artist] to implement [list.Item].
type artistItem struct {
	artist     models.Artist
	refreshing bool
}

func (i artistItem) FilterValue() string { return i.artist.Name }
func (i artistItem) Title() string {
	if i.refreshing {
		return i.artist.Name + " (refreshing…)"
	}
	return i.artist.Name
}
func (i artistItem) Description() string { return formatter.ArtistSummary(i.artist) }

func artistItems(artists []models.Artist, refreshing map[int]bool) []list.Item {
	items := make([]list.Item, len(artists))
	for i, a := range artists {
		items[i] = artistItem{artist: a, refreshing: refreshing[a.ID]}
	}
	return items
}
