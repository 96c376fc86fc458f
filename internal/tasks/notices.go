package tasks

import (
	"fmt"

	"github.com/desertthunder/hypertrack/internal/formatter"
	"github.com/desertthunder/hypertrack/internal/models"
	"github.com/desertthunder/hypertrack/internal/shared"
)

// Notice reports the outcome of a dashboard action.
type Notice struct {
	Kind     NoticeKind
	ArtistID int
	Message  string // Human-readable message for display
	Gained   int
	Lost     int
	Err      error
	Data     any // *models.ArtistQueryResponse, models.Provider, or the failed action name
}

// NoticeKind enumerates dashboard outcomes
type NoticeKind int

const (
	Added NoticeKind = iota
	Refreshed
	ProviderChanged
	Failed
)

func (k NoticeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Refreshed:
		return "refreshed"
	case ProviderChanged:
		return "provider_changed"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// Action names used in Failed notices
const (
	ActionLoad     = "load"
	ActionAdd      = "add"
	ActionRefresh  = "refresh"
	ActionProvider = "provider"
)

func addedNotice(resp *models.ArtistQueryResponse) Notice {
	found := resp.Snapshot.TotalPlaylistsFound
	if found == 0 {
		found = len(resp.CurrentPlaylists)
	}
	return Notice{
		Kind:     Added,
		ArtistID: resp.Artist.ID,
		Message:  fmt.Sprintf("Added %s: found on %s", resp.Artist.Name, shared.Plural(found, "playlist")),
		Gained:   len(resp.Changes.Gained),
		Lost:     len(resp.Changes.Lost),
		Data:     resp,
	}
}

func refreshedNotice(resp *models.ArtistQueryResponse) Notice {
	gained, lost := len(resp.Changes.Gained), len(resp.Changes.Lost)
	return Notice{
		Kind:     Refreshed,
		ArtistID: resp.Artist.ID,
		Message:  fmt.Sprintf("Refreshed %s: %s", resp.Artist.Name, formatter.ChangeSummary(gained, lost)),
		Gained:   gained,
		Lost:     lost,
		Data:     resp,
	}
}

func providerNotice(p models.Provider) Notice {
	return Notice{
		Kind:    ProviderChanged,
		Message: fmt.Sprintf("Provider set to %s", p.Label()),
		Data:    p,
	}
}

func failedNotice(action string, id int, message string, err error) Notice {
	return Notice{
		Kind:     Failed,
		ArtistID: id,
		Message:  message,
		Err:      err,
		Data:     action,
	}
}
