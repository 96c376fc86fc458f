// Package gate decides what a caller may see for a given session.
//
// Protected content is rendered only for an Authenticated session. A Resolving session gets a neutral
// waiting state, never the content and never a redirect. An Unauthenticated session is sent to the
// login entry point together with the destination it asked for.
package gate

import (
	"fmt"

	"github.com/desertthunder/hypertrack/internal/session"
	"github.com/desertthunder/hypertrack/internal/shared"
)

// LoginRoute is the entry point unauthenticated callers are redirected to.
const LoginRoute = "login"

// Decision is the outcome kind of [Check].
type Decision int

const (
	Render Decision = iota
	Wait
	Redirect
)

func (d Decision) String() string {
	switch d {
	case Render:
		return "render"
	case Wait:
		return "wait"
	case Redirect:
		return "redirect"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Outcome tells the caller what to show.
// RedirectTo and From are set only for [Redirect]; From is where to return after login.
type Outcome struct {
	Decision   Decision
	RedirectTo string
	From       string
}

// Check decides whether destination may be shown for s.
func Check(s session.Session, destination string) Outcome {
	switch s.State {
	case session.Authenticated:
		if s.User != nil && s.Token != "" {
			return Outcome{Decision: Render}
		}
	case session.Resolving:
		return Outcome{Decision: Wait}
	}
	return Outcome{Decision: Redirect, RedirectTo: LoginRoute, From: destination}
}

// LoginRequiredError is returned by [Require] for an unauthenticated session.
type LoginRequiredError struct {
	From string
}

func (e *LoginRequiredError) Error() string {
	if e.From == "" {
		return "login required"
	}
	return fmt.Sprintf("login required to access %s", e.From)
}

// Unwrap lets callers match [shared.ErrNotAuthenticated].
func (e *LoginRequiredError) Unwrap() error {
	return shared.ErrNotAuthenticated
}

// Require is [Check] for callers that cannot wait: it returns nil for [Render],
// [shared.ErrSessionPending] for [Wait] and a [*LoginRequiredError] for [Redirect].
func Require(s session.Session, destination string) error {
	switch o := Check(s, destination); o.Decision {
	case Render:
		return nil
	case Wait:
		return shared.ErrSessionPending
	default:
		return &LoginRequiredError{From: o.From}
	}
}
