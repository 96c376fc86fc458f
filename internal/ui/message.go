package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/hypertrack/internal/session"
	"github.com/desertthunder/hypertrack/internal/tasks"
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
	MsgSessionChanged MsgKind = iota
	MsgAuthDone
	MsgActionDone
	MsgNotice
	MsgDetailLoaded
)

// Action names carried by [MsgActionDone]
const (
	actionLoad     = "load"
	actionAdd      = "add"
	actionRefresh  = "refresh"
	actionProvider = "provider"
	actionOpen     = "open"
)

type actionResult struct {
	action string
	err    error
}

type noticeResult struct {
	dash   *tasks.Dashboard
	notice tasks.Notice
}

type detailResult struct {
	id     int
	detail *tasks.Detail
	err    error
}

// sessionChangedMsg is the constructor for [MsgSessionChanged]
func sessionChangedMsg(s session.Session) Msg {
	return Msg{kind: MsgSessionChanged, data: s}
}

// authDoneMsg is the constructor for [MsgAuthDone]
func authDoneMsg(err error) Msg {
	return Msg{kind: MsgAuthDone, data: err}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(action string, err error) Msg {
	return Msg{kind: MsgActionDone, data: actionResult{action: action, err: err}}
}

// noticeMsg is the constructor for [MsgNotice]
func noticeMsg(d *tasks.Dashboard, n tasks.Notice) Msg {
	return Msg{kind: MsgNotice, data: noticeResult{dash: d, notice: n}}
}

// detailLoadedMsg is the constructor for [MsgDetailLoaded]
func detailLoadedMsg(id int, detail *tasks.Detail, err error) Msg {
	return Msg{kind: MsgDetailLoaded, data: detailResult{id: id, detail: detail, err: err}}
}
