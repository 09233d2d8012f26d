package view

import (
	"fmt"
	"time"
)

type Color string

const (
	ColorDefault Color = "#2b2d31"
	ColorGreen   Color = "green"
	ColorRed     Color = "red"
)

type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Embed struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Color       Color   `json:"color,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
	Footer      string  `json:"footer,omitempty"`
}

type ControlKind string

const (
	KindButton ControlKind = "button"
	KindSelect ControlKind = "select"
)

type Style string

const (
	StyleSuccess Style = "success"
	StyleDanger  Style = "danger"
)

type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Control is one interactive element. IDs are phase-scoped so a press meant
// for an earlier phase can never satisfy a later one.
type Control struct {
	ID          string      `json:"id"`
	Kind        ControlKind `json:"kind"`
	Label       string      `json:"label,omitempty"`
	Emoji       string      `json:"emoji,omitempty"`
	Style       Style       `json:"style,omitempty"`
	Placeholder string      `json:"placeholder,omitempty"`
	Options     []Option    `json:"options,omitempty"`
	MinValues   int         `json:"min_values,omitempty"`
	MaxValues   int         `json:"max_values,omitempty"`
}

type Row []Control

// Payload is everything a presentation layer needs to draw one message.
// Deadline, when set, is the instant the message's countdown refers to.
type Payload struct {
	Content  string     `json:"content,omitempty"`
	Embeds   []Embed    `json:"embeds,omitempty"`
	Rows     []Row      `json:"rows,omitempty"`
	Mentions []string   `json:"mentions,omitempty"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

const (
	CtlJoin        = "lobby:join"
	CtlStart       = "lobby:start"
	CtlLobbyAbort  = "lobby:abort"
	CtlRotate      = "teams:rotate"
	CtlRandom      = "teams:random"
	CtlManual      = "teams:manual"
	CtlTeamsAbort  = "teams:abort"
	CtlStarted     = "match:started"
	CtlMatchAbort  = "match:abort"
	CtlPlayAgain   = "replay:yes"
	CtlNoPlayAgain = "replay:no"
)

// Relative renders t as a platform relative timestamp ("in 2 minutes").
func Relative(t time.Time) string {
	return fmt.Sprintf("<t:%d:R>", t.Unix())
}

func Plural(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func deadline(t time.Time) *time.Time {
	return &t
}

func embed(title, description string) Embed {
	return Embed{Title: title, Description: description, Color: ColorDefault}
}

func abortButton(id string) Control {
	return Control{ID: id, Kind: KindButton, Label: "Abort", Emoji: "✖️", Style: StyleDanger}
}

// Text is a plain private reply.
func Text(content string) Payload {
	return Payload{Content: content}
}
