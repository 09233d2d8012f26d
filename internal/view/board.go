package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/DoyleJ11/hide-and-seek/internal/engine"
)

// Board is the read-only input for the shared announcement message.
type Board struct {
	State      engine.State
	Players    []engine.Player
	Capacity   int
	Host       engine.Identity
	Durations  engine.Durations
	JoinWindow time.Duration
}

func PlayerListItem(p engine.Player) string {
	var b strings.Builder
	b.WriteString(bullet)
	if icon, ok := roleIcons[p.Role]; ok {
		b.WriteString(icon)
		b.WriteString(" ")
	}
	b.WriteString(p.Identity.Name)
	if p.Host {
		b.WriteString(" 👑")
	}
	return b.String()
}

// PlayerListField renders the roster. Before teams exist it is a flat join
// order list with a divider after the fourth player; afterwards it is two
// team columns, each in roster order.
func PlayerListField(players []engine.Player, capacity int) Field {
	name := fmt.Sprintf("👥 Player list (`%d/%d`)", len(players), capacity)
	if len(players) > 0 && players[0].Assigned() {
		var hiders, seekers []string
		for _, p := range players {
			switch p.Role {
			case engine.RoleSeeker:
				seekers = append(seekers, PlayerListItem(p))
			case engine.RoleHider:
				hiders = append(hiders, PlayerListItem(p))
			}
		}
		value := fmt.Sprintf("**🟨 Alpha Team (`%d/%d`)**\n%s\n\n**🟦 Bravo Team (`%d/%d`)**\n%s",
			len(hiders), engine.MaxSeekers, strings.Join(hiders, "\n"),
			len(seekers), engine.MaxSeekers, strings.Join(seekers, "\n"))
		return Field{Name: name, Value: value}
	}

	lines := make([]string, 0, len(players)+1)
	for i, p := range players {
		lines = append(lines, PlayerListItem(p))
		if i == 3 {
			lines = append(lines, strings.Repeat(divider, 20))
		}
	}
	if len(lines) == 0 {
		return Field{Name: name, Value: "no players"}
	}
	return Field{Name: name, Value: strings.Join(lines, "\n")}
}

// Announcement renders the shared message for the board's current phase.
func Announcement(b Board) Payload {
	parts := []string{"**Rules**", Rules, ""}
	var until *time.Time
	switch s := b.State.(type) {
	case engine.Lobby:
		t := s.CreatedAt.Add(b.JoinWindow)
		until = deadline(t)
		parts = append(parts, "Expires "+Relative(t))
	case engine.TeamSelect:
		parts = append(parts, fmt.Sprintf("⏳ %s is deciding teams...", b.Host.Name))
	case engine.AwaitStart:
		parts = append(parts, "⏳ Waiting for the match to start...")
	case engine.Hiding:
		t := b.Durations.HideEnds(s.StartedAt)
		until = deadline(t)
		parts = append(parts, "Hiding time ends "+Relative(t))
	case engine.Seeking:
		t := b.Durations.MatchEnds(s.StartedAt)
		until = deadline(t)
		parts = append(parts, "Match ends "+Relative(t))
	case engine.Replay:
		parts = append(parts, fmt.Sprintf("Waiting for %s to decide if we should play again...", b.Host.Name))
	case engine.Finished:
		return Finished(b.Players, b.Capacity)
	case engine.Aborted:
		return AnnouncementAborted()
	}

	e := embed("Hide and seek! 👀", strings.Join(parts, "\n"))
	e.Fields = []Field{PlayerListField(b.Players, b.Capacity)}
	p := Payload{Embeds: []Embed{e}, Deadline: until}
	if _, ok := b.State.(engine.Lobby); ok {
		p.Rows = []Row{{{ID: CtlJoin, Kind: KindButton, Label: "I'm in!", Emoji: "➕", Style: StyleSuccess}}}
	}
	return p
}

// SettingUp is posted before the lobby has a roster to show.
func SettingUp() Payload {
	return Payload{Embeds: []Embed{embed("", "⏳ Setting everything up...")}}
}

func Finished(players []engine.Player, capacity int) Payload {
	e := embed("Hide and seek game finished 👀", "")
	e.Fields = []Field{PlayerListField(players, capacity)}
	return Payload{Embeds: []Embed{e}}
}

func AnnouncementAborted() Payload {
	e := embed("Hide and seek game was aborted 😵", "The game was aborted...")
	e.Color = ColorRed
	return Payload{Embeds: []Embed{e}}
}

func mentions(players []engine.Player) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.Identity.ID
	}
	return out
}

// StartNotice is broadcast once the host confirms the match started.
func StartNotice(players []engine.Player, hideEnds time.Time) Payload {
	return Payload{
		Content:  "**The game has started! 🎉 Good luck everyone!** Hiding time ends " + Relative(hideEnds),
		Mentions: mentions(players),
		Deadline: deadline(hideEnds),
	}
}

// SeekNotice is broadcast when hiding time runs out.
func SeekNotice(players []engine.Player, matchEnds time.Time) Payload {
	return Payload{
		Content:  "**⏰ Hiding time is up! The seekers will now go look for the hiders!** Match ends " + Relative(matchEnds),
		Mentions: mentions(players),
		Deadline: deadline(matchEnds),
	}
}
