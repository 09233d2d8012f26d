package view

import (
	"fmt"
	"strconv"
	"time"

	"github.com/DoyleJ11/hide-and-seek/internal/engine"
)

// Room identifies the session in the host's control footer.
type Room struct {
	Code string
	Mode engine.Mode
}

func (r Room) footer() string {
	return fmt.Sprintf("Room type: %s・Room code: %s・⚠️ Don't dismiss this message!", r.Mode.Label(), r.Code)
}

func (r Room) embed(title, description string) Embed {
	e := embed(title, description)
	e.Footer = r.footer()
	return e
}

// RoleEmbed tells a player what they are doing this round.
func RoleEmbed(p engine.Player) Embed {
	switch p.Role {
	case engine.RoleSeeker:
		return embed("You're a seeker! 🔎", seekerExplanation)
	case engine.RoleHider:
		return embed("You're a hider! 👀", hiderExplanation)
	}
	if p.Host {
		return embed("You're the host! 👑", "You'll pick the teams once everyone has joined.")
	}
	return embed("You've joined the game! ✅", "Waiting for the host to decide teams...")
}

func RoleNotice(p engine.Player) Payload {
	return Payload{Embeds: []Embed{RoleEmbed(p)}}
}

func HostLobby(r Room, host engine.Player) Payload {
	return Payload{
		Embeds: []Embed{
			RoleEmbed(host),
			r.embed("Waiting for players...", "Press `Everyone's joined!` once all players have joined!"),
		},
		Rows: []Row{{
			{ID: CtlStart, Kind: KindButton, Label: "Everyone's joined!", Emoji: "✔️", Style: StyleSuccess},
			abortButton(CtlLobbyAbort),
		}},
	}
}

func countOptions(limit, fairest int, label func(n int) string) []Option {
	opts := make([]Option, 0, limit)
	for n := 1; n <= limit; n++ {
		l := label(n)
		if n == fairest {
			l += " [FAIREST]"
		}
		opts = append(opts, Option{Label: l, Value: strconv.Itoa(n)})
	}
	return opts
}

// HostTeams offers the team policies. Rotation is only offered once a
// previous match has left roles to rotate.
func HostTeams(r Room, host engine.Player, players []engine.Player, replayed bool, expires time.Time) Payload {
	n := len(players)
	limit := engine.SeekerLimit(n)
	fairest := engine.FairestSeekers(n)

	var rows []Row
	if replayed {
		rows = append(rows, Row{{
			ID:          CtlRotate,
			Kind:        KindSelect,
			Placeholder: "🔄 Rotate seekers...",
			Options: countOptions(limit, fairest, func(n int) string {
				return fmt.Sprintf("Rotate players and pick %d %s", n, Plural("seeker", n))
			}),
		}})
	}
	rows = append(rows, Row{{
		ID:          CtlRandom,
		Kind:        KindSelect,
		Placeholder: "🎲 Pick number of random seekers...",
		Options: countOptions(limit, fairest, func(n int) string {
			return fmt.Sprintf("Pick %d random %s for me", n, Plural("seeker", n))
		}),
	}})

	manual := make([]Option, len(players))
	for i, p := range players {
		manual[i] = Option{Label: p.Identity.Name, Value: p.Identity.ID}
	}
	rows = append(rows,
		Row{{ID: CtlManual, Kind: KindSelect, Placeholder: "*️⃣ Pick seekers manually...", Options: manual, MinValues: 1, MaxValues: limit}},
		Row{abortButton(CtlTeamsAbort)},
	)

	return Payload{
		Embeds: []Embed{
			RoleEmbed(host),
			r.embed("Decide teams", "Do you want me to pick the seekers for you or do you want to pick them manually?\nExpires "+Relative(expires)),
		},
		Rows:     rows,
		Deadline: deadline(expires),
	}
}

func HostAwaitStart(r Room, host engine.Player, expires time.Time) Payload {
	return Payload{
		Embeds: []Embed{
			RoleEmbed(host),
			r.embed("Waiting for match start... ⏳", "Press the `Match started!` button after the game says \"Ready?\" and \"GO!\"!\nExpires "+Relative(expires)),
		},
		Rows: []Row{{
			{ID: CtlStarted, Kind: KindButton, Label: "Match started!", Emoji: "✔️", Style: StyleSuccess},
			abortButton(CtlMatchAbort),
		}},
		Deadline: deadline(expires),
	}
}

func HostStarted(r Room, host engine.Player) Payload {
	e := r.embed("Game started! 🎉", "Have fun!")
	e.Color = ColorGreen
	return Payload{Embeds: []Embed{RoleEmbed(host), e}}
}

func HostPlayAgain(r Room, expires time.Time) Payload {
	return Payload{
		Embeds: []Embed{r.embed("Play again?", "Do you want to play again with the same players?\nPicking `Nah` "+Relative(expires))},
		Rows: []Row{{
			{ID: CtlPlayAgain, Kind: KindButton, Label: "Yeah!", Emoji: "✔️", Style: StyleSuccess},
			{ID: CtlNoPlayAgain, Kind: KindButton, Label: "Nah", Emoji: "✖️", Style: StyleDanger},
		}},
		Deadline: deadline(expires),
	}
}

func HostFinished() Payload {
	e := embed("Hide and seek game finished", "You can dismiss this message now.")
	e.Color = ColorGreen
	return Payload{Embeds: []Embed{e}}
}

// Aborted is the dismissible notice shown on private surfaces.
func Aborted() Payload {
	e := embed("The game has been aborted", "You can dismiss this message now.")
	e.Color = ColorRed
	return Payload{Embeds: []Embed{e}}
}
