package view

import "github.com/DoyleJ11/hide-and-seek/internal/engine"

const (
	bullet  = "• "
	indent  = "　"
	divider = "➖"
)

var roleIcons = map[engine.Role]string{
	engine.RoleSeeker: "🔎",
	engine.RoleHider:  "👀",
}

const Rules = bullet + `No location revealing specials:
` + indent + bullet + `Tenta missiles
` + indent + bullet + `Killer wail 5.1
` + indent + bullet + `Wave breaker
` + bullet + `No ninja squid.
` + bullet + `No hiding in your own base.

` + bullet + `First the hiders will pick their hiding spots
` + bullet + `After 1 minute in turf war or 2 minutes in ranked,
` + indent + `the seekers will go look for the hiders.

` + bullet + `**Seekers 🔎**
` + indent + bullet + `aren't allowed to use the map during hiding time
` + indent + bullet + `aren't allowed to use sub weapons while seeking for hiders
` + indent + bullet + `are allowed to super jump to squid beacons and big bubblers
` + indent + bullet + `win if they splat all hiders once

` + bullet + `**Hiders 👀**
` + indent + bullet + `aren't allowed to use the map
` + indent + bullet + `are allowed to fight back with their main weapons, sub weapons, special weapons if they get found
` + indent + bullet + `win if they survive until 5 seconds before the match ends`

const seekerExplanation = bullet + `As a seeker you're first going to back up and face away from the map.
` + bullet + `Meanwhile the hiders are going to be painting the map and picking their hiding spots...
` + bullet + `Only after hiding time is up can you start seeking!
` + bullet + `Remember that the hiders can fight back!`

const hiderExplanation = bullet + `As a hider you're going to head straight to the other teams base or mid,
` + indent + `paint it and find a good hiding spot.
` + bullet + `The seekers will start seeking after I send a message saying that hiding time is up.
` + bullet + `When there's 5 seconds left of the match you can reveal your hiding spot if you want, you've won!`
