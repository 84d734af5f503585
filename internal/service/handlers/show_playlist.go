package handlers

import (
	"context"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

// discord rejects longer messages
const maxMessageLen = 2000

func formatPlaylist(snap service.Snapshot) string {
	if snap.Current == nil && len(snap.Queue) == 0 {
		return "# no tracks in playlist"
	}

	var b strings.Builder

	b.WriteString("---\n#\n# playlist (" + snap.State.Public() + ", repeat " + snap.Settings.Repeat.String() + "):\n#\n")

	if snap.Current != nil {
		b.WriteString("\n- now: " + trackLine(*snap.Current) + "\n")
	}

	for i, t := range snap.Queue {
		line := "- " + trackLine(t) + "\n"

		if b.Len()+len(line) > maxMessageLen-32 {
			b.WriteString("\n... and " + formatCount(len(snap.Queue)-i) + " more")
			break
		}

		b.WriteString(line)
	}

	return b.String()
}

func ShowPlaylist() HandleMessageCreate {

	return newHandleMessageCreate(
		"show-playlist",
		"<queue|show playlist>",
		"prints the current playlist",
		newRegexMatcher(
			true,
			regexp.MustCompile(`^\s*(?:queue|show\s*playlist)\s*$`),
			func(_ context.Context, s Session, m *discordgo.MessageCreate, p *service.Player, _ map[string]string) error {
				return reply(s, m, formatPlaylist(p.Snapshot()))
			},
		),
	)
}
