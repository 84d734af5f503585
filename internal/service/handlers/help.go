package handlers

import (
	"context"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

// helpPages renders one yaml-ish entry per command, split into pages that fit
// in a discord message
func helpPages(handlers []HandleMessageCreate) []string {
	var (
		pages []string
		page  strings.Builder
	)

	page.WriteString("---")

	for _, h := range handlers {
		var entry strings.Builder

		entry.WriteString("\n" + h.Name + ":\n")

		if h.Usage != "" {
			entry.WriteString("  usage: " + h.Usage + "\n")
		}

		if h.Description != "" {
			entry.WriteString("  description: " + h.Description + "\n")
		}

		if page.Len()+entry.Len() > maxMessageLen {
			pages = append(pages, page.String())
			page.Reset()
			page.WriteString("---")
		}

		page.WriteString(entry.String())
	}

	return append(pages, page.String())
}

func Help(handlers []HandleMessageCreate) HandleMessageCreate {

	var pages []string

	result := newHandleMessageCreate(
		"help",
		"help",
		"direct messages every bot command, its syntax, and what the command does",
		newWordMatcher(
			false,
			[]string{"help"},
			func(_ context.Context, s Session, m *discordgo.MessageCreate, _ *service.Player, _ map[string]string) error {

				userTxtChan, err := s.UserChannelCreate(m.Author.ID)
				if err != nil {
					return err
				}

				for _, msg := range pages {
					if _, err := s.ChannelMessageSend(userTxtChan.ID, msg); err != nil {
						return err
					}
				}

				if m.GuildID != "" {
					return reply(s, m, "sent you the command list")
				}

				return nil
			},
		),
	)

	sorted := make([]HandleMessageCreate, 0, len(handlers)+1)
	sorted = append(sorted, handlers...)
	sorted = append(sorted, result)

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	pages = helpPages(sorted)

	return result
}
