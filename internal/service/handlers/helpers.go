package handlers

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
	"github.com/josephcopenhaver/cadence-bot/internal/timecode"
)

// minTitleSimilarity is the jaro-winkler score a title needs to match a query
const minTitleSimilarity = 0.8

func regexMap(r *regexp.Regexp, s string) map[string]string {

	args := r.FindStringSubmatch(s)
	if args == nil {
		return nil
	}

	names := r.SubexpNames()
	m := make(map[string]string, len(args))

	for i, v := range args {
		m[names[i]] = v
	}

	return m
}

func parseFloat(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.Wrapf(service.ErrInvalidArgument, "%s must be a number: %q", name, s)
	}

	return v, nil
}

// findTrack resolves a skip/remove argument to a track id: a number is taken
// as an id, anything else is fuzzy matched against the titles in view
func findTrack(snap service.Snapshot, arg string) (uint64, bool) {
	arg = strings.TrimSpace(arg)

	if id, err := strconv.ParseUint(strings.TrimPrefix(arg, "#"), 10, 64); err == nil {
		return id, true
	}

	candidates := snap.Queue
	if snap.Current != nil {
		candidates = append([]service.Track{*snap.Current}, candidates...)
	}

	query := strings.ToLower(arg)

	var (
		best      float64
		bestID    uint64
		haveMatch bool
	)
	for _, t := range candidates {
		title := strings.ToLower(t.DisplayTitle())

		score := matchr.JaroWinkler(query, title, true)
		if strings.Contains(title, query) {
			score = 1
		}

		if score >= minTitleSimilarity && score > best {
			best, bestID, haveMatch = score, t.ID, true
		}
	}

	return bestID, haveMatch
}

func trackLine(t service.Track) string {
	line := formatID(t.ID) + " " + t.DisplayTitle()

	if t.Duration != nil {
		line += " [" + timecode.Format(*t.Duration) + "]"
	}

	return line + " <" + t.WebpageURL + ">"
}

// ensureVoice joins the author's voice channel unless the bot already sits in one
func ensureVoice(ctx context.Context, deps Deps, s Session, m *discordgo.MessageCreate) error {
	if deps.Voice.ChannelID(m.GuildID) != "" {
		return nil
	}

	chanID, err := s.UserVoiceChannel(m.GuildID, m.Author.ID)
	if err != nil {
		return err
	}

	if chanID == "" {
		return ErrVoiceChannelNotFound
	}

	if err := deps.Voice.Join(ctx, m.GuildID, chanID); err != nil {
		return errors.Wrap(err, "failed to auto-join a voice channel")
	}

	return nil
}

func formatID(id uint64) string {
	return "#" + strconv.FormatUint(id, 10)
}

func formatCount(n int) string {
	return strconv.Itoa(n)
}
