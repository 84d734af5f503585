package handlers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/josephcopenhaver/cadence-bot/internal/resolver"
	"github.com/josephcopenhaver/cadence-bot/internal/service"
	"github.com/josephcopenhaver/cadence-bot/internal/service/server/reactions"
	"github.com/josephcopenhaver/cadence-bot/internal/store"
)

func isWarning(err error) bool {
	var w interface {
		Reaction() reactions.ReactionStatus
	}

	return errors.As(err, &w) && w.Reaction() == reactions.ReactionStatusWarning
}

func TestGuildOnly(t *testing.T) {
	Convey("Given a direct message", t, func() {
		h := newHarness()

		Convey("ping still answers", func() {
			So(h.run("", "ping"), ShouldBeNil)
			So(h.session.last().content, ShouldEqual, "pong")
		})

		Convey("player commands are refused", func() {
			So(h.run("", "pause"), ShouldEqual, ErrGuildOnly)
			So(h.run("", "play something"), ShouldEqual, ErrGuildOnly)
		})

		Convey("unknown text matches nothing", func() {
			So(h.run("", "dance"), ShouldEqual, errNoMatch)
		})
	})
}

func TestPlay(t *testing.T) {
	Convey("Given a member sitting in a voice channel", t, func() {
		h := newHarness()
		h.session.userVoice[userID] = "voice-1"

		h.resolver.results["song one"] = resolver.Single{Track: track("one")}

		Convey("play joins the channel and starts the track", func() {
			So(h.run(guildID, "play song one"), ShouldBeNil)

			So(h.voice.joins, ShouldResemble, []string{"voice-1"})
			So(h.session.last().content, ShouldStartWith, "queued #1 one")

			snap := h.player().Snapshot()
			So(snap.State, ShouldEqual, service.StatePlaying)
			So(snap.Current.ID, ShouldEqual, 1)
		})

		Convey("a second play queues without rejoining", func() {
			So(h.run(guildID, "play song one"), ShouldBeNil)
			So(h.run(guildID, "play song one"), ShouldBeNil)

			So(len(h.voice.joins), ShouldEqual, 1)
			So(len(h.player().Snapshot().Queue), ShouldEqual, 1)
		})

		Convey("options are validated", func() {
			err := h.run(guildID, "play song one limit=99")
			So(errors.Is(err, service.ErrInvalidArgument), ShouldBeTrue)

			err = h.run(guildID, "play song one search=bandcamp")
			So(errors.Is(err, service.ErrInvalidArgument), ShouldBeTrue)

			So(h.resolver.resolved, ShouldBeEmpty)
		})

		Convey("trailing options are stripped from the query", func() {
			So(h.run(guildID, "play song one limit=3 search=soundcloud"), ShouldBeNil)
			So(h.resolver.resolved, ShouldResemble, []string{"song one"})
		})

		Convey("a playlist with a broken entry is a partial success", func() {
			list := "https://example.com/list"
			title := "mix"
			h.resolver.results[list] = resolver.Playlist{
				Title: &title,
				URL:   list,
				First: track("first"),
				Rest:  []string{"https://example.com/second", "https://example.com/gone"},
			}
			h.resolver.tracks["https://example.com/second"] = track("second")

			err := h.run(guildID, "play "+list)
			So(isWarning(err), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "1 out of 3 tracks could not be imported from playlist")
			So(h.session.last().content, ShouldEqual, "queued 2 tracks from playlist mix")

			snap := h.player().Snapshot()
			So(snap.Current.ID, ShouldEqual, 1)
			So(len(snap.Queue), ShouldEqual, 1)
			So(snap.Queue[0].DisplayTitle(), ShouldEqual, "second")
		})

		Convey("a vk playlist is queued whole", func() {
			h.resolver.results["vk list"] = resolver.VkPlaylist{
				Tracks: []service.Track{track("a"), track("b"), track("c")},
			}

			So(h.run(guildID, "play vk list"), ShouldBeNil)
			So(h.session.last().content, ShouldEqual, "queued 3 tracks from playlist")
			So(len(h.player().Snapshot().Queue), ShouldEqual, 2)
		})
	})

	Convey("Given a member outside of voice", t, func() {
		h := newHarness()
		h.resolver.results["song one"] = resolver.Single{Track: track("one")}

		So(h.run(guildID, "play song one"), ShouldEqual, ErrVoiceChannelNotFound)
	})
}

func TestPlaybackCommands(t *testing.T) {
	Convey("Given a guild playing a short queue", t, func() {
		h := newHarness()
		h.session.userVoice[userID] = "voice-1"

		h.resolver.results["q"] = resolver.VkPlaylist{
			Tracks: []service.Track{track("alpha"), track("bravo song"), track("charlie")},
		}
		So(h.run(guildID, "play q"), ShouldBeNil)

		p := h.player()

		Convey("pause and resume", func() {
			So(h.run(guildID, "pause"), ShouldBeNil)
			So(p.State(), ShouldEqual, service.StatePaused)

			So(h.run(guildID, "resume"), ShouldBeNil)
			So(p.State(), ShouldEqual, service.StatePlaying)
			So(h.session.last().content, ShouldEqual, "Resumed playing")
		})

		Convey("skip by title drops a queued track", func() {
			So(h.run(guildID, "skip bravo"), ShouldBeNil)
			So(h.session.last().content, ShouldEqual, "Skipped track #2")

			queue := p.Snapshot().Queue
			So(len(queue), ShouldEqual, 1)
			So(queue[0].ID, ShouldEqual, 3)
		})

		Convey("skip of an unknown title is not found", func() {
			err := h.run(guildID, "skip zzzzzz")
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
		})

		Convey("skip without an argument stops the current track", func() {
			So(h.run(guildID, "next"), ShouldBeNil)
			So(p.State(), ShouldEqual, service.StateInSkip)
		})

		Convey("remove refuses the current track", func() {
			err := h.run(guildID, "remove #1")
			So(errors.Is(err, service.ErrConflict), ShouldBeTrue)

			So(h.run(guildID, "remove 3"), ShouldBeNil)
			So(len(p.Snapshot().Queue), ShouldEqual, 1)
		})

		Convey("seek takes a timecode", func() {
			So(h.run(guildID, "seek 1:30"), ShouldBeNil)
			So(p.State(), ShouldEqual, service.StateSeeking)
		})

		Convey("settings are range checked", func() {
			err := h.run(guildID, "volume 20")
			So(errors.Is(err, service.ErrInvalidArgument), ShouldBeTrue)

			So(h.run(guildID, "vol 2.5"), ShouldBeNil)
			So(h.run(guildID, "speed 1.5"), ShouldBeNil)
			So(h.run(guildID, "bass on 10db"), ShouldBeNil)
			So(h.run(guildID, "eq 1k -3"), ShouldBeNil)

			s := p.Settings()
			So(s.Volume, ShouldEqual, 2.5)
			So(s.Speed, ShouldEqual, 1.5)
			So(s.BassEnabled, ShouldBeTrue)
			So(s.BassGain, ShouldEqual, 10)
			So(s.Equalizer[service.Band1k], ShouldEqual, -3)

			err = h.run(guildID, "eq 3k 1")
			So(errors.Is(err, service.ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("repeat shows and sets the mode", func() {
			So(h.run(guildID, "repeat"), ShouldBeNil)
			So(h.session.last().content, ShouldContainSubstring, "off")

			So(h.run(guildID, "loop queue"), ShouldBeNil)
			So(p.Repeat(), ShouldEqual, service.RepeatQueue)

			So(h.run(guildID, "repeat 1"), ShouldBeNil)
			So(p.Repeat(), ShouldEqual, service.RepeatTrack)
		})

		Convey("queue lists every track", func() {
			So(h.run(guildID, "queue"), ShouldBeNil)

			out := h.session.last().content
			So(out, ShouldContainSubstring, "- now: #1 alpha")
			So(out, ShouldContainSubstring, "#2 bravo song")
			So(out, ShouldContainSubstring, "#3 charlie")
		})

		Convey("now reports the position", func() {
			So(h.run(guildID, "now"), ShouldBeNil)

			out := h.session.last().content
			So(out, ShouldStartWith, "playing: #1 alpha")
			So(out, ShouldContainSubstring, "\nat ")
		})

		Convey("clear keeps the settings", func() {
			So(h.run(guildID, "vol 3"), ShouldBeNil)
			So(h.run(guildID, "clear"), ShouldBeNil)

			snap := p.Snapshot()
			So(snap.State, ShouldEqual, service.StateEnded)
			So(snap.Current, ShouldBeNil)
			So(snap.Queue, ShouldBeEmpty)
			So(snap.Settings.Volume, ShouldEqual, 3)

			So(h.run(guildID, "queue"), ShouldBeNil)
			So(h.session.last().content, ShouldEqual, "# no tracks in playlist")
		})

		Convey("disconnect leaves the channel", func() {
			So(h.run(guildID, "disconnect"), ShouldBeNil)
			So(h.voice.ChannelID(guildID), ShouldBeEmpty)
			So(p.State(), ShouldEqual, service.StateEnded)
		})
	})
}

func TestJoinChannel(t *testing.T) {
	Convey("Given a guild with voice channels", t, func() {
		h := newHarness()
		h.session.channels = []*discordgo.Channel{
			{ID: "text-1", Name: "Lounge", Type: discordgo.ChannelTypeGuildText},
			{ID: "voice-2", Name: "Lounge", Type: discordgo.ChannelTypeGuildVoice},
		}

		Convey("join by name picks the voice channel", func() {
			So(h.run(guildID, "join lounge"), ShouldBeNil)
			So(h.voice.ChannelID(guildID), ShouldEqual, "voice-2")
		})

		Convey("an unknown name fails", func() {
			So(h.run(guildID, "join attic"), ShouldEqual, ErrVoiceChannelNotFound)
		})

		Convey("a bare join follows the author", func() {
			So(h.run(guildID, "join"), ShouldEqual, ErrVoiceChannelNotFound)

			h.session.userVoice[userID] = "voice-9"
			So(h.run(guildID, "join"), ShouldBeNil)
			So(h.voice.ChannelID(guildID), ShouldEqual, "voice-9")
		})
	})
}

func TestPassword(t *testing.T) {
	Convey("Given the password command", t, func() {
		h := newHarness()

		Convey("short passwords are refused", func() {
			err := h.run("", "password short")
			So(errors.Is(err, service.ErrInvalidArgument), ShouldBeTrue)
			So(h.passwords.hashes, ShouldBeEmpty)
		})

		Convey("a direct message stores a bcrypt hash", func() {
			So(h.run("", "password hunter2hunter2"), ShouldBeNil)
			So(store.CheckPassword(h.passwords.hashes[userID], "hunter2hunter2"), ShouldBeTrue)
			So(h.session.deleted, ShouldBeEmpty)
		})

		Convey("a guild message is deleted", func() {
			So(h.run(guildID, "password hunter2hunter2"), ShouldBeNil)
			So(h.session.deleted, ShouldResemble, []string{"msg-1"})
		})
	})
}

func TestHelpAndCache(t *testing.T) {
	Convey("help is sent as a direct message", t, func() {
		h := newHarness()

		So(h.run(guildID, "help"), ShouldBeNil)
		So(h.session.last().content, ShouldEqual, "sent you the command list")

		var dm []string
		for _, msg := range h.session.sent {
			if msg.channelID == "dm-1" {
				So(len(msg.content), ShouldBeLessThanOrEqualTo, maxMessageLen)
				dm = append(dm, msg.content)
			}
		}
		So(dm, ShouldNotBeEmpty)

		content := strings.Join(dm, "\n")
		So(content, ShouldContainSubstring, "play:\n  usage: play <url|query>")
		So(strings.Index(content, "clear-playlist:"), ShouldBeLessThan, strings.Index(content, "volume:"))
	})

	Convey("help pages are split at the message limit", t, func() {
		long := strings.Repeat("x", maxMessageLen/2)
		pages := helpPages([]HandleMessageCreate{
			{Name: "a", Description: long},
			{Name: "b", Description: long},
			{Name: "c", Description: long},
		})

		So(len(pages), ShouldEqual, 3)
		for _, p := range pages {
			So(p, ShouldStartWith, "---\n")
		}
	})

	Convey("clearcache drops the listing cache", t, func() {
		h := newHarness()

		So(h.run("", "clearcache"), ShouldBeNil)
		So(h.resolver.cleared, ShouldEqual, 1)
	})

	Convey("cache resolves in the background", t, func() {
		h := newHarness()
		ctx, cancel := context.WithCancel(context.Background())
		h.deps.Tasks.Start(ctx)
		Reset(func() {
			cancel()
			h.deps.Tasks.Wait()
		})

		So(h.run(guildID, "cache not-a-url"), ShouldNotBeNil)

		So(h.run(guildID, "cache https://example.com/list"), ShouldBeNil)
		So(h.session.last().content, ShouldEqual, "caching <https://example.com/list>")

		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			h.resolver.mu.Lock()
			n := len(h.resolver.resolved)
			h.resolver.mu.Unlock()

			if n > 0 {
				break
			}
			time.Sleep(5 * time.Millisecond)
		}

		h.resolver.mu.Lock()
		defer h.resolver.mu.Unlock()
		So(h.resolver.resolved, ShouldResemble, []string{"https://example.com/list"})
	})
}
