package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/lrstanley/go-ytdlp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/josephcopenhaver/cadence-bot/internal/cache"
	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

var (
	ErrNoResults   = errors.New("nothing found")
	ErrUnsupported = errors.New("unsupported source")
)

var vkURL = regexp.MustCompile(`^(http://|https://)?(www\.)?(vk\.com|vkontakte\.ru)/`)

type Config struct {
	YtdlpPath    string
	FfprobePath  string
	VkParserPath string
	CacheDir     string
	CacheTTL     time.Duration
	Timeout      time.Duration
}

// Resolver wraps yt-dlp, ffprobe and the vk parser
type Resolver struct {
	conf     Config
	youtube  *youtube.Client
	listings *cache.DiskCache[string, []string]
	now      func() time.Time

	// run executes yt-dlp with args and returns its stdout
	run func(ctx context.Context, args ...string) (string, error)
}

func New(conf Config) (*Resolver, error) {
	if conf.Timeout <= 0 {
		conf.Timeout = 30 * time.Second
	}

	listings, err := cache.NewDiskCache[string, []string](conf.CacheDir, 64, conf.CacheTTL, true)
	if err != nil {
		return nil, errors.Wrap(err, "playlist cache")
	}

	r := &Resolver{
		conf: conf,
		youtube: &youtube.Client{
			HTTPClient: &http.Client{
				Timeout: 10 * time.Second,
			},
		},
		listings: listings,
		now:      time.Now,
	}
	r.run = r.runYtdlp

	return r, nil
}

func (r *Resolver) runYtdlp(ctx context.Context, args ...string) (string, error) {
	cmd := ytdlp.New().
		DumpSingleJSON().
		FlatPlaylist().
		SocketTimeout(15).
		NoWarnings().
		IgnoreConfig()

	if r.conf.YtdlpPath != "" {
		cmd.SetExecutable(r.conf.YtdlpPath)
	}

	res, err := cmd.Run(ctx, args...)
	if err != nil {
		if res != nil && res.Stderr != "" {
			return "", errors.Wrapf(err, "yt-dlp: %s", strings.TrimSpace(res.Stderr))
		}
		return "", errors.Wrap(err, "yt-dlp")
	}

	return res.Stdout, nil
}

func decode(s string) (object, error) {
	var o object
	if err := json.Unmarshal([]byte(s), &o); err != nil {
		return nil, errors.Wrap(err, "decode extractor output")
	}

	return o, nil
}

// IsURL reports whether input should be resolved rather than searched
func IsURL(input string) bool {
	for _, p := range []string{"http://", "https://", "ftp://"} {
		if strings.HasPrefix(input, p) {
			return true
		}
	}

	return false
}

// Resolve looks up a url, or searches for anything else
func (r *Resolver) Resolve(ctx context.Context, input string, limit int, st SearchType) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.conf.Timeout)
	defer cancel()

	input = strings.TrimSpace(input)

	if !IsURL(input) {
		t, err := r.Search(ctx, input, st)
		if err != nil {
			return nil, err
		}

		return Single{Track: t}, nil
	}

	if vkURL.MatchString(input) {
		return r.resolveVk(ctx, input)
	}

	if limit <= 0 {
		limit = 1
	}

	if entries, ok := r.cachedListing(input); ok {
		return r.playlistFrom(ctx, nil, input, entries, limit)
	}

	out, err := r.run(ctx, "--playlist-items", "1-"+strconv.Itoa(limit), input)
	if err != nil {
		if isYoutubePlaylist(input) {
			return r.youtubePlaylist(ctx, input, limit)
		}

		log.Debug().Err(err).Str("url", input).Msg("extractor failed, probing")

		t, perr := r.Probe(ctx, input)
		if perr != nil {
			return nil, errors.Wrapf(perr, "extractor failed (%v) and probe failed", err)
		}

		return Single{Track: t}, nil
	}

	o, err := decode(out)
	if err != nil {
		return nil, err
	}

	if !isPlaylist(o) {
		t, err := ParseTrack(o, r.now())
		if err != nil {
			return nil, err
		}

		return Single{Track: t}, nil
	}

	entries := playlistEntries(o)
	if len(entries) == 0 {
		return nil, errors.Wrap(ErrNoResults, "playlist is empty")
	}

	if err := r.listings.Set(input, entries); err != nil {
		log.Warn().Err(err).Str("url", input).Msg("failed to cache playlist listing")
	}

	return r.playlistFrom(ctx, str(o, "title"), input, entries, limit)
}

// ClearCache drops every cached playlist listing
func (r *Resolver) ClearCache() error {
	return r.listings.Clear()
}

func (r *Resolver) cachedListing(input string) ([]string, bool) {
	entries, ok, err := r.listings.Get(input)
	if err != nil {
		log.Warn().Err(err).Str("url", input).Msg("playlist cache read failed")
		return nil, false
	}

	return entries, ok && len(entries) > 0
}

func (r *Resolver) playlistFrom(ctx context.Context, title *string, input string, entries []string, limit int) (Result, error) {
	if len(entries) > limit {
		entries = entries[:limit]
	}

	first, err := r.Track(ctx, entries[0])
	if err != nil {
		return nil, errors.Wrap(err, "resolve first playlist entry")
	}

	return Playlist{
		Title: title,
		URL:   input,
		First: first,
		Rest:  entries[1:],
	}, nil
}

// Track resolves one url that is known to be a single item
func (r *Resolver) Track(ctx context.Context, u string) (service.Track, error) {
	ctx, cancel := context.WithTimeout(ctx, r.conf.Timeout)
	defer cancel()

	out, err := r.run(ctx, "--no-playlist", u)
	if err != nil {
		return service.Track{}, err
	}

	o, err := decode(out)
	if err != nil {
		return service.Track{}, err
	}

	return ParseTrack(o, r.now())
}

// Search returns the first hit on the chosen platform
func (r *Resolver) Search(ctx context.Context, query string, st SearchType) (service.Track, error) {
	var prefix string
	switch st {
	case SearchVk:
		return r.searchVk(ctx, query)
	case SearchSoundCloud:
		prefix = "scsearch1:"
	default:
		prefix = "ytsearch1:"
	}

	out, err := r.run(ctx, prefix+query)
	if err != nil {
		return service.Track{}, err
	}

	o, err := decode(out)
	if err != nil {
		return service.Track{}, err
	}

	entries, _ := o["entries"].([]interface{})
	if len(entries) == 0 {
		return service.Track{}, errors.Wrapf(ErrNoResults, "no results for %q", query)
	}

	first, ok := entries[0].(object)
	if !ok {
		return service.Track{}, errors.Wrapf(ErrNoResults, "no results for %q", query)
	}

	// flat search hits only carry the page url
	if _, hasFormats := first["formats"]; !hasFormats {
		if u := str(first, "webpage_url", "url"); u != nil && IsURL(*u) {
			return r.Track(ctx, *u)
		}
	}

	return ParseTrack(first, r.now())
}

func isYoutubePlaylist(input string) bool {
	u, err := url.Parse(input)
	if err != nil {
		return false
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	if host != "youtube.com" && host != "music.youtube.com" && host != "m.youtube.com" {
		return false
	}

	return strings.TrimSuffix(u.Path, "/") == "/playlist" && u.Query().Get("list") != ""
}
