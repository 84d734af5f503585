package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
)

type probeOutput struct {
	Format struct {
		Filename string            `json:"filename"`
		Duration string            `json:"duration"`
		Tags     map[string]string `json:"tags"`
	} `json:"format"`
}

func (p probeOutput) tag(names ...string) *string {
	for k, v := range p.Format.Tags {
		for _, n := range names {
			if strings.EqualFold(k, n) && v != "" {
				v := v
				return &v
			}
		}
	}

	return nil
}

// Probe builds a Track for a direct media url with ffprobe
func (r *Resolver) Probe(ctx context.Context, u string) (service.Track, error) {
	path := r.conf.FfprobePath
	if path == "" {
		path = "ffprobe"
	}

	cmd := exec.CommandContext(ctx, path,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		u,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return service.Track{}, errors.Wrapf(err, "ffprobe: %s", strings.TrimSpace(stderr.String()))
	}

	return parseProbe(stdout.Bytes(), u, r.now())
}

func parseProbe(b []byte, u string, now time.Time) (service.Track, error) {
	var out probeOutput
	if err := json.Unmarshal(b, &out); err != nil {
		return service.Track{}, errors.Wrap(err, "decode ffprobe output")
	}

	t := service.Track{
		Title:      out.tag("title"),
		Author:     service.Author{Name: out.tag("artist", "album_artist")},
		URL:        u,
		WebpageURL: u,
		ParseTime:  now.UTC(),
		Origin:     service.OriginFfprobe,
	}

	if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		t.Duration = &d
	}

	return t, nil
}
