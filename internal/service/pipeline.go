package service

import (
	"bufio"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:106.0) Gecko/20100101 Firefox/106.0"

// FFmpegSpawner launches ffmpeg with the filter graph and a stdin control stream
type FFmpegSpawner struct {
	Path string
	// Niceness is applied to each process when non-zero
	Niceness int
}

// Args builds the ffmpeg argument list for a request
func (sp *FFmpegSpawner) Args(req PipelineRequest) []string {
	args := []string{
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-err_detect", "ignore_err",
		"-vn",
		"-sn",
		"-user_agent", userAgent,
	}

	if strings.HasSuffix(req.URL, ".m3u8") {
		args = append(args, "-http_persistent", "false")
	}

	if req.Start != 0 {
		args = append(args, "-ss", formatFloat(req.Start))
	}

	return append(args,
		"-i", req.URL,
		"-af", req.Filter,
		"-ar", "48000",
		"-ac", "2",
		"-f", "wav",
		"-loglevel", "info",
		"pipe:1",
	)
}

func (sp *FFmpegSpawner) Spawn(req PipelineRequest) (*Pipeline, error) {
	path := sp.Path
	if path == "" {
		path = "ffmpeg"
	}

	cmd := exec.Command(path, sp.Args(req)...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "ffmpeg stdin")
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "ffmpeg stdout")
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrap(err, "ffmpeg stderr")
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to start ffmpeg")
	}

	logger := log.With().Int("pid", cmd.Process.Pid).Logger()

	go logLines(logger, stderr)

	if sp.Niceness != 0 {
		if err := SetNiceness(cmd.Process.Pid, sp.Niceness); err != nil {
			logger.Warn().Err(err).Int("niceness", sp.Niceness).Msg("ffmpeg keeps default niceness")
		}
	}

	return &Pipeline{
		Control: stdin,
		Audio: &processOutput{
			ReadCloser: stdout,
			cmd:        cmd,
			logger:     logger,
		},
	}, nil
}

func logLines(logger zerolog.Logger, r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		logger.Trace().Str("ffmpeg", sc.Text()).Send()
	}
}

type processOutput struct {
	io.ReadCloser
	cmd    *exec.Cmd
	logger zerolog.Logger
	once   sync.Once
}

func (p *processOutput) Close() error {
	p.once.Do(func() {
		if err := p.cmd.Process.Kill(); err != nil {
			p.logger.Debug().Err(err).Msg("ffmpeg already exited")
		}

		// reaps the process and releases the pipes
		_ = p.cmd.Wait()
	})

	return nil
}
