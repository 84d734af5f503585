package main

import (
	"flag"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/josephcopenhaver/cadence-bot/internal/service"
	"github.com/josephcopenhaver/cadence-bot/internal/voice"
)

type options struct {
	inputFile  string
	outputFile string
	url        string
	ffmpegPath string
	bitrate    int
	start      float64
	settings   service.Settings
}

func main() {
	var opts options
	var bass float64

	opts.settings = service.DefaultSettings()

	flag.StringVar(&opts.inputFile, "i", "", "specifies input wav file, if unspecified and -url is not set uses stdin")
	flag.StringVar(&opts.outputFile, "o", "", "specifies output file, if unspecified uses stdout")
	flag.StringVar(&opts.url, "url", "", "transcode this media url through the playback filter chain instead of reading a wav input")
	flag.StringVar(&opts.ffmpegPath, "ffmpeg", "ffmpeg", "ffmpeg binary used with -url")
	flag.IntVar(&opts.bitrate, "bitrate", voice.DefaultBitrate, "opus bitrate in bits per second")
	flag.Float64Var(&opts.start, "start", 0, "seconds to skip into the -url media")
	flag.Float64Var(&opts.settings.Speed, "speed", opts.settings.Speed, "playback speed, 0.5 to 2")
	flag.Float64Var(&opts.settings.Volume, "volume", opts.settings.Volume, "volume multiplier, 0 to 10")
	flag.Float64Var(&bass, "bass", 0, "bass boost gain in dB, 0 disables it")

	flag.Parse()

	if bass != 0 {
		opts.settings.BassEnabled = true
		opts.settings.BassGain = bass
	}

	err := convert(opts)
	if err != nil {
		log.Fatal().
			Err(err).
			Str("input_file", opts.inputFile).
			Str("output_file", opts.outputFile).
			Str("url", opts.url).
			Msg("failed to convert file")
	}
}

// openInput returns a wav stream from the url pipeline, the input file or stdin
func openInput(opts options) (io.ReadCloser, error) {
	if opts.url != "" {
		if err := opts.settings.Validate(); err != nil {
			return nil, err
		}

		sp := &service.FFmpegSpawner{Path: opts.ffmpegPath}

		pl, err := sp.Spawn(service.PipelineRequest{
			URL:    opts.url,
			Start:  opts.start,
			Filter: opts.settings.FilterChain(),
		})
		if err != nil {
			return nil, err
		}

		// no live parameter changes are made
		if err := pl.Control.Close(); err != nil {
			log.Debug().Err(err).Msg("closing pipeline control stream")
		}

		return pl.Audio, nil
	}

	if opts.inputFile != "" {
		return os.Open(opts.inputFile)
	}

	return io.NopCloser(os.Stdin), nil
}

// convert:
//
// the input is expected to be a 48kHz stereo pcm_s16le wav stream
//
// the output will be discord-opus packet formatted
func convert(opts options) error {

	src, err := openInput(opts)
	if err != nil {
		return err
	}
	defer src.Close()

	in, err := voice.NewPCMReader(src)
	if err != nil {
		return errors.Wrap(err, "failed to read input")
	}

	var writer io.Writer
	if opts.outputFile != "" {

		f, err := os.OpenFile(opts.outputFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0664)
		if err != nil {
			return err
		}
		defer f.Close()

		writer = f
	} else {
		writer = os.Stdout
	}

	opusWriter, err := voice.NewOpusWriter(writer, opts.bitrate)
	if err != nil {
		return err
	}

	inBufArray := [voice.FrameSize * voice.NumChannels]int16{}
	inBuf := inBufArray[:]

	for {

		err = in.ReadFrame(inBuf)
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}

		err = opusWriter.WritePacket(inBuf)
		if err != nil {
			return err
		}
	}

	return opusWriter.Flush()
}
