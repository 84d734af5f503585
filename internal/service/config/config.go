package config

import (
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoreDriverSqlite = "sqlite"
	StoreDriverMysql  = "mysql"
)

type Config struct {
	DiscordBotToken string `split_words:"true" required:"true"`

	HTTPListenAddr  string `envconfig:"HTTP_LISTEN_ADDR" default:"127.0.0.1:8081"`
	HTTPAuthEnabled bool   `envconfig:"HTTP_AUTH_ENABLED" default:"true"`

	StoreDriver  string        `split_words:"true" default:"sqlite"`
	StoreDSN     string        `envconfig:"STORE_DSN" default:"db.sqlite3"`
	StoreTimeout time.Duration `split_words:"true" default:"3s"`

	FfmpegPath     string `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
	FfprobePath    string `envconfig:"FFPROBE_PATH" default:"ffprobe"`
	FfmpegNiceness int    `envconfig:"FFMPEG_NICENESS" default:"0"`
	YtdlpPath      string `envconfig:"YTDLP_PATH"`
	VkParserPath   string `envconfig:"VK_PARSER_PATH"`

	PlaylistCacheDir    string        `split_words:"true" default:".playlist-cache/v1"`
	PlaylistCacheTTL    time.Duration `envconfig:"PLAYLIST_CACHE_TTL" default:"1h"`
	PlaylistAddInterval time.Duration `split_words:"true" default:"200ms"`
	ResolveTimeout      time.Duration `split_words:"true" default:"30s"`

	VoiceBitrate int `split_words:"true" default:"256000"`
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		// DiscordBotToken must not be empty
		validation.Field(&c.DiscordBotToken, validation.Required),
		validation.Field(&c.HTTPListenAddr, validation.Required),
		validation.Field(&c.StoreDriver, validation.Required, validation.In(StoreDriverSqlite, StoreDriverMysql)),
		validation.Field(&c.StoreDSN, validation.Required),
		validation.Field(&c.StoreTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.FfmpegPath, validation.Required),
		validation.Field(&c.FfmpegNiceness, validation.Min(-20), validation.Max(19)),
		validation.Field(&c.PlaylistCacheDir, validation.Required),
		validation.Field(&c.PlaylistAddInterval, validation.Min(time.Duration(0))),
		validation.Field(&c.ResolveTimeout, validation.Required),
		validation.Field(&c.VoiceBitrate, validation.Min(8000), validation.Max(512000)),
	)
}

// New reads the process environment, optionally seeded from a .env file
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return FromEnv()
}

func FromEnv() (*Config, error) {
	conf := &Config{}

	if err := envconfig.Process("", conf); err != nil {
		return nil, err
	}

	return conf, conf.Validate()
}
