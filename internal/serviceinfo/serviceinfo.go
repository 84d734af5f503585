package serviceinfo

import (
	"github.com/rs/zerolog/log"
)

// set by the linker
var Version string
var Commit string

func VersionOrDev() string {
	if Version == "" {
		return "dev"
	}

	return Version
}

func StartupMessage() {
	log.Info().
		Str("Version", VersionOrDev()).
		Str("Commit", Commit).
		Msg("starting cadence-bot")
}
