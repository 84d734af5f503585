package service

import (
	"strconv"
	"strings"
)

// ffmpeg volume is scaled so that a user volume of 1 is comfortable next to voice chat
const volumeScale = 0.2

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (s Settings) bassGain() float64 {
	if !s.BassEnabled {
		return 0
	}

	return s.BassGain
}

// FilterChain renders the -af graph for the settings
//
// Every node that can be changed live is always present so later control
// commands have a target; band gains are only written when non-zero.
func (s Settings) FilterChain() string {
	var sb strings.Builder

	sb.WriteString("volume=")
	sb.WriteString(formatFloat(s.Volume * volumeScale))

	sb.WriteString(",atempo=")
	sb.WriteString(formatFloat(s.Speed))

	sb.WriteString(",bass=g=")
	sb.WriteString(formatFloat(s.bassGain()))
	sb.WriteString(":f=110:w=0.3")

	for i := Band(0); i < NumBands; i++ {
		sb.WriteString(",")
		sb.WriteString(i.FilterName())
		sb.WriteString("=f=")
		sb.WriteString(bandSpecs[i].freq)
		sb.WriteString(":t=h:w=")
		sb.WriteString(strconv.Itoa(bandSpecs[i].width))

		if g := s.Equalizer[i]; g != 0 {
			sb.WriteString(":g=")
			sb.WriteString(formatFloat(g))
		}
	}

	return sb.String()
}

func controlCommand(target, arg string, v float64) string {
	return "^C" + target + " -1 " + arg + " " + formatFloat(v) + "\n"
}

func VolumeCommand(volume float64) string {
	return controlCommand("volume", "volume", volume*volumeScale)
}

func TempoCommand(speed float64) string {
	return controlCommand("atempo", "tempo", speed)
}

func BassCommand(s Settings) string {
	return controlCommand("bass", "g", s.bassGain())
}

func EqualizerCommand(b Band, gain float64) string {
	return controlCommand(b.FilterName(), "g", gain)
}
