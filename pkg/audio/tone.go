// Package audio turns simulation contacts into short tones
package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	// SampleRate is used for every generated tone
	SampleRate = beep.SampleRate(44100)

	// BufferDuration sizes the speaker buffer
	BufferDuration = 100 * time.Millisecond
)

// InitSpeaker opens the default output device
func InitSpeaker() error {
	if err := speaker.Init(SampleRate, SampleRate.N(BufferDuration)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	return nil
}

// Tone returns a sine wave of freq Hz lasting d at linear volume vol in
// (0, 1]. A non-positive volume is silent.
func Tone(freq float64, d time.Duration, vol float64) (beep.Streamer, error) {
	sine, err := generators.SineTone(SampleRate, freq)
	if err != nil {
		return nil, fmt.Errorf("sine tone %.1fHz: %w", freq, err)
	}
	return withVolume(beep.Take(SampleRate.N(d), sine), vol), nil
}

func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(min(vol, 1))}
}
