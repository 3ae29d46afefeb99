package audio

import (
	"context"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/opd-ai/go-polybounce/pkg/event"
	"github.com/opd-ai/go-polybounce/pkg/logging"
)

// Config tunes the impact sounds
type Config struct {
	WallFreq      float64       // base pitch of boundary hits
	CollisionFreq float64       // base pitch of body collisions
	Duration      time.Duration // length of one blip
	MinSpeed      float64       // impacts slower than this are silent
	LoudSpeed     float64       // impacts at or above this play at full volume
	MaxPerWindow  int           // blips per boundary and kind per window
	Window        time.Duration
}

// DefaultConfig returns settings that stay pleasant with a few dozen bodies
func DefaultConfig() Config {
	return Config{
		WallFreq:      330,
		CollisionFreq: 660,
		Duration:      40 * time.Millisecond,
		MinSpeed:      0.5,
		LoudSpeed:     10,
		MaxPerWindow:  8,
		Window:        time.Second,
	}
}

// PlayFunc hands a finished streamer to an output
type PlayFunc func(beep.Streamer)

// ImpactSounder listens for boundary hits and body collisions and plays a
// short tone for each, pitched by kind and scaled by impact speed
type ImpactSounder struct {
	cfg     Config
	play    PlayFunc
	limiter *Limiter
	logger  *logging.Logger
	subs    []*event.Subscription
}

// NewImpactSounder subscribes to bus. A nil play sends tones to the
// speaker, which must have been opened with InitSpeaker.
func NewImpactSounder(bus *event.Bus, cfg Config, play PlayFunc, logger *logging.Logger) *ImpactSounder {
	if play == nil {
		play = func(s beep.Streamer) { speaker.Play(s) }
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &ImpactSounder{
		cfg:     cfg,
		play:    play,
		limiter: NewLimiter(cfg.MaxPerWindow, cfg.Window),
		logger:  logger,
	}
	s.subs = append(s.subs,
		bus.Subscribe(event.BoundaryHit, s.onBoundaryHit),
		bus.Subscribe(event.BodyCollision, s.onCollision),
	)
	return s
}

func (s *ImpactSounder) onBoundaryHit(e event.Event) {
	hit, ok := e.(*event.BoundaryEvent)
	if !ok {
		return
	}
	// each edge gets its own step up the scale
	freq := s.cfg.WallFreq * math.Pow(2, float64(hit.Edge%12)/12)
	s.sound(hit.BoundaryID+"/wall", freq, hit.ImpactSpeed)
}

func (s *ImpactSounder) onCollision(e event.Event) {
	c, ok := e.(*event.CollisionEvent)
	if !ok {
		return
	}
	s.sound(c.BoundaryID+"/collision", s.cfg.CollisionFreq, c.ImpactSpeed)
}

func (s *ImpactSounder) sound(key string, freq, speed float64) {
	if speed < s.cfg.MinSpeed || !s.limiter.Allow(key) {
		return
	}
	tone, err := Tone(freq, s.cfg.Duration, s.volume(speed))
	if err != nil {
		s.logger.Error(context.Background(), "Impact tone failed", err, "key", key)
		return
	}
	s.play(tone)
}

// volume maps impact speed linearly onto (0, 1]
func (s *ImpactSounder) volume(speed float64) float64 {
	if s.cfg.LoudSpeed <= 0 {
		return 1
	}
	return math.Min(speed/s.cfg.LoudSpeed, 1)
}

// Close unsubscribes from the bus and stops the limiter
func (s *ImpactSounder) Close() {
	for _, sub := range s.subs {
		sub.Cancel()
	}
	s.subs = nil
	s.limiter.Close()
}
