// pkg/render/renderer_test.go
package render

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/opd-ai/go-polybounce/pkg/config"
	"github.com/opd-ai/go-polybounce/pkg/engine"
	"github.com/opd-ai/go-polybounce/pkg/entity"
	"github.com/opd-ai/go-polybounce/pkg/logging"
	"github.com/opd-ai/go-polybounce/pkg/physics"
)

func TestNullRenderer_Counts(t *testing.T) {
	r := NewNullRenderer(nil)
	ball := entity.NewBall(1, physics.Vector2D{}, physics.Vector2D{}, 3, entity.PaletteColor(0))

	r.Clear()
	r.RenderBoundary(&entity.Boundary{})
	r.RenderBall(ball)
	r.RenderBall(ball)
	r.RenderBall(nil)
	r.RenderBoundary(nil)

	if boundaries, balls := r.Counts(); boundaries != 1 || balls != 2 {
		t.Errorf("Counts() = %d, %d; expected 1, 2", boundaries, balls)
	}
	r.Present()
	if r.Frames() != 1 {
		t.Errorf("Frames() = %d, expected 1", r.Frames())
	}

	r.Clear()
	if boundaries, balls := r.Counts(); boundaries != 0 || balls != 0 {
		t.Errorf("Clear() left counts %d, %d", boundaries, balls)
	}
}

func TestNullRenderer_LogsFrames(t *testing.T) {
	t.Setenv(logging.LogLevelEnv, "DEBUG")
	var buf bytes.Buffer
	r := NewNullRenderer(logging.NewLoggerWithWriter(&buf))

	world := engine.NewWorld(config.DefaultConfig(), nil, nil)
	if err := world.Step(context.Background(), 800, 600); err != nil {
		t.Fatal(err)
	}
	world.Render(r)

	out := buf.String()
	if !strings.Contains(out, "Frame presented") || !strings.Contains(out, `"balls":40`) {
		t.Errorf("unexpected log output: %s", out)
	}
}
