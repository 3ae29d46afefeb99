// pkg/render/engo/controls.go
package engo

import (
	"context"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"

	"github.com/opd-ai/go-polybounce/pkg/engine"
)

// Button names registered with engo.Input
const (
	ButtonPause  = "pause"
	ButtonReseed = "reseed"
	ButtonFaster = "faster"
	ButtonSlower = "slower"
	ButtonQuit   = "quit"
)

// SetupControls registers the keyboard bindings
func SetupControls() {
	engo.Input.RegisterButton(ButtonPause, engo.KeySpace)
	engo.Input.RegisterButton(ButtonReseed, engo.KeyR)
	engo.Input.RegisterButton(ButtonFaster, engo.KeyArrowUp)
	engo.Input.RegisterButton(ButtonSlower, engo.KeyArrowDown)
	engo.Input.RegisterButton(ButtonQuit, engo.KeyEscape)
}

// ControlSystem polls engo.Input once per frame
type ControlSystem struct {
	ctx      context.Context
	controls *engine.Controls
}

// Update implements ecs.System
func (s *ControlSystem) Update(dt float32) {
	switch {
	case engo.Input.Button(ButtonQuit).JustPressed():
		engo.Exit()
	case engo.Input.Button(ButtonPause).JustPressed():
		s.controls.TogglePause()
	case engo.Input.Button(ButtonReseed).JustPressed():
		s.controls.Reseed(s.ctx)
	case engo.Input.Button(ButtonFaster).JustPressed():
		s.controls.ScaleTime(engine.TimeScaleStep)
	case engo.Input.Button(ButtonSlower).JustPressed():
		s.controls.ScaleTime(1 / engine.TimeScaleStep)
	}
}

// Remove implements ecs.System
func (s *ControlSystem) Remove(ecs.BasicEntity) {}
