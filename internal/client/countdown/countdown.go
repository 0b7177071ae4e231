// Package countdown projects the expiry of a generated QR code onto a
// display surface. The projection is local only; the server enforces the
// real expiry.
package countdown

import (
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/qrattend/internal/client/scheduler"
)

// State is the visual state a surface renders.
type State int

const (
	Normal State = iota
	Warning
	Expired
)

func (s State) String() string {
	switch s {
	case Warning:
		return "warning"
	case Expired:
		return "expired"
	default:
		return "normal"
	}
}

const (
	// ExpiredText is rendered once the countdown reaches zero.
	ExpiredText = "Expired"

	warnBelow = 60
	tick      = time.Second
)

// Surface displays the countdown.
type Surface interface {
	Render(text string, state State)
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(text string, state State)

func (f SurfaceFunc) Render(text string, state State) { f(text, state) }

// Countdown ticks once per second until it reaches zero or is stopped.
type Countdown struct {
	surface Surface

	mu        sync.Mutex
	remaining int
	task      scheduler.Task
}

// Start renders the initial remaining time and schedules the tick. An
// expiry at or before now renders Expired immediately and schedules nothing.
func Start(s scheduler.Scheduler, surface Surface, expiresAt time.Time) *Countdown {
	c := &Countdown{surface: surface, remaining: Remaining(s.Now(), expiresAt)}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.render()
	if c.remaining > 0 {
		c.task = s.Every(tick, c.tick)
	}
	return c
}

// Remaining returns max(0, floor((expiresAt-now)/1s)).
func Remaining(now, expiresAt time.Time) int {
	d := expiresAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}

// Format renders seconds as m:ss.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func (c *Countdown) tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.task == nil || !c.task.Alive() {
		return
	}
	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.task.Cancel()
	}
	c.render()
}

// render must be called with mu held.
func (c *Countdown) render() {
	switch {
	case c.remaining <= 0:
		c.surface.Render(ExpiredText, Expired)
	case c.remaining < warnBelow:
		c.surface.Render(Format(c.remaining), Warning)
	default:
		c.surface.Render(Format(c.remaining), Normal)
	}
}

// Stop cancels the tick without rendering anything.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.task != nil {
		c.task.Cancel()
	}
}

// Running reports whether the tick is still scheduled.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.task != nil && c.task.Alive()
}

// Left returns the remaining seconds.
func (c *Countdown) Left() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}
