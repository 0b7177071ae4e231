package countdown

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/qrattend/internal/client/scheduler"
)

// Controller owns at most one running countdown per named surface.
type Controller struct {
	sched scheduler.Scheduler

	mu      sync.Mutex
	running map[string]*Countdown
}

func NewController(s scheduler.Scheduler) *Controller {
	return &Controller{sched: s, running: make(map[string]*Countdown)}
}

// Start stops the countdown currently bound to name, then starts a new one.
func (c *Controller) Start(name string, surface Surface, expiresAt time.Time) *Countdown {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.running[name]; ok {
		prev.Stop()
	}
	cd := Start(c.sched, surface, expiresAt)
	c.running[name] = cd
	return cd
}

// Get returns the countdown bound to name.
func (c *Controller) Get(name string) (*Countdown, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cd, ok := c.running[name]
	return cd, ok
}

func (c *Controller) Stop(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cd, ok := c.running[name]; ok {
		cd.Stop()
		delete(c.running, name)
	}
}

func (c *Controller) StopAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, cd := range c.running {
		cd.Stop()
		delete(c.running, name)
	}
}
