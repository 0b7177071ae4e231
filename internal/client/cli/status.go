package cli

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/qrattend/internal/client/countdown"
)

// statusSurface keeps the latest countdown frame for the prompt.
type statusSurface struct {
	mu    sync.Mutex
	text  string
	state countdown.State
}

func (s *statusSurface) Render(text string, state countdown.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
	s.state = state
}

func (s *statusSurface) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.text == "":
		return ""
	case s.state == countdown.Expired:
		return "QR expired"
	case s.state == countdown.Warning:
		return "QR " + s.text + "!"
	default:
		return "QR " + s.text
	}
}

func (s *statusSurface) clear() {
	s.Render("", countdown.Normal)
}

func (a *App) getStatus() string {
	var parts []string
	if ident, ok := a.currentIdentity(); ok {
		parts = append(parts, fmt.Sprintf("%s %s", ident.DisplayName(), ident.Role))
	}
	if qr := a.status.String(); qr != "" {
		parts = append(parts, qr)
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, " | "))
}
