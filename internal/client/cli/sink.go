package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/storefront/internal/client/notify"
)

// consoleSink prints notifications as they are published.
type consoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

func newConsoleSink(w io.Writer) *consoleSink {
	return &consoleSink{w: w}
}

func (s *consoleSink) Show(n notify.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "%s %s\n", marker(n.Severity), n.Message)
}

// Hide is a no-op: a printed line cannot be taken back.
func (s *consoleSink) Hide(notify.ID) {}

func marker(sev notify.Severity) string {
	switch sev {
	case notify.SeveritySuccess:
		return "[ok]"
	case notify.SeverityError:
		return "[error]"
	default:
		return "[info]"
	}
}
