package agui

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/spetersoncode/scholar/event"
)

// ErrStreamingUnsupported is returned when the response writer cannot flush.
var ErrStreamingUnsupported = errors.New("agui: streaming not supported")

// SSEWriter writes AG-UI events as server-sent events.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter sets the event-stream headers on w.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return &SSEWriter{w: w, flusher: flusher}, nil
}

// Write sends ev. Nil events are skipped.
func (s *SSEWriter) Write(ev events.Event) error {
	if ev == nil {
		return nil
	}
	data, err := ev.ToJSON()
	if err != nil {
		return fmt.Errorf("agui: encode %s: %w", ev.Type(), err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", ev.Type(), data); err != nil {
		return fmt.Errorf("agui: write %s: %w", ev.Type(), err)
	}
	s.flusher.Flush()
	return nil
}

// Stream writes RUN_STARTED, then every event from ch mapped by m, then
// closes the run with the value received from done: RUN_ERROR for an
// error, RUN_FINISHED for nil or after an interruption. The producer must
// close ch once the run has returned; events still queued when done fires
// are written before the run is closed.
func Stream(ctx context.Context, w *SSEWriter, m *Mapper, ch <-chan event.Event, done <-chan error) error {
	if err := w.Write(m.Start()); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-ch:
			if !ok {
				ch = nil
				continue
			}
			if err := w.Write(m.Map(e)); err != nil {
				return err
			}
		case err := <-done:
			if ch != nil {
				for e := range ch {
					if werr := w.Write(m.Map(e)); werr != nil {
						return werr
					}
				}
			}
			return w.Write(m.Finish(err))
		}
	}
}
