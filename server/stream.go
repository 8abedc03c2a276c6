package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"github.com/seo-compare/engine/compare"
	"github.com/seo-compare/engine/pipeline"
)

// streamHeartbeat keeps proxies from closing an idle stream while the
// crawler works through a slow site.
const streamHeartbeat = 15 * time.Second

// handleCompareStream runs a comparison and streams its progress as
// server-sent events. Every event is a data-only JSON object with a
// "type" discriminator; the stream ends with exactly one result or
// error event.
func (s *Server) handleCompareStream(c *gin.Context) {
	compURL, ok := requestURL(c, "competitor_url")
	if !ok {
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	events := make(chan pipeline.Event, 64)
	done := make(chan struct{})

	var (
		cmp    *compare.Result
		runErr error
	)
	go func() {
		defer close(done)
		cmp, runErr = s.pipe.Compare(ctx, compURL, func(ev pipeline.Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		})
		close(events)
	}()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for events != nil {
		select {
		case ev, open := <-events:
			if !open {
				events = nil
				continue
			}
			s.writeEvent(c, progressPayload(ev))
		case <-heartbeat.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			c.Writer.Flush()
		case <-ctx.Done():
			<-done
			return
		}
	}
	<-done

	if ctx.Err() != nil {
		return
	}
	if runErr != nil {
		s.writeEvent(c, gin.H{"type": "error", "kind": errorKind(runErr), "message": runErr.Error()})
		return
	}
	s.writeEvent(c, gin.H{"type": "result", "data": comparePayload(cmp)})
}

func (s *Server) writeEvent(c *gin.Context, payload any) {
	if err := sse.Encode(c.Writer, sse.Event{Data: payload}); err != nil {
		s.log.Debug().Err(err).Msg("SSE write failed")
		return
	}
	c.Writer.Flush()
}

func progressPayload(ev pipeline.Event) gin.H {
	if ev.Type == pipeline.EventLog {
		return gin.H{"type": "log", "url": ev.URL, "status": ev.Status, "depth": ev.Depth}
	}
	return gin.H{"type": "status", "message": ev.Message}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, pipeline.ErrTimeout):
		return "timeout"
	case errors.Is(err, pipeline.ErrUnreachable):
		return "unreachable"
	default:
		return "internal"
	}
}
