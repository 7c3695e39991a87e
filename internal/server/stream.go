package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"peaceproc/internal/logging"
)

const (
	streamDone  = "[DONE]"
	streamError = "[ERROR]: "
	// followWait bounds a long poll on /logs.
	followWait = 25 * time.Second
)

func (s *Server) handleGenerateTextStream(c *gin.Context) {
	var req textRequest
	if err := bindBody(c, &req); err != nil {
		badRequest(c, msgNoJSON)
		return
	}
	if strings.TrimSpace(req.UserPrompt) == "" {
		badRequest(c, msgUserPromptMissing)
		return
	}

	ctx := c.Request.Context()
	chunks, errs := s.opts.Pipeline.GenerateTextStream(ctx, req.UserPrompt, req.EmotionalState)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	for chunk := range chunks {
		if !writeEvent(c, chunk) {
			// Client is gone; the producer sees ctx and stops.
			for range chunks {
			}
			return
		}
	}
	if err := <-errs; err != nil {
		if !errors.Is(err, context.Canceled) {
			logging.WarnWithContext(logging.WithContext(ctx, s.logger), "text stream failed", "stream_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "client received an error event"),
			)
		}
		writeEvent(c, streamError+err.Error())
		return
	}
	writeEvent(c, streamDone)
}

func writeEvent(c *gin.Context, data string) bool {
	if _, err := c.Writer.WriteString("data: " + data + "\n\n"); err != nil {
		return false
	}
	c.Writer.Flush()
	return true
}

type logsResponse struct {
	Events []logging.LogEvent `json:"events"`
	Next   uint64             `json:"next"`
}

func (s *Server) handleLogs(c *gin.Context) {
	hub := s.opts.Logs
	if hub == nil {
		c.JSON(http.StatusOK, logsResponse{Events: []logging.LogEvent{}})
		return
	}

	since, _ := strconv.ParseUint(c.Query("since"), 10, 64)
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 {
		limit = 200
	}
	follow := queryBool(c, "follow")
	tail := queryBool(c, "tail")
	session := strings.TrimSpace(c.Query("session"))
	component := strings.TrimSpace(c.Query("component"))

	var (
		events []logging.LogEvent
		next   uint64
	)
	if tail && since == 0 && !follow {
		events, next = hub.Tail(limit)
	} else {
		ctx := c.Request.Context()
		if follow {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, followWait)
			defer cancel()
		}
		var err error
		events, next, err = hub.Fetch(ctx, since, limit, follow)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	filtered := make([]logging.LogEvent, 0, len(events))
	for _, evt := range events {
		if session != "" && evt.SessionID != session {
			continue
		}
		if component != "" && !strings.EqualFold(component, evt.Component) {
			continue
		}
		filtered = append(filtered, evt)
	}
	c.JSON(http.StatusOK, logsResponse{Events: filtered, Next: next})
}

func queryBool(c *gin.Context, key string) bool {
	value := c.Query(key)
	return value == "1" || strings.EqualFold(value, "true")
}
