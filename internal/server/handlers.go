package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"peaceproc/internal/fileutil"
	"peaceproc/internal/logging"
	"peaceproc/internal/pipeline"
	"peaceproc/internal/runstore"
	"peaceproc/internal/services"
)

const (
	msgNoJSON            = "No JSON data provided"
	msgUserPromptMissing = "user_prompt is required"
	msgTextMissing       = "text_content is required"
)

var errNoJSON = errors.New(msgNoJSON)

// bindBody decodes a non-empty JSON object into dst. A missing, malformed or
// empty body is rejected the same way.
func bindBody(c *gin.Context, dst any) error {
	var raw map[string]json.RawMessage
	if err := c.ShouldBindBodyWith(&raw, binding.JSON); err != nil || len(raw) == 0 {
		return errNoJSON
	}
	if err := c.ShouldBindBodyWith(dst, binding.JSON); err != nil {
		return errNoJSON
	}
	return nil
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, response{Success: false, Message: message})
}

func (s *Server) failed(c *gin.Context, prefix string, err error) {
	kind := services.Kind(err)
	logging.ErrorWithContext(logging.WithContext(c.Request.Context(), s.logger), prefix, "request_failed",
		logging.Error(err),
		logging.ErrorKind(kind),
		logging.String("path", c.Request.URL.Path),
	)
	c.JSON(http.StatusInternalServerError, response{
		Success:   false,
		Message:   prefix + ": " + err.Error(),
		ErrorKind: kind,
	})
}

func (s *Server) outputRoot(requested string) string {
	if root := strings.TrimSpace(requested); root != "" {
		return root
	}
	return s.opts.OutputRoot
}

// sessionID sanitizes a caller-supplied id so it stays one path segment.
func (s *Server) sessionID(requested string) string {
	if id := fileutil.SanitizeSegment(requested); id != "" {
		return id
	}
	return pipeline.NewSessionID(s.opts.Clock)
}

func (s *Server) handleProcess(c *gin.Context) {
	var req processRequest
	if err := bindBody(c, &req); err != nil {
		badRequest(c, msgNoJSON)
		return
	}
	if strings.TrimSpace(req.UserPrompt) == "" {
		badRequest(c, msgUserPromptMissing)
		return
	}

	outcome, err := s.opts.Pipeline.RunPipeline(c.Request.Context(), pipeline.RunRequest{
		UserPrompt:     req.UserPrompt,
		EmotionalState: req.EmotionalState,
		OutputPath:     pipeline.TempRunPath(s.outputRoot(req.OutputPath), s.opts.Clock),
	})
	if err != nil {
		s.failed(c, "Pipeline execution failed", err)
		return
	}
	c.JSON(http.StatusOK, response{
		Success:     true,
		VideoPath:   outcome.Path,
		Placeholder: &outcome.Placeholder,
		Message:     "Pipeline execution completed successfully",
	})
}

func (s *Server) handleGenerateText(c *gin.Context) {
	var req textRequest
	if err := bindBody(c, &req); err != nil {
		badRequest(c, msgNoJSON)
		return
	}
	if strings.TrimSpace(req.UserPrompt) == "" {
		badRequest(c, msgUserPromptMissing)
		return
	}

	text, err := s.opts.Pipeline.GenerateTextOnly(c.Request.Context(), req.UserPrompt, req.EmotionalState)
	if err != nil {
		s.failed(c, "Text generation failed", err)
		return
	}
	c.JSON(http.StatusOK, response{
		Success: true,
		Text:    text,
		Message: "Text generation completed successfully",
	})
}

func (s *Server) handleGenerateImage(c *gin.Context) {
	var req imageRequest
	if err := bindBody(c, &req); err != nil {
		badRequest(c, msgNoJSON)
		return
	}
	if strings.TrimSpace(req.TextContent) == "" {
		badRequest(c, msgTextMissing)
		return
	}

	sessionID := s.sessionID(req.SessionID)
	dir := pipeline.SessionPath(s.outputRoot(req.OutputPath), pipeline.KindImages, sessionID)
	imagePath, err := s.opts.Pipeline.GenerateImageOnly(c.Request.Context(), req.TextContent, dir)
	if err != nil {
		s.failed(c, "Image generation failed", err)
		return
	}
	c.JSON(http.StatusOK, response{
		Success:   true,
		ImagePath: imagePath,
		SessionID: sessionID,
		Message:   "Image generation completed successfully",
	})
}

func (s *Server) handleGenerateVideo(c *gin.Context) {
	var req videoRequest
	if err := bindBody(c, &req); err != nil {
		badRequest(c, msgNoJSON)
		return
	}
	if strings.TrimSpace(req.TextContent) == "" {
		badRequest(c, msgTextMissing)
		return
	}

	sessionID := s.sessionID(req.SessionID)
	outcome, err := s.opts.Pipeline.GenerateVideoOnly(c.Request.Context(), pipeline.VideoRequest{
		Text:       req.TextContent,
		ImagePath:  req.ImagePath,
		OutputPath: pipeline.SessionPath(s.outputRoot(req.OutputPath), pipeline.KindVideos, sessionID),
	})
	if err != nil {
		s.failed(c, "Video generation failed", err)
		return
	}
	c.JSON(http.StatusOK, response{
		Success:     true,
		VideoPath:   outcome.Path,
		Placeholder: &outcome.Placeholder,
		SessionID:   sessionID,
		Message:     "Video generation completed successfully",
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "healthy", Service: ServiceName})
}

func (s *Server) handleRuns(c *gin.Context) {
	if s.opts.Runs == nil {
		c.JSON(http.StatusOK, runsResponse{Runs: []RunView{}})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 {
		limit = 50
	}
	var statuses []runstore.Status
	for _, value := range c.QueryArray("status") {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			statuses = append(statuses, runstore.Status(trimmed))
		}
	}

	runs, err := s.opts.Runs.List(c.Request.Context(), limit, statuses...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	views := make([]RunView, 0, len(runs))
	for _, run := range runs {
		views = append(views, runView(run))
	}
	c.JSON(http.StatusOK, runsResponse{Runs: views})
}
