package server

import (
	"time"

	"peaceproc/internal/runstore"
)

type processRequest struct {
	UserPrompt     string `json:"user_prompt"`
	EmotionalState string `json:"emotional_state"`
	OutputPath     string `json:"output_path"`
}

type textRequest struct {
	UserPrompt     string `json:"user_prompt"`
	EmotionalState string `json:"emotional_state"`
}

type imageRequest struct {
	TextContent string `json:"text_content"`
	SessionID   string `json:"session_id"`
	OutputPath  string `json:"output_path"`
}

type videoRequest struct {
	TextContent string `json:"text_content"`
	ImagePath   string `json:"image_path"`
	SessionID   string `json:"session_id"`
	OutputPath  string `json:"output_path"`
}

// response is the envelope of every JSON workflow endpoint. Fields that do
// not apply to an endpoint are omitted.
type response struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	VideoPath   string `json:"video_path,omitempty"`
	Placeholder *bool  `json:"placeholder,omitempty"`
	Text        string `json:"text,omitempty"`
	ImagePath   string `json:"image_path,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	ErrorKind   string `json:"error_kind,omitempty"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// RunView is the transport form of a journal entry.
type RunView struct {
	ID             string `json:"id"`
	Workflow       string `json:"workflow"`
	SessionID      string `json:"session_id,omitempty"`
	UserPrompt     string `json:"user_prompt,omitempty"`
	EmotionalState string `json:"emotional_state,omitempty"`
	State          string `json:"state"`
	Status         string `json:"status"`
	IntentKind     string `json:"intent_kind,omitempty"`
	MusicType      string `json:"music_type,omitempty"`
	ArtifactPath   string `json:"artifact_path,omitempty"`
	Placeholder    bool   `json:"placeholder"`
	ErrorMessage   string `json:"error_message,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
	FinishedAt     string `json:"finished_at,omitempty"`
	DurationMillis int64  `json:"duration_ms,omitempty"`
}

type runsResponse struct {
	Runs []RunView `json:"runs"`
}

func runView(run runstore.Run) RunView {
	return RunView{
		ID:             run.ID,
		Workflow:       run.Workflow,
		SessionID:      run.SessionID,
		UserPrompt:     run.UserPrompt,
		EmotionalState: run.EmotionalState,
		State:          run.State,
		Status:         string(run.Status),
		IntentKind:     run.IntentKind,
		MusicType:      run.MusicType,
		ArtifactPath:   run.ArtifactPath,
		Placeholder:    run.Placeholder,
		ErrorMessage:   run.ErrorMessage,
		CreatedAt:      formatTime(run.CreatedAt),
		FinishedAt:     formatTime(run.FinishedAt),
		DurationMillis: run.Duration().Milliseconds(),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
