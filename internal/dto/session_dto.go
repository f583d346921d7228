package dto

import (
	"time"

	"ai-buildguide-be/pkg/guide/session"
	"ai-buildguide-be/pkg/store"
)

type SessionCommandRequest struct {
	Command string `json:"command" validate:"required,max=200"`
}

// DisplayFrame is the reply to a command and every asynchronous push.
type DisplayFrame struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Phase     store.Phase `json:"phase"`
	Text      string      `json:"text"`
}

const (
	FrameTypeDisplay = "display"
	FrameTypeError   = "error"
)

type SessionResponse struct {
	ID          string      `json:"id"`
	Phase       store.Phase `json:"phase"`
	ProjectID   string      `json:"project_id,omitempty"`
	ProjectName string      `json:"project_name,omitempty"`
	StepIndex   int         `json:"step_index"`
	TotalSteps  int         `json:"total_steps"`
	Resolving   bool        `json:"resolving"`
	Barcode     string      `json:"barcode,omitempty"`
	Catalog     []string    `json:"catalog"`
	StartedAt   time.Time   `json:"started_at"`
}

func NewSessionResponse(s session.Snapshot) SessionResponse {
	return SessionResponse{
		ID:          s.ID,
		Phase:       s.Phase,
		ProjectID:   s.ProjectID,
		ProjectName: s.ProjectName,
		StepIndex:   s.StepIndex,
		TotalSteps:  s.TotalSteps,
		Resolving:   s.Resolving,
		Barcode:     s.Barcode,
		Catalog:     s.Catalog,
		StartedAt:   s.StartedAt,
	}
}
