package dto

import (
	"time"

	"ai-buildguide-be/pkg/store"
)

type ResolveRequest struct {
	Barcode string `json:"barcode" validate:"omitempty,max=64"`
	Command string `json:"command" validate:"max=200"`
}

type StepResponse struct {
	Step        int      `json:"step"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Details     []string `json:"details"`
	Tip         string   `json:"tip,omitempty"`
	Diagrams    []string `json:"diagrams,omitempty"`
}

type ProjectResponse struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Source     store.Source   `json:"source"`
	TotalSteps int            `json:"total_steps"`
	ManualURL  string         `json:"manual_url,omitempty"`
	Steps      []StepResponse `json:"steps"`
}

type ResolveResponse struct {
	Barcode    string          `json:"barcode"`
	ResolvedAt time.Time       `json:"resolved_at"`
	Project    ProjectResponse `json:"project"`
}

type BarcodeResponse struct {
	Barcode    string  `json:"barcode,omitempty"`
	Known      bool    `json:"known"`
	AgeSeconds float64 `json:"age_seconds"`
}

func NewProjectResponse(p *store.Project) ProjectResponse {
	steps := make([]StepResponse, 0, len(p.Steps))
	for _, s := range p.Steps {
		steps = append(steps, StepResponse{
			Step:        s.Ordinal,
			Title:       s.Title,
			Description: s.Description,
			Details:     s.Details,
			Tip:         s.Tip,
			Diagrams:    s.Diagrams,
		})
	}
	return ProjectResponse{
		ID:         p.ID,
		Name:       p.Name,
		Source:     p.Source,
		TotalSteps: p.TotalSteps(),
		ManualURL:  p.ManualURL,
		Steps:      steps,
	}
}

func NewResolveResponse(e *store.ResolutionEntry) ResolveResponse {
	return ResolveResponse{
		Barcode:    e.Barcode,
		ResolvedAt: e.ResolvedAt,
		Project:    NewProjectResponse(e.Project),
	}
}
