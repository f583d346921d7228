package store

import (
	"fmt"
	"strings"
	"time"

	"ai-buildguide-be/pkg/apperr"
)

// Source tells where a project came from
type Source string

const (
	SourceHostedDataset        Source = "hosted-dataset"
	SourceBarcodePipeline      Source = "barcode-pipeline"
	SourceVisionIdentification Source = "vision-identification"
)

// InstructionStep is one navigable step of a project.
// Ordinal is 1-based and always equals the step's position in Project.Steps.
type InstructionStep struct {
	Ordinal     int      `json:"step"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Details     []string `json:"details"`
	Tip         string   `json:"tip,omitempty"`
	Diagrams    []string `json:"diagrams,omitempty"`
}

// Project is a resolved, ordered set of instruction steps for one product
type Project struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Source    Source            `json:"source"`
	Steps     []InstructionStep `json:"steps"`
	ManualURL string            `json:"manual_url,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewProject builds a project and renumbers the steps 1..n.
// A project without steps is not a project.
func NewProject(id, name string, source Source, steps []InstructionStep) (*Project, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("project %q has no steps: %w", name, apperr.ErrNoResultFound)
	}

	numbered := make([]InstructionStep, len(steps))
	for i, s := range steps {
		s.Ordinal = i + 1
		if s.Details == nil {
			s.Details = []string{}
		}
		numbered[i] = s
	}

	return &Project{
		ID:        id,
		Name:      strings.TrimSpace(name),
		Source:    source,
		Steps:     numbered,
		CreatedAt: time.Now(),
	}, nil
}

func (p *Project) TotalSteps() int {
	return len(p.Steps)
}

// Step returns the step at a 0-based index.
func (p *Project) Step(index int) (InstructionStep, bool) {
	if index < 0 || index >= len(p.Steps) {
		return InstructionStep{}, false
	}
	return p.Steps[index], true
}

// Validate checks the non-empty and contiguous-ordinal invariants.
func (p *Project) Validate() error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("project %s: empty step list", p.ID)
	}
	for i, s := range p.Steps {
		if s.Ordinal != i+1 {
			return fmt.Errorf("project %s: step at index %d has ordinal %d", p.ID, i, s.Ordinal)
		}
	}
	return nil
}

// ResolutionEntry is the immutable cache record for one barcode.
type ResolutionEntry struct {
	Barcode    string    `json:"barcode"`
	Project    *Project  `json:"project"`
	ManualURL  string    `json:"manual_url,omitempty"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// Phase is one of the four session states
type Phase string

const (
	PhaseWelcome   Phase = "welcome"
	PhaseSelecting Phase = "selecting"
	PhaseBuilding  Phase = "building"
	PhaseCompleted Phase = "completed"
)
