package session

import (
	"time"

	"ai-buildguide-be/pkg/guide/catalog"
	"ai-buildguide-be/pkg/store"
)

// UserSession is one connected user's navigation state.
type UserSession struct {
	ID        string
	Phase     store.Phase
	Active    *store.Project
	StepIndex int
	Catalog   *catalog.Catalog
	Resolving bool
	Barcode   string
	Notice    string
	StartedAt time.Time
	// when the in-flight lookup began
	ResolveStartedAt time.Time
}

func New(id string, now time.Time) *UserSession {
	return &UserSession{
		ID:        id,
		Phase:     store.PhaseWelcome,
		Catalog:   catalog.New(),
		StartedAt: now,
	}
}

// State snapshots the fields Transition needs.
func (s *UserSession) State(hasBarcode bool) State {
	total := 0
	if s.Active != nil {
		total = s.Active.TotalSteps()
	}
	return State{
		Phase:       s.Phase,
		StepIndex:   s.StepIndex,
		TotalSteps:  total,
		Resolving:   s.Resolving,
		CatalogSize: s.Catalog.Len(),
		HasBarcode:  hasBarcode,
	}
}

// Apply writes an outcome back and performs the effects that only touch the
// session itself. Resolution effects are left to the caller.
func (s *UserSession) Apply(o Outcome) {
	s.Phase = o.Next.Phase
	s.StepIndex = o.Next.StepIndex
	s.Resolving = o.Next.Resolving

	switch o.Effect {
	case EffectSelectProject:
		s.Active = s.Catalog.Preferred()
		s.StepIndex = 0
		if s.Active == nil {
			s.Phase = store.PhaseSelecting
		}
	case EffectClearProject:
		s.Active = nil
		s.StepIndex = 0
	}

	if o.Effect != EffectNone {
		s.Notice = ""
	}
}

// BeginResolution records the barcode being looked up and when the lookup began.
func (s *UserSession) BeginResolution(barcode string, now time.Time) {
	s.Barcode = barcode
	s.ResolveStartedAt = now
}

// Start activates p at its first step.
func (s *UserSession) Start(p *store.Project) {
	s.Catalog.Add(p)
	s.Active = p
	s.StepIndex = 0
	s.Phase = store.PhaseBuilding
	s.Notice = ""
}

// Snapshot is a read-only view for transports.
type Snapshot struct {
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

func (s *UserSession) Snapshot() Snapshot {
	snap := Snapshot{
		ID:        s.ID,
		Phase:     s.Phase,
		StepIndex: s.StepIndex,
		Resolving: s.Resolving,
		Barcode:   s.Barcode,
		Catalog:   []string{},
		StartedAt: s.StartedAt,
	}
	if s.Active != nil {
		snap.ProjectID = s.Active.ID
		snap.ProjectName = s.Active.Name
		snap.TotalSteps = s.Active.TotalSteps()
	}
	for _, p := range s.Catalog.Projects() {
		snap.Catalog = append(snap.Catalog, p.ID)
	}
	return snap
}
