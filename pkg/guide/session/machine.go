// Package session is the per-user navigation state machine.
//
// Transition is pure: it maps a State and a command to the next State and an
// Effect. Applying effects (starting a resolution, picking a project) and
// rendering text are left to the caller.
package session

import (
	"strings"

	"ai-buildguide-be/pkg/store"
)

type Intent int

const (
	IntentNone Intent = iota
	IntentNext
	IntentBack
	IntentRepeat
	IntentRestart
	IntentNew
)

func (i Intent) String() string {
	switch i {
	case IntentNext:
		return "next"
	case IntentBack:
		return "back"
	case IntentRepeat:
		return "repeat"
	case IntentRestart:
		return "restart"
	case IntentNew:
		return "new"
	default:
		return "none"
	}
}

// Checked in order; the first keyword group that matches decides.
var intentKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentRestart, []string{"start over", "restart", "beginning"}},
	{IntentNext, []string{"next", "continue", "forward"}},
	{IntentBack, []string{"back", "previous", "last"}},
	{IntentRepeat, []string{"repeat", "again", "what"}},
	{IntentNew, []string{"new", "another", "different"}},
}

// ParseIntent maps a free-form voice or text command to an Intent.
func ParseIntent(command string) Intent {
	c := strings.ToLower(strings.TrimSpace(command))
	if c == "" {
		return IntentNone
	}
	for _, group := range intentKeywords {
		for _, k := range group.keywords {
			if strings.Contains(c, k) {
				return group.intent
			}
		}
	}
	return IntentNone
}

type Effect int

const (
	// EffectNone: the command has no transition in this phase.
	EffectNone Effect = iota
	EffectStartResolution
	EffectAwaitResolution
	EffectSelectProject
	EffectRenderStep
	EffectRenderCompletion
	EffectClearProject
	EffectPromptScan
)

func (e Effect) String() string {
	return [...]string{
		"none",
		"start_resolution",
		"await_resolution",
		"select_project",
		"render_step",
		"render_completion",
		"clear_project",
		"prompt_scan",
	}[e]
}

// State is the part of a session the transition function reads and writes.
type State struct {
	Phase       store.Phase
	StepIndex   int
	TotalSteps  int
	Resolving   bool
	CatalogSize int
	HasBarcode  bool
}

type Outcome struct {
	Next   State
	Effect Effect
	Intent Intent
}

// Transition interprets command against s.
func Transition(s State, command string) Outcome {
	intent := ParseIntent(command)
	out := Outcome{Next: s, Effect: EffectNone, Intent: intent}

	switch s.Phase {
	case store.PhaseWelcome:
		out = welcome(s, out)

	case store.PhaseSelecting:
		if s.CatalogSize > 0 {
			out.Next.Phase = store.PhaseBuilding
			out.Next.StepIndex = 0
			out.Effect = EffectSelectProject
			return out
		}
		out = welcome(s, out)
		out.Next.Phase = store.PhaseSelecting

	case store.PhaseBuilding:
		if s.TotalSteps <= 0 {
			out.Next.Phase = store.PhaseSelecting
			out.Next.StepIndex = 0
			out.Next.TotalSteps = 0
			out.Effect = EffectClearProject
			return out
		}
		out = building(s, out)

	case store.PhaseCompleted:
		if intent == IntentNew {
			out.Next.Phase = store.PhaseSelecting
			out.Next.StepIndex = 0
			out.Next.TotalSteps = 0
			out.Effect = EffectClearProject
		}
	}

	return out
}

func welcome(s State, out Outcome) Outcome {
	switch {
	case s.Resolving:
		out.Effect = EffectAwaitResolution
	case s.HasBarcode:
		out.Next.Resolving = true
		out.Effect = EffectStartResolution
	case s.CatalogSize > 0:
		out.Next.Phase = store.PhaseSelecting
	default:
		out.Effect = EffectPromptScan
	}
	return out
}

func building(s State, out Outcome) Outcome {
	last := s.TotalSteps - 1
	idx := clamp(s.StepIndex, 0, last)

	switch out.Intent {
	case IntentNext:
		if idx >= last {
			out.Next.Phase = store.PhaseCompleted
			out.Next.StepIndex = last
			out.Effect = EffectRenderCompletion
			return out
		}
		out.Next.StepIndex = idx + 1
		out.Effect = EffectRenderStep
	case IntentBack:
		out.Next.StepIndex = clamp(idx-1, 0, last)
		out.Effect = EffectRenderStep
	case IntentRepeat:
		out.Next.StepIndex = idx
		out.Effect = EffectRenderStep
	case IntentRestart:
		out.Next.StepIndex = 0
		out.Effect = EffectRenderStep
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
