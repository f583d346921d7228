package session

import (
	"fmt"
	"strings"
	"time"

	"ai-buildguide-be/pkg/store"
)

const (
	welcomeText   = "Welcome! Scan a barcode, then say anything to look up its instructions."
	promptScanTxt = "No barcode yet. Scan the product barcode and try again."
)

// Render produces the text shown for the session's current phase.
func Render(s *UserSession, now time.Time) string {
	switch s.Phase {
	case store.PhaseWelcome:
		return renderWelcome(s, now)
	case store.PhaseSelecting:
		return renderSelecting(s)
	case store.PhaseBuilding:
		if s.Active == nil {
			return renderSelecting(s)
		}
		step, ok := s.Active.Step(s.StepIndex)
		if !ok {
			return renderCompletion(s, now)
		}
		return renderStep(s, step, now)
	case store.PhaseCompleted:
		return renderCompletion(s, now)
	}
	return welcomeText
}

// RenderPromptScan is shown when a command arrives with nothing to resolve.
func RenderPromptScan() string {
	return promptScanTxt
}

func renderWelcome(s *UserSession, now time.Time) string {
	if s.Resolving {
		return fmt.Sprintf("Looking up instructions for %s... (%s)", s.Barcode, clock(now.Sub(s.ResolveStartedAt)))
	}
	if s.Notice != "" {
		return s.Notice + "\n" + welcomeText
	}
	return welcomeText
}

func renderSelecting(s *UserSession) string {
	var sb strings.Builder
	if s.Notice != "" {
		sb.WriteString(s.Notice)
		sb.WriteString("\n")
	}

	preferred := s.Catalog.Preferred()
	if preferred == nil {
		sb.WriteString("No projects available yet. Scan a barcode to find one.")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Ready: %s (%d steps).", preferred.Name, preferred.TotalSteps())
	if others := s.Catalog.Len() - 1; others > 0 {
		fmt.Fprintf(&sb, " %d other project(s) available.", others)
	}
	sb.WriteString(" Say anything to start.")
	return sb.String()
}

func renderStep(s *UserSession, step store.InstructionStep, now time.Time) string {
	total := s.Active.TotalSteps()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Step %d/%d: %s\n", step.Ordinal, total, step.Title)
	if step.Description != "" {
		sb.WriteString(step.Description)
		sb.WriteString("\n")
	}
	for _, d := range step.Details {
		sb.WriteString("- ")
		sb.WriteString(d)
		sb.WriteString("\n")
	}
	if step.Tip != "" {
		fmt.Fprintf(&sb, "Tip: %s\n", step.Tip)
	}
	sb.WriteString(progress(s.StepIndex, total, now.Sub(s.StartedAt)))
	return sb.String()
}

func renderCompletion(s *UserSession, now time.Time) string {
	name := "the project"
	total := 0
	if s.Active != nil {
		name = s.Active.Name
		total = s.Active.TotalSteps()
	}
	return fmt.Sprintf("All %d steps of %s done in %s. Say \"new project\" to build something else.",
		total, name, clock(now.Sub(s.StartedAt)))
}

// progress estimates the remaining time from the average time per finished step.
func progress(index, total int, elapsed time.Duration) string {
	pct := index * 100 / total
	line := fmt.Sprintf("Progress: %d%% | elapsed %s", pct, clock(elapsed))
	if index > 0 {
		perStep := elapsed / time.Duration(index)
		remaining := perStep * time.Duration(total-index)
		line += fmt.Sprintf(" | about %s left", clock(remaining))
	}
	return line
}

func clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	m := int(d / time.Minute)
	sec := int((d % time.Minute) / time.Second)
	return fmt.Sprintf("%d:%02d", m, sec)
}
