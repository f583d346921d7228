package steps

import (
	"context"
	"errors"
	"testing"

	"ai-buildguide-be/internal/pkg/logger"
	"ai-buildguide-be/pkg/apperr"
	"ai-buildguide-be/pkg/llm"
	"ai-buildguide-be/pkg/store"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	reply  string
	err    error
	prompt string
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.reply, s.err
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	s.prompt = prompt
	return s.reply, s.err
}

func titles(steps []store.InstructionStep) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Title
	}
	return out
}

func TestSynthesizeTemplatesWithoutProvider(t *testing.T) {
	s := NewSynthesizer(nil, logger.NewNopLogger())

	tests := []struct {
		title string
		want  []store.InstructionStep
	}{
		{"LEGO Classic Creative Box 10698", kitBuildSteps},
		{"Wooden Shelf 3-tier", furnitureSteps},
		{"Standing Desk Frame", furnitureSteps},
		{"Dining Table Oak", furnitureSteps},
		{"Office Chair Mesh", furnitureSteps},
		{"Acme Widget", genericSteps},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got := s.Synthesize(context.Background(), tt.title, "")
			require.Len(t, got, 5)
			if diff := cmp.Diff(titles(tt.want), titles(got)); diff != "" {
				t.Errorf("template mismatch (-want +got):\n%s", diff)
			}
			for i, step := range got {
				assert.Equal(t, i+1, step.Ordinal)
			}
		})
	}
}

func TestTemplatesReturnCopies(t *testing.T) {
	a := Templates("lego")
	a[0].Title = "changed"
	a[0].Details[0] = "changed"

	b := Templates("lego")
	assert.Equal(t, "Sort the pieces", b[0].Title)
	assert.NotEqual(t, "changed", b[0].Details[0])
}

func TestKindPrefersConstructionToy(t *testing.T) {
	assert.Equal(t, KindKitBuild, Kind("LEGO table set"))
	assert.Equal(t, KindFurniture, Kind("IKEA BILLY"))
	assert.Equal(t, KindGeneric, Kind("bicycle"))
}

func TestKindMatchesWholeWords(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Portable speaker", KindGeneric},
		{"Vegetable chopper", KindGeneric},
		{"Embedded kit", KindGeneric},
		{"Brickyard lamp", KindGeneric},
		{"Bunk bed, twin", KindFurniture},
		{"Floating shelves (set of 2)", KindFurniture},
		{"Folding tables", KindFurniture},
		{"Classic bricks box", KindKitBuild},
		{"K'NEX Thrill Rides", KindKitBuild},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.title))
		})
	}
}

func TestSynthesizeFromProvider(t *testing.T) {
	stub := &stubLLM{reply: "Here are the steps:\n" + `[
		{"step": 4, "title": "Attach legs", "description": "Screw the four legs on.", "details": ["Use bolts A", " "], "tip": "Hand tighten"},
		{"step": 9, "title": "Flip", "description": "Turn the table over."}
	]` + "\nEnjoy!"}
	s := NewSynthesizer(stub, logger.NewNopLogger())

	got := s.Synthesize(context.Background(), "Dining Table", "https://x.example/table.pdf")

	want := []store.InstructionStep{
		{Ordinal: 1, Title: "Attach legs", Description: "Screw the four legs on.", Details: []string{"Use bolts A"}, Tip: "Hand tighten"},
		{Ordinal: 2, Title: "Flip", Description: "Turn the table over.", Details: []string{}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("steps mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, stub.prompt, "https://x.example/table.pdf")
}

func TestSynthesizeFallsBackOnBadReply(t *testing.T) {
	tests := []struct {
		name string
		stub *stubLLM
	}{
		{"no array", &stubLLM{reply: "I cannot help with that."}},
		{"broken json", &stubLLM{reply: `[{"title": "x",`}},
		{"empty array", &stubLLM{reply: `[]`}},
		{"provider down", &stubLLM{err: apperr.Unavailable("stub", errors.New("timeout"))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewSynthesizer(tt.stub, logger.NewNopLogger()).Synthesize(context.Background(), "Acme Widget", "")
			if diff := cmp.Diff(titles(genericSteps), titles(got)); diff != "" {
				t.Errorf("expected generic template (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseStepsErrors(t *testing.T) {
	_, err := ParseSteps("nothing here")
	assert.ErrorIs(t, err, apperr.ErrMalformedResponse)

	_, err = ParseSteps(`[{"title": "", "description": ""}]`)
	assert.ErrorIs(t, err, apperr.ErrMalformedResponse)

	got, err := ParseSteps(`[{"description": "Only a description"}]`)
	require.NoError(t, err)
	assert.Equal(t, "Step 1", got[0].Title)
}

func TestParseStepsIgnoresOrdinalType(t *testing.T) {
	got, err := ParseSteps(`[{"step": "1", "title": "Unbox"}, {"step": 2.5, "title": "Attach legs"}, {"title": "Flip"}]`)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Unbox", "Attach legs", "Flip"}, titles(got))
	assert.Equal(t, 3, got[2].Ordinal)
}
