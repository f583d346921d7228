package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-buildguide-be/internal/pkg/logger"
	"ai-buildguide-be/internal/repository/memory"
	"ai-buildguide-be/pkg/apperr"
	"ai-buildguide-be/pkg/guide/pipeline"
	"ai-buildguide-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	code string
}

func (s staticTokens) Current(ctx context.Context) (string, bool) {
	return s.code, s.code != ""
}

type stubResolver struct {
	mu      sync.Mutex
	project *store.Project
	err     error
	gate    chan struct{}
	calls   []string
}

func (r *stubResolver) Resolve(ctx context.Context, command, barcode string) (*store.Project, error) {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, barcode)
	return r.project, r.err
}

type stubHosted struct {
	project *store.Project
}

func (h stubHosted) Hosted(ctx context.Context) (*store.Project, error) {
	if h.project == nil {
		return nil, apperr.Unconfigured("hosted dataset")
	}
	return h.project, nil
}

type recordingDisplay struct {
	mu      sync.Mutex
	replies []Reply
}

func (d *recordingDisplay) Push(r Reply) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.replies = append(d.replies, r)
}

func (d *recordingDisplay) All() []Reply {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Reply(nil), d.replies...)
}

func mustProject(t *testing.T, id string, src store.Source, n int) *store.Project {
	t.Helper()
	steps := make([]store.InstructionStep, n)
	for i := range steps {
		steps[i] = store.InstructionStep{Title: "step", Description: "do it"}
	}
	p, err := store.NewProject(id, id, src, steps)
	require.NoError(t, err)
	return p
}

func newSessionService(t *testing.T, code string, resolver Resolver, hosted *store.Project) (ISessionService, *recordingDisplay) {
	t.Helper()
	pc := pipeline.NewPipelineContext(staticTokens{code: code}, memory.NewResolutionCache())
	svc := NewSessionService(memory.NewSessionRepository(time.Hour, 0), pc, resolver, stubHosted{project: hosted}, logger.NewNopLogger())
	display := &recordingDisplay{}
	svc.SetDisplay(display)
	t.Cleanup(svc.Wait)
	return svc, display
}

func TestSessionResolvesAndAutoStarts(t *testing.T) {
	resolver := &stubResolver{project: mustProject(t, "barcode-0123", store.SourceBarcodePipeline, 3)}
	svc, display := newSessionService(t, "0123", resolver, nil)
	ctx := context.Background()

	welcome, err := svc.Connect(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.PhaseWelcome, welcome.Phase)

	reply, err := svc.Handle(ctx, welcome.SessionID, "hello")
	require.NoError(t, err)
	assert.Equal(t, store.PhaseWelcome, reply.Phase)
	assert.Contains(t, reply.Text, "Looking up instructions for 0123")

	svc.Wait()
	pushed := display.All()
	require.Len(t, pushed, 1)
	assert.Equal(t, store.PhaseBuilding, pushed[0].Phase)
	assert.Contains(t, pushed[0].Text, "Step 1/3")

	reply, err = svc.Handle(ctx, welcome.SessionID, "next")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Step 2/3")

	snap, err := svc.Snapshot(welcome.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "barcode-0123", snap.ProjectID)
	assert.Equal(t, 1, snap.StepIndex)
	assert.Equal(t, []string{"0123"}, resolver.calls)
}

func TestSessionIgnoresCommandsWhileResolving(t *testing.T) {
	resolver := &stubResolver{
		project: mustProject(t, "barcode-0123", store.SourceBarcodePipeline, 3),
		gate:    make(chan struct{}),
	}
	svc, _ := newSessionService(t, "0123", resolver, nil)
	ctx := context.Background()

	welcome, _ := svc.Connect(ctx)
	_, err := svc.Handle(ctx, welcome.SessionID, "go")
	require.NoError(t, err)
	reply, err := svc.Handle(ctx, welcome.SessionID, "go again")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Looking up")

	close(resolver.gate)
	svc.Wait()
	assert.Len(t, resolver.calls, 1)
}

func TestSessionFailureWithHostedGoesToSelecting(t *testing.T) {
	hosted := mustProject(t, "hosted-kallax", store.SourceHostedDataset, 5)
	resolver := &stubResolver{err: apperr.ErrNoResultFound}
	svc, display := newSessionService(t, "999", resolver, hosted)
	ctx := context.Background()

	welcome, _ := svc.Connect(ctx)
	_, err := svc.Handle(ctx, welcome.SessionID, "hi")
	require.NoError(t, err)
	svc.Wait()

	pushed := display.All()
	require.Len(t, pushed, 1)
	assert.Equal(t, store.PhaseSelecting, pushed[0].Phase)
	assert.Contains(t, pushed[0].Text, "Could not find instructions for 999")
	assert.Contains(t, pushed[0].Text, "Ready: hosted-kallax (5 steps)")

	reply, err := svc.Handle(ctx, welcome.SessionID, "ok")
	require.NoError(t, err)
	assert.Equal(t, store.PhaseBuilding, reply.Phase)
	assert.Contains(t, reply.Text, "Step 1/5")
}

func TestSessionFailureWithoutHostedStaysInWelcome(t *testing.T) {
	resolver := &stubResolver{err: errors.New("boom")}
	svc, display := newSessionService(t, "999", resolver, nil)
	ctx := context.Background()

	welcome, _ := svc.Connect(ctx)
	_, _ = svc.Handle(ctx, welcome.SessionID, "hi")
	svc.Wait()

	pushed := display.All()
	require.Len(t, pushed, 1)
	assert.Equal(t, store.PhaseWelcome, pushed[0].Phase)
	assert.Contains(t, pushed[0].Text, "Could not find instructions")
}

func TestSessionPrefersPipelineProject(t *testing.T) {
	hosted := mustProject(t, "hosted-kallax", store.SourceHostedDataset, 5)
	resolver := &stubResolver{project: mustProject(t, "barcode-1", store.SourceBarcodePipeline, 2)}
	svc, _ := newSessionService(t, "1", resolver, hosted)
	ctx := context.Background()

	welcome, _ := svc.Connect(ctx)
	_, _ = svc.Handle(ctx, welcome.SessionID, "hi")
	svc.Wait()

	_, _ = svc.Handle(ctx, welcome.SessionID, "next")
	reply, _ := svc.Handle(ctx, welcome.SessionID, "next")
	assert.Equal(t, store.PhaseCompleted, reply.Phase)

	reply, _ = svc.Handle(ctx, welcome.SessionID, "new project")
	assert.Equal(t, store.PhaseSelecting, reply.Phase)

	reply, _ = svc.Handle(ctx, welcome.SessionID, "start")
	assert.Equal(t, store.PhaseBuilding, reply.Phase)
	assert.Contains(t, reply.Text, "Step 1/2")
}

func TestSessionWithoutBarcodePromptsScan(t *testing.T) {
	svc, _ := newSessionService(t, "", &stubResolver{}, nil)
	ctx := context.Background()

	welcome, _ := svc.Connect(ctx)
	reply, err := svc.Handle(ctx, welcome.SessionID, "hi")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "No barcode yet")
}

func TestDisconnectDiscardsInFlightResolution(t *testing.T) {
	resolver := &stubResolver{
		project: mustProject(t, "barcode-0123", store.SourceBarcodePipeline, 3),
		gate:    make(chan struct{}),
	}
	svc, display := newSessionService(t, "0123", resolver, nil)
	ctx := context.Background()

	welcome, _ := svc.Connect(ctx)
	_, _ = svc.Handle(ctx, welcome.SessionID, "go")
	svc.Disconnect(welcome.SessionID)

	close(resolver.gate)
	svc.Wait()
	assert.Empty(t, display.All())

	_, err := svc.Handle(ctx, welcome.SessionID, "next")
	assert.ErrorIs(t, err, apperr.ErrSessionNotFound)
	_, err = svc.Snapshot(welcome.SessionID)
	assert.ErrorIs(t, err, apperr.ErrSessionNotFound)
}

func TestActiveSessionOutlivesIdleWindow(t *testing.T) {
	pc := pipeline.NewPipelineContext(staticTokens{}, memory.NewResolutionCache())
	repo := memory.NewSessionRepository(100*time.Millisecond, 0)
	svc := NewSessionService(repo, pc, &stubResolver{}, stubHosted{}, logger.NewNopLogger())
	ctx := context.Background()

	welcome, err := svc.Connect(ctx)
	require.NoError(t, err)

	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		_, err := svc.Handle(ctx, welcome.SessionID, "repeat")
		require.NoError(t, err)
		time.Sleep(20 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)
	_, err = svc.Handle(ctx, welcome.SessionID, "repeat")
	assert.ErrorIs(t, err, apperr.ErrSessionNotFound)
}
