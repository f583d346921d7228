package service

import (
	"context"
	"fmt"
	"sync"

	"ai-buildguide-be/internal/pkg/logger"
	"ai-buildguide-be/internal/repository/memory"
	"ai-buildguide-be/pkg/apperr"
	"ai-buildguide-be/pkg/guide/pipeline"
	"ai-buildguide-be/pkg/guide/session"
	"ai-buildguide-be/pkg/store"

	"github.com/google/uuid"
)

const sessionModule = "SessionService"

// Reply is what a transport shows after a command or an async update.
type Reply struct {
	SessionID string      `json:"session_id"`
	Phase     store.Phase `json:"phase"`
	Text      string      `json:"text"`
}

// Display receives text produced outside a request, e.g. when a resolution
// finishes after the command that started it has returned.
type Display interface {
	Push(reply Reply)
}

// Resolver is the part of the pipeline the session service needs.
type Resolver interface {
	Resolve(ctx context.Context, command, barcode string) (*store.Project, error)
}

type ISessionService interface {
	Connect(ctx context.Context) (Reply, error)
	Handle(ctx context.Context, sessionID, command string) (Reply, error)
	Disconnect(sessionID string)
	Snapshot(sessionID string) (session.Snapshot, error)
	SetDisplay(d Display)
	Wait()
}

type sessionService struct {
	repo     *memory.SessionRepository
	pc       *pipeline.PipelineContext
	resolver Resolver
	hosted   IDatasetService
	logger   logger.ILogger

	locks sync.Map // session id -> *sync.Mutex

	displayMu sync.RWMutex
	display   Display

	pending sync.WaitGroup
}

func NewSessionService(
	repo *memory.SessionRepository,
	pc *pipeline.PipelineContext,
	resolver Resolver,
	hosted IDatasetService,
	logger logger.ILogger,
) ISessionService {
	ss := &sessionService{
		repo:     repo,
		pc:       pc,
		resolver: resolver,
		hosted:   hosted,
		logger:   logger,
	}
	// idle sessions expire from the repository; drop their locks with them
	repo.OnEvicted(func(id string) {
		ss.locks.Delete(id)
	})
	return ss
}

func (ss *sessionService) SetDisplay(d Display) {
	ss.displayMu.Lock()
	ss.display = d
	ss.displayMu.Unlock()
}

// Connect creates a session and seeds its catalog with the hosted project.
func (ss *sessionService) Connect(ctx context.Context) (Reply, error) {
	s := session.New(uuid.NewString(), ss.pc.Now())

	if ss.hosted != nil {
		if p, err := ss.hosted.Hosted(ctx); err == nil {
			s.Catalog.Add(p)
		} else {
			ss.logger.Debug(sessionModule, "No hosted project for session", map[string]interface{}{
				"session_id": s.ID,
				"reason":     apperr.Kind(err),
			})
		}
	}

	ss.locks.Store(s.ID, &sync.Mutex{})
	ss.repo.Save(s)

	ss.logger.Info(sessionModule, "Session connected", map[string]interface{}{
		"session_id": s.ID,
		"catalog":    s.Catalog.Len(),
	})
	return ss.reply(s, session.Render(s, ss.pc.Now())), nil
}

// Handle applies one command. Commands for the same session are serialized.
func (ss *sessionService) Handle(ctx context.Context, sessionID, command string) (Reply, error) {
	s, unlock, err := ss.acquire(sessionID)
	if err != nil {
		return Reply{}, err
	}
	defer unlock()

	barcode, hasBarcode := "", false
	if s.Phase == store.PhaseWelcome || s.Phase == store.PhaseSelecting {
		barcode, hasBarcode = ss.pc.CurrentBarcode(ctx)
	}

	out := session.Transition(s.State(hasBarcode), command)
	s.Apply(out)

	ss.logger.Debug(sessionModule, "Command handled", map[string]interface{}{
		"session_id": s.ID,
		"command":    command,
		"intent":     out.Intent.String(),
		"effect":     out.Effect.String(),
		"phase":      string(s.Phase),
		"step_index": s.StepIndex,
	})

	switch out.Effect {
	case session.EffectStartResolution:
		s.BeginResolution(barcode, ss.pc.Now())
		ss.startResolution(s.ID, command, barcode)
	case session.EffectPromptScan:
		return ss.reply(s, session.RenderPromptScan()), nil
	}

	return ss.reply(s, session.Render(s, ss.pc.Now())), nil
}

func (ss *sessionService) Disconnect(sessionID string) {
	ss.repo.Delete(sessionID)
	ss.locks.Delete(sessionID)
	ss.logger.Info(sessionModule, "Session disconnected", map[string]interface{}{"session_id": sessionID})
}

func (ss *sessionService) Snapshot(sessionID string) (session.Snapshot, error) {
	s, unlock, err := ss.acquire(sessionID)
	if err != nil {
		return session.Snapshot{}, err
	}
	defer unlock()
	return s.Snapshot(), nil
}

// Wait blocks until in-flight resolutions have been applied or discarded.
func (ss *sessionService) Wait() {
	ss.pending.Wait()
}

// startResolution runs the pipeline in the background. The result is applied
// only if the session still exists when it arrives.
func (ss *sessionService) startResolution(sessionID, command, barcode string) {
	ss.pending.Add(1)
	go func() {
		defer ss.pending.Done()

		project, err := ss.resolver.Resolve(context.Background(), command, barcode)

		s, unlock, lookupErr := ss.acquire(sessionID)
		if lookupErr != nil {
			ss.logger.Info(sessionModule, "Session gone, discarding resolution", map[string]interface{}{
				"session_id": sessionID,
				"barcode":    barcode,
			})
			return
		}

		s.Resolving = false
		if err != nil {
			s.Notice = fmt.Sprintf("Could not find instructions for %s.", barcode)
			if s.Catalog.Len() > 0 {
				s.Phase = store.PhaseSelecting
			} else {
				s.Phase = store.PhaseWelcome
			}
			ss.logger.Warn(sessionModule, "Resolution failed for session", map[string]interface{}{
				"session_id": sessionID,
				"barcode":    barcode,
				"kind":       apperr.Kind(err),
			})
		} else {
			s.Start(project)
		}
		r := ss.reply(s, session.Render(s, ss.pc.Now()))
		unlock()

		ss.push(r)
	}()
}

func (ss *sessionService) acquire(sessionID string) (*session.UserSession, func(), error) {
	l, ok := ss.locks.Load(sessionID)
	if !ok {
		return nil, nil, fmt.Errorf("session %s: %w", sessionID, apperr.ErrSessionNotFound)
	}
	mu := l.(*sync.Mutex)
	mu.Lock()

	// re-check under the lock: Disconnect may have won the race
	s, found := ss.repo.Get(sessionID)
	if !found {
		mu.Unlock()
		return nil, nil, fmt.Errorf("session %s: %w", sessionID, apperr.ErrSessionNotFound)
	}
	// any activity restarts the idle window
	ss.repo.Touch(s)
	return s, mu.Unlock, nil
}

func (ss *sessionService) reply(s *session.UserSession, text string) Reply {
	return Reply{SessionID: s.ID, Phase: s.Phase, Text: text}
}

func (ss *sessionService) push(r Reply) {
	ss.displayMu.RLock()
	d := ss.display
	ss.displayMu.RUnlock()
	if d != nil {
		d.Push(r)
	}
}
