package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"ai-buildguide-be/internal/pkg/logger"
	"ai-buildguide-be/pkg/apperr"
	"ai-buildguide-be/pkg/objectstore"
	"ai-buildguide-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const persistenceModule = "PersistenceService"

var errNoConsumer = errors.New("no persistence consumer running")

// IPersistenceService hands resolved entries to a background consumer that
// writes them to the object store. Persist never waits for the write.
type IPersistenceService interface {
	Persist(ctx context.Context, entry *store.ResolutionEntry) error
	Consume(ctx context.Context) error
	// Drain blocks until every published entry has been written or ctx ends.
	Drain(ctx context.Context) error
}

type persistenceService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	objects   objectstore.Store
	logger    logger.ILogger

	// consuming is guarded by mu; Persist publishes under the read side
	mu        sync.RWMutex
	consuming bool
	inflight  sync.WaitGroup
}

func NewPersistenceService(
	pubSub *gochannel.GoChannel,
	topicName string,
	objects objectstore.Store,
	logger logger.ILogger,
) IPersistenceService {
	return &persistenceService{
		pubSub:    pubSub,
		topicName: topicName,
		objects:   objects,
		logger:    logger,
	}
}

func (ps *persistenceService) Persist(ctx context.Context, entry *store.ResolutionEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal resolution %s: %w", entry.Barcode, err)
	}

	ps.mu.RLock()
	defer ps.mu.RUnlock()
	if !ps.consuming {
		ps.logger.Warn(persistenceModule, "No consumer, resolution not persisted", map[string]interface{}{
			"barcode": entry.Barcode,
		})
		return apperr.Unavailable("persistence", errNoConsumer)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("barcode", entry.Barcode)
	ps.inflight.Add(1)
	if err := ps.pubSub.Publish(ps.topicName, msg); err != nil {
		ps.inflight.Done()
		return fmt.Errorf("publish resolution %s: %w", entry.Barcode, err)
	}
	return nil
}

// Consume subscribes the writer. It stops when ctx ends or the bus closes;
// callers Drain before either happens.
func (ps *persistenceService) Consume(ctx context.Context) error {
	messages, err := ps.pubSub.Subscribe(ctx, ps.topicName)
	if err != nil {
		return err
	}

	ps.mu.Lock()
	ps.consuming = true
	ps.mu.Unlock()

	go func() {
		for msg := range messages {
			ps.processMessage(ctx, msg)
		}
		ps.mu.Lock()
		ps.consuming = false
		ps.mu.Unlock()
	}()

	return nil
}

func (ps *persistenceService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		ps.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain persistence: %w", ctx.Err())
	}
}

func (ps *persistenceService) processMessage(ctx context.Context, msg *message.Message) {
	defer ps.inflight.Done()
	// Acked on every path; failures are only logged.
	defer msg.Ack()

	var entry store.ResolutionEntry
	if err := json.Unmarshal(msg.Payload, &entry); err != nil {
		ps.logger.Error(persistenceModule, "Failed to unmarshal resolution", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	if ps.objects == nil {
		ps.logger.Debug(persistenceModule, "No object store configured, skipping", map[string]interface{}{
			"barcode": entry.Barcode,
		})
		return
	}

	path := objectstore.ProjectPath(entry.Barcode)
	if err := ps.objects.Put(context.WithoutCancel(ctx), path, msg.Payload); err != nil {
		ps.logger.Error(persistenceModule, "Failed to persist resolution", map[string]interface{}{
			"barcode": entry.Barcode,
			"path":    path,
			"error":   err.Error(),
		})
		return
	}

	ps.logger.Info(persistenceModule, "Resolution persisted", map[string]interface{}{
		"barcode": entry.Barcode,
		"path":    path,
	})
}
