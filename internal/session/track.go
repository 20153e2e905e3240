package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storyscroll/internal/domain"
	"storyscroll/internal/eventbus"
)

const saveTimeout = 2 * time.Second

// Track saves the position under story on every committed section change.
// The returned func unsubscribes.
func Track(bus eventbus.EventBus, store PositionStore, story string, log *zap.Logger) func() {
	if log == nil {
		log = zap.NewNop()
	}
	return bus.Subscribe(eventbus.EventSectionChanged, func(e eventbus.DomainEvent) {
		ev, ok := e.(eventbus.SectionChangedEvent)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()

		pos := domain.Position{Section: ev.To, Pathname: ev.Pathname}
		if err := store.SavePosition(ctx, story, pos); err != nil {
			log.Warn("failed to save position", zap.String("story", story), zap.Error(err))
			return
		}
		log.Debug("position saved", zap.String("story", story), zap.Int("section", ev.To))
	})
}
