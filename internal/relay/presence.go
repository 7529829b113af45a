package relay

import (
	"context"
	"log/slog"
	"time"
)

// PresenceCache mirrors online/offline state into a fast lookup store so the
// REST side can answer "who is online" without touching the registry.
type PresenceCache interface {
	SetUserOnline(ctx context.Context, userID uint) error
	SetUserOffline(ctx context.Context, userID uint) error
}

// PresenceTracker derives user_status broadcasts from registry transitions.
// The relay engine invokes Announce exactly once per authenticate and once
// per disconnect-while-authenticated.
type PresenceTracker struct {
	registry *Registry
	store    Store
	cache    PresenceCache
	logger   *slog.Logger
}

func NewPresenceTracker(registry *Registry, store Store, cache PresenceCache, logger *slog.Logger) *PresenceTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &PresenceTracker{
		registry: registry,
		store:    store,
		cache:    cache,
		logger:   logger,
	}
}

// Announce persists the presence change and broadcasts it to every other
// registered identity. The offline transition also refreshes the user's
// last-seen timestamp through the storage layer.
func (p *PresenceTracker) Announce(ctx context.Context, userID uint, isOnline bool) {
	if _, err := p.store.UpdateUserOnlineStatus(ctx, userID, isOnline); err != nil {
		p.logger.Error("failed to persist online status", "userID", userID, "isOnline", isOnline, "error", err)
	}

	if p.cache != nil {
		var err error
		if isOnline {
			err = p.cache.SetUserOnline(ctx, userID)
		} else {
			err = p.cache.SetUserOffline(ctx, userID)
		}
		if err != nil {
			p.logger.Warn("failed to update presence cache", "userID", userID, "error", err)
		}
	}

	frame, err := EncodeOutbound(EventUserStatus, UserStatusPayload{
		UserID:    userID,
		IsOnline:  isOnline,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		p.logger.Error("failed to encode status event", "userID", userID, "error", err)
		return
	}

	for _, id := range p.registry.Snapshot() {
		if id == userID {
			continue
		}
		if peer, ok := p.registry.Lookup(id); ok {
			peer.TrySend(frame)
		}
	}
}
