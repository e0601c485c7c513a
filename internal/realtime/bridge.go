package realtime

import (
	"context"
	"log/slog"

	"github.com/phrazzld/taskhive-api/internal/domain"
	"github.com/phrazzld/taskhive-api/internal/events"
	"github.com/phrazzld/taskhive-api/internal/platform/logger"
)

// EventNewNotification is the event name carried by pushed notifications.
const EventNewNotification = "newNotification"

// PushEvent is the wire shape of an unsolicited push to a client.
type PushEvent struct {
	Event   string               `json:"event"`
	Payload *domain.Notification `json:"payload"`
}

// Bridge delivers committed notifications to connected recipients. It is
// registered as an event handler on the application's emitter so that
// services never touch the connection layer directly.
type Bridge struct {
	registry *Registry
	logger   *slog.Logger
}

// NewBridge creates a push bridge reading sessions from the given registry.
func NewBridge(registry *Registry, logger *slog.Logger) *Bridge {
	if registry == nil {
		panic("registry cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Bridge{
		registry: registry,
		logger:   logger.With(slog.String("component", "push_bridge")),
	}
}

// Ensure Bridge implements events.EventHandler
var _ events.EventHandler = (*Bridge)(nil)

// HandleEvent pushes each committed notification to its recipient.
// It never returns an error: delivery is best-effort by contract.
func (b *Bridge) HandleEvent(ctx context.Context, event *events.NotificationCommittedEvent) error {
	for _, n := range event.Notifications {
		b.Deliver(ctx, n)
	}
	return nil
}

// Deliver sends one notification to its recipient's live connection, if any.
// Called strictly after the producing transaction has committed. A missing
// session or a failed send is logged and swallowed; it must never surface as
// a failure of the originating request.
func (b *Bridge) Deliver(ctx context.Context, n *domain.Notification) {
	log := logger.FromContextOrDefault(ctx, b.logger)

	session := b.registry.Lookup(n.RecipientID)
	if session == nil {
		log.Debug("recipient has no bound session, skipping push",
			slog.String("notification_id", n.ID.String()),
			slog.String("recipient_id", n.RecipientID.String()))
		return
	}

	if err := session.Send(PushEvent{Event: EventNewNotification, Payload: n}); err != nil {
		log.Warn("real-time push failed",
			slog.String("error", err.Error()),
			slog.String("notification_id", n.ID.String()),
			slog.String("recipient_id", n.RecipientID.String()))
		return
	}

	log.Debug("notification pushed",
		slog.String("notification_id", n.ID.String()),
		slog.String("recipient_id", n.RecipientID.String()))
}
