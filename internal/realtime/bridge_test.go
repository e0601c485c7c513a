package realtime

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhive-api/internal/domain"
	"github.com/phrazzld/taskhive-api/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNotification(t *testing.T, recipientID uuid.UUID) *domain.Notification {
	t.Helper()
	taskID := uuid.New()
	n, err := domain.NewNotification(uuid.New(), recipientID, "someone updated a task", &taskID, nil)
	require.NoError(t, err)
	return n
}

func TestBridgeDeliversToBoundSession(t *testing.T) {
	registry := NewRegistry()
	bridge := NewBridge(registry, nil)

	recipient := uuid.New()
	conn := &fakeConn{}
	registry.Bind(recipient, NewSession(recipient, conn))

	n := testNotification(t, recipient)
	bridge.Deliver(context.Background(), n)

	messages := conn.messages()
	require.Len(t, messages, 1)

	push, ok := messages[0].(PushEvent)
	require.True(t, ok)
	assert.Equal(t, EventNewNotification, push.Event)
	assert.Same(t, n, push.Payload)
}

func TestBridgeSkipsOfflineRecipient(t *testing.T) {
	registry := NewRegistry()
	bridge := NewBridge(registry, nil)

	// Nothing bound: delivery is a silent no-op.
	bridge.Deliver(context.Background(), testNotification(t, uuid.New()))
	assert.Equal(t, 0, registry.Len())
}

func TestBridgeSwallowsWriteFailure(t *testing.T) {
	registry := NewRegistry()
	bridge := NewBridge(registry, nil)

	recipient := uuid.New()
	registry.Bind(recipient, NewSession(recipient, &fakeConn{writeErr: errors.New("broken pipe")}))

	// Must not panic or surface the error in any way.
	bridge.Deliver(context.Background(), testNotification(t, recipient))
}

func TestBridgeHandleEventDeliversAll(t *testing.T) {
	registry := NewRegistry()
	bridge := NewBridge(registry, nil)

	online := uuid.New()
	offline := uuid.New()
	conn := &fakeConn{}
	registry.Bind(online, NewSession(online, conn))

	event := events.NewNotificationCommittedEvent([]*domain.Notification{
		testNotification(t, online),
		testNotification(t, offline),
		testNotification(t, online),
	})

	err := bridge.HandleEvent(context.Background(), event)
	require.NoError(t, err)

	// Only the online recipient's two notifications arrive.
	assert.Len(t, conn.messages(), 2)
}
