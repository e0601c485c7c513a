package notify

import (
	"errors"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhive-api/internal/domain"
)

// Kind identifies the shape of a domain mutation for fan-out purposes.
type Kind string

// Mutation kinds
const (
	// KindCreated covers the creation of a task or subtask.
	KindCreated Kind = "created"
	// KindContentUpdated covers title/description/priority edits.
	KindContentUpdated Kind = "content_updated"
	// KindAssigneesChanged covers assignment edits (users added or removed).
	KindAssigneesChanged Kind = "assignees_changed"
	// KindStatusChanged covers pending/completed transitions.
	KindStatusChanged Kind = "status_changed"
	// KindCommentAdded covers a new comment on a task or subtask.
	KindCommentAdded Kind = "comment_added"
	// KindDeleted covers the deletion of a task or subtask.
	KindDeleted Kind = "deleted"
)

// Common engine errors
var (
	ErrUnknownKind    = errors.New("unknown mutation kind")
	ErrMissingActor   = errors.New("mutation actor cannot be empty")
	ErrMissingAnchor  = errors.New("mutation must reference a task or a subtask")
	ErrMissingTitle   = errors.New("mutation entity title cannot be empty")
	ErrMissingPayload = errors.New("mutation payload missing for kind")
)

// Mutation describes one state-changing action and everything the engine
// needs to fan it out: the actor, the triggering entity, and the role-tagged
// participant sets. The engine trusts these sets; validating that a
// participant actually belongs to the entity is the caller's concern.
type Mutation struct {
	Kind Kind

	// ActorID is the user performing the mutation; ActorName is their
	// display name used in message templating.
	ActorID   uuid.UUID
	ActorName string

	// TaskID and SubtaskID anchor the notification records. At least one
	// must be set; a set SubtaskID marks the mutation as a subtask mutation.
	TaskID    *uuid.UUID
	SubtaskID *uuid.UUID

	// EntityTitle is the title of the mutated task or subtask.
	EntityTitle string

	// TaskCreatorID is the owner of the (parent) task.
	// SubtaskCreatorID is the owner of the subtask; uuid.Nil for task mutations.
	TaskCreatorID    uuid.UUID
	SubtaskCreatorID uuid.UUID

	// Assignees is the entity's current assignee set (after the mutation).
	Assignees []uuid.UUID

	// AddedAssignees and RemovedAssignees carry the assignment delta for
	// KindAssigneesChanged; empty otherwise.
	AddedAssignees   []uuid.UUID
	RemovedAssignees []uuid.UUID

	// NewStatus is set for KindStatusChanged.
	NewStatus domain.TaskStatus

	// CommentText is set for KindCommentAdded; it is echoed into the message.
	CommentText string
}

// IsSubtask reports whether the mutation targets a subtask.
func (m *Mutation) IsSubtask() bool {
	return m.SubtaskID != nil && *m.SubtaskID != uuid.Nil
}

// Validate checks the mutation carries everything its kind requires.
func (m *Mutation) Validate() error {
	switch m.Kind {
	case KindCreated, KindContentUpdated, KindAssigneesChanged,
		KindStatusChanged, KindCommentAdded, KindDeleted:
	default:
		return ErrUnknownKind
	}

	if m.ActorID == uuid.Nil {
		return ErrMissingActor
	}

	if (m.TaskID == nil || *m.TaskID == uuid.Nil) && !m.IsSubtask() {
		return ErrMissingAnchor
	}

	if m.EntityTitle == "" {
		return ErrMissingTitle
	}

	if m.Kind == KindStatusChanged && m.NewStatus == "" {
		return ErrMissingPayload
	}
	if m.Kind == KindCommentAdded && m.CommentText == "" {
		return ErrMissingPayload
	}

	return nil
}

// DiffAssignees compares two assignee sets irrespective of order and returns
// the ids present only in after (added) and only in before (removed).
func DiffAssignees(before, after []uuid.UUID) (added, removed []uuid.UUID) {
	beforeSet := make(map[uuid.UUID]struct{}, len(before))
	for _, id := range before {
		beforeSet[id] = struct{}{}
	}
	afterSet := make(map[uuid.UUID]struct{}, len(after))
	for _, id := range after {
		afterSet[id] = struct{}{}
	}

	for _, id := range after {
		if _, ok := beforeSet[id]; !ok {
			added = append(added, id)
		}
	}
	for _, id := range before {
		if _, ok := afterSet[id]; !ok {
			removed = append(removed, id)
		}
	}
	return added, removed
}
