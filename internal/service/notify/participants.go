package notify

import "github.com/google/uuid"

// pending is one resolved (recipient, message) pair, not yet persisted.
type pending struct {
	recipientID uuid.UUID
	message     string
}

// resolver accumulates recipients in priority order. The first message
// proposed for a user wins; later proposals for the same user are dropped.
// Creator-directed candidates are therefore always added before
// assignee-directed ones.
type resolver struct {
	order []pending
	seen  map[uuid.UUID]struct{}
}

func newResolver() *resolver {
	return &resolver{seen: make(map[uuid.UUID]struct{})}
}

func (r *resolver) add(recipientID uuid.UUID, message string) {
	if recipientID == uuid.Nil {
		return
	}
	if _, ok := r.seen[recipientID]; ok {
		return
	}
	r.seen[recipientID] = struct{}{}
	r.order = append(r.order, pending{recipientID: recipientID, message: message})
}

func (r *resolver) addAll(recipientIDs []uuid.UUID, message string) {
	for _, id := range recipientIDs {
		r.add(id, message)
	}
}

// exclude drops the given user from the resolved set. Applied once, at the
// end, so every mutation kind shares the exact same self-exclusion rule.
func (r *resolver) exclude(userID uuid.UUID) []pending {
	out := r.order[:0]
	for _, p := range r.order {
		if p.recipientID == userID {
			continue
		}
		out = append(out, p)
	}
	r.order = out
	return out
}

// resolveRecipients computes the deduplicated (recipient, message) list for
// the mutation. The actor is excluded uniformly as the final step; when a
// user qualifies under several roles, the creator-directed message takes
// precedence over the assignee-directed one and exactly one notification
// results.
func resolveRecipients(m *Mutation) []pending {
	r := newResolver()

	switch m.Kind {
	case KindCreated:
		// The entity's creator is the actor; for a subtask the parent task's
		// owner still has to learn about the new entity.
		if m.IsSubtask() {
			r.add(m.TaskCreatorID, createdMessage(m))
		}
		r.addAll(m.Assignees, assignedMessage(m))

	case KindContentUpdated:
		r.add(m.TaskCreatorID, contentUpdatedMessage(m))
		r.add(m.SubtaskCreatorID, contentUpdatedMessage(m))
		r.addAll(m.Assignees, contentUpdatedMessage(m))

	case KindAssigneesChanged:
		r.addAll(m.AddedAssignees, assignedMessage(m))
		r.addAll(m.RemovedAssignees, removedMessage(m))

	case KindStatusChanged:
		r.add(m.TaskCreatorID, statusChangedMessage(m))
		r.add(m.SubtaskCreatorID, statusChangedMessage(m))
		r.addAll(m.Assignees, statusChangedMessage(m))

	case KindCommentAdded:
		r.add(m.TaskCreatorID, commentAddedMessage(m))
		r.add(m.SubtaskCreatorID, commentAddedMessage(m))
		r.addAll(m.Assignees, commentAddedMessage(m))

	case KindDeleted:
		r.add(m.TaskCreatorID, deletedMessage(m))
		r.add(m.SubtaskCreatorID, deletedMessage(m))
		r.addAll(m.Assignees, deletedMessage(m))
	}

	return r.exclude(m.ActorID)
}
