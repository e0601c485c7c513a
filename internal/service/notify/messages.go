package notify

import "fmt"

// Message templates. Each takes the actor's display name and the entity
// title; status and comment variants also embed the new value. The entity
// noun is "task" or "subtask" depending on the mutation target.

func entityNoun(m *Mutation) string {
	if m.IsSubtask() {
		return "subtask"
	}
	return "task"
}

// assignedMessage tells a user they are now assigned to the entity.
func assignedMessage(m *Mutation) string {
	return fmt.Sprintf("%s assigned you to %s %q", m.ActorName, entityNoun(m), m.EntityTitle)
}

// removedMessage tells a user they are no longer assigned to the entity.
func removedMessage(m *Mutation) string {
	return fmt.Sprintf("%s removed you from %s %q", m.ActorName, entityNoun(m), m.EntityTitle)
}

// createdMessage tells the task owner someone created a subtask under
// their task.
func createdMessage(m *Mutation) string {
	return fmt.Sprintf("%s created %s %q", m.ActorName, entityNoun(m), m.EntityTitle)
}

// contentUpdatedMessage announces an edit of title/description/priority.
func contentUpdatedMessage(m *Mutation) string {
	return fmt.Sprintf("%s updated %s %q", m.ActorName, entityNoun(m), m.EntityTitle)
}

// statusChangedMessage announces a status transition, carrying the new value.
func statusChangedMessage(m *Mutation) string {
	return fmt.Sprintf("%s marked %s %q as %s",
		m.ActorName, entityNoun(m), m.EntityTitle, m.NewStatus)
}

// commentAddedMessage announces a new comment, echoing its text.
func commentAddedMessage(m *Mutation) string {
	return fmt.Sprintf("%s commented on %s %q: %s",
		m.ActorName, entityNoun(m), m.EntityTitle, m.CommentText)
}

// deletedMessage announces the entity's deletion.
func deletedMessage(m *Mutation) string {
	return fmt.Sprintf("%s deleted %s %q", m.ActorName, entityNoun(m), m.EntityTitle)
}
