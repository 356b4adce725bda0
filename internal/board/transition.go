package board

import (
	"fmt"

	"github.com/ldi/taskboard/pkg/models"
)

// CheckTransition decides whether a task may move from one status to
// another. ready is the caller-asserted readiness flag; it is only
// consulted for the IN_PROGRESS -> DONE transition.
//
// DONE is terminal: no backward motion out of it is ever allowed. Forward
// jumps (TODO -> DONE) are permitted on direct updates.
func CheckTransition(from, to models.Status, ready bool) error {
	if from == to {
		return nil
	}

	if from == models.StatusDone {
		return &TransitionError{
			From:   from,
			To:     to,
			Reason: fmt.Sprintf("cannot move a completed task back to %s", to),
		}
	}

	if from == models.StatusInProgress && to == models.StatusDone && !ready {
		return &TransitionError{
			From:   from,
			To:     to,
			Reason: "task must be marked ready before it can be completed",
		}
	}

	return nil
}

// NextStatus returns the status that follows from in the board's forward
// flow. Advancing a DONE task is misuse, not a no-op.
func NextStatus(from models.Status) (models.Status, error) {
	if from == models.StatusDone {
		return from, &TransitionError{
			From:   from,
			To:     from,
			Reason: "task is already complete",
		}
	}
	return from.Next(), nil
}
