package service

import (
	"fmt"

	apperrors "campusbook/pkg/errors"
	"campusbook/pkg/model"
)

// transitions lists every legal status change. Rejected and completed are
// terminal.
var transitions = map[model.ReservationStatus][]model.ReservationStatus{
	model.ReservationStatusPending:  {model.ReservationStatusApproved, model.ReservationStatusRejected},
	model.ReservationStatusApproved: {model.ReservationStatusCompleted},
}

func CanTransition(from, to model.ReservationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsTerminal(status model.ReservationStatus) bool {
	return len(transitions[status]) == 0
}

func checkTransition(from, to model.ReservationStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return apperrors.InvalidState(
		fmt.Sprintf("Reservation cannot move from %s to %s", from, to),
		string(from),
		string(to),
	)
}

func decisionTarget(action string) model.ReservationStatus {
	if action == model.DecisionReject {
		return model.ReservationStatusRejected
	}
	return model.ReservationStatusApproved
}
