package models

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// transitions maps a current status to the set of statuses it may move to.
type transitions[S ~string] map[S][]S

func (t transitions[S]) allows(from, to S) bool {
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (t transitions[S]) check(kind string, from, to S) error {
	if !t.allows(from, to) {
		return fmt.Errorf("%w: %s %q -> %q", ErrInvalidTransition, kind, from, to)
	}
	return nil
}

var projectTransitions = transitions[ProjectStatus]{
	ProjectStatusDraft:      {ProjectStatusPublished},
	ProjectStatusPublished:  {ProjectStatusInProgress, ProjectStatusCompleted},
	ProjectStatusInProgress: {ProjectStatusCompleted},
}

var applicationTransitions = transitions[ApplicationStatus]{
	ApplicationStatusPending: {ApplicationStatusApproved, ApplicationStatusRejected},
}

var phaseTransitions = transitions[PhaseStatus]{
	PhaseStatusNotStarted: {PhaseStatusInProgress, PhaseStatusCompleted},
	PhaseStatusInProgress: {PhaseStatusCompleted},
}

func CheckProjectTransition(from, to ProjectStatus) error {
	return projectTransitions.check("project", from, to)
}

func CheckApplicationTransition(from, to ApplicationStatus) error {
	return applicationTransitions.check("application", from, to)
}

// CheckPhaseTransition treats a same-status update as a no-op so that edits to
// other fields can resend the current status.
func CheckPhaseTransition(from, to PhaseStatus) error {
	if from == to {
		return nil
	}
	return phaseTransitions.check("phase", from, to)
}
