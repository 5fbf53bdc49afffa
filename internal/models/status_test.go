package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckProjectTransition(t *testing.T) {
	tests := []struct {
		from, to ProjectStatus
		ok       bool
	}{
		{ProjectStatusDraft, ProjectStatusPublished, true},
		{ProjectStatusPublished, ProjectStatusInProgress, true},
		{ProjectStatusPublished, ProjectStatusCompleted, true},
		{ProjectStatusInProgress, ProjectStatusCompleted, true},
		{ProjectStatusDraft, ProjectStatusCompleted, false},
		{ProjectStatusCompleted, ProjectStatusInProgress, false},
		{ProjectStatusCompleted, ProjectStatusCompleted, false},
		{ProjectStatusInProgress, ProjectStatusDraft, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := CheckProjectTransition(tt.from, tt.to)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrInvalidTransition))
			}
		})
	}
}

func TestCheckApplicationTransition(t *testing.T) {
	assert.NoError(t, CheckApplicationTransition(ApplicationStatusPending, ApplicationStatusApproved))
	assert.NoError(t, CheckApplicationTransition(ApplicationStatusPending, ApplicationStatusRejected))

	assert.ErrorIs(t, CheckApplicationTransition(ApplicationStatusApproved, ApplicationStatusPending), ErrInvalidTransition)
	assert.ErrorIs(t, CheckApplicationTransition(ApplicationStatusRejected, ApplicationStatusApproved), ErrInvalidTransition)
	assert.ErrorIs(t, CheckApplicationTransition(ApplicationStatusApproved, ApplicationStatusApproved), ErrInvalidTransition)
	assert.ErrorIs(t, CheckApplicationTransition(ApplicationStatusPending, ApplicationStatusPending), ErrInvalidTransition)
}

func TestCheckPhaseTransition(t *testing.T) {
	assert.NoError(t, CheckPhaseTransition(PhaseStatusNotStarted, PhaseStatusInProgress))
	assert.NoError(t, CheckPhaseTransition(PhaseStatusNotStarted, PhaseStatusCompleted))
	assert.NoError(t, CheckPhaseTransition(PhaseStatusInProgress, PhaseStatusCompleted))
	assert.NoError(t, CheckPhaseTransition(PhaseStatusCompleted, PhaseStatusCompleted))

	assert.ErrorIs(t, CheckPhaseTransition(PhaseStatusCompleted, PhaseStatusInProgress), ErrInvalidTransition)
	assert.ErrorIs(t, CheckPhaseTransition(PhaseStatusInProgress, PhaseStatusNotStarted), ErrInvalidTransition)
}

func TestStatusValid(t *testing.T) {
	assert.True(t, ProjectStatusInProgress.Valid())
	assert.False(t, ProjectStatus("archived").Valid())
	assert.True(t, PartnershipVolunteering.Valid())
	assert.False(t, PartnershipType("equity").Valid())
	assert.True(t, ApplicationStatusRejected.Valid())
	assert.False(t, ApplicationStatus("withdrawn").Valid())
	assert.True(t, PhaseStatusNotStarted.Valid())
	assert.False(t, PhaseStatus("blocked").Valid())
}

func TestProject_AcceptsApplications(t *testing.T) {
	p := &Project{Status: ProjectStatusPublished}
	assert.True(t, p.AcceptsApplications())

	p.Status = ProjectStatusCompleted
	assert.False(t, p.AcceptsApplications())
}
