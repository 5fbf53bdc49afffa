package models

import (
	"time"

	"github.com/google/uuid"
)

type ProjectStatus string

const (
	ProjectStatusDraft      ProjectStatus = "draft"
	ProjectStatusPublished  ProjectStatus = "published"
	ProjectStatusInProgress ProjectStatus = "in-progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusDraft, ProjectStatusPublished, ProjectStatusInProgress, ProjectStatusCompleted:
		return true
	}
	return false
}

type PartnershipType string

const (
	PartnershipMonetary     PartnershipType = "monetary"
	PartnershipKnowledge    PartnershipType = "knowledge"
	PartnershipSkilled      PartnershipType = "skilled"
	PartnershipVolunteering PartnershipType = "volunteering"
)

func (p PartnershipType) Valid() bool {
	switch p {
	case PartnershipMonetary, PartnershipKnowledge, PartnershipSkilled, PartnershipVolunteering:
		return true
	}
	return false
}

type Project struct {
	ID               uuid.UUID         `json:"id"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	OrganizerID      uuid.UUID         `json:"organizer_id"`
	OrganizationID   *uuid.UUID        `json:"organization_id,omitempty"`
	Status           ProjectStatus     `json:"status"`
	PartnershipTypes []PartnershipType `json:"partnership_types"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// AcceptsApplications is false once the project has completed.
func (p *Project) AcceptsApplications() bool {
	return p.Status != ProjectStatusCompleted
}

// ProjectOverview bundles what a project page renders in one response.
type ProjectOverview struct {
	Project      *Project      `json:"project"`
	Phases       []Phase       `json:"phases"`
	Applications []Application `json:"applications"`
}
