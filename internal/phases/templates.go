// Package phases holds the phase sequences seeded onto a project when a
// partner is approved.
package phases

import (
	"time"

	"github.com/collabdoor/collabdoor-api/internal/models"
)

type Template struct {
	Key         string
	Title       string
	Description string
	// Duration is added to the previous phase's due date; zero leaves the due date unset.
	Duration time.Duration
}

const day = 24 * time.Hour

var skilled = []Template{
	{Key: "skilled.kickoff", Title: "Kickoff", Description: "Meet the partner, agree on scope and working rhythm.", Duration: 7 * day},
	{Key: "skilled.assessment", Title: "Skills Assessment", Description: "Map the partner's skills to the project's open tasks.", Duration: 7 * day},
	{Key: "skilled.collaboration", Title: "Collaboration", Description: "Work on the agreed tasks together.", Duration: 30 * day},
	{Key: "skilled.completion", Title: "Completion", Description: "Hand over results and close the engagement.", Duration: 7 * day},
}

var knowledge = []Template{
	{Key: "knowledge.initiation", Title: "Transfer Initiation", Description: "Identify the knowledge to transfer and who receives it.", Duration: 7 * day},
	{Key: "knowledge.consultation", Title: "Expert Consultation", Description: "Sessions with the expert partner.", Duration: 14 * day},
	{Key: "knowledge.implementation", Title: "Implementation", Description: "Apply what was learned to the project.", Duration: 30 * day},
	{Key: "knowledge.review", Title: "Review", Description: "Evaluate outcomes with the partner.", Duration: 7 * day},
}

var fallback = []Template{
	{Key: "default.planning", Title: "Planning", Description: "Agree on goals, contributions and timeline.", Duration: 7 * day},
	{Key: "default.execution", Title: "Execution", Description: "Carry out the partnership.", Duration: 30 * day},
	{Key: "default.wrapup", Title: "Wrap-up", Description: "Close out and share results.", Duration: 7 * day},
}

// Templates returns the ordered phase sequence for a partnership type. The
// returned slice is a copy and may be modified by the caller.
func Templates(pt models.PartnershipType) []Template {
	var src []Template
	switch pt {
	case models.PartnershipSkilled:
		src = skilled
	case models.PartnershipKnowledge:
		src = knowledge
	default:
		src = fallback
	}
	out := make([]Template, len(src))
	copy(out, src)
	return out
}

// Schedule returns the due date for each template in sequence, starting at start.
func Schedule(start time.Time, tpls []Template) []*time.Time {
	due := make([]*time.Time, len(tpls))
	cursor := start
	for i, t := range tpls {
		if t.Duration <= 0 {
			continue
		}
		cursor = cursor.Add(t.Duration)
		d := cursor
		due[i] = &d
	}
	return due
}
