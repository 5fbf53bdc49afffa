package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/collabdoor/collabdoor-api/internal/logger"
	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/google/uuid"
)

const (
	jobTimeout = 2 * time.Minute

	// phaseReminderWindow is how far ahead a due date triggers its one reminder.
	phaseReminderWindow = 48 * time.Hour
	// reviewReminderAge is how long a queued review may wait before a nudge.
	reviewReminderAge = 72 * time.Hour
)

type TokenCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// DuePhaseFinder hands out each due phase once, however often the job runs.
type DuePhaseFinder interface {
	ClaimDueReminders(ctx context.Context, window time.Duration) ([]models.Phase, error)
}

type OutstandingReviewFinder interface {
	Outstanding(ctx context.Context, olderThan time.Duration) ([]models.PendingReview, error)
}

type ProjectLookup interface {
	GetByID(ctx context.Context, projectID uuid.UUID) (*models.Project, error)
}

type Dispatcher interface {
	Create(ctx context.Context, userID uuid.UUID, title, message string, link *string) bool
	NotifyProjectPartners(ctx context.Context, projectID uuid.UUID, title, message string, exclude uuid.UUID) bool
}

type Sweeper interface {
	Sweep() int
}

// Jobs holds the background work run on a schedule. Every job logs its own
// failures; nothing is retried until the next tick.
type Jobs struct {
	Tokens   TokenCleaner
	Phases   DuePhaseFinder
	Reviews  OutstandingReviewFinder
	Projects ProjectLookup
	Notify   Dispatcher
	Limiter  Sweeper
}

func (j *Jobs) CleanupTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := j.Tokens.CleanupExpired(ctx)
	if err != nil {
		logger.Error("token cleanup failed", "error", err)
		return
	}
	logger.Info("expired refresh tokens removed", "count", n)
}

func (j *Jobs) RemindDuePhases() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	due, err := j.Phases.ClaimDueReminders(ctx, phaseReminderWindow)
	if err != nil {
		logger.Error("phase reminder lookup failed", "error", err)
		return
	}

	sent := 0
	for _, phase := range due {
		project, err := j.Projects.GetByID(ctx, phase.ProjectID)
		if err != nil {
			logger.Warn("phase reminder skipped", "phase_id", phase.ID, "error", err)
			continue
		}

		title := "Phase due soon"
		message := fmt.Sprintf("%q in %q is due %s.", phase.Title, project.Title, phase.DueDate.Format("Jan 2"))
		link := "/projects/" + project.ID.String() + "/phases"

		if j.Notify.Create(ctx, project.OrganizerID, title, message, &link) {
			sent++
		}
		j.Notify.NotifyProjectPartners(ctx, project.ID, title, message, project.OrganizerID)
	}
	logger.Info("phase reminders sent", "phases", len(due), "organizers", sent)
}

func (j *Jobs) RemindPendingReviews() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	pending, err := j.Reviews.Outstanding(ctx, reviewReminderAge)
	if err != nil {
		logger.Error("review reminder lookup failed", "error", err)
		return
	}

	type key struct{ reviewer, project uuid.UUID }
	counts := make(map[key]int)
	var order []key
	for _, pr := range pending {
		k := key{pr.ReviewerID, pr.ProjectID}
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}

	for _, k := range order {
		link := "/projects/" + k.project.String() + "/reviews"
		message := fmt.Sprintf("You have %d review(s) waiting for a completed project.", counts[k])
		j.Notify.Create(ctx, k.reviewer, "Reviews waiting", message, &link)
	}
	logger.Info("review reminders sent", "reviewers", len(order))
}

func (j *Jobs) SweepRateLimiter() {
	if n := j.Limiter.Sweep(); n > 0 {
		logger.Debug("idle rate limit buckets dropped", "count", n)
	}
}
