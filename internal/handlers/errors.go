package handlers

import (
	"errors"

	"github.com/collabdoor/collabdoor-api/internal/logger"
	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/collabdoor/collabdoor-api/internal/services"
	"github.com/m1z23r/drift/pkg/drift"
)

var badRequestErrors = []error{
	services.ErrInvalidProjectID,
	services.ErrInvalidPartnershipType,
	services.ErrInvalidApplicationStatus,
	services.ErrProjectTitleRequired,
	services.ErrInvalidProjectStatus,
	services.ErrPhaseTitleRequired,
	services.ErrInvalidPhaseStatus,
	services.ErrInvalidRating,
	services.ErrSelfReview,
	services.ErrContentRequired,
	services.ErrOrganizationName,
	services.ErrCannotRemoveOwner,
}

var forbiddenErrors = []error{
	services.ErrNotParticipant,
	services.ErrNotAuthor,
	services.ErrNotOrganizationMember,
}

var notFoundErrors = []error{
	services.ErrProjectNotFound,
	services.ErrApplicationNotFound,
	services.ErrPhaseNotFound,
	services.ErrNotificationNotFound,
	services.ErrPendingReviewNotFound,
	services.ErrOrganizationNotFound,
	services.ErrMemberNotFound,
	services.ErrJoinRequestNotFound,
	services.ErrPostNotFound,
	services.ErrCommentNotFound,
	services.ErrUserNotFound,
}

var conflictErrors = []error{
	models.ErrInvalidTransition,
	services.ErrProjectCompleted,
	services.ErrProjectNotCompleted,
	services.ErrPhaseOrderTaken,
	services.ErrAlreadyReviewed,
	services.ErrAlreadyMember,
	services.ErrJoinRequestExists,
	services.ErrJoinRequestNotPending,
}

func matchesAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// respondError maps a service error to its HTTP status. Anything unrecognised
// is logged and answered with fallback as a 500.
func respondError(c *drift.Context, err error, fallback string) {
	switch {
	case matchesAny(err, badRequestErrors):
		c.BadRequest(err.Error())
	case matchesAny(err, forbiddenErrors):
		c.Forbidden(err.Error())
	case matchesAny(err, notFoundErrors):
		c.NotFound(err.Error())
	case matchesAny(err, conflictErrors):
		_ = c.JSON(409, map[string]string{"error": err.Error()})
	default:
		logger.Error(fallback, "error", err, "path", c.Request.URL.Path)
		c.InternalServerError(fallback)
	}
}
