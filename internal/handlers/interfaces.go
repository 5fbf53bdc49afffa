package handlers

import (
	"context"

	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/collabdoor/collabdoor-api/internal/oauth"
	"github.com/collabdoor/collabdoor-api/internal/services"
	"github.com/collabdoor/collabdoor-api/internal/sse"
	"github.com/google/uuid"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, name string) (*models.User, error)
}

// SessionServiceInterface defines the methods used by handlers from SessionService
type SessionServiceInterface interface {
	BeginLogin(ctx context.Context) (string, error)
	ConsumeState(ctx context.Context, state string) error
	IssueAuthCode(ctx context.Context, userID uuid.UUID) (string, error)
	ExchangeAuthCode(ctx context.Context, code string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, userID uuid.UUID) error
}

// ProjectServiceInterface defines the methods used by handlers from ProjectService
type ProjectServiceInterface interface {
	Create(ctx context.Context, organizerID uuid.UUID, input services.ProjectInput) (*models.Project, error)
	GetByID(ctx context.Context, projectID uuid.UUID) (*models.Project, error)
	ListPublished(ctx context.Context, pt models.PartnershipType, limit, offset int) ([]models.Project, error)
	ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]models.Project, error)
	Update(ctx context.Context, projectID uuid.UUID, input services.ProjectUpdate) (*models.Project, error)
	UpdateStatus(ctx context.Context, projectID uuid.UUID, status models.ProjectStatus) (*models.Project, error)
	Delete(ctx context.Context, projectID uuid.UUID) error
	IsOrganizer(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
	CanCollaborate(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
	Overview(ctx context.Context, projectID uuid.UUID) (*models.ProjectOverview, error)
}

// ApplicationServiceInterface defines the methods used by handlers from ApplicationService
type ApplicationServiceInterface interface {
	CheckStatus(ctx context.Context, projectID string, userID uuid.UUID) (*models.Application, error)
	Apply(ctx context.Context, projectID string, userID uuid.UUID, input services.ApplyInput) (*models.Application, error)
	UpdateStatus(ctx context.Context, applicationID uuid.UUID, status models.ApplicationStatus) (*models.Application, error)
	GetByID(ctx context.Context, applicationID uuid.UUID) (*models.Application, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Application, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Application, error)
}

// PhaseServiceInterface defines the methods used by handlers from PhaseService
type PhaseServiceInterface interface {
	List(ctx context.Context, projectID uuid.UUID) ([]models.Phase, error)
	GetByID(ctx context.Context, phaseID uuid.UUID) (*models.Phase, error)
	Add(ctx context.Context, projectID, actorID uuid.UUID, input services.PhaseInput) (*models.Phase, error)
	Update(ctx context.Context, phaseID, actorID uuid.UUID, input services.PhaseUpdate) (*models.Phase, error)
	Delete(ctx context.Context, phaseID, actorID uuid.UUID) error
}

// NotificationServiceInterface defines the methods used by handlers from NotificationService
type NotificationServiceInterface interface {
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	MarkAsRead(ctx context.Context, notificationID, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// ReviewServiceInterface defines the methods used by handlers from ReviewService
type ReviewServiceInterface interface {
	Queue(ctx context.Context, projectID, reviewerID uuid.UUID) ([]models.PendingReview, error)
	Submit(ctx context.Context, projectID, reviewerID, revieweeID uuid.UUID, rating int, comment *string) (*models.Review, error)
	Skip(ctx context.Context, projectID, reviewerID, revieweeID uuid.UUID) error
	ListForUser(ctx context.Context, revieweeID uuid.UUID) ([]models.Review, error)
	Summary(ctx context.Context, userID uuid.UUID) (*models.ReviewSummary, error)
}

// OrganizationServiceInterface defines the methods used by handlers from OrganizationService
type OrganizationServiceInterface interface {
	Create(ctx context.Context, name string, description *string, ownerID uuid.UUID) (*models.Organization, error)
	GetByID(ctx context.Context, organizationID uuid.UUID) (*models.Organization, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Organization, []string, error)
	Update(ctx context.Context, organizationID uuid.UUID, name, description *string) (*models.Organization, error)
	Delete(ctx context.Context, organizationID uuid.UUID) error
	IsOwner(ctx context.Context, organizationID, userID uuid.UUID) (bool, error)
	IsMember(ctx context.Context, organizationID, userID uuid.UUID) (bool, error)
	GetMembers(ctx context.Context, organizationID uuid.UUID) ([]models.OrganizationMember, error)
	RemoveMember(ctx context.Context, organizationID, userID uuid.UUID) error
	CreateJoinRequest(ctx context.Context, organizationID, userID uuid.UUID, message *string) (*models.JoinRequest, error)
	GetJoinRequest(ctx context.Context, requestID uuid.UUID) (*models.JoinRequest, error)
	ListJoinRequests(ctx context.Context, organizationID uuid.UUID, status string) ([]models.JoinRequest, error)
	ApproveJoinRequest(ctx context.Context, requestID uuid.UUID) (*models.JoinRequest, error)
	RejectJoinRequest(ctx context.Context, requestID uuid.UUID) (*models.JoinRequest, error)
}

// FeedServiceInterface defines the methods used by handlers from FeedService
type FeedServiceInterface interface {
	CreatePost(ctx context.Context, authorID uuid.UUID, content string, imageURL *string, organizationIDs []uuid.UUID) (*models.FeedPost, error)
	ListPosts(ctx context.Context, viewerID uuid.UUID, organizationID *uuid.UUID, limit, offset int) ([]models.FeedPost, error)
	DeletePost(ctx context.Context, postID, userID uuid.UUID) error
	ToggleLike(ctx context.Context, postID, userID uuid.UUID) (bool, int, error)
	AddComment(ctx context.Context, postID, authorID uuid.UUID, content string) (*models.FeedComment, error)
	ListComments(ctx context.Context, postID uuid.UUID) ([]models.FeedComment, error)
	DeleteComment(ctx context.Context, commentID, userID uuid.UUID) error
}

// HubInterface defines the methods used by handlers from the SSE hub
type HubInterface interface {
	Register(client *sse.Client)
	Unregister(client *sse.Client)
	WatchProject(clientID string, projectID uuid.UUID) bool
	UnwatchProject(clientID string, projectID uuid.UUID)
	ClientOwner(clientID string) uuid.UUID
}
