package testutil

import (
	"context"

	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/collabdoor/collabdoor-api/internal/oauth"
	"github.com/collabdoor/collabdoor-api/internal/services"
	"github.com/collabdoor/collabdoor-api/internal/sse"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	args := m.Called(ctx, info)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, id uuid.UUID, name string) (*models.User, error) {
	args := m.Called(ctx, id, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockSessionService mocks the SessionService
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) BeginLogin(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockSessionService) ConsumeState(ctx context.Context, state string) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockSessionService) IssueAuthCode(ctx context.Context, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockSessionService) ExchangeAuthCode(ctx context.Context, code string) (*services.TokenPair, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenPair), args.Error(1)
}

func (m *MockSessionService) Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenPair), args.Error(1)
}

func (m *MockSessionService) Logout(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockSessionService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockProjectService mocks the ProjectService
type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) Create(ctx context.Context, organizerID uuid.UUID, input services.ProjectInput) (*models.Project, error) {
	args := m.Called(ctx, organizerID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) GetByID(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) ListPublished(ctx context.Context, pt models.PartnershipType, limit, offset int) ([]models.Project, error) {
	args := m.Called(ctx, pt, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Project), args.Error(1)
}

func (m *MockProjectService) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]models.Project, error) {
	args := m.Called(ctx, organizerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Project), args.Error(1)
}

func (m *MockProjectService) Update(ctx context.Context, projectID uuid.UUID, input services.ProjectUpdate) (*models.Project, error) {
	args := m.Called(ctx, projectID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) UpdateStatus(ctx context.Context, projectID uuid.UUID, status models.ProjectStatus) (*models.Project, error) {
	args := m.Called(ctx, projectID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) Delete(ctx context.Context, projectID uuid.UUID) error {
	args := m.Called(ctx, projectID)
	return args.Error(0)
}

func (m *MockProjectService) IsOrganizer(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, projectID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProjectService) CanCollaborate(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, projectID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProjectService) Overview(ctx context.Context, projectID uuid.UUID) (*models.ProjectOverview, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProjectOverview), args.Error(1)
}

// MockApplicationService mocks the ApplicationService
type MockApplicationService struct {
	mock.Mock
}

func (m *MockApplicationService) CheckStatus(ctx context.Context, projectID string, userID uuid.UUID) (*models.Application, error) {
	args := m.Called(ctx, projectID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}

func (m *MockApplicationService) Apply(ctx context.Context, projectID string, userID uuid.UUID, input services.ApplyInput) (*models.Application, error) {
	args := m.Called(ctx, projectID, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}

func (m *MockApplicationService) UpdateStatus(ctx context.Context, applicationID uuid.UUID, status models.ApplicationStatus) (*models.Application, error) {
	args := m.Called(ctx, applicationID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}

func (m *MockApplicationService) GetByID(ctx context.Context, applicationID uuid.UUID) (*models.Application, error) {
	args := m.Called(ctx, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}

func (m *MockApplicationService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Application, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Application), args.Error(1)
}

func (m *MockApplicationService) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Application, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Application), args.Error(1)
}

// MockPhaseService mocks the PhaseService
type MockPhaseService struct {
	mock.Mock
}

func (m *MockPhaseService) List(ctx context.Context, projectID uuid.UUID) ([]models.Phase, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Phase), args.Error(1)
}

func (m *MockPhaseService) GetByID(ctx context.Context, phaseID uuid.UUID) (*models.Phase, error) {
	args := m.Called(ctx, phaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Phase), args.Error(1)
}

func (m *MockPhaseService) Add(ctx context.Context, projectID, actorID uuid.UUID, input services.PhaseInput) (*models.Phase, error) {
	args := m.Called(ctx, projectID, actorID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Phase), args.Error(1)
}

func (m *MockPhaseService) Update(ctx context.Context, phaseID, actorID uuid.UUID, input services.PhaseUpdate) (*models.Phase, error) {
	args := m.Called(ctx, phaseID, actorID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Phase), args.Error(1)
}

func (m *MockPhaseService) Delete(ctx context.Context, phaseID, actorID uuid.UUID) error {
	args := m.Called(ctx, phaseID, actorID)
	return args.Error(0)
}

// MockNotificationService mocks the NotificationService
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationService) MarkAsRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	args := m.Called(ctx, notificationID, userID)
	return args.Error(0)
}

func (m *MockNotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockReviewService mocks the ReviewService
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) Queue(ctx context.Context, projectID, reviewerID uuid.UUID) ([]models.PendingReview, error) {
	args := m.Called(ctx, projectID, reviewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PendingReview), args.Error(1)
}

func (m *MockReviewService) Submit(ctx context.Context, projectID, reviewerID, revieweeID uuid.UUID, rating int, comment *string) (*models.Review, error) {
	args := m.Called(ctx, projectID, reviewerID, revieweeID, rating, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewService) Skip(ctx context.Context, projectID, reviewerID, revieweeID uuid.UUID) error {
	args := m.Called(ctx, projectID, reviewerID, revieweeID)
	return args.Error(0)
}

func (m *MockReviewService) ListForUser(ctx context.Context, revieweeID uuid.UUID) ([]models.Review, error) {
	args := m.Called(ctx, revieweeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *MockReviewService) Summary(ctx context.Context, userID uuid.UUID) (*models.ReviewSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReviewSummary), args.Error(1)
}

// MockOrganizationService mocks the OrganizationService
type MockOrganizationService struct {
	mock.Mock
}

func (m *MockOrganizationService) Create(ctx context.Context, name string, description *string, ownerID uuid.UUID) (*models.Organization, error) {
	args := m.Called(ctx, name, description, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *MockOrganizationService) GetByID(ctx context.Context, organizationID uuid.UUID) (*models.Organization, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *MockOrganizationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Organization, []string, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Organization), args.Get(1).([]string), args.Error(2)
}

func (m *MockOrganizationService) Update(ctx context.Context, organizationID uuid.UUID, name, description *string) (*models.Organization, error) {
	args := m.Called(ctx, organizationID, name, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *MockOrganizationService) Delete(ctx context.Context, organizationID uuid.UUID) error {
	args := m.Called(ctx, organizationID)
	return args.Error(0)
}

func (m *MockOrganizationService) IsOwner(ctx context.Context, organizationID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, organizationID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrganizationService) IsMember(ctx context.Context, organizationID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, organizationID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrganizationService) GetMembers(ctx context.Context, organizationID uuid.UUID) ([]models.OrganizationMember, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OrganizationMember), args.Error(1)
}

func (m *MockOrganizationService) RemoveMember(ctx context.Context, organizationID, userID uuid.UUID) error {
	args := m.Called(ctx, organizationID, userID)
	return args.Error(0)
}

func (m *MockOrganizationService) CreateJoinRequest(ctx context.Context, organizationID, userID uuid.UUID, message *string) (*models.JoinRequest, error) {
	args := m.Called(ctx, organizationID, userID, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JoinRequest), args.Error(1)
}

func (m *MockOrganizationService) GetJoinRequest(ctx context.Context, requestID uuid.UUID) (*models.JoinRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JoinRequest), args.Error(1)
}

func (m *MockOrganizationService) ListJoinRequests(ctx context.Context, organizationID uuid.UUID, status string) ([]models.JoinRequest, error) {
	args := m.Called(ctx, organizationID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.JoinRequest), args.Error(1)
}

func (m *MockOrganizationService) ApproveJoinRequest(ctx context.Context, requestID uuid.UUID) (*models.JoinRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JoinRequest), args.Error(1)
}

func (m *MockOrganizationService) RejectJoinRequest(ctx context.Context, requestID uuid.UUID) (*models.JoinRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JoinRequest), args.Error(1)
}

// MockFeedService mocks the FeedService
type MockFeedService struct {
	mock.Mock
}

func (m *MockFeedService) CreatePost(ctx context.Context, authorID uuid.UUID, content string, imageURL *string, organizationIDs []uuid.UUID) (*models.FeedPost, error) {
	args := m.Called(ctx, authorID, content, imageURL, organizationIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FeedPost), args.Error(1)
}

func (m *MockFeedService) ListPosts(ctx context.Context, viewerID uuid.UUID, organizationID *uuid.UUID, limit, offset int) ([]models.FeedPost, error) {
	args := m.Called(ctx, viewerID, organizationID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FeedPost), args.Error(1)
}

func (m *MockFeedService) DeletePost(ctx context.Context, postID, userID uuid.UUID) error {
	args := m.Called(ctx, postID, userID)
	return args.Error(0)
}

func (m *MockFeedService) ToggleLike(ctx context.Context, postID, userID uuid.UUID) (bool, int, error) {
	args := m.Called(ctx, postID, userID)
	return args.Bool(0), args.Int(1), args.Error(2)
}

func (m *MockFeedService) AddComment(ctx context.Context, postID, authorID uuid.UUID, content string) (*models.FeedComment, error) {
	args := m.Called(ctx, postID, authorID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FeedComment), args.Error(1)
}

func (m *MockFeedService) ListComments(ctx context.Context, postID uuid.UUID) ([]models.FeedComment, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FeedComment), args.Error(1)
}

func (m *MockFeedService) DeleteComment(ctx context.Context, commentID, userID uuid.UUID) error {
	args := m.Called(ctx, commentID, userID)
	return args.Error(0)
}

// MockSSEHub mocks the SSE hub
type MockSSEHub struct {
	mock.Mock
}

func (m *MockSSEHub) Register(client *sse.Client) {
	m.Called(client)
}

func (m *MockSSEHub) Unregister(client *sse.Client) {
	m.Called(client)
}

func (m *MockSSEHub) WatchProject(clientID string, projectID uuid.UUID) bool {
	args := m.Called(clientID, projectID)
	return args.Bool(0)
}

func (m *MockSSEHub) UnwatchProject(clientID string, projectID uuid.UUID) {
	m.Called(clientID, projectID)
}

func (m *MockSSEHub) ClientOwner(clientID string) uuid.UUID {
	args := m.Called(clientID)
	return args.Get(0).(uuid.UUID)
}

// MockOAuthProvider mocks an OAuth provider
type MockOAuthProvider struct {
	mock.Mock
}

func (m *MockOAuthProvider) GetConsentURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*oauth.UserInfo, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth.UserInfo), args.Error(1)
}

func (m *MockOAuthProvider) Name() string {
	args := m.Called()
	return args.String(0)
}
