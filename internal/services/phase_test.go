package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/collabdoor/collabdoor-api/internal/cache"
	"github.com/collabdoor/collabdoor-api/internal/database"
	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type phaseChange struct {
	projectID, phaseID, changedBy uuid.UUID
	action                        string
}

type recordingBroadcaster struct {
	changes []phaseChange
}

func (b *recordingBroadcaster) BroadcastPhaseChange(projectID, phaseID, changedBy uuid.UUID, action string) {
	b.changes = append(b.changes, phaseChange{projectID, phaseID, changedBy, action})
}

var phaseRowColumns = []string{
	"id", "project_id", "title", "description", "status", "due_date", "completed_date",
	"phase_order", "template_key", "created_at", "updated_at",
}

func phaseRow(rows *pgxmock.Rows, id, projectID uuid.UUID, title string, status models.PhaseStatus, order int) *pgxmock.Rows {
	now := time.Now()
	return rows.AddRow(id, projectID, title, "", status, nil, nil, order, nil, now, now)
}

func setupPhaseService(t *testing.T) (*PhaseService, pgxmock.PgxPoolIface, *recordingBroadcaster, *cache.ECache) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	qc := cache.NewMemory(64, time.Minute)
	b := &recordingBroadcaster{}
	svc := NewPhaseService(&database.DB{Pool: mock}, qc, b)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc, mock, b, qc
}

func expectPhaseInserts(mock pgxmock.PgxPoolIface, projectID uuid.UUID, titles []string, firstOrder int) {
	for i, title := range titles {
		mock.ExpectExec(`INSERT INTO project_phases`).
			WithArgs(projectID, title, pgxmock.AnyArg(), models.PhaseStatusNotStarted, pgxmock.AnyArg(), firstOrder+i, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
}

func TestPhaseService_Generate_PhaseCounts(t *testing.T) {
	tests := []struct {
		pt     models.PartnershipType
		titles []string
	}{
		{models.PartnershipSkilled, []string{"Kickoff", "Skills Assessment", "Collaboration", "Completion"}},
		{models.PartnershipKnowledge, []string{"Transfer Initiation", "Expert Consultation", "Implementation", "Review"}},
		{models.PartnershipMonetary, []string{"Planning", "Execution", "Wrap-up"}},
		{models.PartnershipVolunteering, []string{"Planning", "Execution", "Wrap-up"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.pt), func(t *testing.T) {
			svc, mock, _, _ := setupPhaseService(t)
			projectID := uuid.New()

			mock.ExpectExec(`INSERT INTO project_phase_seeds`).
				WithArgs(projectID, tt.pt).
				WillReturnResult(pgxmock.NewResult("INSERT", 1))
			mock.ExpectQuery(`SELECT COALESCE\(MAX\(phase_order\), -1\) FROM project_phases`).
				WithArgs(projectID).
				WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow(-1))
			expectPhaseInserts(mock, projectID, tt.titles, 0)

			n, err := svc.Generate(context.Background(), mock, projectID, tt.pt)

			require.NoError(t, err)
			assert.Equal(t, len(tt.titles), n)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPhaseService_Generate_ContinuesAfterExistingPhases(t *testing.T) {
	svc, mock, _, _ := setupPhaseService(t)
	projectID := uuid.New()

	mock.ExpectExec(`INSERT INTO project_phase_seeds`).
		WithArgs(projectID, models.PartnershipMonetary).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(phase_order\), -1\) FROM project_phases`).
		WithArgs(projectID).
		WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow(4))
	expectPhaseInserts(mock, projectID, []string{"Planning", "Execution", "Wrap-up"}, 5)

	n, err := svc.Generate(context.Background(), mock, projectID, models.PartnershipMonetary)

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPhaseService_Generate_AlreadySeeded(t *testing.T) {
	svc, mock, _, _ := setupPhaseService(t)
	projectID := uuid.New()

	mock.ExpectExec(`INSERT INTO project_phase_seeds`).
		WithArgs(projectID, models.PartnershipSkilled).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	n, err := svc.Generate(context.Background(), mock, projectID, models.PartnershipSkilled)

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPhaseService_Backfill(t *testing.T) {
	skilled := []string{"Kickoff", "Skills Assessment", "Collaboration", "Completion"}

	tests := []struct {
		name      string
		claimed   int64
		failAt    int
		wantN     int
		wantErr   string
		committed bool
	}{
		{name: "seeds and commits", claimed: 1, failAt: -1, wantN: 4, committed: true},
		{name: "already seeded", claimed: 0, failAt: -1, committed: true},
		{name: "insert failure rolls back the claim", claimed: 1, failAt: 1, wantErr: `failed to insert phase "Skills Assessment"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock, _, qc := setupPhaseService(t)
			ctx := context.Background()
			projectID := uuid.New()
			require.NoError(t, qc.SetJSON(ctx, cache.PhasesKey(projectID), []models.Phase{}))

			mock.ExpectBegin()
			mock.ExpectExec(`INSERT INTO project_phase_seeds`).
				WithArgs(projectID, models.PartnershipSkilled).
				WillReturnResult(pgxmock.NewResult("INSERT", tt.claimed))
			if tt.claimed == 1 {
				mock.ExpectQuery(`SELECT COALESCE\(MAX\(phase_order\), -1\) FROM project_phases`).
					WithArgs(projectID).
					WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow(-1))
				if tt.failAt < 0 {
					expectPhaseInserts(mock, projectID, skilled, 0)
				} else {
					expectPhaseInserts(mock, projectID, skilled[:tt.failAt], 0)
					mock.ExpectExec(`INSERT INTO project_phases`).
						WithArgs(projectID, skilled[tt.failAt], pgxmock.AnyArg(), models.PhaseStatusNotStarted, pgxmock.AnyArg(), tt.failAt, pgxmock.AnyArg()).
						WillReturnError(errors.New("connection reset"))
				}
			}
			if tt.committed {
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}

			n, err := svc.Backfill(ctx, projectID, models.PartnershipSkilled)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantN, n)
			assert.NoError(t, mock.ExpectationsWereMet())

			var cached []models.Phase
			if tt.wantN > 0 {
				assert.ErrorIs(t, qc.GetJSON(ctx, cache.PhasesKey(projectID), &cached), cache.ErrMiss)
			} else {
				assert.NoError(t, qc.GetJSON(ctx, cache.PhasesKey(projectID), &cached))
			}
		})
	}
}

func TestPhaseService_ClaimDueReminders(t *testing.T) {
	svc, mock, _, _ := setupPhaseService(t)
	projectID, phaseID := uuid.New(), uuid.New()
	now := svc.now()

	mock.ExpectQuery(`UPDATE project_phases SET reminded_at = \$2 WHERE status <> \$1 AND reminded_at IS NULL`).
		WithArgs(models.PhaseStatusCompleted, now, now.Add(48*time.Hour)).
		WillReturnRows(phaseRow(pgxmock.NewRows(phaseRowColumns), phaseID, projectID, "Kickoff", models.PhaseStatusInProgress, 0))

	due, err := svc.ClaimDueReminders(context.Background(), 48*time.Hour)

	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, phaseID, due[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPhaseService_List_UsesCache(t *testing.T) {
	svc, mock, _, _ := setupPhaseService(t)
	ctx := context.Background()
	projectID := uuid.New()

	rows := pgxmock.NewRows(phaseRowColumns)
	phaseRow(rows, uuid.New(), projectID, "Kickoff", models.PhaseStatusNotStarted, 0)
	phaseRow(rows, uuid.New(), projectID, "Completion", models.PhaseStatusNotStarted, 1)
	mock.ExpectQuery(`SELECT .+ FROM project_phases WHERE project_id = .+ ORDER BY phase_order`).
		WithArgs(projectID).
		WillReturnRows(rows)

	first, err := svc.List(ctx, projectID)
	require.NoError(t, err)
	second, err := svc.List(ctx, projectID)
	require.NoError(t, err)

	require.Len(t, first, 2)
	assert.Equal(t, "Kickoff", first[0].Title)
	assert.Equal(t, first[1].Title, second[1].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPhaseService_Add_Appends(t *testing.T) {
	svc, mock, b, qc := setupPhaseService(t)
	ctx := context.Background()
	projectID, actorID, phaseID := uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, qc.SetJSON(ctx, cache.PhasesKey(projectID), []models.Phase{}))

	mock.ExpectQuery(`INSERT INTO project_phases .+ SELECT .+ COALESCE\(MAX\(phase_order\), -1\) \+ 1`).
		WithArgs(projectID, "Retro", "", models.PhaseStatusNotStarted, (*time.Time)(nil)).
		WillReturnRows(phaseRow(pgxmock.NewRows(phaseRowColumns), phaseID, projectID, "Retro", models.PhaseStatusNotStarted, 4))

	p, err := svc.Add(ctx, projectID, actorID, PhaseInput{Title: "  Retro "})

	require.NoError(t, err)
	assert.Equal(t, 4, p.Order)
	require.Len(t, b.changes, 1)
	assert.Equal(t, phaseChange{projectID, phaseID, actorID, PhaseActionCreated}, b.changes[0])

	var cached []models.Phase
	assert.ErrorIs(t, qc.GetJSON(ctx, cache.PhasesKey(projectID), &cached), cache.ErrMiss)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPhaseService_Add_OrderTaken(t *testing.T) {
	svc, mock, b, _ := setupPhaseService(t)
	projectID := uuid.New()
	order := 2

	mock.ExpectQuery(`INSERT INTO project_phases`).
		WithArgs(projectID, "Retro", "", models.PhaseStatusNotStarted, (*time.Time)(nil), 2).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := svc.Add(context.Background(), projectID, uuid.New(), PhaseInput{Title: "Retro", Order: &order})

	assert.ErrorIs(t, err, ErrPhaseOrderTaken)
	assert.Empty(t, b.changes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPhaseService_Add_RequiresTitle(t *testing.T) {
	svc, mock, _, _ := setupPhaseService(t)

	_, err := svc.Add(context.Background(), uuid.New(), uuid.New(), PhaseInput{Title: "   "})

	assert.ErrorIs(t, err, ErrPhaseTitleRequired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPhaseService_Update_CompletingStampsDate(t *testing.T) {
	svc, mock, b, _ := setupPhaseService(t)
	phaseID, projectID, actorID := uuid.New(), uuid.New(), uuid.New()
	completed := models.PhaseStatusCompleted
	stamp := svc.now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM project_phases WHERE id = .+ FOR UPDATE`).
		WithArgs(phaseID).
		WillReturnRows(phaseRow(pgxmock.NewRows(phaseRowColumns), phaseID, projectID, "Kickoff", models.PhaseStatusInProgress, 0))
	mock.ExpectQuery(`UPDATE project_phases`).
		WithArgs(phaseID, "Kickoff", "", (*time.Time)(nil), models.PhaseStatusCompleted, &stamp).
		WillReturnRows(pgxmock.NewRows(phaseRowColumns).
			AddRow(phaseID, projectID, "Kickoff", "", models.PhaseStatusCompleted, nil, &stamp, 0, nil, stamp, stamp))
	mock.ExpectCommit()

	p, err := svc.Update(context.Background(), phaseID, actorID, PhaseUpdate{Status: &completed})

	require.NoError(t, err)
	assert.Equal(t, models.PhaseStatusCompleted, p.Status)
	require.NotNil(t, p.CompletedDate)
	assert.True(t, stamp.Equal(*p.CompletedDate))
	require.Len(t, b.changes, 1)
	assert.Equal(t, PhaseActionUpdated, b.changes[0].action)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPhaseService_Update_RejectsBackwardTransition(t *testing.T) {
	svc, mock, b, _ := setupPhaseService(t)
	phaseID := uuid.New()
	back := models.PhaseStatusNotStarted

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM project_phases WHERE id = .+ FOR UPDATE`).
		WithArgs(phaseID).
		WillReturnRows(phaseRow(pgxmock.NewRows(phaseRowColumns), phaseID, uuid.New(), "Kickoff", models.PhaseStatusCompleted, 0))
	mock.ExpectRollback()

	_, err := svc.Update(context.Background(), phaseID, uuid.New(), PhaseUpdate{Status: &back})

	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.Empty(t, b.changes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPhaseService_Update_InvalidStatus(t *testing.T) {
	svc, mock, _, _ := setupPhaseService(t)
	bogus := models.PhaseStatus("paused")

	_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), PhaseUpdate{Status: &bogus})

	assert.ErrorIs(t, err, ErrInvalidPhaseStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPhaseService_Update_NotFound(t *testing.T) {
	svc, mock, _, _ := setupPhaseService(t)
	phaseID := uuid.New()
	title := "Renamed"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM project_phases WHERE id`).
		WithArgs(phaseID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.Update(context.Background(), phaseID, uuid.New(), PhaseUpdate{Title: &title})

	assert.ErrorIs(t, err, ErrPhaseNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPhaseService_Delete(t *testing.T) {
	svc, mock, b, _ := setupPhaseService(t)
	phaseID, projectID, actorID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(`DELETE FROM project_phases WHERE id = .+ RETURNING project_id`).
		WithArgs(phaseID).
		WillReturnRows(pgxmock.NewRows([]string{"project_id"}).AddRow(projectID))
	mock.ExpectQuery(`DELETE FROM project_phases`).
		WithArgs(phaseID).
		WillReturnError(pgx.ErrNoRows)

	require.NoError(t, svc.Delete(context.Background(), phaseID, actorID))
	assert.ErrorIs(t, svc.Delete(context.Background(), phaseID, actorID), ErrPhaseNotFound)

	require.Len(t, b.changes, 1)
	assert.Equal(t, phaseChange{projectID, phaseID, actorID, PhaseActionDeleted}, b.changes[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}
