package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/collabdoor/collabdoor-api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTokenService(t *testing.T) (*TokenService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return NewTokenService(&database.DB{Pool: mock}), mock
}

func TestTokenService_StoreRefreshToken(t *testing.T) {
	svc, mock := setupTokenService(t)
	userID := uuid.New()
	expiresAt := time.Now().Add(time.Hour)

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(userID, "hash", expiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, svc.StoreRefreshToken(context.Background(), userID, "hash", expiresAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenService_ConsumeRefreshToken(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name    string
		expect  func(m pgxmock.PgxPoolIface)
		want    uuid.UUID
		wantErr error
	}{
		{
			name: "live token",
			expect: func(m pgxmock.PgxPoolIface) {
				m.ExpectQuery(`DELETE FROM refresh_tokens .+ RETURNING user_id`).
					WithArgs("hash").
					WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(userID))
			},
			want: userID,
		},
		{
			name: "unknown, expired or already used",
			expect: func(m pgxmock.PgxPoolIface) {
				m.ExpectQuery(`DELETE FROM refresh_tokens`).
					WithArgs("hash").
					WillReturnError(pgx.ErrNoRows)
			},
			want:    uuid.Nil,
			wantErr: ErrInvalidRefreshToken,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock := setupTokenService(t)
			tt.expect(mock)

			got, err := svc.ConsumeRefreshToken(context.Background(), "hash")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTokenService_ConsumeRefreshToken_DatabaseError(t *testing.T) {
	svc, mock := setupTokenService(t)
	mock.ExpectQuery(`DELETE FROM refresh_tokens`).
		WithArgs("hash").
		WillReturnError(errors.New("connection reset"))

	_, err := svc.ConsumeRefreshToken(context.Background(), "hash")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidRefreshToken)
	assert.Contains(t, err.Error(), "failed to consume refresh token")
}

func TestTokenService_Revoke(t *testing.T) {
	svc, mock := setupTokenService(t)
	ctx := context.Background()
	userID := uuid.New()

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE token_hash`).
		WithArgs("hash").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE user_id`).
		WithArgs(userID).
		WillReturnError(errors.New("boom"))

	assert.NoError(t, svc.RevokeRefreshToken(ctx, "hash"))
	assert.ErrorContains(t, svc.RevokeAllUserTokens(ctx, userID), "failed to revoke sessions")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenService_CleanupExpired(t *testing.T) {
	svc, mock := setupTokenService(t)

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE expires_at <= NOW`).
		WillReturnResult(pgxmock.NewResult("DELETE", 5))

	removed, err := svc.CleanupExpired(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(5), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
