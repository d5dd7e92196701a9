package repository_test

import (
	"context"
	"factory-server/internal/model"
	"factory-server/internal/repository"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionRowColumns = []string{"id", "user_id", "ip_address", "user_agent", "created_at", "last_activity",
	"is_active", "access_token_jti", "refresh_token_jti", "expired_at", "deactivation_reason"}

var sessionTime = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func TestSessionRepository_Create(t *testing.T) {
	session := &model.Session{
		ID: "s1", UserID: "u1", IPAddress: "10.0.0.1", UserAgent: "ua",
		CreatedAt: sessionTime, LastActivity: sessionTime,
		AccessTokenJTI: "a1", RefreshTokenJTI: "r1",
	}

	t.Run("успех", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`INSERT INTO user_sessions`).
			WithArgs("s1", "u1", "10.0.0.1", "ua", sessionTime, sessionTime, "a1", "r1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repository.NewSessionRepository(nil).Create(context.Background(), db, session))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("повтор jti", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`INSERT INTO user_sessions`).WillReturnError(&pq.Error{Code: "23505"})

		err := repository.NewSessionRepository(nil).Create(context.Background(), db, session)
		assert.ErrorIs(t, err, model.ErrSessionConflict)
	})
}

func TestSessionRepository_FindByRefreshJTIForUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewSessionRepository(nil)

	mock.ExpectQuery(`FROM user_sessions WHERE refresh_token_jti = \$1 FOR UPDATE`).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows(sessionRowColumns).
			AddRow("s1", "u1", "10.0.0.1", "ua", sessionTime, sessionTime, true, "a1", "r1", nil, nil))
	mock.ExpectQuery(`FROM user_sessions WHERE refresh_token_jti = \$1 FOR UPDATE`).
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows(sessionRowColumns))

	session, err := repo.FindByRefreshJTIForUpdate(context.Background(), db, "r1")
	require.NoError(t, err)
	assert.Equal(t, "s1", session.ID)
	assert.True(t, session.IsActive)
	assert.Nil(t, session.DeactivationReason)

	_, err = repo.FindByRefreshJTIForUpdate(context.Background(), db, "gone")
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_ListActiveByUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewSessionRepository(nil)

	mock.ExpectQuery(`WHERE user_id = \$1 AND is_active\s+ORDER BY last_activity DESC`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(sessionRowColumns).
			AddRow("s2", "u1", "10.0.0.2", "ua", sessionTime, sessionTime.Add(time.Hour), true, "a2", "r2", nil, nil).
			AddRow("s1", "u1", "10.0.0.1", "ua", sessionTime, sessionTime, true, "a1", "r1", nil, nil))

	sessions, err := repo.ListActiveByUser(context.Background(), db, "u1")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s2", sessions[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Deactivate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewSessionRepository(nil)

	mock.ExpectExec(`UPDATE user_sessions\s+SET is_active = FALSE`).
		WithArgs("s1", model.ReasonLogout, sessionTime).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE user_sessions\s+SET is_active = FALSE`).
		WithArgs("s1", model.ReasonLogout, sessionTime).
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := repo.Deactivate(context.Background(), db, "s1", model.ReasonLogout, sessionTime)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.Deactivate(context.Background(), db, "s1", model.ReasonLogout, sessionTime)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_UpdateTokens(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "успех",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE user_sessions\s+SET access_token_jti = \$3, refresh_token_jti = \$4`).
					WithArgs("s1", "r1", "a2", "r2", sessionTime).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "refresh уже заменен",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE user_sessions`).WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: model.ErrSessionConflict,
		},
		{
			name: "нарушение уникальности",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE user_sessions`).WillReturnError(&pq.Error{Code: "23505"})
			},
			wantErr: model.ErrSessionConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tt.setup(mock)

			err := repository.NewSessionRepository(nil).UpdateTokens(context.Background(), db, "s1", "r1", "a2", "r2", sessionTime)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSessionRepository_DeleteByIDs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewSessionRepository(nil)

	deleted, err := repo.DeleteByIDs(context.Background(), db, nil)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	mock.ExpectExec(`DELETE FROM user_sessions WHERE id = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	deleted, err = repo.DeleteByIDs(context.Background(), db, []string{"s1", "s2"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
