package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/agency-cms-api/internal/database"
	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/repository"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLMock(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return database.Wrap(db, zerolog.Nop()), mock
}

var contactRowColumns = []string{"id", "name", "email", "phone", "subject", "message", "ip_address", "user_agent",
	"is_read", "status", "priority", "assigned_to", "replied_at", "replied_by", "created_at", "updated_at"}

func TestContactRepo_AddReplyMissingMessage(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := repository.NewContactRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE contact_messages SET status = 'replied'`).
		WillReturnRows(sqlmock.NewRows(contactRowColumns))
	mock.ExpectRollback()

	_, err := repo.AddReply(context.Background(), &models.ContactReply{
		MessageID: "3f0c2a8e-0000-4000-8000-000000000404",
		AdminID:   "3f0c2a8e-0000-4000-8000-000000000001",
		ReplyText: "Bonjour",
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet(), "the reply row must not be inserted")
}

func TestContactRepo_AddReply(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := repository.NewContactRepo(db)
	now := time.Now()
	msgID := "3f0c2a8e-0000-4000-8000-000000000002"

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE contact_messages SET status = 'replied'`).
		WillReturnRows(sqlmock.NewRows(contactRowColumns).AddRow(
			msgID, "Jeanne", "jeanne@example.com", nil, "Devis", "Bonjour", nil, nil,
			true, models.ContactReplied, "normal", nil, now, "admin-1", now, now))
	mock.ExpectQuery(`INSERT INTO contact_message_replies`).
		WithArgs(msgID, "admin-1", "Merci").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("reply-1", now))
	mock.ExpectCommit()

	reply := &models.ContactReply{MessageID: msgID, AdminID: "admin-1", ReplyText: "Merci"}
	msg, err := repo.AddReply(context.Background(), reply)
	require.NoError(t, err)
	assert.Equal(t, models.ContactReplied, msg.Status)
	assert.Equal(t, "reply-1", reply.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
