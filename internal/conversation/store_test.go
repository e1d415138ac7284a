package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureConversationCreatesOnFirstContact(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock)
	leadID := uuid.New()

	mock.ExpectQuery("SELECT id FROM conversations WHERE lead_id").
		WithArgs(leadID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO conversations").
		WithArgs(pgxmock.AnyArg(), leadID, "+50688881234", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := store.EnsureConversation(context.Background(), leadID, "+50688881234")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureConversationReturnsExisting(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock)
	leadID := uuid.New()
	existing := uuid.New()

	mock.ExpectQuery("SELECT id FROM conversations WHERE lead_id").
		WithArgs(leadID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(existing))

	id, err := store.EnsureConversation(context.Background(), leadID, "+50688881234")
	require.NoError(t, err)
	assert.Equal(t, existing, id)
}

func TestSaveMessage(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock)
	convID := uuid.New()

	mock.ExpectExec("INSERT INTO messages").
		WithArgs(pgxmock.AnyArg(), convID, RoleUser, "Quiero agendar el martes", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE conversations SET last_message_at").
		WithArgs(pgxmock.AnyArg(), convID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.SaveMessage(context.Background(), convID, RoleUser, "Quiero agendar el martes"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentMessagesChronological(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock)
	convID := uuid.New()
	now := time.Now().UTC()

	// Rows arrive newest first from the query.
	mock.ExpectQuery("SELECT id, conversation_id, role, content, created_at").
		WithArgs(convID, 5).
		WillReturnRows(pgxmock.NewRows([]string{"id", "conversation_id", "role", "content", "created_at"}).
			AddRow(uuid.New(), convID, RoleAssistant, "tercero", now).
			AddRow(uuid.New(), convID, RoleUser, "segundo", now.Add(-time.Minute)).
			AddRow(uuid.New(), convID, RoleUser, "primero", now.Add(-2*time.Minute)))

	msgs, err := store.RecentMessages(context.Background(), convID, 5)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "primero", msgs[0].Content)
	assert.Equal(t, "tercero", msgs[2].Content)
}
