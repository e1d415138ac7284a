package leads

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateByPhoneCreatesNewLead(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	lead, err := GetOrCreateByPhone(ctx, repo, "+506 7015-0369", "Juan")
	require.NoError(t, err)

	assert.Equal(t, "+50670150369", lead.Phone)
	assert.Equal(t, StatusNew, lead.Status)
	assert.Equal(t, 10, lead.Score) // name present
	assert.NotEqual(t, uuid.Nil, lead.ID)
}

func TestGetOrCreateByPhoneReturnsExisting(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	first, err := GetOrCreateByPhone(ctx, repo, "+50670150369", "Juan")
	require.NoError(t, err)

	// Different punctuation, same normalized phone.
	second, err := GetOrCreateByPhone(ctx, repo, "+506-7015-0369", "")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Juan", second.Name)
}

func TestGetOrCreateByPhoneRequiresPhone(t *testing.T) {
	repo := NewInMemoryRepository()

	_, err := GetOrCreateByPhone(context.Background(), repo, "---", "Juan")
	assert.ErrorIs(t, err, ErrMissingPhone)
}

func TestInMemoryRepositoryUpdate(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	lead, err := GetOrCreateByPhone(ctx, repo, "+50670150369", "Juan")
	require.NoError(t, err)

	lead.Status = StatusEngaged
	require.NoError(t, repo.Update(ctx, lead))

	got, err := repo.GetByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusEngaged, got.Status)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrLeadNotFound)
}
