package persistence

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/allie/internal/linking/domain"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLLinkRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLLinkRepository(dbtest.SQLite(t))
	event := domain.Ref{Type: domain.EntityEvent, ID: "e1"}
	contact := domain.Ref{Type: domain.EntityContact, ID: "c1"}

	created, err := repo.Create(ctx, domain.NewLink("fam", event, contact, domain.RelationRelated))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Create(ctx, domain.NewLink("fam", event, contact, domain.RelationRelated))
	require.NoError(t, err)
	assert.False(t, created)

	links, err := repo.ListFrom(ctx, event)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, contact, links[0].To)
	assert.Equal(t, domain.RelationRelated, links[0].Relation)

	links, err = repo.ListFrom(ctx, contact)
	require.NoError(t, err)
	assert.Empty(t, links)
}
