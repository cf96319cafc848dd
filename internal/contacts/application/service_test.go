package application

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/allie/internal/contacts/domain"
	"github.com/felixgeelhaar/allie/internal/contacts/infrastructure/persistence"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRepo struct {
	domain.Repository
	err error
}

func (r failingRepo) FindByName(ctx context.Context, familyID, name string) (domain.Contact, error) {
	return domain.Contact{}, r.err
}

func TestService_FindOrCreate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(persistence.NewSQLContactRepository(dbtest.SQLite(t)), nil, nil)

	first, created, err := svc.FindOrCreate(ctx, domain.Contact{FamilyID: "fam", Name: "Ms. Rivera", Role: "teacher"})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := svc.FindOrCreate(ctx, domain.Contact{FamilyID: "fam", Name: "ms rivera"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "teacher", second.Role)

	contacts, err := svc.ListContacts(ctx, "fam")
	require.NoError(t, err)
	assert.Len(t, contacts, 1)
}

func TestService_FindOrCreate_Errors(t *testing.T) {
	svc := NewService(failingRepo{err: errors.New("timeout")}, nil, nil)

	_, _, err := svc.FindOrCreate(context.Background(), domain.Contact{FamilyID: "fam", Name: "Pat"})
	assert.ErrorContains(t, err, "timeout")

	_, _, err = svc.FindOrCreate(context.Background(), domain.Contact{FamilyID: "fam"})
	assert.ErrorIs(t, err, domain.ErrInvalidContact)
}
