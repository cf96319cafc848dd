package firestoredb

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsNotFound(status.Error(codes.NotFound, "missing")))
	assert.False(t, IsNotFound(errors.New("plain")))
	assert.True(t, IsAlreadyExists(status.Error(codes.AlreadyExists, "dup")))
	assert.False(t, IsAlreadyExists(nil))
}

func TestCreateOrGet_Emulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set, skipping integration test")
	}
	ctx := context.Background()
	client, err := NewClient(ctx, Config{ProjectID: "allie-test"})
	require.NoError(t, err)
	defer client.Close()

	ref := client.Collection("createOrGet").Doc(uuid.NewString())
	_, created, err := CreateOrGet(ctx, ref, map[string]any{"n": 1})
	require.NoError(t, err)
	assert.True(t, created)

	snap, created, err := CreateOrGet(ctx, ref, map[string]any{"n": 2})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(1), snap.Data()["n"])
}
