package stores

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tableorder-backend/pkg/config"
	"github.com/angelmondragon/tableorder-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
	"github.com/angelmondragon/tableorder-backend/pkg/security"
)

var testPasswordCfg = config.PasswordConfig{
	ArgonMemoryKB:    64,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t).DB())
	svc, err := NewService(repo, testPasswordCfg)
	require.NoError(t, err)
	return svc, repo
}

func TestNewServiceRequiresRepo(t *testing.T) {
	_, err := NewService(nil, testPasswordCfg)
	require.Error(t, err)
}

func TestCreateStoreHashesPassword(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	dto, err := svc.Create(ctx, CreateStoreInput{Name: " Gangnam ", AdminUsername: "owner", AdminPassword: "supersecret"})
	require.NoError(t, err)
	assert.Equal(t, "Gangnam", dto.Name)

	stored, err := repo.FindByAdminUsername(ctx, "owner")
	require.NoError(t, err)
	assert.NotEqual(t, "supersecret", stored.AdminPasswordHash)
	ok, err := security.VerifyPassword("supersecret", stored.AdminPasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateStoreDuplicateUsername(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateStoreInput{Name: "A", AdminUsername: "owner", AdminPassword: "supersecret"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateStoreInput{Name: "B", AdminUsername: "owner", AdminPassword: "supersecret"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestGetByIDMissing(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetByID(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestChangeAdminPassword(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	dto, err := svc.Create(ctx, CreateStoreInput{Name: "A", AdminUsername: "owner", AdminPassword: "supersecret"})
	require.NoError(t, err)

	err = svc.ChangeAdminPassword(ctx, dto.ID, "wrong-pass", "another-secret")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeAuthenticationFailed))

	require.NoError(t, svc.ChangeAdminPassword(ctx, dto.ID, "supersecret", "another-secret"))

	stored, err := repo.FindByID(ctx, dto.ID)
	require.NoError(t, err)
	ok, err := security.VerifyPassword("another-secret", stored.AdminPasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSwapAdminPasswordRejectsStaleHash(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	dto, err := svc.Create(ctx, CreateStoreInput{Name: "A", AdminUsername: "owner", AdminPassword: "supersecret"})
	require.NoError(t, err)
	before, err := repo.FindByID(ctx, dto.ID)
	require.NoError(t, err)

	require.NoError(t, repo.SwapAdminPassword(ctx, dto.ID, before.AdminPasswordHash, "hash-1"))
	err = repo.SwapAdminPassword(ctx, dto.ID, before.AdminPasswordHash, "hash-2")
	assert.ErrorIs(t, err, ErrStaleCredentials)

	after, err := repo.FindByID(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash-1", after.AdminPasswordHash)

	err = repo.SwapAdminPassword(ctx, uuid.New(), "hash-1", "hash-3")
	assert.ErrorIs(t, err, ErrStaleCredentials)
}
