package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userflow/internal/domain"
	"userflow/internal/testutil"
)

func newRoleRepo(t *testing.T) domain.RoleRepository {
	t.Helper()
	return NewRoleRepository(testutil.NewTestDB(t), testutil.NewLogger())
}

func TestRoleRepositoryFindByID(t *testing.T) {
	repo := newRoleRepo(t)

	role, err := repo.FindByID(1)
	require.NoError(t, err)
	require.NotNil(t, role)
	assert.Equal(t, domain.RoleNameAdmin, role.Name)

	missing, err := repo.FindByID(99)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRoleRepositoryFindByName(t *testing.T) {
	repo := newRoleRepo(t)

	role, err := repo.FindByName(domain.RoleNameReader)
	require.NoError(t, err)
	require.NotNil(t, role)
	assert.Equal(t, int64(3), role.ID)

	missing, err := repo.FindByName("ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRoleRepositoryFindAll(t *testing.T) {
	repo := newRoleRepo(t)

	roles, err := repo.FindAll()
	require.NoError(t, err)
	require.Len(t, roles, 3)

	assert.Equal(t, domain.RoleNameAdmin, roles[0].Name)
	assert.Equal(t, domain.RoleNameWriter, roles[1].Name)
	assert.Equal(t, domain.RoleNameReader, roles[2].Name)
}

func TestRoleRepositoryExists(t *testing.T) {
	repo := newRoleRepo(t)

	exists, err := repo.Exists(1)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(99)
	require.NoError(t, err)
	assert.False(t, exists)
}
