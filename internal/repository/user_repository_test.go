package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userflow/internal/domain"
	"userflow/internal/testutil"
)

func newUserRepo(t *testing.T) domain.UserRepository {
	t.Helper()
	return NewUserRepository(testutil.NewTestDB(t), testutil.NewLogger())
}

func TestUserRepositoryCreateAndFind(t *testing.T) {
	repo := newUserRepo(t)

	user := &domain.User{
		Email:    "ali@example.com",
		Password: "gizli123",
		Fullname: "Ali Veli",
		RoleID:   1,
	}
	require.NoError(t, repo.Create(user))
	require.NotZero(t, user.ID)

	found, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user, found)

	// The password is persisted exactly as given.
	assert.Equal(t, "gizli123", found.Password)

	byEmail, err := repo.FindByEmail("ali@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, user.ID, byEmail.ID)
}

func TestUserRepositoryFindMissing(t *testing.T) {
	repo := newUserRepo(t)

	found, err := repo.FindByID(12345)
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = repo.FindByEmail("yok@example.com")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestUserRepositoryDuplicateEmail(t *testing.T) {
	repo := newUserRepo(t)

	first := &domain.User{Email: "a@x.com", Password: "pw", Fullname: "Birinci", RoleID: 1}
	require.NoError(t, repo.Create(first))

	second := &domain.User{Email: "a@x.com", Password: "pw2", Fullname: "İkinci", RoleID: 1}
	err := repo.Create(second)
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestUserRepositoryUnknownRole(t *testing.T) {
	repo := newUserRepo(t)

	user := &domain.User{Email: "b@x.com", Password: "pw", Fullname: "Rolsüz", RoleID: 99}
	err := repo.Create(user)
	assert.ErrorIs(t, err, domain.ErrRoleNotFound)
}

func TestUserRepositoryUpdate(t *testing.T) {
	repo := newUserRepo(t)

	user := &domain.User{Email: "eski@x.com", Password: "pw", Fullname: "Eski Ad", RoleID: 1}
	require.NoError(t, repo.Create(user))

	user.Email = "yeni@x.com"
	user.Fullname = "Yeni Ad"
	user.RoleID = 2
	require.NoError(t, repo.Update(user))

	found, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "yeni@x.com", found.Email)
	assert.Equal(t, "Yeni Ad", found.Fullname)
	assert.Equal(t, int64(2), found.RoleID)
}

func TestUserRepositoryUpdateConstraints(t *testing.T) {
	repo := newUserRepo(t)

	first := &domain.User{Email: "bir@x.com", Password: "pw", Fullname: "Bir", RoleID: 1}
	second := &domain.User{Email: "iki@x.com", Password: "pw", Fullname: "İki", RoleID: 1}
	require.NoError(t, repo.Create(first))
	require.NoError(t, repo.Create(second))

	// Renaming onto a taken email hits the unique index.
	second.Email = "bir@x.com"
	assert.ErrorIs(t, repo.Update(second), domain.ErrDuplicateEmail)

	// Pointing at a missing role hits the foreign key.
	second.Email = "iki@x.com"
	second.RoleID = 99
	assert.ErrorIs(t, repo.Update(second), domain.ErrRoleNotFound)

	// Updating a row that does not exist reports not found.
	ghost := &domain.User{ID: 4242, Email: "g@x.com", Password: "pw", Fullname: "Hayalet", RoleID: 1}
	assert.ErrorIs(t, repo.Update(ghost), domain.ErrUserNotFound)
}

func TestUserRepositoryDelete(t *testing.T) {
	repo := newUserRepo(t)

	user := &domain.User{Email: "silinecek@x.com", Password: "pw", Fullname: "Silinecek", RoleID: 1}
	require.NoError(t, repo.Create(user))

	require.NoError(t, repo.Delete(user.ID))

	found, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	assert.ErrorIs(t, repo.Delete(user.ID), domain.ErrUserNotFound)
}
