package users_test

import (
	"testing"

	"github.com/jrsteele09/campus-auth/users"
	fakeuserrepo "github.com/jrsteele09/campus-auth/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  string
	}{
		{"valid", "Campus2024", ""},
		{"too short", "Ab1", "at least 8 characters"},
		{"no upper", "campus2024", "uppercase"},
		{"no lower", "CAMPUS2024", "lowercase"},
		{"no number", "CampusOnly", "number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := users.ValidatePasswordStrength(tt.password)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestUser_CheckPassword(t *testing.T) {
	hash, err := users.HashPassword("Campus2024")
	require.NoError(t, err)

	u := &users.User{PasswordHash: hash}
	require.True(t, u.CheckPassword("Campus2024"))
	require.False(t, u.CheckPassword("campus2024"))
}

func TestRoleType_Valid(t *testing.T) {
	require.True(t, users.RoleTeacher.Valid())
	require.False(t, users.RoleType("janitor").Valid())
}

func TestFakeUserRepo_EmailLookupIsCaseInsensitive(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	require.NoError(t, repo.Upsert(&users.User{Email: " Ada@Campus.edu ", Role: users.RoleStudent}))

	u, err := repo.GetByEmail("ada@campus.edu")
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)

	require.NoError(t, repo.SetBlocked("ADA@campus.edu", true))
	u, err = repo.GetByID(u.ID)
	require.NoError(t, err)
	require.True(t, u.Blocked)

	list, err := repo.List(0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, repo.Delete("ada@campus.edu"))
	_, err = repo.GetByEmail("ada@campus.edu")
	require.Error(t, err)
}
