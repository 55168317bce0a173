package studentrepofake_test

import (
	"testing"

	apperrors "github.com/jrsteele09/campus-auth/internal/errors"
	"github.com/jrsteele09/campus-auth/students"
	studentrepofake "github.com/jrsteele09/campus-auth/students/repofake"
	"github.com/stretchr/testify/require"
)

func TestFakeStudentRepo(t *testing.T) {
	repo := studentrepofake.NewFakeStudentRepo()
	for _, s := range []*students.Student{
		{ID: "42", FirstName: "Ada", LastName: "Lovelace"},
		{ID: "7", FirstName: "Alan", LastName: "Turing"},
		{FirstName: "Grace", LastName: "Hopper"},
	} {
		require.NoError(t, repo.Upsert(s))
	}

	got, err := repo.Get("42")
	require.NoError(t, err)
	require.Equal(t, "Ada", got.FirstName)

	_, err = repo.Get("99")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	page, err := repo.List(0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "Hopper", page[0].LastName)
	require.Equal(t, "Lovelace", page[1].LastName)

	rest, err := repo.List(2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)

	empty, err := repo.List(10, 2)
	require.NoError(t, err)
	require.Empty(t, empty)
}
