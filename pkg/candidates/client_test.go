package candidates

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/internal/testutil"
)

func newMock() *testutil.MockCandidates {
	return testutil.NewMockCandidates("secret",
		testutil.MockCandidateList{
			ID:   "l1",
			Name: "Batch 2023 Alumni",
			Candidates: []map[string]any{
				testutil.NewMockCandidate("c1", "Asha", "Rao", "Data Analyst", ""),
				testutil.NewMockCandidate("c2", "Vikram", "Iyer", "SDE", "https://img.example/v.png"),
			},
		},
		testutil.MockCandidateList{ID: "l2", Name: "Campus Drive"},
	)
}

func TestListCandidateLists(t *testing.T) {
	mock := newMock()
	defer mock.Close()

	c, err := New(Config{BaseURL: mock.URL(), Token: "secret"})
	require.NoError(t, err)

	all, err := c.ListCandidateLists(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []List{{ID: "l1", Name: "Batch 2023 Alumni"}, {ID: "l2", Name: "Campus Drive"}}, all)

	filtered, err := c.ListCandidateLists(context.Background(), "alumni")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "l1", filtered[0].ID)
}

func TestFetchCandidates(t *testing.T) {
	mock := newMock()
	defer mock.Close()

	c, err := New(Config{BaseURL: mock.URL(), Token: "secret"})
	require.NoError(t, err)

	got, err := c.FetchCandidates(context.Background(), "l1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "c1", got[0].ID)
	assert.Equal(t, "Asha Rao", got[0].Name())
	assert.Equal(t, "https://ui-avatars.com/api/?name=Asha+Rao&background=random", got[0].AvatarURL())
	assert.Equal(t, "https://img.example/v.png", got[1].AvatarURL())

	empty, err := c.FetchCandidates(context.Background(), "l2")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFetchCandidates_Errors(t *testing.T) {
	mock := newMock()
	defer mock.Close()

	bad, err := New(Config{BaseURL: mock.URL(), Token: "wrong"})
	require.NoError(t, err)
	_, err = bad.ListCandidateLists(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	c, err := New(Config{BaseURL: mock.URL(), Token: "secret"})
	require.NoError(t, err)

	_, err = c.FetchCandidates(context.Background(), "missing")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)

	before := mock.GetRequestCount()
	_, err = c.FetchCandidates(context.Background(), "  ")
	assert.Error(t, err)
	assert.Equal(t, before, mock.GetRequestCount(), "blank id must not hit the service")
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
