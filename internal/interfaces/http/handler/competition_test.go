package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/dpnk/backend/internal/application/results"
	"github.com/dpnk/backend/internal/domain/competition"
	"github.com/dpnk/backend/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addCompetition(t *testing.T, env *testEnv, slug string, public bool) *competition.Competition {
	t.Helper()
	comp, err := competition.NewCompetition(env.f.Campaign.ID, "Pravidelnost "+slug, slug,
		competition.TypeFrequency, competition.CompetitorSingleUser)
	require.NoError(t, err)
	comp.IsPublic = public
	require.NoError(t, env.f.Store.Competitions().Save(context.Background(), comp))
	return comp
}

func TestCompetitionHandler_ListCompetitions(t *testing.T) {
	env := newTestEnv(t)

	t.Run("empty campaign", func(t *testing.T) {
		w := env.serve(t, env.competition.ListCompetitions, request{target: "/competitions"})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, dataAs[[]results.CompetitionResponse](t, w))
	})

	addCompetition(t, env, "pravidelnost", true)
	addCompetition(t, env, "interni", false)

	tests := []struct {
		name  string
		staff bool
		count int
	}{
		{"participants see public competitions", false, 1},
		{"staff sees all", true, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.serve(t, env.competition.ListCompetitions, request{
				target: "/competitions",
				user:   uuid.New(),
				staff:  tt.staff,
			})

			require.Equal(t, http.StatusOK, w.Code)
			assert.Len(t, dataAs[[]results.CompetitionResponse](t, w), tt.count)
		})
	}
}

func TestCompetitionHandler_Results(t *testing.T) {
	env := newTestEnv(t)
	addCompetition(t, env, "pravidelnost", true)
	addCompetition(t, env, "interni", false)

	t.Run("empty table", func(t *testing.T) {
		w := env.serve(t, env.competition.Results, request{
			route:  "/competitions/:slug/results",
			target: "/competitions/pravidelnost/results?page=1&page_size=20",
		})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		page := dataAs[results.ResultsPage](t, w)
		assert.Equal(t, "pravidelnost", page.Competition.Slug)
		assert.NotNil(t, page.Items)
		assert.Empty(t, page.Items)

		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, 20, resp.Meta.PageSize)
	})

	tests := []struct {
		name   string
		slug   string
		staff  bool
		status int
	}{
		{"unknown competition", "neexistuje", false, http.StatusNotFound},
		{"hidden competition", "interni", false, http.StatusNotFound},
		{"hidden competition for staff", "interni", true, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.serve(t, env.competition.Results, request{
				route:  "/competitions/:slug/results",
				target: "/competitions/" + tt.slug + "/results",
				user:   uuid.New(),
				staff:  tt.staff,
			})

			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status == http.StatusNotFound {
				assert.Equal(t, dto.ErrCodeNotFound, errorCode(t, w))
			}
		})
	}

	t.Run("page size over the limit", func(t *testing.T) {
		w := env.serve(t, env.competition.Results, request{
			route:  "/competitions/:slug/results",
			target: "/competitions/pravidelnost/results?page_size=1000",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, errorCode(t, w))
	})
}
