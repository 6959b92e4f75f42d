package handler

import (
	"net/http"
	"testing"

	"github.com/dpnk/backend/internal/application/organization"
	"github.com/dpnk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrganizationHandler_ListCompanies(t *testing.T) {
	env := newTestEnv(t)

	w := env.serve(t, env.org.ListCompanies, request{target: "/companies?search=auto&page_size=10"})

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)
	assert.Equal(t, 10, resp.Meta.PageSize)

	companies := dataAs[[]organization.CompanyResponse](t, w)
	require.Len(t, companies, 1)
	assert.Equal(t, "Auto*Mat", companies[0].Name)
}

func TestOrganizationHandler_CreateCompany(t *testing.T) {
	env := newTestEnv(t)
	address := gin.H{"street": "Korunní", "street_number": "1", "city": "Praha", "psc": "120 00"}

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"created", gin.H{"name": "Nová firma", "address": address}, http.StatusCreated, ""},
		{"missing name", gin.H{"address": address}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"missing address fields", gin.H{"name": "Firma bez adresy", "address": gin.H{"street": "Korunní"}}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"duplicate name", gin.H{"name": "Auto*Mat", "address": address}, http.StatusConflict, dto.ErrCodeAlreadyExists},
		{"malformed body", "{", http.StatusBadRequest, dto.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.serve(t, env.org.CreateCompany, request{
				method: http.MethodPost,
				target: "/companies",
				body:   tt.body,
				user:   uuid.New(),
			})

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.code != "" {
				assert.Equal(t, tt.code, errorCode(t, w))
				return
			}
			company := dataAs[organization.CompanyResponse](t, w)
			assert.Equal(t, "Nová firma", company.Name)
			assert.NotEqual(t, uuid.Nil, company.ID)
		})
	}
}

func TestOrganizationHandler_ListSubsidiaries(t *testing.T) {
	env := newTestEnv(t)

	t.Run("active subsidiaries", func(t *testing.T) {
		w := env.serve(t, env.org.ListSubsidiaries, request{
			route:  "/companies/:id/subsidiaries",
			target: "/companies/" + env.f.Company.ID.String() + "/subsidiaries",
		})

		require.Equal(t, http.StatusOK, w.Code)
		subs := dataAs[[]organization.SubsidiaryResponse](t, w)
		require.Len(t, subs, 1)
		assert.Equal(t, env.f.Subsidiary.ID, subs[0].ID)
		assert.Equal(t, env.f.City.ID, subs[0].CityID)
	})

	t.Run("unknown company", func(t *testing.T) {
		w := env.serve(t, env.org.ListSubsidiaries, request{
			route:  "/companies/:id/subsidiaries",
			target: "/companies/" + uuid.NewString() + "/subsidiaries",
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, errorCode(t, w))
	})

	t.Run("invalid id", func(t *testing.T) {
		w := env.serve(t, env.org.ListSubsidiaries, request{
			route:  "/companies/:id/subsidiaries",
			target: "/companies/not-a-uuid/subsidiaries",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, errorCode(t, w))
	})
}

func TestOrganizationHandler_DecideCompanyAdminValidation(t *testing.T) {
	env := newTestEnv(t)

	w := env.serve(t, env.org.DecideCompanyAdmin, request{
		method: http.MethodPost,
		route:  "/admin/company-admins/:user_id/decision",
		target: "/admin/company-admins/" + uuid.NewString() + "/decision",
		body:   gin.H{"approved": "maybe"},
		user:   uuid.New(),
		staff:  true,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, errorCode(t, w))
}

func TestTeamHandler_ListTeams(t *testing.T) {
	env := newTestEnv(t)
	team := env.f.AddTeam(t, "Rychlá kola")
	env.f.AddMember(t, team, "jana@example.org", true)

	tests := []struct {
		name   string
		target string
		status int
		teams  int
	}{
		{"whole campaign", "/teams", http.StatusOK, 1},
		{"by subsidiary", "/teams?subsidiary_id=" + env.f.Subsidiary.ID.String(), http.StatusOK, 1},
		{"other subsidiary", "/teams?subsidiary_id=" + uuid.NewString(), http.StatusOK, 0},
		{"invalid subsidiary", "/teams?subsidiary_id=abc", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.serve(t, env.team.ListTeams, request{target: tt.target})

			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status != http.StatusOK {
				return
			}
			teams := dataAs[[]organization.TeamResponse](t, w)
			require.Len(t, teams, tt.teams)
			if tt.teams > 0 {
				assert.Equal(t, "Rychlá kola", teams[0].Name)
			}
		})
	}
}

func TestTeamHandler_JoinTeam(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.f.AddUser(t, "petr@example.org")

	t.Run("team or token required", func(t *testing.T) {
		w := env.serve(t, env.team.JoinTeam, request{
			method: http.MethodPost,
			target: "/teams/join",
			body:   gin.H{},
			user:   user.ID,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, errorCode(t, w))
	})

	t.Run("authentication required", func(t *testing.T) {
		w := env.serve(t, env.team.JoinTeam, request{
			method: http.MethodPost,
			target: "/teams/join",
			body:   gin.H{"invitation_token": "abc"},
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
