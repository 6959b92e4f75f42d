package handler

import (
	"net/http"
	"testing"

	appcampaign "github.com/dpnk/backend/internal/application/campaign"
	"github.com/dpnk/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampaignHandler_GetCampaign(t *testing.T) {
	env := newTestEnv(t)

	t.Run("overview of the resolved campaign", func(t *testing.T) {
		w := env.serve(t, env.campaign.GetCampaign, request{target: "/campaign"})

		require.Equal(t, http.StatusOK, w.Code)
		overview := dataAs[appcampaign.CampaignOverview](t, w)
		assert.Equal(t, "dpnk2026", overview.Slug)
		assert.Equal(t, 2026, overview.Year)
		assert.Equal(t, "250", overview.AdmissionFee.String())
		assert.Equal(t, "200", overview.CompanyFee.String())
		assert.NotEmpty(t, overview.Phases)
	})

	t.Run("campaign required", func(t *testing.T) {
		w := env.serve(t, env.campaign.GetCampaign, request{target: "/campaign", noCampaign: true})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeCampaignRequired, errorCode(t, w))
	})
}

func TestCampaignHandler_GetTShirtSizes(t *testing.T) {
	env := newTestEnv(t)

	w := env.serve(t, env.campaign.GetTShirtSizes, request{target: "/campaign/tshirt-sizes"})

	require.Equal(t, http.StatusOK, w.Code)
	sizes := dataAs[[]TShirtSizeResponse](t, w)
	require.Len(t, sizes, 2)
	assert.Equal(t, "M", sizes[0].Code)
	assert.Equal(t, "L", sizes[1].Code)
	assert.True(t, sizes[0].Available)
}

func TestCampaignHandler_GetCities(t *testing.T) {
	env := newTestEnv(t)

	w := env.serve(t, env.campaign.GetCities, request{target: "/campaign/cities"})

	require.Equal(t, http.StatusOK, w.Code)
	cities := dataAs[[]CityResponse](t, w)
	require.Len(t, cities, 1)
	assert.Equal(t, "praha", cities[0].Slug)
	assert.Equal(t, env.f.City.ID, cities[0].ID)
}
