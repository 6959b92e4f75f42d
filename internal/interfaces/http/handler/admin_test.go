package handler

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/dpnk/backend/internal/application/mailing"
	"github.com/dpnk/backend/internal/application/reporting"
	"github.com/dpnk/backend/internal/application/results"
	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/dpnk/backend/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var adminID = uuid.MustParse("5f1c2a9e-0d4b-4a7e-9a51-6c3e2b1d8f70")

type stubFlusher struct {
	report *results.FlushReport
	err    error
	runs   int
}

func (s *stubFlusher) Run(context.Context) (*results.FlushReport, error) {
	s.runs++
	return s.report, s.err
}

type stubSyncer struct {
	synced []string
}

func (s *stubSyncer) SyncCampaign(_ context.Context, c *campaign.Campaign) (*mailing.SyncReport, error) {
	s.synced = append(s.synced, c.Slug)
	return &mailing.SyncReport{Checked: 3, Subscribed: 2, Unchanged: 1}, nil
}

func uploadForm(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAdminHandler_ExportAttendances(t *testing.T) {
	env := newTestEnv(t)
	env.f.AddUser(t, "cyklista@example.org")
	h := NewAdminHandler(env.report, &stubFlusher{}, nil)

	t.Run("csv by default", func(t *testing.T) {
		w := env.serve(t, h.ExportAttendances, request{target: "/admin/export/attendances", user: adminID, staff: true})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
		assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="ucastnici-dpnk2026.csv"`)
		assert.Contains(t, w.Body.String(), "cyklista@example.org")
	})

	t.Run("xlsx", func(t *testing.T) {
		w := env.serve(t, h.ExportAttendances, request{target: "/admin/export/attendances?format=xlsx", user: adminID, staff: true})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "ucastnici-dpnk2026.xlsx")
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
	})

	t.Run("unsupported format", func(t *testing.T) {
		w := env.serve(t, h.ExportAttendances, request{target: "/admin/export/attendances?format=pdf", user: adminID, staff: true})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, errorCode(t, w))
	})
}

func TestAdminHandler_ExportResultsUnknownCompetition(t *testing.T) {
	env := newTestEnv(t)
	h := NewAdminHandler(env.report, &stubFlusher{}, nil)

	w := env.serve(t, h.ExportResults, request{
		route:  "/admin/export/competitions/:slug",
		target: "/admin/export/competitions/neni",
		user:   adminID,
		staff:  true,
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminHandler_ImportCompanies(t *testing.T) {
	env := newTestEnv(t)
	h := NewAdminHandler(env.report, &stubFlusher{}, nil)
	csv := []byte("name,ico,dic,street,street_number,city,psc\nCyklo s.r.o.,,,Dlouhá,5,Brno,602 00\n")

	t.Run("imports csv", func(t *testing.T) {
		body, contentType := uploadForm(t, "firmy.csv", csv)

		w := env.serve(t, h.ImportCompanies, request{
			method:      http.MethodPost,
			target:      "/admin/import/companies",
			body:        body,
			contentType: contentType,
			user:        adminID,
			staff:       true,
		})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		result := dataAs[reporting.ImportResult](t, w)
		assert.Equal(t, 1, result.TotalRows)
		assert.Equal(t, 1, result.ImportedRows)
		assert.Zero(t, result.ErrorRows)
	})

	tests := []struct {
		name     string
		filename string
		message  string
	}{
		{"missing file", "", "Import file is required"},
		{"unsupported extension", "firmy.txt", "Unsupported format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := uploadForm(t, tt.filename, csv)

			w := env.serve(t, h.ImportCompanies, request{
				method:      http.MethodPost,
				target:      "/admin/import/companies",
				body:        body,
				contentType: contentType,
				user:        adminID,
				staff:       true,
			})

			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeResponse(t, w).Error.Message, tt.message)
		})
	}
}

func TestAdminHandler_Statistics(t *testing.T) {
	env := newTestEnv(t)
	team := env.f.AddTeam(t, "Rychlá kola")
	env.f.AddMember(t, team, "a@example.org", true)
	env.f.AddMember(t, team, "b@example.org", true)
	env.f.AddUser(t, "c@example.org")
	h := NewAdminHandler(env.report, &stubFlusher{}, nil)

	w := env.serve(t, h.Statistics, request{target: "/admin/statistics", user: adminID, staff: true})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stats := dataAs[reporting.Statistics](t, w)
	assert.Equal(t, int64(3), stats.Registered)
	assert.Equal(t, int64(2), stats.Paid)
	assert.Equal(t, int64(1), stats.Teams)
}

func TestAdminHandler_FlushResults(t *testing.T) {
	env := newTestEnv(t)

	t.Run("reports the flush", func(t *testing.T) {
		flusher := &stubFlusher{report: &results.FlushReport{Entries: 4, Competitions: 2}}
		h := NewAdminHandler(env.report, flusher, nil)

		w := env.serve(t, h.FlushResults, request{method: http.MethodPost, target: "/admin/results/flush", user: adminID, staff: true})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, flusher.runs)
		report := dataAs[results.FlushReport](t, w)
		assert.Equal(t, 4, report.Entries)
		assert.Equal(t, 2, report.Competitions)
	})

	t.Run("flush failure", func(t *testing.T) {
		h := NewAdminHandler(env.report, &stubFlusher{err: errors.New("queue unavailable")}, nil)

		w := env.serve(t, h.FlushResults, request{method: http.MethodPost, target: "/admin/results/flush", user: adminID, staff: true})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, dto.ErrCodeInternal, errorCode(t, w))
	})
}

func TestAdminHandler_SyncMailing(t *testing.T) {
	env := newTestEnv(t)

	t.Run("integration disabled", func(t *testing.T) {
		h := NewAdminHandler(env.report, &stubFlusher{}, nil)

		w := env.serve(t, h.SyncMailing, request{method: http.MethodPost, target: "/admin/mailing/sync", user: adminID, staff: true})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidState, errorCode(t, w))
	})

	t.Run("syncs the resolved campaign", func(t *testing.T) {
		syncer := &stubSyncer{}
		h := NewAdminHandler(env.report, &stubFlusher{}, syncer)

		w := env.serve(t, h.SyncMailing, request{method: http.MethodPost, target: "/admin/mailing/sync", user: adminID, staff: true})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"dpnk2026"}, syncer.synced)
		report := dataAs[mailing.SyncReport](t, w)
		assert.Equal(t, 2, report.Subscribed)
	})

	t.Run("campaign required", func(t *testing.T) {
		h := NewAdminHandler(env.report, &stubFlusher{}, &stubSyncer{})

		w := env.serve(t, h.SyncMailing, request{
			method:     http.MethodPost,
			target:     "/admin/mailing/sync",
			user:       adminID,
			staff:      true,
			noCampaign: true,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeCampaignRequired, errorCode(t, w))
	})
}
