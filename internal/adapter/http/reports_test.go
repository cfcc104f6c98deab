package http_test

import (
	"net/http"
	"slices"
	"testing"
	"time"

	"github.com/couchcryptid/civic-report-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type categoriesResponse struct {
	Categories []domain.Category `json:"categories"`
}

func catalogIDs() []string {
	var ids []string
	for _, c := range domain.Categories() {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestMyReports(t *testing.T) {
	h := newHarness(t, nil)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	h.store.reports = []domain.Report{
		{Submission: domain.Submission{ID: "r1", UserID: "u1", CategoryID: "saude", CreatedAt: created}, Status: domain.StatusPending},
		{Submission: domain.Submission{ID: "r2", UserID: "u2", CategoryID: "saude", CreatedAt: created}, Status: domain.StatusResolved},
	}

	rec := h.do(t, http.MethodGet, "/api/reports/mine", userToken(t, "u1"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reports := decode[[]domain.Report](t, rec)
	require.Len(t, reports, 1)
	assert.Equal(t, "r1", reports[0].ID)

	rec = h.do(t, http.MethodGet, "/api/reports/mine", userToken(t, "u3"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestPriorities_DefaultsToCatalogOrder(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodGet, "/api/priorities", userToken(t, "u1"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.Categories(), decode[categoriesResponse](t, rec).Categories)
}

func TestPriorities_SaveFullRanking(t *testing.T) {
	h := newHarness(t, nil)
	tok := userToken(t, "u1")
	ranking := catalogIDs()
	slices.Reverse(ranking)

	rec := h.do(t, http.MethodPut, "/api/priorities", tok, map[string][]string{"categoryIds": ranking})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, ranking, h.store.priorities["u1"])

	rec = h.do(t, http.MethodGet, "/api/priorities", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[categoriesResponse](t, rec).Categories
	require.Len(t, got, len(ranking))
	assert.Equal(t, ranking[0], got[0].ID)
	assert.Equal(t, ranking[len(ranking)-1], got[len(got)-1].ID)
}

func TestPriorities_RejectsPartialOrInvalidRanking(t *testing.T) {
	h := newHarness(t, nil)
	tok := userToken(t, "u1")
	full := catalogIDs()

	dup := slices.Clone(full)
	dup[1] = dup[0]
	unknown := slices.Clone(full)
	unknown[0] = "inexistente"

	for name, ids := range map[string][]string{
		"partial":   full[:3],
		"duplicate": dup,
		"unknown":   unknown,
	} {
		t.Run(name, func(t *testing.T) {
			rec := h.do(t, http.MethodPut, "/api/priorities", tok, map[string][]string{"categoryIds": ids})
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), `"field":"categoryIds"`)
		})
	}
	assert.Empty(t, h.store.priorities["u1"])
}

func TestAdminDashboardAndAreas(t *testing.T) {
	h := newHarness(t, nil)
	h.store.stats = domain.DashboardStats{Total: 3, Pending: 2, Resolved: 1, ByCategory: map[string]int{"Saúde": 3}}
	admin := signToken(t, jwt.MapClaims{"user_id": "boss", "role": "admin"})

	rec := h.do(t, http.MethodGet, "/api/admin/dashboard", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, h.store.stats, decode[domain.DashboardStats](t, rec))

	rec = h.do(t, http.MethodGet, "/api/admin/areas", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(t, http.MethodGet, "/api/admin/areas?level=13", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{10, 13}, h.store.levels)

	rec = h.do(t, http.MethodGet, "/api/admin/areas?level=abc", admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
