package http

import (
	"net/http"
	"strconv"

	"github.com/couchcryptid/civic-report-service/internal/domain"
	"github.com/gin-gonic/gin"
)

// defaultAreaLevel is an S2 level of roughly 10 km cells.
const defaultAreaLevel = 10

type prioritiesRequest struct {
	CategoryIDs []string `json:"categoryIds" binding:"required"`
}

func (s *Server) myReports(c *gin.Context) {
	reports, err := s.reports.ListReportsByUser(c.Request.Context(), userID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

// getPriorities returns the caller's ranking, or catalog order when none
// has been saved.
func (s *Server) getPriorities(c *gin.Context) {
	ids, err := s.reports.Priorities(c.Request.Context(), userID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if len(ids) == 0 {
		c.JSON(http.StatusOK, gin.H{"categories": domain.Categories()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": rankCategories(ids)})
}

func (s *Server) savePriorities(c *gin.Context) {
	var req prioritiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := validateRanking(req.CategoryIDs); err != nil {
		s.writeError(c, err)
		return
	}
	if err := s.reports.SavePriorities(c.Request.Context(), userID(c), req.CategoryIDs); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": rankCategories(req.CategoryIDs)})
}

// validateRanking requires every catalog id exactly once.
func validateRanking(ids []string) error {
	invalid := &domain.ValidationError{Field: "categoryIds", Message: "Ordene todas as categorias uma única vez"}
	catalog := domain.Categories()
	if len(ids) != len(catalog) {
		return invalid
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return invalid
		}
		if _, err := domain.LookupCategory(id); err != nil {
			return invalid
		}
		seen[id] = true
	}
	return nil
}

// rankCategories resolves ids to categories, skipping ids no longer in the
// catalog.
func rankCategories(ids []string) []domain.Category {
	out := make([]domain.Category, 0, len(ids))
	for _, id := range ids {
		if cat, err := domain.LookupCategory(id); err == nil {
			out = append(out, cat)
		}
	}
	return out
}

func (s *Server) dashboard(c *gin.Context) {
	stats, err := s.reports.DashboardStats(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) areas(c *gin.Context) {
	level := defaultAreaLevel
	if raw := c.Query("level"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(c, &domain.ValidationError{Field: "level", Message: "Nível inválido"})
			return
		}
		level = n
	}
	counts, err := s.reports.AreaCounts(c.Request.Context(), level)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"level": level, "areas": counts})
}
