package http

import (
	"errors"
	"net/http"

	"github.com/couchcryptid/civic-report-service/internal/domain"
	"github.com/gin-gonic/gin"
)

const msgCategoryNotFound = "Categoria não encontrada"

func (s *Server) listCategories(c *gin.Context) {
	c.JSON(http.StatusOK, domain.Categories())
}

func (s *Server) getCategory(c *gin.Context) {
	cat, err := domain.LookupCategory(c.Param("categoryId"))
	if err != nil {
		s.categoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (s *Server) categoryError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": msgCategoryNotFound})
		return
	}
	s.writeError(c, err)
}
