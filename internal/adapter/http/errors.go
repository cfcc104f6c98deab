package http

import (
	"errors"
	"net/http"

	"github.com/couchcryptid/civic-report-service/internal/domain"
	"github.com/couchcryptid/civic-report-service/internal/wizard"
	"github.com/gin-gonic/gin"
)

// writeError maps a domain error to its HTTP status and aborts the request.
func (s *Server) writeError(c *gin.Context, err error) {
	var (
		verr     *domain.ValidationError
		terr     *domain.TransportError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, domain.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Não encontrado"})
	case errors.Is(err, wizard.ErrMarkerReadOnly):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": domain.MsgMarkerReadOnly})
	case errors.Is(err, domain.ErrUnauthorized):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
	case errors.Is(err, domain.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Acesso restrito"})
	case errors.As(err, &tooLarge):
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Arquivos excedem o tamanho máximo"})
	case errors.As(err, &terr):
		s.logger.Error("upstream failure", "route", c.FullPath(), "op", terr.Op, "error", terr.Err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": domain.MsgSubmitFailed})
	default:
		s.logger.Error("request failed", "route", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
