package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/couchcryptid/civic-report-service/internal/domain"
	"github.com/couchcryptid/civic-report-service/internal/wizard"
	"github.com/gin-gonic/gin"
)

const (
	// listingLocation is where the client goes after a successful submit.
	listingLocation = "/api/reports/mine"
	// exitLocation is where the client goes when leaving the wizard.
	exitLocation = "/api/categories"
)

type fieldRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

type postalCodeRequest struct {
	PostalCode string `json:"postalCode"`
}

type markerRequest struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lon *float64 `json:"lon" binding:"required"`
}

func (s *Server) controller(c *gin.Context) (*wizard.Controller, bool) {
	ctrl, err := s.drafts.Get(userID(c), c.Param("draftId"))
	if err != nil {
		s.writeError(c, err)
		return nil, false
	}
	return ctrl, true
}

func (s *Server) openDraft(c *gin.Context) {
	ctrl, err := s.drafts.Open(userID(c), c.Param("categoryId"))
	if err != nil {
		s.categoryError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ctrl.View())
}

func (s *Server) getDraft(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ctrl.View())
}

func (s *Server) discardDraft(c *gin.Context) {
	if err := s.drafts.Discard(userID(c), c.Param("draftId")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) updateField(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	var req fieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := ctrl.UpdateField(req.Field, req.Value); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.View())
}

// setPostalCode returns immediately; the lookup outcome shows up in the
// draft's notifications on a later read.
func (s *Server) setPostalCode(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	var req postalCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if _, err := ctrl.SetPostalCode(req.PostalCode); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, ctrl.View())
}

func (s *Server) dragMarker(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	var req markerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pos := domain.Coordinates{Latitude: *req.Lat, Longitude: *req.Lon}
	if err := ctrl.DragMarker(pos); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.View())
}

func (s *Server) advance(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	if _, err := ctrl.Advance(); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.View())
}

// retreat from the first step leaves the wizard and discards the draft.
func (s *Server) retreat(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	_, moved, err := ctrl.Retreat()
	if err != nil {
		s.writeError(c, err)
		return
	}
	if !moved {
		if err := s.drafts.Discard(userID(c), ctrl.ID()); err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"left": true, "location": exitLocation})
		return
	}
	c.JSON(http.StatusOK, ctrl.View())
}

func (s *Server) attachFiles(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	if s.opts.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)
	}
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(c, err)
			return
		}
		badRequest(c, err)
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		s.writeError(c, &domain.ValidationError{Field: "files", Message: "Nenhum arquivo enviado"})
		return
	}

	uploads := make([]wizard.Upload, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			badRequest(c, err)
			return
		}
		uploads = append(uploads, wizard.Upload{Name: fh.Filename, Data: data})
	}
	if _, err := ctrl.AttachFiles(uploads...); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ctrl.View())
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return data, nil
}

func (s *Server) removeFile(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		s.writeError(c, &domain.ValidationError{Field: "index", Message: "Índice inválido"})
		return
	}
	if err := ctrl.RemoveFile(index); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.View())
}

func (s *Server) previewFile(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	p, err := ctrl.Preview(c.Param("fileId"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if p.IsThumbnail() {
		c.Data(http.StatusOK, "image/jpeg", p.Thumbnail)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) submit(c *gin.Context) {
	report, err := s.drafts.Submit(c.Request.Context(), userID(c), c.Param("draftId"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("Location", listingLocation)
	c.JSON(http.StatusCreated, gin.H{
		"report":   report,
		"location": listingLocation,
		"message":  domain.MsgSubmitted,
	})
}
