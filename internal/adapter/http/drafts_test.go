package http_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/couchcryptid/civic-report-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDraft(t *testing.T, h *harness, tok, category string) draftView {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/api/report/"+category, tok, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[draftView](t, rec)
}

func waitLookups(t *testing.T, h *harness, userID, draftID string) {
	t.Helper()
	ctrl, err := h.registry.Get(userID, draftID)
	require.NoError(t, err)
	ctrl.Wait()
}

func walkToPreview(t *testing.T, h *harness, tok string) string {
	t.Helper()
	id := openDraft(t, h, tok, "saude").ID
	base := "/api/drafts/" + id

	steps := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPatch, base, map[string]string{"field": "address", "value": "Rua da Assembleia, 10"}},
		{http.MethodPut, base + "/postal-code", map[string]string{"postalCode": "20011-000"}},
		{http.MethodPost, base + "/advance", nil},
		{http.MethodPatch, base, map[string]string{"field": "manifestationType", "value": "reclamacao"}},
		{http.MethodPatch, base, map[string]string{"field": "description", "value": "Buraco na calçada"}},
		{http.MethodPost, base + "/advance", nil},
	}
	for _, s := range steps {
		rec := h.do(t, s.method, s.path, tok, s.body)
		require.Less(t, rec.Code, 300, "%s %s: %s", s.method, s.path, rec.Body.String())
		if strings.HasSuffix(s.path, "/postal-code") {
			waitLookups(t, h, "u1", id)
		}
	}
	return id
}

func multipartFiles(t *testing.T, files map[string][]byte, order []string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, name := range order {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestOpenDraft(t *testing.T) {
	h := newHarness(t, nil)
	tok := userToken(t, "u1")

	view := openDraft(t, h, tok, "saude")
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "Passo 1: Localização", view.StepTitle)
	assert.True(t, view.Draggable)
	assert.Equal(t, domain.StepLocation, view.Draft.Step)
	assert.Equal(t, domain.DefaultCoordinates, view.Draft.Coordinates)

	rec := h.do(t, http.MethodPost, "/api/report/desconhecida", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Categoria não encontrada"}`, rec.Body.String())
}

func TestDraftsArePrivate(t *testing.T) {
	h := newHarness(t, nil)
	id := openDraft(t, h, userToken(t, "u1"), "saude").ID

	rec := h.do(t, http.MethodGet, "/api/drafts/"+id, userToken(t, "u2"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostalCodeLookupShowsUpOnNextRead(t *testing.T) {
	h := newHarness(t, nil)
	tok := userToken(t, "u1")
	id := openDraft(t, h, tok, "saude").ID

	rec := h.do(t, http.MethodPut, "/api/drafts/"+id+"/postal-code", tok, map[string]string{"postalCode": "20000-000"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "20000000", decode[draftView](t, rec).Draft.PostalCode)
	waitLookups(t, h, "u1", id)

	rec = h.do(t, http.MethodGet, "/api/drafts/"+id, tok, nil)
	view := decode[draftView](t, rec)
	assert.Equal(t, "Praça Floriano, Centro - Rio de Janeiro, RJ", view.Draft.Address)
	assert.Equal(t, domain.DefaultCoordinates, view.Draft.Coordinates)
	require.Len(t, view.Notifications, 1)
	assert.Equal(t, domain.MsgAddressFound, view.Notifications[0].Message)

	rec = h.do(t, http.MethodGet, "/api/drafts/"+id, tok, nil)
	assert.Empty(t, decode[draftView](t, rec).Notifications)
}

func TestAdvanceValidation(t *testing.T) {
	h := newHarness(t, nil)
	tok := userToken(t, "u1")
	id := openDraft(t, h, tok, "saude").ID

	rec := h.do(t, http.MethodPost, "/api/drafts/"+id+"/advance", tok, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"error":"Preencha o endereço e CEP","field":"address"}`, rec.Body.String())

	rec = h.do(t, http.MethodPatch, "/api/drafts/"+id, tok, map[string]string{"field": "manifestationType", "value": "denuncia"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = h.do(t, http.MethodPatch, "/api/drafts/"+id, tok, map[string]string{"value": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkerDragOnlyOnLocationStep(t *testing.T) {
	h := newHarness(t, nil)
	tok := userToken(t, "u1")
	id := openDraft(t, h, tok, "saude").ID
	base := "/api/drafts/" + id

	rec := h.do(t, http.MethodPut, base+"/marker", tok, map[string]float64{"lat": -22.91, "lon": -43.18})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.Coordinates{Latitude: -22.91, Longitude: -43.18}, decode[draftView](t, rec).Draft.Coordinates)

	rec = h.do(t, http.MethodPut, base+"/marker", tok, map[string]float64{"lat": -22.91})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h.do(t, http.MethodPatch, base, tok, map[string]string{"field": "address", "value": "Rua A"})
	h.do(t, http.MethodPut, base+"/postal-code", tok, map[string]string{"postalCode": "2000"})
	rec = h.do(t, http.MethodPost, base+"/advance", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[draftView](t, rec).Draggable)

	rec = h.do(t, http.MethodPut, base+"/marker", tok, map[string]float64{"lat": 0, "lon": 0})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRetreatFromLocationLeavesWizard(t *testing.T) {
	h := newHarness(t, nil)
	tok := userToken(t, "u1")
	id := openDraft(t, h, tok, "saude").ID

	rec := h.do(t, http.MethodPost, "/api/drafts/"+id+"/retreat", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"left":true,"location":"/api/categories"}`, rec.Body.String())

	rec = h.do(t, http.MethodGet, "/api/drafts/"+id, tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDiscardDraft(t *testing.T) {
	h := newHarness(t, nil)
	tok := userToken(t, "u1")
	id := openDraft(t, h, tok, "saude").ID

	rec := h.do(t, http.MethodDelete, "/api/drafts/"+id, tok, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, h.registry.Len())

	rec = h.do(t, http.MethodDelete, "/api/drafts/"+id, tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFilesAttachRemoveAndPreview(t *testing.T) {
	h := newHarness(t, nil)
	tok := userToken(t, "u1")
	id := openDraft(t, h, tok, "saude").ID
	base := "/api/drafts/" + id

	body, contentType := multipartFiles(t, map[string][]byte{
		"a.txt": []byte("primeiro"),
		"b.txt": []byte("segundo"),
	}, []string{"a.txt", "b.txt"})
	req := httptest.NewRequest(http.MethodPost, base+"/files", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	view := decode[draftView](t, rec)
	require.Len(t, view.Draft.Files, 2)
	assert.Equal(t, "a.txt", view.Draft.Files[0].Name)
	assert.Equal(t, "b.txt", view.Draft.Files[1].Name)
	assert.Equal(t, int64(len("primeiro")), view.Draft.Files[0].Size)

	rec = h.do(t, http.MethodGet, base+"/files/"+view.Draft.Files[1].ID+"/preview", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name":"b.txt","icon":"upload"}`, rec.Body.String())

	rec = h.do(t, http.MethodDelete, base+"/files/0", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	files := decode[draftView](t, rec).Draft.Files
	require.Len(t, files, 1)
	assert.Equal(t, "b.txt", files[0].Name)

	rec = h.do(t, http.MethodDelete, base+"/files/9", tok, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "out of range removal is ignored")

	rec = h.do(t, http.MethodDelete, base+"/files/x", tok, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestFilesRequiresParts(t *testing.T) {
	h := newHarness(t, nil)
	tok := userToken(t, "u1")
	id := openDraft(t, h, tok, "saude").ID

	body, contentType := multipartFiles(t, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/drafts/"+id+"/files", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSubmitHappyPath(t *testing.T) {
	h := newHarness(t, nil)
	tok := userToken(t, "u1")
	id := walkToPreview(t, h, tok)

	rec := h.do(t, http.MethodPost, "/api/drafts/"+id+"/submit", tok, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/api/reports/mine", rec.Header().Get("Location"))

	resp := decode[struct {
		Report   domain.Report `json:"report"`
		Location string        `json:"location"`
		Message  string        `json:"message"`
	}](t, rec)
	assert.Equal(t, "/api/reports/mine", resp.Location)
	assert.Equal(t, domain.MsgSubmitted, resp.Message)
	assert.Equal(t, domain.StatusPending, resp.Report.Status)

	require.Len(t, h.sink.submissions, 1)
	sub := h.sink.submissions[0]
	assert.Equal(t, "u1", sub.UserID)
	assert.Equal(t, "saude", sub.CategoryID)
	assert.Equal(t, "Rua da Assembleia, 10", sub.Address)
	assert.Equal(t, "20011000", sub.PostalCode)
	assert.Equal(t, domain.ManifestationComplaint, sub.ManifestationType)
	assert.Equal(t, "Buraco na calçada", sub.Description)

	rec = h.do(t, http.MethodGet, "/api/drafts/"+id, tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "submitted drafts are gone")
}

func TestSubmitUploadsStagedMedia(t *testing.T) {
	h := newHarness(t, nil)
	tok := userToken(t, "u1")
	id := walkToPreview(t, h, tok)

	body, contentType := multipartFiles(t, map[string][]byte{
		"foto 1.txt": []byte("um"),
		"foto 2.txt": []byte("dois"),
	}, []string{"foto 1.txt", "foto 2.txt"})
	req := httptest.NewRequest(http.MethodPost, "/api/drafts/"+id+"/files", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/drafts/"+id+"/submit", tok, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.Len(t, h.sink.submissions, 1)
	sub := h.sink.submissions[0]
	assert.Equal(t, []string{
		"/media/" + sub.ID + "/1-foto_1.txt",
		"/media/" + sub.ID + "/2-foto_2.txt",
	}, sub.MediaReferences)
}

func TestSubmitOutsidePreview(t *testing.T) {
	h := newHarness(t, nil)
	tok := userToken(t, "u1")
	id := openDraft(t, h, tok, "saude").ID

	rec := h.do(t, http.MethodPost, "/api/drafts/"+id+"/submit", tok, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, h.sink.submissions)
}
