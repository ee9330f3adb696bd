package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/alumnisphere/internal/app/models"
	"github.com/yigit/alumnisphere/internal/app/models/dto"
	"github.com/yigit/alumnisphere/internal/middleware"
	"github.com/yigit/alumnisphere/internal/pkg/apperrors"
	"github.com/yigit/alumnisphere/internal/pkg/filestorage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubAlumniService records what the controller handed over
type stubAlumniService struct {
	req      *dto.AlumniRequest
	files    map[models.AttachmentField]filestorage.Upload
	actorID  int64
	id       string
	filter   models.AlumniFilter
	query    string
	page     int
	size     int
	err      error
	returned *models.Alumni
}

func (s *stubAlumniService) CreateAlumni(_ context.Context, req *dto.AlumniRequest, files map[models.AttachmentField]filestorage.Upload, actorID int64) (*models.Alumni, error) {
	s.req, s.files, s.actorID = req, files, actorID
	return s.returned, s.err
}

func (s *stubAlumniService) UpdateAlumni(_ context.Context, id string, req *dto.AlumniRequest, files map[models.AttachmentField]filestorage.Upload) (*models.Alumni, error) {
	s.id, s.req, s.files = id, req, files
	return s.returned, s.err
}

func (s *stubAlumniService) DeleteAlumni(_ context.Context, id string) error {
	s.id = id
	return s.err
}

func (s *stubAlumniService) GetAlumni(_ context.Context, id string) (*models.Alumni, error) {
	s.id = id
	return s.returned, s.err
}

func (s *stubAlumniService) ListAlumni(_ context.Context, filter models.AlumniFilter, page, size int) ([]*models.Alumni, dto.PaginationInfo, error) {
	s.filter, s.page, s.size = filter, page, size
	return []*models.Alumni{s.returned}, dto.PaginationInfo{CurrentPage: page, PageSize: size, TotalPages: 1, TotalItems: 1}, s.err
}

func (s *stubAlumniService) SearchAlumni(ctx context.Context, q string, filter models.AlumniFilter, page, size int) ([]*models.Alumni, dto.PaginationInfo, error) {
	s.query = q
	return s.ListAlumni(ctx, filter, page, size)
}

func alumniRouter(svc *stubAlumniService) *gin.Engine {
	c := NewAlumniController(svc)
	r := gin.New()
	withActor := func(ctx *gin.Context) { ctx.Set(middleware.ContextUserID, int64(5)) }
	r.GET("/alumni", c.ListAlumni)
	r.GET("/alumni/search", c.SearchAlumni)
	r.GET("/alumni/:id", c.GetAlumni)
	r.POST("/alumni", withActor, c.CreateAlumni)
	r.PUT("/alumni/:id", c.UpdateAlumni)
	r.DELETE("/alumni/:id", c.DeleteAlumni)
	return r
}

func do(r http.Handler, method, target, contentType string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAlumniController_CreateJSON(t *testing.T) {
	svc := &stubAlumniService{returned: &models.Alumni{ID: "a1", Name: "Jane Doe"}}
	body := `{"name":"Jane Doe","program":"B.Tech","passingYear":"2019-20","registrationNumber":"REG-001",
		"employment":{"type":"Employed"},"contactDetails":"{\"email\":\"jane@example.com\"}"}`

	w := do(alumniRouter(svc), http.MethodPost, "/alumni", "application/json", strings.NewReader(body))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.NotNil(t, svc.req)
	assert.Equal(t, "REG-001", *svc.req.RegistrationNumber)
	assert.Nil(t, svc.req.AcademicUnit)
	assert.Equal(t, int64(5), svc.actorID)
	assert.Empty(t, svc.files)

	var emp models.EmploymentPatch
	ok, err := svc.req.Employment.Decode(&emp)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Employed", *emp.Type)

	var contact models.ContactDetailsPatch
	ok, err = svc.req.ContactDetails.Decode(&contact)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "jane@example.com", *contact.Email)

	var resp struct {
		Success bool          `json:"success"`
		Data    models.Alumni `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "a1", resp.Data.ID)
}

func TestAlumniController_CreateMultipart(t *testing.T) {
	svc := &stubAlumniService{returned: &models.Alumni{ID: "a1"}}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Jane Doe"))
	require.NoError(t, mw.WriteField("registrationNumber", "REG-002"))
	require.NoError(t, mw.WriteField("qualifiedExams", `{"examName":"GATE","certificateUrl":"https://elsewhere/x.png"}`))
	fw, err := mw.CreateFormFile("qualificationImage", "gate.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("fake-png"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := do(alumniRouter(svc), http.MethodPost, "/alumni", mw.FormDataContentType(), &buf)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Equal(t, "Jane Doe", *svc.req.Name)
	assert.Nil(t, svc.req.Program)
	require.Contains(t, svc.files, models.AttachmentQualificationImage)
	upload := svc.files[models.AttachmentQualificationImage]
	assert.Equal(t, "gate.png", upload.Filename)
	rc, err := upload.Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "fake-png", string(data))

	var exams models.QualifiedExamsPatch
	ok, err := svc.req.QualifiedExams.Decode(&exams)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "GATE", *exams.ExamName)
}

func TestAlumniController_RejectsUnknownFileField(t *testing.T) {
	svc := &stubAlumniService{}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("resume", "cv.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("pdf"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := do(alumniRouter(svc), http.MethodPut, "/alumni/a1", mw.FormDataContentType(), &buf)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.req, "service must not be called")
}

func TestAlumniController_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"duplicate", apperrors.ErrRegistrationNumberDuplicated, http.StatusBadRequest},
		{"validation", apperrors.NewValidationError("name", "name is required"), http.StatusBadRequest},
		{"not found", apperrors.ErrAlumniNotFound, http.StatusNotFound},
		{"upload", apperrors.ErrUploadFailure, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubAlumniService{err: tt.err}
			w := do(alumniRouter(svc), http.MethodPut, "/alumni/a1", "application/json", strings.NewReader(`{"name":"X"}`))
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "a1", svc.id)
		})
	}
}

func TestAlumniController_UpdateWithoutBody(t *testing.T) {
	svc := &stubAlumniService{returned: &models.Alumni{ID: "a1"}}
	w := do(alumniRouter(svc), http.MethodPut, "/alumni/a1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.req)
	assert.Nil(t, svc.req.Name)
}

func TestAlumniController_ListAndSearch(t *testing.T) {
	svc := &stubAlumniService{returned: &models.Alumni{ID: "a1"}}
	r := alumniRouter(svc)

	w := do(r, http.MethodGet, "/alumni?academicUnit=School%20of%20Engineering&passingYear=2019-20&page=2&size=5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "School of Engineering", svc.filter.AcademicUnit)
	assert.Equal(t, "2019-20", svc.filter.PassingYear)
	assert.Equal(t, 2, svc.page)
	assert.Equal(t, 5, svc.size)

	var resp dto.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, 2, resp.Pagination.CurrentPage)

	w = do(r, http.MethodGet, "/alumni/search?q=jane&program=tech", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jane", svc.query)
	assert.Equal(t, "tech", svc.filter.Program)
}

func TestAlumniController_GetAndDelete(t *testing.T) {
	svc := &stubAlumniService{returned: &models.Alumni{ID: "a1"}}
	r := alumniRouter(svc)

	w := do(r, http.MethodGet, "/alumni/a1", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a1", svc.id)

	w = do(r, http.MethodDelete, "/alumni/a1", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	svc.err = apperrors.ErrAlumniNotFound
	w = do(r, http.MethodDelete, "/alumni/a1", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
