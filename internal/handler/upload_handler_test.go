package handler

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-tatib-api/internal/models"
	"github.com/noah-isme/sma-tatib-api/internal/service"
	"github.com/noah-isme/sma-tatib-api/internal/middleware"
)

type fakeFileStore struct {
	saved string
}

func (f *fakeFileStore) SaveStream(filename string, r io.Reader) (string, error) {
	f.saved = filename
	_, _ = io.Copy(io.Discard, r)
	return filename, nil
}

func (f *fakeFileStore) Open(filename string) (*os.File, error) {
	return nil, os.ErrNotExist
}

func (f *fakeFileStore) Delete(filename string) error {
	return nil
}

func newUploadTestHandler(store *fakeFileStore) *UploadHandler {
	svc := service.NewUploadService(store, nil, nil, zap.NewNop(), service.UploadConfig{
		PublicBaseURL:    "/uploads",
		MaxFileSizeBytes: 1 << 20,
		AllowedMIMEs:     []string{"image/jpeg", "image/png"},
	})
	return NewUploadHandler(svc)
}

func multipartFile(t *testing.T, fieldName, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="`+fieldName+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadHandlerUpload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeFileStore{}
	handler := newUploadTestHandler(store)

	body, contentType := multipartFile(t, "file", "bukti.jpg", "image/jpeg", []byte("fake image"))

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/uploads", body)
	c.Request.Header.Set("Content-Type", contentType)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleGuru})

	handler.Upload(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, store.saved)
	assert.Contains(t, rec.Body.String(), "/uploads/")
}

func TestUploadHandlerMissingFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newUploadTestHandler(&fakeFileStore{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/uploads", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleGuru})

	handler.Upload(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "file wajib disertakan")
}

func TestUploadHandlerRejectsDisallowedType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeFileStore{}
	handler := newUploadTestHandler(store)

	body, contentType := multipartFile(t, "file", "run.exe", "application/octet-stream", []byte("binary"))

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/uploads", body)
	c.Request.Header.Set("Content-Type", contentType)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleGuru})

	handler.Upload(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.saved)
}
