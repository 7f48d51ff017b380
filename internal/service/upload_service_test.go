package service

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-tatib-api/internal/models"
	appErrors "github.com/noah-isme/sma-tatib-api/pkg/errors"
	"github.com/noah-isme/sma-tatib-api/pkg/storage"
)

type mockFileStore struct {
	savedPath   string
	deletedPath string
}

func (m *mockFileStore) SaveStream(filename string, r io.Reader) (string, error) {
	m.savedPath = filename
	_, _ = io.Copy(io.Discard, r)
	return filename, nil
}

func (m *mockFileStore) Open(filename string) (*os.File, error) {
	return nil, os.ErrNotExist
}

func (m *mockFileStore) Delete(filename string) error {
	m.deletedPath = filename
	return nil
}

func newTestUploadService(store *mockFileStore) *UploadService {
	return NewUploadService(store, nil, nil, zap.NewNop(), UploadConfig{
		PublicBaseURL:    "/uploads",
		MaxFileSizeBytes: 1024,
		AllowedMIMEs:     []string{"image/jpeg", "image/png", "application/pdf"},
	})
}

func uploadActor() *models.JWTClaims {
	return &models.JWTClaims{UserID: "u1", Role: models.RoleGuru}
}

func TestUploadServiceSave(t *testing.T) {
	store := &mockFileStore{}
	svc := newTestUploadService(store)

	resp, err := svc.Save(context.Background(), strings.NewReader("content"), "bukti.jpg", "image/jpeg", 7, uploadActor())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.URL, "/uploads/"))
	assert.True(t, strings.HasSuffix(resp.FileName, ".jpg"))
	assert.Equal(t, int64(7), resp.FileSize)
	assert.Equal(t, "image/jpeg", resp.FileType)
	assert.NotEmpty(t, store.savedPath)
}

func TestUploadServiceRejectsDisallowedMIME(t *testing.T) {
	svc := newTestUploadService(&mockFileStore{})

	_, err := svc.Save(context.Background(), strings.NewReader("x"), "run.exe", "application/octet-stream", 1, uploadActor())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestUploadServiceRejectsOversizedFile(t *testing.T) {
	svc := newTestUploadService(&mockFileStore{})

	_, err := svc.Save(context.Background(), strings.NewReader("x"), "big.pdf", "application/pdf", 2048, uploadActor())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestUploadServiceRejectsEmptyFile(t *testing.T) {
	svc := newTestUploadService(&mockFileStore{})

	_, err := svc.Save(context.Background(), strings.NewReader(""), "empty.png", "image/png", 0, uploadActor())
	require.Error(t, err)
}

func TestUploadServiceRequiresActor(t *testing.T) {
	svc := newTestUploadService(&mockFileStore{})

	_, err := svc.Save(context.Background(), strings.NewReader("x"), "bukti.png", "image/png", 1, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestUploadServiceResolveRoundTrip(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Minute)
	svc := NewUploadService(store, signer, nil, zap.NewNop(), UploadConfig{
		PublicBaseURL:    "/uploads",
		MaxFileSizeBytes: 1024,
		AllowedMIMEs:     []string{"image/png"},
	})

	_, err = store.SaveStream("2026/08/bukti.png", strings.NewReader("evidence"))
	require.NoError(t, err)

	token, _, err := svc.SignedURL("case-1", "2026/08/bukti.png")
	require.NoError(t, err)

	file, relPath, err := svc.Resolve(token)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck

	assert.Equal(t, "2026/08/bukti.png", relPath)
	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "evidence", string(content))
}

func TestUploadServiceSignedURLRejectsEscapingPaths(t *testing.T) {
	signer := storage.NewSignedURLSigner("secret", time.Minute)
	svc := NewUploadService(&mockFileStore{}, signer, nil, zap.NewNop(), UploadConfig{})

	for _, relPath := range []string{"../secret.env", "2026/../../secret.env", "/etc/passwd", ""} {
		_, _, err := svc.SignedURL("case-1", relPath)
		require.Error(t, err, relPath)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code, relPath)
	}
}

func TestUploadServiceResolveRefusesFilesOutsideRoot(t *testing.T) {
	base := t.TempDir()
	outside := filepath.Join(base, "secret.env")
	require.NoError(t, os.WriteFile(outside, []byte("JWT_SECRET=oops"), 0o600))

	store, err := storage.NewLocalStorage(filepath.Join(base, "uploads"))
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Minute)
	svc := NewUploadService(store, signer, nil, zap.NewNop(), UploadConfig{})

	for _, target := range []string{outside, "../secret.env"} {
		token, _, genErr := signer.Generate("case-1", target)
		require.NoError(t, genErr)

		_, _, resolveErr := svc.Resolve(token)
		require.Error(t, resolveErr, target)
	}
}

func TestUploadServiceResolveRejectsBadToken(t *testing.T) {
	signer := storage.NewSignedURLSigner("secret", time.Minute)
	svc := NewUploadService(&mockFileStore{}, signer, nil, zap.NewNop(), UploadConfig{})

	_, _, err := svc.Resolve("garbage")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestUploadServiceDelete(t *testing.T) {
	store := &mockFileStore{}
	svc := newTestUploadService(store)

	err := svc.Delete(context.Background(), "2026/08/x.png", uploadActor())
	require.NoError(t, err)
	assert.Equal(t, "2026/08/x.png", store.deletedPath)
}
