package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-tatib-api/internal/dto"
	"github.com/noah-isme/sma-tatib-api/internal/models"
	appErrors "github.com/noah-isme/sma-tatib-api/pkg/errors"
	"github.com/noah-isme/sma-tatib-api/pkg/storage"
)

type fileStore interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

// UploadConfig bounds accepted evidence files.
type UploadConfig struct {
	PublicBaseURL    string
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// UploadService stores evidence files on disk and hands back public URLs.
type UploadService struct {
	store  fileStore
	signer *storage.SignedURLSigner
	audit  *AuditService
	logger *zap.Logger
	config UploadConfig
	now    func() time.Time
}

// NewUploadService constructs the upload service.
func NewUploadService(store fileStore, signer *storage.SignedURLSigner, audit *AuditService, logger *zap.Logger, config UploadConfig) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxFileSizeBytes <= 0 {
		config.MaxFileSizeBytes = 10 * 1024 * 1024
	}
	if config.PublicBaseURL == "" {
		config.PublicBaseURL = "/uploads"
	}
	return &UploadService{
		store:  store,
		signer: signer,
		audit:  audit,
		logger: logger,
		config: config,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// validStoragePath accepts only relative paths that stay inside the storage
// root once cleaned.
func validStoragePath(relPath string) bool {
	if relPath == "" || path.IsAbs(relPath) || filepath.IsAbs(relPath) {
		return false
	}
	cleaned := path.Clean(strings.ReplaceAll(relPath, "\\", "/"))
	return cleaned != ".." && !strings.HasPrefix(cleaned, "../")
}

func (s *UploadService) mimeAllowed(contentType string) bool {
	if len(s.config.AllowedMIMEs) == 0 {
		return true
	}
	for _, allowed := range s.config.AllowedMIMEs {
		if strings.EqualFold(allowed, contentType) {
			return true
		}
	}
	return false
}

// Save validates and stores one evidence file. The stored name is a UUID with
// the original extension, bucketed by upload month.
func (s *UploadService) Save(ctx context.Context, r io.Reader, originalName, contentType string, size int64, actor *models.JWTClaims) (*dto.UploadResponse, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	if size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file kosong")
	}
	if size > s.config.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("ukuran file melebihi batas %d byte", s.config.MaxFileSizeBytes))
	}
	if !s.mimeAllowed(contentType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tipe file tidak diizinkan")
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	now := s.now()
	relPath := path.Join(now.Format("2006/01"), uuid.NewString()+ext)

	stored, err := s.store.SaveStream(relPath, io.LimitReader(r, s.config.MaxFileSizeBytes))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}

	resp := &dto.UploadResponse{
		URL:      strings.TrimRight(s.config.PublicBaseURL, "/") + "/" + stored,
		FileName: path.Base(stored),
		FileSize: size,
		FileType: contentType,
	}
	if s.audit != nil {
		s.audit.Record(AuditEntry{Actor: actor, Action: models.AuditActionCreate, Entity: "upload", EntityID: resp.FileName, NewValues: resp})
	}
	return resp, nil
}

// SignedURL issues a time-limited download token for a stored file. Only
// relative paths inside the storage root are signable.
func (s *UploadService) SignedURL(entityID, relPath string) (string, time.Time, error) {
	if s.signer == nil {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrInternal, "signer tidak dikonfigurasi")
	}
	if !validStoragePath(relPath) {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrValidation, "path file tidak valid")
	}
	token, expiresAt, err := s.signer.Generate(entityID, relPath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign url")
	}
	return token, expiresAt, nil
}

// Resolve validates a download token and opens the referenced file. The
// returned relative path lets the caller pick a content type and filename.
func (s *UploadService) Resolve(token string) (io.ReadCloser, string, error) {
	if s.signer == nil {
		return nil, "", appErrors.Clone(appErrors.ErrInternal, "signer tidak dikonfigurasi")
	}
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "tautan unduhan tidak valid atau kedaluwarsa")
	}
	if !validStoragePath(relPath) {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "tautan unduhan tidak valid atau kedaluwarsa")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "file tidak ditemukan")
	}
	return file, relPath, nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *UploadService) Delete(ctx context.Context, relPath string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	if err := s.store.Delete(relPath); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete file")
	}
	if s.audit != nil {
		s.audit.Record(AuditEntry{Actor: actor, Action: models.AuditActionDelete, Entity: "upload", EntityID: relPath})
	}
	return nil
}
