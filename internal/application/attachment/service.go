package attachment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/just-ease/justease-api/internal/domain"
	"github.com/just-ease/justease-api/internal/pkg/id"
)

type UploadInput struct {
	CaseID      string
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
	UploaderID  string
}

// Service stores case documents and videos: the bytes in S3, the metadata
// in the attachments table.
type Service interface {
	Upload(ctx context.Context, input UploadInput) (*domain.Attachment, error)
	Download(ctx context.Context, attachmentID, requesterID, requesterRole string) (io.ReadCloser, *domain.Attachment, error)
	ListByCase(ctx context.Context, caseID, requesterID, requesterRole string) ([]domain.Attachment, error)
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type attachmentStore interface {
	Put(ctx context.Context, a *domain.Attachment) error
	Get(ctx context.Context, attachmentID string) (*domain.Attachment, error)
	ListByCase(ctx context.Context, caseID string) ([]domain.Attachment, error)
}

type caseStore interface {
	Get(ctx context.Context, caseID string) (*domain.Case, error)
}

type service struct {
	objects objectStore
	repo    attachmentStore
	cases   caseStore
}

func NewService(objects objectStore, repo attachmentStore, cases caseStore) Service {
	return &service{objects: objects, repo: repo, cases: cases}
}

func (s *service) Upload(ctx context.Context, input UploadInput) (*domain.Attachment, error) {
	c, err := s.cases.Get(ctx, input.CaseID)
	if err != nil {
		return nil, err
	}
	if c.UserID != input.UploaderID {
		return nil, fmt.Errorf("case %s: %w", input.CaseID, domain.ErrForbidden)
	}

	attachmentID := id.New()
	safeName := sanitizeFilename(input.Filename)
	key := fmt.Sprintf("cases/%s/%s-%s", input.CaseID, attachmentID, safeName)

	hasher := sha256.New()
	tee := io.TeeReader(input.Reader, hasher)
	if _, err := s.objects.Upload(ctx, key, tee, input.ContentType); err != nil {
		return nil, err
	}

	a := &domain.Attachment{
		AttachmentID: attachmentID,
		CaseID:       input.CaseID,
		Object:       key,
		Name:         safeName,
		Type:         input.ContentType,
		Size:         input.Size,
		Hash:         hex.EncodeToString(hasher.Sum(nil)),
		UploadedBy:   input.UploaderID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, a); err != nil {
		// Orphaned object without metadata is unreachable, clean it up.
		if derr := s.objects.Delete(ctx, key); derr != nil {
			slog.Warn("failed to delete orphaned attachment object", "key", key, "err", derr)
		}
		return nil, err
	}
	return a, nil
}

func (s *service) Download(ctx context.Context, attachmentID, requesterID, requesterRole string) (io.ReadCloser, *domain.Attachment, error) {
	a, err := s.repo.Get(ctx, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.authorize(ctx, a.CaseID, requesterID, requesterRole); err != nil {
		return nil, nil, err
	}
	rc, err := s.objects.Download(ctx, a.Object)
	if err != nil {
		return nil, nil, err
	}
	return rc, a, nil
}

func (s *service) ListByCase(ctx context.Context, caseID, requesterID, requesterRole string) ([]domain.Attachment, error) {
	if err := s.authorize(ctx, caseID, requesterID, requesterRole); err != nil {
		return nil, err
	}
	return s.repo.ListByCase(ctx, caseID)
}

// authorize allows the case owner and any lawyer.
func (s *service) authorize(ctx context.Context, caseID, requesterID, requesterRole string) error {
	c, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return err
	}
	if c.UserID != requesterID && requesterRole != domain.RoleLawyer {
		return fmt.Errorf("case %s: %w", caseID, domain.ErrForbidden)
	}
	return nil
}

// sanitizeFilename strips any path component and collapses characters that
// would make an unsafe S3 key.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "upload"
	}
	return b.String()
}
