// Package artifact stores rendered documents and tracks which generation is
// current for each (payroll record, document type) pair.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nadi.org/internal/ids"
	"nadi.org/internal/render"
)

// Artifact is the persisted metadata for one generated document.
type Artifact struct {
	ID           string              `json:"id"`
	PayrollID    string              `json:"payroll_id"`
	DocumentType render.DocumentType `json:"document_type"`
	FilePath     string              `json:"file_path"`
	FileSize     int64               `json:"file_size"`
	IsCurrent    bool                `json:"is_current"`
	GeneratedBy  string              `json:"generated_by"`
	GeneratedAt  time.Time           `json:"generated_at"`
}

// ErrNotFound is returned when an artifact id does not exist.
var ErrNotFound = errors.New("artifact: not found")

// StorageError wraps object-store failures. Fatal for the invocation that
// hit it; when it happens during upload, no metadata row is written.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("artifact storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ObjectStore is the durable byte store (S3-compatible in production).
type ObjectStore interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// MetadataStore persists artifact rows and owns the is_current flag.
// InsertCurrent must supersede and insert in one transaction so the pair
// never observes zero or two current rows.
type MetadataStore interface {
	InsertCurrent(ctx context.Context, a Artifact) error
	ByID(ctx context.Context, id string) (Artifact, error)
	ListCurrent(ctx context.Context, payrollID string) ([]Artifact, error)
}

// DownloadTTL is the lifetime of signed download links.
const DownloadTTL = 5 * time.Minute

const contentTypePDF = "application/pdf"

// Store couples the object store with artifact metadata.
type Store struct {
	objects ObjectStore
	meta    MetadataStore
	now     func() time.Time
}

// NewStore wires a versioning artifact store.
func NewStore(objects ObjectStore, meta MetadataStore) *Store {
	return &Store{objects: objects, meta: meta, now: time.Now}
}

// PutRequest carries everything needed to store one rendered document.
type PutRequest struct {
	PayrollID    string
	DocumentType render.DocumentType
	Content      []byte
	ICNo         string
	Month        int
	Year         int
	GeneratedBy  string
}

// Put uploads the rendered bytes and records a new current artifact,
// superseding any previous generation for the same (payroll, type) pair.
// Upload failure aborts before any metadata write.
func (s *Store) Put(ctx context.Context, req PutRequest) (Artifact, error) {
	now := s.now().UTC()
	key := objectKey(req.DocumentType, fileName(req, now))

	if err := s.objects.Upload(ctx, key, req.Content, contentTypePDF); err != nil {
		return Artifact{}, &StorageError{Op: "upload", Key: key, Err: err}
	}

	a := Artifact{
		ID:           ids.New(),
		PayrollID:    req.PayrollID,
		DocumentType: req.DocumentType,
		FilePath:     key,
		FileSize:     int64(len(req.Content)),
		IsCurrent:    true,
		GeneratedBy:  req.GeneratedBy,
		GeneratedAt:  now,
	}
	if err := s.meta.InsertCurrent(ctx, a); err != nil {
		return Artifact{}, fmt.Errorf("record artifact %s: %w", a.ID, err)
	}
	return a, nil
}

// DownloadURL issues a signed link for the artifact's bytes, valid for
// DownloadTTL.
func (s *Store) DownloadURL(ctx context.Context, artifactID string) (string, error) {
	a, err := s.meta.ByID(ctx, artifactID)
	if err != nil {
		return "", err
	}
	url, err := s.objects.PresignGet(ctx, a.FilePath, DownloadTTL)
	if err != nil {
		return "", &StorageError{Op: "presign", Key: a.FilePath, Err: err}
	}
	return url, nil
}

// ListCurrent returns the current artifacts for a payroll record, newest
// first.
func (s *Store) ListCurrent(ctx context.Context, payrollID string) ([]Artifact, error) {
	return s.meta.ListCurrent(ctx, payrollID)
}

// fileName encodes staff identity and pay period for payslips; certificate
// and statement names carry the generation timestamp instead, so repeated
// issues never collide.
func fileName(req PutRequest, now time.Time) string {
	switch req.DocumentType {
	case render.TypePayslip:
		return fmt.Sprintf("payslip_%s_%d_%d.pdf", req.ICNo, req.Month, req.Year)
	default:
		return fmt.Sprintf("%s_%s_%d.pdf", req.DocumentType, req.ICNo, now.UnixMilli())
	}
}

func objectKey(t render.DocumentType, name string) string {
	return fmt.Sprintf("payroll/%s/%s", t, name)
}
