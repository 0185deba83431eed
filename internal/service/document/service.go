// Package document validates uploaded files and keeps their metadata.
package document

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/crud"
	"github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
)

const MaxFileSize = 10 << 20

// supported maps detected MIME types to document kinds.
var supported = []struct {
	mime string
	kind string
}{
	{"application/pdf", "pdf"},
	{"image/jpeg", "jpeg"},
	{"image/png", "png"},
	{"application/dicom", "dicom"},
}

// File is an upload as received. Content only needs to yield the leading
// bytes; nothing is stored.
type File struct {
	Name    string
	Size    int64
	Content io.Reader
}

type Validation struct {
	Valid       bool     `json:"isValid"`
	Errors      []string `json:"errors"`
	Kind        string   `json:"type,omitempty"`
	ContentType string   `json:"contentType,omitempty"`
}

type Service struct {
	*crud.Service[model.Document]
	events messaging.Emitter
	logger *logger.Logger
	now    func() time.Time
}

func NewService(store repository.Store[model.Document], events messaging.Emitter, log *logger.Logger) *Service {
	if events == nil {
		events = messaging.NopEmitter{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		Service: crud.New(store, "document"),
		events:  events,
		logger:  log.With("documents"),
		now:     time.Now,
	}
}

func kindOf(m *mimetype.MIME) string {
	for _, s := range supported {
		if m.Is(s.mime) {
			return s.kind
		}
	}
	return ""
}

// Validate sniffs the content type and checks size and name. Every failed
// check is reported, not just the first.
func Validate(f File) Validation {
	v := Validation{Errors: []string{}}

	var detected *mimetype.MIME
	if f.Content != nil {
		m, err := mimetype.DetectReader(f.Content)
		if err == nil {
			detected = m
		}
	}
	if detected == nil {
		v.Errors = append(v.Errors, "File content could not be read")
	} else {
		v.ContentType = detected.String()
		v.Kind = kindOf(detected)
		if v.Kind == "" {
			v.Errors = append(v.Errors, fmt.Sprintf("File type %s is not supported. Supported types: PDF, JPEG, PNG, DICOM", detected.String()))
		}
	}

	if f.Size > MaxFileSize {
		v.Errors = append(v.Errors, fmt.Sprintf("File size %.2fMB exceeds maximum limit of 10MB", float64(f.Size)/1024/1024))
	}
	if strings.TrimSpace(f.Name) == "" {
		v.Errors = append(v.Errors, "File must have a valid name")
	}

	v.Valid = len(v.Errors) == 0
	return v
}

// Attach validates f and records it against the patient. An empty category
// falls back to the default one.
func (s *Service) Attach(ctx context.Context, patientID int64, f File, category string) (*model.Document, error) {
	if patientID <= 0 {
		return nil, errors.Validation("patientId must be positive", nil)
	}
	v := Validate(f)
	if !v.Valid {
		return nil, errors.Validation(strings.Join(v.Errors, "; "), nil)
	}

	doc, err := s.Create(ctx, &model.Document{
		PatientID:   patientID,
		Name:        strings.TrimSpace(f.Name),
		ContentType: v.ContentType,
		Kind:        v.Kind,
		Size:        f.Size,
		Category:    category,
		UploadedAt:  s.now(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Document attached", "document_id", doc.ID, "patient_id", patientID, "kind", doc.Kind, "size", doc.Size)
	s.events.Emit(ctx, messaging.EventDocumentAttached, doc)
	return doc, nil
}

func (s *Service) ByPatient(ctx context.Context, patientID int64) ([]model.Document, error) {
	return s.Filter(ctx, func(d *model.Document) bool { return d.PatientID == patientID })
}
