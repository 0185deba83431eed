package document

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/pkg/errors"
)

var (
	pdfBytes = []byte("%PDF-1.7\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	jpgBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
)

func dicomBytes() []byte {
	b := make([]byte, 132, 200)
	copy(b[128:], "DICM")
	return append(b, 0x02, 0x00, 0x00, 0x00)
}

func file(name string, content []byte) File {
	return File{Name: name, Size: int64(len(content)), Content: bytes.NewReader(content)}
}

func TestValidate_SupportedKinds(t *testing.T) {
	cases := []struct {
		name    string
		content []byte
		kind    string
	}{
		{"report.pdf", pdfBytes, "pdf"},
		{"xray.png", pngBytes, "png"},
		{"photo.jpg", jpgBytes, "jpeg"},
		{"scan.dcm", dicomBytes(), "dicom"},
	}
	for _, tc := range cases {
		t.Run(tc.kind, func(t *testing.T) {
			v := Validate(file(tc.name, tc.content))
			assert.True(t, v.Valid, v.Errors)
			assert.Equal(t, tc.kind, v.Kind)
		})
	}
}

func TestValidate_ContentBeatsExtension(t *testing.T) {
	v := Validate(file("notes.pdf", []byte("just some plain text, not a pdf at all")))
	assert.False(t, v.Valid)
	require.Len(t, v.Errors, 1)
	assert.Contains(t, v.Errors[0], "text/plain")
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	f := file("  ", []byte("plain text"))
	f.Size = 11 << 20

	v := Validate(f)
	assert.False(t, v.Valid)
	require.Len(t, v.Errors, 3)
	assert.Contains(t, v.Errors[1], "11.00MB exceeds maximum limit of 10MB")
	assert.Equal(t, "File must have a valid name", v.Errors[2])
}

func TestValidate_SizeLimitInclusive(t *testing.T) {
	f := file("big.pdf", pdfBytes)
	f.Size = MaxFileSize
	assert.True(t, Validate(f).Valid)
}

func TestService_AttachAndList(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	svc := NewService(memory.NewStore[model.Document](model.CollectionDocuments, memory.Options{}), nil, nil)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	doc, err := svc.Attach(ctx, 3, file("labs.pdf", pdfBytes), "")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultDocumentCategory, doc.Category)
	assert.Equal(t, "pdf", doc.Kind)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.True(t, now.Equal(doc.UploadedAt))

	_, err = svc.Attach(ctx, 3, file("xray.png", pngBytes), "Imaging")
	require.NoError(t, err)
	_, err = svc.Attach(ctx, 4, file("other.png", pngBytes), "")
	require.NoError(t, err)

	_, err = svc.Attach(ctx, 3, file("bad.txt", []byte("hello")), "")
	assert.True(t, errors.IsValidation(err))

	docs, err := svc.ByPatient(ctx, 3)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Imaging", docs[0].Category)

	_, err = svc.Delete(ctx, doc.ID)
	require.NoError(t, err)
	docs, err = svc.ByPatient(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}
