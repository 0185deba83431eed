package model

import "time"

const DefaultDocumentCategory = "Medical Records"

// Document is the stored metadata of a file attached to a patient. File
// contents are not kept.
type Document struct {
	Base
	PatientID   int64     `json:"patientId"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Kind        string    `json:"kind"`
	Size        int64     `json:"size"`
	Category    string    `json:"category"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

func (d *Document) ApplyDefaults(now time.Time) {
	if d.Category == "" {
		d.Category = DefaultDocumentCategory
	}
	if d.UploadedAt.IsZero() {
		d.UploadedAt = now
	}
}
