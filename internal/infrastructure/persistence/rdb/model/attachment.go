package model

// Attachment carries one nullable foreign key per parent type; exactly one is set.
type Attachment struct {
	AttachmentID         uint64  `gorm:"column:attachment_id;primaryKey;autoIncrement"`
	QualificationPhaseID *uint64 `gorm:"column:qualification_phase_id;index"`
	RequalificationID    *uint64 `gorm:"column:requalification_id;index"`
	RevalidationID       *uint64 `gorm:"column:revalidation_id;index"`
	FileName             string  `gorm:"column:file_name;size:255;not null"`
	MimeType             string  `gorm:"column:mime_type;size:128;not null"`
	Size                 int64   `gorm:"column:size;not null"`
	BlobKey              string  `gorm:"column:blob_key;size:128;not null;uniqueIndex"`
	UploadedBy           string  `gorm:"column:uploaded_by;size:255;not null"`
	CreatedAt            string  `gorm:"column:created_at;size:40;not null"`
}

func (Attachment) TableName() string {
	return "attachments"
}

type AttachmentBlob struct {
	BlobKey     string `gorm:"column:blob_key;size:128;primaryKey"`
	ContentType string `gorm:"column:content_type;size:128;not null"`
	Data        []byte `gorm:"column:data;not null"`
	CreatedAt   string `gorm:"column:created_at;size:40;not null"`
}

func (AttachmentBlob) TableName() string {
	return "attachment_blobs"
}
