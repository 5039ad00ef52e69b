package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"qualtrack/internal/errs"
	"qualtrack/internal/infrastructure/persistence/rdb/model"
	"qualtrack/internal/ports"
)

func (r *QualificationRepository) CreateAttachment(ctx context.Context, attachment ports.Attachment) (ports.Attachment, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Attachment{}, err
	}

	row := model.Attachment{
		QualificationPhaseID: optionalID(attachment.Parent.QualificationPhaseID),
		RequalificationID:    optionalID(attachment.Parent.RequalificationID),
		RevalidationID:       optionalID(attachment.Parent.RevalidationID),
		FileName:             attachment.FileName,
		MimeType:             attachment.MimeType,
		Size:                 attachment.Size,
		BlobKey:              attachment.BlobKey,
		UploadedBy:           attachment.UploadedBy,
		CreatedAt:            attachment.CreatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.Attachment{}, errs.Persistence(err, "insert attachment")
	}
	return mapAttachment(row), nil
}

func (r *QualificationRepository) GetAttachment(ctx context.Context, attachmentID uint64) (ports.Attachment, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Attachment{}, err
	}

	var row model.Attachment
	if err := db.Where("attachment_id = ?", attachmentID).Take(&row).Error; err != nil {
		return ports.Attachment{}, takeErr(err, "query attachment")
	}
	return mapAttachment(row), nil
}

func (r *QualificationRepository) ListAttachments(ctx context.Context, parent ports.AttachmentParent) ([]ports.Attachment, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Attachment{})
	switch {
	case parent.QualificationPhaseID != 0:
		query = query.Where("qualification_phase_id = ?", parent.QualificationPhaseID)
	case parent.RequalificationID != 0:
		query = query.Where("requalification_id = ?", parent.RequalificationID)
	case parent.RevalidationID != 0:
		query = query.Where("revalidation_id = ?", parent.RevalidationID)
	default:
		return nil, errors.New("attachment parent is required")
	}

	var rows []model.Attachment
	if err := query.Order("attachment_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Persistence(err, "query attachments")
	}

	out := make([]ports.Attachment, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapAttachment(row))
	}
	return out, nil
}

func (r *QualificationRepository) DeleteAttachment(ctx context.Context, attachmentID uint64) (bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return false, err
	}

	result := db.Where("attachment_id = ?", attachmentID).Delete(&model.Attachment{})
	if result.Error != nil {
		return false, errs.Persistence(result.Error, "delete attachment")
	}
	return result.RowsAffected > 0, nil
}

// deleteAttachmentsBy removes attachment rows owned through column and returns their blob keys.
func deleteAttachmentsBy(db *gorm.DB, column string, ids []uint64) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var keys []string
	if err := db.Model(&model.Attachment{}).Where(column+" IN ?", ids).Pluck("blob_key", &keys).Error; err != nil {
		return nil, errs.Persistence(err, "query attachment blob keys")
	}
	if len(keys) == 0 {
		return nil, nil
	}
	if err := db.Where(column+" IN ?", ids).Delete(&model.Attachment{}).Error; err != nil {
		return nil, errs.Persistence(err, "delete attachments")
	}
	return keys, nil
}

func optionalID(id uint64) *uint64 {
	if id == 0 {
		return nil
	}
	return &id
}

func derefID(id *uint64) uint64 {
	if id == nil {
		return 0
	}
	return *id
}

func mapAttachment(row model.Attachment) ports.Attachment {
	return ports.Attachment{
		AttachmentID: row.AttachmentID,
		Parent: ports.AttachmentParent{
			QualificationPhaseID: derefID(row.QualificationPhaseID),
			RequalificationID:    derefID(row.RequalificationID),
			RevalidationID:       derefID(row.RevalidationID),
		},
		FileName:   row.FileName,
		MimeType:   row.MimeType,
		Size:       row.Size,
		BlobKey:    row.BlobKey,
		UploadedBy: row.UploadedBy,
		CreatedAt:  row.CreatedAt,
	}
}
