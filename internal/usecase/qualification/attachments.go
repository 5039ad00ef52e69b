package qualification

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	domainqual "qualtrack/internal/domain/qualification"
	"qualtrack/internal/ports"
)

const (
	parentQualificationPhase = "qualification_phase"
	parentRequalification    = "requalification"
	parentRevalidationPhase  = "revalidation_phase"
)

type decodedAttachment struct {
	FileName string
	MimeType string
	Data     []byte
}

// ParseAttachmentParent maps a parent type name and id onto the one-of parent reference.
func ParseAttachmentParent(parentType string, parentID uint64) (ports.AttachmentParent, error) {
	if parentID == 0 {
		return ports.AttachmentParent{}, domainqual.ErrAttachmentParent
	}
	switch strings.ToLower(strings.TrimSpace(parentType)) {
	case parentQualificationPhase, "qualification", "phase":
		return ports.AttachmentParent{QualificationPhaseID: parentID}, nil
	case parentRequalification:
		return ports.AttachmentParent{RequalificationID: parentID}, nil
	case parentRevalidationPhase, "revalidation":
		return ports.AttachmentParent{RevalidationID: parentID}, nil
	default:
		return ports.AttachmentParent{}, fmt.Errorf("%w: unknown parent type %q", domainqual.ErrAttachmentParent, parentType)
	}
}

func parentCount(p ports.AttachmentParent) int {
	n := 0
	for _, id := range []uint64{p.QualificationPhaseID, p.RequalificationID, p.RevalidationID} {
		if id != 0 {
			n++
		}
	}
	return n
}

func describeParent(p ports.AttachmentParent) (string, uint64) {
	switch {
	case p.QualificationPhaseID != 0:
		return parentQualificationPhase, p.QualificationPhaseID
	case p.RequalificationID != 0:
		return parentRequalification, p.RequalificationID
	default:
		return parentRevalidationPhase, p.RevalidationID
	}
}

// decodeAttachment enforces the size cap on the decoded bytes. Oversized payloads are
// rejected from their encoded length before anything is decoded.
func decodeAttachment(file AttachmentFile, maxBytes int64) (decodedAttachment, error) {
	name := strings.TrimSpace(filepath.Base(strings.TrimSpace(file.FileName)))
	encoded := strings.TrimSpace(file.DataBase64)
	if name == "" || name == "." || encoded == "" {
		return decodedAttachment{}, domainqual.ErrAttachmentRequired
	}

	mimeType := strings.TrimSpace(file.MimeType)
	if strings.HasPrefix(encoded, "data:") {
		header, body, ok := strings.Cut(encoded, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return decodedAttachment{}, domainqual.ErrAttachmentEncoding
		}
		if mimeType == "" {
			mimeType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		}
		encoded = body
	}

	if int64(base64.StdEncoding.DecodedLen(len(encoded))) > maxBytes+2 {
		return decodedAttachment{}, fmt.Errorf("%w: more than %d bytes", domainqual.ErrAttachmentTooLarge, maxBytes)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return decodedAttachment{}, fmt.Errorf("%w: %v", domainqual.ErrAttachmentEncoding, err)
	}
	if int64(len(data)) > maxBytes {
		return decodedAttachment{}, fmt.Errorf("%w: %d bytes, limit %d", domainqual.ErrAttachmentTooLarge, len(data), maxBytes)
	}

	if mimeType == "" {
		mimeType = mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return decodedAttachment{FileName: name, MimeType: mimeType, Data: data}, nil
}

func blobKey(now time.Time, fileName string) string {
	return fmt.Sprintf("attachments/%s/%s%s", now.UTC().Format("2006/01/02"), uuid.NewString(), strings.ToLower(filepath.Ext(fileName)))
}

// parentEquipmentTx checks the parent exists and returns the equipment it belongs to.
func (s *Service) parentEquipmentTx(ctx context.Context, parent ports.AttachmentParent) (uint64, error) {
	switch {
	case parent.QualificationPhaseID != 0:
		phase, err := s.repo.GetPhase(ctx, parent.QualificationPhaseID)
		if err != nil {
			return 0, notFound(err, domainqual.ErrPhaseNotFound, parent.QualificationPhaseID)
		}
		return phase.EquipmentID, nil
	case parent.RequalificationID != 0:
		rq, err := s.repo.GetRequalification(ctx, parent.RequalificationID)
		if err != nil {
			return 0, notFound(err, domainqual.ErrRequalificationNotFound, parent.RequalificationID)
		}
		return rq.EquipmentID, nil
	default:
		reval, err := s.repo.GetRevalidationPhase(ctx, parent.RevalidationID)
		if err != nil {
			return 0, notFound(err, domainqual.ErrRevalidationNotFound, parent.RevalidationID)
		}
		bd, err := s.repo.GetBreakdown(ctx, reval.BreakdownID)
		if err != nil {
			return 0, notFound(err, domainqual.ErrBreakdownNotFound, reval.BreakdownID)
		}
		return bd.EquipmentID, nil
	}
}

func (s *Service) storeAttachmentTx(ctx context.Context, parent ports.AttachmentParent, file decodedAttachment, actor string, now string) (ports.Attachment, error) {
	if s.blobs == nil {
		return ports.Attachment{}, errors.New("attachment blob store is required")
	}

	key := blobKey(s.now(), file.FileName)
	if err := s.blobs.Put(ctx, key, file.Data, file.MimeType); err != nil {
		return ports.Attachment{}, err
	}
	return s.repo.CreateAttachment(ctx, ports.Attachment{
		Parent:     parent,
		FileName:   file.FileName,
		MimeType:   file.MimeType,
		Size:       int64(len(file.Data)),
		BlobKey:    key,
		UploadedBy: normalizeActor(actor),
		CreatedAt:  now,
	})
}

func (s *Service) deleteBlobsTx(ctx context.Context, keys []string) error {
	if s.blobs == nil {
		return nil
	}
	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// UploadAttachment stores a base64 file against exactly one phase, requalification or revalidation phase.
func (s *Service) UploadAttachment(ctx context.Context, input UploadAttachmentInput) (AttachmentItem, error) {
	if err := s.checkReady(ctx); err != nil {
		return AttachmentItem{}, err
	}
	if parentCount(input.Parent) != 1 {
		return AttachmentItem{}, domainqual.ErrAttachmentParent
	}
	file, err := decodeAttachment(input.AttachmentFile, s.maxAttachmentBytes)
	if err != nil {
		return AttachmentItem{}, err
	}

	now := s.nowUTCString()
	var created ports.Attachment
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		equipmentID, err := s.parentEquipmentTx(txCtx, input.Parent)
		if err != nil {
			return err
		}
		created, err = s.storeAttachmentTx(txCtx, input.Parent, file, input.Actor, now)
		if err != nil {
			return err
		}
		parentType, parentID := describeParent(input.Parent)
		return appendAuditTx(txCtx, s.repo, equipmentID, "Attachment Uploaded",
			fmt.Sprintf("Uploaded %s (%d bytes) to %s %d", created.FileName, created.Size, parentType, parentID),
			input.Actor, &auditChanges{Attachment: created.FileName}, now)
	}); err != nil {
		return AttachmentItem{}, err
	}

	s.afterCommit(ctx, nil)
	return mapAttachmentItem(created), nil
}

func (s *Service) ListAttachments(ctx context.Context, parent ports.AttachmentParent) ([]AttachmentItem, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if parentCount(parent) != 1 {
		return nil, domainqual.ErrAttachmentParent
	}

	rows, err := s.repo.ListAttachments(ctx, parent)
	if err != nil {
		return nil, err
	}
	items := make([]AttachmentItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapAttachmentItem(row))
	}
	return items, nil
}

func (s *Service) DownloadAttachment(ctx context.Context, attachmentID uint64) (AttachmentItem, []byte, error) {
	if err := s.checkReady(ctx); err != nil {
		return AttachmentItem{}, nil, err
	}
	if s.blobs == nil {
		return AttachmentItem{}, nil, errors.New("attachment blob store is required")
	}

	row, err := s.repo.GetAttachment(ctx, attachmentID)
	if err != nil {
		return AttachmentItem{}, nil, notFound(err, domainqual.ErrAttachmentNotFound, attachmentID)
	}
	data, err := s.blobs.Get(ctx, row.BlobKey)
	if err != nil {
		return AttachmentItem{}, nil, notFound(err, domainqual.ErrAttachmentNotFound, attachmentID)
	}
	return mapAttachmentItem(row), data, nil
}

// DeleteAttachment is a no-op for unknown ids.
func (s *Service) DeleteAttachment(ctx context.Context, attachmentID uint64, actor string) error {
	if err := s.checkReady(ctx); err != nil {
		return err
	}

	now := s.nowUTCString()
	deleted := false
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		row, err := s.repo.GetAttachment(txCtx, attachmentID)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return nil
			}
			return err
		}
		equipmentID, err := s.parentEquipmentTx(txCtx, row.Parent)
		if err != nil {
			return err
		}
		if deleted, err = s.repo.DeleteAttachment(txCtx, attachmentID); err != nil || !deleted {
			return err
		}
		if err := appendAuditTx(txCtx, s.repo, equipmentID, "Attachment Deleted",
			fmt.Sprintf("Deleted %s", row.FileName), actor, &auditChanges{Attachment: row.FileName}, now); err != nil {
			return err
		}
		return s.deleteBlobsTx(txCtx, []string{row.BlobKey})
	}); err != nil {
		return err
	}

	if deleted {
		s.afterCommit(ctx, nil)
	}
	return nil
}

func mapAttachmentItem(row ports.Attachment) AttachmentItem {
	parentType, parentID := describeParent(row.Parent)
	return AttachmentItem{
		AttachmentID: row.AttachmentID,
		Parent:       row.Parent,
		ParentType:   parentType,
		ParentID:     parentID,
		FileName:     row.FileName,
		MimeType:     row.MimeType,
		Size:         row.Size,
		UploadedBy:   row.UploadedBy,
		CreatedAt:    row.CreatedAt,
	}
}
