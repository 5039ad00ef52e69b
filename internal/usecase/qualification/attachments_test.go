package qualification

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"testing"

	domainqual "qualtrack/internal/domain/qualification"
	"qualtrack/internal/errs"
	"qualtrack/internal/infrastructure/blob"
	"qualtrack/internal/infrastructure/persistence/rdb/model"
	"qualtrack/internal/ports"
)

// brokenDeleteStore stores normally but fails deletes while broken is set.
type brokenDeleteStore struct {
	ports.BlobStore
	broken bool
}

func (s *brokenDeleteStore) Delete(ctx context.Context, key string) error {
	if s.broken {
		return errors.New("object store unavailable")
	}
	return s.BlobStore.Delete(ctx, key)
}

func TestUploadAttachmentRejectsOversizedPayload(t *testing.T) {
	env := setupService(t, WithMaxAttachmentBytes(16))
	ctx := context.Background()
	id := createHPLC(t, env.svc)
	view, err := env.svc.GetEquipment(ctx, id)
	if err != nil {
		t.Fatalf("GetEquipment() error = %v", err)
	}
	parent := ports.AttachmentParent{QualificationPhaseID: view.Phases[0].PhaseID}

	for _, size := range []int{17, 64} {
		_, err := env.svc.UploadAttachment(ctx, UploadAttachmentInput{
			Parent: parent,
			AttachmentFile: AttachmentFile{
				FileName:   "big.bin",
				DataBase64: base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{'x'}, size)),
			},
		})
		if !errors.Is(err, domainqual.ErrAttachmentTooLarge) || !errs.IsPayloadTooLarge(err) {
			t.Fatalf("UploadAttachment(%d bytes) error = %v, want payload too large", size, err)
		}
	}
	if n := countRows(t, env.db, &model.Attachment{}, ""); n != 0 {
		t.Fatalf("attachment rows = %d, want 0", n)
	}

	item, err := env.svc.UploadAttachment(ctx, UploadAttachmentInput{
		Parent: parent,
		AttachmentFile: AttachmentFile{
			FileName:   "exact.bin",
			DataBase64: base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{'y'}, 16)),
		},
		Actor: "qa",
	})
	if err != nil {
		t.Fatalf("UploadAttachment(16 bytes) error = %v", err)
	}
	if item.Size != 16 || item.ParentType != "qualification_phase" || item.UploadedBy != "qa" {
		t.Fatalf("item = %#v", item)
	}
}

func TestAttachmentRoundTrip(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	id := createHPLC(t, env.svc)
	view, err := env.svc.GetEquipment(ctx, id)
	if err != nil {
		t.Fatalf("GetEquipment() error = %v", err)
	}
	parent := ports.AttachmentParent{QualificationPhaseID: view.Phases[1].PhaseID}

	item, err := env.svc.UploadAttachment(ctx, UploadAttachmentInput{
		Parent:         parent,
		AttachmentFile: AttachmentFile{FileName: "../dq/report.csv", DataBase64: "data:text/csv;base64,YSxiCjEsMgo="},
	})
	if err != nil {
		t.Fatalf("UploadAttachment() error = %v", err)
	}
	if item.FileName != "report.csv" || item.MimeType != "text/csv" {
		t.Fatalf("item = %#v", item)
	}

	got, data, err := env.svc.DownloadAttachment(ctx, item.AttachmentID)
	if err != nil {
		t.Fatalf("DownloadAttachment() error = %v", err)
	}
	if got.AttachmentID != item.AttachmentID || string(data) != "a,b\n1,2\n" {
		t.Fatalf("download = %#v %q", got, data)
	}

	if err := env.svc.DeleteAttachment(ctx, item.AttachmentID, "qa"); err != nil {
		t.Fatalf("DeleteAttachment() error = %v", err)
	}
	list, err := env.svc.ListAttachments(ctx, parent)
	if err != nil {
		t.Fatalf("ListAttachments() error = %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("attachments after delete = %#v", list)
	}
	if _, _, err := env.svc.DownloadAttachment(ctx, item.AttachmentID); !errors.Is(err, domainqual.ErrAttachmentNotFound) {
		t.Fatalf("DownloadAttachment(deleted) error = %v", err)
	}
	if err := env.svc.DeleteAttachment(ctx, item.AttachmentID, "qa"); err != nil {
		t.Fatalf("DeleteAttachment(missing) error = %v, want no-op", err)
	}

	audit, err := env.svc.ListAuditLog(ctx, id, 2)
	if err != nil {
		t.Fatalf("ListAuditLog() error = %v", err)
	}
	if audit[0].Action != "Attachment Deleted" || audit[1].Action != "Attachment Uploaded" {
		t.Fatalf("audit = %q, %q", audit[0].Action, audit[1].Action)
	}
}

func TestUploadAttachmentParentRules(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	file := AttachmentFile{FileName: "a.txt", DataBase64: "YQ=="}

	_, err := env.svc.UploadAttachment(ctx, UploadAttachmentInput{
		Parent:         ports.AttachmentParent{QualificationPhaseID: 1, RequalificationID: 2},
		AttachmentFile: file,
	})
	if !errors.Is(err, domainqual.ErrAttachmentParent) {
		t.Fatalf("two parents error = %v", err)
	}
	_, err = env.svc.UploadAttachment(ctx, UploadAttachmentInput{AttachmentFile: file})
	if !errors.Is(err, domainqual.ErrAttachmentParent) {
		t.Fatalf("no parent error = %v", err)
	}
	_, err = env.svc.UploadAttachment(ctx, UploadAttachmentInput{
		Parent:         ports.AttachmentParent{RevalidationID: 77},
		AttachmentFile: file,
	})
	if !errors.Is(err, domainqual.ErrRevalidationNotFound) {
		t.Fatalf("missing parent error = %v", err)
	}
	_, err = env.svc.UploadAttachment(ctx, UploadAttachmentInput{
		Parent:         ports.AttachmentParent{RequalificationID: 1},
		AttachmentFile: AttachmentFile{FileName: "a.txt", DataBase64: "not base64!"},
	})
	if !errors.Is(err, domainqual.ErrAttachmentEncoding) {
		t.Fatalf("bad encoding error = %v", err)
	}

	if _, err := ParseAttachmentParent("invoice", 1); !errors.Is(err, domainqual.ErrAttachmentParent) {
		t.Fatalf("ParseAttachmentParent(invoice) error = %v", err)
	}
	parent, err := ParseAttachmentParent("Revalidation", 5)
	if err != nil || parent.RevalidationID != 5 {
		t.Fatalf("ParseAttachmentParent(Revalidation) = %#v, %v", parent, err)
	}
}

func TestFailedBlobDeleteRollsBackAttachmentDelete(t *testing.T) {
	env := setupService(t)
	store := &brokenDeleteStore{BlobStore: blob.NewDBStore(env.db)}
	svc := NewService(env.svc.repo, env.svc.uow, WithBlobStore(store), WithClock(env.clock.Now))
	ctx := context.Background()

	id := createHPLC(t, svc)
	view, err := svc.GetEquipment(ctx, id)
	if err != nil {
		t.Fatalf("GetEquipment() error = %v", err)
	}
	item, err := svc.UploadAttachment(ctx, UploadAttachmentInput{
		Parent:         ports.AttachmentParent{QualificationPhaseID: view.Phases[0].PhaseID},
		AttachmentFile: AttachmentFile{FileName: "urs.txt", DataBase64: base64.StdEncoding.EncodeToString([]byte("URS v1"))},
	})
	if err != nil {
		t.Fatalf("UploadAttachment() error = %v", err)
	}

	store.broken = true
	if err := svc.DeleteAttachment(ctx, item.AttachmentID, "qa"); err == nil {
		t.Fatalf("DeleteAttachment() expected the blob delete failure")
	}
	if n := countRows(t, env.db, &model.Attachment{}, ""); n != 1 {
		t.Fatalf("attachment rows = %d, want 1 after rollback", n)
	}

	store.broken = false
	if _, data, err := svc.DownloadAttachment(ctx, item.AttachmentID); err != nil || string(data) != "URS v1" {
		t.Fatalf("DownloadAttachment() = %q, %v", data, err)
	}
}
