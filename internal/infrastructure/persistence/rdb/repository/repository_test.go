package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"qualtrack/internal/infrastructure/persistence/rdb/model"
	"qualtrack/internal/ports"
)

func setupQualificationRepository(t *testing.T) (*QualificationRepository, *gorm.DB) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "qualtrack.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return NewQualificationRepository(db), db
}

func seedEquipment(t *testing.T, repo *QualificationRepository, tag string) ports.Equipment {
	t.Helper()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	created, err := repo.CreateEquipment(context.Background(), ports.Equipment{
		Tag:                      tag,
		Name:                     "HPLC-1",
		Type:                     "Laboratory",
		Department:               "QC",
		Location:                 "Lab A",
		RequalificationFrequency: "Annual",
		ToleranceMonths:          1,
		Status:                   "Not Started",
		CreatedAt:                now,
		UpdatedAt:                now,
	})
	if err != nil {
		t.Fatalf("CreateEquipment() error = %v", err)
	}
	return created
}

func TestGetEquipmentNotFound(t *testing.T) {
	repo, _ := setupQualificationRepository(t)

	_, err := repo.GetEquipment(context.Background(), 404)
	if !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("GetEquipment() error = %v, want ErrNotFound", err)
	}
}

func TestSetEquipmentStatusDetectsStaleVersion(t *testing.T) {
	repo, _ := setupQualificationRepository(t)
	ctx := context.Background()
	eq := seedEquipment(t, repo, "PENDING-1")

	if eq.Version != 1 {
		t.Fatalf("initial version = %d", eq.Version)
	}
	next, err := repo.SetEquipmentStatus(ctx, eq.EquipmentID, "In Progress", eq.Version, "t1")
	if err != nil {
		t.Fatalf("SetEquipmentStatus() error = %v", err)
	}
	if next != 2 {
		t.Fatalf("SetEquipmentStatus() version = %d", next)
	}

	_, err = repo.SetEquipmentStatus(ctx, eq.EquipmentID, "Failed", eq.Version, "t2")
	if !errors.Is(err, ports.ErrStaleWrite) {
		t.Fatalf("SetEquipmentStatus(stale) error = %v, want ErrStaleWrite", err)
	}

	got, err := repo.GetEquipment(ctx, eq.EquipmentID)
	if err != nil {
		t.Fatalf("GetEquipment() error = %v", err)
	}
	if got.Status != "In Progress" || got.Version != 2 {
		t.Fatalf("GetEquipment() = status %q version %d", got.Status, got.Version)
	}
}

func TestNextTagSequencePerPrefix(t *testing.T) {
	repo, _ := setupQualificationRepository(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := repo.NextTagSequence(ctx, "QC")
		if err != nil {
			t.Fatalf("NextTagSequence() error = %v", err)
		}
		if got != want {
			t.Fatalf("NextTagSequence(QC) = %d, want %d", got, want)
		}
	}
	got, err := repo.NextTagSequence(ctx, "PRO")
	if err != nil {
		t.Fatalf("NextTagSequence() error = %v", err)
	}
	if got != 1 {
		t.Fatalf("NextTagSequence(PRO) = %d", got)
	}
}

func TestBreakdownRevalidationOrderAndCounts(t *testing.T) {
	repo, _ := setupQualificationRepository(t)
	ctx := context.Background()
	eq := seedEquipment(t, repo, "PENDING-2")

	created, err := repo.CreateBreakdown(ctx, ports.Breakdown{
		EquipmentID:      eq.EquipmentID,
		Ref:              "BD-1",
		ReportedDate:     "2025-01-10",
		Description:      "pump seal leak",
		Type:             "Mechanical",
		Severity:         "Major",
		ValidationImpact: "Partial Revalidation Required",
		Status:           "Open",
		RevalidationPhases: []ports.RevalidationPhase{
			{Phase: "PQ", Status: "Pending"},
			{Phase: "IQ", Status: "Pending"},
		},
	})
	if err != nil {
		t.Fatalf("CreateBreakdown() error = %v", err)
	}

	got, err := repo.GetBreakdown(ctx, created.BreakdownID)
	if err != nil {
		t.Fatalf("GetBreakdown() error = %v", err)
	}
	if len(got.RevalidationPhases) != 2 || got.RevalidationPhases[0].Phase != "IQ" || got.RevalidationPhases[1].Phase != "PQ" {
		t.Fatalf("revalidation phases = %#v", got.RevalidationPhases)
	}

	open, err := repo.CountOpenBreakdowns(ctx, eq.EquipmentID)
	if err != nil || open != 1 {
		t.Fatalf("CountOpenBreakdowns() = %d, %v", open, err)
	}
	pending, err := repo.CountPendingRevalidation(ctx, eq.EquipmentID)
	if err != nil || pending != 0 {
		t.Fatalf("CountPendingRevalidation(open breakdown) = %d, %v", pending, err)
	}

	got.Status = "Closed"
	if err := repo.UpdateBreakdown(ctx, got); err != nil {
		t.Fatalf("UpdateBreakdown() error = %v", err)
	}
	iq := got.RevalidationPhases[0]
	iq.Status = "Passed"
	if err := repo.UpdateRevalidationPhase(ctx, iq); err != nil {
		t.Fatalf("UpdateRevalidationPhase() error = %v", err)
	}

	open, _ = repo.CountOpenBreakdowns(ctx, eq.EquipmentID)
	pending, _ = repo.CountPendingRevalidation(ctx, eq.EquipmentID)
	if open != 0 || pending != 1 {
		t.Fatalf("after close open=%d pending=%d", open, pending)
	}
}

func TestDeleteEquipmentCascades(t *testing.T) {
	repo, db := setupQualificationRepository(t)
	ctx := context.Background()
	eq := seedEquipment(t, repo, "PENDING-3")
	other := seedEquipment(t, repo, "PENDING-4")

	phases, err := repo.CreatePhases(ctx, []ports.QualificationPhase{
		{EquipmentID: eq.EquipmentID, Phase: "URS", Seq: 0, Status: "Passed"},
		{EquipmentID: eq.EquipmentID, Phase: "DQ", Seq: 1, Status: "Pending"},
	})
	if err != nil {
		t.Fatalf("CreatePhases() error = %v", err)
	}
	if _, err := repo.CreatePhases(ctx, []ports.QualificationPhase{
		{EquipmentID: other.EquipmentID, Phase: "URS", Seq: 0, Status: "Pending"},
	}); err != nil {
		t.Fatalf("CreatePhases(other) error = %v", err)
	}
	bd, err := repo.CreateBreakdown(ctx, ports.Breakdown{
		EquipmentID:        eq.EquipmentID,
		Ref:                "BD-9",
		ReportedDate:       "2025-02-01",
		Description:        "sensor drift",
		Status:             "Open",
		RevalidationPhases: []ports.RevalidationPhase{{Phase: "OQ", Status: "Pending"}},
	})
	if err != nil {
		t.Fatalf("CreateBreakdown() error = %v", err)
	}
	rq, err := repo.CreateRequalification(ctx, ports.Requalification{
		EquipmentID: eq.EquipmentID, Ref: "RQ-1", Frequency: "Annual", ToleranceMonths: 1, Status: "Scheduled",
	})
	if err != nil {
		t.Fatalf("CreateRequalification() error = %v", err)
	}
	for i, parent := range []ports.AttachmentParent{
		{QualificationPhaseID: phases[0].PhaseID},
		{RequalificationID: rq.RequalificationID},
		{RevalidationID: bd.RevalidationPhases[0].RevalidationID},
	} {
		if _, err := repo.CreateAttachment(ctx, ports.Attachment{
			Parent: parent, FileName: "a.pdf", MimeType: "application/pdf", Size: 3,
			BlobKey: "blob-" + string(rune('a'+i)), UploadedBy: "qa",
		}); err != nil {
			t.Fatalf("CreateAttachment() error = %v", err)
		}
	}
	if err := repo.AppendAudit(ctx, ports.AuditEntry{EquipmentID: eq.EquipmentID, Action: "Equipment Created", ChangedBy: "System"}); err != nil {
		t.Fatalf("AppendAudit() error = %v", err)
	}

	deleted, keys, err := repo.DeleteEquipment(ctx, eq.EquipmentID)
	if err != nil {
		t.Fatalf("DeleteEquipment() error = %v", err)
	}
	if !deleted || len(keys) != 3 {
		t.Fatalf("DeleteEquipment() deleted=%v keys=%v", deleted, keys)
	}

	for _, table := range []any{&model.Attachment{}, &model.RevalidationPhase{}, &model.Breakdown{}, &model.Requalification{}, &model.AuditLog{}} {
		var count int64
		if err := db.Model(table).Count(&count).Error; err != nil {
			t.Fatalf("count %T: %v", table, err)
		}
		if count != 0 {
			t.Fatalf("%T rows = %d after cascade", table, count)
		}
	}
	remaining, err := repo.ListPhases(ctx, other.EquipmentID)
	if err != nil || len(remaining) != 1 {
		t.Fatalf("other equipment phases = %d, %v", len(remaining), err)
	}

	deleted, _, err = repo.DeleteEquipment(ctx, eq.EquipmentID)
	if err != nil || deleted {
		t.Fatalf("DeleteEquipment(missing) = %v, %v", deleted, err)
	}
}

func TestListAuditNewestFirst(t *testing.T) {
	repo, _ := setupQualificationRepository(t)
	ctx := context.Background()
	eq := seedEquipment(t, repo, "PENDING-5")

	for _, action := range []string{"Equipment Created", "Equipment Updated", "Breakdown Reported"} {
		if err := repo.AppendAudit(ctx, ports.AuditEntry{
			EquipmentID: eq.EquipmentID,
			Action:      action,
			ChangedBy:   "System",
			Changes:     []byte(`{"status":{"from":"Not Started","to":"In Progress"}}`),
		}); err != nil {
			t.Fatalf("AppendAudit() error = %v", err)
		}
	}

	entries, err := repo.ListAudit(ctx, eq.EquipmentID, 2)
	if err != nil {
		t.Fatalf("ListAudit() error = %v", err)
	}
	if len(entries) != 2 || entries[0].Action != "Breakdown Reported" || entries[1].Action != "Equipment Updated" {
		t.Fatalf("ListAudit() = %#v", entries)
	}
	if len(entries[0].Changes) == 0 {
		t.Fatalf("ListAudit() lost changes payload")
	}
}
