package qualification

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	domainqual "qualtrack/internal/domain/qualification"
	"qualtrack/internal/errs"
	"qualtrack/internal/infrastructure/blob"
	"qualtrack/internal/infrastructure/persistence/rdb/model"
	rdbrepo "qualtrack/internal/infrastructure/persistence/rdb/repository"
	rdbuow "qualtrack/internal/infrastructure/persistence/rdb/uow"
	"qualtrack/internal/infrastructure/persistence/schema"
	"qualtrack/internal/ports"
)

type testCache struct {
	data map[string]string
}

func newTestCache() *testCache {
	return &testCache{data: make(map[string]string)}
}

func (c *testCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *testCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *testCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

type testPublisher struct {
	mu      sync.Mutex
	changes []ports.StatusChange
}

func (p *testPublisher) PublishStatusChange(_ context.Context, change ports.StatusChange) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, change)
	return nil
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

type testEnv struct {
	svc       *Service
	db        *gorm.DB
	cache     *testCache
	publisher *testPublisher
	clock     *testClock
}

func setupService(t *testing.T, opts ...Option) *testEnv {
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
	if _, err := schema.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	env := &testEnv{
		db:        db,
		cache:     newTestCache(),
		publisher: &testPublisher{},
		clock:     &testClock{now: time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)},
	}
	base := []Option{
		WithCache(env.cache),
		WithBlobStore(blob.NewDBStore(db)),
		WithStatusPublisher(env.publisher),
		WithClock(env.clock.Now),
	}
	env.svc = NewService(rdbrepo.NewQualificationRepository(db), rdbuow.NewUnitOfWork(db), append(base, opts...)...)
	return env
}

func ptr[T any](v T) *T { return &v }

func createHPLC(t *testing.T, svc *Service) uint64 {
	t.Helper()

	id, err := svc.CreateEquipment(context.Background(), CreateEquipmentInput{
		EquipmentAttributes: EquipmentAttributes{
			Name:       "HPLC-1",
			Type:       "Laboratory",
			Department: "QC",
			Location:   "Lab A",
		},
		Actor: "qa.lead",
	})
	if err != nil {
		t.Fatalf("CreateEquipment() error = %v", err)
	}
	return id
}

func setPhases(t *testing.T, svc *Service, id uint64, status domainqual.PhaseStatus, phases ...domainqual.Phase) EquipmentView {
	t.Helper()

	edits := make([]PhaseEdit, 0, len(phases))
	for _, p := range phases {
		edits = append(edits, PhaseEdit{Phase: string(p), Status: ptr(string(status))})
	}
	view, err := svc.UpdateEquipment(context.Background(), UpdateEquipmentInput{EquipmentID: id, PhaseEdits: edits})
	if err != nil {
		t.Fatalf("UpdateEquipment(%v -> %s) error = %v", phases, status, err)
	}
	return view
}

func countRows(t *testing.T, db *gorm.DB, table any, where string, args ...any) int64 {
	t.Helper()

	var n int64
	query := db.Model(table)
	if where != "" {
		query = query.Where(where, args...)
	}
	if err := query.Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

func TestQualificationLifecycleScenario(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	id := createHPLC(t, env.svc)
	created, err := env.svc.GetEquipment(ctx, id)
	if err != nil {
		t.Fatalf("GetEquipment() error = %v", err)
	}
	if created.Status != string(domainqual.StatusNotStarted) {
		t.Fatalf("status = %q, want Not Started", created.Status)
	}
	if len(created.Phases) != len(domainqual.Phases()) {
		t.Fatalf("phase count = %d, want %d", len(created.Phases), len(domainqual.Phases()))
	}
	for i, p := range created.Phases {
		if p.Phase != string(domainqual.Phases()[i]) || p.Status != string(domainqual.PhasePending) {
			t.Fatalf("phase[%d] = %s/%s", i, p.Phase, p.Status)
		}
	}
	if !domainqual.IsPlaceholderTag(created.Tag) {
		t.Fatalf("tag = %q, want placeholder", created.Tag)
	}

	view := setPhases(t, env.svc, id, domainqual.PhasePassed, domainqual.PhaseURS, domainqual.PhaseDQ)
	if view.Status != string(domainqual.StatusInProgress) {
		t.Fatalf("status after DQ = %q, want In Progress", view.Status)
	}
	if view.Tag != "QC-0001" {
		t.Fatalf("tag after DQ = %q, want QC-0001", view.Tag)
	}

	view = setPhases(t, env.svc, id, domainqual.PhasePassed,
		domainqual.PhaseFAT, domainqual.PhaseSAT, domainqual.PhaseIQ, domainqual.PhaseOQ, domainqual.PhasePQ)
	if view.Status != string(domainqual.StatusQualified) {
		t.Fatalf("status after PQ = %q, want Qualified", view.Status)
	}
	if view.Tag != "QC-0001" {
		t.Fatalf("tag changed to %q", view.Tag)
	}

	reported, err := env.svc.ReportBreakdown(ctx, ReportBreakdownInput{
		EquipmentID: id,
		BreakdownAttributes: BreakdownAttributes{
			Ref:              "BD-001",
			ReportedDate:     "2025-01-20",
			Description:      "Pump pressure fluctuation",
			ValidationImpact: string(domainqual.ImpactFull),
		},
		RevalidationPhases: []string{"OQ", "PQ"},
	})
	if err != nil {
		t.Fatalf("ReportBreakdown() error = %v", err)
	}
	if reported.EquipmentStatus != string(domainqual.StatusUnderMaintenance) {
		t.Fatalf("status after breakdown = %q, want Under Maintenance", reported.EquipmentStatus)
	}
	breakdowns, err := env.svc.ListBreakdowns(ctx, id)
	if err != nil {
		t.Fatalf("ListBreakdowns() error = %v", err)
	}
	if len(breakdowns) != 1 || len(breakdowns[0].RevalidationPhases) != 2 {
		t.Fatalf("breakdowns = %#v", breakdowns)
	}
	for _, p := range breakdowns[0].RevalidationPhases {
		if p.Status != string(domainqual.RevalidationPending) {
			t.Fatalf("revalidation %s = %q, want Pending", p.Phase, p.Status)
		}
	}

	closed, err := env.svc.UpdateBreakdown(ctx, UpdateBreakdownInput{
		BreakdownID: reported.BreakdownID,
		Patch:       BreakdownPatch{Status: ptr(string(domainqual.BreakdownClosed))},
	})
	if err != nil {
		t.Fatalf("UpdateBreakdown(close) error = %v", err)
	}
	if closed.EquipmentStatus != string(domainqual.StatusRevalidationRequired) {
		t.Fatalf("status after close = %q, want Revalidation Required", closed.EquipmentStatus)
	}

	edits := make([]RevalidationEdit, 0, 2)
	for _, p := range breakdowns[0].RevalidationPhases {
		edits = append(edits, RevalidationEdit{RevalidationID: p.RevalidationID, Status: ptr(string(domainqual.RevalidationPassed))})
	}
	passed, err := env.svc.UpdateBreakdown(ctx, UpdateBreakdownInput{BreakdownID: reported.BreakdownID, RevalidationEdits: edits})
	if err != nil {
		t.Fatalf("UpdateBreakdown(revalidate) error = %v", err)
	}
	if passed.EquipmentStatus != string(domainqual.StatusQualified) {
		t.Fatalf("status after revalidation = %q, want Qualified", passed.EquipmentStatus)
	}

	if len(env.publisher.changes) == 0 {
		t.Fatalf("expected published status changes")
	}
	last := env.publisher.changes[len(env.publisher.changes)-1]
	if last.To != string(domainqual.StatusQualified) || last.Tag != "QC-0001" {
		t.Fatalf("last published change = %#v", last)
	}
}

func TestCreateEquipmentRequiresIdentification(t *testing.T) {
	env := setupService(t)

	_, err := env.svc.CreateEquipment(context.Background(), CreateEquipmentInput{
		EquipmentAttributes: EquipmentAttributes{Name: "HPLC-1", Type: "Laboratory", Department: "QC"},
	})
	if !errors.Is(err, domainqual.ErrEquipmentFieldsRequired) {
		t.Fatalf("CreateEquipment() error = %v, want ErrEquipmentFieldsRequired", err)
	}
	if !errs.IsValidation(err) {
		t.Fatalf("KindOf() = %v, want validation", errs.KindOf(err))
	}
	if n := countRows(t, env.db, &model.Equipment{}, ""); n != 0 {
		t.Fatalf("equipment rows = %d, want 0", n)
	}
}

func TestCreateEquipmentWithURSDocumentation(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	id, err := env.svc.CreateEquipment(ctx, CreateEquipmentInput{
		EquipmentAttributes: EquipmentAttributes{
			Name:       "Autoclave",
			Type:       "Production",
			Department: "Production",
			Location:   "Block B",
		},
		URS: URSInput{Number: "URS-042", ApprovalDate: "2024-12-01", ApprovedBy: "J. Rao"},
		URSAttachment: &AttachmentFile{
			FileName:   "urs-042.pdf",
			DataBase64: "JVBERi0xLjQK",
		},
	})
	if err != nil {
		t.Fatalf("CreateEquipment() error = %v", err)
	}

	view, err := env.svc.GetEquipmentStatus(ctx, id)
	if err != nil {
		t.Fatalf("GetEquipmentStatus() error = %v", err)
	}
	if view.Status != string(domainqual.StatusNotStarted) {
		t.Fatalf("status = %q, want Not Started", view.Status)
	}
	urs := view.Phases[0]
	if urs.Status != string(domainqual.PhasePassed) || urs.ProtocolNumber != "URS-042" || urs.ApprovedBy != "J. Rao" {
		t.Fatalf("URS phase = %#v", urs)
	}
	if !view.Phases[1].Unlocked || view.Phases[2].Unlocked {
		t.Fatalf("unlock flags = %v/%v, want DQ unlocked and FAT locked", view.Phases[1].Unlocked, view.Phases[2].Unlocked)
	}

	files, err := env.svc.ListAttachments(ctx, ports.AttachmentParent{QualificationPhaseID: urs.PhaseID})
	if err != nil {
		t.Fatalf("ListAttachments() error = %v", err)
	}
	if len(files) != 1 || files[0].MimeType != "application/pdf" || files[0].Size != 9 {
		t.Fatalf("attachments = %#v", files)
	}
}

func TestUpdateEquipmentEnforcesUnlockGate(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	id := createHPLC(t, env.svc)

	_, err := env.svc.UpdateEquipment(ctx, UpdateEquipmentInput{
		EquipmentID: id,
		Patch:       EquipmentPatch{Location: ptr("Lab B")},
		PhaseEdits:  []PhaseEdit{{Phase: "DQ", Status: ptr("Passed")}},
	})
	if !errors.Is(err, domainqual.ErrPhaseLocked) {
		t.Fatalf("UpdateEquipment() error = %v, want ErrPhaseLocked", err)
	}

	view, err := env.svc.GetEquipment(ctx, id)
	if err != nil {
		t.Fatalf("GetEquipment() error = %v", err)
	}
	if view.Location != "Lab A" || view.Phases[1].Status != string(domainqual.PhasePending) {
		t.Fatalf("rejected update leaked: location=%q DQ=%q", view.Location, view.Phases[1].Status)
	}

	setPhases(t, env.svc, id, domainqual.PhaseFailed, domainqual.PhaseURS)
	view = setPhases(t, env.svc, id, domainqual.PhaseInProgress, domainqual.PhaseDQ)
	if view.Status != string(domainqual.StatusFailed) {
		t.Fatalf("status = %q, want Failed while URS failed", view.Status)
	}

	_, err = env.svc.UpdateEquipment(ctx, UpdateEquipmentInput{
		EquipmentID: id,
		PhaseEdits:  []PhaseEdit{{Phase: "URS", Status: ptr("Pending")}},
	})
	if !errors.Is(err, domainqual.ErrPhaseLocked) {
		t.Fatalf("revert to Pending error = %v, want ErrPhaseLocked", err)
	}
}

func TestLockedPhaseRejectsRecordEdits(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	id := createHPLC(t, env.svc)

	_, err := env.svc.UpdateEquipment(ctx, UpdateEquipmentInput{
		EquipmentID: id,
		PhaseEdits: []PhaseEdit{{
			Phase:          "IQ",
			ProtocolNumber: ptr("IQ-001"),
			ApprovedBy:     ptr("QA"),
			Remarks:        ptr("pre-filled"),
		}},
	})
	if !errors.Is(err, domainqual.ErrPhaseLocked) {
		t.Fatalf("locked IQ record edit error = %v, want ErrPhaseLocked", err)
	}
	view, err := env.svc.GetEquipment(ctx, id)
	if err != nil {
		t.Fatalf("GetEquipment() error = %v", err)
	}
	if iq := view.Phases[4]; iq.ProtocolNumber != "" || iq.Remarks != "" {
		t.Fatalf("rejected edit leaked into IQ: %#v", iq)
	}

	// Echoing a locked phase's current values is not a change.
	if _, err := env.svc.UpdateEquipment(ctx, UpdateEquipmentInput{
		EquipmentID: id,
		PhaseEdits: []PhaseEdit{
			{Phase: "URS", Status: ptr("In Progress"), ProtocolNumber: ptr("URS-001")},
			{Phase: "IQ", Status: ptr("Pending")},
		},
	}); err != nil {
		t.Fatalf("UpdateEquipment(echo locked IQ) error = %v", err)
	}

	view, err = env.svc.UpdateEquipment(ctx, UpdateEquipmentInput{
		EquipmentID: id,
		PhaseEdits:  []PhaseEdit{{Phase: "DQ", ProtocolNumber: ptr("DQ-001")}},
	})
	if err != nil {
		t.Fatalf("UpdateEquipment(unlocked DQ record) error = %v", err)
	}
	if view.Phases[1].ProtocolNumber != "DQ-001" {
		t.Fatalf("DQ protocol = %q, want DQ-001", view.Phases[1].ProtocolNumber)
	}
}

func TestUpdateEquipmentNotFound(t *testing.T) {
	env := setupService(t)

	_, err := env.svc.UpdateEquipment(context.Background(), UpdateEquipmentInput{EquipmentID: 404, Patch: EquipmentPatch{Name: ptr("x")}})
	if !errors.Is(err, domainqual.ErrEquipmentNotFound) || !errs.IsNotFound(err) {
		t.Fatalf("UpdateEquipment() error = %v, want not found", err)
	}
}

func TestUpdateEquipmentFallbackOnlyWhileAllPending(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	id := createHPLC(t, env.svc)

	view, err := env.svc.UpdateEquipment(ctx, UpdateEquipmentInput{EquipmentID: id, FallbackStatus: "Qualified"})
	if err != nil {
		t.Fatalf("UpdateEquipment() error = %v", err)
	}
	if view.Status != string(domainqual.StatusQualified) {
		t.Fatalf("status = %q, want fallback Qualified", view.Status)
	}

	view, err = env.svc.UpdateEquipment(ctx, UpdateEquipmentInput{
		EquipmentID:    id,
		FallbackStatus: "Qualified",
		PhaseEdits:     []PhaseEdit{{Phase: "URS", Status: ptr("In Progress")}},
	})
	if err != nil {
		t.Fatalf("UpdateEquipment() error = %v", err)
	}
	if view.Status != string(domainqual.StatusInProgress) {
		t.Fatalf("status = %q, want derived In Progress", view.Status)
	}
}

func TestEquipmentTagAssignment(t *testing.T) {
	env := setupService(t, WithTagScheme(domainqual.TagScheme{Width: 3, Prefixes: map[string]string{"QC": "LAB"}}))
	ctx := context.Background()
	first := createHPLC(t, env.svc)
	second := createHPLC(t, env.svc)

	_, err := env.svc.UpdateEquipment(ctx, UpdateEquipmentInput{EquipmentID: first, Tag: "HPLC-QC-01"})
	if !errors.Is(err, domainqual.ErrTagBeforeDQ) {
		t.Fatalf("tag before DQ error = %v, want ErrTagBeforeDQ", err)
	}

	view, err := env.svc.UpdateEquipment(ctx, UpdateEquipmentInput{
		EquipmentID: first,
		Tag:         "hplc-qc-01",
		PhaseEdits: []PhaseEdit{
			{Phase: "URS", Status: ptr("Passed")},
			{Phase: "DQ", Status: ptr("Passed")},
		},
	})
	if err != nil {
		t.Fatalf("UpdateEquipment() error = %v", err)
	}
	if view.Tag != "HPLC-QC-01" {
		t.Fatalf("tag = %q, want HPLC-QC-01", view.Tag)
	}

	_, err = env.svc.UpdateEquipment(ctx, UpdateEquipmentInput{EquipmentID: first, Tag: "OTHER-1"})
	if !errors.Is(err, domainqual.ErrTagAlreadyAssigned) {
		t.Fatalf("retag error = %v, want ErrTagAlreadyAssigned", err)
	}

	_, err = env.svc.UpdateEquipment(ctx, UpdateEquipmentInput{
		EquipmentID: second,
		Tag:         "HPLC-QC-01",
		PhaseEdits: []PhaseEdit{
			{Phase: "URS", Status: ptr("Passed")},
			{Phase: "DQ", Status: ptr("Passed")},
		},
	})
	if !errors.Is(err, domainqual.ErrTagInUse) {
		t.Fatalf("duplicate tag error = %v, want ErrTagInUse", err)
	}

	view = setPhases(t, env.svc, second, domainqual.PhasePassed, domainqual.PhaseURS, domainqual.PhaseDQ)
	if view.Tag != "LAB-001" {
		t.Fatalf("generated tag = %q, want LAB-001", view.Tag)
	}
}

func TestDeleteEquipmentCascades(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	id := createHPLC(t, env.svc)
	view := setPhases(t, env.svc, id, domainqual.PhasePassed, domainqual.Phases()...)

	if _, err := env.svc.UploadAttachment(ctx, UploadAttachmentInput{
		Parent:         ports.AttachmentParent{QualificationPhaseID: view.Phases[4].PhaseID},
		AttachmentFile: AttachmentFile{FileName: "iq.txt", DataBase64: "aXEgcHJvdG9jb2w="},
	}); err != nil {
		t.Fatalf("UploadAttachment() error = %v", err)
	}
	bd, err := env.svc.ReportBreakdown(ctx, ReportBreakdownInput{
		EquipmentID:         id,
		BreakdownAttributes: BreakdownAttributes{Ref: "BD-9", ReportedDate: "2025-01-16", Description: "Leak", ValidationImpact: string(domainqual.ImpactPartial)},
		RevalidationPhases:  []string{"IQ"},
	})
	if err != nil {
		t.Fatalf("ReportBreakdown() error = %v", err)
	}
	breakdown, err := env.svc.ListBreakdowns(ctx, id)
	if err != nil {
		t.Fatalf("ListBreakdowns() error = %v", err)
	}
	if _, err := env.svc.UploadAttachment(ctx, UploadAttachmentInput{
		Parent:         ports.AttachmentParent{RevalidationID: breakdown[0].RevalidationPhases[0].RevalidationID},
		AttachmentFile: AttachmentFile{FileName: "reval.txt", DataBase64: "b2s="},
	}); err != nil {
		t.Fatalf("UploadAttachment(reval) error = %v", err)
	}
	if _, err := env.svc.ScheduleRequalification(ctx, ScheduleRequalificationInput{
		EquipmentID:               id,
		RequalificationAttributes: RequalificationAttributes{Ref: "RQ-1", ScheduledDate: "2026-01-15"},
	}); err != nil {
		t.Fatalf("ScheduleRequalification() error = %v", err)
	}

	deleted, err := env.svc.DeleteEquipment(ctx, id)
	if err != nil || !deleted {
		t.Fatalf("DeleteEquipment() = %v, %v", deleted, err)
	}

	for name, table := range map[string]any{
		"equipment":           &model.Equipment{},
		"phases":              &model.QualificationPhase{},
		"breakdowns":          &model.Breakdown{},
		"revalidation phases": &model.RevalidationPhase{},
		"requalifications":    &model.Requalification{},
		"attachments":         &model.Attachment{},
		"attachment blobs":    &model.AttachmentBlob{},
		"audit log":           &model.AuditLog{},
	} {
		if n := countRows(t, env.db, table, ""); n != 0 {
			t.Fatalf("%s rows = %d after cascade (breakdown %d)", name, n, bd.BreakdownID)
		}
	}

	deleted, err = env.svc.DeleteEquipment(ctx, id)
	if err != nil || deleted {
		t.Fatalf("second DeleteEquipment() = %v, %v, want no-op", deleted, err)
	}
}

func TestAuditTrailOneEntryPerOperation(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	id := createHPLC(t, env.svc)

	setPhases(t, env.svc, id, domainqual.PhasePassed, domainqual.PhaseURS)
	setPhases(t, env.svc, id, domainqual.PhaseInProgress, domainqual.PhaseDQ)
	bd, err := env.svc.ReportBreakdown(ctx, ReportBreakdownInput{
		EquipmentID:         id,
		BreakdownAttributes: BreakdownAttributes{Ref: "BD-1", ReportedDate: "2025-01-15", Description: "Noise"},
	})
	if err != nil {
		t.Fatalf("ReportBreakdown() error = %v", err)
	}
	before, err := env.svc.ListAuditLog(ctx, id, 0)
	if err != nil {
		t.Fatalf("ListAuditLog() error = %v", err)
	}
	if len(before) != 4 {
		t.Fatalf("audit entries = %d, want 4", len(before))
	}
	if before[0].Action != "Breakdown Reported" || before[len(before)-1].Action != "Equipment Created" {
		t.Fatalf("audit order = %q ... %q", before[0].Action, before[len(before)-1].Action)
	}
	if !strings.Contains(before[0].Changes, `"to":"Under Maintenance"`) {
		t.Fatalf("changes = %s", before[0].Changes)
	}
	if before[len(before)-1].ChangedBy != "qa.lead" || before[0].ChangedBy != defaultActor {
		t.Fatalf("actors = %q / %q", before[len(before)-1].ChangedBy, before[0].ChangedBy)
	}

	if _, err := env.svc.DeleteBreakdown(ctx, bd.BreakdownID, "qa.lead"); err != nil {
		t.Fatalf("DeleteBreakdown() error = %v", err)
	}
	after, err := env.svc.ListAuditLog(ctx, id, 0)
	if err != nil {
		t.Fatalf("ListAuditLog() error = %v", err)
	}
	if len(after) != 5 {
		t.Fatalf("audit entries = %d, want 5", len(after))
	}
	for i := range before {
		if after[i+1] != before[i] {
			t.Fatalf("audit entry %d changed: %#v -> %#v", i, before[i], after[i+1])
		}
	}

	limited, err := env.svc.ListAuditLog(ctx, id, 2)
	if err != nil {
		t.Fatalf("ListAuditLog(limit) error = %v", err)
	}
	if len(limited) != 2 || limited[0].AuditID != after[0].AuditID {
		t.Fatalf("limited audit = %#v", limited)
	}
}

func TestSummaryIsCachedUntilMutation(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	createHPLC(t, env.svc)

	summary, err := env.svc.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.Total != 1 || summary.NotStarted != 1 {
		t.Fatalf("summary = %#v", summary)
	}
	if _, ok := env.cache.data[summaryCacheKey]; !ok {
		t.Fatalf("summary was not cached")
	}

	env.cache.data[summaryCacheKey] = `{"total":99}`
	cached, err := env.svc.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if cached.Total != 99 {
		t.Fatalf("cached total = %d, want 99", cached.Total)
	}

	createHPLC(t, env.svc)
	fresh, err := env.svc.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if fresh.Total != 2 || fresh.NotStarted != 2 {
		t.Fatalf("summary after mutation = %#v", fresh)
	}
}

func TestServiceRequiresContext(t *testing.T) {
	env := setupService(t)

	//nolint:staticcheck
	if _, err := env.svc.GetEquipment(nil, 1); err == nil {
		t.Fatalf("GetEquipment(nil ctx) should fail")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := env.svc.CreateEquipment(ctx, CreateEquipmentInput{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("CreateEquipment(cancelled) error = %v", err)
	}
}
