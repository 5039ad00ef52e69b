package qualification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	domainqual "qualtrack/internal/domain/qualification"
	"qualtrack/internal/errs"
	"qualtrack/internal/ports"
)

type valueDelta struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type phaseDelta struct {
	Phase string `json:"phase"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// auditChanges is stored as the structured "changes" column next to the readable details.
type auditChanges struct {
	Status          *valueDelta  `json:"status,omitempty"`
	Tag             *valueDelta  `json:"tag,omitempty"`
	Fields          []string     `json:"fields,omitempty"`
	Phases          []phaseDelta `json:"phases,omitempty"`
	Breakdown       *valueDelta  `json:"breakdown,omitempty"`
	Revalidation    []phaseDelta `json:"revalidation,omitempty"`
	Requalification *valueDelta  `json:"requalification,omitempty"`
	Attachment      string       `json:"attachment,omitempty"`
}

func statusDelta(change *ports.StatusChange) *valueDelta {
	if change == nil || change.From == change.To {
		return nil
	}
	return &valueDelta{From: change.From, To: change.To}
}

func describeStatus(change *ports.StatusChange) string {
	if change == nil || change.From == change.To {
		return ""
	}
	return fmt.Sprintf("status %s -> %s", change.From, change.To)
}

func appendAuditTx(ctx context.Context, repo ports.AuditRepository, equipmentID uint64, action string, details string, actor string, changes *auditChanges, createdAt string) error {
	var payload []byte
	if changes != nil {
		raw, err := json.Marshal(changes)
		if err != nil {
			return errs.Wrap(err, "marshal audit changes")
		}
		if string(raw) != "{}" {
			payload = raw
		}
	}

	return repo.AppendAudit(ctx, ports.AuditEntry{
		EquipmentID: equipmentID,
		Action:      action,
		Details:     strings.TrimSpace(details),
		ChangedBy:   normalizeActor(actor),
		Changes:     payload,
		CreatedAt:   createdAt,
	})
}

func joinDetails(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "; ")
}

// assignTagTx replaces the placeholder with requested, or with the next tag of the
// department's sequence.
func (s *Service) assignTagTx(ctx context.Context, eq *ports.Equipment, requested string, now string) error {
	tag := requested
	if tag != "" {
		taken, err := s.repo.EquipmentTagTaken(ctx, tag, eq.EquipmentID)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %s", domainqual.ErrTagInUse, tag)
		}
	} else {
		generated, err := s.nextTagTx(ctx, eq)
		if err != nil {
			return err
		}
		tag = generated
	}

	if err := s.repo.SetEquipmentTag(ctx, eq.EquipmentID, tag, now); err != nil {
		return err
	}
	eq.Tag = tag
	return nil
}

// nextTagTx skips sequence values already taken by manually assigned tags.
func (s *Service) nextTagTx(ctx context.Context, eq *ports.Equipment) (string, error) {
	prefix := s.tagScheme.Prefix(eq.Department)
	for attempt := 0; attempt < 100; attempt++ {
		seq, err := s.repo.NextTagSequence(ctx, prefix)
		if err != nil {
			return "", err
		}
		tag := s.tagScheme.Format(prefix, seq)
		taken, err := s.repo.EquipmentTagTaken(ctx, tag, eq.EquipmentID)
		if err != nil {
			return "", err
		}
		if !taken {
			return tag, nil
		}
	}
	return "", errors.New("tag sequence exhausted for prefix " + prefix)
}

func notFound(err error, sentinel error, id uint64) error {
	if errors.Is(err, ports.ErrNotFound) {
		return fmt.Errorf("%w: %d", sentinel, id)
	}
	return err
}
