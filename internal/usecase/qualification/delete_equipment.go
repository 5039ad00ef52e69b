package qualification

import (
	"context"
	"log/slog"

	"qualtrack/internal/bootstrap/logging"
)

// DeleteEquipment cascades through every child row and its attachment blobs. Unknown ids
// succeed without doing anything.
func (s *Service) DeleteEquipment(ctx context.Context, equipmentID uint64) (bool, error) {
	if err := s.checkReady(ctx); err != nil {
		return false, err
	}

	var deleted bool
	var blobKeys []string
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		deleted, blobKeys, err = s.repo.DeleteEquipment(txCtx, equipmentID)
		if err != nil || !deleted {
			return err
		}
		return s.deleteBlobsTx(txCtx, blobKeys)
	}); err != nil {
		return false, err
	}

	if deleted {
		logging.Info(
			logging.WithAttrs(ctx, slog.String("component", "qualification")),
			"equipment deleted",
			slog.Uint64("equipment_id", equipmentID),
			slog.Int("attachments", len(blobKeys)),
		)
		s.afterCommit(ctx, nil)
	}
	return deleted, nil
}
