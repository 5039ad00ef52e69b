package qualification

import (
	"context"
	"errors"
	"strings"

	domainqual "qualtrack/internal/domain/qualification"
	"qualtrack/internal/errs"
)

func checkContext(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	return nil
}

func (s *Service) checkReady(ctx context.Context) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if s.repo == nil {
		return errors.New("qualification repository is required")
	}
	if s.uow == nil {
		return errors.New("qualification unit of work is required")
	}
	return nil
}

func normalizeActor(actor string) string {
	if trimmed := strings.TrimSpace(actor); trimmed != "" {
		return trimmed
	}
	return defaultActor
}

// patchString copies a trimmed *src into *dst and reports whether the value changed.
func patchString(dst *string, src *string) bool {
	if src == nil {
		return false
	}
	next := strings.TrimSpace(*src)
	if next == *dst {
		return false
	}
	*dst = next
	return true
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func appendIf(list []string, ok bool, name string) []string {
	if ok {
		return append(list, name)
	}
	return list
}

// parseOptionalDate normalizes a patched date, keeping nil as "leave untouched".
func parseOptionalDate(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	normalized, err := domainqual.ParseDate(*raw)
	if err != nil {
		return nil, err
	}
	return &normalized, nil
}
