package model

// All lists every table model in migration order.
func All() []any {
	return []any{
		&Equipment{},
		&TagSequence{},
		&QualificationPhase{},
		&Breakdown{},
		&RevalidationPhase{},
		&Requalification{},
		&Attachment{},
		&AttachmentBlob{},
		&AuditLog{},
		&CacheEntry{},
	}
}
