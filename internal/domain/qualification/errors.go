package qualification

import "qualtrack/internal/errs"

var (
	ErrInvalidPhase            = errs.E(errs.KindValidation, "invalid qualification phase")
	ErrInvalidPhaseStatus      = errs.E(errs.KindValidation, "invalid phase status")
	ErrPhaseLocked             = errs.E(errs.KindValidation, "phase is locked")
	ErrInvalidEquipmentStatus  = errs.E(errs.KindValidation, "invalid equipment status")
	ErrEquipmentFieldsRequired = errs.E(errs.KindValidation, "name, type, department and location are required")
	ErrInvalidFrequency        = errs.E(errs.KindValidation, "invalid requalification frequency")
	ErrInvalidTolerance        = errs.E(errs.KindValidation, "tolerance must be between 1 and 3 months")
	ErrInvalidDate             = errs.E(errs.KindValidation, "invalid date, want YYYY-MM-DD")
	ErrInvalidTag              = errs.E(errs.KindValidation, "invalid equipment tag")
	ErrTagBeforeDQ             = errs.E(errs.KindValidation, "equipment tag can only be assigned once DQ has passed")
	ErrTagAlreadyAssigned      = errs.E(errs.KindValidation, "equipment already has a permanent tag")
	ErrTagInUse                = errs.E(errs.KindValidation, "equipment tag already in use")

	ErrBreakdownFieldsRequired   = errs.E(errs.KindValidation, "equipment id, breakdown ref, reported date and description are required")
	ErrInvalidBreakdownType      = errs.E(errs.KindValidation, "invalid breakdown type")
	ErrInvalidSeverity           = errs.E(errs.KindValidation, "invalid severity")
	ErrInvalidValidationImpact   = errs.E(errs.KindValidation, "invalid validation impact")
	ErrInvalidBreakdownStatus    = errs.E(errs.KindValidation, "invalid breakdown status")
	ErrInvalidRevalidationPhase  = errs.E(errs.KindValidation, "revalidation phases must be IQ, OQ or PQ")
	ErrInvalidRevalidationState  = errs.E(errs.KindValidation, "invalid revalidation phase status")
	ErrRevalidationWithoutImpact = errs.E(errs.KindValidation, "revalidation phases require a validation impact")

	ErrBreakdownEquipmentMismatch = errs.E(errs.KindValidation, "breakdown belongs to a different equipment")

	ErrRequalificationFieldsRequired = errs.E(errs.KindValidation, "equipment id and requalification ref are required")
	ErrInvalidRequalificationStatus  = errs.E(errs.KindValidation, "invalid requalification status")

	ErrAttachmentParent   = errs.E(errs.KindValidation, "attachment needs exactly one parent")
	ErrAttachmentRequired = errs.E(errs.KindValidation, "file name and file data are required")
	ErrAttachmentEncoding = errs.E(errs.KindValidation, "file data must be base64")
	ErrAttachmentTooLarge = errs.E(errs.KindPayloadTooLarge, "attachment exceeds size limit")

	ErrEquipmentNotFound       = errs.E(errs.KindNotFound, "equipment not found")
	ErrPhaseNotFound           = errs.E(errs.KindNotFound, "qualification phase not found")
	ErrBreakdownNotFound       = errs.E(errs.KindNotFound, "breakdown not found")
	ErrRevalidationNotFound    = errs.E(errs.KindNotFound, "revalidation phase not found")
	ErrRequalificationNotFound = errs.E(errs.KindNotFound, "requalification not found")
	ErrAttachmentNotFound      = errs.E(errs.KindNotFound, "attachment not found")

	ErrStaleEquipment = errs.E(errs.KindConcurrency, "equipment changed concurrently")
)
