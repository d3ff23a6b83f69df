package constants

// ExtractionStatus is the canonical status for rows in extractions.
type ExtractionStatus string

// Stable values (store these exact strings in DB).
const (
	StatusSuccess ExtractionStatus = "success" // extraction completed
	StatusFailed  ExtractionStatus = "failed"  // terminal failure reported by the extractor
)

// DefaultStatus is applied when a create request omits the status field.
const DefaultStatus = StatusSuccess
