package constants

// DefaultMIMEType is assumed when a create request omits the mime_type field.
const DefaultMIMEType = "application/pdf"

// Attachment names for the export downloads.
const (
	CSVExportFilename  = "extractions.csv"
	XLSXExportFilename = "extractions.xlsx"
)
