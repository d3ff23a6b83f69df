package entity

import "time"

// TimeLayout is the canonical timestamp encoding for extraction records,
// used both in storage and on the wire. It is fixed width, so stored text
// sorts chronologically.
const TimeLayout = "2006-01-02 15:04:05"

// Extraction represents one stored record about a previously processed file.
type Extraction struct {
	ID             int64     `json:"id"`
	Filename       string    `json:"filename"`
	FileSize       *int64    `json:"file_size,omitempty"`
	MIMEType       string    `json:"mime_type"`
	ExtractionDate time.Time `json:"extraction_date"`
	Status         string    `json:"status"`
	Data           Payload   `json:"data,omitzero"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
