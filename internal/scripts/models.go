package scripts

import "time"

// FileType identifies the source format of an uploaded script.
type FileType string

const (
	FileTypeText     FileType = "txt"
	FileTypeFountain FileType = "fountain"
	FileTypePDF      FileType = "pdf"
)

// Script is one uploaded screenplay document.
type Script struct {
	ID          string
	Title       string
	FileType    FileType
	FileSize    int64
	PageCount   int
	Fingerprint string
	OwnerUserID string
	Content     string
	CreatedAt   time.Time
}
