package scripts

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"slugline/internal/textutil"
)

var pdfMagic = []byte("%PDF-")

// ErrInvalidDocument indicates the upload cannot be ingested as a script.
var ErrInvalidDocument = errors.New("invalid document")

// IngestFile builds a Script from an uploaded document. PDF uploads are
// detected by extension or magic bytes and have their text extracted; all
// other content is treated as text. The content is normalized, fingerprinted,
// and assigned an estimated page count before being returned (not yet saved).
func IngestFile(title, filename string, data []byte, ownerUserID string, wordsPerPage int) (*Script, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("ingest %q: %w: empty upload", filename, ErrInvalidDocument)
	}
	if strings.TrimSpace(ownerUserID) == "" {
		return nil, fmt.Errorf("ingest %q: owner user id required", filename)
	}

	fileType := detectFileType(filename, data)

	var content string
	if fileType == FileTypePDF {
		extracted, err := extractPDFText(data)
		if err != nil {
			return nil, fmt.Errorf("ingest %q: %w: extract pdf text: %v", filename, ErrInvalidDocument, err)
		}
		content = extracted
	} else {
		content = string(data)
	}

	content = textutil.NormalizeText(content)
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("ingest %q: %w: no text content", filename, ErrInvalidDocument)
	}

	if strings.TrimSpace(title) == "" {
		title = inferTitleFromFilename(filename)
	}

	sum := sha256.Sum256([]byte(content))

	return &Script{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(title),
		FileType:    fileType,
		FileSize:    int64(len(data)),
		PageCount:   textutil.EstimatePages(content, wordsPerPage),
		Fingerprint: hex.EncodeToString(sum[:]),
		OwnerUserID: ownerUserID,
		Content:     content,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func detectFileType(filename string, data []byte) FileType {
	if bytes.HasPrefix(data, pdfMagic) {
		return FileTypePDF
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FileTypePDF
	case ".fountain":
		return FileTypeFountain
	default:
		return FileTypeText
	}
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf strings.Builder
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("copy pdf text: %w", err)
	}
	return buf.String(), nil
}

func inferTitleFromFilename(filename string) string {
	base := strings.TrimSpace(filepath.Base(filename))
	if base == "" || base == "." {
		return "Untitled Script"
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	cleaned := strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(base))
	if cleaned == "" {
		return "Untitled Script"
	}
	return cleaned
}
