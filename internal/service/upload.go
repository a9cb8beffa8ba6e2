package service

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"invoiceocr/internal/domain"
)

// sniffLen is how many leading bytes are inspected for content detection.
const sniffLen = 3072

// DetectFileType validates an upload by extension, size and content and
// returns its file type. The sniffed content type must agree with the
// extension. The reader is rewound to the start.
func DetectFileType(fileName string, size, maxBytes int64, r io.ReadSeeker) (domain.FileType, error) {
	// Validate file extension
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	fileType, ok := domain.AllowedExtensions[ext]
	if !ok {
		return "", domain.ErrUnsupportedFileType
	}

	// Validate file size
	if maxBytes > 0 && size > maxBytes {
		return "", domain.ErrFileTooLarge
	}

	// Read the head for magic-byte content type detection
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("reading file header: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewinding file: %w", err)
	}
	if n == 0 {
		return "", domain.ErrUnsupportedFileType
	}

	detected := mimetype.Detect(buf[:n])
	if !detected.Is(domain.AllowedFileTypes[fileType]) {
		return "", fmt.Errorf("%w: content is %s, extension says %s", domain.ErrUnsupportedFileType, detected.String(), ext)
	}
	return fileType, nil
}
