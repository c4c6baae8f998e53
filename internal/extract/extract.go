package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"career-gap-backend/internal/shared/storage/object"
)

var (
	ErrEncrypted = errors.New("PDF is encrypted or password-protected")
	ErrEmpty     = errors.New("PDF contains no readable text")
	ErrCorrupt   = errors.New("invalid or corrupted PDF")
)

// encryptionProbeBytes is how much of the file head is scanned for encryption markers.
const encryptionProbeBytes = 1024

var encryptionMarkers = [][]byte{[]byte("/Encrypt"), []byte("/OpenAction")}

// PDFText extracts the plain text of a PDF held in memory.
func PDFText(data []byte) (text string, err error) {
	head := data
	if len(head) > encryptionProbeBytes {
		head = head[:encryptionProbeBytes]
	}
	for _, marker := range encryptionMarkers {
		if bytes.Contains(head, marker) {
			return "", ErrEncrypted
		}
	}

	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrCorrupt, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	text = strings.TrimSpace(buf.String())
	if text == "" {
		return "", ErrEmpty
	}
	return text, nil
}

// FromStore reads a stored PDF and extracts its text.
func FromStore(ctx context.Context, store object.ObjectStore, storageKey string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	body, err := store.Open(ctx, storageKey)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", storageKey, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", storageKey, err)
	}
	return PDFText(raw)
}
