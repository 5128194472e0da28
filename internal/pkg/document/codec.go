// Package document decodes, validates and re-encodes uploaded application
// documents. Only PDF, JPEG and PNG payloads are accepted.
package document

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/uniadmit/admission/internal/pkg/apperrors"
)

// Kind is a sniffed document type.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindJPEG Kind = "jpeg"
	KindPNG  Kind = "png"
)

const maxFilenameLength = 255

var (
	magicPDF  = []byte("%PDF")
	magicJPEG = []byte{0xFF, 0xD8, 0xFF}
	magicPNG  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

	strictBase64 = base64.StdEncoding.Strict()
)

// Limits bounds the accepted payload sizes.
type Limits struct {
	MaxEncodedBytes int
	MaxDecodedBytes int
	MinDecodedBytes int
}

// DefaultLimits returns the 6 MiB / 5 MiB / 100 byte limits.
func DefaultLimits() Limits {
	return Limits{
		MaxEncodedBytes: 6 << 20,
		MaxDecodedBytes: 5 << 20,
		MinDecodedBytes: 100,
	}
}

// Decoded is a validated document ready for storage.
type Decoded struct {
	Data     []byte
	Filename string
	Kind     Kind
}

// Codec validates uploads against a fixed set of limits.
type Codec struct {
	limits Limits
}

func NewCodec(limits Limits) *Codec {
	return &Codec{limits: limits}
}

// Limits returns the limits the codec enforces.
func (c *Codec) Limits() Limits {
	return c.limits
}

// Decode validates a base64 payload, optionally carrying a data URI prefix.
// field names the document slot and is used for messages and for the
// fallback filename.
func (c *Codec) Decode(payload, claimedName, field string) (*Decoded, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, docError(field, apperrors.CodeDocumentMissing, "No file provided")
	}

	if strings.HasPrefix(payload, "data:") {
		idx := strings.IndexByte(payload, ',')
		if idx < 0 {
			return nil, docError(field, apperrors.CodeInvalidEncoding, "Invalid file encoding")
		}
		payload = payload[idx+1:]
	}

	if len(payload) > c.limits.MaxEncodedBytes {
		return nil, c.tooLarge(field)
	}

	data, err := strictBase64.DecodeString(payload)
	if err != nil {
		return nil, docError(field, apperrors.CodeInvalidEncoding, "Invalid file encoding")
	}

	return c.validate(data, claimedName, field)
}

// DecodeMultipart reads an uploaded multipart file and validates it the same
// way as a base64 payload.
func (c *Codec) DecodeMultipart(fh *multipart.FileHeader, field string) (*Decoded, error) {
	if fh == nil {
		return nil, docError(field, apperrors.CodeDocumentMissing, "No file provided")
	}
	if fh.Size > int64(c.limits.MaxDecodedBytes) {
		return nil, c.tooLarge(field)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, docError(field, apperrors.CodeInvalidEncoding, "Unable to read uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, int64(c.limits.MaxDecodedBytes)+1))
	if err != nil {
		return nil, docError(field, apperrors.CodeInvalidEncoding, "Unable to read uploaded file")
	}

	return c.validate(data, fh.Filename, field)
}

func (c *Codec) validate(data []byte, claimedName, field string) (*Decoded, error) {
	if len(data) > c.limits.MaxDecodedBytes {
		return nil, c.tooLarge(field)
	}
	if len(data) < c.limits.MinDecodedBytes {
		return nil, docError(field, apperrors.CodeDocumentTooSmall, "File too small or empty")
	}

	kind, ok := Sniff(data)
	if !ok {
		return nil, docError(field, apperrors.CodeUnsupportedFileType,
			"File type not supported. Only PDF, JPG, and PNG files are allowed")
	}

	return &Decoded{
		Data:     data,
		Filename: SanitizeFilename(claimedName, field),
		Kind:     kind,
	}, nil
}

func (c *Codec) tooLarge(field string) error {
	return docError(field, apperrors.CodeDocumentTooLarge,
		fmt.Sprintf("File too large. Maximum size is %s", humanSize(c.limits.MaxDecodedBytes)))
}

func docError(field, code, reason string) error {
	return apperrors.NewDocumentError(code, fmt.Sprintf("Invalid %s file: %s", field, reason)).
		WithDetails(map[string]interface{}{"field": field})
}

// Sniff identifies a document by its leading magic bytes.
func Sniff(data []byte) (Kind, bool) {
	switch {
	case bytes.HasPrefix(data, magicPDF):
		return KindPDF, true
	case bytes.HasPrefix(data, magicJPEG):
		return KindJPEG, true
	case bytes.HasPrefix(data, magicPNG):
		return KindPNG, true
	default:
		return "", false
	}
}

// SanitizeFilename keeps [A-Za-z0-9._-] and replaces everything else with an
// underscore. Empty or overlong names become "<field>_document".
func SanitizeFilename(name, field string) string {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxFilenameLength {
		name = field + "_document"
	}
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

// Encode returns the canonical base64 form of stored document bytes.
func Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// ContentType detects the MIME type of stored bytes.
func ContentType(data []byte) string {
	if len(data) == 0 {
		return "application/octet-stream"
	}
	return mimetype.Detect(data).String()
}

func humanSize(n int) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	if n >= 1<<10 && n%(1<<10) == 0 {
		return fmt.Sprintf("%dKB", n>>10)
	}
	return fmt.Sprintf("%d bytes", n)
}
