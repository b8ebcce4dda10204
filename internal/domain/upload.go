package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DataURI is a decoded "data:<mime>;base64,<payload>" upload.
type DataURI struct {
	MimeType  string
	SizeBytes int64
}

// ParseDataURI validates an inline upload and reports its decoded size without retaining the bytes.
func ParseDataURI(raw string) (DataURI, error) {
	const prefix = "data:"
	if !strings.HasPrefix(raw, prefix) {
		return DataURI{}, fmt.Errorf("%w: file must be a data URI", ErrInvalidInput)
	}
	meta, payload, ok := strings.Cut(raw[len(prefix):], ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return DataURI{}, fmt.Errorf("%w: file must be base64 encoded", ErrInvalidInput)
	}
	mime := strings.TrimSuffix(meta, ";base64")
	if mime == "" {
		mime = "application/octet-stream"
	}
	n, err := decodedLen(payload)
	if err != nil {
		return DataURI{}, fmt.Errorf("%w: file payload is not valid base64", ErrInvalidInput)
	}
	if n == 0 {
		return DataURI{}, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	return DataURI{MimeType: mime, SizeBytes: n}, nil
}

func decodedLen(payload string) (int64, error) {
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return 0, err
	}
	return int64(len(decoded)), nil
}
