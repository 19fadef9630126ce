// Package archive keeps a copy of every uploaded import file.
package archive

import (
	"context"
	"fmt"
	"strings"
)

// Archiver stores raw upload bytes and returns the URI they were written to.
type Archiver interface {
	Archive(ctx context.Context, companyID int64, sha256Hex string, data []byte) (string, error)
}

// ObjectName is the content-addressed key for an upload.
func ObjectName(companyID int64, sha256Hex string) string {
	return fmt.Sprintf("imports/%d/%s.csv", companyID, sha256Hex)
}

// Nop discards uploads. It is used when no bucket is configured.
type Nop struct{}

func (Nop) Archive(ctx context.Context, companyID int64, sha256Hex string, data []byte) (string, error) {
	return "", nil
}

// SplitURI splits gs://bucket/path/to/object into bucket and object name.
func SplitURI(uri string) (string, string, error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}
