// Package blob stores uploaded resumes and hands back a retrievable URL.
package blob

import (
	"context"
	"mime"
	"strings"

	"github.com/google/uuid"
)

// Store persists bytes and returns a URL where they can be retrieved.
type Store interface {
	Store(ctx context.Context, data []byte, contentType string) (string, error)
}

// newKey returns a random object key with an extension matching contentType.
func newKey(prefix, contentType string) string {
	return applyPrefix(prefix, uuid.NewString()+extensionFor(contentType))
}

func extensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}

	switch mediaType {
	case "application/pdf":
		return ".pdf"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return ".docx"
	case "application/msword":
		return ".doc"
	case "text/plain":
		return ".txt"
	}

	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

func applyPrefix(prefix, key string) string {
	cleanPrefix := strings.Trim(strings.TrimSpace(prefix), "/")
	cleanKey := strings.TrimLeft(key, "/")
	if cleanPrefix == "" {
		return cleanKey
	}
	return cleanPrefix + "/" + cleanKey
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
