package registration

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/devnest/devnest/core"
)

const (
	defaultMimeType    = "application/octet-stream"
	dataURIMarker      = "base64,"
	invalidEncodingMsg = "Invalid payment proof encoding"
)

// Upload is the outcome of persisting a payment proof. Both fields are null when nothing was sent.
type Upload struct {
	StoredPath null.String
	MimeType   null.String
}

// Uploader writes payment proofs of one event to disk.
type Uploader struct {
	root string // stored paths are relative to root
	dir  string

	nowFunc func() time.Time
	newID   func() string
}

// NewUploader stores files under dir, resolved against root when relative.
func NewUploader(root, dir string) *Uploader {
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return &Uploader{
		root:    root,
		dir:     dir,
		nowFunc: time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

func (u *Uploader) Dir() string { return u.dir }

// Persist decodes a base64 payload, optionally prefixed by a data URI header, and writes it
// under a generated unique name.
func (u *Uploader) Persist(payload, originalName, mimeType string) (Upload, error) {
	if payload == "" {
		return Upload{}, nil
	}

	if i := strings.Index(payload, dataURIMarker); i >= 0 {
		payload = payload[i+len(dataURIMarker):]
	}
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return Upload{}, core.NewInvalidEncodingError(invalidEncodingMsg)
	}
	data, err := decodeBase64(payload)
	if err != nil {
		return Upload{}, core.NewInvalidEncodingError(invalidEncodingMsg)
	}

	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return Upload{}, core.NewPersistenceError("creating upload directory", err)
	}
	name := fmt.Sprintf("%d-%s%s", u.nowFunc().UnixNano()/int64(time.Millisecond), u.newID(), GuessExtension(mimeType, originalName))
	fp := filepath.Join(u.dir, name)
	if err := os.WriteFile(fp, data, 0o644); err != nil {
		return Upload{}, core.NewPersistenceError("writing payment proof", err)
	}

	stored := fp
	if rel, err := filepath.Rel(u.root, fp); err == nil {
		stored = rel
	}
	if mimeType == "" {
		mimeType = defaultMimeType
	}
	return Upload{
		StoredPath: null.StringFrom(filepath.ToSlash(stored)),
		MimeType:   null.StringFrom(mimeType),
	}, nil
}

// GuessExtension prefers the MIME subtype, then the original file's extension, then ".bin".
func GuessExtension(mimeType, originalName string) string {
	if parts := strings.SplitN(mimeType, "/", 2); len(parts) == 2 && parts[1] != "" {
		switch subtype := parts[1]; subtype {
		case "jpeg":
			return ".jpg"
		case "svg+xml":
			return ".svg"
		default:
			return "." + subtype
		}
	}
	if ext := filepath.Ext(originalName); ext != "" && ext != "." {
		return ext
	}
	return ".bin"
}

func decodeBase64(s string) ([]byte, error) {
	s = core.StripSpace(s)
	data, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}
	// browsers occasionally drop padding
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
