package storage

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var extByMIME = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Store writes payment proof images to local disk and serves them back
// under baseURL/uploads/.
type Store struct {
	dir      string
	baseURL  string
	maxBytes int64
	logger   *zerolog.Logger
}

func NewStore(dir, baseURL string, maxBytes int64, logger *zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Store{
		dir:      dir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
		logger:   logger,
	}, nil
}

// Dir returns the directory files are written to, for serving.
func (s *Store) Dir() string {
	return s.dir
}

// SaveDataURL decodes a base64 data URL and writes it to disk. The hint
// becomes part of the filename so a proof can be traced to its booking.
func (s *Store) SaveDataURL(dataURL, hint string) (string, error) {
	mime, payload, err := splitDataURL(dataURL)
	if err != nil {
		return "", err
	}

	ext, ok := extByMIME[mime]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", mime)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("image exceeds %d bytes", s.maxBytes)
	}

	name := fmt.Sprintf("%s_%s%s", sanitize(hint), uuid.New().String()[:8], ext)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}

	s.logger.Debug().Str("file", name).Int("bytes", len(data)).Msg("payment proof stored")
	return s.baseURL + "/uploads/" + name, nil
}

func splitDataURL(dataURL string) (mime, payload string, err error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return "", "", fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(dataURL[len("data:"):], ",")
	if !ok {
		return "", "", fmt.Errorf("malformed data URL")
	}
	mime, _, _ = strings.Cut(meta, ";")
	if !strings.Contains(meta, "base64") {
		return "", "", fmt.Errorf("data URL is not base64 encoded")
	}
	return mime, payload, nil
}

func sanitize(s string) string {
	if s == "" {
		return "proof"
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
