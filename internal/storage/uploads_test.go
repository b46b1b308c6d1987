package storage

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, maxBytes int64) *Store {
	t.Helper()
	logger := zerolog.Nop()
	s, err := NewStore(t.TempDir(), "http://localhost:8080/", maxBytes, &logger)
	require.NoError(t, err)
	return s
}

func pngDataURL(payload []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)
}

func TestSaveDataURL(t *testing.T) {
	s := newTestStore(t, 0)

	url, err := s.SaveDataURL(pngDataURL([]byte("fake png bytes")), "bk-123")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "http://localhost:8080/uploads/bk-123_"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	name := url[strings.LastIndex(url, "/")+1:]
	data, err := os.ReadFile(filepath.Join(s.Dir(), name))
	require.NoError(t, err)
	assert.Equal(t, []byte("fake png bytes"), data)
}

func TestSaveDataURLSanitizesHint(t *testing.T) {
	s := newTestStore(t, 0)

	url, err := s.SaveDataURL(pngDataURL([]byte("x")), "../../etc/passwd")
	require.NoError(t, err)
	assert.NotContains(t, url, "..")
	assert.NotContains(t, url[strings.LastIndex(url, "/")+1:], "/")
}

func TestSaveDataURLRejectsBadInput(t *testing.T) {
	s := newTestStore(t, 0)

	_, err := s.SaveDataURL("http://example.com/img.png", "bk")
	assert.Error(t, err)

	_, err = s.SaveDataURL("data:image/png;base64", "bk")
	assert.Error(t, err)

	_, err = s.SaveDataURL("data:application/pdf;base64,eHg=", "bk")
	assert.Error(t, err)

	_, err = s.SaveDataURL("data:image/png;base64,!!!not-base64!!!", "bk")
	assert.Error(t, err)
}

func TestSaveDataURLEnforcesSizeLimit(t *testing.T) {
	s := newTestStore(t, 8)

	_, err := s.SaveDataURL(pngDataURL([]byte("way more than eight bytes")), "bk")
	assert.Error(t, err)

	_, err = s.SaveDataURL(pngDataURL([]byte("tiny")), "bk")
	assert.NoError(t, err)
}
