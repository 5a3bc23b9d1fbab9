package upload

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, filename, content string) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	_, fh, err := req.FormFile("image")
	require.NoError(t, err)
	return fh
}

func newTestSaver(t *testing.T) *Saver {
	t.Helper()
	return NewSaver(t.TempDir(), []string{"png", "jpg", "jpeg", "webp"})
}

func TestSave_DisallowedExtension(t *testing.T) {
	s := newTestSaver(t)

	name, err := s.Save(fileHeader(t, "a.exe", "MZ"))
	require.NoError(t, err)
	require.Empty(t, name)

	entries, err := os.ReadDir(s.Dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSave_NoExtension(t *testing.T) {
	s := newTestSaver(t)

	name, err := s.Save(fileHeader(t, "noext", "data"))
	require.NoError(t, err)
	require.Empty(t, name)
}

func TestSave_NilHeader(t *testing.T) {
	s := newTestSaver(t)

	name, err := s.Save(nil)
	require.NoError(t, err)
	require.Empty(t, name)
}

func TestSave_GeneratesNameAndLowercasesExtension(t *testing.T) {
	s := newTestSaver(t)

	name, err := s.Save(fileHeader(t, "a.PNG", "pngdata"))
	require.NoError(t, err)
	require.NotEmpty(t, name)
	require.True(t, strings.HasSuffix(name, ".png"), "got %q", name)
	require.NotEqual(t, "a.PNG", name)
	require.NotEqual(t, "a.png", name)

	data, err := os.ReadFile(filepath.Join(s.Dir, name))
	require.NoError(t, err)
	require.Equal(t, "pngdata", string(data))
}

func TestSave_UniqueNames(t *testing.T) {
	s := newTestSaver(t)

	first, err := s.Save(fileHeader(t, "car.jpg", "one"))
	require.NoError(t, err)
	second, err := s.Save(fileHeader(t, "car.jpg", "two"))
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestSave_StripsPathComponents(t *testing.T) {
	s := newTestSaver(t)

	name, err := s.Save(fileHeader(t, "../../etc/passwd.png", "x"))
	require.NoError(t, err)
	require.NotEmpty(t, name)
	require.NotContains(t, name, "/")
	require.NotContains(t, name, "..")

	// The file must land inside the upload dir, nowhere else.
	_, err = os.Stat(filepath.Join(s.Dir, name))
	require.NoError(t, err)
}
