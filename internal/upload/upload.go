package upload

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Saver persists uploaded listing images under Dir. Files whose
// extension is not in AllowedExt are dropped without error.
type Saver struct {
	Dir        string
	AllowedExt map[string]struct{}
}

func NewSaver(dir string, allowedExt []string) *Saver {
	set := make(map[string]struct{}, len(allowedExt))
	for _, e := range allowedExt {
		set[strings.ToLower(strings.TrimPrefix(e, "."))] = struct{}{}
	}
	return &Saver{Dir: dir, AllowedExt: set}
}

// Ext returns the lowercased extension after the last dot, or "".
func Ext(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 || i == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

func (s *Saver) Allowed(filename string) bool {
	ext := Ext(filename)
	if ext == "" {
		return false
	}
	_, ok := s.AllowedExt[ext]
	return ok
}

// Save stores the file under a generated name and returns that name.
// A nil header or a disallowed extension yields ("", nil): uploads
// fail closed, they never fail the surrounding request.
func (s *Saver) Save(fh *multipart.FileHeader) (string, error) {
	if fh == nil || fh.Filename == "" {
		return "", nil
	}

	// Strip any path components a hostile client may have sent.
	safe := filepath.Base(fh.Filename)
	if !s.Allowed(safe) {
		return "", nil
	}

	name := strings.ReplaceAll(uuid.NewString(), "-", "") + "." + Ext(safe)

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	return name, nil
}
