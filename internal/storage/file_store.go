package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Upload categories, used as the top-level folder under the base path.
const (
	CategoryLegalDocuments = "legal_documents"
	CategoryImages         = "images"
)

const stampLayout = "20060102_150405"

// StoredFile describes one saved upload.
type StoredFile struct {
	OriginalName string `json:"original_name"`
	Path         string `json:"file_path"`
	Size         int64  `json:"file_size"`
	ContentType  string `json:"content_type,omitempty"`
}

// FileStore saves uploaded files to disk under a base directory.
type FileStore struct {
	basePath string
	now      func() time.Time
}

// NewFileStore creates the base directory if missing.
func NewFileStore(basePath string) (*FileStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("storage base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStore{basePath: basePath, now: time.Now}, nil
}

// BasePath returns the directory uploads are stored under.
func (f *FileStore) BasePath() string {
	return f.basePath
}

// Save copies r into category/<YYYYMMDD_HHMMSS>_<filename>. If that name is
// already taken a short random suffix is added before the extension.
// The returned Path is relative to the base path and uses forward slashes.
func (f *FileStore) Save(category, filename, contentType string, r io.Reader) (*StoredFile, error) {
	targetDir := filepath.Join(f.basePath, category)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s dir: %w", category, err)
	}

	name := f.now().Format(stampLayout) + "_" + safeFilename(filename)
	out, err := os.OpenFile(filepath.Join(targetDir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		ext := filepath.Ext(name)
		name = strings.TrimSuffix(name, ext) + "_" + uuid.NewString()[:8] + ext
		out, err = os.OpenFile(filepath.Join(targetDir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	}
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	size, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(filepath.Join(targetDir, name))
		return nil, fmt.Errorf("write file: %w", err)
	}

	return &StoredFile{
		OriginalName: filename,
		Path:         category + "/" + name,
		Size:         size,
		ContentType:  contentType,
	}, nil
}

// Open opens a previously stored file by its relative path.
func (f *FileStore) Open(relPath string) (*os.File, error) {
	clean := filepath.Clean(filepath.FromSlash(relPath))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(os.PathSeparator)) {
		return nil, fmt.Errorf("invalid stored path %q", relPath)
	}
	return os.Open(filepath.Join(f.basePath, clean))
}

// Delete removes a stored file. Missing files are not an error.
func (f *FileStore) Delete(relPath string) error {
	file, err := f.Open(relPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	name := file.Name()
	_ = file.Close()
	return os.Remove(name)
}

func safeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" || name == ".." {
		return "upload"
	}
	return strings.ReplaceAll(name, " ", "_")
}
