package persistence

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/pkg/errors"
)

// JSONFileService 每个 key 一个文件
type JSONFileService struct {
	baseDir string
}

func NewJSONFileService(baseDir string) *JSONFileService {
	if baseDir == "" {
		baseDir = "data"
	}
	return &JSONFileService{baseDir: baseDir}
}

func (s *JSONFileService) NewStore(key string) Store {
	return &blobStore{b: s, key: key}
}

func (s *JSONFileService) Close() error { return nil }

var keySanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func (s *JSONFileService) filePath(key string) string {
	safe := keySanitizer.ReplaceAllString(key, "_")
	return filepath.Join(s.baseDir, safe+".json")
}

func (s *JSONFileService) get(key string) ([]byte, error) {
	b, err := os.ReadFile(s.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExists
		}
		return nil, errors.Wrap(err, "read blob")
	}
	return b, nil
}

// put 先写临时文件再 rename，避免半写入
func (s *JSONFileService) put(key string, b []byte) error {
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return errors.Wrap(err, "mkdir")
	}
	path := s.filePath(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return errors.Wrap(err, "write blob")
	}
	return os.Rename(tmp, path)
}
