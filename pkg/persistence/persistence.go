package persistence

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/vibedash/vibedash/pkg/logger"
)

// Service 持久化服务接口
type Service interface {
	NewStore(key string) Store
	Close() error
}

// Store 单个命名 blob 的读写
type Store interface {
	Save(data any) error
	Load(data any) error
	SaveRaw(b []byte) error
	LoadRaw() ([]byte, error)
}

// ErrNotExists 表示数据不存在
var ErrNotExists = fmt.Errorf("persistence data not exists")

const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Open 按后端名称打开持久化服务
func Open(backend, path string) (Service, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendFile:
		return NewJSONFileService(path), nil
	case BackendBadger:
		return NewBadgerService(path)
	case BackendSQLite:
		return NewSQLiteService(path)
	default:
		return nil, errors.Errorf("unknown persistence backend %q", backend)
	}
}

// backend 是各实现共享的最小 KV 能力
type backend interface {
	get(key string) ([]byte, error)
	put(key string, b []byte) error
}

type blobStore struct {
	b   backend
	key string
}

func (s *blobStore) SaveRaw(b []byte) error {
	logger.Debugf("[persistence] Save: key=%s bytes=%d", s.key, len(b))
	return s.b.put(s.key, b)
}

func (s *blobStore) LoadRaw() ([]byte, error) {
	logger.Debugf("[persistence] Load: key=%s", s.key)
	b, err := s.b.get(s.key)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, ErrNotExists
	}
	return b, nil
}

// Save 以紧凑 JSON 写入
func (s *blobStore) Save(data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return errors.Wrapf(err, "marshal %s", s.key)
	}
	return s.SaveRaw(b)
}

func (s *blobStore) Load(data any) error {
	b, err := s.LoadRaw()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, data)
}
