package persistence

import (
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

// BadgerService 基于 Badger 的嵌入式 KV
type BadgerService struct {
	db *badger.DB
}

func NewBadgerService(path string) (*BadgerService, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("persistence: badger path is required")
	}
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, errors.Wrap(err, "open badger")
	}
	return &BadgerService{db: db}, nil
}

func (s *BadgerService) NewStore(key string) Store {
	return &blobStore{b: s, key: key}
}

func (s *BadgerService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BadgerService) get(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotExists
	}
	if err != nil {
		return nil, errors.Wrap(err, "badger get")
	}
	return out, nil
}

func (s *BadgerService) put(key string, b []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), b)
	})
}
