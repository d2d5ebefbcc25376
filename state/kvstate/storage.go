package kvstate

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/umbracle/minievm/types"
)

var (
	// codePrefix is the database prefix for contract code
	codePrefix = []byte("code")

	// accountPrefix is the database prefix for account entries
	accountPrefix = []byte("account")

	// storagePrefix is the database prefix for storage slots
	storagePrefix = []byte("storage")
)

// Storage is the key-value backend behind the state
type Storage interface {
	Put(k, v []byte) error
	Get(k []byte) ([]byte, bool, error)
	Delete(k []byte) error

	SetCode(hash types.Hash, code []byte) error
	GetCode(hash types.Hash) ([]byte, bool)

	Close() error
}

func codeKey(hash types.Hash) []byte {
	return append(append([]byte{}, codePrefix...), hash.Bytes()...)
}

func accountKey(addr types.Address) []byte {
	return append(append([]byte{}, accountPrefix...), addr.Bytes()...)
}

func storageKey(addr types.Address, slot types.Hash) []byte {
	k := append([]byte{}, storagePrefix...)
	k = append(k, addr.Bytes()...)

	return append(k, slot.Bytes()...)
}

// KVStorage is a leveldb-backed storage
type KVStorage struct {
	db *leveldb.DB
}

// NewLevelDBStorage opens (or creates) a leveldb storage at the path
func NewLevelDBStorage(path string, logger hclog.Logger) (Storage, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb storage: %w", err)
	}

	if logger != nil {
		logger.Named("leveldb").Info("state storage open", "path", path)
	}

	return &KVStorage{db: db}, nil
}

func (kv *KVStorage) Put(k, v []byte) error {
	return kv.db.Put(k, v, nil)
}

func (kv *KVStorage) Get(k []byte) ([]byte, bool, error) {
	data, err := kv.db.Get(k, nil)
	if err != nil {
		if err.Error() == "leveldb: not found" {
			return nil, false, nil
		}

		return nil, false, err
	}

	return data, true, nil
}

func (kv *KVStorage) Delete(k []byte) error {
	return kv.db.Delete(k, nil)
}

func (kv *KVStorage) SetCode(hash types.Hash, code []byte) error {
	return kv.Put(codeKey(hash), code)
}

func (kv *KVStorage) GetCode(hash types.Hash) ([]byte, bool) {
	res, ok, err := kv.Get(codeKey(hash))
	if err != nil {
		return nil, false
	}

	return res, ok
}

func (kv *KVStorage) Close() error {
	return kv.db.Close()
}

// memStorage is an in-memory storage for tests and ephemeral chains
type memStorage struct {
	l sync.Mutex

	db   map[string][]byte
	code map[string][]byte
}

// NewMemoryStorage creates an in-memory storage
func NewMemoryStorage() Storage {
	return &memStorage{
		db:   map[string][]byte{},
		code: map[string][]byte{},
	}
}

func (m *memStorage) Put(p, v []byte) error {
	m.l.Lock()
	defer m.l.Unlock()

	buf := make([]byte, len(v))
	copy(buf, v)
	m.db[string(p)] = buf

	return nil
}

func (m *memStorage) Get(p []byte) ([]byte, bool, error) {
	m.l.Lock()
	defer m.l.Unlock()

	v, ok := m.db[string(p)]
	if !ok {
		return nil, false, nil
	}

	return v, true, nil
}

func (m *memStorage) Delete(p []byte) error {
	m.l.Lock()
	defer m.l.Unlock()

	delete(m.db, string(p))

	return nil
}

func (m *memStorage) SetCode(hash types.Hash, code []byte) error {
	m.l.Lock()
	defer m.l.Unlock()

	m.code[hash.String()] = code

	return nil
}

func (m *memStorage) GetCode(hash types.Hash) ([]byte, bool) {
	m.l.Lock()
	defer m.l.Unlock()

	code, ok := m.code[hash.String()]

	return code, ok
}

func (m *memStorage) Close() error {
	return nil
}
