package kvstate

import (
	"github.com/umbracle/fastrlp"

	"github.com/umbracle/minievm/state"
	"github.com/umbracle/minievm/types"
)

// State is a flat account store over a key-value storage. The
// merkleized trie lives outside this module; accounts and slots are
// addressed directly.
type State struct {
	storage Storage
}

// NewState creates a state over the given storage
func NewState(storage Storage) *State {
	return &State{storage: storage}
}

var arenaPool fastrlp.ArenaPool

// NewSnapshot implements the state interface
func (s *State) NewSnapshot() state.Snapshot {
	return &snapshot{state: s}
}

// Commit implements the state interface, persisting the mutated
// objects of a transaction batch
func (s *State) Commit(objs []*state.Object) (state.Snapshot, error) {
	ar := arenaPool.Get()
	defer arenaPool.Put(ar)

	for _, obj := range objs {
		if obj.Deleted {
			if err := s.storage.Delete(accountKey(obj.Address)); err != nil {
				return nil, err
			}

			continue
		}

		account := state.Account{
			Nonce:    obj.Nonce,
			Balance:  obj.Balance,
			Root:     obj.Root,
			CodeHash: obj.CodeHash.Bytes(),
		}

		ar.Reset()

		data := account.MarshalWith(ar).MarshalTo(nil)
		if err := s.storage.Put(accountKey(obj.Address), data); err != nil {
			return nil, err
		}

		if obj.DirtyCode {
			if err := s.storage.SetCode(obj.CodeHash, obj.Code); err != nil {
				return nil, err
			}
		}

		for _, entry := range obj.Storage {
			if entry.Deleted {
				if err := s.storage.Delete(storageKey(obj.Address, entry.Key)); err != nil {
					return nil, err
				}
			} else {
				if err := s.storage.Put(storageKey(obj.Address, entry.Key), entry.Val.Bytes()); err != nil {
					return nil, err
				}
			}
		}
	}

	return s.NewSnapshot(), nil
}

type snapshot struct {
	state *State
}

func (s *snapshot) GetAccount(addr types.Address) (*state.Account, bool) {
	data, ok, err := s.state.storage.Get(accountKey(addr))
	if err != nil || !ok {
		return nil, false
	}

	var account state.Account
	if err := account.UnmarshalRlp(data); err != nil {
		return nil, false
	}

	return &account, true
}

func (s *snapshot) GetStorage(addr types.Address, key types.Hash) types.Hash {
	data, ok, err := s.state.storage.Get(storageKey(addr, key))
	if err != nil || !ok {
		return types.Hash{}
	}

	return types.BytesToHash(data)
}

func (s *snapshot) GetCode(hash types.Hash) ([]byte, bool) {
	return s.state.storage.GetCode(hash)
}
