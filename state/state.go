package state

import (
	"math/big"

	"github.com/umbracle/fastrlp"

	"github.com/umbracle/minievm/types"
)

// State is the backing account store. The interpreter never touches it
// directly, all access goes through the Txn working cache.
type State interface {
	NewSnapshot() Snapshot
	Commit(objs []*Object) (Snapshot, error)
}

// Snapshot is a read-only view of the state at some root
type Snapshot interface {
	GetAccount(addr types.Address) (*Account, bool)
	GetStorage(addr types.Address, key types.Hash) types.Hash
	GetCode(hash types.Hash) ([]byte, bool)
}

// Account is the account reference in the state
type Account struct {
	Nonce    uint64
	Balance  *big.Int
	Root     types.Hash
	CodeHash []byte
}

func (a *Account) Copy() *Account {
	aa := new(Account)

	aa.Balance = big.NewInt(0).SetBytes(a.Balance.Bytes())
	aa.Nonce = a.Nonce
	aa.CodeHash = a.CodeHash
	aa.Root = a.Root

	return aa
}

// MarshalWith encodes the account with the given arena
func (a *Account) MarshalWith(ar *fastrlp.Arena) *fastrlp.Value {
	v := ar.NewArray()
	v.Set(ar.NewUint(a.Nonce))
	v.Set(ar.NewBigInt(a.Balance))
	v.Set(ar.NewBytes(a.Root.Bytes()))
	v.Set(ar.NewCopyBytes(a.CodeHash))

	return v
}

// UnmarshalRlp decodes an rlp-encoded account
func (a *Account) UnmarshalRlp(b []byte) error {
	var p fastrlp.Parser

	v, err := p.Parse(b)
	if err != nil {
		return err
	}

	elems, err := v.GetElems()
	if err != nil {
		return err
	}

	if a.Nonce, err = elems[0].GetUint64(); err != nil {
		return err
	}

	a.Balance = new(big.Int)
	if err = elems[1].GetBigInt(a.Balance); err != nil {
		return err
	}

	if err = elems[2].GetHash(a.Root[:]); err != nil {
		return err
	}

	if a.CodeHash, err = elems[3].GetBytes(a.CodeHash[:0]); err != nil {
		return err
	}

	return nil
}

// StorageObject is one dirty storage slot of a committed object
type StorageObject struct {
	Key     types.Hash
	Val     types.Hash
	Deleted bool
}

// Object is the committed representation of a mutated account
type Object struct {
	Address   types.Address
	Nonce     uint64
	Balance   *big.Int
	Root      types.Hash
	CodeHash  types.Hash
	DirtyCode bool
	Code      []byte
	Deleted   bool

	Storage []*StorageObject
}

// Selfdestruct is one entry of the transaction selfdestruct set
type Selfdestruct struct {
	Address     types.Address
	Beneficiary types.Address
}
