package state

import (
	"bytes"
	"math/big"

	iradix "github.com/hashicorp/go-immutable-radix"

	"github.com/umbracle/minievm/crypto"
	"github.com/umbracle/minievm/state/runtime"
	"github.com/umbracle/minievm/types"
)

var emptyCodeHash = crypto.Keccak256(nil)

var emptyStateHash = types.StringToHash("0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

// sentinel keys of the radix tree; addresses are 20 bytes so the
// 32-byte keys cannot collide with account entries
var (
	// logIndex is the index of the logs
	logIndex = types.BytesToHash([]byte{2}).Bytes()

	// refundIndex is the index of the refund counter
	refundIndex = types.BytesToHash([]byte{3}).Bytes()

	// suicidesIndex is the index of the selfdestruct set
	suicidesIndex = types.BytesToHash([]byte{4}).Bytes()
)

// Txn is the transaction-scoped working cache over a state snapshot.
// All reads fall through to the snapshot, all writes stage in an
// immutable radix tree whose snapshots give O(1) checkpoint/revert for
// nested frames.
type Txn struct {
	snapshot  Snapshot
	snapshots []*iradix.Tree
	txn       *iradix.Txn
}

// NewTxn creates a new working cache over the given snapshot
func NewTxn(snapshot Snapshot) *Txn {
	i := iradix.New()

	return &Txn{
		snapshot:  snapshot,
		snapshots: []*iradix.Tree{},
		txn:       i.Txn(),
	}
}

// Snapshot takes a checkpoint at this point in time
func (txn *Txn) Snapshot() int {
	t := txn.txn.CommitOnly()

	id := len(txn.snapshots)
	txn.snapshots = append(txn.snapshots, t)

	return id
}

// RevertToSnapshot reverts to a given checkpoint
func (txn *Txn) RevertToSnapshot(id int) {
	if id > len(txn.snapshots) {
		panic("BUG: snapshot out of range")
	}

	tree := txn.snapshots[id]
	txn.txn = tree.Txn()
}

// stateObject is the in-cache representation of the account
type stateObject struct {
	account   *Account
	code      []byte
	suicide   bool
	deleted   bool
	dirtyCode bool

	// txn overlays the dirty storage slots; a nil value marks a
	// deleted slot
	txn *iradix.Txn
}

func (s *stateObject) Empty() bool {
	return s.account.Nonce == 0 && s.account.Balance.Sign() == 0 && bytes.Equal(s.account.CodeHash, emptyCodeHash)
}

// Copy makes a copy of the state object
func (s *stateObject) Copy() *stateObject {
	ss := new(stateObject)

	ss.account = s.account.Copy()

	if s.txn != nil {
		ss.txn = s.txn.CommitOnly().Txn()
	}

	ss.suicide = s.suicide
	ss.deleted = s.deleted
	ss.dirtyCode = s.dirtyCode
	ss.code = s.code

	return ss
}

func newStateObject() *stateObject {
	return &stateObject{
		account: &Account{
			Balance:  big.NewInt(0),
			CodeHash: emptyCodeHash,
			Root:     emptyStateHash,
		},
	}
}

func (txn *Txn) getStateObject(addr types.Address) (*stateObject, bool) {
	val, exists := txn.txn.Get(addr.Bytes())
	if exists {
		obj, ok := val.(*stateObject)
		if !ok {
			return nil, false
		}

		if obj.deleted {
			return nil, false
		}

		return obj.Copy(), true
	}

	account, ok := txn.snapshot.GetAccount(addr)
	if !ok {
		return nil, false
	}

	obj := &stateObject{
		account: account.Copy(),
	}

	return obj, true
}

func (txn *Txn) upsertAccount(addr types.Address, create bool, f func(object *stateObject)) {
	object, exists := txn.getStateObject(addr)
	if !exists && create {
		object = newStateObject()
	}

	// run the callback to modify the account
	f(object)

	if object != nil {
		txn.txn.Insert(addr.Bytes(), object)
	}
}

// GetAccount returns an account
func (txn *Txn) GetAccount(addr types.Address) (*Account, bool) {
	object, exists := txn.getStateObject(addr)
	if !exists {
		return nil, false
	}

	return object.account, true
}

// AddBalance adds balance
func (txn *Txn) AddBalance(addr types.Address, balance *big.Int) {
	txn.upsertAccount(addr, true, func(object *stateObject) {
		object.account.Balance.Add(object.account.Balance, balance)
	})
}

// SubBalance reduces the balance
func (txn *Txn) SubBalance(addr types.Address, balance *big.Int) {
	txn.upsertAccount(addr, true, func(object *stateObject) {
		object.account.Balance.Sub(object.account.Balance, balance)
	})
}

// SetBalance sets the balance
func (txn *Txn) SetBalance(addr types.Address, balance *big.Int) {
	txn.upsertAccount(addr, true, func(object *stateObject) {
		object.account.Balance.SetBytes(balance.Bytes())
	})
}

// GetBalance returns the balance of an address
func (txn *Txn) GetBalance(addr types.Address) *big.Int {
	object, exists := txn.getStateObject(addr)
	if !exists {
		return big.NewInt(0)
	}

	return object.account.Balance
}

// AddLog appends a new log to the transaction log set
func (txn *Txn) AddLog(log *types.Log) {
	var logs []*types.Log

	data, exists := txn.txn.Get(logIndex)
	if !exists {
		logs = []*types.Log{}
	} else {
		l, ok := data.([]*types.Log)
		if !ok {
			return
		}

		logs = l
	}

	logs = append(logs, log)
	txn.txn.Insert(logIndex, logs)
}

// Logs returns the logs emitted so far in the transaction
func (txn *Txn) Logs() []*types.Log {
	data, exists := txn.txn.Get(logIndex)
	if !exists {
		return nil
	}

	logs, _ := data.([]*types.Log)

	return logs
}

func isZeros(b []byte) bool {
	for _, i := range b {
		if i != 0x0 {
			return false
		}
	}

	return true
}

// SetStorage writes the value and reports how the zeroness of the
// slot changed, which drives the gas and refund schedule
func (txn *Txn) SetStorage(addr types.Address, key types.Hash, value types.Hash) runtime.StorageStatus {
	oldValue := txn.GetState(addr, key)

	txn.SetState(addr, key, value)

	switch {
	case oldValue == value:
		return runtime.StorageUnchanged
	case oldValue == types.ZeroHash:
		return runtime.StorageAdded
	case value == types.ZeroHash:
		return runtime.StorageDeleted
	default:
		return runtime.StorageModified
	}
}

// SetState stages a storage write; zero values are stored as absent
func (txn *Txn) SetState(addr types.Address, key, value types.Hash) {
	txn.upsertAccount(addr, true, func(object *stateObject) {
		if object.txn == nil {
			object.txn = iradix.New().Txn()
		}

		if isZeros(value.Bytes()) {
			object.txn.Insert(key.Bytes(), nil)
		} else {
			object.txn.Insert(key.Bytes(), value.Bytes())
		}
	})
}

// GetState returns the state of the address at a given key
func (txn *Txn) GetState(addr types.Address, key types.Hash) types.Hash {
	object, exists := txn.getStateObject(addr)
	if !exists {
		return types.Hash{}
	}

	// the dirty overlay goes first
	if object.txn != nil {
		if val, ok := object.txn.Get(key.Bytes()); ok {
			if val == nil {
				return types.Hash{}
			}

			buf, ok := val.([]byte)
			if !ok {
				return types.Hash{}
			}

			return types.BytesToHash(buf)
		}
	}

	return txn.snapshot.GetStorage(addr, key)
}

// Nonce

// SetNonce sets the nonce
func (txn *Txn) SetNonce(addr types.Address, nonce uint64) {
	txn.upsertAccount(addr, true, func(object *stateObject) {
		object.account.Nonce = nonce
	})
}

// IncrNonce increases by one the nonce of the address
func (txn *Txn) IncrNonce(addr types.Address) {
	txn.upsertAccount(addr, true, func(object *stateObject) {
		object.account.Nonce++
	})
}

// GetNonce returns the nonce of an address
func (txn *Txn) GetNonce(addr types.Address) uint64 {
	object, exists := txn.getStateObject(addr)
	if !exists {
		return 0
	}

	return object.account.Nonce
}

// Code

// SetCode sets the code for an address
func (txn *Txn) SetCode(addr types.Address, code []byte) {
	txn.upsertAccount(addr, true, func(object *stateObject) {
		object.account.CodeHash = crypto.Keccak256(code)
		object.dirtyCode = true
		object.code = code
	})
}

func (txn *Txn) GetCode(addr types.Address) []byte {
	object, exists := txn.getStateObject(addr)
	if !exists {
		return nil
	}

	if object.dirtyCode {
		return object.code
	}

	code, _ := txn.snapshot.GetCode(types.BytesToHash(object.account.CodeHash))

	return code
}

func (txn *Txn) GetCodeSize(addr types.Address) int {
	return len(txn.GetCode(addr))
}

func (txn *Txn) GetCodeHash(addr types.Address) types.Hash {
	object, exists := txn.getStateObject(addr)
	if !exists {
		return types.Hash{}
	}

	return types.BytesToHash(object.account.CodeHash)
}

// Suicide marks the given account as suicided and zeroes its balance.
// The selfdestruct set keeps the beneficiary of the first invocation.
func (txn *Txn) Suicide(addr types.Address, beneficiary types.Address) bool {
	var suicided bool

	txn.upsertAccount(addr, false, func(object *stateObject) {
		if object == nil || object.suicide {
			suicided = false
		} else {
			suicided = true
			object.suicide = true
			object.account.Balance = new(big.Int)
		}
	})

	if suicided {
		var suicides []*Selfdestruct

		data, exists := txn.txn.Get(suicidesIndex)
		if exists {
			suicides, _ = data.([]*Selfdestruct)
		}

		suicides = append(suicides, &Selfdestruct{Address: addr, Beneficiary: beneficiary})
		txn.txn.Insert(suicidesIndex, suicides)
	}

	return suicided
}

// HasSuicided returns true if the account is suicided
func (txn *Txn) HasSuicided(addr types.Address) bool {
	object, exists := txn.getStateObject(addr)

	return exists && object.suicide
}

// Selfdestructs returns the selfdestruct set of the transaction
func (txn *Txn) Selfdestructs() []*Selfdestruct {
	data, exists := txn.txn.Get(suicidesIndex)
	if !exists {
		return nil
	}

	suicides, _ := data.([]*Selfdestruct)

	return suicides
}

// Refund

func (txn *Txn) AddRefund(gas uint64) {
	refund := txn.GetRefund() + gas
	txn.txn.Insert(refundIndex, refund)
}

func (txn *Txn) SubRefund(gas uint64) {
	refund := txn.GetRefund() - gas
	txn.txn.Insert(refundIndex, refund)
}

func (txn *Txn) GetRefund() uint64 {
	data, exists := txn.txn.Get(refundIndex)
	if !exists {
		return 0
	}

	refund, _ := data.(uint64)

	return refund
}

func (txn *Txn) Exist(addr types.Address) bool {
	_, exists := txn.getStateObject(addr)

	return exists
}

func (txn *Txn) Empty(addr types.Address) bool {
	obj, exists := txn.getStateObject(addr)
	if !exists {
		return true
	}

	return obj.Empty()
}

// CreateAccount creates a fresh account at the address, keeping any
// balance already there
func (txn *Txn) CreateAccount(addr types.Address) {
	obj := newStateObject()

	prev, ok := txn.getStateObject(addr)
	if ok {
		obj.account.Balance.SetBytes(prev.account.Balance.Bytes())
	}

	txn.txn.Insert(addr.Bytes(), obj)
}

// CleanDeleteObjects runs after each transaction: suicided accounts
// (and, with deleteEmptyObjects, empty touched accounts) are marked
// deleted, and the per-transaction counters are cleared
func (txn *Txn) CleanDeleteObjects(deleteEmptyObjects bool) {
	remove := [][]byte{}

	txn.txn.Root().Walk(func(k []byte, v interface{}) bool {
		a, ok := v.(*stateObject)
		if !ok {
			return false
		}

		if a.suicide || a.Empty() && deleteEmptyObjects {
			remove = append(remove, k)
		}

		return false
	})

	for _, k := range remove {
		v, ok := txn.txn.Get(k)
		if !ok {
			continue
		}

		obj, ok := v.(*stateObject)
		if !ok {
			continue
		}

		obj2 := obj.Copy()
		obj2.deleted = true
		txn.txn.Insert(k, obj2)
	}

	// reset the per-transaction counters
	txn.txn.Delete(refundIndex)
	txn.txn.Delete(logIndex)
	txn.txn.Delete(suicidesIndex)
}

// Commit returns the set of mutated objects to apply to the state
func (txn *Txn) Commit(deleteEmptyObjects bool) []*Object {
	txn.CleanDeleteObjects(deleteEmptyObjects)

	x := txn.txn.Commit()

	objs := []*Object{}

	x.Root().Walk(func(k []byte, v interface{}) bool {
		a, ok := v.(*stateObject)
		if !ok {
			// logs and other sentinel entries
			return false
		}

		obj := &Object{
			Nonce:     a.account.Nonce,
			Address:   types.BytesToAddress(k),
			Balance:   a.account.Balance,
			Root:      a.account.Root,
			CodeHash:  types.BytesToHash(a.account.CodeHash),
			DirtyCode: a.dirtyCode,
			Code:      a.code,
		}

		if a.deleted {
			obj.Deleted = true
		} else if a.txn != nil {
			a.txn.Root().Walk(func(k []byte, v interface{}) bool {
				store := &StorageObject{Key: types.BytesToHash(k)}

				if v == nil {
					store.Deleted = true
				} else {
					val, ok := v.([]byte)
					if !ok {
						return false
					}

					store.Val = types.BytesToHash(val)
				}

				obj.Storage = append(obj.Storage, store)

				return false
			})
		}

		objs = append(objs, obj)

		return false
	})

	return objs
}
