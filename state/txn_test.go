package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/umbracle/minievm/state/runtime"
	"github.com/umbracle/minievm/types"
)

// mockSnapshot is an empty backing state
type mockSnapshot struct{}

func (m *mockSnapshot) GetAccount(addr types.Address) (*Account, bool) {
	return nil, false
}

func (m *mockSnapshot) GetStorage(addr types.Address, key types.Hash) types.Hash {
	return types.Hash{}
}

func (m *mockSnapshot) GetCode(hash types.Hash) ([]byte, bool) {
	return nil, false
}

func newTestTxn() *Txn {
	return NewTxn(&mockSnapshot{})
}

var (
	addr1 = types.StringToAddress("1")
	addr2 = types.StringToAddress("2")

	hash1 = types.StringToHash("1")
	hash2 = types.StringToHash("2")
)

func TestSnapshotRevert(t *testing.T) {
	txn := newTestTxn()

	txn.SetBalance(addr1, big.NewInt(100))

	s := txn.Snapshot()

	txn.SetBalance(addr1, big.NewInt(300))
	txn.SetNonce(addr1, 5)
	assert.Equal(t, uint64(300), txn.GetBalance(addr1).Uint64())

	txn.RevertToSnapshot(s)

	assert.Equal(t, uint64(100), txn.GetBalance(addr1).Uint64())
	assert.Equal(t, uint64(0), txn.GetNonce(addr1))
}

func TestSnapshotRevertDropsRefundAndLogs(t *testing.T) {
	txn := newTestTxn()

	s := txn.Snapshot()

	txn.AddRefund(15000)
	txn.AddLog(&types.Log{Address: addr1})

	assert.Equal(t, uint64(15000), txn.GetRefund())
	assert.Len(t, txn.Logs(), 1)

	txn.RevertToSnapshot(s)

	assert.Equal(t, uint64(0), txn.GetRefund())
	assert.Len(t, txn.Logs(), 0)
}

func TestSetStorageStatus(t *testing.T) {
	txn := newTestTxn()

	// zero to non-zero
	assert.Equal(t, runtime.StorageAdded, txn.SetStorage(addr1, hash1, hash2))

	// same value again
	assert.Equal(t, runtime.StorageUnchanged, txn.SetStorage(addr1, hash1, hash2))

	// non-zero to non-zero
	assert.Equal(t, runtime.StorageModified, txn.SetStorage(addr1, hash1, hash1))

	// non-zero to zero
	assert.Equal(t, runtime.StorageDeleted, txn.SetStorage(addr1, hash1, types.ZeroHash))

	// zero to zero
	assert.Equal(t, runtime.StorageUnchanged, txn.SetStorage(addr1, hash1, types.ZeroHash))
}

func TestStorageRoundtrip(t *testing.T) {
	txn := newTestTxn()

	txn.SetState(addr1, hash1, hash2)
	assert.Equal(t, hash2, txn.GetState(addr1, hash1))

	// zero values are stored as absent
	txn.SetState(addr1, hash1, types.ZeroHash)
	assert.Equal(t, types.ZeroHash, txn.GetState(addr1, hash1))
}

func TestSuicideIdempotent(t *testing.T) {
	txn := newTestTxn()

	txn.SetBalance(addr1, big.NewInt(100))

	assert.True(t, txn.Suicide(addr1, addr2))
	assert.True(t, txn.HasSuicided(addr1))
	assert.Equal(t, uint64(0), txn.GetBalance(addr1).Uint64())

	// the second selfdestruct of the same address is a no-op
	assert.False(t, txn.Suicide(addr1, addr2))
	assert.Len(t, txn.Selfdestructs(), 1)

	assert.Equal(t, addr1, txn.Selfdestructs()[0].Address)
	assert.Equal(t, addr2, txn.Selfdestructs()[0].Beneficiary)
}

func TestCreateAccountKeepsBalance(t *testing.T) {
	txn := newTestTxn()

	txn.SetBalance(addr1, big.NewInt(50))
	txn.SetNonce(addr1, 3)

	txn.CreateAccount(addr1)

	assert.Equal(t, uint64(50), txn.GetBalance(addr1).Uint64())
	assert.Equal(t, uint64(0), txn.GetNonce(addr1))
}

func TestCommitObjects(t *testing.T) {
	txn := newTestTxn()

	txn.SetNonce(addr1, 1)
	txn.SetBalance(addr1, big.NewInt(10))
	txn.SetCode(addr1, []byte{0x1})
	txn.SetState(addr1, hash1, hash2)
	txn.SetState(addr1, hash2, types.ZeroHash)

	objs := txn.Commit(false)
	assert.Len(t, objs, 1)

	obj := objs[0]
	assert.Equal(t, addr1, obj.Address)
	assert.Equal(t, uint64(1), obj.Nonce)
	assert.Equal(t, uint64(10), obj.Balance.Uint64())
	assert.True(t, obj.DirtyCode)
	assert.Equal(t, []byte{0x1}, obj.Code)
	assert.Len(t, obj.Storage, 2)
}

func TestCleanDeleteObjects(t *testing.T) {
	txn := newTestTxn()

	txn.SetBalance(addr1, big.NewInt(100))
	txn.Suicide(addr1, addr2)

	txn.AddRefund(100)

	txn.CleanDeleteObjects(true)

	assert.False(t, txn.Exist(addr1))
	assert.Equal(t, uint64(0), txn.GetRefund())
	assert.Len(t, txn.Selfdestructs(), 0)
}
