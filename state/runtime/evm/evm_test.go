package evm

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/umbracle/minievm/chain"
	"github.com/umbracle/minievm/helper/hex"
	"github.com/umbracle/minievm/state/runtime"
	"github.com/umbracle/minievm/state/runtime/tracer"
	"github.com/umbracle/minievm/types"
)

func newMockContract(value *big.Int, gas uint64, code []byte) *runtime.Contract {
	return runtime.NewContract(
		1,
		types.ZeroAddress,
		types.ZeroAddress,
		types.ZeroAddress,
		value,
		gas,
		code,
	)
}

// mockHost meets the runtime.Host interface but panics on the methods
// the tests do not exercise
type mockHost struct {
	tracer tracer.Tracer
}

func (m *mockHost) AccountExists(addr types.Address) bool {
	panic("not implemented in tests")
}

func (m *mockHost) GetStorage(addr types.Address, key types.Hash) types.Hash {
	panic("not implemented in tests")
}

func (m *mockHost) SetStorage(addr types.Address, key types.Hash, value types.Hash) runtime.StorageStatus {
	panic("not implemented in tests")
}

func (m *mockHost) GetBalance(addr types.Address) *big.Int {
	panic("not implemented in tests")
}

func (m *mockHost) GetCodeSize(addr types.Address) int {
	panic("not implemented in tests")
}

func (m *mockHost) GetCodeHash(addr types.Address) types.Hash {
	return types.ZeroHash
}

func (m *mockHost) GetCode(addr types.Address) []byte {
	panic("not implemented in tests")
}

func (m *mockHost) Selfdestruct(addr types.Address, beneficiary types.Address) {
	panic("not implemented in tests")
}

func (m *mockHost) GetTxContext() runtime.TxContext {
	return runtime.TxContext{}
}

func (m *mockHost) GetBlockHash(number int64) types.Hash {
	panic("not implemented in tests")
}

func (m *mockHost) EmitLog(addr types.Address, topics []types.Hash, data []byte) {
	panic("not implemented in tests")
}

func (m *mockHost) Callx(*runtime.Contract, runtime.Host) *runtime.ExecutionResult {
	panic("not implemented in tests")
}

func (m *mockHost) Empty(addr types.Address) bool {
	panic("not implemented in tests")
}

func (m *mockHost) GetNonce(addr types.Address) uint64 {
	panic("not implemented in tests")
}

func (m *mockHost) AddRefund(gas uint64) {
	panic("not implemented in tests")
}

func (m *mockHost) GetRefund() uint64 {
	return 0
}

func (m *mockHost) GetTracer() tracer.Tracer {
	return m.tracer
}

func TestRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    *big.Int
		gas      uint64
		code     []byte
		expected *runtime.ExecutionResult
	}{
		{
			name:  "should succeed with no code",
			value: big.NewInt(0),
			gas:   5000,
			code:  []byte{},
			expected: &runtime.ExecutionResult{
				ReturnValue: nil,
				GasLeft:     5000,
			},
		},
		{
			name:  "should succeed and return the add result",
			value: big.NewInt(0),
			gas:   5000,
			code: []byte{
				byte(PUSH1), 0x01, byte(PUSH1), 0x02, byte(ADD),
				byte(PUSH1), 0x00, byte(MSTORE8),
				byte(PUSH1), 0x01, byte(PUSH1), 0x00, byte(RETURN),
			},
			expected: &runtime.ExecutionResult{
				ReturnValue: []uint8{0x03},
				GasLeft:     4976,
				GasUsed:     24,
			},
		},
		{
			name:  "division by zero pushes zero",
			value: big.NewInt(0),
			gas:   5000,
			code: []byte{
				byte(PUSH1), 0x00, byte(PUSH1), 0x05, byte(DIV),
				byte(PUSH1), 0x00, byte(MSTORE8),
				byte(PUSH1), 0x01, byte(PUSH1), 0x00, byte(RETURN),
			},
			expected: &runtime.ExecutionResult{
				ReturnValue: []uint8{0x00},
				GasLeft:     4974,
				GasUsed:     26,
			},
		},
		{
			name:  "should fail and consume all gas on stack underflow",
			value: big.NewInt(0),
			gas:   5000,
			code:  []byte{byte(ADD)},
			expected: &runtime.ExecutionResult{
				ReturnValue: nil,
				GasLeft:     0,
				GasUsed:     5000,
				Err:         &runtime.StackUnderflowError{StackLen: 0, Required: 2},
			},
		},
		{
			name:  "should fail by REVERT and return the remaining gas",
			value: big.NewInt(0),
			gas:   5000,
			code:  []byte{byte(PUSH1), 0x00, byte(PUSH1), 0x00, byte(REVERT)},
			expected: &runtime.ExecutionResult{
				ReturnValue: nil,
				GasUsed:     6,
				GasLeft:     4994,
				Err:         errRevert,
			},
		},
		{
			name:  "jump outside the code is an invalid jump",
			value: big.NewInt(0),
			gas:   5000,
			code: []byte{
				byte(PUSH1), 0x05, byte(JUMP), byte(JUMPDEST), byte(STOP),
			},
			expected: &runtime.ExecutionResult{
				ReturnValue: nil,
				GasLeft:     0,
				GasUsed:     5000,
				Err:         errInvalidJump,
			},
		},
		{
			name:  "jump into push immediate data is an invalid jump",
			value: big.NewInt(0),
			gas:   5000,
			// the 0x5B at position 1 is PUSH1 immediate data
			code: []byte{
				byte(PUSH1), byte(JUMPDEST), byte(PUSH1), 0x01, byte(JUMP),
			},
			expected: &runtime.ExecutionResult{
				ReturnValue: nil,
				GasLeft:     0,
				GasUsed:     5000,
				Err:         errInvalidJump,
			},
		},
		{
			name:  "undefined opcode traps",
			value: big.NewInt(0),
			gas:   5000,
			code:  []byte{0xEF},
			expected: &runtime.ExecutionResult{
				ReturnValue: nil,
				GasLeft:     0,
				GasUsed:     5000,
				Err:         errOpCodeNotFound,
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			evm := NewEVM()
			contract := newMockContract(tt.value, tt.gas, tt.code)
			host := &mockHost{}

			res := evm.Run(contract, host, chain.GasTableDefault)
			assert.Equal(t, tt.expected, res)
		})
	}
}

func TestRunReturnsKeccakOfEmpty(t *testing.T) {
	t.Parallel()

	// SHA3 over the empty range, stored and returned as one word
	code := []byte{
		byte(PUSH1), 0x00, byte(PUSH1), 0x00, byte(SHA3),
		byte(PUSH1), 0x00, byte(MSTORE),
		byte(PUSH1), 0x20, byte(PUSH1), 0x00, byte(RETURN),
	}

	evm := NewEVM()
	contract := newMockContract(big.NewInt(0), 100000, code)

	res := evm.Run(contract, &mockHost{}, chain.GasTableDefault)

	assert.NoError(t, res.Err)
	assert.Equal(
		t,
		hex.MustDecodeHex("0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"),
		res.ReturnValue,
	)
}

func TestRunStackOverflow(t *testing.T) {
	t.Parallel()

	code := []byte{}
	for i := 0; i < stackSize+1; i++ {
		code = append(code, byte(PUSH1), 0x01)
	}

	evm := NewEVM()
	contract := newMockContract(big.NewInt(0), 100000, code)

	res := evm.Run(contract, &mockHost{}, chain.GasTableDefault)

	assert.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, runtime.ErrStackOverflow)
	assert.Equal(t, uint64(0), res.GasLeft)
}

func TestRunPCOpcode(t *testing.T) {
	t.Parallel()

	// PC at position 2 pushes 2, the pre-increment position
	code := []byte{
		byte(PUSH1), 0x00, byte(PC),
		byte(PUSH1), 0x00, byte(MSTORE8),
		byte(PUSH1), 0x01, byte(PUSH1), 0x00, byte(RETURN),
	}

	evm := NewEVM()
	contract := newMockContract(big.NewInt(0), 10000, code)

	res := evm.Run(contract, &mockHost{}, chain.GasTableDefault)

	assert.NoError(t, res.Err)
	assert.Equal(t, []byte{0x02}, res.ReturnValue)
}

type mockCall struct {
	name string
	args map[string]interface{}
}

type mockTracer struct {
	calls []mockCall
}

func (m *mockTracer) Clear()                 {}
func (m *mockTracer) GetResult() interface{} { return nil }
func (m *mockTracer) TxStart(uint64)         {}
func (m *mockTracer) TxEnd(uint64)           {}

func (m *mockTracer) CallStart(int, types.Address, types.Address, int, uint64, *big.Int, []byte) {
}

func (m *mockTracer) CallEnd(int, []byte, error) {
}

func (m *mockTracer) CaptureState(
	memory []byte,
	stack []*big.Int,
	opCode int,
	contractAddress types.Address,
	sp int,
	_ tracer.RuntimeHost,
) {
	m.calls = append(m.calls, mockCall{
		name: "CaptureState",
		args: map[string]interface{}{
			"opCode": opCode,
			"sp":     sp,
		},
	})
}

func (m *mockTracer) ExecuteState(
	contractAddress types.Address,
	ip uint64,
	opcode string,
	availableGas uint64,
	cost uint64,
	lastReturnData []byte,
	depth int,
	err error,
	_ tracer.RuntimeHost,
) {
	m.calls = append(m.calls, mockCall{
		name: "ExecuteState",
		args: map[string]interface{}{
			"ip":           ip,
			"opcode":       opcode,
			"availableGas": availableGas,
			"cost":         cost,
			"depth":        depth,
			"err":          err,
		},
	})
}

func TestRunWithTracer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		code     []byte
		expected []mockCall
	}{
		{
			name: "observer fires before and after the dispatch",
			code: []byte{byte(PUSH1), 0x1},
			expected: []mockCall{
				{
					name: "CaptureState",
					args: map[string]interface{}{
						"opCode": int(PUSH1),
						"sp":     0,
					},
				},
				{
					name: "ExecuteState",
					args: map[string]interface{}{
						"ip":           uint64(0),
						"opcode":       "PUSH1",
						"availableGas": uint64(5000),
						"cost":         uint64(3),
						"depth":        1,
						"err":          (error)(nil),
					},
				},
			},
		},
		{
			name: "observer reports the trap",
			code: []byte{byte(POP)},
			expected: []mockCall{
				{
					name: "CaptureState",
					args: map[string]interface{}{
						"opCode": int(POP),
						"sp":     0,
					},
				},
				{
					name: "ExecuteState",
					args: map[string]interface{}{
						"ip":           uint64(0),
						"opcode":       "POP",
						"availableGas": uint64(5000),
						"cost":         uint64(2),
						"depth":        1,
						"err":          error(&runtime.StackUnderflowError{StackLen: 0, Required: 1}),
					},
				},
			},
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			evm := NewEVM()
			contract := newMockContract(big.NewInt(0), 5000, tt.code)

			tr := &mockTracer{}
			host := &mockHost{tracer: tr}

			evm.Run(contract, host, chain.GasTableDefault)

			assert.Equal(t, tt.expected, tr.calls)
		})
	}
}
