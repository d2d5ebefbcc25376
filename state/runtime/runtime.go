package runtime

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/umbracle/minievm/chain"
	"github.com/umbracle/minievm/state/runtime/tracer"
	"github.com/umbracle/minievm/types"
)

// TxContext is the context of the transaction
type TxContext struct {
	GasPrice   types.Hash
	Origin     types.Address
	Coinbase   types.Address
	Number     int64
	Timestamp  int64
	GasLimit   int64
	Difficulty types.Hash
}

// StorageStatus is the status of a storage write
type StorageStatus int

const (
	// StorageUnchanged if the value has not changed
	StorageUnchanged StorageStatus = iota
	// StorageModified if a non-zero value was overwritten with non-zero
	StorageModified
	// StorageAdded if a zero slot received a non-zero value
	StorageAdded
	// StorageDeleted if a non-zero slot was set to zero
	StorageDeleted
)

func (s StorageStatus) String() string {
	switch s {
	case StorageUnchanged:
		return "StorageUnchanged"
	case StorageModified:
		return "StorageModified"
	case StorageAdded:
		return "StorageAdded"
	case StorageDeleted:
		return "StorageDeleted"
	default:
		panic("BUG: storage status not found")
	}
}

// Host is the execution host: it provides the state backend and the
// nested call entry point to the interpreter. Any method may reach the
// underlying store.
type Host interface {
	AccountExists(addr types.Address) bool
	GetStorage(addr types.Address, key types.Hash) types.Hash
	SetStorage(addr types.Address, key types.Hash, value types.Hash) StorageStatus
	GetBalance(addr types.Address) *big.Int
	GetCodeSize(addr types.Address) int
	GetCodeHash(addr types.Address) types.Hash
	GetCode(addr types.Address) []byte
	Selfdestruct(addr types.Address, beneficiary types.Address)
	GetTxContext() TxContext
	GetBlockHash(number int64) types.Hash
	EmitLog(addr types.Address, topics []types.Hash, data []byte)
	Callx(c *Contract, host Host) *ExecutionResult
	Empty(addr types.Address) bool
	GetNonce(addr types.Address) uint64
	AddRefund(gas uint64)
	GetRefund() uint64
	GetTracer() tracer.Tracer
}

// ExecutionResult includes all output after executing a frame, no
// matter whether the execution was successful or not
type ExecutionResult struct {
	ReturnValue []byte // returned data (function result or revert reason)
	GasLeft     uint64
	GasUsed     uint64
	Err         error
}

func (r *ExecutionResult) Succeeded() bool { return r.Err == nil }
func (r *ExecutionResult) Failed() bool    { return r.Err != nil }
func (r *ExecutionResult) Reverted() bool  { return errors.Is(r.Err, ErrExecutionReverted) }

// UpdateGasUsed applies the refund counter capped to half of the gas
// used by the frame
func (r *ExecutionResult) UpdateGasUsed(gasLimit uint64, refund uint64) {
	r.GasUsed = gasLimit - r.GasLeft

	if maxRefund := r.GasUsed / 2; refund > maxRefund {
		refund = maxRefund
	}

	r.GasLeft += refund
	r.GasUsed -= refund
}

// Exception returns the wire enum for the frame abort reason
func (r *ExecutionResult) Exception() Exception {
	return ExceptionFromError(r.Err)
}

var (
	ErrOutOfGas                 = errors.New("out of gas")
	ErrStackOverflow            = errors.New("stack overflow")
	ErrStackUnderflow           = errors.New("stack underflow")
	ErrNotEnoughFunds           = errors.New("not enough funds")
	ErrInsufficientBalance      = errors.New("insufficient balance for transfer")
	ErrMaxCodeSizeExceeded      = errors.New("evm: max code size exceeded")
	ErrContractAddressCollision = errors.New("contract address collision")
	ErrDepth                    = errors.New("max call depth exceeded")
	ErrExecutionReverted        = errors.New("execution was reverted")
	ErrCodeStoreOutOfGas        = errors.New("contract creation code storage out of gas")
	ErrInvalidJump              = errors.New("invalid jump destination")
	ErrOpCodeNotFound           = errors.New("opcode not found")
	ErrReturnDataOutOfBounds    = errors.New("return data out of bounds")
	ErrWriteProtection          = errors.New("write protection")
	ErrInternal                 = errors.New("internal state error")
)

// StackUnderflowError carries the stack context of an underflow trap
type StackUnderflowError struct {
	StackLen int
	Required int
}

func (e *StackUnderflowError) Error() string {
	return fmt.Sprintf("stack underflow (%d <=> %d)", e.StackLen, e.Required)
}

func (e *StackUnderflowError) Is(err error) bool {
	return err == ErrStackUnderflow
}

// StackOverflowError carries the stack context of an overflow trap
type StackOverflowError struct {
	StackLen int
	Limit    int
}

func (e *StackOverflowError) Error() string {
	return fmt.Sprintf("stack limit reached %d (%d)", e.StackLen, e.Limit)
}

func (e *StackOverflowError) Is(err error) bool {
	return err == ErrStackOverflow
}

// Exception is the abort reason a frame result carries on the wire
type Exception int

const (
	ExceptionNone Exception = iota
	ExceptionOutOfGas
	ExceptionStackUnderflow
	ExceptionStackOverflow
	ExceptionInvalidJump
	ExceptionInvalidOpcode
	ExceptionRevert
	ExceptionInternal
)

func (e Exception) String() string {
	switch e {
	case ExceptionNone:
		return ""
	case ExceptionOutOfGas:
		return "OUT_OF_GAS"
	case ExceptionStackUnderflow:
		return "STACK_UNDERFLOW"
	case ExceptionStackOverflow:
		return "STACK_OVERFLOW"
	case ExceptionInvalidJump:
		return "INVALID_JUMP"
	case ExceptionInvalidOpcode:
		return "INVALID_OPCODE"
	case ExceptionRevert:
		return "REVERT"
	case ExceptionInternal:
		return "INTERNAL_ERROR"
	default:
		panic("BUG: exception kind not found")
	}
}

// ExceptionFromError maps a frame error to the wire enum. Errors that
// are not part of the EVM semantics map to INTERNAL_ERROR.
func ExceptionFromError(err error) Exception {
	switch {
	case err == nil:
		return ExceptionNone
	case errors.Is(err, ErrOutOfGas), errors.Is(err, ErrCodeStoreOutOfGas),
		errors.Is(err, ErrMaxCodeSizeExceeded), errors.Is(err, ErrReturnDataOutOfBounds),
		errors.Is(err, ErrWriteProtection):
		return ExceptionOutOfGas
	case errors.Is(err, ErrStackUnderflow):
		return ExceptionStackUnderflow
	case errors.Is(err, ErrStackOverflow):
		return ExceptionStackOverflow
	case errors.Is(err, ErrInvalidJump):
		return ExceptionInvalidJump
	case errors.Is(err, ErrOpCodeNotFound):
		return ExceptionInvalidOpcode
	case errors.Is(err, ErrExecutionReverted):
		return ExceptionRevert
	default:
		return ExceptionInternal
	}
}

type CallType int

const (
	Call CallType = iota
	CallCode
	DelegateCall
	StaticCall
	Create
	Create2
)

func (c CallType) String() string {
	switch c {
	case Call:
		return "CALL"
	case CallCode:
		return "CALLCODE"
	case DelegateCall:
		return "DELEGATECALL"
	case StaticCall:
		return "STATICCALL"
	case Create:
		return "CREATE"
	case Create2:
		return "CREATE2"
	default:
		panic("BUG: call type not found")
	}
}

// Runtime can process contracts
type Runtime interface {
	Run(c *Contract, host Host, gasTable chain.GasTable) *ExecutionResult
	CanRun(c *Contract, host Host) bool
	Name() string
}

// Contract is one execution frame being called
type Contract struct {
	Code        []byte
	Type        CallType
	CodeAddress types.Address
	Address     types.Address
	Origin      types.Address
	Caller      types.Address
	Depth       int
	Value       *big.Int
	Input       []byte
	Gas         uint64
	Static      bool

	// output range of the parent memory a CALL writes back into
	RetOffset uint64
	RetSize   uint64
}

// ConsumeGas reduces the frame gas, reporting whether it sufficed
func (c *Contract) ConsumeGas(gas uint64) bool {
	if c.Gas < gas {
		return false
	}

	c.Gas -= gas

	return true
}

// ConsumeAllGas forfeits all the gas left in the frame
func (c *Contract) ConsumeAllGas() {
	c.Gas = 0
}

func NewContract(
	depth int,
	origin types.Address,
	from types.Address,
	to types.Address,
	value *big.Int,
	gas uint64,
	code []byte,
) *Contract {
	f := &Contract{
		Caller:      from,
		Origin:      origin,
		CodeAddress: to,
		Address:     to,
		Gas:         gas,
		Value:       value,
		Code:        code,
		Depth:       depth,
	}

	return f
}

func NewContractCreation(
	depth int,
	origin types.Address,
	from types.Address,
	to types.Address,
	value *big.Int,
	gas uint64,
	code []byte,
) *Contract {
	c := NewContract(depth, origin, from, to, value, gas, code)
	c.Type = Create

	return c
}

func NewContractCall(
	depth int,
	origin types.Address,
	from types.Address,
	to types.Address,
	value *big.Int,
	gas uint64,
	code []byte,
	input []byte,
) *Contract {
	c := NewContract(depth, origin, from, to, value, gas, code)
	c.Input = input

	return c
}
