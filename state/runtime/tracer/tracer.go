package tracer

import (
	"math/big"

	"github.com/umbracle/minievm/types"
)

// RuntimeHost is the subset of the execution host a tracer may query
type RuntimeHost interface {
	// GetRefund returns the refund counter accumulated so far
	GetRefund() uint64

	// GetStorage accesses the storage slot at the given address and key
	GetStorage(addr types.Address, key types.Hash) types.Hash
}

// Tracer observes the interpreter. CaptureState fires before each
// dispatch with the pre-step frame snapshot, ExecuteState fires after
// the handler with the opcode's base cost from the dispatch table and
// the error, if any. The reported cost excludes dynamic charges such as
// memory expansion and is reported even when the step trapped. Reference
// arguments point into live VM structures; copy what must be retained.
type Tracer interface {
	Clear()
	GetResult() interface{}

	// Tx-level
	TxStart(gasLimit uint64)
	TxEnd(gasLeft uint64)

	// Call-level
	CallStart(
		depth int, // begins from 1
		from, to types.Address,
		callType int,
		gas uint64,
		value *big.Int,
		input []byte,
	)
	CallEnd(
		depth int,
		output []byte,
		err error,
	)

	// Op-level
	CaptureState(
		memory []byte,
		stack []*big.Int,
		opCode int,
		contractAddress types.Address,
		sp int,
		host RuntimeHost,
	)
	ExecuteState(
		contractAddress types.Address,
		ip uint64,
		opcode string,
		availableGas uint64,
		cost uint64,
		lastReturnData []byte,
		depth int,
		err error,
		host RuntimeHost,
	)
}
