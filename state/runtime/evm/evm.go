package evm

import (
	"github.com/umbracle/minievm/chain"
	"github.com/umbracle/minievm/state/runtime"
	"github.com/umbracle/minievm/types"
)

var _ runtime.Runtime = &EVM{}

// EVM is the ethereum virtual machine
type EVM struct{}

// NewEVM creates a new EVM
func NewEVM() *EVM {
	return &EVM{}
}

// CanRun implements the runtime interface
func (e *EVM) CanRun(*runtime.Contract, runtime.Host) bool {
	return true
}

// Name implements the runtime interface
func (e *EVM) Name() string {
	return "evm"
}

// Run implements the runtime interface. It executes one frame to
// completion and marshals the result; on any non-revert error the
// frame forfeits all its gas.
func (e *EVM) Run(c *runtime.Contract, host runtime.Host, gasTable chain.GasTable) *runtime.ExecutionResult {
	contract := acquireState()
	contract.resetReturnData()

	contract.msg = c
	contract.code = c.Code
	contract.gas = c.Gas
	contract.host = host
	contract.gasTable = gasTable

	codeHash := types.ZeroHash
	if c.Type != runtime.Create && c.Type != runtime.Create2 {
		codeHash = host.GetCodeHash(c.CodeAddress)
	}

	contract.bitmap = codeBitmap(codeHash, c.Code)

	ret, err := contract.Run()

	// the frame state is pooled, copy the return before releasing it
	var returnValue []byte
	returnValue = append(returnValue[:0], ret...)

	gasLeft := contract.gas

	releaseState(contract)

	if err != nil && err != runtime.ErrExecutionReverted {
		gasLeft = 0
	}

	return &runtime.ExecutionResult{
		ReturnValue: returnValue,
		GasLeft:     gasLeft,
		GasUsed:     c.Gas - gasLeft,
		Err:         err,
	}
}
