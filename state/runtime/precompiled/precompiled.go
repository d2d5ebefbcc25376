package precompiled

import (
	"encoding/binary"

	"github.com/umbracle/minievm/chain"
	"github.com/umbracle/minievm/helper/common"
	"github.com/umbracle/minievm/state/runtime"
	"github.com/umbracle/minievm/types"
)

var _ runtime.Runtime = &Precompiled{}

type contract interface {
	gas(input []byte) uint64
	run(input []byte) ([]byte, error)
}

// Precompiled is the runtime for the precompiled contracts
type Precompiled struct {
	buf       []byte
	contracts map[types.Address]contract
}

// NewPrecompiled creates a new runtime for the precompiled contracts
func NewPrecompiled() *Precompiled {
	p := &Precompiled{}
	p.setupContracts()

	return p
}

func (p *Precompiled) setupContracts() {
	p.register("1", &ecrecover{p})
	p.register("2", &sha256h{})
	p.register("3", &ripemd160h{p})
	p.register("4", &identity{})
	p.register("5", &modExp{p})
	p.register("6", &bn256Add{p})
	p.register("7", &bn256Mul{p})
	p.register("8", &bn256Pairing{p})
}

func (p *Precompiled) register(addrStr string, b contract) {
	if len(p.contracts) == 0 {
		p.contracts = map[types.Address]contract{}
	}

	p.contracts[types.StringToAddress(addrStr)] = b
}

// CanRun implements the runtime interface
func (p *Precompiled) CanRun(c *runtime.Contract, _ runtime.Host) bool {
	_, ok := p.contracts[c.CodeAddress]

	return ok
}

// Name implements the runtime interface
func (p *Precompiled) Name() string {
	return "precompiled"
}

// Run implements the runtime interface. Gas is charged up front from
// the published cost formula; a failed contract consumes the whole
// allowance.
func (p *Precompiled) Run(c *runtime.Contract, _ runtime.Host, _ chain.GasTable) *runtime.ExecutionResult {
	contract := p.contracts[c.CodeAddress]
	gasCost := contract.gas(c.Input)

	if c.Gas < gasCost {
		return &runtime.ExecutionResult{
			GasLeft: 0,
			GasUsed: c.Gas,
			Err:     runtime.ErrOutOfGas,
		}
	}

	c.Gas = c.Gas - gasCost
	returnValue, err := contract.run(c.Input)

	result := &runtime.ExecutionResult{
		ReturnValue: returnValue,
		GasLeft:     c.Gas,
		GasUsed:     gasCost,
		Err:         err,
	}

	if result.Failed() {
		result.GasLeft = 0
		result.ReturnValue = nil
	}

	return result
}

var zeroPadding = make([]byte, 64)

func (p *Precompiled) leftPad(buf []byte, n int) []byte {
	l := len(buf)
	if l > n {
		return buf
	}

	tmp := make([]byte, n)
	copy(tmp[n-l:], buf)

	return tmp
}

// get reads size bytes of input into the shared buffer, zero-filling
// what the input does not cover, and returns the unread tail
func (p *Precompiled) get(input []byte, size int) ([]byte, []byte) {
	p.buf = common.ExtendByteSlice(p.buf, size)
	n := size

	if len(input) < n {
		n = len(input)
	}

	copy(p.buf[0:], input[:n])

	if n < size {
		rest := size - n
		if rest < 64 {
			copy(p.buf[n:], zeroPadding[0:size-n])
		} else {
			copy(p.buf[n:], make([]byte, rest))
		}
	}

	return p.buf, input[n:]
}

func (p *Precompiled) getUint64(input []byte) (uint64, []byte) {
	p.buf, input = p.get(input, 32)
	num := binary.BigEndian.Uint64(p.buf[24:32])

	return num, input
}
