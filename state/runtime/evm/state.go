package evm

import (
	"math/big"
	"strings"
	"sync"

	"github.com/umbracle/minievm/chain"
	"github.com/umbracle/minievm/helper/hex"
	"github.com/umbracle/minievm/state/runtime"
	"github.com/umbracle/minievm/state/runtime/tracer"
	"github.com/umbracle/minievm/types"
)

var statePool = sync.Pool{
	New: func() interface{} {
		return new(state)
	},
}

func acquireState() *state {
	s, ok := statePool.Get().(*state)
	if !ok {
		return new(state)
	}

	return s
}

func releaseState(s *state) {
	s.reset()
	statePool.Put(s)
}

const stackSize = 1024

var (
	errOutOfGas       = runtime.ErrOutOfGas
	errRevert         = runtime.ErrExecutionReverted
	errInvalidJump    = runtime.ErrInvalidJump
	errOpCodeNotFound = runtime.ErrOpCodeNotFound
	errReturnBadSize  = runtime.ErrReturnDataOutOfBounds
	errReadOnly       = runtime.ErrWriteProtection
)

// state is one execution frame: code, stack, memory, gas and the
// environment the dispatched handlers operate on
type state struct {
	ip   int
	code []byte
	tmp  []byte

	host     runtime.Host
	msg      *runtime.Contract
	gasTable chain.GasTable

	// memory is word-expanded; lastGasCost is the highest expansion
	// fee paid so far, so already-paid ranges cost nothing again
	memory      []byte
	lastGasCost uint64

	// stack of 256-bit words, sp points one past the top
	stack []*big.Int
	sp    int

	err  error
	stop bool

	gas uint64

	// valid jump destinations of the running code
	bitmap bitmap

	returnData []byte
	ret        []byte
}

func (c *state) reset() {
	c.sp = 0
	c.ip = 0
	c.gas = 0
	c.lastGasCost = 0
	c.stop = false
	c.err = nil

	c.bitmap.reset()

	for i := range c.memory {
		c.memory[i] = 0
	}

	c.tmp = c.tmp[:0]
	c.ret = c.ret[:0]
	c.code = c.code[:0]
	c.returnData = c.returnData[:0]
	c.memory = c.memory[:0]
}

func (c *state) validJumpdest(dest *big.Int) bool {
	udest := dest.Uint64()
	if dest.BitLen() >= 63 || udest >= uint64(len(c.code)) {
		return false
	}

	return c.bitmap.isSet(udest)
}

func (c *state) halt() {
	c.stop = true
}

func (c *state) exit(err error) {
	if err == nil {
		panic("cannot exit with a nil error")
	}

	c.stop = true
	c.err = err
}

func (c *state) push(val *big.Int) {
	c.push1().Set(val)
}

// push1 returns the slot for the new top of the stack, reusing
// allocated words when possible
func (c *state) push1() *big.Int {
	if len(c.stack) > c.sp {
		c.sp++

		return c.stack[c.sp-1]
	}

	v := big.NewInt(0)
	c.stack = append(c.stack, v)
	c.sp++

	return v
}

func (c *state) stackAtLeast(n int) bool {
	return c.sp >= n
}

func (c *state) popHash() types.Hash {
	return types.BytesToHash(c.pop().Bytes())
}

func (c *state) popAddr() (types.Address, bool) {
	b := c.pop()
	if b == nil {
		return types.Address{}, false
	}

	return types.BytesToAddress(b.Bytes()), true
}

func (c *state) top() *big.Int {
	if c.sp == 0 {
		return nil
	}

	return c.stack[c.sp-1]
}

func (c *state) pop() *big.Int {
	if c.sp == 0 {
		return nil
	}

	o := c.stack[c.sp-1]
	c.sp--

	return o
}

func (c *state) peekAt(n int) *big.Int {
	return c.stack[c.sp-n]
}

func (c *state) swap(n int) {
	c.stack[c.sp-1], c.stack[c.sp-n-1] = c.stack[c.sp-n-1], c.stack[c.sp-1]
}

// consumeGas charges the frame, raising out-of-gas when the counter
// would go negative
func (c *state) consumeGas(gas uint64) bool {
	if c.gas < gas {
		c.exit(errOutOfGas)

		return false
	}

	c.gas -= gas

	return true
}

func (c *state) resetReturnData() {
	c.returnData = c.returnData[:0]
}

func (c *state) inStaticCall() bool {
	return c.msg.Static
}

// Run drives the frame: fetch, table lookup, stack and gas
// preconditions, dispatch, stack overflow check
func (c *state) Run() ([]byte, error) {
	var (
		vmerr error

		logger   = c.host.GetTracer()
		codeSize = len(c.code)
	)

	for !c.stop {
		if c.ip >= codeSize {
			c.halt()

			break
		}

		op := OpCode(c.code[c.ip])

		if logger != nil {
			c.captureState(logger, int(op))
		}

		inst := dispatchTable[op]

		ip := c.ip
		gasBefore := c.gas

		if inst.inst == nil {
			c.exit(errOpCodeNotFound)
		} else if c.sp < inst.stack {
			c.exit(&runtime.StackUnderflowError{StackLen: c.sp, Required: inst.stack})
		} else if !c.consumeGas(inst.gas) {
			// exit set by consumeGas
		} else {
			inst.inst(c)

			if c.sp > stackSize {
				c.exit(&runtime.StackOverflowError{StackLen: c.sp, Limit: stackSize})
			}
		}

		if logger != nil {
			c.executeState(logger, ip, op, gasBefore, inst.gas)
		}

		c.ip++
	}

	if err := c.err; err != nil {
		vmerr = err
	}

	return c.ret, vmerr
}

func (c *state) captureState(logger tracer.Tracer, opCode int) {
	logger.CaptureState(
		c.memory,
		c.stack,
		opCode,
		c.msg.Address,
		c.sp,
		c.host,
	)
}

func (c *state) executeState(logger tracer.Tracer, ip int, op OpCode, availableGas, cost uint64) {
	logger.ExecuteState(
		c.msg.Address,
		uint64(ip),
		op.String(),
		availableGas,
		cost,
		c.returnData,
		c.msg.Depth,
		c.err,
		c.host,
	)
}

func bigToHash(b *big.Int) types.Hash {
	return types.BytesToHash(b.Bytes())
}

func (c *state) Len() int {
	return len(c.memory)
}

// checkMemory pays the quadratic expansion fee for the range
// [offset, offset+size) and zero-extends the buffer to cover it
func (c *state) checkMemory(offset, size *big.Int) bool {
	if size.Sign() == 0 {
		return true
	}

	if !offset.IsUint64() || !size.IsUint64() {
		c.exit(errOutOfGas)

		return false
	}

	o := offset.Uint64()
	s := size.Uint64()

	if o > 0xffffffffe0 || s > 0xffffffffe0 {
		c.exit(errOutOfGas)

		return false
	}

	m := uint64(len(c.memory))
	newSize := o + s

	if m < newSize {
		w := (newSize + 31) / 32
		newCost := MemoryGas*w + w*w/QuadCoeffDiv
		cost := newCost - c.lastGasCost
		c.lastGasCost = newCost

		if !c.consumeGas(cost) {
			return false
		}

		// extendByteSlice zero-fills the new tail, which keeps reads
		// of fresh memory deterministic
		c.memory = extendByteSlice(c.memory, int(w*32))
	}

	return true
}

func extendByteSlice(b []byte, needLen int) []byte {
	b = b[:cap(b)]
	if n := needLen - cap(b); n > 0 {
		b = append(b, make([]byte, n)...)
	}

	return b[:needLen]
}

// get2 reads length bytes of memory at offset into dst, paying
// expansion first
func (c *state) get2(dst []byte, offset, length *big.Int) ([]byte, bool) {
	if length.Sign() == 0 {
		return nil, true
	}

	if !c.checkMemory(offset, length) {
		return nil, false
	}

	o := offset.Uint64()
	l := length.Uint64()

	dst = append(dst, c.memory[o:o+l]...)

	return dst, true
}

func (c *state) Show() string {
	str := []string{}

	for i := 0; i < len(c.memory); i += 16 {
		j := i + 16
		if j > len(c.memory) {
			j = len(c.memory)
		}

		str = append(str, hex.EncodeToHex(c.memory[i:j]))
	}

	return strings.Join(str, "\n")
}
