package evm

import (
	"math/big"
	"math/bits"
	"sync"

	"github.com/umbracle/minievm/crypto"
	"github.com/umbracle/minievm/helper/common"
	"github.com/umbracle/minievm/helper/keccak"
	"github.com/umbracle/minievm/state/runtime"
	"github.com/umbracle/minievm/types"
)

type instruction func(c *state)

var (
	zero     = big.NewInt(0)
	one      = big.NewInt(1)
	wordSize = big.NewInt(32)
)

func opAdd(c *state) {
	a := c.pop()
	b := c.top()

	b.Add(a, b)
	toU256(b)
}

func opMul(c *state) {
	a := c.pop()
	b := c.top()

	b.Mul(a, b)
	toU256(b)
}

func opSub(c *state) {
	a := c.pop()
	b := c.top()

	b.Sub(a, b)
	toU256(b)
}

func opDiv(c *state) {
	a := c.pop()
	b := c.top()

	if b.Sign() == 0 {
		// division by zero
		b.Set(zero)
	} else {
		b.Div(a, b)
		toU256(b)
	}
}

func opSDiv(c *state) {
	a := to256(c.pop())
	b := to256(c.top())

	if b.Sign() == 0 {
		// division by zero
		b.Set(zero)
	} else {
		neg := a.Sign() != b.Sign()
		b.Div(a.Abs(a), b.Abs(b))

		if neg {
			b.Neg(b)
		}
		toU256(b)
	}
}

func opMod(c *state) {
	a := c.pop()
	b := c.top()

	if b.Sign() == 0 {
		// division by zero
		b.Set(zero)
	} else {
		b.Mod(a, b)
		toU256(b)
	}
}

func opSMod(c *state) {
	a := to256(c.pop())
	b := to256(c.top())

	if b.Sign() == 0 {
		b.Set(zero)

		return
	}

	// the result keeps the sign of the dividend
	neg := a.Sign() < 0
	b.Mod(a.Abs(a), b.Abs(b))

	if neg {
		b.Neg(b)
	}
	toU256(b)
}

var bigPool = sync.Pool{
	New: func() interface{} {
		return new(big.Int)
	},
}

func acquireBig() *big.Int {
	b, ok := bigPool.Get().(*big.Int)
	if !ok {
		return new(big.Int)
	}

	return b
}

func releaseBig(b *big.Int) {
	bigPool.Put(b)
}

func opExp(c *state) {
	x := c.pop()
	y := c.top()

	// a zero exponent carries no byte fee and yields 1
	gas := uint64((y.BitLen()+7)/8) * c.gasTable.ExpByte
	if !c.consumeGas(gas) {
		return
	}

	z := acquireBig().Set(one)

	for _, d := range y.Bits() {
		for i := 0; i < _W; i++ {
			if d&1 == 1 {
				toU256(z.Mul(z, x))
			}

			d >>= 1

			toU256(x.Mul(x, x))
		}
	}

	y.Set(z)
	releaseBig(z)
}

func opAddMod(c *state) {
	a := c.pop()
	b := c.pop()
	z := c.top()

	if z.Sign() == 0 {
		// modulo by zero
		z.Set(zero)
	} else {
		a = a.Add(a, b)
		z = z.Mod(a, z)
		toU256(z)
	}
}

func opMulMod(c *state) {
	a := c.pop()
	b := c.pop()
	z := c.top()

	if z.Sign() == 0 {
		// modulo by zero
		z.Set(zero)
	} else {
		a = a.Mul(a, b)
		z = z.Mod(a, z)
		toU256(z)
	}
}

func opAnd(c *state) {
	a := c.pop()
	b := c.top()

	b.And(a, b)
}

func opOr(c *state) {
	a := c.pop()
	b := c.top()

	b.Or(a, b)
}

func opXor(c *state) {
	a := c.pop()
	b := c.top()

	b.Xor(a, b)
}

var opByteMask = big.NewInt(255)

func opByte(c *state) {
	x := c.pop()
	y := c.top()

	if !x.IsUint64() || x.Uint64() > 31 {
		y.Set(zero)
	} else {
		sh := (31 - x.Uint64()) * 8
		y.Rsh(y, uint(sh))
		y.And(y, opByteMask)
	}
}

func opNot(c *state) {
	a := c.top()

	a.Not(a)
	toU256(a)
}

func opIsZero(c *state) {
	a := c.top()

	if a.Sign() == 0 {
		a.Set(one)
	} else {
		a.Set(zero)
	}
}

func opEq(c *state) {
	a := c.pop()
	b := c.top()

	if a.Cmp(b) == 0 {
		b.Set(one)
	} else {
		b.Set(zero)
	}
}

func opLt(c *state) {
	a := c.pop()
	b := c.top()

	if a.Cmp(b) < 0 {
		b.Set(one)
	} else {
		b.Set(zero)
	}
}

func opGt(c *state) {
	a := c.pop()
	b := c.top()

	if a.Cmp(b) > 0 {
		b.Set(one)
	} else {
		b.Set(zero)
	}
}

func opSlt(c *state) {
	a := to256(c.pop())
	b := to256(c.top())

	if a.Cmp(b) < 0 {
		b.Set(one)
	} else {
		b.Set(zero)
	}
	toU256(b)
}

func opSgt(c *state) {
	a := to256(c.pop())
	b := to256(c.top())

	if a.Cmp(b) > 0 {
		b.Set(one)
	} else {
		b.Set(zero)
	}
	toU256(b)
}

var thirtyOne = big.NewInt(31)

func opSignExtension(c *state) {
	ext := c.pop()
	x := c.top()

	// for k >= 31 the sign byte already is the most significant one
	if ext.Cmp(thirtyOne) >= 0 {
		return
	}

	if x == nil {
		return
	}

	bit := uint(ext.Uint64()*8 + 7)

	mask := acquireBig().Set(one)
	mask.Lsh(mask, bit)
	mask.Sub(mask, one)

	if x.Bit(int(bit)) > 0 {
		mask.Not(mask)
		x.Or(x, mask)
	} else {
		x.And(x, mask)
	}

	toU256(x)
	releaseBig(mask)
}

func equalOrOverflowsUint256(b *big.Int) bool {
	return b.BitLen() > 8
}

func opShl(c *state) {
	shift := c.pop()
	value := c.top()

	if equalOrOverflowsUint256(shift) {
		value.Set(zero)
	} else {
		value.Lsh(value, uint(shift.Uint64()))
		toU256(value)
	}
}

func opShr(c *state) {
	shift := c.pop()
	value := c.top()

	if equalOrOverflowsUint256(shift) {
		value.Set(zero)
	} else {
		value.Rsh(value, uint(shift.Uint64()))
		toU256(value)
	}
}

func opSar(c *state) {
	shift := c.pop()
	value := to256(c.top())

	if equalOrOverflowsUint256(shift) {
		if value.Sign() >= 0 {
			value.Set(zero)
		} else {
			value.Set(tt256m1)
		}
	} else {
		value.Rsh(value, uint(shift.Uint64()))
		toU256(value)
	}
}

// memory operations

var bufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, 128)

		return &buf
	},
}

func opMload(c *state) {
	offset := c.pop()

	buf, ok := bufPool.Get().(*[]byte)
	if !ok {
		return
	}

	var valid bool

	*buf, valid = c.get2((*buf)[:0], offset, wordSize)
	if !valid {
		return
	}

	c.push1().SetBytes(*buf)
	bufPool.Put(buf)
}

var (
	_W = bits.UintSize
	_S = _W / 8
)

func opMStore(c *state) {
	offset := c.pop()
	val := c.pop()

	if !c.checkMemory(offset, wordSize) {
		return
	}

	o := offset.Uint64()
	buf := c.memory[o : o+32]

	i := 32

	for _, d := range val.Bits() {
		for j := 0; j < _S; j++ {
			i--
			buf[i] = byte(d)
			d >>= 8
		}
	}

	for i > 0 {
		i--
		buf[i] = 0
	}
}

func opMStore8(c *state) {
	offset := c.pop()
	val := c.pop()

	if !c.checkMemory(offset, one) {
		return
	}

	c.memory[offset.Uint64()] = byte(val.Uint64() & 0xff)
}

// storage operations

func opSload(c *state) {
	loc := c.top()

	if !c.consumeGas(c.gasTable.SLoad) {
		return
	}

	val := c.host.GetStorage(c.msg.Address, bigToHash(loc))
	loc.SetBytes(val.Bytes())
}

func opSStore(c *state) {
	if c.inStaticCall() {
		c.exit(errReadOnly)

		return
	}

	key := c.popHash()
	val := c.popHash()

	status := c.host.SetStorage(c.msg.Address, key, val)

	var gas uint64

	switch status {
	case runtime.StorageAdded:
		gas = SstoreSetGas
	case runtime.StorageDeleted:
		c.host.AddRefund(SstoreRefundGas)

		gas = SstoreClearGas
	default:
		gas = SstoreResetGas
	}

	c.consumeGas(gas)
}

func opSha3(c *state) {
	offset := c.pop()
	length := c.pop()

	var ok bool
	if c.tmp, ok = c.get2(c.tmp[:0], offset, length); !ok {
		return
	}

	size := length.Uint64()
	if !c.consumeGas(((size + 31) / 32) * Sha3WordGas) {
		return
	}

	c.tmp = keccak.Keccak256(c.tmp[:0], c.tmp)

	c.push1().SetBytes(c.tmp)
}

func opPop(c *state) {
	c.pop()
}

// context operations

func opAddress(c *state) {
	c.push1().SetBytes(c.msg.Address.Bytes())
}

func opBalance(c *state) {
	addr, _ := c.popAddr()

	if !c.consumeGas(c.gasTable.Balance) {
		return
	}

	c.push1().Set(c.host.GetBalance(addr))
}

func opOrigin(c *state) {
	c.push1().SetBytes(c.msg.Origin.Bytes())
}

func opCaller(c *state) {
	c.push1().SetBytes(c.msg.Caller.Bytes())
}

func opCallValue(c *state) {
	v := c.push1()

	if value := c.msg.Value; value != nil {
		v.Set(value)
	} else {
		v.Set(zero)
	}
}

func min(i, j uint64) uint64 {
	if i < j {
		return i
	}

	return j
}

func opCallDataLoad(c *state) {
	offset := c.top()

	buf, ok := bufPool.Get().(*[]byte)
	if !ok {
		return
	}

	c.setBytes((*buf)[:32], c.msg.Input, 32, offset)
	offset.SetBytes((*buf)[:32])
	bufPool.Put(buf)
}

func opCallDataSize(c *state) {
	c.push1().SetUint64(uint64(len(c.msg.Input)))
}

func opCodeSize(c *state) {
	c.push1().SetUint64(uint64(len(c.code)))
}

func opExtCodeSize(c *state) {
	addr, _ := c.popAddr()

	if !c.consumeGas(c.gasTable.ExtcodeSize) {
		return
	}

	c.push1().SetUint64(uint64(c.host.GetCodeSize(addr)))
}

func opGasPrice(c *state) {
	c.push1().SetBytes(c.host.GetTxContext().GasPrice.Bytes())
}

func opReturnDataSize(c *state) {
	c.push1().SetUint64(uint64(len(c.returnData)))
}

func opExtCodeHash(c *state) {
	address, _ := c.popAddr()

	if !c.consumeGas(c.gasTable.ExtcodeHash) {
		return
	}

	v := c.push1()
	if c.host.Empty(address) {
		v.Set(zero)
	} else {
		v.SetBytes(c.host.GetCodeHash(address).Bytes())
	}
}

func opPC(c *state) {
	c.push1().SetUint64(uint64(c.ip))
}

func opMSize(c *state) {
	c.push1().SetUint64(uint64(len(c.memory)))
}

func opGas(c *state) {
	c.push1().SetUint64(c.gas)
}

// setBytes copies min(len(input)-dataOffset, size) bytes of input into
// dst, zero-filling the remainder up to size
func (c *state) setBytes(dst, input []byte, size uint64, dataOffset *big.Int) {
	if !dataOffset.IsUint64() {
		// overflow, copy 'size' zero bytes to dst
		for i := uint64(0); i < size; i++ {
			dst[i] = 0
		}

		return
	}

	inputSize := uint64(len(input))
	begin := min(dataOffset.Uint64(), inputSize)

	copySize := min(size, inputSize-begin)
	if copySize > 0 {
		copy(dst, input[begin:begin+copySize])
	}

	if size-copySize > 0 {
		dst = dst[copySize:]
		for i := uint64(0); i < size-copySize; i++ {
			dst[i] = 0
		}
	}
}

func opExtCodeCopy(c *state) {
	address, _ := c.popAddr()
	memOffset := c.pop()
	codeOffset := c.pop()
	length := c.pop()

	if !c.checkMemory(memOffset, length) {
		return
	}

	size := length.Uint64()
	if !c.consumeGas(((size + 31) / 32) * CopyGas) {
		return
	}

	if !c.consumeGas(c.gasTable.ExtcodeCopy) {
		return
	}

	code := c.host.GetCode(address)
	if size != 0 {
		c.setBytes(c.memory[memOffset.Uint64():], code, size, codeOffset)
	}
}

func opCallDataCopy(c *state) {
	memOffset := c.pop()
	dataOffset := c.pop()
	length := c.pop()

	if !c.checkMemory(memOffset, length) {
		return
	}

	size := length.Uint64()
	if !c.consumeGas(((size + 31) / 32) * CopyGas) {
		return
	}

	if size != 0 {
		c.setBytes(c.memory[memOffset.Uint64():], c.msg.Input, size, dataOffset)
	}
}

func opReturnDataCopy(c *state) {
	memOffset := c.pop()
	dataOffset := c.pop()
	length := c.pop()

	if !c.checkMemory(memOffset, length) {
		return
	}

	size := length.Uint64()
	if !c.consumeGas(((size + 31) / 32) * CopyGas) {
		return
	}

	end := length.Add(dataOffset, length)
	if !end.IsUint64() {
		c.exit(errReturnBadSize)

		return
	}

	size = end.Uint64()
	if uint64(len(c.returnData)) < size {
		c.exit(errReturnBadSize)

		return
	}

	data := c.returnData[dataOffset.Uint64():size]
	copy(c.memory[memOffset.Uint64():], data)
}

func opCodeCopy(c *state) {
	memOffset := c.pop()
	dataOffset := c.pop()
	length := c.pop()

	if !c.checkMemory(memOffset, length) {
		return
	}

	size := length.Uint64()
	if !c.consumeGas(((size + 31) / 32) * CopyGas) {
		return
	}

	if size != 0 {
		c.setBytes(c.memory[memOffset.Uint64():], c.code, size, dataOffset)
	}
}

// block information

func opBlockHash(c *state) {
	num := c.top()

	if !num.IsUint64() {
		num.Set(zero)

		return
	}

	n := int64(num.Uint64())
	lastBlock := c.host.GetTxContext().Number

	// only the 256 most recent blocks are visible; a failed backend
	// lookup yields the zero hash
	if lastBlock-257 < n && n < lastBlock {
		num.SetBytes(c.host.GetBlockHash(n).Bytes())
	} else {
		num.Set(zero)
	}
}

func opCoinbase(c *state) {
	c.push1().SetBytes(c.host.GetTxContext().Coinbase.Bytes())
}

func opTimestamp(c *state) {
	c.push1().SetInt64(c.host.GetTxContext().Timestamp)
}

func opNumber(c *state) {
	c.push1().SetInt64(c.host.GetTxContext().Number)
}

func opDifficulty(c *state) {
	c.push1().SetBytes(c.host.GetTxContext().Difficulty.Bytes())
}

func opGasLimit(c *state) {
	c.push1().SetInt64(c.host.GetTxContext().GasLimit)
}

func opSelfDestruct(c *state) {
	if c.inStaticCall() {
		c.exit(errReadOnly)

		return
	}

	address, _ := c.popAddr()

	gas := c.gasTable.Suicide

	// sending the balance to a fresh account carries the account
	// creation surcharge
	if c.host.Empty(address) && c.host.GetBalance(c.msg.Address).Sign() != 0 {
		gas += c.gasTable.CreateBySuicide
	}

	if !c.consumeGas(gas) {
		return
	}

	c.host.Selfdestruct(c.msg.Address, address)
	c.halt()
}

func opJump(c *state) {
	dest := c.pop()

	if c.validJumpdest(dest) {
		c.ip = int(dest.Uint64() - 1)
	} else {
		c.exit(errInvalidJump)
	}
}

func opJumpi(c *state) {
	dest := c.pop()
	cond := c.pop()

	if cond.Sign() != 0 {
		if c.validJumpdest(dest) {
			c.ip = int(dest.Uint64() - 1)
		} else {
			c.exit(errInvalidJump)
		}
	}
}

func opJumpDest(c *state) {
}

func opPush(n int) instruction {
	return func(c *state) {
		ins := c.code
		ip := c.ip

		v := c.push1()
		if ip+1+n > len(ins) {
			v.SetBytes(common.RightPadBytes(ins[ip+1:], n))
		} else {
			v.SetBytes(ins[ip+1 : ip+1+n])
		}

		c.ip += n
	}
}

func opDup(n int) instruction {
	return func(c *state) {
		if !c.stackAtLeast(n) {
			c.exit(&runtime.StackUnderflowError{StackLen: c.sp, Required: n})
		} else {
			val := c.peekAt(n)
			c.push1().Set(val)
		}
	}
}

func opSwap(n int) instruction {
	return func(c *state) {
		if !c.stackAtLeast(n + 1) {
			c.exit(&runtime.StackUnderflowError{StackLen: c.sp, Required: n + 1})
		} else {
			c.swap(n)
		}
	}
}

func opLog(size int) instruction {
	size = size - 1

	return func(c *state) {
		if c.inStaticCall() {
			c.exit(errReadOnly)

			return
		}

		if !c.stackAtLeast(2 + size) {
			c.exit(&runtime.StackUnderflowError{StackLen: c.sp, Required: 2 + size})

			return
		}

		mStart := c.pop()
		mSize := c.pop()

		topics := make([]types.Hash, size)
		for i := 0; i < size; i++ {
			topics[i] = bigToHash(c.pop())
		}

		var ok bool

		c.tmp, ok = c.get2(c.tmp[:0], mStart, mSize)
		if !ok {
			return
		}

		if !c.consumeGas(uint64(size) * LogTopicGas) {
			return
		}

		if !c.consumeGas(mSize.Uint64() * LogDataGas) {
			return
		}

		c.host.EmitLog(c.msg.Address, topics, c.tmp)
	}
}

func opStop(c *state) {
	c.halt()
}

func opCreate(op OpCode) instruction {
	return func(c *state) {
		if c.inStaticCall() {
			c.exit(errReadOnly)

			return
		}

		contract := c.buildCreateContract(op)
		if contract == nil {
			return
		}

		c.resetReturnData()

		result := c.host.Callx(contract, c.host)

		v := c.push1()
		if result.Failed() {
			v.Set(zero)
		} else {
			v.SetBytes(contract.Address.Bytes())
		}

		c.gas += result.GasLeft

		if result.Reverted() {
			c.returnData = append(c.returnData[:0], result.ReturnValue...)
		}
	}
}

func opCall(op OpCode) instruction {
	return func(c *state) {
		c.resetReturnData()

		if op == CALL && c.inStaticCall() {
			if val := c.peekAt(3); val != nil && val.BitLen() > 0 {
				c.exit(errReadOnly)

				return
			}
		}

		contract, callType := c.buildCallContract(op)
		if contract == nil {
			return
		}

		contract.Type = callType

		result := c.host.Callx(contract, c.host)

		v := c.push1()
		if result.Succeeded() {
			v.Set(one)
		} else {
			v.Set(zero)
		}

		if result.Succeeded() || result.Reverted() {
			if len(result.ReturnValue) != 0 && contract.RetSize != 0 {
				offset := contract.RetOffset
				copy(c.memory[offset:offset+contract.RetSize], result.ReturnValue)
			}
		}

		c.gas += result.GasLeft
		c.returnData = append(c.returnData[:0], result.ReturnValue...)
	}
}

func (c *state) buildCallContract(op OpCode) (*runtime.Contract, runtime.CallType) {
	var callType runtime.CallType

	switch op {
	case CALL:
		callType = runtime.Call
	case CALLCODE:
		callType = runtime.CallCode
	case DELEGATECALL:
		callType = runtime.DelegateCall
	case STATICCALL:
		callType = runtime.StaticCall
	default:
		panic("BUG: not a call opcode")
	}

	// pop input arguments
	initialGas := c.pop()
	addr, _ := c.popAddr()

	var value *big.Int
	if op == CALL || op == CALLCODE {
		value = c.pop()
	}

	// input range
	inOffset := c.pop()
	inSize := c.pop()

	// output range
	retOffset := c.pop()
	retSize := c.pop()

	// memory needs to cover both the input read and the output write
	in := calcMemSize(inOffset, inSize)
	ret := calcMemSize(retOffset, retSize)

	max := in
	if in.Cmp(ret) < 0 {
		max = ret
	}

	if !max.IsUint64() {
		c.exit(errOutOfGas)

		return nil, callType
	}

	if !c.checkMemory(zero, max) {
		return nil, callType
	}

	args, ok := c.get2(nil, inOffset, inSize)
	if !ok {
		return nil, callType
	}

	gasCost := c.gasTable.Calls
	transfersValue := value != nil && value.Sign() != 0

	if op == CALL {
		if transfersValue && c.host.Empty(addr) {
			gasCost += CallNewAccountGas
		}
	}

	if op == CALL || op == CALLCODE {
		if transfersValue {
			gasCost += CallValueTransferGas
		}
	}

	if c.gas < gasCost {
		c.exit(errOutOfGas)

		return nil, callType
	}

	// the caller may forward at most 63/64 of what is left after the
	// fixed costs
	gas := callGas(c.gas-gasCost, initialGas)

	// consume both the fixed cost and the forwarded gas
	if !c.consumeGas(gasCost + gas) {
		return nil, callType
	}

	// the stipend is granted on top of the forwarded gas, not taken
	// from the caller
	if transfersValue {
		gas += CallStipend
	}

	parent := c

	contract := runtime.NewContractCall(
		c.msg.Depth+1,
		parent.msg.Origin,
		parent.msg.Address,
		addr,
		value,
		gas,
		c.host.GetCode(addr),
		args,
	)

	contract.RetOffset = retOffset.Uint64()
	contract.RetSize = retSize.Uint64()

	if op == STATICCALL || parent.msg.Static {
		contract.Static = true
	}

	if op == CALLCODE || op == DELEGATECALL {
		contract.Address = parent.msg.Address

		if op == DELEGATECALL {
			contract.Value = parent.msg.Value
			contract.Caller = parent.msg.Caller
		}
	}

	return contract, callType
}

// callGas applies the 63/64 rule over the gas available after the
// fixed costs
func callGas(availableGas uint64, callCost *big.Int) uint64 {
	gas := availableGas - availableGas/64

	if callCost.BitLen() > 64 || gas < callCost.Uint64() {
		return gas
	}

	return callCost.Uint64()
}

func (c *state) buildCreateContract(op OpCode) *runtime.Contract {
	// pop input arguments
	value := c.pop()
	offset := c.pop()
	length := c.pop()

	var salt *big.Int
	if op == CREATE2 {
		salt = c.pop()
	}

	if !c.checkMemory(offset, length) {
		return nil
	}

	input, ok := c.get2(nil, offset, length)
	if !ok {
		return nil
	}

	if op == CREATE2 {
		// hashing the init code for the address derivation
		size := length.Uint64()
		if !c.consumeGas(((size + 31) / 32) * Sha3WordGas) {
			return nil
		}
	}

	// all but 1/64th of the remaining gas goes to the child frame
	gas := c.gas
	gas -= gas / 64

	if !c.consumeGas(gas) {
		return nil
	}

	var address types.Address
	if op == CREATE {
		address = crypto.CreateAddress(c.msg.Address, c.host.GetNonce(c.msg.Address))
	} else {
		address = crypto.CreateAddress2(c.msg.Address, bigToHash(salt), input)
	}

	contract := runtime.NewContractCreation(
		c.msg.Depth+1,
		c.msg.Origin,
		c.msg.Address,
		address,
		value,
		gas,
		input,
	)

	if op == CREATE2 {
		contract.Type = runtime.Create2
	}

	return contract
}

func opHalt(op OpCode) instruction {
	return func(c *state) {
		offset := c.pop()
		size := c.pop()

		var ok bool

		c.ret, ok = c.get2(c.ret[:0], offset, size)
		if !ok {
			return
		}

		if op == REVERT {
			c.exit(errRevert)
		} else {
			c.halt()
		}
	}
}

// calcMemSize calculates the memory size required for a step
func calcMemSize(off, l *big.Int) *big.Int {
	if l.Sign() == 0 {
		return zero
	}

	return new(big.Int).Add(off, l)
}

var (
	tt256   = new(big.Int).Lsh(big.NewInt(1), 256)   // 2 ** 256
	tt256m1 = new(big.Int).Sub(tt256, big.NewInt(1)) // 2 ** 256 - 1
)

// toU256 normalizes the value to 256-bit unsigned
func toU256(x *big.Int) *big.Int {
	if x.Sign() < 0 || x.BitLen() > 256 {
		x.And(x, tt256m1)
	}

	return x
}

// to256 views the word as a two's complement signed value
func to256(x *big.Int) *big.Int {
	if x.BitLen() > 255 {
		x.Sub(x, tt256)
	}

	return x
}
