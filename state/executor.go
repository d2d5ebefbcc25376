package state

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/hashicorp/go-hclog"

	"github.com/umbracle/minievm/chain"
	"github.com/umbracle/minievm/crypto"
	"github.com/umbracle/minievm/state/runtime"
	"github.com/umbracle/minievm/state/runtime/evm"
	"github.com/umbracle/minievm/state/runtime/precompiled"
	"github.com/umbracle/minievm/state/runtime/tracer"
	"github.com/umbracle/minievm/types"
)

const (
	callCreateDepth uint64 = 1024
	maxCodeSize            = 24576
)

var (
	ErrNonceTooLow               = errors.New("nonce too low")
	ErrNonceTooHigh              = errors.New("nonce too high")
	ErrBlockLimitReached         = errors.New("gas limit reached in the pool")
	ErrIntrinsicGasOverflow      = errors.New("overflow in intrinsic gas calculation")
	ErrNotEnoughIntrinsicGas     = errors.New("not enough gas supplied for intrinsic gas costs")
	ErrInsufficientBalanceForGas = errors.New("insufficient balance to pay for gas")
)

var emptyHash = types.Hash{}

// GetHashByNumber returns the hash of a block number
type GetHashByNumber = func(i uint64) types.Hash

// Executor applies blocks and transactions on top of a state
type Executor struct {
	logger   hclog.Logger
	gasTable chain.GasTable
	state    State

	// GetHash resolves BLOCKHASH lookups; a nil helper yields the
	// zero hash
	GetHash GetHashByNumber
}

// NewExecutor creates a new executor over the given state
func NewExecutor(logger hclog.Logger, state State) *Executor {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Executor{
		logger:   logger.Named("executor"),
		gasTable: chain.GasTableDefault,
		state:    state,
	}
}

// SetGasTable overrides the default gas schedule
func (e *Executor) SetGasTable(gasTable chain.GasTable) {
	e.gasTable = gasTable
}

// ProcessBlock applies all the transactions of the block on top of the
// current state and commits the result
func (e *Executor) ProcessBlock(block *types.Block) ([]*types.Receipt, error) {
	t := e.BeginTxn(block.Header, block.Header.Miner)

	var (
		receipts   = []*types.Receipt{}
		cumulative = uint64(0)
	)

	for indx, tx := range block.Transactions {
		res, err := t.Apply(tx)
		if err != nil {
			return nil, fmt.Errorf("failed to apply transaction %d: %w", indx, err)
		}

		cumulative += res.GasUsed

		receipt := &types.Receipt{
			GasUsed:           res.GasUsed,
			CumulativeGasUsed: cumulative,
			Logs:              res.Logs,
			Status:            types.ReceiptSuccess,
		}

		if res.Failed() {
			receipt.Status = types.ReceiptFailed
		}

		if tx.IsContractCreation() {
			addr := crypto.CreateAddress(tx.From, tx.Nonce)
			receipt.ContractAddress = &addr
		}

		receipts = append(receipts, receipt)
	}

	if _, err := e.state.Commit(t.Commit()); err != nil {
		return nil, err
	}

	return receipts, nil
}

// BeginTxn creates a transition over a fresh snapshot with the
// environment of the given header
func (e *Executor) BeginTxn(header *types.Header, coinbase types.Address) *Transition {
	ctx := runtime.TxContext{
		Coinbase:   coinbase,
		Timestamp:  int64(header.Timestamp),
		Number:     int64(header.Number),
		Difficulty: types.BytesToHash(new(big.Int).SetUint64(header.Difficulty).Bytes()),
		GasLimit:   int64(header.GasLimit),
	}

	t := &Transition{
		logger:      e.logger,
		ctx:         ctx,
		state:       NewTxn(e.state.NewSnapshot()),
		getHash:     e.GetHash,
		gasTable:    e.gasTable,
		evm:         evm.NewEVM(),
		precompiles: precompiled.NewPrecompiled(),
		gasPool:     header.GasLimit,
	}

	return t
}

// Transition applies transactions over one block. It implements the
// runtime.Host interface consumed by the interpreter.
type Transition struct {
	logger hclog.Logger

	ctx   runtime.TxContext
	state *Txn

	getHash  GetHashByNumber
	gasTable chain.GasTable

	evm         *evm.EVM
	precompiles *precompiled.Precompiled
	tracer      tracer.Tracer

	// gasPool is the gas left for transactions in the block
	gasPool uint64

	// gas of the transaction being applied
	gas        uint64
	initialGas uint64
}

var _ runtime.Host = &Transition{}

// Txn returns the working cache of the transition
func (t *Transition) Txn() *Txn {
	return t.state
}

// SetTracer installs a step observer for the transition
func (t *Transition) SetTracer(tr tracer.Tracer) {
	t.tracer = tr
}

// Commit returns the mutated objects to persist
func (t *Transition) Commit() []*Object {
	return t.state.Commit(true)
}

// TxnResult is the transaction-level result surfaced to the caller
type TxnResult struct {
	ReturnValue []byte
	GasUsed     uint64
	GasLeft     uint64
	Refunded    uint64

	Logs          []*types.Log
	Selfdestructs []*Selfdestruct

	Exception      bool
	ExceptionError runtime.Exception
	Err            error
}

func (r *TxnResult) Failed() bool {
	return r.Exception
}

// ErrorMessage is the human-readable failure reason of the result
func (r *TxnResult) ErrorMessage() string {
	if !r.Exception {
		return ""
	}

	return r.ExceptionError.String()
}

// Apply executes the transaction against the working cache. An error
// return means the transaction could not be included at all; a
// TxnResult with the exception flag set means it executed and failed.
func (t *Transition) Apply(msg *types.Transaction) (*TxnResult, error) {
	s := t.state.Snapshot()

	result, err := t.apply(msg)
	if err != nil {
		t.state.RevertToSnapshot(s)

		return nil, err
	}

	t.state.CleanDeleteObjects(true)

	t.logger.Debug(
		"apply transaction",
		"from", msg.From,
		"nonce", msg.Nonce,
		"gasUsed", result.GasUsed,
		"exception", result.Exception,
	)

	return result, nil
}

func (t *Transition) subGasPool(amount uint64) error {
	if t.gasPool < amount {
		return ErrBlockLimitReached
	}

	t.gasPool -= amount

	return nil
}

func (t *Transition) addGasPool(amount uint64) {
	t.gasPool += amount
}

func (t *Transition) apply(msg *types.Transaction) (*TxnResult, error) {
	txn := t.state

	// per-transaction context
	t.ctx.Origin = msg.From
	t.ctx.GasPrice = types.BytesToHash(msg.GasPrice.Bytes())

	// check nonce is correct
	nonce := txn.GetNonce(msg.From)
	if nonce < msg.Nonce {
		return nil, ErrNonceTooHigh
	} else if nonce > msg.Nonce {
		return nil, ErrNonceTooLow
	}

	// buy gas
	mgval := new(big.Int).Mul(new(big.Int).SetUint64(msg.Gas), msg.GasPrice)
	if txn.GetBalance(msg.From).Cmp(mgval) < 0 {
		return nil, ErrInsufficientBalanceForGas
	}

	// check if there is space for this tx in the block gas pool
	if err := t.subGasPool(msg.Gas); err != nil {
		return nil, err
	}

	txn.SubBalance(msg.From, mgval)

	t.gas = msg.Gas
	t.initialGas = msg.Gas

	// reduce the intrinsic gas from the total gas
	intrinsic, err := transactionGasCost(msg)
	if err != nil {
		return nil, err
	}

	if t.gas < intrinsic {
		return nil, ErrNotEnoughIntrinsicGas
	}

	t.gas -= intrinsic

	if t.tracer != nil {
		t.tracer.TxStart(msg.Gas)
	}

	var result *runtime.ExecutionResult
	if msg.IsContractCreation() {
		result = t.Create2(msg.From, msg.Input, msg.Value, t.gas)
	} else {
		txn.IncrNonce(msg.From)

		result = t.Call2(msg.From, *msg.To, msg.Input, msg.Value, t.gas)
	}

	// the refund counter is applied at transaction end, capped at
	// half of the gas used
	gasUsed := msg.Gas - result.GasLeft

	refund := txn.GetRefund()
	if maxRefund := gasUsed / 2; refund > maxRefund {
		refund = maxRefund
	}

	gasLeft := result.GasLeft + refund
	gasUsed -= refund

	// return the remaining gas, exchanged at the original rate
	remaining := new(big.Int).Mul(new(big.Int).SetUint64(gasLeft), msg.GasPrice)
	txn.AddBalance(msg.From, remaining)

	// pay the coinbase for the gas spent
	coinbaseFee := new(big.Int).Mul(new(big.Int).SetUint64(gasUsed), msg.GasPrice)
	txn.AddBalance(t.ctx.Coinbase, coinbaseFee)

	// return the unused gas to the block gas pool
	t.addGasPool(gasLeft)

	if t.tracer != nil {
		t.tracer.TxEnd(gasLeft)
	}

	res := &TxnResult{
		ReturnValue:    result.ReturnValue,
		GasUsed:        gasUsed,
		GasLeft:        gasLeft,
		Refunded:       refund,
		Logs:           txn.Logs(),
		Selfdestructs:  txn.Selfdestructs(),
		Exception:      result.Failed(),
		ExceptionError: result.Exception(),
		Err:            result.Err,
	}

	return res, nil
}

// transactionGasCost returns the intrinsic gas of the transaction
func transactionGasCost(msg *types.Transaction) (uint64, error) {
	cost := uint64(0)

	if msg.IsContractCreation() {
		cost += chain.TxGasContractCreation
	} else {
		cost += chain.TxGas
	}

	payload := msg.Input
	if len(payload) > 0 {
		zeros := uint64(0)

		for i := 0; i < len(payload); i++ {
			if payload[i] == 0 {
				zeros++
			}
		}

		nonZeros := uint64(len(payload)) - zeros

		if (math.MaxUint64-cost)/chain.TxDataNonZeroGas < nonZeros {
			return 0, ErrIntrinsicGasOverflow
		}

		cost += nonZeros * chain.TxDataNonZeroGas

		if (math.MaxUint64-cost)/chain.TxDataZeroGas < zeros {
			return 0, ErrIntrinsicGasOverflow
		}

		cost += zeros * chain.TxDataZeroGas
	}

	return cost, nil
}

// Call2 is the external call entry point (run-call)
func (t *Transition) Call2(
	caller types.Address,
	to types.Address,
	input []byte,
	value *big.Int,
	gas uint64,
) *runtime.ExecutionResult {
	c := runtime.NewContractCall(1, caller, caller, to, value, gas, t.state.GetCode(to), input)

	return t.applyCall(c, runtime.Call, t)
}

// Create2 is the external create entry point
func (t *Transition) Create2(
	caller types.Address,
	code []byte,
	value *big.Int,
	gas uint64,
) *runtime.ExecutionResult {
	address := crypto.CreateAddress(caller, t.state.GetNonce(caller))
	contract := runtime.NewContractCreation(1, caller, caller, address, value, gas, code)

	return t.applyCreate(contract, t)
}

// RunCode executes the given code in a synthetic frame at the address,
// without any transfer (run-code)
func (t *Transition) RunCode(
	addr types.Address,
	code []byte,
	input []byte,
	value *big.Int,
	gas uint64,
) *runtime.ExecutionResult {
	c := runtime.NewContractCall(1, t.ctx.Origin, t.ctx.Origin, addr, value, gas, code, input)

	return t.run(c, t)
}

// run dispatches the frame, precompiled contracts first
func (t *Transition) run(contract *runtime.Contract, host runtime.Host) *runtime.ExecutionResult {
	if t.precompiles.CanRun(contract, host) {
		return t.precompiles.Run(contract, host, t.gasTable)
	}

	return t.evm.Run(contract, host, t.gasTable)
}

func (t *Transition) canTransfer(from types.Address, amount *big.Int) bool {
	if amount == nil {
		return true
	}

	return t.state.GetBalance(from).Cmp(amount) >= 0
}

// Transfer moves value between two accounts
func (t *Transition) Transfer(from, to types.Address, amount *big.Int) error {
	if amount == nil {
		return nil
	}

	if balance := t.state.GetBalance(from); balance.Cmp(amount) < 0 {
		return runtime.ErrNotEnoughFunds
	}

	t.state.SubBalance(from, amount)
	t.state.AddBalance(to, amount)

	return nil
}

// applyCall brackets one nested call frame: checkpoint, transfer,
// run, revert on failure. A child exception never propagates, the
// caller observes it through the result.
func (t *Transition) applyCall(
	c *runtime.Contract,
	callType runtime.CallType,
	host runtime.Host,
) *runtime.ExecutionResult {
	if uint64(c.Depth) > callCreateDepth {
		return &runtime.ExecutionResult{
			GasLeft: c.Gas,
			Err:     runtime.ErrDepth,
		}
	}

	transfersValue := c.Value != nil && c.Value.Sign() != 0

	if callType == runtime.Call || callType == runtime.CallCode {
		if !t.canTransfer(c.Caller, c.Value) {
			return &runtime.ExecutionResult{
				GasLeft: c.Gas,
				Err:     runtime.ErrNotEnoughFunds,
			}
		}
	}

	snapshot := t.state.Snapshot()

	// only CALL moves balance; CALLCODE accounts for the value but
	// executes at the caller, DELEGATECALL inherits it
	if callType == runtime.Call && transfersValue {
		if !t.state.Exist(c.Address) {
			t.state.CreateAccount(c.Address)
		}

		if err := t.Transfer(c.Caller, c.Address, c.Value); err != nil {
			t.state.RevertToSnapshot(snapshot)

			return &runtime.ExecutionResult{
				GasLeft: c.Gas,
				Err:     err,
			}
		}
	}

	if t.tracer != nil {
		t.tracer.CallStart(c.Depth, c.Caller, c.Address, int(callType), c.Gas, c.Value, c.Input)
	}

	result := t.run(c, host)

	if result.Failed() {
		t.state.RevertToSnapshot(snapshot)
	}

	if t.tracer != nil {
		t.tracer.CallEnd(c.Depth, result.ReturnValue, result.Err)
	}

	return result
}

// applyCreate brackets one create frame and persists the returned
// code on success
func (t *Transition) applyCreate(c *runtime.Contract, host runtime.Host) *runtime.ExecutionResult {
	gasLimit := c.Gas

	if uint64(c.Depth) > callCreateDepth {
		return &runtime.ExecutionResult{
			GasLeft: gasLimit,
			Err:     runtime.ErrDepth,
		}
	}

	if !t.canTransfer(c.Caller, c.Value) {
		return &runtime.ExecutionResult{
			GasLeft: gasLimit,
			Err:     runtime.ErrNotEnoughFunds,
		}
	}

	// increase the nonce of the creator
	t.state.IncrNonce(c.Caller)

	// check for address collisions
	contractHash := t.state.GetCodeHash(c.Address)
	if t.state.GetNonce(c.Address) != 0 ||
		(contractHash != emptyHash && contractHash != types.BytesToHash(emptyCodeHash)) {
		return &runtime.ExecutionResult{
			GasLeft: 0,
			Err:     runtime.ErrContractAddressCollision,
		}
	}

	// take a checkpoint of the current state
	snapshot := t.state.Snapshot()

	t.state.CreateAccount(c.Address)
	t.state.SetNonce(c.Address, 1)

	if err := t.Transfer(c.Caller, c.Address, c.Value); err != nil {
		t.state.RevertToSnapshot(snapshot)

		return &runtime.ExecutionResult{
			GasLeft: gasLimit,
			Err:     err,
		}
	}

	if t.tracer != nil {
		t.tracer.CallStart(c.Depth, c.Caller, c.Address, int(c.Type), c.Gas, c.Value, c.Input)
	}

	result := t.run(c, host)

	if result.Succeeded() {
		if len(result.ReturnValue) > maxCodeSize {
			result.Err = runtime.ErrMaxCodeSizeExceeded
		} else {
			// the returned data becomes the account code, paid per byte
			createDataGas := uint64(len(result.ReturnValue)) * evm.CreateDataGas
			if result.GasLeft < createDataGas {
				result.Err = runtime.ErrCodeStoreOutOfGas
				result.ReturnValue = nil
			} else {
				result.GasLeft -= createDataGas
				t.state.SetCode(c.Address, result.ReturnValue)
			}
		}
	}

	if result.Failed() {
		t.state.RevertToSnapshot(snapshot)

		if !result.Reverted() {
			result.GasLeft = 0
		}
	}

	if t.tracer != nil {
		t.tracer.CallEnd(c.Depth, result.ReturnValue, result.Err)
	}

	result.GasUsed = gasLimit - result.GasLeft

	return result
}

// runtime.Host interface

func (t *Transition) AccountExists(addr types.Address) bool {
	return t.state.Exist(addr)
}

func (t *Transition) Empty(addr types.Address) bool {
	return t.state.Empty(addr)
}

func (t *Transition) GetNonce(addr types.Address) uint64 {
	return t.state.GetNonce(addr)
}

func (t *Transition) GetStorage(addr types.Address, key types.Hash) types.Hash {
	return t.state.GetState(addr, key)
}

func (t *Transition) SetStorage(addr types.Address, key types.Hash, value types.Hash) runtime.StorageStatus {
	return t.state.SetStorage(addr, key, value)
}

func (t *Transition) GetBalance(addr types.Address) *big.Int {
	return t.state.GetBalance(addr)
}

func (t *Transition) GetCodeSize(addr types.Address) int {
	return t.state.GetCodeSize(addr)
}

func (t *Transition) GetCodeHash(addr types.Address) types.Hash {
	return t.state.GetCodeHash(addr)
}

func (t *Transition) GetCode(addr types.Address) []byte {
	return t.state.GetCode(addr)
}

// Selfdestruct schedules the deletion of the account, sweeping its
// balance to the beneficiary. The refund is credited only for the
// first selfdestruct of an address in the transaction.
func (t *Transition) Selfdestruct(addr types.Address, beneficiary types.Address) {
	if !t.state.HasSuicided(addr) {
		t.state.AddRefund(evm.SuicideRefundGas)
	}

	balance := t.state.GetBalance(addr)
	t.state.AddBalance(beneficiary, balance)
	t.state.Suicide(addr, beneficiary)
}

func (t *Transition) GetTxContext() runtime.TxContext {
	return t.ctx
}

func (t *Transition) GetBlockHash(number int64) types.Hash {
	if t.getHash == nil || number < 0 {
		return types.ZeroHash
	}

	return t.getHash(uint64(number))
}

func (t *Transition) EmitLog(addr types.Address, topics []types.Hash, data []byte) {
	log := &types.Log{
		Address: addr,
		Topics:  topics,
	}
	log.Data = append(log.Data, data...)

	t.state.AddLog(log)
}

func (t *Transition) Callx(c *runtime.Contract, h runtime.Host) *runtime.ExecutionResult {
	if c.Type == runtime.Create || c.Type == runtime.Create2 {
		return t.applyCreate(c, h)
	}

	return t.applyCall(c, c.Type, h)
}

func (t *Transition) AddRefund(gas uint64) {
	t.state.AddRefund(gas)
}

func (t *Transition) GetRefund() uint64 {
	return t.state.GetRefund()
}

func (t *Transition) GetTracer() tracer.Tracer {
	return t.tracer
}
