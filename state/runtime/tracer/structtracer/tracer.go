package structtracer

import (
	"math/big"
	"sync"

	"github.com/umbracle/minievm/state/runtime/tracer"
	"github.com/umbracle/minievm/types"
)

// StructLog is the captured state of a single interpreter step
type StructLog struct {
	Pc            uint64   `json:"pc"`
	Op            string   `json:"op"`
	Gas           uint64   `json:"gas"`
	GasCost       uint64   `json:"gasCost"`
	Depth         int      `json:"depth"`
	Error         string   `json:"error,omitempty"`
	Stack         []string `json:"stack"`
	MemorySize    int      `json:"memSize"`
	ReturnDataLen int      `json:"returnDataLen"`
}

// Tracer records a StructLog per executed opcode
type Tracer struct {
	sync.Mutex

	logs     []StructLog
	gasLimit uint64
	gasLeft  uint64

	// pending holds the pre-step snapshot until ExecuteState completes it
	pending StructLog
}

func NewTracer() *Tracer {
	return &Tracer{}
}

func (t *Tracer) Clear() {
	t.Lock()
	defer t.Unlock()

	t.logs = t.logs[:0]
	t.gasLimit = 0
	t.gasLeft = 0
}

// GetResult returns the collected step logs
func (t *Tracer) GetResult() interface{} {
	t.Lock()
	defer t.Unlock()

	logs := make([]StructLog, len(t.logs))
	copy(logs, t.logs)

	return logs
}

func (t *Tracer) TxStart(gasLimit uint64) {
	t.Lock()
	defer t.Unlock()

	t.gasLimit = gasLimit
}

func (t *Tracer) TxEnd(gasLeft uint64) {
	t.Lock()
	defer t.Unlock()

	t.gasLeft = gasLeft
}

func (t *Tracer) CallStart(int, types.Address, types.Address, int, uint64, *big.Int, []byte) {
}

func (t *Tracer) CallEnd(int, []byte, error) {
}

func (t *Tracer) CaptureState(
	memory []byte,
	stack []*big.Int,
	opCode int,
	contractAddress types.Address,
	sp int,
	host tracer.RuntimeHost,
) {
	t.Lock()
	defer t.Unlock()

	st := make([]string, sp)
	for i := 0; i < sp; i++ {
		st[i] = "0x" + stack[i].Text(16)
	}

	t.pending = StructLog{
		Stack:      st,
		MemorySize: len(memory),
	}
}

func (t *Tracer) ExecuteState(
	contractAddress types.Address,
	ip uint64,
	opcode string,
	availableGas uint64,
	cost uint64,
	lastReturnData []byte,
	depth int,
	err error,
	host tracer.RuntimeHost,
) {
	t.Lock()
	defer t.Unlock()

	log := t.pending
	log.Pc = ip
	log.Op = opcode
	log.Gas = availableGas
	log.GasCost = cost
	log.Depth = depth
	log.ReturnDataLen = len(lastReturnData)

	if err != nil {
		log.Error = err.Error()
	}

	t.logs = append(t.logs, log)
}
