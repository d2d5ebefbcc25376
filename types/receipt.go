package types

type ReceiptStatus uint64

const (
	ReceiptFailed ReceiptStatus = iota
	ReceiptSuccess
)

// Receipt is the per-transaction result of block processing
type Receipt struct {
	Status            ReceiptStatus
	GasUsed           uint64
	CumulativeGasUsed uint64
	TxHash            Hash
	ContractAddress   *Address
	Logs              []*Log
}
