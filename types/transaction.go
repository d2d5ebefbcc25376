package types

import "math/big"

// Transaction is the message applied by the executor. The envelope
// concerns (signatures, rlp wire format, receipts tries) live outside
// this module, so the sender is carried explicitly.
type Transaction struct {
	Nonce    uint64
	GasPrice *big.Int
	Gas      uint64
	To       *Address
	Value    *big.Int
	Input    []byte
	From     Address
}

// IsContractCreation returns whether the transaction creates a contract
func (t *Transaction) IsContractCreation() bool {
	return t.To == nil
}

func (t *Transaction) Copy() *Transaction {
	tt := new(Transaction)
	*tt = *t

	tt.GasPrice = new(big.Int)
	if t.GasPrice != nil {
		tt.GasPrice.Set(t.GasPrice)
	}

	tt.Value = new(big.Int)
	if t.Value != nil {
		tt.Value.Set(t.Value)
	}

	if t.To != nil {
		to := *t.To
		tt.To = &to
	}

	tt.Input = append(tt.Input[:0], t.Input...)

	return tt
}
