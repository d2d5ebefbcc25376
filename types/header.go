package types

// Header carries the block fields the runtime environment exposes to
// contracts (COINBASE, TIMESTAMP, NUMBER, DIFFICULTY, GASLIMIT)
type Header struct {
	Hash       Hash
	ParentHash Hash
	Number     uint64
	Miner      Address
	Timestamp  uint64
	Difficulty uint64
	GasLimit   uint64
}

func (h *Header) Copy() *Header {
	hh := new(Header)
	*hh = *h

	return hh
}

// Block is the executable unit for ProcessBlock
type Block struct {
	Header       *Header
	Transactions []*Transaction
}
