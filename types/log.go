package types

// Log is one entry emitted by a LOG opcode
type Log struct {
	Address Address
	Topics  []Hash
	Data    []byte
}

func (l *Log) Copy() *Log {
	ll := new(Log)
	ll.Address = l.Address

	ll.Topics = make([]Hash, len(l.Topics))
	copy(ll.Topics, l.Topics)

	ll.Data = append(ll.Data[:0], l.Data...)

	return ll
}
