package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytesToHash(t *testing.T) {
	// short input is left-padded
	h := BytesToHash([]byte{0x1})
	assert.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000001", h.String())

	// long input keeps the last 32 bytes
	long := make([]byte, 40)
	long[39] = 0xaa
	assert.Equal(t, byte(0xaa), BytesToHash(long)[31])
}

func TestBytesToAddress(t *testing.T) {
	a := BytesToAddress([]byte{0x1})
	assert.Equal(t, "0x0000000000000000000000000000000000000001", a.String())

	// a 32-byte word keeps the low 20 bytes
	word := make([]byte, 32)
	word[11] = 0xff
	word[31] = 0x1

	assert.Equal(t, byte(0), BytesToAddress(word)[0])
	assert.Equal(t, byte(0x1), BytesToAddress(word)[19])
}

func TestHashTextRoundtrip(t *testing.T) {
	h := StringToHash("0x1234")

	buf, err := h.MarshalText()
	assert.NoError(t, err)

	var h2 Hash

	assert.NoError(t, h2.UnmarshalText(buf))
	assert.Equal(t, h, h2)
}

func TestEmptyHash(t *testing.T) {
	assert.True(t, EmptyHash(Hash{}))
	assert.False(t, EmptyHash(StringToHash("0x1")))
}
