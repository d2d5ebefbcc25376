package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/umbracle/minievm/helper/hex"
	"github.com/umbracle/minievm/types"
)

func TestKeccak256(t *testing.T) {
	assert.Equal(
		t,
		hex.MustDecodeHex("0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"),
		Keccak256(nil),
	)

	assert.Equal(
		t,
		hex.MustDecodeHex("0x4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45"),
		Keccak256([]byte("abc")),
	)

	// chunked writes hash the concatenation
	assert.Equal(t, Keccak256([]byte("abc")), Keccak256([]byte("a"), []byte("bc")))
}

func TestCreateAddress(t *testing.T) {
	addr := types.StringToAddress("0xb94f5374fce5edbc8e2a8697c15331677e6ebf0b")

	cases := []struct {
		nonce    uint64
		expected string
	}{
		{0, "0xf1ecf98489fa9ed60a664fc4998db699cfa39d40"},
		{1, "0x30c7cc0d18123b445c2636ff9069ef28c0dc32b5"},
		{2, "0xff151c621cd011e353fa1be2af3ff0256e6a500d"},
	}

	for _, c := range cases {
		assert.Equal(t, types.StringToAddress(c.expected), CreateAddress(addr, c.nonce))
	}
}

func TestCreateAddress2(t *testing.T) {
	// deterministic, independent of the creator nonce
	addr := types.StringToAddress("0x1")

	a1 := CreateAddress2(addr, types.StringToHash("0x2"), []byte{0x1})
	a2 := CreateAddress2(addr, types.StringToHash("0x2"), []byte{0x1})
	a3 := CreateAddress2(addr, types.StringToHash("0x3"), []byte{0x1})

	assert.Equal(t, a1, a2)
	assert.NotEqual(t, a1, a3)
}
