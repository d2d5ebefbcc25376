package precompiled

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umbracle/minievm/chain"
	"github.com/umbracle/minievm/helper/hex"
	"github.com/umbracle/minievm/state/runtime"
	"github.com/umbracle/minievm/types"
)

func TestIdentity(t *testing.T) {
	p := NewPrecompiled()

	c := &runtime.Contract{
		CodeAddress: types.StringToAddress("4"),
		Input:       []byte{0x1, 0x2, 0x3},
		Gas:         100,
	}

	res := p.Run(c, nil, chain.GasTable{})

	require.NoError(t, res.Err)
	assert.Equal(t, []byte{0x1, 0x2, 0x3}, res.ReturnValue)
	// 15 base + 3 for one word
	assert.Equal(t, uint64(100-18), res.GasLeft)
}

func TestSha256(t *testing.T) {
	p := NewPrecompiled()

	c := &runtime.Contract{
		CodeAddress: types.StringToAddress("2"),
		Input:       nil,
		Gas:         100,
	}

	res := p.Run(c, nil, chain.GasTable{})

	require.NoError(t, res.Err)
	assert.Equal(
		t,
		hex.MustDecodeHex("0xe3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"),
		res.ReturnValue,
	)
}

func TestRipemd160(t *testing.T) {
	p := NewPrecompiled()

	c := &runtime.Contract{
		CodeAddress: types.StringToAddress("3"),
		Input:       nil,
		Gas:         1000,
	}

	res := p.Run(c, nil, chain.GasTable{})

	require.NoError(t, res.Err)
	assert.Equal(
		t,
		hex.MustDecodeHex("0x0000000000000000000000009c1185a5c5e9fc54612808977ee8f548b2258d31"),
		res.ReturnValue,
	)
}

func TestEcrecover(t *testing.T) {
	p := NewPrecompiled()

	input := hex.MustDecodeHex(
		"0x47173285a8d7341e5e972fc677286384f802f8ef42a5ec5f03bbfa254cb01fad" +
			"000000000000000000000000000000000000000000000000000000000000001c" +
			"90f27b8b488db00b00606796d2987f6a5f59ae62ea05effe84fef5b8b0e54998" +
			"4a691139ad57a3f0b906637673aa2f63d1f55cb1a69199d4009eea23ceaddc93",
	)

	c := &runtime.Contract{
		CodeAddress: types.StringToAddress("1"),
		Input:       input,
		Gas:         5000,
	}

	res := p.Run(c, nil, chain.GasTable{})

	require.NoError(t, res.Err)
	assert.Equal(
		t,
		hex.MustDecodeHex("0x000000000000000000000000a94f5374fce5edbc8e2a8697c15331677e6ebf0b"),
		res.ReturnValue,
	)
	assert.Equal(t, uint64(2000), res.GasLeft)
}

func TestEcrecoverInvalidV(t *testing.T) {
	p := NewPrecompiled()

	// garbage recovery id yields an empty result, not an error
	input := make([]byte, 128)
	input[63] = 0x5

	c := &runtime.Contract{
		CodeAddress: types.StringToAddress("1"),
		Input:       input,
		Gas:         5000,
	}

	res := p.Run(c, nil, chain.GasTable{})

	require.NoError(t, res.Err)
	assert.Empty(t, res.ReturnValue)
}

func TestModExp(t *testing.T) {
	p := NewPrecompiled()

	// 8 ** 9 mod 10 == 8
	input := make([]byte, 0, 99)
	input = append(input, leftPad32(0x01)...)
	input = append(input, leftPad32(0x01)...)
	input = append(input, leftPad32(0x01)...)
	input = append(input, 0x08, 0x09, 0x0A)

	c := &runtime.Contract{
		CodeAddress: types.StringToAddress("5"),
		Input:       input,
		Gas:         100000,
	}

	res := p.Run(c, nil, chain.GasTable{})

	require.NoError(t, res.Err)
	assert.Equal(t, []byte{0x08}, res.ReturnValue)
}

func TestBn256AddZeroPoints(t *testing.T) {
	p := NewPrecompiled()

	// both points at infinity add to the point at infinity
	c := &runtime.Contract{
		CodeAddress: types.StringToAddress("6"),
		Input:       make([]byte, 128),
		Gas:         1000,
	}

	res := p.Run(c, nil, chain.GasTable{})

	require.NoError(t, res.Err)
	assert.Equal(t, make([]byte, 64), res.ReturnValue)
}

func TestOutOfGas(t *testing.T) {
	p := NewPrecompiled()

	c := &runtime.Contract{
		CodeAddress: types.StringToAddress("1"),
		Gas:         100,
	}

	res := p.Run(c, nil, chain.GasTable{})

	assert.ErrorIs(t, res.Err, runtime.ErrOutOfGas)
	assert.Equal(t, uint64(0), res.GasLeft)
}

func TestCanRun(t *testing.T) {
	p := NewPrecompiled()

	for i := 1; i <= 8; i++ {
		c := &runtime.Contract{CodeAddress: types.BytesToAddress([]byte{byte(i)})}
		assert.True(t, p.CanRun(c, nil))
	}

	c := &runtime.Contract{CodeAddress: types.BytesToAddress([]byte{0x9})}
	assert.False(t, p.CanRun(c, nil))
}

func leftPad32(b byte) []byte {
	buf := make([]byte, 32)
	buf[31] = b

	return buf
}
