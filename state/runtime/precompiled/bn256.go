package precompiled

import (
	"errors"
	"math/big"

	bn256 "github.com/umbracle/go-eth-bn256"
)

var errInvalidCurvePoint = errors.New("invalid point on the curve")

// newCurvePoint unmarshals a binary blob into a bn256 elliptic curve
// point, returning an error if the point is invalid
func newCurvePoint(blob []byte) (*bn256.G1, error) {
	p := new(bn256.G1)
	if _, err := p.Unmarshal(blob); err != nil {
		return nil, err
	}

	return p, nil
}

// newTwistPoint unmarshals a binary blob into a bn256 twist point
func newTwistPoint(blob []byte) (*bn256.G2, error) {
	p := new(bn256.G2)
	if _, err := p.Unmarshal(blob); err != nil {
		return nil, err
	}

	return p, nil
}

type bn256Add struct {
	p *Precompiled
}

func (b *bn256Add) gas(input []byte) uint64 {
	return 500
}

func (b *bn256Add) run(input []byte) ([]byte, error) {
	var val []byte

	val, input = b.p.get(input, 64)

	p1, err := newCurvePoint(val)
	if err != nil {
		return nil, errInvalidCurvePoint
	}

	val, _ = b.p.get(input, 64)

	p2, err := newCurvePoint(val)
	if err != nil {
		return nil, errInvalidCurvePoint
	}

	c := new(bn256.G1)
	c.Add(p1, p2)

	return c.Marshal(), nil
}

type bn256Mul struct {
	p *Precompiled
}

func (b *bn256Mul) gas(input []byte) uint64 {
	return 40000
}

func (b *bn256Mul) run(input []byte) ([]byte, error) {
	var v []byte

	v, input = b.p.get(input, 64)

	p, err := newCurvePoint(v)
	if err != nil {
		return nil, errInvalidCurvePoint
	}

	v, _ = b.p.get(input, 32)

	c := new(bn256.G1)
	c.ScalarMult(p, new(big.Int).SetBytes(v))

	return c.Marshal(), nil
}

type bn256Pairing struct {
	p *Precompiled
}

func (b *bn256Pairing) gas(input []byte) uint64 {
	return 100000 + 80000*uint64(len(input)/192)
}

var (
	trueBytes  = []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}
	falseBytes = make([]byte, 32)
)

func (b *bn256Pairing) run(input []byte) ([]byte, error) {
	if len(input)%192 != 0 {
		return nil, errInvalidCurvePoint
	}

	num := len(input) / 192

	cs := make([]*bn256.G1, num)
	ts := make([]*bn256.G2, num)

	for i := 0; i < num; i++ {
		c, err := newCurvePoint(input[i*192 : i*192+64])
		if err != nil {
			return nil, errInvalidCurvePoint
		}

		t, err := newTwistPoint(input[i*192+64 : i*192+192])
		if err != nil {
			return nil, errInvalidCurvePoint
		}

		cs[i] = c
		ts[i] = t
	}

	if bn256.PairingCheck(cs, ts) {
		return trueBytes, nil
	}

	return falseBytes, nil
}
