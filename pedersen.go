package p256k1

import "errors"

// Commitment is an opaque Pedersen commitment C = blind*G + value*H.
// Internally it stores the raw affine coordinates, like PublicKey; the
// wire format (PedersenCommitmentSerialize) is a distinct 33-byte
// encoding whose header byte is never confused with a compressed
// public key's.
type Commitment struct {
	data [64]byte
}

// Pedersen commitment wire-format header bytes: 0x08 for even y, 0x09
// for odd y, chosen so a serialized commitment never collides with a
// SEC1 public key tag (0x02-0x04, 0x06-0x07).
const (
	TagPedersenEven = 0x08
	TagPedersenOdd  = 0x09
)

func commitmentLoad(ge *GroupElementAffine, c *Commitment) bool {
	ge.fromBytes(c.data[:])
	return ge.isInfinity() || ge.isValid()
}

func commitmentSave(c *Commitment, ge *GroupElementAffine) {
	ge.toBytes(c.data[:])
}

// PedersenCommit computes commit = blind*G + value*H.
func PedersenCommit(ctx *Context, commit *Commitment, blind32 []byte, value uint64) bool {
	if !argCheck(ctx, commit != nil, "commit is nil") {
		return false
	}
	if !argCheck(ctx, ctx == nil || ctx.canCommit(), "context not built for commit") {
		return false
	}
	if len(blind32) != 32 {
		return false
	}

	var b Scalar
	b.setB32(blind32)

	var v Scalar
	v.setInt(uint(value))

	var bg GroupElementJacobian
	EcmultGen(&bg, &b)
	b.clear()

	var vh GroupElementJacobian
	EcmultConst(&vh, &v, &GeneratorH)

	var sum GroupElementJacobian
	sum.addVar(&bg, &vh)

	var sumAff GroupElementAffine
	sumAff.setGEJ(&sum)
	if sumAff.isInfinity() {
		return false
	}

	commitmentSave(commit, &sumAff)
	return true
}

// PedersenCommitmentSerialize encodes commit as a 33-byte compressed
// point tagged 0x08/0x09, distinguishing it on the wire from a public key.
func PedersenCommitmentSerialize(ctx *Context, output33 []byte, commit *Commitment) bool {
	if commit == nil || len(output33) != 33 {
		return false
	}

	var ge GroupElementAffine
	if !commitmentLoad(&ge, commit) || ge.isInfinity() {
		return false
	}
	ge.x.normalize()
	ge.y.normalize()

	if ge.y.isOdd() {
		output33[0] = TagPedersenOdd
	} else {
		output33[0] = TagPedersenEven
	}
	ge.x.getB32(output33[1:33])
	return true
}

// PedersenCommitmentParse decodes a 33-byte tagged compressed point back
// into commit.
func PedersenCommitmentParse(ctx *Context, commit *Commitment, input33 []byte) bool {
	if commit == nil || len(input33) != 33 {
		return false
	}
	if input33[0] != TagPedersenEven && input33[0] != TagPedersenOdd {
		return false
	}

	var x FieldElement
	if err := x.setB32(input33[1:33]); err != nil {
		return false
	}

	var ge GroupElementAffine
	if !ge.setXOVar(&x, input33[0] == TagPedersenOdd) {
		return false
	}

	commitmentSave(commit, &ge)
	return true
}

// PedersenBlindSum computes the signed sum of blinding factors mod n:
// the first npositive blinds are added, the rest subtracted. It fails if
// any input scalar overflows n.
func PedersenBlindSum(ctx *Context, blinds [][]byte, npositive int) ([]byte, error) {
	if npositive < 0 || npositive > len(blinds) {
		return nil, errors.New("npositive out of range")
	}

	var sum Scalar
	for i, b32 := range blinds {
		if len(b32) != 32 {
			return nil, errors.New("blind must be 32 bytes")
		}
		var b Scalar
		if overflow := b.setB32(b32); overflow {
			return nil, errors.New("blind overflows curve order")
		}
		if i < npositive {
			sum.add(&sum, &b)
		} else {
			var neg Scalar
			neg.negate(&b)
			sum.add(&sum, &neg)
		}
		b.clear()
	}

	out := make([]byte, 32)
	sum.getB32(out)
	sum.clear()
	return out, nil
}

// PedersenVerifyTally checks that the positive commitments minus the
// negative commitments minus excess*H sum to infinity, i.e. that the
// values and blinds underlying the commitments balance.
func PedersenVerifyTally(ctx *Context, positive, negative []*Commitment, excess int64) bool {
	var acc GroupElementJacobian
	acc.setInfinity()

	for _, c := range positive {
		var ge GroupElementAffine
		if !commitmentLoad(&ge, c) {
			return false
		}
		var gej GroupElementJacobian
		gej.setGE(&ge)
		acc.addVar(&acc, &gej)
	}

	for _, c := range negative {
		var ge GroupElementAffine
		if !commitmentLoad(&ge, c) {
			return false
		}
		var negGe GroupElementAffine
		negGe.negate(&ge)
		var gej GroupElementJacobian
		gej.setGE(&negGe)
		acc.addVar(&acc, &gej)
	}

	var e Scalar
	neg := excess < 0
	mag := uint64(excess)
	if neg {
		mag = uint64(-excess)
	}
	e.setInt(uint(mag))
	if neg {
		e.negate(&e)
	}

	var eh GroupElementJacobian
	EcmultConst(&eh, &e, &GeneratorH)
	var negEh GroupElementJacobian
	negEh.negate(&eh)

	acc.addVar(&acc, &negEh)
	return acc.isInfinity()
}
