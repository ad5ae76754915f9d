package p256k1

import (
	"encoding/binary"
	"errors"
)

// A range proof attests that the value hidden inside a Pedersen
// commitment lies in [minValue, minValue + 4^nDigits*10^exp) without
// revealing the value. The value is written in base 4 ("mantissa
// digits"): v = minValue + 10^exp * sum(d_i * 4^i), and each digit gets
// its own Pedersen sub-commitment plus a 4-way Borromean ring proving
// d_i in {0,1,2,3}.
//
// Every digit ring has three positions the real digit isn't using.
// Rather than fill those with independent randomness, their responses
// are a nonce-derived one-time pad XORed with a chunk of an optional
// caller message, so RangeproofRewind can recover that message
// alongside (value, blind) given the signer's nonce - the same
// steganographic trick the ring's own unused slots are good for in any
// Borromean range proof.
const rangeproofMaxDigits = 32 // covers values up to 4^32 * 10^exp

type rangeproofHeader struct {
	exp      int32
	nDigits  uint8
	minValue uint64
}

func (h *rangeproofHeader) serialize() []byte {
	out := make([]byte, 0, 13)
	var expBytes [4]byte
	binary.BigEndian.PutUint32(expBytes[:], uint32(h.exp))
	out = append(out, expBytes[:]...)
	out = append(out, h.nDigits)
	var minBytes [8]byte
	binary.BigEndian.PutUint64(minBytes[:], h.minValue)
	out = append(out, minBytes[:]...)
	return out
}

func parseRangeproofHeader(buf []byte) (*rangeproofHeader, int, error) {
	if len(buf) < 13 {
		return nil, 0, errors.New("range proof header truncated")
	}
	h := &rangeproofHeader{
		exp:      int32(binary.BigEndian.Uint32(buf[0:4])),
		nDigits:  buf[4],
		minValue: binary.BigEndian.Uint64(buf[5:13]),
	}
	return h, 13, nil
}

// scale10 returns 10^exp; exp is kept small so the scaled digit weights
// never approach a uint64 overflow.
func scale10(exp int32) (uint64, error) {
	if exp < 0 || exp > 18 {
		return 0, errors.New("exponent out of range")
	}
	s := uint64(1)
	for i := int32(0); i < exp; i++ {
		s *= 10
	}
	return s, nil
}

// digitWeight returns 4^i * scale as both a Scalar (for EC arithmetic)
// and a uint64 (for plain digit decomposition), erroring if it would
// overflow a uint64.
func digitWeight(scale uint64, i int) (*Scalar, uint64, error) {
	w := uint64(1)
	for j := 0; j < i; j++ {
		if w > ^uint64(0)/4 {
			return nil, 0, errors.New("digit weight overflow")
		}
		w *= 4
	}
	if scale != 0 && w > ^uint64(0)/scale {
		return nil, 0, errors.New("digit weight overflow")
	}
	w *= scale
	var s Scalar
	s.setInt(uint(w))
	return &s, w, nil
}

func deriveDigitBlind(nonce32 []byte, i int) Scalar {
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], uint32(i))
	digest := TaggedHash(append([]byte("rangeproof-blind-"), idx[:]...), nonce32)
	var s Scalar
	s.setB32(digest[:])
	return s
}

func deriveDigitNonce(nonce32 []byte, i int) Scalar {
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], uint32(i))
	digest := TaggedHash(append([]byte("rangeproof-nonce-"), idx[:]...), nonce32)
	var s Scalar
	s.setB32(digest[:])
	return s
}

// deriveDigitPad is the one-time pad XORed against an unused ring
// position's response, both to fill it with something pseudorandom and
// to carry a chunk of the embedded message there.
func deriveDigitPad(nonce32 []byte, i, k int) [32]byte {
	var idx [8]byte
	binary.BigEndian.PutUint32(idx[0:4], uint32(i))
	binary.BigEndian.PutUint32(idx[4:8], uint32(k))
	return TaggedHash(append([]byte("rangeproof-pad-"), idx[:]...), nonce32)
}

// rangeproofMsgCapacity is how many plaintext bytes (including the
// 4-byte length prefix) fit across every digit's three unused ring
// positions.
func rangeproofMsgCapacity(nDigits int) int {
	return nDigits * 3 * 32
}

func packRangeproofMessage(msg []byte, capacity int) ([]byte, error) {
	if len(msg)+4 > capacity {
		return nil, errors.New("message too long to embed for this many digits")
	}
	out := make([]byte, capacity)
	binary.BigEndian.PutUint32(out[:4], uint32(len(msg)))
	copy(out[4:], msg)
	return out, nil
}

func unpackRangeproofMessage(plaintext []byte) ([]byte, error) {
	if len(plaintext) < 4 {
		return nil, errors.New("embedded message truncated")
	}
	n := binary.BigEndian.Uint32(plaintext[:4])
	if int(n) > len(plaintext)-4 {
		return nil, errors.New("embedded message length inconsistent")
	}
	return append([]byte(nil), plaintext[4:4+n]...), nil
}

// pedersenSubRing computes r*G + digit*weight*H and the four ring
// public keys C - k*weight*H for k in 0..3, shared by sign and verify.
func pedersenSubRing(r *Scalar, digit int, weight *Scalar) (GroupElementAffine, []*GroupElementAffine) {
	var rg GroupElementJacobian
	EcmultGen(&rg, r)
	var dv Scalar
	dv.setInt(uint(digit))
	dv.mul(&dv, weight)
	var dh GroupElementJacobian
	EcmultConst(&dh, &dv, &GeneratorH)
	var cj GroupElementJacobian
	cj.addVar(&rg, &dh)

	var c GroupElementAffine
	c.setGEJ(&cj)

	return c, ringFromCommit(&cj, weight)
}

func ringFromCommit(cj *GroupElementJacobian, weight *Scalar) []*GroupElementAffine {
	ring := make([]*GroupElementAffine, 4)
	for k := 0; k < 4; k++ {
		var kv Scalar
		kv.setInt(uint(k))
		kv.mul(&kv, weight)
		var kh GroupElementJacobian
		EcmultConst(&kh, &kv, &GeneratorH)
		var negKh GroupElementJacobian
		negKh.negate(&kh)
		var pj GroupElementJacobian
		pj.addVar(cj, &negKh)
		p := &GroupElementAffine{}
		p.setGEJ(&pj)
		ring[k] = p
	}
	return ring
}

// RangeproofSign constructs a proof that commit = blind32*G + value*H
// (the same formula PedersenCommit uses, so this also proves a range
// for a commitment the caller already published with that blind) and
// that value lies in [minValue, minValue + 4^nDigits*10^exp). nonce32
// seeds every digit's ring nonce and every digit-but-the-last's
// blinding factor directly; the last digit's blind is whatever is
// needed to make all the digit blinds sum to blind32, masked by a
// nonce-derived pad and carried in the proof so RangeproofRewind can
// recover it without being told blind32 again. msg, if non-empty, is
// embedded across the rings' unused positions and recovered by rewind.
func RangeproofSign(commit *Commitment, blind32 []byte, value uint64, minValue uint64, exp int32, nDigits int, nonce32 []byte, msg []byte) ([]byte, error) {
	if nDigits <= 0 || nDigits > rangeproofMaxDigits {
		return nil, errors.New("nDigits out of range")
	}
	if len(nonce32) != 32 {
		return nil, errors.New("nonce32 must be 32 bytes")
	}
	if len(blind32) != 32 {
		return nil, errors.New("blind32 must be 32 bytes")
	}
	if value < minValue {
		return nil, errors.New("value below minValue")
	}

	var blind Scalar
	blind.setB32(blind32)

	scale, err := scale10(exp)
	if err != nil {
		return nil, err
	}

	remaining := value - minValue
	if remaining%scale != 0 {
		return nil, errors.New("value - minValue is not a multiple of 10^exp")
	}
	remaining /= scale
	digits := make([]int, nDigits)
	for i := 0; i < nDigits; i++ {
		digits[i] = int(remaining % 4)
		remaining /= 4
	}
	if remaining != 0 {
		return nil, errors.New("value too large for nDigits at this exponent")
	}

	rs := make([]Scalar, nDigits)
	for i := 0; i < nDigits-1; i++ {
		rs[i] = deriveDigitBlind(nonce32, i)
	}
	var sumOthers Scalar
	for i := 0; i < nDigits-1; i++ {
		sumOthers.add(&sumOthers, &rs[i])
	}
	var rsLast Scalar
	rsLast.negate(&sumOthers)
	rsLast.add(&rsLast, &blind)
	rs[nDigits-1] = rsLast

	pad := deriveDigitBlind(nonce32, nDigits-1)
	var adjustment Scalar
	adjustment.negate(&pad)
	adjustment.add(&adjustment, &rsLast)
	var adjustmentBytes [32]byte
	adjustment.getB32(adjustmentBytes[:])

	subCommits := make([]GroupElementAffine, nDigits)
	pubkeyRings := make([][]*GroupElementAffine, nDigits)
	for i := 0; i < nDigits; i++ {
		w, _, werr := digitWeight(scale, i)
		if werr != nil {
			return nil, werr
		}
		subCommits[i], pubkeyRings[i] = pedersenSubRing(&rs[i], digits[i], w)
	}

	header := &rangeproofHeader{exp: exp, nDigits: uint8(nDigits), minValue: minValue}
	msgBuf := header.serialize()
	for i := range subCommits {
		subCommits[i].x.normalize()
		subCommits[i].y.normalize()
		var tag [33]byte
		if subCommits[i].y.isOdd() {
			tag[0] = TagPedersenOdd
		} else {
			tag[0] = TagPedersenEven
		}
		subCommits[i].x.getB32(tag[1:])
		msgBuf = append(msgBuf, tag[:]...)
	}
	msgBuf = append(msgBuf, adjustmentBytes[:]...)

	capacity := rangeproofMsgCapacity(nDigits)
	plaintext, err := packRangeproofMessage(msg, capacity)
	if err != nil {
		return nil, err
	}

	nonces := make([]Scalar, nDigits)
	realR := make([]GroupElementJacobian, nDigits)
	s := make([][]Scalar, nDigits)
	chunk := 0
	for i := 0; i < nDigits; i++ {
		nonces[i] = deriveDigitNonce(nonce32, i)
		EcmultGen(&realR[i], &nonces[i])

		s[i] = make([]Scalar, 4)
		for k := 0; k < 4; k++ {
			if k == digits[i] {
				continue
			}
			pad := deriveDigitPad(nonce32, i, k)
			var masked [32]byte
			for b := 0; b < 32; b++ {
				masked[b] = pad[b] ^ plaintext[chunk*32+b]
			}
			s[i][k].setB32(masked[:])
			chunk++
		}
	}

	// Pass 1: forward from each digit's real position to its ring's
	// last member, fixing the inputs to the shared e0 hash.
	finalX := make([][]byte, nDigits)
	for i := 0; i < nDigits; i++ {
		fx, werr := ringForwardFromSecret(i, pubkeyRings[i], s[i], digits[i], &realR[i])
		if werr != nil {
			return nil, werr
		}
		finalX[i] = fx
	}

	e0Input := make([]byte, 0, len(msgBuf)+32*nDigits)
	e0Input = append(e0Input, msgBuf...)
	for i := 0; i < nDigits; i++ {
		e0Input = append(e0Input, finalX[i]...)
	}
	e0 := TaggedHash(borromeanE0Tag, e0Input)

	// Pass 2: forward from position 0 of each ring, now seeded from e0,
	// until the real digit is reached; only then is the real nonce used
	// to close the ring.
	for i := 0; i < nDigits; i++ {
		startE := ringStartChallenge(e0, i)
		eAtSecret, werr := ringBackwardToSecret(i, pubkeyRings[i], s[i], digits[i], startE)
		if werr != nil {
			return nil, werr
		}
		var term Scalar
		term.mul(&eAtSecret, &rs[i])
		s[i][digits[i]].add(&nonces[i], &term)
	}

	proof := make([]byte, 0, 13+33*nDigits+32+32+32*4*nDigits)
	proof = append(proof, header.serialize()...)
	for i := range subCommits {
		var tag [33]byte
		subCommits[i].y.normalize()
		if subCommits[i].y.isOdd() {
			tag[0] = TagPedersenOdd
		} else {
			tag[0] = TagPedersenEven
		}
		subCommits[i].x.getB32(tag[1:])
		proof = append(proof, tag[:]...)
	}
	proof = append(proof, adjustmentBytes[:]...)
	proof = append(proof, e0[:]...)
	for i := 0; i < nDigits; i++ {
		for k := 0; k < 4; k++ {
			var sb [32]byte
			s[i][k].getB32(sb[:])
			proof = append(proof, sb[:]...)
		}
	}

	if commit != nil {
		var bg GroupElementJacobian
		EcmultGen(&bg, &blind)
		var v Scalar
		v.setInt(uint(value))
		var vh GroupElementJacobian
		EcmultConst(&vh, &v, &GeneratorH)
		var sum GroupElementJacobian
		sum.addVar(&bg, &vh)
		var sumAff GroupElementAffine
		sumAff.setGEJ(&sum)
		commitmentSave(commit, &sumAff)
	}

	return proof, nil
}

// RangeproofVerify checks proof against commit, returning the [min, max]
// bounds it attests to.
func RangeproofVerify(commit *Commitment, proof []byte) (minValue, maxValue uint64, err error) {
	header, pos, err := parseRangeproofHeader(proof)
	if err != nil {
		return 0, 0, err
	}
	nDigits := int(header.nDigits)
	if nDigits <= 0 || nDigits > rangeproofMaxDigits {
		return 0, 0, errors.New("invalid digit count")
	}
	scale, err := scale10(header.exp)
	if err != nil {
		return 0, 0, err
	}
	if len(proof) < pos+33*nDigits+32+32+32*4*nDigits {
		return 0, 0, errors.New("proof truncated")
	}

	subCommits := make([]GroupElementAffine, nDigits)
	msgBuf := append([]byte(nil), proof[:pos]...)
	for i := 0; i < nDigits; i++ {
		tag := proof[pos : pos+33]
		pos += 33
		msgBuf = append(msgBuf, tag...)
		if tag[0] != TagPedersenEven && tag[0] != TagPedersenOdd {
			return 0, 0, errors.New("bad sub-commitment tag")
		}
		var x FieldElement
		if ferr := x.setB32(tag[1:]); ferr != nil {
			return 0, 0, ferr
		}
		if !subCommits[i].setXOVar(&x, tag[0] == TagPedersenOdd) {
			return 0, 0, errors.New("sub-commitment not on curve")
		}
	}

	adjustmentBytes := append([]byte(nil), proof[pos:pos+32]...)
	pos += 32
	msgBuf = append(msgBuf, adjustmentBytes...)

	var e0 [32]byte
	copy(e0[:], proof[pos:pos+32])
	pos += 32

	pubkeyRings := make([][]*GroupElementAffine, nDigits)
	s := make([][]Scalar, nDigits)
	for i := 0; i < nDigits; i++ {
		_, w, werr := digitWeight(scale, i)
		if werr != nil {
			return 0, 0, werr
		}
		var weight Scalar
		weight.setInt(uint(w))
		var cj GroupElementJacobian
		cj.setGE(&subCommits[i])
		pubkeyRings[i] = ringFromCommit(&cj, &weight)

		s[i] = make([]Scalar, 4)
		for k := 0; k < 4; k++ {
			if overflow := s[i][k].setB32(proof[pos : pos+32]); overflow {
				return 0, 0, errors.New("s value overflows curve order")
			}
			pos += 32
		}
	}

	finalX := make([][]byte, nDigits)
	for i := 0; i < nDigits; i++ {
		startE := ringStartChallenge(e0, i)
		fx, werr := ringVerifyWalk(i, pubkeyRings[i], s[i], startE)
		if werr != nil {
			return 0, 0, werr
		}
		finalX[i] = fx
	}

	e0Input := make([]byte, 0, len(msgBuf)+32*nDigits)
	e0Input = append(e0Input, msgBuf...)
	for i := 0; i < nDigits; i++ {
		e0Input = append(e0Input, finalX[i]...)
	}
	if TaggedHash(borromeanE0Tag, e0Input) != e0 {
		return 0, 0, errors.New("range proof does not verify")
	}

	if commit != nil {
		var outer GroupElementAffine
		if !commitmentLoad(&outer, commit) {
			return 0, 0, errors.New("invalid commitment")
		}
		var sumJ GroupElementJacobian
		sumJ.setInfinity()
		for i := 0; i < nDigits; i++ {
			var cj GroupElementJacobian
			cj.setGE(&subCommits[i])
			sumJ.addVar(&sumJ, &cj)
		}
		var minScalar Scalar
		minScalar.setInt(uint(header.minValue))
		var minH GroupElementJacobian
		EcmultConst(&minH, &minScalar, &GeneratorH)
		sumJ.addVar(&sumJ, &minH)

		var sumAff GroupElementAffine
		sumAff.setGEJ(&sumJ)
		sumAff.x.normalize()
		sumAff.y.normalize()
		outer.x.normalize()
		outer.y.normalize()
		if !sumAff.equal(&outer) {
			return 0, 0, errors.New("range proof commitment mismatch")
		}
	}

	maxSpan := uint64(1)
	for i := 0; i < nDigits; i++ {
		maxSpan *= 4
	}
	if scale != 0 && maxSpan > ^uint64(0)/scale {
		maxSpan = ^uint64(0) - header.minValue
	} else {
		maxSpan *= scale
	}

	return header.minValue, header.minValue + maxSpan - 1, nil
}

// RangeproofRewind recovers the committed value, blinding factor and
// embedded message from a proof, given the nonce used at signing time.
func RangeproofRewind(proof []byte, nonce32 []byte) (value uint64, blind32 []byte, msg []byte, err error) {
	header, pos, err := parseRangeproofHeader(proof)
	if err != nil {
		return 0, nil, nil, err
	}
	nDigits := int(header.nDigits)
	if nDigits <= 0 || nDigits > rangeproofMaxDigits || len(nonce32) != 32 {
		return 0, nil, nil, errors.New("invalid proof or nonce")
	}
	scale, err := scale10(header.exp)
	if err != nil {
		return 0, nil, nil, err
	}
	if len(proof) < pos+33*nDigits+32+32+32*4*nDigits {
		return 0, nil, nil, errors.New("proof truncated")
	}

	subCommits := make([]GroupElementAffine, nDigits)
	for i := 0; i < nDigits; i++ {
		tag := proof[pos : pos+33]
		pos += 33
		var x FieldElement
		if ferr := x.setB32(tag[1:]); ferr != nil {
			return 0, nil, nil, ferr
		}
		if !subCommits[i].setXOVar(&x, tag[0] == TagPedersenOdd) {
			return 0, nil, nil, errors.New("sub-commitment not on curve")
		}
		subCommits[i].x.normalize()
		subCommits[i].y.normalize()
	}

	adjustmentBytes := proof[pos : pos+32]
	pos += 32
	pos += 32 // skip e0, not needed to recover value/blind/message

	sBytes := make([][4][32]byte, nDigits)
	for i := 0; i < nDigits; i++ {
		for k := 0; k < 4; k++ {
			copy(sBytes[i][k][:], proof[pos:pos+32])
			pos += 32
		}
	}

	var blind Scalar
	var value64 uint64
	power := uint64(1)
	plaintext := make([]byte, rangeproofMsgCapacity(nDigits))
	chunk := 0

	for i := 0; i < nDigits; i++ {
		_, w, werr := digitWeight(scale, i)
		if werr != nil {
			return 0, nil, nil, werr
		}
		var weight Scalar
		weight.setInt(uint(w))

		var r Scalar
		if i < nDigits-1 {
			r = deriveDigitBlind(nonce32, i)
		} else {
			pad := deriveDigitBlind(nonce32, i)
			var adj Scalar
			adj.setB32(adjustmentBytes)
			r.add(&adj, &pad)
		}

		found := -1
		for k := 0; k < 4; k++ {
			candAff, _ := pedersenSubRing(&r, k, &weight)
			candAff.x.normalize()
			candAff.y.normalize()
			if candAff.equal(&subCommits[i]) {
				found = k
				break
			}
		}
		if found == -1 {
			return 0, nil, nil, errors.New("could not recover digit: wrong nonce or corrupted proof")
		}

		value64 += uint64(found) * power
		power *= 4
		blind.add(&blind, &r)

		for k := 0; k < 4; k++ {
			if k == found {
				continue
			}
			pad := deriveDigitPad(nonce32, i, k)
			for b := 0; b < 32; b++ {
				plaintext[chunk*32+b] = pad[b] ^ sBytes[i][k][b]
			}
			chunk++
		}
	}

	msgOut, uerr := unpackRangeproofMessage(plaintext)
	if uerr != nil {
		return 0, nil, nil, uerr
	}

	value = header.minValue + value64*scale
	var blindBytes [32]byte
	blind.getB32(blindBytes[:])
	return value, blindBytes[:], msgOut, nil
}
