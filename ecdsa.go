package p256k1

import (
	"unsafe"
)

// NonceFunction computes a signing nonce for ECDSASign. A nil value
// selects the RFC 6979 deterministic default.
type NonceFunction func(msg32, key32 []byte, algo16 []byte, data []byte, attempt uint) ([32]byte, bool)

// ecdsaSignatureLoad unpacks a Signature's raw storage into (r, s).
func ecdsaSignatureLoad(r, s *Scalar, sig *Signature) {
	r.setB32(sig.data[0:32])
	s.setB32(sig.data[32:64])
}

// ecdsaSignatureSave packs (r, s) into a Signature's raw storage.
func ecdsaSignatureSave(sig *Signature, r, s *Scalar) {
	r.getB32(sig.data[0:32])
	s.getB32(sig.data[32:64])
}

func defaultNonceFunction(msg32, key32, algo16, data []byte, attempt uint) ([32]byte, bool) {
	nonceKey := make([]byte, 0, 32+32+16+len(data))
	nonceKey = append(nonceKey, key32...)
	nonceKey = append(nonceKey, msg32...)
	if algo16 != nil {
		nonceKey = append(nonceKey, algo16...)
	}
	if data != nil {
		nonceKey = append(nonceKey, data...)
	}

	rng := NewRFC6979HMACSHA256(nonceKey)
	defer rng.Clear()

	var out [32]byte
	for i := uint(0); i <= attempt; i++ {
		rng.Generate(out[:])
	}
	return out, true
}

// ECDSASign produces an ECDSA signature over msghash32 using seckey,
// writing the result to sig. A nil noncefp selects RFC 6979 deterministic
// nonce generation; ndata is passed through to a custom noncefp.
func ECDSASign(ctx *Context, sig *Signature, msghash32 []byte, seckey []byte, noncefp NonceFunction, ndata []byte) bool {
	if !argCheck(ctx, sig != nil, "sig is nil") {
		return false
	}
	if len(msghash32) != 32 || len(seckey) != 32 {
		return false
	}

	var sec Scalar
	if !sec.setB32Seckey(seckey) {
		return false
	}

	var msg Scalar
	msg.setB32(msghash32)

	if noncefp == nil {
		noncefp = defaultNonceFunction
	}

	var r, s Scalar
	ok := false
	for attempt := uint(0); attempt < 32; attempt++ {
		nonceBytes, genOK := noncefp(msghash32, seckey, nil, ndata, attempt)
		if !genOK {
			continue
		}

		var nonce Scalar
		if !nonce.setB32Seckey(nonceBytes[:]) {
			memclear(unsafe.Pointer(&nonceBytes[0]), 32)
			continue
		}

		var rp GroupElementJacobian
		EcmultGen(&rp, &nonce)

		var rAff GroupElementAffine
		rAff.setGEJ(&rp)
		rAff.x.normalize()

		var rBytes [32]byte
		rAff.x.getB32(rBytes[:])
		r.setB32(rBytes[:])
		if r.isZero() {
			nonce.clear()
			continue
		}

		var term Scalar
		term.mul(&r, &sec)
		term.add(&term, &msg)

		var nonceInv Scalar
		nonceInv.inverse(&nonce)
		s.mul(&nonceInv, &term)

		nonce.clear()
		nonceInv.clear()
		term.clear()

		if s.isZero() {
			continue
		}

		if s.isHigh() {
			s.condNegate(1)
		}

		ok = true
		break
	}

	sec.clear()
	msg.clear()

	if !ok {
		return false
	}

	ecdsaSignatureSave(sig, &r, &s)
	return true
}

// RecoverableSignature is an opaque (r, s, recid) triple produced by
// ECDSASignRecoverable, from which the signer's public key can be
// recovered given only the message hash.
type RecoverableSignature struct {
	data  [64]byte
	recid int
}

// ECDSASignRecoverable produces a recoverable ECDSA signature over
// msghash32 using seckey. recid encodes R.y's parity in bit 0 and
// whether R.x required reduction mod n in bit 1, per the compact
// recoverable-signature convention.
func ECDSASignRecoverable(ctx *Context, sig *RecoverableSignature, msghash32 []byte, seckey []byte, noncefp NonceFunction, ndata []byte) bool {
	if !argCheck(ctx, sig != nil, "sig is nil") {
		return false
	}
	if len(msghash32) != 32 || len(seckey) != 32 {
		return false
	}

	var sec Scalar
	if !sec.setB32Seckey(seckey) {
		return false
	}

	var msg Scalar
	msg.setB32(msghash32)

	if noncefp == nil {
		noncefp = defaultNonceFunction
	}

	var r, s Scalar
	recid := 0
	ok := false
	for attempt := uint(0); attempt < 32; attempt++ {
		nonceBytes, genOK := noncefp(msghash32, seckey, nil, ndata, attempt)
		if !genOK {
			continue
		}

		var nonce Scalar
		if !nonce.setB32Seckey(nonceBytes[:]) {
			memclear(unsafe.Pointer(&nonceBytes[0]), 32)
			continue
		}

		var rp GroupElementJacobian
		EcmultGen(&rp, &nonce)

		var rAff GroupElementAffine
		rAff.setGEJ(&rp)
		rAff.x.normalize()
		rAff.y.normalize()

		var rBytes [32]byte
		rAff.x.getB32(rBytes[:])
		overflow := r.setB32(rBytes[:])
		if r.isZero() {
			nonce.clear()
			continue
		}

		var term Scalar
		term.mul(&r, &sec)
		term.add(&term, &msg)

		var nonceInv Scalar
		nonceInv.inverse(&nonce)
		s.mul(&nonceInv, &term)

		nonce.clear()
		nonceInv.clear()
		term.clear()

		if s.isZero() {
			continue
		}

		recid = boolToInt(rAff.y.isOdd())
		if overflow {
			recid |= 2
		}
		if s.isHigh() {
			s.condNegate(1)
			recid ^= 1
		}

		ok = true
		break
	}

	sec.clear()
	msg.clear()

	if !ok {
		return false
	}

	r.getB32(sig.data[0:32])
	s.getB32(sig.data[32:64])
	sig.recid = recid
	return true
}

// ECDSARecoverableSignatureConvert strips the recovery id from sig,
// yielding a plain (r, s) Signature suitable for ECDSAVerify.
func ECDSARecoverableSignatureConvert(ctx *Context, sig *Signature, sigIn *RecoverableSignature) bool {
	if !argCheck(ctx, sig != nil, "sig is nil") || sigIn == nil {
		return false
	}
	copy(sig.data[:], sigIn.data[:])
	return true
}

// ECDSASignatureSerializeCompactRecoverable writes sig's 64-byte (r || s)
// encoding to output64 and returns its recovery id.
func ECDSASignatureSerializeCompactRecoverable(ctx *Context, output64 []byte, recid *int, sig *RecoverableSignature) bool {
	if sig == nil || len(output64) < 64 || recid == nil {
		return false
	}
	copy(output64, sig.data[:])
	*recid = sig.recid
	return true
}

// ECDSARecoverableSignatureParseCompact parses a 64-byte (r || s) compact
// encoding plus an out-of-band recovery id into sig.
func ECDSARecoverableSignatureParseCompact(ctx *Context, sig *RecoverableSignature, input64 []byte, recid int) bool {
	if sig == nil || len(input64) != 64 || recid < 0 || recid > 3 {
		return false
	}
	copy(sig.data[:], input64)
	sig.recid = recid
	return true
}

// ECDSARecover reconstructs the public key that produced sig over
// msghash32. It fails if recid's candidate R.x does not lie on the curve
// or if the recovered point is infinity.
func ECDSARecover(ctx *Context, pubkey *PublicKey, sig *RecoverableSignature, msghash32 []byte) bool {
	if !argCheck(ctx, pubkey != nil, "pubkey is nil") || sig == nil || len(msghash32) != 32 {
		return false
	}

	var r, s Scalar
	if r.setB32(sig.data[0:32]) || s.setB32(sig.data[32:64]) {
		return false // r or s already overflowed n; recid>>1 handles the reduced case
	}
	if r.isZero() || s.isZero() {
		return false
	}

	var rx FieldElement
	var rBytes [32]byte
	r.getB32(rBytes[:])
	if err := rx.setB32(rBytes[:]); err != nil {
		return false
	}
	if sig.recid&2 != 0 {
		var nScalar Scalar
		nScalar.d = [4]uint64{scalarN0, scalarN1, scalarN2, scalarN3}
		var nBytes [32]byte
		nScalar.getB32(nBytes[:])
		var nfe FieldElement
		if err := nfe.setB32(nBytes[:]); err != nil {
			return false
		}
		rx.add(&nfe)
		rx.normalize()
	}

	var R GroupElementAffine
	if !R.setXOVar(&rx, sig.recid&1 != 0) {
		return false
	}

	var msg Scalar
	msg.setB32(msghash32)

	var rInv Scalar
	rInv.inverse(&r)

	var u1, u2 Scalar
	u1.mul(&msg, &rInv)
	u1.negate(&u1)
	u2.mul(&s, &rInv)

	var Q GroupElementJacobian
	Ecmult(&Q, &u1, &u2, &R)
	if Q.isInfinity() {
		return false
	}

	var qAff GroupElementAffine
	qAff.setGEJ(&Q)
	pubkeySave(pubkey, &qAff)
	return true
}

// ECDSAVerify checks that sig is a valid signature over msghash32 under
// pubkey.
func ECDSAVerify(ctx *Context, sig *Signature, msghash32 []byte, pubkey *PublicKey) bool {
	if sig == nil || pubkey == nil || len(msghash32) != 32 {
		return false
	}

	var r, s Scalar
	ecdsaSignatureLoad(&r, &s, sig)
	if r.isZero() || s.isZero() {
		return false
	}
	if s.isHigh() {
		return false
	}

	var msg Scalar
	msg.setB32(msghash32)

	var pubkeyPoint GroupElementAffine
	if !pubkeyLoad(&pubkeyPoint, pubkey) || pubkeyPoint.isInfinity() {
		return false
	}

	var sInv Scalar
	sInv.inverse(&s)

	var u1, u2 Scalar
	u1.mul(&msg, &sInv)
	u2.mul(&r, &sInv)

	var R GroupElementJacobian
	Ecmult(&R, &u1, &u2, &pubkeyPoint)

	if R.isInfinity() {
		return false
	}

	var RAff GroupElementAffine
	RAff.setGEJ(&R)
	RAff.x.normalize()

	var rBytes [32]byte
	RAff.x.getB32(rBytes[:])

	var computedR Scalar
	computedR.setB32(rBytes[:])

	return r.equal(&computedR)
}

// ECDSASignatureParseCompact parses a 64-byte (r || s) compact signature.
func ECDSASignatureParseCompact(ctx *Context, sig *Signature, input64 []byte) bool {
	if sig == nil || len(input64) != 64 {
		return false
	}
	copy(sig.data[:], input64)
	return true
}

// ECDSASignatureSerializeCompact writes sig's 64-byte (r || s) encoding
// to output64.
func ECDSASignatureSerializeCompact(ctx *Context, output64 []byte, sig *Signature) bool {
	if sig == nil || len(output64) < 64 {
		return false
	}
	copy(output64, sig.data[:])
	return true
}

// derInteger encodes a 32-byte big-endian scalar as a minimal DER INTEGER,
// stripping redundant leading zero bytes and prepending one if the high
// bit would otherwise make the value look negative.
func derInteger(b32 []byte) []byte {
	v := b32
	for len(v) > 1 && v[0] == 0 && v[1] < 0x80 {
		v = v[1:]
	}
	needsPad := len(v) > 0 && v[0]&0x80 != 0
	out := make([]byte, 0, len(v)+3)
	out = append(out, 0x02)
	length := len(v)
	if needsPad {
		length++
	}
	out = append(out, byte(length))
	if needsPad {
		out = append(out, 0x00)
	}
	out = append(out, v...)
	return out
}

// ECDSASignatureSerializeDER encodes sig as a minimal BER/DER
// SEQUENCE{INTEGER r, INTEGER s}, writing it to output and updating
// *outputlen with the number of bytes written.
func ECDSASignatureSerializeDER(ctx *Context, output []byte, outputlen *int, sig *Signature) bool {
	if sig == nil {
		return false
	}

	var r, s Scalar
	ecdsaSignatureLoad(&r, &s, sig)

	var rBytes, sBytes [32]byte
	r.getB32(rBytes[:])
	s.getB32(sBytes[:])

	rEnc := derInteger(rBytes[:])
	sEnc := derInteger(sBytes[:])

	body := make([]byte, 0, len(rEnc)+len(sEnc))
	body = append(body, rEnc...)
	body = append(body, sEnc...)

	if len(body) > 127 {
		return false // secp256k1 scalars never produce a body this long
	}

	total := 2 + len(body)
	if len(output) < total {
		return false
	}

	output[0] = 0x30
	output[1] = byte(len(body))
	copy(output[2:], body)
	*outputlen = total
	return true
}

// derReadInteger reads a DER INTEGER from buf at *pos, returning its
// content bytes (without the tag/length) and advancing *pos.
func derReadInteger(buf []byte, pos *int) ([]byte, bool) {
	if *pos >= len(buf) || buf[*pos] != 0x02 {
		return nil, false
	}
	*pos++
	if *pos >= len(buf) {
		return nil, false
	}
	length := int(buf[*pos])
	if length&0x80 != 0 {
		return nil, false // long-form lengths never occur for 32-byte scalars
	}
	*pos++
	if *pos+length > len(buf) {
		return nil, false
	}
	v := buf[*pos : *pos+length]
	*pos += length
	return v, true
}

// ECDSASignatureParseDER parses a BER/DER-encoded ECDSA signature.
func ECDSASignatureParseDER(ctx *Context, sig *Signature, input []byte) bool {
	if sig == nil || len(input) < 8 || input[0] != 0x30 {
		return false
	}

	seqLen := int(input[1])
	if seqLen&0x80 != 0 {
		return false
	}
	if 2+seqLen > len(input) {
		return false
	}
	body := input[2 : 2+seqLen]

	pos := 0
	rv, ok := derReadInteger(body, &pos)
	if !ok {
		return false
	}
	sv, ok := derReadInteger(body, &pos)
	if !ok {
		return false
	}
	if pos != len(body) {
		return false
	}

	var r, s Scalar
	r.setB32(leftPad32(rv))
	s.setB32(leftPad32(sv))

	ecdsaSignatureSave(sig, &r, &s)
	return true
}

// leftPad32 strips a DER INTEGER's optional leading zero pad byte (when
// longer than 32 bytes) or left-pads it with zeros (when shorter) to
// produce a canonical 32-byte big-endian value.
func leftPad32(v []byte) []byte {
	for len(v) > 32 && v[0] == 0 {
		v = v[1:]
	}
	if len(v) == 32 {
		return v
	}
	out := make([]byte, 32)
	if len(v) > 32 {
		copy(out, v[len(v)-32:])
		return out
	}
	copy(out[32-len(v):], v)
	return out
}

// ECDSASignatureNormalize converts sig to its low-S form in place,
// reporting whether the input was already normalized.
func ECDSASignatureNormalize(ctx *Context, sigOut, sigIn *Signature) bool {
	var r, s Scalar
	ecdsaSignatureLoad(&r, &s, sigIn)

	wasHigh := s.isHigh()
	if wasHigh {
		s.condNegate(1)
	}

	if sigOut != nil {
		ecdsaSignatureSave(sigOut, &r, &s)
	}
	return !wasHigh
}
