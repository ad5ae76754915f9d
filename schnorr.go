package p256k1

import (
	"errors"
	"unsafe"
)

var bip340NonceTag = []byte("BIP0340/nonce")
var bip340AuxTag = []byte("BIP0340/aux")
var bip340ChallengeTag = []byte("BIP0340/challenge")

var zeroMask = TaggedHash(bip340AuxTag, make([]byte, 32))

// NonceFunctionBIP340 implements the default BIP-340 nonce derivation:
// the secret key masked with a tagged hash of the auxiliary randomness,
// then tagged-hashed together with the x-only pubkey and message.
func NonceFunctionBIP340(nonce32 []byte, msg []byte, key32 []byte, xonlyPk32 []byte, auxRand32 []byte) error {
	if len(nonce32) != 32 {
		return errors.New("nonce32 must be 32 bytes")
	}
	if len(key32) != 32 {
		return errors.New("key32 must be 32 bytes")
	}
	if len(xonlyPk32) != 32 {
		return errors.New("xonlyPk32 must be 32 bytes")
	}

	var mask [32]byte
	if len(auxRand32) == 32 {
		mask = TaggedHash(bip340AuxTag, auxRand32)
	} else {
		mask = zeroMask
	}

	var maskedKey [32]byte
	for i := 0; i < 32; i++ {
		maskedKey[i] = key32[i] ^ mask[i]
	}

	nonceInput := make([]byte, 0, 96+len(msg))
	nonceInput = append(nonceInput, maskedKey[:]...)
	nonceInput = append(nonceInput, xonlyPk32...)
	nonceInput = append(nonceInput, msg...)

	nonceHash := TaggedHash(bip340NonceTag, nonceInput)
	copy(nonce32, nonceHash[:])

	memclear(unsafe.Pointer(&maskedKey[0]), 32)
	return nil
}

func schnorrChallenge(r32, pkX []byte, msg32 []byte) Scalar {
	input := make([]byte, 0, 96)
	input = append(input, r32...)
	input = append(input, pkX...)
	input = append(input, msg32...)
	digest := TaggedHash(bip340ChallengeTag, input)
	var e Scalar
	e.setB32(digest[:])
	return e
}

// SchnorrSign produces a BIP-340 Schnorr signature over msg32 using
// keypair, writing the 64-byte (r || s) result to sig64. A nil auxRand32
// disables the randomization step (matching the nonce function's zero-mask
// fallback) but the signature remains deterministic in the nonce itself.
func SchnorrSign(sig64 []byte, msg32 []byte, keypair *KeyPair, auxRand32 []byte) error {
	if len(sig64) != 64 {
		return errors.New("signature must be 64 bytes")
	}
	if len(msg32) != 32 {
		return errors.New("message must be 32 bytes")
	}
	if keypair == nil {
		return errors.New("keypair cannot be nil")
	}

	var sk Scalar
	if !sk.setB32Seckey(keypair.seckey[:]) {
		return errors.New("invalid secret key")
	}

	var pk GroupElementAffine
	pk.fromBytes(keypair.pubkey.data[:])
	if pk.isInfinity() {
		sk.clear()
		return errors.New("invalid public key")
	}
	pk.y.normalize()

	var skBytes [32]byte
	sk.getB32(skBytes[:])
	if pk.y.isOdd() {
		sk.negate(&sk)
		sk.getB32(skBytes[:])
	}

	var pkX [32]byte
	pk.x.normalize()
	pk.x.getB32(pkX[:])

	var nonce32 [32]byte
	if err := NonceFunctionBIP340(nonce32[:], msg32, skBytes[:], pkX[:], auxRand32); err != nil {
		sk.clear()
		memclear(unsafe.Pointer(&skBytes[0]), 32)
		return err
	}

	var k Scalar
	if !k.setB32Seckey(nonce32[:]) || k.isZero() {
		sk.clear()
		memclear(unsafe.Pointer(&nonce32[0]), 32)
		memclear(unsafe.Pointer(&skBytes[0]), 32)
		return errors.New("nonce generation failed")
	}

	var rj GroupElementJacobian
	EcmultGen(&rj, &k)
	var r GroupElementAffine
	r.setGEJ(&rj)
	r.y.normalize()
	if r.y.isOdd() {
		k.negate(&k)
		EcmultGen(&rj, &k)
		r.setGEJ(&rj)
	}
	r.x.normalize()

	var r32 [32]byte
	r.x.getB32(r32[:])
	copy(sig64[:32], r32[:])

	e := schnorrChallenge(r32[:], pkX[:], msg32)

	var s Scalar
	s.mul(&e, &sk)
	s.add(&s, &k)

	var s32 [32]byte
	s.getB32(s32[:])
	copy(sig64[32:], s32[:])

	sk.clear()
	k.clear()
	e.clear()
	s.clear()
	memclear(unsafe.Pointer(&nonce32[0]), 32)
	memclear(unsafe.Pointer(&skBytes[0]), 32)

	return nil
}

// SchnorrVerify checks a 64-byte BIP-340 Schnorr signature over msg32
// under xonlyPubkey.
func SchnorrVerify(sig64 []byte, msg32 []byte, xonlyPubkey *XOnlyPubkey) bool {
	if len(sig64) != 64 || len(msg32) != 32 || xonlyPubkey == nil {
		return false
	}

	var rx FieldElement
	if err := rx.setB32(sig64[:32]); err != nil {
		return false
	}
	rx.normalize()

	var s Scalar
	if s.setB32(sig64[32:64]) {
		return false // s must not overflow the scalar field
	}

	var pk GroupElementAffine
	var px FieldElement
	if err := px.setB32(xonlyPubkey.data[:]); err != nil {
		return false
	}
	if !pk.setXOVar(&px, false) {
		return false
	}

	e := schnorrChallenge(sig64[:32], xonlyPubkey.data[:], msg32)
	e.negate(&e)

	var R GroupElementJacobian
	Ecmult(&R, &s, &e, &pk)

	if R.isInfinity() {
		return false
	}

	var RAff GroupElementAffine
	RAff.setGEJ(&R)
	RAff.y.normalize()
	if RAff.y.isOdd() {
		return false
	}

	RAff.x.normalize()
	return RAff.x.equal(&rx)
}
