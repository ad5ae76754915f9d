package p256k1

import (
	"errors"
	"unsafe"
)

// ECDHHashFunction hashes an ECDH shared point into output.
type ECDHHashFunction func(output []byte, x32 []byte, y32 []byte) bool

// ecdhHashFunctionSHA256 is the default ECDH hash function: SHA256 of the
// compressed-point encoding of the shared point (a leading parity byte
// followed by the X coordinate), matching secp256k1_ecdh_hash_function_sha256.
func ecdhHashFunctionSHA256(output []byte, x32 []byte, y32 []byte) bool {
	if len(output) != 32 || len(x32) != 32 || len(y32) != 32 {
		return false
	}

	version := byte((y32[31] & 0x01) | 0x02)

	sha := NewSHA256()
	sha.Write([]byte{version})
	sha.Write(x32)
	sha.Finalize(output)
	sha.Clear()

	return true
}

// ECDH computes an EC Diffie-Hellman shared secret: hashfp applied to
// seckey*pubkey.
func ECDH(ctx *Context, output []byte, pubkey *PublicKey, seckey []byte, hashfp ECDHHashFunction) error {
	if len(output) != 32 {
		return errors.New("output must be 32 bytes")
	}
	if len(seckey) != 32 {
		return errors.New("seckey must be 32 bytes")
	}
	if pubkey == nil {
		return errors.New("pubkey cannot be nil")
	}

	if hashfp == nil {
		hashfp = ecdhHashFunctionSHA256
	}

	var pt GroupElementAffine
	if !pubkeyLoad(&pt, pubkey) || pt.isInfinity() {
		return errors.New("invalid public key")
	}

	var s Scalar
	if !s.setB32Seckey(seckey) {
		return errors.New("invalid secret key")
	}
	if s.isZero() {
		return errors.New("secret key cannot be zero")
	}

	var res GroupElementJacobian
	EcmultConst(&res, &s, &pt)

	var resAff GroupElementAffine
	resAff.setGEJ(&res)
	resAff.x.normalize()
	resAff.y.normalize()

	var x, y [32]byte
	resAff.x.getB32(x[:])
	resAff.y.getB32(y[:])

	success := hashfp(output, x[:], y[:])

	memclear(unsafe.Pointer(&x[0]), 32)
	memclear(unsafe.Pointer(&y[0]), 32)
	s.clear()
	resAff.clear()
	res.clear()

	if !success {
		return errors.New("hash function failed")
	}

	return nil
}

// HKDF performs HMAC-based Key Derivation Function (RFC 5869), producing
// len(output) bytes of key material from ikm.
func HKDF(output []byte, ikm []byte, salt []byte, info []byte) error {
	if len(output) == 0 {
		return errors.New("output length must be greater than 0")
	}

	if len(salt) == 0 {
		salt = make([]byte, 32)
	}

	var prk [32]byte
	hmac := NewHMACSHA256(salt)
	hmac.Write(ikm)
	hmac.Finalize(prk[:])
	hmac.Clear()

	outlen := len(output)
	outidx := 0

	var t []byte
	blockNum := byte(1)
	for outidx < outlen {
		hmac = NewHMACSHA256(prk[:])
		if len(t) > 0 {
			hmac.Write(t)
		}
		if len(info) > 0 {
			hmac.Write(info)
		}
		hmac.Write([]byte{blockNum})

		var tBlock [32]byte
		hmac.Finalize(tBlock[:])
		hmac.Clear()

		copyLen := len(tBlock)
		if copyLen > outlen-outidx {
			copyLen = outlen - outidx
		}
		copy(output[outidx:outidx+copyLen], tBlock[:copyLen])
		outidx += copyLen

		t = tBlock[:]
		blockNum++
	}

	memclear(unsafe.Pointer(&prk[0]), 32)
	if len(t) > 0 {
		memclear(unsafe.Pointer(&t[0]), uintptr(len(t)))
	}

	return nil
}

// ECDHWithHKDF computes an ECDH shared secret and runs it through HKDF to
// derive output-length key material.
func ECDHWithHKDF(ctx *Context, output []byte, pubkey *PublicKey, seckey []byte, salt []byte, info []byte) error {
	var sharedSecret [32]byte
	if err := ECDH(ctx, sharedSecret[:], pubkey, seckey, nil); err != nil {
		return err
	}

	err := HKDF(output, sharedSecret[:], salt, info)

	memclear(unsafe.Pointer(&sharedSecret[0]), 32)

	return err
}

// ECDHXOnly computes an ECDH shared secret and outputs only the X
// coordinate of the shared point (BIP-340 style).
func ECDHXOnly(ctx *Context, output []byte, pubkey *PublicKey, seckey []byte) error {
	if len(output) != 32 {
		return errors.New("output must be 32 bytes")
	}
	if len(seckey) != 32 {
		return errors.New("seckey must be 32 bytes")
	}
	if pubkey == nil {
		return errors.New("pubkey cannot be nil")
	}

	var pt GroupElementAffine
	if !pubkeyLoad(&pt, pubkey) || pt.isInfinity() {
		return errors.New("invalid public key")
	}

	var s Scalar
	if !s.setB32Seckey(seckey) {
		return errors.New("invalid secret key")
	}
	if s.isZero() {
		return errors.New("secret key cannot be zero")
	}

	var res GroupElementJacobian
	EcmultConst(&res, &s, &pt)

	var resAff GroupElementAffine
	resAff.setGEJ(&res)
	resAff.x.normalize()

	resAff.x.getB32(output)

	s.clear()
	resAff.clear()
	res.clear()

	return nil
}
