package p256k1

import (
	"crypto/rand"
	"errors"
)

var errInvalidSeckey = errors.New("invalid secret key")

// ecSeckeyVerifyNoCtx verifies that a 32-byte array is a valid secret key.
// Deprecated: kept for callers that don't hold a Context; prefer the
// ctx-taking ECSeckeyVerify in pubkey.go.
func ecSeckeyVerifyNoCtx(seckey []byte) bool {
	if len(seckey) != 32 {
		return false
	}
	var scalar Scalar
	return scalar.setB32Seckey(seckey)
}

// ECSeckeyNegate negates a secret key in place.
func ECSeckeyNegate(seckey []byte) bool {
	if len(seckey) != 32 {
		return false
	}

	var scalar Scalar
	if !scalar.setB32Seckey(seckey) {
		return false
	}

	scalar.negate(&scalar)
	scalar.getB32(seckey)
	return true
}

// ECSeckeyGenerate generates a new random secret key.
func ECSeckeyGenerate() ([]byte, error) {
	seckey := make([]byte, 32)
	for {
		if _, err := rand.Read(seckey); err != nil {
			return nil, err
		}

		if ecSeckeyVerifyNoCtx(seckey) {
			return seckey, nil
		}
	}
}

// ECSeckeyTweakAdd adds a tweak to a secret key: seckey = seckey + tweak mod n.
func ECSeckeyTweakAdd(seckey []byte, tweak []byte) error {
	if len(seckey) != 32 {
		return errors.New("secret key must be 32 bytes")
	}
	if len(tweak) != 32 {
		return errors.New("tweak must be 32 bytes")
	}

	var sec, tw Scalar
	if !sec.setB32Seckey(seckey) {
		return errInvalidSeckey
	}
	if !tw.setB32Seckey(tweak) {
		return errors.New("invalid tweak")
	}

	sec.add(&sec, &tw)

	if sec.isZero() {
		return errors.New("resulting secret key is zero")
	}

	sec.getB32(seckey)
	return nil
}

// ECSeckeyTweakMul multiplies a secret key by a tweak: seckey = seckey * tweak mod n.
func ECSeckeyTweakMul(seckey []byte, tweak []byte) error {
	if len(seckey) != 32 {
		return errors.New("secret key must be 32 bytes")
	}
	if len(tweak) != 32 {
		return errors.New("tweak must be 32 bytes")
	}

	var sec, tw Scalar
	if !sec.setB32Seckey(seckey) {
		return errInvalidSeckey
	}
	if !tw.setB32Seckey(tweak) {
		return errors.New("invalid tweak")
	}

	sec.mul(&sec, &tw)

	if sec.isZero() {
		return errors.New("resulting secret key is zero")
	}

	sec.getB32(seckey)
	return nil
}
