package p256k1

import (
	"crypto/rand"
	"testing"
)

func TestECDSASignRecoverableAndRecover(t *testing.T) {
	ctx := ContextCreate(ContextSign | ContextVerify)
	defer ContextDestroy(ctx)

	seckey := make([]byte, 32)
	var scalar Scalar
	for {
		if _, err := rand.Read(seckey); err != nil {
			t.Fatal(err)
		}
		if scalar.setB32Seckey(seckey) {
			break
		}
	}

	var pubkey PublicKey
	if !ECPubkeyCreate(ctx, &pubkey, seckey) {
		t.Fatalf("failed to create public key")
	}

	msghash := make([]byte, 32)
	if _, err := rand.Read(msghash); err != nil {
		t.Fatal(err)
	}

	var sig RecoverableSignature
	if !ECDSASignRecoverable(ctx, &sig, msghash, seckey, nil, nil) {
		t.Fatalf("failed to sign recoverable")
	}

	var recovered PublicKey
	if !ECDSARecover(ctx, &recovered, &sig, msghash) {
		t.Fatalf("recovery failed")
	}
	if recovered != pubkey {
		t.Error("recovered public key does not match original")
	}

	var plain Signature
	if !ECDSARecoverableSignatureConvert(ctx, &plain, &sig) {
		t.Fatalf("failed to convert recoverable signature")
	}
	if !ECDSAVerify(ctx, &plain, msghash, &pubkey) {
		t.Error("converted signature failed to verify")
	}
}

func TestECDSARecoverWrongRecid(t *testing.T) {
	ctx := ContextCreate(ContextSign | ContextVerify)
	defer ContextDestroy(ctx)

	seckey := make([]byte, 32)
	for {
		if _, err := rand.Read(seckey); err != nil {
			t.Fatal(err)
		}
		var scalar Scalar
		if scalar.setB32Seckey(seckey) {
			break
		}
	}

	var pubkey PublicKey
	if !ECPubkeyCreate(ctx, &pubkey, seckey) {
		t.Fatalf("failed to create public key")
	}

	msghash := make([]byte, 32)
	if _, err := rand.Read(msghash); err != nil {
		t.Fatal(err)
	}

	var sig RecoverableSignature
	if !ECDSASignRecoverable(ctx, &sig, msghash, seckey, nil, nil) {
		t.Fatalf("failed to sign recoverable")
	}

	wrongRecid := (sig.recid + 1) % 4
	tampered := sig
	tampered.recid = wrongRecid

	var recovered PublicKey
	if ECDSARecover(ctx, &recovered, &tampered, msghash) && recovered == pubkey {
		t.Error("recovery with wrong recid should not reproduce the original key")
	}
}

func TestECDSASignatureSerializeCompactRecoverableRoundTrip(t *testing.T) {
	ctx := ContextCreate(ContextSign | ContextVerify)
	defer ContextDestroy(ctx)

	seckey := make([]byte, 32)
	for {
		if _, err := rand.Read(seckey); err != nil {
			t.Fatal(err)
		}
		var scalar Scalar
		if scalar.setB32Seckey(seckey) {
			break
		}
	}

	msghash := make([]byte, 32)
	if _, err := rand.Read(msghash); err != nil {
		t.Fatal(err)
	}

	var sig RecoverableSignature
	if !ECDSASignRecoverable(ctx, &sig, msghash, seckey, nil, nil) {
		t.Fatalf("failed to sign recoverable")
	}

	var out [64]byte
	var recid int
	if !ECDSASignatureSerializeCompactRecoverable(ctx, out[:], &recid, &sig) {
		t.Fatalf("failed to serialize recoverable signature")
	}

	var parsed RecoverableSignature
	if !ECDSARecoverableSignatureParseCompact(ctx, &parsed, out[:], recid) {
		t.Fatalf("failed to parse recoverable signature")
	}

	var pubkey PublicKey
	if !ECPubkeyCreate(ctx, &pubkey, seckey) {
		t.Fatalf("failed to create public key")
	}

	var recovered PublicKey
	if !ECDSARecover(ctx, &recovered, &parsed, msghash) {
		t.Fatalf("recovery from parsed signature failed")
	}
	if recovered != pubkey {
		t.Error("recovered public key from parsed signature mismatch")
	}
}
