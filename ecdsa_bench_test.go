package p256k1

import (
	"crypto/rand"
	"testing"
)

var (
	benchCtx       *Context
	benchSeckey    []byte
	benchPubkey    PublicKey
	benchMsghash   []byte
	benchSignature Signature
)

func initBenchmarkData() {
	benchCtx = ContextCreate(ContextSign | ContextVerify)

	benchSeckey = []byte{
		0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01,
		0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01,
		0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01,
		0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01,
	}

	var scalar Scalar
	for !scalar.setB32Seckey(benchSeckey) {
		if _, err := rand.Read(benchSeckey); err != nil {
			panic(err)
		}
	}

	if !ECPubkeyCreate(benchCtx, &benchPubkey, benchSeckey) {
		panic("failed to create bench public key")
	}

	benchMsghash = make([]byte, 32)
	if _, err := rand.Read(benchMsghash); err != nil {
		panic(err)
	}

	if !ECDSASign(benchCtx, &benchSignature, benchMsghash, benchSeckey, nil, nil) {
		panic("failed to create bench signature")
	}
}

func BenchmarkECDSASign(b *testing.B) {
	if benchSeckey == nil {
		initBenchmarkData()
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var sig Signature
		ECDSASign(benchCtx, &sig, benchMsghash, benchSeckey, nil, nil)
	}
}

func BenchmarkECDSAVerify(b *testing.B) {
	if benchSeckey == nil {
		initBenchmarkData()
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ECDSAVerify(benchCtx, &benchSignature, benchMsghash, &benchPubkey)
	}
}

func BenchmarkECDSASignatureSerializeCompact(b *testing.B) {
	if benchSeckey == nil {
		initBenchmarkData()
	}

	var compact [64]byte
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ECDSASignatureSerializeCompact(benchCtx, compact[:], &benchSignature)
	}
}

func BenchmarkECSeckeyGenerate(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ECSeckeyGenerate()
	}
}

func BenchmarkECKeyPairGenerate(b *testing.B) {
	if benchCtx == nil {
		initBenchmarkData()
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ECKeyPairGenerate(benchCtx)
	}
}

func BenchmarkSHA256(b *testing.B) {
	data := make([]byte, 64)
	rand.Read(data)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h := NewSHA256()
		h.Write(data)
		var result [32]byte
		h.Finalize(result[:])
		h.Clear()
	}
}

func BenchmarkHMACSHA256(b *testing.B) {
	key := make([]byte, 32)
	data := make([]byte, 64)
	rand.Read(key)
	rand.Read(data)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		hmac := NewHMACSHA256(key)
		hmac.Write(data)
		var result [32]byte
		hmac.Finalize(result[:])
		hmac.Clear()
	}
}

func BenchmarkRFC6979(b *testing.B) {
	key := make([]byte, 64)
	rand.Read(key)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rng := NewRFC6979HMACSHA256(key)
		var nonce [32]byte
		rng.Generate(nonce[:])
		rng.Finalize()
		rng.Clear()
	}
}

func BenchmarkTaggedHash(b *testing.B) {
	tag := []byte("BIP0340/challenge")
	data := make([]byte, 32)
	rand.Read(data)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		TaggedHash(tag, data)
	}
}
