package p256k1

import (
	"crypto/rand"
	"errors"
)

// Context flag bits. A Context records the flags it was created with
// and reports them through canSign, canVerify, canCommit and
// canRangeproof. No flag builds a precomputed table: every Context
// carries the same blinded generator-multiplication state whatever its
// flags.
const (
	ContextNone      uint = 0
	ContextSign      uint = 1 << 0
	ContextVerify    uint = 1 << 1
	ContextCommit    uint = 1 << 2
	ContextRangeproof uint = 1 << 3
)

// CallbackFunction is invoked when an illegal argument or an internal
// invariant violation is detected. The default implementations panic,
// matching the library's fail-fast stance on programmer error.
type CallbackFunction func(msg string)

func defaultIllegalCallback(msg string) {
	panic("illegal argument: " + msg)
}

func defaultErrorCallback(msg string) {
	panic("internal error: " + msg)
}

// Context bundles the sub-contexts used by the operations in this
// package. A freshly created context always carries a blinded ecmult_gen
// sub-context (used for scalar*G multiplication, which underlies key
// generation, signing, tweaking and commitments); it holds no
// precomputed tables. The flags record which capabilities the caller
// asked for.
type Context struct {
	flags uint

	ecmultGenCtx *EcmultGenContext

	illegalCallback CallbackFunction
	errorCallback   CallbackFunction
}

// ContextCreate builds a new context with the requested capability
// flags. Building draws a random seed and blinds the generator
// multiplication, which costs one scalar multiplication; no precomputed
// tables are built. Callers are expected to create one context per
// process and reuse it, as with the underlying C library.
func ContextCreate(flags uint) *Context {
	ctx := &Context{
		flags:           flags,
		ecmultGenCtx:    NewEcmultGenContext(),
		illegalCallback: defaultIllegalCallback,
		errorCallback:   defaultErrorCallback,
	}

	var seed [32]byte
	_, _ = rand.Read(seed[:])
	ctx.ecmultGenCtx.blind(seed[:])

	return ctx
}

// ContextDestroy releases a context's sensitive state. Calling it with
// a nil context is a no-op, matching secp256k1_context_destroy.
func ContextDestroy(ctx *Context) {
	if ctx == nil {
		return
	}
	if ctx.ecmultGenCtx != nil {
		ctx.ecmultGenCtx.clear()
	}
	ctx.ecmultGenCtx = nil
	ctx.flags = 0
}

// ContextRandomize updates the blinding factor used by the constant-time
// generator multiplication (ecmult_gen), to protect against differential
// power-analysis attacks that correlate many signing operations against
// the same static blind. Passing a nil seed draws fresh randomness;
// otherwise seed32 must be exactly 32 bytes.
func ContextRandomize(ctx *Context, seed32 []byte) error {
	if ctx == nil {
		return errors.New("nil context")
	}
	if ctx.ecmultGenCtx == nil {
		return errors.New("context has no ecmult_gen sub-context")
	}

	var seed [32]byte
	if seed32 == nil {
		if _, err := rand.Read(seed[:]); err != nil {
			return err
		}
	} else {
		if len(seed32) != 32 {
			return errors.New("seed must be 32 bytes")
		}
		copy(seed[:], seed32)
	}

	ctx.ecmultGenCtx.blind(seed[:])
	return nil
}

// canSign reports whether the context was built with signing capability.
func (ctx *Context) canSign() bool {
	return ctx.flags&ContextSign != 0
}

// canVerify reports whether the context was built with verification
// capability.
func (ctx *Context) canVerify() bool {
	return ctx.flags&ContextVerify != 0
}

// canCommit reports whether the context was created with the
// ContextCommit flag. No generator-H table is attached to the context.
func (ctx *Context) canCommit() bool {
	return ctx.flags&ContextCommit != 0
}

// canRangeproof reports whether the context was created with the
// ContextRangeproof flag. No additional tables are attached to the
// context.
func (ctx *Context) canRangeproof() bool {
	return ctx.flags&ContextRangeproof != 0
}

// argCheck invokes the context's illegal-argument callback when cond is
// false. It mirrors the ARG_CHECK macro used throughout the C library.
func argCheck(ctx *Context, cond bool, msg string) bool {
	if !cond {
		cb := defaultIllegalCallback
		if ctx != nil && ctx.illegalCallback != nil {
			cb = ctx.illegalCallback
		}
		cb(msg)
		return false
	}
	return true
}

// ContextStatic is a verify-only context with no signing capability and
// no caller-controlled blinding, analogous to secp256k1_context_static.
// It is suitable for parsing and verification but must never be used
// with signing or tweaking operations.
var ContextStatic = &Context{
	flags:           ContextVerify,
	ecmultGenCtx:    NewEcmultGenContext(),
	illegalCallback: defaultIllegalCallback,
	errorCallback:   defaultErrorCallback,
}

// Selftest runs a handful of cheap field, scalar and point checks to catch
// a broken build (wrong curve constants, a miscompiled limb routine) before
// it does any damage. It is not a substitute for the test suite.
func Selftest() error {
	var a, b, c FieldElement
	a.setInt(1)
	b.setInt(2)
	c.add(&a)
	c.add(&b)
	c.normalize()

	var expected FieldElement
	expected.setInt(3)
	expected.normalize()
	if !c.equal(&expected) {
		return errors.New("field addition self-test failed")
	}

	var sa, sb, sc Scalar
	sa.setInt(2)
	sb.setInt(3)
	sc.mul(&sa, &sb)

	var sexpected Scalar
	sexpected.setInt(6)
	if !sc.equal(&sexpected) {
		return errors.New("scalar multiplication self-test failed")
	}

	if !GeneratorAffine.isValid() {
		return errors.New("generator point validation failed")
	}

	var doubled GroupElementJacobian
	var two Scalar
	two.setInt(2)
	EcmultConst(&doubled, &two, &GeneratorAffine)
	if doubled.isInfinity() {
		return errors.New("generator doubling self-test failed")
	}

	return nil
}
