package cmac_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryankurte/efm32-mbedtls/pkg/cmac"
	"github.com/ryankurte/efm32-mbedtls/pkg/cryptodrv"
	"github.com/ryankurte/efm32-mbedtls/pkg/ecode"
)

var (
	testKey128 = mustHex("2b7e151628aed2a6abf7158809cf4f3c")
	testKey256 = mustHex(
		"603deb1015ca71be2b73aef0857d77811f352c073b6108d72d9810a30914dff4",
	)
	testMessage = mustHex(
		"6bc1bee22e409f96e93d7e117393172aae2d8a571e03ac9c9eb76fac45af8e51" +
			"30c81c46a35ce411e5fbc1191a0a52eff69f2445df4f9b17ad2b417be66c3710",
	)
)

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}

	return b
}

func keyedContext(t *testing.T, key []byte) *cmac.Context {
	t.Helper()

	ctx := &cmac.Context{}
	ctx.Init()

	require.NoError(t, ctx.SetDeviceLockWaitTicks(-1))
	require.NoError(t, ctx.SetKey(cmac.CipherAES, key, len(key)*8))

	t.Cleanup(ctx.Free)

	return ctx
}

func TestGenerateVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		key     []byte
		msgLen  int
		tagBits int
	}{
		{"aes128 empty full tag", testKey128, 0, 128},
		{"aes128 one block", testKey128, 16, 128},
		{"aes128 padded", testKey128, 20, 128},
		{"aes128 short tag", testKey128, 64, 32},
		{"aes128 sub-byte tag", testKey128, 40, 13},
		{"aes256 empty", testKey256, 0, 128},
		{"aes256 two blocks", testKey256, 32, 64},
		{"aes256 padded short tag", testKey256, 25, 48},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx := keyedContext(t, tc.key)
			msg := testMessage[:tc.msgLen]

			tag := make([]byte, (tc.tagBits+7)/8)
			require.NoError(t, ctx.GenerateTag(msg, tc.msgLen*8, tag, tc.tagBits))

			assert.NoError(t, ctx.VerifyTag(msg, tc.msgLen*8, tag, tc.tagBits))
		})
	}
}

func TestVerifyRejectsBitFlips(t *testing.T) {
	t.Parallel()

	ctx := keyedContext(t, testKey128)
	msg := testMessage[:40]

	tag := make([]byte, 16)
	require.NoError(t, ctx.GenerateTag(msg, len(msg)*8, tag, 128))

	for _, bit := range []int{0, 1, 63, 127} {
		bad := append([]byte(nil), tag...)
		bad[bit/8] ^= 1 << (7 - bit%8)

		err := ctx.VerifyTag(msg, len(msg)*8, bad, 128)
		assert.ErrorIs(t, err, ecode.ErrCMACAuthFailed, "flipped bit %d", bit)
	}
}

func TestInputValidation(t *testing.T) {
	t.Parallel()

	ctx := keyedContext(t, testKey128)
	tag := make([]byte, 16)

	tests := []struct {
		name    string
		dataLen int
		tagBits int
	}{
		{"data bits not byte multiple", 13, 128},
		{"negative data bits", -8, 128},
		{"zero tag bits", 64, 0},
		{"tag bits over 128", 64, 129},
		{"negative tag bits", 64, -4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ctx.GenerateTag(testMessage, tc.dataLen, tag, tc.tagBits)
			assert.ErrorIs(t, err, ecode.ErrCMACBadInput)

			err = ctx.VerifyTag(testMessage, tc.dataLen, tag, tc.tagBits)
			assert.ErrorIs(t, err, ecode.ErrCMACBadInput)
		})
	}

	t.Run("full 128-bit tag is accepted", func(t *testing.T) {
		assert.NoError(t, ctx.GenerateTag(testMessage, 64, tag, 128))
	})
}

func TestSetKeyValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cipher  cmac.CipherID
		key     []byte
		keybits int
		want    error
	}{
		{"des cipher", cmac.CipherDES, testKey128, 128, ecode.ErrCMACBadInput},
		{"triple des cipher", cmac.CipherTripleDES, testKey128, 128, ecode.ErrCMACBadInput},
		{"camellia cipher", cmac.CipherCamellia, testKey128, 128, ecode.ErrCMACBadInput},
		{"none cipher", cmac.CipherNone, testKey128, 128, ecode.ErrCMACBadInput},
		{"aes-192", cmac.CipherAES, testKey256[:24], 192, ecode.ErrAESInvalidKeyLength},
		{"unsupported bits", cmac.CipherAES, testKey128[:8], 64, ecode.ErrCMACBadInput},
		{"zero bits", cmac.CipherAES, nil, 0, ecode.ErrCMACBadInput},
		{"key shorter than keybits", cmac.CipherAES, testKey128[:12], 128, ecode.ErrCMACBadInput},
		{"key longer than keybits", cmac.CipherAES, testKey256, 128, ecode.ErrCMACBadInput},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx := &cmac.Context{}
			ctx.Init()

			assert.ErrorIs(t, ctx.SetKey(tc.cipher, tc.key, tc.keybits), tc.want)

			// A failed SetKey leaves the context not ready.
			tag := make([]byte, 16)
			err := ctx.GenerateTag(nil, 0, tag, 128)
			assert.ErrorIs(t, err, ecode.ErrCMACBadInput)
		})
	}
}

func TestFailedSetKeyClearsReadiness(t *testing.T) {
	t.Parallel()

	ctx := keyedContext(t, testKey128)

	tag := make([]byte, 16)
	require.NoError(t, ctx.GenerateTag(nil, 0, tag, 128))

	require.ErrorIs(
		t,
		ctx.SetKey(cmac.CipherDES, testKey128, 128),
		ecode.ErrCMACBadInput,
	)

	err := ctx.GenerateTag(nil, 0, tag, 128)
	assert.ErrorIs(t, err, ecode.ErrCMACBadInput)
}

func TestLifecycle(t *testing.T) {
	t.Parallel()

	tag := make([]byte, 16)

	t.Run("operations before init fail", func(t *testing.T) {
		t.Parallel()

		var ctx cmac.Context

		assert.ErrorIs(t, ctx.SetDeviceInstance(0), ecode.ErrCMACBadInput)
		assert.ErrorIs(t, ctx.SetDeviceLockWaitTicks(5), ecode.ErrCMACBadInput)
		assert.ErrorIs(
			t,
			ctx.SetKey(cmac.CipherAES, testKey128, 128),
			ecode.ErrCMACBadInput,
		)

		out := make([]byte, 16)
		assert.ErrorIs(t, ctx.GenerateTag(nil, 0, out, 128), ecode.ErrCMACBadInput)
		assert.ErrorIs(t, ctx.VerifyTag(nil, 0, out, 128), ecode.ErrCMACBadInput)
	})

	t.Run("tag operations before setkey fail", func(t *testing.T) {
		t.Parallel()

		var ctx cmac.Context

		ctx.Init()

		out := make([]byte, 16)
		assert.ErrorIs(t, ctx.GenerateTag(nil, 0, out, 128), ecode.ErrCMACBadInput)
		assert.ErrorIs(t, ctx.VerifyTag(nil, 0, out, 128), ecode.ErrCMACBadInput)
	})

	t.Run("free is idempotent", func(t *testing.T) {
		t.Parallel()

		var ctx cmac.Context

		ctx.Init()
		require.NoError(t, ctx.SetDeviceLockWaitTicks(-1))
		require.NoError(t, ctx.SetKey(cmac.CipherAES, testKey128, 128))

		ctx.Free()
		ctx.Free()

		out := make([]byte, 16)
		assert.ErrorIs(t, ctx.GenerateTag(nil, 0, out, 128), ecode.ErrCMACBadInput)
	})

	t.Run("free before init is safe", func(t *testing.T) {
		t.Parallel()

		var ctx cmac.Context

		ctx.Free()
		assert.ErrorIs(t, ctx.GenerateTag(nil, 0, tag, 128), ecode.ErrCMACBadInput)
	})

	t.Run("context can be reinitialized after free", func(t *testing.T) {
		t.Parallel()

		var ctx cmac.Context

		ctx.Init()
		require.NoError(t, ctx.SetDeviceLockWaitTicks(-1))
		require.NoError(t, ctx.SetKey(cmac.CipherAES, testKey128, 128))
		ctx.Free()

		ctx.Init()
		require.NoError(t, ctx.SetDeviceLockWaitTicks(-1))
		require.NoError(t, ctx.SetKey(cmac.CipherAES, testKey256, 256))

		out := make([]byte, 16)
		assert.NoError(t, ctx.GenerateTag(testMessage[:16], 128, out, 128))

		ctx.Free()
	})
}

func TestSetDeviceInstanceBounds(t *testing.T) {
	t.Parallel()

	var ctx cmac.Context

	ctx.Init()

	require.NoError(t, ctx.SetDeviceInstance(1))

	err := ctx.SetDeviceInstance(cryptodrv.DeviceCount())
	assert.ErrorIs(t, err, ecode.ErrDeviceNotSupported)

	assert.ErrorIs(t, ctx.SetDeviceInstance(-1), ecode.ErrDeviceNotSupported)
}

func TestBusyDeviceSurfacesDriverError(t *testing.T) {
	t.Parallel()

	// Hold device 1 directly so the zero-tick context cannot get it.
	var holder cryptodrv.Context

	holder.SetDeviceLockWaitTicks(-1)
	require.NoError(t, holder.SetDeviceInstance(1))

	sess, err := holder.Acquire()
	require.NoError(t, err)
	defer sess.Release()

	var ctx cmac.Context

	ctx.Init()
	require.NoError(t, ctx.SetDeviceInstance(1))
	require.NoError(t, ctx.SetDeviceLockWaitTicks(0))

	err = ctx.SetKey(cmac.CipherAES, testKey128, 128)
	assert.ErrorIs(t, err, ecode.ErrCryptoDRVBusy, "setkey exercises the device")

	// Key the context on a free device, rebind, then fail fast on the
	// held one.
	require.NoError(t, ctx.SetDeviceInstance(0))
	require.NoError(t, ctx.SetDeviceLockWaitTicks(-1))
	require.NoError(t, ctx.SetKey(cmac.CipherAES, testKey128, 128))

	require.NoError(t, ctx.SetDeviceInstance(1))
	require.NoError(t, ctx.SetDeviceLockWaitTicks(0))

	tag := make([]byte, 16)
	assert.ErrorIs(
		t,
		ctx.GenerateTag(testMessage[:16], 128, tag, 128),
		ecode.ErrCryptoDRVBusy,
	)
	assert.ErrorIs(
		t,
		ctx.VerifyTag(testMessage[:16], 128, tag, 128),
		ecode.ErrCryptoDRVBusy,
	)
}

func TestTruncatedTagIsPrefix(t *testing.T) {
	t.Parallel()

	ctx := keyedContext(t, testKey128)
	msg := testMessage[:40]

	full := make([]byte, 16)
	require.NoError(t, ctx.GenerateTag(msg, len(msg)*8, full, 128))

	short := make([]byte, 6)
	require.NoError(t, ctx.GenerateTag(msg, len(msg)*8, short, 48))

	assert.Equal(t, full[:6], short)
}
