package cryptodrv_test

import (
	"crypto/aes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryankurte/efm32-mbedtls/pkg/cryptodrv"
	"github.com/ryankurte/efm32-mbedtls/pkg/ecode"
)

type stubEngine struct {
	loadErr    error
	encryptErr error
}

func (e *stubEngine) LoadKey(_ []byte) error {
	return e.loadErr
}

func (e *stubEngine) EncryptBlock(dst, src []byte) error {
	if e.encryptErr != nil {
		return e.encryptErr
	}

	copy(dst, src)

	return nil
}

// Sequential tests mutating the registry run before the parallel tests
// below and restore the default configuration on exit.

func TestConfigureValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  cryptodrv.Config
	}{
		{"negative devices", cryptodrv.Config{Devices: -1}},
		{"negative tick", cryptodrv.Config{TickDuration: -time.Millisecond}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, cryptodrv.Configure(tc.cfg))
		})
	}
}

func TestConfigureCustomEngine(t *testing.T) {
	loadFailed := errors.New("key write rejected")
	encFailed := errors.New("sequencer fault")

	eng := &stubEngine{}
	require.NoError(t, cryptodrv.Configure(cryptodrv.Config{
		Devices:   1,
		NewEngine: func() cryptodrv.Engine { return eng },
	}))

	t.Cleanup(func() {
		require.NoError(t, cryptodrv.Configure(cryptodrv.Config{}))
	})

	assert.Equal(t, 1, cryptodrv.DeviceCount())

	var ctx cryptodrv.Context

	eng.loadErr = loadFailed

	sess, err := ctx.Acquire()
	require.NoError(t, err)

	assert.ErrorIs(t, sess.LoadKey(make([]byte, 16)), loadFailed)

	eng.loadErr = nil
	eng.encryptErr = encFailed

	require.NoError(t, sess.LoadKey(make([]byte, 16)))

	block := make([]byte, cryptodrv.BlockSize)
	assert.ErrorIs(t, sess.EncryptBlock(block, block), encFailed)

	sess.Release()
}

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2, cryptodrv.DeviceCount())
	assert.Equal(t, time.Millisecond, cryptodrv.TickDuration())
}

func TestSetDeviceInstance(t *testing.T) {
	t.Parallel()

	var ctx cryptodrv.Context

	require.NoError(t, ctx.SetDeviceInstance(1))
	assert.Equal(t, 1, ctx.DeviceInstance())

	err := ctx.SetDeviceInstance(cryptodrv.DeviceCount())
	assert.ErrorIs(t, err, ecode.ErrDeviceNotSupported)
	assert.Equal(t, 1, ctx.DeviceInstance(), "failed set must not rebind")

	assert.ErrorIs(t, ctx.SetDeviceInstance(-1), ecode.ErrDeviceNotSupported)
}

func TestSessionEncryptsLikeAES(t *testing.T) {
	t.Parallel()

	key := []byte("0123456789abcdef")
	plain := []byte("quick brown fox!")

	var ctx cryptodrv.Context

	ctx.SetDeviceLockWaitTicks(-1)

	sess, err := ctx.Acquire()
	require.NoError(t, err)
	defer sess.Release()

	require.NoError(t, sess.LoadKey(key))

	got := make([]byte, cryptodrv.BlockSize)
	require.NoError(t, sess.EncryptBlock(got, plain))

	ref, err := aes.NewCipher(key)
	require.NoError(t, err)

	want := make([]byte, cryptodrv.BlockSize)
	ref.Encrypt(want, plain)

	assert.Equal(t, want, got)
	assert.Equal(t, 0, sess.Device())
}

func TestEngineRejectsBadInput(t *testing.T) {
	t.Parallel()

	eng := cryptodrv.NewAESEngine()

	block := make([]byte, cryptodrv.BlockSize)
	assert.Error(t, eng.EncryptBlock(block, block), "encrypt before key load")

	assert.Error(t, eng.LoadKey(make([]byte, 15)))

	require.NoError(t, eng.LoadKey(make([]byte, 16)))
	assert.Error(t, eng.EncryptBlock(make([]byte, 8), block))
	assert.Error(t, eng.EncryptBlock(block, make([]byte, 8)))
}

func TestBusyDeviceFailsFast(t *testing.T) {
	t.Parallel()

	var holder cryptodrv.Context

	holder.SetDeviceLockWaitTicks(-1)
	require.NoError(t, holder.SetDeviceInstance(1))

	sess, err := holder.Acquire()
	require.NoError(t, err)

	var waiter cryptodrv.Context

	require.NoError(t, waiter.SetDeviceInstance(1))
	waiter.SetDeviceLockWaitTicks(0)

	_, err = waiter.Acquire()
	assert.ErrorIs(t, err, ecode.ErrCryptoDRVBusy)

	sess.Release()

	waiter.SetDeviceLockWaitTicks(-1)

	sess2, err := waiter.Acquire()
	require.NoError(t, err)
	sess2.Release()
}

func TestBoundedWaitTimesOut(t *testing.T) {
	t.Parallel()

	var holder cryptodrv.Context

	holder.SetDeviceLockWaitTicks(-1)
	require.NoError(t, holder.SetDeviceInstance(1))

	sess, err := holder.Acquire()
	require.NoError(t, err)
	defer sess.Release()

	var waiter cryptodrv.Context

	require.NoError(t, waiter.SetDeviceInstance(1))
	waiter.SetDeviceLockWaitTicks(5)

	start := time.Now()
	_, err = waiter.Acquire()

	assert.ErrorIs(t, err, ecode.ErrCryptoDRVBusy)
	assert.GreaterOrEqual(
		t,
		time.Since(start),
		4*time.Millisecond,
		"must wait out the configured ticks before giving up",
	)
}

func TestBoundedWaitAcquiresWhenReleased(t *testing.T) {
	t.Parallel()

	var holder cryptodrv.Context

	holder.SetDeviceLockWaitTicks(-1)

	sess, err := holder.Acquire()
	require.NoError(t, err)

	go func() {
		time.Sleep(5 * time.Millisecond)
		sess.Release()
	}()

	var waiter cryptodrv.Context

	waiter.SetDeviceLockWaitTicks(1000)

	sess2, err := waiter.Acquire()
	require.NoError(t, err)
	sess2.Release()
}

func TestUnboundedWait(t *testing.T) {
	t.Parallel()

	var holder cryptodrv.Context

	holder.SetDeviceLockWaitTicks(-1)
	require.NoError(t, holder.SetDeviceInstance(1))

	sess, err := holder.Acquire()
	require.NoError(t, err)

	go func() {
		time.Sleep(5 * time.Millisecond)
		sess.Release()
	}()

	var waiter cryptodrv.Context

	require.NoError(t, waiter.SetDeviceInstance(1))
	waiter.SetDeviceLockWaitTicks(-1)

	sess2, err := waiter.Acquire()
	require.NoError(t, err)
	sess2.Release()
}

func TestReleasedSessionRejectsOperations(t *testing.T) {
	t.Parallel()

	var ctx cryptodrv.Context

	ctx.SetDeviceLockWaitTicks(-1)

	sess, err := ctx.Acquire()
	require.NoError(t, err)

	sess.Release()
	sess.Release()

	assert.ErrorIs(t, sess.LoadKey(make([]byte, 16)), ecode.ErrCryptoDRVAborted)

	block := make([]byte, cryptodrv.BlockSize)
	assert.ErrorIs(t, sess.EncryptBlock(block, block), ecode.ErrCryptoDRVAborted)

	sess2, err := ctx.Acquire()
	require.NoError(t, err, "double release must not unbalance the device lock")
	sess2.Release()
}

func TestDeviceStats(t *testing.T) {
	t.Parallel()

	before, err := cryptodrv.DeviceStats(0)
	require.NoError(t, err)

	var ctx cryptodrv.Context

	ctx.SetDeviceLockWaitTicks(-1)

	sess, err := ctx.Acquire()
	require.NoError(t, err)

	require.NoError(t, sess.LoadKey(make([]byte, 16)))

	block := make([]byte, cryptodrv.BlockSize)
	require.NoError(t, sess.EncryptBlock(block, block))
	sess.Release()

	after, err := cryptodrv.DeviceStats(0)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, after.Sessions, before.Sessions+1)
	assert.GreaterOrEqual(t, after.Blocks, before.Blocks+1)

	_, err = cryptodrv.DeviceStats(cryptodrv.DeviceCount())
	assert.ErrorIs(t, err, ecode.ErrDeviceNotSupported)
}
