// Package cmac provides AES-CMAC (NIST SP 800-38B) tag generation and
// verification backed by the CRYPTO accelerator devices. A Context owns
// the key material and a driver handle selecting the device instance and
// lock wait policy; every tag operation arbitrates for the device, runs
// the block chain on it and releases it before returning.
package cmac

import (
	"errors"

	"github.com/ryankurte/efm32-mbedtls/pkg/aesdrv"
	"github.com/ryankurte/efm32-mbedtls/pkg/ecode"
)

const (
	// maxKeyBytes sizes the context key buffer for the largest accepted key.
	maxKeyBytes = 32

	// blockSizeBytes is the cipher block size required by CMAC here.
	blockSizeBytes = 16
)

// Context holds the state of one CMAC computation chain. Contexts are not
// safe for concurrent use; the device lock serializes hardware access, not
// access to the context itself.
type Context struct {
	driver      aesdrv.Context
	key         [maxKeyBytes]byte
	keybits     int
	keyed       bool
	initialized bool
}

// Init establishes the context in its empty state, bound to device
// instance 0 with non-blocking arbitration. Call once before any other
// operation; a freed context may be initialized again.
func (c *Context) Init() {
	c.zeroize()
	c.driver.Init()
	c.initialized = true
}

// SetDeviceInstance binds the context to a CRYPTO device instance.
// Subsequent operations route to that instance. Calling it concurrently
// with an in-flight tag operation on the same context is not supported.
func (c *Context) SetDeviceInstance(devno int) error {
	if !c.initialized {
		return ecode.ErrCMACBadInput
	}

	return c.driver.SetDeviceInstance(devno)
}

// SetDeviceLockWaitTicks configures how long tag operations wait to
// acquire the device: zero fails immediately when the device is busy, a
// negative value waits indefinitely, a positive value bounds the wait to
// that many ticks.
func (c *Context) SetDeviceLockWaitTicks(ticks int) error {
	if !c.initialized {
		return ecode.ErrCMACBadInput
	}

	c.driver.SetDeviceLockWaitTicks(ticks)

	return nil
}

// SetKey installs the MAC key. The cipher must identify a 128-bit-block
// AES variant and keybits must be 128 or 256; 192-bit keys are refused by
// the accelerator path with ecode.ErrAESInvalidKeyLength. The key is
// validated against the bound device, so a held instance can surface
// ecode.ErrCryptoDRVBusy. On any failure the context stays not ready for
// tag operations.
func (c *Context) SetKey(cipher CipherID, key []byte, keybits int) error {
	if !c.initialized {
		return ecode.ErrCMACBadInput
	}

	c.keyed = false

	if cipher.BlockSize() != blockSizeBytes {
		return ecode.ErrCMACBadInput
	}

	if cipher != CipherAES {
		// Camellia has the right block size but no accelerator support.
		return ecode.ErrCMACBadInput
	}

	switch keybits {
	case 128, 256:
	case 192:
		return ecode.ErrAESInvalidKeyLength
	default:
		return ecode.ErrCMACBadInput
	}

	if len(key)*8 != keybits {
		return ecode.ErrCMACBadInput
	}

	if err := c.driver.ValidateKey(key); err != nil {
		return mapDriverError(err)
	}

	copy(c.key[:], key)
	c.keybits = keybits
	c.keyed = true

	return nil
}

// Free zeroizes the key material and returns the context to its
// uninitialized state. Idempotent; freeing an already freed context is a
// no-op. No device resources are held between operations.
func (c *Context) Free() {
	c.driver.DeInit()
	c.zeroize()
}

// GenerateTag computes the CMAC over the first dataLengthBits bits of
// data and writes the leading tagLengthBits bits into tag, zeroing unused
// trailing bits of the final byte. The data length must be a multiple of
// 8 bits, the tag length between 1 and 128 bits, and tag must hold at
// least (tagLengthBits+7)/8 bytes. A context without an installed key
// fails with ecode.ErrCMACBadInput.
func (c *Context) GenerateTag(
	data []byte,
	dataLengthBits int,
	tag []byte,
	tagLengthBits int,
) error {
	return c.compute(data, dataLengthBits, tag, tagLengthBits, true)
}

// VerifyTag recomputes the CMAC exactly as GenerateTag and compares the
// leading tagLengthBits bits against tag in constant time. A mismatch
// reports ecode.ErrCMACAuthFailed, distinct from the bad-input errors.
func (c *Context) VerifyTag(
	data []byte,
	dataLengthBits int,
	tag []byte,
	tagLengthBits int,
) error {
	return c.compute(data, dataLengthBits, tag, tagLengthBits, false)
}

func (c *Context) compute(
	data []byte,
	dataLengthBits int,
	tag []byte,
	tagLengthBits int,
	encrypt bool,
) error {
	if !c.initialized || !c.keyed {
		return ecode.ErrCMACBadInput
	}

	err := c.driver.CMAC(
		c.key[:c.keybits/8],
		data,
		dataLengthBits,
		tag,
		tagLengthBits,
		encrypt,
	)

	return mapDriverError(err)
}

// mapDriverError folds driver validation and authentication results into
// the error codes of this layer. Device arbitration errors pass through
// unchanged.
func mapDriverError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ecode.ErrAESDRVInvalidParam):
		return ecode.ErrCMACBadInput
	case errors.Is(err, ecode.ErrAESDRVAuthenticationFailed):
		return ecode.ErrCMACAuthFailed
	default:
		return err
	}
}

func (c *Context) zeroize() {
	c.key = [maxKeyBytes]byte{}
	c.keybits = 0
	c.keyed = false
	c.initialized = false
}
