// Package aesdrv implements AES accelerator driver operations on top of
// the cryptodrv arbitration layer. Every block operation runs inside an
// exclusive device session acquired under the context's wait policy.
package aesdrv

import (
	"github.com/ryankurte/efm32-mbedtls/pkg/cryptodrv"
	"github.com/ryankurte/efm32-mbedtls/pkg/ecode"
)

// Context is a driver context binding operations to a CRYPTO device
// instance. The zero value addresses instance 0 without waiting.
type Context struct {
	drv cryptodrv.Context
}

// Init resets the context to its defaults: device instance 0,
// non-blocking arbitration.
func (c *Context) Init() {
	c.drv = cryptodrv.Context{}
}

// DeInit clears the context. No device resources are held between calls.
func (c *Context) DeInit() {
	c.drv = cryptodrv.Context{}
}

// SetDeviceInstance binds the context to a CRYPTO device instance.
func (c *Context) SetDeviceInstance(devno int) error {
	return c.drv.SetDeviceInstance(devno)
}

// DeviceInstance reports the bound device instance number.
func (c *Context) DeviceInstance() int {
	return c.drv.DeviceInstance()
}

// SetDeviceLockWaitTicks sets the device arbitration wait policy. See
// cryptodrv.Context.SetDeviceLockWaitTicks.
func (c *Context) SetDeviceLockWaitTicks(ticks int) {
	c.drv.SetDeviceLockWaitTicks(ticks)
}

// DeviceLockWaitTicks reports the configured wait policy.
func (c *Context) DeviceLockWaitTicks() int {
	return c.drv.DeviceLockWaitTicks()
}

// ValidateKey programs the key schedule into the bound device and reports
// whether the device accepts it. The device is arbitrated under the wait
// policy, so a held instance can surface ecode.ErrCryptoDRVBusy.
func (c *Context) ValidateKey(key []byte) error {
	if len(key) != 16 && len(key) != 32 {
		return ecode.ErrAESDRVInvalidParam
	}

	sess, err := c.drv.Acquire()
	if err != nil {
		return err
	}
	defer sess.Release()

	return sess.LoadKey(key)
}
