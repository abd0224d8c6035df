// Package cryptodrv arbitrates exclusive access to the CRYPTO device
// instances. Devices live in a package registry and are addressed by
// instance number; a Context selects an instance and a lock wait policy,
// and Acquire hands out an exclusive Session executing AES block
// operations through the device engine.
package cryptodrv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ryankurte/efm32-mbedtls/pkg/ecode"
)

const (
	defaultDeviceCount  = 2
	defaultTickDuration = time.Millisecond
)

// Config describes the device registry. Zero fields take defaults:
// two device instances, one millisecond per wait tick, the software
// AES engine.
type Config struct {
	Devices      int
	TickDuration time.Duration
	NewEngine    EngineFactory
}

type registry struct {
	devices []*device
	tick    time.Duration
}

var (
	regMu sync.RWMutex
	reg   *registry
)

// Configure replaces the device registry. Call before opening sessions;
// sessions already acquired keep running against the devices they hold.
func Configure(cfg Config) error {
	if cfg.Devices < 0 {
		return fmt.Errorf("cryptodrv: negative device count %d", cfg.Devices)
	}

	if cfg.TickDuration < 0 {
		return fmt.Errorf("cryptodrv: negative tick duration %v", cfg.TickDuration)
	}

	r := newRegistry(cfg)

	regMu.Lock()
	reg = r
	regMu.Unlock()

	return nil
}

// DeviceCount reports the number of device instances in the registry.
func DeviceCount() int {
	return len(current().devices)
}

// TickDuration reports the configured duration of one lock wait tick.
func TickDuration() time.Duration {
	return current().tick
}

// DeviceStats reports the operation counters of a device instance.
func DeviceStats(devno int) (Stats, error) {
	d, err := current().device(devno)
	if err != nil {
		return Stats{}, err
	}

	return d.snapshot(), nil
}

func newRegistry(cfg Config) *registry {
	if cfg.Devices == 0 {
		cfg.Devices = defaultDeviceCount
	}

	if cfg.TickDuration == 0 {
		cfg.TickDuration = defaultTickDuration
	}

	if cfg.NewEngine == nil {
		cfg.NewEngine = NewAESEngine
	}

	r := &registry{
		devices: make([]*device, cfg.Devices),
		tick:    cfg.TickDuration,
	}
	for i := range r.devices {
		r.devices[i] = &device{
			devno:     i,
			sem:       semaphore.NewWeighted(1),
			newEngine: cfg.NewEngine,
		}
	}

	return r
}

func current() *registry {
	regMu.RLock()
	r := reg
	regMu.RUnlock()

	if r != nil {
		return r
	}

	regMu.Lock()
	defer regMu.Unlock()

	if reg == nil {
		reg = newRegistry(Config{})
	}

	return reg
}

func (r *registry) device(devno int) (*device, error) {
	if devno < 0 || devno >= len(r.devices) {
		return nil, ecode.ErrDeviceNotSupported
	}

	return r.devices[devno], nil
}

// Context selects a device instance and the lock wait policy applied when
// arbitrating for it. The zero value addresses instance 0 without waiting.
type Context struct {
	devno         int
	lockWaitTicks int
}

// SetDeviceInstance binds the context to a device instance.
func (c *Context) SetDeviceInstance(devno int) error {
	if _, err := current().device(devno); err != nil {
		return err
	}

	c.devno = devno

	return nil
}

// DeviceInstance reports the bound device instance number.
func (c *Context) DeviceInstance() int {
	return c.devno
}

// SetDeviceLockWaitTicks sets the arbitration wait policy: zero fails
// immediately when the device is held, a negative count waits without
// bound, a positive count waits that many ticks before giving up.
func (c *Context) SetDeviceLockWaitTicks(ticks int) {
	c.lockWaitTicks = ticks
}

// DeviceLockWaitTicks reports the configured wait policy.
func (c *Context) DeviceLockWaitTicks() int {
	return c.lockWaitTicks
}

// Acquire arbitrates for exclusive ownership of the bound device under the
// wait policy and returns a Session holding it. A held device surfaces
// ecode.ErrCryptoDRVBusy once the policy is exhausted.
func (c *Context) Acquire() (*Session, error) {
	r := current()

	d, err := r.device(c.devno)
	if err != nil {
		return nil, err
	}

	if err := d.acquire(c.lockWaitTicks, r.tick); err != nil {
		return nil, err
	}

	d.stats.sessions.Add(1)

	return &Session{dev: d, eng: d.newEngine()}, nil
}

func (d *device) acquire(ticks int, tick time.Duration) error {
	switch {
	case ticks == 0:
		if !d.sem.TryAcquire(1) {
			d.stats.timeouts.Add(1)

			return ecode.ErrCryptoDRVBusy
		}
	case ticks < 0:
		if err := d.sem.Acquire(context.Background(), 1); err != nil {
			return fmt.Errorf("cryptodrv: acquire device %d: %w", d.devno, err)
		}
	default:
		ctx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(ticks)*tick,
		)
		defer cancel()

		if err := d.sem.Acquire(ctx, 1); err != nil {
			d.stats.timeouts.Add(1)

			return ecode.ErrCryptoDRVBusy
		}
	}

	return nil
}
