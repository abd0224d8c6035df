package cryptodrv

import (
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/ryankurte/efm32-mbedtls/pkg/ecode"
)

type device struct {
	devno     int
	sem       *semaphore.Weighted
	newEngine EngineFactory
	stats     counters
}

type counters struct {
	sessions atomic.Uint64
	blocks   atomic.Uint64
	timeouts atomic.Uint64
}

// Stats holds the operation counters of one device instance.
type Stats struct {
	Sessions uint64 // sessions opened on the device
	Blocks   uint64 // blocks encrypted by the device
	Timeouts uint64 // arbitrations rejected or timed out while held
}

func (d *device) snapshot() Stats {
	return Stats{
		Sessions: d.stats.sessions.Load(),
		Blocks:   d.stats.blocks.Load(),
		Timeouts: d.stats.timeouts.Load(),
	}
}

// Session owns a device instance until released. Sessions are not safe
// for concurrent use.
type Session struct {
	dev      *device
	eng      Engine
	released atomic.Bool
}

// Device reports the instance number of the held device.
func (s *Session) Device() int {
	return s.dev.devno
}

// LoadKey programs the key schedule into the device engine.
func (s *Session) LoadKey(key []byte) error {
	if s.released.Load() {
		return ecode.ErrCryptoDRVAborted
	}

	return s.eng.LoadKey(key)
}

// EncryptBlock encrypts one 16-byte block with the programmed key.
// dst and src must overlap entirely or not at all.
func (s *Session) EncryptBlock(dst, src []byte) error {
	if s.released.Load() {
		return ecode.ErrCryptoDRVAborted
	}

	if err := s.eng.EncryptBlock(dst, src); err != nil {
		return err
	}

	s.dev.stats.blocks.Add(1)

	return nil
}

// Release returns the device to the registry. Releasing more than once is
// a no-op.
func (s *Session) Release() {
	if s.released.Swap(true) {
		return
	}

	s.dev.sem.Release(1)
}
