package cryptodrv

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
)

// BlockSize is the AES block size handled by the device engines.
const BlockSize = 16

// Engine executes the block operations of one device session. The default
// engine computes AES in software in place of the CRYPTO core; alternative
// implementations plug in through Config.NewEngine.
type Engine interface {
	// LoadKey programs the key schedule. Accepted key lengths are
	// engine-defined; the software engine takes 16, 24 or 32 bytes.
	LoadKey(key []byte) error

	// EncryptBlock encrypts a single block from src into dst. Both
	// slices must be BlockSize bytes and must overlap entirely or not
	// at all.
	EncryptBlock(dst, src []byte) error
}

// EngineFactory builds a fresh engine for each session.
type EngineFactory func() Engine

type aesEngine struct {
	block cipher.Block
}

// NewAESEngine returns the software AES engine.
func NewAESEngine() Engine {
	return &aesEngine{}
}

func (e *aesEngine) LoadKey(key []byte) error {
	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("aes engine: %w", err)
	}

	e.block = block

	return nil
}

func (e *aesEngine) EncryptBlock(dst, src []byte) error {
	if e.block == nil {
		return errors.New("aes engine: no key loaded")
	}

	if len(dst) != BlockSize || len(src) != BlockSize {
		return fmt.Errorf(
			"aes engine: block must be %d bytes, got dst %d src %d",
			BlockSize, len(dst), len(src),
		)
	}

	e.block.Encrypt(dst, src)

	return nil
}
