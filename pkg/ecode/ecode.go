// Package ecode defines the 32-bit error code layout shared by the CRYPTO
// device driver layers. Error holds the signed code and a human-readable
// description.
package ecode

import "fmt"

// Base values carving the code space into per-module ranges. The full
// 32-bit values sit in the negative int32 range.
const (
	codeBase      uint32 = 0xF1000000
	deviceBase           = codeBase | 0x00001000
	aesdrvBase           = codeBase | 0x00005000
	cryptodrvBase        = codeBase | 0x0000C000
	cmacBase             = aesdrvBase | 0x00000F00
)

// Predefined driver error instances.
var (
	ErrDeviceNotSupported = Error{deviceBase | 0x1, "crypto device instance not supported"}

	ErrAESDRVNotSupported         = Error{aesdrvBase | 0x1, "aes driver operation not supported"}
	ErrAESDRVAuthenticationFailed = Error{aesdrvBase | 0x2, "aes driver authentication failed"}
	ErrAESDRVOutOfResources       = Error{aesdrvBase | 0x3, "aes driver out of resources"}
	ErrAESDRVInvalidParam         = Error{aesdrvBase | 0x4, "aes driver invalid parameter"}

	ErrCryptoDRVAborted = Error{cryptodrvBase | 0x1, "crypto device operation aborted"}
	ErrCryptoDRVBusy    = Error{cryptodrvBase | 0x2, "crypto device busy"}

	ErrCMACBadInput   = Error{cmacBase | 0x1, "cmac bad input parameters"}
	ErrCMACAuthFailed = Error{cmacBase | 0x2, "cmac verification failed"}

	// ErrAESInvalidKeyLength mirrors the generic cipher layer code rather
	// than a driver module code.
	ErrAESInvalidKeyLength = Error{0xFFFFFFE0, "invalid aes key length"}
)

// Error represents a driver error with its 32-bit code and description.
type Error struct {
	code uint32
	desc string
}

// Error implements the Go error interface: "<description> (0x<code>)".
func (e Error) Error() string {
	return fmt.Sprintf("%s (0x%08X)", e.desc, e.code)
}

// Code returns the signed 32-bit value of the error code.
func (e Error) Code() int32 {
	return int32(e.code)
}
