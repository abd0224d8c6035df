// Package errorcodes defines host protocol errors using a structured type.
// HostError holds the two-character response code and human-readable
// description returned to clients of the accelerator service.
package errorcodes

import (
	"errors"

	"github.com/ryankurte/efm32-mbedtls/pkg/ecode"
)

// Predefined host protocol error instances.
var (
	Err00 = HostError{"00", "No error"}
	Err01 = HostError{"01", "MAC verification failure"}
	Err02 = HostError{"02", "Key inappropriate length for algorithm"}
	Err05 = HostError{"05", "Invalid device instance"}
	Err12 = HostError{"12", "Crypto device busy or unavailable"}
	Err15 = HostError{
		"15",
		"Invalid input data (invalid format, invalid characters, or not enough data provided)",
	}
	Err42 = HostError{"42", "Crypto hardware failure"}
	Err68 = HostError{"68", "Command has been disabled"}
)

// HostError represents a host protocol error with its code and description.
type HostError struct {
	Code        string // two-character error code
	Description string // human-readable description
}

// Error implements the Go error interface: "<Code>: <Description>".
func (e HostError) Error() string {
	return e.Code + ": " + e.Description
}

// CodeOnly returns only the error code (e.g., "68"), for embedding in responses.
func (e HostError) CodeOnly() string {
	return e.Code
}

// FromError maps a driver or MAC layer error to the host protocol error
// reported to the client. Unrecognized errors map to Err42 so that internal
// failures never leak detail onto the wire.
func FromError(err error) HostError {
	switch {
	case err == nil:
		return Err00
	case errors.Is(err, ecode.ErrCMACAuthFailed),
		errors.Is(err, ecode.ErrAESDRVAuthenticationFailed):
		return Err01
	case errors.Is(err, ecode.ErrAESInvalidKeyLength):
		return Err02
	case errors.Is(err, ecode.ErrDeviceNotSupported):
		return Err05
	case errors.Is(err, ecode.ErrCryptoDRVBusy),
		errors.Is(err, ecode.ErrAESDRVOutOfResources):
		return Err12
	case errors.Is(err, ecode.ErrCMACBadInput),
		errors.Is(err, ecode.ErrAESDRVInvalidParam):
		return Err15
	case errors.Is(err, ecode.ErrAESDRVNotSupported):
		return Err68
	default:
		return Err42
	}
}
