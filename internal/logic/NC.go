package logic

import (
	"fmt"

	"github.com/ryankurte/efm32-mbedtls/internal/errorcodes"
	"github.com/ryankurte/efm32-mbedtls/pkg/cryptodrv"
)

// ExecuteNC processes the NC diagnostics payload and returns response bytes.
// The response is "ND00" plus the device count (two digits) and the
// firmware revision string supplied as input.
func ExecuteNC(input []byte) ([]byte, error) {
	if len(input) == 0 {
		return respond("ND", errorcodes.Err15), nil
	}

	resp := make([]byte, 0, 4+2+len(input))
	resp = append(resp, "ND00"...)
	resp = append(resp, fmt.Sprintf("%02d", cryptodrv.DeviceCount())...)
	resp = append(resp, input...)

	return resp, nil
}
