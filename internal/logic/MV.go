package logic

import (
	"github.com/ryankurte/efm32-mbedtls/internal/errorcodes"
	"github.com/ryankurte/efm32-mbedtls/internal/message"
)

// ExecuteMV processes the MV payload and returns response bytes.
// A matching MAC yields "MW00", a mismatch "MW01", and any other failure
// "MW" plus the host error code.
func ExecuteMV(input []byte, waitTicks int) ([]byte, error) {
	const replyCode = "MW"

	msg, err := message.NewMV(input)
	if err != nil {
		return respond(replyCode, errorcodes.Err15), nil
	}

	req, err := parseMACRequest(msg)
	if err != nil {
		return respond(replyCode, errorcodes.Err15), nil
	}

	mac, err := keyedContext(req, waitTicks)
	if err != nil {
		return respond(replyCode, errorcodes.FromError(err)), nil
	}
	defer mac.Free()

	err = mac.VerifyTag(req.data, len(req.data)*8, req.tag, req.tagBits)

	return respond(replyCode, errorcodes.FromError(err)), nil
}
