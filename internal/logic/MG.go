package logic

import (
	"github.com/ryankurte/efm32-mbedtls/internal/errorcodes"
	"github.com/ryankurte/efm32-mbedtls/internal/message"
)

// ExecuteMG processes the MG payload and returns response bytes.
// Success yields "MH00" followed by the MAC in uppercase hex; failures
// yield "MH" plus the host error code.
func ExecuteMG(input []byte, waitTicks int) ([]byte, error) {
	const replyCode = "MH"

	msg, err := message.NewMG(input)
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

	tag := make([]byte, (req.tagBits+7)/8)
	if err := mac.GenerateTag(req.data, len(req.data)*8, tag, req.tagBits); err != nil {
		return respond(replyCode, errorcodes.FromError(err)), nil
	}

	resp := respond(replyCode, errorcodes.Err00)
	resp = append(resp, hexUpper(tag)...)

	return resp, nil
}
