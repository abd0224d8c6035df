// Package logic provides the host command handlers of the accelerator
// service. Each handler consumes a parsed command payload and produces the
// full wire response, reply code and error code included.
package logic

import (
	"encoding/hex"
	"strings"

	"github.com/ryankurte/efm32-mbedtls/internal/errorcodes"
	"github.com/ryankurte/efm32-mbedtls/internal/message"
	"github.com/ryankurte/efm32-mbedtls/pkg/cmac"
)

// macRequest carries the decoded fields shared by the MG and MV commands.
type macRequest struct {
	devno   int
	keyBits int
	key     []byte
	tagBits int
	tag     []byte
	data    []byte
}

// respond builds a response from the reply code and host error.
func respond(replyCode string, hostErr errorcodes.HostError) []byte {
	return []byte(replyCode + hostErr.CodeOnly())
}

// hexUpper renders raw bytes as uppercase hex for the wire.
func hexUpper(raw []byte) []byte {
	return []byte(strings.ToUpper(hex.EncodeToString(raw)))
}

// parseMACRequest decodes the wire fields shared by MG and MV. Any decode
// failure reports errorcodes.Err15.
func parseMACRequest(msg *message.BaseMessage) (macRequest, error) {
	var req macRequest

	dev := msg.Get("Device Number")
	if len(dev) != 1 || dev[0] < '0' || dev[0] > '9' {
		return req, errorcodes.Err15
	}
	req.devno = int(dev[0] - '0')

	var err error
	if req.keyBits, err = msg.Int("Key Length"); err != nil {
		return req, errorcodes.Err15
	}
	if req.key, err = hex.DecodeString(string(msg.Get("Key"))); err != nil {
		return req, errorcodes.Err15
	}
	if req.tagBits, err = msg.Int("MAC Length"); err != nil {
		return req, errorcodes.Err15
	}
	if req.tagBits < 0 {
		return req, errorcodes.Err15
	}
	if tag := msg.Get("MAC"); tag != nil {
		if req.tag, err = hex.DecodeString(string(tag)); err != nil {
			return req, errorcodes.Err15
		}
	}
	if req.data, err = hex.DecodeString(string(msg.Get("Message"))); err != nil {
		return req, errorcodes.Err15
	}

	return req, nil
}

// keyedContext initializes a MAC context bound to the requested device and
// installs the key. The caller must Free the returned context.
func keyedContext(req macRequest, waitTicks int) (*cmac.Context, error) {
	mac := new(cmac.Context)
	mac.Init()

	if err := mac.SetDeviceInstance(req.devno); err != nil {
		mac.Free()
		return nil, err
	}
	if err := mac.SetDeviceLockWaitTicks(waitTicks); err != nil {
		mac.Free()
		return nil, err
	}
	if err := mac.SetKey(cmac.CipherAES, req.key, req.keyBits); err != nil {
		mac.Free()
		return nil, err
	}

	return mac, nil
}
