package message

import (
	"errors"
	"fmt"
)

var errShortMessage = errors.New("message too short")

// take splits n leading bytes from data, failing when fewer remain.
func take(data []byte, n int) ([]byte, []byte, error) {
	if n < 0 || len(data) < n {
		return nil, nil, fmt.Errorf("%w: need %d bytes, have %d", errShortMessage, n, len(data))
	}

	return data[:n], data[n:], nil
}

// consume takes n leading bytes from data into the named field.
func (m *BaseMessage) consume(field string, data []byte, n int) ([]byte, error) {
	f, rest, err := take(data, n)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	m.Set(field, f)

	return rest, nil
}

// hexChars returns the count of hex characters covering bits of data.
func hexChars(bits int) int {
	if bits < 0 {
		return 0
	}

	return (bits + 7) / 8 * 2
}

// NewMG parses an MG Generate MAC command from payload data.
// Layout: device number (1), key length in bits (3), key hex, MAC length
// in bits (3), message hex (remainder).
func NewMG(data []byte) (*BaseMessage, error) {
	m := NewBaseMessage("MG", "Generate MAC")

	data, err := m.consume("Device Number", data, 1)
	if err != nil {
		return nil, err
	}
	if data, err = m.consume("Key Length", data, 3); err != nil {
		return nil, err
	}
	keyBits, err := m.Int("Key Length")
	if err != nil {
		return nil, err
	}
	if data, err = m.consume("Key", data, hexChars(keyBits)); err != nil {
		return nil, err
	}
	if data, err = m.consume("MAC Length", data, 3); err != nil {
		return nil, err
	}
	m.Set("Message", data)

	return m, nil
}

// NewMV parses an MV Verify MAC command from payload data.
// Layout: device number (1), key length in bits (3), key hex, MAC length
// in bits (3), MAC hex, message hex (remainder).
func NewMV(data []byte) (*BaseMessage, error) {
	m := NewBaseMessage("MV", "Verify MAC")

	data, err := m.consume("Device Number", data, 1)
	if err != nil {
		return nil, err
	}
	if data, err = m.consume("Key Length", data, 3); err != nil {
		return nil, err
	}
	keyBits, err := m.Int("Key Length")
	if err != nil {
		return nil, err
	}
	if data, err = m.consume("Key", data, hexChars(keyBits)); err != nil {
		return nil, err
	}
	if data, err = m.consume("MAC Length", data, 3); err != nil {
		return nil, err
	}
	macBits, err := m.Int("MAC Length")
	if err != nil {
		return nil, err
	}
	if data, err = m.consume("MAC", data, hexChars(macBits)); err != nil {
		return nil, err
	}
	m.Set("Message", data)

	return m, nil
}
