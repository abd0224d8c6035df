package message

import (
	"bytes"
	"fmt"
	"strconv"
)

// Message defines the interface for accelerator service messages.
type Message interface {
	Get(field string) []byte
	Set(field string, val []byte)
	CommandCode() string
	Trace() string
}

// BaseMessage implements Message and holds command fields in wire order.
type BaseMessage struct {
	cmdCode     string
	description string
	order       []string
	Fields      map[string][]byte
}

// NewBaseMessage creates a new BaseMessage with the given code and description.
func NewBaseMessage(cmdCode, description string) *BaseMessage {
	return &BaseMessage{cmdCode: cmdCode, description: description, Fields: make(map[string][]byte)}
}

func (m *BaseMessage) Get(field string) []byte {
	return m.Fields[field]
}

func (m *BaseMessage) Set(field string, val []byte) {
	if _, ok := m.Fields[field]; !ok {
		m.order = append(m.order, field)
	}
	m.Fields[field] = val
}

// Int parses the named field as a decimal integer.
func (m *BaseMessage) Int(field string) (int, error) {
	v, ok := m.Fields[field]
	if !ok {
		return 0, fmt.Errorf("field %s not set", field)
	}

	n, err := strconv.Atoi(string(v))
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", field, err)
	}

	return n, nil
}

func (m *BaseMessage) CommandCode() string {
	return m.cmdCode
}

// Trace renders the parsed fields in wire order for debug logging.
func (m *BaseMessage) Trace() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Command: %s (%s)\n", m.cmdCode, m.description)
	for _, k := range m.order {
		fmt.Fprintf(&buf, "\t[%s]=%s\n", k, m.Fields[k])
	}

	return buf.String()
}
