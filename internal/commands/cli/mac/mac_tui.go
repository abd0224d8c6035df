package mac

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ryankurte/efm32-mbedtls/pkg/cryptodrv"
)

const (
	fieldTypeRadio = iota
	fieldTypeNumeric
	fieldTypeHex
)

type option struct {
	value       string
	description string
}

type fieldConfig struct {
	name         string
	description  string
	fieldType    int
	options      []option // For radio fields.
	selected     int      // For radio fields.
	numericValue string   // For numeric fields.
	minValue     int      // For numeric fields.
	maxValue     int      // For numeric fields.
	digits       int      // For numeric fields (zero-padding).
	hexValue     string   // For hex fields.
	exactLen     int      // For hex fields; 0 allows any even length.
}

// macForm holds the values collected by the interactive form.
type macForm struct {
	device  int
	keyBits int
	keyHex  string
	dataHex string
	macBits int
}

type macFormModel struct {
	form         macForm
	currentField int
	fields       []fieldConfig
	inputError   string
	done         bool
	cancelled    bool
}

// newMacFormModel creates a new TUI model for building a MAC request.
func newMacFormModel() macFormModel {
	deviceOpts := make([]option, cryptodrv.DeviceCount())
	for i := range deviceOpts {
		deviceOpts[i] = option{
			value:       strconv.Itoa(i),
			description: fmt.Sprintf("CRYPTO device instance %d", i),
		}
	}

	fields := []fieldConfig{
		{
			name:        "Device",
			description: "Accelerator Device Instance",
			fieldType:   fieldTypeRadio,
			options:     deviceOpts,
			selected:    0,
		},
		{
			name:        "KeySize",
			description: "AES Key Size",
			fieldType:   fieldTypeRadio,
			options: []option{
				{"128", "AES-128"},
				{"256", "AES-256"},
			},
			selected: 0,
		},
		{
			name:        "Key",
			description: "MAC Key (hex)",
			fieldType:   fieldTypeHex,
			exactLen:    32,
		},
		{
			name:        "Message",
			description: "Message Data (hex, may be empty)",
			fieldType:   fieldTypeHex,
		},
		{
			name:         "MACBits",
			description:  "MAC Length in Bits (1-128)",
			fieldType:    fieldTypeNumeric,
			numericValue: "128",
			minValue:     1,
			maxValue:     128,
			digits:       3,
		},
	}

	return macFormModel{
		form: macForm{
			device:  0,
			keyBits: 128,
			macBits: 128,
		},
		currentField: 0,
		fields:       fields,
	}
}

// Init initializes the model.
func (m macFormModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model state.
func (m macFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.inputError = ""
		currentField := &m.fields[m.currentField]

		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true

			return m, tea.Quit
		case "enter":
			if errMsg := m.validateCurrentField(); errMsg != "" {
				m.inputError = errMsg

				return m, nil
			}
			// Update form with confirmed values.
			m.updateFormFromSelection()
			m.syncKeyLen()
			if m.currentField >= len(m.fields)-1 {
				m.done = true

				return m, tea.Quit
			}
			m.currentField++
		case "tab":
			// Move to next field.
			if m.currentField < len(m.fields)-1 {
				m.currentField++
			}
		case "shift+tab":
			// Move to previous field.
			if m.currentField > 0 {
				m.currentField--
			}
		case "up", "k":
			if currentField.fieldType == fieldTypeRadio {
				if currentField.selected > 0 {
					currentField.selected--
				}
			} else if currentField.fieldType == fieldTypeNumeric {
				m.incrementNumericValue(1)
			}
		case "down", "j":
			if currentField.fieldType == fieldTypeRadio {
				maxIdx := len(currentField.options) - 1
				if currentField.selected < maxIdx {
					currentField.selected++
				}
			} else if currentField.fieldType == fieldTypeNumeric {
				m.decrementNumericValue(1)
			}
		case "backspace":
			switch currentField.fieldType {
			case fieldTypeNumeric:
				m.handleBackspace()
			case fieldTypeHex:
				m.handleHexBackspace()
			}
		default:
			// Handle direct input for numeric and hex fields.
			if len(msg.String()) != 1 {
				break
			}
			char := msg.String()[0]
			switch {
			case currentField.fieldType == fieldTypeNumeric && char >= '0' && char <= '9':
				m.handleNumericInput(char)
			case currentField.fieldType == fieldTypeHex && isHexChar(char):
				m.handleHexInput(char)
			}
		}
	}

	return m, nil
}

// isHexChar reports whether c is a hexadecimal digit.
func isHexChar(c byte) bool {
	switch {
	case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		return true
	default:
		return false
	}
}

// validateCurrentField checks hex fields before leaving them.
func (m *macFormModel) validateCurrentField() string {
	f := m.fields[m.currentField]
	if f.fieldType != fieldTypeHex {
		return ""
	}

	if f.exactLen > 0 && len(f.hexValue) != f.exactLen {
		return fmt.Sprintf(
			"%s must be %d hex characters, have %d",
			f.name, f.exactLen, len(f.hexValue),
		)
	}
	if f.exactLen == 0 && len(f.hexValue)%2 != 0 {
		return fmt.Sprintf("%s must have an even number of hex characters", f.name)
	}

	return ""
}

// syncKeyLen sizes the key field to the selected key size.
func (m *macFormModel) syncKeyLen() {
	for i := range m.fields {
		if m.fields[i].name == "Key" {
			m.fields[i].exactLen = m.form.keyBits / 4
		}
	}
}

// incrementNumericValue increases the numeric value by the specified amount.
func (m *macFormModel) incrementNumericValue(amount int) {
	currentField := &m.fields[m.currentField]
	if currentField.fieldType != fieldTypeNumeric {
		return
	}

	currentValue := m.parseNumericValue(currentField.numericValue)
	newValue := currentValue + amount
	if newValue <= currentField.maxValue {
		currentField.numericValue = m.formatNumericValue(newValue, currentField.digits)
	}
}

// decrementNumericValue decreases the numeric value by the specified amount.
func (m *macFormModel) decrementNumericValue(amount int) {
	currentField := &m.fields[m.currentField]
	if currentField.fieldType != fieldTypeNumeric {
		return
	}

	currentValue := m.parseNumericValue(currentField.numericValue)
	newValue := currentValue - amount
	if newValue >= currentField.minValue {
		currentField.numericValue = m.formatNumericValue(newValue, currentField.digits)
	}
}

// handleNumericInput processes direct numeric character input.
func (m *macFormModel) handleNumericInput(char byte) {
	currentField := &m.fields[m.currentField]
	if currentField.fieldType != fieldTypeNumeric {
		return
	}

	// Remove leading zeros and append new digit.
	currentValue := strings.TrimLeft(currentField.numericValue, "0")
	if currentValue == "" {
		currentValue = "0"
	}

	newValueStr := currentValue + string(char)
	newValue := m.parseNumericValue(newValueStr)

	if newValue >= currentField.minValue && newValue <= currentField.maxValue {
		currentField.numericValue = m.formatNumericValue(newValue, currentField.digits)
	}
}

// handleBackspace removes the last digit from the numeric input.
func (m *macFormModel) handleBackspace() {
	currentField := &m.fields[m.currentField]
	if currentField.fieldType != fieldTypeNumeric {
		return
	}

	if len(currentField.numericValue) > 0 {
		// Remove last character and reformat.
		valueStr := strings.TrimLeft(currentField.numericValue, "0")
		if len(valueStr) <= 1 {
			currentField.numericValue = m.formatNumericValue(
				currentField.minValue,
				currentField.digits,
			)
		} else {
			valueStr = valueStr[:len(valueStr)-1]
			newValue := m.parseNumericValue(valueStr)
			if newValue < currentField.minValue {
				newValue = currentField.minValue
			}
			currentField.numericValue = m.formatNumericValue(newValue, currentField.digits)
		}
	}
}

// handleHexInput appends a hex character to the current hex field.
func (m *macFormModel) handleHexInput(char byte) {
	currentField := &m.fields[m.currentField]
	if currentField.fieldType != fieldTypeHex {
		return
	}

	if currentField.exactLen > 0 && len(currentField.hexValue) >= currentField.exactLen {
		return
	}
	currentField.hexValue += strings.ToUpper(string(char))
}

// handleHexBackspace removes the last character from the current hex field.
func (m *macFormModel) handleHexBackspace() {
	currentField := &m.fields[m.currentField]
	if currentField.fieldType != fieldTypeHex {
		return
	}

	if len(currentField.hexValue) > 0 {
		currentField.hexValue = currentField.hexValue[:len(currentField.hexValue)-1]
	}
}

// parseNumericValue converts a string to an integer.
func (m *macFormModel) parseNumericValue(value string) int {
	if value == "" {
		return 0
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}

	return parsed
}

// formatNumericValue formats an integer with leading zeros.
func (m *macFormModel) formatNumericValue(value, digits int) string {
	return fmt.Sprintf("%0*d", digits, value)
}

// updateFormFromSelection updates the form struct with currently selected values.
func (m *macFormModel) updateFormFromSelection() {
	for _, field := range m.fields {
		switch field.name {
		case "Device":
			if len(field.options) > 0 {
				m.form.device, _ = strconv.Atoi(field.options[field.selected].value)
			}
		case "KeySize":
			m.form.keyBits, _ = strconv.Atoi(field.options[field.selected].value)
		case "Key":
			m.form.keyHex = field.hexValue
		case "Message":
			m.form.dataHex = field.hexValue
		case "MACBits":
			m.form.macBits = m.parseNumericValue(field.numericValue)
		}
	}
}

// View renders the current state of the model.
func (m macFormModel) View() string {
	if m.done {
		return "MAC request configured successfully!\n"
	}

	if m.cancelled {
		return "Operation cancelled.\n"
	}

	s := "Configure MAC Request\n"
	s += strings.Repeat("=", 50) + "\n\n"

	// Show progress.
	s += fmt.Sprintf("Field %d of %d\n\n", m.currentField+1, len(m.fields))

	// Show current field.
	currentField := m.fields[m.currentField]
	s += fmt.Sprintf("▶ %s: %s\n\n", currentField.name, currentField.description)

	switch currentField.fieldType {
	case fieldTypeRadio:
		// Show radio options for current field only.
		for j, option := range currentField.options {
			selector := "  ○ "
			if j == currentField.selected {
				selector = "  ● "
			}
			s += fmt.Sprintf("%s%s - %s\n", selector, option.value, option.description)
		}
	case fieldTypeNumeric:
		// Show numeric input.
		s += fmt.Sprintf("  [ %s ] (Range: %d-%d)\n",
			currentField.numericValue, currentField.minValue, currentField.maxValue)
		s += "  Type digits, use ↑/↓ to increment/decrement, Backspace to delete\n"
	case fieldTypeHex:
		// Show hex input with a cursor.
		s += fmt.Sprintf("  [ %s_ ]", currentField.hexValue)
		if currentField.exactLen > 0 {
			s += fmt.Sprintf(" (%d of %d hex characters)", len(currentField.hexValue), currentField.exactLen)
		} else {
			s += fmt.Sprintf(" (%d hex characters)", len(currentField.hexValue))
		}
		s += "\n  Type hex digits, Backspace to delete\n"
	}

	if m.inputError != "" {
		s += fmt.Sprintf("\n  !! %s\n", m.inputError)
	}

	s += "\n"

	// Show summary of completed fields.
	if m.currentField > 0 {
		s += "Completed fields:\n"
		for i := 0; i < m.currentField; i++ {
			field := m.fields[i]
			switch field.fieldType {
			case fieldTypeRadio:
				selectedOption := field.options[field.selected]
				s += fmt.Sprintf("  %s: %s\n", field.name, selectedOption.value)
			case fieldTypeNumeric:
				s += fmt.Sprintf("  %s: %s\n", field.name, field.numericValue)
			case fieldTypeHex:
				s += fmt.Sprintf("  %s: %s\n", field.name, field.hexValue)
			}
		}
		s += "\n"
	}

	s += "Navigation:\n"
	s += "  ↑/↓: Select option or increment/decrement value\n"
	s += "  Tab/Shift+Tab: Next/Previous field\n"
	s += "  Enter: Confirm and continue\n"
	s += "  Esc or Ctrl+C: Quit\n"

	return s
}

// runMacFormTUI starts the interactive form for building a MAC request.
func runMacFormTUI() (macForm, bool, error) {
	model := newMacFormModel()

	p := tea.NewProgram(model)
	finalModel, err := p.Run()
	if err != nil {
		return macForm{}, false, err
	}

	m := finalModel.(macFormModel)
	m.updateFormFromSelection() // Ensure final state is captured.

	return m.form, !m.cancelled, nil
}
