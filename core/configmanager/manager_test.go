package configmanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewManager(t *testing.T) {
	m := NewManager()
	assert.Equal(t, "1.0.0", m.GetVersion())

	formats := m.GetSupportedFormats()
	assert.Contains(t, formats, FormatJSON)
	assert.Contains(t, formats, FormatYAML)
	assert.Contains(t, formats, FormatHCL)
}

func TestRegisterExporter(t *testing.T) {
	m := NewManager()
	m.RegisterExporter(&JSONExporter{})
	assert.Contains(t, m.GetSupportedFormats(), FormatJSON)
}
