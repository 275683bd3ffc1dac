package configmanager

import (
	"io"
)

// ConfigExporter defines the interface for format-specific exporters
type ConfigExporter interface {
	// Export exports a ConfigBundle to the specific format
	Export(bundle *ConfigBundle) ([]byte, error)

	// ExportToWriter exports a ConfigBundle to an io.Writer
	ExportToWriter(bundle *ConfigBundle, w io.Writer) error

	// GetFormat returns the format this exporter handles
	GetFormat() ConfigFormat
}

// ConfigImporter defines the interface for format-specific importers
type ConfigImporter interface {
	// Import imports configuration data to a ConfigBundle
	Import(data []byte) (*ConfigBundle, error)

	// ImportFromReader imports configuration data from an io.Reader
	ImportFromReader(r io.Reader) (*ConfigBundle, error)

	// GetFormat returns the format this importer handles
	GetFormat() ConfigFormat
}
