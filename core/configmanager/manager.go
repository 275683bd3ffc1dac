package configmanager

// Manager registers format exporters/importers and exposes the rule/ruleset
// export-import surface implemented in rules.go.
type Manager struct {
	exporters map[ConfigFormat]ConfigExporter
	importers map[ConfigFormat]ConfigImporter
	version   string
}

// NewManager constructs a Manager with the default JSON, YAML and HCL
// format handlers registered.
func NewManager() *Manager {
	m := &Manager{
		exporters: make(map[ConfigFormat]ConfigExporter),
		importers: make(map[ConfigFormat]ConfigImporter),
		version:   "1.0.0",
	}

	m.registerDefaultFormats()

	return m
}

// registerDefaultFormats registers the default format handlers
func (m *Manager) registerDefaultFormats() {
	jsonExporter := &JSONExporter{}
	jsonImporter := &JSONImporter{}
	m.exporters[FormatJSON] = jsonExporter
	m.importers[FormatJSON] = jsonImporter

	yamlExporter := &YAMLExporter{}
	yamlImporter := &YAMLImporter{}
	m.exporters[FormatYAML] = yamlExporter
	m.importers[FormatYAML] = yamlImporter

	hclExporter := &HCLExporter{}
	hclImporter := &HCLImporter{}
	m.exporters[FormatHCL] = hclExporter
	m.importers[FormatHCL] = hclImporter
}

// RegisterExporter registers a custom exporter for a specific format
func (m *Manager) RegisterExporter(exporter ConfigExporter) {
	m.exporters[exporter.GetFormat()] = exporter
}

// RegisterImporter registers a custom importer for a specific format
func (m *Manager) RegisterImporter(importer ConfigImporter) {
	m.importers[importer.GetFormat()] = importer
}

// GetSupportedFormats returns list of supported export/import formats
func (m *Manager) GetSupportedFormats() []ConfigFormat {
	formats := make([]ConfigFormat, 0, len(m.exporters))
	for format := range m.exporters {
		formats = append(formats, format)
	}
	return formats
}

// GetVersion returns the current configuration version
func (m *Manager) GetVersion() string {
	return m.version
}
