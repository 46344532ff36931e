package config

// ReporterConfig controls how search results are presented
type ReporterConfig struct {
	GenerateHTML bool   `json:"generate_html" yaml:"generate_html"`
	OutputDir    string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	ReportTitle  string `json:"report_title,omitempty" yaml:"report_title,omitempty"`
	ShowTable    bool   `json:"show_table" yaml:"show_table"`
	TemplatePath string `json:"template_path,omitempty" yaml:"template_path,omitempty"`
}

// NewDefaultReporterConfig creates default reporter configuration
func NewDefaultReporterConfig() ReporterConfig {
	return ReporterConfig{
		GenerateHTML: false,
		OutputDir:    DefaultReporterOutputDir,
		ReportTitle:  DefaultReporterTitle,
		ShowTable:    true,
	}
}
