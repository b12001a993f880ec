package catalog

import "time"

// Severity ranks how urgent a detection is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// validSeverities is the set of recognized severity values.
var validSeverities = map[Severity]bool{
	SeverityLow:      true,
	SeverityMedium:   true,
	SeverityHigh:     true,
	SeverityCritical: true,
}

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool { return validSeverities[s] }

// Classification is a (category, label) annotation on a rule, typically an
// ATT&CK tactic and technique.
type Classification struct {
	Category string `yaml:"category" json:"category"`
	Label    string `yaml:"label" json:"label"`
}

// Rule describes a single detection query and its documentation metadata.
// Rules are loaded once and never mutated.
type Rule struct {
	Name                string           `yaml:"name" json:"name"`
	Description         string           `yaml:"description" json:"description"`
	Severity            Severity         `yaml:"severity" json:"severity"`
	LastDetected        time.Time        `yaml:"last_detected" json:"last_detected"`
	DetectionCount      int              `yaml:"detection_count" json:"detection_count"`
	Classifications     []Classification `yaml:"classifications" json:"classifications"`
	SourceSystem        string           `yaml:"source_system" json:"source_system"`
	QueryResourceID     string           `yaml:"query_resource_id" json:"query_resource_id"`
	QueryFileName       string           `yaml:"query_file_name" json:"query_file_name"`
	ReferenceURL        string           `yaml:"reference_url" json:"reference_url"`
	ReferenceLabel      string           `yaml:"reference_label" json:"reference_label"`
	SampleLogResourceID string           `yaml:"sample_log_resource_id" json:"sample_log_resource_id"`
}

// Platform groups the rules written for one log source. Name doubles as the
// directory name of the platform's static content.
type Platform struct {
	Key      string `yaml:"key" json:"key"`
	Name     string `yaml:"name" json:"name"`
	Color    string `yaml:"color" json:"color"`
	Overview string `yaml:"overview" json:"overview,omitempty"`
	Rules    []Rule `yaml:"rules" json:"rules"`
}

// Catalog is the full set of platforms loaded at startup.
type Catalog struct {
	Title     string     `yaml:"title" json:"title"`
	Platforms []Platform `yaml:"platforms" json:"platforms"`
}
