package output

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"

	"github.com/lumenscan/lumen/internal/scan"
)

// SARIFWriter outputs findings in SARIF v2.1.0 format. Only entries with
// extracted findings become results; failed checks have no location-level
// claim to make and stay in the JSON and text reports.
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, report *scan.Report) error {
	sarif := buildSARIF(report)
	data, err := json.MarshalIndent(sarif, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling SARIF: %w", err)
	}
	if _, err = w.Write(data); err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// SARIF schema types (v2.1.0)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	ShortDescription sarifMessage       `json:"shortDescription"`
	DefaultConfig    sarifDefaultConfig `json:"defaultConfiguration"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`
}

func buildSARIF(report *scan.Report) sarifLog {
	var rules []sarifRule
	seen := make(map[string]bool)
	var results []sarifResult

	for _, file := range report.Files {
		for _, cat := range file.Categories {
			for _, e := range cat.Entries {
				if len(e.Findings) == 0 {
					continue
				}
				ruleID := ruleIDFor(cat.Category, e.Subcategory)
				level := categoryLevel(cat.Category)
				if !seen[ruleID] {
					seen[ruleID] = true
					rules = append(rules, sarifRule{
						ID:               ruleID,
						Name:             e.Subcategory,
						ShortDescription: sarifMessage{Text: e.Subcategory},
						DefaultConfig:    sarifDefaultConfig{Level: level},
					})
				}

				var region *sarifRegion
				if e.StartLine > 0 {
					region = &sarifRegion{StartLine: e.StartLine, EndLine: e.EndLine}
				}
				for _, finding := range e.Findings {
					results = append(results, sarifResult{
						RuleID:  ruleID,
						Level:   level,
						Message: sarifMessage{Text: finding},
						Locations: []sarifLocation{{
							PhysicalLocation: sarifPhysicalLocation{
								ArtifactLocation: sarifArtifactLocation{URI: file.Path},
								Region:           region,
							},
						}},
					})
				}
			}
		}
	}

	return sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:           "lumen",
						Version:        report.Version,
						InformationURI: "https://github.com/lumenscan/lumen",
						Rules:          rules,
					},
				},
				Results: results,
			},
		},
	}
}

// categoryLevel maps analysis categories to SARIF levels. Model findings are
// advisory, so even security issues report as warnings rather than errors.
func categoryLevel(category string) string {
	if category == "security" {
		return "warning"
	}
	return "note"
}

// ruleIDFor creates a stable rule ID from category + subcategory.
func ruleIDFor(category, subcategory string) string {
	h := sha256.Sum256([]byte(category + "/" + subcategory))
	return fmt.Sprintf("lumen/%s/%x", category, h[:4])
}
