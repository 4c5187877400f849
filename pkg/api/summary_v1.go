// pkg/api/summary_v1.go
package api

// SummaryV1 is the stable JSON schema for a bowtie2 alignment summary.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
type SummaryV1 struct {
	Total    int     `json:"total"`
	Unpaired int     `json:"unpaired"`
	Unmapped int     `json:"unmapped"`
	Unique   int     `json:"unique"`
	Multiple int     `json:"multiple"`
	Mapped   int     `json:"mapped"`
	Rate     float64 `json:"rate"`
	Source   string  `json:"source,omitempty"`
}
