// internal/bowtieapp/summary.go
package bowtieapp

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"shardalign/internal/appcore"
	"shardalign/internal/bowtielog"
	"shardalign/pkg/api"
)

func newSummaryCommand(stdout io.Writer) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "summary file.log",
		Short: "Parse a bowtie2 alignment summary",
		Args:  appcore.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			s, err := bowtielog.Parse(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeSummaryJSON(stdout, SummaryV1(s, args[0]))
			}
			_, err = fmt.Fprintln(stdout, s)
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

// SummaryV1 converts a parsed summary to its stable JSON schema.
func SummaryV1(s bowtielog.Summary, source string) api.SummaryV1 {
	return api.SummaryV1{
		Total:    s.Total,
		Unpaired: s.Unpaired,
		Unmapped: s.Unmapped,
		Unique:   s.Unique,
		Multiple: s.Multiple,
		Mapped:   s.Mapped,
		Rate:     s.Rate,
		Source:   source,
	}
}

// writeSummaryJSON prints v indented, one document per call. Log paths
// are kept verbatim, so HTML escaping is off.
func writeSummaryJSON(w io.Writer, v api.SummaryV1) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
