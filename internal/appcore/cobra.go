// internal/appcore/cobra.go
package appcore

import "github.com/spf13/cobra"

// ExactArgs is cobra.ExactArgs reporting a *UsageError.
func ExactArgs(n int) cobra.PositionalArgs { return usage(cobra.ExactArgs(n)) }

// RangeArgs is cobra.RangeArgs reporting a *UsageError.
func RangeArgs(min, max int) cobra.PositionalArgs { return usage(cobra.RangeArgs(min, max)) }

// FlagError is installed with SetFlagErrorFunc so flag parse failures exit 2.
func FlagError(_ *cobra.Command, err error) error { return &UsageError{Err: err} }

func usage(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return &UsageError{Err: err}
		}
		return nil
	}
}
