// Package display renders CLI output as JSON or as pterm tables.
package display

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// ShouldOutputJSON reports whether the command asked for JSON output,
// either through its own --json flag or a persistent one on the root.
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd == nil {
		return false
	}

	if f := cmd.Flags().Lookup("json"); f != nil && f.Changed {
		jsonFlag, _ := cmd.Flags().GetBool("json")
		return jsonFlag
	}

	if f := cmd.Root().PersistentFlags().Lookup("json"); f != nil {
		globalFlag, _ := cmd.Root().PersistentFlags().GetBool("json")
		return globalFlag
	}
	return false
}

// OutputJSON marshals and prints JSON using MarshalJSON
func OutputJSON(w io.Writer, v interface{}) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// Table renders rows under header with pterm. The first row of the
// output is the header.
func Table(w io.Writer, header []string, rows [][]string) error {
	data := pterm.TableData{header}
	data = append(data, rows...)
	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	_, err = fmt.Fprintln(w, rendered)
	return err
}
