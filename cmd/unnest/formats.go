// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/unnest/unnest/internal/archive"
)

func newFormatsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported archive extensions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(SubtitleStyle).
				StyleFunc(func(row, _ int) lipgloss.Style {
					if row == table.HeaderRow {
						return TitleStyle.Padding(0, 1)
					}
					return lipgloss.NewStyle().Padding(0, 1)
				}).
				Headers("EXTENSION", "FORMAT", "DESCRIPTION")
			for _, ext := range archive.Extensions {
				t.Row(ext.Suffix, ext.Format.String(), ext.Description)
			}
			fmt.Fprintln(app.stdout, t.Render())
			return nil
		},
	}
}
