package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/elfabitto/gis-saas-project/pkg/scene"
)

// themesCommand creates the themes command listing the available visual themes.
func (c *CLI) themesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List the available visual themes",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range scene.Themes() {
				resolved, err := scene.ResolveTheme(scene.StyleConfig{Theme: name})
				if err != nil {
					return err
				}

				label := string(name)
				if name == scene.DefaultTheme {
					label += " " + StyleDim.Render("(default)")
				}
				fmt.Println(StyleTitle.Render(label))
				printDetail("primary   %s %s", swatch(resolved.Primary), resolved.Primary)
				printDetail("secondary %s %s", swatch(resolved.Secondary), resolved.Secondary)
				printDetail("basemap   %s", resolved.Basemap)
				printNewline()
			}
			return nil
		},
	}
}

// swatch renders a small colored block in the given hex color.
func swatch(hex string) string {
	return styleSwatch.Foreground(lipgloss.Color(hex)).Render("██")
}
