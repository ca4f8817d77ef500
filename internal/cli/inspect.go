package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elfabitto/gis-saas-project/pkg/ingest"
)

// inspectCommand creates the inspect command for examining a single GIS file.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Report metadata for a single GIS file",
		Long: `Inspect parses one GIS file and reports its metadata without rendering:
feature count, geometry type, detected coordinate system and bounds.

Example:
  gismap inspect site.geojson`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := loadFiles(args)
			if err != nil {
				return err
			}

			summary, err := ingest.Inspect(files[0])
			if err != nil {
				return err
			}

			printInfo("%s", StyleTitle.Render(summary.Name))
			printKeyValue("Format", string(summary.Format))
			printKeyValue("Features", fmt.Sprintf("%d", summary.FeatureCount))
			printKeyValue("Geometry", string(summary.Kind))
			printKeyValue("Coordinate system", summary.CRS)
			printKeyValue("Bounds", fmt.Sprintf("%.6f, %.6f to %.6f, %.6f",
				summary.Bounds.MinLat, summary.Bounds.MinLon,
				summary.Bounds.MaxLat, summary.Bounds.MaxLon))
			for _, w := range summary.Warnings {
				printWarning("%s", w)
			}
			return nil
		},
	}
}
