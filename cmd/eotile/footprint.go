package main

import (
	"fmt"

	"eotile/internal/export"
	"eotile/internal/footprint"

	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newFootprintCmd(a *app) *cobra.Command {
	var (
		corners []string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "footprint",
		Short: "Build one footprint from four corners and print it",
		Example: `  eotile footprint --corners=-16,179.5,-16.1,-179.5,-17.1,-179.4,-17,179.6
  eotile footprint --format wkt --corners=10,179.5,10,-179.8,9,179.9,9,179.0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}

			cs, err := footprint.ParseCorners(corners)
			if err != nil {
				return err
			}
			fp, err := footprint.Build(cs)
			if err != nil {
				return err
			}

			switch format {
			case "wkt":
				_, err = fmt.Fprintln(cmd.OutOrStdout(), export.WKT(fp))
				return err
			case "geojson":
				fc := geojson.NewFeatureCollection()
				fc.Append(export.FootprintFeature(fp))
				return export.WriteGeoJSON(cmd.OutOrStdout(), fc)
			default:
				return errors.Errorf("unknown format %q, want geojson or wkt", format)
			}
		},
	}

	cmd.Flags().StringSliceVar(&corners, "corners", nil,
		"Eight comma separated values: lat,lon of top-left, top-right, bottom-right, bottom-left")
	cmd.Flags().StringVar(&format, "format", "geojson", "Output format, one of [geojson, wkt]")
	_ = cmd.MarkFlagRequired("corners")
	return cmd
}
