package main

import (
	"context"
	"time"

	"eotile/internal/export"
	"eotile/internal/footprint"
	"eotile/internal/grid"
	"eotile/internal/model"
	"eotile/internal/postgres"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type seedOptions struct {
	region   grid.Region
	size     float64
	exportTo string
	dryRun   bool
}

func newSeedCmd(a *app) *cobra.Command {
	var opts seedOptions

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate a fixed-size grid over a region and store it",
		Long: `
Generate GRID tiles of --size meters over the box --north/--south/--west/--east.
A --west greater than --east wraps the box across the antimeridian. Tiles that
straddle the antimeridian are stored as split footprints.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			return a.seed(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&opts.region.North, "north", 0, "Northern latitude of the region")
	flags.Float64Var(&opts.region.South, "south", 0, "Southern latitude of the region")
	flags.Float64Var(&opts.region.West, "west", 0, "Western longitude of the region")
	flags.Float64Var(&opts.region.East, "east", 0, "Eastern longitude of the region")
	flags.Float64Var(&opts.size, "size", 100000.0, "Tile size in meters")
	flags.StringVar(&opts.exportTo, "export-json", "", "Also write the tiles to this GeoJSON file")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Build the tiles without writing to PostgreSQL")
	for _, name := range []string{"north", "south", "west", "east"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

// seedTiles builds tiles for the region and counts them per crossing kind.
// Tiles whose footprint cannot be built are logged and skipped.
func seedTiles(opts seedOptions) ([]*model.Tile, map[footprint.CrossingKind]int, error) {
	sources, err := grid.BuildFixedSizeGrid(opts.region, opts.size)
	if err != nil {
		return nil, nil, err
	}

	tiles := make([]*model.Tile, 0, len(sources))
	counts := make(map[footprint.CrossingKind]int)
	now := time.Now()

	for _, src := range sources {
		t, err := model.NewTile(src)
		if err != nil {
			zap.S().Warnf("Skipping grid tile %s: %v", src.ID, err)
			continue
		}
		t.UpdatedAt = now
		counts[t.Footprint().Crossing().Kind]++
		tiles = append(tiles, t)
	}
	return tiles, counts, nil
}

func (a *app) seed(ctx context.Context, opts seedOptions) error {
	zap.S().Infof("Building %gm grid over %+v", opts.size, opts.region)
	startTime := time.Now()

	tiles, counts, err := seedTiles(opts)
	if err != nil {
		return err
	}
	zap.S().Infof("Created %d tiles in %v (none=%d top=%d bottom=%d both=%d)",
		len(tiles), time.Since(startTime),
		counts[footprint.CrossingNone], counts[footprint.CrossingTop],
		counts[footprint.CrossingBottom], counts[footprint.CrossingBoth])

	if opts.exportTo != "" {
		if err := export.ExportTilesToGeoJSON(tiles, opts.exportTo); err != nil {
			return err
		}
	}

	if opts.dryRun {
		zap.S().Info("Dry run, nothing saved")
		return nil
	}

	db, err := postgres.Init(a.cfg.DBUrl)
	if err != nil {
		return err
	}
	defer postgres.Close()

	rows := make([]*model.TilePG, 0, len(tiles))
	for _, t := range tiles {
		row, err := model.TileToPG(t)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	if err := postgres.NewTileRepository(db).SaveBatch(contextOrBackground(ctx), rows); err != nil {
		return errors.WithMessage(err, "seed tiles")
	}

	zap.S().Infof("Successfully saved %d tiles to database", len(rows))
	return nil
}
