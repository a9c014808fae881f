package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/cpidash/internal"
	"github.com/starford/cpidash/internal/cpiservice"
	"github.com/starford/cpidash/internal/dataset"
	pkgconfig "github.com/starford/cpidash/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg))
}

func queryPoint(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	period, err := dataset.ParsePeriod(cmd.String("period"))
	if err != nil {
		return err
	}
	q := cpiservice.PointQuery{
		Item:   cmd.String("item"),
		Region: cmd.String("region"),
		Year:   int(cmd.Int("year")),
		Period: period,
	}
	return internal.RunPointQuery(ctx, q, cmd.String("xlsx"), internal.WithConfig(cfg))
}

func queryRange(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	q := cpiservice.RangeQuery{
		Item:    cmd.String("item"),
		Regions: cmd.StringSlice("region"),
		YearMin: int(cmd.Int("from")),
		YearMax: int(cmd.Int("to")),
	}
	return internal.RunRangeQuery(ctx, q, cmd.String("xlsx"), internal.WithConfig(cfg))
}

func xlsxFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "xlsx",
		Usage: "Also write the matching records to this .xlsx file",
	}
}

func main() {
	cmd := &cli.Command{
		Name:   "cpidash",
		Usage:  "Japanese consumer price index dashboard backend",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: mcp,
			},
			{
				Name:  "query",
				Usage: "Run a single query and print JSON",
				Commands: []*cli.Command{
					{
						Name:   "point",
						Usage:  "Index and YoY for one item, region, year and half",
						Action: queryPoint,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "item", Required: true},
							&cli.StringFlag{Name: "region", Required: true},
							&cli.IntFlag{Name: "year", Required: true},
							&cli.StringFlag{Name: "period", Usage: "H1 (June) or H2 (December)", Required: true},
							xlsxFlag(),
						},
					},
					{
						Name:   "range",
						Usage:  "Series for one item across regions and a year range",
						Action: queryRange,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "item", Required: true},
							&cli.StringSliceFlag{Name: "region", Usage: "Region name, repeatable", Required: true},
							&cli.IntFlag{Name: "from", Usage: "First year (default: earliest)"},
							&cli.IntFlag{Name: "to", Usage: "Last year (default: latest)"},
							xlsxFlag(),
						},
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
