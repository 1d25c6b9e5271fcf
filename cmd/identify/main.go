// Command identify runs the building identification pipeline from the
// terminal and follows detection events published by the API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	natsadapter "github.com/samirrijal/campusgeo/internal/adapters/nats"
	"github.com/samirrijal/campusgeo/internal/adapters/opencv"
	"github.com/samirrijal/campusgeo/internal/adapters/scoring"
	"github.com/samirrijal/campusgeo/internal/core/domain"
	"github.com/samirrijal/campusgeo/internal/core/usecases"
	"github.com/samirrijal/campusgeo/internal/pkg/config"
	"github.com/samirrijal/campusgeo/internal/pkg/logging"
	"github.com/samirrijal/campusgeo/internal/pkg/vision"
)

const (
	flagDurable = "durable"
	flagPretty  = "pretty"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "identify",
		Usage: "identify campus buildings in photos",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  flagPretty,
				Usage: "indent JSON output",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "identify the building in an image file",
				ArgsUsage: "<image>",
				Action:    RunAction,
			},
			{
				Name:   "buildings",
				Usage:  "list the known buildings and their coordinates",
				Action: BuildingsAction,
			},
			{
				Name:  "watch",
				Usage: "print detection events as the API publishes them",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagDurable,
						Usage: "durable consumer name; empty only follows new events",
					},
				},
				Action: WatchAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load("campusgeo-identify")
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Log.Level, "text")
	return cfg, nil
}

// RunAction runs the full pipeline once, without cache or events.
func RunAction(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return cli.Exit("usage: identify run <image>", 2)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return err
	}

	model, err := scoring.Open(c.Context, cfg.Model)
	if err != nil {
		return fmt.Errorf("model: %w", err)
	}
	defer model.Close()

	catalog := domain.NewCatalog()
	camera := cfg.Camera.Camera()
	svc := usecases.NewDetectionService(
		usecases.NewBuildingClassifier(model, catalog, cfg.Model.InputSize),
		opencv.NewDetector(vision.DefaultParams()),
		camera,
		catalog,
		nil,
		nil,
		usecases.DetectionOptions{
			ReferenceImageHeight: camera.ReferenceImageHeight,
			MaxImagePixels:       cfg.Server.MaxImageMegapixels * 1_000_000,
		},
	)

	result, err := svc.Identify(c.Context, data)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, result, c.Bool(flagPretty))
}

// BuildingsAction prints the coordinate catalog.
func BuildingsAction(c *cli.Context) error {
	svc := usecases.NewCatalogService(domain.NewCatalog())
	return printJSON(c.App.Writer, svc.List(c.Context), c.Bool(flagPretty))
}

// WatchAction streams detection events until interrupted.
func WatchAction(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, c.String(flagDurable))
	if err != nil {
		return err
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pretty := c.Bool(flagPretty)
	err = sub.SubscribeDetections(ctx, func(_ context.Context, event *domain.DetectionEvent) error {
		return printJSON(c.App.Writer, event, pretty)
	})
	if err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

func printJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
