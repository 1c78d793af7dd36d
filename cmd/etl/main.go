package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/pulso-data/pulso-etl/app/etl"
	"github.com/pulso-data/pulso-etl/pkg/pipeline"
)

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	force := flag.Bool("force", false, "ignore watermarks and re-extract the lookback window")
	tables := flag.String("tables", "", "comma-separated subset of tables to run")
	catchup := flag.Bool("catchup", false, "reset watermarks and re-extract from scratch, then exit")
	status := flag.Bool("status", false, "print the watermark status summary and exit")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := etl.Initialize(ctx)
	if err != nil {
		panic(err)
	}

	var selected []string
	if *tables != "" {
		for _, t := range strings.Split(*tables, ",") {
			if t = strings.TrimSpace(t); t != "" {
				selected = append(selected, t)
			}
		}
	}

	if *status {
		st, err := app.Watermarks.Status(ctx)
		if err != nil {
			app.Logger.Error("Failed to read watermark status", zap.Error(err))
			os.Exit(1)
		}
		raw, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			app.Logger.Error("Failed to encode watermark status", zap.Error(err))
			os.Exit(1)
		}
		fmt.Println(string(raw))
		os.Exit(0)
	}

	if *catchup {
		report, err := app.CatchUp(ctx, selected)
		exitWithReport(app, report, err)
	}

	opts := pipeline.RunOptions{Tables: selected, Force: *force}
	if *once {
		report, err := app.RunOnce(ctx, opts)
		exitWithReport(app, report, err)
	}

	// Daemon mode: immediate pass first, then on schedule.
	if _, err := app.RunOnce(ctx, opts); err != nil {
		app.Logger.Error("Initial run failed", zap.Error(err))
	}
	app.StartCron()
	app.Start(ctx)
}

func exitWithReport(app *etl.App, report *pipeline.RunReport, err error) {
	if err != nil {
		app.Logger.Error("Run failed", zap.Error(err))
		os.Exit(1)
	}
	if report != nil && !report.Ok() {
		app.Logger.Warn("Run finished with table failures",
			zap.Int("failed", report.Failed),
			zap.Int("succeeded", report.Succeeded))
		os.Exit(1)
	}
	os.Exit(0)
}
