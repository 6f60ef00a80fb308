package main

import (
	"embed"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/chazu/instbake/pkg/bake"
	"github.com/chazu/instbake/pkg/config"
	"github.com/chazu/instbake/pkg/scene"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	jobPath := flag.String("job", "", "bake job file (TOML); runs headless")
	scenePath := flag.String("scene", "", "scene script; runs headless")
	instancers := flag.String("instancer", "", "comma-separated instancers to bake (default: all)")
	out := flag.String("out", "", "write the baked hierarchy as JSON to this file")
	flag.Parse()

	if *jobPath == "" && *scenePath == "" {
		if err := runPanel(); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		return
	}

	job := config.Default()
	if *jobPath != "" {
		var err error
		if job, err = config.Load(*jobPath); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
	}
	if *scenePath != "" {
		job.Scene = *scenePath
	}
	if *instancers != "" {
		job.Instancers = strings.Split(*instancers, ",")
	}
	if *out != "" {
		job.Output = *out
	}
	if err := job.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}

	level, _ := config.ParseLevel(job.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	if err := runJob(job, logger); err != nil {
		logger.Error("bake job failed", "err", err)
		os.Exit(1)
	}
}

func runPanel() error {
	app := NewApp(slog.Default())
	return wails.Run(&options.App{
		Title:  "Bake Particle Instancer",
		Width:  420,
		Height: 560,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup: app.startup,
		Bind: []interface{}{
			app,
		},
	})
}

// runJob loads the job's scene, bakes its instancers and writes the
// optional JSON dump.
func runJob(job config.Job, logger *slog.Logger) error {
	app := NewApp(logger)
	loaded, err := app.LoadSceneFile(job.Scene)
	if err != nil {
		return err
	}

	names := job.Instancers
	if len(names) == 0 {
		names = loaded.Instancers
	}
	r := bake.Range{Start: loaded.Start, End: loaded.End, Step: job.Step, Resume: job.Resume}
	if job.HasRange() {
		r.Start, r.End = job.Start, job.End
	}

	reports, err := app.BakeInstancers(names, &r)
	if err != nil {
		return err
	}
	if job.Output == "" {
		return nil
	}
	return writeDump(app, reports, job.Output)
}

func writeDump(app *App, reports []*bake.Report, path string) error {
	dump := make(map[string]*scene.DumpNode, len(reports))
	for _, rep := range reports {
		d, err := app.Dump(rep.Root)
		if err != nil {
			return err
		}
		dump[rep.Instancer] = d
	}
	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
