package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"salesmart/internal/config"
	"salesmart/internal/metrics"
	"salesmart/internal/metrics/datadog"
	"salesmart/internal/pipeline"

	// register all backends with the source and storage factories.
	// config specifies which to use but the binary supports all of them.
	_ "salesmart/internal/source/all"
	_ "salesmart/internal/storage/all"
)

// main is the entry point for the datamart binary. It loads the pipeline
// config, optionally initializes a metrics backend, and executes the
// requested stage(s).
func main() {
	var (
		cfgPath           string
		stage             string
		artifact          string
		metricsBackendFlg string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "configs/salesmart.json", "pipeline config JSON path")
	flag.StringVar(&stage, "stage", "all", "stage to run: all | extract | load")
	flag.StringVar(&artifact, "artifact", "", "staging artifact path (required for -stage load)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (datadog, none)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	p, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}

	issues := config.ValidatePipeline(p)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		log.Printf("Configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}
	if validate {
		log.Printf("Configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	// Decide metrics backend: flag → env → default.
	backendName := metricsBackendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "datadog":
		extraTags := datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS"))

		b, err := datadog.NewBackend(context.Background(), datadog.Options{
			JobName:    p.Job,
			Tags:       extraTags,
			FlushEvery: 60 * time.Second,
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
		} else {
			log.Printf("metrics: backend=%v job_name=%v tags=%v", backendName, p.Job, extraTags)
			metrics.SetBackend(b)

			// Close() stops the periodic flush loop and performs a final
			// Flush(); this is the clean shutdown path.
			defer func() {
				if err := b.Close(); err != nil {
					log.Printf("metrics: datadog close/flush error: %v", err)
				}
			}()
		}

	case "", "none":
		// metrics disabled; nop backend remains
		if *verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}

	ctx := context.Background()
	start := time.Now()

	if *verbose {
		log.Printf("pipeline: source=%s storage=%s table=%s window=[%s, %s)",
			p.Source.Kind, p.Storage.Kind, p.Storage.Table, p.Window.Start, p.Window.End)
	}

	stages := pipeline.NewDefaultStages()

	switch stage {
	case "all":
		err = stages.Run(ctx, p)
	case "extract":
		var path string
		path, err = stages.Extract(ctx, p)
		if err == nil {
			fmt.Println(path)
		}
	case "load":
		if artifact == "" {
			fatalf("-artifact is required with -stage load")
		}
		err = stages.Load(ctx, p, artifact)
	default:
		fatalf("unknown -stage %q", stage)
	}
	if err != nil {
		log.Fatalf("%v", err)
	}

	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
