// Command features runs a claims feature pipeline described by a JSON
// pipeline file: load the claims, apply the configured steps in order, then
// optionally export the result to a file and copy it into a database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"claimsfe/internal/config"
	"claimsfe/internal/metrics"
	"claimsfe/internal/metrics/datadog"
	"claimsfe/internal/metrics/prompush"

	// register all backends with the storage factory.
	_ "claimsfe/internal/storage/all"
)

func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		dogstatsdAddrFlg  string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "pipeline.json", "pipeline config JSON path")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend: pushgateway, datadog or none (env METRICS_BACKEND)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (env PUSHGATEWAY_URL)")
	flag.StringVar(&dogstatsdAddrFlg, "dogstatsd-addr", "", "DogStatsD address (env DD_DOGSTATSD_ADDR)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")
	flag.Parse()

	p, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("Configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}
	if validate {
		log.Printf("Configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	runID := uuid.NewString()
	log.SetPrefix(fmt.Sprintf("[%s %s] ", jobName(p), runID[:8]))

	flush := setupMetrics(p, pickString(metricsBackendFlg, os.Getenv("METRICS_BACKEND")),
		pickString(pushGatewayURLFlg, os.Getenv("PUSHGATEWAY_URL"), "http://localhost:9091"),
		pickString(dogstatsdAddrFlg, os.Getenv("DD_DOGSTATSD_ADDR"), "127.0.0.1:8125"),
		runID, *verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	start := time.Now()
	if *verbose {
		log.Printf("pipeline: run_id=%s source=%s steps=%d output=%s storage=%s",
			runID, p.Source.File.Path, len(p.Steps), p.Output.Kind, p.Storage.Kind)
	}

	err = run(ctx, p, os.Stdout)
	stop()
	flush()
	if err != nil {
		fatalf("%v", err)
	}
	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

// setupMetrics installs the selected backend and returns its flush func.
// A backend that fails to initialize leaves metrics disabled.
func setupMetrics(p config.Pipeline, backend, gatewayURL, statsdAddr, runID string, verbose bool) func() {
	flush := func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}

	switch strings.ToLower(backend) {
	case "pushgateway", "prom":
		b, err := prompush.NewBackend(jobName(p), gatewayURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return func() {}
		}
		log.Printf("metrics: url=%v, backend=%v, job_name=%v", gatewayURL, backend, jobName(p))
		metrics.SetBackend(b)
		return flush

	case "datadog", "dogstatsd":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       statsdAddr,
			Namespace:  "claims.",
			GlobalTags: []string{"job:" + jobName(p), "run_id:" + runID},
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return func() {}
		}
		log.Printf("metrics: addr=%v, backend=%v", statsdAddr, backend)
		metrics.SetBackend(b)
		return flush

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", backend)
		}
	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backend)
	}
	return func() {}
}

func jobName(p config.Pipeline) string {
	return pickString(p.Job, prompush.DefaultJob)
}

// pickString returns the first non-empty value.
func pickString(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
