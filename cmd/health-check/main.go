// Package main provides a standalone health check command for the nutrition service.
// It can be used for container health checks, monitoring scripts and debugging.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/infrastructure/ai"
	"github.com/alchemorsel/nutrition/internal/infrastructure/config"
	redisRepo "github.com/alchemorsel/nutrition/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/nutrition/pkg/healthcheck"
	"github.com/alchemorsel/nutrition/pkg/logger"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

// Options holds command-line configuration
type Options struct {
	URL            string
	Timeout        time.Duration
	Verbose        bool
	OutputFormat   string
	ExpectedStatus string
	RetryCount     int
	RetryDelay     time.Duration
	ConfigPath     string
	LocalCheck     bool
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(exitCodeError)
	}

	if opts.LocalCheck {
		os.Exit(runLocalHealthCheck(opts, os.Stdout))
	}
	os.Exit(runRemoteHealthCheck(opts, os.Stdout))
}

func parseFlags(args []string) (Options, error) {
	opts := Options{}
	fs := flag.NewFlagSet("health-check", flag.ContinueOnError)

	fs.StringVar(&opts.URL, "url", os.Getenv("HEALTH_CHECK_URL"), "Health endpoint URL")
	fs.DurationVar(&opts.Timeout, "timeout", 10*time.Second, "Request timeout")
	fs.BoolVar(&opts.Verbose, "verbose", false, "Verbose output")
	fs.StringVar(&opts.OutputFormat, "format", "text", "Output format: text, json, compact")
	fs.StringVar(&opts.ExpectedStatus, "expect", "healthy", "Lowest acceptable status: healthy or degraded")
	fs.IntVar(&opts.RetryCount, "retry", 0, "Number of retries on failure")
	fs.DurationVar(&opts.RetryDelay, "retry-delay", time.Second, "Delay between retries")
	fs.StringVar(&opts.ConfigPath, "config", os.Getenv("NUTRITION_CONFIG"), "Configuration file path for local checks")
	fs.BoolVar(&opts.LocalCheck, "local", false, "Probe dependencies directly instead of calling the service")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.URL == "" {
		opts.URL = "http://localhost:8080/health"
	}
	return opts, nil
}

// runRemoteHealthCheck queries a running service
func runRemoteHealthCheck(opts Options, out io.Writer) int {
	client := &http.Client{Timeout: opts.Timeout}

	var lastError error
	for attempt := 0; attempt <= opts.RetryCount; attempt++ {
		if attempt > 0 {
			if opts.Verbose {
				fmt.Fprintf(out, "Retrying in %v... (attempt %d/%d)\n", opts.RetryDelay, attempt, opts.RetryCount)
			}
			time.Sleep(opts.RetryDelay)
		}

		resp, err := client.Get(opts.URL)
		if err != nil {
			lastError = err
			if opts.Verbose {
				fmt.Fprintf(out, "Request failed: %v\n", err)
			}
			continue
		}

		return handleResponse(resp, opts, out)
	}

	fmt.Fprintf(out, "Health check failed after %d attempts: %v\n", opts.RetryCount+1, lastError)
	return exitCodeError
}

// runLocalHealthCheck probes the configured model provider and verdict
// cache without going through the service
func runLocalHealthCheck(opts Options, out io.Writer) int {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(out, "Failed to load configuration: %v\n", err)
		return exitCodeError
	}

	log, err := logger.New(logger.Config{Level: "warn", Format: "console"})
	if err != nil {
		fmt.Fprintf(out, "Failed to create logger: %v\n", err)
		return exitCodeError
	}
	defer func() { _ = log.Sync() }()

	hc := healthcheck.New(cfg.App.Version, log)
	if err := registerHealthChecks(hc, cfg, log); err != nil {
		fmt.Fprintf(out, "Failed to configure checks: %v\n", err)
		return exitCodeError
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	return outputResult(hc.Check(ctx), opts, out)
}

func registerHealthChecks(hc *healthcheck.HealthCheck, cfg *config.Config, log *zap.Logger) error {
	provider, err := ai.NewProviderClient(cfg.AI, log)
	if err != nil {
		return err
	}
	hc.Register("ai", ai.NewHealthChecker(log, ai.Provider{Client: provider}))

	if cfg.Verification.CacheEnabled && cfg.Verification.CacheBackend == "redis" {
		client := redisRepo.NewClient(redisRepo.Config{
			Addrs:       cfg.Redis.Addrs(),
			Password:    cfg.Redis.Password,
			Database:    cfg.Redis.Database,
			DialTimeout: cfg.Redis.DialTimeout,
			ReadTimeout: cfg.Redis.ReadTimeout,
		})
		hc.Register("redis", healthcheck.NewRedisChecker(client))
	}
	return nil
}

func handleResponse(resp *http.Response, opts Options, out io.Writer) int {
	defer resp.Body.Close()

	var response healthcheck.Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		fmt.Fprintf(out, "Failed to decode response: %v\n", err)
		return exitCodeError
	}

	return outputResult(response, opts, out)
}

func outputResult(result healthcheck.Response, opts Options, out io.Writer) int {
	switch opts.OutputFormat {
	case "json":
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(out, string(data))
	case "compact":
		data, _ := json.Marshal(result)
		fmt.Fprintln(out, string(data))
	default:
		outputText(result, opts.Verbose, out)
	}

	return exitCode(result.Status, healthcheck.Status(opts.ExpectedStatus))
}

// exitCode accepts the expected status or anything better
func exitCode(status, expected healthcheck.Status) int {
	switch status {
	case healthcheck.StatusHealthy:
		return exitCodeSuccess
	case healthcheck.StatusDegraded:
		if expected == healthcheck.StatusDegraded || expected == healthcheck.StatusUnhealthy {
			return exitCodeSuccess
		}
		return exitCodeFailure
	case healthcheck.StatusUnhealthy:
		if expected == healthcheck.StatusUnhealthy {
			return exitCodeSuccess
		}
		return exitCodeFailure
	default:
		return exitCodeFailure
	}
}

func outputText(r healthcheck.Response, verbose bool, out io.Writer) {
	fmt.Fprintf(out, "Status: %s\n", r.Status)
	fmt.Fprintf(out, "Version: %s\n", r.Version)
	fmt.Fprintf(out, "Timestamp: %s\n", r.Timestamp.Format(time.RFC3339))

	if verbose && len(r.Checks) > 0 {
		fmt.Fprintln(out, "\nChecks:")
		for _, check := range r.Checks {
			fmt.Fprintf(out, "  %s: %s", check.Name, check.Status)
			if check.Message != "" {
				fmt.Fprintf(out, " (%s)", check.Message)
			}
			fmt.Fprintln(out)
		}
	}
}
