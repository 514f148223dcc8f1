package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/joshbohde/semaphore/stats"
)

// Overloaded runs every method against every scenario concurrently.
func Overloaded(ctx context.Context, cfg Config, rs *resultSet) error {
	runtime, deadline := cfg.Durations()
	opts := cfg.Options()

	g, ctx := errgroup.WithContext(ctx)

	for _, sc := range cfg.Scenarios {
		for _, method := range cfg.Methods {
			method := method
			sim := &Simulation{
				Method:       method,
				Deadline:     deadline,
				InputPerSec:  sc.Input,
				OutputPerSec: sc.Output,
				TimeToRun:    runtime,
				Stats:        stats.New(),
			}

			g.Go(func() error {
				lock, err := NewLocker(method, opts)
				if err != nil {
					sim.Stats.Close()
					return err
				}
				defer lock.Close()

				if err := sim.Run(ctx, lock); err != nil {
					return err
				}

				rs.add(sim.Result())
				return nil
			})
		}
	}

	return g.Wait()
}

func main() {
	log.SetOutput(os.Stdout)

	cfg := Config{}

	flag.StringVar(&cfg.SimulationTime, "simulation-time", "5s", "Time to run each simulation")
	flag.StringVar(&cfg.TargetLatency, "target-latency", "5ms", "Target latency")
	flag.StringVar(&cfg.Deadline, "deadline", "1s", "Hard deadline to remain in the queue")
	flag.IntVar(&cfg.MaxPending, "max-pending", 1000, "Maximum number of pending acquires")
	flag.IntVar(&cfg.MaxOutstanding, "max-outstanding", 10, "Maximum number of concurrent acquires")
	configPath := flag.String("config", "", "Scenario file (YAML), applied over the flags")
	asJSON := flag.Bool("json", false, "Print results as JSON")
	listen := flag.String("listen", "", "Serve results over HTTP on this address")
	httpConcurrency := flag.Int("http-concurrency", 4, "Maximum concurrent HTTP requests")

	flag.Parse()

	if *configPath != "" {
		loaded, err := LoadConfig(*configPath, cfg)
		if err != nil {
			log.Printf("config error: %v", err)
			os.Exit(2)
		}
		cfg = loaded
	} else {
		cfg.applyDefaults()
		if err := cfg.Validate(); err != nil {
			log.Printf("config error: %v", err)
			os.Exit(2)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rs := &resultSet{}

	var srv *http.Server
	if *listen != "" {
		router, err := NewRouter(rs, *httpConcurrency, log.Default())
		if err != nil {
			log.Printf("config error: %v", err)
			os.Exit(2)
		}

		srv = &http.Server{
			Addr:              *listen,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			log.Printf("serving results on %s", *listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("http server: %v", err)
			}
		}()
	}

	log.Printf("simulating methods=%v scenarios=%d duration=%s", cfg.Methods, len(cfg.Scenarios), cfg.SimulationTime)

	if err := Overloaded(ctx, cfg, rs); err != nil {
		log.Printf("simulation stopped: %v", err)
	}
	rs.finish()

	out := rs.snapshot()
	if *asJSON {
		if err := json.NewEncoder(os.Stdout).Encode(out.Results); err != nil {
			log.Printf("encode results: %v", err)
		}
	} else {
		for _, r := range out.Results {
			log.Printf("%s", r)
		}
	}

	if srv != nil {
		// Keep serving the final results until interrupted.
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
