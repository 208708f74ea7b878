package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/theapemachine/errnie"
	"github.com/theapemachine/spindecay"
)

// overrides collects repeated -set name=value flags.
type overrides map[string]any

func (o overrides) String() string {
	parts := make([]string, 0, len(o))
	for name, value := range o {
		parts = append(parts, fmt.Sprintf("%s=%v", name, value))
	}
	return strings.Join(parts, ",")
}

func (o overrides) Set(raw string) error {
	name, value, ok := strings.Cut(raw, "=")
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", raw)
	}

	if f, err := strconv.ParseFloat(value, 64); err == nil {
		o[name] = f
		return nil
	}
	if b, err := strconv.ParseBool(value); err == nil {
		o[name] = b
		return nil
	}

	return fmt.Errorf("parameter %s: %q is neither a number nor a boolean", name, value)
}

func main() {
	params := overrides{}
	flag.Var(params, "set", "override a parameter, e.g. -set pflip=0.3 (repeatable)")
	out := flag.String("out", "", "write the run record (msgpack) to this file")
	seed := flag.Uint64("seed", 0, "random seed (default from SPINDECAY_SEED)")
	workers := flag.Int("workers", 0, "worker count (default from SPINDECAY_WORKERS)")
	flag.Parse()

	cfg, err := spindecay.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nspindecay: interrupted")
		cancel()
	}()

	mc, err := spindecay.NewMonteCarlo(params, spindecay.WithConfig(cfg))
	if err != nil {
		log.Fatalf("monte carlo: %v", err)
	}

	analytic, err := spindecay.NewFaraday(params)
	if err != nil {
		log.Fatalf("analytic model: %v", err)
	}

	if _, err := mc.Run(ctx); err != nil {
		log.Fatalf("run: %v", err)
	}

	record, err := spindecay.NewRunRecord(mc, analytic)
	if err != nil {
		log.Fatalf("record: %v", err)
	}

	errnie.Info("run %s metrics %v", record.RunID, mc.Metrics())

	fmt.Printf("N_1/e Monte Carlo: %d attempts\n", record.MonteCarloN1e)
	fmt.Printf("N_1/e analytic:    %.1f attempts\n", record.AnalyticN1e)

	if *out == "" {
		return
	}

	if err := writeRecord(*out, record); err != nil {
		log.Fatalf("write %s: %v", *out, err)
	}

	fmt.Printf("Wrote %s\n", *out)
}

func writeRecord(path string, record *spindecay.RunRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := record.Encode(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
