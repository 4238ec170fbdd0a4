// Package bench load-tests a running gateway with vegeta.
package bench

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nulzo/polymage/internal/cli"
	vegeta "github.com/tsenart/vegeta/v12/lib"
)

type Options struct {
	URL      string
	Method   string
	Body     []byte
	APIKey   string
	Rate     int
	Duration time.Duration
}

// Report summarises one attack.
type Report struct {
	Requests    uint64
	P99         time.Duration
	Mean        time.Duration
	Max         time.Duration
	Success     float64
	Throughput  float64
	StatusCodes map[string]int
	Errors      []string
}

// Run attacks opts.URL at a constant rate until the duration elapses or ctx
// is cancelled.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("bench: url is required")
	}
	if opts.Rate <= 0 {
		return nil, fmt.Errorf("bench: rate must be positive, got %d", opts.Rate)
	}
	if opts.Duration <= 0 {
		return nil, fmt.Errorf("bench: duration must be positive, got %s", opts.Duration)
	}
	method := opts.Method
	if method == "" {
		method = http.MethodPost
	}

	header := http.Header{"Content-Type": []string{"application/json"}}
	if opts.APIKey != "" {
		header.Set("Authorization", "Bearer "+opts.APIKey)
	}

	targeter := func(t *vegeta.Target) error {
		t.Method = method
		t.URL = opts.URL
		t.Body = opts.Body
		t.Header = header.Clone()
		return nil
	}

	attacker := vegeta.NewAttacker(vegeta.KeepAlive(true))
	results := attacker.Attack(targeter, vegeta.Rate{Freq: opts.Rate, Per: time.Second}, opts.Duration, "polymage")

	var metrics vegeta.Metrics
	done := ctx.Done()
	for res := range results {
		metrics.Add(res)
		select {
		case <-done:
			attacker.Stop()
			done = nil
		default:
		}
	}
	metrics.Close()

	return &Report{
		Requests:    metrics.Requests,
		P99:         metrics.Latencies.P99,
		Mean:        metrics.Latencies.Mean,
		Max:         metrics.Latencies.Max,
		Success:     metrics.Success,
		Throughput:  metrics.Throughput,
		StatusCodes: metrics.StatusCodes,
		Errors:      uniqueErrors(metrics.Errors, 5),
	}, nil
}

func uniqueErrors(errs []string, limit int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, msg := range errs {
		if seen[msg] {
			continue
		}
		seen[msg] = true
		out = append(out, msg)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Print writes the report the way the bench command shows it.
func (r *Report) Print(w io.Writer) {
	line := cli.Style("--------------------------------------------------", cli.Dim)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "Requests:        ", r.Requests)
	fmt.Fprintln(w, "99th percentile: ", r.P99)
	fmt.Fprintln(w, "Mean:            ", r.Mean)
	fmt.Fprintln(w, "Max:             ", r.Max)
	fmt.Fprintf(w, "Success:         %.2f%%\n", r.Success*100)
	fmt.Fprintf(w, "Throughput:      %.2f req/s\n", r.Throughput)
	fmt.Fprintln(w, line)

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, cli.Style("Errors (first 5 unique):", cli.Red))
		for _, msg := range r.Errors {
			fmt.Fprintln(w, " ", msg)
		}
	}
}
