// Command refreshdemo exercises a refreshcache.Controller end to end:
// acquire, watch a few updates go by, cancel, restart, and watch it
// resume. It exists to give a human a way to see the state machine run
// rather than to be a serious production entrypoint.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/arkwave/refreshcache"
	"github.com/arkwave/refreshcache/internal/log"
	"github.com/arkwave/refreshcache/retry"
)

func main() {
	var (
		cadence     time.Duration
		failureRate float64
		verbose     bool
	)

	pflag.DurationVar(&cadence, "cadence", 2*time.Second, "refresh cadence")
	pflag.Float64Var(&failureRate, "failure-rate", 0.2, "probability a production attempt fails, in [0,1]")
	pflag.BoolVar(&verbose, "verbose", false, "enable debug logging")
	pflag.Parse()

	if verbose {
		base, err := zap.NewDevelopment()
		if err == nil {
			log.SetDefault(log.NewZap(base))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	counter := 0

	builder := refreshcache.New(refreshcache.RefresherConfig[int]{
		Name: "refreshdemo",
		Producer: func(context.Context) (int, error) {
			counter++
			if rand.Float64() < failureRate { //nolint:gosec // demo jitter, not a security surface.
				return 0, fmt.Errorf("simulated failure on production #%d", counter)
			}

			return counter, nil
		},
		Cadence:     func(int) time.Duration { return cadence },
		RetryPolicy: retry.ConstantDelay{Delay: 250 * time.Millisecond, MaxAttempts: 3},
		OnNewValue: func(_ context.Context, value int, cadence time.Duration) {
			fmt.Printf("new value=%d next in %s\n", value, cadence)
		},
		OnRefreshFailure: func(_ context.Context, cause error, details refreshcache.RetryDetails) {
			fmt.Printf("refresh attempt %d failed: %v (retrying in %s)\n", details.Attempt, cause, details.Delay)
		},
		OnExhaustedRetries: func(_ context.Context, cause error) {
			fmt.Printf("retries exhausted: %v\n", cause)
		},
	})

	controller, err := builder.Acquire(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "acquire failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("acquired, initial = %v\n", controller.Get())

	go tailUpdates(ctx, controller)

	time.Sleep(cadence*3 + cadence/2)

	if controller.Cancel() {
		fmt.Println("cancelled")
	}

	fmt.Printf("post-cancel = %v\n", controller.Get())

	time.Sleep(cadence)

	if controller.Restart() {
		fmt.Println("restarted")
	}

	time.Sleep(cadence * 2)

	fmt.Printf("final = %v\n", controller.Get())
	controller.Cancel()
}

func tailUpdates(ctx context.Context, controller *refreshcache.Controller[int]) {
	stream := controller.Updates()
	defer stream.Close()

	for stream.Next(ctx) {
		v := stream.Current()
		fmt.Printf("update: status=%s value=%d lagged=%d\n", v.Status(), v.Value(), stream.Lagged())
	}
}
