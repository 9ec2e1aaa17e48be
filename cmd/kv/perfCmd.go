package kv

import (
	"fmt"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/driftkv/driftkv/cmd/util"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for a driftkv cluster",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix   = "__test"
	perfValueSizeB  = 128
	perfNumThreads  = 10
	perfKeySpread   = 100
	perfSkip        = make([]string, 0)
	perfDumpMetrics = false
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. put,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of parallel workers to use for the benchmark"))
	key = "value-size"
	perfTestCmd.Flags().Int(key, 128, util.WrapString("Size of the values written by the benchmark (in bytes)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "dump-metrics"
	perfTestCmd.Flags().Bool(key, false, util.WrapString("Dump the client metrics in Prometheus format after the run"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfValueSizeB = viper.GetInt("value-size")
	perfKeySpread = viper.GetInt("keys")
	perfNumThreads = viper.GetInt("threads")
	perfSkip = strings.Split(viper.GetString("skip"), ",")
	perfDumpMetrics = viper.GetBool("dump-metrics")

	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for driftkv")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Workers: %d\n", perfNumThreads)
	fmt.Printf("Keys: %d\n", perfKeySpread)
	fmt.Printf("Value size: %d bytes\n", perfValueSizeB)
	fmt.Println()

	fmt.Println("starting tests...")

	value := make([]byte, perfValueSizeB)

	putTimer := gometrics.NewTimer()
	putResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("put") {
			return
		}

		b.SetParallelism(perfNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				start := time.Now()
				if err := kvClient.PutLWW(perfKey(counter), value); err != nil {
					log.Printf("(put) - error putting key: %v\n", err)
				}
				putTimer.UpdateSince(start)
				counter++
			}
		})
	})
	printResult("put", putResult, putTimer)

	getTimer := gometrics.NewTimer()
	getResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("get") {
			return
		}

		b.SetParallelism(perfNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				start := time.Now()
				if _, err := kvClient.GetLWW(perfKey(counter)); err != nil {
					log.Printf("(get) - error getting key: %v\n", err)
				}
				getTimer.UpdateSince(start)
				counter++
			}
		})
	})
	printResult("get", getResult, getTimer)

	if perfDumpMetrics {
		fmt.Println()
		fmt.Println("Client metrics:")
		metrics.WritePrometheus(os.Stdout, false)
	}

	return nil
}

// perfKey maps a worker-local counter onto the configured key spread
func perfKey(counter int) string {
	return fmt.Sprintf("%s-%d", perfKeyPrefix, counter%perfKeySpread)
}

// shouldSkip checks whether a benchmark was excluded via the skip flag
func shouldSkip(name string) bool {
	for _, s := range perfSkip {
		if strings.TrimSpace(s) == name {
			return true
		}
	}
	return false
}

// printResult reports throughput from the benchmark result and latency
// percentiles from the timer
func printResult(name string, result testing.BenchmarkResult, timer gometrics.Timer) {
	if result.N == 0 {
		fmt.Printf("%-10s skipped\n", name)
		return
	}

	opsPerSec := float64(result.N) / result.T.Seconds()
	fmt.Printf("%-10s %10d ops %12.1f ops/s  p50 %s  p95 %s  p99 %s\n",
		name,
		result.N,
		opsPerSec,
		time.Duration(timer.Percentile(0.50)),
		time.Duration(timer.Percentile(0.95)),
		time.Duration(timer.Percentile(0.99)),
	)
}
