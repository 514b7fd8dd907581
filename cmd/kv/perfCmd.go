package kv

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/expmap/cmd/util"
	"github.com/ValentinKolb/expmap/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for expmap servers",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfTimeout          = time.Minute
	perfSkip             = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. put,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the put-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "entry-timeout"
	perfTestCmd.Flags().Duration(key, time.Minute, util.WrapString("Timeout of the entries written by the benchmark"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfTimeout = viper.GetDuration("entry-timeout")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

// perfTest is one benchmark, op is called with the key of the current iteration
type perfTest struct {
	name    string
	prefill bool
	op      func(key string) error
}

func perfTests() []perfTest {
	largeValue := make([]byte, perfLargeValueSizeKB*1024)

	return []perfTest{
		{name: "put", op: func(key string) error {
			return remoteMap.Put(key, []byte("test"), perfTimeout)
		}},
		{name: "put-large", op: func(key string) error {
			return remoteMap.Put(key, largeValue, perfTimeout)
		}},
		{name: "put-short", op: func(key string) error {
			// expires almost immediately and keeps the reclaimer busy
			return remoteMap.Put(key, []byte("test"), time.Millisecond)
		}},
		{name: "get", prefill: true, op: func(key string) error {
			_, _, err := remoteMap.Get(key)
			return err
		}},
		{name: "has", prefill: true, op: func(key string) error {
			_, err := remoteMap.Has(key)
			return err
		}},
		{name: "ttl", prefill: true, op: func(key string) error {
			_, _, err := remoteMap.TTL(key)
			return err
		}},
		{name: "get-missing", op: func(key string) error {
			_, _, err := remoteMap.Get(key)
			return err
		}},
		{name: "remove", prefill: true, op: func(key string) error {
			_, err := remoteMap.Remove(key)
			return err
		}},
	}
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for expmap servers")

	// Print configuration
	config := util.GetClientConfig()
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(config.String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fmt.Println("starting tests...")

	// Create results map
	results := make(map[string]testing.BenchmarkResult)

	for _, test := range perfTests() {
		if shouldSkip(test.name) {
			results[test.name] = testing.BenchmarkResult{}
			printResult(test.name, results[test.name])
			continue
		}

		result := testing.Benchmark(func(b *testing.B) {
			getKey, iter := getKeys(test.name)

			if test.prefill {
				iter(func(k string) {
					if err := remoteMap.Put(k, []byte("test"), perfTimeout); err != nil {
						log.Printf("(%s) - error preparing key: %v\n", test.name, err)
					}
				})
			}

			// cleanup
			b.Cleanup(func() {
				iter(func(k string) {
					if _, err := remoteMap.Remove(k); err != nil {
						log.Printf("(%s) - error removing key: %v\n", test.name, err)
					}
				})
			})

			b.SetParallelism(perfNumThreads)
			b.ResetTimer()

			b.RunParallel(func(pb *testing.PB) {
				counter := 0
				for pb.Next() {
					if err := test.op(getKey(counter)); err != nil {
						log.Printf("(%s) - error: %v\n", test.name, err)
					}
					counter++
				}
			})
		})

		results[test.name] = result
		printResult(test.name, result)
	}

	// Save results to CSV if requested
	if csvPath := viper.GetString("csv"); csvPath != "" {
		if err := writeResultsToCSV(csvPath, results, config); err != nil {
			return err
		}
		fmt.Printf("\nresults written to %s\n", csvPath)
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

// creates an array of test keys and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	// Function to iterate over all keys and apply a function to each
	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"ShardID", "Serializer", "Transport",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.NsPerOp() == 0 {
			skipped = "true"
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			strings.Join(config.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.RetryCount),
			strconv.Itoa(config.ConnectionsPerEndpoint),
			strconv.FormatUint(util.GetShardID(), 10),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %w", test, err)
		}
	}

	return nil
}
