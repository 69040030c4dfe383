// Loadtest is a concurrent HTTP load testing tool that measures throughput,
// latency percentiles, and per-instance distribution through the router.
//
// Usage:
//
//	go run ./scripts/loadtest -url http://localhost:8080/api/users/42 -concurrency 10 -requests 1000
//	go run ./scripts/loadtest -url http://localhost:8080/api/orders -method POST -csv results.csv -out summary.json
//
// The instance distribution is read from the X-Instance-ID header set by
// the mockservice backends. Requests rejected with 429 or 503 are counted
// separately so rate limiting and circuit breaking show up in the summary.
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

func main() {
	var (
		url         = flag.String("url", "http://localhost:8080/api/users/42", "Target URL")
		concurrency = flag.Int("concurrency", 10, "Number of concurrent workers")
		requests    = flag.Int("requests", 100, "Total number of requests to send")
		method      = flag.String("method", "GET", "HTTP method")
		body        = flag.String("body", "", "Request body")
		contentType = flag.String("content-type", "application/json", "Content-Type header")
		timeoutSec  = flag.Int("timeout", 10, "Per-request timeout in seconds")
	)

	outJSON := flag.String("out", "", "Write JSON summary to this file (optional)")
	outCSV := flag.String("csv", "", "Write per-request CSV to this file (optional)")
	verbose := flag.Bool("v", false, "Verbose per-request logging to stdout")
	flag.Parse()

	client := &http.Client{Timeout: time.Duration(*timeoutSec) * time.Second}

	jobs := make(chan int)
	var wg sync.WaitGroup

	var total int32
	var success int32
	var failure int32
	var rejected int32 // 429 and 503 answers from the router itself

	// InstanceStats tracks statistics for a specific backend instance.
	type InstanceStats struct {
		Count     int32           `json:"count"`
		Success   int32           `json:"success"`
		Failure   int32           `json:"failure"`
		Latencies []time.Duration `json:"-"`
	}

	instanceStats := make(map[string]*InstanceStats)
	var instanceMu sync.Mutex

	var allLatencies []time.Duration
	var latMu sync.Mutex

	statusCodes := make(map[int]int32)
	var statusMu sync.Mutex

	// open CSV if requested
	var csvFile *os.File
	var csvWriter *csv.Writer
	var csvMu sync.Mutex
	if *outCSV != "" {
		f, err := os.Create(*outCSV)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create csv file: %v\n", err)
			os.Exit(1)
		}
		csvFile = f
		csvWriter = csv.NewWriter(f)
		// header
		csvWriter.Write([]string{"idx", "timestamp", "instance", "status", "duration_ms"})
	}

	testStart := time.Now()

	// worker
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range jobs {
				atomic.AddInt32(&total, 1)
				start := time.Now()

				var payload io.Reader
				if *body != "" {
					payload = bytes.NewBufferString(*body)
				}

				req, err := http.NewRequest(*method, *url, payload)
				if err != nil {
					atomic.AddInt32(&failure, 1)
					continue
				}
				req.Header.Set("Content-Type", *contentType)

				// Spread source IPs so per-client views stay realistic
				fakeIP := fmt.Sprintf("192.168.1.%d", (idx%50)+1)
				req.Header.Set("X-Forwarded-For", fakeIP)

				resp, err := client.Do(req)
				dur := time.Since(start)

				// record overall latency
				latMu.Lock()
				allLatencies = append(allLatencies, dur)
				latMu.Unlock()

				if err != nil {
					atomic.AddInt32(&failure, 1)
					if *verbose {
						fmt.Printf("[%d] idx=%d error=%v\n", workerID, idx, err)
					}
					continue
				}

				// status code map
				statusMu.Lock()
				statusCodes[resp.StatusCode]++
				statusMu.Unlock()

				switch {
				case resp.StatusCode >= 200 && resp.StatusCode <= 299:
					atomic.AddInt32(&success, 1)
				case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
					atomic.AddInt32(&rejected, 1)
					atomic.AddInt32(&failure, 1)
				default:
					atomic.AddInt32(&failure, 1)
				}

				instance := resp.Header.Get("X-Instance-ID")
				if instance == "" {
					instance = "(unknown)"
				}

				instanceMu.Lock()
				is, ok := instanceStats[instance]
				if !ok {
					is = &InstanceStats{}
					instanceStats[instance] = is
				}
				is.Count++
				if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
					is.Success++
				} else {
					is.Failure++
				}
				is.Latencies = append(is.Latencies, dur)
				instanceMu.Unlock()

				// optional CSV row and verbose
				if csvWriter != nil {
					csvMu.Lock()
					csvWriter.Write([]string{
						fmt.Sprintf("%d", idx),
						time.Now().Format(time.RFC3339Nano),
						instance,
						fmt.Sprintf("%d", resp.StatusCode),
						fmt.Sprintf("%.3f", float64(dur.Microseconds())/1000.0),
					})
					csvMu.Unlock()
				}

				if *verbose {
					fmt.Printf("[%d] idx=%d instance=%s status=%d dur=%v\n", workerID, idx, instance, resp.StatusCode, dur)
				}

				// drain body
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
			}
		}(i)
	}

	// send jobs
	go func() {
		for i := 0; i < *requests; i++ {
			jobs <- i
		}
		close(jobs)
	}()

	wg.Wait()
	testEnd := time.Now()

	if csvWriter != nil {
		csvWriter.Flush()
		csvFile.Close()
	}

	// summarize
	totalDuration := testEnd.Sub(testStart)
	throughput := float64(total) / totalDuration.Seconds()

	fmt.Println("--- Load Test Summary ---")
	fmt.Printf("Target: %s\n", *url)
	fmt.Printf("Requests: %d  Concurrency: %d\n", *requests, *concurrency)
	fmt.Printf("Total sent: %d  Success: %d  Failure: %d  Rejected: %d\n", total, success, failure, rejected)
	fmt.Printf("Duration: %v  Throughput: %.2f req/s\n", totalDuration, throughput)

	// status codes
	fmt.Println("\nStatus codes:")
	statusMu.Lock()
	var scKeys []int
	for k := range statusCodes {
		scKeys = append(scKeys, k)
	}
	sort.Ints(scKeys)
	for _, k := range scKeys {
		fmt.Printf("  %d -> %d\n", k, statusCodes[k])
	}
	statusMu.Unlock()

	// instances
	fmt.Println("\nInstance distribution & stats:")
	instanceMu.Lock()
	var instanceKeys []string
	for k := range instanceStats {
		instanceKeys = append(instanceKeys, k)
	}
	sort.Strings(instanceKeys)
	for _, k := range instanceKeys {
		is := instanceStats[k]
		// compute latency stats for this instance
		var min, max time.Duration
		var sum time.Duration
		latCount := len(is.Latencies)
		if latCount > 0 {
			min = is.Latencies[0]
			for _, d := range is.Latencies {
				if d < min {
					min = d
				}
				if d > max {
					max = d
				}
				sum += d
			}
		}
		var avg time.Duration
		if latCount > 0 {
			avg = sum / time.Duration(latCount)
		}

		// percentiles
		var p50, p90, p95, p99 time.Duration
		if latCount > 0 {
			// make a copy and sort
			tmp := make([]time.Duration, latCount)
			copy(tmp, is.Latencies)
			sort.Slice(tmp, func(i, j int) bool { return tmp[i] < tmp[j] })
			p := func(pct float64) time.Duration {
				idx := int(float64(len(tmp)-1) * pct)
				if idx < 0 {
					idx = 0
				}
				if idx >= len(tmp) {
					idx = len(tmp) - 1
				}
				return tmp[idx]
			}
			p50 = p(0.50)
			p90 = p(0.90)
			p95 = p(0.95)
			p99 = p(0.99)
		}

		fmt.Printf("  %s -> total=%d success=%d failure=%d\n", k, is.Count, is.Success, is.Failure)
		if latCount > 0 {
			fmt.Printf("    latencies: samples=%d min=%v avg=%v max=%v p50=%v p90=%v p95=%v p99=%v\n",
				latCount, min, avg, max, p50, p90, p95, p99)
		}
	}
	instanceMu.Unlock()

	// overall latencies
	if len(allLatencies) > 0 {
		tmp := make([]time.Duration, len(allLatencies))
		copy(tmp, allLatencies)
		sort.Slice(tmp, func(i, j int) bool { return tmp[i] < tmp[j] })
		var sum time.Duration
		for _, d := range tmp {
			sum += d
		}
		avg := sum / time.Duration(len(tmp))
		fmt.Println("\nOverall latencies:")
		fmt.Printf("  samples=%d min=%v avg=%v max=%v p50=%v p90=%v p95=%v p99=%v\n",
			len(tmp), tmp[0], avg, tmp[len(tmp)-1], tmp[int(0.5*float64(len(tmp)-1))], tmp[int(0.9*float64(len(tmp)-1))], tmp[int(0.95*float64(len(tmp)-1))], tmp[int(0.99*float64(len(tmp)-1))])
	}

	// quick memory/CPU hint
	fmt.Printf("\nGOMAXPROCS=%d  NumGoroutine=%d\n", runtime.GOMAXPROCS(0), runtime.NumGoroutine())

	// optional JSON output
	if *outJSON != "" {
		type InstanceSummary struct {
			Total   int32   `json:"total"`
			Success int32   `json:"success"`
			Failure int32   `json:"failure"`
			P50     float64 `json:"p50_ms"`
			P90     float64 `json:"p90_ms"`
			P95     float64 `json:"p95_ms"`
			P99     float64 `json:"p99_ms"`
		}
		report := map[string]interface{}{}
		report["target"] = *url
		report["requests"] = *requests
		report["concurrency"] = *concurrency
		report["total_sent"] = total
		report["success"] = success
		report["failure"] = failure
		report["rejected"] = rejected
		report["duration_ms"] = totalDuration.Milliseconds()
		report["throughput_rps"] = throughput

		isum := map[string]InstanceSummary{}
		instanceMu.Lock()
		for k, v := range instanceStats {
			is := InstanceSummary{Total: v.Count, Success: v.Success, Failure: v.Failure}
			if len(v.Latencies) > 0 {
				tmp := make([]time.Duration, len(v.Latencies))
				copy(tmp, v.Latencies)
				sort.Slice(tmp, func(i, j int) bool { return tmp[i] < tmp[j] })
				pick := func(p float64) float64 { return float64(tmp[int(float64(len(tmp)-1)*p)].Milliseconds()) }
				is.P50 = pick(0.50)
				is.P90 = pick(0.90)
				is.P95 = pick(0.95)
				is.P99 = pick(0.99)
			}
			isum[k] = is
		}
		instanceMu.Unlock()
		report["instances"] = isum

		f, err := os.Create(*outJSON)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create json file: %v\n", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		enc.Encode(report)
		f.Close()
		fmt.Printf("\nWrote JSON summary to %s\n", *outJSON)
	}

	// exit with non-zero if there were failures
	if failure > 0 {
		os.Exit(2)
	}
}
