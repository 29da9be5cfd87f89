// Package report persists raw test results to disk and renders a
// human-readable summary of the latest measurement.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/netsight-labs/probewatch/synthetic"
)

// ErrNoResults is returned when a results payload carries no measurements.
var ErrNoResults = errors.New("report: no results to summarize")

// Filename returns the report file name for a test, "{test name}_report.json".
func Filename(testName string) string {
	return testName + "_report.json"
}

// Write stores the raw results payload under dir, re-indented with two
// spaces, and returns the path written. The raw bytes are kept verbatim so
// the file reflects exactly what the provider returned.
func Write(dir, testName string, raw []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", fmt.Errorf("report: indenting results: %w", err)
	}
	buf.WriteByte('\n')

	path := filepath.Join(dir, Filename(testName))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("report: writing %s: %w", path, err)
	}
	return path, nil
}

// Summary formats the first measurement of a results payload as a banner
// block. Timings are reported in milliseconds, the health score to four
// decimal places.
func Summary(testName, target string, results *synthetic.TestResults) (string, error) {
	if results == nil || len(results.Results) == 0 {
		return "", ErrNoResults
	}
	r := results.Results[0]

	var b strings.Builder
	b.WriteString("========== HTTP SERVER TEST RESULTS ==========\n")
	fmt.Fprintf(&b, "Test Name     : %s\n", testName)
	fmt.Fprintf(&b, "Agent         : %s (ID: %s)\n", r.Agent.AgentName, r.Agent.AgentID)
	fmt.Fprintf(&b, "Test Date     : %s\n", r.Date)
	fmt.Fprintf(&b, "Target URL    : %s\n", target)
	b.WriteString("----------------------------------------------\n")
	fmt.Fprintf(&b, "Response Code : %d\n", r.ResponseCode)
	fmt.Fprintf(&b, "Response Time : %g ms\n", r.ResponseTime)
	fmt.Fprintf(&b, "Redirect Time : %g ms\n", r.RedirectTime)
	fmt.Fprintf(&b, "DNS Time      : %g ms\n", r.DNSTime)
	fmt.Fprintf(&b, "SSL Time      : %g ms\n", r.SSLTime)
	fmt.Fprintf(&b, "Connect Time  : %g ms\n", r.ConnectTime)
	fmt.Fprintf(&b, "Wait Time     : %g ms\n", r.WaitTime)
	fmt.Fprintf(&b, "Receive Time  : %g ms\n", r.ReceiveTime)
	fmt.Fprintf(&b, "Total Time    : %g ms\n", r.TotalTime)
	fmt.Fprintf(&b, "Throughput    : %g bytes/sec\n", r.Throughput)
	fmt.Fprintf(&b, "Wire Size     : %d bytes\n", r.WireSize)
	fmt.Fprintf(&b, "Server IP     : %s\n", r.ServerIP)
	fmt.Fprintf(&b, "SSL Cipher    : %s\n", r.SSLCipher)
	fmt.Fprintf(&b, "SSL Version   : %s\n", r.SSLVersion)
	fmt.Fprintf(&b, "Health Score  : %.4f\n", r.HealthScore)
	b.WriteString("==============================================")
	return b.String(), nil
}
