package report

import (
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netsight-labs/probewatch/synthetic"
)

func sampleResults(t *testing.T) (*synthetic.TestResults, []byte) {
	t.Helper()
	raw := []byte(`{"test":{"testId":"6969142","testName":"Cisco.com Test"},"results":[{"agent":{"agentId":"3","agentName":"Singapore","countryId":"SG"},"date":"2025-04-10T15:20:39Z","responseCode":200,"dnsTime":90,"sslTime":8,"connectTime":4,"waitTime":23,"receiveTime":1,"responseTime":125,"serverIp":"23.54.57.29","healthScore":0.99988276}]}`)

	var results synthetic.TestResults
	require.NoError(t, json.Unmarshal(raw, &results))
	return &results, raw
}

func TestWrite_IndentsAndNames(t *testing.T) {
	dir := t.TempDir()
	_, raw := sampleResults(t)

	path, err := Write(dir, "Cisco.com Test", raw)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Cisco.com Test_report.json"), path)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(written), "content must survive re-indentation unchanged")
	assert.Contains(t, string(written), "{\n  \"test\"", "two-space indent expected")
}

func TestWrite_RejectsInvalidJSON(t *testing.T) {
	_, err := Write(t.TempDir(), "broken", []byte(`{"truncated":`))
	assert.Error(t, err)
}

func TestSummary_FormatsFirstResult(t *testing.T) {
	results, _ := sampleResults(t)

	out, err := Summary("Cisco.com Test", "https://cisco.com", results)

	require.NoError(t, err)
	assert.Contains(t, out, "Test Name     : Cisco.com Test")
	assert.Contains(t, out, "Agent         : Singapore (ID: 3)")
	assert.Contains(t, out, "Response Code : 200")
	assert.Contains(t, out, "Health Score  : 0.9999")
	assert.Contains(t, out, "Target URL    : https://cisco.com")
}

func TestSummary_NoResults(t *testing.T) {
	_, err := Summary("empty", "https://example.com", &synthetic.TestResults{})
	assert.ErrorIs(t, err, ErrNoResults)

	_, err = Summary("nil", "https://example.com", nil)
	assert.ErrorIs(t, err, ErrNoResults)
}
