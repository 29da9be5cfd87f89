package synthetic

import (
	"bytes"
	"fmt"
	"strconv"
)

// ID is a provider object identifier. The v7 API serializes identifiers as
// JSON strings ("3", "6969142") but accepts numbers on write, so ID decodes
// either form and encodes as a number.
type ID int64

// UnmarshalJSON accepts both string-quoted and bare numeric identifiers.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("synthetic: invalid identifier %q: %w", data, err)
	}
	*id = ID(n)
	return nil
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Agent is a vantage point that executes tests.
type Agent struct {
	AgentID   ID     `json:"agentId"`
	AgentName string `json:"agentName"`
	CountryID string `json:"countryId,omitempty"`
}

// Test is a configured test as returned by the tests endpoints.
type Test struct {
	TestID      ID     `json:"testId"`
	TestName    string `json:"testName"`
	Type        string `json:"type,omitempty"`
	URL         string `json:"url,omitempty"`
	Interval    int    `json:"interval,omitempty"`
	Enabled     bool   `json:"enabled,omitempty"`
	CreatedBy   string `json:"createdBy,omitempty"`
	CreatedDate string `json:"createdDate,omitempty"`
}

// AgentRef assigns an agent to a test by identifier.
type AgentRef struct {
	AgentID ID `json:"agentId"`
}

// TestSpec is the creation payload for an HTTP server test.
type TestSpec struct {
	TestName string     `json:"testName"`
	Type     string     `json:"type"`
	URL      string     `json:"url"`
	Interval int        `json:"interval"`
	Protocol string     `json:"protocol,omitempty"`
	Enabled  bool       `json:"enabled"`
	Agents   []AgentRef `json:"agents"`
}

// DefaultInterval is the test cadence used when a spec does not set one.
const DefaultInterval = 3600

// NewHTTPServerSpec builds a spec for an HTTP server test against target,
// assigned to a single agent and enabled at the default interval.
func NewHTTPServerSpec(name, target string, agentID ID) TestSpec {
	return TestSpec{
		TestName: name,
		Type:     "http-server",
		URL:      target,
		Interval: DefaultInterval,
		Enabled:  true,
		Agents:   []AgentRef{{AgentID: agentID}},
	}
}

// NewAgentToServerSpec builds a spec for an agent-to-server reachability test
// using ICMP probes.
func NewAgentToServerSpec(name, target string, agentID ID) TestSpec {
	return TestSpec{
		TestName: name,
		Type:     "agent-to-server",
		URL:      target,
		Interval: DefaultInterval,
		Protocol: "ICMP",
		Enabled:  true,
		Agents:   []AgentRef{{AgentID: agentID}},
	}
}

// Result is a single measurement from one agent. Timings are milliseconds.
type Result struct {
	Agent        Agent   `json:"agent"`
	Date         string  `json:"date"`
	ResponseCode int     `json:"responseCode"`
	DNSTime      float64 `json:"dnsTime"`
	SSLTime      float64 `json:"sslTime"`
	ConnectTime  float64 `json:"connectTime"`
	WaitTime     float64 `json:"waitTime"`
	ReceiveTime  float64 `json:"receiveTime"`
	RedirectTime float64 `json:"redirectTime"`
	ResponseTime float64 `json:"responseTime"`
	TotalTime    float64 `json:"totalTime"`
	Throughput   float64 `json:"throughput"`
	WireSize     int64   `json:"wireSize"`
	ServerIP     string  `json:"serverIp"`
	SSLCipher    string  `json:"sslCipher"`
	SSLVersion   string  `json:"sslVersion"`
	HealthScore  float64 `json:"healthScore"`
}

// TestResults is the payload of the test-results endpoint.
type TestResults struct {
	Test    Test     `json:"test"`
	Results []Result `json:"results"`
}

// response envelopes
type agentsPage struct {
	Agents []Agent `json:"agents"`
}

type testsPage struct {
	Tests []Test `json:"tests"`
}
