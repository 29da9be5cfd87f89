package synthetic

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/netsight-labs/probewatch/apiclient"
)

const (
	agentsPath          = "/agents"
	httpServerTestsPath = "/tests/http-server"
)

var (
	// ErrNoAgents is returned when the account has no agents to assign.
	ErrNoAgents = errors.New("synthetic: no agents available")

	// ErrTestNotFound is returned when no configured test matches the
	// requested name.
	ErrTestNotFound = errors.New("synthetic: test not found")
)

// Service exposes the synthetic monitoring operations over a resilient
// API client.
type Service struct {
	client *apiclient.Client
	logger zerolog.Logger
}

// NewService wraps client with the monitoring API surface.
func NewService(client *apiclient.Client, logger zerolog.Logger) *Service {
	return &Service{
		client: client,
		logger: logger.With().Str("component", "synthetic").Logger(),
	}
}

// FirstAgent returns the first agent visible to the account. Agent order is
// provider-defined; callers that need a specific vantage point should select
// from a full listing instead.
func (s *Service) FirstAgent(ctx context.Context) (Agent, error) {
	var page agentsPage
	_, err := s.client.Request("ListAgents").
		Decode(&page).
		Get(ctx, agentsPath)
	if err != nil {
		return Agent{}, err
	}

	if len(page.Agents) == 0 {
		s.logger.Warn().Msg("no agents found in account")
		return Agent{}, ErrNoAgents
	}

	agent := page.Agents[0]
	s.logger.Info().
		Str("agent_name", agent.AgentName).
		Int64("agent_id", int64(agent.AgentID)).
		Msg("selected agent")
	return agent, nil
}

// FindTest looks up an HTTP server test by exact name. Returns
// ErrTestNotFound when no test matches.
func (s *Service) FindTest(ctx context.Context, name string) (Test, error) {
	var page testsPage
	_, err := s.client.Request("ListTests").
		Decode(&page).
		Get(ctx, httpServerTestsPath)
	if err != nil {
		return Test{}, err
	}

	for _, t := range page.Tests {
		if t.TestName == name {
			s.logger.Info().
				Int64("test_id", int64(t.TestID)).
				Str("test_name", name).
				Msg("found existing test")
			return t, nil
		}
	}

	s.logger.Info().Str("test_name", name).Msg("no existing test with that name")
	return Test{}, fmt.Errorf("%w: %q", ErrTestNotFound, name)
}

// CreateTest provisions a new HTTP server test from spec. The provider
// answers a successful create with 201.
func (s *Service) CreateTest(ctx context.Context, spec TestSpec) (Test, error) {
	var created Test
	resp, err := s.client.Request("CreateTest").
		Body(spec).
		Decode(&created).
		Post(ctx, httpServerTestsPath)
	if err != nil {
		return Test{}, err
	}

	if resp.StatusCode != http.StatusCreated {
		return Test{}, fmt.Errorf("synthetic: unexpected status %d creating test %q", resp.StatusCode, spec.TestName)
	}

	s.logger.Info().
		Int64("test_id", int64(created.TestID)).
		Str("test_name", spec.TestName).
		Msg("created test")
	return created, nil
}

// EnsureTest finds a test by spec.TestName, creating it when absent. The
// returned flag reports whether a create happened, so callers know the test
// has no results yet.
func (s *Service) EnsureTest(ctx context.Context, spec TestSpec) (Test, bool, error) {
	test, err := s.FindTest(ctx, spec.TestName)
	if err == nil {
		return test, false, nil
	}
	if !errors.Is(err, ErrTestNotFound) {
		return Test{}, false, err
	}

	test, err = s.CreateTest(ctx, spec)
	if err != nil {
		return Test{}, false, err
	}
	return test, true, nil
}

// Results fetches the latest HTTP server measurements for a test. It returns
// both the decoded payload and the raw provider bytes so reports can persist
// the response exactly as received.
func (s *Service) Results(ctx context.Context, testID ID) (*TestResults, []byte, error) {
	resp, err := s.client.Request("GetTestResults").
		Get(ctx, fmt.Sprintf("/test-results/%s/http-server", testID))
	if err != nil {
		return nil, nil, err
	}

	raw, err := resp.Body()
	if err != nil {
		return nil, nil, fmt.Errorf("synthetic: reading results body: %w", err)
	}

	var results TestResults
	if err := resp.DecodeJSON(&results); err != nil {
		return nil, nil, fmt.Errorf("synthetic: decoding results: %w", err)
	}

	s.logger.Info().
		Int64("test_id", int64(testID)).
		Int("result_count", len(results.Results)).
		Msg("fetched test results")
	return &results, raw, nil
}
