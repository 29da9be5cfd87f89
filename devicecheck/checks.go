package devicecheck

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Status is the verdict of one check on one device.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// CheckResult is the outcome of a single named check.
type CheckResult struct {
	Device string
	Check  string
	Status Status
	Detail string
}

// ErrACLNotConfigured indicates the requested ACL is absent on the device.
var ErrACLNotConfigured = errors.New("devicecheck: access list not configured")

// Checker runs the individual validations against one device.
type Checker struct {
	runner CommandRunner
	logger zerolog.Logger
}

// NewChecker wraps runner for the device named name.
func NewChecker(runner CommandRunner, name string, logger zerolog.Logger) *Checker {
	return &Checker{
		runner: runner,
		logger: logger.With().Str("device", name).Logger(),
	}
}

// DeviceInfo fetches the software version and uptime.
func (c *Checker) DeviceInfo(ctx context.Context) (VersionInfo, error) {
	out, err := c.runner.Run(ctx, "show version")
	if err != nil {
		return VersionInfo{}, err
	}
	info, err := ParseVersion(out)
	if err != nil {
		return VersionInfo{}, err
	}
	c.logger.Info().
		Str("os_version", info.Version).
		Str("uptime", info.Uptime).
		Msg("device info")
	return info, nil
}

// OSPFNeighbors validates that at least one OSPF adjacency reached the FULL
// state with a designated or backup designated router.
func (c *Checker) OSPFNeighbors(ctx context.Context) (CheckResult, error) {
	out, err := c.runner.Run(ctx, "show ip ospf neighbor")
	if err != nil {
		return CheckResult{}, err
	}

	neighbors := ParseOSPFNeighbors(out)
	result := CheckResult{Check: "ospf-neighbors", Status: StatusFail}
	if len(neighbors) == 0 {
		result.Detail = "no OSPF neighbors"
		c.logger.Warn().Msg("no OSPF neighbors")
		return result, nil
	}

	for _, n := range neighbors {
		c.logger.Info().
			Str("neighbor", n.Address).
			Str("state", n.State).
			Str("interface", n.Interface).
			Msg("ospf neighbor")
	}
	if HasFullAdjacency(neighbors) {
		result.Status = StatusPass
	}
	result.Detail = fmt.Sprintf("%d neighbors", len(neighbors))
	return result, nil
}

// AccessList validates that the named ACL exists and that its rules have
// seen traffic. An ACL with all-zero hit counters fails: the policy is
// configured but nothing exercises it.
func (c *Checker) AccessList(ctx context.Context, name string) (CheckResult, error) {
	out, err := c.runner.Run(ctx, "show access-lists")
	if err != nil {
		return CheckResult{}, err
	}

	acl, ok := FindAccessList(ParseAccessLists(out), name)
	if !ok {
		return CheckResult{}, fmt.Errorf("%w: %q", ErrACLNotConfigured, name)
	}

	result := CheckResult{Check: "acl-" + name, Status: StatusFail}
	total := 0
	for _, e := range acl.Entries {
		total += e.Matches
	}
	if total > 0 {
		result.Status = StatusPass
	}
	result.Detail = fmt.Sprintf("%d entries, %d total matches", len(acl.Entries), total)
	c.logger.Info().
		Str("acl", name).
		Int("entries", len(acl.Entries)).
		Int("matches", total).
		Msg("access list checked")
	return result, nil
}
