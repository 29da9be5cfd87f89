package devicecheck

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DialFunc connects to one device. Injected so fleet tests run without SSH.
type DialFunc func(Device) (CommandRunner, error)

// DeviceReport collects all check results for one device.
type DeviceReport struct {
	Device  string
	Info    VersionInfo
	Results []CheckResult
	Err     error
}

// Fleet runs the full check suite against many devices concurrently.
type Fleet struct {
	dial        DialFunc
	concurrency int
	aclName     string
	logger      zerolog.Logger
}

// FleetOption configures a Fleet.
type FleetOption func(*Fleet)

// WithConcurrency bounds how many devices are checked at once.
func WithConcurrency(n int) FleetOption {
	return func(f *Fleet) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithACLName sets the access list validated on every device. Empty skips
// the ACL check.
func WithACLName(name string) FleetOption {
	return func(f *Fleet) {
		f.aclName = name
	}
}

// WithFleetLogger sets the logger used for per-device progress.
func WithFleetLogger(logger zerolog.Logger) FleetOption {
	return func(f *Fleet) {
		f.logger = logger
	}
}

// NewFleet builds a fleet runner around dial.
func NewFleet(dial DialFunc, opts ...FleetOption) *Fleet {
	f := &Fleet{
		dial:        dial,
		concurrency: 4,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run checks every device and returns one report per device, in input order.
// A device that fails to connect or check reports its error; other devices
// keep running.
func (f *Fleet) Run(ctx context.Context, devices []Device) []DeviceReport {
	reports := make([]DeviceReport, len(devices))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	var mu sync.Mutex
	for i, device := range devices {
		g.Go(func() error {
			report := f.checkDevice(ctx, device)
			mu.Lock()
			reports[i] = report
			mu.Unlock()
			return nil
		})
	}
	// Errors never propagate through the group; each report carries its own.
	_ = g.Wait()
	return reports
}

func (f *Fleet) checkDevice(ctx context.Context, device Device) DeviceReport {
	report := DeviceReport{Device: device.Name}

	runner, err := f.dial(device)
	if err != nil {
		f.logger.Error().Err(err).Str("device", device.Name).Msg("connect failed")
		report.Err = err
		return report
	}
	if closer, ok := runner.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	checker := NewChecker(runner, device.Name, f.logger)

	info, err := checker.DeviceInfo(ctx)
	if err != nil {
		report.Err = err
		return report
	}
	report.Info = info

	ospf, err := checker.OSPFNeighbors(ctx)
	if err != nil {
		report.Err = err
		return report
	}
	ospf.Device = device.Name
	report.Results = append(report.Results, ospf)

	if f.aclName != "" {
		acl, err := checker.AccessList(ctx, f.aclName)
		if err != nil {
			report.Err = err
			return report
		}
		acl.Device = device.Name
		report.Results = append(report.Results, acl)
	}
	return report
}
