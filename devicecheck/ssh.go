package devicecheck

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
)

// CommandRunner executes a single show command and returns its output.
// Implementations must be safe for sequential reuse; the fleet runner never
// shares one runner across goroutines.
type CommandRunner interface {
	Run(ctx context.Context, command string) (string, error)
}

// Device identifies one SSH endpoint to check.
type Device struct {
	Name     string `koanf:"name"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

func (d Device) address() string {
	port := d.Port
	if port == 0 {
		port = 22
	}
	return net.JoinHostPort(d.Host, strconv.Itoa(port))
}

// SSHRunner runs commands over an SSH connection, one session per command,
// which matches how network operating systems expect exec requests.
type SSHRunner struct {
	client *ssh.Client
}

// DialOption adjusts the SSH client configuration before dialing.
type DialOption func(*ssh.ClientConfig)

// WithHostKeyCallback sets host key verification. The default accepts any
// host key, which is only acceptable on isolated lab networks; production
// callers should pass knownhosts-backed verification.
func WithHostKeyCallback(cb ssh.HostKeyCallback) DialOption {
	return func(cfg *ssh.ClientConfig) {
		cfg.HostKeyCallback = cb
	}
}

// WithDialTimeout bounds connection establishment.
func WithDialTimeout(d time.Duration) DialOption {
	return func(cfg *ssh.ClientConfig) {
		cfg.Timeout = d
	}
}

// Dial connects to the device with password authentication.
func Dial(device Device, opts ...DialOption) (*SSHRunner, error) {
	cfg := &ssh.ClientConfig{
		User: device.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(device.Password),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := ssh.Dial("tcp", device.address(), cfg)
	if err != nil {
		return nil, fmt.Errorf("devicecheck: dialing %s: %w", device.address(), err)
	}
	return &SSHRunner{client: client}, nil
}

// Run executes one command in a fresh session and returns combined output.
func (r *SSHRunner) Run(ctx context.Context, command string) (string, error) {
	session, err := r.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("devicecheck: opening session: %w", err)
	}
	defer session.Close()

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := session.CombinedOutput(command)
		done <- result{out, err}
	}()

	select {
	case <-ctx.Done():
		// Close tears down the session, which unblocks CombinedOutput.
		session.Close()
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("devicecheck: running %q: %w", command, res.err)
		}
		return string(res.out), nil
	}
}

// Close shuts the underlying SSH connection.
func (r *SSHRunner) Close() error {
	return r.client.Close()
}
