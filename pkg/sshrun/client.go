// Package sshrun is the mesh's remote transport: idempotent command
// execution over SSH, root escalation, an async join-handle for commands
// that must overlap (the UDP reachability probe), and nothing else. It
// knows nothing about WireGuard or mesh semantics.
package sshrun

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// Client is a connected SSH session factory for one remote host.
type Client struct {
	conn   *ssh.Client
	host   string
	isRoot bool
}

// Runner is the command-execution surface wgremote and node depend on.
// *Client is the only production implementation; tests substitute a fake to
// exercise convergence logic without a real SSH connection.
type Runner interface {
	Host() string
	IsRoot() bool
	Run(cmd string, opts ...Option) Result
	RunAsync(cmd string, opts ...Option) *Handle
}

// NewClient dials spec's host, authenticating via the running SSH agent and
// the user's default key files, in that order.
func NewClient(spec Spec) (*Client, error) {
	user, addr := spec.resolved()

	config := &ssh.ClientConfig{
		User:            user,
		Auth:            authMethods(),
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	}

	conn, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", addr, err)
	}

	return &Client{conn: conn, host: spec.Host, isRoot: user == "root"}, nil
}

func authMethods() []ssh.AuthMethod {
	var methods []ssh.AuthMethod

	if sock, err := net.Dial("unix", os.Getenv("SSH_AUTH_SOCK")); err == nil {
		methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(sock).Signers))
	}

	if home, err := os.UserHomeDir(); err == nil {
		for _, name := range []string{"id_rsa", "id_ed25519", "id_ecdsa"} {
			key, err := os.ReadFile(filepath.Join(home, ".ssh", name))
			if err != nil {
				continue
			}
			if signer, err := ssh.ParsePrivateKey(key); err == nil {
				methods = append(methods, ssh.PublicKeys(signer))
			}
		}
	}

	return methods
}

// Host returns the hostname or address this client was dialed against.
func (c *Client) Host() string { return c.host }

// IsRoot reports whether the connection authenticated directly as root.
func (c *Client) IsRoot() bool { return c.isRoot }

// Close releases the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

// Result is the outcome of a remote command: never an error in the
// transport sense, since a nonzero exit is an expected, inspectable result
// rather than a fault. Session-setup failures (dial drop, no session slots)
// are folded into Result with OK false and the error text in Stderr so
// callers keep a single branch point.
type Result struct {
	OK     bool
	Stdout string
	Stderr string
}

type runOpts struct {
	root bool
}

// Option configures a single Run/RunAsync call.
type Option func(*runOpts)

// WithRoot overrides the default root escalation (on by default: commands
// run as root directly, or via sudo when the connection isn't already
// authenticated as root).
func WithRoot(root bool) Option {
	return func(o *runOpts) { o.root = root }
}

func resolveOpts(opts []Option) runOpts {
	o := runOpts{root: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Run executes cmd synchronously and returns its outcome.
func (c *Client) Run(cmd string, opts ...Option) Result {
	o := resolveOpts(opts)
	return c.run(cmd, o.root)
}

// Handle is a join-handle for a command started with RunAsync.
type Handle struct {
	done chan Result
}

// Join blocks until the command completes and returns its result.
func (h *Handle) Join() Result { return <-h.done }

// NewHandle wraps an already-resolved result as a join-handle. For fake
// Runner implementations in tests, which have no real async command to run.
func NewHandle(res Result) *Handle {
	h := &Handle{done: make(chan Result, 1)}
	h.done <- res
	return h
}

// RunAsync starts cmd without waiting for it, returning a handle the caller
// joins later. Used for the UDP reachability probe, where the listener on
// one host must be running before the peer sends.
func (c *Client) RunAsync(cmd string, opts ...Option) *Handle {
	o := resolveOpts(opts)
	h := &Handle{done: make(chan Result, 1)}
	go func() {
		h.done <- c.run(cmd, o.root)
	}()
	return h
}

func (c *Client) run(cmd string, root bool) Result {
	if root && !c.isRoot {
		cmd = "sudo " + cmd
	}

	session, err := c.conn.NewSession()
	if err != nil {
		return Result{OK: false, Stderr: err.Error()}
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	err = session.Run(cmd)
	return Result{OK: err == nil, Stdout: stdout.String(), Stderr: stderr.String()}
}
