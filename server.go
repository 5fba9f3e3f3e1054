package resume2pdf

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/alnah/go-resume2pdf/internal/process"
)

// ReadinessMode selects how the launcher decides the rendering server is ready.
type ReadinessMode string

// Readiness modes.
const (
	// ReadinessAuto uses ReadinessAddress when the command contains
	// PortPlaceholder and ReadinessOutput otherwise.
	ReadinessAuto ReadinessMode = "auto"
	// ReadinessAddress negotiates the port up front and polls it.
	ReadinessAddress ReadinessMode = "address"
	// ReadinessOutput scans the server output for the first URL it prints.
	ReadinessOutput ReadinessMode = "output"
)

// PortPlaceholder in a server command is replaced by the negotiated port.
const PortPlaceholder = "{port}"

// Server lifecycle defaults.
const (
	DefaultServerStartTimeout = 60 * time.Second
	DefaultReachableTimeout   = 30 * time.Second
	defaultStopGrace          = 5 * time.Second
	probeAttemptTimeout       = 2 * time.Second
	probeInterval             = 300 * time.Millisecond
	maxOutputLine             = 1024 * 1024
)

// errServerExited is returned by the reachability poll when the watched
// process exits while polling.
var errServerExited = errors.New("server process exited")

var (
	ansiEscape = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)
	serverURL  = regexp.MustCompile(`[A-Za-z][A-Za-z0-9+.-]*://[^\s/:]+:\d+\S*`)
)

// ServerOptions configure the ephemeral rendering server.
type ServerOptions struct {
	Command      []string      // argv; PortPlaceholder expands to the port
	Dir          string        // working directory, empty for the current one
	Env          []string      // extra KEY=VALUE pairs appended to the environment
	Port         int           // fixed port, 0 to pick a free one
	Readiness    ReadinessMode // empty means ReadinessAuto
	StartTimeout time.Duration // 0 means DefaultServerStartTimeout
	StopGrace    time.Duration // 0 means five seconds
}

// ServerLauncher spawns the rendering server and waits for it to serve.
type ServerLauncher struct {
	opts   ServerOptions
	logger *log.Logger
	client *http.Client
}

// NewServerLauncher creates a launcher. A nil logger discards output.
func NewServerLauncher(opts ServerOptions, logger *log.Logger) *ServerLauncher {
	if opts.Readiness == "" {
		opts.Readiness = ReadinessAuto
	}
	if opts.StartTimeout <= 0 {
		opts.StartTimeout = DefaultServerStartTimeout
	}
	if opts.StopGrace <= 0 {
		opts.StopGrace = defaultStopGrace
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ServerLauncher{
		opts:   opts,
		logger: logger,
		client: &http.Client{
			// Redirects are a sign of life; do not follow them.
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
	}
}

// readySignal decides when a spawned server is ready to serve.
type readySignal interface {
	// address returns the ready URL when it is known before the process starts.
	address() (string, bool)
	// observe inspects one line of server output and returns a URL once the
	// line announces one.
	observe(line string) (string, bool)
}

// knownAddress is the signal for servers told which port to use.
// Reachability polling alone decides readiness.
type knownAddress struct {
	url string
}

func (k knownAddress) address() (string, bool) { return k.url, true }
func (k knownAddress) observe(string) (string, bool) { return "", false }

// outputURL is the fallback signal: the first URL printed by the server.
type outputURL struct{}

func (outputURL) address() (string, bool) { return "", false }

func (outputURL) observe(line string) (string, bool) {
	return extractURL(line)
}

// extractURL returns the first scheme://host:port URL in a line of output,
// ignoring ANSI escape sequences and trailing quote characters.
func extractURL(line string) (string, bool) {
	m := serverURL.FindString(stripANSI(line))
	if m == "" {
		return "", false
	}
	m = strings.TrimRight(m, "\"'`")
	return m, m != ""
}

func stripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

// plan expands the command and picks the readiness signal.
func (l *ServerLauncher) plan() ([]string, []string, readySignal, error) {
	argv := l.opts.Command
	hasPlaceholder := false
	for _, a := range argv {
		if strings.Contains(a, PortPlaceholder) {
			hasPlaceholder = true
			break
		}
	}

	mode := l.opts.Readiness
	if mode == ReadinessAuto {
		mode = ReadinessOutput
		if hasPlaceholder {
			mode = ReadinessAddress
		}
	}

	port := l.opts.Port
	if port == 0 && (hasPlaceholder || mode == ReadinessAddress) {
		p, err := freePort()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%w: negotiating port: %v", ErrServerSpawn, err)
		}
		port = p
	}

	env := l.opts.Env
	if port != 0 {
		argv = expandPort(argv, port)
		env = append(append([]string(nil), env...), "PORT="+strconv.Itoa(port))
	}

	if mode == ReadinessAddress {
		return argv, env, knownAddress{url: fmt.Sprintf("http://127.0.0.1:%d/", port)}, nil
	}
	return argv, env, outputURL{}, nil
}

// Start spawns the server and blocks until it is ready, it exits, or the
// start timeout elapses. On failure the process is already stopped.
func (l *ServerLauncher) Start(ctx context.Context) (*ServerProcess, error) {
	if len(l.opts.Command) == 0 || l.opts.Command[0] == "" {
		return nil, ErrServerCommand
	}

	argv, env, signal, err := l.plan()
	if err != nil {
		return nil, err
	}

	// #nosec G204 -- the server command is operator configuration
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = l.opts.Dir
	cmd.Env = append(os.Environ(), env...)
	cmd.WaitDelay = l.opts.StopGrace
	process.SetProcessGroup(cmd)

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrServerSpawn, argv[0], err)
	}

	p := &ServerProcess{
		cmd:    cmd,
		done:   make(chan struct{}),
		grace:  l.opts.StopGrace,
		logger: l.logger,
	}
	go func() {
		p.waitErr = cmd.Wait()
		_ = pw.Close()
		close(p.done)
	}()

	announced := make(chan string, 1)
	go l.drain(pr, signal, announced)

	l.logger.Debug("server spawned", "pid", cmd.Process.Pid, "command", strings.Join(argv, " "))

	if u, ok := signal.address(); ok {
		err = waitReachable(ctx, l.client, u, l.opts.StartTimeout, p.done)
		switch {
		case err == nil:
			p.url = u
			return p, nil
		case errors.Is(err, errServerExited):
			l.stopQuietly(p)
			return nil, fmt.Errorf("%w: %s", ErrServerExitedEarly, p.exitStatus())
		case errors.Is(err, ErrServerUnreachable):
			l.stopQuietly(p)
			return nil, fmt.Errorf("%w: no response from %s within %s", ErrServerStartTimeout, u, l.opts.StartTimeout)
		default:
			l.stopQuietly(p)
			return nil, err
		}
	}

	timer := time.NewTimer(l.opts.StartTimeout)
	defer timer.Stop()

	select {
	case u := <-announced:
		p.url = u
		return p, nil
	case <-p.done:
		l.stopQuietly(p)
		return nil, fmt.Errorf("%w: %s", ErrServerExitedEarly, p.exitStatus())
	case <-timer.C:
		l.stopQuietly(p)
		return nil, fmt.Errorf("%w: no URL printed within %s", ErrServerStartTimeout, l.opts.StartTimeout)
	case <-ctx.Done():
		l.stopQuietly(p)
		return nil, ctx.Err()
	}
}

// drain reads combined server output until the process closes it, logging
// each line and reporting the first URL the signal recognizes.
func (l *ServerLauncher) drain(r io.Reader, signal readySignal, announced chan<- string) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxOutputLine)
	reported := false
	for sc.Scan() {
		line := stripANSI(sc.Text())
		l.logger.Debug("server", "out", line)
		if reported {
			continue
		}
		if u, ok := signal.observe(line); ok {
			announced <- u
			reported = true
		}
	}
	// Keep the pipe flowing so the server never blocks on a full buffer.
	_, _ = io.Copy(io.Discard, r)
}

func (l *ServerLauncher) stopQuietly(p *ServerProcess) {
	if err := p.Stop(); err != nil {
		l.logger.Warn("stopping rendering server", "err", err)
	}
}

// WaitReachable polls url until it answers with a status below 500.
// ErrServerUnreachable is returned once timeout has elapsed, never earlier.
func (l *ServerLauncher) WaitReachable(ctx context.Context, url string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultReachableTimeout
	}
	return waitReachable(ctx, l.client, url, timeout, nil)
}

// waitReachable polls url every probeInterval. Each attempt is bounded by
// probeAttemptTimeout and by the time left. A nil exited channel disables
// exit detection.
func waitReachable(ctx context.Context, client *http.Client, url string, timeout time.Duration, exited <-chan struct{}) error {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("%w: %s after %s", ErrServerUnreachable, url, timeout)
		}
		if probe(ctx, client, url, min(probeAttemptTimeout, remaining)) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		wait := min(probeInterval, time.Until(deadline))
		if wait <= 0 {
			continue
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-exited:
			t.Stop()
			return errServerExited
		case <-t.C:
		}
	}
}

// probe reports whether one GET of url got a response below 500.
func probe(ctx context.Context, client *http.Client, url string, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	_ = resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

// freePort asks the kernel for an unused loopback port.
func freePort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port, nil
}

func expandPort(argv []string, port int) []string {
	out := make([]string, len(argv))
	for i, a := range argv {
		out[i] = strings.ReplaceAll(a, PortPlaceholder, strconv.Itoa(port))
	}
	return out
}

// ServerProcess is a running rendering server.
type ServerProcess struct {
	cmd     *exec.Cmd
	url     string
	done    chan struct{}
	waitErr error
	grace   time.Duration
	logger  *log.Logger

	stopOnce sync.Once
	stopErr  error
}

// URL returns the address the server is ready on.
func (p *ServerProcess) URL() string { return p.url }

// PID returns the server's process ID.
func (p *ServerProcess) PID() int { return p.cmd.Process.Pid }

// Done is closed once the process has exited.
func (p *ServerProcess) Done() <-chan struct{} { return p.done }

// Stop terminates the server's process group, escalating to SIGKILL after
// the grace period. It is idempotent and safe on an exited process.
func (p *ServerProcess) Stop() error {
	p.stopOnce.Do(func() { p.stopErr = p.stop() })
	return p.stopErr
}

func (p *ServerProcess) stop() error {
	pid := p.cmd.Process.Pid

	// Children in the group may outlive the leader; the final group kill
	// reaps them on every path.
	defer process.KillProcessGroup(pid)

	select {
	case <-p.done:
		return nil
	default:
	}

	if err := process.TerminateProcessGroup(pid); err == nil {
		t := time.NewTimer(p.grace)
		select {
		case <-p.done:
			t.Stop()
			return nil
		case <-t.C:
			p.logger.Debug("server ignored SIGTERM, killing", "pid", pid)
		}
	}

	process.KillProcessGroup(pid)
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("killing rendering server %d: %w", pid, err)
	}
	<-p.done
	return nil
}

// exitStatus describes how the process ended. Only valid after done is closed.
func (p *ServerProcess) exitStatus() string {
	if p.waitErr != nil {
		return p.waitErr.Error()
	}
	return "exit status 0"
}
