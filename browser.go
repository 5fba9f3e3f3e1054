package resume2pdf

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"

	"github.com/alnah/go-resume2pdf/internal/fileutil"
	"github.com/alnah/go-resume2pdf/internal/hints"
)

// launchArgs are passed to every browser, local or remote.
var launchArgs = []string{
	"--disable-dev-shm-usage",
	"--disable-features=IsolateOrigins,site-per-process,LocalNetworkAccessChecks",
}

const devToolsResolveTimeout = 10 * time.Second

// BrowserOptions select the browser-automation target.
type BrowserOptions struct {
	Bin       string // explicit local browser binary, checked first
	Endpoint  string // remote endpoint (ws, wss, http, https); enables remote mode
	NoSandbox bool   // required when running as root or in most containers
}

// Target is a resolved browser-automation target.
type Target struct {
	Remote   bool
	Bin      string // local binary, empty in remote mode
	Endpoint string // remote endpoint as configured, empty in local mode
}

// String describes the target for logs and diagnostics.
func (t Target) String() string {
	if t.Remote {
		return "remote " + t.Endpoint
	}
	return "local " + t.Bin
}

// CandidatePaths returns the well-known browser install locations for an
// operating system, most preferred first.
func CandidatePaths(goos string) []string {
	switch goos {
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
			"/Applications/Brave Browser.app/Contents/MacOS/Brave Browser",
		}
	case "windows":
		return []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files\Microsoft\Edge\Application\msedge.exe`,
			`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`,
		}
	default:
		return []string{
			"/usr/bin/google-chrome-stable",
			"/usr/bin/google-chrome",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/usr/bin/microsoft-edge",
			"/snap/bin/chromium",
		}
	}
}

// ResolveTarget picks the browser target. A configured endpoint selects
// remote mode. Otherwise the explicit binary wins, then the platform
// candidates, then lookPath.
func ResolveTarget(opts BrowserOptions, goos string, exists func(string) bool, lookPath func() (string, bool)) (Target, error) {
	if opts.Endpoint != "" {
		if err := validateEndpoint(opts.Endpoint); err != nil {
			return Target{}, err
		}
		return Target{Remote: true, Endpoint: opts.Endpoint}, nil
	}

	if opts.Bin != "" {
		if !exists(opts.Bin) {
			return Target{}, fmt.Errorf("%w: %s does not exist%s", ErrBrowserNotFound, opts.Bin, hints.ForBrowserNotFound())
		}
		return Target{Bin: opts.Bin}, nil
	}

	for _, p := range CandidatePaths(goos) {
		if exists(p) {
			return Target{Bin: p}, nil
		}
	}

	if lookPath != nil {
		if p, ok := lookPath(); ok {
			return Target{Bin: p}, nil
		}
	}

	return Target{}, fmt.Errorf("%w%s", ErrBrowserNotFound, hints.ForBrowserNotFound())
}

func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserEndpoint, err)
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return fmt.Errorf("%w: %q (scheme must be ws, wss, http or https)", ErrBrowserEndpoint, endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %q has no host", ErrBrowserEndpoint, endpoint)
	}
	return nil
}

// TargetResolver resolves and acquires the browser for a render.
type TargetResolver struct {
	opts     BrowserOptions
	logger   *log.Logger
	goos     string
	exists   func(string) bool
	lookPath func() (string, bool)
}

// NewTargetResolver creates a resolver for the running platform.
// A nil logger discards output.
func NewTargetResolver(opts BrowserOptions, logger *log.Logger) *TargetResolver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &TargetResolver{
		opts:     opts,
		logger:   logger,
		goos:     runtime.GOOS,
		exists:   fileutil.FileExists,
		lookPath: launcher.LookPath,
	}
}

// Resolve picks the target without launching or connecting to anything.
func (r *TargetResolver) Resolve() (Target, error) {
	return ResolveTarget(r.opts, r.goos, r.exists, r.lookPath)
}

// Acquire launches a local browser or connects to a remote one.
func (r *TargetResolver) Acquire(ctx context.Context) (*Browser, error) {
	target, err := r.Resolve()
	if err != nil {
		return nil, err
	}
	r.logger.Debug("browser target", "target", target.String())

	if target.Remote {
		return r.connectRemote(ctx, target)
	}
	return r.launchLocal(ctx, target)
}

func (r *TargetResolver) launchLocal(ctx context.Context, target Target) (*Browser, error) {
	l := launcher.New().
		Context(ctx).
		Bin(target.Bin).
		Headless(true).
		NoSandbox(r.opts.NoSandbox)
	for _, arg := range launchArgs {
		name, value, _ := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if value == "" {
			l = l.Set(flags.Flag(name))
		} else {
			l = l.Set(flags.Flag(name), value)
		}
	}

	u, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: %v%s", ErrBrowserLaunch, err, hints.ForBrowserLaunch())
	}

	b, err := connect(ctx, u)
	if err != nil {
		l.Kill()
		l.Cleanup()
		return nil, err
	}
	r.logger.Debug("browser launched", "pid", l.PID())
	return &Browser{rod: b, launcher: l, target: target}, nil
}

func (r *TargetResolver) connectRemote(ctx context.Context, target Target) (*Browser, error) {
	controlURL, err := resolveControlURL(ctx, target.Endpoint)
	if err != nil {
		return nil, err
	}
	controlURL, err = withLaunchArgs(controlURL)
	if err != nil {
		return nil, err
	}

	b, err := connect(ctx, controlURL)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("browser connected", "endpoint", target.Endpoint)
	return &Browser{rod: b, target: target}, nil
}

// connect attaches rod to a DevTools control URL. Certificate errors are
// ignored for this browser only, on the control socket and on the pages it
// loads, so self-signed remote browsers and rendering servers work.
func connect(ctx context.Context, controlURL string) (*rod.Browser, error) {
	ws, err := dialControl(ctx, controlURL)
	if err != nil {
		return nil, err
	}
	b := rod.New().Client(cdp.New().Start(ws)).Context(ctx)
	if err := b.Connect(); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}
	if err := b.IgnoreCertErrors(true); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("%w: ignoring certificate errors: %v", ErrBrowserLaunch, err)
	}
	return b, nil
}

// dialControl opens the DevTools websocket. wss endpoints are dialed
// without certificate verification.
func dialControl(ctx context.Context, controlURL string) (*cdp.WebSocket, error) {
	u, err := url.Parse(controlURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserEndpoint, err)
	}

	ws := &cdp.WebSocket{Dialer: &net.Dialer{}}
	if u.Scheme == "wss" {
		if u.Port() == "" {
			u.Host += ":443"
		}
		ws.Dialer = &tls.Dialer{
			// #nosec G402 -- remote browsers commonly sit behind self-signed certificates
			Config: &tls.Config{InsecureSkipVerify: true},
		}
	}
	if err := ws.Connect(ctx, u.String(), nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}
	return ws, nil
}

// resolveControlURL returns a websocket control URL for a remote endpoint.
// HTTP endpoints are resolved through /json/version; the TLS-lenient client
// used for that lookup lives only for this call.
func resolveControlURL(ctx context.Context, endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBrowserEndpoint, err)
	}
	if u.Scheme == "ws" || u.Scheme == "wss" {
		return endpoint, nil
	}

	client := &http.Client{
		Timeout: devToolsResolveTimeout,
		Transport: &http.Transport{
			// #nosec G402 -- remote browsers commonly sit behind self-signed certificates
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	defer client.CloseIdleConnections()

	versionURL := *u
	versionURL.Path = strings.TrimRight(u.Path, "/") + "/json/version"
	versionURL.RawQuery = ""

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, versionURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBrowserEndpoint, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s returned %s", ErrBrowserLaunch, versionURL.String(), resp.Status)
	}

	var version struct {
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&version); err != nil {
		return "", fmt.Errorf("%w: decoding %s: %v", ErrBrowserLaunch, versionURL.String(), err)
	}
	if version.WebSocketDebuggerURL == "" {
		return "", fmt.Errorf("%w: %s has no webSocketDebuggerUrl", ErrBrowserLaunch, versionURL.String())
	}

	ws, err := url.Parse(version.WebSocketDebuggerURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}
	// Browsers report their own listen address; reach them the way we did.
	ws.Host = u.Host
	ws.Scheme = "ws"
	if u.Scheme == "https" {
		ws.Scheme = "wss"
	}
	if rest := u.Query(); len(rest) > 0 {
		q := ws.Query()
		for k, vs := range rest {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		ws.RawQuery = q.Encode()
	}
	return ws.String(), nil
}

// withLaunchArgs appends the launch arguments as the JSON "launch" query
// parameter understood by hosted browser services.
func withLaunchArgs(controlURL string) (string, error) {
	u, err := url.Parse(controlURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBrowserEndpoint, err)
	}
	launch, err := json.Marshal(struct {
		Args []string `json:"args"`
	}{Args: launchArgs})
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("launch", string(launch))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Browser is an acquired browser. Close releases it; for local browsers
// that also kills the process and removes its profile directory.
type Browser struct {
	rod      *rod.Browser
	launcher *launcher.Launcher
	target   Target
}

// Target returns what the browser was acquired from.
func (b *Browser) Target() Target { return b.target }

// Close disconnects from the browser and stops a locally launched one.
func (b *Browser) Close() error {
	err := b.rod.Close()
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
	if err != nil {
		return fmt.Errorf("closing browser: %w", err)
	}
	return nil
}
