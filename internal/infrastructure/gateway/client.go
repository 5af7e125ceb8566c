// Package gateway implements the single HTTP chokepoint every page uses to
// talk to the backend REST API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"

	"github.com/distribuidoracarol/panel/internal/core/domain"
	"github.com/distribuidoracarol/panel/internal/core/ports"
	"github.com/distribuidoracarol/panel/internal/metrics"
)

const (
	defaultTimeout = 15 * time.Second
	defaultPrefix  = "/api"
	maxBodyBytes   = 8 << 20
	maxErrorText   = 512

	loginSuffix = "/auth/login"
)

const (
	msgConnection   = "Error de conexión"
	msgUnauthorized = "No autorizado"
	msgBadResponse  = "Respuesta inválida del servidor"
	msgTooLarge     = "Respuesta demasiado grande"
)

// Config captures the settings of a gateway Client.
type Config struct {
	// Origin is the one origin every path is resolved against,
	// e.g. "https://panel.example.com".
	Origin string
	// APIPrefix is prepended to paths that do not already start with it.
	// Empty selects "/api"; "/" disables prefixing.
	APIPrefix string
	Timeout   time.Duration
	// HTTPClient overrides the default client. Its Timeout is left untouched.
	HTTPClient *http.Client
}

// Client implements ports.Gateway with bearer-token authentication.
type Client struct {
	origin   *url.URL
	prefix   string
	http     *http.Client
	sessions ports.SessionStore
	nav      ports.Navigator
	log      zerolog.Logger

	// signOutMu serializes 401 handling so concurrent rejections of the
	// same credential sign out once.
	signOutMu sync.Mutex
}

func New(cfg Config, sessions ports.SessionStore, nav ports.Navigator, log zerolog.Logger) (*Client, error) {
	origin, err := url.Parse(strings.TrimRight(cfg.Origin, "/"))
	if err != nil {
		return nil, fmt.Errorf("gateway: parse origin: %w", err)
	}
	if origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("gateway: origin %q must be absolute", cfg.Origin)
	}

	prefix := cfg.APIPrefix
	switch prefix {
	case "":
		prefix = defaultPrefix
	case "/":
		prefix = ""
	default:
		prefix = "/" + strings.Trim(prefix, "/")
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		origin:   origin,
		prefix:   prefix,
		http:     hc,
		sessions: sessions,
		nav:      nav,
		log:      log,
	}, nil
}

// Request issues exactly one HTTP request and always settles into a Response.
func (c *Client) Request(ctx context.Context, path string, opts ports.RequestOptions) domain.Response {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	start := time.Now()

	var body io.Reader
	if opts.Body != nil {
		raw, err := json.Marshal(opts.Body)
		if err != nil {
			c.log.Error().Err(err).Str("path", path).Msg("encode request body")
			return c.settle(method, start, domain.Response{Status: 0, Body: domain.ErrorBody("Solicitud inválida")})
		}
		body = bytes.NewReader(raw)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	for k, vs := range opts.Headers {
		headers.Del(k)
		for _, v := range vs {
			headers.Add(k, v)
		}
	}

	resp, target, failed := c.send(ctx, method, path, body, headers)
	if failed != nil {
		return c.settle(method, start, *failed)
	}
	defer resp.Body.Close()

	if out, handled := c.checkAuth(ctx, resp, target); handled {
		return c.settle(method, start, out)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		c.log.Warn().Err(err).Str("path", target.Path).Int("status", resp.StatusCode).Msg("read response body")
		return c.settle(method, start, domain.Response{Status: resp.StatusCode, Body: domain.ErrorBody(msgConnection)})
	}
	if len(raw) > maxBodyBytes {
		c.log.Warn().Str("path", target.Path).Int("status", resp.StatusCode).Int("limit", maxBodyBytes).Msg("response body over limit")
		return c.settle(method, start, domain.Response{Status: resp.StatusCode, Body: domain.ErrorBody(msgTooLarge)})
	}

	return c.settle(method, start, domain.Response{
		Success: isSuccess(resp.StatusCode),
		Status:  resp.StatusCode,
		Body:    normalizeBody(raw, resp.StatusCode),
	})
}

// Download performs an authenticated GET and streams a successful body into
// w. Failures are normalized exactly as in Request. Nothing is written unless
// the server answered 2xx; a stream cut mid-copy leaves a partial body in w.
func (c *Client) Download(ctx context.Context, path string, w io.Writer) domain.Response {
	start := time.Now()
	resp, target, failed := c.send(ctx, http.MethodGet, path, nil, http.Header{"Accept": {"application/pdf, */*"}})
	if failed != nil {
		return c.settle(http.MethodGet, start, *failed)
	}
	defer resp.Body.Close()

	if out, handled := c.checkAuth(ctx, resp, target); handled {
		return c.settle(http.MethodGet, start, out)
	}

	if !isSuccess(resp.StatusCode) {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		return c.settle(http.MethodGet, start, domain.Response{Status: resp.StatusCode, Body: normalizeBody(raw, resp.StatusCode)})
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		c.log.Warn().Err(err).Str("path", target.Path).Int64("bytes", n).Msg("download interrupted")
		return c.settle(http.MethodGet, start, domain.Response{Status: resp.StatusCode, Body: domain.ErrorBody(msgConnection)})
	}

	summary, _ := json.Marshal(map[string]any{
		"bytes":        n,
		"content_type": resp.Header.Get("Content-Type"),
	})
	return c.settle(http.MethodGet, start, domain.Response{Success: true, Status: resp.StatusCode, Body: summary})
}

// send resolves path, attaches the credential and performs the round trip.
// A non-nil Response means the call already settled without an HTTP response.
func (c *Client) send(ctx context.Context, method, path string, body io.Reader, headers http.Header) (*http.Response, *url.URL, *domain.Response) {
	target, err := c.resolve(path)
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("refusing request")
		return nil, nil, &domain.Response{Status: 0, Body: domain.ErrorBody(err.Error())}
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		c.log.Error().Err(err).Str("path", target.Path).Msg("build request")
		return nil, nil, &domain.Response{Status: 0, Body: domain.ErrorBody(msgConnection)}
	}
	for k, vs := range headers {
		req.Header[k] = vs
	}
	if token, ok := c.sessions.Credential(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+string(token))
	}
	requestID := uuid.Must(uuid.NewV4()).String()
	req.Header.Set("X-Request-ID", requestID)

	c.log.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", target.Path).
		Bool("authenticated", req.Header.Get("Authorization") != "").
		Msg("gateway request")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("request_id", requestID).Str("path", target.Path).Msg("gateway connection error")
		return nil, nil, &domain.Response{Status: 0, Body: domain.ErrorBody(msgConnection)}
	}
	return resp, target, nil
}

// checkAuth handles a 401 outside the login endpoint: the session is
// invalidated and the user is sent to the login surface once.
func (c *Client) checkAuth(ctx context.Context, resp *http.Response, target *url.URL) (domain.Response, bool) {
	if resp.StatusCode != http.StatusUnauthorized || isLoginPath(target) {
		return domain.Response{}, false
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	body := normalizeBody(raw, resp.StatusCode)
	if len(bytes.TrimSpace(raw)) == 0 {
		body = domain.ErrorBody(msgUnauthorized)
	}

	out := domain.Response{Status: http.StatusUnauthorized, Body: body}

	c.signOutMu.Lock()
	defer c.signOutMu.Unlock()

	sent := strings.TrimPrefix(resp.Request.Header.Get("Authorization"), "Bearer ")
	if current, _ := c.sessions.Credential(ctx); string(current) != sent {
		c.log.Debug().Str("path", target.Path).Msg("rejected credential already replaced or cleared")
		return out, true
	}

	c.log.Warn().Str("path", target.Path).Msg("session rejected by server, signing out")
	if err := c.sessions.ClearSession(ctx); err != nil {
		c.log.Error().Err(err).Msg("clear session after 401")
	}
	metrics.GatewayAuthRedirectsTotal.Inc()
	c.nav.Navigate(ctx, domain.SurfaceLogin)

	return out, true
}

func (c *Client) settle(method string, start time.Time, resp domain.Response) domain.Response {
	metrics.GatewayRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.Status)).Inc()
	metrics.GatewayRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	return resp
}

var errCrossOrigin = errors.New("solicitud a otro origen rechazada")

// resolve joins path against the configured origin and API prefix.
func (c *Client) resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("ruta inválida: %w", err)
	}
	if ref.Scheme != "" || ref.Host != "" {
		if !strings.EqualFold(ref.Scheme, c.origin.Scheme) || !strings.EqualFold(ref.Host, c.origin.Host) {
			return nil, errCrossOrigin
		}
	}

	p := ref.Path
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	base := strings.TrimRight(c.origin.Path, "/")
	if strings.HasPrefix(p, base+"/") && base != "" {
		p = strings.TrimPrefix(p, base)
	}
	if c.prefix != "" && p != c.prefix && !strings.HasPrefix(p, c.prefix+"/") {
		p = c.prefix + p
	}

	target := *c.origin
	target.Path = base + p
	target.RawQuery = ref.RawQuery
	target.Fragment = ""
	return &target, nil
}

func isLoginPath(u *url.URL) bool {
	return strings.HasSuffix(strings.TrimRight(u.Path, "/"), loginSuffix)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// normalizeBody guarantees a JSON body. Unparseable payloads are wrapped as
// {"error": <text>}.
func normalizeBody(raw []byte, status int) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		if isSuccess(status) {
			return json.RawMessage(`{}`)
		}
		if text := http.StatusText(status); text != "" {
			return domain.ErrorBody(text)
		}
		return domain.ErrorBody(msgBadResponse)
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}

	if !utf8.Valid(trimmed) {
		return domain.ErrorBody(msgBadResponse)
	}
	text := string(trimmed)
	if len(text) > maxErrorText {
		text = text[:maxErrorText]
		for !utf8.ValidString(text) {
			text = text[:len(text)-1]
		}
	}
	return domain.ErrorBody(text)
}
