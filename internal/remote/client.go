package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cartify/internal/domain"
	"cartify/internal/logging"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 10 << 20

// TokenSource yields the bearer token of the current session, or "".
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Options configures a Client. Zero values pick defaults.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RPS        float64
	HTTPClient *http.Client
	Tokens     TokenSource
	Logger     *zap.Logger
}

// Client talks to the Cartify backend. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[rawResponse]
	tokens  TokenSource
	logger  *zap.Logger
}

type rawResponse struct {
	status      int
	contentType string
	body        []byte
}

// envelope is the common {success, message, data} wrapper. success is a
// pointer because some endpoints omit it.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// New builds a Client with a rate limiter and a circuit breaker in front of
// the HTTP transport.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	burst := 1
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
		burst = int(opts.RPS)
		if burst < 1 {
			burst = 1
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tokens := opts.Tokens
	if tokens == nil {
		tokens = TokenFunc(func() string { return "" })
	}

	breaker := gobreaker.NewCircuitBreaker[rawResponse](gobreaker.Settings{
		Name:        "cartify-remote",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("remote circuit state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
		breaker: breaker,
		tokens:  tokens,
		logger:  logger,
	}
}

// send performs one request. Transport failures and 5xx responses count
// against the breaker; everything else is returned for the caller to judge.
func (c *Client) send(ctx context.Context, op, method, path string, query url.Values, body any) (rawResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return rawResponse{}, &Error{Op: op, Err: err}
	}

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return rawResponse{}, &Error{Op: op, Message: "encode request", Err: err}
		}
		payload = b
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	resp, err := c.breaker.Execute(func() (rawResponse, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return rawResponse{}, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		if rid := logging.RequestIDFromContext(ctx); rid != "" {
			req.Header.Set(logging.RequestIDHeader, rid)
		}

		httpResp, err := c.http.Do(req)
		if err != nil {
			return rawResponse{}, err
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
		if err != nil {
			return rawResponse{}, err
		}
		out := rawResponse{
			status:      httpResp.StatusCode,
			contentType: httpResp.Header.Get("Content-Type"),
			body:        data,
		}
		if httpResp.StatusCode >= http.StatusInternalServerError {
			return out, &Error{Op: op, StatusCode: httpResp.StatusCode, Message: envelopeMessage(data)}
		}
		return out, nil
	})
	if err != nil {
		var re *Error
		if errors.As(err, &re) {
			c.logger.Error("remote call failed", zap.String("op", op), zap.Int("status", re.StatusCode), zap.Error(err))
			return rawResponse{}, err
		}
		c.logger.Info("remote call failed", zap.String("op", op), zap.Error(err))
		if IsUnavailable(err) {
			return rawResponse{}, &Error{Op: op, Message: "remote unavailable", Err: err}
		}
		return rawResponse{}, &Error{Op: op, Err: err}
	}
	return resp, nil
}

// call sends a request and decodes the envelope's data into out (if non-nil).
// It returns the envelope message for endpoints that only report one.
func (c *Client) call(ctx context.Context, op, method, path string, query url.Values, body, out any) (string, error) {
	resp, err := c.send(ctx, op, method, path, query, body)
	if err != nil {
		return "", err
	}
	return decodeEnvelope(op, resp, out)
}

func decodeEnvelope(op string, resp rawResponse, out any) (string, error) {
	var env envelope
	decodeErr := json.Unmarshal(resp.body, &env)

	if resp.status >= http.StatusBadRequest {
		e := &Error{Op: op, StatusCode: resp.status, Message: env.Message}
		switch resp.status {
		case http.StatusUnauthorized:
			e.Err = domain.ErrUnauthenticated
		case http.StatusNotFound:
			e.Err = domain.ErrNotFound
		}
		return "", e
	}
	if decodeErr != nil {
		return "", &Error{Op: op, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, decodeErr)}
	}
	if env.Success != nil && !*env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request rejected"
		}
		return "", &Error{Op: op, StatusCode: resp.status, Message: msg}
	}
	if out != nil {
		if len(env.Data) == 0 || string(env.Data) == "null" {
			return "", &Error{Op: op, Err: fmt.Errorf("%w: missing data", ErrMalformedResponse)}
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", &Error{Op: op, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
		}
	}
	return env.Message, nil
}

func envelopeMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return env.Message
}
