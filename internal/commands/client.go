package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GriffinCanCode/AgentOS/deskview/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/infrastructure/resilience"
	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var api = sonic.ConfigStd

// Header names sent with every command
const (
	HeaderRequestID = "X-Request-ID"
	HeaderViewerID  = "X-Viewer-ID"
)

// Observer sees the outcome of every command, typically for metrics
type Observer interface {
	OnCommand(op string, elapsed time.Duration, err error)
}

// Config configures a Client
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	Retries   int
	RetryWait time.Duration
	// RPS limits outgoing commands; zero or less disables the limit
	RPS           float64
	Burst         int
	ViewerID      string
	RegisterPause time.Duration
	Logger        *logging.Logger
	Observer      Observer
}

// Client sends window and app commands to the desktop API
type Client struct {
	resty         *resty.Client
	limiter       *rate.Limiter
	breaker       *resilience.Breaker
	registerPause time.Duration
	observer      Observer
	log           *logging.Logger
}

// New creates a command client
func New(cfg Config) *Client {
	log := logging.OrNop(cfg.Logger).Named("commands")

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = 200 * time.Millisecond
	}
	if cfg.RegisterPause <= 0 {
		cfg.RegisterPause = 250 * time.Millisecond
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.Retries
	retryClient.RetryWaitMin = cfg.RetryWait
	retryClient.RetryWaitMax = 10 * cfg.RetryWait
	retryClient.Logger = retryLogger{log: log.Sugar()}
	// Hand the final response back so the status and body can be reported
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetTransport(&retryablehttp.RoundTripper{Client: retryClient}).
		SetJSONMarshaler(api.Marshal).
		SetJSONUnmarshaler(api.Unmarshal).
		SetHeader("User-Agent", "deskview/1.0").
		SetHeader("Accept", "application/json")
	if cfg.ViewerID != "" {
		restyClient.SetHeader(HeaderViewerID, cfg.ViewerID)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), max(cfg.Burst, 1))
	}

	breaker := resilience.New("desktop-commands", resilience.Settings{
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return !countsAgainstServer(err)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})

	return &Client{
		resty:         restyClient,
		limiter:       limiter,
		breaker:       breaker,
		registerPause: cfg.RegisterPause,
		observer:      cfg.Observer,
		log:           log,
	}
}

// BreakerState exposes the circuit state for status reporting
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// response is implemented by every response envelope
type response interface {
	accepted() bool
	reason() string
}

// ack is the {"success", "error"} envelope shared by all endpoints
type ack struct {
	Success bool `json:"success"`
	Error   any  `json:"error,omitempty"`
}

func (a *ack) accepted() bool { return a.Success }

func (a *ack) reason() string {
	switch v := a.Error.(type) {
	case string:
		return v
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			return msg
		}
	}
	return ""
}

type call struct {
	op     string
	method string
	path   string
	params map[string]string
	body   any
}

// do sends one request through the limiter and breaker and decodes the
// envelope into out
func (c *Client) do(ctx context.Context, cl call, out response) error {
	start := time.Now()

	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req := c.resty.R().
			SetContext(ctx).
			SetHeader(HeaderRequestID, uuid.NewString()).
			SetPathParams(cl.params)
		if cl.body != nil {
			req.SetHeader("Content-Type", "application/json").SetBody(cl.body)
		}

		resp, err := req.Execute(cl.method, cl.path)
		if err != nil {
			return fmt.Errorf("%s: %w", cl.op, err)
		}
		if resp.IsError() {
			return fmt.Errorf("%s: %w", cl.op, parseHTTPError(resp.StatusCode(), resp.Body()))
		}

		if err := api.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("%s: parse response: %w", cl.op, err)
		}
		if !out.accepted() {
			return rejected(cl.op, out.reason())
		}
		return nil
	})

	elapsed := time.Since(start)
	if c.observer != nil {
		c.observer.OnCommand(cl.op, elapsed, err)
	}
	if err != nil {
		c.log.Warn("command failed",
			zap.String("op", cl.op),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return err
	}

	c.log.Debug("command sent", zap.String("op", cl.op), zap.Duration("elapsed", elapsed))
	return nil
}

// windowCall builds a call addressed to one window
func windowCall(op, method, suffix, desktopID, windowID string, body any) call {
	return call{
		op:     op,
		method: method,
		path:   "/desktop/{desktop}/windows/{window}" + suffix,
		params: map[string]string{"desktop": desktopID, "window": windowID},
		body:   body,
	}
}

// retryLogger routes retryablehttp's logging into zap
type retryLogger struct {
	log *zap.SugaredLogger
}

func (l retryLogger) Error(msg string, kv ...interface{}) { l.log.Warnw(msg, kv...) }
func (l retryLogger) Info(msg string, kv ...interface{})  { l.log.Debugw(msg, kv...) }
func (l retryLogger) Debug(msg string, kv ...interface{}) { l.log.Debugw(msg, kv...) }
func (l retryLogger) Warn(msg string, kv ...interface{})  { l.log.Warnw(msg, kv...) }

var _ retryablehttp.LeveledLogger = retryLogger{}
