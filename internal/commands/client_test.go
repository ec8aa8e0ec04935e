package commands

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GriffinCanCode/AgentOS/deskview/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/shared/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method    string
	Path      string
	Body      string
	RequestID string
	ViewerID  string
}

// apiServer answers every request with the next scripted response
type apiServer struct {
	*httptest.Server

	mu        sync.Mutex
	requests  []recordedRequest
	status    int
	body      string
	responder func(n int) (int, string)
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	s := &apiServer{status: http.StatusOK, body: `{"success":true}`}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		s.mu.Lock()
		s.requests = append(s.requests, recordedRequest{
			Method:    r.Method,
			Path:      r.URL.Path,
			Body:      string(body),
			RequestID: r.Header.Get(HeaderRequestID),
			ViewerID:  r.Header.Get(HeaderViewerID),
		})
		n := len(s.requests)
		status, payload := s.status, s.body
		if s.responder != nil {
			status, payload = s.responder(n)
		}
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *apiServer) reply(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status, s.body = status, body
}

func (s *apiServer) recorded() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedRequest(nil), s.requests...)
}

func newTestClient(s *apiServer) *Client {
	return New(Config{
		BaseURL:       s.URL + "/",
		Timeout:       2 * time.Second,
		RetryWait:     time.Millisecond,
		ViewerID:      "viewer_01TEST",
		RegisterPause: time.Millisecond,
	})
}

func TestGetDesktop(t *testing.T) {
	s := newAPIServer(t)
	s.reply(http.StatusOK, `{"success":true,"desktop":{"windows":[{"id":"w1","app_id":"chat","title":"Chat","x":1,"y":2,"width":640,"height":480,"z_index":3,"minimized":false,"maximized":false}],"active_window":"w1","apps":[]}}`)

	desktop, err := newTestClient(s).GetDesktop(context.Background(), "default")
	require.NoError(t, err)
	require.Len(t, desktop.Windows, 1)
	assert.Equal(t, "w1", desktop.Windows[0].ID)
	assert.Equal(t, 3, desktop.Windows[0].ZIndex)
	assert.Equal(t, "w1", *desktop.ActiveWindow)

	reqs := s.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, "/desktop/default", reqs[0].Path)
	assert.Equal(t, "viewer_01TEST", reqs[0].ViewerID)
	_, err = uuid.Parse(reqs[0].RequestID)
	assert.NoError(t, err)
}

func TestWindowCommandsHitTheirEndpoints(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		send   func(c *Client) error
		method string
		path   string
		body   string
	}{
		{"close", func(c *Client) error { return c.CloseWindow(ctx, "d1", "w1") }, http.MethodDelete, "/desktop/d1/windows/w1", ""},
		{"focus", func(c *Client) error { return c.FocusWindow(ctx, "d1", "w1") }, http.MethodPost, "/desktop/d1/windows/w1/focus", ""},
		{"minimize", func(c *Client) error { return c.MinimizeWindow(ctx, "d1", "w1") }, http.MethodPost, "/desktop/d1/windows/w1/minimize", ""},
		{"maximize", func(c *Client) error { return c.MaximizeWindow(ctx, "d1", "w1", nil) }, http.MethodPost, "/desktop/d1/windows/w1/maximize", ""},
		{"maximize with work area", func(c *Client) error {
			return c.MaximizeWindow(ctx, "d1", "w1", &types.Bounds{X: 0, Y: 40, Width: 1440, Height: 860})
		}, http.MethodPost, "/desktop/d1/windows/w1/maximize", `{"x":0,"y":40,"width":1440,"height":860}`},
		{"restore", func(c *Client) error { return c.RestoreWindow(ctx, "d1", "w1") }, http.MethodPost, "/desktop/d1/windows/w1/restore", ""},
		{"move", func(c *Client) error { return c.MoveWindow(ctx, "d1", "w1", 120, 80) }, http.MethodPatch, "/desktop/d1/windows/w1/position", `{"x":120,"y":80}`},
		{"resize", func(c *Client) error { return c.ResizeWindow(ctx, "d1", "w1", 800, 600) }, http.MethodPatch, "/desktop/d1/windows/w1/size", `{"width":800,"height":600}`},
		{"register app", func(c *Client) error {
			return c.RegisterApp(ctx, "d1", types.AppDefinition{ID: "chat", Name: "Chat"})
		}, http.MethodPost, "/desktop/d1/apps", `{"id":"chat","name":"Chat","icon":"","component_code":"","default_width":0,"default_height":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newAPIServer(t)
			require.NoError(t, tt.send(newTestClient(s)))

			reqs := s.recorded()
			require.Len(t, reqs, 1)
			assert.Equal(t, tt.method, reqs[0].Method)
			assert.Equal(t, tt.path, reqs[0].Path)
			if tt.body == "" {
				assert.Empty(t, reqs[0].Body)
			} else {
				assert.JSONEq(t, tt.body, reqs[0].Body)
			}
		})
	}
}

func TestOpenWindow(t *testing.T) {
	s := newAPIServer(t)
	s.reply(http.StatusOK, `{"success":true,"window":{"id":"w9","app_id":"chat","title":"Chat","x":0,"y":0,"width":800,"height":600,"z_index":1,"minimized":false,"maximized":false}}`)

	w, err := newTestClient(s).OpenWindow(context.Background(), "d1", OpenWindowRequest{
		AppID: "chat",
		Title: "Chat",
		Props: []byte(`{"room":"general"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "w9", w.ID)

	reqs := s.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/desktop/d1/windows", reqs[0].Path)
	assert.JSONEq(t, `{"app_id":"chat","title":"Chat","props":{"room":"general"}}`, reqs[0].Body)
}

func TestListEndpoints(t *testing.T) {
	s := newAPIServer(t)
	c := newTestClient(s)

	s.reply(http.StatusOK, `{"success":true,"windows":[{"id":"a"},{"id":"b"}]}`)
	windows, err := c.ListWindows(context.Background(), "d1")
	require.NoError(t, err)
	assert.Len(t, windows, 2)

	s.reply(http.StatusOK, `{"success":true,"apps":[{"id":"chat","name":"Chat"}]}`)
	apps, err := c.ListApps(context.Background(), "d1")
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "Chat", apps[0].Name)
}

func TestRejectedResponse(t *testing.T) {
	s := newAPIServer(t)
	s.reply(http.StatusOK, `{"success":false,"error":"Window not found"}`)

	err := newTestClient(s).MoveWindow(context.Background(), "d1", "ghost", 1, 1)
	require.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "Window not found")

	s.reply(http.StatusOK, `{"success":false}`)
	err = newTestClient(s).FocusWindow(context.Background(), "d1", "ghost")
	require.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "unknown error")
}

func TestHTTPErrorDetail(t *testing.T) {
	s := newAPIServer(t)
	s.reply(http.StatusBadRequest, `{"error":{"code":"INVALID_REQUEST","message":"Desktop ID cannot be empty"}}`)

	_, err := newTestClient(s).GetDesktop(context.Background(), "x")
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, "HTTP error: 400 (INVALID_REQUEST: Desktop ID cannot be empty)", httpErr.Error())
}

func TestParseHTTPError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"empty body", 502, "", "HTTP error: 502"},
		{"nested code and message", 400, `{"error":{"code":"BAD","message":"nope"}}`, "HTTP error: 400 (BAD: nope)"},
		{"nested message only", 404, `{"error":{"message":"missing"}}`, "HTTP error: 404 (missing)"},
		{"error string", 409, `{"error":"conflict"}`, "HTTP error: 409 (conflict)"},
		{"top level message", 500, `{"message":"Something failed"}`, "HTTP error: 500 (Something failed)"},
		{"plain text", 503, "upstream down", "HTTP error: 503 (upstream down)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseHTTPError(tt.status, []byte(tt.body)).Error())
		})
	}
}

func TestRetriesServerErrors(t *testing.T) {
	s := newAPIServer(t)
	s.responder = func(n int) (int, string) {
		if n == 1 {
			return http.StatusServiceUnavailable, `{"message":"warming up"}`
		}
		return http.StatusOK, `{"success":true}`
	}

	c := New(Config{BaseURL: s.URL, Retries: 2, RetryWait: time.Millisecond})
	require.NoError(t, c.FocusWindow(context.Background(), "d1", "w1"))
	assert.Len(t, s.recorded(), 2)
}

func TestRetriesExhaustedReportsLastStatus(t *testing.T) {
	s := newAPIServer(t)
	s.reply(http.StatusServiceUnavailable, `{"message":"down"}`)

	c := New(Config{BaseURL: s.URL, Retries: 1, RetryWait: time.Millisecond})
	err := c.FocusWindow(context.Background(), "d1", "w1")

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	assert.Len(t, s.recorded(), 2)
}

func TestBreakerOpensOnServerFailures(t *testing.T) {
	s := newAPIServer(t)
	s.reply(http.StatusInternalServerError, `{"message":"boom"}`)

	c := New(Config{BaseURL: s.URL, Retries: 0, Timeout: time.Second})
	for i := 0; i < 5; i++ {
		require.Error(t, c.FocusWindow(context.Background(), "d1", "w1"))
	}
	assert.Equal(t, resilience.StateOpen, c.BreakerState())

	err := c.FocusWindow(context.Background(), "d1", "w1")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Len(t, s.recorded(), 5)
}

func TestBreakerIgnoresRejections(t *testing.T) {
	s := newAPIServer(t)
	s.reply(http.StatusOK, `{"success":false,"error":"nope"}`)

	c := newTestClient(s)
	for i := 0; i < 10; i++ {
		require.ErrorIs(t, c.MinimizeWindow(context.Background(), "d1", "w1"), ErrRejected)
	}
	assert.Equal(t, resilience.StateClosed, c.BreakerState())
}

func TestRegisterAppsRetriesRounds(t *testing.T) {
	s := newAPIServer(t)
	s.responder = func(n int) (int, string) {
		// First round (two apps) fails entirely
		if n <= 2 {
			return http.StatusOK, `{"success":false,"error":"session not ready"}`
		}
		return http.StatusOK, `{"success":true}`
	}

	apps := []types.AppDefinition{{ID: "chat"}, {ID: "files"}}
	n, err := newTestClient(s).RegisterApps(context.Background(), "d1", apps)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, s.recorded(), 4)
}

func TestRegisterAppsPartialSuccessStops(t *testing.T) {
	s := newAPIServer(t)
	s.responder = func(n int) (int, string) {
		if n == 1 {
			return http.StatusOK, `{"success":true}`
		}
		return http.StatusOK, `{"success":false,"error":"duplicate"}`
	}

	apps := []types.AppDefinition{{ID: "chat"}, {ID: "files"}, {ID: "terminal"}}
	n, err := newTestClient(s).RegisterApps(context.Background(), "d1", apps)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, s.recorded(), 3)
}

func TestRegisterAppsGivesUpAfterThreeRounds(t *testing.T) {
	s := newAPIServer(t)
	s.reply(http.StatusOK, `{"success":false,"error":"not allowed"}`)

	apps := []types.AppDefinition{{ID: "chat"}, {ID: "files"}}
	n, err := newTestClient(s).RegisterApps(context.Background(), "d1", apps)
	require.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, 0, n)
	assert.Len(t, s.recorded(), 6)
}

func TestRegisterAppsHonorsCancellation(t *testing.T) {
	s := newAPIServer(t)
	s.reply(http.StatusOK, `{"success":false,"error":"not yet"}`)

	c := New(Config{BaseURL: s.URL, RegisterPause: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.RegisterApps(ctx, "d1", []types.AppDefinition{{ID: "chat"}})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

type observed struct {
	ops    []string
	failed atomic.Int32
}

func (o *observed) OnCommand(op string, _ time.Duration, err error) {
	o.ops = append(o.ops, op)
	if err != nil {
		o.failed.Add(1)
	}
}

func TestObserverSeesEveryCommand(t *testing.T) {
	s := newAPIServer(t)
	obs := &observed{}
	c := New(Config{BaseURL: s.URL, Observer: obs})

	require.NoError(t, c.MoveWindow(context.Background(), "d1", "w1", 1, 2))
	s.reply(http.StatusOK, `{"success":false}`)
	require.Error(t, c.ResizeWindow(context.Background(), "d1", "w1", 300, 300))

	assert.Equal(t, []string{"move_window", "resize_window"}, obs.ops)
	assert.Equal(t, int32(1), obs.failed.Load())
}
