package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	handler "github.com/vncsmyrnk/livepoll/internal/adapters/handler/http"
	"github.com/vncsmyrnk/livepoll/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/livepoll/internal/adapters/session"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
	"github.com/vncsmyrnk/livepoll/internal/core/services"
)

type testApp struct {
	Server *httptest.Server
	Hub    ports.Hub
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	return setupTestAppWith(t, handler.ConnOptions{IdleTimeout: 5 * time.Second})
}

func setupTestAppWith(t *testing.T, opts handler.ConnOptions) *testApp {
	t.Helper()

	repo := memory.NewPollRepository()
	hub := services.NewHub(repo, services.NewRanker(services.RankingLimits{Top: 10, Latest: 10}), nil)
	pollSvc := services.NewPollService(repo)
	actionSvc := services.NewActionService(repo, hub, nil)

	resolver := services.NewSessionResolver(session.NewJWTCodec([]byte("test-secret"), time.Hour), nil)
	identity := handler.NewIdentity(resolver, handler.CookieConfig{MaxAge: time.Hour})

	router := handler.NewHandler(
		handler.NewPollHandler(pollSvc),
		handler.NewWSHandler(pollSvc, actionSvc, hub, opts, nil),
		identity,
	)

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})
	return &testApp{Server: server, Hub: hub}
}

// participant is one browser: a cookie jar shared by REST calls and
// websocket dials.
type participant struct {
	app    *testApp
	jar    http.CookieJar
	client *http.Client
}

func (app *testApp) newParticipant(t *testing.T) *participant {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &participant{
		app:    app,
		jar:    jar,
		client: &http.Client{Jar: jar},
	}
}

func (p *participant) createPoll(t *testing.T, title string, permit domain.AddItemPermit) domain.PollSummary {
	t.Helper()
	body, err := json.Marshal(map[string]any{"title": title, "add_item_permit": permit})
	require.NoError(t, err)

	resp, err := p.client.Post(p.app.Server.URL+"/api/polls/", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var summary domain.PollSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	return summary
}

func (p *participant) dial(t *testing.T, pollID domain.PollID) (*wsClient, *http.Response, error) {
	t.Helper()
	target := "ws" + strings.TrimPrefix(p.app.Server.URL, "http") + "/p/" + string(pollID) + "/ws"
	dialer := websocket.Dialer{Jar: p.jar, HandshakeTimeout: 2 * time.Second}

	conn, resp, err := dialer.Dial(target, nil)
	if err != nil {
		return nil, resp, err
	}
	t.Cleanup(func() { conn.Close() })
	return &wsClient{t: t, conn: conn}, resp, nil
}

func (p *participant) join(t *testing.T, pollID domain.PollID) *wsClient {
	t.Helper()
	c, _, err := p.dial(t, pollID)
	require.NoError(t, err)
	return c
}

type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

type message struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

func (m message) view(t *testing.T) domain.PollView {
	t.Helper()
	require.Equal(t, "PollStateUpdate", m.Type)
	var v domain.PollView
	require.NoError(t, json.Unmarshal(m.Content, &v))
	return v
}

func (m message) notice(t *testing.T) string {
	t.Helper()
	require.Equal(t, "ActionResponse", m.Type)
	var text string
	require.NoError(t, json.Unmarshal(m.Content, &text))
	return text
}

func (c *wsClient) send(kind string, content any) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteJSON(map[string]any{"type": kind, "content": content}))
}

func (c *wsClient) read() message {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var m message
	require.NoError(c.t, c.conn.ReadJSON(&m))
	return m
}

// readUntil reads until match accepts a message and returns everything
// read on the way. Intermediate state updates may be coalesced, so tests
// wait for the state they expect instead of counting frames.
func (c *wsClient) readUntil(match func(message) bool) []message {
	c.t.Helper()
	var seen []message
	for {
		m := c.read()
		seen = append(seen, m)
		if match(m) {
			return seen
		}
	}
}

func (c *wsClient) waitView(match func(domain.PollView) bool) domain.PollView {
	c.t.Helper()
	seen := c.readUntil(func(m message) bool {
		if m.Type != "PollStateUpdate" {
			return false
		}
		return match(m.view(c.t))
	})
	return seen[len(seen)-1].view(c.t)
}

func (c *wsClient) waitNotice() (string, []message) {
	c.t.Helper()
	seen := c.readUntil(func(m message) bool { return m.Type == "ActionResponse" })
	return seen[len(seen)-1].notice(c.t), seen
}

func itemTexts(items []domain.ItemView) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Text)
	}
	return out
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}
