package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/posrelay/internal/factory"
	"github.com/mcoot/posrelay/internal/testutil"
)

type RouterSuite struct {
	suite.Suite
	app    *factory.TestApp
	server *httptest.Server
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.app = factory.NewTestApp()
	s.server = httptest.NewServer(NewRouter(RouterConfig{
		Logger: testutil.NopLogger(),
		Relay:  s.app.Relay,
	}))
}

func (s *RouterSuite) TearDownTest() {
	s.server.Close()
}

func (s *RouterSuite) TestHealth() {
	resp, err := http.Get(s.server.URL + "/health")
	s.Require().NoError(err)
	defer func() { _ = resp.Body.Close() }()

	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("application/json", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	var payload map[string]string
	s.Require().NoError(json.Unmarshal(body, &payload))
	s.Equal("ok", payload["status"])
}

func (s *RouterSuite) TestHealthRejectsPost() {
	resp, err := http.Post(s.server.URL+"/health", "application/json", nil)
	s.Require().NoError(err)
	defer func() { _ = resp.Body.Close() }()

	s.Equal(http.StatusMethodNotAllowed, resp.StatusCode)
}

func (s *RouterSuite) TestUnknownRoute() {
	resp, err := http.Get(s.server.URL + "/nope")
	s.Require().NoError(err)
	defer func() { _ = resp.Body.Close() }()

	s.Equal(http.StatusNotFound, resp.StatusCode)
}

// The WebSocket upgrade hijacks the connection, so it must survive the
// logging middleware's response writer wrapper.
func (s *RouterSuite) TestWebSocketUpgradeThroughMiddleware() {
	wsURL := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	s.Require().NoError(err)
	defer func() { _ = conn.Close() }()
	defer func() { _ = resp.Body.Close() }()

	s.Equal(http.StatusSwitchingProtocols, resp.StatusCode)
}
