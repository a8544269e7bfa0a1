package integration

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/kasuganosora/rpgcraft/api/rest"
	"github.com/kasuganosora/rpgcraft/api/sse"
	"github.com/kasuganosora/rpgcraft/audit"
	"github.com/kasuganosora/rpgcraft/cache"
	"github.com/kasuganosora/rpgcraft/config"
	"github.com/kasuganosora/rpgcraft/game/craft"
	mw "github.com/kasuganosora/rpgcraft/middleware"
	"github.com/kasuganosora/rpgcraft/plugin/hook"
	"github.com/kasuganosora/rpgcraft/resource"
	"github.com/kasuganosora/rpgcraft/scheduler"
	"github.com/kasuganosora/rpgcraft/testutil"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// AdminKey is the plain admin key accepted by every TestServer.
const AdminKey = "integration-admin-key"

// TestServer wraps a real HTTP server with the crafting stack wired together.
type TestServer struct {
	DB     *gorm.DB
	Cache  cache.Cache
	PubSub cache.PubSub
	Res    *resource.ResourceLoader
	Audit  *audit.Service
	Hooks  *hook.HookCenter
	Sched  *scheduler.Scheduler
	Server *httptest.Server
	URL    string // http://127.0.0.1:<port>
	Sec    config.SecurityConfig

	cancel context.CancelFunc
}

// NewTestServer creates a fully wired server over the sample data directory.
// It mirrors the dependency wiring in main.go.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// ---- Infrastructure ----
	db := testutil.SetupTestDB(t)
	c, pubsub := testutil.SetupTestCache(t)
	logger := zap.NewNop()
	ctx, cancel := context.WithCancel(context.Background())

	sec := config.SecurityConfig{
		JWTSecret:      "integration-test-secret",
		JWTTTLH:        72 * time.Hour,
		RateLimitRPS:   1000,
		RateLimitBurst: 2000,
	}
	adminHash, err := bcrypt.GenerateFromPassword([]byte(AdminKey), bcrypt.MinCost)
	require.NoError(t, err)

	// ---- Crafting ----
	res := testutil.SetupTestResources(t)
	auditSvc := audit.New(db, logger)
	engine := craft.NewEngine(res.Volumes, craft.WithSeed(42), craft.WithBannedNames(res.BannedNames))
	hooks := hook.NewHookCenter()
	craftSvc := craft.NewService(engine, res.Materials, db, logger,
		craft.WithCache(c, pubsub),
		craft.WithAudit(auditSvc),
		craft.WithHooks(hooks),
		craft.WithRecentLimit(5),
	)

	sched := scheduler.New(logger)
	sched.AddTicker("audit_prune", time.Hour, func(ctx context.Context) error {
		_, err := auditSvc.Prune(ctx, time.Now().Add(-24*time.Hour))
		return err
	})

	// ---- Gin HTTP Server ----
	r := gin.New()
	r.Use(mw.TraceID(), mw.Metrics(), mw.Recovery(logger))
	r.Use(mw.NewRateLimiter(ctx, rate.Limit(sec.RateLimitRPS), sec.RateLimitBurst).Handler())

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ---- Routes (mirrors main.go) ----
	authH := apirest.NewAuthHandler(db, c, sec, logger)
	matH := apirest.NewMaterialHandler(res.Materials, res.Volumes)
	craftH := apirest.NewCraftHandler(craftSvc)
	sseH := sse.NewHandler(pubsub, logger)
	adminH := apirest.NewAdminHandler(db, res, sched, sseH, logger)
	auth := mw.Auth(sec, c)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/login", authH.Login)
		authG.POST("/logout", auth, authH.Logout)
		authG.POST("/refresh", auth, authH.Refresh)

		api.GET("/materials", matH.List)
		api.GET("/materials/:name", matH.Get)
		api.GET("/archetypes/:family", matH.Archetypes)

		craftG := api.Group("/craft", auth)
		craftG.POST("/armor", craftH.Armor)
		craftG.POST("/weapon", craftH.Weapon)
		craftG.POST("/bow", craftH.Bow)
		craftG.POST("/shield", craftH.Shield)
		craftG.POST("/siege", craftH.Siege)
		craftG.POST("/jewelry", craftH.Jewelry)

		craftsG := api.Group("/crafts", auth)
		craftsG.GET("", craftH.Recent)
		craftsG.GET("/:id", craftH.Get)

		adminG := api.Group("/admin", mw.IPWhitelist(nil), mw.AdminKey(string(adminHash)))
		adminG.GET("/status", adminH.Status)
		adminG.POST("/volumes/:family/load", adminH.LoadVolumes)
		adminG.POST("/accounts/:id/ban", adminH.BanAccount)
		adminG.POST("/announce", adminH.Announce)
	}
	r.GET("/sse", auth, sseH.ServeSSE)

	// ---- Start server ----
	server := httptest.NewServer(r)

	return &TestServer{
		DB:     db,
		Cache:  c,
		PubSub: pubsub,
		Res:    res,
		Audit:  auditSvc,
		Hooks:  hooks,
		Sched:  sched,
		Server: server,
		URL:    server.URL,
		Sec:    sec,
		cancel: cancel,
	}
}

// Close shuts down the test server and background workers.
func (ts *TestServer) Close() {
	ts.Server.CloseClientConnections()
	ts.Server.Close()
	ts.Sched.Stop()
	ts.Audit.Stop(context.Background())
	ts.cancel()
}

// --- HTTP helpers ---

func (ts *TestServer) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func bearer(token string) map[string]string {
	if token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// PostJSON sends a POST request with JSON body and optional Bearer token.
func (ts *TestServer) PostJSON(t *testing.T, path string, body interface{}, token string) *http.Response {
	t.Helper()
	return ts.do(t, http.MethodPost, path, body, bearer(token))
}

// Get sends a GET request with optional Bearer token.
func (ts *TestServer) Get(t *testing.T, path string, token string) *http.Response {
	t.Helper()
	return ts.do(t, http.MethodGet, path, nil, bearer(token))
}

// Admin sends an admin request carrying the admin key.
func (ts *TestServer) Admin(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	return ts.do(t, method, path, body, map[string]string{mw.AdminKeyHeader: AdminKey})
}

// ReadJSON reads and decodes a JSON response body into the given target.
func ReadJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target), "body: %s", string(data))
}

// --- Auth helpers ---

// Login logs in (auto-registers on first call) and returns the token and account ID.
func (ts *TestServer) Login(t *testing.T, username, password string) (token string, accountID int64) {
	t.Helper()
	resp := ts.PostJSON(t, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result map[string]interface{}
	ReadJSON(t, resp, &result)
	token = result["token"].(string)
	accountID = int64(result["account_id"].(float64))
	return
}

// Craft posts an order to /api/craft/<family> and returns the decoded item.
func (ts *TestServer) Craft(t *testing.T, token, family string, order interface{}) map[string]interface{} {
	t.Helper()
	resp := ts.PostJSON(t, "/api/craft/"+family, order, token)
	var result map[string]interface{}
	status := resp.StatusCode
	ReadJSON(t, resp, &result)
	require.Equal(t, http.StatusCreated, status, "craft %s: %v", family, result)
	return result["item"].(map[string]interface{})
}

// --- Event stream ---

// EventStream is an open /sse connection.
type EventStream struct {
	resp *http.Response
	sc   *bufio.Scanner
}

// OpenEvents connects to /sse and waits for the connected event.
func (ts *TestServer) OpenEvents(t *testing.T, token string) *EventStream {
	t.Helper()
	resp := ts.Get(t, "/sse?token="+token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	es := &EventStream{resp: resp, sc: bufio.NewScanner(resp.Body)}
	name, _ := es.Next(t)
	require.Equal(t, "connected", name)
	return es
}

// Next blocks for the next event and returns its name and data.
func (es *EventStream) Next(t *testing.T) (string, string) {
	t.Helper()
	var name, data string
	for es.sc.Scan() {
		line := es.sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && name != "":
			return name, data
		}
	}
	t.Fatalf("event stream closed: %v", es.sc.Err())
	return "", ""
}

// Close ends the stream.
func (es *EventStream) Close() {
	es.resp.Body.Close()
}

// UniqueID returns a short unique alphanumeric string suitable for usernames.
var testCounter uint64

func UniqueID(prefix string) string {
	n := atomic.AddUint64(&testCounter, 1)
	return fmt.Sprintf("%s%d%d", prefix, time.Now().UnixNano()%100000, n)
}
