package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/horasecreta/advisor/advisor"
	"github.com/horasecreta/advisor/ai/llm"
	"github.com/horasecreta/advisor/ai/provider"
	"github.com/horasecreta/advisor/am"
)

const testToken = "token-de-teste"

type testEnv struct {
	srv  *Server
	http *httptest.Server
	mock *llm.MockGenerator
}

func testConfig() *am.Config {
	return &am.Config{
		Server: am.ServerConfig{
			Port:                   3000,
			ServiceToken:           testToken,
			AllowedOrigins:         []string{"*"},
			ShutdownTimeoutSeconds: 1,
		},
		Advisor: am.AdvisorConfig{
			MinMessageChars: 5,
			MaxMessageChars: 2000,
			Chain: []am.ModelAttemptConfig{
				{Provider: "mock", Model: "m1", TimeoutMS: 200, MaxTokens: 100},
				{Provider: "mock", Model: "m2", TimeoutMS: 200, MaxTokens: 100},
			},
		},
		OpenAI: am.OpenAIConfig{APIKey: "sk-test"},
	}
}

func newTestEnv(t *testing.T, cfg *am.Config, script ...llm.MockResponse) *testEnv {
	t.Helper()
	log := zaptest.NewLogger(t).Sugar()
	mock := llm.NewMockGenerator(script...)
	reg := provider.NewRegistry(map[string]provider.Generator{"mock": mock})
	inv := advisor.NewInvoker(reg, advisor.WithLogger(log))
	srv := NewServer(cfg, advisor.NewPipelineFromConfig(cfg, inv, log), log)

	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)
	return &testEnv{srv: srv, http: hs, mock: mock}
}

func (e *testEnv) post(t *testing.T, body string, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.http.URL+"/advisor", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return do(t, req)
}

func do(t *testing.T, req *http.Request) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp, body
}

func TestAdvisor_Success(t *testing.T) {
	env := newTestEnv(t, testConfig(), llm.MockResponse{Text: "1) **Entendimento da crise**\n..."})

	resp, body := env.post(t, `{"message":"Perdi meu emprego e minha fé","mode":"biblico"}`,
		map[string]string{"Authorization": "Bearer " + testToken})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "m1", body["model"])
	assert.Contains(t, body["text"], "Entendimento da crise")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
}

func TestAdvisor_NonStringModeUsesDefault(t *testing.T) {
	for _, mode := range []string{`7`, `true`, `["neutro"]`} {
		t.Run(mode, func(t *testing.T) {
			env := newTestEnv(t, testConfig(), llm.MockResponse{Text: "ok"})

			resp, body := env.post(t, `{"message":"Perdi meu emprego","mode":`+mode+`}`,
				map[string]string{"Authorization": "Bearer " + testToken})

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, true, body["ok"])

			calls := env.mock.Calls()
			require.Len(t, calls, 1)
			want := advisor.BuildPrompt(advisor.AdvisorRequest{Message: "Perdi meu emprego", Mode: advisor.DefaultMode})
			assert.Equal(t, want.SystemInstructions, calls[0].SystemPrompt)
			assert.Equal(t, want.UserContent, calls[0].UserPrompt)
		})
	}
}

func TestAdvisor_XServiceToken(t *testing.T) {
	env := newTestEnv(t, testConfig(), llm.MockResponse{Text: "ok"})
	resp, _ := env.post(t, `{"message":"Preciso de ajuda"}`, map[string]string{"X-Service-Token": testToken})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdvisor_ErrorStatuses(t *testing.T) {
	auth := map[string]string{"Authorization": "Bearer " + testToken}

	tests := []struct {
		name       string
		cfg        func(*am.Config)
		script     []llm.MockResponse
		body       string
		headers    map[string]string
		wantStatus int
		wantError  string
		wantCalls  int
	}{
		{name: "no token", body: `{"message":"Preciso de ajuda"}`, wantStatus: 401, wantError: advisor.MsgUnauthorized},
		{name: "wrong token", body: `{"message":"Preciso de ajuda"}`, headers: map[string]string{"Authorization": "Bearer nope"}, wantStatus: 401, wantError: advisor.MsgUnauthorized},
		{name: "no secret configured", cfg: func(c *am.Config) { c.Server.ServiceToken = "" }, body: `{"message":"Preciso de ajuda"}`, headers: auth, wantStatus: 500, wantError: advisor.MsgMisconfigured},
		{name: "empty body", body: ``, headers: auth, wantStatus: 400, wantError: advisor.MsgEmpty},
		{name: "malformed json", body: `{"message":`, headers: auth, wantStatus: 400, wantError: advisor.MsgInvalidBody},
		{name: "too short", body: `{"message":"oi"}`, headers: auth, wantStatus: 400, wantError: advisor.MsgTooShort},
		{name: "too long", body: `{"message":"` + strings.Repeat("a", 2001) + `"}`, headers: auth, wantStatus: 400, wantError: advisor.MsgTooLong},
		{name: "upstream errors", script: []llm.MockResponse{{Err: &llm.APIError{Provider: "mock", StatusCode: 500, Message: "boom"}}},
			body: `{"message":"Preciso de ajuda"}`, headers: auth, wantStatus: 502, wantError: advisor.MsgUpstreamExhausted, wantCalls: 2},
		{name: "upstream timeouts", script: []llm.MockResponse{{Hang: true}},
			body: `{"message":"Preciso de ajuda"}`, headers: auth, wantStatus: 504, wantError: advisor.MsgUpstreamTimeout, wantCalls: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			if tt.cfg != nil {
				tt.cfg(cfg)
			}
			env := newTestEnv(t, cfg, tt.script...)

			resp, body := env.post(t, tt.body, tt.headers)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, false, body["ok"])
			assert.Equal(t, tt.wantError, body["error"])
			assert.Len(t, env.mock.Calls(), tt.wantCalls)
		})
	}
}

func TestAdvisor_BodyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxBodyBytes = 64
	env := newTestEnv(t, cfg, llm.MockResponse{Text: "ok"})

	resp, body := env.post(t, `{"message":"`+strings.Repeat("a", 200)+`"}`,
		map[string]string{"Authorization": "Bearer " + testToken})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, advisor.MsgInvalidBody, body["error"])
	assert.Empty(t, env.mock.Calls())
}

func TestAdvisor_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, testConfig())

	req, _ := http.NewRequest(http.MethodGet, env.http.URL+"/advisor", nil)
	resp, body := do(t, req)

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "POST", resp.Header.Get("Allow"))
	assert.Equal(t, msgMethodNotAllowed, body["error"])
}

func TestAdvisor_TimeoutDoesNotBlockLaterRequests(t *testing.T) {
	env := newTestEnv(t, testConfig(), llm.MockResponse{Hang: true}, llm.MockResponse{Hang: true}, llm.MockResponse{Text: "ok"})
	auth := map[string]string{"Authorization": "Bearer " + testToken}

	start := time.Now()
	resp, _ := env.post(t, `{"message":"Preciso de ajuda"}`, auth)
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
	assert.Less(t, time.Since(start), 400*time.Millisecond+500*time.Millisecond)

	resp, body := env.post(t, `{"message":"Preciso de ajuda"}`, auth)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "m1", body["model"])
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.srv.now = func() time.Time { return time.UnixMilli(1700000000000) }

	req, _ := http.NewRequest(http.MethodGet, env.http.URL+"/health", nil)
	resp, body := do(t, req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "horasecreta-ai", body["service"])
	assert.Equal(t, float64(1700000000000), body["ts"])
	assert.Equal(t, true, body["hasServiceToken"])
	assert.Equal(t, float64(len(testToken)), body["serviceTokenLen"])
	assert.Equal(t, true, body["hasOpenAIKey"])
	assert.Equal(t, false, body["hasAnthropicKey"])
	assert.Equal(t, []interface{}{"m1", "m2"}, body["chain"])

	raw, _ := json.Marshal(body)
	assert.NotContains(t, string(raw), testToken)
	assert.NotContains(t, string(raw), "sk-test")
}

func TestDebugAuth(t *testing.T) {
	t.Run("disabled by default", func(t *testing.T) {
		env := newTestEnv(t, testConfig())
		req, _ := http.NewRequest(http.MethodGet, env.http.URL+"/debug-auth", nil)
		resp, _ := do(t, req)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("enabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.Server.DebugAuth = true
		env := newTestEnv(t, cfg)

		req, _ := http.NewRequest(http.MethodGet, env.http.URL+"/debug-auth", nil)
		req.Header.Set("X-Service-Token", testToken)
		resp, body := do(t, req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, false, body["hasAuthHeader"])
		assert.Equal(t, true, body["hasXServiceToken"])
		assert.Equal(t, float64(len(testToken)), body["gotLen"])
		assert.Equal(t, float64(len(testToken)), body["expectedLen"])
		assert.Equal(t, true, body["match"])

		raw, _ := json.Marshal(body)
		assert.NotContains(t, string(raw), testToken)
	})
}

func TestServe_GracefulShutdown(t *testing.T) {
	cfg := testConfig()
	srv := NewServer(cfg, advisor.NewPipelineFromConfig(cfg, advisor.NewInvoker(provider.NewRegistry(nil)), nil),
		zaptest.NewLogger(t).Sugar())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
