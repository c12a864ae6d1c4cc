package server

import (
	"net/http"

	"github.com/horasecreta/advisor/advisor"
	"github.com/horasecreta/advisor/logger"
	"github.com/horasecreta/advisor/version"
)

// HealthResponse is the body of GET /health. It carries presence flags and
// lengths only, never secret values.
type HealthResponse struct {
	OK              bool     `json:"ok"`
	Service         string   `json:"service"`
	TS              int64    `json:"ts"`
	HasServiceToken bool     `json:"hasServiceToken"`
	ServiceTokenLen int      `json:"serviceTokenLen"`
	HasOpenAIKey    bool     `json:"hasOpenAIKey"`
	HasAnthropicKey bool     `json:"hasAnthropicKey"`
	Version         string   `json:"version"`
	Chain           []string `json:"chain"`
}

// DebugAuthResponse is the body of GET /debug-auth
type DebugAuthResponse struct {
	OK               bool `json:"ok"`
	HasAuthHeader    bool `json:"hasAuthHeader"`
	HasXServiceToken bool `json:"hasXServiceToken"`
	GotLen           int  `json:"gotLen"`
	ExpectedLen      int  `json:"expectedLen"`
	Match            bool `json:"match"`
}

// HandleHealth serves the liveness probe
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}

	auth := s.pipeline.Authenticator()
	chain := s.pipeline.Chain()
	models := make([]string, 0, len(chain))
	for _, a := range chain {
		models = append(models, a.ModelID)
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		OK:              true,
		Service:         version.ServiceName,
		TS:              s.now().UnixMilli(),
		HasServiceToken: auth.Configured(),
		ServiceTokenLen: auth.SecretLen(),
		HasOpenAIKey:    s.cfg.OpenAI.APIKey != "",
		HasAnthropicKey: s.cfg.Anthropic.APIKey != "",
		Version:         version.Get().Version,
		Chain:           models,
	})
}

// HandleDebugAuth reports how the credential arrived, without echoing it
func (s *Server) HandleDebugAuth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	got := advisor.ExtractToken(r.Header)
	auth := s.pipeline.Authenticator()

	writeJSON(w, http.StatusOK, DebugAuthResponse{
		OK:               true,
		HasAuthHeader:    r.Header.Get("Authorization") != "",
		HasXServiceToken: r.Header.Get("X-Service-Token") != "",
		GotLen:           len(got),
		ExpectedLen:      auth.SecretLen(),
		Match:            auth.Authenticate(got) == advisor.AuthAuthorized,
	})
}

// HandleAdvisor runs the advisor pipeline for one request
func (s *Server) HandleAdvisor(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.GetMaxBodyBytes())
	out := s.pipeline.Handle(r.Context(), r.Header, func() (advisor.RawRequest, error) {
		return decodeAdvisorBody(r.Body)
	})

	if out.Status == http.StatusOK {
		logger.FromContext(r.Context(), s.logger).Infow("Advice served",
			logger.FieldModel, out.Body.Model,
			logger.FieldAttempt, len(out.Attempts))
	}

	if err := writeJSON(w, out.Status, out.Body); err != nil {
		logger.FromContext(r.Context(), s.logger).Debugw("Client went away before response", logger.FieldError, err)
	}
}
