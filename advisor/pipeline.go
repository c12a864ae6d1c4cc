package advisor

import (
	"context"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/horasecreta/advisor/am"
	"github.com/horasecreta/advisor/errors"
	"github.com/horasecreta/advisor/logger"
)

// Pipeline runs one advisor request from credential check to response
// mapping. It is built once at startup and shared by all requests.
type Pipeline struct {
	auth      *Authenticator
	validator Validator
	invoker   *Invoker
	chain     []ModelAttempt
	logger    *zap.SugaredLogger
}

// NewPipeline assembles a pipeline from its parts
func NewPipeline(auth *Authenticator, validator Validator, invoker *Invoker, chain []ModelAttempt, log *zap.SugaredLogger) *Pipeline {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Pipeline{auth: auth, validator: validator, invoker: invoker, chain: chain, logger: log}
}

// NewPipelineFromConfig builds the authenticator, validator and chain from cfg
func NewPipelineFromConfig(cfg *am.Config, invoker *Invoker, log *zap.SugaredLogger) *Pipeline {
	return NewPipeline(
		NewAuthenticator(cfg.Server.ServiceToken, ComparerFor(cfg.Server.TokenCompare)),
		NewValidator(cfg.Advisor.MinMessageChars, cfg.Advisor.MaxMessageChars),
		invoker,
		ChainFromConfig(cfg.Advisor.Chain),
		log,
	)
}

// Authenticator exposes the credential checker for diagnostics
func (p *Pipeline) Authenticator() *Authenticator { return p.auth }

// Chain returns the configured fallback chain
func (p *Pipeline) Chain() []ModelAttempt { return p.chain }

// Run processes an already decoded request body
func (p *Pipeline) Run(ctx context.Context, headers http.Header, raw RawRequest) Outcome {
	return p.Handle(ctx, headers, func() (RawRequest, error) { return raw, nil })
}

// Handle processes a request whose body is decoded lazily, after the caller
// has been authenticated. A decode error ends the request with 400.
func (p *Pipeline) Handle(ctx context.Context, headers http.Header, decode func() (RawRequest, error)) (out Outcome) {
	log := logger.FromContext(ctx, p.logger)
	state := StateReceived

	defer func() {
		if r := recover(); r != nil {
			log.Errorw("Recovered panic in advisor pipeline",
				logger.FieldState, state.String(),
				"panic", r,
				"stack", string(debug.Stack()))
			out = failure(state, KindInternal, "")
		}
	}()

	switch p.auth.Authenticate(ExtractToken(headers)) {
	case AuthMisconfigured:
		log.Errorw("Service token not configured", logger.FieldState, state.String())
		return failure(state, KindMisconfigured, "")
	case AuthUnauthorized:
		log.Infow("Rejected request with bad credential", logger.FieldState, state.String())
		return failure(state, KindUnauthorized, "")
	}
	state = StateAuthenticated

	raw, err := decode()
	if err != nil {
		log.Infow("Rejected malformed body", logger.FieldError, err.Error())
		return failure(state, KindValidation, MsgInvalidBody)
	}

	req, err := p.validator.Validate(raw)
	if err != nil {
		msg := MsgEmpty
		var ve *ValidationError
		if errors.As(err, &ve) {
			msg = ve.PublicMessage()
		}
		log.Infow("Rejected invalid message", logger.FieldError, err.Error())
		return failure(state, KindValidation, msg)
	}
	state = StateValidated

	prompt := BuildPrompt(req)
	state = StatePromptBuilt

	log.Debugw("Invoking fallback chain",
		logger.FieldMode, string(req.Mode),
		logger.FieldMessageLen, len([]rune(req.Message)))

	res := p.invoker.Invoke(ctx, prompt, p.chain)
	state = StateInvoked

	if !res.OK {
		log.Warnw("Fallback chain exhausted",
			logger.FieldErrorKind, string(res.ErrorKind),
			logger.FieldAttempt, len(res.Attempts),
			logger.FieldError, res.Err)
		out = failure(state, res.ErrorKind, "")
		out.Attempts = res.Attempts
		return out
	}

	state = StateResponded
	return Outcome{
		Status:   http.StatusOK,
		Body:     ResponseBody{OK: true, Text: res.Text, Model: res.ModelUsed},
		State:    state,
		Attempts: res.Attempts,
	}
}
