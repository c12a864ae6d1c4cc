// Package advisor is the request pipeline of the gateway: it authenticates the
// caller, validates the message, renders the persona prompt and walks the
// fallback chain of upstream models until one of them answers.
package advisor

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/horasecreta/advisor/ai/llm"
	"github.com/horasecreta/advisor/am"
)

// Mode selects the prompt template
type Mode string

const (
	ModeBiblico Mode = "biblico"
	ModeNeutro  Mode = "neutro"

	// DefaultMode is used for empty or unrecognized modes
	DefaultMode = ModeBiblico
)

// ParseMode trims and lower-cases s. Anything outside the known set collapses
// to DefaultMode; a mode never fails a request.
func ParseMode(s string) Mode {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeBiblico, ModeNeutro:
		return m
	default:
		return DefaultMode
	}
}

// RawRequest is the decoded POST /advisor body before validation
type RawRequest struct {
	Message string `json:"message"`
	Mode    string `json:"mode,omitempty"`
}

// UnmarshalJSON keeps a mode only when it is a JSON string. Numbers, booleans
// and arrays decode to an empty mode, which ParseMode maps to DefaultMode.
func (r *RawRequest) UnmarshalJSON(b []byte) error {
	var wire struct {
		Message string          `json:"message"`
		Mode    json.RawMessage `json:"mode"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}

	var mode string
	if len(wire.Mode) > 0 && json.Unmarshal(wire.Mode, &mode) != nil {
		mode = ""
	}
	*r = RawRequest{Message: wire.Message, Mode: mode}
	return nil
}

// AdvisorRequest is a validated, normalized request
type AdvisorRequest struct {
	Message string
	Mode    Mode
}

// Prompt is the rendered input for the upstream model
type Prompt struct {
	SystemInstructions string
	UserContent        string
}

// ModelAttempt is one entry of the fallback chain
type ModelAttempt struct {
	Provider        string
	ModelID         string
	TimeoutMS       int
	MaxOutputTokens int
}

// Timeout returns the per-attempt deadline
func (a ModelAttempt) Timeout() time.Duration {
	return time.Duration(a.TimeoutMS) * time.Millisecond
}

// ChainFromConfig converts the configured chain into attempts
func ChainFromConfig(entries []am.ModelAttemptConfig) []ModelAttempt {
	chain := make([]ModelAttempt, 0, len(entries))
	for _, e := range entries {
		provider := e.Provider
		if provider == "" {
			provider = am.ProviderOpenAI
		}
		chain = append(chain, ModelAttempt{
			Provider:        provider,
			ModelID:         e.Model,
			TimeoutMS:       e.TimeoutMS,
			MaxOutputTokens: e.MaxTokens,
		})
	}
	return chain
}

// ErrorKind classifies a terminal pipeline failure
type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindMisconfigured     ErrorKind = "misconfigured_server"
	KindUnauthorized      ErrorKind = "unauthorized"
	KindValidation        ErrorKind = "validation_error"
	KindUpstreamTimeout   ErrorKind = "upstream_timeout"
	KindUpstreamExhausted ErrorKind = "upstream_exhausted"
	KindInternal          ErrorKind = "internal_error"
)

// Caller-facing messages. They never carry error detail.
const (
	MsgMisconfigured     = "SERVICE_TOKEN não configurado no servidor."
	MsgUnauthorized      = "Não autorizado."
	MsgEmpty             = "Mensagem vazia."
	MsgTooShort          = "Mensagem muito curta."
	MsgTooLong           = "Mensagem muito longa."
	MsgInvalidBody       = "Corpo da requisição inválido."
	MsgUpstreamTimeout   = "Tempo esgotado ao consultar o serviço de IA."
	MsgUpstreamExhausted = "Serviço de IA indisponível no momento."
	MsgInternal          = "Erro interno no serviço."
)

// Status returns the HTTP status for a terminal failure of this kind
func (k ErrorKind) Status() int {
	switch k {
	case KindNone:
		return http.StatusOK
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	case KindUpstreamExhausted:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the fixed caller-facing message for the kind
func (k ErrorKind) Message() string {
	switch k {
	case KindMisconfigured:
		return MsgMisconfigured
	case KindUnauthorized:
		return MsgUnauthorized
	case KindValidation:
		return MsgEmpty
	case KindUpstreamTimeout:
		return MsgUpstreamTimeout
	case KindUpstreamExhausted:
		return MsgUpstreamExhausted
	default:
		return MsgInternal
	}
}

// AttemptOutcome describes how a single chain entry ended
type AttemptOutcome struct {
	Index     int
	Provider  string
	Model     string
	StartedAt time.Time
	Duration  time.Duration
	TimeoutMS int
	MaxTokens int
	Usage     llm.Usage

	// Failure is one of the llm.Failure* kinds, empty on success
	Failure string
	Err     error
}

// OK reports whether the attempt produced text
func (o AttemptOutcome) OK() bool { return o.Failure == "" }

// InvocationResult is what the invoker hands back to the pipeline
type InvocationResult struct {
	OK        bool
	Text      string
	ModelUsed string
	ErrorKind ErrorKind
	Err       error
	Attempts  []AttemptOutcome
}

// State is a step of the request pipeline
type State int

const (
	StateReceived State = iota
	StateAuthenticated
	StateValidated
	StatePromptBuilt
	StateInvoked
	StateResponded
)

var stateNames = [...]string{"received", "authenticated", "validated", "prompt_built", "invoked", "responded"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// ResponseBody is the JSON payload of POST /advisor
type ResponseBody struct {
	OK    bool   `json:"ok"`
	Text  string `json:"text,omitempty"`
	Model string `json:"model,omitempty"`
	Error string `json:"error,omitempty"`
}

// Outcome is the terminal result of one pipeline run
type Outcome struct {
	Status   int
	Body     ResponseBody
	State    State
	Kind     ErrorKind
	Attempts []AttemptOutcome
}

func failure(state State, kind ErrorKind, msg string) Outcome {
	if msg == "" {
		msg = kind.Message()
	}
	return Outcome{
		Status: kind.Status(),
		Body:   ResponseBody{OK: false, Error: msg},
		State:  state,
		Kind:   kind,
	}
}
