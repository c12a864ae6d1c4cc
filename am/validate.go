package am

import "github.com/horasecreta/advisor/errors"

// Validate checks that the configuration is valid.
// Missing credentials are not errors: they surface on /health and per request.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Newf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch c.Server.TokenCompare {
	case "", TokenCompareExact, TokenCompareConstantTime:
	default:
		return errors.Newf("server.token_compare must be %q or %q, got %q",
			TokenCompareExact, TokenCompareConstantTime, c.Server.TokenCompare)
	}

	if c.Server.MaxBodyBytes < 0 {
		return errors.Newf("server.max_body_bytes must be >= 0, got %d", c.Server.MaxBodyBytes)
	}
	if c.Server.ReadTimeoutSeconds < 0 {
		return errors.Newf("server.read_timeout_seconds must be >= 0, got %d", c.Server.ReadTimeoutSeconds)
	}
	if c.Server.ShutdownTimeoutSeconds < 0 {
		return errors.Newf("server.shutdown_timeout_seconds must be >= 0, got %d", c.Server.ShutdownTimeoutSeconds)
	}

	if c.Advisor.MinMessageChars < 1 {
		return errors.Newf("advisor.min_message_chars must be >= 1, got %d", c.Advisor.MinMessageChars)
	}
	if c.Advisor.MinMessageChars >= c.Advisor.MaxMessageChars {
		return errors.Newf("advisor.min_message_chars (%d) must be less than advisor.max_message_chars (%d)",
			c.Advisor.MinMessageChars, c.Advisor.MaxMessageChars)
	}

	if len(c.Advisor.Chain) == 0 {
		return errors.WithHint(
			errors.New("advisor.chain cannot be empty"),
			"add at least one [[advisor.chain]] entry with provider, model, timeout_ms and max_tokens",
		)
	}
	for i, entry := range c.Advisor.Chain {
		switch entry.Provider {
		case ProviderOpenAI, ProviderAnthropic:
		default:
			return errors.Newf("advisor.chain[%d].provider %q is not supported (use %q or %q)",
				i, entry.Provider, ProviderOpenAI, ProviderAnthropic)
		}
		if entry.Model == "" {
			return errors.Newf("advisor.chain[%d].model cannot be empty", i)
		}
		if entry.TimeoutMS <= 0 {
			return errors.Newf("advisor.chain[%d].timeout_ms must be > 0, got %d", i, entry.TimeoutMS)
		}
		if entry.MaxTokens <= 0 {
			return errors.Newf("advisor.chain[%d].max_tokens must be > 0, got %d", i, entry.MaxTokens)
		}
	}

	// 0 disables the write deadline; otherwise it must outlive the worst-case chain
	if c.Server.WriteTimeoutSeconds < 0 {
		return errors.Newf("server.write_timeout_seconds must be >= 0, got %d", c.Server.WriteTimeoutSeconds)
	}
	if w := c.Server.WriteTimeoutSeconds; w > 0 && w*1000 <= c.Advisor.ChainBudgetMS() {
		return errors.WithHintf(
			errors.Newf("server.write_timeout_seconds (%d) does not cover the chain budget (%d ms)",
				w, c.Advisor.ChainBudgetMS()),
			"raise server.write_timeout_seconds above %d", c.Advisor.ChainBudgetMS()/1000+1,
		)
	}

	return nil
}
