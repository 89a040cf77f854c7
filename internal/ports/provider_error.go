package ports

import "fmt"

// ProviderErrorKind classifies how an external provider call failed.
type ProviderErrorKind string

const (
	ProviderUnreachable ProviderErrorKind = "unreachable"
	ProviderTimeout     ProviderErrorKind = "timeout"
	ProviderBadResponse ProviderErrorKind = "bad_response"
	ProviderRateLimited ProviderErrorKind = "rate_limited"
)

// ProviderError is the typed failure every gateway returns. Gateways never
// retry; callers decide whether a given kind warrants a fallback.
type ProviderError struct {
	Provider string
	Kind     ProviderErrorKind
	Detail   string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("provider %s: %s: %s", e.Provider, e.Kind, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Kind)
}

func (e *ProviderError) Unwrap() error { return e.Err }
