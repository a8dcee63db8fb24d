package entity

import (
	"fmt"
	"net/url"
	"strings"
)

// RPCURL represents a typed URL for an RPC endpoint.
type RPCURL string

// NewRPCURL creates a new RPCURL instance.
func NewRPCURL(rawURL string) (RPCURL, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", fmt.Errorf("rpc url cannot be empty")
	}

	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid rpc url format '%s': %w", rawURL, err)
	}

	switch Protocol(strings.ToLower(u.Scheme)) {
	case ProtocolHTTP, ProtocolHTTPS, ProtocolWS, ProtocolWSS:
	default:
		return "", fmt.Errorf("rpc url '%s' has unsupported scheme: '%s'", rawURL, u.Scheme)
	}

	return RPCURL(rawURL), nil
}

// Protocol returns the protocol implied by the URL scheme.
func (r RPCURL) Protocol() Protocol {
	scheme, _, found := strings.Cut(string(r), "://")
	if !found {
		return ProtocolUnknown
	}
	switch p := Protocol(strings.ToLower(scheme)); p {
	case ProtocolHTTP, ProtocolHTTPS, ProtocolWS, ProtocolWSS:
		return p
	default:
		return ProtocolUnknown
	}
}

// String returns the string representation of the RPCURL.
func (r RPCURL) String() string {
	return string(r)
}
