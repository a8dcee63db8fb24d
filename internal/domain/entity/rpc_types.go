package entity

import "time"

// Protocol defines the type for RPC protocols.
type Protocol string

// Constants for known protocols.
const (
	ProtocolHTTP    Protocol = "http"
	ProtocolHTTPS   Protocol = "https"
	ProtocolWS      Protocol = "ws"
	ProtocolWSS     Protocol = "wss"
	ProtocolUnknown Protocol = "unknown"
)

// EndpointStatus holds the result of probing a network endpoint before dialing it.
type EndpointStatus struct {
	URL         RPCURL
	Protocol    Protocol
	Healthy     bool
	BlockNumber uint64
	Latency     time.Duration
}
