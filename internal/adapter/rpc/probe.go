package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"isotop-deployer/internal/config"
	"isotop-deployer/internal/domain/entity"
	domainService "isotop-deployer/internal/domain/service"
	"isotop-deployer/internal/pkg/apperrors"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainService.EndpointProbe = (*Probe)(nil)

const defaultProbeTimeout = 10 * time.Second

// probePayload asks the node for its head block number.
var probePayload = []byte(`{"jsonrpc":"2.0","method":"eth_blockNumber","params":[],"id":1}`)

// envelope is the subset of a JSON-RPC response the probe inspects.
type envelope struct {
	Jsonrpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Probe implements domainService.EndpointProbe over HTTP(S) with fasthttp and WS(S) with gorilla/websocket.
type Probe struct {
	client  *fasthttp.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewProbe creates a new endpoint probe.
func NewProbe(cfg config.ProbeConfig, logger *zap.Logger) *Probe {
	timeout := cfg.GetTimeout()
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &Probe{
		client: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		timeout: timeout,
		logger:  logger.Named("EndpointProbe"),
	}
}

// Probe sends eth_blockNumber to the endpoint and reports whether it answered correctly.
func (p *Probe) Probe(ctx context.Context, rpcURL entity.RPCURL) (entity.EndpointStatus, error) {
	status := entity.EndpointStatus{URL: rpcURL, Protocol: rpcURL.Protocol()}
	timeout := p.effectiveTimeout(ctx)
	start := time.Now()

	var (
		body []byte
		err  error
	)
	switch status.Protocol {
	case entity.ProtocolHTTP, entity.ProtocolHTTPS:
		body, err = p.callHTTP(rpcURL.String(), timeout)
	case entity.ProtocolWS, entity.ProtocolWSS:
		body, err = p.callWS(ctx, rpcURL.String(), timeout)
	default:
		return status, fmt.Errorf("%w: unsupported protocol in URL %s", apperrors.ErrInvalidInput, rpcURL)
	}
	status.Latency = time.Since(start)
	if err != nil {
		p.logger.Debug("Endpoint probe failed", zap.String("url", rpcURL.String()), zap.Error(err))
		return status, err
	}

	head, err := parseBlockNumber(rpcURL.String(), body)
	if err != nil {
		p.logger.Debug("Endpoint returned an unusable response",
			zap.String("url", rpcURL.String()), zap.ByteString("body", body), zap.Error(err),
		)
		return status, err
	}

	status.Healthy = true
	status.BlockNumber = head
	p.logger.Debug("Endpoint healthy",
		zap.String("url", rpcURL.String()),
		zap.Uint64("blockNumber", head),
		zap.Duration("latency", status.Latency),
	)
	return status, nil
}

// effectiveTimeout is the configured timeout, shortened by the context deadline.
func (p *Probe) effectiveTimeout(ctx context.Context) time.Duration {
	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	return timeout
}

func (p *Probe) callHTTP(rpcURL string, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: no time left to probe %s", apperrors.ErrTimeout, rpcURL)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(rpcURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(probePayload)

	if err := p.client.DoTimeout(req, resp, timeout); err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			return nil, fmt.Errorf("%w: http request to %s timed out after %v: %v",
				apperrors.ErrTimeout, rpcURL, timeout, err,
			)
		}
		return nil, fmt.Errorf("%w: http request to %s failed: %v",
			apperrors.ErrExternalServiceFailure, rpcURL, err,
		)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("%w: rpc %s returned non-OK http status: %d",
			apperrors.ErrExternalServiceFailure, rpcURL, resp.StatusCode(),
		)
	}

	// resp is released on return, so the body must be copied out.
	return append([]byte(nil), resp.Body()...), nil
}

func (p *Probe) callWS(ctx context.Context, rpcURL string, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: no time left to probe %s", apperrors.ErrTimeout, rpcURL)
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: timeout,
	}

	conn, _, err := dialer.DialContext(ctx, rpcURL, nil)
	if err != nil {
		return nil, wrapContextErr(ctx, fmt.Sprintf("wss dial to %s", rpcURL), err)
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	_ = conn.SetWriteDeadline(deadline)
	_ = conn.SetReadDeadline(deadline)

	if err := conn.WriteMessage(websocket.TextMessage, probePayload); err != nil {
		return nil, wrapContextErr(ctx, fmt.Sprintf("wss write to %s", rpcURL), err)
	}

	_, message, err := conn.ReadMessage()
	if err != nil {
		return nil, wrapContextErr(ctx, fmt.Sprintf("wss read from %s", rpcURL), err)
	}
	return message, nil
}

// wrapContextErr classifies a websocket failure as a timeout when the context expired.
func wrapContextErr(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s timed out: %v", apperrors.ErrTimeout, op, err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s timed out: %v", apperrors.ErrTimeout, op, err)
	}
	return fmt.Errorf("%w: %s failed: %v", apperrors.ErrExternalServiceFailure, op, err)
}

// parseBlockNumber validates the JSON-RPC envelope and decodes the hex block number.
func parseBlockNumber(rpcURL string, body []byte) (uint64, error) {
	var resp envelope
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("%w: rpc %s returned invalid JSON response: %v",
			apperrors.ErrExternalServiceFailure, rpcURL, err,
		)
	}

	if resp.Error != nil {
		return 0, fmt.Errorf("%w: rpc %s returned json-rpc error: %d %s",
			apperrors.ErrExternalServiceFailure, rpcURL, resp.Error.Code, resp.Error.Message,
		)
	}

	if resp.Jsonrpc != "2.0" || resp.Result == nil {
		return 0, fmt.Errorf("%w: rpc %s returned invalid JSON-RPC structure",
			apperrors.ErrExternalServiceFailure, rpcURL,
		)
	}

	var hexHead string
	if err := json.Unmarshal(resp.Result, &hexHead); err != nil {
		return 0, fmt.Errorf("%w: rpc %s returned a non-string block number: %v",
			apperrors.ErrExternalServiceFailure, rpcURL, err,
		)
	}
	head, err := hexutil.DecodeUint64(hexHead)
	if err != nil {
		return 0, fmt.Errorf("%w: rpc %s returned malformed block number %q: %v",
			apperrors.ErrExternalServiceFailure, rpcURL, hexHead, err,
		)
	}
	return head, nil
}
