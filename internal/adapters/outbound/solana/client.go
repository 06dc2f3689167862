// Package solana implements the OracleSource interface over Solana JSON-RPC.
// It provides account snapshots with:
//   - Rate limiting to stay within the RPC provider's request budget
//   - Automatic retry with exponential backoff for transient failures
//   - Mapping of missing accounts to outbound.ErrAccountNotFound
package solana

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/time/rate"

	"github.com/archon-research/answer-relay/internal/domain/entity"
	"github.com/archon-research/answer-relay/internal/pkg/retry"
	"github.com/archon-research/answer-relay/internal/ports/outbound"
)

// Compile-time check that Client implements outbound.OracleSource.
var _ outbound.OracleSource = (*Client)(nil)

// rpcAPI is the subset of the solana-go RPC client used by Client.
type rpcAPI interface {
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
}

// ClientConfig holds configuration for the Solana RPC client.
type ClientConfig struct {
	// Endpoint is the JSON-RPC URL of the origin cluster.
	Endpoint string

	// Commitment is the commitment level accounts are read at.
	// Defaults to confirmed.
	Commitment rpc.CommitmentType

	// RequestsPerSecond bounds the request rate. Defaults to 10.
	RequestsPerSecond float64

	// Timeout bounds a single RPC request.
	Timeout time.Duration

	// Retry controls backoff for transient failures.
	Retry retry.Config

	// Logger is the structured logger for the client.
	Logger *slog.Logger
}

// ClientConfigDefaults returns a config with default values.
func ClientConfigDefaults() ClientConfig {
	return ClientConfig{
		Endpoint:          rpc.MainNetBeta_RPC,
		Commitment:        rpc.CommitmentConfirmed,
		RequestsPerSecond: 10,
		Timeout:           10 * time.Second,
		Retry: retry.Config{
			MaxRetries:     3,
			InitialBackoff: 250 * time.Millisecond,
			MaxBackoff:     5 * time.Second,
			BackoffFactor:  2.0,
			Jitter:         true,
		},
		Logger: slog.Default(),
	}
}

// Client implements OracleSource using a Solana RPC node.
type Client struct {
	rpc     rpcAPI
	config  ClientConfig
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a client for the configured endpoint.
func NewClient(config ClientConfig) (*Client, error) {
	applyDefaults(&config, ClientConfigDefaults())
	if config.Endpoint == "" {
		return nil, errors.New("endpoint is required")
	}
	return newClient(rpc.New(config.Endpoint), config)
}

func newClient(api rpcAPI, config ClientConfig) (*Client, error) {
	if api == nil {
		return nil, errors.New("rpc client is required")
	}
	applyDefaults(&config, ClientConfigDefaults())

	return &Client{
		rpc:     api,
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
		logger:  config.Logger.With("component", "solana-client"),
	}, nil
}

func applyDefaults(config *ClientConfig, defaults ClientConfig) {
	if config.Commitment == "" {
		config.Commitment = defaults.Commitment
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.Retry.MaxRetries == 0 {
		config.Retry = defaults.Retry
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
}

// FetchAccount returns the account at addr as seen by the cluster. Fetched
// accounts are never writable by a relay invocation.
func (c *Client) FetchAccount(ctx context.Context, addr solana.PublicKey) (*outbound.FetchedAccount, error) {
	onRetry := func(attempt int, err error, backoff time.Duration) {
		c.logger.Warn("retrying account fetch",
			"address", addr.String(),
			"attempt", attempt,
			"backoff", backoff,
			"error", err)
	}

	isRetryable := func(err error) bool {
		return ctx.Err() == nil && !errors.Is(err, rpc.ErrNotFound)
	}

	res, err := retry.Do(ctx, c.config.Retry, isRetryable, onRetry, func(ctx context.Context) (*rpc.GetAccountInfoResult, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
		return c.rpc.GetAccountInfoWithOpts(reqCtx, addr, &rpc.GetAccountInfoOpts{
			Encoding:   solana.EncodingBase64,
			Commitment: c.config.Commitment,
		})
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", outbound.ErrAccountNotFound, addr)
		}
		return nil, fmt.Errorf("fetching account %s: %w", addr, err)
	}
	if res == nil || res.Value == nil {
		return nil, fmt.Errorf("%w: %s", outbound.ErrAccountNotFound, addr)
	}

	var data []byte
	if res.Value.Data != nil {
		data = res.Value.Data.GetBinary()
	}

	account := &entity.Account{
		Address: addr,
		Owner:   res.Value.Owner,
		Data:    data,
	}
	return &outbound.FetchedAccount{Account: account.Clone(), Slot: res.Context.Slot}, nil
}
