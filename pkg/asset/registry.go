package asset

import (
	"crypto/ecdsa"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"

	"swap-exec/pkg/settlement"
)

// Registry resolves asset references (token contract addresses) to ERC20
// adapters. Adapters share one RPC client and signing key and are cached
// per token.
type Registry struct {
	client     *ethclient.Client
	privateKey *ecdsa.PrivateKey
	config     Config

	mu       sync.Mutex
	adapters map[string]*ERC20
}

// NewRegistry creates a registry backed by the given RPC client and key.
func NewRegistry(client *ethclient.Client, privateKey *ecdsa.PrivateKey, cfg Config) *Registry {
	return &Registry{
		client:     client,
		privateKey: privateKey,
		config:     cfg,
		adapters:   make(map[string]*ERC20),
	}
}

// Asset returns the value-transfer surface for the token at ref.
func (r *Registry) Asset(ref string) (settlement.Asset, error) {
	adapter, err := r.ERC20(ref)
	if err != nil {
		return nil, err
	}
	return adapter, nil
}

// ERC20 returns the concrete adapter for the token at ref, for callers that
// need balance and allowance reads beyond the settlement surface.
func (r *Registry) ERC20(ref string) (*ERC20, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if adapter, exists := r.adapters[ref]; exists {
		return adapter, nil
	}

	adapter, err := NewERC20(r.client, ref, r.privateKey, r.config)
	if err != nil {
		return nil, fmt.Errorf("asset %s: %w", ref, err)
	}

	r.adapters[ref] = adapter
	return adapter, nil
}
