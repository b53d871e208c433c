// Package chain submits batchMint transactions to the values NFT contract.
//
// The signing key and backend are passed in explicitly; there is no package
// level client.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// BatchMintABI is the slice of the contract ABI this package calls.
const BatchMintABI = `[{"type":"function","name":"batchMint","stateMutability":"nonpayable",
"inputs":[{"name":"to","type":"address"},{"name":"uri","type":"string"}],"outputs":[]}]`

var (
	ErrInvalidKey      = errors.New("chain: invalid private key")
	ErrInvalidContract = errors.New("chain: invalid contract address")
	ErrInvalidWallet   = errors.New("chain: invalid recipient address")
)

// Backend is what the client needs from a node connection. *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

// Config identifies the signer, contract and chain.
type Config struct {
	PrivateKey string // hex, with or without 0x
	Contract   string
	// ChainID is asked of the node when zero.
	ChainID int64
}

// Client signs and sends batch mints from one key.
type Client struct {
	contract *bind.BoundContract
	auth     *bind.TransactOpts
	closer   func()

	// Serializes sends so pending-nonce lookups do not race.
	mu sync.Mutex
}

// Dial connects to rpcURL and builds a Client over it.
func Dial(ctx context.Context, rpcURL string, cfg Config) (*Client, error) {
	ec, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial: %w", err)
	}
	c, err := New(ctx, ec, cfg)
	if err != nil {
		ec.Close()
		return nil, err
	}
	c.closer = ec.Close
	return c, nil
}

// New builds a Client over an existing backend.
func New(ctx context.Context, backend Backend, cfg Config) (*Client, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKey), "0x"))
	if err != nil {
		return nil, ErrInvalidKey
	}
	if !common.IsHexAddress(cfg.Contract) {
		return nil, ErrInvalidContract
	}

	chainID := big.NewInt(cfg.ChainID)
	if cfg.ChainID == 0 {
		if chainID, err = backend.ChainID(ctx); err != nil {
			return nil, fmt.Errorf("chain: chain id: %w", err)
		}
	}
	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("chain: transactor: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(BatchMintABI))
	if err != nil {
		return nil, fmt.Errorf("chain: abi: %w", err)
	}
	contract := bind.NewBoundContract(common.HexToAddress(cfg.Contract), parsed, backend, backend, backend)
	return &Client{contract: contract, auth: auth}, nil
}

// From returns the signer address.
func (c *Client) From() common.Address { return c.auth.From }

// BatchMint sends batchMint(to, cid) and returns the transaction hash. It
// does not wait for the transaction to be mined.
func (c *Client) BatchMint(ctx context.Context, to string, cid string) (string, error) {
	if !common.IsHexAddress(to) {
		return "", ErrInvalidWallet
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	opts := *c.auth
	opts.Context = ctx
	tx, err := c.contract.Transact(&opts, "batchMint", common.HexToAddress(to), cid)
	if err != nil {
		return "", fmt.Errorf("chain: batchMint: %w", err)
	}
	return tx.Hash().Hex(), nil
}

// Close releases the node connection if Dial opened it.
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}
