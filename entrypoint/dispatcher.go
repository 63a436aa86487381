package entrypoint

import (
	"context"
	"errors"
	"math/big"

	"bundler/chains"
	"bundler/metrics"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// ChainResolver 解析链配置，*chains.Registry 实现了它
type ChainResolver interface {
	Resolve(name string) (chains.ChainConfig, error)
}

// Receipt 已被节点接受的 handleOps 交易
type Receipt struct {
	Chain      string         `json:"chain"`
	EntryPoint common.Address `json:"entryPoint"`
	TxHash     common.Hash    `json:"transactionHash"`
}

// Dispatcher 把链配置和连接绑定成可调用的 EntryPoint 客户端
type Dispatcher struct {
	registry ChainResolver
	signer   *Signer
	logger   *zap.Logger
}

// NewDispatcher 启动时调用，嵌入的 ABI 与合约签名不一致时返回错误
func NewDispatcher(registry ChainResolver, signer *Signer, logger *zap.Logger) (*Dispatcher, error) {
	if registry == nil {
		return nil, errors.New("dispatcher: registry is nil")
	}
	if signer == nil {
		return nil, errors.New("dispatcher: signer is nil")
	}
	if err := VerifyABI(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{registry: registry, signer: signer, logger: logger}, nil
}

// Bind 解析链的 EntryPoint 地址并绑定连接，不发起网络请求
func (d *Dispatcher) Bind(chain string, conn bind.ContractBackend) (*Client, error) {
	cfg, err := d.registry.Resolve(chain)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, errors.New("dispatcher: connection is nil")
	}
	return &Client{
		chain:    cfg,
		contract: NewEntryPoint(cfg.EntryPoint, conn),
		signer:   d.signer,
		logger:   d.logger.With(zap.String("chain", cfg.Name)),
	}, nil
}

// Client 绑定到某条链 EntryPoint 的客户端
type Client struct {
	chain    chains.ChainConfig
	contract *EntryPoint
	signer   *Signer
	logger   *zap.Logger
}

func (c *Client) Chain() chains.ChainConfig {
	return c.chain
}

func (c *Client) Address() common.Address {
	return c.contract.Address()
}

// Submit 以单个 UserOperation 调用 handleOps，不做重试
func (c *Client) Submit(ctx context.Context, params UserOperation) (*Receipt, error) {
	opts, err := c.signer.TransactOpts(ctx, c.chain.ChainID)
	if err != nil {
		metrics.Submissions.WithLabelValues(c.chain.Name, Terminal.String()).Inc()
		return nil, &DispatchError{Chain: c.chain.Name, Kind: Terminal, Err: err}
	}

	tx, err := c.contract.HandleOps(opts, []UserOperation{params}, c.signer.Beneficiary())
	if err != nil {
		derr := classify(c.chain.Name, err)
		metrics.Submissions.WithLabelValues(c.chain.Name, derr.Kind.String()).Inc()
		c.logger.Debug("handleOps submission failed",
			zap.Stringer("sender", params.Sender),
			zap.Stringer("kind", derr.Kind),
			zap.Error(err),
		)
		return nil, derr
	}

	metrics.Submissions.WithLabelValues(c.chain.Name, "ok").Inc()
	c.logger.Debug("handleOps submitted",
		zap.Stringer("sender", params.Sender),
		zap.Stringer("tx", tx.Hash()),
	)
	return &Receipt{
		Chain:      c.chain.Name,
		EntryPoint: c.contract.Address(),
		TxHash:     tx.Hash(),
	}, nil
}

// UserOpHash 调用 getUserOpHash
func (c *Client) UserOpHash(ctx context.Context, params UserOperation) (common.Hash, error) {
	hash, err := c.contract.GetUserOpHash(&bind.CallOpts{Context: ctx}, params)
	if err != nil {
		return common.Hash{}, classify(c.chain.Name, err)
	}
	return common.Hash(hash), nil
}

// Nonce 调用 getNonce，key 为 nil 时使用默认 key 0
func (c *Client) Nonce(ctx context.Context, sender common.Address, key *big.Int) (*big.Int, error) {
	if key == nil {
		key = new(big.Int)
	}
	nonce, err := c.contract.GetNonce(&bind.CallOpts{Context: ctx}, sender, key)
	if err != nil {
		return nil, classify(c.chain.Name, err)
	}
	return nonce, nil
}
