// Package chains 保存 bundler 配置的多链信息
//
// Registry 启动时构建一次之后只读，多个 goroutine 可以直接并发读取。
package chains

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"bundler/config"

	"github.com/ethereum/go-ethereum/common"
)

// ErrUnknownChain 链名在注册表中不存在
var ErrUnknownChain = errors.New("unknown chain")

// UnknownChainError 携带未找到的链名
type UnknownChainError struct {
	Chain string
}

func (e *UnknownChainError) Error() string {
	return fmt.Sprintf("unknown chain %q", e.Chain)
}

func (e *UnknownChainError) Is(target error) bool {
	return target == ErrUnknownChain
}

// ChainConfig 单条链解析后的配置
type ChainConfig struct {
	Name       string
	Currency   string
	EntryPoint common.Address
	RPCURL     string
	ChainID    *big.Int
}

// Registry 链名到 ChainConfig 的只读表
type Registry struct {
	chains map[string]ChainConfig
	names  []string
}

// NewRegistry 校验并构建注册表，任何一条链缺字段都返回错误
func NewRegistry(entries map[string]config.ChainSettings) (*Registry, error) {
	if len(entries) == 0 {
		return nil, errors.New("chain registry: no chains declared")
	}

	r := &Registry{chains: make(map[string]ChainConfig, len(entries))}
	for raw, entry := range entries {
		name := normalize(raw)
		if name == "" {
			return nil, errors.New("chain registry: empty chain name")
		}
		if _, dup := r.chains[name]; dup {
			return nil, fmt.Errorf("chain registry: chain %q declared twice", name)
		}

		cfg, err := parseChain(name, entry)
		if err != nil {
			return nil, err
		}
		r.chains[name] = cfg
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

func parseChain(name string, entry config.ChainSettings) (ChainConfig, error) {
	currency := strings.TrimSpace(entry.Currency)
	if currency == "" {
		return ChainConfig{}, fmt.Errorf("chain registry: %s: currency is required", name)
	}
	if !common.IsHexAddress(entry.EntryPointAddress) {
		return ChainConfig{}, fmt.Errorf("chain registry: %s: invalid entrypoint address %q", name, entry.EntryPointAddress)
	}
	address := common.HexToAddress(entry.EntryPointAddress)
	if address == (common.Address{}) {
		return ChainConfig{}, fmt.Errorf("chain registry: %s: entrypoint address is zero", name)
	}
	rpcURL := strings.TrimSpace(entry.RPCURL)
	if rpcURL == "" {
		return ChainConfig{}, fmt.Errorf("chain registry: %s: rpc_url is required", name)
	}
	if entry.ChainID <= 0 {
		return ChainConfig{}, fmt.Errorf("chain registry: %s: chain_id must be positive", name)
	}

	return ChainConfig{
		Name:       name,
		Currency:   currency,
		EntryPoint: address,
		RPCURL:     rpcURL,
		ChainID:    big.NewInt(entry.ChainID),
	}, nil
}

// Resolve 按链名查找配置
func (r *Registry) Resolve(name string) (ChainConfig, error) {
	cfg, ok := r.chains[normalize(name)]
	if !ok {
		return ChainConfig{}, &UnknownChainError{Chain: name}
	}
	// ChainID 是指针，返回副本避免调用方改动注册表
	cfg.ChainID = new(big.Int).Set(cfg.ChainID)
	return cfg, nil
}

// Names 返回排序后的链名
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
