package chains

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Connections 每条链一个 RPC 客户端，启动时建立
type Connections struct {
	clients map[string]*ethclient.Client
}

// Dial 为注册表中的每条链建立 RPC 客户端，任意一条失败都关闭已建立的连接
func Dial(ctx context.Context, reg *Registry) (*Connections, error) {
	conns := &Connections{clients: make(map[string]*ethclient.Client, len(reg.names))}
	for _, name := range reg.names {
		cfg := reg.chains[name]
		client, err := ethclient.DialContext(ctx, cfg.RPCURL)
		if err != nil {
			conns.Close()
			return nil, fmt.Errorf("failed to connect to %s rpc: %w", name, err)
		}
		conns.clients[name] = client
	}
	return conns, nil
}

// Conn 返回链对应的连接
func (c *Connections) Conn(chain string) (bind.ContractBackend, error) {
	client, ok := c.clients[normalize(chain)]
	if !ok {
		return nil, &UnknownChainError{Chain: chain}
	}
	return client, nil
}

func (c *Connections) Close() {
	for _, client := range c.clients {
		client.Close()
	}
}
