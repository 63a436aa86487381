package entrypoint

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer bundler 自己的签名账户
type Signer struct {
	key         *ecdsa.PrivateKey
	from        common.Address
	beneficiary common.Address
	gasLimit    uint64
}

// NewSigner 从十六进制私钥创建签名者，beneficiary 为空时手续费归签名账户
func NewSigner(hexKey, beneficiary string, gasLimit uint64) (*Signer, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, errors.New("signer: private key is empty")
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("signer: error converting private key: %w", err)
	}

	s := &Signer{
		key:      key,
		from:     crypto.PubkeyToAddress(key.PublicKey),
		gasLimit: gasLimit,
	}
	s.beneficiary = s.from
	if beneficiary != "" {
		if !common.IsHexAddress(beneficiary) {
			return nil, fmt.Errorf("signer: invalid beneficiary %q", beneficiary)
		}
		s.beneficiary = common.HexToAddress(beneficiary)
	}
	return s, nil
}

func (s *Signer) Address() common.Address {
	return s.from
}

func (s *Signer) Beneficiary() common.Address {
	return s.beneficiary
}

// TransactOpts 为指定链生成交易选项，ctx 会传递到底层 RPC
func (s *Signer) TransactOpts(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(s.key, chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	opts.GasLimit = s.gasLimit
	return opts, nil
}
