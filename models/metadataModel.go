package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Metadata 当前链及其原生币
type Metadata struct {
	Chain    string `json:"chain"`
	Currency string `json:"currency"`
}

// AddMetadataRequest 管理端登记代币元数据的请求体
type AddMetadataRequest struct {
	Chain           string `json:"chain"`
	Currency        string `json:"currency"`
	ContractAddress string `json:"contract_address"`
	Exponent        int32  `json:"exponent"`
	TokenType       string `json:"token_type"`
	Name            string `json:"name"`
}

func (r *AddMetadataRequest) GetChain() string {
	return strings.ToLower(r.Chain)
}

func (r *AddMetadataRequest) GetCurrency() string {
	return strings.ToLower(r.Currency)
}

func (r *AddMetadataRequest) GetContractAddress() string {
	return strings.ToLower(r.ContractAddress)
}

func (r *AddMetadataRequest) GetExponent() int32 {
	return r.Exponent
}

func (r *AddMetadataRequest) GetTokenType() string {
	return strings.ToLower(r.TokenType)
}

func (r *AddMetadataRequest) GetName() string {
	return strings.ToLower(r.Name)
}

// Validate 检查必填字段和合约地址格式，不检查链是否已配置
func (r *AddMetadataRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Chain) == "":
		return errors.New("chain is required")
	case strings.TrimSpace(r.Currency) == "":
		return errors.New("currency is required")
	case !common.IsHexAddress(r.ContractAddress):
		return fmt.Errorf("invalid contract_address %q", r.ContractAddress)
	case r.Exponent < 0 || r.Exponent > 77:
		return fmt.Errorf("exponent %d out of range", r.Exponent)
	case strings.TrimSpace(r.TokenType) == "":
		return errors.New("token_type is required")
	}
	return nil
}

// TokenMetadata 已登记的代币元数据，字段均已规范化
type TokenMetadata struct {
	Chain           string `json:"chain" bson:"chain"`
	Currency        string `json:"currency" bson:"currency"`
	ContractAddress string `json:"contract_address" bson:"contract_address"`
	Exponent        int32  `json:"exponent" bson:"exponent"`
	TokenType       string `json:"token_type" bson:"token_type"`
	Name            string `json:"name" bson:"name"`
}

// Normalized 按请求的访问器生成规范化记录
func (r *AddMetadataRequest) Normalized() TokenMetadata {
	return TokenMetadata{
		Chain:           r.GetChain(),
		Currency:        r.GetCurrency(),
		ContractAddress: r.GetContractAddress(),
		Exponent:        r.GetExponent(),
		TokenType:       r.GetTokenType(),
		Name:            r.GetName(),
	}
}
