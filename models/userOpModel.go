package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// UserOperation 内部使用的 UserOperation 记录
//
// 整数字段沿用上游的 64 位有符号表示，非负由上游保证；
// 转换成 EntryPoint 参数时由 entrypoint.Translate 做检查。
type UserOperation struct {
	Sender               common.Address
	Nonce                int64
	InitCode             []byte
	CallData             []byte
	CallGasLimit         int64
	VerificationGasLimit int64
	PreVerificationGas   int64
	MaxFeePerGas         int64
	MaxPriorityFeePerGas int64
	PaymasterAndData     []byte
	Signature            []byte
}

// Quantity 请求中的整数字段，接受 "0x" 十六进制字符串或 JSON 数字
type Quantity struct {
	v uint256.Int
}

// NewQuantity 用于测试和内部构造
func NewQuantity(v uint64) Quantity {
	var q Quantity
	q.v.SetUint64(v)
	return q
}

func (q *Quantity) UnmarshalJSON(input []byte) error {
	input = bytes.TrimSpace(input)
	if len(input) == 0 || bytes.Equal(input, []byte("null")) {
		return errors.New("quantity is required")
	}

	var (
		parsed *uint256.Int
		err    error
	)
	if input[0] == '"' {
		var s string
		if err := json.Unmarshal(input, &s); err != nil {
			return err
		}
		if strings.HasPrefix(s, "-") {
			return fmt.Errorf("invalid quantity %s: negative", s)
		}
		if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
			parsed, err = uint256.FromDecimal(s)
		} else {
			parsed, err = uint256.FromHex(s)
		}
	} else {
		if input[0] == '-' {
			return fmt.Errorf("invalid quantity %s: negative", input)
		}
		parsed, err = uint256.FromDecimal(string(input))
	}
	if err != nil {
		return fmt.Errorf("invalid quantity %s: %w", input, err)
	}
	q.v = *parsed
	return nil
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.v.Hex())
}

// Int64 返回 64 位表示，超出范围时报错而不是截断
func (q Quantity) Int64() (int64, error) {
	if !q.v.IsUint64() || q.v.Uint64() > math.MaxInt64 {
		return 0, fmt.Errorf("quantity %s exceeds 64-bit range", q.v.Hex())
	}
	return int64(q.v.Uint64()), nil
}

// UserOperationRequest POST /userOp 的请求体
type UserOperationRequest struct {
	Chain                string         `json:"chain,omitempty"`
	Sender               common.Address `json:"sender"`
	Nonce                Quantity       `json:"nonce"`
	InitCode             hexutil.Bytes  `json:"initCode"`
	CallData             hexutil.Bytes  `json:"callData"`
	CallGasLimit         Quantity       `json:"callGasLimit"`
	VerificationGasLimit Quantity       `json:"verificationGasLimit"`
	PreVerificationGas   Quantity       `json:"preVerificationGas"`
	MaxFeePerGas         Quantity       `json:"maxFeePerGas"`
	MaxPriorityFeePerGas Quantity       `json:"maxPriorityFeePerGas"`
	PaymasterAndData     hexutil.Bytes  `json:"paymasterAndData"`
	Signature            hexutil.Bytes  `json:"signature"`
}

// ToUserOperation 转换为内部记录
func (r *UserOperationRequest) ToUserOperation() (UserOperation, error) {
	if r.Sender == (common.Address{}) {
		return UserOperation{}, errors.New("sender is required")
	}
	op := UserOperation{
		Sender:           r.Sender,
		InitCode:         []byte(r.InitCode),
		CallData:         []byte(r.CallData),
		PaymasterAndData: []byte(r.PaymasterAndData),
		Signature:        []byte(r.Signature),
	}

	fields := []struct {
		name string
		src  Quantity
		dst  *int64
	}{
		{"nonce", r.Nonce, &op.Nonce},
		{"callGasLimit", r.CallGasLimit, &op.CallGasLimit},
		{"verificationGasLimit", r.VerificationGasLimit, &op.VerificationGasLimit},
		{"preVerificationGas", r.PreVerificationGas, &op.PreVerificationGas},
		{"maxFeePerGas", r.MaxFeePerGas, &op.MaxFeePerGas},
		{"maxPriorityFeePerGas", r.MaxPriorityFeePerGas, &op.MaxPriorityFeePerGas},
	}
	for _, f := range fields {
		v, err := f.src.Int64()
		if err != nil {
			return UserOperation{}, fmt.Errorf("invalid %s: %w", f.name, err)
		}
		*f.dst = v
	}
	return op, nil
}
