package entrypoint

import (
	"math/big"
	"strconv"

	"bundler/models"

	"github.com/holiman/uint256"
)

// sourceInt 内部记录允许的整数宽度；新增宽度必须在这里显式加入
type sourceInt interface {
	int64 | uint64
}

// widen 把有界整数无损扩宽为 uint256，负数返回 InvalidFieldError
func widen[T sourceInt](field string, v T) (*big.Int, error) {
	if v < 0 {
		return nil, &InvalidFieldError{Field: field, Value: strconv.FormatInt(int64(v), 10)}
	}
	return uint256.NewInt(uint64(v)).ToBig(), nil
}

// Translate 把内部 UserOperation 转成 EntryPoint 调用参数
func Translate(op models.UserOperation) (UserOperation, error) {
	out := UserOperation{
		Sender:           op.Sender,
		InitCode:         copyBytes(op.InitCode),
		CallData:         copyBytes(op.CallData),
		PaymasterAndData: copyBytes(op.PaymasterAndData),
		Signature:        copyBytes(op.Signature),
	}

	var err error
	if out.Nonce, err = widen("nonce", op.Nonce); err != nil {
		return UserOperation{}, err
	}
	if out.CallGasLimit, err = widen("callGasLimit", op.CallGasLimit); err != nil {
		return UserOperation{}, err
	}
	if out.VerificationGasLimit, err = widen("verificationGasLimit", op.VerificationGasLimit); err != nil {
		return UserOperation{}, err
	}
	if out.PreVerificationGas, err = widen("preVerificationGas", op.PreVerificationGas); err != nil {
		return UserOperation{}, err
	}
	if out.MaxFeePerGas, err = widen("maxFeePerGas", op.MaxFeePerGas); err != nil {
		return UserOperation{}, err
	}
	if out.MaxPriorityFeePerGas, err = widen("maxPriorityFeePerGas", op.MaxPriorityFeePerGas); err != nil {
		return UserOperation{}, err
	}
	return out, nil
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
