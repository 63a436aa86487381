package entrypoint

import (
	"bytes"
	_ "embed"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// EntryPoint v0.6 合约接口，abi/EntryPoint.json 是唯一来源
//
//go:embed abi/EntryPoint.json
var entryPointABIJSON []byte

// 已部署 v0.6 合约的标准函数签名
const (
	userOpTuple      = "(address,uint256,bytes,bytes,uint256,uint256,uint256,uint256,uint256,bytes,bytes)"
	HandleOpsSig     = "handleOps(" + userOpTuple + "[],address)"
	GetUserOpHashSig = "getUserOpHash(" + userOpTuple + ")"
	GetNonceSig      = "getNonce(address,uint192)"
	BalanceOfSig     = "balanceOf(address)"
)

var entryPointABI = mustParseABI(entryPointABIJSON)

func mustParseABI(data []byte) abi.ABI {
	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		panic(fmt.Sprintf("entrypoint: embedded ABI is malformed: %v", err))
	}
	return parsed
}

// ABI 返回解析后的 EntryPoint ABI
func ABI() abi.ABI {
	return entryPointABI
}

// VerifyABI 校验嵌入的 ABI 与部署合约的函数签名一致
func VerifyABI() error {
	return verifyMethods(entryPointABI, map[string]string{
		"handleOps":     HandleOpsSig,
		"getUserOpHash": GetUserOpHashSig,
		"getNonce":      GetNonceSig,
		"balanceOf":     BalanceOfSig,
	})
}

func verifyMethods(parsed abi.ABI, want map[string]string) error {
	for name, sig := range want {
		method, ok := parsed.Methods[name]
		if !ok {
			return fmt.Errorf("entrypoint ABI: method %s missing", name)
		}
		if method.Sig != sig {
			return fmt.Errorf("entrypoint ABI: method %s has signature %s, want %s", name, method.Sig, sig)
		}
	}
	return nil
}

// UserOperation EntryPoint 合约的 UserOperation 结构（ABI tuple）
type UserOperation struct {
	Sender               common.Address
	Nonce                *big.Int
	InitCode             []byte
	CallData             []byte
	CallGasLimit         *big.Int
	VerificationGasLimit *big.Int
	PreVerificationGas   *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	PaymasterAndData     []byte
	Signature            []byte
}

// EntryPoint 绑定到某个地址的合约客户端
type EntryPoint struct {
	address  common.Address
	contract *bind.BoundContract
}

// NewEntryPoint 绑定合约地址，不发起任何网络请求
func NewEntryPoint(address common.Address, backend bind.ContractBackend) *EntryPoint {
	return &EntryPoint{
		address:  address,
		contract: bind.NewBoundContract(address, entryPointABI, backend, backend, backend),
	}
}

func (ep *EntryPoint) Address() common.Address {
	return ep.address
}

// HandleOps 发送 handleOps 交易（selector 0x1fad948c）
func (ep *EntryPoint) HandleOps(opts *bind.TransactOpts, ops []UserOperation, beneficiary common.Address) (*types.Transaction, error) {
	return ep.contract.Transact(opts, "handleOps", ops, beneficiary)
}

// GetUserOpHash 只读调用 getUserOpHash
func (ep *EntryPoint) GetUserOpHash(opts *bind.CallOpts, op UserOperation) ([32]byte, error) {
	var out []interface{}
	if err := ep.contract.Call(opts, &out, "getUserOpHash", op); err != nil {
		return [32]byte{}, err
	}
	return *abi.ConvertType(out[0], new([32]byte)).(*[32]byte), nil
}

// GetNonce 只读调用 getNonce
func (ep *EntryPoint) GetNonce(opts *bind.CallOpts, sender common.Address, key *big.Int) (*big.Int, error) {
	var out []interface{}
	if err := ep.contract.Call(opts, &out, "getNonce", sender, key); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// BalanceOf 只读调用 balanceOf
func (ep *EntryPoint) BalanceOf(opts *bind.CallOpts, account common.Address) (*big.Int, error) {
	var out []interface{}
	if err := ep.contract.Call(opts, &out, "balanceOf", account); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
