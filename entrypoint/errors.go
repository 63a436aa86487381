package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	// ErrInvalidFieldValue 字段值无法无损扩宽（例如负数）
	ErrInvalidFieldValue = errors.New("invalid field value")
	// ErrDispatch 提交到 EntryPoint 失败
	ErrDispatch = errors.New("entrypoint dispatch failed")
)

// InvalidFieldError 指明哪个字段不合法
type InvalidFieldError struct {
	Field string
	Value string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid value %s for field %s", e.Value, e.Field)
}

func (e *InvalidFieldError) Is(target error) bool {
	return target == ErrInvalidFieldValue
}

// DispatchKind 区分可重试和不可重试的提交失败
type DispatchKind int

const (
	// Transient 连接失败、超时，调用方可以决定重试
	Transient DispatchKind = iota + 1
	// Terminal 合约 revert 或节点拒绝，重试没有意义
	Terminal
)

func (k DispatchKind) String() string {
	switch k {
	case Transient:
		return "transient"
	case Terminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// DispatchError 提交失败
type DispatchError struct {
	Chain string
	Kind  DispatchKind
	Err   error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch to %s failed (%s): %v", e.Chain, e.Kind, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

func (e *DispatchError) Is(target error) bool {
	return target == ErrDispatch
}

// IsRetryable 只有 Transient 的提交失败可以重试
func IsRetryable(err error) bool {
	var derr *DispatchError
	return errors.As(err, &derr) && derr.Kind == Transient
}

// transientRPCCodes 节点限流时返回 -32005 (limit exceeded)
var transientRPCCodes = map[int]bool{
	-32005: true,
}

func classify(chain string, err error) *DispatchError {
	return &DispatchError{Chain: chain, Kind: dispatchKind(err), Err: err}
}

func dispatchKind(err error) DispatchKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Transient
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return Transient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return Transient
	}
	if errors.Is(err, bind.ErrNoCode) {
		return Terminal
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && transientRPCCodes[rpcErr.ErrorCode()] {
		return Transient
	}
	// 网关限流或节点不可用
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) &&
		(httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= http.StatusInternalServerError) {
		return Transient
	}
	return Terminal
}
