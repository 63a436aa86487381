package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bundler/entrypoint"
	"bundler/metrics"
	"bundler/models"
	"bundler/services"
	"bundler/store"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// recordTimeout 写提交记录的超时，与请求是否断开无关
const recordTimeout = 10 * time.Second

// nonceKeyBits getNonce 的 key 是 uint192
const nonceKeyBits = 192

// Connections 按链名取 RPC 连接，*chains.Connections 实现了它
type Connections interface {
	Conn(chain string) (bind.ContractBackend, error)
}

// OperationLog 提交记录，*store.OperationLog 实现了它
type OperationLog interface {
	Record(ctx context.Context, op store.SubmittedOperation) error
	Find(ctx context.Context, txHash string) (*store.SubmittedOperation, error)
}

// UserOpController 接收 UserOperation 并提交到 EntryPoint
type UserOpController struct {
	dispatcher *entrypoint.Dispatcher
	conns      Connections
	oplog      OperationLog
	metadata   *services.MetadataService
	timeout    time.Duration
	logger     *zap.Logger
}

// NewUserOpController oplog 可以为 nil，此时不记录提交
func NewUserOpController(dispatcher *entrypoint.Dispatcher, conns Connections, oplog OperationLog,
	metadata *services.MetadataService, timeout time.Duration, logger *zap.Logger) *UserOpController {
	return &UserOpController{
		dispatcher: dispatcher,
		conns:      conns,
		oplog:      oplog,
		metadata:   metadata,
		timeout:    timeout,
		logger:     logger,
	}
}

// StoreUserOp 处理接收到的 UserOp 请求
func (ctrl *UserOpController) StoreUserOp(c *gin.Context) {
	chain, params, ok := ctrl.parseUserOp(c)
	if !ok {
		return
	}

	client, err := ctrl.bind(chain)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := ctrl.submitContext(c)
	defer cancel()

	receipt, err := client.Submit(ctx, params)
	if err != nil {
		ctrl.logger.Warn("userOp submission failed",
			zap.String("chain", client.Chain().Name),
			zap.Stringer("sender", params.Sender),
			zap.Bool("retryable", entrypoint.IsRetryable(err)),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	ctrl.logger.Info("userOp sent",
		zap.String("chain", receipt.Chain),
		zap.Stringer("sender", params.Sender),
		zap.Stringer("tx", receipt.TxHash),
	)
	ctrl.record(c.Request.Context(), receipt, params)

	c.JSON(http.StatusOK, gin.H{
		"message":         "UserOp received and sent",
		"transactionHash": receipt.TxHash.Hex(),
		"chain":           receipt.Chain,
		"entryPoint":      receipt.EntryPoint.Hex(),
	})
}

// GetUserOp 按交易哈希查询提交记录
func (ctrl *UserOpController) GetUserOp(c *gin.Context) {
	if ctrl.oplog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "operation log is not configured"})
		return
	}
	op, err := ctrl.oplog.Find(c.Request.Context(), c.Param("txHash"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, op)
}

// UserOpHash 调用 EntryPoint.getUserOpHash
func (ctrl *UserOpController) UserOpHash(c *gin.Context) {
	chain, params, ok := ctrl.parseUserOp(c)
	if !ok {
		return
	}
	client, err := ctrl.bind(chain)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := ctrl.submitContext(c)
	defer cancel()

	hash, err := client.UserOpHash(ctx, params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userOpHash": hash.Hex(), "chain": client.Chain().Name})
}

// GetNonce 调用 EntryPoint.getNonce，参数 sender、可选 key 和 chain
func (ctrl *UserOpController) GetNonce(c *gin.Context) {
	sender := c.Query("sender")
	if !common.IsHexAddress(sender) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid sender %q", sender)})
		return
	}
	key := new(uint256.Int)
	if raw := c.Query("key"); raw != "" {
		var err error
		if strings.HasPrefix(raw, "0x") {
			key, err = uint256.FromHex(raw)
		} else {
			key, err = uint256.FromDecimal(raw)
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid key: %v", err)})
			return
		}
		if key.BitLen() > nonceKeyBits {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid key: exceeds uint%d", nonceKeyBits)})
			return
		}
	}

	client, err := ctrl.bind(ctrl.chainOrActive(c.Query("chain")))
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := ctrl.submitContext(c)
	defer cancel()

	nonce, err := client.Nonce(ctx, common.HexToAddress(sender), key.ToBig())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nonce": hexutil.EncodeBig(nonce), "chain": client.Chain().Name})
}

// parseUserOp 解析请求体并转换成 EntryPoint 参数，失败时已写入响应
func (ctrl *UserOpController) parseUserOp(c *gin.Context) (string, entrypoint.UserOperation, bool) {
	var req models.UserOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.Rejections.WithLabelValues("decode").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", entrypoint.UserOperation{}, false
	}

	op, err := req.ToUserOperation()
	if err != nil {
		metrics.Rejections.WithLabelValues("decode").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", entrypoint.UserOperation{}, false
	}

	params, err := entrypoint.Translate(op)
	if err != nil {
		metrics.Rejections.WithLabelValues("invalid_field").Inc()
		respondError(c, err)
		return "", entrypoint.UserOperation{}, false
	}
	return ctrl.chainOrActive(req.Chain), params, true
}

func (ctrl *UserOpController) chainOrActive(chain string) string {
	if strings.TrimSpace(chain) == "" {
		return ctrl.metadata.ActiveChain()
	}
	return chain
}

func (ctrl *UserOpController) bind(chain string) (*entrypoint.Client, error) {
	conn, err := ctrl.conns.Conn(chain)
	if err != nil {
		return nil, err
	}
	return ctrl.dispatcher.Bind(chain, conn)
}

func (ctrl *UserOpController) submitContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if ctrl.timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), ctrl.timeout)
}

// record 交易已被节点接受，客户端断开也要写入；记录失败只影响查询，不影响响应
func (ctrl *UserOpController) record(parent context.Context, receipt *entrypoint.Receipt, params entrypoint.UserOperation) {
	if ctrl.oplog == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), recordTimeout)
	defer cancel()

	err := ctrl.oplog.Record(ctx, store.SubmittedOperation{
		TxHash:      receipt.TxHash.Hex(),
		Chain:       receipt.Chain,
		EntryPoint:  receipt.EntryPoint.Hex(),
		Sender:      params.Sender.Hex(),
		Nonce:       hexutil.EncodeBig(params.Nonce),
		SubmittedAt: time.Now().UTC(),
	})
	if err != nil {
		ctrl.logger.Error("failed to record userOp",
			zap.Stringer("tx", receipt.TxHash),
			zap.Error(err),
		)
	}
}
