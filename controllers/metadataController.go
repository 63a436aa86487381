package controllers

import (
	"net/http"

	"bundler/models"
	"bundler/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MetadataController 链元数据和代币元数据
type MetadataController struct {
	metadata *services.MetadataService
	tokens   *services.TokenMetadataService
	chains   []string
	logger   *zap.Logger
}

// NewMetadataController tokens 为 nil 时代币相关接口返回 503
func NewMetadataController(metadata *services.MetadataService, tokens *services.TokenMetadataService,
	chainNames []string, logger *zap.Logger) *MetadataController {
	return &MetadataController{metadata: metadata, tokens: tokens, chains: chainNames, logger: logger}
}

func (ctrl *MetadataController) GetMetadata(c *gin.Context) {
	md, err := ctrl.metadata.GetActiveMetadata()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, md)
}

func (ctrl *MetadataController) ListChains(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"chains": ctrl.chains, "current": ctrl.metadata.ActiveChain()})
}

// AddTokenMetadata 管理端登记代币
func (ctrl *MetadataController) AddTokenMetadata(c *gin.Context) {
	if ctrl.tokens == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "token metadata store is not configured"})
		return
	}

	var req models.AddMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := ctrl.tokens.Add(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ctrl.logger.Info("token metadata saved",
		zap.String("chain", token.Chain),
		zap.String("contract", token.ContractAddress),
	)
	c.JSON(http.StatusCreated, token)
}

// ListTokenMetadata chain 参数为空时使用当前链
func (ctrl *MetadataController) ListTokenMetadata(c *gin.Context) {
	if ctrl.tokens == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "token metadata store is not configured"})
		return
	}

	chain := c.DefaultQuery("chain", ctrl.metadata.ActiveChain())
	tokens, err := ctrl.tokens.List(c.Request.Context(), chain)
	if err != nil {
		respondError(c, err)
		return
	}
	if tokens == nil {
		tokens = []models.TokenMetadata{}
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}
