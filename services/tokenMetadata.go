package services

import (
	"context"
	"fmt"

	"bundler/models"
)

// TokenStore 代币元数据的持久化，store.TokenMetadataStore 实现了它
type TokenStore interface {
	Save(ctx context.Context, token models.TokenMetadata) error
	ListByChain(ctx context.Context, chain string) ([]models.TokenMetadata, error)
}

// TokenMetadataService 管理端登记和查询代币元数据
type TokenMetadataService struct {
	registry ChainResolver
	store    TokenStore
}

func NewTokenMetadataService(registry ChainResolver, store TokenStore) *TokenMetadataService {
	return &TokenMetadataService{registry: registry, store: store}
}

// Add 校验请求并保存规范化后的记录，链必须已在注册表中
func (s *TokenMetadataService) Add(ctx context.Context, req models.AddMetadataRequest) (models.TokenMetadata, error) {
	if err := req.Validate(); err != nil {
		return models.TokenMetadata{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if _, err := s.registry.Resolve(req.GetChain()); err != nil {
		return models.TokenMetadata{}, err
	}

	token := req.Normalized()
	if err := s.store.Save(ctx, token); err != nil {
		return models.TokenMetadata{}, fmt.Errorf("save token metadata: %w", err)
	}
	return token, nil
}

// List 列出某条链登记的代币
func (s *TokenMetadataService) List(ctx context.Context, chain string) ([]models.TokenMetadata, error) {
	cfg, err := s.registry.Resolve(chain)
	if err != nil {
		return nil, err
	}
	return s.store.ListByChain(ctx, cfg.Name)
}
