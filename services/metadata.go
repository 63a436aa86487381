package services

import (
	"bundler/chains"
	"bundler/models"
)

// ChainResolver 由 *chains.Registry 实现
type ChainResolver interface {
	Resolve(name string) (chains.ChainConfig, error)
}

// MetadataService 回答"当前是哪条链、用什么币"
type MetadataService struct {
	registry    ChainResolver
	activeChain string
}

func NewMetadataService(registry ChainResolver, activeChain string) *MetadataService {
	return &MetadataService{registry: registry, activeChain: activeChain}
}

// ActiveChain 返回配置的当前链名
func (s *MetadataService) ActiveChain() string {
	return s.activeChain
}

// GetActiveMetadata 每次调用都重新查表，当前链不在注册表中时返回 ErrUnknownChain
func (s *MetadataService) GetActiveMetadata() (models.Metadata, error) {
	cfg, err := s.registry.Resolve(s.activeChain)
	if err != nil {
		return models.Metadata{}, err
	}
	return models.Metadata{
		Chain:    cfg.Name,
		Currency: cfg.Currency,
	}, nil
}
