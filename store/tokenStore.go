package store

import (
	"context"
	"database/sql"
	"fmt"

	"bundler/models"
)

const createTokenMetadataTable = `
CREATE TABLE IF NOT EXISTS token_metadata (
	chain            VARCHAR(64)  NOT NULL,
	contract_address CHAR(42)     NOT NULL,
	currency         VARCHAR(32)  NOT NULL,
	exponent         INT          NOT NULL,
	token_type       VARCHAR(32)  NOT NULL,
	name             VARCHAR(128) NOT NULL,
	updated_at       TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	PRIMARY KEY (chain, contract_address)
)`

// TokenMetadataStore MySQL 中的 token_metadata 表
type TokenMetadataStore struct {
	db *sql.DB
}

func NewTokenMetadataStore(db *sql.DB) *TokenMetadataStore {
	return &TokenMetadataStore{db: db}
}

// Migrate 建表
func (s *TokenMetadataStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTokenMetadataTable); err != nil {
		return fmt.Errorf("create token_metadata: %w", err)
	}
	return nil
}

// Save 同一链上同一合约地址重复登记时覆盖
func (s *TokenMetadataStore) Save(ctx context.Context, token models.TokenMetadata) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO token_metadata (chain, contract_address, currency, exponent, token_type, name)
VALUES (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE currency = VALUES(currency), exponent = VALUES(exponent),
	token_type = VALUES(token_type), name = VALUES(name)`,
		token.Chain, token.ContractAddress, token.Currency, token.Exponent, token.TokenType, token.Name)
	if err != nil {
		return fmt.Errorf("insert token_metadata: %w", err)
	}
	return nil
}

func (s *TokenMetadataStore) ListByChain(ctx context.Context, chain string) ([]models.TokenMetadata, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT chain, currency, contract_address, exponent, token_type, name
FROM token_metadata WHERE chain = ? ORDER BY currency`, chain)
	if err != nil {
		return nil, fmt.Errorf("query token_metadata: %w", err)
	}
	defer rows.Close()

	var tokens []models.TokenMetadata
	for rows.Next() {
		var t models.TokenMetadata
		if err := rows.Scan(&t.Chain, &t.Currency, &t.ContractAddress, &t.Exponent, &t.TokenType, &t.Name); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
