package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"bundler/config"
	"bundler/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests talk to real databases and are skipped unless the
// BUNDLER_TEST_MYSQL_DSN / BUNDLER_TEST_MONGO_URI variables are set.

func TestTokenMetadataStore(t *testing.T) {
	dsn := os.Getenv("BUNDLER_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("BUNDLER_TEST_MYSQL_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := config.ConnectDB(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()

	s := NewTokenMetadataStore(db)
	require.NoError(t, s.Migrate(ctx))

	chain := fmt.Sprintf("test-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = db.Exec("DELETE FROM token_metadata WHERE chain = ?", chain)
	})

	token := models.TokenMetadata{
		Chain:           chain,
		Currency:        "usdc",
		ContractAddress: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
		Exponent:        6,
		TokenType:       "erc20",
		Name:            "usd coin",
	}
	require.NoError(t, s.Save(ctx, token))

	token.Name = "usd coin v2"
	require.NoError(t, s.Save(ctx, token))

	tokens, err := s.ListByChain(ctx, chain)
	require.NoError(t, err)
	assert.Equal(t, []models.TokenMetadata{token}, tokens)
}

func TestOperationLog(t *testing.T) {
	uri := os.Getenv("BUNDLER_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("BUNDLER_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := config.GetMongoClient(ctx, uri)
	require.NoError(t, err)
	defer client.Disconnect(context.Background())

	db := client.Database(fmt.Sprintf("bundler_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() { _ = db.Drop(context.Background()) })

	log := NewOperationLog(db, "user_operations")
	require.NoError(t, log.EnsureIndexes(ctx))

	op := SubmittedOperation{
		TxHash:      "0xABCDEF",
		Chain:       "ethereum",
		EntryPoint:  "0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789",
		Sender:      "0x1111111111111111111111111111111111111111",
		Nonce:       "0x2a",
		SubmittedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, log.Record(ctx, op))
	assert.Error(t, log.Record(ctx, op), "duplicate tx hash")

	found, err := log.Find(ctx, "0xabcdef")
	require.NoError(t, err)
	assert.Equal(t, "0xabcdef", found.TxHash)
	assert.Equal(t, op.Sender, found.Sender)
	assert.True(t, op.SubmittedAt.Equal(found.SubmittedAt))

	_, err = log.Find(ctx, "0x00")
	assert.ErrorIs(t, err, ErrNotFound)
}
