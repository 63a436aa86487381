package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("not found")

// SubmittedOperation 已提交给 EntryPoint 的 UserOperation
type SubmittedOperation struct {
	TxHash      string    `json:"transactionHash" bson:"tx_hash"`
	Chain       string    `json:"chain" bson:"chain"`
	EntryPoint  string    `json:"entryPoint" bson:"entry_point"`
	Sender      string    `json:"sender" bson:"sender"`
	Nonce       string    `json:"nonce" bson:"nonce"`
	SubmittedAt time.Time `json:"submittedAt" bson:"submitted_at"`
}

// OperationLog MongoDB 中的提交记录
type OperationLog struct {
	coll *mongo.Collection
}

func NewOperationLog(db *mongo.Database, collection string) *OperationLog {
	return &OperationLog{coll: db.Collection(collection)}
}

// EnsureIndexes tx_hash 唯一
func (l *OperationLog) EnsureIndexes(ctx context.Context) error {
	_, err := l.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tx_hash", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "sender", Value: 1}, {Key: "submitted_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create user_operations indexes: %w", err)
	}
	return nil
}

func (l *OperationLog) Record(ctx context.Context, op SubmittedOperation) error {
	op.TxHash = strings.ToLower(op.TxHash)
	if _, err := l.coll.InsertOne(ctx, op); err != nil {
		return fmt.Errorf("insert user operation %s: %w", op.TxHash, err)
	}
	return nil
}

func (l *OperationLog) Find(ctx context.Context, txHash string) (*SubmittedOperation, error) {
	var op SubmittedOperation
	err := l.coll.FindOne(ctx, bson.M{"tx_hash": strings.ToLower(txHash)}).Decode(&op)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user operation %s: %w", txHash, err)
	}
	return &op, nil
}
