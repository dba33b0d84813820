// Package ledger records which requests were already applied, so a request
// redelivered after a failed acknowledgment is not applied twice.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/widget-consumer/internal/aws"
)

// Store encapsulates ledger operations against DynamoDB.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration // how long entries are kept
	nowFunc   func() time.Time
}

// NewStore returns a configured Store.
// tableName: DynamoDB table name for ledger entries.
// ttlWindow: TTL window (e.g., 48*time.Hour)
func NewStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

// Begin claims requestID. It returns (true, nil) when the caller should apply
// the request, and (false, nil) when an earlier delivery already finished it.
// An entry left IN_PROGRESS or FAILED by an earlier attempt is claimed again.
func (s *Store) Begin(ctx context.Context, requestID, widgetKey, operation string) (bool, error) {
	now := s.nowFunc()
	entry := Entry{
		RequestID: requestID,
		Status:    StatusInProgress,
		WidgetKey: widgetKey,
		Operation: operation,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.ttlWindow).Unix(),
	}

	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return false, fmt.Errorf("marshal entry: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
		// only claim when absent or not finished
		ConditionExpression:       awsString("attribute_not_exists(request_id) OR #s <> :done"),
		ExpressionAttributeNames:  map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":done": &types.AttributeValueMemberS{Value: StatusDone}},
	})
	if err != nil {
		var sc smithy.APIError
		if errors.As(err, &sc) && sc.ErrorCode() == "ConditionalCheckFailedException" {
			return false, nil
		}
		return false, fmt.Errorf("put item: %w", err)
	}
	return true, nil
}

// Get retrieves a ledger entry by request id. If not found, returns (nil, nil).
func (s *Store) Get(ctx context.Context, requestID string) (*Entry, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"request_id": &types.AttributeValueMemberS{Value: requestID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var entry Entry
	if err := attributevalue.UnmarshalMap(out.Item, &entry); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return &entry, nil
}

// MarkDone sets status to DONE and stores the reconcile outcome.
func (s *Store) MarkDone(ctx context.Context, requestID, outcome string) error {
	return s.finish(ctx, requestID, StatusDone, outcome, "")
}

// MarkFailed marks the entry FAILED so a later delivery may claim it again.
func (s *Store) MarkFailed(ctx context.Context, requestID, note string) error {
	return s.finish(ctx, requestID, StatusFailed, "", note)
}

func (s *Store) finish(ctx context.Context, requestID, status, outcome, note string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"request_id": &types.AttributeValueMemberS{Value: requestID},
		},
		UpdateExpression: awsString("SET #s = :st, outcome = :o, note = :n, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":st": &types.AttributeValueMemberS{Value: status},
			":o":  &types.AttributeValueMemberS{Value: outcome},
			":n":  &types.AttributeValueMemberS{Value: note},
			":ua": &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("update item (mark %s): %w", status, err)
	}
	return nil
}

// Helper
func awsString(s string) *string { return &s }
