package records

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/widget-consumer/internal/aws"
	"github.com/imrishuroy/widget-consumer/internal/widgets"
)

// Index table key attributes.
const (
	AttrOwner     = "owner"
	AttrWidgetID  = "widget_id"
	AttrWidgetKey = "widget_key"
	AttrUpdatedAt = "updated_at"
)

// DynamoIndex upserts flattened widget attributes into a DynamoDB table keyed by
// (owner, widget_id).
type DynamoIndex struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewDynamoIndex creates a new index over tableName.
func NewDynamoIndex(client aws.DynamoDBAPI, tableName string) *DynamoIndex {
	return &DynamoIndex{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Table returns the index table name.
func (d *DynamoIndex) Table() string { return d.tableName }

// Upsert sets every attribute on the item, creating it if absent. Attributes
// not named in attrs are left untouched.
func (d *DynamoIndex) Upsert(ctx context.Context, key widgets.Key, attrs widgets.Record) error {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		switch name {
		case AttrOwner, AttrWidgetID, AttrWidgetKey, AttrUpdatedAt:
			// reserved for the key and bookkeeping
			continue
		}
		names = append(names, name)
	}
	// deterministic placeholders
	sort.Strings(names)

	exprNames := map[string]string{
		"#wk": AttrWidgetKey,
		"#ua": AttrUpdatedAt,
	}
	exprValues := map[string]types.AttributeValue{
		":wk": &types.AttributeValueMemberS{Value: key.String()},
		":ua": &types.AttributeValueMemberS{Value: d.nowFunc().UTC().Format(time.RFC3339)},
	}
	updateExpr := "SET #wk = :wk, #ua = :ua"

	for i, name := range names {
		av, err := attributevalue.Marshal(attrs[name])
		if err != nil {
			return fmt.Errorf("marshal attribute %q: %w", name, err)
		}
		n := "#a" + strconv.Itoa(i)
		v := ":a" + strconv.Itoa(i)
		exprNames[n] = name
		exprValues[v] = av
		updateExpr += ", " + n + " = " + v
	}

	_, err := d.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &d.tableName,
		Key: map[string]types.AttributeValue{
			AttrOwner:    &types.AttributeValueMemberS{Value: key.Owner},
			AttrWidgetID: &types.AttributeValueMemberS{Value: key.WidgetID},
		},
		UpdateExpression:          &updateExpr,
		ExpressionAttributeNames:  exprNames,
		ExpressionAttributeValues: exprValues,
	})
	if err != nil {
		return fmt.Errorf("update item %s: %w", key, err)
	}
	return nil
}
