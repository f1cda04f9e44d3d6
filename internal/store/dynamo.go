package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const defaultPollInterval = 5 * time.Second

// DynamoStore keeps documents in a single table with the collection
// as partition key and the document id as sort key. DynamoDB offers
// no push notification suitable for a tree listener, so Subscribe
// polls and emits a snapshot whenever the child set changes.
type DynamoStore struct {
	client       *dynamodb.Client
	tableName    string
	pollInterval time.Duration
}

type dynamoDocument struct {
	Collection string `dynamodbav:"collection"`
	ID         string `dynamodbav:"id"`
	Doc        string `dynamodbav:"doc"`
	UpdatedAt  string `dynamodbav:"updated_at"`
}

func NewDynamoStore(client *dynamodb.Client, tableName string) *DynamoStore {
	return &DynamoStore{
		client:       client,
		tableName:    tableName,
		pollInterval: defaultPollInterval,
	}
}

func (s *DynamoStore) Once(ctx context.Context, path string) (json.RawMessage, error) {
	collection, id := SplitPath(path)

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"collection": &types.AttributeValueMemberS{Value: collection},
			"id":         &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", path, err)
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}

	var item dynamoDocument
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}
	return json.RawMessage(item.Doc), nil
}

func (s *DynamoStore) List(ctx context.Context, prefix string) (map[string]json.RawMessage, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("#c = :c"),
		ExpressionAttributeNames: map[string]string{
			"#c": "collection",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: prefix},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}

	docs := make(map[string]json.RawMessage, len(result.Items))
	for _, raw := range result.Items {
		var item dynamoDocument
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			continue
		}
		docs[item.ID] = json.RawMessage(item.Doc)
	}
	return docs, nil
}

func (s *DynamoStore) Subscribe(ctx context.Context, prefix string) (<-chan Snapshot, error) {
	ch := make(chan Snapshot, 1)

	go func() {
		defer close(ch)

		var last map[string]json.RawMessage
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		for {
			docs, err := s.List(ctx, prefix)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("[DynamoStore] Failed to poll %s: %v", prefix, err)
			} else if last == nil || !docsEqual(last, docs) {
				last = docs
				select {
				case ch <- Snapshot{Prefix: prefix, Docs: docs}:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return ch, nil
}

func (s *DynamoStore) Write(ctx context.Context, path string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	collection, id := SplitPath(path)
	item := dynamoDocument{
		Collection: collection,
		ID:         id,
		Doc:        string(data),
		UpdatedAt:  time.Now().Format(time.RFC3339Nano),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item %s: %w", path, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", path, err)
	}
	return nil
}

func (s *DynamoStore) Delete(ctx context.Context, path string) error {
	collection, id := SplitPath(path)

	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"collection": &types.AttributeValueMemberS{Value: collection},
			"id":         &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

func docsEqual(a, b map[string]json.RawMessage) bool {
	if len(a) != len(b) {
		return false
	}
	for id, doc := range a {
		other, ok := b[id]
		if !ok || !bytes.Equal(doc, other) {
			return false
		}
	}
	return true
}
