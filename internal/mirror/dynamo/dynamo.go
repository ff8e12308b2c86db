// Package dynamo is a remote mirror backed by one DynamoDB table.
//
// Table layout:
//   - PK: collection (string), SK: key (string)
//   - data: the record JSON
//   - sort: the record's sort key for its collection's default order field,
//     indexed by the local secondary index "sort-index"
package dynamo

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/MrJamesThe3rd/oficina/internal/mirror"
)

const (
	sortIndex  = "sort-index"
	batchLimit = 25
	maxRetries = 5
)

//go:generate mockgen -source=dynamo.go -destination=dynamo_mock.go -package=dynamo
type API interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

type item struct {
	Collection string `dynamodbav:"collection"`
	Key        string `dynamodbav:"key"`
	Data       string `dynamodbav:"data"`
	Sort       string `dynamodbav:"sort"`
}

type Remote struct {
	api     API
	table   string
	backoff time.Duration
}

func New(api API, table string) *Remote {
	return &Remote{api: api, table: table, backoff: 200 * time.Millisecond}
}

func (r *Remote) Ping(ctx context.Context) error {
	_, err := r.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.table)})
	if err != nil {
		return fmt.Errorf("describing table %s: %w", r.table, err)
	}

	return nil
}

// EnsureTable creates the table with its sort index when it does not exist.
func (r *Remote) EnsureTable(ctx context.Context) error {
	err := r.Ping(ctx)
	if err == nil {
		return nil
	}

	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return err
	}

	slog.Info("creating dynamodb table", "table", r.table)

	_, err = r.api.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(r.table),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("collection"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("key"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("sort"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("collection"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("key"), KeyType: types.KeyTypeRange},
		},
		LocalSecondaryIndexes: []types.LocalSecondaryIndex{
			{
				IndexName: aws.String(sortIndex),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("collection"), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String("sort"), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating table %s: %w", r.table, err)
	}

	return nil
}

// Replace deletes the remote records missing from records and writes the
// rest.
func (r *Remote) Replace(ctx context.Context, c mirror.Collection, records []mirror.Record) error {
	existing, err := r.keys(ctx, c)
	if err != nil {
		return err
	}

	keep := make(map[string]bool, len(records))

	var writes []types.WriteRequest

	for _, rec := range records {
		keep[rec.Key] = true

		av, err := attributevalue.MarshalMap(item{
			Collection: string(c),
			Key:        rec.Key,
			Data:       string(rec.Data),
			Sort:       sortValue(rec, mirror.DefaultOrder[c]),
		})
		if err != nil {
			return fmt.Errorf("marshaling %s/%s: %w", c, rec.Key, err)
		}

		writes = append(writes, types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
	}

	for _, k := range existing {
		if keep[k] {
			continue
		}

		writes = append(writes, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: primaryKey(c, k)}})
	}

	for start := 0; start < len(writes); start += batchLimit {
		end := min(start+batchLimit, len(writes))

		if err := r.batchWrite(ctx, writes[start:end]); err != nil {
			return fmt.Errorf("writing %s: %w", c, err)
		}
	}

	return nil
}

func (r *Remote) batchWrite(ctx context.Context, writes []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{r.table: writes}

	for attempt := 0; ; attempt++ {
		out, err := r.api.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return err
		}

		if len(out.UnprocessedItems[r.table]) == 0 {
			return nil
		}

		if attempt+1 >= maxRetries {
			return fmt.Errorf("%d items left unprocessed", len(out.UnprocessedItems[r.table]))
		}

		pending = out.UnprocessedItems

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.backoff << attempt):
		}
	}
}

func (r *Remote) keys(ctx context.Context, c mirror.Collection) ([]string, error) {
	var (
		keys  []string
		start map[string]types.AttributeValue
	)

	for {
		out, err := r.api.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.table),
			KeyConditionExpression:    aws.String("#c = :c"),
			ProjectionExpression:      aws.String("#k"),
			ExpressionAttributeNames:  map[string]string{"#c": "collection", "#k": "key"},
			ExpressionAttributeValues: map[string]types.AttributeValue{":c": &types.AttributeValueMemberS{Value: string(c)}},
			ExclusiveStartKey:         start,
		})
		if err != nil {
			return nil, fmt.Errorf("listing %s keys: %w", c, err)
		}

		for _, av := range out.Items {
			var it item
			if err := attributevalue.UnmarshalMap(av, &it); err != nil {
				return nil, fmt.Errorf("unmarshaling %s key: %w", c, err)
			}

			keys = append(keys, it.Key)
		}

		if len(out.LastEvaluatedKey) == 0 {
			return keys, nil
		}

		start = out.LastEvaluatedKey
	}
}

// Page queries one collection. Only the key and the collection's default
// order field are indexed; other fields are rejected.
func (r *Remote) Page(ctx context.Context, c mirror.Collection, q mirror.PageQuery) (mirror.Page, error) {
	size := q.Size
	if size <= 0 {
		size = 50
	}

	in := &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		KeyConditionExpression:    aws.String("#c = :c"),
		ExpressionAttributeNames:  map[string]string{"#c": "collection"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":c": &types.AttributeValueMemberS{Value: string(c)}},
		Limit:                     aws.Int32(int32(size)),
	}

	switch q.OrderBy {
	case "":
	case mirror.DefaultOrder[c]:
		in.IndexName = aws.String(sortIndex)
	default:
		return mirror.Page{}, fmt.Errorf("order field %q is not indexed for %s", q.OrderBy, c)
	}

	if q.Cursor != "" {
		start, err := decodeCursor(q.Cursor)
		if err != nil {
			return mirror.Page{}, err
		}

		in.ExclusiveStartKey = start
	}

	out, err := r.api.Query(ctx, in)
	if err != nil {
		return mirror.Page{}, fmt.Errorf("querying %s: %w", c, err)
	}

	page := mirror.Page{Records: make([]mirror.Record, 0, len(out.Items))}

	for _, av := range out.Items {
		var it item
		if err := attributevalue.UnmarshalMap(av, &it); err != nil {
			return mirror.Page{}, fmt.Errorf("unmarshaling %s record: %w", c, err)
		}

		page.Records = append(page.Records, mirror.Record{Key: it.Key, Data: json.RawMessage(it.Data)})
	}

	if len(out.LastEvaluatedKey) > 0 {
		page.Next, err = encodeCursor(out.LastEvaluatedKey)
		if err != nil {
			return mirror.Page{}, err
		}
	}

	return page, nil
}

func primaryKey(c mirror.Collection, key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"collection": &types.AttributeValueMemberS{Value: string(c)},
		"key":        &types.AttributeValueMemberS{Value: key},
	}
}

// sortValue never returns an empty string; DynamoDB rejects empty index keys.
func sortValue(rec mirror.Record, field string) string {
	if v := mirror.RecordSortKey(rec, field); v != "" {
		return v
	}

	return "\x00"
}

// Every key attribute is a string, so the cursor is a flat string map.
func encodeCursor(key map[string]types.AttributeValue) (string, error) {
	var flat map[string]string
	if err := attributevalue.UnmarshalMap(key, &flat); err != nil {
		return "", fmt.Errorf("encoding cursor: %w", err)
	}

	b, err := json.Marshal(flat)
	if err != nil {
		return "", fmt.Errorf("encoding cursor: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

func decodeCursor(s string) (map[string]types.AttributeValue, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}

	var flat map[string]string
	if err := json.Unmarshal(b, &flat); err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}

	key, err := attributevalue.MarshalMap(flat)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}

	return key, nil
}
