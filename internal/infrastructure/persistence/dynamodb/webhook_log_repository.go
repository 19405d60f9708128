package dynamodb

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dreschagin/release-confidence/internal/application/port"
	"github.com/dreschagin/release-confidence/pkg/config"
	"github.com/google/uuid"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100

	attrPK           = "PK"
	attrSK           = "SK"
	attrDeliveryID   = "delivery_id"
	attrEventType    = "event_type"
	attrRepository   = "repository"
	attrSuccess      = "success"
	attrErrorMessage = "error_message"
	attrReleaseID    = "release_id"
	attrPayloadKey   = "payload_key"
	attrCreatedAt    = "created_at"
	attrExpiresAt    = "expires_at"
	attrID           = "id"
)

// dynamoAPI подмножество клиента DynamoDB, которое использует журнал
type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// WebhookLogRepository хранит журнал доставок webhook.
// Ключи: PK=REPO#<owner/repo>, SK=TS#<created_ms>#ID#<id>; expires_at задает TTL.
type WebhookLogRepository struct {
	client    dynamoAPI
	tableName string
	retention time.Duration
	now       func() time.Time
}

var _ port.WebhookLogRepository = (*WebhookLogRepository)(nil)

type cursorPayload struct {
	Repository string                 `json:"repository"`
	FromMS     int64                  `json:"from_ms,omitempty"`
	ToMS       int64                  `json:"to_ms,omitempty"`
	Key        map[string]cursorValue `json:"key"`
}

type cursorValue struct {
	S string `json:"s,omitempty"`
	N string `json:"n,omitempty"`
}

func NewWebhookLogRepository(ctx context.Context, cfg config.DynamoDBConfig) (*WebhookLogRepository, error) {
	if strings.TrimSpace(cfg.TableName) == "" {
		return nil, fmt.Errorf("dynamodb table name is required")
	}

	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	accessKeyID := strings.TrimSpace(cfg.AccessKeyID)
	secretAccessKey := strings.TrimSpace(cfg.SecretAccessKey)
	if accessKeyID != "" || secretAccessKey != "" {
		if accessKeyID == "" || secretAccessKey == "" {
			return nil, fmt.Errorf("both dynamodb access key id and secret access key are required for static credentials")
		}
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID,
			secretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws config for dynamodb: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(options *dynamodb.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			options.BaseEndpoint = aws.String(endpoint)
		}
	})

	return newWebhookLogRepository(client, strings.TrimSpace(cfg.TableName), cfg.RetentionDays), nil
}

func newWebhookLogRepository(client dynamoAPI, tableName string, retentionDays int) *WebhookLogRepository {
	return &WebhookLogRepository{
		client:    client,
		tableName: tableName,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
	}
}

// Put записывает одну доставку
func (r *WebhookLogRepository) Put(ctx context.Context, delivery port.WebhookDelivery) error {
	item, err := r.toItem(delivery)
	if err != nil {
		return err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamodb put failed: %w", err)
	}

	return nil
}

// ListByRepository возвращает доставки репозитория, новые первыми
func (r *WebhookLogRepository) ListByRepository(
	ctx context.Context,
	query port.WebhookDeliveryQuery,
) (port.WebhookDeliveryPage, error) {
	repository := strings.TrimSpace(query.Repository)
	if repository == "" {
		return port.WebhookDeliveryPage{}, fmt.Errorf("repository is required")
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	fromMS, toMS, hasRange, err := normalizeTimeRange(query.From, query.To)
	if err != nil {
		return port.WebhookDeliveryPage{}, err
	}

	input := &dynamodb.QueryInput{
		TableName:        aws.String(r.tableName),
		Limit:            aws.Int32(int32(limit)),
		ScanIndexForward: aws.Bool(false),
		ExpressionAttributeNames: map[string]string{
			"#pk": attrPK,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: buildPK(repository)},
		},
	}

	keyCondition := "#pk = :pk"
	if hasRange {
		input.ExpressionAttributeNames["#sk"] = attrSK
		input.ExpressionAttributeValues[":from"] = &types.AttributeValueMemberS{Value: buildSortLowerBound(fromMS)}
		input.ExpressionAttributeValues[":to"] = &types.AttributeValueMemberS{Value: buildSortUpperBound(toMS)}
		keyCondition += " AND #sk BETWEEN :from AND :to"
	}
	input.KeyConditionExpression = aws.String(keyCondition)

	if strings.TrimSpace(query.Cursor) != "" {
		exclusiveStartKey, err := decodeCursor(query.Cursor, repository, fromMS, toMS)
		if err != nil {
			return port.WebhookDeliveryPage{}, err
		}
		input.ExclusiveStartKey = exclusiveStartKey
	}

	output, err := r.client.Query(ctx, input)
	if err != nil {
		return port.WebhookDeliveryPage{}, fmt.Errorf("dynamodb query failed: %w", err)
	}

	items := make([]port.WebhookDelivery, 0, len(output.Items))
	for _, raw := range output.Items {
		item, err := fromItem(raw)
		if err != nil {
			return port.WebhookDeliveryPage{}, err
		}
		items = append(items, item)
	}

	nextCursor := ""
	if len(output.LastEvaluatedKey) > 0 {
		nextCursor, err = encodeCursor(output.LastEvaluatedKey, repository, fromMS, toMS)
		if err != nil {
			return port.WebhookDeliveryPage{}, err
		}
	}

	return port.WebhookDeliveryPage{
		Items:      items,
		NextCursor: nextCursor,
	}, nil
}

func (r *WebhookLogRepository) toItem(delivery port.WebhookDelivery) (map[string]types.AttributeValue, error) {
	repository := strings.TrimSpace(delivery.Repository)
	if repository == "" {
		return nil, fmt.Errorf("repository is required")
	}

	id := strings.TrimSpace(delivery.ID)
	if id == "" {
		id = uuid.New().String()
	}

	createdAt := delivery.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = r.now().UTC()
	}
	createdAtMS := createdAt.UnixMilli()

	item := map[string]types.AttributeValue{
		attrPK:         &types.AttributeValueMemberS{Value: buildPK(repository)},
		attrSK:         &types.AttributeValueMemberS{Value: buildSK(createdAtMS, id)},
		attrID:         &types.AttributeValueMemberS{Value: id},
		attrRepository: &types.AttributeValueMemberS{Value: repository},
		attrEventType:  &types.AttributeValueMemberS{Value: delivery.EventType},
		attrSuccess:    &types.AttributeValueMemberBOOL{Value: delivery.Success},
		attrCreatedAt:  &types.AttributeValueMemberN{Value: strconv.FormatInt(createdAtMS, 10)},
	}

	optional := map[string]string{
		attrDeliveryID:   delivery.DeliveryID,
		attrErrorMessage: delivery.ErrorMessage,
		attrReleaseID:    delivery.ReleaseID,
		attrPayloadKey:   delivery.PayloadKey,
	}
	for name, value := range optional {
		if value = strings.TrimSpace(value); value != "" {
			item[name] = &types.AttributeValueMemberS{Value: value}
		}
	}

	if r.retention > 0 {
		expiresAt := createdAt.Add(r.retention).Unix()
		item[attrExpiresAt] = &types.AttributeValueMemberN{Value: strconv.FormatInt(expiresAt, 10)}
	}

	return item, nil
}

func fromItem(item map[string]types.AttributeValue) (port.WebhookDelivery, error) {
	id, err := attrString(item, attrID)
	if err != nil {
		return port.WebhookDelivery{}, err
	}
	repository, err := attrString(item, attrRepository)
	if err != nil {
		return port.WebhookDelivery{}, err
	}
	createdAtMS, err := attrInt64(item, attrCreatedAt)
	if err != nil {
		return port.WebhookDelivery{}, err
	}

	success := false
	if raw, ok := item[attrSuccess].(*types.AttributeValueMemberBOOL); ok {
		success = raw.Value
	}

	return port.WebhookDelivery{
		ID:           id,
		DeliveryID:   optionalString(item, attrDeliveryID),
		EventType:    optionalString(item, attrEventType),
		Repository:   repository,
		Success:      success,
		ErrorMessage: optionalString(item, attrErrorMessage),
		ReleaseID:    optionalString(item, attrReleaseID),
		PayloadKey:   optionalString(item, attrPayloadKey),
		CreatedAt:    time.UnixMilli(createdAtMS).UTC(),
	}, nil
}

func normalizeTimeRange(from, to time.Time) (int64, int64, bool, error) {
	from = from.UTC()
	to = to.UTC()
	if from.IsZero() && to.IsZero() {
		return 0, math.MaxInt64, false, nil
	}

	fromMS := int64(0)
	toMS := int64(math.MaxInt64)
	if !from.IsZero() {
		fromMS = from.UnixMilli()
	}
	if !to.IsZero() {
		toMS = to.UnixMilli()
	}

	if fromMS > toMS {
		return 0, 0, false, fmt.Errorf("from must be less than or equal to to")
	}

	return fromMS, toMS, true, nil
}

func buildPK(repository string) string {
	return "REPO#" + repository
}

func buildSK(createdAtMS int64, id string) string {
	return fmt.Sprintf("TS#%013d#ID#%s", createdAtMS, id)
}

func buildSortLowerBound(tsMS int64) string {
	return fmt.Sprintf("TS#%013d#", tsMS)
}

func buildSortUpperBound(tsMS int64) string {
	return fmt.Sprintf("TS#%013d#~", tsMS)
}

func encodeCursor(key map[string]types.AttributeValue, repository string, fromMS, toMS int64) (string, error) {
	values := make(map[string]cursorValue, len(key))
	for attributeName, raw := range key {
		switch value := raw.(type) {
		case *types.AttributeValueMemberS:
			values[attributeName] = cursorValue{S: value.Value}
		case *types.AttributeValueMemberN:
			values[attributeName] = cursorValue{N: value.Value}
		default:
			return "", fmt.Errorf("unsupported cursor attribute type for %s", attributeName)
		}
	}

	serialized, err := json.Marshal(cursorPayload{
		Repository: repository,
		FromMS:     fromMS,
		ToMS:       toMS,
		Key:        values,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(serialized), nil
}

func decodeCursor(cursor, repository string, fromMS, toMS int64) (map[string]types.AttributeValue, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor")
	}

	var payload cursorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid cursor")
	}

	if payload.Repository != repository || payload.FromMS != fromMS || payload.ToMS != toMS {
		return nil, fmt.Errorf("cursor does not match query filters")
	}

	key := make(map[string]types.AttributeValue, len(payload.Key))
	for attributeName, value := range payload.Key {
		if value.S != "" {
			key[attributeName] = &types.AttributeValueMemberS{Value: value.S}
			continue
		}
		if value.N != "" {
			key[attributeName] = &types.AttributeValueMemberN{Value: value.N}
			continue
		}
		return nil, fmt.Errorf("invalid cursor")
	}

	return key, nil
}

func attrString(item map[string]types.AttributeValue, name string) (string, error) {
	raw, ok := item[name]
	if !ok {
		return "", fmt.Errorf("missing attribute %s", name)
	}
	value, ok := raw.(*types.AttributeValueMemberS)
	if !ok || strings.TrimSpace(value.Value) == "" {
		return "", fmt.Errorf("invalid attribute %s", name)
	}
	return value.Value, nil
}

func optionalString(item map[string]types.AttributeValue, name string) string {
	value, ok := item[name].(*types.AttributeValueMemberS)
	if !ok {
		return ""
	}
	return value.Value
}

func attrInt64(item map[string]types.AttributeValue, name string) (int64, error) {
	raw, ok := item[name]
	if !ok {
		return 0, fmt.Errorf("missing attribute %s", name)
	}
	value, ok := raw.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("invalid attribute %s", name)
	}
	parsed, err := strconv.ParseInt(value.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid attribute %s: %w", name, err)
	}
	return parsed, nil
}
