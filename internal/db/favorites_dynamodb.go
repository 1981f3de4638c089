package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const favoritesSK = "FAVORITES"

// dynamodbAPI is the part of the DynamoDB client the repository needs.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoFavoritesRepository keeps one item per chat holding the ordered list.
// Writes replace the whole item, so callers serialize through the ledger.
type DynamoFavoritesRepository struct {
	api       dynamodbAPI
	tableName string
}

func NewDynamoFavoritesRepository(api dynamodbAPI, tableName string) (*DynamoFavoritesRepository, error) {
	if api == nil {
		return nil, errors.New("favorites: dynamodb api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("favorites: table name must not be empty")
	}
	return &DynamoFavoritesRepository{api: api, tableName: tableName}, nil
}

func chatPK(chatID int64) string {
	return "CHAT#" + strconv.FormatInt(chatID, 10)
}

func (r *DynamoFavoritesRepository) GetFavorites(ctx context.Context, chatID int64) ([]string, error) {
	out, err := r.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: chatPK(chatID)},
			"SK": &types.AttributeValueMemberS{Value: favoritesSK},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("favorites: get chat %d: %w", chatID, err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, nil
	}

	attr, ok := out.Item["items"]
	if !ok {
		return nil, nil
	}
	list, ok := attr.(*types.AttributeValueMemberL)
	if !ok {
		return nil, fmt.Errorf("favorites: chat %d: attribute %q is not a list", chatID, "items")
	}

	ids := make([]string, 0, len(list.Value))
	for i, v := range list.Value {
		s, ok := v.(*types.AttributeValueMemberS)
		if !ok {
			return nil, fmt.Errorf("favorites: chat %d: item %d is not a string", chatID, i)
		}
		ids = append(ids, s.Value)
	}
	return ids, nil
}

func (r *DynamoFavoritesRepository) SetFavorites(ctx context.Context, chatID int64, ids []string) error {
	items := make([]types.AttributeValue, len(ids))
	for i, id := range ids {
		items[i] = &types.AttributeValueMemberS{Value: id}
	}

	_, err := r.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item: map[string]types.AttributeValue{
			"PK":        &types.AttributeValueMemberS{Value: chatPK(chatID)},
			"SK":        &types.AttributeValueMemberS{Value: favoritesSK},
			"items":     &types.AttributeValueMemberL{Value: items},
			"updatedAt": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
	})
	if err != nil {
		return fmt.Errorf("favorites: put chat %d: %w", chatID, err)
	}
	return nil
}
