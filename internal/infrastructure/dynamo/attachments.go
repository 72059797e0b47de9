package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/just-ease/justease-api/internal/domain"
)

// AttachmentRepo provides typed DynamoDB operations for attachment metadata.
type AttachmentRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAttachmentRepo(client *dynamodb.Client, tableName string) *AttachmentRepo {
	return &AttachmentRepo{client: client, tableName: tableName}
}

func (r *AttachmentRepo) Put(ctx context.Context, a *domain.Attachment) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal attachment: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *AttachmentRepo) Get(ctx context.Context, attachmentID string) (*domain.Attachment, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("attachment_id", attachmentID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("attachment %s: %w", attachmentID, domain.ErrNotFound)
	}
	var a domain.Attachment
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttachmentRepo) ListByCase(ctx context.Context, caseID string) ([]domain.Attachment, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("case_id-index"),
		KeyConditionExpression:    aws.String("#c = :v"),
		ExpressionAttributeNames:  map[string]string{"#c": "case_id"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: caseID}},
	})
	if err != nil {
		return nil, err
	}
	var atts []domain.Attachment
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &atts); err != nil {
		return nil, err
	}
	return atts, nil
}
