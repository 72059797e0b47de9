package dynamo

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/just-ease/justease-api/internal/domain"
)

// CaseRepo provides typed DynamoDB operations for the cases table.
type CaseRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCaseRepo(client *dynamodb.Client, tableName string) *CaseRepo {
	return &CaseRepo{client: client, tableName: tableName}
}

func (r *CaseRepo) Put(ctx context.Context, c *domain.Case) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal case: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *CaseRepo) Get(ctx context.Context, caseID string) (*domain.Case, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("case_id", caseID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("case %s: %w", caseID, domain.ErrNotFound)
	}
	var c domain.Case
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByUser returns the user's cases, newest first, via the composite
// user_id/created_at GSI.
func (r *CaseRepo) ListByUser(ctx context.Context, userID string) ([]domain.Case, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("user_id-created_at-index"),
		KeyConditionExpression:    aws.String("#u = :v"),
		ExpressionAttributeNames:  map[string]string{"#u": "user_id"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: userID}},
		ScanIndexForward:          aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	var cases []domain.Case
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &cases); err != nil {
		return nil, err
	}
	return cases, nil
}

// ListByStatus returns cases in the given status, newest first, via the
// status/created_at GSI. Used by the lawyer explore view.
func (r *CaseRepo) ListByStatus(ctx context.Context, status string) ([]domain.Case, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("status-created_at-index"),
		KeyConditionExpression:    aws.String("#s = :v"),
		ExpressionAttributeNames:  map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: status}},
		ScanIndexForward:          aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	var cases []domain.Case
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &cases); err != nil {
		return nil, err
	}
	// GSI range key ordering already sorts within the partition; keep a
	// stable newest-first order regardless of marshalling quirks.
	sort.SliceStable(cases, func(i, j int) bool { return cases[i].CreatedAt.After(cases[j].CreatedAt) })
	return cases, nil
}
