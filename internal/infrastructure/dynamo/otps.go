package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/just-ease/justease-api/internal/domain"
)

// OTPRepo manages email verification codes.
// PK: email, SK: otp_id (ULID). History is append-only; the highest sort
// key is the latest record. The expires_at attribute is the table's TTL
// so abandoned codes are garbage-collected by DynamoDB.
type OTPRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOTPRepo(client *dynamodb.Client, tableName string) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName}
}

// Append persists a new verification record. Existing records for the same
// email are left untouched.
func (r *OTPRepo) Append(ctx context.Context, o *domain.EmailOTP) error {
	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// Latest returns the most recently issued record for the email. The ULID
// sort key is creation-ordered, so a descending query with limit 1 is the
// authoritative "latest" lookup.
func (r *OTPRepo) Latest(ctx context.Context, email string) (*domain.EmailOTP, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    aws.String("email = :e"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":e": &types.AttributeValueMemberS{Value: email}},
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("otp for %s: %w", email, domain.ErrNotFound)
	}
	var o domain.EmailOTP
	if err := attributevalue.UnmarshalMap(out.Items[0], &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// MarkVerified records a successful confirmation on the given record.
func (r *OTPRepo) MarkVerified(ctx context.Context, email, otpID string, at time.Time) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      compositeKey("email", email, "otp_id", otpID),
		UpdateExpression:         aws.String("SET #v = :t"),
		ExpressionAttributeNames: map[string]string{"#v": "verified_at"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberS{Value: at.UTC().Format(time.RFC3339Nano)},
		},
	})
	return err
}

// DeleteAll removes every record for the email. Called when signup consumes
// the verified state.
func (r *OTPRepo) DeleteAll(ctx context.Context, email string) error {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    aws.String("email = :e"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":e": &types.AttributeValueMemberS{Value: email}},
		ProjectionExpression:      aws.String("email, otp_id"),
	})
	if err != nil {
		return err
	}
	for _, item := range out.Items {
		sk, ok := item["otp_id"].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key:       compositeKey("email", email, "otp_id", sk.Value),
		}); err != nil {
			return err
		}
	}
	return nil
}
