package dynastate

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Client is the set of DynamoDB operations the store requires. It mirrors the
// corresponding method signatures of the AWS SDK v2 *dynamodb.Client, so a
// real client satisfies it directly; any other implementation - a wrapper, a
// local emulation, a test double - can be substituted with
// StoreBuilder.DynamoClient.
//
// PutItem, GetItem and DeleteItem serve the hot path. CreateTable,
// DescribeTable, UpdateTimeToLive and DeleteTable are only used by the
// administrative table operations.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	UpdateTimeToLive(ctx context.Context, params *dynamodb.UpdateTimeToLiveInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error)
	DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error)
}

var _ Client = (*dynamodb.Client)(nil)

// makeClient realizes the client configured on the builder. A pre-built
// client wins over raw configuration; raw configuration wins over the default
// region-only construction.
func makeClient(ctx context.Context, options builderOptions) (Client, error) {
	if options.client != nil {
		return options.client, nil
	}
	if options.awsConfig != nil {
		return dynamodb.NewFromConfig(*options.awsConfig, options.clientOptFns...), nil
	}
	if options.clientOptions != nil {
		return dynamodb.New(*options.clientOptions, options.clientOptFns...), nil
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(options.region))
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(cfg, options.clientOptFns...), nil
}
