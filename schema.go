package dynastate

// Administrative table operations. These are provisioning-time calls,
// independent of the hot set/get/remove path; nothing here is invoked by the
// store itself.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	// DefaultReadCapacityUnits and DefaultWriteCapacityUnits are the
	// provisioned throughput defaults used by SchemaArgs.
	DefaultReadCapacityUnits  = 1
	DefaultWriteCapacityUnits = 1

	// createTablePollStart is the first sleep of the CreateTable readiness
	// poll; each subsequent sleep doubles.
	createTablePollStart = time.Second
)

// SchemaArgs returns the default CreateTable request for the store's backing
// table: a single string hash key named by the configured key field, with
// provisioned throughput of 1 read and 1 write unit.
//
// The result is freshly allocated; callers may modify it before passing it to
// the client, which is exactly what CreateTable's option functions do.
func (store *RecordStore) SchemaArgs() *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName: aws.String(store.options.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String(store.options.keyField),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String(store.options.keyField),
				KeyType:       types.KeyTypeHash,
			},
		},
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(DefaultReadCapacityUnits),
			WriteCapacityUnits: aws.Int64(DefaultWriteCapacityUnits),
		},
	}
}

// CreateTable creates the store's backing table and blocks until it is ready
// to use.
//
// The request starts from SchemaArgs; each optFn may modify it before it is
// sent, with later functions seeing earlier functions' changes. After issuing
// the create, CreateTable polls DescribeTable until the table status is
// ACTIVE, sleeping between polls with a doubling schedule that starts at one
// second. DynamoDB imposes no upper bound on how long activation can take and
// neither does this loop, so callers should bound it with a deadline or
// cancelable context. Once active, TTL is enabled on the configured
// expiration field so that expired records are evicted automatically.
//
// Creating a table that already exists fails with the client's
// ResourceInUseException; errors from the create, describe and
// time-to-live calls are returned unchanged apart from wrapping, without
// retries.
func (store *RecordStore) CreateTable(ctx context.Context, optFns ...func(*dynamodb.CreateTableInput)) (*types.TableDescription, error) {
	client, err := store.client(ctx)
	if err != nil {
		return nil, err
	}

	input := store.SchemaArgs()
	for _, fn := range optFns {
		fn(input)
	}

	if _, err := client.CreateTable(ctx, input); err != nil {
		return nil, fmt.Errorf("failed to create table %q: %w", store.options.table, err)
	}

	table, err := store.waitUntilActive(ctx, client)
	if err != nil {
		return nil, err
	}

	_, err = client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(store.options.table),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			AttributeName: aws.String(store.options.expirationField),
			Enabled:       aws.Bool(true),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enable TTL on table %q: %w", store.options.table, err)
	}

	store.loggers.Infof("Created DynamoDB table %s", store.options.table)
	return table, nil
}

func (store *RecordStore) waitUntilActive(ctx context.Context, client Client) (*types.TableDescription, error) {
	wait := createTablePollStart
	for {
		if err := store.options.sleepFn(ctx, wait); err != nil {
			return nil, err
		}
		wait *= 2

		out, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(store.options.table),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to describe table %q: %w", store.options.table, err)
		}
		if out.Table.TableStatus == types.TableStatusActive {
			return out.Table, nil
		}
		if store.loggers.IsDebugEnabled() {
			store.loggers.Debugf("Table %s is %s, waiting %s", store.options.table, out.Table.TableStatus, wait)
		}
	}
}

// ctxSleep sleeps for the given duration unless the context ends first.
func ctxSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DropTable deletes the store's backing table. Deleting a table that does not
// exist is not an error. All records are lost; this is intended for tests and
// teardown tooling.
func (store *RecordStore) DropTable(ctx context.Context) error {
	client, err := store.client(ctx)
	if err != nil {
		return err
	}
	_, err = client.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(store.options.table),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to delete table %q: %w", store.options.table, err)
	}
	return nil
}
