package dynastate

// Implementation notes:
//
// - A record occupies one item keyed by a single string hash key. The key is
// derived from the caller's (id, namespace) pair by the configured KeyFunc,
// so callers never supply the key attribute directly.
//
// - Because of DynamoDB's restrictions on attribute values (e.g. empty
// strings were historically not allowed, and numeric types lose the
// distinction between integers and booleans), record fields are not stored
// with one native DynamoDB type per value. Instead every field - including
// numbers and booleans - is stored as a string attribute holding the codec's
// textual encoding of the value. The reserved key and expiration attributes
// are stored the same way.
//
// - Set is a full item replace with no condition expression. There is no
// read-modify-write and no optimistic concurrency: concurrent writers to the
// same key race, and the last PutItem to land wins in full.
//
// - Expiration is written as an absolute epoch timestamp for DynamoDB's TTL
// feature to act on. The store never filters expired records on read;
// eviction belongs to DynamoDB (or a higher layer).
//
// - DynamoDB has a maximum item size of 400KB. Since each record is a single
// item, records larger than that cannot be stored; Set reports them as an
// error before issuing the write.

import (
	"context"
	"fmt"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	// Sentinel identifier used for the connection warm-up get and for Ping.
	// It is never written, so the lookup is always a miss; only transport
	// failures surface.
	pingKeyID = "$ping"

	// We won't try to store items whose total size exceeds this. The DynamoDB
	// documentation says only "400KB", which probably means 400*1024, but to
	// avoid any chance of trying to store a too-large item we are rounding it
	// down.
	dynamoDbMaxItemSize = 400000
)

// RecordStore stores, retrieves and deletes keyed expiring state records in a
// DynamoDB table. Create one with Store().Build().
//
// A RecordStore holds no per-record state of its own; every operation is a
// single independent remote call, so it is safe for concurrent use as long as
// the underlying client is (the AWS SDK client is).
type RecordStore struct {
	options builderOptions
	lazy    lazyClient
	loggers ldlog.Loggers
}

// Set writes the record for (id, namespace), replacing any existing record
// with the same derived key in full.
//
// Fields of data with nil values are treated as absent and omitted from the
// stored item entirely. If expireIn is positive, the record's expiration
// attribute is set to now+expireIn; otherwise no expiration attribute is
// written and the record never expires. If data contains fields named like
// the configured key or expiration attributes, the reserved values win.
//
// Errors from the underlying client are returned unchanged apart from
// wrapping; this layer performs no retries.
func (store *RecordStore) Set(ctx context.Context, id string, namespace []string, data map[string]any, expireIn time.Duration) error {
	key := store.options.keyFunc(id, namespace)

	item := make(map[string]types.AttributeValue, len(data)+2)
	for field, value := range data {
		if value == nil {
			continue
		}
		if err := store.encodeField(item, field, value); err != nil {
			return err
		}
	}

	// Reserved fields are assigned last so they win any name collision with
	// caller data.
	if err := store.encodeField(item, store.options.keyField, key); err != nil {
		return err
	}
	delete(item, store.options.expirationField)
	if expireIn > 0 {
		expiration := store.options.timeFn().Add(expireIn).Unix()
		if err := store.encodeField(item, store.options.expirationField, expiration); err != nil {
			return err
		}
	}

	if size := itemSize(item); size > dynamoDbMaxItemSize {
		return fmt.Errorf("record %q is too large to store in DynamoDB (%d bytes)", key, size)
	}

	client, err := store.client(ctx)
	if err != nil {
		return err
	}
	_, err = client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(store.options.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put record %q: %w", key, err)
	}
	return nil
}

// Get fetches and decodes the record for (id, namespace).
//
// A missing record is not an error: Get returns (nil, nil). A found record is
// returned as the full decoded mapping, including the reserved key and
// expiration fields verbatim; expiration is not enforced here. Attributes
// whose stored value is empty are skipped. If any field fails to decode, Get
// returns a *MalformedRecordError and no partial mapping.
func (store *RecordStore) Get(ctx context.Context, id string, namespace []string) (map[string]any, error) {
	key := store.options.keyFunc(id, namespace)

	client, err := store.client(ctx)
	if err != nil {
		return nil, err
	}
	encodedKey, err := store.options.codec.Encode(key)
	if err != nil {
		return nil, err
	}
	result, err := client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(store.options.table),
		ConsistentRead: aws.Bool(store.options.consistentRead),
		Key: map[string]types.AttributeValue{
			store.options.keyField: attrValueOfString(encodedKey),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get record %q: %w", key, err)
	}
	if len(result.Item) == 0 {
		if store.loggers.IsDebugEnabled() {
			store.loggers.Debugf("Record not found (key=%s)", key)
		}
		return nil, nil
	}

	record := make(map[string]any, len(result.Item))
	for field, value := range result.Item {
		encoded := attrValueToString(value)
		if encoded == "" {
			continue
		}
		decoded, err := store.options.codec.Decode(encoded)
		if err != nil {
			return nil, &MalformedRecordError{Field: field, Err: err}
		}
		record[field] = decoded
	}
	return record, nil
}

// Remove deletes the record for (id, namespace). Deleting a record that does
// not exist is not an error.
func (store *RecordStore) Remove(ctx context.Context, id string, namespace []string) error {
	key := store.options.keyFunc(id, namespace)

	client, err := store.client(ctx)
	if err != nil {
		return err
	}
	encodedKey, err := store.options.codec.Encode(key)
	if err != nil {
		return err
	}
	_, err = client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(store.options.table),
		Key: map[string]types.AttributeValue{
			store.options.keyField: attrValueOfString(encodedKey),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete record %q: %w", key, err)
	}
	return nil
}

// Ping checks connectivity to the backing table.
//
// There is no specific DynamoDB API for just testing the connection, so Ping
// performs a get for a sentinel key that is never written; "not found" counts
// as success, and only transport, auth or table errors are returned.
func (store *RecordStore) Ping(ctx context.Context) error {
	client, err := store.client(ctx)
	if err != nil {
		return err
	}
	encodedKey, err := store.options.codec.Encode(store.options.keyFunc(pingKeyID, nil))
	if err != nil {
		return err
	}
	_, err = client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(store.options.table),
		ConsistentRead: aws.Bool(store.options.consistentRead),
		Key: map[string]types.AttributeValue{
			store.options.keyField: attrValueOfString(encodedKey),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to reach table %q: %w", store.options.table, err)
	}
	return nil
}

// warm forces client construction and connection setup at Build time.
func (store *RecordStore) warm(ctx context.Context) error {
	if store.loggers.IsDebugEnabled() {
		store.loggers.Debugf("Warming connection to table %s", store.options.table)
	}
	return store.Ping(ctx)
}

func (store *RecordStore) client(ctx context.Context) (Client, error) {
	return store.lazy.get(ctx, store.options)
}

func (store *RecordStore) encodeField(item map[string]types.AttributeValue, field string, value any) error {
	encoded, err := store.options.codec.Encode(value)
	if err != nil {
		return fmt.Errorf("cannot encode field %q: %w", field, err)
	}
	item[field] = attrValueOfString(encoded)
	return nil
}

// itemSize approximates the stored size of an item the way DynamoDB charges
// for it: attribute name lengths plus value lengths, with a fixed overhead
// for index data. See:
// https://docs.aws.amazon.com/amazondynamodb/latest/developerguide/CapacityUnitCalculations.html
func itemSize(item map[string]types.AttributeValue) int {
	size := 100
	for field, value := range item {
		size += len(field) + len(attrValueToString(value))
	}
	return size
}

func attrValueOfString(value string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: value}
}

func attrValueToString(value types.AttributeValue) string {
	switch v := value.(type) {
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		return v.Value
	default:
		return ""
	}
}
