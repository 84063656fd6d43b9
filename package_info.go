// Package dynastate provides a DynamoDB-backed store for keyed, expiring
// session state.
//
// The store persists opaque mappings of string fields to JSON-compatible
// values. Each record is keyed by a single string derived from a caller
// identifier and a namespace, and may carry an absolute expiration timestamp
// that DynamoDB's TTL feature uses to evict stale records.
//
// To create a store, start from the Store builder and configure any
// non-default options before calling Build:
//
//	store, err := dynastate.Store("sessions").Build(ctx)
//	if err != nil { ... }
//	err = store.Set(ctx, sessionID, []string{"web"}, data, time.Hour)
//
// By default the store constructs a basic DynamoDB client for the configured
// region, equivalent to:
//
//	cfg, _ := config.LoadDefaultConfig(ctx, config.WithRegion("us-east-1"))
//	client := dynamodb.NewFromConfig(cfg)
//
// This default will only work if your AWS credentials are available from the
// environment or configuration files. To set them programmatically, or to
// modify any other client settings, use the builder's ClientConfig or
// ClientOptions methods, or supply a pre-built client (or any other
// implementation of the Client interface) with DynamoClient. For example:
//
//	store, err := dynastate.Store("sessions").
//		ClientOptions(dynamodb.Options{Region: "eu-west-1"}).
//		Build(ctx)
//
// The backing table holds one item per record, with a single string hash key
// named by the KeyField option. Every field of a record - including numbers
// and booleans - is stored as a string attribute containing the codec's
// textual encoding of the field's value. A table with the expected schema can
// be created with RecordStore.CreateTable, which also enables TTL on the
// expiration attribute.
//
// If you are also using DynamoDB for other purposes, the store can coexist
// with other data in the same table as long as the key field name does not
// collide; it is still advisable to use a dedicated table, for better control
// over permissions and throughput.
package dynastate
