package dynastate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

const (
	// DefaultRegion is the region used when no client, AWS configuration or
	// region override is supplied.
	DefaultRegion = "us-east-1"

	// DefaultKeyField is the default name of the reserved hash key attribute.
	// The underscores make a collision with caller-supplied field names
	// unlikely.
	DefaultKeyField = "__key__"

	// DefaultExpirationField is the default name of the reserved expiration
	// attribute.
	DefaultExpirationField = "__expiration__"
)

// StoreBuilder is a configurable factory for a RecordStore.
//
// Obtain one from Store, chain any non-default options, then call Build.
// A zero or partially configured builder is inert; nothing touches the
// network until Build.
type StoreBuilder struct {
	builderOptions
}

type builderOptions struct {
	client          Client
	table           string
	region          string
	keyField        string
	expirationField string
	consistentRead  bool
	connectOnCreate bool
	awsConfig       *aws.Config
	clientOptions   *dynamodb.Options
	clientOptFns    []func(*dynamodb.Options)
	keyFunc         KeyFunc
	codec           Codec
	loggers         ldlog.Loggers
	timeFn          func() time.Time                           // replaced in tests
	sleepFn         func(context.Context, time.Duration) error // replaced in tests
}

// Store returns a configurable builder for a DynamoDB-backed record store.
//
// The tableName parameter is required. The table does not need to exist yet;
// it can be created later with RecordStore.CreateTable. All other settings
// have defaults: region "us-east-1", consistent reads on, an eager connection
// warm-up on Build, the JSON codec, and the ":"-joining key function.
func Store(tableName string) *StoreBuilder {
	return &StoreBuilder{
		builderOptions: builderOptions{
			table:           tableName,
			region:          DefaultRegion,
			keyField:        DefaultKeyField,
			expirationField: DefaultExpirationField,
			consistentRead:  true,
			connectOnCreate: true,
			keyFunc:         DefaultKeyFunc,
			codec:           DefaultCodec(),
			loggers:         ldlog.NewDefaultLoggers(),
			timeFn:          time.Now,
			sleepFn:         ctxSleep,
		},
	}
}

// Region sets the AWS region used when the builder constructs the default
// client. It is ignored if a client or client configuration is supplied.
func (b *StoreBuilder) Region(region string) *StoreBuilder {
	b.region = region
	return b
}

// KeyField sets the name of the reserved hash key attribute. It must match
// the hash key of the backing table.
func (b *StoreBuilder) KeyField(name string) *StoreBuilder {
	b.keyField = name
	return b
}

// ExpirationField sets the name of the reserved expiration attribute. It must
// match the table's TTL attribute for automatic eviction to work.
func (b *StoreBuilder) ExpirationField(name string) *StoreBuilder {
	b.expirationField = name
	return b
}

// ConsistentRead determines whether Get requests strongly consistent reads.
// Strong consistency is on by default; turning it off halves the read cost at
// the risk of reading stale state.
func (b *StoreBuilder) ConsistentRead(consistent bool) *StoreBuilder {
	b.consistentRead = consistent
	return b
}

// ConnectOnCreate determines whether Build issues a throwaway get to force
// connection setup ahead of first real traffic. This is on by default; it
// matters most in a forking server model, where lazy initialization would
// otherwise repeat in every worker's first request.
func (b *StoreBuilder) ConnectOnCreate(connect bool) *StoreBuilder {
	b.connectOnCreate = connect
	return b
}

// DynamoClient specifies an existing client instance. Use this if you want to
// customize the client in ways not supported by other builder options, or to
// substitute a non-AWS implementation of the Client interface. If set, any
// configuration supplied with Region, ClientConfig or ClientOptions is
// ignored.
func (b *StoreBuilder) DynamoClient(client Client) *StoreBuilder {
	b.client = client
	return b
}

// ClientConfig specifies custom parameters for the dynamodb.NewFromConfig
// client constructor. This can be used to set properties such as credentials
// programmatically, rather than relying on the defaults from the environment.
func (b *StoreBuilder) ClientConfig(cfg aws.Config, optFns ...func(*dynamodb.Options)) *StoreBuilder {
	b.awsConfig = &cfg
	b.clientOptions = nil
	b.clientOptFns = optFns
	return b
}

// ClientOptions specifies custom parameters for the dynamodb.New client
// constructor. This can be used to set properties such as the region or
// endpoint programmatically, rather than relying on the defaults from the
// environment.
func (b *StoreBuilder) ClientOptions(options dynamodb.Options, optFns ...func(*dynamodb.Options)) *StoreBuilder {
	b.awsConfig = nil
	b.clientOptions = &options
	b.clientOptFns = optFns
	return b
}

// KeyFunc replaces the function that derives a record's storage key from an
// identifier and namespace. The default is DefaultKeyFunc.
func (b *StoreBuilder) KeyFunc(fn KeyFunc) *StoreBuilder {
	b.keyFunc = fn
	return b
}

// Codec replaces the codec used to encode and decode field values. The
// default is the JSON codec returned by DefaultCodec. Records written with
// one codec are not readable with another.
func (b *StoreBuilder) Codec(codec Codec) *StoreBuilder {
	b.codec = codec
	return b
}

// Loggers sets the loggers the store writes informational output to.
func (b *StoreBuilder) Loggers(loggers ldlog.Loggers) *StoreBuilder {
	b.loggers = loggers
	return b
}

// Build creates the RecordStore.
//
// Unless ConnectOnCreate(false) was set, Build realizes the configured client
// and issues a single throwaway get for a sentinel key to warm the
// connection. The result of that get is discarded; a miss is not an error,
// only a failure to construct the client or reach the store is.
func (b *StoreBuilder) Build(ctx context.Context) (*RecordStore, error) {
	if b.table == "" {
		return nil, errors.New("table name is required")
	}
	if b.keyField == b.expirationField {
		return nil, errors.New("key field and expiration field must differ")
	}

	store := &RecordStore{
		options: b.builderOptions,
		loggers: b.loggers, // copied by value so we can modify it
	}
	store.loggers.SetPrefix("DynamoDBStateStore:")
	store.loggers.Infof("Using DynamoDB table %s", store.options.table)

	if b.connectOnCreate {
		if err := store.warm(ctx); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// lazyClient memoizes the realized Client so that construction happens at
// most once, on first use.
type lazyClient struct {
	once   sync.Once
	client Client
	err    error
}

func (lc *lazyClient) get(ctx context.Context, options builderOptions) (Client, error) {
	lc.once.Do(func() {
		lc.client, lc.err = makeClient(ctx, options)
	})
	return lc.client, lc.err
}
