package dynastate

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockClient is an in-memory implementation of Client for testing. By default
// PutItem, GetItem and DeleteItem operate on an internal item table indexed
// by the configured key field, so set/get/remove compose; any method can be
// overridden with the corresponding func field to inject errors or scripted
// responses.
type mockClient struct {
	keyField string

	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue

	puts       []*dynamodb.PutItemInput
	gets       []*dynamodb.GetItemInput
	deletes    []*dynamodb.DeleteItemInput
	creates    []*dynamodb.CreateTableInput
	describes  []*dynamodb.DescribeTableInput
	ttlUpdates []*dynamodb.UpdateTimeToLiveInput
	tableDrops []*dynamodb.DeleteTableInput

	putItemFunc          func(params *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	getItemFunc          func(params *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	deleteItemFunc       func(params *dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error)
	createTableFunc      func(params *dynamodb.CreateTableInput) (*dynamodb.CreateTableOutput, error)
	describeTableFunc    func(params *dynamodb.DescribeTableInput) (*dynamodb.DescribeTableOutput, error)
	updateTimeToLiveFunc func(params *dynamodb.UpdateTimeToLiveInput) (*dynamodb.UpdateTimeToLiveOutput, error)
	deleteTableFunc      func(params *dynamodb.DeleteTableInput) (*dynamodb.DeleteTableOutput, error)
}

var _ Client = (*mockClient)(nil)

func newMockClient(keyField string) *mockClient {
	return &mockClient{
		keyField: keyField,
		items:    make(map[string]map[string]types.AttributeValue),
	}
}

func (m *mockClient) keyOf(attrs map[string]types.AttributeValue) string {
	return attrValueToString(attrs[m.keyField])
}

func (m *mockClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts = append(m.puts, params)
	if m.putItemFunc != nil {
		return m.putItemFunc(params)
	}
	m.items[m.keyOf(params.Item)] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockClient) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets = append(m.gets, params)
	if m.getItemFunc != nil {
		return m.getItemFunc(params)
	}
	item, ok := m.items[m.keyOf(params.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (m *mockClient) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, params)
	if m.deleteItemFunc != nil {
		return m.deleteItemFunc(params)
	}
	delete(m.items, m.keyOf(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (m *mockClient) CreateTable(_ context.Context, params *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates = append(m.creates, params)
	if m.createTableFunc != nil {
		return m.createTableFunc(params)
	}
	return &dynamodb.CreateTableOutput{}, nil
}

func (m *mockClient) DescribeTable(_ context.Context, params *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.describes = append(m.describes, params)
	if m.describeTableFunc != nil {
		return m.describeTableFunc(params)
	}
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{
			TableName:   params.TableName,
			TableStatus: types.TableStatusActive,
		},
	}, nil
}

func (m *mockClient) UpdateTimeToLive(_ context.Context, params *dynamodb.UpdateTimeToLiveInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ttlUpdates = append(m.ttlUpdates, params)
	if m.updateTimeToLiveFunc != nil {
		return m.updateTimeToLiveFunc(params)
	}
	return &dynamodb.UpdateTimeToLiveOutput{}, nil
}

func (m *mockClient) DeleteTable(_ context.Context, params *dynamodb.DeleteTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tableDrops = append(m.tableDrops, params)
	if m.deleteTableFunc != nil {
		return m.deleteTableFunc(params)
	}
	return &dynamodb.DeleteTableOutput{}, nil
}
