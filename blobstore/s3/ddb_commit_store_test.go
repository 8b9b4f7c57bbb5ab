package s3

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/segmento/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDDBClient is an in-memory DynamoDB table.
type mockDDBClient struct {
	mu    sync.RWMutex
	items map[string]map[string]types.AttributeValue
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{
		items: make(map[string]map[string]types.AttributeValue),
	}
}

func (m *mockDDBClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	baseURI := params.Item["base_uri"].(*types.AttributeValueMemberS).Value
	version := params.Item["version"].(*types.AttributeValueMemberN).Value
	key := baseURI + ":" + version

	if aws.ToString(params.ConditionExpression) == "attribute_not_exists(version)" {
		if _, exists := m.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}

	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	baseURI := params.ExpressionAttributeValues[":uri"].(*types.AttributeValueMemberS).Value

	var items []map[string]types.AttributeValue
	for _, item := range m.items {
		if item["base_uri"].(*types.AttributeValueMemberS).Value == baseURI {
			items = append(items, item)
		}
	}

	version := func(item map[string]types.AttributeValue) uint64 {
		v, _ := strconv.ParseUint(item["version"].(*types.AttributeValueMemberN).Value, 10, 64)
		return v
	}
	slices.SortFunc(items, func(a, b map[string]types.AttributeValue) int {
		return int(version(b)) - int(version(a))
	})

	if params.Limit != nil && int(*params.Limit) < len(items) {
		items = items[:*params.Limit]
	}

	return &dynamodb.QueryOutput{Items: items}, nil
}

type failingDDBClient struct{ mockDDBClient }

func (f *failingDDBClient) Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return nil, errors.New("throttled")
}

func newTestDDBCommitStore(ddb DDBClient, baseURI string) *DDBCommitStore {
	return NewDDBCommitStore(NewStore(&MockS3Client{}, "test-bucket", "test/"), ddb, "segmento-commits", baseURI)
}

func readCurrent(t *testing.T, store blobstore.BlobStore) string {
	t.Helper()
	data, err := blobstore.ReadAll(context.Background(), store, CurrentName, nil)
	require.NoError(t, err)
	return string(data)
}

func TestDDBCommitStore_FirstCommit(t *testing.T) {
	ctx := context.Background()
	store := newTestDDBCommitStore(newMockDDBClient(), "s3://test-bucket/test")

	require.NoError(t, store.Put(ctx, CurrentName, []byte("MANIFEST-000001.json")))
	assert.Equal(t, "MANIFEST-000001.json", readCurrent(t, store))

	version, manifest, err := store.LatestVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), version)
	assert.Equal(t, "MANIFEST-000001.json", manifest)
}

func TestDDBCommitStore_MultipleCommits(t *testing.T) {
	ctx := context.Background()
	store := newTestDDBCommitStore(newMockDDBClient(), "")

	for i := 1; i <= 12; i++ {
		require.NoError(t, store.Put(ctx, CurrentName, []byte(fmt.Sprintf("MANIFEST-%06d.json", i))))
	}

	assert.Equal(t, "MANIFEST-000012.json", readCurrent(t, store))
}

func TestDDBCommitStore_ConcurrentCommits(t *testing.T) {
	ctx := context.Background()
	store := newTestDDBCommitStore(newMockDDBClient(), "s3://test-bucket/test")

	require.NoError(t, store.Put(ctx, CurrentName, []byte("MANIFEST-000001.json")))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)

	for i := range 5 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			err := store.Put(ctx, CurrentName, []byte(fmt.Sprintf("MANIFEST-%06d.json", id+2)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrConcurrentModification):
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}

	wg.Wait()
	assert.Positive(t, successes, "at least one writer should succeed")
}

func TestDDBCommitStore_NotFoundBeforeCommit(t *testing.T) {
	store := newTestDDBCommitStore(newMockDDBClient(), "s3://test-bucket/test")

	_, err := store.Open(context.Background(), CurrentName)
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestDDBCommitStore_QueryError(t *testing.T) {
	store := newTestDDBCommitStore(&failingDDBClient{}, "s3://test-bucket/test")

	_, err := store.Open(context.Background(), CurrentName)
	require.Error(t, err)
	assert.NotErrorIs(t, err, blobstore.ErrNotFound)
}

func TestDDBCommitStore_IsolatedNamespaces(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()

	store1 := newTestDDBCommitStore(ddb, "s3://bucket-a/path")
	store2 := newTestDDBCommitStore(ddb, "s3://bucket-b/path")

	require.NoError(t, store1.Put(ctx, CurrentName, []byte("MANIFEST-A.json")))
	require.NoError(t, store2.Put(ctx, CurrentName, []byte("MANIFEST-B.json")))

	assert.Equal(t, "MANIFEST-A.json", readCurrent(t, store1))
	assert.Equal(t, "MANIFEST-B.json", readCurrent(t, store2))
}
