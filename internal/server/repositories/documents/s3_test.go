package documents

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sabo/internal/common"
)

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	getErr  error
	putErr  error
	puts    []*s3.PutObjectInput
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: make(map[string][]byte)}
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	body, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Bucket+"/"+*in.Key] = body
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Repository_Contract(t *testing.T) {
	exerciseRepository(t, NewS3Repository(newFakeObjects(), "bucket"))
}

func TestS3Repository_ObjectLayout(t *testing.T) {
	api := newFakeObjects()
	repo := NewS3Repository(api, "sabo")

	_, err := repo.Put(context.Background(), "u1", []byte(`[]`), testNow)
	require.NoError(t, err)

	require.Len(t, api.puts, 1)
	assert.Equal(t, "users/u1/items.json", *api.puts[0].Key)
	assert.Equal(t, "application/json", *api.puts[0].ContentType)
	assert.Contains(t, string(api.objects["sabo/users/u1/items.json"]), `"userId":"u1"`)
}

func TestS3Repository_Errors(t *testing.T) {
	ctx := context.Background()

	api := newFakeObjects()
	api.getErr = &smithy.GenericAPIError{Code: "NotFound"}
	_, err := NewS3Repository(api, "b").Get(ctx, "u1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	api.getErr = errors.New("network")
	_, err = NewS3Repository(api, "b").Put(ctx, "u1", []byte(`[]`), testNow)
	assert.ErrorContains(t, err, "get object: network")

	api = newFakeObjects()
	api.putErr = errors.New("denied")
	_, err = NewS3Repository(api, "b").Put(ctx, "u1", []byte(`[]`), testNow)
	assert.ErrorContains(t, err, "put object: denied")

	api = newFakeObjects()
	api.objects["b/users/u1/items.json"] = []byte("{broken")
	_, err = NewS3Repository(api, "b").Get(ctx, "u1")
	assert.ErrorContains(t, err, "decode object")
}
