package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryObjectStoreClient struct {
	objects map[string][]byte
	parts   map[string][][]byte
}

func newMemoryObjectStoreClient() *memoryObjectStoreClient {
	return &memoryObjectStoreClient{objects: map[string][]byte{}, parts: map[string][][]byte{}}
}

func (c *memoryObjectStoreClient) List(bucket, prefix string) (map[string]uint64, error) {
	out := map[string]uint64{}
	for k, v := range c.objects {
		if strings.HasPrefix(k, prefix) {
			out[strings.TrimPrefix(k, prefix+"/")] = uint64(len(v))
		}
	}
	return out, nil
}

func (c *memoryObjectStoreClient) Get(bucket, key string) ([]byte, error) {
	return c.objects[key], nil
}

func (c *memoryObjectStoreClient) Put(bucket, key string, content []byte) error {
	c.objects[key] = content
	return nil
}

func (c *memoryObjectStoreClient) BeginMultipart(bucket, key string) (string, error) {
	return key + "-upload", nil
}

func (c *memoryObjectStoreClient) UploadPart(bucket, key, uploadID string, data []byte) error {
	c.parts[uploadID] = append(c.parts[uploadID], data)
	return nil
}

func (c *memoryObjectStoreClient) CompleteMultipart(bucket, key, uploadID string) error {
	var joined []byte
	for _, p := range c.parts[uploadID] {
		joined = append(joined, p...)
	}
	c.objects[key] = append(c.objects[key], joined...)
	c.parts[uploadID] = nil
	return nil
}

func (c *memoryObjectStoreClient) AbortMultipart(bucket, key, uploadID string) error {
	delete(c.parts, uploadID)
	return nil
}

func TestObjectStoreBackendStreamLifecycle(t *testing.T) {
	client := newMemoryObjectStoreClient()
	b := NewObjectStoreBackend(client, "bucket", "prefix")

	_, err := b.OpenStream("binlog.000001", StreamCreate)
	require.NoError(t, err)
	require.NoError(t, b.WriteToStream([]byte("abc")))
	require.NoError(t, b.WriteToStream([]byte("def")))
	require.NoError(t, b.CloseStream())

	data, err := b.GetObject("binlog.000001")
	require.NoError(t, err)
	require.Equal(t, []byte("abcdef"), data)
}

func TestObjectStoreBackendFlushCheckpoints(t *testing.T) {
	client := newMemoryObjectStoreClient()
	b := NewObjectStoreBackend(client, "bucket", "")

	_, err := b.OpenStream("binlog.000001", StreamCreate)
	require.NoError(t, err)
	require.NoError(t, b.WriteToStream([]byte("abc")))
	require.NoError(t, b.FlushStream())

	data, err := b.GetObject("binlog.000001")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), data)

	require.NoError(t, b.WriteToStream([]byte("def")))
	require.NoError(t, b.CloseStream())

	data, err = b.GetObject("binlog.000001")
	require.NoError(t, err)
	require.Equal(t, []byte("abcdef"), data)
}
