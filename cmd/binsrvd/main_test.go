package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gongzhxu/binsrv/config"
	"github.com/gongzhxu/binsrv/storage"
)

func TestOpenBackendRejectsS3(t *testing.T) {
	_, err := openBackend(config.StorageConfig{URI: "s3://bucket/prefix"})
	require.Error(t, err)
}

func TestOpenBackendFilesystem(t *testing.T) {
	b, err := openBackend(config.StorageConfig{URI: "file://" + t.TempDir()})
	require.NoError(t, err)
	require.NotNil(t, b)
}

func TestDetectReplicationModeDefaultsToPosition(t *testing.T) {
	b, err := storage.NewFilesystemBackend(t.TempDir())
	require.NoError(t, err)
	mode, _, err := detectReplicationMode(b)
	require.NoError(t, err)
	require.Equal(t, storage.ReplicationModePosition, mode)
}

func TestDetectReplicationModeGTIDWhenMetadataPresent(t *testing.T) {
	dir := t.TempDir()
	b, err := storage.NewFilesystemBackend(dir)
	require.NoError(t, err)
	require.NoError(t, b.PutObject(storage.MetadataName, []byte(`{"version":1,"mode":"gtid","gtid_set":""}`)))

	mode, _, err := detectReplicationMode(b)
	require.NoError(t, err)
	require.Equal(t, storage.ReplicationModeGTID, mode)
}

func TestDialSourceRequiresHost(t *testing.T) {
	_, err := dialSource(config.ConnectionConfig{DNSSRVName: "_mysql._tcp.example.com"})
	require.Error(t, err)
}
