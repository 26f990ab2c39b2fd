package config

import (
	"testing"

	"github.com/pingcap/errors"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Logger: LoggerConfig{Level: LogLevelInfo},
		Connection: ConnectionConfig{
			Host: "db.example.com",
			Port: 3306,
			User: "repl",
		},
		Replication: ReplicationConfig{ServerID: 1},
		Storage:     StorageConfig{URI: "file:///var/lib/binsrv"},
	}
}

func TestConfigValidateHappyPath(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestConfigValidateRejectsBadLogLevel(t *testing.T) {
	c := validConfig()
	c.Logger.Level = "verbose"
	require.Error(t, c.Validate())
}

func TestConfigValidateHostAndDNSSRVMutuallyExclusive(t *testing.T) {
	c := validConfig()
	c.Connection.DNSSRVName = "_mysql._tcp.example.com"
	require.Error(t, c.Validate())
}

func TestConfigValidateRequiresHostOrDNSSRV(t *testing.T) {
	c := validConfig()
	c.Connection.Host = ""
	c.Connection.Port = 0
	require.Error(t, c.Validate())
}

func TestConfigValidateDNSSRVAlone(t *testing.T) {
	c := validConfig()
	c.Connection.Host = ""
	c.Connection.Port = 0
	c.Connection.DNSSRVName = "_mysql._tcp.example.com"
	require.NoError(t, c.Validate())
}

func TestConfigValidateRejectsBadStorageURI(t *testing.T) {
	c := validConfig()
	c.Storage.URI = "ftp://example.com/path"
	require.Error(t, c.Validate())
}

func TestParseStorageURIFile(t *testing.T) {
	u, err := ParseStorageURI("file:///var/lib/binsrv/data")
	require.NoError(t, err)
	require.Equal(t, StorageSchemeFile, u.Scheme)
	require.Equal(t, "/var/lib/binsrv/data", u.Path)
}

func TestParseStorageURIS3(t *testing.T) {
	u, err := ParseStorageURI("s3://ak:sk@my-bucket/prefix/path")
	require.NoError(t, err)
	require.Equal(t, StorageSchemeS3, u.Scheme)
	require.Equal(t, "my-bucket", u.Bucket)
	require.Equal(t, "prefix/path", u.Prefix)
	require.Equal(t, "ak", u.User)
	require.Equal(t, "sk", u.Pass)
}

func TestParseStorageURIS3NoCredentials(t *testing.T) {
	u, err := ParseStorageURI("s3://my-bucket/prefix")
	require.NoError(t, err)
	require.Equal(t, "", u.User)
	require.Equal(t, "", u.Pass)
}

func TestParseStorageURIRejectsUnknownScheme(t *testing.T) {
	_, err := ParseStorageURI("http://example.com")
	require.Error(t, err)
}

func TestConfigValidateErrorCarriesCallSite(t *testing.T) {
	c := validConfig()
	c.Logger.Level = "verbose"
	err := c.Validate()
	require.Error(t, err)

	cause := errors.Cause(err)
	ce, ok := cause.(*ConfigError)
	require.True(t, ok, "expected *ConfigError, got %T", cause)
	require.Contains(t, ce.File, "config.go")
	require.NotZero(t, ce.Line)
	require.Contains(t, ce.Error(), "invalid logger.level")
}
