package config

import (
	"net/url"
	"strings"

	"github.com/pingcap/errors"
)

// LogLevel is one of §4.7's logger.level enum values.
type LogLevel string

const (
	LogLevelTrace     LogLevel = "trace"
	LogLevelDebug     LogLevel = "debug"
	LogLevelInfo      LogLevel = "info"
	LogLevelWarning   LogLevel = "warning"
	LogLevelError     LogLevel = "error"
	LogLevelFatal     LogLevel = "fatal"
	LogLevelDelimiter LogLevel = "delimiter"
)

func (l LogLevel) Valid() bool {
	switch l {
	case LogLevelTrace, LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError, LogLevelFatal, LogLevelDelimiter:
		return true
	default:
		return false
	}
}

// LoggerConfig is the `logger.*` record.
type LoggerConfig struct {
	Level LogLevel `json:"level"`
	File  string   `json:"file,omitempty"`
}

// SSLMode is `connection.ssl.mode`'s enum.
type SSLMode string

const (
	SSLModeDisabled      SSLMode = "disabled"
	SSLModePreferred     SSLMode = "preferred"
	SSLModeRequired      SSLMode = "required"
	SSLModeVerifyCA      SSLMode = "verify_ca"
	SSLModeVerifyIdentity SSLMode = "verify_identity"
)

func (m SSLMode) Valid() bool {
	switch m {
	case SSLModeDisabled, SSLModePreferred, SSLModeRequired, SSLModeVerifyCA, SSLModeVerifyIdentity:
		return true
	default:
		return false
	}
}

// SSLConfig is `connection.ssl.*`, grounded on easymysql's ssl_config.hpp
// field set: a mode plus the usual OpenSSL material paths.
type SSLConfig struct {
	Mode    SSLMode `json:"mode"`
	CA      string  `json:"ca,omitempty"`
	CAPath  string  `json:"capath,omitempty"`
	CRL     string  `json:"crl,omitempty"`
	CRLPath string  `json:"crlpath,omitempty"`
	Cert    string  `json:"cert,omitempty"`
	Key     string  `json:"key,omitempty"`
	Cipher  string  `json:"cipher,omitempty"`
}

// TLSConfig is `connection.tls.*`: protocol version and ciphersuite pins
// layered on top of SSLConfig's certificate material.
type TLSConfig struct {
	MinVersion   string `json:"min_version,omitempty"`
	MaxVersion   string `json:"max_version,omitempty"`
	Ciphersuites string `json:"ciphersuites,omitempty"`
}

// ConnectionConfig is `connection.*`.
type ConnectionConfig struct {
	Host        string `json:"host,omitempty"`
	Port        uint16 `json:"port,omitempty"`
	DNSSRVName  string `json:"dns_srv_name,omitempty"`
	User        string `json:"user"`
	Password    string `json:"password"`
	ConnectTimeout uint32 `json:"connect_timeout,omitempty"`
	ReadTimeout    uint32 `json:"read_timeout,omitempty"`
	WriteTimeout   uint32 `json:"write_timeout,omitempty"`
	SSL SSLConfig `json:"ssl"`
	TLS TLSConfig `json:"tls"`
}

// usesHostPort and usesDNSSRV implement §4.7's "exactly one of
// {host+port, dns_srv_name}" rule.
func (c ConnectionConfig) usesHostPort() bool { return c.Host != "" || c.Port != 0 }
func (c ConnectionConfig) usesDNSSRV() bool   { return c.DNSSRVName != "" }

func (c ConnectionConfig) validate() error {
	hostPort := c.usesHostPort()
	dnsSRV := c.usesDNSSRV()
	if hostPort == dnsSRV {
		return configErrorf("exactly one of connection.host+port or connection.dns_srv_name must be set")
	}
	if hostPort && c.Host == "" {
		return configErrorf("connection.port set without connection.host")
	}
	if c.SSL.Mode != "" && !c.SSL.Mode.Valid() {
		return configErrorf("invalid connection.ssl.mode %q", c.SSL.Mode)
	}
	return nil
}

// ReplicationConfig is `replication.*`.
type ReplicationConfig struct {
	ServerID uint32 `json:"server_id"`
	IdleTime uint32 `json:"idle_time,omitempty"`
}

// StorageConfig is `storage.*`.
type StorageConfig struct {
	URI               string   `json:"uri"`
	CheckpointSize    SizeUnit `json:"checkpoint_size,omitempty"`
	CheckpointInterval TimeUnit `json:"checkpoint_interval,omitempty"`
}

// StorageScheme is the URI scheme a storage.uri resolves to.
type StorageScheme string

const (
	StorageSchemeFile StorageScheme = "file"
	StorageSchemeS3   StorageScheme = "s3"
)

// ParsedStorageURI is storage.uri broken down per §6's "Storage URIs"
// grammar: `file://<path>` or `s3://[user:pass@]bucket/prefix`.
type ParsedStorageURI struct {
	Scheme StorageScheme
	Path   string // file scheme: filesystem path
	Bucket string // s3 scheme: bucket name
	Prefix string // s3 scheme: key prefix under the bucket
	User   string // s3 scheme: optional access key
	Pass   string // s3 scheme: optional secret
}

// ParseStorageURI validates and decomposes storage.uri, rejecting any
// scheme other than file:// and s3:// (§6).
func ParseStorageURI(raw string) (ParsedStorageURI, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return ParsedStorageURI{}, errors.Annotatef(err, "config: invalid storage.uri %q", raw)
	}
	switch u.Scheme {
	case "file":
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		if path == "" {
			return ParsedStorageURI{}, errors.Errorf("config: storage.uri %q is missing a path", raw)
		}
		return ParsedStorageURI{Scheme: StorageSchemeFile, Path: path}, nil
	case "s3":
		if u.Host == "" {
			return ParsedStorageURI{}, errors.Errorf("config: storage.uri %q is missing a bucket", raw)
		}
		pu := ParsedStorageURI{
			Scheme: StorageSchemeS3,
			Bucket: u.Host,
			Prefix: strings.TrimPrefix(u.Path, "/"),
		}
		if u.User != nil {
			pu.User = u.User.Username()
			pu.Pass, _ = u.User.Password()
		}
		return pu, nil
	default:
		return ParsedStorageURI{}, errors.Errorf("config: unsupported storage.uri scheme %q", u.Scheme)
	}
}

func (s StorageConfig) validate() error {
	if s.URI == "" {
		return configErrorf("storage.uri is required")
	}
	_, err := ParseStorageURI(s.URI)
	return err
}

// Config is the whole configuration tree JSON-deserializes into, field
// names mapping verbatim onto §4.7's dotted key table.
type Config struct {
	Logger      LoggerConfig      `json:"logger"`
	Connection  ConnectionConfig  `json:"connection"`
	Replication ReplicationConfig `json:"replication"`
	Storage     StorageConfig     `json:"storage"`
}

// Validate checks the cross-field rules §4.7 states in prose rather than
// per-key: the logger level enum, the connection host/dns_srv_name
// mutual exclusion, and the storage URI scheme.
func (c Config) Validate() error {
	if c.Logger.Level != "" && !c.Logger.Level.Valid() {
		return configErrorf("invalid logger.level %q", c.Logger.Level)
	}
	if err := c.Connection.validate(); err != nil {
		return err
	}
	if err := c.Storage.validate(); err != nil {
		return err
	}
	return nil
}
