package config

import (
	"os"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/pingcap/errors"
)

// flattenedFields lists the positional-argument schema in the exact
// order §4.7's key table enumerates them, for the CLI's flattened
// positional-argument constructor (§6, §12).
var flattenedFields = []struct {
	key    string
	assign func(*Config, string) error
}{
	{"logger.level", func(c *Config, v string) error { c.Logger.Level = LogLevel(v); return nil }},
	{"logger.file", func(c *Config, v string) error { c.Logger.File = v; return nil }},
	{"connection.host", func(c *Config, v string) error { c.Connection.Host = v; return nil }},
	{"connection.port", func(c *Config, v string) error { return assignUint16(&c.Connection.Port, v) }},
	{"connection.dns_srv_name", func(c *Config, v string) error { c.Connection.DNSSRVName = v; return nil }},
	{"connection.user", func(c *Config, v string) error { c.Connection.User = v; return nil }},
	{"connection.password", func(c *Config, v string) error { c.Connection.Password = v; return nil }},
	{"connection.connect_timeout", func(c *Config, v string) error { return assignUint32(&c.Connection.ConnectTimeout, v) }},
	{"connection.read_timeout", func(c *Config, v string) error { return assignUint32(&c.Connection.ReadTimeout, v) }},
	{"connection.write_timeout", func(c *Config, v string) error { return assignUint32(&c.Connection.WriteTimeout, v) }},
	{"connection.ssl.mode", func(c *Config, v string) error { c.Connection.SSL.Mode = SSLMode(v); return nil }},
	{"connection.ssl.ca", func(c *Config, v string) error { c.Connection.SSL.CA = v; return nil }},
	{"connection.ssl.capath", func(c *Config, v string) error { c.Connection.SSL.CAPath = v; return nil }},
	{"connection.ssl.crl", func(c *Config, v string) error { c.Connection.SSL.CRL = v; return nil }},
	{"connection.ssl.crlpath", func(c *Config, v string) error { c.Connection.SSL.CRLPath = v; return nil }},
	{"connection.ssl.cert", func(c *Config, v string) error { c.Connection.SSL.Cert = v; return nil }},
	{"connection.ssl.key", func(c *Config, v string) error { c.Connection.SSL.Key = v; return nil }},
	{"connection.ssl.cipher", func(c *Config, v string) error { c.Connection.SSL.Cipher = v; return nil }},
	{"replication.server_id", func(c *Config, v string) error { return assignUint32(&c.Replication.ServerID, v) }},
	{"replication.idle_time", func(c *Config, v string) error { return assignUint32(&c.Replication.IdleTime, v) }},
	{"storage.uri", func(c *Config, v string) error { c.Storage.URI = v; return nil }},
	{"storage.checkpoint_size", func(c *Config, v string) error {
		u, err := ParseSizeUnit(v)
		if err != nil {
			return err
		}
		c.Storage.CheckpointSize = u
		return nil
	}},
	{"storage.checkpoint_interval", func(c *Config, v string) error {
		u, err := ParseTimeUnit(v)
		if err != nil {
			return err
		}
		c.Storage.CheckpointInterval = u
		return nil
	}},
}

func assignUint16(dst *uint16, v string) error {
	n, err := parseUint(v, 16)
	if err != nil {
		return err
	}
	*dst = uint16(n)
	return nil
}

func assignUint32(dst *uint32, v string) error {
	n, err := parseUint(v, 32)
	if err != nil {
		return err
	}
	*dst = uint32(n)
	return nil
}

func parseUint(v string, bits int) (uint64, error) {
	n, err := strconv.ParseUint(v, 10, bits)
	if err != nil {
		return 0, errors.Annotatef(err, "config: invalid integer %q", v)
	}
	return n, nil
}

// Load reads configuration from either a single JSON file path or a
// flattened positional argument list matching flattenedFields' order
// (§6, §12).
func Load(args []string) (Config, error) {
	var cfg Config
	switch {
	case len(args) == 0:
		return cfg, errors.New("config: no configuration arguments given")
	case len(args) == 1:
		if err := loadJSONFile(&cfg, args[0]); err != nil {
			return cfg, err
		}
	default:
		if err := loadFlattened(&cfg, args); err != nil {
			return cfg, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadJSONFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Annotatef(err, "config: reading %s", path)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return errors.Annotatef(err, "config: parsing %s", path)
	}
	return nil
}

func loadFlattened(cfg *Config, args []string) error {
	if len(args) > len(flattenedFields) {
		return errors.Errorf("config: %d positional arguments exceeds the %d-field schema", len(args), len(flattenedFields))
	}
	for i, v := range args {
		if v == "" {
			continue
		}
		if err := flattenedFields[i].assign(cfg, v); err != nil {
			return errors.Annotatef(err, "config: field %s", flattenedFields[i].key)
		}
	}
	return nil
}
