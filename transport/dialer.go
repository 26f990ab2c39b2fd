package transport

import (
	"net"
	"time"

	"github.com/pingcap/errors"

	"github.com/gongzhxu/binsrv/config"
)

// Dialer opens the out-of-scope MySQL transport connection using the
// connect/read/write timeouts from connection.* (§4.7), replacing the
// teacher's pooled-connection timeout fields with a single-connection
// equivalent matching this core's one-connection concurrency model
// (§5).
type Dialer struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// NewDialer builds a Dialer from a connection config's second-granularity
// timeout fields.
func NewDialer(cfg config.ConnectionConfig) Dialer {
	return Dialer{
		ConnectTimeout: time.Duration(cfg.ConnectTimeout) * time.Second,
		ReadTimeout:    time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.WriteTimeout) * time.Second,
	}
}

// Dial connects to addr, applying ConnectTimeout and, when set,
// installing a read/write deadline refreshed by the caller per
// operation (handshake/auth are the caller's responsibility; §6).
func (d Dialer) Dial(network, addr string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: d.ConnectTimeout}
	conn, err := dialer.Dial(network, addr)
	if err != nil {
		return nil, errors.Annotatef(err, "transport: dialing %s", addr)
	}
	if d.ReadTimeout != 0 || d.WriteTimeout != 0 {
		if err := d.applyDeadlines(conn); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return conn, nil
}

func (d Dialer) applyDeadlines(conn net.Conn) error {
	now := time.Now()
	if d.ReadTimeout != 0 {
		if err := conn.SetReadDeadline(now.Add(d.ReadTimeout)); err != nil {
			return errors.Annotate(err, "transport: setting read deadline")
		}
	}
	if d.WriteTimeout != 0 {
		if err := conn.SetWriteDeadline(now.Add(d.WriteTimeout)); err != nil {
			return errors.Annotate(err, "transport: setting write deadline")
		}
	}
	return nil
}
