// Command binsrvd is the thin CLI entrypoint (§6, §12): it parses
// configuration, builds a logger and storage engine, and drives the
// single-threaded pull loop from a PacketSource into storage, exiting
// 0 on a clean shutdown and nonzero on any exception.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pingcap/errors"
	"go.uber.org/zap"

	"github.com/gongzhxu/binsrv/config"
	"github.com/gongzhxu/binsrv/event"
	"github.com/gongzhxu/binsrv/logging"
	"github.com/gongzhxu/binsrv/reader"
	"github.com/gongzhxu/binsrv/storage"
	"github.com/gongzhxu/binsrv/transport"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, errors.ErrorStack(err))
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logger)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	backend, err := openBackend(cfg.Storage)
	if err != nil {
		return err
	}

	mode, readerMode, err := detectReplicationMode(backend)
	if err != nil {
		return err
	}

	checkpointInterval := time.Duration(cfg.Storage.CheckpointInterval) * time.Second
	engine, err := storage.Open(backend, mode, uint64(cfg.Storage.CheckpointSize), checkpointInterval)
	if err != nil {
		return errors.Annotate(err, "binsrvd: opening storage")
	}
	defer engine.Close()

	logger.Info("storage opened", zap.String("backend", engine.Description()))

	conn, err := dialSource(cfg.Connection)
	if err != nil {
		return errors.Annotate(err, "binsrvd: connecting to source")
	}
	defer conn.Close()

	src := transport.NewConnPacketSource(conn)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return driveLoop(ctx, logger, src, reader.New(readerMode, true), engine)
}

// detectReplicationMode infers GTID vs. position mode from whether the
// backend already holds a metadata.json object (§4.7 has no dedicated
// mode key). Brand-new storage defaults to position mode.
func detectReplicationMode(backend storage.Backend) (storage.ReplicationMode, reader.Mode, error) {
	objects, err := backend.ListObjects()
	if err != nil {
		return "", 0, errors.Annotate(err, "binsrvd: probing storage for existing metadata")
	}
	if _, ok := objects[storage.MetadataName]; ok {
		return storage.ReplicationModeGTID, reader.ModeGTID, nil
	}
	return storage.ReplicationModePosition, reader.ModePosition, nil
}

func openBackend(cfg config.StorageConfig) (storage.Backend, error) {
	uri, err := config.ParseStorageURI(cfg.URI)
	if err != nil {
		return nil, err
	}
	switch uri.Scheme {
	case config.StorageSchemeFile:
		return storage.NewFilesystemBackend(uri.Path)
	case config.StorageSchemeS3:
		return nil, errors.New("binsrvd: s3:// storage requires an ObjectStoreClient wired in by the deployment")
	default:
		return nil, errors.Errorf("binsrvd: unsupported storage scheme %q", uri.Scheme)
	}
}

func dialSource(cfg config.ConnectionConfig) (net.Conn, error) {
	if cfg.Host == "" {
		return nil, errors.New("binsrvd: connection.dns_srv_name resolution is left to the deployment's resolver")
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	return transport.NewDialer(cfg).Dial("tcp", addr)
}

// driveLoop is §5's cooperative pull loop: read the next packet,
// decode it, feed it through the reader context, persist it, repeat.
// There is no internal scheduling or locking; cancellation unwinds
// through ctx.
func driveLoop(ctx context.Context, logger *zap.Logger, src transport.PacketSource, rc *reader.Context, engine *storage.Engine) error {
	for {
		if err := ctx.Err(); err != nil {
			logger.Info("shutting down cleanly")
			return nil
		}

		raw, err := src.Next(ctx)
		if err != nil {
			return errors.Annotate(err, "binsrvd: reading next packet")
		}

		ev, err := event.Parse(rc.ParseParams(), raw)
		if err != nil {
			return errors.Annotate(err, "binsrvd: parsing event")
		}

		if err := rc.Process(ev); err != nil {
			return errors.Annotate(err, "binsrvd: processing event")
		}
		engine.SetGTIDSet(rc.GTIDSet)

		if ev.Header.Artificial() {
			// Synthesized to bootstrap the stream; never itself stored
			// (the engine writes its own magic payload on create).
			if !engine.IsBinlogOpen() {
				if err := openCurrentBinlog(engine, ev); err != nil {
					return err
				}
			}
			continue
		}

		if err := engine.WriteEvent(raw); err != nil {
			return errors.Annotate(err, "binsrvd: writing event")
		}

		if rot, ok := ev.Body.(event.RotateEvent); ok {
			if err := engine.CloseBinlog(); err != nil {
				return err
			}
			if err := engine.OpenBinlog(rot.NextName); err != nil {
				return err
			}
		}
	}
}

func openCurrentBinlog(engine *storage.Engine, ev event.Event) error {
	rot, ok := ev.Body.(event.RotateEvent)
	if !ok {
		return errors.New("binsrvd: expected a rotate event to name the first binlog")
	}
	return engine.OpenBinlog(rot.NextName)
}
