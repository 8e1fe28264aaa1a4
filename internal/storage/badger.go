package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/skyclient/internal/logger"
	"github.com/dgraph-io/badger/v4"
)

// BadgerBackend is the device-local store. When an encryption key is given
// every value is encrypted at rest.
type BadgerBackend struct {
	db *badger.DB
}

// OpenBadger opens (or creates) the store in dir. An empty dir opens an
// in-memory store. encryptionKey must be empty or 16, 24 or 32 bytes long.
func OpenBadger(dir string, encryptionKey []byte, log logger.Logger) (*BadgerBackend, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{log: log})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	if len(encryptionKey) > 0 {
		switch len(encryptionKey) {
		case 16, 24, 32:
		default:
			return nil, fmt.Errorf("badger encryption key must be 16, 24 or 32 bytes, got %d", len(encryptionKey))
		}
		opts = opts.WithEncryptionKey(encryptionKey).WithIndexCacheSize(8 << 20)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store %q: %w", dir, err)
	}
	return &BadgerBackend{db: db}, nil
}

func (b *BadgerBackend) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger get %q: %w", key, err)
	}
	return value, nil
}

func (b *BadgerBackend) Set(_ context.Context, key string, value []byte) error {
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	}); err != nil {
		return fmt.Errorf("badger set %q: %w", key, err)
	}
	return nil
}

func (b *BadgerBackend) Delete(_ context.Context, key string) error {
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	}); err != nil {
		return fmt.Errorf("badger delete %q: %w", key, err)
	}
	return nil
}

func (b *BadgerBackend) Close() error {
	return b.db.Close()
}

var _ ClosableBackend = (*BadgerBackend)(nil)

// badgerLogger routes badger's printf-style output into the structured logger.
type badgerLogger struct {
	log logger.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(format, args...), map[string]interface{}{"component": "badger"})
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, args...), map[string]interface{}{"component": "badger"})
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...), map[string]interface{}{"component": "badger"})
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...), map[string]interface{}{"component": "badger"})
}
