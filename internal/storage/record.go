package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/skyclient/internal/domain"
	"github.com/Domenick1991/skyclient/internal/logger"
	"github.com/xeipuuv/gojsonschema"
)

// Record is one typed value stored as JSON under a fixed key and checked
// against a JSON Schema every time it is read. A stored value that does not
// decode or does not match the schema is deleted and reported as
// domain.ErrSchemaCorruption; a partially valid value is never returned.
type Record[T any] struct {
	backend Backend
	key     string
	schema  *gojsonschema.Schema
	logger  logger.Logger
}

func NewRecord[T any](backend Backend, key, schemaJSON string, log logger.Logger) (*Record[T], error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema for %q: %w", key, err)
	}
	return &Record[T]{
		backend: backend,
		key:     key,
		schema:  schema,
		logger:  log.WithFields(map[string]interface{}{"record": key}),
	}, nil
}

func (r *Record[T]) Key() string { return r.key }

func (r *Record[T]) Persist(ctx context.Context, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", r.key, err)
	}
	if err := r.validate(data); err != nil {
		return fmt.Errorf("refusing to persist %q: %w", r.key, err)
	}
	return r.backend.Set(ctx, r.key, data)
}

// Get returns nil, nil when nothing is stored under the key.
func (r *Record[T]) Get(ctx context.Context) (*T, error) {
	data, err := r.backend.Get(ctx, r.key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if verr := r.validate(data); verr != nil {
		return nil, r.heal(ctx, verr)
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, r.heal(ctx, err)
	}
	return &value, nil
}

func (r *Record[T]) Delete(ctx context.Context) error {
	return r.backend.Delete(ctx, r.key)
}

func (r *Record[T]) validate(data []byte) error {
	result, err := r.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			msgs[i] = desc.String()
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	return nil
}

// heal deletes the offending value and returns the corruption error.
func (r *Record[T]) heal(ctx context.Context, cause error) error {
	r.logger.Warn("deleting corrupted record", map[string]interface{}{"error": cause})
	if err := r.backend.Delete(ctx, r.key); err != nil {
		return fmt.Errorf("%w: %q: %v (delete failed: %v)", domain.ErrSchemaCorruption, r.key, cause, err)
	}
	return fmt.Errorf("%w: %q: %v", domain.ErrSchemaCorruption, r.key, cause)
}
