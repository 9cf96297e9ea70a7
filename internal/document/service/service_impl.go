package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ClemmensSES/SESSalesResources/internal/blobstore"
	"github.com/ClemmensSES/SESSalesResources/internal/clock"
	"github.com/ClemmensSES/SESSalesResources/internal/document/domain"
)

type Params struct {
	fx.In

	Store blobstore.Store
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	store blobstore.Store
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		store: p.Store,
		log:   p.Log.Named("document.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) GetDocument(ctx context.Context, name string) (json.RawMessage, error) {
	data, err := s.store.Get(ctx, name)
	if err != nil {
		if err == blobstore.ErrNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return json.RawMessage(data), nil
}

func (s *Service) GetRecord(ctx context.Context, name, id string) (domain.Record, error) {
	records, err := s.loadArray(ctx, name)
	if err != nil {
		return nil, err
	}
	idx, found := domain.FindRecord(records, id)
	if !found {
		return nil, domain.ErrNotFound
	}
	return records[idx], nil
}

func (s *Service) CreateRecord(ctx context.Context, name string, body json.RawMessage, actor string) (domain.CreateResult, error) {
	var asRecord domain.Record
	if err := json.Unmarshal(body, &asRecord); err != nil {
		// Array bodies (or any non-object JSON) replace the whole file.
		if err := s.replaceRaw(ctx, name, body); err != nil {
			return domain.CreateResult{}, err
		}
		return domain.CreateResult{Replaced: true}, nil
	}

	existing, err := s.store.Get(ctx, name)
	if err != nil && err != blobstore.ErrNotFound {
		return domain.CreateResult{}, err
	}

	records := []domain.Record{}
	if err == nil {
		if jerr := json.Unmarshal(existing, &records); jerr != nil {
			// The stored document is not an array. Matching the portal's
			// long-standing behavior, the create degrades to a whole-file
			// replace instead of erroring.
			s.log.Warn("create against non-array document, replacing file",
				zap.String("document", name))
			if err := s.replaceRaw(ctx, name, body); err != nil {
				return domain.CreateResult{}, err
			}
			return domain.CreateResult{Replaced: true}, nil
		}
	}

	now := s.clock.Now().UTC().Format(time.RFC3339)
	record := make(domain.Record, len(asRecord)+3)
	for k, v := range asRecord {
		record[k] = v
	}
	if id, ok := record[domain.FieldID].(string); !ok || strings.TrimSpace(id) == "" {
		record[domain.FieldID] = s.newRecordID()
	}
	record[domain.FieldCreatedAt] = now
	record[domain.FieldCreatedBy] = actor

	records = append(records, record)
	if err := s.persist(ctx, name, records); err != nil {
		return domain.CreateResult{}, err
	}
	return domain.CreateResult{Record: record}, nil
}

func (s *Service) ReplaceDocument(ctx context.Context, name string, body json.RawMessage) error {
	return s.replaceRaw(ctx, name, body)
}

func (s *Service) UpdateRecord(ctx context.Context, name, id string, fields domain.Record, actor string) (domain.Record, error) {
	records, err := s.loadArray(ctx, name)
	if err != nil {
		return nil, err
	}
	idx, found := domain.FindRecord(records, id)
	if !found {
		return nil, domain.ErrNotFound
	}

	existing := records[idx]
	merged := make(domain.Record, len(existing)+len(fields))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	// Identity and creation stamps are immutable no matter what the
	// caller sent.
	for _, field := range []string{domain.FieldID, domain.FieldCreatedAt, domain.FieldCreatedBy} {
		if v, ok := existing[field]; ok {
			merged[field] = v
		} else {
			delete(merged, field)
		}
	}
	merged[domain.FieldUpdatedAt] = s.clock.Now().UTC().Format(time.RFC3339)
	merged[domain.FieldUpdatedBy] = actor

	records[idx] = merged
	if err := s.persist(ctx, name, records); err != nil {
		return nil, err
	}
	return merged, nil
}

func (s *Service) DeleteRecord(ctx context.Context, name, id string) error {
	records, err := s.loadArray(ctx, name)
	if err != nil {
		return err
	}
	kept, removed := domain.RemoveRecords(records, id)
	if !removed {
		return domain.ErrNotFound
	}
	return s.persist(ctx, name, kept)
}

func (s *Service) DeleteDocument(ctx context.Context, name string) error {
	existed, err := s.store.Delete(ctx, name)
	if err != nil {
		return err
	}
	if !existed {
		return domain.ErrNotFound
	}
	return nil
}

// loadArray loads the named document and requires it to be an array of
// records.
func (s *Service) loadArray(ctx context.Context, name string) ([]domain.Record, error) {
	data, err := s.store.Get(ctx, name)
	if err != nil {
		if err == blobstore.ErrNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var records []domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, domain.ErrNotArray
	}
	return records, nil
}

func (s *Service) persist(ctx context.Context, name string, records []domain.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return s.store.Put(ctx, name, data)
}

// replaceRaw normalizes arbitrary JSON and writes it as the whole
// document.
func (s *Service) replaceRaw(ctx context.Context, name string, body json.RawMessage) error {
	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return fmt.Errorf("decode body for %s: %w", name, err)
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return s.store.Put(ctx, name, data)
}

func (s *Service) newRecordID() string {
	suffix := strings.ToLower(ulid.Make().String())
	return fmt.Sprintf("%d-%s", s.genID.Generate().Int64(), suffix)
}
