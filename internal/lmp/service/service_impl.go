package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ClemmensSES/SESSalesResources/internal/config"
	"github.com/ClemmensSES/SESSalesResources/internal/lmp/domain"
)

// DocumentClient is the slice of the gateway client the reconciler
// needs.
type DocumentClient interface {
	GetDocument(ctx context.Context, name string) (json.RawMessage, bool, error)
	PutDocument(ctx context.Context, name string, doc any) error
}

// PriceSource fetches upstream pricing data.
type PriceSource interface {
	FetchMonthly(ctx context.Context, iso string, zones []string) ([]domain.MonthlyRecord, error)
	FetchHourly(ctx context.Context, iso string) (map[string][]domain.HourlyPrice, error)
}

// Report summarizes one reconciliation run.
type Report struct {
	Monthly domain.MergeStats `json:"monthly"`
	Hourly  domain.MergeStats `json:"hourly"`
}

type Params struct {
	fx.In

	Cfg     config.Config
	Log     *zap.Logger
	Gateway DocumentClient
	Source  PriceSource
}

// Service is the offline merge reconciler. One Run is one ingestion
// cycle: snapshot, fetch everything, merge in memory, then at most one
// write per document. Any failure before the writes aborts the run
// with the remote documents untouched.
type Service struct {
	cfg     config.SyncConfig
	log     *zap.Logger
	gateway DocumentClient
	source  PriceSource
}

func New(p Params) *Service {
	return &Service{
		cfg:     p.Cfg.Sync,
		log:     p.Log.Named("lmp.sync"),
		gateway: p.Gateway,
		source:  p.Source,
	}
}

func (s *Service) Run(ctx context.Context) (Report, error) {
	var report Report

	existingMonthly, err := s.snapshotMonthly(ctx)
	if err != nil {
		return report, err
	}
	existingHourly, err := s.snapshotHourly(ctx)
	if err != nil {
		return report, err
	}

	var incomingMonthly []domain.MonthlyRecord
	incomingHourly := domain.HourlyDatabase{}
	for _, iso := range s.cfg.ISOs {
		monthly, err := s.source.FetchMonthly(ctx, iso, s.cfg.Zones[iso])
		if err != nil {
			return report, fmt.Errorf("%w: %v", domain.ErrSyncFailed, err)
		}
		incomingMonthly = append(incomingMonthly, monthly...)

		hourly, err := s.source.FetchHourly(ctx, iso)
		if err != nil {
			return report, fmt.Errorf("%w: %v", domain.ErrSyncFailed, err)
		}
		if len(hourly) > 0 {
			incomingHourly[iso] = hourly
		}
	}

	mergedMonthly, monthlyStats := domain.MergeMonthly(existingMonthly, incomingMonthly)
	mergedHourly, hourlyStats := domain.MergeHourly(existingHourly, incomingHourly)
	report.Monthly = monthlyStats
	report.Hourly = hourlyStats

	s.log.Info("merge computed",
		zap.Any("monthly", monthlyStats),
		zap.Any("hourly", hourlyStats),
	)

	if monthlyStats.Added+monthlyStats.Updated > 0 {
		if err := s.gateway.PutDocument(ctx, s.cfg.MonthlyDocument, mergedMonthly); err != nil {
			return report, fmt.Errorf("%w: write %s: %v", domain.ErrSyncFailed, s.cfg.MonthlyDocument, err)
		}
	} else {
		s.log.Info("monthly document unchanged, skipping write")
	}

	if hourlyStats.Added+hourlyStats.Updated > 0 {
		if err := s.gateway.PutDocument(ctx, s.cfg.HourlyDocument, mergedHourly); err != nil {
			return report, fmt.Errorf("%w: write %s: %v", domain.ErrSyncFailed, s.cfg.HourlyDocument, err)
		}
	} else {
		s.log.Info("hourly document unchanged, skipping write")
	}

	return report, nil
}

func (s *Service) snapshotMonthly(ctx context.Context) ([]domain.MonthlyRecord, error) {
	raw, found, err := s.gateway.GetDocument(ctx, s.cfg.MonthlyDocument)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrSyncFailed, s.cfg.MonthlyDocument, err)
	}
	if !found {
		return nil, nil
	}
	var records []domain.MonthlyRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrSyncFailed, s.cfg.MonthlyDocument, err)
	}
	return records, nil
}

func (s *Service) snapshotHourly(ctx context.Context) (domain.HourlyDatabase, error) {
	raw, found, err := s.gateway.GetDocument(ctx, s.cfg.HourlyDocument)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrSyncFailed, s.cfg.HourlyDocument, err)
	}
	if !found {
		return domain.HourlyDatabase{}, nil
	}
	var db domain.HourlyDatabase
	if err := json.Unmarshal(raw, &db); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrSyncFailed, s.cfg.HourlyDocument, err)
	}
	return db, nil
}
