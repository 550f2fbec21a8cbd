package rate

import (
	"cbrrates/internal/adapters"
	"cbrrates/internal/domain"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	SinkSpreadsheet = "spreadsheet"
	SinkDatabaseAPI = "database_api"
	SinkArchive     = "archive"
)

type RunConfig struct {
	OutputDir string
	KeyFields []string
}

// RunReport summarizes one run across all dates and sinks.
type RunReport struct {
	Records   int                 `json:"records"`
	Dates     []domain.DateResult `json:"dates"`
	ExcelFile string              `json:"excel_file,omitempty"`
	Uploaded  bool                `json:"uploaded"`
	Archived  bool                `json:"archived"`
}

type Service struct {
	parser  *Parser
	sender  adapters.RecordsSender
	archive adapters.RecordsArchive
	sheet   adapters.SpreadsheetWriter
	cache   adapters.RecordsCache
	metrics adapters.PipelineMetrics
	cfg     RunConfig
}

// RunDaily fetches today's rates and distributes them to every sink.
func (s *Service) RunDaily(ctx context.Context) (RunReport, error) {
	return s.RunDate(ctx, s.parser.Today())
}

// RunDate fetches the rates published for date, writes the spreadsheet and uploads the records.
func (s *Service) RunDate(ctx context.Context, date string) (RunReport, error) {
	var report RunReport

	future, err := s.parser.IsFuture(date)
	if err != nil {
		return report, err
	}
	if future {
		logrus.WithField("date", date).Info("Skipping future date")
		report.Dates = []domain.DateResult{{Date: date, Status: domain.DateStatusSkippedFuture}}
		return report, nil
	}

	store := NewStore()
	res := s.parser.ParseDate(ctx, store, date)
	report.Dates = []domain.DateResult{res}

	return report, s.distribute(ctx, store, &report, ExcelFileName(date))
}

// RunRange backfills [start, end]: records are deduplicated and uploaded, no spreadsheet is written.
func (s *Service) RunRange(ctx context.Context, start, end string) (RunReport, error) {
	var report RunReport

	store := NewStore()
	results, err := s.parser.ParseRange(ctx, store, start, end)
	report.Dates = results
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDate) {
			return report, err
		}
		logrus.WithError(err).Warnf("Range %s - %s interrupted, sending %d collected records", start, end, store.Len())
	}

	if sinkErr := s.distribute(ctx, store, &report, ""); sinkErr != nil {
		return report, errors.Join(err, sinkErr)
	}
	return report, err
}

// distribute deduplicates the store and hands the records to the sinks.
// Every sink is attempted even if an earlier one failed.
func (s *Service) distribute(ctx context.Context, store *Store, report *RunReport, excelName string) error {
	unique := NewStore()
	unique.Append(Dedupe(store.Records(), s.cfg.KeyFields)...)
	report.Records = unique.Len()

	if unique.Len() == 0 {
		logrus.Warn("No records collected, nothing to send")
		return nil
	}

	var errs []error

	if excelName != "" && s.sheet != nil {
		path := filepath.Join(s.cfg.OutputDir, excelName)
		header, rows := unique.Table()
		if err := s.sheet.Write(path, header, rows); err != nil {
			errs = append(errs, s.sinkFailed(SinkSpreadsheet, err))
		} else {
			s.metrics.ObserveSink(SinkSpreadsheet, true)
			report.ExcelFile = path
			logrus.WithField("sink", SinkSpreadsheet).Infof("Saved %d rates to %s", unique.Len(), path)
		}
	}

	if s.sender != nil {
		if err := s.sender.SendRecords(ctx, unique.Records()); err != nil {
			errs = append(errs, s.sinkFailed(SinkDatabaseAPI, err))
		} else {
			s.metrics.ObserveSink(SinkDatabaseAPI, true)
			report.Uploaded = true
			logrus.WithField("sink", SinkDatabaseAPI).Infof("Sent %d rates to database", unique.Len())
		}
	}

	if s.archive != nil {
		saved, err := s.archive.SaveRecords(ctx, unique.Records())
		if err != nil {
			errs = append(errs, s.sinkFailed(SinkArchive, err))
		} else {
			s.metrics.ObserveSink(SinkArchive, true)
			report.Archived = true
			logrus.WithField("sink", SinkArchive).Infof("Archived %d rates", saved)
		}
	}

	return errors.Join(errs...)
}

func (s *Service) sinkFailed(sink string, err error) error {
	s.metrics.ObserveSink(sink, false)
	logrus.WithError(err).WithField("sink", sink).Error("Failed to deliver records")
	return fmt.Errorf("%w: %s: %w", domain.ErrSinkFailure, sink, err)
}

// RecordsForDate returns the rates published for date.
// Lookup order: cache, archive, then the source itself.
func (s *Service) RecordsForDate(ctx context.Context, date string) ([]domain.CurrencyRecord, error) {
	future, err := s.parser.IsFuture(date)
	if err != nil {
		return nil, err
	}
	if future {
		return nil, fmt.Errorf("%w: %s is in the future", domain.ErrRateNotFound, date)
	}

	if s.cache != nil {
		if records, ok := s.cache.Get(date); ok {
			return records, nil
		}
	}

	if s.archive != nil {
		archived, err := s.archive.RecordsByDate(ctx, date)
		if err != nil {
			logrus.WithError(err).WithField("date", date).Warn("Failed to read archived rates, fetching from source")
		} else if len(archived) > 0 {
			s.remember(date, archived)
			return archived, nil
		}
	}

	store := NewStore()
	res := s.parser.ParseDate(ctx, store, date)
	switch res.Status {
	case domain.DateStatusFailed:
		return nil, fmt.Errorf("failed to fetch rates for %s: %w", date, res.Err)
	case domain.DateStatusEmpty:
		return nil, fmt.Errorf("%w: no rates published for %s", domain.ErrRateNotFound, date)
	}

	records := Dedupe(store.Records(), s.cfg.KeyFields)
	s.remember(date, records)
	return records, nil
}

func (s *Service) remember(date string, records []domain.CurrencyRecord) {
	if s.cache != nil {
		s.cache.Set(date, records)
	}
}

func (s *Service) RecordByCode(ctx context.Context, date, letterCode string) (domain.CurrencyRecord, error) {
	records, err := s.RecordsForDate(ctx, date)
	if err != nil {
		return domain.CurrencyRecord{}, err
	}
	store := NewStore()
	store.Append(records...)
	record, ok := store.Lookup(strings.ToUpper(letterCode))
	if !ok {
		return domain.CurrencyRecord{}, fmt.Errorf("%w: %s on %s", domain.ErrRateNotFound, letterCode, date)
	}
	return record, nil
}

// RecordsForCurrencies narrows the rates of date to the given letter codes. No codes means all of them.
func (s *Service) RecordsForCurrencies(ctx context.Context, date string, letterCodes []string) ([]domain.CurrencyRecord, error) {
	records, err := s.RecordsForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	store := NewStore()
	store.Append(records...)
	return store.FilterByCurrencies(letterCodes), nil
}

// Conversion is the ruble value of an amount of foreign currency on a date.
type Conversion struct {
	Date         string  `json:"date"`
	LetterCode   string  `json:"letter_code"`
	Amount       float64 `json:"amount"`
	Units        int     `json:"units"`
	ExchangeRate float64 `json:"exchange_rate"`
	Rubles       float64 `json:"rubles"`
}

func (s *Service) ConvertToRubles(ctx context.Context, date, letterCode string, amount float64) (Conversion, error) {
	records, err := s.RecordsForDate(ctx, date)
	if err != nil {
		return Conversion{}, err
	}
	code := strings.ToUpper(letterCode)
	store := NewStore()
	store.Append(records...)
	rubles, err := store.ConvertToRubles(amount, code)
	if err != nil {
		return Conversion{}, fmt.Errorf("failed to convert %s on %s: %w", code, date, err)
	}
	record, _ := store.Lookup(code)
	return Conversion{
		Date:         date,
		LetterCode:   code,
		Amount:       amount,
		Units:        record.Units,
		ExchangeRate: record.ExchangeRate,
		Rubles:       rubles,
	}, nil
}

// Changes compares the rates of date with those of the previous calendar day.
// A previous day without rates yields changes with nil deltas.
func (s *Service) Changes(ctx context.Context, date string) ([]domain.RateChange, error) {
	current, err := s.RecordsForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	day, err := s.parser.ParseDay(date)
	if err != nil {
		return nil, err
	}
	prevDate := day.AddDate(0, 0, -1).Format(domain.DateLayout)

	previous, err := s.RecordsForDate(ctx, prevDate)
	if err != nil && !errors.Is(err, domain.ErrRateNotFound) {
		return nil, err
	}
	return CalculateChanges(current, previous), nil
}

// ExcelFileName is the spreadsheet name for a DD.MM.YYYY date.
func ExcelFileName(date string) string {
	return "currency_rates_" + strings.ReplaceAll(date, ".", "_") + ".xlsx"
}

type ServiceOption func(*Service)

// WithArchive enables the archive sink.
func WithArchive(archive adapters.RecordsArchive) ServiceOption {
	return func(s *Service) { s.archive = archive }
}

func WithCache(cache adapters.RecordsCache) ServiceOption {
	return func(s *Service) { s.cache = cache }
}

func WithServiceMetrics(m adapters.PipelineMetrics) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

func NewService(parser *Parser, sender adapters.RecordsSender, sheet adapters.SpreadsheetWriter, cfg RunConfig, opts ...ServiceOption) *Service {
	if len(cfg.KeyFields) == 0 {
		cfg.KeyFields = DefaultKeyFields
	}
	s := &Service{
		parser:  parser,
		sender:  sender,
		sheet:   sheet,
		metrics: noopMetrics{},
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
