package rate

import (
	"cbrrates/internal/adapters"
	"cbrrates/internal/adapters/cbr"
	"cbrrates/internal/domain"
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultPaceDelay = time.Second

// Parser turns dates into normalized records: fetch with retry, extract the table, normalize rows.
type Parser struct {
	fetcher    adapters.PageFetcher
	normalizer *Normalizer
	retry      RetryPolicy
	paceDelay  time.Duration
	location   *time.Location
	metrics    adapters.PipelineMetrics
	// -----
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// ParseDate runs the single-date pipeline and appends accepted records to store.
// Failures never escape: they are logged and reported in the returned DateResult.
func (p *Parser) ParseDate(ctx context.Context, store *Store, date string) domain.DateResult {
	log := logrus.WithField("date", date)
	res := domain.DateResult{Date: date}

	var page string
	attempts, err := p.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		var fetchErr error
		page, fetchErr = p.fetcher.FetchPage(ctx, date)
		if fetchErr != nil {
			p.metrics.ObserveAttempt("failed")
			log.WithError(fetchErr).WithField("attempt", attempt).Error("Failed to fetch rates page")
			return fetchErr
		}
		p.metrics.ObserveAttempt("ok")
		return nil
	})
	res.Attempts = attempts
	if err != nil {
		log.WithError(err).Errorf("Giving up on %s after %d attempts", date, attempts)
		res.Status = domain.DateStatusFailed
		res.Err = err
		p.metrics.ObserveDate(res.Status, 0)
		return res
	}

	rows, err := cbr.ExtractRows(page)
	if err != nil {
		log.WithError(err).Error("Rates page has unexpected structure")
		res.Status = domain.DateStatusEmpty
		res.Err = err
		p.metrics.ObserveDate(res.Status, 0)
		return res
	}

	for _, row := range rows {
		record, ok, normErr := p.normalizer.Normalize(row, date)
		if normErr != nil {
			log.WithError(normErr).Warn("Skipping malformed row")
			continue
		}
		if !ok {
			continue
		}
		store.Append(record)
		res.Records++
		log.Debugf("Added currency %s", record.LetterCode)
	}

	res.Status = domain.DateStatusOK
	if res.Records == 0 {
		res.Status = domain.DateStatusEmpty
	}
	p.metrics.ObserveDate(res.Status, res.Records)
	log.Infof("Fetched %d rates for %s", res.Records, date)
	return res
}

// ParseRange parses every day in [start, end] in ascending order. Days after today are skipped.
// Malformed bounds fail before any request is made. Cancellation stops the loop and
// returns the results gathered so far.
func (p *Parser) ParseRange(ctx context.Context, store *Store, start, end string) ([]domain.DateResult, error) {
	startDay, err := p.ParseDay(start)
	if err != nil {
		return nil, err
	}
	endDay, err := p.ParseDay(end)
	if err != nil {
		return nil, err
	}

	today := p.today()
	var results []domain.DateResult

	for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return results, ctxErr
		}
		date := day.Format(domain.DateLayout)

		if day.After(today) {
			logrus.WithField("date", date).Info("Skipping future date")
			results = append(results, domain.DateResult{Date: date, Status: domain.DateStatusSkippedFuture})
			p.metrics.ObserveDate(domain.DateStatusSkippedFuture, 0)
			continue
		}

		results = append(results, p.ParseDate(ctx, store, date))

		if day.Before(endDay) {
			if sleepErr := p.sleep(ctx, p.paceDelay); sleepErr != nil {
				return results, sleepErr
			}
		}
	}
	return results, nil
}

// ParseDay parses a DD.MM.YYYY date as midnight in the parser's location.
func (p *Parser) ParseDay(date string) (time.Time, error) {
	day, err := time.ParseInLocation(domain.DateLayout, date, p.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: expected DD.MM.YYYY", domain.ErrInvalidDate, date)
	}
	return day, nil
}

// Today returns the current date in DD.MM.YYYY form.
func (p *Parser) Today() string {
	return p.today().Format(domain.DateLayout)
}

func (p *Parser) today() time.Time {
	now := p.now().In(p.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, p.location)
}

// IsFuture reports whether date is after today.
func (p *Parser) IsFuture(date string) (bool, error) {
	day, err := p.ParseDay(date)
	if err != nil {
		return false, err
	}
	return day.After(p.today()), nil
}

type ParserOption func(*Parser)

func WithClock(now func() time.Time) ParserOption {
	return func(p *Parser) { p.now = now }
}

func WithMetrics(m adapters.PipelineMetrics) ParserOption {
	return func(p *Parser) {
		if m != nil {
			p.metrics = m
		}
	}
}

func WithLocation(loc *time.Location) ParserOption {
	return func(p *Parser) {
		if loc != nil {
			p.location = loc
		}
	}
}

func NewParser(fetcher adapters.PageFetcher, normalizer *Normalizer, retry RetryPolicy, paceDelay time.Duration, opts ...ParserOption) *Parser {
	if paceDelay < 0 {
		paceDelay = DefaultPaceDelay
	}
	p := &Parser{
		fetcher:    fetcher,
		normalizer: normalizer,
		retry:      retry,
		paceDelay:  paceDelay,
		location:   time.Local,
		metrics:    noopMetrics{},
		now:        time.Now,
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type noopMetrics struct{}

func (noopMetrics) ObserveAttempt(string) {}

func (noopMetrics) ObserveDate(domain.DateStatus, int) {}

func (noopMetrics) ObserveSink(string, bool) {}
