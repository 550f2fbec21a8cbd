package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"cbrrates/internal/adapters/postgres"
	"cbrrates/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	tcpg "github.com/testcontainers/testcontainers-go/modules/postgres"
)

const migrationsDir = "../../platform/db/migrations"

var (
	pgSetupOnce sync.Once

	pgContainer *tcpg.PostgresContainer
	pgConnStr   string
)

func TestMain(m *testing.M) {
	code := m.Run()
	if pgContainer != nil {
		_ = pgContainer.Terminate(context.Background())
	}
	os.Exit(code)
}

func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pgSetupOnce.Do(func() {
		startPostgres(t)
	})

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, pgConnStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	require.NoError(t, resetDatabase(ctx, pool))

	return pool
}

func startPostgres(t *testing.T) {
	ctx := context.Background()
	pg, err := tcpg.Run(ctx,
		"postgres:16-alpine",
		tcpg.WithDatabase("postgres"),
		tcpg.WithUsername("postgres"),
		tcpg.WithPassword("postgres"),
	)
	require.NoError(t, err)

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := goose.OpenDBWithDriver("pgx", dsn)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.Eventually(t, func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return db.PingContext(pingCtx) == nil
	}, 15*time.Second, 500*time.Millisecond)

	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.UpContext(ctx, db, migrationsDir))

	pgContainer = pg
	pgConnStr = dsn
}

func resetDatabase(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `truncate table currency_rates restart identity`); err != nil {
		return err
	}
	return nil
}

var capturedAt = time.Date(2025, 10, 14, 9, 0, 0, 0, time.UTC)

func rec(digital, letter string, units int, rate float64, date string) domain.CurrencyRecord {
	return domain.CurrencyRecord{
		DigitalCode:  digital,
		LetterCode:   letter,
		Units:        units,
		CurrencyName: letter + " name",
		ExchangeRate: rate,
		Date:         date,
		Timestamp:    capturedAt,
		Source:       domain.SourceCBR,
	}
}

// ---------- RecordRepository tests ----------

func TestRecordRepository_SaveAndRead(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewRecordRepository(pool)
	ctx := context.Background()

	saved, err := repo.SaveRecords(ctx, []domain.CurrencyRecord{
		rec("840", "USD", 1, 93.4512, "14.10.2025"),
		rec("036", "AUD", 1, 52.4375, "14.10.2025"),
		rec("156", "CNY", 10, 128.9, "13.10.2025"),
	})
	require.NoError(t, err)
	require.Equal(t, 3, saved)

	got, err := repo.RecordsByDate(ctx, "14.10.2025")
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, "840", got[0].DigitalCode)
	require.Equal(t, "USD", got[0].LetterCode)
	require.InDelta(t, 93.4512, got[0].ExchangeRate, 1e-9)
	require.Equal(t, "14.10.2025", got[0].Date)
	require.True(t, got[0].Timestamp.Equal(capturedAt))
	require.Equal(t, "cbr.ru", got[0].Source)

	require.Equal(t, "036", got[1].DigitalCode) // leading zero kept
}

func TestRecordRepository_SaveRecords_UpsertsOnNaturalKey(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewRecordRepository(pool)
	ctx := context.Background()

	_, err := repo.SaveRecords(ctx, []domain.CurrencyRecord{rec("840", "USD", 1, 93.0, "14.10.2025")})
	require.NoError(t, err)

	_, err = repo.SaveRecords(ctx, []domain.CurrencyRecord{rec("840", "USD", 1, 94.5, "14.10.2025")})
	require.NoError(t, err)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `select count(*) from currency_rates`).Scan(&count))
	require.Equal(t, 1, count)

	got, err := repo.RecordsByDate(ctx, "14.10.2025")
	require.NoError(t, err)
	require.InDelta(t, 94.5, got[0].ExchangeRate, 1e-9)
}

func TestRecordRepository_SaveRecords_DuplicatesInBatch(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewRecordRepository(pool)
	ctx := context.Background()

	saved, err := repo.SaveRecords(ctx, []domain.CurrencyRecord{
		rec("840", "USD", 1, 93.0, "14.10.2025"),
		rec("840", "USD", 1, 99.0, "14.10.2025"),
	})
	require.NoError(t, err)
	require.Equal(t, 1, saved)

	got, err := repo.RecordsByDate(ctx, "14.10.2025")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.InDelta(t, 93.0, got[0].ExchangeRate, 1e-9)
}

func TestRecordRepository_SaveRecords_Empty(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewRecordRepository(pool)

	saved, err := repo.SaveRecords(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, saved)
}

func TestRecordRepository_RecordsByDate_Empty(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewRecordRepository(pool)

	got, err := repo.RecordsByDate(context.Background(), "01.01.2025")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestRecordRepository_DBError(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewRecordRepository(pool)

	// Use a canceled context to force an error path.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.SaveRecords(ctx, []domain.CurrencyRecord{rec("840", "USD", 1, 93.0, "14.10.2025")})
	require.Error(t, err)

	_, err = repo.RecordsByDate(ctx, "14.10.2025")
	require.Error(t, err)
}
