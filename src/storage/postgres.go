package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stock-market-api/src/logger"
	"stock-market-api/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresStore(cfg *models.MConfig, log *logger.Logger) (*PostgresStore, error) {
	// Schema per binary, so several deployments can share one database
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return &PostgresStore{
		Config: cfg,
		Schema: name,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresStore initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) createTables() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."stocks" (
			id BIGSERIAL PRIMARY KEY,
			symbol TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			sector TEXT,
			industry TEXT,
			exchange TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create stocks: %w", err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."stock_prices" (
			id BIGSERIAL PRIMARY KEY,
			stock_id BIGINT NOT NULL REFERENCES "%s"."stocks"(id) ON DELETE CASCADE,
			date DATE NOT NULL,
			open_price DOUBLE PRECISION,
			high_price DOUBLE PRECISION,
			low_price DOUBLE PRECISION,
			close_price DOUBLE PRECISION NOT NULL,
			adj_close DOUBLE PRECISION,
			volume BIGINT,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (stock_id, date)
		);
	`, d.Schema, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create stock_prices: %w", err)
	}

	query = fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_stock_prices_stock_date ON "%s"."stock_prices" (stock_id, date);`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create price index: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------
// Stocks
// -----------------------------------------------------------------------------

func (d *PostgresStore) CreateStock(stock *models.MStock) (*models.MStock, error) {
	now := time.Now().UTC()
	symbol := strings.ToUpper(stock.Symbol)

	var id int64
	err := d.DB.QueryRow(fmt.Sprintf(`
		INSERT INTO "%s"."stocks" (symbol, name, sector, industry, exchange, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7) RETURNING id
	`, d.Schema), symbol, stock.Name, nullable(stock.Sector), nullable(stock.Industry), nullable(stock.Exchange), now, now).Scan(&id)
	if err != nil {
		return nil, err
	}

	return d.GetStockByID(id)
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) scanStock(row interface{ Scan(...interface{}) error }) (*models.MStock, error) {
	var s models.MStock
	var sector, industry, exchange sql.NullString

	err := row.Scan(&s.ID, &s.Symbol, &s.Name, &sector, &industry, &exchange, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}

	s.Sector = sector.String
	s.Industry = industry.String
	s.Exchange = exchange.String
	return &s, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) GetStockByID(id int64) (*models.MStock, error) {
	row := d.DB.QueryRow(fmt.Sprintf(`SELECT %s FROM "%s"."stocks" WHERE id = $1`, stockColumns, d.Schema), id)
	stock, err := d.scanStock(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return stock, err
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) GetStockBySymbol(symbol string) (*models.MStock, error) {
	row := d.DB.QueryRow(fmt.Sprintf(`SELECT %s FROM "%s"."stocks" WHERE symbol = $1`, stockColumns, d.Schema), strings.ToUpper(symbol))
	stock, err := d.scanStock(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return stock, err
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) ListStocks(offset, limit int, activeOnly bool) ([]models.MStock, error) {
	query := fmt.Sprintf(`SELECT %s FROM "%s"."stocks"`, stockColumns, d.Schema)
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY symbol LIMIT $1 OFFSET $2`

	rows, err := d.DB.Query(query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return d.collectStocks(rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) collectStocks(rows *sql.Rows) ([]models.MStock, error) {
	stocks := []models.MStock{}
	for rows.Next() {
		s, err := d.scanStock(rows)
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, *s)
	}
	return stocks, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) UpdateStock(id int64, update *models.MStockUpdate) (*models.MStock, error) {
	existing, err := d.GetStockByID(id)
	if err != nil || existing == nil {
		return nil, err
	}

	set := []string{"updated_at = $1"}
	args := []interface{}{time.Now().UTC()}

	appendSet := func(column string, value interface{}) {
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}

	if update.Name != nil {
		appendSet("name", *update.Name)
	}
	if update.Sector != nil {
		appendSet("sector", nullable(*update.Sector))
	}
	if update.Industry != nil {
		appendSet("industry", nullable(*update.Industry))
	}
	if update.Exchange != nil {
		appendSet("exchange", nullable(*update.Exchange))
	}
	if update.IsActive != nil {
		appendSet("is_active", *update.IsActive)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE "%s"."stocks" SET %s WHERE id = $%d`, d.Schema, strings.Join(set, ", "), len(args))
	if _, err := d.DB.Exec(query, args...); err != nil {
		return nil, err
	}

	return d.GetStockByID(id)
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) DeleteStock(id int64) (bool, error) {
	res, err := d.DB.Exec(fmt.Sprintf(`DELETE FROM "%s"."stocks" WHERE id = $1`, d.Schema), id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) SearchStocks(query string, limit int) ([]models.MStock, error) {
	pattern := "%" + query + "%"
	rows, err := d.DB.Query(fmt.Sprintf(`
		SELECT %s FROM "%s"."stocks"
		WHERE symbol ILIKE $1 OR name ILIKE $2
		ORDER BY symbol LIMIT $3
	`, stockColumns, d.Schema), pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return d.collectStocks(rows)
}

// -----------------------------------------------------------------------------
// Prices
// -----------------------------------------------------------------------------

func (d *PostgresStore) SavePricesBulk(stockID int64, prices []models.MStockPrice) (int, error) {
	if len(prices) == 0 {
		return 0, nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(fmt.Sprintf(`
		INSERT INTO "%s"."stock_prices" (stock_id, date, open_price, high_price, low_price, close_price, adj_close, volume, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (stock_id, date) DO NOTHING
	`, d.Schema))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	created := 0
	now := time.Now().UTC()
	for _, p := range prices {
		res, err := stmt.Exec(stockID, p.Date.Time, p.Open, p.High, p.Low, p.Close, p.AdjClose, p.Volume, now)
		if err != nil {
			return 0, err
		}
		if affected, err := res.RowsAffected(); err == nil {
			created += int(affected)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return created, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) scanPrice(row interface{ Scan(...interface{}) error }) (*models.MStockPrice, error) {
	var p models.MStockPrice
	var date time.Time
	var open, high, low, adjClose sql.NullFloat64
	var volume sql.NullInt64

	err := row.Scan(&p.ID, &p.StockID, &date, &open, &high, &low, &p.Close, &adjClose, &volume, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	p.Date = models.NewMDate(date)
	p.Open = nullableFloat(open)
	p.High = nullableFloat(high)
	p.Low = nullableFloat(low)
	p.AdjClose = nullableFloat(adjClose)
	if volume.Valid {
		p.Volume = &volume.Int64
	}
	return &p, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) GetPrices(stockID int64, start, end *models.MDate, limit int) ([]models.MStockPrice, error) {
	query := fmt.Sprintf(`SELECT %s FROM "%s"."stock_prices" WHERE stock_id = $1`, priceColumns, d.Schema)
	args := []interface{}{stockID}

	if start != nil {
		args = append(args, start.Time)
		query += fmt.Sprintf(` AND date >= $%d`, len(args))
	}
	if end != nil {
		args = append(args, end.Time)
		query += fmt.Sprintf(` AND date <= $%d`, len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY date DESC LIMIT $%d`, len(args))

	rows, err := d.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prices := []models.MStockPrice{}
	for rows.Next() {
		p, err := d.scanPrice(rows)
		if err != nil {
			return nil, err
		}
		prices = append(prices, *p)
	}
	return prices, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) GetLatestPrice(stockID int64) (*models.MStockPrice, error) {
	row := d.DB.QueryRow(fmt.Sprintf(`
		SELECT %s FROM "%s"."stock_prices"
		WHERE stock_id = $1 ORDER BY date DESC LIMIT 1
	`, priceColumns, d.Schema), stockID)

	price, err := d.scanPrice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return price, err
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) GetPriceStats(stockID int64) (*models.MPriceStats, error) {
	row := d.DB.QueryRow(fmt.Sprintf(`
		SELECT MIN(close_price), MAX(close_price), AVG(close_price), COUNT(id), MIN(date), MAX(date)
		FROM "%s"."stock_prices" WHERE stock_id = $1
	`, d.Schema), stockID)

	var minPrice, maxPrice, avgPrice sql.NullFloat64
	var count int
	var first, last sql.NullTime
	if err := row.Scan(&minPrice, &maxPrice, &avgPrice, &count, &first, &last); err != nil {
		return nil, err
	}

	if count == 0 {
		return nil, nil
	}

	return &models.MPriceStats{
		MinPrice:       minPrice.Float64,
		MaxPrice:       maxPrice.Float64,
		AvgPrice:       avgPrice.Float64,
		TotalRecords:   count,
		DateRangeStart: models.NewMDate(first.Time),
		DateRangeEnd:   models.NewMDate(last.Time),
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) CleanupOldPrices(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	res, err := d.DB.Exec(fmt.Sprintf(`DELETE FROM "%s"."stock_prices" WHERE date < $1`, d.Schema), cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
