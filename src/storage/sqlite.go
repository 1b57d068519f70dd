package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"stock-market-api/src/logger"
	"stock-market-api/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteStore(cfg *models.MConfig, log *logger.Logger) (*SQLiteStore, error) {
	return &SQLiteStore{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Initialize() error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	// Single connection: serializes writers and keeps :memory: databases
	// from splitting across pool connections.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		d.Logger.Warning("Failed to enable foreign keys: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

// createTables keeps existing data: stocks are long-lived entities, unlike a
// transient tick cache.
func (d *SQLiteStore) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS stocks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			sector TEXT,
			industry TEXT,
			exchange TEXT,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create stocks: %w", err)
	}

	query = `
		CREATE TABLE IF NOT EXISTS stock_prices (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			stock_id INTEGER NOT NULL REFERENCES stocks(id) ON DELETE CASCADE,
			date TEXT NOT NULL,
			open_price REAL,
			high_price REAL,
			low_price REAL,
			close_price REAL NOT NULL,
			adj_close REAL,
			volume INTEGER,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (stock_id, date)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create stock_prices: %w", err)
	}

	query = `CREATE INDEX IF NOT EXISTS idx_stock_prices_stock_date ON stock_prices (stock_id, date);`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create price index: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------
// Stocks
// -----------------------------------------------------------------------------

func (d *SQLiteStore) CreateStock(stock *models.MStock) (*models.MStock, error) {
	now := time.Now().UTC()
	symbol := strings.ToUpper(stock.Symbol)

	res, err := d.DB.Exec(`
		INSERT INTO stocks (symbol, name, sector, industry, exchange, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?)
	`, symbol, stock.Name, nullable(stock.Sector), nullable(stock.Industry), nullable(stock.Exchange), now, now)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return d.GetStockByID(id)
}

// -----------------------------------------------------------------------------

const stockColumns = "id, symbol, name, sector, industry, exchange, is_active, created_at, updated_at"

func (d *SQLiteStore) scanStock(row interface{ Scan(...interface{}) error }) (*models.MStock, error) {
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

func (d *SQLiteStore) GetStockByID(id int64) (*models.MStock, error) {
	row := d.DB.QueryRow(`SELECT `+stockColumns+` FROM stocks WHERE id = ?`, id)
	stock, err := d.scanStock(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return stock, err
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) GetStockBySymbol(symbol string) (*models.MStock, error) {
	row := d.DB.QueryRow(`SELECT `+stockColumns+` FROM stocks WHERE symbol = ?`, strings.ToUpper(symbol))
	stock, err := d.scanStock(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return stock, err
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) ListStocks(offset, limit int, activeOnly bool) ([]models.MStock, error) {
	query := `SELECT ` + stockColumns + ` FROM stocks`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY symbol LIMIT ? OFFSET ?`

	rows, err := d.DB.Query(query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return d.collectStocks(rows)
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) collectStocks(rows *sql.Rows) ([]models.MStock, error) {
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

func (d *SQLiteStore) UpdateStock(id int64, update *models.MStockUpdate) (*models.MStock, error) {
	existing, err := d.GetStockByID(id)
	if err != nil || existing == nil {
		return nil, err
	}

	set := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC()}

	if update.Name != nil {
		set = append(set, "name = ?")
		args = append(args, *update.Name)
	}
	if update.Sector != nil {
		set = append(set, "sector = ?")
		args = append(args, nullable(*update.Sector))
	}
	if update.Industry != nil {
		set = append(set, "industry = ?")
		args = append(args, nullable(*update.Industry))
	}
	if update.Exchange != nil {
		set = append(set, "exchange = ?")
		args = append(args, nullable(*update.Exchange))
	}
	if update.IsActive != nil {
		set = append(set, "is_active = ?")
		args = append(args, *update.IsActive)
	}

	args = append(args, id)
	query := `UPDATE stocks SET ` + strings.Join(set, ", ") + ` WHERE id = ?`
	if _, err := d.DB.Exec(query, args...); err != nil {
		return nil, err
	}

	return d.GetStockByID(id)
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) DeleteStock(id int64) (bool, error) {
	res, err := d.DB.Exec(`DELETE FROM stocks WHERE id = ?`, id)
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

func (d *SQLiteStore) SearchStocks(query string, limit int) ([]models.MStock, error) {
	// SQLite LIKE is already case-insensitive for ASCII
	pattern := "%" + query + "%"
	rows, err := d.DB.Query(`
		SELECT `+stockColumns+` FROM stocks
		WHERE symbol LIKE ? OR name LIKE ?
		ORDER BY symbol LIMIT ?
	`, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return d.collectStocks(rows)
}

// -----------------------------------------------------------------------------
// Prices
// -----------------------------------------------------------------------------

func (d *SQLiteStore) SavePricesBulk(stockID int64, prices []models.MStockPrice) (int, error) {
	if len(prices) == 0 {
		return 0, nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO stock_prices (stock_id, date, open_price, high_price, low_price, close_price, adj_close, volume, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	created := 0
	now := time.Now().UTC()
	for _, p := range prices {
		res, err := stmt.Exec(stockID, p.Date.String(), p.Open, p.High, p.Low, p.Close, p.AdjClose, p.Volume, now)
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

const priceColumns = "id, stock_id, date, open_price, high_price, low_price, close_price, adj_close, volume, created_at"

func (d *SQLiteStore) scanPrice(row interface{ Scan(...interface{}) error }) (*models.MStockPrice, error) {
	var p models.MStockPrice
	var dateStr string
	var open, high, low, adjClose sql.NullFloat64
	var volume sql.NullInt64

	err := row.Scan(&p.ID, &p.StockID, &dateStr, &open, &high, &low, &p.Close, &adjClose, &volume, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	date, err := models.ParseMDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt date in stock_prices: %w", err)
	}
	p.Date = date

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

func (d *SQLiteStore) GetPrices(stockID int64, start, end *models.MDate, limit int) ([]models.MStockPrice, error) {
	query := `SELECT ` + priceColumns + ` FROM stock_prices WHERE stock_id = ?`
	args := []interface{}{stockID}

	if start != nil {
		query += ` AND date >= ?`
		args = append(args, start.String())
	}
	if end != nil {
		query += ` AND date <= ?`
		args = append(args, end.String())
	}

	query += ` ORDER BY date DESC LIMIT ?`
	args = append(args, limit)

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

func (d *SQLiteStore) GetLatestPrice(stockID int64) (*models.MStockPrice, error) {
	row := d.DB.QueryRow(`
		SELECT `+priceColumns+` FROM stock_prices
		WHERE stock_id = ? ORDER BY date DESC LIMIT 1
	`, stockID)

	price, err := d.scanPrice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return price, err
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) GetPriceStats(stockID int64) (*models.MPriceStats, error) {
	row := d.DB.QueryRow(`
		SELECT MIN(close_price), MAX(close_price), AVG(close_price), COUNT(id), MIN(date), MAX(date)
		FROM stock_prices WHERE stock_id = ?
	`, stockID)

	var minPrice, maxPrice, avgPrice sql.NullFloat64
	var count int
	var first, last sql.NullString
	if err := row.Scan(&minPrice, &maxPrice, &avgPrice, &count, &first, &last); err != nil {
		return nil, err
	}

	if count == 0 {
		return nil, nil
	}

	startDate, err := models.ParseMDate(first.String)
	if err != nil {
		return nil, err
	}
	endDate, err := models.ParseMDate(last.String)
	if err != nil {
		return nil, err
	}

	return &models.MPriceStats{
		MinPrice:       minPrice.Float64,
		MaxPrice:       maxPrice.Float64,
		AvgPrice:       avgPrice.Float64,
		TotalRecords:   count,
		DateRangeStart: startDate,
		DateRangeEnd:   endDate,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) CleanupOldPrices(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := models.NewMDate(time.Now().UTC().AddDate(0, 0, -retentionDays))
	res, err := d.DB.Exec(`DELETE FROM stock_prices WHERE date < ?`, cutoff.String())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// nullable maps empty strings to NULL columns.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
