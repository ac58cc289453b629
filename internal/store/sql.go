package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rgehrsitz/quotego/internal/domain"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLStore keeps submitted quotes in SQLite or PostgreSQL. The full draft is
// stored as JSON next to the columns used for filtering.
type SQLStore struct {
	db *sqlx.DB
}

type quoteRow struct {
	Reference     string    `db:"reference"`
	InsuranceType string    `db:"insurance_type"`
	Status        string    `db:"status"`
	AgentID       string    `db:"agent_id"`
	Total         string    `db:"total"`
	SubmittedAt   time.Time `db:"submitted_at"`
	Draft         string    `db:"draft"`
}

// OpenSQL connects to the database and creates the schema. driver is
// "sqlite" (modernc, pure Go) or "postgres".
func OpenSQL(driver, dsn string) (*SQLStore, error) {
	switch driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// every connection to ":memory:" would otherwise see its own database
		db.SetMaxOpenConns(1)
	}
	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

// NewSQLStore wraps an open connection whose schema already exists
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Save(ctx context.Context, quote *domain.SubmittedQuote) error {
	row, err := toRow(quote)
	if err != nil {
		return err
	}
	query := `INSERT INTO submitted_quote (reference, insurance_type, status, agent_id, total, submitted_at, draft)
		VALUES (:reference, :insurance_type, :status, :agent_id, :total, :submitted_at, :draft)`
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to save quote %s: %w", quote.Reference, err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, reference string) (*domain.SubmittedQuote, error) {
	var row quoteRow
	query := s.db.Rebind(`SELECT * FROM submitted_quote WHERE reference = ?`)
	if err := s.db.GetContext(ctx, &row, query, reference); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("quote %s: %w", reference, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load quote %s: %w", reference, err)
	}
	return fromRow(row)
}

// List returns matching quotes, newest first
func (s *SQLStore) List(ctx context.Context, filter Filter) ([]*domain.SubmittedQuote, error) {
	var conds []string
	var args []interface{}
	if filter.Line != "" {
		conds = append(conds, "insurance_type = ?")
		args = append(args, string(filter.Line))
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		conds = append(conds, "(LOWER(reference) LIKE ? OR LOWER(agent_id) LIKE ?)")
		args = append(args, like, like)
	}

	query := `SELECT * FROM submitted_quote`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY submitted_at DESC, reference ASC`

	var rows []quoteRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	out := make([]*domain.SubmittedQuote, 0, len(rows))
	for _, row := range rows {
		q, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

// UpdateStatus changes the status column and the status inside the stored draft
func (s *SQLStore) UpdateStatus(ctx context.Context, reference string, status domain.QuoteStatus) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var row quoteRow
	if err := tx.GetContext(ctx, &row, tx.Rebind(`SELECT * FROM submitted_quote WHERE reference = ?`), reference); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("quote %s: %w", reference, ErrNotFound)
		}
		return fmt.Errorf("failed to load quote %s: %w", reference, err)
	}
	q, err := fromRow(row)
	if err != nil {
		return err
	}
	q.Status = status
	q.Draft.Status = status
	updated, err := toRow(q)
	if err != nil {
		return err
	}

	query := tx.Rebind(`UPDATE submitted_quote SET status = ?, draft = ? WHERE reference = ?`)
	if _, err := tx.ExecContext(ctx, query, updated.Status, updated.Draft, reference); err != nil {
		return fmt.Errorf("failed to update quote %s: %w", reference, err)
	}
	return tx.Commit()
}

// DB returns the underlying connection
func (s *SQLStore) DB() *sqlx.DB {
	return s.db
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func toRow(q *domain.SubmittedQuote) (quoteRow, error) {
	if q.Reference == "" {
		return quoteRow{}, fmt.Errorf("quote reference is required")
	}
	draft, err := json.Marshal(q.Draft)
	if err != nil {
		return quoteRow{}, fmt.Errorf("failed to encode draft: %w", err)
	}
	return quoteRow{
		Reference:     q.Reference,
		InsuranceType: string(q.InsuranceType),
		Status:        string(q.Status),
		AgentID:       q.AgentID,
		Total:         q.Total.String(),
		SubmittedAt:   q.SubmittedAt.UTC(),
		Draft:         string(draft),
	}, nil
}

func fromRow(row quoteRow) (*domain.SubmittedQuote, error) {
	total, err := decimal.NewFromString(row.Total)
	if err != nil {
		return nil, fmt.Errorf("quote %s: bad total %q: %w", row.Reference, row.Total, err)
	}
	q := &domain.SubmittedQuote{
		Reference:     row.Reference,
		InsuranceType: domain.InsuranceType(row.InsuranceType),
		Status:        domain.QuoteStatus(row.Status),
		AgentID:       row.AgentID,
		Total:         total,
		SubmittedAt:   row.SubmittedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(row.Draft), &q.Draft); err != nil {
		return nil, fmt.Errorf("quote %s: failed to decode draft: %w", row.Reference, err)
	}
	return q, nil
}
