package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	// postgres driver
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"budgetbot/internal/entity/expense"
	"budgetbot/internal/model/customerr"
)

const dsnTemplate = "user=%s password=%s host=%s dbname=%s sslmode=disable"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type postgresConfig interface {
	Host() string
	Username() string
	Password() string
	Database() string
}

// PostgresStorage keeps every ledger in one expenses table keyed by user id.
// The serial id column preserves insertion order for DeleteLast.
type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(cfg postgresConfig) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", fmt.Sprintf(dsnTemplate,
		cfg.Username(),
		cfg.Password(),
		cfg.Host(),
		cfg.Database()))
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to database")
	}
	if err = db.Ping(); err != nil {
		return nil, errors.Wrap(err, "cannot connect to database")
	}
	return &PostgresStorage{db}, nil
}

func (s *PostgresStorage) Append(ctx context.Context, userID int64, rec expense.Record) error {
	query := psql.Insert("expenses").
		Columns("user_id", "date", "amount", "category", "description").
		Values(userID, rec.Date, rec.Amount, rec.Category, rec.Description)

	_, err := query.RunWith(s.db).ExecContext(ctx)
	return errors.Wrap(err, "append expense")
}

func (s *PostgresStorage) ReadAll(ctx context.Context, userID int64) ([]expense.Record, error) {
	query := psql.Select("date", "amount", "category", "description").
		From("expenses").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("id")

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read expenses")
	}
	defer rows.Close()

	recs := make([]expense.Record, 0)
	for rows.Next() {
		var rec expense.Record
		if err = rows.Scan(&rec.Date, &rec.Amount, &rec.Category, &rec.Description); err != nil {
			return nil, errors.Wrap(err, "read expenses")
		}
		recs = append(recs, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "read expenses")
	}
	return recs, nil
}

func (s *PostgresStorage) DeleteLast(ctx context.Context, userID int64) error {
	query := `
	DELETE FROM expenses WHERE id = (
		SELECT max(id) FROM expenses WHERE user_id = $1
	)
`
	res, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return errors.Wrap(err, "delete last expense")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete last expense")
	}
	if affected == 0 {
		return customerr.ErrEmptyLedger
	}
	return nil
}

func (s *PostgresStorage) Clear(ctx context.Context, userID int64) error {
	query := psql.Delete("expenses").
		Where(sq.Eq{"user_id": userID})

	_, err := query.RunWith(s.db).ExecContext(ctx)
	return errors.Wrap(err, "clear expenses")
}
