package storage

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"budgetbot/internal/entity/expense"
	"budgetbot/internal/model/customerr"
)

var header = []string{"date", "amount", "category", "description"}

type fileConfig interface {
	LedgerDir() string
}

// FileStorage keeps one CSV file per user. The file is rewritten in full on
// every change; a per-user mutex serializes read-modify-write so concurrent
// events for the same user cannot lose updates.
type FileStorage struct {
	dir string

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewFileStorage(cfg fileConfig) (*FileStorage, error) {
	if err := os.MkdirAll(cfg.LedgerDir(), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating ledger dir")
	}
	return &FileStorage{
		dir:   cfg.LedgerDir(),
		locks: make(map[int64]*sync.Mutex),
	}, nil
}

func (s *FileStorage) Append(_ context.Context, userID int64, rec expense.Record) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	recs, err := s.readUser(userID)
	if err != nil {
		return errors.Wrap(err, "append expense")
	}
	recs = append(recs, rec)
	return errors.Wrap(s.writeUser(userID, recs), "append expense")
}

func (s *FileStorage) ReadAll(_ context.Context, userID int64) ([]expense.Record, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	recs, err := s.readUser(userID)
	return recs, errors.Wrap(err, "read expenses")
}

func (s *FileStorage) DeleteLast(_ context.Context, userID int64) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	recs, err := s.readUser(userID)
	if err != nil {
		return errors.Wrap(err, "delete last expense")
	}
	if len(recs) == 0 {
		return customerr.ErrEmptyLedger
	}
	return errors.Wrap(s.writeUser(userID, recs[:len(recs)-1]), "delete last expense")
}

// Clear removes the user's backing file. Clearing a user that never logged
// anything is a no-op.
func (s *FileStorage) Clear(_ context.Context, userID int64) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	err := os.Remove(s.userFile(userID))
	if os.IsNotExist(err) {
		return nil
	}
	return errors.Wrap(err, "clear expenses")
}

func (s *FileStorage) userLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

func (s *FileStorage) userFile(userID int64) string {
	return filepath.Join(s.dir, strconv.FormatInt(userID, 10)+".csv")
}

func (s *FileStorage) readUser(userID int64) ([]expense.Record, error) {
	f, err := os.Open(s.userFile(userID))
	if os.IsNotExist(err) {
		return []expense.Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "parsing ledger file")
	}

	recs := make([]expense.Record, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			// header row
			continue
		}
		if len(row) != len(header) {
			return nil, errors.Errorf("ledger file row %d has %d columns", i, len(row))
		}
		amount, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, errors.Wrap(err, "parsing ledger amount")
		}
		recs = append(recs, expense.Record{
			Date:        row[0],
			Amount:      amount,
			Category:    row[2],
			Description: row[3],
		})
	}
	return recs, nil
}

func (s *FileStorage) writeUser(userID int64, recs []expense.Record) (err error) {
	f, err := os.Create(s.userFile(userID))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err = w.Write(header); err != nil {
		return err
	}
	for _, rec := range recs {
		row := []string{
			rec.Date,
			strconv.FormatFloat(rec.Amount, 'f', 2, 64),
			rec.Category,
			rec.Description,
		}
		if err = w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
