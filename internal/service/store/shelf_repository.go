package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kapu/sevenlist-go/internal/domain"
	"github.com/kapu/sevenlist-go/internal/service/database"
	"go.uber.org/zap"
)

type ShelfRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewShelfRepository(postgres *database.PostgresService, logger *zap.Logger) *ShelfRepository {
	return &ShelfRepository{
		db:     postgres.GetDB(),
		logger: logger,
	}
}

// Get returns the account's shelf. A missing row yields an empty shelf.
func (r *ShelfRepository) Get(ctx context.Context, userID string) (*domain.Shelf, error) {
	var movies, books, music []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT movies, books, music FROM shelves WHERE user_id = $1`, userID,
	).Scan(&movies, &books, &music)

	if errors.Is(err, sql.ErrNoRows) {
		return &domain.Shelf{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query shelf: %w", err)
	}

	shelf, err := decodeShelf(movies, books, music)
	if err != nil {
		r.logger.Warn("Stored shelf is malformed, serving partial", zap.String("user_id", userID), zap.Error(err))
	}
	return shelf, nil
}

// shelfUpsertQuery creates the owner's profile row when it is missing so the
// first shelf write of a new account satisfies the foreign key.
const shelfUpsertQuery = `
	WITH owner AS (
		INSERT INTO profiles (id) VALUES ($1)
		ON CONFLICT (id) DO NOTHING
	)
	INSERT INTO shelves (user_id, movies, books, music, updated_at)
	VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (user_id) DO UPDATE
	SET movies = EXCLUDED.movies, books = EXCLUDED.books, music = EXCLUDED.music, updated_at = NOW()
`

// Save overwrites the whole shelf. Last write wins.
func (r *ShelfRepository) Save(ctx context.Context, userID string, shelf *domain.Shelf) error {
	shelf.Normalize()

	movies, books, music, err := encodeShelf(shelf)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, shelfUpsertQuery, userID, movies, books, music)
	if err != nil {
		return fmt.Errorf("failed to save shelf: %w", err)
	}

	r.logger.Debug("Shelf saved", zap.String("user_id", userID), zap.Int("items", shelf.Count()))
	return nil
}

// ShelvesByCountry loads every shelf whose owner is in country. An empty
// country matches all owners.
func (r *ShelfRepository) ShelvesByCountry(ctx context.Context, country string) ([]*domain.Shelf, error) {
	query := `SELECT s.movies, s.books, s.music FROM shelves s JOIN profiles p ON p.id = s.user_id`
	var args []any
	if c := strings.TrimSpace(country); c != "" {
		query += ` WHERE p.country = $1`
		args = append(args, strings.ToUpper(c))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shelves: %w", err)
	}
	defer rows.Close()

	var shelves []*domain.Shelf
	for rows.Next() {
		var movies, books, music []byte
		if err := rows.Scan(&movies, &books, &music); err != nil {
			r.logger.Warn("Failed to scan shelf row", zap.Error(err))
			continue
		}
		shelf, err := decodeShelf(movies, books, music)
		if err != nil {
			r.logger.Warn("Skipping malformed shelf columns", zap.Error(err))
		}
		shelves = append(shelves, shelf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shelves: %w", err)
	}
	return shelves, nil
}

// Countries lists the distinct countries declared on profiles.
func (r *ShelfRepository) Countries(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT country FROM profiles WHERE country IS NOT NULL AND country <> '' ORDER BY country`)
	if err != nil {
		return nil, fmt.Errorf("failed to query countries: %w", err)
	}
	defer rows.Close()

	countries := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			r.logger.Warn("Failed to scan country", zap.Error(err))
			continue
		}
		countries = append(countries, c)
	}
	return countries, rows.Err()
}

// decodeShelf keeps every column that parses and reports the first failure.
func decodeShelf(movies, books, music []byte) (*domain.Shelf, error) {
	shelf := &domain.Shelf{}
	var firstErr error
	for _, col := range []struct {
		raw []byte
		dst *domain.Row
	}{
		{movies, &shelf.Movies},
		{books, &shelf.Books},
		{music, &shelf.Music},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			*col.dst = domain.Row{}
			if firstErr == nil {
				firstErr = fmt.Errorf("decode shelf row: %w", err)
			}
		}
	}
	shelf.Normalize()
	return shelf, firstErr
}

func encodeShelf(shelf *domain.Shelf) (movies, books, music []byte, err error) {
	if movies, err = json.Marshal(shelf.Movies); err != nil {
		return nil, nil, nil, fmt.Errorf("encode movies: %w", err)
	}
	if books, err = json.Marshal(shelf.Books); err != nil {
		return nil, nil, nil, fmt.Errorf("encode books: %w", err)
	}
	if music, err = json.Marshal(shelf.Music); err != nil {
		return nil, nil, nil, fmt.Errorf("encode music: %w", err)
	}
	return movies, books, music, nil
}
