package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kapu/sevenlist-go/internal/constants"
	"github.com/kapu/sevenlist-go/internal/domain"
	"github.com/kapu/sevenlist-go/internal/service/database"
	apperrors "github.com/kapu/sevenlist-go/pkg/errors"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const profileColumns = `id, COALESCE(username, ''), full_name, bio, avatar_url,
	COALESCE(instagram_url, ''), COALESCE(spotify_url, ''), COALESCE(country, ''), created_at`

// uniqueViolation is the SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

type ProfileRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewProfileRepository(postgres *database.PostgresService, logger *zap.Logger) *ProfileRepository {
	return &ProfileRepository{
		db:     postgres.GetDB(),
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*domain.UserProfile, error) {
	var p domain.UserProfile
	if err := row.Scan(&p.ID, &p.Handle, &p.DisplayName, &p.Bio, &p.AvatarURL,
		&p.InstagramURL, &p.SpotifyURL, &p.Country, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByHandle looks a profile up by its public handle. A leading '@' is ignored.
// Returns nil without error when no profile matches.
func (r *ProfileRepository) FindByHandle(ctx context.Context, handle string) (*domain.UserProfile, error) {
	handle = domain.NormalizeHandle(handle)
	if handle == "" {
		return nil, nil
	}

	query := `SELECT ` + profileColumns + ` FROM profiles WHERE LOWER(username) = LOWER($1) LIMIT 1`
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, handle))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile by handle: %w", err)
	}
	return p, nil
}

// FindByID returns nil without error when the account has no profile row.
func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*domain.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile by id: %w", err)
	}
	return p, nil
}

// Update applies a partial update, creating the row on first write.
func (r *ProfileRepository) Update(ctx context.Context, id string, upd domain.ProfileUpdate) (*domain.UserProfile, error) {
	if upd.Empty() {
		p, err := r.FindByID(ctx, id)
		if err != nil || p != nil {
			return p, err
		}
	}

	query, args := buildProfileUpsert(id, upd)
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return nil, apperrors.NewValidationError("handle already taken", "username", upd.Handle)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	r.logger.Debug("Profile updated", zap.String("id", id))
	return p, nil
}

// Explore lists public profiles, newest first.
func (r *ProfileRepository) Explore(ctx context.Context, filter domain.ExploreFilter) ([]*domain.UserProfile, error) {
	query, args := buildExploreQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]*domain.UserProfile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			r.logger.Warn("Failed to scan profile row", zap.Error(err))
			continue
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}
	return profiles, nil
}

func buildProfileUpsert(id string, upd domain.ProfileUpdate) (string, []any) {
	cols := make([]string, 0, 7)
	args := []any{id}

	add := func(col string, v *string, normalize func(string) string) {
		if v == nil {
			return
		}
		val := strings.TrimSpace(*v)
		if normalize != nil {
			val = normalize(val)
		}
		args = append(args, val)
		cols = append(cols, col)
	}
	add("username", upd.Handle, domain.NormalizeHandle)
	add("full_name", upd.DisplayName, nil)
	add("bio", upd.Bio, nil)
	add("avatar_url", upd.AvatarURL, nil)
	add("instagram_url", upd.InstagramURL, nil)
	add("spotify_url", upd.SpotifyURL, nil)
	add("country", upd.Country, strings.ToUpper)

	insertCols := append([]string{"id"}, cols...)
	placeholders := make([]string, len(insertCols))
	for i := range insertCols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	var conflict string
	if len(cols) == 0 {
		conflict = "DO UPDATE SET id = EXCLUDED.id"
	} else {
		sets := make([]string, len(cols))
		for i, c := range cols {
			sets[i] = fmt.Sprintf("%s = EXCLUDED.%s", c, c)
		}
		conflict = "DO UPDATE SET " + strings.Join(sets, ", ")
	}

	query := fmt.Sprintf(`INSERT INTO profiles (%s) VALUES (%s)
		ON CONFLICT (id) %s
		RETURNING %s`,
		strings.Join(insertCols, ", "), strings.Join(placeholders, ", "), conflict, profileColumns)
	return query, args
}

func buildExploreQuery(filter domain.ExploreFilter) (string, []any) {
	var (
		where []string
		args  []any
	)

	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+escapeLike(domain.NormalizeHandle(q))+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(username ILIKE $%d OR full_name ILIKE $%d OR bio ILIKE $%d)", n, n, n))
	}
	if c := strings.TrimSpace(filter.Country); c != "" {
		args = append(args, strings.ToUpper(c))
		where = append(where, fmt.Sprintf("country = $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 || limit > constants.StoreLimits.ExploreLimit {
		limit = constants.StoreLimits.ExploreLimit
	}
	args = append(args, limit)

	query := `SELECT ` + profileColumns + ` FROM profiles WHERE username IS NOT NULL`
	if len(where) > 0 {
		query += " AND " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	return query, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
