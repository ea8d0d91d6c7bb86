package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrCharacterNotFound is returned when no row matches the query.
var ErrCharacterNotFound = errors.New("persist: character not found")

// CharacterRow mirrors spec.md §6's persisted schema: id, account_id,
// name, class, zone_id, position x/y/z, rotation, health, max_health,
// is_online, last_saved_at.
type CharacterRow struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	Name        string
	Class       string
	ZoneID      string
	X, Y, Z     float64
	Rotation    float64
	Health      int32
	MaxHealth   int32
	IsOnline    bool
	LastSavedAt time.Time
}

// CharacterRepo is the pgx-backed character persistence layer.
// Grounded on the teacher's internal/persist/character_repo.go
// (parameterized INSERT...RETURNING, SavePosition), trimmed to the
// columns spec.md §6 names — stats, inventory, quests are explicitly
// out of scope.
type CharacterRepo struct {
	db *DB
}

// NewCharacterRepo wraps db.
func NewCharacterRepo(db *DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

// ListByAccount returns every character row owned by accountID.
func (r *CharacterRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]CharacterRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, account_id, name, class, zone_id, position_x, position_y, position_z,
		        rotation, health, max_health, is_online, last_saved_at
		 FROM characters WHERE account_id = $1 ORDER BY created_at`, accountID)
	if err != nil {
		return nil, fmt.Errorf("persist: list characters by account: %w", err)
	}
	defer rows.Close()

	var out []CharacterRow
	for rows.Next() {
		var c CharacterRow
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Name, &c.Class, &c.ZoneID, &c.X, &c.Y, &c.Z,
			&c.Rotation, &c.Health, &c.MaxHealth, &c.IsOnline, &c.LastSavedAt); err != nil {
			return nil, fmt.Errorf("persist: scan character row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// LoadByID fetches a single character row, verifying it belongs to
// accountID (ownership check: a row owned by another account is
// reported as ErrCharacterNotFound).
func (r *CharacterRepo) LoadByID(ctx context.Context, id, accountID uuid.UUID) (*CharacterRow, error) {
	c := &CharacterRow{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, account_id, name, class, zone_id, position_x, position_y, position_z,
		        rotation, health, max_health, is_online, last_saved_at
		 FROM characters WHERE id = $1 AND account_id = $2`, id, accountID,
	).Scan(&c.ID, &c.AccountID, &c.Name, &c.Class, &c.ZoneID, &c.X, &c.Y, &c.Z,
		&c.Rotation, &c.Health, &c.MaxHealth, &c.IsOnline, &c.LastSavedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCharacterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("persist: load character by id: %w", err)
	}
	return c, nil
}

// Create inserts a new character and returns its generated id.
func (r *CharacterRepo) Create(ctx context.Context, accountID uuid.UUID, name, class string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO characters (account_id, name, class) VALUES ($1, $2, $3) RETURNING id`,
		accountID, name, class,
	).Scan(&id)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("persist: create character: %w", err)
	}
	return id, nil
}

// Delete removes a character row owned by accountID.
func (r *CharacterRepo) Delete(ctx context.Context, id, accountID uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM characters WHERE id = $1 AND account_id = $2`, id, accountID)
	if err != nil {
		return fmt.Errorf("persist: delete character: %w", err)
	}
	return nil
}

// SavePose writes the current pose to a character row — used by both
// the 5s persistence ticker and the eager spawn/disconnect paths.
func (r *CharacterRepo) SavePose(ctx context.Context, id uuid.UUID, zoneID string, x, y, z, rotation float64) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE characters SET zone_id = $2, position_x = $3, position_y = $4, position_z = $5,
		        rotation = $6, last_saved_at = now() WHERE id = $1`,
		id, zoneID, x, y, z, rotation)
	if err != nil {
		return fmt.Errorf("persist: save character pose: %w", err)
	}
	return nil
}

// SaveHealth writes current/max health to a character row.
func (r *CharacterRepo) SaveHealth(ctx context.Context, id uuid.UUID, health, maxHealth int32) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE characters SET health = $2, max_health = $3 WHERE id = $1`, id, health, maxHealth)
	if err != nil {
		return fmt.Errorf("persist: save character health: %w", err)
	}
	return nil
}

// SetOnline marks a character's is_online flag.
func (r *CharacterRepo) SetOnline(ctx context.Context, id uuid.UUID, online bool) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE characters SET is_online = $2 WHERE id = $1`, id, online)
	if err != nil {
		return fmt.Errorf("persist: set character online: %w", err)
	}
	return nil
}

// NameExists reports whether a character name is already taken.
func (r *CharacterRepo) NameExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM characters WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("persist: check character name exists: %w", err)
	}
	return exists, nil
}
