// Package accountsvc is the account/character service spec.md §1 lists
// as an external collaborator. It backs authentication and
// character-roster management for internal/conn, wrapping the
// persist repositories with Argon2 password hashing.
package accountsvc

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"

	"github.com/openmmo/realmd/internal/persist"
)

// ErrInvalidCredentials covers both "no such account" and "wrong
// password" — deliberately not distinguished to callers, mirroring
// the teacher's handleLogin collapsing both into loginWrongPass.
var ErrInvalidCredentials = errors.New("accountsvc: invalid credentials")

// ErrAccountBanned is returned when the account row is flagged banned.
var ErrAccountBanned = errors.New("accountsvc: account banned")

// ErrNameTaken is returned by CreateCharacter when the name collides.
var ErrNameTaken = errors.New("accountsvc: character name taken")

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
)

// Service is the account/character facade used by the connection task.
type Service struct {
	accounts   *persist.AccountRepo
	characters *persist.CharacterRepo
	log        *zap.Logger
}

// New wraps repositories behind the account service.
func New(accounts *persist.AccountRepo, characters *persist.CharacterRepo, log *zap.Logger) *Service {
	return &Service{accounts: accounts, characters: characters, log: log}
}

// Authenticate validates a username/password pair and returns the
// matched account row. When no account exists yet it auto-registers
// one if autoCreate is true, mirroring the teacher's AutoCreateAccounts
// behavior, and returns ErrInvalidCredentials otherwise.
func (s *Service) Authenticate(ctx context.Context, username, password string, autoCreate bool) (*persist.AccountRow, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	account, err := s.accounts.LoadByUsername(ctx, username)
	if errors.Is(err, persist.ErrAccountNotFound) {
		if !autoCreate {
			return nil, ErrInvalidCredentials
		}
		hash, hashErr := hashPassword(password)
		if hashErr != nil {
			return nil, fmt.Errorf("accountsvc: hash password: %w", hashErr)
		}
		id, createErr := s.accounts.Create(ctx, username, username+"@local", hash)
		if createErr != nil {
			return nil, fmt.Errorf("accountsvc: auto-create account: %w", createErr)
		}
		s.log.Info("auto-created account", zap.String("username", username))
		return &persist.AccountRow{ID: id, Username: username, PasswordHash: hash}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("accountsvc: load account: %w", err)
	}

	if !verifyPassword(account.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if account.Banned {
		return nil, ErrAccountBanned
	}

	if err := s.accounts.TouchLastLogin(ctx, account.ID); err != nil {
		s.log.Warn("touch last login failed", zap.Error(err))
	}
	return account, nil
}

// ListCharacters returns the roster for an account.
func (s *Service) ListCharacters(ctx context.Context, accountID uuid.UUID) ([]persist.CharacterRow, error) {
	return s.characters.ListByAccount(ctx, accountID)
}

// CreateCharacter adds a new character to an account's roster.
func (s *Service) CreateCharacter(ctx context.Context, accountID uuid.UUID, name, class string) (uuid.UUID, error) {
	taken, err := s.characters.NameExists(ctx, name)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("accountsvc: check name: %w", err)
	}
	if taken {
		return uuid.UUID{}, ErrNameTaken
	}
	return s.characters.Create(ctx, accountID, name, class)
}

// LoadCharacter fetches a single roster entry, scoped to its owner.
func (s *Service) LoadCharacter(ctx context.Context, id, accountID uuid.UUID) (*persist.CharacterRow, error) {
	return s.characters.LoadByID(ctx, id, accountID)
}

// DeleteCharacter removes a roster entry.
func (s *Service) DeleteCharacter(ctx context.Context, id, accountID uuid.UUID) error {
	return s.characters.Delete(ctx, id, accountID)
}

// SetCharacterOnline flips the is_online flag.
func (s *Service) SetCharacterOnline(ctx context.Context, id uuid.UUID, online bool) error {
	return s.characters.SetOnline(ctx, id, online)
}

// SavePose persists a character's current pose.
func (s *Service) SavePose(ctx context.Context, id uuid.UUID, zoneID string, x, y, z, rotation float64) error {
	return s.characters.SavePose(ctx, id, zoneID, x, y, z, rotation)
}

// SaveHealth persists a character's current/max health.
func (s *Service) SaveHealth(ctx context.Context, id uuid.UUID, health, maxHealth int32) error {
	return s.characters.SaveHealth(ctx, id, health, maxHealth)
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	sum := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("argon2id$%s$%s",
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum)), nil
}

func verifyPassword(encoded, password string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 || parts[0] != "argon2id" {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return subtle.ConstantTimeCompare(got, want) == 1
}
