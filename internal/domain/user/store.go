package user

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cradlehq/cradle/backend/internal/shared/utils"
)

var (
	// ErrNotFound is returned when no user has the wallet address.
	ErrNotFound = errors.New("user not found")
	// ErrNotConfigured is returned when no database is configured.
	ErrNotConfigured = errors.New("user store not configured")
	// ErrInvalidProfile is returned for oversized or malformed GitHub fields.
	ErrInvalidProfile = errors.New("invalid profile")
)

// Options configures the database connection.
type Options struct {
	// URL selects the driver: postgres:// and postgresql:// use Postgres,
	// anything else is a SQLite DSN.
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	LogLevel     gormlogger.LogLevel
}

// Store persists users with gorm.
type Store struct {
	db *gorm.DB
}

// Open connects, migrates the schema and returns a store.
func Open(opts Options) (*Store, error) {
	if opts.URL == "" {
		return nil, ErrNotConfigured
	}
	if opts.LogLevel == 0 {
		opts.LogLevel = gormlogger.Warn
	}

	db, err := gorm.Open(dialector(opts.URL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(opts.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return NewStore(db)
}

func dialector(url string) gorm.Dialector {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return postgres.Open(url)
	}
	return sqlite.Open(strings.TrimPrefix(url, "sqlite://"))
}

// NewStore wraps an open connection and migrates the schema.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&User{}); err != nil {
		return nil, fmt.Errorf("failed to migrate users: %w", err)
	}
	return &Store{db: db}, nil
}

// Upsert creates the user for p.WalletAddress or updates the provided
// GitHub fields of the existing one. Fields left nil keep their value.
func (s *Store) Upsert(ctx context.Context, p Profile) (*User, error) {
	wallet, err := utils.NormalizeWallet(p.WalletAddress)
	if err != nil {
		return nil, err
	}
	if err := validateProfile(p); err != nil {
		return nil, err
	}

	cols := p.columns()
	u := &User{
		WalletAddress:   wallet,
		GithubID:        p.GithubID,
		GithubUsername:  p.GithubUsername,
		GithubEmail:     p.GithubEmail,
		GithubAvatarURL: p.GithubAvatarURL,
	}

	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet_address"}},
		DoNothing: len(cols) == 0,
	}
	if len(cols) > 0 {
		names := make([]string, 0, len(cols)+1)
		for name := range cols {
			names = append(names, name)
		}
		sort.Strings(names)
		onConflict.DoUpdates = clause.AssignmentColumns(append(names, "updated_at"))
	}

	if err := s.db.WithContext(ctx).Clauses(onConflict).Create(u).Error; err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return s.FindByWallet(ctx, wallet)
}

func validateProfile(p Profile) error {
	for name, v := range p.columns() {
		if err := utils.ValidateString(*v, name, 0, utils.MaxGithubFieldLength, false); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
		}
	}
	return nil
}

// FindByWallet returns the user with the address, matched case-insensitively.
func (s *Store) FindByWallet(ctx context.Context, address string) (*User, error) {
	wallet, err := utils.NormalizeWallet(address)
	if err != nil {
		return nil, err
	}

	var u User
	err = s.db.WithContext(ctx).Where("wallet_address = ?", wallet).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &u, nil
}

// Ping checks the connection, for health reporting.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
