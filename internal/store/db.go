package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// Options selects the database driver and its connection target.
type Options struct {
	Driver string // sqlite (default) or postgres
	Path   string // sqlite file path
	DSN    string // postgres connection string
	Silent bool
}

// Database wraps the GORM DB handle and exposes repository helpers.
type Database struct {
	gorm   *gorm.DB
	driver string
	mu     sync.Mutex
}

// Open initializes the database described by opts and migrates the schema.
func Open(opts Options) (*Database, error) {
	cfg := &gorm.Config{}
	if opts.Silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}

	driver := strings.ToLower(strings.TrimSpace(opts.Driver))
	if driver == "" {
		driver = "sqlite"
	}

	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		path := strings.TrimSpace(opts.Path)
		if path == "" {
			return nil, errors.New("sqlite path is required")
		}
		if path != ":memory:" {
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("create database dir: %w", err)
				}
			}
		}
		dialector = sqlite.Open(path)
	case "postgres":
		if strings.TrimSpace(opts.DSN) == "" {
			return nil, errors.New("postgres dsn is required")
		}
		dialector = postgres.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Profile{}, &Generation{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if driver == "sqlite" {
		if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
			logrus.WithError(err).Warn("enable WAL mode")
		}
		if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
			logrus.WithError(err).Warn("set synchronous pragma")
		}
	}
	return &Database{gorm: db, driver: driver}, nil
}

// Driver returns the active driver name.
func (d *Database) Driver() string {
	return d.driver
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks connectivity.
func (d *Database) Ping() error {
	if d == nil {
		return errors.New("database is nil")
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// SaveProfile inserts a finalized profile, assigning an id when missing.
func (d *Database) SaveProfile(p *Profile) error {
	if p == nil {
		return errors.New("profile is nil")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.AnswersJSON == "" {
		p.AnswersJSON = "{}"
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Create(p).Error
}

// GetProfile fetches a profile by id.
func (d *Database) GetProfile(id string) (*Profile, error) {
	var p Profile
	if err := d.gorm.First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// CountProfilesByType returns the number of stored profiles per label.
func (d *Database) CountProfilesByType() (map[string]int64, error) {
	var rows []struct {
		Type  string
		Total int64
	}
	if err := d.gorm.Model(&Profile{}).
		Select("type, COUNT(*) AS total").
		Group("type").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count profiles: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Type] = row.Total
	}
	return out, nil
}

// SaveGeneration appends a generation log entry.
func (d *Database) SaveGeneration(g *Generation) error {
	if g == nil {
		return errors.New("generation is nil")
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Create(g).Error
}

// GenerationQuery filters and pages the generation log.
type GenerationQuery struct {
	Kind   string
	Offset int
	Limit  int
}

// ListGenerations returns generation rows newest first along with the
// filtered total.
func (d *Database) ListGenerations(opts GenerationQuery) ([]Generation, int64, error) {
	base := d.gorm.Model(&Generation{})
	if kind := strings.TrimSpace(opts.Kind); kind != "" {
		base = base.Where("kind = ?", strings.ToLower(kind))
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := base.Order("created_at DESC").Order("id DESC").Offset(opts.Offset)
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	var rows []Generation
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
