package helper

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"time"

	_ "github.com/lib/pq"
)

// DatabaseConfiguration holds the connection settings of the Postgres graph store.
type DatabaseConfiguration struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Schema   string
	SSLMode  string
}

// NewDatabaseConfiguration reads the configuration from the environment
// (DB_HOST, DB_PORT, DB_DATABASE, DB_USERNAME, DB_PASSWORD, DB_SCHEMA, DB_SSLMODE).
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	if err := LoadEnvFile(); err != nil {
		return nil, err
	}

	config := &DatabaseConfiguration{
		Schema:  EnvString("DB_SCHEMA", "public"),
		SSLMode: EnvString("DB_SSLMODE", "disable"),
	}

	var err error
	if config.Host, err = requireEnv("DB_HOST"); err != nil {
		return nil, NewError("database configuration", err)
	}
	if config.Port, err = requireEnv("DB_PORT"); err != nil {
		return nil, NewError("database configuration", err)
	}
	if config.Database, err = requireEnv("DB_DATABASE"); err != nil {
		return nil, NewError("database configuration", err)
	}
	if config.Username, err = requireEnv("DB_USERNAME"); err != nil {
		return nil, NewError("database configuration", err)
	}
	config.Password = EnvString("DB_PASSWORD", "")

	return config, nil
}

// ConnectionString returns the lib/pq connection url.
func (c *DatabaseConfiguration) ConnectionString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   fmt.Sprintf("%s:%s", c.Host, c.Port),
		Path:   c.Database,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	if c.Schema != "" {
		q.Set("search_path", c.Schema)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Database bundles the connection pool with its logger.
type Database struct {
	Name     string
	Instance *sql.DB
	Logger   *slog.Logger
}

// NewDatabase opens and pings the database. It exits the process if the
// database cannot be reached, like the other startup checks.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) *Database {
	db, err := connect(config)
	if err != nil {
		log.Fatalf("error connecting to database %s: %v", name, err)
	}

	logger.Info("Connected to database", slog.String("name", name), slog.String("host", config.Host))

	return &Database{
		Name:     name,
		Instance: db,
		Logger:   logger,
	}
}

// NewTestDatabase opens a database with a discarding logger for tests.
func NewTestDatabase(config *DatabaseConfiguration) *Database {
	db, err := connect(config)
	if err != nil {
		log.Fatalf("error connecting to test database: %v", err)
	}

	return &Database{
		Name:     "test",
		Instance: db,
		Logger:   NewLogger(log.Writer(), slog.LevelWarn),
	}
}

// Close closes the connection pool.
func (d *Database) Close() error {
	if d == nil || d.Instance == nil {
		return nil
	}
	return d.Instance.Close()
}

func connect(config *DatabaseConfiguration) (*sql.DB, error) {
	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
