// Package credstore persists API credentials in a local SQLite file, one
// JSON blob per service. Environment variables always win over stored
// values, so a fully env-configured run needs no store at all.
package credstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Service names used as row keys.
const (
	ServiceSearchAd = "naver_searchad"
	ServiceShopping = "naver_shopping"
	ServiceAI       = "ai_api"
)

// ErrNotFound reports a service with no stored credentials.
var ErrNotFound = errors.New("credstore: no credentials for service")

const schema = `
CREATE TABLE IF NOT EXISTS api_configs (
	service_name TEXT PRIMARY KEY,
	config_data  TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);
`

// Store is a write-through SQLite credential store.
type Store struct {
	db *sqlx.DB
	mu sync.Mutex
}

func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the JSON-encoded config for a service.
func (s *Store) Save(service string, cfg any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode %s config: %w", service, err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO api_configs (service_name, config_data, updated_at) VALUES (?, ?, ?)`,
		service, string(blob), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save %s config: %w", service, err)
	}
	return nil
}

// Load decodes the stored config for a service into out.
func (s *Store) Load(service string, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var blob string
	err := s.db.Get(&blob, `SELECT config_data FROM api_configs WHERE service_name = ?`, service)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, service)
	}
	if err != nil {
		return fmt.Errorf("load %s config: %w", service, err)
	}
	if err := json.Unmarshal([]byte(blob), out); err != nil {
		return fmt.Errorf("decode %s config: %w", service, err)
	}
	return nil
}

// ServiceInfo describes a stored service row without exposing secrets.
type ServiceInfo struct {
	ServiceName string `db:"service_name"`
	UpdatedAt   string `db:"updated_at"`
}

func (s *Store) List() ([]ServiceInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ServiceInfo
	err := s.db.Select(&out, `SELECT service_name, updated_at FROM api_configs ORDER BY service_name`)
	if err != nil {
		return nil, fmt.Errorf("list configs: %w", err)
	}
	return out, nil
}

// SearchAdCredentials authenticate against the SearchAd keyword API.
type SearchAdCredentials struct {
	LicenseKey string `json:"license_key"`
	SecretKey  string `json:"secret_key"`
	CustomerID string `json:"customer_id"`
}

// ShoppingCredentials authenticate against the shopping search API.
type ShoppingCredentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// AICredentials hold the model provider key.
type AICredentials struct {
	APIKey string `json:"api_key"`
}

// LoadSearchAd resolves SearchAd credentials: stored values first (store
// may be nil), then NAVER_SEARCHAD_LICENSE / NAVER_SEARCHAD_SECRET /
// NAVER_SEARCHAD_CUSTOMER_ID overrides. All three fields must end up set.
func LoadSearchAd(s *Store) (SearchAdCredentials, error) {
	var c SearchAdCredentials
	if s != nil {
		if err := s.Load(ServiceSearchAd, &c); err != nil && !errors.Is(err, ErrNotFound) {
			return SearchAdCredentials{}, err
		}
	}
	overrideEnv(&c.LicenseKey, "NAVER_SEARCHAD_LICENSE")
	overrideEnv(&c.SecretKey, "NAVER_SEARCHAD_SECRET")
	overrideEnv(&c.CustomerID, "NAVER_SEARCHAD_CUSTOMER_ID")
	if c.LicenseKey == "" || c.SecretKey == "" || c.CustomerID == "" {
		return SearchAdCredentials{}, errors.New("searchad credentials incomplete: need license, secret and customer id")
	}
	return c, nil
}

// LoadShopping resolves shopping API credentials, with NAVER_CLIENT_ID /
// NAVER_CLIENT_SECRET overriding stored values.
func LoadShopping(s *Store) (ShoppingCredentials, error) {
	var c ShoppingCredentials
	if s != nil {
		if err := s.Load(ServiceShopping, &c); err != nil && !errors.Is(err, ErrNotFound) {
			return ShoppingCredentials{}, err
		}
	}
	overrideEnv(&c.ClientID, "NAVER_CLIENT_ID")
	overrideEnv(&c.ClientSecret, "NAVER_CLIENT_SECRET")
	if c.ClientID == "" || c.ClientSecret == "" {
		return ShoppingCredentials{}, errors.New("shopping credentials incomplete: need client id and secret")
	}
	return c, nil
}

// LoadAI resolves the model provider key, with ANTHROPIC_API_KEY
// overriding the stored value.
func LoadAI(s *Store) (AICredentials, error) {
	var c AICredentials
	if s != nil {
		if err := s.Load(ServiceAI, &c); err != nil && !errors.Is(err, ErrNotFound) {
			return AICredentials{}, err
		}
	}
	overrideEnv(&c.APIKey, "ANTHROPIC_API_KEY")
	if c.APIKey == "" {
		return AICredentials{}, errors.New("ai credentials incomplete: need api key")
	}
	return c, nil
}

func overrideEnv(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
