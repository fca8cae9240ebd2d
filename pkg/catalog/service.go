package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// Metadata file names expected under defaults/ and tenants/<id>/
const (
	tablesFile    = "tables.json"
	metricsFile   = "metrics.json"
	modifiersFile = "modifiers.json"
)

// Service provides merged metadata catalogs per tenant
type Service interface {
	// GetContext returns the merged catalog for a tenant. An empty tenant id
	// returns the defaults-only catalog.
	GetContext(tenantID string) (*Catalog, error)
	// Invalidate drops the memoized catalog for a tenant (all tenants when empty)
	Invalidate(tenantID string)
}

type service struct {
	log    logrus.FieldLogger
	config *Config

	mu    sync.Mutex
	cache map[string]*Catalog
}

// NewService creates a new catalog service
func NewService(log logrus.FieldLogger, cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &service{
		log:    log.WithField("service", "catalog"),
		config: cfg,
		cache:  make(map[string]*Catalog),
	}, nil
}

func (s *service) GetContext(tenantID string) (*Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.cache[tenantID]; ok {
		return c, nil
	}

	c, err := s.load(tenantID)
	if err != nil {
		return nil, err
	}

	if err := Validate(c); err != nil {
		return nil, err
	}

	s.cache[tenantID] = c

	return c, nil
}

func (s *service) Invalidate(tenantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tenantID == "" {
		s.cache = make(map[string]*Catalog)
		return
	}

	delete(s.cache, tenantID)
}

func (s *service) load(tenantID string) (*Catalog, error) {
	defaultsDir := filepath.Join(s.config.Path, "defaults")

	c := &Catalog{
		TenantID:  tenantID,
		Tables:    make(map[string]TableDef),
		Metrics:   make(map[string]KPIDef),
		Modifiers: make(map[string]Modifier),
	}

	if err := loadJSON(filepath.Join(defaultsDir, tablesFile), &c.Tables); err != nil {
		return nil, err
	}

	if err := loadJSON(filepath.Join(defaultsDir, metricsFile), &c.Metrics); err != nil {
		return nil, err
	}

	if err := loadJSON(filepath.Join(defaultsDir, modifiersFile), &c.Modifiers); err != nil {
		return nil, err
	}

	if tenantID == "" {
		return c, nil
	}

	tenantDir := filepath.Join(s.config.Path, "tenants", tenantID)

	tables := make(map[string]TableDef)
	if err := loadJSON(filepath.Join(tenantDir, tablesFile), &tables); err != nil {
		return nil, err
	}

	metrics := make(map[string]KPIDef)
	if err := loadJSON(filepath.Join(tenantDir, metricsFile), &metrics); err != nil {
		return nil, err
	}

	modifiers := make(map[string]Modifier)
	if err := loadJSON(filepath.Join(tenantDir, modifiersFile), &modifiers); err != nil {
		return nil, err
	}

	// Shallow per-entity override: tenant keys replace default keys wholesale
	for k, v := range tables {
		c.Tables[k] = v
	}

	for k, v := range metrics {
		c.Metrics[k] = v
	}

	for k, v := range modifiers {
		c.Modifiers[k] = v
	}

	s.log.WithFields(logrus.Fields{
		"tenant":  tenantID,
		"tables":  len(c.Tables),
		"metrics": len(c.Metrics),
	}).Debug("Loaded tenant catalog")

	return c, nil
}

// loadJSON reads a metadata file into dest. Missing files are treated as empty;
// unreadable or malformed files are fatal.
func loadJSON(path string, dest interface{}) error {
	data, err := os.ReadFile(path) //nolint:gosec // Catalog paths come from operator config
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("failed to read metadata file %s: %w", path, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedMetadata, path, err)
	}

	return nil
}

// Fingerprint derives a short stable hash of the merged catalog, used to
// isolate cache entries between tenants whose configurations differ.
func (c *Catalog) Fingerprint() string {
	raw, err := json.Marshal(c)
	if err != nil {
		raw = []byte(c.TenantID)
	}

	sum := sha256.Sum256(raw)

	return hex.EncodeToString(sum[:])[:16]
}
