package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/autonolas-community/mechctl/internal/logger"
)

// ReconcileAction reports which branch the hash reconciliation took.
type ReconcileAction int

const (
	ReconcileCreated ReconcileAction = iota
	ReconcileLoaded
	ReconcileMigrated
)

func (a ReconcileAction) String() string {
	switch a {
	case ReconcileCreated:
		return "created"
	case ReconcileLoaded:
		return "loaded"
	case ReconcileMigrated:
		return "migrated"
	default:
		return "unknown"
	}
}

// Manager owns the on-disk service records. At most one logical service is
// tracked at a time; the template content hash is the record's identity.
type Manager struct {
	dir string
	log logger.Logger
}

// NewManager returns a manager over the given services directory,
// creating it if needed.
func NewManager(dir string, log logger.Logger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create services directory: %w", err)
	}
	return &Manager{dir: dir, log: log}, nil
}

func (m *Manager) recordPath(hash string) string {
	return filepath.Join(m.dir, hash+".json")
}

// List returns the tracked service records in stable hash order.
func (m *Manager) List() ([]*Service, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read services directory: %w", err)
	}

	var services []*Service
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		svc, err := m.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	sort.Slice(services, func(i, j int) bool { return services[i].Hash < services[j].Hash })
	return services, nil
}

// Load reads a service record by hash.
func (m *Manager) Load(hash string) (*Service, error) {
	path := m.recordPath(hash)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read service record %s: %w", hash, err)
	}

	svc := &Service{path: path}
	if err := json.Unmarshal(data, svc); err != nil {
		return nil, fmt.Errorf("failed to parse service record %s: %w", hash, err)
	}
	return svc, nil
}

// Store writes a service record atomically.
func (m *Manager) Store(svc *Service) error {
	if svc.path == "" {
		svc.path = m.recordPath(svc.Hash)
	}

	data, err := json.MarshalIndent(svc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode service record: %w", err)
	}

	tmp := svc.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write service record: %w", err)
	}
	if err := os.Rename(tmp, svc.path); err != nil {
		return fmt.Errorf("failed to write service record: %w", err)
	}
	return nil
}

// Reconcile resolves the tracked service record against a freshly computed
// template. With no existing record it creates one; with an existing record
// it compares content hashes and either reuses it unchanged or migrates it
// to the new hash, carrying over the accumulated on-chain deployment data.
func (m *Manager) Reconcile(template *ServiceTemplate) (*Service, ReconcileAction, error) {
	existing, err := m.List()
	if err != nil {
		return nil, 0, err
	}

	if len(existing) == 0 {
		m.log.Info("Creating service", zap.String("hash", template.Hash))
		svc := newFromTemplate(template, m.recordPath(template.Hash))
		key, err := newServiceKey()
		if err != nil {
			return nil, 0, err
		}
		svc.Keys = []ServiceKey{key}
		if err := m.Store(svc); err != nil {
			return nil, 0, err
		}
		return svc, ReconcileCreated, nil
	}

	current := existing[0]
	if current.Hash == template.Hash {
		m.log.Info("Loading service", zap.String("hash", template.Hash))
		return current, ReconcileLoaded, nil
	}

	m.log.Info("Updating service",
		zap.String("from", current.Hash),
		zap.String("to", template.Hash),
	)
	migrated, err := m.migrate(current, template)
	if err != nil {
		return nil, 0, err
	}
	return migrated, ReconcileMigrated, nil
}

// migrate moves the record from its old hash to the template's hash. The
// template fields are taken fresh while the per-chain deployment data
// (service id, multisig, staking flag) survives, so an already-registered
// service is updated in place rather than re-created on chain.
func (m *Manager) migrate(old *Service, template *ServiceTemplate) (*Service, error) {
	svc := newFromTemplate(template, m.recordPath(template.Hash))
	svc.Keys = old.Keys
	for chainID, cfg := range svc.ChainConfigs {
		if oldCfg, ok := old.ChainConfigs[chainID]; ok {
			cfg.ChainData.ServiceID = oldCfg.ChainData.ServiceID
			cfg.ChainData.Multisig = oldCfg.ChainData.Multisig
			cfg.ChainData.Staked = oldCfg.ChainData.Staked
			svc.ChainConfigs[chainID] = cfg
		}
	}

	if err := m.Store(svc); err != nil {
		return nil, err
	}
	if err := os.Remove(old.path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove old service record %s: %w", old.Hash, err)
	}
	return svc, nil
}
