package cms

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/juneof/promo-engine/pkg/modal"
	"github.com/juneof/promo-engine/pkg/route"
)

// fileConfig is the on-disk shape of a file-backed rule set.
type fileConfig struct {
	Modals []*modal.Rule `yaml:"modals"`
}

// FileSource serves modal rules from a YAML file. It exists for local
// development and tests, applying the same candidate selection the CMS
// query expresses server-side.
type FileSource struct {
	mu    sync.RWMutex
	path  string
	rules []*modal.Rule
}

// NewFileSource loads a rule set from path.
func NewFileSource(path string) (*FileSource, error) {
	fs := &FileSource{path: path}
	if err := fs.Reload(); err != nil {
		return nil, err
	}
	return fs, nil
}

// Reload re-reads the rule file.
func (f *FileSource) Reload() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("failed to read modal config %s: %w", f.path, err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse modal config %s: %w", f.path, err)
	}

	seen := make(map[string]struct{}, len(cfg.Modals))
	for _, r := range cfg.Modals {
		if r.ID == "" {
			return fmt.Errorf("modal config %s: rule with empty id", f.path)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("modal config %s: duplicate rule id %s", f.path, r.ID)
		}
		seen[r.ID] = struct{}{}
	}

	f.mu.Lock()
	f.rules = cfg.Modals
	f.mu.Unlock()
	return nil
}

// FetchRuleForRoute selects the active rule for a route from the loaded set.
func (f *FileSource) FetchRuleForRoute(_ context.Context, rc route.Context) (*modal.Rule, error) {
	f.mu.RLock()
	rules := f.rules
	f.mu.RUnlock()

	return SelectRule(rules, rc, time.Now()), nil
}
