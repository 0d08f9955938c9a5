package bootstrap

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/juneof/promo-engine/internal/config"
	"github.com/juneof/promo-engine/pkg/cms"
)

// InitRuleSource builds the modal rule source selected by RULE_SOURCE.
// "sanity" reads rules live from the CMS; "file" reads a local YAML set,
// which is the usual choice for development and tests.
func InitRuleSource(cfg *config.Config) (cms.RuleSource, error) {
	switch cfg.RuleSource {
	case "sanity":
		client := cms.NewSanityClient(cms.SanityOptions{
			ProjectID:  cfg.SanityProjectID,
			Dataset:    cfg.SanityDataset,
			APIVersion: cfg.SanityAPIVersion,
			Token:      cfg.SanityToken,
		})
		logrus.Infof("modal rules served from Sanity project %s/%s", cfg.SanityProjectID, cfg.SanityDataset)
		return client, nil

	case "file":
		source, err := cms.NewFileSource(cfg.ModalsConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load modal rules from %s: %w", cfg.ModalsConfigPath, err)
		}
		logrus.Infof("modal rules served from %s", cfg.ModalsConfigPath)
		return source, nil

	default:
		return nil, fmt.Errorf("unknown rule source %q", cfg.RuleSource)
	}
}
