// Package cceconfig loads a cce.ScoringConfig override document from YAML,
// merging it onto cce.DefaultScoringConfig() field by field so a partial
// override file only touches the weights it mentions.
package cceconfig

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kestrelcode/cce/pkg/cce"
	"github.com/kestrelcode/cce/pkg/logging"
)

var configLog *logging.Logger

func init() {
	var err error
	configLog, err = logging.NewLogger("cceconfig")
	if err != nil {
		configLog.Warnf("falling back to stderr logging: %v", err)
	}
}

// Load reads a YAML scoring-config document from path and merges it onto
// cce.DefaultScoringConfig(). A missing file is not an error: the default
// config is returned unchanged, since most deployments never need to
// override the scorer.
func Load(path string) (cce.ScoringConfig, error) {
	cfg := cce.DefaultScoringConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			configLog.Infof("no scoring config at %s, using defaults", path)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cce.DefaultScoringConfig(), err
	}

	configLog.Infof("loaded scoring config overrides from %s", path)
	return cfg, nil
}

// LoadOrDefault is a convenience wrapper for callers that want to log and
// swallow a load error rather than propagate it, falling back to spec
// defaults.
func LoadOrDefault(path string) cce.ScoringConfig {
	cfg, err := Load(path)
	if err != nil {
		configLog.Warnf("failed to load scoring config from %s, using defaults: %v", path, err)
		return cce.DefaultScoringConfig()
	}
	return cfg
}
