package overrides

import (
	"fmt"
	"os"
	"time"

	logpkg "github.com/velden/splitgen/internal/split/common/log"
	"github.com/velden/splitgen/internal/split/domain"
	"github.com/velden/splitgen/internal/split/repos/parsers"
)

// DefaultCacheSize bounds the lookup decision cache. Upstream lists run to a
// few hundred thousand entries; caching a fraction of that covers the hot
// parents.
const DefaultCacheSize = 65536

// Load reads both override files and returns a ready Repository. A missing
// file contributes no overrides; that is the normal state for users who
// never customized anything.
func Load(domesticPath, foreignPath string, logger logpkg.Logger, now time.Time) (*Repository, error) {
	domestic, err := loadFile(domesticPath, logger, now)
	if err != nil {
		return nil, err
	}
	foreign, err := loadFile(foreignPath, logger, now)
	if err != nil {
		return nil, err
	}

	idx, err := NewIndex(domestic, foreign)
	if err != nil {
		return nil, err
	}

	logger.Info(map[string]any{
		"domestic": len(domestic),
		"foreign":  len(foreign),
	}, "override lists loaded")

	return NewRepository(idx, DefaultCacheSize)
}

func loadFile(path string, logger logpkg.Logger, now time.Time) ([]domain.Rule, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug(map[string]any{"path": path}, "override file absent")
			return nil, nil
		}
		return nil, fmt.Errorf("opening override file %s: %w", path, err)
	}
	defer f.Close()

	rules, stats, err := parsers.ParseOverrides(f, path, logger, now)
	if err != nil {
		return nil, fmt.Errorf("parsing override file %s: %w", path, err)
	}
	if stats.Skipped > 0 {
		logger.Warn(map[string]any{"path": path, "skipped": stats.Skipped}, "override entries skipped")
	}
	return rules, nil
}
