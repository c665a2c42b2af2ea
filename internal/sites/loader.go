package sites

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// siteFile is the on-disk shape of a site configuration file.
type siteFile struct {
	Sites map[string]*SiteConfig `yaml:"sites" json:"sites"`
}

// Load reads site configurations from a YAML or JSON file (format picked
// by extension, YAML tried first otherwise). Every entry is validated
// and compiled; one bad entry fails the whole load so a running service
// never picks up a half-usable file.
func Load(path string) (map[string]*SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sites file: %w", err)
	}

	var file siteFile
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse YAML sites file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse JSON sites file: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &file); err != nil {
			if err := json.Unmarshal(data, &file); err != nil {
				return nil, fmt.Errorf("failed to parse sites file (tried YAML and JSON): %w", err)
			}
		}
	}

	if len(file.Sites) == 0 {
		return nil, fmt.Errorf("sites file %s declares no sites", path)
	}

	configs := make(map[string]*SiteConfig, len(file.Sites))
	for host, site := range file.Sites {
		if site == nil {
			return nil, fmt.Errorf("site %s: empty configuration", host)
		}
		site.Host = strings.ToLower(strings.TrimSpace(host))
		if site.Host == "" {
			return nil, fmt.Errorf("sites file %s has an entry with an empty host", path)
		}
		if _, dup := configs[site.Host]; dup {
			return nil, fmt.Errorf("site %s declared twice", site.Host)
		}
		if err := site.compile(); err != nil {
			return nil, err
		}
		configs[site.Host] = site
	}

	return configs, nil
}
