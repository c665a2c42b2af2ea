package sites

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/IshaanNene/ScrapeBoard/internal/types"
)

// Registry resolves page URLs to site configurations. Lookups are by
// exact host match: www.example.com and example.com are distinct hosts
// and need their own entries. The snapshot swaps atomically on reload,
// so readers never observe a partial config set.
type Registry struct {
	mu    sync.RWMutex
	sites map[string]*SiteConfig
}

// NewRegistry creates a registry over the given host map.
func NewRegistry(configs map[string]*SiteConfig) *Registry {
	if configs == nil {
		configs = make(map[string]*SiteConfig)
	}
	return &Registry{sites: configs}
}

// NewRegistryFromFile loads a sites file and wraps it in a registry.
func NewRegistryFromFile(path string) (*Registry, error) {
	configs, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewRegistry(configs), nil
}

// Resolve returns the configuration for the URL's host. The port does
// not participate in matching. Unparseable URLs yield ErrInvalidURL;
// unknown hosts yield ErrSiteNotSupported.
func (r *Registry) Resolve(rawURL string) (*SiteConfig, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidURL, err)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, fmt.Errorf("%w: no host in %q", types.ErrInvalidURL, rawURL)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	site, ok := r.sites[host]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrSiteNotSupported, host)
	}
	return site, nil
}

// Lookup returns the configuration for an exact host.
func (r *Registry) Lookup(host string) (*SiteConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	site, ok := r.sites[strings.ToLower(host)]
	return site, ok
}

// Hosts returns all configured hosts, sorted.
func (r *Registry) Hosts() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hosts := make([]string, 0, len(r.sites))
	for host := range r.sites {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}

// Len returns the number of configured sites.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sites)
}

// Replace swaps in a new config snapshot.
func (r *Registry) Replace(configs map[string]*SiteConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sites = configs
}

// Reload re-reads the sites file and swaps the snapshot. On error the
// current snapshot stays in place.
func (r *Registry) Reload(path string) error {
	configs, err := Load(path)
	if err != nil {
		return err
	}
	r.Replace(configs)
	return nil
}
