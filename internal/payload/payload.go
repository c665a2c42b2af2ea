// Package payload resolves a site's field bindings into the record
// sent to the external store.
package payload

import (
	"fmt"

	"github.com/IshaanNene/ScrapeBoard/internal/sites"
	"github.com/IshaanNene/ScrapeBoard/internal/types"
)

// Build maps extracted fields onto external field identifiers.
//
// A copy binding whose source field is missing or null is omitted
// entirely; null is never coerced to "" or 0, so the store keeps the
// distinction between "absent" and "empty". A url binding carries the
// canonical URL. An actor binding carries the resolved actor identity;
// when that identity is empty the whole build fails with
// types.ErrIdentityUnresolved rather than producing a partial record.
func Build(site *sites.SiteConfig, fields types.RawFields, canonicalURL, actorIdentity string) (types.Payload, error) {
	p := make(types.Payload, len(site.Fields))
	for _, name := range site.BindingFields() {
		b := site.Fields[name]
		switch b.Source {
		case sites.SourceCopy:
			if fields.IsNull(name) {
				continue
			}
			v, _ := fields.Get(name)
			p[b.Field] = v
		case sites.SourceURL:
			p[b.Field] = canonicalURL
		case sites.SourceActor:
			if actorIdentity == "" {
				return nil, fmt.Errorf("%w: binding %s", types.ErrIdentityUnresolved, name)
			}
			p[b.Field] = actorIdentity
		default:
			return nil, fmt.Errorf("unknown binding source %q for field %s", b.Source, name)
		}
	}
	return p, nil
}
