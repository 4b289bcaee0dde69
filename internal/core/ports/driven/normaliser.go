package driven

import "github.com/custodia-labs/knowsync/internal/core/domain"

// Normaliser renders a task snapshot into its canonical content item.
//
// Implementations must be pure: byte-identical input produces
// byte-identical content, since the content is the hashing input for
// change detection.
type Normaliser interface {
	// Normalise converts a task to a content item. It never fails:
	// malformed fields (for example unparseable dates) pass through raw.
	Normalise(task *domain.Task) *domain.ContentItem
}
