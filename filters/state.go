package filters

import (
	"context"

	"github.com/dmitrymomot/compass"
)

// stash stores v on the dispatch context of fc under key. The value lives
// as long as the dispatch.
func stash(fc *compass.FilterContext, key, v any) {
	fc.SetContext(context.WithValue(fc.Context(), key, v))
}

// lookup returns the value stashed under key for the dispatch of fc.
func lookup[V any](fc *compass.FilterContext, key any) (V, bool) {
	v, ok := fc.Context().Value(key).(V)
	return v, ok
}
