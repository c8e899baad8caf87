package core

import "errors"

// ErrNotFound marks detail lookups for ids that do not exist. Adapters match
// it with errors.Is to render a not-found state instead of a generic
// failure. It is never returned for empty list or aggregate results.
var ErrNotFound = errors.New("not found")
