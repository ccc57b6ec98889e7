package export

import "errors"

// ErrExport is returned when copying artifacts to the staging
// directory fails. Use errors.Is() to check for it.
var ErrExport = errors.New("export: failed")
