package ingest

import "errors"

// ErrBadPayload is returned by the message handler for payloads that do not
// parse as a decimal number.
var ErrBadPayload = errors.New("ingest: bad parameter payload")
