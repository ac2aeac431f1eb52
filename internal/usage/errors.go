package usage

import "errors"

// ErrLimitReached indicates the workspace exhausted its document quota.
var ErrLimitReached = errors.New("document quota reached")
