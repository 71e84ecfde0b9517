package shellz

import "github.com/google/uuid"

// Identity is a stable per-node tag for shared-mutable values (scopes,
// lists, dicts, structs, streams). Go pointer identity does not survive
// serialization, so the core mints a real identifier instead — grounded on
// termfx-morfx's direct use of github.com/google/uuid for entity identity.
type Identity = uuid.UUID

// NewIdentity mints a fresh Identity.
func NewIdentity() Identity { return uuid.New() }
