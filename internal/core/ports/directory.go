package ports

import "context"

// DirectoryEntry is the identity returned by an external directory after a
// successful bind.
type DirectoryEntry struct {
	Username    string
	Email       string
	DisplayName string
}

// Directory authenticates credentials against an external user directory.
// A rejected bind returns domain.ErrInvalidCredentials.
type Directory interface {
	Authenticate(ctx context.Context, username, password string) (*DirectoryEntry, error)
}
