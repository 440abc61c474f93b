package domain

import "context"

// Store gives access to every repository of one document database
type Store interface {
	Users() UserRepository
	Workspaces() WorkspaceRepository
	Boards() BoardRepository
	Lists() ListRepository
	Cards() CardRepository
	Activities() ActivityRepository
	Notifications() NotificationRepository
	Ping(ctx context.Context) error
}
