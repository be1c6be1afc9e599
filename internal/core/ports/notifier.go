package ports

import "context"

// Notifier delivers best-effort messages to the external Notification
// Service. Implementations log failures and never report them.
type Notifier interface {
	Notify(ctx context.Context, userID int64, message string)
}
