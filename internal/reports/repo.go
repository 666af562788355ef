package reports

import "context"

// Repo persists published reports.
type Repo interface {
	Insert(ctx context.Context, report Report) error
	Latest(ctx context.Context) (Report, error)
	Get(ctx context.Context, id string) (Report, error)
}
