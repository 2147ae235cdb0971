package attendance

import (
	"context"

	"campusd/internal/query"
)

// Cache key roots. Invalidating a root refreshes every read below it.
var (
	KeyClasses    = query.Key{"classes"}
	KeyStudents   = query.Key{"students"}
	KeyAttendance = query.Key{"attendance"}
)

// Queries exposes the attendance reads as cached queries.
// Returned slices are shared with the cache and must not be modified.
type Queries struct {
	cache *query.Client
	repo  Repository
}

// NewQueries binds the reads to a cache and a repository.
func NewQueries(cache *query.Client, repo Repository) *Queries {
	return &Queries{cache: cache, repo: repo}
}

// Classes reads every class section.
func (q *Queries) Classes() query.Query[[]Class] {
	return query.Query[[]Class]{
		Client:  q.cache,
		Key:     KeyClasses,
		Enabled: true,
		Fetch:   q.repo.ListClasses,
	}
}

// Students reads the roster of one class. Disabled without a class.
func (q *Queries) Students(classID string) query.Query[[]Student] {
	return query.Query[[]Student]{
		Client:  q.cache,
		Key:     KeyStudents.With(classID),
		Enabled: classID != "",
		Fetch: func(ctx context.Context) ([]Student, error) {
			students, err := q.repo.ListStudents(ctx, classID)
			if err != nil {
				return nil, err
			}
			for i := range students {
				students[i].Present = true
			}
			return students, nil
		},
	}
}

// Records reads the attendance history of one class, one record per date.
// Disabled without a class.
func (q *Queries) Records(classID string) query.Query[[]Record] {
	return query.Query[[]Record]{
		Client:  q.cache,
		Key:     KeyAttendance.With(classID),
		Enabled: classID != "",
		Fetch: func(ctx context.Context) ([]Record, error) {
			classes, err := q.Classes().Data(ctx)
			if err != nil {
				return nil, err
			}
			name := classID
			for _, c := range classes {
				if c.ID == classID {
					name = c.Name
					break
				}
			}
			entries, err := q.repo.ListEntries(ctx, classID)
			if err != nil {
				return nil, err
			}
			return GroupByDate(name, entries), nil
		},
	}
}

// Fetching reports whether any attendance read is in flight.
func (q *Queries) Fetching() bool {
	return q.cache.Fetching(KeyClasses) || q.cache.Fetching(KeyStudents) || q.cache.Fetching(KeyAttendance)
}
