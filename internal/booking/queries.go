package booking

import "campusd/internal/query"

// Cache key roots.
var (
	KeyRooms    = query.Key{"rooms"}
	KeyBookings = query.Key{"room_bookings"}
)

// Queries exposes the room and booking reads as cached queries.
type Queries struct {
	cache *query.Client
	repo  Repository
}

func NewQueries(cache *query.Client, repo Repository) *Queries {
	return &Queries{cache: cache, repo: repo}
}

func (q *Queries) Rooms() query.Query[[]Room] {
	return query.Query[[]Room]{Client: q.cache, Key: KeyRooms, Enabled: true, Fetch: q.repo.ListRooms}
}

func (q *Queries) Bookings() query.Query[[]Booking] {
	return query.Query[[]Booking]{Client: q.cache, Key: KeyBookings, Enabled: true, Fetch: q.repo.ListBookings}
}

// Fetching reports whether a room or booking read is in flight.
func (q *Queries) Fetching() bool {
	return q.cache.Fetching(KeyRooms) || q.cache.Fetching(KeyBookings)
}
