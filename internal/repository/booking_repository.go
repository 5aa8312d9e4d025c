package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-seat-booking/internal/model"
)

// BookingRepo is the storage contract of the sandbox backend.
type BookingRepo interface {
	// Movies returns the catalogue ordered by id.
	Movies(ctx context.Context) ([]model.Movie, error)
	// Movie returns one title or ErrMovieNotFound.
	Movie(ctx context.Context, id uint64) (model.Movie, error)
	// BookedSeats returns the labels already booked for a movie, sorted.
	BookedSeats(ctx context.Context, movieID uint64) ([]string, error)
	// Book records every seat that is still free and reports the seats
	// that were already taken.  Each seat is claimed atomically, so two
	// concurrent requests never book the same seat twice.
	Book(ctx context.Context, movieID uint64, seats []string) (booked []model.Booking, taken []string, err error)
	// Cancel undoes Book for bookings it returned: the seats are free
	// again and the bookings leave the history and the sold count.
	Cancel(ctx context.Context, movieID uint64, bookings []model.Booking) error
	// History returns every booking, oldest first.
	History(ctx context.Context) ([]model.Booking, error)
	// CountByMovie returns how many tickets were ever sold for a movie,
	// including seats released by Reset.
	CountByMovie(ctx context.Context, movieID uint64) (int, error)
	// Reset releases every booked seat of a movie.  Released bookings stay
	// in the history with status BookingReleased.  It returns how many
	// seats were released.
	Reset(ctx context.Context, movieID uint64) (int, error)
}

// SeedMovies is the catalogue the sandbox starts with.
func SeedMovies() []model.Movie {
	return []model.Movie{
		{ID: 1, Title: "Avengers: Secret Wars", Price: 50000, Showtime: "12:00", Status: model.MovieNowShowing},
		{ID: 2, Title: "Moana 2", Price: 45000, Showtime: "Coming Soon", Status: model.MovieComingSoon},
	}
}

// catalogue is the read-only movie list shared by both repositories.
type catalogue struct {
	movies []model.Movie
	byID   map[uint64]model.Movie
}

func newCatalogue(movies []model.Movie) catalogue {
	c := catalogue{movies: append([]model.Movie(nil), movies...), byID: make(map[uint64]model.Movie, len(movies))}
	sort.Slice(c.movies, func(i, j int) bool { return c.movies[i].ID < c.movies[j].ID })
	for _, m := range c.movies {
		c.byID[m.ID] = m
	}
	return c
}

func (c catalogue) Movies(context.Context) ([]model.Movie, error) {
	return append([]model.Movie(nil), c.movies...), nil
}

func (c catalogue) Movie(_ context.Context, id uint64) (model.Movie, error) {
	m, ok := c.byID[id]
	if !ok {
		return model.Movie{}, ErrMovieNotFound
	}
	return m, nil
}

func newBooking(movieID uint64, seat string, now time.Time) model.Booking {
	return model.Booking{
		ID:       uuid.NewString(),
		MovieID:  movieID,
		Seat:     seat,
		Status:   model.BookingBooked,
		BookedAt: now.UTC(),
	}
}

// MemoryBookingRepo keeps everything in process memory.
type MemoryBookingRepo struct {
	catalogue
	mu      sync.Mutex
	seats   map[uint64]map[string]bool
	history []model.Booking
	now     func() time.Time
}

// NewMemoryBookingRepo returns an empty store over the given catalogue.
func NewMemoryBookingRepo(movies []model.Movie) *MemoryBookingRepo {
	return &MemoryBookingRepo{
		catalogue: newCatalogue(movies),
		seats:     make(map[uint64]map[string]bool),
		now:       time.Now,
	}
}

func (r *MemoryBookingRepo) BookedSeats(_ context.Context, movieID uint64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.seats[movieID]))
	for s := range r.seats[movieID] {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

func (r *MemoryBookingRepo) Book(_ context.Context, movieID uint64, seats []string) ([]model.Booking, []string, error) {
	if _, ok := r.byID[movieID]; !ok {
		return nil, nil, ErrMovieNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	taken := r.seats[movieID]
	if taken == nil {
		taken = make(map[string]bool)
		r.seats[movieID] = taken
	}
	var booked []model.Booking
	var skipped []string
	now := r.now()
	for _, s := range seats {
		if taken[s] {
			skipped = append(skipped, s)
			continue
		}
		taken[s] = true
		b := newBooking(movieID, s, now)
		booked = append(booked, b)
		r.history = append(r.history, b)
	}
	return booked, skipped, nil
}

func (r *MemoryBookingRepo) Cancel(_ context.Context, movieID uint64, bookings []model.Booking) error {
	if _, ok := r.byID[movieID]; !ok {
		return ErrMovieNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	drop := make(map[string]bool, len(bookings))
	for _, b := range bookings {
		drop[b.ID] = true
	}
	kept := r.history[:0]
	for _, b := range r.history {
		if drop[b.ID] && b.MovieID == movieID && b.Status == model.BookingBooked {
			delete(r.seats[movieID], b.Seat)
			continue
		}
		kept = append(kept, b)
	}
	r.history = kept
	return nil
}

func (r *MemoryBookingRepo) History(context.Context) ([]model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Booking(nil), r.history...), nil
}

func (r *MemoryBookingRepo) CountByMovie(_ context.Context, movieID uint64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.history {
		if b.MovieID == movieID {
			n++
		}
	}
	return n, nil
}

func (r *MemoryBookingRepo) Reset(_ context.Context, movieID uint64) (int, error) {
	if _, ok := r.byID[movieID]; !ok {
		return 0, ErrMovieNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for i := range r.history {
		if r.history[i].MovieID == movieID && r.history[i].Status == model.BookingBooked {
			r.history[i].Status = model.BookingReleased
			n++
		}
	}
	delete(r.seats, movieID)
	return n, nil
}
