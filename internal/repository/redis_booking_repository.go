package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-seat-booking/internal/model"
)

// bookSeatScript claims a seat and records its booking in one step.  It
// returns 1 when booked and 0 when the seat was taken.  If recording
// fails the claim and the counter are rolled back before the error is
// returned, so a seat is never held without a history entry.
var bookSeatScript = redis.NewScript(`
local seats, history, sold = KEYS[1], KEYS[2], KEYS[3]
local seat, payload = ARGV[1], ARGV[2]

if redis.call('SADD', seats, seat) == 0 then
  return 0
end
local n = redis.pcall('INCR', sold)
if type(n) == 'table' and n.err then
  redis.call('SREM', seats, seat)
  return n
end
local pushed = redis.pcall('RPUSH', history, payload)
if type(pushed) == 'table' and pushed.err then
  redis.call('DECR', sold)
  redis.call('SREM', seats, seat)
  return pushed
end
return 1
`)

// cancelSeatScript removes one booking written by bookSeatScript.
var cancelSeatScript = redis.NewScript(`
local seats, history, sold = KEYS[1], KEYS[2], KEYS[3]
local seat, payload = ARGV[1], ARGV[2]

if redis.call('LREM', history, 1, payload) == 0 then
  return 0
end
redis.call('SREM', seats, seat)
redis.call('DECR', sold)
return 1
`)

// RedisBookingRepo keeps booked seats in one Redis set per movie, a sold
// counter per movie and the booking history in a Redis list of JSON
// documents.  Each seat is claimed and recorded by one Lua script, which
// makes the claim atomic across sandbox instances.
type RedisBookingRepo struct {
	catalogue
	rdb    *redis.Client
	prefix string
}

// NewRedisBookingRepo returns a store that namespaces its keys with prefix.
func NewRedisBookingRepo(rdb *redis.Client, prefix string, movies []model.Movie) *RedisBookingRepo {
	if prefix == "" {
		prefix = "booking"
	}
	return &RedisBookingRepo{catalogue: newCatalogue(movies), rdb: rdb, prefix: prefix}
}

func (r *RedisBookingRepo) seatsKey(movieID uint64) string {
	return r.prefix + ":movie:" + strconv.FormatUint(movieID, 10) + ":seats"
}

func (r *RedisBookingRepo) soldKey(movieID uint64) string {
	return r.prefix + ":movie:" + strconv.FormatUint(movieID, 10) + ":sold"
}

func (r *RedisBookingRepo) historyKey() string { return r.prefix + ":history" }

func (r *RedisBookingRepo) BookedSeats(ctx context.Context, movieID uint64) ([]string, error) {
	seats, err := r.rdb.SMembers(ctx, r.seatsKey(movieID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	sort.Strings(seats)
	return seats, nil
}

func (r *RedisBookingRepo) Book(ctx context.Context, movieID uint64, seats []string) ([]model.Booking, []string, error) {
	if _, ok := r.byID[movieID]; !ok {
		return nil, nil, ErrMovieNotFound
	}
	var booked []model.Booking
	var skipped []string
	now := time.Now()
	keys := []string{r.seatsKey(movieID), r.historyKey(), r.soldKey(movieID)}
	for _, s := range seats {
		b := newBooking(movieID, s, now)
		payload, err := json.Marshal(b)
		if err != nil {
			return booked, skipped, fmt.Errorf("encode booking: %w", err)
		}
		added, err := bookSeatScript.Run(ctx, r.rdb, keys, s, payload).Int()
		if err != nil {
			return booked, skipped, fmt.Errorf("redis book seat %s: %w", s, err)
		}
		if added == 0 {
			skipped = append(skipped, s)
			continue
		}
		booked = append(booked, b)
	}
	return booked, skipped, nil
}

// Cancel relies on the bookings being the values Book returned: their
// encoding is what identifies the history entries.
func (r *RedisBookingRepo) Cancel(ctx context.Context, movieID uint64, bookings []model.Booking) error {
	if _, ok := r.byID[movieID]; !ok {
		return ErrMovieNotFound
	}
	keys := []string{r.seatsKey(movieID), r.historyKey(), r.soldKey(movieID)}
	for _, b := range bookings {
		payload, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("encode booking: %w", err)
		}
		if err := cancelSeatScript.Run(ctx, r.rdb, keys, b.Seat, payload).Err(); err != nil {
			return fmt.Errorf("redis cancel seat %s: %w", b.Seat, err)
		}
	}
	return nil
}

func (r *RedisBookingRepo) History(ctx context.Context) ([]model.Booking, error) {
	raw, err := r.rdb.LRange(ctx, r.historyKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}
	out := make([]model.Booking, 0, len(raw))
	for _, item := range raw {
		var b model.Booking
		if err := json.Unmarshal([]byte(item), &b); err != nil {
			return nil, fmt.Errorf("decode booking: %w", err)
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *RedisBookingRepo) CountByMovie(ctx context.Context, movieID uint64) (int, error) {
	n, err := r.rdb.Get(ctx, r.soldKey(movieID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get: %w", err)
	}
	return n, nil
}

// Reset drops the movie's seat set and rewrites the history list with the
// released statuses.  It is meant for the sandbox admin endpoint and is
// not safe against concurrent bookings of the same movie.
func (r *RedisBookingRepo) Reset(ctx context.Context, movieID uint64) (int, error) {
	if _, ok := r.byID[movieID]; !ok {
		return 0, ErrMovieNotFound
	}
	history, err := r.History(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	items := make([]interface{}, 0, len(history))
	for _, b := range history {
		if b.MovieID == movieID && b.Status == model.BookingBooked {
			b.Status = model.BookingReleased
			n++
		}
		payload, err := json.Marshal(b)
		if err != nil {
			return 0, fmt.Errorf("encode booking: %w", err)
		}
		items = append(items, payload)
	}
	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, r.seatsKey(movieID), r.historyKey())
	if len(items) > 0 {
		pipe.RPush(ctx, r.historyKey(), items...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis reset: %w", err)
	}
	return n, nil
}
