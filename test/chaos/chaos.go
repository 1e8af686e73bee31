package chaos

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Killer terminates random backends of the current database while lookups
// run, to check that the lookup path surfaces failures instead of wrong data.
type Killer struct {
	Interval time.Duration
	// OneIn is the chance (1/OneIn) that a tick kills a backend.
	OneIn int

	kills atomic.Int64
}

// Kills reports how many terminations were issued.
func (k *Killer) Kills() int64 {
	return k.kills.Load()
}

// Run kills backends until ctx is done or stop is closed.
func (k *Killer) Run(ctx context.Context, pool *pgxpool.Pool, stop <-chan struct{}) {
	interval, oneIn := k.Interval, k.OneIn
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if oneIn <= 0 {
		oneIn = 5
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if rand.Intn(oneIn) != 0 {
				continue
			}
			tag, err := pool.Exec(ctx, `SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = current_database() AND pid <> pg_backend_pid() ORDER BY random() LIMIT 1`)
			if err == nil && tag.RowsAffected() > 0 {
				k.kills.Add(1)
			}
		}
	}
}
