package test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"statuslookup/application"
	"statuslookup/session"
	"statuslookup/test/actors"
	"statuslookup/test/chaos"
	"statuslookup/test/infra"
	"statuslookup/test/oracles"
	"statuslookup/web"
)

var (
	flDuration    = flag.Duration("duration", 30*time.Second, "how long to run stress")
	flConcurrency = flag.Int("concurrency", 8, "number of concurrent actors")
	flSeed        = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flDSN         = flag.String("dsn", "", "existing Postgres DSN to reuse (avoids Docker)")
	flChaos       = flag.Bool("chaos", true, "terminate random backends while running")
)

func TestLookupUnderLoad(t *testing.T) {
	if testing.Short() {
		t.Skip("stress test skipped in -short mode")
	}
	flag.Parse()
	seed := *flSeed
	rand.Seed(seed)
	runID := uuid.NewString()
	t.Logf("run %s seed=%d", runID, seed)

	var (
		pgC        *infra.PGContainer
		dsn        string
		err        error
		usedShared bool
	)
	ctx, cancel := context.WithTimeout(context.Background(), *flDuration+60*time.Second)
	defer cancel()

	switch {
	case *flDSN != "":
		dsn = *flDSN
		usedShared = true
		pgC = &infra.PGContainer{}
	case os.Getenv("STRESS_TEST_PG_DSN") != "":
		dsn = os.Getenv("STRESS_TEST_PG_DSN")
		usedShared = true
		pgC = &infra.PGContainer{}
	default:
		if dockerAvailable(ctx) {
			pgC, dsn, err = infra.StartPostgres16(ctx, "")
			if err != nil {
				t.Fatalf("start postgres: %v", err)
			}
		} else {
			dsn, err = infra.InitLocalDatabase(ctx)
			if err != nil {
				t.Skipf("no docker and no local postgres: %v", err)
			}
			pgC = &infra.PGContainer{}
		}
	}
	defer pgC.Terminate(context.Background())

	pool, teardown, err := infra.ApplyMigrations(ctx, dsn, usedShared)
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	defer pool.Close()
	defer func() {
		if err := teardown(context.Background()); err != nil {
			t.Logf("teardown warning: %v", err)
		}
	}()

	repo := application.NewRepository(pool)
	writerIDs := mustSeed(t, ctx, repo)

	codec, err := session.NewCodec(runID, 0)
	if err != nil {
		t.Fatalf("session codec: %v", err)
	}
	srv := web.NewServer(web.Options{
		Finder:  application.NewService(repo).WithDelay(0),
		Codec:   codec,
		Limiter: web.NewRateLimiter(1e6, 1e6, zap.NewNop()),
	})
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()
	client := &http.Client{Timeout: 10 * time.Second}

	g, ctx2 := errgroup.WithContext(ctx)
	stop := make(chan struct{})
	seeds := application.SeedRecords()

	for i := 0; i < *flConcurrency; i++ {
		i := i
		g.Go(func() error { return actors.Looker(ctx2, client, ts.URL, seeds, stop) })
		g.Go(func() error { return actors.Prober(ctx2, client, ts.URL, fmt.Sprintf("%s-%d", runID, i), stop) })
	}
	g.Go(func() error { return actors.Writer(ctx2, repo, writerIDs, stop) })
	g.Go(func() error { return actors.Visitor(ctx2, ts.URL, seeds, stop) })

	killer := &chaos.Killer{Interval: 2 * time.Second, OneIn: 4}
	if *flChaos {
		go killer.Run(ctx2, pool, stop)
	}

	deadline := time.Now().Add(*flDuration)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var failed bool
loop:
	for time.Now().Before(deadline) {
		select {
		case <-ctx2.Done():
			break loop
		case <-ticker.C:
			name, row, err := oracles.Run(ctx2, pool)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					break loop
				}
				// the killer may have hit the oracle's own connection
				t.Logf("oracle %s error: %v", name, err)
				continue
			}
			if name != "" {
				failed = true
				dumpRecent(t, ctx2, pool)
				t.Fatalf("Oracle %s failed. First row: %s (seed=%d)", name, row, seed)
			}
		}
	}

	close(stop)
	if err := g.Wait(); err != nil && !failed {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("actors errored: %v (seed=%d)", err, seed)
		}
	}
	t.Logf("backends killed: %d", killer.Kills())
}

func dockerAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	c := exec.CommandContext(ctx, "docker", "info")
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	return c.Run() == nil
}

// mustSeed creates the ids the Writer owns and returns them.
func mustSeed(t *testing.T, ctx context.Context, repo *application.PGRepository) []string {
	t.Helper()
	ids := make([]string, 0, 16)
	for i := 0; i < 16; i++ {
		id := fmt.Sprintf("RCT-9%02d-%03d-%04d", i, rand.Intn(1000), rand.Intn(10000))
		rec := application.Record{
			SubmissionID: id,
			Status:       actors.Statuses[i%len(actors.Statuses)],
			LastUpdated:  time.Date(2023, time.August, 1, 0, 0, 0, 0, time.UTC),
		}
		if err := repo.Upsert(ctx, rec); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
		ids = append(ids, id)
	}
	return ids
}

func dumpRecent(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	rows, err := pool.Query(ctx, `SELECT submission_id, status, last_updated, created_at FROM application_statuses ORDER BY created_at DESC LIMIT 50`)
	if err != nil {
		t.Logf("dump application_statuses error: %v", err)
		return
	}
	defer rows.Close()

	cols := rows.FieldDescriptions()
	t.Logf("-- application_statuses --")
	for rows.Next() {
		vals, _ := rows.Values()
		buf := make([]any, 0, len(vals))
		for i := range vals {
			buf = append(buf, fmt.Sprintf("%s=%v", string(cols[i].Name), vals[i]))
		}
		t.Logf("%s", buf)
	}
}
