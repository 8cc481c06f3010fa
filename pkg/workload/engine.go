package workload

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/cuemby/dbarena/pkg/dberrors"
	"github.com/cuemby/dbarena/pkg/dbkind"
	"github.com/cuemby/dbarena/pkg/log"
)

// burst is the small integer token-bucket burst allowance, per §4.4
// Scheduling model.
const burst = 5

// Summary is the final outcome of one Run, per §4.4.
type Summary struct {
	Snapshot  Snapshot
	TargetMet bool
	// Saturated is the (ADD) saturation signal: TPS fell short and
	// worker time was dominated by SQL execution rather than limiter
	// waiting, meaning the database — not dbarena — was the bottleneck.
	Saturated bool
}

// Engine drives the configured workload against a catalog of tables.
type Engine struct {
	db      *sql.DB
	dial    dbkind.Dialect
	cfg     Config
	catalog map[string]*TableMeta
	limiter *rate.Limiter
	stats   *Stats
	logger  zerolog.Logger
}

// New builds an Engine: resolves dialect, sizes the connection pool to
// Workers, builds the table-metadata cache, and validates the weight
// mix.
func New(ctx context.Context, db *sql.DB, kind dbkind.Kind, cfg Config) (*Engine, error) {
	caps, err := dbkind.For(kind)
	if err != nil {
		return nil, dberrors.New(dberrors.KindConfig, "workload", "new", err)
	}

	if cfg.Workers <= 0 {
		return nil, dberrors.New(dberrors.KindConfig, "workload", "new", fmt.Errorf("workers must be > 0"))
	}
	db.SetMaxOpenConns(cfg.Workers)

	catalog, err := BuildCatalog(ctx, db, caps.Dial, cfg.Tables)
	if err != nil {
		return nil, dberrors.New(dberrors.KindWorkloadOp, "workload", "build_catalog", err)
	}

	if _, err := WeightsFor(cfg.Pattern, cfg.CustomWeights); err != nil {
		return nil, dberrors.New(dberrors.KindConfig, "workload", "new", err)
	}

	return &Engine{
		db:      db,
		dial:    caps.Dial,
		cfg:     cfg,
		catalog: catalog,
		limiter: rate.NewLimiter(rate.Limit(cfg.TargetTPS), burst),
		stats:   NewStats(),
		logger:  log.WithComponent("workload"),
	}, nil
}

// Run launches cfg.Workers goroutines and blocks until the termination
// bound is reached or ctx is cancelled (the caller wires ctx to SIGINT
// so cancellation converges to the same graceful path, per §4.4
// Termination).
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	weights, err := WeightsFor(e.cfg.Pattern, e.cfg.CustomWeights)
	if err != nil {
		return Summary{}, dberrors.New(dberrors.KindConfig, "workload", "run", err)
	}

	tables := make([]*TableMeta, 0, len(e.catalog))
	for _, t := range e.catalog {
		tables = append(tables, t)
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if e.cfg.Duration > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.cfg.Duration)
		defer cancel()
	}

	var txCount int64
	var wg sync.WaitGroup
	for i := 0; i < e.cfg.Workers; i++ {
		wg.Add(1)
		gen := newGenerator(e.dial, tables, weights, e.cfg.CustomQueries, e.cfg.AllowDestructiveDeletes)
		go e.worker(runCtx, gen, &txCount, &wg)
	}
	wg.Wait()

	snapshot := e.stats.Snapshot()
	return e.summarize(snapshot), nil
}

func (e *Engine) worker(ctx context.Context, gen *generator, txCount *int64, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		if e.cfg.MaxTransactions > 0 && atomic.LoadInt64(txCount) >= e.cfg.MaxTransactions {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		waitStart := time.Now()
		if err := e.limiter.Wait(ctx); err != nil {
			return // context cancelled while waiting
		}
		limiterWait := time.Since(waitStart)

		op, err := gen.next()
		if err != nil {
			e.stats.Record(OpSelect, 0, limiterWait, 0, err)
			continue
		}

		execStart := time.Now()
		execErr := e.execute(ctx, op)
		execTime := time.Since(execStart)

		e.stats.Record(op.Kind, limiterWait+execTime, limiterWait, execTime, execErr)
		atomic.AddInt64(txCount, 1)
	}
}

func (e *Engine) execute(ctx context.Context, op Operation) error {
	switch op.Kind {
	case OpSelect:
		rows, err := e.db.QueryContext(ctx, op.SQL, op.Args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
		}
		return rows.Err()
	default:
		_, err := e.db.ExecContext(ctx, op.SQL, op.Args...)
		return err
	}
}

func (e *Engine) summarize(snapshot Snapshot) Summary {
	elapsed := snapshot.Elapsed.Seconds()
	measuredTPS := 0.0
	if elapsed > 0 {
		measuredTPS = float64(snapshot.Total) / elapsed
	}

	targetMet := e.cfg.TargetTPS <= 0 || measuredTPS >= 0.9*e.cfg.TargetTPS
	saturated := !targetMet && snapshot.ExecNanos > snapshot.LimiterWaitNanos

	if !targetMet {
		e.logger.Warn().Float64("measured_tps", measuredTPS).Float64("target_tps", e.cfg.TargetTPS).Bool("saturated", saturated).Msg("target TPS not met")
	}

	return Summary{Snapshot: snapshot, TargetMet: targetMet, Saturated: saturated}
}
