package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/ssgreg/repeat"

	"github.com/TxnLab/farm/internal/lib/farm"
	"github.com/TxnLab/farm/internal/lib/journal"
	"github.com/TxnLab/farm/internal/lib/misc"
)

var (
	promSnapshots = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "farm_daemon",
		Name:      "snapshots_total",
	})
	promSnapshotFailures = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "farm_daemon",
		Name:      "snapshot_failures_total",
	})
	promClock = promauto.NewGauge(prometheus.GaugeOpts{
		Subsystem: "farm_daemon",
		Name:      "clock",
		Help:      "Last clock committed to the farm state",
	})
	promPending = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Subsystem: "farm_daemon",
		Name:      "pending_rewards",
		Help:      "Rewards owed to stakers as of each pool's last accrual",
	}, []string{"pool"})
)

// Daemon watches the state file written by CLI invocations. It reloads it on a schedule, publishes its
// gauges and journals per-pool snapshots.
type Daemon struct {
	logger      *slog.Logger
	statePath   string
	journal     *journal.Journal
	metricsAddr string
	schedule    string

	// embed mutex for locking state for members below the mutex
	sync.RWMutex
	state *LocalState
}

func newDaemon(logger *slog.Logger, statePath string, j *journal.Journal, metricsAddr, schedule string) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{
		logger:      logger,
		statePath:   statePath,
		journal:     j,
		metricsAddr: metricsAddr,
		schedule:    schedule,
	}
}

func validateSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid snapshot schedule %q: %w", spec, err)
	}
	return nil
}

// start launches the metrics server and the snapshot scheduler. Fatal server errors are sent to errc.
func (d *Daemon) start(ctx context.Context, wg *sync.WaitGroup, errc chan<- error) error {
	d.logger.Info("Starting farm daemon", "metrics", d.metricsAddr, "schedule", d.schedule)

	// take one right away so metrics are populated before the first scrape
	d.snapshotPools(ctx)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(d.schedule, func() { d.snapshotPools(ctx) }); err != nil {
		return fmt.Errorf("register snapshot task: %w", err)
	}
	scheduler.Start()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{Addr: d.metricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer d.logger.Info("exiting daemon start function")
		<-ctx.Done()
		<-scheduler.Stop().Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	return nil
}

// snapshotPools reloads the state, refreshes the gauges and journals one row per pool.
func (d *Daemon) snapshotPools(ctx context.Context) {
	if err := d.refetchState(); err != nil {
		promSnapshotFailures.Inc()
		misc.Errorf(d.logger, "unable to load farm state: %v", err)
		return
	}
	d.RLock()
	state := d.state
	d.RUnlock()

	// restoring validates the invariants and republishes the farm gauges
	f, _, err := state.Open(d.logger)
	if err != nil {
		promSnapshotFailures.Inc()
		misc.Errorf(d.logger, "farm state rejected: %v", err)
		return
	}
	promClock.Set(float64(f.Clock()))
	for _, pool := range f.Pools() {
		pending, err := f.PendingRewards(pool.ID, pool.LastAccrualClock)
		if err != nil {
			misc.Warnf(d.logger, "pending rewards of pool %d: %v", pool.ID, err)
			continue
		}
		var total uint64
		for _, amount := range pending {
			total += amount
		}
		promPending.WithLabelValues(fmt.Sprint(pool.ID)).Set(float64(total))
	}

	id, err := d.journal.RecordPools(ctx, poolSnapshots(state.Farm))
	if err != nil {
		promSnapshotFailures.Inc()
		misc.Errorf(d.logger, "journaling pool snapshot: %v", err)
		return
	}
	promSnapshots.Inc()
	misc.Debugf(d.logger, "pool snapshot %s at clock %d", id, state.Farm.Clock)
}

func poolSnapshots(st farm.State) []journal.PoolSnapshot {
	snaps := make([]journal.PoolSnapshot, 0, len(st.Pools))
	for i, p := range st.Pools {
		snaps = append(snaps, journal.PoolSnapshot{
			Clock:             st.Clock,
			Pool:              uint64(i),
			Asset:             p.Asset,
			AllocWeight:       p.AllocWeight,
			DepositFeeBps:     p.DepositFeeBps,
			LastAccrualClock:  p.LastAccrualClock,
			AccRewardPerShare: p.AccRewardPerShare,
			TotalStaked:       p.TotalStaked,
		})
	}
	return snaps
}

// refetchState reloads the state file, retrying with backoff since a CLI invocation may be replacing it.
func (d *Daemon) refetchState() error {
	return repeat.Repeat(
		repeat.Fn(func() error {
			state, err := LoadState(d.statePath)
			if err != nil {
				return repeat.HintTemporary(err)
			}
			d.Lock()
			d.state = state
			d.Unlock()
			return nil
		}),
		repeat.StopOnSuccess(),
		repeat.LimitMaxTries(10),
		repeat.FnOnError(func(err error) error {
			misc.Warnf(d.logger, "retrying load of farm state, error:%v", err)
			return err
		}),
		repeat.WithDelay(
			repeat.SetContextHintStop(),
			(&repeat.FullJitterBackoffBuilder{
				BaseDelay: 500 * time.Millisecond,
				MaxDelay:  5 * time.Second,
			}).Set(),
		),
	)
}
