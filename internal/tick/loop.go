package tick

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/openmmo/realmd/internal/ai"
	"github.com/openmmo/realmd/internal/protocol"
	"github.com/openmmo/realmd/internal/session"
	"github.com/openmmo/realmd/internal/telemetry"
	"github.com/openmmo/realmd/internal/world"
)

// Loop is the single process-wide tick driver. One task for the
// entire process, per spec.md §5's scheduling model.
type Loop struct {
	state     *world.State
	registry  *session.Registry
	mutations *Runner
	snapshots *SnapshotBuilder
	period    time.Duration
	log       *zap.Logger
	metrics   *telemetry.Metrics
}

// New builds the tick loop, wiring the mutation-phase systems (run
// under the world's write lock) in the order spec.md §4.7 requires.
func New(state *world.State, registry *session.Registry, engine *ai.Engine, period time.Duration, log *zap.Logger, metrics *telemetry.Metrics) *Loop {
	runner := NewRunner()
	runner.Register(NewSimulateSystem(state, engine))
	runner.Register(NewMovementSystem(state, log))
	runner.Register(NewCombatSystem(state, log))
	runner.Register(NewZoneSystem(state))

	return &Loop{
		state:     state,
		registry:  registry,
		mutations: runner,
		snapshots: NewSnapshotBuilder(),
		period:    period,
		log:       log,
		metrics:   metrics,
	}
}

// Snapshots returns the loop's shared snapshot builder, so the
// connection task can push an unsolicited full snapshot at character
// select using the same delta-suppression baselines as the tick loop.
func (l *Loop) Snapshots() *SnapshotBuilder {
	return l.snapshots
}

// Run blocks until ctx is cancelled, ticking at the configured period.
// A tick that overruns its period is logged at warn; the next tick is
// scheduled immediately with a fresh deadline, never skipped.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	lastStart := time.Now()
	for {
		select {
		case <-ctx.Done():
			l.log.Info("tick: loop exiting on context cancellation")
			return
		case now := <-ticker.C:
			elapsed := now.Sub(lastStart)
			lastStart = now
			l.runOnce(elapsed)
		}
	}
}

func (l *Loop) runOnce(sincePrevious time.Duration) {
	started := time.Now()

	l.state.Lock()
	l.mutations.Tick(l.period)
	l.state.Unlock()

	l.state.RLock()
	snapshots := l.snapshots.Build(l.state, l.registry)
	l.state.RUnlock()

	seq := protocol.TruncateSequence(uint64(started.UnixMilli()))
	for sess, snap := range snapshots {
		env, err := protocol.Encode(protocol.TagWorldSnapshot, seq, started.UnixMilli(), snap)
		if err != nil {
			l.log.Warn("tick: failed to encode world snapshot", zap.Error(err))
			continue
		}
		if !sess.Send(env) {
			l.log.Warn("tick: session outbound channel unreachable, dropping snapshot", zap.String("session_id", sess.ID))
			continue
		}
		if l.metrics != nil {
			l.metrics.ObserveSnapshotSize(len(snap.Entities))
		}
	}

	duration := time.Since(started)
	if l.metrics != nil {
		l.metrics.ObserveTick(duration)
		l.metrics.SetActiveSessions(l.registry.Count())
	}
	if duration > l.period {
		l.log.Warn("tick: overrun", zap.Duration("duration", duration), zap.Duration("period", l.period))
	}
}

// PersistenceTicker runs a separate periodic task at a slower rate for
// the persistence bridge (spec.md §4.8), independent of the
// simulation tick since its period differs.
func PersistenceTicker(ctx context.Context, interval time.Duration, flush func(context.Context), log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			flush(ctx)
		}
	}
}
