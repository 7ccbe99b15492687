// Package audit records cart and order events off the request path. Entries are
// delivered in order by a single actor to every configured sink.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

type Entry struct {
	Action string         `json:"action"`
	UserID string         `json:"userId"`
	Data   map[string]any `json:"data,omitempty"`
	At     time.Time      `json:"at"`
}

// Sink persists or publishes entries.
type Sink interface {
	Name() string
	Write(ctx context.Context, e Entry) error
}

// Messages
type record struct{ entry Entry }

type flush struct{}

type flushed struct{ failures int }

type auditActor struct {
	sinks    []Sink
	timeout  time.Duration
	logger   *zap.Logger
	failures int
}

func (a *auditActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *record:
		for _, s := range a.sinks {
			wctx, cancel := context.WithTimeout(context.Background(), a.timeout)
			err := s.Write(wctx, msg.entry)
			cancel()
			if err != nil {
				a.failures++
				a.logger.Warn("Audit write failed",
					zap.String("sink", s.Name()),
					zap.String("action", msg.entry.Action),
					zap.String("user_id", msg.entry.UserID),
					zap.Error(err))
			}
		}

	case *flush:
		ctx.Respond(&flushed{failures: a.failures})

	case *actor.Started:
		a.logger.Info("Audit actor started", zap.Int("sinks", len(a.sinks)))

	case *actor.Stopped:
		a.logger.Info("Audit actor stopped")
	}
}

// Recorder is safe for concurrent use. Record never blocks on a sink.
type Recorder struct {
	system *actor.ActorSystem
	pid    *actor.PID
	now    func() time.Time
}

func NewRecorder(logger *zap.Logger, sinks ...Sink) (*Recorder, error) {
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return &auditActor{sinks: sinks, timeout: 5 * time.Second, logger: logger.Named("audit")}
	})
	pid, err := system.Root.SpawnNamed(props, "audit")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn audit actor: %w", err)
	}
	return &Recorder{system: system, pid: pid, now: time.Now}, nil
}

func (r *Recorder) Record(action, userID string, data map[string]any) {
	r.system.Root.Send(r.pid, &record{entry: Entry{
		Action: action,
		UserID: userID,
		Data:   data,
		At:     r.now(),
	}})
}

// Flush waits until every entry recorded so far has been handed to the sinks,
// and returns how many sink writes have failed since start.
func (r *Recorder) Flush(timeout time.Duration) (int, error) {
	res, err := r.system.Root.RequestFuture(r.pid, &flush{}, timeout).Result()
	if err != nil {
		return 0, err
	}
	return res.(*flushed).failures, nil
}

// Stop drains the mailbox and stops the actor.
func (r *Recorder) Stop() error {
	return r.system.Root.PoisonFuture(r.pid).Wait()
}
