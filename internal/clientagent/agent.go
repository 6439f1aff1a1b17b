// Package clientagent provides autonomous space participants: client
// programs that connect to a tim gateway like any other timite, but react to
// space events instead of a human typing at a terminal.
package clientagent

import (
	"context"
	"time"

	"github.com/sherzodv/tim/clients/api"
	"github.com/sherzodv/tim/internal/storage"
)

// minLiveInterval bounds how often Runner ticks an agent that declares no
// live interval of its own, so a zero-value Agent still gets periodic ticks.
const minLiveInterval = time.Second

// Agent reacts to the events a Runner observes on a single timite's behalf.
type Agent interface {
	// OnStart runs once, before the first event is delivered.
	OnStart(ctx context.Context) error
	// OnSpaceMessage handles a broadcast message from another timite.
	OnSpaceMessage(ctx context.Context, senderID uint64, content string) error
	// OnCallAbility handles an ability call addressed to this timite.
	OnCallAbility(ctx context.Context, call *storage.CallAbility) error
	// OnLive fires every LiveInterval, independent of space activity.
	OnLive(ctx context.Context) error
	// LiveInterval is the OnLive period; zero means "use the runner default".
	LiveInterval() time.Duration
}

// BaseAgent supplies no-op defaults for the optional Agent hooks, so
// implementations only need to override the ones they care about.
type BaseAgent struct{}

func (BaseAgent) OnStart(context.Context) error { return nil }

func (BaseAgent) OnCallAbility(context.Context, *storage.CallAbility) error { return nil }

func (BaseAgent) OnLive(context.Context) error { return nil }

func (BaseAgent) LiveInterval() time.Duration { return 0 }

// Runner drives an Agent off a live subscription to a timite's space.
type Runner struct {
	client *api.Client
	selfID uint64
}

// NewRunner builds a Runner for the already-authenticated client, which must
// be connected as selfID.
func NewRunner(client *api.Client, selfID uint64) *Runner {
	return &Runner{client: client, selfID: selfID}
}

// Start subscribes to the space and blocks, dispatching events and live
// ticks to agent until ctx is cancelled or the stream ends.
func (r *Runner) Start(ctx context.Context, agent Agent) error {
	stream, err := r.client.Subscribe(ctx, false)
	if err != nil {
		return err
	}

	if err := agent.OnStart(ctx); err != nil {
		return err
	}

	period := agent.LiveInterval()
	if period <= 0 {
		period = minLiveInterval
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-stream:
			if !ok {
				return nil
			}
			if err := r.dispatch(ctx, agent, ev); err != nil {
				return err
			}

		case <-ticker.C:
			if err := agent.OnLive(ctx); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) dispatch(ctx context.Context, agent Agent, ev storage.SpaceEvent) error {
	switch ev.Kind {
	case storage.EventNewMessage:
		if ev.NewMessage == nil {
			return nil
		}
		return agent.OnSpaceMessage(ctx, ev.NewMessage.SenderID, ev.NewMessage.Content)

	case storage.EventCallAbility:
		if ev.CallAbility == nil || ev.CallAbility.ParticipantID != r.selfID {
			return nil
		}
		return agent.OnCallAbility(ctx, ev.CallAbility)

	default:
		return nil
	}
}
