package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/thanawat-k/leadqual/agent/contract"
	guardrailx "github.com/thanawat-k/leadqual/agent/guardrail"
	leadx "github.com/thanawat-k/leadqual/agent/lead"
	nodex "github.com/thanawat-k/leadqual/agent/nodes"
	statex "github.com/thanawat-k/leadqual/agent/state"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
)

type Orchestrator struct {
	sessions statex.Store
	leads    leadx.Store
	engine   contractx.Engine
	router   contractx.Router
	composer contractx.Composer
	guard    *guardrailx.Guard

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	now func() time.Time
}

// New wires the turn pipeline. Router and composer may be nil: without
// a router no notifications go out, without a composer replies stay
// deterministic.
func New(
	sessions statex.Store,
	leads leadx.Store,
	engine contractx.Engine,
	router contractx.Router,
	composer contractx.Composer,
) (*Orchestrator, error) {
	if sessions == nil {
		return nil, errors.New("session store is required")
	}
	if leads == nil {
		return nil, errors.New("lead store is required")
	}
	if engine == nil {
		return nil, errors.New("turn engine is required")
	}

	o := &Orchestrator{
		sessions: sessions,
		leads:    leads,
		engine:   engine,
		router:   router,
		composer: composer,
		guard:    guardrailx.New(),
		locks:    make(map[string]*sync.Mutex),
		now:      time.Now,
	}

	graphRunner, err := o.compileHandleTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleTurn runs one visitor message through the pipeline and returns
// the reply. Turns for the same session run one at a time.
func (o *Orchestrator) HandleTurn(ctx context.Context, sessionID string, text string) (string, error) {
	unlock := o.lockSession(strings.TrimSpace(sessionID))
	defer unlock()

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Text:      text,
	})
	if err != nil {
		return "", err
	}
	return out.Reply, nil
}

// EndSession drops the conversational state. The lead record and its
// routing history survive; a returning visitor starts over with intake.
func (o *Orchestrator) EndSession(ctx context.Context, sessionID string) error {
	key := strings.TrimSpace(sessionID)
	if key == "" {
		return ErrInvalidSession
	}

	unlock := o.lockSession(key)
	defer unlock()

	return o.sessions.Delete(ctx, key)
}

func (o *Orchestrator) lockSession(key string) func() {
	o.mu.Lock()
	lock, ok := o.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		o.locks[key] = lock
	}
	o.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
