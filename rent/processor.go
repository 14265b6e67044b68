package rent

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/warp/boothrent/generic"
)

// =============================================================================
// PROCESSOR - Payment gateway boundary
// =============================================================================

// Charge is one request to move WeeklyRent from a stylist.
type Charge struct {
	StylistID      generic.EntityID
	Amount         generic.Money
	Method         generic.PaymentMethod
	IdempotencyKey string
}

// Receipt is the processor's answer. A declined charge is a Receipt with
// Approved false, not an error; errors mean the processor was not reached.
type Receipt struct {
	Reference   string
	Approved    bool
	Message     string
	ProcessedAt time.Time
}

type Processor interface {
	Charge(ctx context.Context, c Charge) (Receipt, error)
}

// DeclineMessages are the simulated processor's failure reasons.
var DeclineMessages = []string{
	"Card declined - insufficient funds",
	"Card declined - invalid card number",
	"Bank account verification failed",
	"Payment processor timeout",
}

// ProcessorConfig tunes the simulation.
type ProcessorConfig struct {
	SuccessRate float64       // 0..1
	MinDelay    time.Duration // simulated gateway latency
	MaxDelay    time.Duration
}

func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{SuccessRate: 0.9, MinDelay: 500 * time.Millisecond, MaxDelay: 1500 * time.Millisecond}
}

// =============================================================================
// SIMULATED PROCESSOR
// =============================================================================

// SimulatedProcessor approves SuccessRate of charges after a random delay.
// No money moves. Safe for concurrent use.
type SimulatedProcessor struct {
	cfg ProcessorConfig
	Now func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSimulatedProcessor seeds the simulation from src; pass a fixed source
// in tests for repeatable outcomes.
func NewSimulatedProcessor(cfg ProcessorConfig, src rand.Source) *SimulatedProcessor {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &SimulatedProcessor{cfg: cfg, Now: time.Now, rnd: rand.New(src)}
}

var _ Processor = (*SimulatedProcessor)(nil)

func (p *SimulatedProcessor) Charge(ctx context.Context, c Charge) (Receipt, error) {
	if !c.Amount.IsPositive() {
		return Receipt{}, fmt.Errorf("%w: charge amount must be positive", generic.ErrInvalidAmount)
	}

	delay, approved, decline, suffix := p.roll()
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		case <-timer.C:
		}
	}

	now := p.Now()
	millis := strconv.FormatInt(now.UnixMilli(), 10)
	if !approved {
		return Receipt{Reference: "TXN_FAILED_" + millis, Message: decline, ProcessedAt: now}, nil
	}
	return Receipt{
		Reference:   "TXN_" + millis + "_" + suffix,
		Approved:    true,
		Message:     "Payment processed successfully",
		ProcessedAt: now,
	}, nil
}

// roll draws every random value for one charge under the lock.
func (p *SimulatedProcessor) roll() (delay time.Duration, approved bool, decline, suffix string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delay = p.cfg.MinDelay
	if spread := p.cfg.MaxDelay - p.cfg.MinDelay; spread > 0 {
		delay += time.Duration(p.rnd.Int63n(int64(spread)))
	}
	approved = p.rnd.Float64() < p.cfg.SuccessRate
	decline = DeclineMessages[p.rnd.Intn(len(DeclineMessages))]

	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, 9)
	for i := range b {
		b[i] = alphabet[p.rnd.Intn(len(alphabet))]
	}
	return delay, approved, decline, string(b)
}
