package providers

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Rand is a goroutine-safe random source shared by the simulated providers
type Rand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand seeds a source. A zero seed uses the current time.
func NewRand(seed int64) *Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Rand{r: rand.New(rand.NewPCG(uint64(seed), uint64(seed)))}
}

// Float64 returns a number in [0,1)
func (r *Rand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.Float64()
}

// Intn returns a number in [0,n)
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.IntN(n)
}

// Pick returns a random element of choices
func (r *Rand) Pick(choices ...string) string {
	return choices[r.Intn(len(choices))]
}

// Options configures the simulated providers
type Options struct {
	Rand *Rand
	// DelayScale multiplies every simulated latency; 0 disables waiting
	DelayScale float64
	Now        func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Rand == nil {
		o.Rand = NewRand(0)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type generateFunc func(in Input, rng *Rand, now time.Time) Result

// simulated waits for a fixed latency and then produces a randomized result
type simulated struct {
	taskType TaskType
	delay    time.Duration
	opts     Options
	generate generateFunc
}

func newSimulated(taskType TaskType, delay time.Duration, opts Options, gen generateFunc) *simulated {
	return &simulated{taskType: taskType, delay: delay, opts: opts.withDefaults(), generate: gen}
}

func (s *simulated) Type() TaskType { return s.taskType }

func (s *simulated) Run(ctx context.Context, in Input) (Result, error) {
	if err := wait(ctx, scaleDelay(s.delay, s.opts.DelayScale)); err != nil {
		return nil, err
	}
	return s.generate(in, s.opts.Rand, s.opts.Now().UTC()), nil
}

func scaleDelay(d time.Duration, scale float64) time.Duration {
	if scale <= 0 {
		return 0
	}
	return time.Duration(float64(d) * scale)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func daysAgo(now time.Time, days int) string {
	return now.Add(-time.Duration(days) * 24 * time.Hour).Format(time.RFC3339)
}

// NewSimulatedRegistry registers all nine simulated checks
func NewSimulatedRegistry(opts Options) *Registry {
	opts = opts.withDefaults()
	return NewRegistry(
		NewWhois(opts),
		NewSSL(opts),
		NewOSINT(opts),
		NewMalware(opts),
		NewTruecaller(opts),
		NewBreachCheck(opts),
		NewProfileAnalysis(opts),
		NewReverseSearch(opts),
		NewContentAnalysis(opts),
	)
}
