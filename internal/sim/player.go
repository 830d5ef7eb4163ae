// Package sim drives a layer frame by frame: it advances the query time at
// the configured speed, brings the attribute columns up to date and hands
// each frame to the publisher.
package sim

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"migration-renderer/internal/publisher"
	"migration-renderer/internal/render"
)

type FramePublisher interface {
	PublishFrame(msg publisher.FrameMessage) error
}

type PlayerMetrics interface {
	FrameServed(recomputed bool)
	UpdateObserve(d time.Duration)
	QueryTimeSet(t float64)
	DegenerateAdd(n int)
	SeekInc()
}

// degenerateCounter is implemented by layers that track zero-length time
// segments in their current frame.
type degenerateCounter interface {
	Degenerate() int
}

type Player struct {
	layer    render.Layer
	pub      FramePublisher
	interval time.Duration
	speed    float64
	duration float64
	metrics  PlayerMetrics
	session  string
	now      func() time.Time

	mu        sync.Mutex
	queryTime float64
	origin    time.Time
	last      time.Time
	seq       uint64
	declared  bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPlayer(layer render.Layer, pub FramePublisher, frameInterval time.Duration, speedMultiplier, duration float64, metrics PlayerMetrics) *Player {
	return &Player{
		layer:    layer,
		pub:      pub,
		interval: frameInterval,
		speed:    speedMultiplier,
		duration: duration,
		metrics:  metrics,
		session:  uuid.NewString(),
		now:      time.Now,
	}
}

// Session identifies this player's frame stream.
func (p *Player) Session() string { return p.session }

// QueryTime returns the current animation clock.
func (p *Player) QueryTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queryTime
}

// Seek jumps the query time to t, wrapped into [0, duration).
func (p *Player) Seek(t float64) {
	p.mu.Lock()
	p.queryTime = p.wrap(t)
	q := p.queryTime
	p.mu.Unlock()
	if p.metrics != nil {
		p.metrics.SeekInc()
	}
	log.Printf("seek to t=%.3f", q)
}

func (p *Player) wrap(t float64) float64 {
	if t < 0 || math.IsNaN(t) {
		return 0
	}
	if p.duration > 0 {
		t = math.Mod(t, p.duration)
	}
	return t
}

// Step advances the clock to now and publishes one frame. The first call
// only sets the wall-clock origin; the query time advances from the
// second call on.
func (p *Player) Step(now time.Time) (publisher.FrameMessage, error) {
	p.mu.Lock()
	if p.origin.IsZero() {
		p.origin = now
	} else if dt := now.Sub(p.last); dt > 0 {
		p.queryTime = p.wrap(p.queryTime + dt.Seconds()*p.speed)
	}
	p.last = now
	q := p.queryTime
	p.seq++
	seq := p.seq
	first := !p.declared
	p.declared = true
	wall := float64(now.Sub(p.origin)) / float64(time.Millisecond)
	p.mu.Unlock()

	updateStart := time.Now()
	gen, changed := p.layer.Prepare(q)
	if p.metrics != nil {
		if changed {
			p.metrics.UpdateObserve(time.Since(updateStart))
			if dc, ok := p.layer.(degenerateCounter); ok {
				p.metrics.DegenerateAdd(dc.Degenerate())
			}
		}
		p.metrics.FrameServed(changed)
		p.metrics.QueryTimeSet(q)
	}

	msg := publisher.FrameMessage{
		Session:    p.session,
		Seq:        seq,
		Layer:      p.layer.Name(),
		Generation: gen,
		Changed:    changed,
		QueryTime:  q,
		Timestamp:  now,
		Count:      p.layer.Count(),
		Uniforms:   p.layer.BuildUniforms(render.State{QueryTime: q, WallClockTime: wall}),
	}
	if first {
		msg.Attributes = p.layer.DeclareAttributes()
	}
	if first || changed {
		msg.Columns = p.layer.Columns()
	}
	return msg, p.pub.PublishFrame(msg)
}

// Start runs the frame loop until ctx is cancelled or Stop is called.
func (p *Player) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	p.cancel = cancel
	p.wg.Add(1)
	log.Printf("player %s started: layer=%s instances=%d interval=%s speed=%.2f", p.session, p.layer.Name(), p.layer.Count(), p.interval, p.speed)
	go func() {
		defer p.wg.Done()
		if _, err := p.Step(p.now()); err != nil {
			log.Printf("publish frame error: %v", err)
		}
		tick := time.NewTicker(p.interval)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				if _, err := p.Step(p.now()); err != nil {
					log.Printf("publish frame error: %v", err)
				}
			}
		}
	}()
}

func (p *Player) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	log.Printf("player %s stopped at t=%.3f after %d frames", p.session, p.QueryTime(), p.frames())
}

func (p *Player) frames() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq
}
