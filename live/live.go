// Package live schedules a clip against the wall clock and dispatches
// its events to a barline.Sink. Playback is a single cooperative loop:
// it holds the sink for the whole play-through, sleeps until each
// event's time and checks the context only between dispatches.
package live

import (
	"container/heap"
	"context"
	"math"
	"sort"
	"time"

	"github.com/barline/barline"
)

// DefaultCurveSamples is how many events a continuous curve (pitch bend,
// aftertouch) expands to per note. The curves are sampled, not followed
// continuously, so the schedule stays finite.
const DefaultCurveSamples = 10

// EventKind discriminates the dispatchable event types.
type EventKind int

const (
	NoteOn EventKind = iota
	NoteOff
	ControlChange
	PitchBend
	Aftertouch
)

// Event is one scheduled sink dispatch. Time is seconds from the start
// of the schedule.
type Event struct {
	Time       time.Duration
	Kind       EventKind
	Note       uint8
	Velocity   uint8
	Controller uint8
	Value      uint8
	Bend       int16
}

// Clock abstracts wall time so schedules can be driven in tests without
// real sleeping.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type wallClock struct{}

func (wallClock) Now() time.Time        { return time.Now() }
func (wallClock) Sleep(d time.Duration) { time.Sleep(d) }

// Player plays clips on a sink. The zero value is not usable; use
// NewPlayer. A player is not safe for concurrent use: it assumes it is
// the only writer to its sink while playing.
type Player struct {
	sink         barline.Sink
	bpm          float64
	beatsPerBar  float64
	loop         bool
	clock        Clock
	curveSamples int
}

// Option configures a Player.
type Option func(*Player)

// WithBPM sets the tempo. The default is 120.
func WithBPM(bpm float64) Option {
	return func(p *Player) {
		if bpm > 0 {
			p.bpm = bpm
		}
	}
}

// WithBeatsPerBar sets the meter. The default is 4.
func WithBeatsPerBar(beats float64) Option {
	return func(p *Player) {
		if beats > 0 {
			p.beatsPerBar = beats
		}
	}
}

// WithLoop makes PlayClip re-walk the schedule until the context is
// cancelled.
func WithLoop(loop bool) Option {
	return func(p *Player) { p.loop = loop }
}

// WithClock replaces the wall clock, for tests.
func WithClock(clock Clock) Option {
	return func(p *Player) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithCurveSamples sets how many events per note the continuous curves
// expand to.
func WithCurveSamples(n int) Option {
	return func(p *Player) {
		if n > 0 {
			p.curveSamples = n
		}
	}
}

// NewPlayer returns a player dispatching to sink.
func NewPlayer(sink barline.Sink, opts ...Option) *Player {
	p := &Player{
		sink:         sink,
		bpm:          120,
		beatsPerBar:  4,
		clock:        wallClock{},
		curveSamples: DefaultCurveSamples,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Schedule builds the clip's full event schedule in time order without
// playing it. Bar k of the clip starts k*beatsPerBar beats in.
func (p *Player) Schedule(clip *barline.Clip) []Event {
	beatSeconds := 60 / p.bpm
	queue := &eventQueue{}
	heap.Init(queue)
	push := func(beat float64, ev Event) {
		ev.Time = time.Duration(beat * beatSeconds * float64(time.Second))
		heap.Push(queue, queuedEvent{Event: ev, seq: queue.pushed})
	}
	for barIndex := range clip.Bars {
		bar := &clip.Bars[barIndex]
		barStart := float64(barIndex) * p.beatsPerBar
		for _, note := range bar.Notes(p.beatsPerBar) {
			if note.IsRest {
				continue
			}
			key := clamp7(float64(note.Pitch))
			push(barStart+note.Start, Event{Kind: NoteOn, Note: key, Velocity: p.noteVelocity(note, bar.Expression)})
			push(barStart+note.End(), Event{Kind: NoteOff, Note: key})
			if expr := bar.Expression; expr != nil {
				p.sampleCurve(expr.PitchBend, note, func(t, v float64) {
					push(barStart+t, Event{Kind: PitchBend, Bend: clampBend(v)})
				})
				p.sampleCurve(expr.Aftertouch, note, func(t, v float64) {
					push(barStart+t, Event{Kind: Aftertouch, Value: clamp7(v)})
				})
			}
		}
		if expr := bar.Expression; expr != nil {
			nums := make([]int, 0, len(expr.Controllers))
			for num := range expr.Controllers {
				nums = append(nums, num)
			}
			sort.Ints(nums)
			for _, num := range nums {
				for _, point := range expr.Controllers[num] {
					push(barStart+point.Time, Event{Kind: ControlChange, Controller: clamp7(float64(num)), Value: clamp7(point.Value)})
				}
			}
			for _, point := range expr.Pedal {
				push(barStart+point.Time, Event{Kind: ControlChange, Controller: sustainPedal, Value: clamp7(point.Value)})
			}
		}
	}
	events := make([]Event, 0, queue.Len())
	for queue.Len() > 0 {
		events = append(events, heap.Pop(queue).(queuedEvent).Event)
	}
	return events
}

// PlayClip plays the clip from start to end, or until ctx is cancelled.
// With looping enabled, each pass re-anchors at the previous pass's end
// so timing never drifts. Cancellation is cooperative: it takes effect
// between dispatches.
func (p *Player) PlayClip(ctx context.Context, clip *barline.Clip) error {
	events := p.Schedule(clip)
	if len(events) == 0 {
		return nil
	}
	total := events[len(events)-1].Time
	anchor := p.clock.Now()
	for {
		for _, ev := range events {
			if err := ctx.Err(); err != nil {
				return err
			}
			if delay := anchor.Add(ev.Time).Sub(p.clock.Now()); delay > 0 {
				p.clock.Sleep(delay)
			}
			if err := p.dispatch(ev); err != nil {
				return err
			}
		}
		if !p.loop {
			return nil
		}
		anchor = anchor.Add(total)
	}
}

func (p *Player) dispatch(ev Event) error {
	switch ev.Kind {
	case NoteOn:
		return p.sink.NoteOn(ev.Note, ev.Velocity)
	case NoteOff:
		return p.sink.NoteOff(ev.Note)
	case ControlChange:
		return p.sink.ControlChange(ev.Controller, ev.Value)
	case PitchBend:
		return p.sink.PitchBend(ev.Bend)
	case Aftertouch:
		return p.sink.ChannelPressure(ev.Value)
	}
	return nil
}

func (p *Player) noteVelocity(note barline.Note, expr *barline.Expression) uint8 {
	if expr != nil && len(expr.Velocity) > 0 {
		return clamp7(expr.Velocity.At(note.Start))
	}
	if note.Velocity > 0 {
		return clamp7(float64(note.Velocity))
	}
	return barline.DefaultVelocity
}

func (p *Player) sampleCurve(curve barline.Curve, note barline.Note, emit func(t, v float64)) {
	if len(curve) == 0 {
		return
	}
	for i := 0; i < p.curveSamples; i++ {
		t := note.Start + note.Duration*float64(i)/float64(p.curveSamples)
		emit(t, curve.At(t))
	}
}

const sustainPedal = 64

func clamp7(v float64) uint8 {
	n := math.Round(v)
	if n < 0 {
		return 0
	}
	if n > 127 {
		return 127
	}
	return uint8(n)
}

func clampBend(v float64) int16 {
	n := math.Round(v)
	if n < -8192 {
		return -8192
	}
	if n > 8191 {
		return 8191
	}
	return int16(n)
}

// queuedEvent orders events by time, breaking ties by push order so
// simultaneous events dispatch in build order.
type queuedEvent struct {
	Event
	seq int
}

type eventQueue struct {
	events []queuedEvent
	pushed int
}

func (q *eventQueue) Len() int { return len(q.events) }
func (q *eventQueue) Less(i, j int) bool {
	if q.events[i].Time != q.events[j].Time {
		return q.events[i].Time < q.events[j].Time
	}
	return q.events[i].seq < q.events[j].seq
}
func (q *eventQueue) Swap(i, j int) { q.events[i], q.events[j] = q.events[j], q.events[i] }
func (q *eventQueue) Push(x any) {
	q.events = append(q.events, x.(queuedEvent))
	q.pushed++
}
func (q *eventQueue) Pop() any {
	old := q.events
	n := len(old)
	ev := old[n-1]
	q.events = old[:n-1]
	return ev
}
