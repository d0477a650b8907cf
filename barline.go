// Package barline contains the document model for SML, a compact textual
// notation for musical phrases: pitches, duration tokens, bars, reusable
// clips, tracks and compositions, plus the piecewise-linear expression
// curves attached to bars. The model is assembled bottom-up from validated
// parts and treated as immutable once assembled; the render and live
// packages turn it into MIDI event streams.
package barline

// DefaultVelocity is used for note-on events when neither a velocity curve
// nor a per-note velocity is present.
const DefaultVelocity = 100

// Sink is the contract for anything that can receive dispatched events in
// real time: a MIDI output port, a software synth, a test recorder. The
// live player depends only on this interface and never on how sound is
// produced. A Sink is not safe for concurrent writers; the player holds it
// exclusively for the duration of a play-through.
type Sink interface {
	NoteOn(note, velocity uint8) error
	NoteOff(note uint8) error
	ControlChange(controller, value uint8) error
	PitchBend(value int16) error
	ChannelPressure(value uint8) error
}
