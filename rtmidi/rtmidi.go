// Package rtmidi connects live playback to real MIDI output ports
// through the rtmidi driver.
package rtmidi

import (
	"errors"
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Sink sends events to one MIDI output port on a fixed channel. It
// implements barline.Sink.
type Sink struct {
	driver  *rtmididrv.Driver
	out     drivers.Out
	channel uint8
}

// NewSink opens the first output port whose name starts with namePrefix,
// or the first available port when namePrefix is empty. The channel is
// 0-based.
func NewSink(namePrefix string, channel uint8) (*Sink, error) {
	driver, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("opening MIDI driver failed: %w", err)
	}
	outs, err := driver.Outs()
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("listing MIDI outputs failed: %w", err)
	}
	for _, out := range outs {
		if namePrefix != "" && !strings.HasPrefix(out.String(), namePrefix) {
			continue
		}
		if err := out.Open(); err != nil {
			driver.Close()
			return nil, fmt.Errorf("opening MIDI output %q failed: %w", out.String(), err)
		}
		return &Sink{driver: driver, out: out, channel: channel % 16}, nil
	}
	driver.Close()
	if namePrefix == "" {
		return nil, errors.New("no MIDI outputs available")
	}
	return nil, fmt.Errorf("no MIDI output starting with %q", namePrefix)
}

// Outs lists the names of the available output ports.
func Outs() ([]string, error) {
	driver, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("opening MIDI driver failed: %w", err)
	}
	defer driver.Close()
	outs, err := driver.Outs()
	if err != nil {
		return nil, fmt.Errorf("listing MIDI outputs failed: %w", err)
	}
	names := make([]string, len(outs))
	for i, out := range outs {
		names[i] = out.String()
	}
	return names, nil
}

// Name returns the open port's name.
func (s *Sink) Name() string {
	return s.out.String()
}

// Close closes the port and the driver.
func (s *Sink) Close() error {
	if s.out != nil && s.out.IsOpen() {
		s.out.Close()
	}
	if s.driver != nil {
		return s.driver.Close()
	}
	return nil
}

func (s *Sink) send(msg midi.Message) error {
	return s.out.Send(msg.Bytes())
}

func (s *Sink) NoteOn(note, velocity uint8) error {
	return s.send(midi.NoteOn(s.channel, note, velocity))
}

func (s *Sink) NoteOff(note uint8) error {
	return s.send(midi.NoteOff(s.channel, note))
}

func (s *Sink) ControlChange(controller, value uint8) error {
	return s.send(midi.ControlChange(s.channel, controller, value))
}

func (s *Sink) PitchBend(value int16) error {
	return s.send(midi.Pitchbend(s.channel, value))
}

func (s *Sink) ChannelPressure(value uint8) error {
	return s.send(midi.AfterTouch(s.channel, value))
}
