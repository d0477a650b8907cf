package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/barline/barline"
	"github.com/barline/barline/live"
	"github.com/barline/barline/rtmidi"
	"github.com/barline/barline/sml"
	"github.com/barline/barline/version"
)

func main() {
	port := flag.String("port", "", "Name prefix of the MIDI output port to play on. By default, the first available port is used.")
	channel := flag.Uint("channel", 0, "MIDI channel to play on (0-15).")
	bpm := flag.Float64("bpm", 120, "Tempo in beats per minute.")
	beats := flag.Float64("beats", 4, "Beats per bar.")
	loop := flag.Bool("loop", false, "Loop the clip until interrupted.")
	list := flag.Bool("list", false, "List the available MIDI output ports and exit.")
	preset := flag.String("preset", "", "Play a built-in preset clip instead of a file.")
	help := flag.Bool("h", false, "Show help.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if *list {
		names, err := rtmidi.Outs()
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not list MIDI outputs: %v\n", err)
			os.Exit(1)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		os.Exit(0)
	}
	if (flag.NArg() == 0 && *preset == "") || *help {
		flag.Usage()
		os.Exit(0)
	}
	clip, err := loadClip(*preset, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	sink, err := rtmidi.NewSink(*port, uint8(*channel%16))
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not open MIDI output: %v\n", err)
		os.Exit(1)
	}
	defer sink.Close()
	player := live.NewPlayer(sink,
		live.WithBPM(*bpm),
		live.WithBeatsPerBar(*beats),
		live.WithLoop(*loop),
	)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := player.PlayClip(ctx, &clip); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "playback failed: %v\n", err)
		os.Exit(1)
	}
}

func loadClip(preset string, args []string) (barline.Clip, error) {
	if preset != "" {
		clip, ok := sml.PresetByName(preset)
		if !ok {
			return barline.Clip{}, fmt.Errorf("no preset named %q", preset)
		}
		return clip, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return barline.Clip{}, fmt.Errorf("could not read file %v: %v", args[0], err)
	}
	defer f.Close()
	clip, err := sml.ReadClip(f)
	if err != nil {
		return barline.Clip{}, fmt.Errorf("could not parse clip %v: %v", args[0], err)
	}
	return clip, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Barline command line utility for playing .json/.yml clip files on a MIDI output.\nUsage: %s [flags] [path]\n", os.Args[0])
	flag.PrintDefaults()
}
