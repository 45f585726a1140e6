package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/leandrodaf/puretones/internal/logger"
	"github.com/leandrodaf/puretones/internal/midi/midirtmidi"
	"github.com/leandrodaf/puretones/internal/tuning"
	"github.com/leandrodaf/puretones/sdk/contracts"
	"github.com/leandrodaf/puretones/sdk/puretones"
)

func main() {
	var (
		device    = flag.Int("device", 0, "input device ID")
		output    = flag.String("out", "", "output port name (substring); empty selects the first port")
		tuneName  = flag.String("tuning", tuning.NameJust, "tuning strategy: "+strings.Join(tuning.Names(), ", "))
		root      = flag.Uint("root", 0, "root pitch class (0 = C)")
		divisions = flag.Int("edo", 19, "divisions of the octave for the equal tuning")
		scale     = flag.String("scale", tuning.DefaultScale, "ratio table: "+strings.Join(tuning.Scales(), ", "))
		channels  = flag.Int("channels", 16, "output channels to allocate")
		ramp      = flag.Duration("ramp", 100*time.Millisecond, "bend glide duration")
		tick      = flag.Duration("tick", 20*time.Millisecond, "bend update period")
		bendRange = flag.Float64("bend-range", 2, "synth pitch-bend range in semitones")
		logFile   = flag.String("log", "", "write logs to this file instead of stderr")
		verbose   = flag.Bool("v", false, "log at debug level")
		listOuts  = flag.Bool("list-outputs", false, "print the output ports and exit")
	)
	flag.Parse()

	if *listOuts {
		names, err := midirtmidi.OutputNames()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	log := logger.NewZapLogger()
	level := contracts.InfoLevel
	if *verbose {
		level = contracts.DebugLevel
	}

	inst, err := puretones.NewInstrument(
		contracts.WithLogger(log),
		contracts.WithLogLevel(level),
		contracts.WithLogFile(*logFile),
		contracts.WithOutputPort(*output),
		contracts.WithNumChannels(*channels),
		contracts.WithRampDuration(*ramp),
		contracts.WithTickInterval(*tick),
		contracts.WithBendRange(*bendRange),
		contracts.WithTuning(contracts.TuningConfig{
			Name:      *tuneName,
			Root:      uint8(*root % 12),
			Divisions: *divisions,
			Scale:     *scale,
		}),
		contracts.WithMIDIEventFilter(contracts.MIDIEventFilter{
			Commands: []contracts.MIDICommand{contracts.NoteOn, contracts.NoteOff, contracts.ControlChange},
		}),
	)
	if err != nil {
		log.Error("Failed to initialize instrument", log.Field().Error("error", err))
		os.Exit(1)
	}
	defer inst.Stop()

	devices, err := inst.ListDevices()
	if err != nil || len(devices) == 0 {
		log.Error("No MIDI devices found or error listing devices", log.Field().Error("error", err))
		return
	}
	for _, d := range devices {
		fmt.Printf("[%d] %s\n", d.ID, d.Name)
	}

	if err = inst.SelectDevice(*device); err != nil {
		log.Error("Failed to select MIDI device", log.Field().Error("error", err))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("Playing... Press Ctrl+C to exit.")
	if err := inst.Run(ctx); err != nil {
		log.Error("Instrument stopped with error", log.Field().Error("error", err))
	}
}
