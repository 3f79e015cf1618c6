// Copyright 2026 Thomas Kemmer.
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/tkemmer/rustims/internal/spectra"
	"github.com/tkemmer/rustims/internal/synth"
)

// Program name and version, shown by the -version flag
const progName = "timsim"

var progVersion = `Unknown`

var ErrRangeSpec = errors.New("invalid range specification")

const (
	infoDefault = iota
	infoSilent
	infoVerbose
)

// Command line parameters
type params struct {
	dbFilename     *string
	outFilename    *string  // Filename where JSON frames will be written
	frameFilter    *string  // Range of frame ids to build
	minFrameID     int      // Lowest frame id to build
	maxFrameID     int      // Highest frame id to build
	noFragment     *bool    // Pass fragment frames through the quadrupole without fragmenting
	numThreads     *int     // Number of parallel frame builders
	noiseModel     *string  // Noise model for fragment m/z values (none, uniform, normal)
	noisePPM       *float64 // Noise magnitude in ppm
	noiseRightBias *bool    // Only positive m/z errors (uniform model)
	noiseSeed      *uint64  // Seed for reproducible noise
	verbosity      int      // Verbosity of progress messages (infoDefault...)
	args           []string // Additional values passed on the command line
}

// Parse string like "-12:6" into 2 values, -12 and 6
// Parameters min and max are the "default" min/max values,
// when a value is not specified (e.g. "-12:"), the default is assigned
func parseIntRange(r string, min int, max int) (int, int, error) {
	re := regexp.MustCompile(`\s*(\-?\d*):(\-?\d*)`)
	m := re.FindStringSubmatch(r)
	minOut := min
	maxOut := max
	if len(m) >= 2 && m[1] != "" {
		minOut, _ = strconv.Atoi(m[1])
		if minOut < min {
			minOut = min
		}
	}
	if len(m) >= 3 && m[2] != "" {
		maxOut, _ = strconv.Atoi(m[2])
		if maxOut > max {
			maxOut = max
		}
	}
	var err error
	if minOut > maxOut {
		err = ErrRangeSpec
		minOut = maxOut
	}
	return minOut, maxOut, err
}

func sanatizeParams(par *params) {
	exeName := filepath.Base(os.Args[0])

	if len(par.args) != 1 {
		fmt.Fprintf(os.Stderr, `Last argument must be name of synthetic experiment database.
Type %s --help for usage
`, exeName)
		os.Exit(2)
	}

	db := par.args[0]
	par.dbFilename = &db
	var extension = filepath.Ext(db)
	var startName = db[0 : len(db)-len(extension)]

	if *par.outFilename == "" {
		*par.outFilename = startName + "-frames.json"
	}

	var err error
	par.minFrameID, par.maxFrameID, err = parseIntRange(*par.frameFilter,
		0, math.MaxInt32)
	if err != nil {
		fmt.Fprintf(os.Stderr, `Invalid value for parameter 'frames'.
Type %s --help for usage
`, exeName)
		os.Exit(2)
	}
	if *par.numThreads < 1 {
		*par.numThreads = 1
	}
}

func makeNoise(par params) (*synth.MzNoise, error) {
	switch *par.noiseModel {
	case "", "none":
		return nil, nil
	case "uniform":
		return synth.NewMzNoise(synth.NoiseUniform, *par.noisePPM,
			*par.noiseRightBias, *par.noiseSeed), nil
	case "normal":
		return synth.NewMzNoise(synth.NoiseNormal, *par.noisePPM,
			false, *par.noiseSeed), nil
	}
	return nil, fmt.Errorf("unknown noise model %q", *par.noiseModel)
}

// selectFrameIDs returns the ids of all frames of the scheme within the
// requested range, in ascending order.
func selectFrameIDs(h *synth.DataHandle, par params) ([]int, error) {
	frames, err := h.ReadFrames()
	if err != nil {
		return nil, err
	}
	var ids []int
	for _, f := range frames {
		if f.FrameID >= par.minFrameID && f.FrameID <= par.maxFrameID {
			ids = append(ids, f.FrameID)
		}
	}
	return ids, nil
}

func buildFrames(par params) {
	h, err := synth.OpenDataHandle(*par.dbFilename)
	if err != nil {
		log.Fatalf("Open database failed: %v", err)
	}
	defer h.Close()

	builder, err := synth.NewFrameBuilderDIA(h)
	if err != nil {
		log.Fatalf("Loading experiment tables failed: %v", err)
	}
	noise, err := makeNoise(par)
	if err != nil {
		log.Fatalf("Invalid noise parameters: %v", err)
	}
	builder.FragmentNoise = noise
	builder.Precursor.Noise = noise

	frameIDs, err := selectFrameIDs(h, par)
	if err != nil {
		log.Fatalf("Reading frames table failed: %v", err)
	}
	if par.verbosity != infoSilent {
		log.Printf("Building %d frames with %d threads", len(frameIDs), *par.numThreads)
	}

	frames, err := builder.BuildFrames(frameIDs, !*par.noFragment, *par.numThreads)
	if err != nil {
		log.Printf("Some frames could not be built: %v", err)
	}
	for _, frame := range frames {
		debugLogFrame(frame, par)
	}

	if err := writeFrames(*par.outFilename, frames); err != nil {
		log.Fatalf("Writing output failed: %v", err)
	}
	if par.verbosity != infoSilent {
		log.Printf("Wrote %d frames to %s", len(frames), *par.outFilename)
	}
}

func writeFrames(filename string, frames []spectra.Frame) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	if err := enc.Encode(frames); err != nil {
		return err
	}
	return f.Close()
}

func usage() {
	exeName := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr,
		`USAGE:
  %s [options] <database>

  This program builds simulated TimsTOF frames from a synthetic experiment
  database. Precursor frames contain the simulated MS1 signal; fragment
  frames contain the predicted fragment-ion series of all precursors that
  pass the quadrupole isolation windows. The frames are written as JSON.

OPTIONS:
`, exeName)
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr,
		`
USAGE EXAMPLES:
  %s experiment.db
    Build all frames of experiment.db and write them to experiment-frames.json.

  %s -frames 1000:2000 -noise uniform -ppm 5 experiment.db
    Idem, but only frames 1000 to 2000, with up to 5 ppm of uniform mass error.
`, exeName, exeName)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	var par params

	par.outFilename = flag.String("o",
		"",
		"`filename` of JSON frame output")
	par.frameFilter = flag.String("frames",
		"",
		"`range`"+` of frame ids to build (e.g. 1000:2000).
Default is all frames`)
	par.noFragment = flag.Bool("no-fragment", false,
		`Pass fragment frames through the quadrupole without fragmenting.
The resulting frames contain the transmitted precursor signal instead of
the predicted fragment-ion series.`)
	par.numThreads = flag.Int("threads", 4,
		`number of frames built in parallel`)
	par.noiseModel = flag.String("noise",
		"none",
		"noise `model`"+` applied to m/z values. Valid models:
    none: no mass error (default)
    uniform: relative errors drawn uniformly from [-ppm, ppm]
    normal: relative errors drawn from N(0, ppm/3)`)
	par.noisePPM = flag.Float64("ppm", 5.0,
		`noise magnitude in parts per million`)
	par.noiseRightBias = flag.Bool("rightbias", false,
		`only positive m/z errors (uniform noise model only)`)
	par.noiseSeed = flag.Uint64("seed", 0,
		`seed for reproducible noise`)
	version := flag.Bool("version", false,
		`Show software version`)
	verbose := flag.Bool("verbose", false,
		`Print more verbose progress information`)
	quiet := flag.Bool("quiet", false,
		`Don't print any output except for errors`)
	flag.Usage = usage
	flag.Parse()
	if *version {
		fmt.Fprintf(os.Stderr, "%s version %s\n", progName, progVersion)
		return
	}
	if *verbose {
		par.verbosity = infoVerbose
	}
	if *quiet {
		par.verbosity = infoSilent
	}
	par.args = flag.Args()

	sanatizeParams(&par)
	buildFrames(par)
}
