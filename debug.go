// This file contains code to help debugging, and is
// separated in from the rest in order not to litter
// the main code with debugging stuff

package main

import (
	"flag"
	"fmt"
	"math"

	"github.com/tkemmer/rustims/internal/spectra"
)

var debugFrames *string // Print debug output for given frame range

func init() {
	debugFrames = flag.String("debug", "",
		"Print debug output for given frame `range` e.g. 3:6")
}

func debugLogFrame(frame spectra.Frame, par params) {
	if *debugFrames == `` {
		return
	}
	debugMin, debugMax, _ := parseIntRange(*debugFrames, 0, math.MaxInt32)
	if frame.FrameID < debugMin || frame.FrameID > debugMax {
		return
	}

	fmt.Printf("Frame:%d type:%s rt:%f peaks:%d\n",
		frame.FrameID, frame.MsType, frame.RetentionTime, frame.NumPeaks())
	for j, mz := range frame.Mz {
		fmt.Printf("%d scan:%d mz:%f intens:%f mobility:%f\n",
			j, frame.Scan[j], mz, frame.Intensity[j], frame.InvMobility[j])
	}
}
