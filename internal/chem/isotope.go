package chem

import (
	"sort"
)

// IsotopePeak is one line of an isotope envelope.
type IsotopePeak struct {
	Mass      float64
	Abundance float64
}

// Natural isotope masses and abundances per element, lightest first
var elementIsotopes = map[string][]IsotopePeak{
	"H": {
		{1.0078250319, 0.999885},
		{2.0141017780, 0.000115},
	},
	"C": {
		{12.0000000000, 0.9893},
		{13.0033548378, 0.0107},
	},
	"N": {
		{14.0030740052, 0.99632},
		{15.0001088984, 0.00368},
	},
	"O": {
		{15.9949146221, 0.99757},
		{16.9991315000, 0.00038},
		{17.9991604000, 0.00205},
	},
	"S": {
		{31.9720706900, 0.9493},
		{32.9714585000, 0.0076},
		{33.9678668300, 0.0429},
		{35.9670808800, 0.0002},
	},
	"P": {
		{30.9737615100, 1.0},
	},
	"Se": {
		{73.9224766000, 0.0089},
		{75.9192141000, 0.0937},
		{76.9199146000, 0.0763},
		{77.9173095000, 0.2377},
		{79.9165218000, 0.4961},
		{81.9167000000, 0.0873},
	},
}

// convolve combines two distributions, merging peaks that fall within
// massTol of each other and dropping peaks below pruneThreshold.
func convolve(a, b []IsotopePeak, massTol, pruneThreshold float64) []IsotopePeak {
	product := make([]IsotopePeak, 0, len(a)*len(b))
	for _, pa := range a {
		for _, pb := range b {
			ab := pa.Abundance * pb.Abundance
			if ab < pruneThreshold {
				continue
			}
			product = append(product, IsotopePeak{Mass: pa.Mass + pb.Mass, Abundance: ab})
		}
	}
	return mergePeaks(product, massTol)
}

// mergePeaks collapses peaks closer than massTol into one, using the
// abundance-weighted mean mass. Input order does not matter; output is
// sorted by mass.
func mergePeaks(peaks []IsotopePeak, massTol float64) []IsotopePeak {
	if len(peaks) == 0 {
		return peaks
	}
	sort.Slice(peaks, func(i, j int) bool { return peaks[i].Mass < peaks[j].Mass })
	merged := make([]IsotopePeak, 0, len(peaks))
	cur := peaks[0]
	for _, p := range peaks[1:] {
		if p.Mass-cur.Mass < massTol {
			total := cur.Abundance + p.Abundance
			cur.Mass = (cur.Mass*cur.Abundance + p.Mass*p.Abundance) / total
			cur.Abundance = total
			continue
		}
		merged = append(merged, cur)
		cur = p
	}
	merged = append(merged, cur)
	return merged
}

// IsotopeDistribution generates the isotope envelope of an atomic
// composition. Peaks closer than massTolerance are merged, peaks below
// abundanceThreshold (relative to the most abundant peak) are dropped and
// at most maxResult peaks are returned, sorted by mass. Abundances are
// normalized so the most abundant peak is 1.
func IsotopeDistribution(composition Composition, massTolerance, abundanceThreshold float64, maxResult int) []IsotopePeak {
	dist := []IsotopePeak{{Mass: 0, Abundance: 1}}
	// Prune far below the final threshold so intermediate convolutions
	// cannot lose peaks that merging would later lift above it.
	prune := abundanceThreshold * 1e-3

	// Deterministic element order
	elements := make([]string, 0, len(composition))
	for el := range composition {
		elements = append(elements, el)
	}
	sort.Strings(elements)

	for _, el := range elements {
		isotopes, ok := elementIsotopes[el]
		if !ok {
			continue
		}
		n := composition[el]
		if n <= 0 {
			continue
		}
		// Square-and-multiply over convolution keeps the intermediate
		// peak lists small for large atom counts.
		single := isotopes
		for n > 0 {
			if n&1 == 1 {
				dist = convolve(dist, single, massTolerance, prune)
			}
			n >>= 1
			if n > 0 {
				single = convolve(single, single, massTolerance, prune)
			}
		}
	}

	var maxAb float64
	for _, p := range dist {
		if p.Abundance > maxAb {
			maxAb = p.Abundance
		}
	}
	if maxAb == 0 {
		return nil
	}

	out := make([]IsotopePeak, 0, len(dist))
	for _, p := range dist {
		ab := p.Abundance / maxAb
		if ab >= abundanceThreshold {
			out = append(out, IsotopePeak{Mass: p.Mass, Abundance: ab})
		}
	}
	if maxResult > 0 && len(out) > maxResult {
		// Keep the most abundant peaks, then restore mass order
		sort.Slice(out, func(i, j int) bool { return out[i].Abundance > out[j].Abundance })
		out = out[:maxResult]
		sort.Slice(out, func(i, j int) bool { return out[i].Mass < out[j].Mass })
	}
	return out
}
