package peptide

import (
	"fmt"
	"strings"
)

// Prosit predictions cover fragments up to 29 cleavage positions, two ion
// directions and three fragment charges, flattened to one array.
const (
	prositPositions  = 29
	prositDirections = 2
	prositCharges    = 3
	prositFlatLen    = prositPositions * prositDirections * prositCharges
)

// IonSeries holds the N- and C-terminal product ions of one charge state,
// index i covering the fragment after cleavage position i+1.
type IonSeries struct {
	Charge int
	NIons  []ProductIon
	CIons  []ProductIon
}

// IonSeriesCollection groups the ion series of all generated charge states.
type IonSeriesCollection struct {
	Series []IonSeries
}

// ProductIonSeries generates the fragment ions of the requested series type
// for every cleavage position. For a sequence of L residues it returns L-1
// N-terminal and L-1 C-terminal ions; the C-terminal series type is the
// fixed partner of the requested one (B yields Y, A yields X, C yields Z).
func (s Sequence) ProductIonSeries(targetCharge int, kind FragmentType) ([]ProductIon, []ProductIon) {
	tokens := s.Tokens(true)
	nKind := nTerminalKind(kind)
	cKind := cTerminalKind(kind)

	nIons := make([]ProductIon, 0, len(tokens)-1)
	cIons := make([]ProductIon, 0, len(tokens)-1)
	for i := 1; i < len(tokens); i++ {
		nIons = append(nIons, ProductIon{
			Kind: nKind,
			Ion: Ion{
				Sequence:  mustSequence(strings.Join(tokens[:i], "")),
				Charge:    targetCharge,
				Intensity: 1.0,
			},
		})
		cIons = append(cIons, ProductIon{
			Kind: cKind,
			Ion: Ion{
				Sequence:  mustSequence(strings.Join(tokens[len(tokens)-i:], "")),
				Charge:    targetCharge,
				Intensity: 1.0,
			},
		})
	}
	return nIons, cIons
}

// ReshapePrositArray reshapes a flat predicted-intensity array into
// [position][direction][charge] cells, direction 0 holding C-terminal and
// direction 1 N-terminal intensities.
func ReshapePrositArray(flat []float64) ([][][]float64, error) {
	if len(flat) != prositFlatLen {
		return nil, fmt.Errorf("peptide: predicted intensity array must have %d entries, got %d", prositFlatLen, len(flat))
	}
	out := make([][][]float64, prositPositions)
	i := 0
	for pos := range out {
		out[pos] = make([][]float64, prositDirections)
		for dir := range out[pos] {
			out[pos][dir] = make([]float64, prositCharges)
			for z := range out[pos][dir] {
				out[pos][dir][z] = flat[i]
				i++
			}
		}
	}
	return out, nil
}

// AssociateWithPredictedIntensities zips a flat predicted-intensity array
// onto the product ion series of all charges up to min(charge, 3).
// C-terminal intensities are read in reverse position order so they align
// with increasing fragment length from the C-terminus. With normalize set,
// all intensities are scaled to a common sum across directions and charges;
// halfChargeOne additionally doubles that sum when only charge 1 is
// generated.
func (s Sequence) AssociateWithPredictedIntensities(
	charge int,
	kind FragmentType,
	flatIntensities []float64,
	normalize bool,
	halfChargeOne bool,
) (IonSeriesCollection, error) {

	reshaped, err := ReshapePrositArray(flatIntensities)
	if err != nil {
		return IonSeriesCollection{}, err
	}

	maxCharge := charge
	if maxCharge > prositCharges {
		maxCharge = prositCharges
	}
	if maxCharge < 1 {
		maxCharge = 1
	}

	// Full sequence length is not a fragment, nothing is cleaved off
	numFragments := s.AminoAcidCount() - 1
	if numFragments > prositPositions {
		return IonSeriesCollection{}, fmt.Errorf("peptide: sequence with %d fragments exceeds the %d predicted positions", numFragments, prositPositions)
	}

	sumIntensity := 1.0
	if normalize {
		sumIntensity = 0.0
		for z := 1; z <= maxCharge; z++ {
			for pos := 0; pos < numFragments; pos++ {
				if v := reshaped[pos][0][z-1]; v > 0 {
					sumIntensity += v
				}
				if v := reshaped[pos][1][z-1]; v > 0 {
					sumIntensity += v
				}
			}
		}
	}

	collection := IonSeriesCollection{Series: make([]IonSeries, 0, maxCharge)}
	for z := 1; z <= maxCharge; z++ {
		nIons, cIons := s.ProductIonSeries(z, kind)

		adjustedSum := sumIntensity
		if maxCharge == 1 && halfChargeOne {
			adjustedSum = sumIntensity * 2
		}

		for i := range nIons {
			nIons[i].Ion.Intensity = reshaped[i][1][z-1] / adjustedSum
		}
		for i := range cIons {
			cIons[i].Ion.Intensity = reshaped[numFragments-1-i][0][z-1] / adjustedSum
		}

		collection.Series = append(collection.Series, IonSeries{Charge: z, NIons: nIons, CIons: cIons})
	}
	return collection, nil
}
