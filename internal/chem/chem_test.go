package chem

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResidueMass(t *testing.T) {
	// Test case 1: Known residue
	m, ok := ResidueMass('G')
	if !ok {
		t.Fatalf("Expected glycine to be known")
	}
	if math.Abs(m-57.0214637) > 1e-6 {
		t.Errorf("Expected glycine residue mass 57.0214637, got: %f", m)
	}

	// Test case 2: Unknown residue
	if _, ok := ResidueMass('X'); ok {
		t.Errorf("Expected X to be unknown")
	}

	// Test case 3: Residue masses agree with their compositions
	for r := range residueMass {
		c, ok := ResidueComposition(r)
		if !ok {
			t.Errorf("Residue %c has a mass but no composition", r)
			continue
		}
		fromComposition := c.MonoisotopicMass()
		if math.Abs(fromComposition-residueMass[r]) > 1e-4 {
			t.Errorf("Residue %c: mass table %f != composition mass %f",
				r, residueMass[r], fromComposition)
		}
	}
}

func TestComposition(t *testing.T) {
	// Test case 1: Add accumulates counts
	c := Composition{"C": 2, "H": 3}
	c.Add(Composition{"C": 1, "O": 2})
	want := Composition{"C": 3, "H": 3, "O": 2}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("Composition mismatch (-want +got):\n%s", diff)
	}

	// Test case 2: Water
	water := Composition{"H": 2, "O": 1}
	if m := water.MonoisotopicMass(); math.Abs(m-MassWater) > 1e-6 {
		t.Errorf("Expected water mass %f, got: %f", MassWater, m)
	}

	// Test case 3: ResidueComposition returns a copy
	a, _ := ResidueComposition('A')
	a["C"] = 99
	b, _ := ResidueComposition('A')
	if b["C"] != 3 {
		t.Errorf("ResidueComposition leaked internal state: C=%d", b["C"])
	}
}

func TestMz(t *testing.T) {
	// Singly charged ion is the mass plus one proton
	mz := Mz(1000.0, 1)
	if math.Abs(mz-1001.007276466879) > 1e-9 {
		t.Errorf("Expected m/z 1001.007276, got: %f", mz)
	}

	// Doubly charged ion
	mz = Mz(1000.0, 2)
	if math.Abs(mz-(1000.0/2+MassProton)) > 1e-9 {
		t.Errorf("Expected m/z %f, got: %f", 1000.0/2+MassProton, mz)
	}
}

func TestStripModifications(t *testing.T) {
	if got := StripModifications("PEPTC[UNIMOD:4]IDE"); got != "PEPTCIDE" {
		t.Errorf("Expected PEPTCIDE, got: %s", got)
	}
	if got := StripModifications("[UNIMOD:1]PEPTIDE"); got != "PEPTIDE" {
		t.Errorf("Expected PEPTIDE, got: %s", got)
	}
}

func TestModificationMasses(t *testing.T) {
	// Test case 1: Masses in order of appearance
	masses, err := ModificationMasses("[UNIMOD:1]PEPTC[UNIMOD:4]IDE")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	want := []float64{42.010565, 57.021464}
	if diff := cmp.Diff(want, masses); diff != "" {
		t.Errorf("Mass mismatch (-want +got):\n%s", diff)
	}

	// Test case 2: Unknown id
	if _, err := ModificationMasses("PEPTC[UNIMOD:99999]IDE"); err == nil {
		t.Errorf("Expected error for unknown UNIMOD id")
	}
}

func TestTokenize(t *testing.T) {
	// Test case 1: Grouped tokens fold the tag into its residue
	got := Tokenize("PC[UNIMOD:4]K", true)
	want := []string{"P", "C[UNIMOD:4]", "K"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Token mismatch (-want +got):\n%s", diff)
	}

	// Test case 2: N-terminal tag folds into the first residue
	got = Tokenize("[UNIMOD:1]PK", true)
	want = []string{"[UNIMOD:1]P", "K"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Token mismatch (-want +got):\n%s", diff)
	}

	// Test case 3: Ungrouped tags are tokens of their own
	got = Tokenize("PC[UNIMOD:4]K", false)
	want = []string{"P", "C", "[UNIMOD:4]", "K"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Token mismatch (-want +got):\n%s", diff)
	}
}

func TestIsotopeDistribution(t *testing.T) {
	// Envelope of a small peptide-like composition
	composition := Composition{"C": 34, "H": 53, "N": 7, "O": 15}
	peaks := IsotopeDistribution(composition, 1e-2, 0.001, 10)
	if len(peaks) < 3 {
		t.Fatalf("Expected at least 3 isotope peaks, got: %d", len(peaks))
	}

	// Test case 1: Sorted by mass, spaced ~1 Da apart
	for i := 1; i < len(peaks); i++ {
		gap := peaks[i].Mass - peaks[i-1].Mass
		if gap <= 0 {
			t.Errorf("Peaks not sorted by mass at %d", i)
		}
		if math.Abs(gap-1.0) > 0.1 {
			t.Errorf("Unexpected peak spacing at %d: %f", i, gap)
		}
	}

	// Test case 2: Monoisotopic peak is the most abundant and normalized to 1
	if math.Abs(peaks[0].Abundance-1.0) > 1e-12 {
		t.Errorf("Expected monoisotopic abundance 1.0, got: %f", peaks[0].Abundance)
	}
	for i, p := range peaks[1:] {
		if p.Abundance > 1.0 {
			t.Errorf("Peak %d exceeds normalized maximum: %f", i+1, p.Abundance)
		}
	}

	// Test case 3: Monoisotopic mass matches the composition
	if math.Abs(peaks[0].Mass-composition.MonoisotopicMass()) > 1e-3 {
		t.Errorf("Expected monoisotopic mass %f, got: %f",
			composition.MonoisotopicMass(), peaks[0].Mass)
	}

	// Test case 4: maxResult caps the envelope
	capped := IsotopeDistribution(composition, 1e-2, 0.0, 2)
	if len(capped) != 2 {
		t.Errorf("Expected 2 peaks, got: %d", len(capped))
	}
}
