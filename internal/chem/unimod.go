package chem

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Inline modification tag, e.g. [UNIMOD:4]
var unimodPattern = regexp.MustCompile(`\[UNIMOD:(\d+)\]`)

// Monoisotopic mass deltas for the UNIMOD entries the simulation knows about
var unimodMass = map[int]float64{
	1:    42.010565, // Acetyl
	4:    57.021464, // Carbamidomethyl
	5:    43.005814, // Carbamyl
	7:    0.984016,  // Deamidated
	21:   79.966331, // Phospho
	34:   14.015650, // Methyl
	35:   15.994915, // Oxidation
	36:   28.031300, // Dimethyl
	37:   42.046950, // Trimethyl
	121:  114.042927, // GG (ubiquitinylation residue)
	737:  229.162932, // TMT6plex
	2016: 304.207146, // TMTpro
}

// Elemental composition deltas for the same UNIMOD entries. Entries missing
// here contribute mass but no composition, which degrades the isotope
// envelope of modified fragments to that of the unmodified backbone.
var unimodComposition = map[int]Composition{
	1:  {"C": 2, "H": 2, "O": 1},
	4:  {"C": 2, "H": 3, "N": 1, "O": 1},
	5:  {"C": 1, "H": 1, "N": 1, "O": 1},
	7:  {"H": -1, "N": -1, "O": 1},
	21: {"H": 1, "O": 3, "P": 1},
	34: {"C": 1, "H": 2},
	35: {"O": 1},
	36: {"C": 2, "H": 4},
	37: {"C": 3, "H": 6},
}

// UnimodMass returns the monoisotopic mass delta of a UNIMOD id.
func UnimodMass(id int) (float64, bool) {
	m, ok := unimodMass[id]
	return m, ok
}

// StripModifications removes all inline modification tags from a sequence.
func StripModifications(sequence string) string {
	return unimodPattern.ReplaceAllString(sequence, "")
}

// ModificationMasses extracts the mass deltas of all inline modification tags
// in order of appearance. Unknown UNIMOD ids are an error.
func ModificationMasses(sequence string) ([]float64, error) {
	matches := unimodPattern.FindAllStringSubmatch(sequence, -1)
	masses := make([]float64, 0, len(matches))
	for _, m := range matches {
		id, _ := strconv.Atoi(m[1])
		mass, ok := unimodMass[id]
		if !ok {
			return nil, fmt.Errorf("chem: unknown modification UNIMOD:%d", id)
		}
		masses = append(masses, mass)
	}
	return masses, nil
}

// Tokenize splits a sequence with inline modification tags into tokens.
// With groupModifications set, a modification is folded into the token of
// the residue it is attached to ("C[UNIMOD:4]" is one token); an N-terminal
// modification is folded into the first residue token. Without grouping,
// tags become tokens of their own.
func Tokenize(sequence string, groupModifications bool) []string {
	var tokens []string
	var pendingMod string // N-terminal tag seen before any residue

	i := 0
	for i < len(sequence) {
		if sequence[i] == '[' {
			end := strings.IndexByte(sequence[i:], ']')
			if end < 0 {
				// Unterminated tag, treat remainder as one token
				tokens = append(tokens, sequence[i:])
				break
			}
			tag := sequence[i : i+end+1]
			if !groupModifications {
				tokens = append(tokens, tag)
			} else if len(tokens) == 0 {
				pendingMod += tag
			} else {
				tokens[len(tokens)-1] += tag
			}
			i += end + 1
			continue
		}
		tok := string(sequence[i])
		if pendingMod != "" {
			tok = pendingMod + tok
			pendingMod = ""
		}
		tokens = append(tokens, tok)
		i++
	}
	return tokens
}
