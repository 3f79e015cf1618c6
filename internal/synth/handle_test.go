package synth

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestHandle builds a small synthetic experiment: one precursor frame,
// two fragment frames (one with no eluting peptide), one peptide with a
// doubly charged ion and a predicted fragment series.
func newTestHandle(t testing.TB) *DataHandle {
	t.Helper()

	path := filepath.Join(t.TempDir(), "experiment.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	schema := []string{
		`CREATE TABLE frames (frame_id INTEGER, time REAL, ms_type INTEGER)`,
		`CREATE TABLE scans (scan INTEGER, mobility REAL)`,
		`CREATE TABLE peptides (peptide_id INTEGER, sequence TEXT, proteins TEXT,
			decoy INTEGER, missed_cleavages INTEGER, n_term INTEGER, c_term INTEGER,
			mono_mass REAL, rt REAL, events REAL,
			frame_occurrence TEXT, frame_abundance TEXT)`,
		`CREATE TABLE ions (peptide_id INTEGER, mz REAL, mono_mass REAL,
			charge INTEGER, rel_abundance REAL, mobility REAL,
			spectrum TEXT, scan_occurrence TEXT, scan_abundance TEXT)`,
		`CREATE TABLE dia_ms_ms_windows (window_group INTEGER, scan_start INTEGER,
			scan_end INTEGER, isolation_mz REAL, isolation_width REAL,
			collision_energy REAL)`,
		`CREATE TABLE dia_ms_ms_info (frame_id INTEGER, window_group INTEGER)`,
		`CREATE TABLE fragment_ions (peptide_id INTEGER, charge INTEGER,
			collision_energy REAL, fragment_series TEXT)`,
	}
	for _, stmt := range schema {
		_, err = db.Exec(stmt)
		require.NoError(t, err)
	}

	inserts := []struct {
		stmt string
		args []any
	}{
		{`INSERT INTO frames VALUES (?, ?, ?)`, []any{1, 10.0, 0}},
		{`INSERT INTO frames VALUES (?, ?, ?)`, []any{2, 10.1, 9}},
		{`INSERT INTO frames VALUES (?, ?, ?)`, []any{3, 10.2, 9}},
		{`INSERT INTO scans VALUES (?, ?)`, []any{100, 1.2}},
		{`INSERT INTO scans VALUES (?, ?)`, []any{200, 0.9}},
		{`INSERT INTO peptides VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, []any{
			1, "PEPTIDE", "sp|TEST|TEST", 0, 0, nil, nil,
			799.35997, 10.0, 10000.0, `[1, 2]`, `[0.5, 0.4]`}},
		{`INSERT INTO ions VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, []any{
			1, 400.687, 799.35997, 2, 1.0, 1.2,
			`{"mz": [400.3, 400.8], "intensity": [1.0, 0.5]}`,
			`[100]`, `[0.8]`}},
		{`INSERT INTO dia_ms_ms_windows VALUES (?, ?, ?, ?, ?, ?)`, []any{
			1, 0, 500, 400.5, 25.0, 30.0}},
		{`INSERT INTO dia_ms_ms_info VALUES (?, ?)`, []any{2, 1}},
		{`INSERT INTO dia_ms_ms_info VALUES (?, ?)`, []any{3, 1}},
		{`INSERT INTO fragment_ions VALUES (?, ?, ?, ?)`, []any{
			1, 2, 30.0,
			`[{"mz": [200.1, 300.2], "intensity": [0.7, 0.3]}]`}},
	}
	for _, in := range inserts {
		_, err = db.Exec(in.stmt, in.args...)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	h, err := OpenDataHandle(path)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func TestDataHandleRead(t *testing.T) {
	h := newTestHandle(t)

	frames, err := h.ReadFrames()
	require.NoError(t, err)
	require.Len(t, frames, 3)
	require.Equal(t, 1, frames[0].FrameID)
	require.Equal(t, 10.0, frames[0].Time)

	scans, err := h.ReadScans()
	require.NoError(t, err)
	require.Len(t, scans, 2)

	peptides, err := h.ReadPeptides()
	require.NoError(t, err)
	require.Len(t, peptides, 1)
	require.Equal(t, "PEPTIDE", peptides[0].Sequence)
	require.Equal(t, []int{1, 2}, peptides[0].FrameOccurrence)
	require.Equal(t, []float64{0.5, 0.4}, peptides[0].FrameAbundance)
	require.Nil(t, peptides[0].NTerm)

	ions, err := h.ReadIons()
	require.NoError(t, err)
	require.Len(t, ions, 1)
	require.Equal(t, 2, ions[0].Charge)
	require.Equal(t, []float64{400.3, 400.8}, ions[0].Spectrum.Mz)
	require.Equal(t, []int{100}, ions[0].ScanOccurrence)

	fragmentIons, err := h.ReadFragmentIons()
	require.NoError(t, err)
	require.Len(t, fragmentIons, 1)
	require.Len(t, fragmentIons[0].FragmentIntensities, 1)
	require.Equal(t, []float64{200.1, 300.2}, fragmentIons[0].FragmentIntensities[0].Mz)
}

func TestDataHandleMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE peptides (peptide_id INTEGER, sequence TEXT,
		proteins TEXT, decoy INTEGER, missed_cleavages INTEGER, n_term INTEGER,
		c_term INTEGER, mono_mass REAL, rt REAL, events REAL,
		frame_occurrence TEXT, frame_abundance TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO peptides VALUES (1, 'PEPTIDE', '', 0, 0,
		NULL, NULL, 799.0, 10.0, 1000.0, 'not json', '[]')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	h, err := OpenDataHandle(path)
	require.NoError(t, err)
	defer h.Close()

	_, err = h.ReadPeptides()
	require.Error(t, err)
	require.Contains(t, err.Error(), "frame_occurrence")
}

func TestBuildDerivedLookups(t *testing.T) {
	h := newTestHandle(t)

	frames, err := h.ReadFrames()
	require.NoError(t, err)
	peptides, err := h.ReadPeptides()
	require.NoError(t, err)
	ions, err := h.ReadIons()
	require.NoError(t, err)

	precursorIDs := BuildPrecursorFrameIDSet(frames)
	require.Contains(t, precursorIDs, 1)
	require.NotContains(t, precursorIDs, 2)

	frameToRT := BuildFrameToRT(frames)
	require.Equal(t, 10.1, frameToRT[2])

	abundances := BuildFrameToAbundances(peptides)
	require.Equal(t, []int{1}, abundances[1].PeptideIDs)
	require.Equal(t, []float64{0.5}, abundances[1].Abundances)
	require.Equal(t, []float64{0.4}, abundances[2].Abundances)

	peptideToIons := BuildPeptideToIons(ions)
	require.Len(t, peptideToIons[1].Charges, 1)
	require.Equal(t, 2, peptideToIons[1].Charges[0])

	events := BuildPeptideToEvents(peptides)
	require.Equal(t, 10000.0, events[1])
}
