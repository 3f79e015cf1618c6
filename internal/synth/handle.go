package synth

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tkemmer/rustims/internal/spectra"
)

// DataHandle reads the synthetic-experiment tables from the backing SQLite
// store. It is opened once per simulation session and used read-only.
type DataHandle struct {
	db   *sql.DB
	path string
}

// OpenDataHandle opens the backing store at path.
func OpenDataHandle(path string) (*DataHandle, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("synth: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("synth: open %s: %w", path, err)
	}
	return &DataHandle{db: db, path: path}, nil
}

// Path returns the location of the backing store.
func (h *DataHandle) Path() string { return h.path }

// Close releases the database connection.
func (h *DataHandle) Close() error { return h.db.Close() }

// decodeJSONColumn decodes a JSON-encoded column value; a decode failure is
// fatal for the row.
func decodeJSONColumn(table, column, value string, out any) error {
	if err := json.Unmarshal([]byte(value), out); err != nil {
		return fmt.Errorf("synth: %s.%s: malformed JSON: %w", table, column, err)
	}
	return nil
}

// ReadFrames loads all rows of the frames table.
func (h *DataHandle) ReadFrames() ([]FrameSim, error) {
	rows, err := h.db.Query(`SELECT frame_id, time, ms_type FROM frames`)
	if err != nil {
		return nil, fmt.Errorf("synth: query frames: %w", err)
	}
	defer rows.Close()

	var frames []FrameSim
	for rows.Next() {
		var f FrameSim
		if err := rows.Scan(&f.FrameID, &f.Time, &f.MsType); err != nil {
			return nil, fmt.Errorf("synth: scan frames: %w", err)
		}
		frames = append(frames, f)
	}
	return frames, rows.Err()
}

// ReadScans loads all rows of the scans table.
func (h *DataHandle) ReadScans() ([]ScanSim, error) {
	rows, err := h.db.Query(`SELECT scan, mobility FROM scans`)
	if err != nil {
		return nil, fmt.Errorf("synth: query scans: %w", err)
	}
	defer rows.Close()

	var scans []ScanSim
	for rows.Next() {
		var s ScanSim
		if err := rows.Scan(&s.Scan, &s.Mobility); err != nil {
			return nil, fmt.Errorf("synth: scan scans: %w", err)
		}
		scans = append(scans, s)
	}
	return scans, rows.Err()
}

// ReadPeptides loads all rows of the peptides table, decoding the JSON
// frame occurrence/abundance columns.
func (h *DataHandle) ReadPeptides() ([]PeptideSim, error) {
	rows, err := h.db.Query(`SELECT peptide_id, sequence, proteins, decoy,
		missed_cleavages, n_term, c_term, mono_mass, rt, events,
		frame_occurrence, frame_abundance FROM peptides`)
	if err != nil {
		return nil, fmt.Errorf("synth: query peptides: %w", err)
	}
	defer rows.Close()

	var peptides []PeptideSim
	for rows.Next() {
		var p PeptideSim
		var occurrenceJSON, abundanceJSON string
		if err := rows.Scan(&p.PeptideID, &p.Sequence, &p.Proteins, &p.Decoy,
			&p.MissedCleavages, &p.NTerm, &p.CTerm, &p.MonoMass,
			&p.RetentionTime, &p.Events, &occurrenceJSON, &abundanceJSON); err != nil {
			return nil, fmt.Errorf("synth: scan peptides: %w", err)
		}
		if err := decodeJSONColumn("peptides", "frame_occurrence", occurrenceJSON, &p.FrameOccurrence); err != nil {
			return nil, err
		}
		if err := decodeJSONColumn("peptides", "frame_abundance", abundanceJSON, &p.FrameAbundance); err != nil {
			return nil, err
		}
		peptides = append(peptides, p)
	}
	return peptides, rows.Err()
}

// ReadIons loads all rows of the ions table, decoding the JSON spectrum and
// scan occurrence/abundance columns.
func (h *DataHandle) ReadIons() ([]IonSim, error) {
	rows, err := h.db.Query(`SELECT peptide_id, mz, mono_mass, charge,
		rel_abundance, mobility, spectrum, scan_occurrence, scan_abundance
		FROM ions`)
	if err != nil {
		return nil, fmt.Errorf("synth: query ions: %w", err)
	}
	defer rows.Close()

	var ions []IonSim
	for rows.Next() {
		var ion IonSim
		var spectrumJSON, occurrenceJSON, abundanceJSON string
		if err := rows.Scan(&ion.PeptideID, &ion.Mz, &ion.MonoMass, &ion.Charge,
			&ion.RelativeAbundance, &ion.Mobility, &spectrumJSON,
			&occurrenceJSON, &abundanceJSON); err != nil {
			return nil, fmt.Errorf("synth: scan ions: %w", err)
		}
		if err := decodeJSONColumn("ions", "spectrum", spectrumJSON, &ion.Spectrum); err != nil {
			return nil, err
		}
		if err := decodeJSONColumn("ions", "scan_occurrence", occurrenceJSON, &ion.ScanOccurrence); err != nil {
			return nil, err
		}
		if err := decodeJSONColumn("ions", "scan_abundance", abundanceJSON, &ion.ScanAbundance); err != nil {
			return nil, err
		}
		ions = append(ions, ion)
	}
	return ions, rows.Err()
}

// ReadWindowGroupSettings loads the DIA isolation-window table.
func (h *DataHandle) ReadWindowGroupSettings() ([]WindowGroupSettingSim, error) {
	rows, err := h.db.Query(`SELECT window_group, scan_start, scan_end,
		isolation_mz, isolation_width, collision_energy FROM dia_ms_ms_windows`)
	if err != nil {
		return nil, fmt.Errorf("synth: query dia_ms_ms_windows: %w", err)
	}
	defer rows.Close()

	var settings []WindowGroupSettingSim
	for rows.Next() {
		var w WindowGroupSettingSim
		if err := rows.Scan(&w.WindowGroup, &w.ScanStart, &w.ScanEnd,
			&w.IsolationMz, &w.IsolationWidth, &w.CollisionEnergy); err != nil {
			return nil, fmt.Errorf("synth: scan dia_ms_ms_windows: %w", err)
		}
		settings = append(settings, w)
	}
	return settings, rows.Err()
}

// ReadFrameToWindowGroup loads the fragment-frame to window-group mapping.
func (h *DataHandle) ReadFrameToWindowGroup() ([]FrameToWindowGroupSim, error) {
	rows, err := h.db.Query(`SELECT frame_id, window_group FROM dia_ms_ms_info`)
	if err != nil {
		return nil, fmt.Errorf("synth: query dia_ms_ms_info: %w", err)
	}
	defer rows.Close()

	var mapping []FrameToWindowGroupSim
	for rows.Next() {
		var m FrameToWindowGroupSim
		if err := rows.Scan(&m.FrameID, &m.WindowGroup); err != nil {
			return nil, fmt.Errorf("synth: scan dia_ms_ms_info: %w", err)
		}
		mapping = append(mapping, m)
	}
	return mapping, rows.Err()
}

// ReadFragmentIons loads the precomputed fragment-ion series table.
func (h *DataHandle) ReadFragmentIons() ([]FragmentIonSim, error) {
	rows, err := h.db.Query(`SELECT peptide_id, charge, collision_energy,
		fragment_series FROM fragment_ions`)
	if err != nil {
		return nil, fmt.Errorf("synth: query fragment_ions: %w", err)
	}
	defer rows.Close()

	var fragmentIons []FragmentIonSim
	for rows.Next() {
		var f FragmentIonSim
		var seriesJSON string
		if err := rows.Scan(&f.PeptideID, &f.Charge, &f.CollisionEnergy, &seriesJSON); err != nil {
			return nil, fmt.Errorf("synth: scan fragment_ions: %w", err)
		}
		if err := decodeJSONColumn("fragment_ions", "fragment_series", seriesJSON, &f.FragmentIntensities); err != nil {
			return nil, err
		}
		fragmentIons = append(fragmentIons, f)
	}
	return fragmentIons, rows.Err()
}

// TransmissionDIA builds the quadrupole transmission model from the
// window tables.
func (h *DataHandle) TransmissionDIA() (*TransmissionDIA, error) {
	mapping, err := h.ReadFrameToWindowGroup()
	if err != nil {
		return nil, err
	}
	settings, err := h.ReadWindowGroupSettings()
	if err != nil {
		return nil, err
	}
	return NewTransmissionDIA(mapping, settings), nil
}

// CollisionEnergyDIA builds the collision-energy model from the window
// tables.
func (h *DataHandle) CollisionEnergyDIA() (*CollisionEnergyDIA, error) {
	mapping, err := h.ReadFrameToWindowGroup()
	if err != nil {
		return nil, err
	}
	settings, err := h.ReadWindowGroupSettings()
	if err != nil {
		return nil, err
	}
	return NewCollisionEnergyDIA(mapping, settings), nil
}

// IonsOfPeptide bundles the per-ion columns of all ions of one peptide,
// index-aligned across the five slices.
type IonsOfPeptide struct {
	Abundances      []float64
	ScanOccurrences [][]int
	ScanAbundances  [][]float64
	Charges         []int
	Spectra         []spectra.MzSpectrum
}

// FrameAbundances lists the peptides eluting in one frame with their
// relative abundances, index-aligned.
type FrameAbundances struct {
	PeptideIDs []int
	Abundances []float64
}

// BuildPeptideMap indexes peptides by id.
func BuildPeptideMap(peptides []PeptideSim) map[int]PeptideSim {
	m := make(map[int]PeptideSim, len(peptides))
	for _, p := range peptides {
		m[p.PeptideID] = p
	}
	return m
}

// BuildPrecursorFrameIDSet collects the ids of all precursor frames.
func BuildPrecursorFrameIDSet(frames []FrameSim) map[int]struct{} {
	set := make(map[int]struct{})
	for _, f := range frames {
		if f.ParseMsType() == spectra.MsTypePrecursor {
			set[f.FrameID] = struct{}{}
		}
	}
	return set
}

// BuildPeptideToEvents maps peptide id to the absolute number of simulated
// events.
func BuildPeptideToEvents(peptides []PeptideSim) map[int]float64 {
	m := make(map[int]float64, len(peptides))
	for _, p := range peptides {
		m[p.PeptideID] = p.Events
	}
	return m
}

// BuildFrameToRT maps frame id to retention time.
func BuildFrameToRT(frames []FrameSim) map[int]float64 {
	m := make(map[int]float64, len(frames))
	for _, f := range frames {
		m[f.FrameID] = f.Time
	}
	return m
}

// BuildScanToMobility maps scan number to inverse mobility.
func BuildScanToMobility(scans []ScanSim) map[int]float64 {
	m := make(map[int]float64, len(scans))
	for _, s := range scans {
		m[s.Scan] = s.Mobility
	}
	return m
}

// BuildFrameToAbundances inverts the per-peptide frame occurrence lists
// into a frame-indexed map of co-eluting peptides.
func BuildFrameToAbundances(peptides []PeptideSim) map[int]FrameAbundances {
	m := make(map[int]FrameAbundances)
	for _, p := range peptides {
		for i, frameID := range p.FrameOccurrence {
			fa := m[frameID]
			fa.PeptideIDs = append(fa.PeptideIDs, p.PeptideID)
			fa.Abundances = append(fa.Abundances, p.FrameAbundance[i])
			m[frameID] = fa
		}
	}
	return m
}

// BuildPeptideToIons groups ion rows by peptide id.
func BuildPeptideToIons(ions []IonSim) map[int]IonsOfPeptide {
	m := make(map[int]IonsOfPeptide)
	for _, ion := range ions {
		entry := m[ion.PeptideID]
		entry.Abundances = append(entry.Abundances, ion.RelativeAbundance)
		entry.ScanOccurrences = append(entry.ScanOccurrences, ion.ScanOccurrence)
		entry.ScanAbundances = append(entry.ScanAbundances, ion.ScanAbundance)
		entry.Charges = append(entry.Charges, ion.Charge)
		entry.Spectra = append(entry.Spectra, ion.Spectrum)
		m[ion.PeptideID] = entry
	}
	return m
}

// BuildFragmentIonIndex indexes fragment-ion series by (peptide, charge,
// quantized collision energy). Rows sharing a key append their series.
func BuildFragmentIonIndex(fragmentIons []FragmentIonSim) map[FragmentKey][]FragmentIonSeries {
	m := make(map[FragmentKey][]FragmentIonSeries)
	for _, f := range fragmentIons {
		key := FragmentKey{
			PeptideID: f.PeptideID,
			Charge:    f.Charge,
			Energy:    QuantizeEnergy(f.CollisionEnergy),
		}
		m[key] = append(m[key], f.FragmentIntensities...)
	}
	return m
}
