package exposure

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// analysisTimeLayout names analysis files so lexicographic order is
// chronological order.
const analysisTimeLayout = "20060102_150405"

// analysisFileGlob matches analysis files inside an analysis directory.
const analysisFileGlob = "portfolio_analysis_*.json"

// SaveAnalysis writes the report as a new timestamped file under dir,
// creating the directory when needed, and returns the path it wrote.
// Files are named portfolio_analysis_<timestamp>.json after the report's
// own timestamp, so saving never overwrites an earlier analysis.
func SaveAnalysis(dir string, report *ExposureReport) (string, error) {
	if report == nil {
		return "", ErrNoAnalysis
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("could not create analysis directory %q: %w", dir, err)
	}

	name := fmt.Sprintf("portfolio_analysis_%s.json", report.Timestamp.UTC().Format(analysisTimeLayout))
	fullPath := filepath.Join(dir, name)

	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("error opening analysis file %q for writing: %w", fullPath, err)
	}
	defer f.Close()

	if err := EncodeAnalysis(f, report); err != nil {
		return "", fmt.Errorf("could not encode analysis file %q: %w", fullPath, err)
	}
	return fullPath, nil
}

// LoadAnalysis opens and decodes a single analysis file.
func LoadAnalysis(fullPath string) (*ExposureReport, error) {
	f, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("could not open analysis file %q: %w", fullPath, err)
	}
	defer f.Close()

	report, err := DecodeAnalysis(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode analysis file %q: %w", fullPath, err)
	}
	return report, nil
}

// FindAnalysisFiles returns the analysis files under dir, newest first.
// A missing directory is not an error, it is simply empty.
func FindAnalysisFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, analysisFileGlob))
	if err != nil {
		return nil, fmt.Errorf("could not scan analysis directory %q: %w", dir, err)
	}
	// timestamped names sort chronologically
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	return files, nil
}

// LatestAnalysis loads the most recent analysis under dir and returns it
// with the path it came from. It fails with ErrNoAnalysis when the
// directory holds none.
func LatestAnalysis(dir string) (*ExposureReport, string, error) {
	files, err := FindAnalysisFiles(dir)
	if err != nil {
		return nil, "", err
	}
	if len(files) == 0 {
		return nil, "", fmt.Errorf("directory %q: %w", dir, ErrNoAnalysis)
	}
	report, err := LoadAnalysis(files[0])
	if err != nil {
		return nil, "", err
	}
	return report, files[0], nil
}
