package server

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"sort"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/pairedped/pkg/annot"
	"github.com/cyclopcam/pairedped/pkg/dataset"
	"github.com/cyclopcam/pairedped/pkg/ignore"
)

type Config struct {
	DB               dbh.DBConfig           `json:"db"`               // Export database
	DatasetStorage   StorageConfig          `json:"datasetStorage"`   // Where the dataset files live
	DatasetRoot      string                 `json:"datasetRoot"`      // Dataset root, relative to the store (eg "kaist-rgbt")
	ImageSetDir      string                 `json:"imageSetDir"`      // Directory of frame list files, relative to the store
	Layout           dataset.Layout         `json:"layout"`           // Optional overrides of the directory names inside the dataset root
	AnnotationFormat annot.Format           `json:"annotationFormat"` // "text" or "tree"
	Splits           map[string]SplitConfig `json:"splits"`
	Pairing          PairingConfig          `json:"pairing"`
	Listen           string                 `json:"listen"`  // HTTP listen address, eg ":8090"
	Workers          int                    `json:"workers"` // Concurrency of export and summary. Zero means 4.
}

// One of the storage options must be configured (i.e. either 'filesystem' or 'gcs')
type StorageConfig struct {
	Filesystem *StorageConfigFS  `json:"filesystem"`
	GCS        *StorageConfigGCS `json:"gcs"`
}

type StorageConfigFS struct {
	Root string `json:"root"` // Path to the root of the filesystem
}

type StorageConfigGCS struct {
	Bucket string `json:"bucket"` // Name of the GCS bucket
}

// SplitConfig is a named subset of the dataset, such as "train" or "test"
type SplitConfig struct {
	ImageSet  string                  `json:"imageSet"`  // Frame list file, inside ImageSetDir (eg "train-all-02.txt")
	Mode      dataset.SupervisionMode `json:"mode"`      // "train" or "test"
	Condition *ignore.Condition       `json:"condition"` // If omitted, the default condition of the mode
}

// PairingConfig controls the paired/unpaired decision of each training frame.
// When UnpairedProbability is zero, every frame is paired.
type PairingConfig struct {
	Seed                uint64  `json:"seed"`
	UnpairedProbability float64 `json:"unpairedProbability"`
}

func LoadConfig(filename string) (*Config, error) {
	cfg := &Config{}
	if cfgB, err := os.ReadFile(filename); err != nil {
		return nil, err
	} else {
		if err := json.Unmarshal(cfgB, cfg); err != nil {
			return nil, fmt.Errorf("Error parsing config file %v: %w", filename, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("Invalid config file %v: %w", filename, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatasetStorage.Filesystem == nil && c.DatasetStorage.GCS == nil {
		return fmt.Errorf("One of the storage options must be configured (i.e. either 'filesystem' or 'gcs')")
	}
	if len(c.Splits) == 0 {
		return fmt.Errorf("No splits configured")
	}
	for name, split := range c.Splits {
		if split.ImageSet == "" {
			return fmt.Errorf("Split '%v' has no imageSet", name)
		}
	}
	if c.Pairing.UnpairedProbability < 0 || c.Pairing.UnpairedProbability > 1 {
		return fmt.Errorf("pairing.unpairedProbability must be between 0 and 1")
	}
	return nil
}

// SplitNames returns the names of all splits, sorted
func (c *Config) SplitNames() []string {
	names := []string{}
	for name := range c.Splits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NumWorkers returns the configured concurrency
func (c *Config) NumWorkers() int {
	if c.Workers <= 0 {
		return 4
	}
	return c.Workers
}

// ListFile returns the store path of the split's frame list
func (s *SplitConfig) ListFile(imageSetDir string) string {
	return path.Join(imageSetDir, s.ImageSet)
}

// IgnoreCondition returns the split's condition, or the default for its mode
func (s *SplitConfig) IgnoreCondition() ignore.Condition {
	if s.Condition != nil {
		return *s.Condition
	}
	if s.Mode == dataset.Evaluation {
		return ignore.DefaultTestCondition()
	}
	return ignore.DefaultTrainCondition()
}
