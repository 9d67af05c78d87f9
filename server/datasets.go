package server

import (
	"fmt"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/pairedped/pkg/dataset"
	"github.com/cyclopcam/pairedped/pkg/imgdecode"
	"github.com/cyclopcam/pairedped/pkg/pairing"
	"github.com/cyclopcam/pairedped/pkg/storage"
)

// OpenStorage opens the blob store that holds the dataset
func OpenStorage(log logs.Log, cfg StorageConfig) (storage.Storage, error) {
	if cfg.GCS != nil {
		// Google Cloud Storage
		return storage.NewStorageGCS(log, cfg.GCS.Bucket)
	} else if cfg.Filesystem != nil {
		// Filesystem
		return storage.NewStorageFS(log, cfg.Filesystem.Root)
	}
	return nil, fmt.Errorf("One of the storage options must be configured (i.e. either 'filesystem' or 'gcs')")
}

// Decider returns the pairing decider described by the config
func (c *Config) Decider() pairing.Decider {
	if c.Pairing.UnpairedProbability == 0 {
		return pairing.Fixed(pairing.Paired)
	}
	return pairing.Seeded{
		Seed:                c.Pairing.Seed,
		UnpairedProbability: c.Pairing.UnpairedProbability,
	}
}

// OpenSplit builds the dataset of a named split.
// If decoder is nil, images are decoded with imgdecode.
func (c *Config) OpenSplit(log logs.Log, store storage.Storage, name string, decoder dataset.ImageDecoder) (*dataset.Dataset, error) {
	split, ok := c.Splits[name]
	if !ok {
		return nil, fmt.Errorf("Unknown split '%v'", name)
	}
	if decoder == nil {
		decoder = &imgdecode.Decoder{}
	}
	return dataset.New(log, dataset.Options{
		Store:     store,
		ListFile:  split.ListFile(c.ImageSetDir),
		Root:      c.DatasetRoot,
		Layout:    c.Layout,
		Format:    c.AnnotationFormat,
		Mode:      split.Mode,
		Condition: split.IgnoreCondition(),
		Decoder:   decoder,
		Pairing:   c.Decider(),
	})
}
