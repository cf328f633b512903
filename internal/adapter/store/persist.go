package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"reviewrag/internal/domain"
)

var (
	bucketVectors = []byte("vectors")
	bucketIDs     = []byte("ids")
	bucketSchema  = []byte("schema")

	keyModel     = []byte("model_name")
	keyDimension = []byte("dimension")
	keyCount     = []byte("count")
)

// indexMeta is the JSON sidecar written next to the vector file.
type indexMeta struct {
	SchemaVersion int              `json:"schema_version"`
	ModelName     string           `json:"model_name"`
	Dimension     int              `json:"dimension"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	Documents     []storedDocument `json:"documents"`
}

type storedDocument struct {
	ID       string                `json:"id"`
	Text     string                `json:"text"`
	Metadata domain.ReviewMetadata `json:"metadata"`
}

func vectorFile(path string) string { return path + ".vec" }
func metaFile(path string) string   { return path + ".meta.json" }

// Exists reports whether a persisted index is present at path.
func Exists(path string) bool {
	return fileExists(vectorFile(path)) && fileExists(metaFile(path))
}

// Save writes the vector file and its metadata sidecar. Each file is
// written under a temporary name and renamed into place.
func (x *VectorIndex) Save() error {
	if x.path == "" {
		return fmt.Errorf("index has no storage path")
	}
	if x.state == domain.IndexUnloaded {
		return domain.ErrIndexNotLoaded
	}
	if err := os.MkdirAll(filepath.Dir(x.path), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	now := time.Now().UTC()
	if x.createdAt.IsZero() {
		x.createdAt = now
	}

	vecTmp := vectorFile(x.path) + ".tmp"
	if err := x.writeVectors(vecTmp); err != nil {
		os.Remove(vecTmp)
		return err
	}

	meta := indexMeta{
		SchemaVersion: CurrentSchemaVersion,
		ModelName:     x.model,
		Dimension:     x.dimension,
		CreatedAt:     x.createdAt,
		UpdatedAt:     now,
		Documents:     make([]storedDocument, len(x.docs)),
	}
	for i, d := range x.docs {
		meta.Documents[i] = storedDocument{ID: d.ID, Text: d.Text, Metadata: d.Metadata}
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		os.Remove(vecTmp)
		return fmt.Errorf("failed to encode index metadata: %w", err)
	}
	metaTmp := metaFile(x.path) + ".tmp"
	if err := os.WriteFile(metaTmp, data, 0644); err != nil {
		os.Remove(vecTmp)
		return fmt.Errorf("failed to write index metadata: %w", err)
	}

	if err := os.Rename(vecTmp, vectorFile(x.path)); err != nil {
		return fmt.Errorf("failed to replace vector file: %w", err)
	}
	if err := os.Rename(metaTmp, metaFile(x.path)); err != nil {
		return fmt.Errorf("failed to replace metadata file: %w", err)
	}
	return nil
}

func (x *VectorIndex) writeVectors(path string) error {
	os.Remove(path)
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to open vector file: %w", err)
	}
	defer db.Close()

	return db.Update(func(tx *bbolt.Tx) error {
		vectors, err := tx.CreateBucket(bucketVectors)
		if err != nil {
			return err
		}
		ids, err := tx.CreateBucket(bucketIDs)
		if err != nil {
			return err
		}
		schema, err := tx.CreateBucket(bucketSchema)
		if err != nil {
			return err
		}

		for i, d := range x.docs {
			key := seqKey(i)
			if err := vectors.Put(key, encodeVector(d.Vector)); err != nil {
				return err
			}
			if err := ids.Put(key, []byte(d.ID)); err != nil {
				return err
			}
		}

		if err := schema.Put(keySchemaVersion, seqKey(CurrentSchemaVersion)); err != nil {
			return err
		}
		if err := schema.Put(keyModel, []byte(x.model)); err != nil {
			return err
		}
		if err := schema.Put(keyDimension, seqKey(x.dimension)); err != nil {
			return err
		}
		return schema.Put(keyCount, seqKey(len(x.docs)))
	})
}

// Load reads the persisted index. It fails when only one of the two files
// exists, when they disagree with each other, or when they were built with
// a different embedding model or dimension than this index was opened for.
func (x *VectorIndex) Load() error {
	if x.path == "" {
		return fmt.Errorf("index has no storage path")
	}

	vecExists, metaExists := fileExists(vectorFile(x.path)), fileExists(metaFile(x.path))
	switch {
	case !vecExists && !metaExists:
		x.docs = nil
		x.state = domain.IndexEmpty
		return nil
	case !vecExists:
		return fmt.Errorf("%w: missing %s", domain.ErrIndexCorrupt, vectorFile(x.path))
	case !metaExists:
		return fmt.Errorf("%w: missing %s", domain.ErrIndexCorrupt, metaFile(x.path))
	}

	data, err := os.ReadFile(metaFile(x.path))
	if err != nil {
		return fmt.Errorf("failed to read index metadata: %w", err)
	}
	var meta indexMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("%w: metadata: %v", domain.ErrIndexCorrupt, err)
	}

	if res := CheckSchema(meta.SchemaVersion); res.NeedsRebuild {
		return fmt.Errorf("%w: %s", domain.ErrIndexCorrupt, res.Reason)
	}
	if meta.ModelName != x.model {
		return fmt.Errorf("%w: index built with %q, configured %q", domain.ErrModelMismatch, meta.ModelName, x.model)
	}
	if meta.Dimension != x.dimension {
		return fmt.Errorf("%w: index has %d, embedder has %d", domain.ErrDimensionMismatch, meta.Dimension, x.dimension)
	}

	docs, err := readVectors(vectorFile(x.path), meta)
	if err != nil {
		return err
	}

	x.docs = docs
	x.createdAt = meta.CreatedAt
	x.generation++
	if len(docs) == 0 {
		x.state = domain.IndexEmpty
	} else {
		x.state = domain.IndexBuilt
	}
	return nil
}

func readVectors(path string, meta indexMeta) ([]domain.IndexedDocument, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open vector file: %w", err)
	}
	defer db.Close()

	docs := make([]domain.IndexedDocument, len(meta.Documents))
	err = db.View(func(tx *bbolt.Tx) error {
		vectors, ids, schema := tx.Bucket(bucketVectors), tx.Bucket(bucketIDs), tx.Bucket(bucketSchema)
		if vectors == nil || ids == nil || schema == nil {
			return errors.New("missing buckets")
		}

		if string(schema.Get(keyModel)) != meta.ModelName {
			return fmt.Errorf("vector file model %q differs from metadata %q", schema.Get(keyModel), meta.ModelName)
		}
		if n := decodeSeq(schema.Get(keyCount)); n != len(meta.Documents) {
			return fmt.Errorf("vector file holds %d vectors, metadata lists %d documents", n, len(meta.Documents))
		}

		i := 0
		c := vectors.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if i >= len(docs) {
				return fmt.Errorf("more vectors than documents")
			}
			sd := meta.Documents[i]
			if id := string(ids.Get(k)); id != sd.ID {
				return fmt.Errorf("position %d: vector id %q, metadata id %q", i, id, sd.ID)
			}
			vec, err := decodeVector(v)
			if err != nil {
				return fmt.Errorf("position %d: %w", i, err)
			}
			if len(vec) != meta.Dimension {
				return fmt.Errorf("position %d: vector has %d dimensions, expected %d", i, len(vec), meta.Dimension)
			}
			docs[i] = domain.IndexedDocument{ID: sd.ID, Text: sd.Text, Vector: vec, Metadata: sd.Metadata}
			i++
		}
		if i != len(docs) {
			return fmt.Errorf("vector file holds %d vectors, metadata lists %d documents", i, len(docs))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}
	return docs, nil
}

func seqKey(i int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(i))
	return b
}

func decodeSeq(b []byte) int {
	if len(b) != 8 {
		return -1
	}
	return int(binary.BigEndian.Uint64(b))
}

func encodeVector(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}
	return b
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func anyExists(paths ...string) bool {
	for _, p := range paths {
		if fileExists(p) {
			return true
		}
	}
	return false
}
