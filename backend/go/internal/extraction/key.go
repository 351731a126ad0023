package extraction

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/djherbis/times"
)

// Params are the pipeline settings that change what an extraction yields.
// They are part of the cache key so a config change never serves stale text.
type Params struct {
	MaxEdge  int `json:"maxEdge"`
	Quality  int `json:"quality"`
	MaxPages int `json:"maxPages"`
}

// Key identifies an extraction: the artifact's path, size and modification
// time plus a fingerprint of the options.
type Key struct {
	Path        string
	Size        int64
	ModTimeMs   int64
	Fingerprint string
}

// String renders the key as path_size_mtime_fingerprint.
func (k Key) String() string {
	return fmt.Sprintf("%s_%d_%d_%s", k.Path, k.Size, k.ModTimeMs, k.Fingerprint)
}

// NewKey stats path and derives its cache key.
func NewKey(path string, kind Kind, opts Options, params Params) (Key, error) {
	ts, err := times.Stat(path)
	if err != nil {
		return Key{}, fmt.Errorf("stat artifact: %w", err)
	}
	size, err := fileSize(path)
	if err != nil {
		return Key{}, err
	}
	return Key{
		Path:        path,
		Size:        size,
		ModTimeMs:   ts.ModTime().UnixMilli(),
		Fingerprint: Fingerprint(kind, opts, params),
	}, nil
}

// Fingerprint hashes everything besides file identity that affects output.
// Languages are hashed in the given order: tesseract treats the first one
// as primary, so "eng+por" and "por+eng" can produce different text.
func Fingerprint(kind Kind, opts Options, params Params) string {
	langs := opts.Languages
	if kind == KindPDF {
		// PDFs never reach the OCR engine.
		langs = nil
		params.MaxEdge, params.Quality = 0, 0
	} else {
		params.MaxPages = 0
	}
	payload, _ := json.Marshal(struct {
		Kind      Kind     `json:"kind"`
		Languages []string `json:"languages"`
		Params    Params   `json:"params"`
	}{kind, langs, params})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:16])
}

func fileSize(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat artifact: %w", err)
	}
	return fi.Size(), nil
}
