package extraction

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"Paggo/backend/go/internal/metrics"
	"Paggo/backend/go/internal/ocr"
	"Paggo/backend/go/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// Recognizer is the OCR engine as seen by the extractor.
type Recognizer interface {
	Recognize(ctx context.Context, img []byte, languages []string) (ocr.Recognition, error)
}

// TextExtractor reads embedded text out of a PDF.
type TextExtractor interface {
	ExtractText(data []byte) (string, error)
}

// Config wires an Extractor.
type Config struct {
	Cache            Cache
	Engine           Recognizer
	Preprocessor     ocr.Preprocessor
	PDF              TextExtractor
	MaxPages         int
	DefaultLanguages []string
	Metrics          *metrics.Metrics
	Logger           *logger.Logger
}

// Extractor routes an artifact to OCR or PDF parsing, consulting the cache
// first. Concurrent calls for the same key share one extraction; distinct
// keys never wait on each other.
type Extractor struct {
	cache    Cache
	engine   Recognizer
	pre      ocr.Preprocessor
	pdf      TextExtractor
	params   Params
	langs    []string
	metrics  *metrics.Metrics
	log      *logger.Logger
	inflight singleflight.Group
}

func NewExtractor(cfg Config) *Extractor {
	x := &Extractor{
		cache:   cfg.Cache,
		engine:  cfg.Engine,
		pre:     cfg.Preprocessor,
		pdf:     cfg.PDF,
		langs:   cfg.DefaultLanguages,
		metrics: cfg.Metrics,
		log:     cfg.Logger,
		params: Params{
			MaxEdge:  cfg.Preprocessor.MaxEdge,
			Quality:  cfg.Preprocessor.Quality,
			MaxPages: cfg.MaxPages,
		},
	}
	if x.cache == nil {
		x.cache = NewMemoryCache()
	}
	if x.pdf == nil {
		x.pdf = PDFExtractor{MaxPages: cfg.MaxPages}
	}
	if x.log == nil {
		x.log = logger.Discard()
	}
	return x
}

// Extract returns the text of the artifact at path. mimeType selects the
// path. Once started, an extraction runs to completion even if ctx is
// canceled, so its result still lands in the cache.
func (x *Extractor) Extract(ctx context.Context, path, mimeType string, opts Options) (Result, error) {
	kind, err := KindFor(mimeType, path)
	if err != nil {
		return Result{}, err
	}
	if kind == KindImage && len(opts.Languages) == 0 {
		opts.Languages = x.langs
	}

	key, err := NewKey(path, kind, opts, x.params)
	if err != nil {
		return Result{}, err
	}
	if r, ok := x.cache.Lookup(ctx, key); ok {
		x.metrics.CacheLookup("hit")
		return r, nil
	}
	x.metrics.CacheLookup("miss")

	detached := context.WithoutCancel(ctx)
	v, err, shared := x.inflight.Do(key.String(), func() (interface{}, error) {
		// A flight that finished between our lookup and Do already stored it.
		if r, ok := x.cache.Lookup(detached, key); ok {
			return r, nil
		}
		start := time.Now()
		r, err := x.run(detached, kind, path, opts)
		x.metrics.ObserveExtraction(string(kind), err, time.Since(start))
		if err != nil {
			return Result{}, err
		}
		x.cache.Store(detached, key, r)
		return r, nil
	})
	if shared {
		x.metrics.CacheLookup("shared")
	}
	if err != nil {
		x.log.WithErr(err).WithPayload(map[string]interface{}{
			"path": path,
			"kind": string(kind),
		}).Warn("extraction failed")
		return Result{}, err
	}
	return v.(Result), nil
}

func (x *Extractor) run(ctx context.Context, kind Kind, path string, opts Options) (Result, error) {
	switch kind {
	case KindPDF:
		data, err := os.ReadFile(path)
		if err != nil {
			return Result{}, fmt.Errorf("read pdf: %w", err)
		}
		text, err := x.pdf.ExtractText(data)
		if err != nil {
			return Result{}, err
		}
		return Result{Text: text, Confidence: 100}, nil
	default:
		if x.engine == nil {
			return Result{}, &ocr.OcrError{Op: "recognize", Err: errors.New("no engine configured")}
		}
		prepared, cleanup, err := x.pre.Prepare(path)
		if err != nil {
			return Result{}, err
		}
		defer cleanup()

		img, err := os.ReadFile(prepared)
		if err != nil {
			return Result{}, &ocr.PreprocessingError{Op: "read", Err: err}
		}
		rec, err := x.engine.Recognize(ctx, img, opts.Languages)
		if err != nil {
			return Result{}, err
		}
		return Result{Text: rec.Text, Confidence: rec.Confidence}, nil
	}
}
