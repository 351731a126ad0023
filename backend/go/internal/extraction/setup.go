package extraction

import (
	"Paggo/backend/go/internal/config"
	"Paggo/backend/go/internal/metrics"
	"Paggo/backend/go/internal/ocr"
	"Paggo/backend/go/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// CacheFromConfig builds the cache selected by cfg. rdb is only consulted
// for the redis backend and may be nil otherwise.
func CacheFromConfig(cfg config.CacheConfig, rdb redis.Cmdable, m *metrics.Metrics, log *logger.Logger) (Cache, error) {
	if cfg.Backend == "redis" {
		return NewRedisCache(rdb, cfg.RedisPrefix, log), nil
	}
	return NewCache(CacheSettings{
		Backend:  cfg.Backend,
		Policy:   cfg.Policy,
		Capacity: cfg.Capacity,
		OnEvict:  m.CacheEviction,
	})
}

// FromConfig wires an Extractor with the OCR and PDF settings of cfg.
func FromConfig(cfg *config.AppConfig, cache Cache, engine Recognizer, m *metrics.Metrics, log *logger.Logger) *Extractor {
	return NewExtractor(Config{
		Cache:  cache,
		Engine: engine,
		Preprocessor: ocr.Preprocessor{
			MaxEdge: cfg.OCR.MaxEdge,
			Quality: cfg.OCR.JPEGQuality,
			WorkDir: cfg.OCR.WorkDir,
		},
		PDF:              PDFExtractor{MaxPages: cfg.PDF.MaxPages},
		MaxPages:         cfg.PDF.MaxPages,
		DefaultLanguages: cfg.OCR.Languages,
		Metrics:          m,
		Logger:           log,
	})
}
