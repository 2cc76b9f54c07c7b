package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/ledgerctl/internal/extrinsic"
	"github.com/danmuck/ledgerctl/internal/hashing"
	"github.com/danmuck/ledgerctl/internal/hexutil"
	"github.com/danmuck/ledgerctl/internal/observability"
	"github.com/danmuck/ledgerctl/internal/protocol/tlv"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type decodeRequest struct {
	Extrinsics []string `json:"extrinsics"`
	WithHash   bool     `json:"with_hash"`
	Hash       string   `json:"hash"`
}

type hashRequest struct {
	Extrinsics []string `json:"extrinsics"`
	Hash       string   `json:"hash"`
}

type callInfo struct {
	Name        string    `json:"name"`
	PalletIndex uint8     `json:"pallet_index"`
	CallIndex   uint8     `json:"call_index"`
	Args        []argInfo `json:"args"`
}

type argInfo struct {
	ID       uint16 `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Optional bool   `json:"optional,omitempty"`
}

var errBatchTooLarge = errors.New("batch exceeds max_batch")

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.appeared).String(),
			"service": s.cfg.ID,
			"version": version,
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		status := http.StatusOK
		if !s.ready.Load() {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ready":   s.ready.Load(),
			"uptime":  time.Since(s.appeared).String(),
			"service": s.cfg.ID,
			"version": version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/v1", s.apiMiddleware()...)
	v1.GET("/calls", s.listCalls)
	v1.GET("/hashes", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"hashes": hashing.Names(), "default": s.cfg.Hash})
	})
	v1.POST("/extrinsics/decode", s.decodeExtrinsics)
	v1.POST("/extrinsics/hash", s.hashExtrinsics)
}

func (s *Server) listCalls(c *gin.Context) {
	specs := s.runtime.Registry().List()
	calls := make([]callInfo, 0, len(specs))
	for _, spec := range specs {
		args := make([]argInfo, 0, len(spec.Args))
		for _, arg := range spec.Args {
			args = append(args, argInfo{
				ID:       arg.ID,
				Name:     arg.Name,
				Type:     tlv.TypeName(arg.Type),
				Optional: arg.Optional,
			})
		}
		calls = append(calls, callInfo{
			Name:        spec.FullName(),
			PalletIndex: spec.PalletIndex,
			CallIndex:   spec.CallIndex,
			Args:        args,
		})
	}
	c.JSON(http.StatusOK, gin.H{"calls": calls})
}

func (s *Server) decodeExtrinsics(c *gin.Context) {
	var req decodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	hashFn, ok := s.prepareBatch(c, len(req.Extrinsics), req.Hash, req.WithHash)
	if !ok {
		return
	}

	start := time.Now()
	decoded, err := extrinsic.DecodeExtrinsicsContext(c.Request.Context(), s.runtime, req.Extrinsics, req.WithHash, hashFn)
	observability.RecordDecodeBatch("http", len(req.Extrinsics), string(extrinsic.KindOf(err)), time.Since(start))
	if err != nil {
		s.recordFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"extrinsics": decoded})
}

func (s *Server) hashExtrinsics(c *gin.Context) {
	var req hashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	hashFn, ok := s.prepareBatch(c, len(req.Extrinsics), req.Hash, true)
	if !ok {
		return
	}

	hashes := make([]string, 0, len(req.Extrinsics))
	for i, hex := range req.Extrinsics {
		raw, err := hexutil.Decode(hex)
		if err != nil {
			s.recordFailure(c, &extrinsic.RecordError{Index: i, Kind: extrinsic.KindEncoding, Err: err})
			return
		}
		hash, err := hashFn(raw)
		if err != nil {
			s.recordFailure(c, &extrinsic.RecordError{Index: i, Kind: extrinsic.KindHash, Err: err})
			return
		}
		hashes = append(hashes, hash)
	}
	c.JSON(http.StatusOK, gin.H{"hashes": hashes})
}

// prepareBatch enforces max_batch and, when the batch will be hashed,
// resolves the requested hash function. It writes the error response itself
// when a check fails. The returned Func is nil when needHash is false.
func (s *Server) prepareBatch(c *gin.Context, size int, hashName string, needHash bool) (hashing.Func, bool) {
	if s.cfg.MaxBatch > 0 && size > s.cfg.MaxBatch {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": errBatchTooLarge.Error(),
			"limit": s.cfg.MaxBatch,
		})
		return nil, false
	}
	if !needHash {
		return nil, true
	}
	if hashName == "" {
		hashName = s.cfg.Hash
	}
	hashFn, err := hashing.Lookup(hashName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return hashFn, true
}

func (s *Server) recordFailure(c *gin.Context, err error) {
	index, _ := extrinsic.IndexOf(err)
	kind := extrinsic.KindOf(err)
	status := http.StatusUnprocessableEntity
	if kind == extrinsic.KindCanceled {
		status = http.StatusServiceUnavailable
	}
	log.Warn().
		Str(observability.RequestIDKey, requestID(c)).
		Int("index", index).
		Str("kind", string(kind)).
		Err(err).
		Msg("extrinsic batch rejected")
	c.JSON(status, gin.H{
		"error": err.Error(),
		"index": index,
		"kind":  kind,
	})
}
