// Package api serves the captured hardware identity over a local HTTP
// endpoint for diagnostics: the snapshot, the fingerprint, the heuristic
// verdict and a raw SMBIOS structure dump.
package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ExclusiveAccount/hwident/pkg/config"
	"github.com/ExclusiveAccount/hwident/pkg/fingerprint"
	"github.com/ExclusiveAccount/hwident/pkg/hashes"
	"github.com/ExclusiveAccount/hwident/pkg/hwinfo"
	"github.com/ExclusiveAccount/hwident/pkg/smbios"
	"github.com/ExclusiveAccount/hwident/pkg/vmdetect"
)

// Server is the diagnostic API server. It holds one captured snapshot and
// serves derived views of it; Refresh recaptures on demand.
type Server struct {
	config config.Config
	router *gin.Engine
	logger *logrus.Logger
	probe  hwinfo.Probe

	mu         sync.RWMutex
	snapshot   *hwinfo.MotherboardEx
	fpr        hashes.Hash256
	verdict    vmdetect.Verdict
	capturedAt time.Time
}

// NewServer creates a diagnostic server capturing through the default
// probe. A nil logger gets a fresh one.
func NewServer(cfg config.Config, logger *logrus.Logger) *Server {
	return NewServerWith(cfg, logger, hwinfo.DefaultProbe)
}

// NewServerWith creates a diagnostic server capturing through p.
func NewServerWith(cfg config.Config, logger *logrus.Logger, p hwinfo.Probe) *Server {
	if logger == nil {
		logger = logrus.New()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		config: cfg,
		router: router,
		logger: logger,
		probe:  p,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/snapshot", s.handleSnapshot)
		api.GET("/fingerprint", s.handleFingerprint)
		api.GET("/verdict", s.handleVerdict)
		api.GET("/smbios", s.handleSMBIOS)
		api.POST("/refresh", s.handleRefresh)
	}
}

// Refresh recaptures the snapshot and recomputes the fingerprint and
// verdict. The capture itself runs outside the lock.
func (s *Server) Refresh() error {
	snap, err := hwinfo.SnapExWith(s.probe)
	if err != nil {
		return fmt.Errorf("capture snapshot: %w", err)
	}
	fpr := fingerprint.HashEx(snap)
	verdict := vmdetect.AnalyzeEx(snap)

	s.mu.Lock()
	s.snapshot = snap
	s.fpr = fpr
	s.verdict = verdict
	s.capturedAt = time.Now()
	s.mu.Unlock()

	s.logger.Debugf("snapshot refreshed, fingerprint %s, confidence %s", fpr, verdict.Confidence)
	return nil
}

// Start captures the initial snapshot and serves on the configured address,
// blocking until the listener fails.
func (s *Server) Start() error {
	if err := s.Refresh(); err != nil {
		return err
	}
	addr := s.config.ServeAddr()
	s.logger.Infof("diagnostic API listening on http://%s", addr)
	return s.router.Run(addr)
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// current returns the cached snapshot views, or false when nothing has been
// captured yet.
func (s *Server) current() (*hwinfo.MotherboardEx, hashes.Hash256, vmdetect.Verdict, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, s.fpr, s.verdict, s.capturedAt, s.snapshot != nil
}

func (s *Server) handleSnapshot(c *gin.Context) {
	snap, _, _, capturedAt, ok := s.current()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no snapshot captured yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"captured_at": capturedAt,
		"snapshot":    snap,
	})
}

func (s *Server) handleFingerprint(c *gin.Context) {
	snap, fpr, _, capturedAt, ok := s.current()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no snapshot captured yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"captured_at":      capturedAt,
		"fingerprint":      fpr,
		"fingerprint_base": fingerprint.Hash(&snap.Motherboard),
	})
}

func (s *Server) handleVerdict(c *gin.Context) {
	_, _, verdict, capturedAt, ok := s.current()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no snapshot captured yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"captured_at": capturedAt,
		"detections":  verdict.Detections,
		"confidence":  verdict.Confidence,
		"is_virtual":  verdict.IsVirtual(),
	})
}

// smbiosStructure is the JSON view of one walked table structure.
type smbiosStructure struct {
	Type    uint8    `json:"type"`
	Length  uint8    `json:"length"`
	Handle  uint16   `json:"handle"`
	Strings []string `json:"strings,omitempty"`
}

func (s *Server) handleSMBIOS(c *gin.Context) {
	snap, _, _, _, ok := s.current()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no snapshot captured yet"})
		return
	}

	var structures []smbiosStructure
	smbios.Walk(snap.SMBIOS.Data, func(st smbios.Structure) bool {
		structures = append(structures, smbiosStructure{
			Type:    st.Type,
			Length:  st.Length,
			Handle:  st.Handle,
			Strings: st.Strings,
		})
		return true
	})

	c.JSON(http.StatusOK, gin.H{
		"version":    fmt.Sprintf("%d.%d", snap.SMBIOS.Major, snap.SMBIOS.Minor),
		"table_size": len(snap.SMBIOS.Data),
		"structures": structures,
	})
}

func (s *Server) handleRefresh(c *gin.Context) {
	if err := s.Refresh(); err != nil {
		s.logger.Warnf("refresh failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	_, fpr, verdict, capturedAt, _ := s.current()
	c.JSON(http.StatusOK, gin.H{
		"captured_at": capturedAt,
		"fingerprint": fpr,
		"confidence":  verdict.Confidence,
	})
}
