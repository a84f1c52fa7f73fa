// Package httpapi serves the node's status/config web surface: GET /status,
// GET /config, POST /config-save, GET /audiodevice-list, GET /metrics.
package httpapi

import (
	"net/http"
	"os"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ampnode/config"
	"ampnode/devscan"
	"ampnode/logx"
	"ampnode/router"
)

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o600)
}

// StatusSnapshot is the value the primary loop publishes for the status
// page to read; it is copied, never shared by pointer, so a secondary-thread
// read never races the primary loop's next publish.
type StatusSnapshot struct {
	Node          string         `json:"node"`
	ActiveCalls   int            `json:"activeCalls"`
	DroppedTotal  uint64         `json:"droppedTotal"`
	RecentLog     []logx.Record  `json:"recentLog"`
}

// Server wires the HTTP surface to read-only snapshots of the primary
// loop's state; it never calls back into Router/Bridge directly, since
// those may only be driven from the primary loop.
type Server struct {
	engine *gin.Engine

	cfg       func() config.Config
	status    func() StatusSnapshot
	saveCfg   func(config.Config) error
	router    *router.Router
	log       *logx.Log
}

// New constructs the gin engine and registers every route. cfgFn/statusFn
// read the latest published snapshots; saveCfg is invoked for
// POST /config-save after the validated document has been written to the
// config path, and must itself be safe to call from the HTTP goroutine.
func New(cfgFn func() config.Config, statusFn func() StatusSnapshot, saveCfg func(config.Config) error, r *router.Router, log *logx.Log) *Server {
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(gin.Recovery())

	s := &Server{engine: e, cfg: cfgFn, status: statusFn, saveCfg: saveCfg, router: r, log: log}

	e.GET("/status", s.getStatus)
	e.GET("/config", s.getConfig)
	e.POST("/config-save", s.postConfigSave)
	e.GET("/audiodevice-list", s.getAudioDeviceList)
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s
}

// Run starts serving on addr; it blocks, so callers must invoke it from a
// dedicated UI goroutine, never the primary loop.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) getStatus(c *gin.Context) {
	snap := s.status()
	c.JSON(http.StatusOK, snap)
}

func (s *Server) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.cfg().Snapshot())
}

func (s *Server) postConfigSave(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var raw map[string]any
	if err := sonic.Unmarshal(body, &raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	path := s.cfg().Path
	cfg, err := config.ParseBytes(body, path)
	if err != nil {
		s.log.Warn("config-save rejected", "err", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// Only write to disk once the submitted document has passed validation,
	// so a rejected save never clobbers the last-known-good config file.
	data, _ := sonic.Marshal(raw)
	if err := writeFile(path, data); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := s.saveCfg(cfg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) getAudioDeviceList(c *gin.Context) {
	devices, err := devscan.ListUSBSoundDevices()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices})
}
