package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/intenus/preranker/internal/config"
	"github.com/intenus/preranker/pkg/poller"
	"github.com/intenus/preranker/pkg/repository"
	"github.com/intenus/preranker/pkg/results"
	"github.com/intenus/preranker/pkg/state"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	config     config.Config
	logger     *zap.Logger
	repository repository.Repository
	results    results.Store
	state      state.Store
	poller     *poller.Poller
	startTime  time.Time

	router *gin.Engine
}

func NewServer(
	cfg config.Config,
	logger *zap.Logger,
	repo repository.Repository,
	resultStore results.Store,
	stateStore state.Store,
	eventPoller *poller.Poller,
) *Server {
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Server{
		config:     cfg,
		logger:     logger,
		repository: repo,
		results:    resultStore,
		state:      stateStore,
		poller:     eventPoller,
		startTime:  time.Now(),

		router: gin.Default(),
	}
}

func (s *Server) Run() error {
	_ = s.router.SetTrustedProxies(nil)

	s.router.GET("/status", s.HandleStatus)
	s.router.GET("/outcome/:intent_id/:solution_id", s.HandleGetOutcome)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.POST("/poller/start", s.HandleStartPoller)
	s.router.POST("/poller/stop", s.HandleStopPoller)

	// Register development / debug endpoints
	if !s.config.Production {
		s.router.GET("/debug/stats", s.HandleStats)
	}

	return s.router.Run(s.config.Server.Address)
}
