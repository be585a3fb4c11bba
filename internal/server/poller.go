package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) HandleStartPoller(c *gin.Context) {
	if s.poller.Running() {
		c.JSON(http.StatusConflict, gin.H{"error": "poller already running"})
		return
	}

	s.poller.Start()
	s.logger.Info("Poller started via API")
	c.JSON(http.StatusOK, gin.H{"polling": true})
}

func (s *Server) HandleStopPoller(c *gin.Context) {
	if !s.poller.Running() {
		c.JSON(http.StatusConflict, gin.H{"error": "poller not running"})
		return
	}

	if err := s.poller.Stop(); err != nil {
		s.logger.Error("Failed to stop poller", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to stop poller"})
		return
	}

	s.logger.Info("Poller stopped via API")
	c.JSON(http.StatusOK, gin.H{"polling": false})
}
