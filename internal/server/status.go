package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) HandleStatus(c *gin.Context) {
	if err := s.repository.TestConnection(); err != nil {
		s.logger.Error("failed to connect to the database", zap.Error(err))
		c.JSON(500, gin.H{"status": "error", "error": "failed to connect to the database"})
		return
	}

	cursors, err := s.state.Cursors(c)
	if err != nil {
		s.logger.Error("failed to read event cursors", zap.Error(err))
		c.JSON(500, gin.H{"status": "error", "error": "failed to read event cursors"})
		return
	}

	queueDepth, err := s.results.QueueDepth(c)
	if err != nil {
		s.logger.Error("failed to read ranking queue depth", zap.Error(err))
		c.JSON(500, gin.H{"status": "error", "error": "failed to read ranking queue depth"})
		return
	}

	c.JSON(200, gin.H{
		"status":         "ok",
		"polling":        s.poller.Running(),
		"cursors":        cursors,
		"queue_depth":    queueDepth,
		"uptime_seconds": int(time.Since(s.startTime) / time.Second),
	})
}
