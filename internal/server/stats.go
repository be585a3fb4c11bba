package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) HandleStats(c *gin.Context) {
	solutionCount, err := s.repository.Solutions().SolutionCount(c)
	if err != nil {
		s.logger.Error("Failed to get solution count", zap.Error(err))
		c.JSON(500, gin.H{"error": "failed to get solution count"})
		return
	}

	queueDepth, err := s.results.QueueDepth(c)
	if err != nil {
		s.logger.Error("Failed to get ranking queue depth", zap.Error(err))
		c.JSON(500, gin.H{"error": "failed to get ranking queue depth"})
		return
	}

	cursors, err := s.state.Cursors(c)
	if err != nil {
		s.logger.Error("Failed to get event cursors", zap.Error(err))
		c.JSON(500, gin.H{"error": "failed to get event cursors"})
		return
	}

	c.IndentedJSON(200, gin.H{
		"solution_count": solutionCount,
		"queue_depth":    queueDepth,
		"cursors":        cursors,
		"polling":        s.poller.Running(),
	})
}
