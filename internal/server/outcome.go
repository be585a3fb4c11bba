package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type outcomeUri struct {
	IntentId   string `uri:"intent_id" binding:"required"`
	SolutionId string `uri:"solution_id" binding:"required"`
}

func (s *Server) HandleGetOutcome(c *gin.Context) {
	var uri outcomeUri
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancelFunc := context.WithTimeout(c, time.Second*5)
	defer cancelFunc()

	body, httpErr := s.lookupOutcome(ctx, uri.IntentId, uri.SolutionId)
	if httpErr != nil {
		c.JSON(httpErr.ResponseCode, gin.H{"error": httpErr.Error()})
		return
	}

	c.JSON(http.StatusOK, body)
}

// lookupOutcome checks the passed namespace first, then the failed one. An
// outcome absent from both either never existed or has expired from the
// result cache.
func (s *Server) lookupOutcome(ctx context.Context, intentId, solutionId string) (gin.H, *HttpError) {
	passed, found, err := s.results.SolutionResult(ctx, intentId, solutionId)
	if err != nil {
		s.logger.Error("failed to look up solution result",
			zap.String("intent_id", intentId),
			zap.String("solution_id", solutionId),
			zap.Error(err),
		)
		return nil, NewHttpError(http.StatusInternalServerError, "failed to look up solution result")
	}

	if found {
		return gin.H{"passed": true, "result": passed}, nil
	}

	failed, found, err := s.results.FailedSolution(ctx, intentId, solutionId)
	if err != nil {
		s.logger.Error("failed to look up failed solution",
			zap.String("intent_id", intentId),
			zap.String("solution_id", solutionId),
			zap.Error(err),
		)
		return nil, NewHttpError(http.StatusInternalServerError, "failed to look up failed solution")
	}

	if found {
		return gin.H{"passed": false, "result": failed}, nil
	}

	return nil, NewHttpError(http.StatusNotFound, "outcome not found")
}
