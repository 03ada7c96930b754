package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolhub/internal/services"
)

type TaskHandler struct {
	runner *services.TaskRunner
}

func NewTaskHandler(runner *services.TaskRunner) *TaskHandler {
	return &TaskHandler{runner: runner}
}

// @Summary  Queue the welcome email task
// @Tags     Tasks
// @Accept   json
// @Produce  json
// @Router   /tasks/welcome-email [post]
func (h *TaskHandler) EnqueueWelcomeEmail(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := h.runner.Enqueue(services.TaskSendWelcomeEmail, req.Email)
	if err != nil {
		if errors.Is(err, services.ErrRunnerStopped) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[tasks][enqueue] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue task"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"task_id": id, "message": "Email task queued"})
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	res, ok := h.runner.Result(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
		return
	}
	c.JSON(http.StatusOK, res)
}
