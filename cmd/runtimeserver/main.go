// Command runtimeserver is a thin HTTP front door over pkg/runtime. It is a
// driver, not a prescribed wire protocol (spec's model/UI Non-goals still
// apply) - a single in-process demo agent registry and an in-memory run
// store, modeled on the teacher's examples/gin-server demo.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agentcore/runtime/pkg/runtime"
)

// runStore holds completed/interrupted runs in memory, keyed by a generated
// run id, so a later resume request can find the RunState to continue.
type runStore struct {
	mu      sync.Mutex
	results map[string]*runtime.RunResult
}

func newRunStore() *runStore {
	return &runStore{results: make(map[string]*runtime.RunResult)}
}

func (s *runStore) put(id string, result *runtime.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[id] = result
}

func (s *runStore) get(id string) (*runtime.RunResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[id]
	return r, ok
}

var store = newRunStore()

// agents is the fixed demo registry; a real deployment would resolve agents
// from application code rather than over the wire (spec §1 excludes a
// network wire protocol for agent definitions themselves).
var agents map[string]*runtime.Agent

type runRequest struct {
	Agent string `json:"agent" binding:"required"`
	Input string `json:"input" binding:"required"`
}

type approvalDecisionRequest struct {
	Approve      bool                   `json:"approve"`
	Reason       string                 `json:"reason"`
	ModifiedArgs map[string]interface{} `json:"modifiedArgs"`
}

type resumeRequest struct {
	Decisions []approvalDecisionRequest `json:"decisions" binding:"required"`
}

type pendingApproval struct {
	ID       string                 `json:"id"`
	ToolName string                 `json:"toolName"`
	Args     map[string]interface{} `json:"args"`
}

type runResponse struct {
	RunID               string            `json:"runId"`
	FinalOutput         interface{}       `json:"finalOutput,omitempty"`
	FinishReason        string            `json:"finishReason"`
	NeedsApproval       bool              `json:"needsApproval"`
	PendingApprovals    []pendingApproval `json:"pendingApprovals,omitempty"`
	HandoffChain        []string          `json:"handoffChain,omitempty"`
	TotalToolCalls      int               `json:"totalToolCalls"`
	TotalTokens         int64             `json:"totalTokens"`
	OutputParseWarning  string            `json:"outputParseWarning,omitempty"`
}

func main() {
	agents = demoAgents()

	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()
	r.Use(corsMiddleware())

	r.GET("/health", handleHealth)
	r.POST("/runs", handleCreateRun)
	r.GET("/runs/:id", handleGetRun)
	r.POST("/runs/:id/resume", handleResumeRun)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("runtimeserver starting on port %s", port)
	log.Printf("  POST /runs             - start a run")
	log.Printf("  GET  /runs/:id         - fetch a run's last known result")
	log.Printf("  POST /runs/:id/resume  - resume a run paused on approval")
	log.Printf("  GET  /health           - health check")

	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now().Unix()})
}

func handleCreateRun(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	agent, ok := agents[req.Agent]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown agent: " + req.Agent})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 90*time.Second)
	defer cancel()

	result, err := runtime.Run(ctx, agent, req.Input, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	runID := uuid.NewString()
	store.put(runID, result)
	c.JSON(http.StatusOK, toRunResponse(runID, result))
}

func handleGetRun(c *gin.Context) {
	result, ok := store.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown run id"})
		return
	}
	c.JSON(http.StatusOK, toRunResponse(c.Param("id"), result))
}

func handleResumeRun(c *gin.Context) {
	runID := c.Param("id")
	result, ok := store.get(runID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown run id"})
		return
	}
	if !runtime.NeedsApproval(result) {
		c.JSON(http.StatusConflict, gin.H{"error": "run is not awaiting approval"})
		return
	}

	var req resumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	decisions := make([]runtime.ApprovalDecision, len(req.Decisions))
	for i, d := range req.Decisions {
		decisions[i] = runtime.ApprovalDecision{Approve: d.Approve, Reason: d.Reason, ModifiedArgs: d.ModifiedArgs}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 90*time.Second)
	defer cancel()

	resumed, err := runtime.ResumeAfterApproval(ctx, result.State, decisions, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	store.put(runID, resumed)
	c.JSON(http.StatusOK, toRunResponse(runID, resumed))
}

func toRunResponse(runID string, result *runtime.RunResult) runResponse {
	resp := runResponse{
		RunID:              runID,
		FinalOutput:        result.FinalOutput,
		FinishReason:       result.Metadata.FinishReason,
		NeedsApproval:      runtime.NeedsApproval(result),
		HandoffChain:       result.Metadata.HandoffChain,
		TotalToolCalls:      result.Metadata.TotalToolCalls,
		TotalTokens:        result.Metadata.TotalTokens,
		OutputParseWarning: result.Metadata.OutputParseWarning,
	}
	for _, p := range runtime.GetPendingApprovals(result) {
		resp.PendingApprovals = append(resp.PendingApprovals, pendingApproval{ID: p.ID, ToolName: p.ToolName, Args: p.Args})
	}
	return resp
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
