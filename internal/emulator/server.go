// Package emulator is an in-process stand-in for the hosted runtime
// service. It speaks the same REST surface the wire client does, backed by
// an in-memory store, a worker-pool executor and a seeded fake measurement
// model, so the SDK can be exercised without network access or credentials.
package emulator

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SooluThomas/qiskit-ibm-runtime/internal/api"
	"github.com/SooluThomas/qiskit-ibm-runtime/internal/config"
)

type Server struct {
	store    *Store
	executor *Executor
	logger   *zap.Logger
}

func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) *Server {
	store := NewStore()
	runner := NewRunner(cfg.Backend.Seed, cfg.Backend.Noise)
	executor := NewExecutor(ctx, cfg.Executor.Workers,
		time.Duration(cfg.Executor.QueueDelayMS)*time.Millisecond,
		store, runner, logger)
	return &Server{store: store, executor: executor, logger: logger}
}

// Shutdown stops the executor and waits for in-flight jobs.
func (s *Server) Shutdown() {
	s.executor.Shutdown()
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requireToken)

	r.GET("/backends", s.listBackends)
	r.GET("/backends/:name", s.getBackend)

	r.GET("/programs", s.listPrograms)
	r.POST("/programs", s.uploadProgram)
	r.GET("/programs/:id", s.getProgram)
	r.PATCH("/programs/:id", s.updateProgram)
	r.DELETE("/programs/:id", s.deleteProgram)

	r.POST("/jobs", s.createJob)
	r.GET("/jobs/:id", s.getJob)
	r.GET("/jobs/:id/results", s.getJobResult)
	r.GET("/jobs/:id/logs", s.getJobLogs)
	r.POST("/jobs/:id/cancel", s.cancelJob)

	return r
}

// requireToken accepts any non-empty bearer token; the emulator has no
// account system, it only mirrors the service's auth shape.
func (s *Server) requireToken(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") || strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")) == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"code": "unauthorized", "message": "missing or malformed API token",
		})
		return
	}
	c.Next()
}

func notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "message": message})
}

func (s *Server) listBackends(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"backends": s.store.Backends()})
}

func (s *Server) getBackend(c *gin.Context) {
	b, ok := s.store.Backend(c.Param("name"))
	if !ok {
		notFound(c, "no such backend: "+c.Param("name"))
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Server) listPrograms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"programs": s.store.Programs()})
}

func (s *Server) getProgram(c *gin.Context) {
	p, ok := s.store.Program(c.Param("id"))
	if !ok {
		notFound(c, "no such program: "+c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) uploadProgram(c *gin.Context) {
	var req api.UploadProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": "invalid program payload"})
		return
	}
	if req.Name == "" || req.MaxExecutionTime < 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": "bad_request", "message": "program needs a name and a positive max_execution_time",
		})
		return
	}
	p := s.store.AddProgram(&req)
	s.logger.Info("program uploaded", zap.String("program_id", p.ID), zap.String("name", p.Name))
	c.JSON(http.StatusCreated, p)
}

func (s *Server) updateProgram(c *gin.Context) {
	var req api.UploadProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": "invalid program payload"})
		return
	}
	p, err := s.store.UpdateProgram(c.Param("id"), &req)
	if err != nil {
		if err == errBuiltinProgram {
			c.JSON(http.StatusForbidden, gin.H{"code": "forbidden", "message": err.Error()})
			return
		}
		notFound(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) deleteProgram(c *gin.Context) {
	if err := s.store.DeleteProgram(c.Param("id")); err != nil {
		if err == errBuiltinProgram {
			c.JSON(http.StatusForbidden, gin.H{"code": "forbidden", "message": err.Error()})
			return
		}
		notFound(c, err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) createJob(c *gin.Context) {
	var req api.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": "invalid job payload"})
		return
	}
	program, ok := s.store.Program(req.ProgramID)
	if !ok {
		notFound(c, "no such program: "+req.ProgramID)
		return
	}
	backend, ok := s.store.Backend(req.Backend)
	if !ok {
		notFound(c, "no such backend: "+req.Backend)
		return
	}
	if !backend.Operational {
		c.JSON(http.StatusConflict, gin.H{
			"code": "backend_offline", "message": "backend " + backend.Name + " is not operational",
		})
		return
	}

	// A job may tighten the program's wall clock limit but not extend it.
	maxExec := program.MaxExecutionTime
	if req.MaxExecutionTime > 0 && req.MaxExecutionTime < maxExec {
		maxExec = req.MaxExecutionTime
	}

	job := s.store.CreateJob(&req, time.Duration(maxExec)*time.Second)
	if err := s.executor.Submit(job.ID); err != nil {
		s.store.finishJob(job.ID, api.JobFailed, nil, err.Error())
		c.JSON(http.StatusTooManyRequests, gin.H{"code": "queue_full", "message": err.Error()})
		return
	}
	s.logger.Info("job accepted",
		zap.String("job_id", job.ID),
		zap.String("program_id", req.ProgramID),
		zap.String("backend", req.Backend))
	c.JSON(http.StatusCreated, job)
}

func (s *Server) getJob(c *gin.Context) {
	job, ok := s.store.Job(c.Param("id"))
	if !ok {
		notFound(c, "no such job: "+c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) getJobResult(c *gin.Context) {
	result, status, ok := s.store.JobResult(c.Param("id"))
	if !ok {
		notFound(c, "no such job: "+c.Param("id"))
		return
	}
	if status != api.JobCompleted {
		c.JSON(http.StatusConflict, gin.H{
			"code": "not_finished", "message": "job is " + string(status),
		})
		return
	}
	c.Data(http.StatusOK, "application/json", result)
}

func (s *Server) getJobLogs(c *gin.Context) {
	logs, ok := s.store.JobLogs(c.Param("id"))
	if !ok {
		notFound(c, "no such job: "+c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": strings.Join(logs, "\n")})
}

func (s *Server) cancelJob(c *gin.Context) {
	if err := s.store.CancelJob(c.Param("id")); err != nil {
		c.JSON(http.StatusConflict, gin.H{"code": "cancel_failed", "message": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
