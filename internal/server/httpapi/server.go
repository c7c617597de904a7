// Package httpapi exposes the log directory over REST. Handlers translate
// between JSON DTOs and models and delegate every decision to the directory
// and attachments services; no business rules live here.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/ologd/internal/logging"
	"github.com/dmitrijs2005/ologd/internal/server/attachments"
	sc "github.com/dmitrijs2005/ologd/internal/server/config"
	"github.com/dmitrijs2005/ologd/internal/server/directory"
	"github.com/gin-gonic/gin"
)

type Server struct {
	manager *directory.Manager
	attach  *attachments.Service
	logger  logging.Logger

	httpServer *http.Server
}

func NewServer(cfg *sc.Config, manager *directory.Manager, attach *attachments.Service, logger logging.Logger) *Server {
	s := &Server{
		manager: manager,
		attach:  attach,
		logger:  logger,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(AuthMiddleware([]byte(cfg.SecretKey)))
	s.registerRoutes(router)

	s.httpServer = &http.Server{
		Addr:    cfg.EndpointAddr,
		Handler: router,
	}

	return s
}

func (s *Server) registerRoutes(router *gin.Engine) {
	logs := router.Group("/logs")
	{
		logs.GET("", s.listEntries)
		logs.PUT("", s.createEntries)
		logs.POST("", s.addEntry)
		logs.GET("/:logId", s.getEntry)
		logs.PUT("/:logId", s.createEntry)
		logs.POST("/:logId", s.updateEntry)
		logs.DELETE("/:logId", s.deleteEntry)

		logs.GET("/:logId/attachments", s.listAttachments)
		logs.POST("/:logId/attachments", s.createAttachment)
	}

	logbooks := router.Group("/logbooks")
	{
		logbooks.GET("", s.listLogbooks)
		logbooks.PUT("", s.createLogbooks)
		logbooks.GET("/:name", s.getLogbook)
		logbooks.PUT("/:name", s.createLogbook)
		logbooks.POST("/:name", s.updateLogbook)
		logbooks.DELETE("/:name", s.deleteLogbook)
		logbooks.PUT("/:name/:logId", s.addEntryToLogbook)
		logbooks.DELETE("/:name/:logId", s.removeEntryFromLogbook)
	}

	tags := router.Group("/tags")
	{
		tags.GET("", s.listTags)
		tags.PUT("", s.createTags)
		tags.GET("/:tagName", s.getTag)
		tags.PUT("/:tagName", s.createTag)
		tags.POST("/:tagName", s.updateTag)
		tags.DELETE("/:tagName", s.deleteTag)
		tags.PUT("/:tagName/:logId", s.addEntryToTag)
		tags.DELETE("/:tagName/:logId", s.removeEntryFromTag)
	}

	atts := router.Group("/attachments")
	{
		atts.GET("/:id", s.getAttachmentURL)
		atts.POST("/:id/complete", s.completeAttachment)
		atts.DELETE("/:id", s.deleteAttachment)
	}
}

// Run serves requests until the context is cancelled, then shuts the
// listener down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info(ctx, "http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info(ctx, "http server shutting down")
	return s.httpServer.Shutdown(shutdownCtx)
}
