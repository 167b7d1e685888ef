// Copyright 2019 Tamás Gulácsi
//
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/UNO-SOFT/formparse/formparse"
	"github.com/UNO-SOFT/formparse/logger"
	"github.com/UNO-SOFT/formparse/views"
)

// Config holds router configuration.
type Config struct {
	Parser *formparse.Parser
	Source formparse.ViewSource
	Logger *logger.Logger
	// Cache is listed at /api/v1/views when set.
	Cache *views.Cache
	// Development switches gin to debug mode.
	Development bool
}

// NewRouter returns the gin engine with all routes registered.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	log = log.WithComponent("http")

	r := gin.New()
	r.Use(Trace(log), Logger(log), ErrorHandler(), Recovery())

	h := NewHandler(cfg.Parser, cfg.Source, cfg.Cache)
	r.GET("/health/live", h.Live)

	v1 := r.Group("/api/v1")
	v1.GET("/views", h.ListViews)
	v1.GET("/views/:name", h.GetView)
	v1.POST("/parse", h.Parse)
	tables := v1.Group("/tables")
	tables.GET("", h.ListTables)
	tables.GET("/:name", h.GetTable)
	tables.GET("/:name/form", h.TableForm)

	r.NoRoute(func(c *gin.Context) {
		_ = c.Error(NotFound(c.Request.Method + " " + c.Request.URL.Path))
	})
	return r
}

// ListenAndServe serves handler on addr until ctx is canceled, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, log *logger.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		log.Infow("listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, addr)
		}
		return nil
	})
	grp.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
	return grp.Wait()
}
