// Copyright 2025 Alibaba Group Holding Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/filemate-ai/filemate/pkg/log"
	"github.com/filemate-ai/filemate/pkg/web/controller"
	"github.com/filemate-ai/filemate/pkg/web/model"
)

// NewRouter builds a Gin engine with all FileMate routes.
func NewRouter(accessToken string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logMiddleware(), accessTokenMiddleware(accessToken))

	r.GET("/ping", controller.PingHandler)

	operations := r.Group("/operations")
	{
		operations.GET("", withOperation(func(c *controller.OperationController) { c.ListOperations() }))
		operations.POST("", withOperation(func(c *controller.OperationController) { c.RunOperation() }))
		operations.POST("/:name", withOperation(func(c *controller.OperationController) { c.InvokeOperation() }))
	}

	files := r.Group("/files")
	{
		files.GET("/tree", withFilesystem(func(c *controller.FilesystemController) { c.GetTree() }))
		files.GET("/structure", withFilesystem(func(c *controller.FilesystemController) { c.GetStructure() }))
		files.GET("/search", withFilesystem(func(c *controller.FilesystemController) { c.SearchFiles() }))
		files.GET("/content", withFilesystem(func(c *controller.FilesystemController) { c.GetContent() }))
		files.GET("/download", withFilesystem(func(c *controller.FilesystemController) { c.DownloadFile() }))
	}

	metric := r.Group("/metrics")
	{
		metric.GET("", withMetric(func(c *controller.MetricController) { c.GetMetrics() }))
		metric.GET("/watch", withMetric(func(c *controller.MetricController) { c.WatchMetrics() }))
		metric.GET("/processes", withMetric(func(c *controller.MetricController) { c.GetProcesses() }))
	}

	r.GET("/events", func(ctx *gin.Context) {
		controller.NewEventController(ctx).StreamEvents()
	})

	return r
}

func withOperation(fn func(*controller.OperationController)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		fn(controller.NewOperationController(ctx))
	}
}

func withFilesystem(fn func(*controller.FilesystemController)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		fn(controller.NewFilesystemController(ctx))
	}
}

func withMetric(fn func(*controller.MetricController)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		fn(controller.NewMetricController(ctx))
	}
}

func accessTokenMiddleware(token string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token == "" {
			ctx.Next()
			return
		}

		requestedToken := ctx.GetHeader(model.ApiAccessTokenHeader)
		if requestedToken == "" || requestedToken != token {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{
				Code:    model.ErrorCodeUnauthorized,
				Message: "Unauthorized: invalid or missing header " + model.ApiAccessTokenHeader,
			})
			return
		}

		ctx.Next()
	}
}

func logMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		log.Info("Requested: %v - %v", ctx.Request.Method, ctx.Request.URL.Path)
		ctx.Next()
	}
}
