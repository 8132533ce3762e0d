// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the resolution engine over HTTP.
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/georesolver/gazetteer"
)

// Resolver is the slice of the engine the server needs.
type Resolver interface {
	Resolve(ctx context.Context, q gazetteer.Query) (*gazetteer.Result, error)
	SourcesInfo() []gazetteer.SourceInfo
}

type Server struct {
	resolver Resolver
	addr     string
}

// NewServer builds the HTTP server around a resolver.
func NewServer(resolver Resolver, addr string) *Server {
	return &Server{resolver: resolver, addr: addr}
}

// Run registers the routes and blocks serving requests.
func (s *Server) Run() error {
	return s.router().Run(s.addr)
}

func (s *Server) router() *gin.Engine {
	r := gin.Default()

	r.GET("/api/resolve", s.resolve)
	r.GET("/api/sources", s.listSources)
	r.GET("/api/health", s.health)

	return r
}

// ResolveResponse is the wire shape of a successful resolution.
type ResolveResponse struct {
	Outcome string               `json:"outcome"`
	Score   float64              `json:"score,omitempty"`
	Source  string               `json:"source,omitempty"`
	Match   *gazetteer.Candidate `json:"match,omitempty"`
}

func (s *Server) resolve(ctx *gin.Context) {
	name := ctx.Query("name")
	if name == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "name query parameter is required"})

		return
	}

	var priority []gazetteer.Source

	for _, raw := range ctx.QueryArray("source") {
		source, ok := gazetteer.ParseSource(raw)
		if !ok {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "unknown source: " + raw})

			return
		}

		priority = append(priority, source)
	}

	result, err := s.resolver.Resolve(ctx.Request.Context(), gazetteer.Query{
		Name:           name,
		CountryCode:    ctx.Query("country"),
		Language:       ctx.Query("language"),
		PlaceType:      ctx.Query("place_type"),
		SourcePriority: priority,
	})

	switch {
	case gazetteer.IsInvalidParameter(err) || gazetteer.IsInvalidCountry(err):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	case gazetteer.IsSourceUnavailable(err):
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})

		return
	case err != nil:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if !result.Matched() {
		ctx.JSON(http.StatusNotFound, ResolveResponse{Outcome: string(result.Outcome)})

		return
	}

	ctx.JSON(http.StatusOK, ResolveResponse{
		Outcome: string(result.Outcome),
		Score:   result.Score,
		Source:  result.Method,
		Match:   result.Best,
	})
}

func (s *Server) listSources(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.resolver.SourcesInfo())
}

func (s *Server) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
