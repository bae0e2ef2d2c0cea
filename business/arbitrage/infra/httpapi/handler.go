// Package httpapi exposes scans over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/fd1az/triarb/business/arbitrage/domain"
	"github.com/fd1az/triarb/internal/apperror"
	"github.com/fd1az/triarb/internal/logger"
	"github.com/fd1az/triarb/internal/server"
)

// ScanRoute is the pattern the scan handler is mounted on.
const ScanRoute = "GET /api/arbitrage"

// SharedScanner runs or joins a scan.
type SharedScanner interface {
	Shared(ctx context.Context) (*domain.ScanResult, error)
}

// Handler serves scan results.
type Handler struct {
	scans SharedScanner
	log   logger.LoggerInterface
}

// NewHandler creates a Handler.
func NewHandler(scans SharedScanner, log logger.LoggerInterface) *Handler {
	return &Handler{scans: scans, log: log}
}

// Register mounts the handler on srv.
func (h *Handler) Register(srv *server.Server) {
	srv.Handle(ScanRoute, h)
}

// ServeHTTP runs a scan and writes its result. Any scan failure is a 500
// with a fixed body; the cause only goes to the log.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.scans.Shared(ctx)
	if err != nil {
		args := []any{"error", err}
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			args = appErr.LogArgs()
		}
		h.log.Error(ctx, "scan request failed", args...)
		server.WriteText(w, http.StatusInternalServerError, "Server error")
		return
	}

	server.WriteJSON(w, http.StatusOK, result)
}
