package coordinator

import (
	"context"

	"github.com/stacklok/catalog-exporter/internal/runner"
	"github.com/stacklok/catalog-exporter/internal/status"
)

// Runner executes a single export run
//
//go:generate mockgen -destination=mocks/mock_runner.go -package=mocks -source=runner.go Runner
type Runner interface {
	Run(ctx context.Context, account string, typ status.ExportType) (*runner.Result, error)
}

var _ Runner = (*runner.Runner)(nil)
