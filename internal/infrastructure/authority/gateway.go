package authority

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fiscalhub/backend/internal/domain/fiscal"
	"github.com/fiscalhub/backend/internal/infrastructure/config"
)

// Gateway operating modes
const (
	ModeSimulator = "simulator"
	ModeHTTP      = "http"
)

var (
	_ fiscal.TaxAuthorityGateway = (*Simulator)(nil)
	_ fiscal.TaxAuthorityGateway = (*HTTPGateway)(nil)
)

// NewGateway builds the configured TaxAuthorityGateway implementation
func NewGateway(cfg config.AuthorityConfig, logger *zap.Logger) (fiscal.TaxAuthorityGateway, error) {
	switch cfg.Mode {
	case ModeSimulator, "":
		return NewSimulator(cfg, logger), nil
	case ModeHTTP:
		return NewHTTPGateway(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown authority gateway mode %q", cfg.Mode)
	}
}
