package results

import (
	"go.uber.org/zap"

	"github.com/Azure/aimbiztalk-sub006/internal/diagnostics"
	"github.com/Azure/aimbiztalk-sub006/internal/results/providers"
)

// Enricher attaches reference descriptions for the codes a run produced.
type Enricher struct {
	codes  providers.CodeProvider
	logger *zap.Logger
}

// NewEnricher creates a new Enricher instance.
func NewEnricher(codes providers.CodeProvider, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{
		codes:  codes,
		logger: logger.Named("enricher"),
	}
}

// Rules returns one entry per distinct code, in first-seen order.
func (e *Enricher) Rules(diags []diagnostics.Diagnostic) []providers.CodeEntry {
	if e.codes == nil {
		return nil
	}
	seen := make(map[diagnostics.Code]bool)
	var out []providers.CodeEntry
	for _, d := range diags {
		if seen[d.Code] {
			continue
		}
		seen[d.Code] = true
		entry, err := e.codes.GetCode(string(d.Code))
		if err != nil {
			e.logger.Debug("Could not retrieve code details", zap.String("code", string(d.Code)), zap.Error(err))
			continue
		}
		out = append(out, *entry)
	}
	return out
}
