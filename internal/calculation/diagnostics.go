package calculation

import (
	"fmt"
	"time"

	"github.com/lifeplan/projection-engine/internal/domain"
)

// diagnostics collects best-effort fallbacks taken during a run. Each (code, subject)
// pair is reported once, at the first period it occurred, and echoed to the logger.
type diagnostics struct {
	logger   Logger
	seen     map[string]bool
	warnings []domain.Warning
}

func newDiagnostics(logger Logger) *diagnostics {
	if logger == nil {
		logger = NopLogger{}
	}
	return &diagnostics{logger: logger, seen: make(map[string]bool)}
}

func (d *diagnostics) warn(code, subject string, period time.Time, format string, args ...any) {
	key := code + "|" + subject
	if d.seen[key] {
		return
	}
	d.seen[key] = true
	msg := fmt.Sprintf(format, args...)
	d.warnings = append(d.warnings, domain.Warning{Code: code, Period: period, Message: msg})
	d.logger.Warnf("%s: %s", code, msg)
}

func (d *diagnostics) list() []domain.Warning {
	return d.warnings
}
