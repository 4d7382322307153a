// Package notify delivers scan alerts to chat channels. After each scan the
// top opportunities above a configurable ROI threshold are dispatched to all
// registered senders (Telegram, Discord); delivery failures are never fatal
// to the scan.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/yieldscan/internal/scan"
)

// Sender is the interface each notification channel implements.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender.
	Name() string
}

// Alerter formats scan results into chat messages and dispatches them to all
// senders.
type Alerter struct {
	senders []Sender
	topN    int
	minROI  float64
	logger  *slog.Logger
}

// NewAlerter creates an Alerter. topN caps how many opportunities one alert
// lists; minROI drops opportunities below the threshold (fraction).
func NewAlerter(senders []Sender, topN int, minROI float64, logger *slog.Logger) *Alerter {
	return &Alerter{
		senders: senders,
		topN:    topN,
		minROI:  minROI,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// NotifyScan sends the scan's top opportunities to every sender. Nothing is
// sent when no opportunity clears the ROI threshold. Errors from individual
// senders are collected and returned combined; one failing channel does not
// block the others.
func (a *Alerter) NotifyScan(ctx context.Context, result *scan.Result) error {
	picks := result.Opportunities
	if a.topN > 0 && len(picks) > a.topN {
		picks = picks[:a.topN]
	}

	var lines []string
	for _, opp := range picks {
		if opp.ExpectedROI < a.minROI {
			break // ranked by ROI, nothing further qualifies
		}
		lines = append(lines, fmt.Sprintf(
			"%s %s %s: rate %.2f%%, risk %.2f, expected ROI %.1f%%, TVL $%.0f",
			opp.Protocol, opp.Kind, shortAddress(opp.Address),
			opp.RatePercent, opp.RiskScore, opp.ExpectedROI*100, opp.TVLUSD,
		))
	}
	if len(lines) == 0 {
		a.logger.DebugContext(ctx, "no opportunities above alert threshold",
			slog.String("scan_id", result.ScanID))
		return nil
	}

	title := fmt.Sprintf("Yield scan: %d opportunities", len(lines))
	return a.dispatch(ctx, title, strings.Join(lines, "\n"))
}

// dispatch fans one message out to every sender, collecting failures.
func (a *Alerter) dispatch(ctx context.Context, title, message string) error {
	if len(a.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range a.senders {
		if err := s.Send(ctx, title, message); err != nil {
			a.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			a.logger.DebugContext(ctx, "notification sent",
				slog.String("sender", s.Name()),
				slog.String("title", title),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

// shortAddress abbreviates a hex address for chat display.
func shortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:8] + ".." + addr[len(addr)-4:]
}
