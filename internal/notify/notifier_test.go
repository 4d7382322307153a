package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/yieldscan/internal/domain"
	"github.com/alanyoungcy/yieldscan/internal/scan"
)

// fakeSender records everything sent through it.
type fakeSender struct {
	name     string
	err      error
	titles   []string
	messages []string
}

func (f *fakeSender) Name() string { return f.name }

func (f *fakeSender) Send(_ context.Context, title, message string) error {
	if f.err != nil {
		return f.err
	}
	f.titles = append(f.titles, title)
	f.messages = append(f.messages, message)
	return nil
}

func opportunity(addr string, roi float64) domain.Opportunity {
	return domain.Opportunity{
		Protocol:    "venus",
		Kind:        domain.PoolKindLending,
		Address:     addr,
		TVLUSD:      2_000_000,
		RatePercent: 40,
		RiskScore:   0.3,
		ExpectedROI: roi,
	}
}

func rankedResult(rois ...float64) *scan.Result {
	result := &scan.Result{ScanID: "scan-1"}
	for i, roi := range rois {
		result.Opportunities = append(result.Opportunities,
			opportunity(fmt.Sprintf("0x%040d", i), roi))
	}
	return result
}

func TestNotifyScanSendsTopOpportunities(t *testing.T) {
	sender := &fakeSender{name: "test"}
	a := NewAlerter([]Sender{sender}, 5, 0.2, slog.Default())

	require.NoError(t, a.NotifyScan(context.Background(), rankedResult(0.5, 0.3)))

	require.Len(t, sender.messages, 1)
	assert.Equal(t, "Yield scan: 2 opportunities", sender.titles[0])
	msg := sender.messages[0]
	assert.Equal(t, 2, strings.Count(msg, "venus lending"))
	assert.Contains(t, msg, "rate 40.00%")
	assert.Contains(t, msg, "expected ROI 50.0%")
	assert.Contains(t, msg, "TVL $2000000")
}

func TestNotifyScanTruncatesToTopN(t *testing.T) {
	sender := &fakeSender{name: "test"}
	a := NewAlerter([]Sender{sender}, 2, 0, slog.Default())

	require.NoError(t, a.NotifyScan(context.Background(), rankedResult(0.5, 0.4, 0.3, 0.2)))

	require.Len(t, sender.messages, 1)
	assert.Len(t, strings.Split(sender.messages[0], "\n"), 2)
	assert.Equal(t, "Yield scan: 2 opportunities", sender.titles[0])
}

func TestNotifyScanCutsOffBelowMinROI(t *testing.T) {
	sender := &fakeSender{name: "test"}
	a := NewAlerter([]Sender{sender}, 10, 0.35, slog.Default())

	require.NoError(t, a.NotifyScan(context.Background(), rankedResult(0.5, 0.4, 0.3, 0.2)))

	require.Len(t, sender.messages, 1)
	assert.Len(t, strings.Split(sender.messages[0], "\n"), 2)
}

func TestNotifyScanSkipsWhenNothingQualifies(t *testing.T) {
	sender := &fakeSender{name: "test"}
	a := NewAlerter([]Sender{sender}, 5, 0.9, slog.Default())

	require.NoError(t, a.NotifyScan(context.Background(), rankedResult(0.5, 0.3)))
	assert.Empty(t, sender.messages)
}

func TestNotifyScanEmptyResult(t *testing.T) {
	sender := &fakeSender{name: "test"}
	a := NewAlerter([]Sender{sender}, 5, 0, slog.Default())

	require.NoError(t, a.NotifyScan(context.Background(), rankedResult()))
	assert.Empty(t, sender.messages)
}

func TestNotifyScanCollectsSenderFailures(t *testing.T) {
	broken := &fakeSender{name: "telegram", err: errors.New("chat not found")}
	healthy := &fakeSender{name: "discord"}
	a := NewAlerter([]Sender{broken, healthy}, 5, 0, slog.Default())

	err := a.NotifyScan(context.Background(), rankedResult(0.5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram")
	// The healthy sender still got the message.
	assert.Len(t, healthy.messages, 1)
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "0x123456..cdef",
		shortAddress("0x1234567890abcdef1234567890abcdef90abcdef"))
	assert.Equal(t, "0xshort", shortAddress("0xshort"))
}
