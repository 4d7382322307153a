package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/alanyoungcy/yieldscan/internal/domain"
	"github.com/alanyoungcy/yieldscan/internal/scan"
)

// Archiver serializes completed scan results as JSON and uploads them to
// cold storage, one object per scan:
//
//	scans/2026-08-31/1b4e28ba-2fa1-11d2-883f-0016d3cca427.json
type Archiver struct {
	writer domain.BlobWriter
}

// NewArchiver creates an Archiver over the given blob writer.
func NewArchiver(writer domain.BlobWriter) *Archiver {
	return &Archiver{writer: writer}
}

// ArchiveScan uploads one scan result. The object key is partitioned by scan
// date so daily snapshots group naturally.
func (a *Archiver) ArchiveScan(ctx context.Context, result *scan.Result) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("s3blob: encode scan %s: %w", result.ScanID, err)
	}

	path := snapshotPath(result)
	if err := a.writer.Put(ctx, path, &buf, "application/json"); err != nil {
		return fmt.Errorf("s3blob: archive scan %s: %w", result.ScanID, err)
	}
	return nil
}

// snapshotPath builds the object key for a scan snapshot.
func snapshotPath(result *scan.Result) string {
	return fmt.Sprintf("scans/%s/%s.json", result.StartedAt.Format("2006-01-02"), result.ScanID)
}
