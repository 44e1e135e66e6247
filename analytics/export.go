package analytics

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Exporter ships aggregated analytics data to an external destination.
type Exporter interface {
	Export(ctx context.Context, data *AggregatedData) error
	Flush(ctx context.Context) error
	Close() error
}

// HTTPExporter batches aggregated data and POSTs it to a webhook endpoint.
type HTTPExporter struct {
	endpoint  string
	apiKey    string
	batchSize int
	client    *http.Client

	mu    sync.Mutex
	batch []*AggregatedData
}

func NewHTTPExporter(endpoint, apiKey string, batchSize int) *HTTPExporter {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &HTTPExporter{
		endpoint:  endpoint,
		apiKey:    apiKey,
		batchSize: batchSize,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (e *HTTPExporter) Export(ctx context.Context, data *AggregatedData) error {
	e.mu.Lock()
	e.batch = append(e.batch, data)
	full := len(e.batch) >= e.batchSize
	e.mu.Unlock()

	if full {
		return e.Flush(ctx)
	}
	return nil
}

func (e *HTTPExporter) Flush(ctx context.Context) error {
	e.mu.Lock()
	if len(e.batch) == 0 {
		e.mu.Unlock()
		return nil
	}
	batch := e.batch
	e.batch = nil
	e.mu.Unlock()

	payload, err := json.Marshal(map[string]any{
		"exported_at": time.Now().UTC(),
		"data":        batch,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal analytics batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build analytics request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to export analytics batch: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("analytics endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

func (e *HTTPExporter) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.Flush(ctx)
}

// CSVExporter writes aggregated rows to an io.Writer in CSV format, one row
// per aggregation key.
type CSVExporter struct {
	mu     sync.Mutex
	w      *csv.Writer
	header bool
}

func NewCSVExporter(w io.Writer) *CSVExporter {
	return &CSVExporter{w: csv.NewWriter(w)}
}

func (e *CSVExporter) Export(_ context.Context, data *AggregatedData) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.header {
		if err := e.w.Write([]string{
			"period", "key", "active_users", "points_awarded",
			"level_ups", "claims_recorded", "savings_credited", "top_benefits",
		}); err != nil {
			return err
		}
		e.header = true
	}

	return e.w.Write([]string{
		string(data.Period),
		data.Key,
		strconv.Itoa(data.ActiveUsers),
		strconv.FormatInt(data.PointsAwarded, 10),
		strconv.FormatInt(data.LevelUps, 10),
		strconv.FormatInt(data.ClaimsRecorded, 10),
		strconv.FormatFloat(data.SavingsCredited, 'f', 2, 64),
		joinBenefitCounts(data.ClaimsByBenefit),
	})
}

func (e *CSVExporter) Flush(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.w.Flush()
	return e.w.Error()
}

func (e *CSVExporter) Close() error {
	return e.Flush(context.Background())
}

func joinBenefitCounts(claims map[string]int64) string {
	ids := make([]string, 0, len(claims))
	for id := range claims {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b bytes.Buffer
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(';')
		}
		fmt.Fprintf(&b, "%s=%d", id, claims[id])
	}
	return b.String()
}

// ConsoleExporter logs aggregated data, useful for development.
type ConsoleExporter struct {
	logger *slog.Logger
}

func NewConsoleExporter(logger *slog.Logger) *ConsoleExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleExporter{logger: logger}
}

func (e *ConsoleExporter) Export(_ context.Context, data *AggregatedData) error {
	e.logger.Info("analytics export",
		"period", data.Period,
		"key", data.Key,
		"active_users", data.ActiveUsers,
		"points_awarded", data.PointsAwarded,
		"level_ups", data.LevelUps,
		"claims_recorded", data.ClaimsRecorded,
		"savings_credited", data.SavingsCredited,
	)
	return nil
}

func (e *ConsoleExporter) Flush(context.Context) error { return nil }
func (e *ConsoleExporter) Close() error                { return nil }

// MultiExporter fans exports out to several destinations.
type MultiExporter struct {
	exporters []Exporter
}

func NewMultiExporter(exporters ...Exporter) *MultiExporter {
	return &MultiExporter{exporters: exporters}
}

func (e *MultiExporter) Export(ctx context.Context, data *AggregatedData) error {
	var firstErr error
	for _, exp := range e.exporters {
		if err := exp.Export(ctx, data); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (e *MultiExporter) Flush(ctx context.Context) error {
	var firstErr error
	for _, exp := range e.exporters {
		if err := exp.Flush(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (e *MultiExporter) Close() error {
	var firstErr error
	for _, exp := range e.exporters {
		if err := exp.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ExportManager drives a set of exporters over batches of aggregated data.
type ExportManager struct {
	multi *MultiExporter
}

func NewExportManager(exporters ...Exporter) *ExportManager {
	return &ExportManager{multi: NewMultiExporter(exporters...)}
}

func (em *ExportManager) ExportData(ctx context.Context, data []*AggregatedData) error {
	for _, d := range data {
		if err := em.multi.Export(ctx, d); err != nil {
			return err
		}
	}
	return em.multi.Flush(ctx)
}

func (em *ExportManager) Flush(ctx context.Context) error { return em.multi.Flush(ctx) }
func (em *ExportManager) Close() error                    { return em.multi.Close() }

var (
	_ Exporter = (*HTTPExporter)(nil)
	_ Exporter = (*CSVExporter)(nil)
	_ Exporter = (*ConsoleExporter)(nil)
	_ Exporter = (*MultiExporter)(nil)
)
