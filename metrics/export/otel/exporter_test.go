package otel

import (
	"context"
	"sync"
	"testing"

	hireAuth "github.com/MrEthical07/hireAuth"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot hireAuth.MetricsSnapshot
}

func (f *fakeSource) MetricsSnapshot() hireAuth.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := hireAuth.MetricsSnapshot{
		Counters:   make(map[hireAuth.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[hireAuth.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		out.Histograms[k] = append([]uint64(nil), buckets...)
	}
	return out
}

func newReader() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func findSum(rm metricdata.ResourceMetrics, name string) (int64, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if len(data.DataPoints) > 0 {
					return data.DataPoints[0].Value, true
				}
			case metricdata.Gauge[int64]:
				if len(data.DataPoints) > 0 {
					return data.DataPoints[0].Value, true
				}
			}
		}
	}
	return 0, false
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader, provider := newReader()
	meter := provider.Meter("hireauth-test")

	src := &fakeSource{
		snapshot: hireAuth.MetricsSnapshot{
			Counters: map[hireAuth.MetricID]uint64{
				hireAuth.MetricLoginSuccess:              3,
				hireAuth.MetricRegistrationVerifySuccess: 2,
			},
			Histograms: map[hireAuth.MetricID][]uint64{
				hireAuth.MetricLoginLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
	}

	exp, err := NewExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if v, ok := findSum(rm, "hireauth_login_success_total"); !ok || v != 3 {
		t.Fatalf("expected login success 3, got %d (found=%v)", v, ok)
	}
	if v, ok := findSum(rm, "hireauth_registration_verify_success_total"); !ok || v != 2 {
		t.Fatalf("expected registration success 2, got %d (found=%v)", v, ok)
	}
	if v, ok := findSum(rm, "hireauth_login_latency_seconds_bucket_le_0_1"); !ok || v != 3 {
		t.Fatalf("expected cumulative bucket le 0.1 to be 3, got %d (found=%v)", v, ok)
	}
	if v, ok := findSum(rm, "hireauth_login_latency_seconds_count"); !ok || v != 8 {
		t.Fatalf("expected histogram count 8, got %d (found=%v)", v, ok)
	}
}

func TestExporterRejectsNilInputs(t *testing.T) {
	_, provider := newReader()
	meter := provider.Meter("hireauth-test")

	if _, err := NewExporterFromSource(meter, nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
	if _, err := NewExporter(meter, nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource for nil engine, got %v", err)
	}
}

func TestExporterCloseIsIdempotent(t *testing.T) {
	_, provider := newReader()
	exp, err := NewExporterFromSource(provider.Meter("hireauth-test"), &fakeSource{})
	if err != nil {
		t.Fatalf("NewExporterFromSource failed: %v", err)
	}
	if err := exp.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := exp.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader, provider := newReader()
	meter := provider.Meter("hireauth-test")

	src := &fakeSource{
		snapshot: hireAuth.MetricsSnapshot{
			Counters: map[hireAuth.MetricID]uint64{
				hireAuth.MetricLoginSuccess: 1,
			},
			Histograms: map[hireAuth.MetricID][]uint64{
				hireAuth.MetricLoginLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewExporterFromSource failed: %v", err)
	}
	defer func() {
		_ = exp.Close()
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[hireAuth.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
