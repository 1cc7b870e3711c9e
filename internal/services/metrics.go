package services

import (
	"context"
	"os"
	"sync"
	"time"

	"indorunners-backend-go/internal/models"
	"indorunners-backend-go/internal/store"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

type MetricSample struct {
	CapturedAt          time.Time `json:"capturedAt"`
	ProcessRSSBytes     int64     `json:"processRssBytes"`
	SystemMemoryTotal   int64     `json:"systemMemoryTotalBytes"`
	SystemMemoryUsed    int64     `json:"systemMemoryUsedBytes"`
	DiskTotalBytes      int64     `json:"diskTotalBytes"`
	DiskUsedBytes       int64     `json:"diskUsedBytes"`
	ProcessCpuLoad      float64   `json:"processCpuLoad"`
	SystemCpuLoad       float64   `json:"systemCpuLoad"`
	ActiveRegistrations int64     `json:"activeRegistrations"`
	PendingPayments     int64     `json:"pendingPayments"`
}

func sampleFromModel(m models.ServerMetricSample) MetricSample {
	return MetricSample{
		CapturedAt:          m.CapturedAt,
		ProcessRSSBytes:     m.ProcessRSSBytes,
		SystemMemoryTotal:   m.SystemMemoryTotal,
		SystemMemoryUsed:    m.SystemMemoryUsed,
		DiskTotalBytes:      m.DiskTotalBytes,
		DiskUsedBytes:       m.DiskUsedBytes,
		ProcessCpuLoad:      m.ProcessCpuLoad,
		SystemCpuLoad:       m.SystemCpuLoad,
		ActiveRegistrations: m.ActiveRegistrations,
		PendingPayments:     m.PendingPayments,
	}
}

// CaptureMetrics samples process and host resources plus registration
// counters and stores the sample.
func CaptureMetrics(ctx context.Context, s *store.Store, diskPath string, now time.Time) (MetricSample, error) {
	sample := models.ServerMetricSample{ID: uuid.NewString(), CapturedAt: now.UTC()}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if rss, _ := proc.MemoryInfo(); rss != nil {
			sample.ProcessRSSBytes = int64(rss.RSS)
		}
		if perc, err := proc.CPUPercent(); err == nil {
			sample.ProcessCpuLoad = perc / 100.0
		}
	}
	if memStat, err := mem.VirtualMemory(); err == nil {
		sample.SystemMemoryTotal = int64(memStat.Total)
		sample.SystemMemoryUsed = int64(memStat.Total - memStat.Available)
	}
	diskStat, err := disk.Usage(diskPath)
	if err != nil {
		diskStat, err = disk.Usage("/")
	}
	if err == nil {
		sample.DiskTotalBytes = int64(diskStat.Total)
		sample.DiskUsedBytes = int64(diskStat.Used)
	}
	if sysCPU, err := cpu.Percent(0, false); err == nil && len(sysCPU) > 0 {
		sample.SystemCpuLoad = sysCPU[0] / 100.0
	}

	pending := models.RegistrationPendingPayment
	active, err := s.CountRegistrations(ctx, store.RegistrationFilter{ExcludeCancelled: true})
	if err != nil {
		return MetricSample{}, store.Translate(err, "count registrations")
	}
	waiting, err := s.CountRegistrations(ctx, store.RegistrationFilter{Status: &pending})
	if err != nil {
		return MetricSample{}, store.Translate(err, "count pending payments")
	}
	sample.ActiveRegistrations = int64(active)
	sample.PendingPayments = int64(waiting)

	if err := s.InsertMetricSample(ctx, sample); err != nil {
		return MetricSample{}, store.Translate(err, "store metric sample")
	}
	return sampleFromModel(sample), nil
}

func LatestMetrics(ctx context.Context, s *store.Store, limit int) ([]MetricSample, error) {
	rows, err := s.LatestMetricSamples(ctx, limit)
	if err != nil {
		return nil, store.Translate(err, "latest metrics")
	}
	items := make([]MetricSample, 0, len(rows))
	for _, row := range rows {
		items = append(items, sampleFromModel(row))
	}
	return items, nil
}

// MetricsClient is the part of a websocket connection the hub writes to.
type MetricsClient interface {
	WriteJSON(v interface{}) error
	Close() error
}

var _ MetricsClient = (*websocket.Conn)(nil)

// MetricsHub fans samples out to connected admin sockets.
type MetricsHub struct {
	mu      sync.Mutex
	clients map[MetricsClient]bool
	ch      chan MetricSample
	log     zerolog.Logger
}

func NewMetricsHub(log zerolog.Logger) *MetricsHub {
	return &MetricsHub{
		clients: map[MetricsClient]bool{},
		ch:      make(chan MetricSample, 16),
		log:     log,
	}
}

func (h *MetricsHub) Run(ctx context.Context) {
	for {
		select {
		case sample := <-h.ch:
			h.send(sample)
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				_ = conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *MetricsHub) send(sample MetricSample) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(sample); err != nil {
			h.log.Debug().Err(err).Msg("dropping metrics client")
			_ = conn.Close()
			delete(h.clients, conn)
		}
	}
}

// Broadcast queues a sample; it is dropped when the hub is behind.
func (h *MetricsHub) Broadcast(sample MetricSample) {
	select {
	case h.ch <- sample:
	default:
	}
}

func (h *MetricsHub) Add(conn MetricsClient) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

func (h *MetricsHub) Remove(conn MetricsClient) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

func (h *MetricsHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
