package observability

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// RecentModerationInfo représente un message rejeté par le filtre
type RecentModerationInfo struct {
	ID         string   `json:"id"`
	Room       string   `json:"room"`
	Author     string   `json:"author"`
	Violations []string `json:"violations"`
	Timestamp  string   `json:"timestamp"`
}

// MonitoringStats agrège toutes les métriques pour l'UI
type MonitoringStats struct {
	// --- TRAFFIC METRICS ---
	MessagesPerSecond float64 `json:"messages_per_second"`
	DeliveredFrames   uint64  `json:"delivered_frames"`
	DroppedFrames     uint64  `json:"dropped_frames"`

	// --- ROOM METRICS ---
	ConnectionsOpen   int    `json:"connections_open"`
	RoomsOpen         int    `json:"rooms_open"`
	PrunedConnections uint64 `json:"pruned_connections"`

	// --- MODERATION / SIGNALING ---
	ModeratedMessages  uint64 `json:"moderated_messages"`
	SignalsRouted      uint64 `json:"signals_routed"`
	SignalTargetMisses uint64 `json:"signal_target_misses"`
	UnknownFrames      uint64 `json:"unknown_frames"`
	HandlerFailures    uint64 `json:"handler_failures"`

	// --- SYSTEM METRICS ---
	AllocMemMb uint64 `json:"alloc_mem_mb"`
	NumGC      uint32 `json:"num_gc"`
	Goroutines int    `json:"goroutines"`

	RecentModerations []RecentModerationInfo `json:"recent_moderations"`
}

// Monitoring gère la télémétrie en temps réel
type Monitoring struct {
	log         *slog.Logger
	mu          sync.RWMutex
	latestStats MonitoringStats

	// Compteurs atomiques, mis à jour depuis les chemins chauds
	MessagesSent    uint64
	Delivered       uint64
	Dropped         uint64
	Pruned          uint64
	Moderated       uint64
	SignalsRouted   uint64
	SignalMisses    uint64
	UnknownFrames   uint64
	HandlerFailures uint64
	LastCheck       time.Time

	connectionsOpen func() int
	roomsOpen       func() int
}

func NewMonitoring(log *slog.Logger) *Monitoring {
	return &Monitoring{
		log:       log,
		LastCheck: time.Now(),
		latestStats: MonitoringStats{
			RecentModerations: make([]RecentModerationInfo, 0),
		},
	}
}

// SetGauges wires the live sources polled on every refresh.
func (mm *Monitoring) SetGauges(connectionsOpen, roomsOpen func() int) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.connectionsOpen = connectionsOpen
	mm.roomsOpen = roomsOpen
}

func (mm *Monitoring) IncrMessage() {
	atomic.AddUint64(&mm.MessagesSent, 1)
}

func (mm *Monitoring) AddDelivered(n uint64) {
	atomic.AddUint64(&mm.Delivered, n)
}

func (mm *Monitoring) IncrDropped() {
	atomic.AddUint64(&mm.Dropped, 1)
}

func (mm *Monitoring) IncrPruned() {
	atomic.AddUint64(&mm.Pruned, 1)
}

func (mm *Monitoring) IncrModerated() {
	atomic.AddUint64(&mm.Moderated, 1)
}

func (mm *Monitoring) IncrSignalRouted() {
	atomic.AddUint64(&mm.SignalsRouted, 1)
}

func (mm *Monitoring) IncrSignalMiss() {
	atomic.AddUint64(&mm.SignalMisses, 1)
}

func (mm *Monitoring) IncrUnknownFrame() {
	atomic.AddUint64(&mm.UnknownFrames, 1)
}

func (mm *Monitoring) IncrHandlerFailure() {
	atomic.AddUint64(&mm.HandlerFailures, 1)
}

// AddModeration garde la trace des derniers messages rejetés (thread-safe)
func (mm *Monitoring) AddModeration(id, room, author string, violations []string) {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	info := RecentModerationInfo{
		ID:         id,
		Room:       room,
		Author:     author,
		Violations: violations,
		Timestamp:  time.Now().Format("15:04:05"),
	}

	// Ajouter au début de la liste
	mm.latestStats.RecentModerations = append([]RecentModerationInfo{info}, mm.latestStats.RecentModerations...)

	// Garder seulement les 20 derniers
	if len(mm.latestStats.RecentModerations) > 20 {
		mm.latestStats.RecentModerations = mm.latestStats.RecentModerations[:20]
	}
}

// Listen rafraîchit les stats agrégées à intervalle fixe
func (mm *Monitoring) Listen(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			mm.log.Info("🛑 Monitoring stopped")
			return
		case <-ticker.C:
			mm.updateStats()
		}
	}
}

func (mm *Monitoring) updateStats() {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	now := time.Now()
	duration := now.Sub(mm.LastCheck).Seconds()

	if duration > 0 {
		sent := atomic.SwapUint64(&mm.MessagesSent, 0)
		mm.latestStats.MessagesPerSecond = float64(sent) / duration
	}
	mm.LastCheck = now

	// Charger les compteurs cumulés
	mm.latestStats.DeliveredFrames = atomic.LoadUint64(&mm.Delivered)
	mm.latestStats.DroppedFrames = atomic.LoadUint64(&mm.Dropped)
	mm.latestStats.PrunedConnections = atomic.LoadUint64(&mm.Pruned)
	mm.latestStats.ModeratedMessages = atomic.LoadUint64(&mm.Moderated)
	mm.latestStats.SignalsRouted = atomic.LoadUint64(&mm.SignalsRouted)
	mm.latestStats.SignalTargetMisses = atomic.LoadUint64(&mm.SignalMisses)
	mm.latestStats.UnknownFrames = atomic.LoadUint64(&mm.UnknownFrames)
	mm.latestStats.HandlerFailures = atomic.LoadUint64(&mm.HandlerFailures)

	if mm.connectionsOpen != nil {
		mm.latestStats.ConnectionsOpen = mm.connectionsOpen()
	}
	if mm.roomsOpen != nil {
		mm.latestStats.RoomsOpen = mm.roomsOpen()
	}

	// Métriques système Go
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	mm.latestStats.AllocMemMb = m.Alloc / 1024 / 1024
	mm.latestStats.NumGC = m.NumGC
	mm.latestStats.Goroutines = runtime.NumGoroutine()

	mm.log.Debug("📊 Stats refreshed",
		"msg_per_s", mm.latestStats.MessagesPerSecond,
		"delivered", mm.latestStats.DeliveredFrames,
		"dropped", mm.latestStats.DroppedFrames,
		"mem_mb", mm.latestStats.AllocMemMb,
	)
}

func (mm *Monitoring) GetLatest() MonitoringStats {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.latestStats
}
