package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/database"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/scheduler"
)

// JobRunner runs a job outside its schedule. *scheduler.Scheduler implements it.
type JobRunner interface {
	RunNow(job scheduler.Job) error
}

// SystemHandlers handles system-wide monitoring and operations
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	db        *database.DB
	runner    JobRunner
	jobs      map[string]scheduler.Job
	startedAt time.Time
}

// NewSystemHandlers creates a new system handlers instance. runner and db may be
// nil; jobs without a runner are run directly.
func NewSystemHandlers(log zerolog.Logger, dataDir string, db *database.DB, runner JobRunner, jobs []scheduler.Job) *SystemHandlers {
	byName := make(map[string]scheduler.Job, len(jobs))
	for _, job := range jobs {
		byName[job.Name()] = job
	}
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		db:        db,
		runner:    runner,
		jobs:      byName,
		startedAt: time.Now(),
	}
}

// SystemStatsResponse represents process and host statistics
type SystemStatsResponse struct {
	CPUPercent    float64         `json:"cpu_percent"`
	RAMPercent    float64         `json:"ram_percent"`
	Goroutines    int             `json:"goroutines"`
	GoVersion     string          `json:"go_version"`
	UptimeSeconds float64         `json:"uptime_seconds"`
	DataDirMB     float64         `json:"data_dir_mb"`
	Database      *database.Stats `json:"database,omitempty"`
	LastChecked   string          `json:"last_checked"`
}

// DatabaseStatsResponse represents the health of the circuits database
type DatabaseStatsResponse struct {
	Name        string          `json:"name"`
	Path        string          `json:"path"`
	Healthy     bool            `json:"healthy"`
	Error       string          `json:"error,omitempty"`
	Stats       *database.Stats `json:"stats,omitempty"`
	SizeMB      float64         `json:"size_mb"`
	LastChecked string          `json:"last_checked"`
}

// JobsStatusResponse lists the jobs that can be triggered manually
type JobsStatusResponse struct {
	Jobs []string `json:"jobs"`
}

// HandleSystemStats handles GET /api/system/stats
func (h *SystemHandlers) HandleSystemStats(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.getSystemStats()

	response := SystemStatsResponse{
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		Goroutines:    runtime.NumGoroutine(),
		GoVersion:     runtime.Version(),
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
		DataDirMB:     h.getDirSize(h.dataDir),
		LastChecked:   time.Now().Format(time.RFC3339),
	}
	if h.db != nil {
		if stats, err := h.db.GetStats(); err == nil {
			response.Database = stats
		} else {
			h.log.Warn().Err(err).Msg("Failed to get database stats")
		}
	}

	h.writeJSON(w, response)
}

// HandleDatabaseStats handles GET /api/system/database
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		http.Error(w, "Database not configured", http.StatusServiceUnavailable)
		return
	}

	response := DatabaseStatsResponse{
		Name:        h.db.Name(),
		Path:        h.db.Path(),
		Healthy:     true,
		LastChecked: time.Now().Format(time.RFC3339),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.QuickCheck(ctx); err != nil {
		response.Healthy = false
		response.Error = err.Error()
	}

	if stats, err := h.db.GetStats(); err == nil {
		response.Stats = stats
		response.SizeMB = float64(stats.SizeBytes+stats.WALSizeBytes) / 1024 / 1024
	} else {
		h.log.Warn().Err(err).Msg("Failed to get database stats")
	}

	h.writeJSON(w, response)
}

// HandleJobsStatus handles GET /api/system/jobs
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	h.writeJSON(w, JobsStatusResponse{Jobs: names})
}

// HandleTriggerJob handles POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := h.jobs[name]
	if !ok {
		http.Error(w, "Unknown job", http.StatusNotFound)
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job run triggered")

	var err error
	if h.runner != nil {
		err = h.runner.RunNow(job)
	} else {
		err = job.Run()
	}
	if err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]string{"status": "success", "message": name + " completed"})
}

// getDirSize calculates total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	if dirPath == "" {
		return 0
	}

	var totalSize int64
	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})

	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

// getSystemStats calculates CPU and RAM usage percentages
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	// A short sampling window keeps the endpoint responsive
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
