package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"stereo-depth/internal/algorithms"
	"stereo-depth/internal/algorithms/stereo"
	"stereo-depth/internal/logger"
	"stereo-depth/internal/models"
	"stereo-depth/internal/processing"

	"github.com/google/uuid"
)

// ErrServiceClosed is returned by Compute after Shutdown.
var ErrServiceClosed = errors.New("stereo service is shut down")

// StereoService builds engines from settings and runs them, bounding how
// many computations run at once.
type StereoService struct {
	engineManager *algorithms.Manager
	repository    *models.PairRepository
	logger        logger.Logger
	prefilter     *processing.Chain
	postfilter    *processing.Chain
	workerPool    chan struct{}
	stats         ProcessingStats
	closed        bool
	mu            sync.RWMutex
}

// ProcessingStats contains processing performance statistics
type ProcessingStats struct {
	TotalProcessed  int
	SuccessfulRuns  int
	FailedRuns      int
	AverageTime     time.Duration
	LastProcessTime time.Time
	totalTime       time.Duration
}

// NewStereoService creates a service with one worker slot per CPU.
func NewStereoService(manager *algorithms.Manager, repo *models.PairRepository, log logger.Logger) *StereoService {
	if log == nil {
		log = logger.Nop()
	}
	if repo == nil {
		repo = models.NewPairRepository()
	}

	s := &StereoService{
		engineManager: manager,
		repository:    repo,
		logger:        log,
	}
	s.SetWorkerCount(runtime.NumCPU())
	return s
}

// SetFilters installs the chains run over both inputs before matching and
// over the disparity map afterwards. Either may be nil.
func (s *StereoService) SetFilters(pre, post *processing.Chain) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefilter = pre
	s.postfilter = post
}

// Compute runs one depth-map computation. The context is honoured while
// waiting for a worker slot; a running engine is not interrupted.
func (s *StereoService) Compute(ctx context.Context, settings models.StereoSettings, left, right *models.Image) (*models.StereoResult, error) {
	s.mu.RLock()
	closed := s.closed
	pool := s.workerPool
	pre, post := s.prefilter, s.postfilter
	s.mu.RUnlock()

	if closed {
		return nil, ErrServiceClosed
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	// Acquire worker from pool
	select {
	case <-pool:
		defer func() { pool <- struct{}{} }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	runID := uuid.NewString()
	fields := map[string]interface{}{
		"run_id":        runID,
		"engine":        settings.Engine,
		"max_disparity": settings.MaxDisparity,
		"bands":         settings.Bands,
		"per_channel":   settings.PerChannel,
	}

	engine, err := s.engineManager.Build(settings)
	if err != nil {
		s.recordRun(0, err)
		return nil, fmt.Errorf("failed to build engine: %w", err)
	}

	if active := append(pre.Active(settings), post.Active(settings)...); len(active) > 0 {
		fields["filters"] = active
	}

	s.logger.Info("StereoService", "computation started", fields)
	startTime := time.Now()

	disparity, err := s.run(ctx, engine, settings, left, right, pre, post)
	processTime := time.Since(startTime)
	if err != nil {
		s.recordRun(processTime, err)
		s.logger.Error("StereoService", err, fields)
		return nil, err
	}

	result := &models.StereoResult{
		RunID:       runID,
		Engine:      settings.Engine,
		Disparity:   disparity,
		Settings:    settings,
		ProcessTime: processTime,
	}
	s.repository.AddResult(*result)
	s.recordRun(processTime, nil)

	fields["duration"] = processTime.String()
	s.logger.Info("StereoService", "computation finished", fields)

	return result, nil
}

func (s *StereoService) run(ctx context.Context, engine stereo.Stereo, settings models.StereoSettings, left, right *models.Image, pre, post *processing.Chain) (*models.Image, error) {
	left, err := pre.Execute(ctx, left, settings)
	if err != nil {
		return nil, fmt.Errorf("left prefilter failed: %w", err)
	}
	right, err = pre.Execute(ctx, right, settings)
	if err != nil {
		return nil, fmt.Errorf("right prefilter failed: %w", err)
	}

	disparity, err := engine.ComputeDepthMap(left, right)
	if err != nil {
		return nil, fmt.Errorf("depth map computation failed: %w", err)
	}

	disparity, err = post.Execute(ctx, disparity, settings)
	if err != nil {
		return nil, fmt.Errorf("postfilter failed: %w", err)
	}
	return disparity, nil
}

// ComputeCurrentPair runs Compute on the pair held by the repository.
func (s *StereoService) ComputeCurrentPair(ctx context.Context, settings models.StereoSettings) (*models.StereoResult, error) {
	pair := s.repository.Pair()
	if pair == nil {
		return nil, fmt.Errorf("no stereo pair loaded")
	}
	return s.Compute(ctx, settings, pair.Left, pair.Right)
}

func (s *StereoService) recordRun(processTime time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.TotalProcessed++
	s.stats.LastProcessTime = time.Now()
	if err != nil {
		s.stats.FailedRuns++
		return
	}

	s.stats.SuccessfulRuns++
	s.stats.totalTime += processTime
	s.stats.AverageTime = s.stats.totalTime / time.Duration(s.stats.SuccessfulRuns)
}

// Stats returns processing performance statistics
func (s *StereoService) Stats() ProcessingStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// AvailableEngines returns the names of the engines that can be built
func (s *StereoService) AvailableEngines() []string {
	return s.engineManager.Available()
}

// CurrentEngine is the engine the UI offers first.
func (s *StereoService) CurrentEngine() string {
	return s.engineManager.CurrentEngine()
}

// SelectEngine records the engine chosen in the UI.
func (s *StereoService) SelectEngine(name string) error {
	if err := s.engineManager.SetCurrentEngine(name); err != nil {
		return err
	}
	s.logger.Debug("StereoService", "engine selected", map[string]interface{}{
		"engine": name,
	})
	return nil
}

func (s *StereoService) ValidateSettings(settings models.StereoSettings) error {
	return s.engineManager.ValidateSettings(settings)
}

// History returns recent results, oldest first
func (s *StereoService) History() []models.StereoResult {
	return s.repository.History()
}

// SetWorkerCount updates how many computations may run at once
func (s *StereoService) SetWorkerCount(count int) {
	if count <= 0 {
		count = 1
	}
	if count > runtime.NumCPU()*2 {
		count = runtime.NumCPU() * 2
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	newPool := make(chan struct{}, count)
	for i := 0; i < count; i++ {
		newPool <- struct{}{}
	}

	s.workerPool = newPool
}

// GetWorkerCount returns the current number of workers
func (s *StereoService) GetWorkerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cap(s.workerPool)
}

// Shutdown rejects further computations. Running ones finish normally.
func (s *StereoService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	s.logger.Info("StereoService", "service shut down", map[string]interface{}{
		"total_processed": s.stats.TotalProcessed,
		"failed_runs":     s.stats.FailedRuns,
	})
}
