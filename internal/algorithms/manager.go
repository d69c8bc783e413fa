package algorithms

import (
	"fmt"
	"slices"
	"sync"

	"stereo-depth/internal/algorithms/edge"
	"stereo-depth/internal/algorithms/stereo"
	"stereo-depth/internal/logger"
	"stereo-depth/internal/models"
	"stereo-depth/internal/random"

	"github.com/samber/lo"
)

// Manager holds the engines and edge detectors that can be built by name.
type Manager struct {
	engines       map[string]Engine
	detectors     map[string]DetectorFactory
	currentEngine string
	log           logger.Logger
	mu            sync.RWMutex
}

func NewManager(log logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop()
	}

	manager := &Manager{
		engines:       make(map[string]Engine),
		detectors:     make(map[string]DetectorFactory),
		currentEngine: models.EngineLocalWindow,
		log:           log,
	}

	manager.registerEngines()

	return manager
}

func (m *Manager) registerEngines() {
	m.RegisterEngine(localWindowEngine{})
	m.RegisterEngine(edgeBoundedEngine{})

	m.RegisterDetector(models.DetectorSusan, func(threshold int) edge.Detector {
		return edge.NewSusan(threshold)
	})
}

// RegisterEngine adds or replaces an engine under its name.
func (m *Manager) RegisterEngine(engine Engine) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engines[engine.GetName()] = engine
}

// RegisterDetector adds or replaces an edge detector. Detectors backed by
// native libraries are registered by the binaries that link them.
func (m *Manager) RegisterDetector(name string, factory DetectorFactory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detectors[name] = factory
}

func (m *Manager) SetCurrentEngine(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.engines[name]; !exists {
		return fmt.Errorf("unknown engine: %s", name)
	}

	m.currentEngine = name
	return nil
}

func (m *Manager) CurrentEngine() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentEngine
}

func (m *Manager) GetEngine(name string) (Engine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if engine, exists := m.engines[name]; exists {
		return engine, nil
	}

	return nil, fmt.Errorf("unknown engine: %s", name)
}

// Available lists registered engine names in sorted order.
func (m *Manager) Available() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := lo.Keys(m.engines)
	slices.Sort(names)
	return names
}

func (m *Manager) AvailableDetectors() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := lo.Keys(m.detectors)
	slices.Sort(names)
	return names
}

// ValidateSettings checks the settings' ranges and that the engine and
// detector they name are registered.
func (m *Manager) ValidateSettings(settings models.StereoSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, exists := m.engines[settings.Engine]; !exists {
		names := lo.Keys(m.engines)
		slices.Sort(names)
		return models.NewValidationError("engine", settings.Engine,
			fmt.Sprintf("engine must be one of %v", names))
	}
	if _, exists := m.detectors[settings.EdgeDetector]; !exists {
		return models.NewValidationError("edge_detector", settings.EdgeDetector,
			fmt.Sprintf("edge detector %q is not available in this build", settings.EdgeDetector))
	}

	return nil
}

// Build composes the engine described by settings: the leaf engine, split
// into bands when Bands > 1, and run per channel when PerChannel is set.
// A zero Seed seeds the random source from the clock.
func (m *Manager) Build(settings models.StereoSettings) (stereo.Stereo, error) {
	if err := m.ValidateSettings(settings); err != nil {
		return nil, err
	}

	m.mu.RLock()
	engine := m.engines[settings.Engine]
	detector := m.detectors[settings.EdgeDetector](settings.EdgeThreshold)
	m.mu.RUnlock()

	var src random.Source
	if settings.Seed != 0 {
		src = random.NewSource(settings.Seed)
	} else {
		src = random.NewTimeSeeded()
	}

	leaf, err := engine.Build(settings, detector, src)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s engine: %w", settings.Engine, err)
	}
	m.attachLogger(leaf)

	built := leaf
	if settings.Bands > 1 {
		partial, ok := leaf.(stereo.Partial)
		if !ok {
			return nil, models.NewValidationError("bands", settings.Bands,
				fmt.Sprintf("engine %s cannot be split into bands", settings.Engine))
		}
		threaded := stereo.NewThreadedPartial(partial, settings.Bands)
		m.attachLogger(threaded)
		built = threaded
	}

	if settings.PerChannel {
		threaded := stereo.NewThreadedMultiChannel(built)
		m.attachLogger(threaded)
		built = threaded
	}

	m.log.Debug("Manager", "engine built", map[string]interface{}{
		"engine":        settings.Engine,
		"max_disparity": settings.MaxDisparity,
		"bands":         settings.Bands,
		"per_channel":   settings.PerChannel,
	})

	return built, nil
}

func (m *Manager) attachLogger(s stereo.Stereo) {
	if l, ok := s.(Loggable); ok {
		l.SetLogger(m.log)
	}
}
