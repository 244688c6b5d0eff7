// internal/core/runstate/state.go
package runstate

import (
	"sync"

	"reconflow/internal/core/resulttree"
)

// Threshold acumula el progreso de sub-tareas (batches) y puede sobrevivir
// entre ejecuciones consecutivas para mantener un progreso continuo.
type Threshold struct {
	Name  string
	Count int
	Total int
	Stop  bool
}

// Snapshot es una copia consistente del estado en un instante.
type Snapshot struct {
	JobTotal     int
	JobCompleted int
	LastJobName  string
	NextJobName  string
	Threshold    Threshold
}

// Fraction devuelve el avance en [0,1]. Con denominador cero devuelve 0.
func (s Snapshot) Fraction() float64 {
	den := s.JobTotal + s.Threshold.Total
	if den <= 0 {
		return 0
	}
	f := float64(s.JobCompleted+s.Threshold.Count) / float64(den)
	if f > 1 {
		return 1
	}
	return f
}

// EchoFunc recibe el resultado de un job terminado.
type EchoFunc func(plugin string, result *resulttree.Node)

// State agrupa los contadores compartidos entre scheduler, workers y monitor.
// Todas las mutaciones pasan por un único mutex.
type State struct {
	mu sync.Mutex

	jobTotal     int
	jobCompleted int
	lastJobName  string
	nextJobName  string
	threshold    Threshold
}

// New crea un estado vacío.
func New() *State {
	return &State{}
}

// AddJobs registra n jobs enviados al pool.
func (s *State) AddJobs(n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	s.jobTotal += n
	s.mu.Unlock()
}

// Started marca name como el próximo job en ejecución.
func (s *State) Started(name string) {
	s.mu.Lock()
	s.nextJobName = name
	s.mu.Unlock()
}

// Complete registra la finalización de un job. echo se invoca fuera del lock.
func (s *State) Complete(name string, result *resulttree.Node, echo EchoFunc) {
	s.mu.Lock()
	if s.jobCompleted < s.jobTotal {
		s.jobCompleted++
	}
	s.lastJobName = name
	s.mu.Unlock()

	if echo != nil {
		echo(name, result)
	}
}

// BeginThreshold abre un batch: fija el nombre y suma total al denominador.
func (s *State) BeginThreshold(name string, total int) {
	s.mu.Lock()
	s.threshold.Name = name
	if total > 0 {
		s.threshold.Total += total
	}
	s.mu.Unlock()
}

// StepThreshold suma n sub-tareas terminadas.
func (s *State) StepThreshold(n int) {
	s.mu.Lock()
	s.threshold.Count += n
	if s.threshold.Count > s.threshold.Total {
		s.threshold.Count = s.threshold.Total
	}
	s.mu.Unlock()
}

// StopThreshold pide a los batches en curso que dejen de lanzar sub-tareas.
func (s *State) StopThreshold() {
	s.mu.Lock()
	s.threshold.Stop = true
	s.mu.Unlock()
}

// ThresholdStopped indica si se pidió parar los batches.
func (s *State) ThresholdStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threshold.Stop
}

// EndThreshold limpia el nombre del batch activo y el flag de parada.
// Los contadores se conservan para el progreso acumulado.
func (s *State) EndThreshold() {
	s.mu.Lock()
	s.threshold.Name = ""
	s.threshold.Stop = false
	s.mu.Unlock()
}

// Threshold devuelve una copia del estado de batches.
func (s *State) Threshold() Threshold {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threshold
}

// CarryThreshold copia los contadores de batch de prev en s.
func (s *State) CarryThreshold(prev Threshold) {
	s.mu.Lock()
	s.threshold.Count = prev.Count
	s.threshold.Total = prev.Total
	s.mu.Unlock()
}

// Snapshot devuelve una copia consistente de todos los contadores.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		JobTotal:     s.jobTotal,
		JobCompleted: s.jobCompleted,
		LastJobName:  s.lastJobName,
		NextJobName:  s.nextJobName,
		Threshold:    s.threshold,
	}
}
