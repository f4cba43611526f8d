package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/sto/internal/domain"
)

// SnapshotRepository — простая in-memory реализация domain.SnapshotRepository
// для локальной разработки и тестов.
type SnapshotRepository struct {
	mu        sync.RWMutex
	snapshot  domain.Snapshot
	saveCount int
	saveErr   error
}

// NewSnapshotRepository возвращает in-memory репозиторий с пустым снапшотом.
func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{snapshot: domain.NewSnapshot()}
}

// Load возвращает копию последнего сохранённого снапшота.
func (r *SnapshotRepository) Load() (domain.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.snapshot.Clone(), nil
}

// Save запоминает копию снапшота, защищаясь от последующих мутаций извне.
func (r *SnapshotRepository) Save(snap domain.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.saveErr != nil {
		return r.saveErr
	}
	r.snapshot = snap.Clone()
	r.saveCount++
	return nil
}

// SaveCount возвращает число успешных сохранений (для проверок в тестах).
func (r *SnapshotRepository) SaveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.saveCount
}

// FailSaves заставляет последующие Save возвращать err (nil снимает отказ).
func (r *SnapshotRepository) FailSaves(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.saveErr = err
}

var _ domain.SnapshotRepository = (*SnapshotRepository)(nil)
