package domain

// Snapshot — полное состояние системы: обе коллекции целиком.
// Репозиторий всегда читает и пишет снапшот атомарно, по одному документу.
type Snapshot struct {
	Vehicles     map[string]Vehicle
	RepairOrders map[string]RepairOrder
}

// NewSnapshot возвращает пустой снапшот с инициализированными коллекциями.
func NewSnapshot() Snapshot {
	return Snapshot{
		Vehicles:     make(map[string]Vehicle),
		RepairOrders: make(map[string]RepairOrder),
	}
}

// Clone делает глубокую копию снапшота, чтобы изолировать вызывающих от мутаций.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Vehicles:     make(map[string]Vehicle, len(s.Vehicles)),
		RepairOrders: make(map[string]RepairOrder, len(s.RepairOrders)),
	}
	for id, v := range s.Vehicles {
		out.Vehicles[id] = v
	}
	for id, o := range s.RepairOrders {
		out.RepairOrders[id] = o
	}
	return out
}

// SnapshotRepository описывает внешнего коллаборатора персистентности.
// Load обязан возвращать пустой снапшот вместо ошибки, если документа ещё нет.
type SnapshotRepository interface {
	Load() (Snapshot, error)
	Save(Snapshot) error
}

// EventPublisher публикует события жизненного цикла наружу.
// Публикация — best-effort: ошибка не должна откатывать мутацию.
type EventPublisher interface {
	PublishEvent(topic string, key string, event any) error
}
