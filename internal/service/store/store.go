package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/sto/internal/domain"
	"github.com/vladislavdragonenkov/sto/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/sto/internal/metrics"
)

// Store владеет обеими коллекциями и выполняет все мутации с проверкой инвариантов.
// Персистентность делегируется внешнему SnapshotRepository: после каждой успешной
// мутации полный снапшот синхронно записывается; ошибка записи логируется и
// учитывается в метриках, но уже применённое изменение в памяти не откатывается.
type Store struct {
	mu        sync.RWMutex
	repo      domain.SnapshotRepository
	publisher domain.EventPublisher
	metrics   *metrics.StoreMetrics
	logger    *log.Entry

	now   func() time.Time
	newID func() string

	snapshot domain.Snapshot
	// Порядок вставки живых записей. JSON-документ порядок не хранит, поэтому
	// после перезагрузки он восстанавливается по времени создания с тай-брейком
	// по ID; метки в документе секундной точности, записи одной секунды могут
	// поменяться местами.
	vehicleOrder []string
	orderOrder   []string
}

// New загружает снапшот из репозитория и возвращает готовый Store.
// publisher и m могут быть nil: публикация событий и метрики опциональны.
func New(repo domain.SnapshotRepository, publisher domain.EventPublisher, m *metrics.StoreMetrics, logger *log.Entry) (*Store, error) {
	if logger == nil {
		logger = log.WithField("component", "store")
	}

	snap, err := repo.Load()
	if err != nil {
		return nil, err
	}
	if snap.Vehicles == nil || snap.RepairOrders == nil {
		snap = domain.NewSnapshot()
	}

	s := &Store{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
		snapshot:  snap,
	}
	s.rebuildOrder()
	s.updateGauges()

	logger.WithFields(log.Fields{
		"vehicles": len(snap.Vehicles),
		"orders":   len(snap.RepairOrders),
	}).Info("состояние СТО загружено")

	return s, nil
}

// rebuildOrder восстанавливает порядок обхода по времени создания (тай-брейк по ID).
func (s *Store) rebuildOrder() {
	s.vehicleOrder = s.vehicleOrder[:0]
	for id := range s.snapshot.Vehicles {
		s.vehicleOrder = append(s.vehicleOrder, id)
	}
	sort.Slice(s.vehicleOrder, func(i, j int) bool {
		a := s.snapshot.Vehicles[s.vehicleOrder[i]]
		b := s.snapshot.Vehicles[s.vehicleOrder[j]]
		if !a.RegisteredAt.Equal(b.RegisteredAt) {
			return a.RegisteredAt.Before(b.RegisteredAt)
		}
		return a.ID < b.ID
	})

	s.orderOrder = s.orderOrder[:0]
	for id := range s.snapshot.RepairOrders {
		s.orderOrder = append(s.orderOrder, id)
	}
	sort.Slice(s.orderOrder, func(i, j int) bool {
		a := s.snapshot.RepairOrders[s.orderOrder[i]]
		b := s.snapshot.RepairOrders[s.orderOrder[j]]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// RegisterVehicle регистрирует новое транспортное средство.
// Возвращает ErrDuplicateRegNumber, если регистрационный номер уже занят.
func (s *Store) RegisterVehicle(brand, model string, year int, regNumber, owner string) (domain.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range s.snapshot.Vehicles {
		if v.RegNumber == regNumber {
			s.recordOperation("register_vehicle", domain.ErrDuplicateRegNumber)
			return domain.Vehicle{}, domain.ErrDuplicateRegNumber
		}
	}

	vehicle := domain.Vehicle{
		ID:           s.newID(),
		Brand:        brand,
		Model:        model,
		Year:         year,
		RegNumber:    regNumber,
		Owner:        owner,
		RegisteredAt: s.now(),
	}

	s.snapshot.Vehicles[vehicle.ID] = vehicle
	s.vehicleOrder = append(s.vehicleOrder, vehicle.ID)

	s.persist("register_vehicle")
	s.publish(kafka.TopicVehicleEvents, vehicle.ID,
		kafka.NewVehicleEvent(kafka.EventTypeVehicleRegistered, vehicle.ID, vehicle.RegNumber))
	s.recordOperation("register_vehicle", nil)
	s.updateGauges()

	s.logger.WithFields(log.Fields{
		"vehicle_id": vehicle.ID,
		"reg_number": vehicle.RegNumber,
	}).Info("транспортное средство зарегистрировано")

	return vehicle, nil
}

// EditVehicle применяет частичное обновление: nil-поля не меняются.
// Уникальность номера проверяется против всех прочих транспортных средств,
// совпадение с собственным номером допустимо.
func (s *Store) EditVehicle(id string, update domain.VehicleUpdate) (domain.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vehicle, ok := s.snapshot.Vehicles[id]
	if !ok {
		s.recordOperation("edit_vehicle", domain.ErrVehicleNotFound)
		return domain.Vehicle{}, domain.ErrVehicleNotFound
	}

	if update.RegNumber != nil {
		for otherID, other := range s.snapshot.Vehicles {
			if otherID != id && other.RegNumber == *update.RegNumber {
				s.recordOperation("edit_vehicle", domain.ErrDuplicateRegNumber)
				return domain.Vehicle{}, domain.ErrDuplicateRegNumber
			}
		}
	}

	if update.Brand != nil {
		vehicle.Brand = *update.Brand
	}
	if update.Model != nil {
		vehicle.Model = *update.Model
	}
	if update.Year != nil {
		vehicle.Year = *update.Year
	}
	if update.RegNumber != nil {
		vehicle.RegNumber = *update.RegNumber
	}
	if update.Owner != nil {
		vehicle.Owner = *update.Owner
	}
	s.snapshot.Vehicles[id] = vehicle

	s.persist("edit_vehicle")
	s.publish(kafka.TopicVehicleEvents, vehicle.ID,
		kafka.NewVehicleEvent(kafka.EventTypeVehicleUpdated, vehicle.ID, vehicle.RegNumber))
	s.recordOperation("edit_vehicle", nil)

	return vehicle, nil
}

// DeleteVehicle удаляет транспортное средство.
// Удаление безусловно блокируется, пока на него ссылается хотя бы одна заявка.
func (s *Store) DeleteVehicle(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vehicle, ok := s.snapshot.Vehicles[id]
	if !ok {
		s.recordOperation("delete_vehicle", domain.ErrVehicleNotFound)
		return domain.ErrVehicleNotFound
	}

	for _, order := range s.snapshot.RepairOrders {
		if order.VehicleID == id {
			s.recordOperation("delete_vehicle", domain.ErrVehicleHasOrders)
			return domain.ErrVehicleHasOrders
		}
	}

	delete(s.snapshot.Vehicles, id)
	for i, vid := range s.vehicleOrder {
		if vid == id {
			s.vehicleOrder = append(s.vehicleOrder[:i], s.vehicleOrder[i+1:]...)
			break
		}
	}

	s.persist("delete_vehicle")
	s.publish(kafka.TopicVehicleEvents, id,
		kafka.NewVehicleEvent(kafka.EventTypeVehicleDeleted, id, vehicle.RegNumber))
	s.recordOperation("delete_vehicle", nil)
	s.updateGauges()

	s.logger.WithField("vehicle_id", id).Info("транспортное средство удалено")

	return nil
}

// AddRepairOrder создаёт заявку на ремонт против существующего транспортного средства.
func (s *Store) AddRepairOrder(vehicleID, workType, parts, resources string, estimatedCost float64) (domain.RepairOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if estimatedCost < 0 {
		s.recordOperation("add_repair_order", domain.ErrCostNegative)
		return domain.RepairOrder{}, domain.ErrCostNegative
	}
	if _, ok := s.snapshot.Vehicles[vehicleID]; !ok {
		s.recordOperation("add_repair_order", domain.ErrVehicleNotFound)
		return domain.RepairOrder{}, domain.ErrVehicleNotFound
	}

	order := domain.RepairOrder{
		ID:            s.newID(),
		VehicleID:     vehicleID,
		CreatedAt:     s.now(),
		WorkType:      workType,
		Parts:         parts,
		Resources:     resources,
		EstimatedCost: estimatedCost,
		Status:        domain.PaymentStatusUnpaid,
	}

	s.snapshot.RepairOrders[order.ID] = order
	s.orderOrder = append(s.orderOrder, order.ID)

	s.persist("add_repair_order")
	s.publish(kafka.TopicOrderEvents, order.ID,
		kafka.NewOrderEvent(kafka.EventTypeOrderCreated, order.ID, order.VehicleID, string(order.Status)))
	s.recordOperation("add_repair_order", nil)
	s.updateGauges()

	s.logger.WithFields(log.Fields{
		"order_id":   order.ID,
		"vehicle_id": order.VehicleID,
	}).Info("заявка на ремонт добавлена")

	return order, nil
}

// MarkOrderPaid переводит заявку в статус "Оплачено".
// Переход односторонний; повторный вызов для уже оплаченной заявки — no-op успех.
func (s *Store) MarkOrderPaid(orderID string) (domain.RepairOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.snapshot.RepairOrders[orderID]
	if !ok {
		s.recordOperation("mark_order_paid", domain.ErrOrderNotFound)
		return domain.RepairOrder{}, domain.ErrOrderNotFound
	}

	if order.Status == domain.PaymentStatusPaid {
		s.recordOperation("mark_order_paid", nil)
		return order, nil
	}

	order.Status = domain.PaymentStatusPaid
	s.snapshot.RepairOrders[orderID] = order

	s.persist("mark_order_paid")
	s.publish(kafka.TopicOrderEvents, order.ID,
		kafka.NewOrderEvent(kafka.EventTypeOrderPaid, order.ID, order.VehicleID, string(order.Status)))
	s.recordOperation("mark_order_paid", nil)

	s.logger.WithField("order_id", orderID).Info("заявка отмечена как оплаченная")

	return order, nil
}

// VehicleByID возвращает копию транспортного средства.
func (s *Store) VehicleByID(id string) (domain.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vehicle, ok := s.snapshot.Vehicles[id]
	if !ok {
		return domain.Vehicle{}, domain.ErrVehicleNotFound
	}
	return vehicle, nil
}

// OrderByID возвращает копию заявки.
func (s *Store) OrderByID(id string) (domain.RepairOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.snapshot.RepairOrders[id]
	if !ok {
		return domain.RepairOrder{}, domain.ErrOrderNotFound
	}
	return order, nil
}

// Vehicles возвращает все транспортные средства в порядке вставки.
func (s *Store) Vehicles() []domain.Vehicle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Vehicle, 0, len(s.vehicleOrder))
	for _, id := range s.vehicleOrder {
		result = append(result, s.snapshot.Vehicles[id])
	}
	return result
}

// Orders возвращает все заявки в порядке вставки.
func (s *Store) Orders() []domain.RepairOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.RepairOrder, 0, len(s.orderOrder))
	for _, id := range s.orderOrder {
		result = append(result, s.snapshot.RepairOrders[id])
	}
	return result
}

// persist пишет полный снапшот; неуспех не откатывает мутацию в памяти.
func (s *Store) persist(operation string) {
	if err := s.repo.Save(s.snapshot.Clone()); err != nil {
		if s.metrics != nil {
			s.metrics.RecordPersistenceFailure()
		}
		s.logger.WithError(err).WithField("operation", operation).
			Warn("не удалось сохранить снапшот, изменение применено только в памяти")
	}
}

// publish отправляет событие, если publisher настроен; ошибки только логируются.
func (s *Store) publish(topic, key string, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(topic, key, event); err != nil {
		if s.metrics != nil {
			s.metrics.RecordEventPublishFailure()
		}
		s.logger.WithError(err).WithField("topic", topic).Warn("не удалось опубликовать событие")
		return
	}
	if s.metrics != nil {
		s.metrics.RecordEventPublished()
	}
}

func (s *Store) recordOperation(operation string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordOperation(operation, err)
}

func (s *Store) updateGauges() {
	if s.metrics == nil {
		return
	}
	s.metrics.SetVehicles(len(s.snapshot.Vehicles))
	s.metrics.SetOrders(len(s.snapshot.RepairOrders))
}
