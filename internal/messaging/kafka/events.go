package kafka

import "time"

// EventType определяет тип события жизненного цикла.
type EventType string

const (
	// События транспортных средств
	EventTypeVehicleRegistered EventType = "vehicle.registered"
	EventTypeVehicleUpdated    EventType = "vehicle.updated"
	EventTypeVehicleDeleted    EventType = "vehicle.deleted"

	// События заявок на ремонт
	EventTypeOrderCreated EventType = "order.created"
	EventTypeOrderPaid    EventType = "order.paid"
)

// Topics для Kafka
const (
	TopicVehicleEvents = "sto.vehicle.events"
	TopicOrderEvents   = "sto.order.events"
)

// VehicleEvent представляет событие транспортного средства.
type VehicleEvent struct {
	EventType EventType `json:"event_type"`
	VehicleID string    `json:"vehicle_id"`
	RegNumber string    `json:"reg_number"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderEvent представляет событие заявки на ремонт.
type OrderEvent struct {
	EventType EventType `json:"event_type"`
	OrderID   string    `json:"order_id"`
	VehicleID string    `json:"vehicle_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// NewVehicleEvent создает событие транспортного средства.
func NewVehicleEvent(eventType EventType, vehicleID, regNumber string) *VehicleEvent {
	return &VehicleEvent{
		EventType: eventType,
		VehicleID: vehicleID,
		RegNumber: regNumber,
		Timestamp: time.Now(),
	}
}

// NewOrderEvent создает событие заявки.
func NewOrderEvent(eventType EventType, orderID, vehicleID, status string) *OrderEvent {
	return &OrderEvent{
		EventType: eventType,
		OrderID:   orderID,
		VehicleID: vehicleID,
		Status:    status,
		Timestamp: time.Now(),
	}
}
