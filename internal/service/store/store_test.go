package store_test

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/sto/internal/domain"
	"github.com/vladislavdragonenkov/sto/internal/service/store"
	"github.com/vladislavdragonenkov/sto/internal/storage/memory"
)

func loggerForTests() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(logger)
}

func newTestStore(t *testing.T) (*store.Store, *memory.SnapshotRepository) {
	t.Helper()
	repo := memory.NewSnapshotRepository()
	st, err := store.New(repo, nil, nil, loggerForTests())
	require.NoError(t, err)
	return st, repo
}

// recordingPublisher запоминает публикации и может имитировать отказ.
type recordingPublisher struct {
	topics []string
	err    error
}

func (p *recordingPublisher) PublishEvent(topic, _ string, _ any) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	return nil
}

func TestStore_RegisterVehicle(t *testing.T) {
	st, repo := newTestStore(t)

	vehicle, err := st.RegisterVehicle("Toyota", "Corolla", 2020, "AA1234BB", "Ivan")
	require.NoError(t, err)
	require.NotEmpty(t, vehicle.ID)
	require.False(t, vehicle.RegisteredAt.IsZero())
	require.Equal(t, "AA1234BB", vehicle.RegNumber)

	stored, err := st.VehicleByID(vehicle.ID)
	require.NoError(t, err)
	require.Equal(t, vehicle, stored)

	// Мутация синхронно сохранила снапшот.
	require.Equal(t, 1, repo.SaveCount())
	snap, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, snap.Vehicles, 1)
}

func TestStore_RegisterVehicle_DuplicateRegNumber(t *testing.T) {
	st, repo := newTestStore(t)

	_, err := st.RegisterVehicle("Toyota", "Corolla", 2020, "AA1234BB", "Ivan")
	require.NoError(t, err)

	_, err = st.RegisterVehicle("Honda", "Civic", 2021, "AA1234BB", "Petro")
	require.ErrorIs(t, err, domain.ErrDuplicateRegNumber)

	require.Len(t, st.Vehicles(), 1)
	require.Equal(t, 1, repo.SaveCount())
}

func TestStore_EditVehicle_PartialUpdate(t *testing.T) {
	st, _ := newTestStore(t)

	vehicle, err := st.RegisterVehicle("Toyota", "Corolla", 2020, "AA1234BB", "Ivan")
	require.NoError(t, err)

	owner := "Petro"
	year := 2021
	updated, err := st.EditVehicle(vehicle.ID, domain.VehicleUpdate{Owner: &owner, Year: &year})
	require.NoError(t, err)

	require.Equal(t, "Petro", updated.Owner)
	require.Equal(t, 2021, updated.Year)
	// Непереданные поля не тронуты.
	require.Equal(t, "Toyota", updated.Brand)
	require.Equal(t, "AA1234BB", updated.RegNumber)
	require.Equal(t, vehicle.RegisteredAt, updated.RegisteredAt)
}

func TestStore_EditVehicle_RegNumberUniqueness(t *testing.T) {
	st, _ := newTestStore(t)

	first, err := st.RegisterVehicle("Toyota", "Corolla", 2020, "AA1234BB", "Ivan")
	require.NoError(t, err)
	second, err := st.RegisterVehicle("Honda", "Civic", 2021, "BB5678CC", "Petro")
	require.NoError(t, err)

	// Чужой номер занят.
	taken := "AA1234BB"
	_, err = st.EditVehicle(second.ID, domain.VehicleUpdate{RegNumber: &taken})
	require.ErrorIs(t, err, domain.ErrDuplicateRegNumber)

	// Совпадение с собственным номером допустимо.
	own := "AA1234BB"
	_, err = st.EditVehicle(first.ID, domain.VehicleUpdate{RegNumber: &own})
	require.NoError(t, err)
}

func TestStore_EditVehicle_NotFound(t *testing.T) {
	st, _ := newTestStore(t)

	brand := "Audi"
	_, err := st.EditVehicle("missing", domain.VehicleUpdate{Brand: &brand})
	require.ErrorIs(t, err, domain.ErrVehicleNotFound)
}

func TestStore_DeleteVehicle(t *testing.T) {
	st, _ := newTestStore(t)

	vehicle, err := st.RegisterVehicle("Toyota", "Corolla", 2020, "AA1234BB", "Ivan")
	require.NoError(t, err)

	require.NoError(t, st.DeleteVehicle(vehicle.ID))
	require.Empty(t, st.Vehicles())

	_, err = st.VehicleByID(vehicle.ID)
	require.ErrorIs(t, err, domain.ErrVehicleNotFound)

	// Повторное удаление и заявки против удалённого транспорта отклоняются.
	require.ErrorIs(t, st.DeleteVehicle(vehicle.ID), domain.ErrVehicleNotFound)
	_, err = st.AddRepairOrder(vehicle.ID, "Заміна мастила", "фільтр", "", 500)
	require.ErrorIs(t, err, domain.ErrVehicleNotFound)
}

func TestStore_DeleteVehicle_BlockedByOrders(t *testing.T) {
	st, _ := newTestStore(t)

	vehicle, err := st.RegisterVehicle("Toyota", "Corolla", 2020, "AA1234BB", "Ivan")
	require.NoError(t, err)
	_, err = st.AddRepairOrder(vehicle.ID, "Заміна мастила", "фільтр", "", 500)
	require.NoError(t, err)

	require.ErrorIs(t, st.DeleteVehicle(vehicle.ID), domain.ErrVehicleHasOrders)

	// Транспортное средство осталось на месте.
	_, err = st.VehicleByID(vehicle.ID)
	require.NoError(t, err)
}

func TestStore_AddRepairOrder(t *testing.T) {
	st, _ := newTestStore(t)

	vehicle, err := st.RegisterVehicle("Toyota", "Corolla", 2020, "AA1234BB", "Ivan")
	require.NoError(t, err)

	order, err := st.AddRepairOrder(vehicle.ID, "Заміна мастила", "фільтр", "", 500)
	require.NoError(t, err)
	require.NotEmpty(t, order.ID)
	require.Equal(t, vehicle.ID, order.VehicleID)
	require.Equal(t, domain.PaymentStatusUnpaid, order.Status)
	require.False(t, order.CreatedAt.IsZero())
}

func TestStore_AddRepairOrder_NegativeCost(t *testing.T) {
	st, _ := newTestStore(t)

	vehicle, err := st.RegisterVehicle("Toyota", "Corolla", 2020, "AA1234BB", "Ivan")
	require.NoError(t, err)

	_, err = st.AddRepairOrder(vehicle.ID, "Діагностика", "", "", -1)
	require.ErrorIs(t, err, domain.ErrCostNegative)
	require.Empty(t, st.Orders())
}

func TestStore_MarkOrderPaid_Idempotent(t *testing.T) {
	st, _ := newTestStore(t)

	vehicle, err := st.RegisterVehicle("Toyota", "Corolla", 2020, "AA1234BB", "Ivan")
	require.NoError(t, err)
	order, err := st.AddRepairOrder(vehicle.ID, "Заміна мастила", "фільтр", "", 500)
	require.NoError(t, err)

	paid, err := st.MarkOrderPaid(order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusPaid, paid.Status)

	// Повторная отметка — no-op успех.
	paidAgain, err := st.MarkOrderPaid(order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusPaid, paidAgain.Status)

	_, err = st.MarkOrderPaid("missing")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestStore_PersistenceFailureIsBestEffort(t *testing.T) {
	st, repo := newTestStore(t)

	repo.FailSaves(errors.New("disk full"))

	// Мутация применяется в памяти, несмотря на отказ записи.
	vehicle, err := st.RegisterVehicle("Toyota", "Corolla", 2020, "AA1234BB", "Ivan")
	require.NoError(t, err)

	stored, err := st.VehicleByID(vehicle.ID)
	require.NoError(t, err)
	require.Equal(t, vehicle.ID, stored.ID)
	require.Equal(t, 0, repo.SaveCount())

	// После восстановления записи следующая мутация сохраняет полный снапшот.
	repo.FailSaves(nil)
	_, err = st.AddRepairOrder(vehicle.ID, "Діагностика", "", "", 300)
	require.NoError(t, err)

	snap, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, snap.Vehicles, 1)
	require.Len(t, snap.RepairOrders, 1)
}

func TestStore_PublishFailureDoesNotFailMutation(t *testing.T) {
	repo := memory.NewSnapshotRepository()
	publisher := &recordingPublisher{err: errors.New("broker down")}
	st, err := store.New(repo, publisher, nil, loggerForTests())
	require.NoError(t, err)

	_, err = st.RegisterVehicle("Toyota", "Corolla", 2020, "AA1234BB", "Ivan")
	require.NoError(t, err)

	publisher.err = nil
	_, err = st.RegisterVehicle("Honda", "Civic", 2021, "BB5678CC", "Petro")
	require.NoError(t, err)
	require.Len(t, publisher.topics, 1)
}

func TestStore_InsertionOrderSurvivesReload(t *testing.T) {
	repo := memory.NewSnapshotRepository()
	st, err := store.New(repo, nil, nil, loggerForTests())
	require.NoError(t, err)

	for i, reg := range []string{"AA0001BB", "AA0002BB", "AA0003BB"} {
		_, err := st.RegisterVehicle("Brand", "Model", 2000+i, reg, "Owner")
		require.NoError(t, err)
	}

	orderBefore := make([]string, 0, 3)
	for _, v := range st.Vehicles() {
		orderBefore = append(orderBefore, v.ID)
	}

	// Второй Store поверх того же репозитория видит тот же порядок обхода.
	reloaded, err := store.New(repo, nil, nil, loggerForTests())
	require.NoError(t, err)

	orderAfter := make([]string, 0, 3)
	for _, v := range reloaded.Vehicles() {
		orderAfter = append(orderAfter, v.ID)
	}
	require.Equal(t, orderBefore, orderAfter)
}
