package jsonfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/sto/internal/domain"
)

func testSnapshot() domain.Snapshot {
	snap := domain.NewSnapshot()
	snap.Vehicles["v-1"] = domain.Vehicle{
		ID:           "v-1",
		Brand:        "Toyota",
		Model:        "Corolla",
		Year:         2020,
		RegNumber:    "AA1234BB",
		Owner:        "Ivan",
		RegisteredAt: time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC),
	}
	snap.RepairOrders["o-1"] = domain.RepairOrder{
		ID:            "o-1",
		VehicleID:     "v-1",
		CreatedAt:     time.Date(2026, 3, 11, 9, 15, 45, 0, time.UTC),
		WorkType:      "Заміна мастила",
		Parts:         "фільтр",
		Resources:     "",
		EstimatedCost: 500,
		Status:        domain.PaymentStatusUnpaid,
	}
	return snap
}

func TestRepository_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sto_data.json")
	repo := NewRepository(path, nil)

	want := testSnapshot()
	if err := repo.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(want.Vehicles, got.Vehicles) {
		t.Fatalf("vehicles mismatch after round trip:\nwant %+v\ngot  %+v", want.Vehicles, got.Vehicles)
	}
	if !reflect.DeepEqual(want.RepairOrders, got.RepairOrders) {
		t.Fatalf("orders mismatch after round trip:\nwant %+v\ngot  %+v", want.RepairOrders, got.RepairOrders)
	}
}

func TestRepository_DocumentShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sto_data.json")
	repo := NewRepository(path, nil)

	if err := repo.Save(testSnapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read document: %v", err)
	}

	var doc map[string]map[string]map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal document: %v", err)
	}

	vehicle, ok := doc["vehicles"]["v-1"]
	if !ok {
		t.Fatalf("vehicles map missing key v-1, document: %s", raw)
	}
	if got := vehicle["registration_date"]; got != "2026-03-10 12:30:00" {
		t.Fatalf("registration_date = %v, want 2026-03-10 12:30:00", got)
	}

	order, ok := doc["repair_orders"]["o-1"]
	if !ok {
		t.Fatalf("repair_orders map missing key o-1, document: %s", raw)
	}
	if got := order["date_created"]; got != "2026-03-11 09:15:45" {
		t.Fatalf("date_created = %v, want 2026-03-11 09:15:45", got)
	}
	if got := order["status"]; got != string(domain.PaymentStatusUnpaid) {
		t.Fatalf("status = %v, want %s", got, domain.PaymentStatusUnpaid)
	}
}

func TestRepository_LoadMissingFile(t *testing.T) {
	repo := NewRepository(filepath.Join(t.TempDir(), "absent.json"), nil)

	snap, err := repo.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Vehicles) != 0 || len(snap.RepairOrders) != 0 {
		t.Fatalf("expected empty snapshot, got %d vehicles, %d orders", len(snap.Vehicles), len(snap.RepairOrders))
	}
}

func TestRepository_LoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("prepare file: %v", err)
	}
	repo := NewRepository(path, nil)

	snap, err := repo.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Vehicles) != 0 || len(snap.RepairOrders) != 0 {
		t.Fatalf("expected empty snapshot for malformed file, got %d vehicles, %d orders",
			len(snap.Vehicles), len(snap.RepairOrders))
	}
}

func TestRepository_LoadBadTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad_ts.json")
	raw := `{"vehicles":{"v-1":{"id":"v-1","brand":"Toyota","model":"Corolla","year":2020,` +
		`"reg_number":"AA1234BB","owner":"Ivan","registration_date":"not-a-date"}},"repair_orders":{}}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("prepare file: %v", err)
	}
	repo := NewRepository(path, nil)

	snap, err := repo.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Vehicles) != 0 {
		t.Fatalf("expected empty snapshot for undecodable document, got %d vehicles", len(snap.Vehicles))
	}
}

func TestRepository_LoadUnknownStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	raw := `{"vehicles":{},"repair_orders":{"o-1":{"id":"o-1","vehicle_id":"v-1",` +
		`"date_created":"2026-03-11 09:15:45","work_type":"Діагностика","parts":"","resources":"",` +
		`"estimated_cost":300,"status":"загублено"}}}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("prepare file: %v", err)
	}
	repo := NewRepository(path, nil)

	snap, err := repo.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	order, ok := snap.RepairOrders["o-1"]
	if !ok {
		t.Fatalf("order o-1 not loaded")
	}
	if order.Status != domain.PaymentStatusUnpaid {
		t.Fatalf("unknown status read as %q, want %q", order.Status, domain.PaymentStatusUnpaid)
	}
}

func TestRepository_SaveOverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sto_data.json")
	repo := NewRepository(path, nil)

	if err := repo.Save(testSnapshot()); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	empty := domain.NewSnapshot()
	if err := repo.Save(empty); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	snap, err := repo.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Vehicles) != 0 || len(snap.RepairOrders) != 0 {
		t.Fatalf("expected empty snapshot after overwrite, got %d vehicles, %d orders",
			len(snap.Vehicles), len(snap.RepairOrders))
	}
}

func TestRepository_Ping(t *testing.T) {
	dir := t.TempDir()
	if err := NewRepository(filepath.Join(dir, "data.json"), nil).Ping(); err != nil {
		t.Fatalf("Ping on existing directory: %v", err)
	}
	if err := NewRepository(filepath.Join(dir, "absent", "data.json"), nil).Ping(); err == nil {
		t.Fatalf("Ping on missing directory succeeded, want error")
	}
}
