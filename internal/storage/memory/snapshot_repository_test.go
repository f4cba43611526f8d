package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/sto/internal/domain"
)

func TestSnapshotRepository_SaveLoad(t *testing.T) {
	repo := NewSnapshotRepository()

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
	if err := repo.Save(snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Vehicles) != 1 {
		t.Fatalf("loaded %d vehicles, want 1", len(got.Vehicles))
	}
	if got.Vehicles["v-1"].RegNumber != "AA1234BB" {
		t.Fatalf("reg number = %q, want AA1234BB", got.Vehicles["v-1"].RegNumber)
	}
	if repo.SaveCount() != 1 {
		t.Fatalf("SaveCount = %d, want 1", repo.SaveCount())
	}
}

func TestSnapshotRepository_Isolation(t *testing.T) {
	repo := NewSnapshotRepository()

	snap := domain.NewSnapshot()
	snap.Vehicles["v-1"] = domain.Vehicle{ID: "v-1", Brand: "Toyota"}
	if err := repo.Save(snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Мутации снаружи не должны просачиваться в сохранённое состояние.
	snap.Vehicles["v-2"] = domain.Vehicle{ID: "v-2", Brand: "Honda"}

	got, err := repo.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Vehicles) != 1 {
		t.Fatalf("saved snapshot mutated externally: %d vehicles, want 1", len(got.Vehicles))
	}

	// И наоборот: мутация загруженной копии не трогает репозиторий.
	delete(got.Vehicles, "v-1")
	again, err := repo.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(again.Vehicles) != 1 {
		t.Fatalf("loaded copy mutated repository: %d vehicles, want 1", len(again.Vehicles))
	}
}

func TestSnapshotRepository_FailSaves(t *testing.T) {
	repo := NewSnapshotRepository()
	wantErr := errors.New("disk is full")
	repo.FailSaves(wantErr)

	if err := repo.Save(domain.NewSnapshot()); !errors.Is(err, wantErr) {
		t.Fatalf("Save error = %v, want %v", err, wantErr)
	}
	if repo.SaveCount() != 0 {
		t.Fatalf("SaveCount after failed save = %d, want 0", repo.SaveCount())
	}

	repo.FailSaves(nil)
	if err := repo.Save(domain.NewSnapshot()); err != nil {
		t.Fatalf("Save after clearing failure: %v", err)
	}
	if repo.SaveCount() != 1 {
		t.Fatalf("SaveCount = %d, want 1", repo.SaveCount())
	}
}
