package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/sto/internal/domain"
)

// timeLayout — фиксированный формат всех временных меток документа.
const timeLayout = "2006-01-02 15:04:05"

// document — сериализуемая форма снапшота: две именованные мапы.
type document struct {
	Vehicles     map[string]vehicleRecord `json:"vehicles"`
	RepairOrders map[string]orderRecord   `json:"repair_orders"`
}

type vehicleRecord struct {
	ID               string `json:"id"`
	Brand            string `json:"brand"`
	Model            string `json:"model"`
	Year             int    `json:"year"`
	RegNumber        string `json:"reg_number"`
	Owner            string `json:"owner"`
	RegistrationDate string `json:"registration_date"`
}

type orderRecord struct {
	ID            string  `json:"id"`
	VehicleID     string  `json:"vehicle_id"`
	DateCreated   string  `json:"date_created"`
	WorkType      string  `json:"work_type"`
	Parts         string  `json:"parts"`
	Resources     string  `json:"resources"`
	EstimatedCost float64 `json:"estimated_cost"`
	Status        string  `json:"status"`
}

// Repository хранит снапшот в одном JSON-файле.
// Это основной бэкенд: формат документа совместим с историческими данными СТО.
type Repository struct {
	path   string
	logger *log.Entry
}

// NewRepository создаёт файловый репозиторий по указанному пути.
func NewRepository(path string, logger *log.Entry) *Repository {
	if logger == nil {
		logger = log.WithField("component", "jsonfile-repository")
	}
	return &Repository{path: path, logger: logger}
}

// Load читает документ с диска.
// Отсутствующий или нечитаемый документ не валит запуск: возвращается пустой снапшот.
func (r *Repository) Load() (domain.Snapshot, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.NewSnapshot(), nil
		}
		r.logger.WithError(err).Warn("не удалось прочитать файл данных, начинаем с пустого состояния")
		return domain.NewSnapshot(), nil
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		r.logger.WithError(err).WithField("path", r.path).
			Warn("файл данных повреждён, начинаем с пустого состояния")
		return domain.NewSnapshot(), nil
	}

	snap, err := decodeDocument(doc)
	if err != nil {
		r.logger.WithError(err).WithField("path", r.path).
			Warn("документ не декодируется, начинаем с пустого состояния")
		return domain.NewSnapshot(), nil
	}
	return snap, nil
}

// Save пишет полный снапшот. Запись идёт через временный файл с переименованием,
// чтобы прерванная запись не оставила наполовину обрезанный документ.
func (r *Repository) Save(snap domain.Snapshot) error {
	doc := encodeDocument(snap)

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot document: %w", err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp data file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp data file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp data file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

// Ping проверяет, что каталог файла данных доступен для записи.
func (r *Repository) Ping() error {
	dir := filepath.Dir(r.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat data directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data path parent %q is not a directory", dir)
	}
	return nil
}

func encodeDocument(snap domain.Snapshot) document {
	doc := document{
		Vehicles:     make(map[string]vehicleRecord, len(snap.Vehicles)),
		RepairOrders: make(map[string]orderRecord, len(snap.RepairOrders)),
	}
	for id, v := range snap.Vehicles {
		doc.Vehicles[id] = vehicleRecord{
			ID:               v.ID,
			Brand:            v.Brand,
			Model:            v.Model,
			Year:             v.Year,
			RegNumber:        v.RegNumber,
			Owner:            v.Owner,
			RegistrationDate: v.RegisteredAt.Format(timeLayout),
		}
	}
	for id, o := range snap.RepairOrders {
		doc.RepairOrders[id] = orderRecord{
			ID:            o.ID,
			VehicleID:     o.VehicleID,
			DateCreated:   o.CreatedAt.Format(timeLayout),
			WorkType:      o.WorkType,
			Parts:         o.Parts,
			Resources:     o.Resources,
			EstimatedCost: o.EstimatedCost,
			Status:        string(o.Status),
		}
	}
	return doc
}

func decodeDocument(doc document) (domain.Snapshot, error) {
	snap := domain.NewSnapshot()

	for id, rec := range doc.Vehicles {
		registeredAt, err := time.Parse(timeLayout, rec.RegistrationDate)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("%w: vehicle %s registration_date: %v", domain.ErrSnapshotCorrupted, id, err)
		}
		snap.Vehicles[id] = domain.Vehicle{
			ID:           rec.ID,
			Brand:        rec.Brand,
			Model:        rec.Model,
			Year:         rec.Year,
			RegNumber:    rec.RegNumber,
			Owner:        rec.Owner,
			RegisteredAt: registeredAt,
		}
	}

	for id, rec := range doc.RepairOrders {
		createdAt, err := time.Parse(timeLayout, rec.DateCreated)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("%w: order %s date_created: %v", domain.ErrSnapshotCorrupted, id, err)
		}
		status := domain.PaymentStatus(rec.Status)
		if !status.Valid() {
			// Исторические документы знали только два значения; всё прочее читаем как "не оплачено".
			status = domain.PaymentStatusUnpaid
		}
		snap.RepairOrders[id] = domain.RepairOrder{
			ID:            rec.ID,
			VehicleID:     rec.VehicleID,
			CreatedAt:     createdAt,
			WorkType:      rec.WorkType,
			Parts:         rec.Parts,
			Resources:     rec.Resources,
			EstimatedCost: rec.EstimatedCost,
			Status:        status,
		}
	}

	return snap, nil
}

var _ domain.SnapshotRepository = (*Repository)(nil)
