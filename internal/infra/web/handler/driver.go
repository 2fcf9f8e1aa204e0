package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/khanhle/gocab/internal/domain/entity"
)

// DriverRegistry is the slice of the registry the driver handler needs.
type DriverRegistry interface {
	AddDriver(ctx context.Context, name, gender string, age int, vehicle, plate string, loc entity.Coord) error
	RemoveDriver(ctx context.Context, name string) error
	UpdateDriverLocation(ctx context.Context, name string, loc entity.Coord) error
	SetDriverAvailability(ctx context.Context, name string, available bool) error
	Driver(ctx context.Context, name string) (entity.DriverView, error)
	SnapshotDrivers(ctx context.Context) []entity.DriverView
}

type Driver struct {
	registry DriverRegistry
}

func NewDriverHandler(registry DriverRegistry) *Driver {
	return &Driver{registry: registry}
}

type CreateDriverInput struct {
	Name     string        `json:"name"`
	Gender   string        `json:"gender"`
	Age      int           `json:"age"`
	Vehicle  string        `json:"vehicle"`
	Plate    string        `json:"plate"`
	Location LocationInput `json:"location"`
}

type AvailabilityInput struct {
	Available bool `json:"available"`
}

func (h *Driver) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreateDriverInput
	if !decode(w, r, &dto) {
		return
	}
	err := h.registry.AddDriver(r.Context(), dto.Name, dto.Gender, dto.Age,
		dto.Vehicle, dto.Plate, entity.Coord{X: dto.Location.X, Y: dto.Location.Y})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Driver) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.registry.Driver(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// List returns the current snapshot, earnings included, so it doubles as
// the per-driver earnings report.
func (h *Driver) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.SnapshotDrivers(r.Context()))
}

func (h *Driver) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.RemoveDriver(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Driver) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var dto LocationInput
	if !decode(w, r, &dto) {
		return
	}
	err := h.registry.UpdateDriverLocation(r.Context(), chi.URLParam(r, "name"), entity.Coord{X: dto.X, Y: dto.Y})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Driver) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	var dto AvailabilityInput
	if !decode(w, r, &dto) {
		return
	}
	err := h.registry.SetDriverAvailability(r.Context(), chi.URLParam(r, "name"), dto.Available)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
