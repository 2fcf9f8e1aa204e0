package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/khanhle/gocab/internal/domain/entity"
)

// RiderRegistry is the slice of the registry the rider handler needs.
type RiderRegistry interface {
	AddRider(ctx context.Context, name, gender string, age int) error
	RemoveRider(ctx context.Context, name string) error
	UpdateRiderLocation(ctx context.Context, name string, loc entity.Coord) error
	Rider(ctx context.Context, name string) (entity.RiderView, error)
}

type Rider struct {
	registry RiderRegistry
}

func NewRiderHandler(registry RiderRegistry) *Rider {
	return &Rider{registry: registry}
}

type CreateRiderInput struct {
	Name   string `json:"name"`
	Gender string `json:"gender"`
	Age    int    `json:"age"`
}

type LocationInput struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (h *Rider) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreateRiderInput
	if !decode(w, r, &dto) {
		return
	}
	if err := h.registry.AddRider(r.Context(), dto.Name, dto.Gender, dto.Age); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Rider) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.registry.Rider(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Rider) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.RemoveRider(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Rider) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var dto LocationInput
	if !decode(w, r, &dto) {
		return
	}
	err := h.registry.UpdateRiderLocation(r.Context(), chi.URLParam(r, "name"), entity.Coord{X: dto.X, Y: dto.Y})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
