package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pibox/pibox/internal/anpr"
	"github.com/pibox/pibox/internal/api/models"
	"github.com/pibox/pibox/internal/store"
)

// registerVehicleRoutes sets up vehicle directory endpoints.
func (s *Server) registerVehicleRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-vehicles",
		Method:      http.MethodGet,
		Path:        "/api/vehicles",
		Summary:     "List Vehicles",
		Description: "List all vehicles in the local directory",
		Tags:        []string{"vehicles"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct{}) (*models.VehicleListResponse, error) {
		vehicles, err := s.options.Stores.Vehicles.List(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to list vehicles", err)
		}
		return &models.VehicleListResponse{
			Body: models.VehicleListData{Vehicles: vehicles, Count: len(vehicles)},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-vehicle",
		Method:      http.MethodGet,
		Path:        "/api/vehicles/{plate}",
		Summary:     "Get Vehicle",
		Description: "Look up one vehicle by plate number",
		Tags:        []string{"vehicles"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(ctx context.Context, input *struct {
		Plate string `path:"plate" doc:"Plate number, normalized or raw"`
	}) (*models.VehicleResponse, error) {
		vehicle, err := s.options.Stores.Vehicles.GetByPlate(ctx, anpr.NormalizePlate(input.Plate))
		if err == store.ErrNotFound {
			return nil, huma.Error404NotFound("Vehicle not found")
		}
		if err != nil {
			return nil, huma.Error500InternalServerError("Vehicle lookup failed", err)
		}
		return &models.VehicleResponse{Body: vehicle}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "upsert-vehicle",
		Method:      http.MethodPut,
		Path:        "/api/vehicles/{plate}",
		Summary:     "Upsert Vehicle",
		Description: "Create or update a vehicle. Local changes are overwritten by the next directory sync.",
		Tags:        []string{"vehicles"},
		Security:    withAuth(),
		Errors:      []int{401, 422},
	}, func(ctx context.Context, input *struct {
		Plate string `path:"plate" doc:"Plate number"`
		Body  store.Vehicle
	}) (*models.VehicleResponse, error) {
		vehicle := input.Body
		vehicle.Plate = anpr.NormalizePlate(input.Plate)
		if vehicle.Plate == "" {
			return nil, huma.Error422UnprocessableEntity("Plate has no usable characters")
		}
		if err := s.options.Stores.Vehicles.Upsert(ctx, vehicle); err != nil {
			return nil, huma.Error500InternalServerError("Vehicle upsert failed", err)
		}
		return &models.VehicleResponse{Body: vehicle}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-vehicle",
		Method:      http.MethodDelete,
		Path:        "/api/vehicles/{plate}",
		Summary:     "Delete Vehicle",
		Description: "Remove a vehicle from the local directory",
		Tags:        []string{"vehicles"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(ctx context.Context, input *struct {
		Plate string `path:"plate" doc:"Plate number"`
	}) (*models.ActionResponse, error) {
		err := s.options.Stores.Vehicles.Delete(ctx, anpr.NormalizePlate(input.Plate))
		if err == store.ErrNotFound {
			return nil, huma.Error404NotFound("Vehicle not found")
		}
		if err != nil {
			return nil, huma.Error500InternalServerError("Vehicle delete failed", err)
		}
		return &models.ActionResponse{Body: models.ActionResult{Success: true}}, nil
	})
}
