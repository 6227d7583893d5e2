package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pibox/pibox/internal/api/models"
	"github.com/pibox/pibox/internal/relay"
	"github.com/pibox/pibox/internal/store"
)

// registerBarrierRoutes sets up camera-IP to relay mapping endpoints.
func (s *Server) registerBarrierRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-barriers",
		Method:      http.MethodGet,
		Path:        "/api/barriers",
		Summary:     "List Barriers",
		Description: "List camera to relay channel mappings",
		Tags:        []string{"barriers"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct{}) (*models.BarrierListResponse, error) {
		barriers, err := s.options.Stores.Barriers.List(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to list barriers", err)
		}
		return &models.BarrierListResponse{Body: models.BarrierListData{Barriers: barriers}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "put-barrier",
		Method:      http.MethodPut,
		Path:        "/api/barriers/{ip}",
		Summary:     "Put Barrier",
		Description: "Create or replace the relay mapping for a camera IP",
		Tags:        []string{"barriers"},
		Security:    withAuth(),
		Errors:      []int{401, 422},
	}, func(ctx context.Context, input *struct {
		IP   string `path:"ip" doc:"Camera IP address"`
		Body store.BarrierMapping
	}) (*models.BarrierResponse, error) {
		mapping := input.Body
		mapping.CameraIP = input.IP
		for _, ch := range mapping.RelayChannels {
			if ch < 1 || ch > relay.ChannelCount {
				return nil, huma.Error422UnprocessableEntity("Relay channel out of range")
			}
		}
		if err := s.options.Stores.Barriers.Put(ctx, mapping); err != nil {
			return nil, huma.Error500InternalServerError("Barrier save failed", err)
		}
		return &models.BarrierResponse{Body: mapping}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-barrier",
		Method:      http.MethodDelete,
		Path:        "/api/barriers/{ip}",
		Summary:     "Delete Barrier",
		Description: "Remove the relay mapping for a camera IP",
		Tags:        []string{"barriers"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(ctx context.Context, input *struct {
		IP string `path:"ip" doc:"Camera IP address"`
	}) (*models.ActionResponse, error) {
		err := s.options.Stores.Barriers.Delete(ctx, input.IP)
		if err == store.ErrNotFound {
			return nil, huma.Error404NotFound("Barrier mapping not found")
		}
		if err != nil {
			return nil, huma.Error500InternalServerError("Barrier delete failed", err)
		}
		return &models.ActionResponse{Body: models.ActionResult{Success: true}}, nil
	})
}
