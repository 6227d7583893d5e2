package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pibox/pibox/internal/api/models"
	"github.com/pibox/pibox/internal/store"
)

// registerCameraRoutes sets up registered camera endpoints.
func (s *Server) registerCameraRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-cameras",
		Method:      http.MethodGet,
		Path:        "/api/cameras",
		Summary:     "List Cameras",
		Description: "List ANPR cameras registered by code",
		Tags:        []string{"cameras"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct{}) (*models.CameraListResponse, error) {
		cameras, err := s.options.Stores.Cameras.List(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to list cameras", err)
		}
		// Never return camera credentials
		for i := range cameras {
			cameras[i].Password = ""
		}
		return &models.CameraListResponse{Body: models.CameraListData{Cameras: cameras}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "put-camera",
		Method:      http.MethodPut,
		Path:        "/api/cameras/{regCode}",
		Summary:     "Put Camera",
		Description: "Register or update an ANPR camera",
		Tags:        []string{"cameras"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct {
		RegCode string `path:"regCode" doc:"Camera registration code"`
		Body    store.AnprCamera
	}) (*models.CameraResponse, error) {
		cam := input.Body
		cam.RegCode = input.RegCode
		if err := s.options.Stores.Cameras.Put(ctx, cam); err != nil {
			return nil, huma.Error500InternalServerError("Camera save failed", err)
		}
		cam.Password = ""
		return &models.CameraResponse{Body: cam}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-camera",
		Method:      http.MethodDelete,
		Path:        "/api/cameras/{regCode}",
		Summary:     "Delete Camera",
		Description: "Remove a registered ANPR camera",
		Tags:        []string{"cameras"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(ctx context.Context, input *struct {
		RegCode string `path:"regCode" doc:"Camera registration code"`
	}) (*models.ActionResponse, error) {
		err := s.options.Stores.Cameras.Delete(ctx, input.RegCode)
		if err == store.ErrNotFound {
			return nil, huma.Error404NotFound("Camera not found")
		}
		if err != nil {
			return nil, huma.Error500InternalServerError("Camera delete failed", err)
		}
		return &models.ActionResponse{Body: models.ActionResult{Success: true}}, nil
	})
}
