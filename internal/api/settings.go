package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pibox/pibox/internal/api/models"
)

// registerSettingsRoutes sets up the runtime settings endpoints.
func (s *Server) registerSettingsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-settings",
		Method:      http.MethodGet,
		Path:        "/api/settings",
		Summary:     "Get Settings",
		Description: "Read the persisted runtime settings",
		Tags:        []string{"settings"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct{}) (*models.SettingsResponse, error) {
		settings, err := s.options.Stores.Settings.All(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to read settings", err)
		}
		return &models.SettingsResponse{Body: models.SettingsData{Settings: settings}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "put-setting",
		Method:      http.MethodPut,
		Path:        "/api/settings/{key}",
		Summary:     "Put Setting",
		Description: "Set one runtime setting",
		Tags:        []string{"settings"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct {
		Key  string `path:"key" doc:"Setting name"`
		Body struct {
			Value string `json:"value" doc:"Setting value"`
		}
	}) (*models.ActionResponse, error) {
		if err := s.options.Stores.Settings.Set(ctx, input.Key, input.Body.Value); err != nil {
			return nil, huma.Error500InternalServerError("Failed to save setting", err)
		}
		return &models.ActionResponse{Body: models.ActionResult{Success: true}}, nil
	})
}
