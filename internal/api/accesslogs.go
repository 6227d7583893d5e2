package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pibox/pibox/internal/access"
	"github.com/pibox/pibox/internal/api/models"
)

// registerAccessRoutes sets up access log, stats and status endpoints.
func (s *Server) registerAccessRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-access-logs",
		Method:      http.MethodGet,
		Path:        "/api/access-logs",
		Summary:     "Access Logs",
		Description: "List recent access decisions, newest first",
		Tags:        []string{"access"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct {
		Limit int `query:"limit" default:"100" minimum:"1" maximum:"1000" doc:"Maximum entries to return"`
	}) (*models.AccessLogListResponse, error) {
		logs, err := s.options.Stores.AccessLogs.List(ctx, input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to list access logs", err)
		}
		return &models.AccessLogListResponse{Body: models.AccessLogListData{Logs: logs}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-today-stats",
		Method:      http.MethodGet,
		Path:        "/api/stats",
		Summary:     "Today's Stats",
		Description: "Access decision counts since local midnight",
		Tags:        []string{"access"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct{}) (*models.StatsResponse, error) {
		stats, err := s.options.Stores.AccessLogs.TodayStats(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to compute stats", err)
		}
		return &models.StatsResponse{Body: stats}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "System Status",
		Description: "Controller status: directory connectivity, sync state, record counts",
		Tags:        []string{"system"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct{}) (*models.StatusResponse, error) {
		return &models.StatusResponse{Body: s.options.Syncer.Status()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "trigger-sync",
		Method:      http.MethodPost,
		Path:        "/api/sync",
		Summary:     "Trigger Sync",
		Description: "Request an immediate directory sync pass",
		Tags:        []string{"system"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct{}) (*models.ActionResponse, error) {
		s.options.Syncer.Trigger()
		return &models.ActionResponse{Body: models.ActionResult{Success: true, Message: "sync requested"}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "manual-open",
		Method:      http.MethodPost,
		Path:        "/api/open",
		Summary:     "Manual Open",
		Description: "Open the barrier mapped to a camera without a detection",
		Tags:        []string{"access"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(ctx context.Context, input *struct {
		Body struct {
			CameraIP string `json:"camera_ip" doc:"Camera whose barrier mapping to use"`
			Operator string `json:"operator,omitempty" doc:"Who requested the override"`
		}
	}) (*models.ActionResponse, error) {
		err := s.options.Access.ManualOpen(ctx, access.Camera{IP: input.Body.CameraIP}, input.Body.Operator)
		if err != nil {
			return nil, huma.Error404NotFound("Manual open failed", err)
		}
		return &models.ActionResponse{Body: models.ActionResult{Success: true, Message: "barrier pulsed"}}, nil
	})
}
