package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pibox/pibox/internal/api/models"
	"github.com/pibox/pibox/internal/relay"
)

// registerRelayRoutes sets up relay board endpoints.
func (s *Server) registerRelayRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "relay-status",
		Method:      http.MethodGet,
		Path:        "/api/relays",
		Summary:     "Relay Status",
		Description: "Current state of every relay channel",
		Tags:        []string{"relays"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct{}) (*models.RelayStatusResponse, error) {
		return &models.RelayStatusResponse{
			Body: models.RelayStatusData{Relays: s.options.Relays.States()},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "relay-action",
		Method:      http.MethodPost,
		Path:        "/api/relays/{channel}/{action}",
		Summary:     "Relay Action",
		Description: "Switch or pulse one relay channel",
		Tags:        []string{"relays"},
		Security:    withAuth(),
		Errors:      []int{401, 422},
	}, func(ctx context.Context, input *struct {
		Channel int    `path:"channel" minimum:"1" maximum:"8" doc:"Relay channel 1..8"`
		Action  string `path:"action" enum:"on,off,pulse" doc:"Action to perform"`
	}) (*models.ActionResponse, error) {
		var err error
		switch input.Action {
		case "on":
			err = s.options.Relays.Set(input.Channel, true)
		case "off":
			err = s.options.Relays.Set(input.Channel, false)
		case "pulse":
			err = s.options.Relays.Pulse(input.Channel, 0)
		}
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("Relay action failed", err)
		}
		return &models.ActionResponse{Body: models.ActionResult{
			Success: true,
			Message: fmt.Sprintf("channel %d %s", input.Channel, input.Action),
		}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "relay-action-all",
		Method:      http.MethodPost,
		Path:        "/api/relays/all/{action}",
		Summary:     "Relay Action All",
		Description: "Switch or pulse every relay channel",
		Tags:        []string{"relays"},
		Security:    withAuth(),
		Errors:      []int{401, 422},
	}, func(ctx context.Context, input *struct {
		Action string `path:"action" enum:"on,off,pulse" doc:"Action to perform"`
	}) (*models.ActionResponse, error) {
		var err error
		switch input.Action {
		case "on":
			err = s.options.Relays.SetAll(true)
		case "off":
			err = s.options.Relays.SetAll(false)
		case "pulse":
			channels := make([]int, relay.ChannelCount)
			for i := range channels {
				channels[i] = i + 1
			}
			err = s.options.Relays.PulseAll(channels, 0)
		}
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("Relay action failed", err)
		}
		return &models.ActionResponse{Body: models.ActionResult{
			Success: true,
			Message: "all channels " + input.Action,
		}}, nil
	})
}
