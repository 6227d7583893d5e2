// Package cmd contains maintenance subcommands for the controller binary.
package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/pibox/pibox/internal/relay"
)

// CreateRelayCmd returns the relay test subcommand. It drives the board
// directly, without the API server running.
func CreateRelayCmd() *cobra.Command {
	var pulseMs int

	cmd := &cobra.Command{
		Use:   "relay <channel|all> <on|off|pulse>",
		Short: "Exercise relay channels from the command line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := relay.New(nil)
			defer ctrl.Close()

			action := args[1]
			pulse := time.Duration(pulseMs) * time.Millisecond

			if args[0] == "all" {
				switch action {
				case "on":
					return ctrl.SetAll(true)
				case "off":
					return ctrl.SetAll(false)
				case "pulse":
					channels := make([]int, relay.ChannelCount)
					for i := range channels {
						channels[i] = i + 1
					}
					if err := ctrl.PulseAll(channels, pulse); err != nil {
						return err
					}
					time.Sleep(pulse + 200*time.Millisecond)
					return nil
				default:
					return fmt.Errorf("unknown action %q", action)
				}
			}

			channel, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("channel must be a number or \"all\": %w", err)
			}
			switch action {
			case "on":
				return ctrl.Set(channel, true)
			case "off":
				return ctrl.Set(channel, false)
			case "pulse":
				if err := ctrl.Pulse(channel, pulse); err != nil {
					return err
				}
				time.Sleep(pulse + 200*time.Millisecond)
				return nil
			default:
				return fmt.Errorf("unknown action %q", action)
			}
		},
	}
	cmd.Flags().IntVar(&pulseMs, "pulse-ms", 1500, "Pulse duration in milliseconds")
	return cmd
}
