package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pibox/pibox/internal/anpr"
)

// CreatePlateCmd returns the plate utility subcommand: normalize plates and
// dry-run vendor payload parsing against sample files.
func CreatePlateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plate",
		Short: "Plate normalization and payload parsing utilities",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "normalize <plate>...",
		Short: "Print the normalized form of plate numbers",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			for _, raw := range args {
				fmt.Printf("%s -> %s\n", raw, anpr.NormalizePlate(raw))
			}
		},
	})

	parseCmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a captured camera payload and print the detection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			vendor, _ := cmd.Flags().GetString("vendor")
			var det *anpr.Detection
			switch vendor {
			case "hikvision":
				det, err = anpr.ParseHikvisionXML(data)
			case "dahua":
				det, err = anpr.ParseDahuaJSON(data)
			default:
				return fmt.Errorf("unknown vendor %q", vendor)
			}
			if err != nil {
				return err
			}
			fmt.Printf("plate=%s confidence=%.2f direction=%s time=%s\n",
				det.Plate, det.Confidence, det.Direction, det.Timestamp.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
	parseCmd.Flags().String("vendor", "hikvision", "Payload vendor: hikvision or dahua")
	cmd.AddCommand(parseCmd)

	return cmd
}
