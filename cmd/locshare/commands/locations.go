package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/poofware/locshare-service/internal/client"
)

func publishCmd() *cobra.Command {
	var (
		groupIDs []string
		accuracy float64
		note     string
	)
	cmd := &cobra.Command{
		Use:   "publish <latitude> <longitude>",
		Short: "Encrypt a location to every member of the given groups and upload it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, lng, err := parseCoordinates(args[0], args[1])
			if err != nil {
				return err
			}
			api, _, err := authedAPI()
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()
			rec, err := api.Publish(ctx, client.Location{
				Latitude:   lat,
				Longitude:  lng,
				AccuracyM:  accuracy,
				Note:       note,
				RecordedAt: time.Now().UTC(),
			}, groupIDs)
			if err != nil {
				return err
			}
			printf(cmd, "published %s (expires %s)\n", rec.ID, rec.ExpiresAt.Local().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&groupIDs, "group", "g", nil, "target group id (repeatable)")
	cmd.Flags().Float64Var(&accuracy, "accuracy", 0, "accuracy radius in metres")
	cmd.Flags().StringVar(&note, "note", "", "free-text note")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}

func fetchCmd() *cobra.Command {
	var (
		limit   int
		groupID string
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download and decrypt locations shared with you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, key, err := authedAPI()
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()
			shared, err := api.Fetch(ctx, key, limit, groupID)
			if err != nil {
				return err
			}
			for _, s := range shared {
				sender := s.Record.SenderFingerprint
				if s.Record.SenderName != "" {
					sender = s.Record.SenderName
				}
				if s.Err != nil {
					printf(cmd, "%s  %s  <cannot decrypt: %v>\n", s.Record.CreatedAt.Local().Format(time.RFC3339), sender, s.Err)
					continue
				}
				printf(cmd, "%s  %s  %.6f,%.6f", s.Location.RecordedAt.Local().Format(time.RFC3339), sender, s.Location.Latitude, s.Location.Longitude)
				if s.Location.AccuracyM > 0 {
					printf(cmd, " ±%.0fm", s.Location.AccuracyM)
				}
				if s.Location.Note != "" {
					printf(cmd, "  %q", s.Location.Note)
				}
				printf(cmd, "\n")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "records per sender, 1-100 (default: server default)")
	cmd.Flags().StringVarP(&groupID, "group", "g", "", "restrict to one group id")
	return cmd
}
