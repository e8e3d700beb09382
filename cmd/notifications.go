package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/asset-portal/internal/core/events"
	"github.com/frahmantamala/asset-portal/internal/notification"
)

var watchNotifications bool

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Show notifications for the signed in user",
	Long:  `Print the current notifications once, or keep polling with --watch until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		deps, err := initializeDependencies(ctx)
		if err != nil {
			return err
		}
		defer deps.Close()

		st, err := deps.restoreSession(ctx)
		if err != nil {
			return err
		}

		if !watchNotifications {
			return renderNotifications(cmd.OutOrStdout(), deps.Aggregator.Compute(ctx, st))
		}

		out := cmd.OutOrStdout()
		deps.Bus.Subscribe(events.TypeNotificationsUpdated, func(ctx context.Context, event events.Event) error {
			list, ok := event.Payload().([]notification.Notification)
			if !ok {
				return fmt.Errorf("unexpected payload %T", event.Payload())
			}
			deps.Logger.Debug("notifications refreshed", "event_id", event.EventID(), "count", len(list))
			return nil
		})
		deps.Poller.Subscribe(func(list []notification.Notification) {
			fmt.Fprintf(out, "--- %d notification(s)\n", len(list))
			if err := renderNotifications(out, list); err != nil {
				deps.Logger.Error("failed to render notifications", "error", err)
			}
		})

		detach := deps.Poller.Bind(ctx, deps.Sessions)
		defer detach()

		deps.Logger.Info("watching notifications, press Ctrl+C to stop", "interval", deps.Config.Notifications.PollInterval)
		<-ctx.Done()
		return nil
	},
}

func renderNotifications(w io.Writer, list []notification.Notification) error {
	tbl := &table{header: []string{"LEVEL", "CATEGORY", "TEXT"}}
	for _, n := range list {
		tbl.add(string(n.Type), n.Category, n.Text)
	}
	return render(w, list, tbl)
}

func init() {
	notificationsCmd.Flags().BoolVarP(&watchNotifications, "watch", "w", false, "keep polling until interrupted")
	rootCmd.AddCommand(notificationsCmd)
}
