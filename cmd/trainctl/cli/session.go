package cli

import (
	"github.com/spf13/cobra"
)

func newSessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and advance the current operating session",
	}
	cmd.AddCommand(newSessionShowCommand())
	cmd.AddCommand(newSessionAdvanceCommand())
	cmd.AddCommand(newSessionRollbackCommand())
	cmd.AddCommand(newSessionDescribeCommand())
	return cmd
}

func newSessionShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current operating session",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registryFor(cmd)
			if err != nil {
				return err
			}
			sess, err := reg.Sessions().GetCurrentSession(cmd.Context())
			if err != nil {
				return err
			}
			printf("%s %s\n", dimColor("session"), okColor(itoa(sess.CurrentSessionNumber)))
			printf("%s %s\n", dimColor("date"), since(sess.SessionDate))
			if sess.Description != "" {
				printf("%s %s\n", dimColor("description"), sess.Description)
			}
			if sess.PreviousSessionSnapshot != nil {
				printf("%s session %d (%d cars, %d trains, %d orders)\n",
					dimColor("snapshot for"),
					sess.PreviousSessionSnapshot.SessionNumber,
					len(sess.PreviousSessionSnapshot.Cars),
					len(sess.PreviousSessionSnapshot.Trains),
					len(sess.PreviousSessionSnapshot.CarOrders),
				)
			} else {
				printf("%s\n", dimColor("no rollback snapshot available"))
			}
			return nil
		},
	}
}

func newSessionAdvanceCommand() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "advance",
		Short: "Advance to the next operating session",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registryFor(cmd)
			if err != nil {
				return err
			}
			sess, stats, err := reg.Sessions().AdvanceSession(cmd.Context(), description)
			if err != nil {
				return err
			}
			printf("%s session %s\n", okColor("advanced to"), okColor(itoa(sess.CurrentSessionNumber)))
			printf("%s cars updated, %s trains completed/removed, %s cars reverted\n",
				itoa(stats.CarsUpdated), itoa(stats.TrainsDeleted), itoa(stats.CarsReverted))
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "description for the new session")
	return cmd
}

func newSessionRollbackCommand() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Roll back to the previous operating session",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registryFor(cmd)
			if err != nil {
				return err
			}
			sess, stats, err := reg.Sessions().RollbackSession(cmd.Context(), description)
			if err != nil {
				return err
			}
			printf("%s session %s\n", warnColor("rolled back to"), warnColor(itoa(sess.CurrentSessionNumber)))
			printf("%s cars restored, %s trains restored, %s orders restored\n",
				itoa(stats.CarsRestored), itoa(stats.TrainsRestored), itoa(stats.OrdersRestored))
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "description to record after rollback")
	return cmd
}

func newSessionDescribeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <description>",
		Short: "Update the current session's description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registryFor(cmd)
			if err != nil {
				return err
			}
			sess, err := reg.Sessions().UpdateSessionDescription(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printf("%s %s\n", okColor("description set:"), sess.Description)
			return nil
		},
	}
	return cmd
}
