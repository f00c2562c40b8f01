package cli

import (
	"github.com/spf13/cobra"

	"github.com/you/trainctl/internal/model"
	"github.com/you/trainctl/internal/trainsvc"
)

func newTrainsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trains",
		Short: "Create trains, plan switch lists, and run them to completion",
	}
	cmd.AddCommand(newTrainsCreateCommand())
	cmd.AddCommand(newTrainsSwitchListCommand())
	cmd.AddCommand(newTrainsCompleteCommand())
	cmd.AddCommand(newTrainsCancelCommand())
	cmd.AddCommand(newTrainsDeleteCommand())
	return cmd
}

func printTrain(t model.Train) {
	printf("%s  %-12s  %-8s  session %-3s  locos=%v  cars=%d/%d\n",
		t.ID, t.Name, statusColor(string(t.Status)), itoa(t.SessionNumber), t.LocomotiveIDs, len(t.AssignedCarIDs), t.MaxCapacity)
}

func printSwitchList(t *model.Train) {
	if t.SwitchList == nil {
		printf("%s\n", dimColor("no switch list"))
		return
	}
	sl := t.SwitchList
	printf("%s: %s pickups, %s setouts, %s cars aboard at finish\n",
		okColor("switch list"), itoa(sl.TotalPickups), itoa(sl.TotalSetouts), itoa(sl.FinalCarCount))
	for _, st := range sl.Stations {
		if len(st.Pickups) == 0 && len(st.Setouts) == 0 {
			continue
		}
		printf("  %s\n", st.StationName)
		for _, p := range st.Pickups {
			printf("    pickup  %s %s (%s) -> %s\n", p.ReportingMarks, p.ReportingNumber, p.CarType, p.DestinationIndustryID)
		}
		for _, s := range st.Setouts {
			printf("    setout  %s %s (%s) -> %s\n", s.ReportingMarks, s.ReportingNumber, s.CarType, s.DestinationIndustryID)
		}
	}
}

func newTrainsCreateCommand() *cobra.Command {
	var name, routeID string
	var locomotiveIDs []string
	var sessionNumber, maxCapacity int
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a train in Planned status",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registryFor(cmd)
			if err != nil {
				return err
			}
			train, err := reg.Trains().CreateTrain(cmd.Context(), trainsvc.CreateTrainInput{
				Name: name, RouteID: routeID, SessionNumber: sessionNumber,
				LocomotiveIDs: locomotiveIDs, MaxCapacity: maxCapacity,
			})
			if err != nil {
				return err
			}
			printf("%s %s\n", okColor("created train"), train.ID)
			printTrain(*train)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&name, "name", "", "train name (required)")
	flags.StringVar(&routeID, "route", "", "route id (required)")
	flags.StringSliceVar(&locomotiveIDs, "locomotive", nil, "locomotive id (repeatable)")
	flags.IntVar(&sessionNumber, "session", 1, "session number the train runs in")
	flags.IntVar(&maxCapacity, "max-capacity", 10, "maximum cars the train can carry at once")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("route")
	return cmd
}

func newTrainsSwitchListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "switchlist <train-id>",
		Short: "Generate the switch list for a Planned train and move it to In Progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registryFor(cmd)
			if err != nil {
				return err
			}
			train, err := reg.Trains().GenerateSwitchList(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTrain(*train)
			printSwitchList(train)
			return nil
		},
	}
}

func newTrainsCompleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <train-id>",
		Short: "Complete an In Progress train: move setout cars and deliver their orders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registryFor(cmd)
			if err != nil {
				return err
			}
			train, err := reg.Trains().CompleteTrain(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printf("%s %s\n", okColor("completed train"), train.ID)
			printTrain(*train)
			return nil
		},
	}
}

func newTrainsCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <train-id>",
		Short: "Cancel a train, reverting any assigned/in-transit orders to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registryFor(cmd)
			if err != nil {
				return err
			}
			train, err := reg.Trains().CancelTrain(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printf("%s %s\n", warnColor("cancelled train"), train.ID)
			printTrain(*train)
			return nil
		},
	}
}

func newTrainsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <train-id>",
		Short: "Delete a Planned train",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registryFor(cmd)
			if err != nil {
				return err
			}
			if err := reg.Trains().DeleteTrain(cmd.Context(), args[0]); err != nil {
				return err
			}
			printf("%s %s\n", okColor("deleted train"), args[0])
			return nil
		},
	}
}
