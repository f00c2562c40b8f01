package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/you/trainctl/internal/carordersvc"
	"github.com/you/trainctl/internal/model"
)

func newOrdersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List, generate, create, assign, and delete car orders",
	}
	cmd.AddCommand(newOrdersListCommand())
	cmd.AddCommand(newOrdersGenerateCommand())
	cmd.AddCommand(newOrdersCreateCommand())
	cmd.AddCommand(newOrdersAssignCommand())
	cmd.AddCommand(newOrdersDeleteCommand())
	return cmd
}

func printOrder(o model.CarOrder) {
	assigned := dimColor("-")
	if o.AssignedCarID != nil {
		assigned = *o.AssignedCarID
	}
	printf("%s  %-8s  session %-3s  %-7s  industry=%s aarType=%s car=%s\n",
		o.ID, statusColor(string(o.Status)), itoa(o.SessionNumber), o.Direction, o.IndustryID, o.AarTypeID, assigned)
}

func newOrdersListCommand() *cobra.Command {
	var industryID, status, aarType, search string
	var sessionNumber int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List car orders, optionally filtered",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registryFor(cmd)
			if err != nil {
				return err
			}
			f := carordersvc.Filters{IndustryID: industryID, Status: status, AarTypeID: aarType, Search: search}
			if sessionNumber > 0 {
				f.SessionNumber = &sessionNumber
			}
			orders, err := reg.CarOrders().GetOrdersWithFilters(cmd.Context(), f)
			if err != nil {
				return err
			}
			if len(orders) == 0 {
				printf("%s\n", dimColor("no matching orders"))
				return nil
			}
			for _, o := range orders {
				printOrder(o)
			}
			printf("%s\n", dimColor(fmt.Sprintf("%d order(s)", len(orders))))
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&industryID, "industry", "", "filter by industry id")
	flags.StringVar(&status, "status", "", "filter by status")
	flags.StringVar(&aarType, "aar-type", "", "filter by AAR type id")
	flags.StringVar(&search, "search", "", "case-insensitive substring search")
	flags.IntVar(&sessionNumber, "session", 0, "filter by session number")
	return cmd
}

func newOrdersGenerateCommand() *cobra.Command {
	var industryIDs []string
	var sessionNumber int
	var force bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run demand-driven car order generation for the current or given session",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registryFor(cmd)
			if err != nil {
				return err
			}
			in := carordersvc.GenerateInput{IndustryIDs: industryIDs, Force: force}
			if sessionNumber > 0 {
				in.SessionNumber = &sessionNumber
			}
			stats, err := reg.CarOrders().GenerateOrders(cmd.Context(), in)
			if err != nil {
				return err
			}
			printf("%s session %s: %s orders across %s industries\n",
				okColor("generated"), itoa(stats.SessionNumber), itoa(stats.OrdersGenerated), itoa(stats.IndustriesProcessed))
			for aarType, n := range stats.SummaryByAarType {
				printf("  %s: %s\n", aarType, itoa(n))
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringSliceVar(&industryIDs, "industry", nil, "restrict generation to these industry ids (repeatable)")
	flags.IntVar(&sessionNumber, "session", 0, "session number to generate for (defaults to the current session)")
	flags.BoolVar(&force, "force", false, "regenerate even when a pending duplicate already exists")
	return cmd
}

func newOrdersCreateCommand() *cobra.Command {
	var industryID, aarType, goodsID, direction string
	var compatibleTypes []string
	var sessionNumber int
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a single car order directly",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registryFor(cmd)
			if err != nil {
				return err
			}
			in := carordersvc.CreateOrderInput{
				IndustryID:         industryID,
				AarTypeID:          aarType,
				GoodsID:            goodsID,
				Direction:          model.Direction(direction),
				CompatibleCarTypes: compatibleTypes,
				SessionNumber:      sessionNumber,
			}
			order, err := reg.CarOrders().CreateOrder(cmd.Context(), in)
			if err != nil {
				return err
			}
			printf("%s %s\n", okColor("created order"), order.ID)
			printOrder(*order)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&industryID, "industry", "", "requesting industry id (required)")
	flags.StringVar(&aarType, "aar-type", "", "AAR type id (required)")
	flags.StringVar(&goodsID, "goods", "", "goods id carried")
	flags.StringVar(&direction, "direction", "outbound", "inbound or outbound")
	flags.StringSliceVar(&compatibleTypes, "compatible-type", nil, "compatible car types (repeatable, defaults to --aar-type)")
	flags.IntVar(&sessionNumber, "session", 1, "session number the order belongs to")
	cmd.MarkFlagRequired("industry")
	cmd.MarkFlagRequired("aar-type")
	return cmd
}

func newOrdersAssignCommand() *cobra.Command {
	var status, carID string
	cmd := &cobra.Command{
		Use:   "assign <order-id>",
		Short: "Assign a car to an order and/or transition its status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registryFor(cmd)
			if err != nil {
				return err
			}
			in := carordersvc.UpdateOrderInput{}
			if status != "" {
				s := model.OrderStatus(status)
				in.Status = &s
			}
			if carID != "" {
				in.AssignedCarID = &carID
			}
			order, err := reg.CarOrders().UpdateOrder(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			printf("%s %s\n", okColor("updated order"), order.ID)
			printOrder(*order)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&carID, "car", "", "car id to assign")
	flags.StringVar(&status, "status", "", "new status (pending, assigned, in-transit, delivered)")
	return cmd
}

func newOrdersDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <order-id>",
		Short: "Delete a pending or delivered car order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registryFor(cmd)
			if err != nil {
				return err
			}
			if err := reg.CarOrders().DeleteOrder(cmd.Context(), args[0]); err != nil {
				return err
			}
			printf("%s %s\n", okColor("deleted order"), args[0])
			return nil
		},
	}
}
