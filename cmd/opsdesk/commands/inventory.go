package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/opsdesk/internal/constants"
	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

// NewInventoryCommand creates the inventory command group
func NewInventoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inventory",
		Aliases: []string{"inv", "items"},
		Short:   "Manage inventory items",
		Long:    "List, inspect and maintain inventory items and their stock levels",
	}

	cmd.AddCommand(newInventoryListCommand())
	cmd.AddCommand(newInventoryGetCommand())
	cmd.AddCommand(newInventoryCreateCommand())
	cmd.AddCommand(newInventoryUpdateCommand())
	cmd.AddCommand(newInventoryAdjustCommand())
	cmd.AddCommand(newInventoryDeleteCommand())

	return cmd
}

func newInventoryListCommand() *cobra.Command {
	var (
		flags    listFlags
		facility string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List inventory items",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}

			if facility != "" {
				if opts.Filters == nil {
					opts.Filters = map[string]string{}
				}

				opts.Filters["facility_id"] = facility
			}

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			page, err := client.Inventory().List(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("failed to list inventory items: %w", err)
			}

			return renderPage(cmd, "items", page,
				[]string{"ID", "SKU", "Name", "Quantity", "Reorder At", "Stock"},
				func(i opsdesk.InventoryItem) []string {
					return []string{i.ID, i.SKU, i.Name, quantity(i), strconv.Itoa(i.ReorderLevel), stockLevel(i)}
				})
		},
	}

	addListFlags(cmd, &flags)
	cmd.Flags().StringVar(&facility, "facility", "", "only items stocked at this facility")

	return cmd
}

func quantity(item opsdesk.InventoryItem) string {
	if item.Unit == "" {
		return strconv.Itoa(item.Quantity)
	}

	return fmt.Sprintf("%d %s", item.Quantity, item.Unit)
}

func stockLevel(item opsdesk.InventoryItem) string {
	switch {
	case item.Quantity == 0:
		return "out"
	case item.Quantity <= item.ReorderLevel:
		return "low"
	default:
		return "ok"
	}
}

func newInventoryGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ITEM_ID",
		Short: "Get inventory item details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			item, err := client.Inventory().Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get inventory item: %w", err)
			}

			return renderDetail(cmd, item, [][]string{
				{"ID", item.ID},
				{"SKU", item.SKU},
				{"Name", item.Name},
				{"Category", valueOrNA(item.Category)},
				{"Quantity", quantity(*item)},
				{"Reorder Level", strconv.Itoa(item.ReorderLevel)},
				{"Stock", stockLevel(*item)},
				{"Facility", valueOrNA(item.FacilityID)},
				{"Updated", formatDateTime(&item.UpdatedAt)},
			})
		},
	}
}

// itemFlags are the editable fields of an inventory item.
type itemFlags struct {
	sku          string
	name         string
	category     string
	unit         string
	facility     string
	quantity     int
	reorderLevel int
}

func (f *itemFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.sku, "sku", "", "stock keeping unit")
	cmd.Flags().StringVar(&f.name, "name", "", "item name")
	cmd.Flags().StringVar(&f.category, "category", "", "category")
	cmd.Flags().StringVar(&f.unit, "unit", "", "unit of measure, e.g. pair or box")
	cmd.Flags().StringVar(&f.facility, "facility", "", "facility the item is stocked at")
	cmd.Flags().IntVar(&f.quantity, "quantity", 0, "quantity on hand")
	cmd.Flags().IntVar(&f.reorderLevel, "reorder-level", 0, "quantity at which to reorder")
}

func (f *itemFlags) apply(cmd *cobra.Command, req *opsdesk.InventoryItemRequest) {
	changed := cmd.Flags().Changed

	if changed("sku") {
		req.SKU = f.sku
	}

	if changed("name") {
		req.Name = f.name
	}

	if changed("category") {
		req.Category = f.category
	}

	if changed("unit") {
		req.Unit = f.unit
	}

	if changed("facility") {
		req.FacilityID = f.facility
	}

	if changed("quantity") {
		req.Quantity = f.quantity
	}

	if changed("reorder-level") {
		req.ReorderLevel = f.reorderLevel
	}
}

func newInventoryCreateCommand() *cobra.Command {
	var flags itemFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an inventory item",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &opsdesk.InventoryItemRequest{}
			flags.apply(cmd, req)

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			item, err := client.Inventory().Create(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("failed to create inventory item: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created item '%s' (%s)\n", item.Name, item.ID)

			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

func newInventoryUpdateCommand() *cobra.Command {
	var flags itemFlags

	cmd := &cobra.Command{
		Use:   "update ITEM_ID",
		Short: "Replace an inventory item",
		Long:  "Replace an inventory item with its current fields overlaid by the given flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			current, err := client.Inventory().Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get inventory item: %w", err)
			}

			req := &opsdesk.InventoryItemRequest{
				SKU:          current.SKU,
				Name:         current.Name,
				Category:     current.Category,
				Quantity:     current.Quantity,
				Unit:         current.Unit,
				ReorderLevel: current.ReorderLevel,
				FacilityID:   current.FacilityID,
			}
			flags.apply(cmd, req)

			item, err := client.Inventory().Update(cmd.Context(), args[0], req)
			if err != nil {
				return fmt.Errorf("failed to update inventory item: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated item '%s'\n", item.Name)

			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

func newInventoryAdjustCommand() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "adjust ITEM_ID DELTA",
		Short: "Adjust the stock of an item",
		Example: `  opsdesk inventory adjust i-7 --reason damaged -- -2
  opsdesk inventory adjust i-7 40 --reason delivery`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("%w: %q", constants.ErrInvalidQuantity, args[1])
			}

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			env, err := client.Inventory().AdjustStock(cmd.Context(), args[0], &opsdesk.StockAdjustment{Delta: delta, Reason: reason})
			if err != nil {
				return fmt.Errorf("failed to adjust stock: %w", err)
			}

			return renderResult(cmd, env, fmt.Sprintf("Adjusted stock of '%s' by %+d", args[0], delta))
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "reason for the adjustment")

	return cmd
}

func newInventoryDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete ITEM_ID",
		Short: "Delete an inventory item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm(cmd, fmt.Sprintf("Really delete item '%s'?", args[0]), force) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")

				return nil
			}

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			err = client.Inventory().Delete(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to delete inventory item: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted item '%s'\n", args[0])

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")

	return cmd
}
