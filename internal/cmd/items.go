package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/openclaw/standup/internal/config"
	"github.com/openclaw/standup/internal/items"
	"github.com/spf13/cobra"
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "List action items",
	RunE:  runItemsList,
}

var itemsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an action item manually",
	RunE:  runItemsAdd,
}

var itemsDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark an action item done",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemsDone,
}

var (
	itemsStatusFilter string
	itemAddWhat       string
	itemAddHow        string
	itemAddWhy        string
	itemAddOwner      string
	itemAddUrgency    string
	itemAddType       string
	itemDoneOutcome   string
	itemDonePnL       float64
)

func init() {
	rootCmd.AddCommand(itemsCmd)
	itemsCmd.AddCommand(itemsAddCmd)
	itemsCmd.AddCommand(itemsDoneCmd)

	itemsCmd.Flags().StringVar(&itemsStatusFilter, "status", "", "filter by status (new, in_progress, done, cancelled, failed)")

	itemsAddCmd.Flags().StringVar(&itemAddWhat, "what", "", "what to do (required)")
	itemsAddCmd.Flags().StringVar(&itemAddHow, "how", "", "how to do it")
	itemsAddCmd.Flags().StringVar(&itemAddWhy, "why", "", "why it matters")
	itemsAddCmd.Flags().StringVar(&itemAddOwner, "owner", "", "owning participant")
	itemsAddCmd.Flags().StringVar(&itemAddUrgency, "urgency", "backlog", "now, today, this_week or backlog")
	itemsAddCmd.Flags().StringVar(&itemAddType, "type", "remind", "item type")
	_ = itemsAddCmd.MarkFlagRequired("what")

	itemsDoneCmd.Flags().StringVar(&itemDoneOutcome, "outcome", "", "what happened")
	itemsDoneCmd.Flags().Float64Var(&itemDonePnL, "pnl", 0, "numeric result, if any")
}

func openStore() (*items.Store, error) {
	cfg := config.Get()
	return items.NewStore(filepath.Join(cfg.Deliverables.ResolveDir(), "action-items.json"))
}

func runItemsList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	var list []items.Item
	if itemsStatusFilter != "" {
		list = store.ByStatus(items.Status(itemsStatusFilter))
	} else {
		list = store.All()
	}
	if len(list) == 0 {
		fmt.Println("No action items")
		return nil
	}
	for _, it := range list {
		fmt.Printf("%s  %-11s %-9s %s", it.ID, it.Status, it.Urgency, it.What)
		if it.Owner != "" {
			fmt.Printf(" (%s)", it.Owner)
		}
		fmt.Println()
	}
	return nil
}

func runItemsAdd(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	it, err := store.Add(items.Draft{
		What:    itemAddWhat,
		How:     itemAddHow,
		Why:     itemAddWhy,
		Owner:   itemAddOwner,
		Urgency: items.NormalizeUrgency(itemAddUrgency),
		Type:    itemAddType,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Added %s: %s\n", it.ID, it.What)
	return nil
}

func runItemsDone(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	status := items.StatusDone
	patch := items.Patch{Status: &status}
	if itemDoneOutcome != "" {
		patch.Outcome = &itemDoneOutcome
	}
	if cmd.Flags().Changed("pnl") {
		patch.PnL = &itemDonePnL
	}

	it, err := store.Update(args[0], patch)
	if err != nil {
		return err
	}
	fmt.Printf("Done: %s\n", it.What)
	return nil
}
