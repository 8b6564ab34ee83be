package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
)

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// Show prints the most recently created watch rules.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	rules, err := store.ListRules(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		fmt.Fprintln(os.Stdout, "no watch rules found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tCode\tThreshold\tDirection\tState")

	for _, rule := range rules {
		state := "active"
		if rule.Closed {
			state = "closed"
		}
		fmt.Fprintf(
			writer,
			"%d\t%s\t%s\t%s\t%s\n",
			rule.ID,
			rule.Code,
			rule.RemindPrice.String(),
			rule.Direction.String(),
			state,
		)
	}

	writer.Flush()
	return nil
}
