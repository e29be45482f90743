package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"budgeteer/internal/core"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Inspect a user's categories",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories in display order",
		RunE:  runCategoriesList,
	}
	list.Flags().String("user-id", "", "user id")
	_ = list.MarkFlagRequired("user-id")

	cmd.AddCommand(list)
	return cmd
}

func runCategoriesList(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user-id")

	be, err := openBackend(cmd.Context())
	if err != nil {
		return err
	}
	defer be.Close()

	cats, err := be.Services().Categories(cmd.Context(), userID)
	if err != nil {
		return errors.New(core.UserMessage(err))
	}

	out := cmd.OutOrStdout()
	if len(cats) == 0 {
		fmt.Fprintln(out, warnStyle.Render("No categories found."))
		return nil
	}
	fmt.Fprintln(out, categoriesTable(cats))
	return nil
}

func categoriesTable(cats []core.Category) string {
	rows := make([][]string, 0, len(cats))
	for _, c := range cats {
		kind := ""
		switch {
		case c.IsSavings:
			kind = "savings"
		case c.IsDefault:
			kind = "default"
		}
		rows = append(rows, []string{strconv.Itoa(c.SortOrder), c.Name, c.Color, kind, c.ID})
	}
	return renderTable([]string{"#", "Name", "Color", "Kind", "ID"}, rows)
}
