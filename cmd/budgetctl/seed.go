package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"budgeteer/internal/auth"
	"budgeteer/internal/core"
	"budgeteer/internal/log"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo user with default categories and a current month",
		Long: `Seed onboards a user: it saves the profile, adds the default categories
and opens the current month with the given income. With --password a login
is created first and its id is used as the user id.`,
		RunE: runSeed,
	}
	cmd.Flags().String("user-id", "", "user id (default: a new UUID)")
	cmd.Flags().String("email", "demo@example.com", "user email")
	cmd.Flags().String("income", "", "monthly income (default: seed.income from config)")
	cmd.Flags().String("currency", "", "currency code (default: seed.currency from config)")
	cmd.Flags().String("password", "", "also create a login with this password")
	_ = viper.BindPFlag("seed.income", cmd.Flags().Lookup("income"))
	_ = viper.BindPFlag("seed.currency", cmd.Flags().Lookup("currency"))
	return cmd
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	userID, _ := cmd.Flags().GetString("user-id")
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	income, err := core.ParseAmount(viper.GetString("seed.income"))
	if err != nil {
		return err
	}
	currency := strings.ToUpper(viper.GetString("seed.currency"))

	be, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer be.Close()

	if password != "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("generate signing key: %w", err)
		}
		provider := auth.NewLocalProvider(be.Store,
			auth.NewTokenService(hex.EncodeToString(secret), time.Minute),
			auth.NewLogMailer(log.Discard()), "")
		sess, err := provider.SignUp(ctx, email, password, password)
		if err != nil {
			return fmt.Errorf("create login: %s", core.UserMessage(err))
		}
		userID = sess.Identity.ID
	}
	if userID == "" {
		userID = uuid.NewString()
	}

	month, err := be.Services().CompleteOnboarding(ctx, userID, email, income, currency)
	if err != nil {
		return fmt.Errorf("seed user: %s", core.UserMessage(err))
	}

	out := cmd.OutOrStdout()
	ym := core.YearMonth{Year: month.Year, Month: month.Month}
	fmt.Fprintln(out, renderTitle("Seeded "+email))
	fmt.Fprintln(out, renderStat("User ID", userID))
	fmt.Fprintln(out, renderStat("Month", ym.Label()))
	fmt.Fprintln(out, renderStat("Income", core.FormatMoney(month.Income, currency)))
	fmt.Fprintln(out, renderStat("Savings rate", core.FormatPercent(month.SavingsRate)))
	return nil
}
