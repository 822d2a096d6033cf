package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"tourbook/internal/checkoutflow"
	"tourbook/internal/models"
)

var Version = "dev"

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:     "checkout-cli",
		Short:   "Book a tour against the tourbook API and open its deposit checkout",
		Version: Version,
	}
	rootCmd.PersistentFlags().String("api", envOr("TOURBOOK_API_URL", "http://localhost:8086"), "Booking API base URL")
	rootCmd.PersistentFlags().String("token", os.Getenv("TOURBOOK_TOKEN"), "Bearer token")

	rootCmd.AddCommand(bookCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func bookCmd() *cobra.Command {
	var (
		req         models.CreateOrderRequest
		orderType   string
		clientTotal int64
		assumeYes   bool
	)

	cmd := &cobra.Command{
		Use:   "book [tour-id]",
		Short: "Create a draft order and request a checkout session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiURL, _ := cmd.Flags().GetString("api")
			token, _ := cmd.Flags().GetString("token")

			req.TourID = args[0]
			req.Type = models.OrderType(orderType)
			if cmd.Flags().Changed("client-total") {
				req.ClientTotalCents = &clientTotal
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			client := checkoutflow.NewAPIClient(apiURL, token)
			confirm := promptConfirm(cmd.InOrStdin(), cmd.OutOrStdout(), assumeYes)
			res := checkoutflow.Run(ctx, client.Steps(req, confirm), req.ClientTotalCents)

			out := cmd.OutOrStdout()
			switch res.Kind {
			case checkoutflow.Success:
				fmt.Fprintf(out, "Order %s created. Pay the deposit at:\n%s\n", res.Order.ID, res.Session.URL)
				return nil
			case checkoutflow.Cancelled:
				fmt.Fprintf(out, "%s (order %s kept as draft)\n", res.Message(), res.Order.ID)
				return nil
			}
			if res.Order != nil {
				fmt.Fprintf(out, "Order %s was created; retry checkout later.\n", res.Order.ID)
			}
			return fmt.Errorf("%s", res.Message())
		},
	}

	cmd.Flags().StringVarP(&orderType, "type", "t", string(models.OrderTypeFixed), "Order type (fixed, private)")
	cmd.Flags().IntVarP(&req.Travelers, "travelers", "n", 1, "Number of travelers")
	cmd.Flags().IntVar(&req.ExtensionDays, "extension-days", 0, "Extra days after the tour")
	cmd.Flags().BoolVar(&req.Insurance, "insurance", false, "Add travel insurance")
	cmd.Flags().BoolVar(&req.SingleSupplement, "single", false, "Single room supplement")
	cmd.Flags().Int64Var(&clientTotal, "client-total", 0, "Total shown to the customer, in cents")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Accept a changed price without asking")

	return cmd
}

func promptConfirm(in io.Reader, out io.Writer, assumeYes bool) func(context.Context, int64, int64) (bool, error) {
	reader := bufio.NewReader(in)
	return func(_ context.Context, clientCents, serverCents int64) (bool, error) {
		fmt.Fprintf(out, "Price changed: you saw %s, the total is %s.\n", formatCents(clientCents), formatCents(serverCents))
		if assumeYes {
			return true, nil
		}
		fmt.Fprint(out, "Continue with the new price? [y/N] ")
		answer, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return false, err
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes", nil
	}
}

func formatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign, c = "-", -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
