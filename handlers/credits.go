package handlers

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"cloudshare/models"
)

func creditsCommand(app *App) *cli.Command {
	return &cli.Command{
		Name:  "credits",
		Usage: "Check and buy upload credits",
		Subcommands: []*cli.Command{
			{
				Name:   "plans",
				Usage:  "List credit plans",
				Action: app.plans,
			},
			{
				Name:   "balance",
				Usage:  "Show remaining credits",
				Action: app.balance,
			},
			{
				Name:      "buy",
				Usage:     "Open a checkout order for a plan",
				ArgsUsage: "PLAN",
				Action:    app.buy,
			},
			{
				Name:  "verify",
				Usage: "Confirm a completed checkout and add its credits",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "order", Required: true, Usage: "Order ID from `credits buy`"},
					&cli.StringFlag{Name: "payment", Required: true, Usage: "Payment ID from the checkout"},
					&cli.StringFlag{Name: "signature", Required: true, Usage: "Checkout signature"},
					&cli.StringFlag{Name: "plan", Usage: "Plan the order was opened for"},
				},
				Action: app.verifyPayment,
			},
			{
				Name:   "transactions",
				Usage:  "List past purchases",
				Action: app.transactions,
			},
		},
	}
}

func (a *App) plans(c *cli.Context) error {
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAN\tCREDITS\tPRICE\tFEATURES")
	for _, p := range models.CreditPlans {
		name := p.Name
		if p.Popular {
			name += " (popular)"
		}
		fmt.Fprintf(tw, "%s\t%d\t₹%d (was ₹%d)\t%s\n", p.ID+" / "+name, p.Credits, p.Price, p.OriginalPrice, strings.Join(p.Features, ", "))
	}
	return tw.Flush()
}

func (a *App) balance(c *cli.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	credit, err := a.Client.Credits(c.Context)
	if err != nil {
		return err
	}
	a.printf("Remaining credits: %d\n", credit.Credits)
	return nil
}

func (a *App) buy(c *cli.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	plan, ok := models.FindPlan(c.Args().First())
	if !ok {
		return fmt.Errorf("unknown plan %q: choose basic, pro or premium", c.Args().First())
	}

	order, err := a.Client.CreateOrder(c.Context, plan)
	if err != nil {
		if Reported(err) {
			return err
		}
		return a.report(err, "Failed to initiate payment. Please try again.")
	}

	a.success("Order %s created for %s", order.OrderID, plan.Name)
	a.printf("Amount:  %s %s\n", order.Amount, order.Currency)
	a.printf("Credits: %d\n", plan.Credits)
	a.printf("Complete the checkout, then run:\n")
	a.printf("  cloudshare credits verify --order %s --plan %s --payment <payment-id> --signature <signature>\n", order.OrderID, plan.ID)
	return nil
}

func (a *App) verifyPayment(c *cli.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	v := models.PaymentVerification{
		OrderID:   c.String("order"),
		PaymentID: c.String("payment"),
		Signature: c.String("signature"),
		PlanID:    c.String("plan"),
	}
	result, err := a.Client.VerifyPayment(c.Context, v)
	if err != nil {
		if Reported(err) {
			return err
		}
		return a.report(err, "Payment verification failed. Please contact support.")
	}

	credits := result.Credits
	if plan, ok := models.FindPlan(v.PlanID); ok && credits == 0 {
		credits = plan.Credits
	}
	a.success("Successfully purchased %d credits!", credits)
	return nil
}

func (a *App) transactions(c *cli.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	txs, err := a.Client.Transactions(c.Context)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		a.printf("No transactions yet\n")
		return nil
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tPLAN\tCREDITS\tAMOUNT\tORDER")
	for _, tx := range txs {
		date := ""
		if !tx.TransactionDate.IsZero() {
			date = tx.TransactionDate.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d %s\t%s\n", date, tx.PlanID, tx.CreditAdded, tx.Amount, tx.Currency, tx.OrderID)
	}
	return tw.Flush()
}
