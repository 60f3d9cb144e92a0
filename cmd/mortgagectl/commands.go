package main

import (
	"errors"
	"fmt"

	"github.com/mtrack/mortgage-engine/internal/calculation"
	"github.com/mtrack/mortgage-engine/internal/config"
	"github.com/mtrack/mortgage-engine/internal/output"
	"github.com/mtrack/mortgage-engine/pkg/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func parseMoney(flag, value string) (decimal.Money, error) {
	m, err := decimal.NewMoneyFromString(value)
	if err != nil {
		return decimal.Money{}, fmt.Errorf("invalid --%s %q: %w", flag, value, err)
	}
	return m, nil
}

func parsePercentage(flag, value string) (decimal.Percentage, error) {
	p, err := decimal.NewPercentageFromString(value)
	if err != nil {
		return decimal.Percentage{}, fmt.Errorf("invalid --%s %q: %w", flag, value, err)
	}
	return p, nil
}

func (a *app) triggerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trigger [mortgage-id]",
		Short: "Show the trigger rate status of one mortgage, or of every mortgage",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ids := args
			if len(ids) == 0 {
				mortgages, err := a.store.ListMortgages(ctx)
				if err != nil {
					return err
				}
				for _, m := range mortgages {
					ids = append(ids, m.ID)
				}
			} else if m, _ := a.store.FindMortgage(ctx, ids[0]); m == nil {
				return fmt.Errorf("mortgage %s not found", ids[0])
			}

			r := a.newReport("Trigger rate status")
			for _, id := range ids {
				status, err := a.engine.CheckTriggerRate(ctx, id)
				if err != nil {
					return err
				}
				if status == nil {
					r.Notes = append(r.Notes, fmt.Sprintf("%s: no active variable-fixed term", id))
					continue
				}
				r.TriggerStatuses = append(r.TriggerStatuses, *status)
			}
			return a.render(r)
		},
	}
}

func (a *app) triggerAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trigger-all",
		Short: "List every mortgage at or near its trigger rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := a.engine.CheckAllTriggerRates(cmd.Context())
			if err != nil {
				return err
			}
			r := a.newReport("Trigger rate alerts")
			r.TriggerStatuses = statuses
			if len(statuses) == 0 {
				r.Notes = append(r.Notes, "No mortgages are at or near their trigger rate")
			}
			return a.render(r)
		},
	}
}

func (a *app) roomCmd() *cobra.Command {
	var amount string
	cmd := &cobra.Command{
		Use:   "room <mortgage-id>",
		Short: "Show this allowance year's prepayment room and a recommendation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]
			opportunity, err := a.engine.PrepaymentOpportunity(ctx, id)
			if err != nil {
				return err
			}
			if opportunity == nil {
				return fmt.Errorf("mortgage %s not found", id)
			}

			r := a.newReport("Prepayment room")
			r.Opportunity = opportunity
			if amount != "" {
				proposed, err := parseMoney("amount", amount)
				if err != nil {
					return err
				}
				var verr *calculation.ValidationError
				switch err := a.engine.ValidatePrepayment(ctx, id, proposed); {
				case errors.As(err, &verr):
					r.Notes = append(r.Notes, fmt.Sprintf("Prepayment of %s rejected: %s", output.FormatCurrency(proposed), verr.Message))
				case err != nil:
					return err
				default:
					r.Notes = append(r.Notes, fmt.Sprintf("Prepayment of %s fits within the remaining room", output.FormatCurrency(proposed)))
				}
			}
			return a.render(r)
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "check a proposed prepayment against the room")
	return cmd
}

func (a *app) projectCmd() *cobra.Command {
	var years int
	cmd := &cobra.Command{
		Use:   "project <strategy-id>",
		Short: "Project a Smith Maneuver strategy year by year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projections, err := a.engine.ProjectStrategy(cmd.Context(), args[0], years)
			if err != nil {
				return err
			}
			if projections == nil {
				return missingStrategy(args[0])
			}
			r := a.newReport("Smith Maneuver projection")
			r.Projections = projections
			return a.render(r)
		},
	}
	cmd.Flags().IntVar(&years, "years", 0, "projection horizon (default: the strategy's own)")
	return cmd
}

func (a *app) roiCmd() *cobra.Command {
	var years int
	cmd := &cobra.Command{
		Use:   "roi <strategy-id>",
		Short: "Summarize a strategy's return on the borrowed capital",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analysis, err := a.engine.ROIAnalysis(cmd.Context(), args[0], years)
			if err != nil {
				return err
			}
			if analysis == nil {
				return missingStrategy(args[0])
			}
			r := a.newReport("Smith Maneuver ROI")
			r.ROI = analysis
			return a.render(r)
		},
	}
	cmd.Flags().IntVar(&years, "years", 0, "projection horizon (default: the strategy's own)")
	return cmd
}

func (a *app) compareCmd() *cobra.Command {
	var (
		years        int
		mortgageRate string
	)
	cmd := &cobra.Command{
		Use:   "compare <strategy-id>",
		Short: "Compare a strategy with prepaying the same cash directly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rate, err := parsePercentage("mortgage-rate", mortgageRate)
			if err != nil {
				return err
			}
			result, err := a.engine.CompareToDirectPrepayment(cmd.Context(), args[0], years, rate)
			if err != nil {
				return err
			}
			if result == nil {
				return missingStrategy(args[0])
			}
			r := a.newReport("Smith Maneuver vs direct prepayment")
			r.Comparison = result
			return a.render(r)
		},
	}
	cmd.Flags().IntVar(&years, "years", 0, "projection horizon (default: the strategy's own)")
	cmd.Flags().StringVar(&mortgageRate, "mortgage-rate", "", "mortgage rate in percent used for interest saved")
	_ = cmd.MarkFlagRequired("mortgage-rate")
	return cmd
}

func missingStrategy(id string) error {
	return fmt.Errorf("strategy %s not found or references a missing mortgage or HELOC account", id)
}

func (a *app) insuranceCmd() *cobra.Command {
	var (
		price, down, provider, discount string
		addToPrincipal                  bool
	)
	cmd := &cobra.Command{
		Use:         "insurance",
		Short:       "Quote mortgage default insurance premiums",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipPortfolio: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			req := calculation.InsuranceRequest{Provider: calculation.InsuranceProvider(provider), PaymentType: calculation.PremiumUpfront}
			var err error
			if req.PropertyPrice, err = parseMoney("price", price); err != nil {
				return err
			}
			if req.DownPayment, err = parseMoney("down", down); err != nil {
				return err
			}
			if req.MLISelectDiscount, err = parsePercentage("mli-discount", discount); err != nil {
				return err
			}
			if addToPrincipal {
				req.PaymentType = calculation.PremiumAddedToPrincipal
			}

			calc := calculation.NewInsuranceCalculator()
			calc.SetLogger(a.logger)

			r := a.newReport("Mortgage default insurance")
			if provider == "" {
				r.Insurance = calc.CompareProviders(req)
				if len(r.Insurance) == 0 {
					return errors.New("no provider could quote this purchase; rerun with --verbose or --provider for details")
				}
			} else {
				quote, err := calc.Calculate(req)
				if err != nil {
					return err
				}
				r.Insurance = []calculation.InsuranceResult{quote}
			}
			return a.render(r)
		},
	}
	f := cmd.Flags()
	f.StringVar(&price, "price", "", "property price")
	f.StringVar(&down, "down", "", "down payment")
	f.StringVar(&provider, "provider", "", "CMHC, Sagen or Genworth (default: compare all)")
	f.StringVar(&discount, "mli-discount", "0", "MLI Select discount: 0, 10, 20 or 30 percent")
	f.BoolVar(&addToPrincipal, "added-to-principal", false, "finance the premium into the mortgage")
	_ = cmd.MarkFlagRequired("price")
	_ = cmd.MarkFlagRequired("down")
	return cmd
}

func (a *app) drawPeriodCmd() *cobra.Command {
	var persist bool
	cmd := &cobra.Command{
		Use:   "draw-period",
		Short: "Move HELOC accounts whose draw period ended to principal plus interest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			transitions, err := a.engine.ApplyDrawPeriodTransitions(cmd.Context())
			if err != nil {
				return err
			}
			r := a.newReport("HELOC draw period transitions")
			r.Transitions = transitions
			if len(transitions) == 0 {
				r.Notes = append(r.Notes, "No HELOC account is due for a draw period transition")
			}
			if err := a.render(r); err != nil {
				return err
			}
			if persist && len(transitions) > 0 {
				return a.persist()
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&persist, "persist", false, "write the updated accounts back to the portfolio file")
	return cmd
}

func (a *app) impactCmd() *cobra.Command {
	var oldRate, newRate string
	cmd := &cobra.Command{
		Use:   "impact",
		Short: "Show how a reference rate change affects every variable-rate mortgage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var oldRef decimal.Percentage
			if oldRate == "" {
				current, err := a.store.CurrentReferenceRate(ctx)
				if err != nil {
					return fmt.Errorf("--old-rate is required when the portfolio has no reference rate: %w", err)
				}
				oldRef = current.Rate
			} else {
				var err error
				if oldRef, err = parsePercentage("old-rate", oldRate); err != nil {
					return err
				}
			}
			newRef, err := parsePercentage("new-rate", newRate)
			if err != nil {
				return err
			}

			impacts, err := a.engine.RateChangeImpacts(ctx, oldRef, newRef)
			if err != nil {
				return err
			}
			r := a.newReport(fmt.Sprintf("Reference rate change %s to %s", oldRef, newRef))
			r.Impacts = impacts
			if len(impacts) == 0 {
				r.Notes = append(r.Notes, "No variable-rate mortgage is affected")
			}
			return a.render(r)
		},
	}
	cmd.Flags().StringVar(&oldRate, "old-rate", "", "reference rate before the change (default: the current one)")
	cmd.Flags().StringVar(&newRate, "new-rate", "", "reference rate after the change")
	_ = cmd.MarkFlagRequired("new-rate")
	return cmd
}

func (a *app) exampleCmd() *cobra.Command {
	var outFile string
	cmd := &cobra.Command{
		Use:         "example",
		Short:       "Print an example portfolio file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipPortfolio: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			portfolio := config.NewInputParser().CreateExamplePortfolio()
			if outFile != "" {
				return output.SavePortfolio(portfolio, outFile)
			}
			data, err := yaml.Marshal(portfolio)
			if err != nil {
				return err
			}
			_, err = a.stdout.Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "write to this file instead of stdout")
	return cmd
}
