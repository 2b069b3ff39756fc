package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/pricewatch/internal/model"
)

var (
	historyProductID string
	historyLimit     int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent price samples for a product",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		p, err := st.GetProduct(ctx, historyProductID)
		if err != nil {
			return eris.Wrap(err, "get product")
		}

		samples, err := st.RecentSamples(ctx, p.ID, historyLimit)
		if err != nil {
			return eris.Wrap(err, "recent samples")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s)\n", p.Name, p.URL)

		// Prices render in the store's locale.
		printer := message.NewPrinter(language.BrazilianPortuguese)
		for _, s := range samples {
			price := "-"
			if s.Price != nil {
				price = printer.Sprintf("R$ %.2f", *s.Price)
			}
			marker := ""
			if s.Status != model.SampleOK {
				marker = "  [" + string(s.Status) + "]"
			}
			fmt.Fprintf(out, "%s  %s%s\n", s.Date.Format("2006-01-02 15:04"), price, marker)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyProductID, "product", "", "product id")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 30, "maximum samples to show")
	_ = historyCmd.MarkFlagRequired("product")
	rootCmd.AddCommand(historyCmd)
}
