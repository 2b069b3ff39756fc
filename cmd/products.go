package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pricewatch/internal/registry"
)

var (
	productName     string
	productURL      string
	productImageURL string
	seedFilePath    string
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Manage tracked products",
}

var productsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Track a new product",
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

		p, created, err := st.AddProduct(ctx, productName, productURL, productImageURL)
		if err != nil {
			return eris.Wrap(err, "add product")
		}
		if !created {
			zap.L().Info("product already tracked", zap.String("id", p.ID), zap.String("url", p.URL))
			return nil
		}
		zap.L().Info("product added", zap.String("id", p.ID), zap.String("name", p.Name))
		return nil
	},
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked products",
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

		products, err := st.ListProducts(ctx)
		if err != nil {
			return eris.Wrap(err, "list products")
		}

		for _, p := range products {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", p.ID, p.Name, p.URL)
		}
		return nil
	},
}

var productsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import products from a YAML seed file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		seeds, err := registry.LoadSeedFile(seedFilePath)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		added, skipped, err := registry.Register(ctx, st, seeds)
		if err != nil {
			return eris.Wrap(err, "register products")
		}

		zap.L().Info("seed import finished",
			zap.Int("added", added),
			zap.Int("skipped", skipped),
		)
		return nil
	},
}

func init() {
	productsAddCmd.Flags().StringVar(&productName, "name", "", "product display name")
	productsAddCmd.Flags().StringVar(&productURL, "url", "", "product page URL")
	productsAddCmd.Flags().StringVar(&productImageURL, "image-url", "", "optional thumbnail URL")
	_ = productsAddCmd.MarkFlagRequired("name")
	_ = productsAddCmd.MarkFlagRequired("url")

	productsImportCmd.Flags().StringVar(&seedFilePath, "file", "seed.yaml", "path to the YAML seed file")

	productsCmd.AddCommand(productsAddCmd)
	productsCmd.AddCommand(productsListCmd)
	productsCmd.AddCommand(productsImportCmd)
	rootCmd.AddCommand(productsCmd)
}
