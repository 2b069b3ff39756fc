// Package registry loads product definitions from seed files and registers
// them in the store. Registration is idempotent: products are deduplicated
// by URL.
package registry

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/pricewatch/internal/store"
)

// SeedProduct is one entry in a product seed file.
type SeedProduct struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	ImageURL string `yaml:"image_url"`
}

// SeedFile is the on-disk shape of a product seed file.
type SeedFile struct {
	Products []SeedProduct `yaml:"products"`
}

// LoadSeedFile parses a YAML seed file.
func LoadSeedFile(path string) ([]SeedProduct, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read seed file %s", path)
	}

	var f SeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "registry: parse seed file %s", path)
	}

	for i, p := range f.Products {
		if p.Name == "" || p.URL == "" {
			return nil, eris.Errorf("registry: seed entry %d missing name or url", i)
		}
	}
	return f.Products, nil
}

// Register inserts the given products, skipping URLs already tracked.
// Returns how many were added and how many were skipped as duplicates.
func Register(ctx context.Context, st store.Store, seeds []SeedProduct) (added, skipped int, err error) {
	for _, s := range seeds {
		_, created, err := st.AddProduct(ctx, s.Name, s.URL, s.ImageURL)
		if err != nil {
			return added, skipped, eris.Wrapf(err, "registry: add product %s", s.URL)
		}
		if created {
			added++
		} else {
			skipped++
			zap.L().Debug("registry: product already tracked", zap.String("url", s.URL))
		}
	}
	return added, skipped, nil
}
