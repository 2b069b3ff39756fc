package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pricewatch/internal/store"
)

const seedYAML = `products:
  - name: Placa de Vídeo RTX 5060
    url: https://shop.example/rtx-5060
    image_url: https://img.example/rtx.jpg
  - name: Teclado Mecânico
    url: https://shop.example/teclado
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSeedFile(t *testing.T) {
	seeds, err := LoadSeedFile(writeSeed(t, seedYAML))
	require.NoError(t, err)

	require.Len(t, seeds, 2)
	assert.Equal(t, "Placa de Vídeo RTX 5060", seeds[0].Name)
	assert.Equal(t, "https://img.example/rtx.jpg", seeds[0].ImageURL)
	assert.Empty(t, seeds[1].ImageURL)
}

func TestLoadSeedFile_MissingFields(t *testing.T) {
	_, err := LoadSeedFile(writeSeed(t, "products:\n  - name: sem url\n"))
	assert.Error(t, err)
}

func TestLoadSeedFile_NotFound(t *testing.T) {
	_, err := LoadSeedFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestRegister_Dedupes(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))

	seeds, err := LoadSeedFile(writeSeed(t, seedYAML))
	require.NoError(t, err)

	added, skipped, err := Register(ctx, st, seeds)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 0, skipped)

	// Re-registering the same file is a no-op.
	added, skipped, err = Register(ctx, st, seeds)
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, 2, skipped)

	products, err := st.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2)
}
