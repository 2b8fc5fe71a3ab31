package classification

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/lineage/pkg/errors"
)

// exerciseStore runs the same round trip against any Store.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, icd()))
	require.NoError(t, s.Save(ctx, atc()))

	names, err := s.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"atc", "icd"}, names)

	got, err := s.Load(ctx, "icd")
	require.NoError(t, err)
	assert.ElementsMatch(t, icd().Relations, got.Relations)
	assert.Equal(t, icd().Labels, got.Labels)

	// Saving again replaces the stored relations.
	smaller := icd()
	smaller.Relations = smaller.Relations[:1]
	smaller.Labels = nil
	require.NoError(t, s.Save(ctx, smaller))
	got, err = s.Load(ctx, "icd")
	require.NoError(t, err)
	assert.Equal(t, []Relation{{Parent: "A", Child: "A0"}}, got.Relations)
	assert.Empty(t, got.Labels)

	require.NoError(t, s.Delete(ctx, "atc"))
	_, err = s.Load(ctx, "atc")
	assert.True(t, errors.Is(err, errors.ErrCodeClassification))

	err = s.Save(ctx, Classification{Name: "a/b", Relations: []Relation{{Parent: "A", Child: "B"}}})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidArgument))
}

func TestSQLStore(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "lineage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	exerciseStore(t, s)
}

func TestSQLStoreFeedsRepository(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lineage.db")

	src := NewRepository()
	require.NoError(t, src.Add(icd()))
	require.NoError(t, src.Add(atc()))

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, src.SaveAll(ctx, s))
	require.NoError(t, s.Close())

	// Reopen to make sure the data was persisted.
	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	dst := NewRepository()
	require.NoError(t, dst.LoadSource(ctx, s))
	assert.Equal(t, []string{"atc", "icd"}, dst.Names())

	want, err := src.Digest()
	require.NoError(t, err)
	got, err := dst.Digest()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	err = dst.LoadSource(ctx, s, "missing")
	assert.True(t, errors.Is(err, errors.ErrCodeClassification))
}

func TestSQLStoreCanceled(t *testing.T) {
	s, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, NewRepository().LoadSource(ctx, s, "icd"))
}

// TestMongoStore needs a running MongoDB; set LINEAGE_TEST_MONGO_URI to
// enable it.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("LINEAGE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("Skipping integration test: LINEAGE_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	s, err := OpenMongo(ctx, MongoConfig{URI: uri, Database: "lineage_test"})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Delete(ctx, "icd")
		_ = s.Delete(ctx, "atc")
		s.Close()
	})

	exerciseStore(t, s)
}

func TestMongoConfigDefaults(t *testing.T) {
	var cfg MongoConfig
	require.NoError(t, cfg.ValidateAndSetDefaults())
	assert.Equal(t, "mongodb://localhost:27017", cfg.URI)
	assert.Equal(t, "lineage", cfg.Database)
	assert.Equal(t, "relations", cfg.Collection)
	assert.Equal(t, "labels", cfg.LabelCollection)
	assert.Positive(t, cfg.Timeout)

	bad := MongoConfig{URI: "http://localhost"}
	assert.True(t, errors.Is(bad.ValidateAndSetDefaults(), errors.ErrCodeInvalidConfig))
}
