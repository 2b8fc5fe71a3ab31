package classification

import (
	"context"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/lineage/pkg/errors"
)

// MongoConfig configures a MongoStore.
type MongoConfig struct {
	URI             string        `toml:"uri"`
	Database        string        `toml:"database"`
	Collection      string        `toml:"collection"`       // relations, default "relations"
	LabelCollection string        `toml:"label_collection"` // labels, default "labels"
	Timeout         time.Duration `toml:"timeout"`
}

// ValidateAndSetDefaults fills unset fields and checks the URI.
func (c *MongoConfig) ValidateAndSetDefaults() error {
	if c.URI == "" {
		c.URI = "mongodb://localhost:27017"
	}
	if err := errors.ValidateURL(c.URI, "mongodb", "mongodb+srv"); err != nil {
		return err
	}
	if c.Database == "" {
		c.Database = "lineage"
	}
	if c.Collection == "" {
		c.Collection = "relations"
	}
	if c.LabelCollection == "" {
		c.LabelCollection = "labels"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return nil
}

type relationDoc struct {
	Classification string `bson:"classification"`
	Parent         string `bson:"parent"`
	Child          string `bson:"child"`
}

type labelDoc struct {
	Classification string `bson:"classification"`
	Code           string `bson:"code"`
	Label          string `bson:"label"`
}

// MongoStore keeps classifications in MongoDB, one document per relation
// and one per label.
type MongoStore struct {
	client    *mongo.Client
	relations *mongo.Collection
	labels    *mongo.Collection
	timeout   time.Duration
}

// OpenMongo connects to MongoDB and ensures the unique indexes exist.
func OpenMongo(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping mongodb")
	}

	db := client.Database(cfg.Database)
	s := &MongoStore{
		client:    client,
		relations: db.Collection(cfg.Collection),
		labels:    db.Collection(cfg.LabelCollection),
		timeout:   cfg.Timeout,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	if _, err := s.relations.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "classification", Value: 1}, {Key: "parent", Value: 1}, {Key: "child", Value: 1}},
		Options: unique,
	}); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "create relation index")
	}
	if _, err := s.labels.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "classification", Value: 1}, {Key: "code", Value: 1}},
		Options: unique,
	}); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "create label index")
	}
	return nil
}

// Names implements Source.
func (s *MongoStore) Names(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	values, err := s.relations.Distinct(ctx, "classification", bson.D{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list classifications")
	}
	names := make([]string, 0, len(values))
	for _, v := range values {
		if name, ok := v.(string); ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Load implements Source.
func (s *MongoStore) Load(ctx context.Context, name string) (Classification, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	filter := bson.D{{Key: "classification", Value: name}}
	c := Classification{Name: name}

	cur, err := s.relations.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "parent", Value: 1}, {Key: "child", Value: 1}}))
	if err != nil {
		return c, errors.Wrap(errors.ErrCodeStorage, err, "load %s", name)
	}
	var rels []relationDoc
	if err := cur.All(ctx, &rels); err != nil {
		return c, errors.Wrap(errors.ErrCodeStorage, err, "decode relations of %s", name)
	}
	if len(rels) == 0 {
		return c, errors.New(errors.ErrCodeClassification, "classification not found: %s", name)
	}
	for _, r := range rels {
		c.Relations = append(c.Relations, Relation{Parent: r.Parent, Child: r.Child})
	}

	cur, err = s.labels.Find(ctx, filter)
	if err != nil {
		return c, errors.Wrap(errors.ErrCodeStorage, err, "load labels of %s", name)
	}
	var labels []labelDoc
	if err := cur.All(ctx, &labels); err != nil {
		return c, errors.Wrap(errors.ErrCodeStorage, err, "decode labels of %s", name)
	}
	if len(labels) > 0 {
		c.Labels = make(map[string]string, len(labels))
		for _, l := range labels {
			c.Labels[l.Code] = l.Label
		}
	}
	return c, nil
}

// Save implements Store. Existing documents of the same classification
// are replaced.
func (s *MongoStore) Save(ctx context.Context, c Classification) error {
	c.Relations = slices.Clone(c.Relations)
	c.normalize()
	if err := c.Validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.delete(ctx, c.Name); err != nil {
		return err
	}
	if len(c.Relations) > 0 {
		docs := make([]any, len(c.Relations))
		for i, r := range c.Relations {
			docs[i] = relationDoc{Classification: c.Name, Parent: r.Parent, Child: r.Child}
		}
		if _, err := s.relations.InsertMany(ctx, docs); err != nil {
			return errors.Wrap(errors.ErrCodeStorage, err, "insert relations of %s", c.Name)
		}
	}
	if len(c.Labels) > 0 {
		docs := make([]any, 0, len(c.Labels))
		for code, label := range c.Labels {
			docs = append(docs, labelDoc{Classification: c.Name, Code: code, Label: label})
		}
		if _, err := s.labels.InsertMany(ctx, docs); err != nil {
			return errors.Wrap(errors.ErrCodeStorage, err, "insert labels of %s", c.Name)
		}
	}
	return nil
}

// Delete implements Store.
func (s *MongoStore) Delete(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.delete(ctx, name)
}

func (s *MongoStore) delete(ctx context.Context, name string) error {
	filter := bson.D{{Key: "classification", Value: name}}
	if _, err := s.relations.DeleteMany(ctx, filter); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete relations of %s", name)
	}
	if _, err := s.labels.DeleteMany(ctx, filter); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete labels of %s", name)
	}
	return nil
}

// Close implements Store.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
