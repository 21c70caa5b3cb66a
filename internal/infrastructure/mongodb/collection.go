package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mongoutil "github.com/wms-platform/fulfillment-service/pkg/mongodb"
)

// Collection names
const (
	InventoryCollection     = "inventory"
	ASNCollection           = "asns"
	DNCollection            = "dns"
	TaskCollection          = "tasks"
	DeliveryTaskCollection  = "delivery_tasks"
	StatusLogCollection     = "status_logs"
	PutawayCollection       = "putaway_records"
	RemovalCollection       = "removal_records"
	LocationStockCollection = "location_stock"
	SnapshotCollection      = "location_snapshots"
	WarehouseCollection     = "warehouses"
	GoodsCollection         = "goods"
	LocationCollection      = "locations"
)

// collection wraps a driver collection with per-operation instrumentation
type collection struct {
	coll *mongo.Collection
	inst *mongoutil.Instrumentation
}

func newCollection(db *mongo.Database, name string, inst *mongoutil.Instrumentation) collection {
	return collection{coll: db.Collection(name), inst: inst}
}

func (c collection) observe(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	return c.inst.Observe(ctx, c.coll.Name(), operation, fn)
}

// findOne decodes the first match into out and reports whether one existed
func (c collection) findOne(ctx context.Context, filter interface{}, out interface{}) (bool, error) {
	found := true
	err := c.observe(ctx, "findOne", func(ctx context.Context) error {
		err := c.coll.FindOne(ctx, filter).Decode(out)
		if mongoutil.IsNotFound(err) {
			found = false
			return nil
		}
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to find in %s: %w", c.coll.Name(), err)
	}
	return found, nil
}

// findAll decodes every match into out, which must point to a slice
func (c collection) findAll(ctx context.Context, filter interface{}, out interface{}, opts ...*options.FindOptions) error {
	err := c.observe(ctx, "find", func(ctx context.Context) error {
		cursor, err := c.coll.Find(ctx, filter, opts...)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, out)
	})
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", c.coll.Name(), err)
	}
	return nil
}

func (c collection) count(ctx context.Context, filter interface{}) (int64, error) {
	var n int64
	err := c.observe(ctx, "count", func(ctx context.Context) error {
		var err error
		n, err = c.coll.CountDocuments(ctx, filter)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", c.coll.Name(), err)
	}
	return n, nil
}

func (c collection) exists(ctx context.Context, filter interface{}) (bool, error) {
	var n int64
	err := c.observe(ctx, "count", func(ctx context.Context) error {
		var err error
		n, err = c.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to look up %s: %w", c.coll.Name(), err)
	}
	return n > 0, nil
}

// replace upserts doc under id
func (c collection) replace(ctx context.Context, id string, doc interface{}) error {
	err := c.observe(ctx, "replaceOne", func(ctx context.Context) error {
		_, err := c.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save to %s: %w", c.coll.Name(), err)
	}
	return nil
}

func (c collection) insertMany(ctx context.Context, docs []interface{}) error {
	if len(docs) == 0 {
		return nil
	}
	err := c.observe(ctx, "insertMany", func(ctx context.Context) error {
		_, err := c.coll.InsertMany(ctx, docs)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", c.coll.Name(), err)
	}
	return nil
}

func (c collection) deleteByID(ctx context.Context, id string) error {
	err := c.observe(ctx, "deleteOne", func(ctx context.Context) error {
		_, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", c.coll.Name(), err)
	}
	return nil
}

func (c collection) ensureIndexes(ctx context.Context, indexes []mongo.IndexModel) error {
	if len(indexes) == 0 {
		return nil
	}
	return c.observe(ctx, "createIndexes", func(ctx context.Context) error {
		_, err := c.coll.Indexes().CreateMany(ctx, indexes)
		return err
	})
}

// sumLines totals details.quantity of one goods across the documents that
// match filter
func (c collection) sumLines(ctx context.Context, filter bson.M, goodsID string) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$unwind", Value: "$details"}},
		{{Key: "$match", Value: bson.M{"details.goodsId": goodsID}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$details.quantity"}}}},
	}

	var result []struct {
		Total int64 `bson:"total"`
	}
	err := c.observe(ctx, "aggregate", func(ctx context.Context) error {
		cursor, err := c.coll.Aggregate(ctx, pipeline)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &result)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to sum %s lines: %w", c.coll.Name(), err)
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Total, nil
}

func pageOptions(limit, offset int, sort bson.D) *options.FindOptions {
	opts := options.Find().SetSort(sort)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	return opts
}
