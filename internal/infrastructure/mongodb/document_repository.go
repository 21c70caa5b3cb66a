package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	mongoutil "github.com/wms-platform/fulfillment-service/pkg/mongodb"
)

func documentIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "details.goodsId", Value: 1}, {Key: "status", Value: 1}}},
	}
}

func documentFilter(filter domain.DocumentFilter) bson.M {
	query := bson.M{}
	if filter.WarehouseID != "" {
		query["warehouseId"] = filter.WarehouseID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return query
}

// ASNRepository stores ASNs with their lines embedded
type ASNRepository struct {
	collection
}

// NewASNRepository creates an ASNRepository
func NewASNRepository(db *mongo.Database, inst *mongoutil.Instrumentation) *ASNRepository {
	return &ASNRepository{newCollection(db, ASNCollection, inst)}
}

func (r *ASNRepository) EnsureIndexes(ctx context.Context) error {
	return r.ensureIndexes(ctx, documentIndexes())
}

func (r *ASNRepository) FindByID(ctx context.Context, id string) (*domain.ASN, error) {
	var asn domain.ASN
	found, err := r.findOne(ctx, bson.M{"_id": id}, &asn)
	if err != nil || !found {
		return nil, err
	}
	return &asn, nil
}

func (r *ASNRepository) List(ctx context.Context, filter domain.DocumentFilter, limit, offset int) ([]*domain.ASN, error) {
	var rows []*domain.ASN
	err := r.findAll(ctx, documentFilter(filter), &rows, pageOptions(limit, offset, mongoutil.SortDescending("createdAt")))
	return rows, err
}

func (r *ASNRepository) Count(ctx context.Context, filter domain.DocumentFilter) (int64, error) {
	return r.count(ctx, documentFilter(filter))
}

func (r *ASNRepository) Save(ctx context.Context, asn *domain.ASN) error {
	return r.replace(ctx, asn.ID, asn)
}

func (r *ASNRepository) Delete(ctx context.Context, id string) error {
	return r.deleteByID(ctx, id)
}

// SumOutstanding sums line quantities of pending ASNs
func (r *ASNRepository) SumOutstanding(ctx context.Context, goodsID, warehouseID string) (int64, error) {
	return r.sumLines(ctx, bson.M{
		"warehouseId":     warehouseID,
		"status":          domain.ASNStatusPending,
		"details.goodsId": goodsID,
	}, goodsID)
}

// DNRepository stores DNs with their lines embedded
type DNRepository struct {
	collection
}

// NewDNRepository creates a DNRepository
func NewDNRepository(db *mongo.Database, inst *mongoutil.Instrumentation) *DNRepository {
	return &DNRepository{newCollection(db, DNCollection, inst)}
}

func (r *DNRepository) EnsureIndexes(ctx context.Context) error {
	return r.ensureIndexes(ctx, documentIndexes())
}

func (r *DNRepository) FindByID(ctx context.Context, id string) (*domain.DN, error) {
	var dn domain.DN
	found, err := r.findOne(ctx, bson.M{"_id": id}, &dn)
	if err != nil || !found {
		return nil, err
	}
	return &dn, nil
}

func (r *DNRepository) List(ctx context.Context, filter domain.DocumentFilter, limit, offset int) ([]*domain.DN, error) {
	var rows []*domain.DN
	err := r.findAll(ctx, documentFilter(filter), &rows, pageOptions(limit, offset, mongoutil.SortDescending("createdAt")))
	return rows, err
}

func (r *DNRepository) Count(ctx context.Context, filter domain.DocumentFilter) (int64, error) {
	return r.count(ctx, documentFilter(filter))
}

func (r *DNRepository) Save(ctx context.Context, dn *domain.DN) error {
	return r.replace(ctx, dn.ID, dn)
}

func (r *DNRepository) Delete(ctx context.Context, id string) error {
	return r.deleteByID(ctx, id)
}

// SumOutstanding sums line quantities of pending and in-progress DNs
func (r *DNRepository) SumOutstanding(ctx context.Context, goodsID, warehouseID string) (int64, error) {
	return r.sumLines(ctx, bson.M{
		"warehouseId":     warehouseID,
		"status":          bson.M{"$in": bson.A{domain.DNStatusPending, domain.DNStatusInProgress}},
		"details.goodsId": goodsID,
	}, goodsID)
}
