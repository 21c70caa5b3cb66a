package application

import "github.com/wms-platform/fulfillment-service/internal/domain"

// ToInventoryDTO converts a ledger row to its read model
func ToInventoryDTO(inv *domain.Inventory) *InventoryDTO {
	if inv == nil {
		return nil
	}
	return &InventoryDTO{
		ID:                    inv.ID,
		GoodsID:               inv.GoodsID,
		WarehouseID:           inv.WarehouseID,
		TotalStock:            inv.TotalStock,
		OnhandStock:           inv.OnhandStock,
		LockedStock:           inv.LockedStock,
		DamageStock:           inv.DamageStock,
		ReturnStock:           inv.ReturnStock,
		ASNStock:              inv.ASNStock,
		ReceivedStock:         inv.ReceivedStock,
		SortedStock:           inv.SortedStock,
		DNStock:               inv.DNStock,
		PickedStock:           inv.PickedStock,
		PackedStock:           inv.PackedStock,
		DeliveredStock:        inv.DeliveredStock,
		AvailableStock:        inv.AvailableStock(),
		AvailableStockForSale: inv.AvailableStockForSale(),
		LowStockThreshold:     inv.LowStockThreshold,
		HighStockThreshold:    inv.HighStockThreshold,
		UpdatedAt:             inv.UpdatedAt,
	}
}

// ToInventoryDTOs converts a slice of ledger rows
func ToInventoryDTOs(rows []*domain.Inventory) []InventoryDTO {
	out := make([]InventoryDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, *ToInventoryDTO(r))
	}
	return out
}

// ToASNDTO converts an ASN to its read model
func ToASNDTO(asn *domain.ASN) *ASNDTO {
	if asn == nil {
		return nil
	}
	details := make([]ASNDetailDTO, 0, len(asn.Details))
	for _, d := range asn.Details {
		details = append(details, ASNDetailDTO{
			ID:             d.ID,
			GoodsID:        d.GoodsID,
			Quantity:       d.Quantity,
			ActualQuantity: d.ActualQuantity,
			SortedQuantity: d.SortedQuantity,
			DamageQuantity: d.DamageQuantity,
		})
	}
	return &ASNDTO{
		ID:          asn.ID,
		Code:        asn.Code,
		WarehouseID: asn.WarehouseID,
		SupplierID:  asn.SupplierID,
		Remark:      asn.Remark,
		Status:      string(asn.Status),
		Details:     details,
		CreatedBy:   asn.CreatedBy,
		UpdatedBy:   asn.UpdatedBy,
		CreatedAt:   asn.CreatedAt,
		UpdatedAt:   asn.UpdatedAt,
		ReceivedAt:  asn.ReceivedAt,
		CompletedAt: asn.CompletedAt,
		ClosedAt:    asn.ClosedAt,
	}
}

// ToDNDTO converts a DN to its read model
func ToDNDTO(dn *domain.DN) *DNDTO {
	if dn == nil {
		return nil
	}
	details := make([]DNDetailDTO, 0, len(dn.Details))
	for _, d := range dn.Details {
		details = append(details, DNDetailDTO{
			ID:                d.ID,
			GoodsID:           d.GoodsID,
			Quantity:          d.Quantity,
			PickedQuantity:    d.PickedQuantity,
			PackedQuantity:    d.PackedQuantity,
			DeliveredQuantity: d.DeliveredQuantity,
		})
	}
	return &DNDTO{
		ID:          dn.ID,
		Code:        dn.Code,
		WarehouseID: dn.WarehouseID,
		CustomerID:  dn.CustomerID,
		Remark:      dn.Remark,
		Status:      string(dn.Status),
		Details:     details,
		CreatedBy:   dn.CreatedBy,
		UpdatedBy:   dn.UpdatedBy,
		CreatedAt:   dn.CreatedAt,
		UpdatedAt:   dn.UpdatedAt,
		StartedAt:   dn.StartedAt,
		PickedAt:    dn.PickedAt,
		PackedAt:    dn.PackedAt,
		DeliveredAt: dn.DeliveredAt,
		CompletedAt: dn.CompletedAt,
		ClosedAt:    dn.ClosedAt,
	}
}

// ToTaskDTO converts a task to its read model
func ToTaskDTO(task *domain.Task) *TaskDTO {
	if task == nil {
		return nil
	}
	batches := make([]TaskBatchDTO, 0, len(task.Batches))
	for _, b := range task.Batches {
		batches = append(batches, TaskBatchDTO{ID: b.ID, Remark: b.Remark, CreatedBy: b.CreatedBy, CreatedAt: b.CreatedAt})
	}
	details := make([]TaskDetailDTO, 0, len(task.Details))
	for _, d := range task.Details {
		details = append(details, TaskDetailDTO{
			ID:             d.ID,
			BatchID:        d.BatchID,
			GoodsID:        d.GoodsID,
			LocationID:     d.LocationID,
			Quantity:       d.Quantity,
			DamageQuantity: d.DamageQuantity,
		})
	}
	return &TaskDTO{
		ID:          task.ID,
		Code:        task.Code,
		Type:        string(task.Type),
		DocumentID:  task.DocumentID,
		WarehouseID: task.WarehouseID,
		Status:      string(task.Status),
		Batches:     batches,
		Details:     details,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		StartedAt:   task.StartedAt,
		CompletedAt: task.CompletedAt,
	}
}

// ToDeliveryTaskDTO converts a delivery task to its read model
func ToDeliveryTaskDTO(task *domain.DeliveryTask) *DeliveryTaskDTO {
	if task == nil {
		return nil
	}
	return &DeliveryTaskDTO{
		ID:              task.ID,
		Code:            task.Code,
		DNID:            task.DNID,
		WarehouseID:     task.WarehouseID,
		Status:          string(task.Status),
		CarrierID:       task.Shipping.CarrierID,
		TrackingNumber:  task.Shipping.TrackingNumber,
		RecipientID:     task.Shipping.RecipientID,
		ShippingAddress: task.Shipping.ShippingAddress,
		SignedBy:        task.SignedBy,
		CreatedAt:       task.CreatedAt,
		UpdatedAt:       task.UpdatedAt,
		StartedAt:       task.StartedAt,
		CompletedAt:     task.CompletedAt,
		SignedAt:        task.SignedAt,
	}
}

// ToStatusLogDTOs converts status log rows
func ToStatusLogDTOs(logs []*domain.StatusLog) []StatusLogDTO {
	out := make([]StatusLogDTO, 0, len(logs))
	for _, l := range logs {
		out = append(out, StatusLogDTO{
			FromStatus: l.FromStatus,
			ToStatus:   l.ToStatus,
			OperatorID: l.OperatorID,
			CreatedAt:  l.CreatedAt,
		})
	}
	return out
}

func stockMoveDTO(kind string, m domain.StockMove) StockMoveDTO {
	return StockMoveDTO{
		ID:          m.ID,
		Kind:        kind,
		GoodsID:     m.GoodsID,
		WarehouseID: m.WarehouseID,
		LocationID:  m.LocationID,
		Quantity:    m.Quantity,
		Reason:      m.Reason,
		OperatorID:  m.OperatorID,
		CreatedAt:   m.CreatedAt,
	}
}

// ToPutawayDTO converts a putaway record
func ToPutawayDTO(r *domain.PutawayRecord) StockMoveDTO {
	return stockMoveDTO(domain.MoveKindPutaway, r.StockMove)
}

// ToRemovalDTO converts a removal record
func ToRemovalDTO(r *domain.RemovalRecord) StockMoveDTO {
	dto := stockMoveDTO(domain.MoveKindRemoval, r.StockMove)
	dto.SourceType = r.SourceType
	dto.SourceID = r.SourceID
	return dto
}

// ToSnapshotDTOs converts captured snapshots
func ToSnapshotDTOs(rows []domain.LocationSnapshot) []SnapshotDTO {
	out := make([]SnapshotDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, SnapshotDTO{
			CapturedAt:   r.CapturedAt,
			GoodsID:      r.GoodsID,
			WarehouseID:  r.WarehouseID,
			LocationID:   r.LocationID,
			LocationType: string(r.LocationType),
			Quantity:     r.Quantity,
		})
	}
	return out
}

func toDetailLines(cmds []DetailLineCommand) []domain.DetailLine {
	lines := make([]domain.DetailLine, 0, len(cmds))
	for _, c := range cmds {
		lines = append(lines, domain.DetailLine{GoodsID: c.GoodsID, Quantity: c.Quantity})
	}
	return lines
}
