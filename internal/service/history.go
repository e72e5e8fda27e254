package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	api "github.com/neocertify/neocertify/internal/api/v1"
	"github.com/neocertify/neocertify/internal/store/model"
	"github.com/neocertify/neocertify/internal/util"
)

// ListHistory returns the caller's audit trail as grouped summaries:
// per-unit rows sharing the same action, timestamp, counterparties and
// originating record merge into one entry with a per-product quantity
// breakdown. Ordering is newest first and stable across pages; the cursor
// always points at the last raw row consumed, so groups split across a
// page boundary continue exactly where they stopped.
func (h *ServiceHandler) ListHistory(ctx context.Context, orgID uuid.UUID, query api.HistoryQuery) (*api.HistoryPage, api.Status) {
	if (query.CursorTime == nil) != (query.CursorKey == nil) {
		return nil, api.StatusBadRequest(api.ReasonValidationError, "cursor requires both time and key")
	}

	rows, hasMore, err := h.store.History().List(ctx, orgID, query)
	if err != nil {
		return nil, StoreErrorToApiStatus(err)
	}

	page := &api.HistoryPage{
		Items:   h.groupHistories(ctx, orgID, rows),
		HasMore: hasMore,
	}
	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		page.NextCursorTime = &last.CreatedAt
		page.NextCursorKey = &last.ID
	}
	return page, api.StatusOK()
}

func (h *ServiceHandler) groupHistories(ctx context.Context, viewerOrgID uuid.UUID, rows []model.History) []api.HistorySummary {
	summaries := make([]api.HistorySummary, 0)
	index := make(map[string]int)
	phones := make(map[uuid.UUID]string)

	for i := range rows {
		row := &rows[i]
		action := h.displayAction(viewerOrgID, row)
		key := groupKey(action, row)

		pos, ok := index[key]
		if !ok {
			summary := api.HistorySummary{
				ID:              row.ID,
				ActionType:      action,
				CreatedAt:       row.CreatedAt,
				IsRecall:        row.IsRecall,
				FromOwner:       h.resolveOwner(ctx, row.FromOrgID, row.FromPatientID, phones),
				ToOwner:         h.resolveOwner(ctx, row.ToOrgID, row.ToPatientID, phones),
				Items:           []api.HistoryItem{},
				ShipmentBatchID: row.ShipmentBatchID,
			}
			if row.RecallReason != nil {
				summary.RecallReason = *row.RecallReason
			}
			pos = len(summaries)
			summaries = append(summaries, summary)
			index[key] = pos
		}

		summary := &summaries[pos]
		summary.TotalQuantity++
		product := rowProduct(row)
		found := false
		for j := range summary.Items {
			if summary.Items[j].ProductID == product.ID {
				summary.Items[j].Quantity++
				found = true
				break
			}
		}
		if !found {
			summary.Items = append(summary.Items, api.HistoryItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    1,
			})
		}
	}
	return summaries
}

// displayAction relabels outbound SHIPPED rows as RECEIVED when the viewer
// is the destination. The stored action never changes.
func (h *ServiceHandler) displayAction(viewerOrgID uuid.UUID, row *model.History) api.ActionType {
	if row.ActionType == string(api.ActionShipped) && row.ToOrgID != nil && *row.ToOrgID == viewerOrgID {
		return api.ActionReceived
	}
	return api.ActionType(row.ActionType)
}

func (h *ServiceHandler) resolveOwner(ctx context.Context, orgID, patientID *uuid.UUID, phones map[uuid.UUID]string) *api.Owner {
	switch {
	case orgID != nil:
		return &api.Owner{Type: api.OwnerTypeOrganization, ID: *orgID, Name: h.orgName(ctx, *orgID)}
	case patientID != nil:
		phone, ok := phones[*patientID]
		if !ok {
			if patient, err := h.store.Patient().Get(ctx, *patientID); err == nil {
				phone = util.MaskPhoneNumber(patient.PhoneNumber)
			}
			phones[*patientID] = phone
		}
		return &api.Owner{Type: api.OwnerTypePatient, ID: *patientID, Name: phone}
	default:
		return nil
	}
}

func groupKey(action api.ActionType, row *model.History) string {
	record := uuid.Nil
	switch {
	case row.ShipmentBatchID != nil:
		record = *row.ShipmentBatchID
	case row.TreatmentID != nil:
		record = *row.TreatmentID
	case row.DisposalID != nil:
		record = *row.DisposalID
	}
	from := uuid.Nil
	if row.FromOrgID != nil {
		from = *row.FromOrgID
	} else if row.FromPatientID != nil {
		from = *row.FromPatientID
	}
	to := uuid.Nil
	if row.ToOrgID != nil {
		to = *row.ToOrgID
	} else if row.ToPatientID != nil {
		to = *row.ToPatientID
	}
	return fmt.Sprintf("%s|%d|%s|%s|%s|%t", action, row.CreatedAt.UnixMilli(), from, to, record, row.IsRecall)
}

func rowProduct(row *model.History) *model.Product {
	if row.VirtualCode != nil && row.VirtualCode.Lot != nil && row.VirtualCode.Lot.Product != nil {
		return row.VirtualCode.Lot.Product
	}
	return &model.Product{}
}
