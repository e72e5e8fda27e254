package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	api "github.com/neocertify/neocertify/internal/api/v1"
	"github.com/neocertify/neocertify/internal/signing"
	"github.com/neocertify/neocertify/internal/store"
	"github.com/neocertify/neocertify/internal/store/model"
)

type testEnv struct {
	ctx     context.Context
	store   store.Store
	handler *ServiceHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	st := store.PrepareDBForUnitTests(t, log)
	signer := signing.NewService("unit-test-secret", "")
	return &testEnv{
		ctx:     context.Background(),
		store:   st,
		handler: NewServiceHandler(st, signer, nil, log),
	}
}

func (e *testEnv) createActiveOrg(t *testing.T, orgType api.OrgType, name string) uuid.UUID {
	t.Helper()
	org, err := e.store.Organization().Create(e.ctx, &model.Organization{
		Type:           string(orgType),
		Name:           name,
		Email:          name + "@example.com",
		BusinessNumber: "brn-" + uuid.NewString()[:8],
		Status:         string(api.OrgStatusActive),
	})
	require.NoError(t, err)
	return org.ID
}

func requireSuccess(t *testing.T, status api.Status) {
	t.Helper()
	require.Equal(t, "Success", status.Status, "unexpected failure: %s %s", status.Reason, status.Message)
}

func TestRegisterOrganizationStartsPending(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)

	org, status := e.handler.RegisterOrganization(e.ctx, api.RegisterOrganizationRequest{
		Type:           api.OrgTypeManufacturer,
		Name:           "Neo Devices",
		Email:          "ops@neodevices.example",
		BusinessNumber: "123-45-67890",
	})
	requireSuccess(t, status)
	require.Equal(api.OrgStatusPendingApproval, org.Status)

	// Pending organizations cannot operate yet.
	_, opStatus := e.handler.CreateProduct(e.ctx, org.ID, api.CreateProductRequest{
		Name: "Filler", UdiDi: "UDI-1", ModelName: "F-100",
	})
	require.Equal(int32(http.StatusNotFound), opStatus.Code)
}

func TestFullDistributionScenario(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)

	maker := e.createActiveOrg(t, api.OrgTypeManufacturer, "maker")
	dist := e.createActiveOrg(t, api.OrgTypeDistributor, "dist")
	hosp := e.createActiveOrg(t, api.OrgTypeHospital, "hosp")

	product, status := e.handler.CreateProduct(e.ctx, maker, api.CreateProductRequest{
		Name: "Dermal Filler", UdiDi: "UDI-0001", ModelName: "DF-100",
	})
	requireSuccess(t, status)

	lot, status := e.handler.CreateLot(e.ctx, maker, api.CreateLotRequest{
		ProductID:       product.ID,
		LotNumber:       "LOT-2026-01",
		Quantity:        10,
		ManufactureDate: "2026-01-10",
		ExpiryDate:      "2028-01-10",
	})
	requireSuccess(t, status)
	require.Equal(10, lot.TotalQuantity)

	ship1, status := e.handler.CreateShipment(e.ctx, maker, api.CreateShipmentRequest{
		ToOrganizationID: dist,
		Items:            []api.ShipmentItem{{ProductID: product.ID, Quantity: 6}},
	})
	requireSuccess(t, status)
	require.Equal(6, ship1.TotalQuantity)

	_, status = e.handler.CreateShipment(e.ctx, dist, api.CreateShipmentRequest{
		ToOrganizationID: hosp,
		Items:            []api.ShipmentItem{{ProductID: product.ID, Quantity: 4}},
	})
	requireSuccess(t, status)

	treatment, status := e.handler.CreateTreatment(e.ctx, hosp, api.CreateTreatmentRequest{
		PatientPhone:  "010-1111-0001",
		TreatmentDate: "2026-02-01",
		Items:         []api.ShipmentItem{{ProductID: product.ID, Quantity: 2}},
	})
	requireSuccess(t, status)
	require.Equal(2, treatment.TotalQuantity)

	_, status = e.handler.CreateDisposal(e.ctx, hosp, api.CreateDisposalRequest{
		DisposalDate: "2026-02-02",
		ReasonType:   api.DisposalReasonExpired,
		Items:        []api.ShipmentItem{{ProductID: product.ID, Quantity: 1}},
	})
	requireSuccess(t, status)

	// Stock positions after the whole chain.
	for _, expect := range []struct {
		org   uuid.UUID
		count int
	}{
		{maker, 4},
		{dist, 2},
		{hosp, 1},
	} {
		inv, invStatus := e.handler.GetInventory(e.ctx, expect.org)
		requireSuccess(t, invStatus)
		if expect.count == 0 {
			require.Empty(inv)
			continue
		}
		require.Len(inv, 1)
		require.Equal(expect.count, inv[0].TotalQuantity)
	}

	// The hospital's history groups into RECEIVED, TREATED and DISPOSED.
	page, status := e.handler.ListHistory(e.ctx, hosp, api.HistoryQuery{Limit: 100})
	requireSuccess(t, status)
	require.False(page.HasMore)
	require.Len(page.Items, 3)

	byAction := map[api.ActionType]api.HistorySummary{}
	for _, item := range page.Items {
		byAction[item.ActionType] = item
	}
	require.Equal(4, byAction[api.ActionReceived].TotalQuantity)
	require.Equal(2, byAction[api.ActionTreated].TotalQuantity)
	require.Equal(1, byAction[api.ActionDisposed].TotalQuantity)

	// Patient identity is masked in summaries.
	treated := byAction[api.ActionTreated]
	require.NotNil(treated.ToOwner)
	require.Equal(api.OwnerTypePatient, treated.ToOwner.Type)
	require.Equal("010****0001", treated.ToOwner.Name)
	require.Len(treated.Items, 1)
	require.Equal("Dermal Filler", treated.Items[0].ProductName)
}

func TestReturnScenario(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)

	maker := e.createActiveOrg(t, api.OrgTypeManufacturer, "maker")
	dist := e.createActiveOrg(t, api.OrgTypeDistributor, "dist")

	product, status := e.handler.CreateProduct(e.ctx, maker, api.CreateProductRequest{
		Name: "Dermal Filler", UdiDi: "UDI-0001", ModelName: "DF-100",
	})
	requireSuccess(t, status)
	_, status = e.handler.CreateLot(e.ctx, maker, api.CreateLotRequest{
		ProductID:       product.ID,
		LotNumber:       "LOT-2026-01",
		Quantity:        5,
		ManufactureDate: "2026-01-10",
		ExpiryDate:      "2028-01-10",
	})
	requireSuccess(t, status)

	ship, status := e.handler.CreateShipment(e.ctx, maker, api.CreateShipmentRequest{
		ToOrganizationID: dist,
		Items:            []api.ShipmentItem{{ProductID: product.ID, Quantity: 5}},
	})
	requireSuccess(t, status)

	result, status := e.handler.ReturnShipment(e.ctx, dist, ship.ShipmentBatchID, api.ReturnShipmentRequest{
		Reason:            "damaged packaging",
		ProductQuantities: []api.ShipmentItem{{ProductID: product.ID, Quantity: 2}},
	})
	requireSuccess(t, status)
	require.Equal(2, result.ReturnedCount)

	batch, err := e.store.Shipment().Get(e.ctx, result.NewBatchID)
	require.NoError(err)
	require.True(batch.IsReturnBatch)
	require.Equal(ship.ShipmentBatchID, *batch.ParentBatchID)

	inv, status := e.handler.GetInventory(e.ctx, maker)
	requireSuccess(t, status)
	require.Equal(2, inv[0].TotalQuantity)
	inv, status = e.handler.GetInventory(e.ctx, dist)
	requireSuccess(t, status)
	require.Equal(3, inv[0].TotalQuantity)
}

func TestRoleRestrictions(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)

	maker := e.createActiveOrg(t, api.OrgTypeManufacturer, "maker")
	dist := e.createActiveOrg(t, api.OrgTypeDistributor, "dist")
	hosp := e.createActiveOrg(t, api.OrgTypeHospital, "hosp")

	_, status := e.handler.CreateProduct(e.ctx, dist, api.CreateProductRequest{
		Name: "Filler", UdiDi: "UDI-1", ModelName: "F-100",
	})
	require.Equal(int32(http.StatusForbidden), status.Code)

	_, status = e.handler.CreateShipment(e.ctx, hosp, api.CreateShipmentRequest{
		ToOrganizationID: dist,
		Items:            []api.ShipmentItem{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.Equal(int32(http.StatusForbidden), status.Code)

	_, status = e.handler.CreateTreatment(e.ctx, maker, api.CreateTreatmentRequest{
		PatientPhone:  "010-1111-0001",
		TreatmentDate: "2026-02-01",
		Items:         []api.ShipmentItem{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.Equal(int32(http.StatusForbidden), status.Code)
}

func TestValidationFailures(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)

	maker := e.createActiveOrg(t, api.OrgTypeManufacturer, "maker")

	// No items.
	_, status := e.handler.CreateShipment(e.ctx, maker, api.CreateShipmentRequest{
		ToOrganizationID: uuid.New(),
	})
	require.Equal(api.ReasonValidationError, status.Reason)

	// Zero quantity.
	_, status = e.handler.CreateShipment(e.ctx, maker, api.CreateShipmentRequest{
		ToOrganizationID: uuid.New(),
		Items:            []api.ShipmentItem{{ProductID: uuid.New(), Quantity: 0}},
	})
	require.Equal(api.ReasonValidationError, status.Reason)

	// Self-shipment.
	_, status = e.handler.CreateShipment(e.ctx, maker, api.CreateShipmentRequest{
		ToOrganizationID: maker,
		Items:            []api.ShipmentItem{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.Equal(api.ReasonValidationError, status.Reason)

	// Malformed treatment date.
	_, status = e.handler.CreateTreatment(e.ctx, maker, api.CreateTreatmentRequest{
		PatientPhone:  "010-1111-0001",
		TreatmentDate: "01-02-2026",
		Items:         []api.ShipmentItem{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.Equal(api.ReasonValidationError, status.Reason)

	// OTHER disposal without a custom reason.
	_, status = e.handler.CreateDisposal(e.ctx, maker, api.CreateDisposalRequest{
		DisposalDate: "2026-02-02",
		ReasonType:   api.DisposalReasonOther,
		Items:        []api.ShipmentItem{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.Equal(api.ReasonValidationError, status.Reason)
}

func TestInsufficientStockNamesProduct(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)

	maker := e.createActiveOrg(t, api.OrgTypeManufacturer, "maker")
	dist := e.createActiveOrg(t, api.OrgTypeDistributor, "dist")

	product, status := e.handler.CreateProduct(e.ctx, maker, api.CreateProductRequest{
		Name: "Filler", UdiDi: "UDI-1", ModelName: "F-100",
	})
	requireSuccess(t, status)
	_, status = e.handler.CreateLot(e.ctx, maker, api.CreateLotRequest{
		ProductID:       product.ID,
		LotNumber:       "LOT-1",
		Quantity:        2,
		ManufactureDate: "2026-01-10",
		ExpiryDate:      "2028-01-10",
	})
	requireSuccess(t, status)

	_, status = e.handler.CreateShipment(e.ctx, maker, api.CreateShipmentRequest{
		ToOrganizationID: dist,
		Items:            []api.ShipmentItem{{ProductID: product.ID, Quantity: 3}},
	})
	require.Equal(api.ReasonInsufficientStock, status.Reason)
	require.Contains(status.Message, product.ID.String())
}

func TestVerifyAndInquiry(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)

	maker := e.createActiveOrg(t, api.OrgTypeManufacturer, "maker")
	hosp := e.createActiveOrg(t, api.OrgTypeHospital, "Seoul Clinic")

	product, status := e.handler.CreateProduct(e.ctx, maker, api.CreateProductRequest{
		Name: "Filler", UdiDi: "UDI-1", ModelName: "F-100",
	})
	requireSuccess(t, status)
	_, status = e.handler.CreateLot(e.ctx, maker, api.CreateLotRequest{
		ProductID:       product.ID,
		LotNumber:       "LOT-1",
		Quantity:        3,
		ManufactureDate: "2026-01-10",
		ExpiryDate:      "2028-01-10",
	})
	requireSuccess(t, status)
	_, status = e.handler.CreateShipment(e.ctx, maker, api.CreateShipmentRequest{
		ToOrganizationID: hosp,
		Items:            []api.ShipmentItem{{ProductID: product.ID, Quantity: 2}},
	})
	requireSuccess(t, status)
	_, status = e.handler.CreateTreatment(e.ctx, hosp, api.CreateTreatmentRequest{
		PatientPhone:  "010-1111-0001",
		TreatmentDate: "2026-02-01",
		Items:         []api.ShipmentItem{{ProductID: product.ID, Quantity: 1}},
	})
	requireSuccess(t, status)

	// Pick the treated unit through its audit row and verify its token.
	rows, _, err := e.store.History().List(e.ctx, hosp, api.HistoryQuery{
		ActionTypes: []api.ActionType{api.ActionTreated},
		Limit:       10,
	})
	require.NoError(err)
	require.Len(rows, 1)
	code, err := e.store.Code().Get(e.ctx, rows[0].VirtualCodeID)
	require.NoError(err)

	result, status := e.handler.Verify(e.ctx, e.handler.SignedToken(code.Code))
	requireSuccess(t, status)
	require.True(result.Verified)
	require.Equal(api.CodeStatusUsed, result.Status)
	require.NotNil(result.Treatment)
	require.Equal("Seoul Clinic", result.Treatment.HospitalName)
	require.Equal("2026-02-01", result.Treatment.TreatmentDate)

	// Tampered and unknown tokens collapse into the same NOT_FOUND.
	_, status = e.handler.Verify(e.ctx, code.Code+".deadbeef")
	require.Equal(api.ReasonNotFound, status.Reason)
	_, status = e.handler.Verify(e.ctx, "garbage")
	require.Equal(api.ReasonNotFound, status.Reason)
	_, status = e.handler.Verify(e.ctx, e.handler.SignedToken("NC-UNKNOWN-000001-FFFFFFFF"))
	require.Equal(api.ReasonNotFound, status.Reason)

	records, status := e.handler.Inquiry(e.ctx, "010-1111-0001")
	requireSuccess(t, status)
	require.Len(records, 1)
	require.Equal("Seoul Clinic", records[0].HospitalName)

	records, status = e.handler.Inquiry(e.ctx, "010-9999-9999")
	requireSuccess(t, status)
	require.Empty(records)

	// Lookup by signed code finds the same treatment; invalid tokens
	// yield an empty list rather than an error.
	records, status = e.handler.InquiryByCode(e.ctx, e.handler.SignedToken(code.Code))
	requireSuccess(t, status)
	require.Len(records, 1)
	require.Equal("Seoul Clinic", records[0].HospitalName)

	records, status = e.handler.InquiryByCode(e.ctx, "garbage")
	requireSuccess(t, status)
	require.Empty(records)
}

func TestRecallOperations(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)

	maker := e.createActiveOrg(t, api.OrgTypeManufacturer, "maker")
	dist := e.createActiveOrg(t, api.OrgTypeDistributor, "dist")

	product, status := e.handler.CreateProduct(e.ctx, maker, api.CreateProductRequest{
		Name: "Filler", UdiDi: "UDI-1", ModelName: "F-100",
	})
	requireSuccess(t, status)
	_, status = e.handler.CreateLot(e.ctx, maker, api.CreateLotRequest{
		ProductID:       product.ID,
		LotNumber:       "LOT-1",
		Quantity:        5,
		ManufactureDate: "2026-01-10",
		ExpiryDate:      "2028-01-10",
	})
	requireSuccess(t, status)

	ship, status := e.handler.CreateShipment(e.ctx, maker, api.CreateShipmentRequest{
		ToOrganizationID: dist,
		Items:            []api.ShipmentItem{{ProductID: product.ID, Quantity: 3}},
	})
	requireSuccess(t, status)

	recalled, status := e.handler.RecallShipment(e.ctx, maker, ship.ShipmentBatchID, api.RecallShipmentRequest{Reason: "labeling error"})
	requireSuccess(t, status)
	require.Equal(3, recalled)

	_, status = e.handler.RecallShipment(e.ctx, maker, ship.ShipmentBatchID, api.RecallShipmentRequest{Reason: "again"})
	require.Equal(api.ReasonAlreadyFinalized, status.Reason)

	// The recall window is enforced.
	e.handler.recallWindow = 0
	ship2, status := e.handler.CreateShipment(e.ctx, maker, api.CreateShipmentRequest{
		ToOrganizationID: dist,
		Items:            []api.ShipmentItem{{ProductID: product.ID, Quantity: 1}},
	})
	requireSuccess(t, status)
	_, status = e.handler.RecallShipment(e.ctx, maker, ship2.ShipmentBatchID, api.RecallShipmentRequest{Reason: "too late"})
	require.Equal(int32(http.StatusForbidden), status.Code)
}
