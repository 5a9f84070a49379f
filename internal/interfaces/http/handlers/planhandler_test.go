package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saathi-inc/saathi/internal/application/quota/dto"
	"github.com/saathi-inc/saathi/internal/interfaces/http/handlers/testutil"
	"github.com/saathi-inc/saathi/internal/shared/errors"
)

type mockPlanService struct {
	plans     []dto.PlanResponse
	plan      *dto.PlanResponse
	err       error
	gotPlanID uint
}

func (m *mockPlanService) ListPlans(ctx context.Context) ([]dto.PlanResponse, error) {
	return m.plans, m.err
}

func (m *mockPlanService) GetPlan(ctx context.Context, planID uint) (*dto.PlanResponse, error) {
	m.gotPlanID = planID
	return m.plan, m.err
}

func createTestPlanResponse(id uint, name string) dto.PlanResponse {
	days := uint32(90)
	return dto.PlanResponse{
		ID:               id,
		Name:             name,
		InterestLimit:    dto.Allowance{Value: 20},
		ContactViewLimit: dto.Allowance{Value: 8},
		ImageLimit:       dto.Allowance{Value: 10},
		ValidityDays:     &days,
		Metadata:         map[string]any{"price_inr": 999},
	}
}

func TestPlanHandler_ListPlans_Success(t *testing.T) {
	svc := &mockPlanService{plans: []dto.PlanResponse{
		createTestPlanResponse(2, "Silver"),
		createTestPlanResponse(3, "Gold"),
	}}
	handler := NewPlanHandler(svc, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/api/plans", nil)

	handler.ListPlans(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.True(t, resp.Success)

	var data struct {
		Items []dto.PlanResponse `json:"items"`
		Total int                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, 2, data.Total)
	assert.Equal(t, "Gold", data.Items[1].Name)
}

func TestPlanHandler_ListPlans_Error(t *testing.T) {
	svc := &mockPlanService{err: errors.NewInternalError("catalog unavailable")}
	handler := NewPlanHandler(svc, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/api/plans", nil)

	handler.ListPlans(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestPlanHandler_GetPlan_Success(t *testing.T) {
	plan := createTestPlanResponse(2, "Silver")
	svc := &mockPlanService{plan: &plan}
	handler := NewPlanHandler(svc, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/api/plans/2", nil)
	testutil.SetURLParam(c, "id", "2")

	handler.GetPlan(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(2), svc.gotPlanID)
	assert.Contains(t, w.Body.String(), `"validity_days":90`)
}

func TestPlanHandler_GetPlan_InvalidID(t *testing.T) {
	svc := &mockPlanService{}
	handler := NewPlanHandler(svc, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/api/plans/silver", nil)
	testutil.SetURLParam(c, "id", "silver")

	handler.GetPlan(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, svc.gotPlanID)
}

func TestPlanHandler_GetPlan_NotFound(t *testing.T) {
	svc := &mockPlanService{err: errors.NewNotFoundError("plan not found")}
	handler := NewPlanHandler(svc, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/api/plans/42", nil)
	testutil.SetURLParam(c, "id", "42")

	handler.GetPlan(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
