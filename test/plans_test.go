package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mladenovic/liftplan/internal/plans"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestPlanTemplates() {
	ctx := context.Background()
	token := doLogin(ctx, s.T())

	status, respBytes := s.doJSON(ctx, "GET", "/plans", token, nil)
	require.Equal(s.T(), http.StatusOK, status, string(respBytes))

	var templates []plans.PlanTemplate
	require.NoError(s.T(), json.Unmarshal(respBytes, &templates))
	require.NotEmpty(s.T(), templates)

	status, respBytes = s.doJSON(ctx, "GET", fmt.Sprintf("/plans/%d", templates[0].ID), token, nil)
	require.Equal(s.T(), http.StatusOK, status, string(respBytes))

	var template plans.PlanTemplate
	require.NoError(s.T(), json.Unmarshal(respBytes, &template))
	assert.Equal(s.T(), "Three Day Split", template.Name)
	require.Len(s.T(), template.Days, 3)
	assert.True(s.T(), template.Days[1].IsRestDay)
	require.NotNil(s.T(), template.Days[0].WorkoutTemplate)
	assert.NotEmpty(s.T(), template.Days[0].WorkoutTemplate.Exercises)

	// second read comes from the cache and looks identical
	status, respBytes = s.doJSON(ctx, "GET", fmt.Sprintf("/plans/%d", template.ID), token, nil)
	require.Equal(s.T(), http.StatusOK, status)
	var cached plans.PlanTemplate
	require.NoError(s.T(), json.Unmarshal(respBytes, &cached))
	assert.Equal(s.T(), template, cached)

	status, _ = s.doJSON(ctx, "GET", "/plans/424242", token, nil)
	assert.Equal(s.T(), http.StatusNotFound, status)
}
