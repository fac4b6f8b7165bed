package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mladenovic/liftplan/internal/auth"
	"github.com/mladenovic/liftplan/internal/training"
	"github.com/mladenovic/liftplan/internal/training/instances"
	"github.com/mladenovic/liftplan/internal/training/mesocycles"
	"github.com/mladenovic/liftplan/internal/training/workouts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPlanTemplateID = 1

// doJSON fires an authenticated JSON request and returns the status code with
// the raw response body.
func (s *IntegrationTestSuite) doJSON(
	ctx context.Context,
	method, path, token string,
	body any,
) (int, []byte) {
	var reqBody io.Reader
	if body != nil {
		bodyJson, err := json.Marshal(body)
		require.NoError(s.T(), err)
		reqBody = bytes.NewReader(bodyJson)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reqBody)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set(auth.TokenHeader, token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	return resp.StatusCode, respBytes
}

func (s *IntegrationTestSuite) createMesocycle(
	ctx context.Context,
	token, name string,
	iterations int,
) mesocycles.Mesocycle {
	status, respBytes := s.doJSON(ctx, "POST", "/mesocycles", token, mesocycles.NewMesocycleRequest{
		Name:           name,
		PlanTemplateID: testPlanTemplateID,
		Iterations:     iterations,
	})
	require.Equal(s.T(), http.StatusCreated, status, string(respBytes))

	var mesocycle mesocycles.Mesocycle
	require.NoError(s.T(), json.Unmarshal(respBytes, &mesocycle))
	return mesocycle
}

func (s *IntegrationTestSuite) getMesocycle(ctx context.Context, token string, id int) mesocycles.Mesocycle {
	status, respBytes := s.doJSON(ctx, "GET", fmt.Sprintf("/mesocycles/%d", id), token, nil)
	require.Equal(s.T(), http.StatusOK, status, string(respBytes))

	var mesocycle mesocycles.Mesocycle
	require.NoError(s.T(), json.Unmarshal(respBytes, &mesocycle))
	return mesocycle
}

func (s *IntegrationTestSuite) startDay(ctx context.Context, token string, dayID int) workouts.WorkoutInstance {
	status, respBytes := s.doJSON(ctx, "POST", fmt.Sprintf("/plan-instances/days/%d/start", dayID), token, nil)
	require.Contains(s.T(), []int{http.StatusOK, http.StatusCreated}, status, string(respBytes))

	var wi workouts.WorkoutInstance
	require.NoError(s.T(), json.Unmarshal(respBytes, &wi))
	return wi
}

// completeInstanceDays walks every day of the iteration: rest days through
// complete-rest, workout days through start + complete.
func (s *IntegrationTestSuite) completeInstanceDays(ctx context.Context, token string, instance instances.PlanInstance) {
	for _, day := range instance.Days {
		if day.IsRestDay {
			status, respBytes := s.doJSON(
				ctx, "POST", fmt.Sprintf("/plan-instances/days/%d/complete-rest", day.ID), token, nil,
			)
			require.Equal(s.T(), http.StatusOK, status, string(respBytes))
			continue
		}

		wi := s.startDay(ctx, token, day.ID)
		status, respBytes := s.doJSON(ctx, "POST", fmt.Sprintf("/workouts/%d/complete", wi.ID), token, nil)
		require.Equal(s.T(), http.StatusOK, status, string(respBytes))
	}
}

func (s *IntegrationTestSuite) TestMesocycleCreation() {
	ctx := context.Background()
	token := doLogin(ctx, s.T())

	mesocycle := s.createMesocycle(ctx, token, "hypertrophy block", 5)

	assert.Equal(s.T(), "hypertrophy block", mesocycle.Name)
	assert.Equal(s.T(), training.StatusNotStarted, mesocycle.Status)
	assert.Nil(s.T(), mesocycle.CompletedAt)
	require.Len(s.T(), mesocycle.Instances, 5)

	for i, instance := range mesocycle.Instances {
		assert.Equal(s.T(), i+1, instance.IterationNumber)
		require.Len(s.T(), instance.Days, 3)
		for _, day := range instance.Days {
			assert.False(s.T(), day.IsComplete)
			assert.Nil(s.T(), day.WorkoutInstanceID)
		}
	}

	// rir compresses toward the final iteration: 3,3,2,1,0
	assert.Equal(s.T(), 3, mesocycle.Instances[0].RIR)
	assert.Equal(s.T(), 3, mesocycle.Instances[1].RIR)
	assert.Equal(s.T(), 2, mesocycle.Instances[2].RIR)
	assert.Equal(s.T(), 1, mesocycle.Instances[3].RIR)
	assert.Equal(s.T(), 0, mesocycle.Instances[4].RIR)

	require.NotNil(s.T(), mesocycle.Instances[0].Status)
	assert.Equal(s.T(), training.StatusInProgress, *mesocycle.Instances[0].Status)
	for _, instance := range mesocycle.Instances[1:] {
		assert.Nil(s.T(), instance.Status)
	}
}

func (s *IntegrationTestSuite) TestMesocycleCreationValidation() {
	ctx := context.Background()
	token := doLogin(ctx, s.T())

	status, _ := s.doJSON(ctx, "POST", "/mesocycles", token, mesocycles.NewMesocycleRequest{
		Name:           "zero iterations",
		PlanTemplateID: testPlanTemplateID,
		Iterations:     0,
	})
	assert.Equal(s.T(), http.StatusBadRequest, status)

	status, _ = s.doJSON(ctx, "POST", "/mesocycles", token, mesocycles.NewMesocycleRequest{
		Name:           "missing template",
		PlanTemplateID: 4242,
		Iterations:     2,
	})
	assert.Equal(s.T(), http.StatusNotFound, status)
}

func (s *IntegrationTestSuite) TestCascadeActivatesNextIteration() {
	ctx := context.Background()
	token := doLogin(ctx, s.T())

	mesocycle := s.createMesocycle(ctx, token, "cascade block", 3)
	s.completeInstanceDays(ctx, token, mesocycle.Instances[0])

	reloaded := s.getMesocycle(ctx, token, mesocycle.ID)
	require.Len(s.T(), reloaded.Instances, 3)

	first, second, third := reloaded.Instances[0], reloaded.Instances[1], reloaded.Instances[2]

	require.NotNil(s.T(), first.Status)
	assert.Equal(s.T(), training.StatusComplete, *first.Status)
	assert.NotNil(s.T(), first.CompletedAt)

	require.NotNil(s.T(), second.Status)
	assert.Equal(s.T(), training.StatusInProgress, *second.Status)

	assert.Nil(s.T(), third.Status)
	assert.Equal(s.T(), training.StatusNotStarted, reloaded.Status)
}

func (s *IntegrationTestSuite) TestReplayedCompletionActivatesNothing() {
	ctx := context.Background()
	token := doLogin(ctx, s.T())

	mesocycle := s.createMesocycle(ctx, token, "replay block", 3)
	s.completeInstanceDays(ctx, token, mesocycle.Instances[0])

	// replay every completion of iteration 1 - the cascade already ran and
	// switched iteration 2 on, so the replays must change nothing
	reloaded := s.getMesocycle(ctx, token, mesocycle.ID)
	for _, day := range reloaded.Instances[0].Days {
		if day.IsRestDay {
			status, respBytes := s.doJSON(
				ctx, "POST", fmt.Sprintf("/plan-instances/days/%d/complete-rest", day.ID), token, nil,
			)
			require.Equal(s.T(), http.StatusOK, status, string(respBytes))

			var resp instances.CompleteRestDayResponse
			require.NoError(s.T(), json.Unmarshal(respBytes, &resp))
			assert.False(s.T(), resp.Cascade.InstanceCompleted)
			assert.Nil(s.T(), resp.Cascade.ActivatedInstanceID)
			continue
		}

		require.NotNil(s.T(), day.WorkoutInstanceID)
		status, respBytes := s.doJSON(
			ctx, "POST", fmt.Sprintf("/workouts/%d/complete", *day.WorkoutInstanceID), token, nil,
		)
		require.Equal(s.T(), http.StatusOK, status, string(respBytes))

		var resp instances.CompleteWorkoutResponse
		require.NoError(s.T(), json.Unmarshal(respBytes, &resp))
		assert.False(s.T(), resp.Cascade.InstanceCompleted)
		assert.Nil(s.T(), resp.Cascade.ActivatedInstanceID)
	}

	again := s.getMesocycle(ctx, token, mesocycle.ID)
	require.Len(s.T(), again.Instances, 3)

	inProgressCount := 0
	for _, instance := range again.Instances {
		if instance.Status != nil && *instance.Status == training.StatusInProgress {
			inProgressCount++
		}
	}
	assert.Equal(s.T(), 1, inProgressCount)

	// iteration 2 stays the active one, iteration 3 stays untouched
	require.NotNil(s.T(), again.Instances[1].Status)
	assert.Equal(s.T(), training.StatusInProgress, *again.Instances[1].Status)
	assert.Nil(s.T(), again.Instances[2].Status)
}

func (s *IntegrationTestSuite) TestFullMesocycleCompletion() {
	ctx := context.Background()
	token := doLogin(ctx, s.T())

	mesocycle := s.createMesocycle(ctx, token, "short block", 2)
	s.completeInstanceDays(ctx, token, mesocycle.Instances[0])
	s.completeInstanceDays(ctx, token, mesocycle.Instances[1])

	reloaded := s.getMesocycle(ctx, token, mesocycle.ID)
	assert.Equal(s.T(), training.StatusComplete, reloaded.Status)
	assert.NotNil(s.T(), reloaded.CompletedAt)

	for _, instance := range reloaded.Instances {
		require.NotNil(s.T(), instance.Status)
		assert.Equal(s.T(), training.StatusComplete, *instance.Status)
		assert.NotNil(s.T(), instance.CompletedAt)
	}

	// the stored row agrees with what the API reports
	var storedStatus string
	require.NoError(s.T(), s.dbPool.QueryRow(
		ctx, "SELECT status FROM mesocycle WHERE id = $1", mesocycle.ID,
	).Scan(&storedStatus))
	assert.Equal(s.T(), training.StatusComplete.String(), storedStatus)

	// replaying the final workout completion does not report the mesocycle
	// as freshly completed again, nor move its completion timestamp
	lastDay := reloaded.Instances[1].Days[0]
	require.NotNil(s.T(), lastDay.WorkoutInstanceID)
	status, respBytes := s.doJSON(
		ctx, "POST", fmt.Sprintf("/workouts/%d/complete", *lastDay.WorkoutInstanceID), token, nil,
	)
	require.Equal(s.T(), http.StatusOK, status, string(respBytes))

	var resp instances.CompleteWorkoutResponse
	require.NoError(s.T(), json.Unmarshal(respBytes, &resp))
	assert.False(s.T(), resp.Cascade.MesocycleCompleted)
	assert.False(s.T(), resp.Cascade.InstanceCompleted)

	again := s.getMesocycle(ctx, token, mesocycle.ID)
	require.NotNil(s.T(), again.CompletedAt)
	assert.Equal(s.T(), *reloaded.CompletedAt, *again.CompletedAt)
}

func (s *IntegrationTestSuite) TestCompletedInstanceIsMonotonic() {
	ctx := context.Background()
	token := doLogin(ctx, s.T())

	mesocycle := s.createMesocycle(ctx, token, "monotonic block", 1)
	s.completeInstanceDays(ctx, token, mesocycle.Instances[0])

	reloaded := s.getMesocycle(ctx, token, mesocycle.ID)
	firstCompletedAt := reloaded.Instances[0].CompletedAt
	require.NotNil(s.T(), firstCompletedAt)

	// re-completing the same workout must not move completedAt
	day := reloaded.Instances[0].Days[0]
	require.NotNil(s.T(), day.WorkoutInstanceID)
	status, respBytes := s.doJSON(
		ctx, "POST", fmt.Sprintf("/workouts/%d/complete", *day.WorkoutInstanceID), token, nil,
	)
	require.Equal(s.T(), http.StatusOK, status, string(respBytes))

	again := s.getMesocycle(ctx, token, mesocycle.ID)
	require.NotNil(s.T(), again.Instances[0].CompletedAt)
	assert.Equal(s.T(), *firstCompletedAt, *again.Instances[0].CompletedAt)
}
