package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mladenovic/liftplan/internal/training"
	"github.com/mladenovic/liftplan/internal/training/workouts"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestStartDayIdempotent() {
	ctx := context.Background()
	token := doLogin(ctx, s.T())

	mesocycle := s.createMesocycle(ctx, token, "start day block", 1)
	day := mesocycle.Instances[0].Days[0]
	require.False(s.T(), day.IsRestDay)

	status, respBytes := s.doJSON(ctx, "POST", fmt.Sprintf("/plan-instances/days/%d/start", day.ID), token, nil)
	require.Equal(s.T(), http.StatusCreated, status, string(respBytes))
	var first workouts.WorkoutInstance
	require.NoError(s.T(), json.Unmarshal(respBytes, &first))
	require.Len(s.T(), first.Exercises, 3)
	assert.Nil(s.T(), first.CompletedAt)

	status, respBytes = s.doJSON(ctx, "POST", fmt.Sprintf("/plan-instances/days/%d/start", day.ID), token, nil)
	require.Equal(s.T(), http.StatusOK, status, string(respBytes))
	var second workouts.WorkoutInstance
	require.NoError(s.T(), json.Unmarshal(respBytes, &second))

	assert.Equal(s.T(), first.ID, second.ID)

	var attachedCount int
	require.NoError(s.T(), s.dbPool.QueryRow(
		ctx,
		"SELECT COUNT(*) FROM plan_instance_day WHERE id = $1 AND workout_instance_id IS NOT NULL",
		day.ID,
	).Scan(&attachedCount))
	assert.Equal(s.T(), 1, attachedCount)
}

func (s *IntegrationTestSuite) TestRestDayTransitions() {
	ctx := context.Background()
	token := doLogin(ctx, s.T())

	mesocycle := s.createMesocycle(ctx, token, "rest day block", 1)
	workoutDay := mesocycle.Instances[0].Days[0]
	restDay := mesocycle.Instances[0].Days[1]
	require.True(s.T(), restDay.IsRestDay)

	// a rest day can not be started as a workout
	status, _ := s.doJSON(ctx, "POST", fmt.Sprintf("/plan-instances/days/%d/start", restDay.ID), token, nil)
	assert.Equal(s.T(), http.StatusBadRequest, status)

	// a workout day can not be completed as rest
	status, _ = s.doJSON(ctx, "POST", fmt.Sprintf("/plan-instances/days/%d/complete-rest", workoutDay.ID), token, nil)
	assert.Equal(s.T(), http.StatusBadRequest, status)

	// the happy path, twice - rest completion absorbs repeats
	for i := 0; i < 2; i++ {
		status, respBytes := s.doJSON(
			ctx, "POST", fmt.Sprintf("/plan-instances/days/%d/complete-rest", restDay.ID), token, nil,
		)
		require.Equal(s.T(), http.StatusOK, status, string(respBytes))
	}
}

func (s *IntegrationTestSuite) TestSwapExerciseOrder() {
	ctx := context.Background()
	token := doLogin(ctx, s.T())

	mesocycle := s.createMesocycle(ctx, token, "swap block", 1)
	wi := s.startDay(ctx, token, mesocycle.Instances[0].Days[0].ID)
	require.Len(s.T(), wi.Exercises, 3)

	firstExID := wi.Exercises[0].Exercise.ID
	secondExID := wi.Exercises[1].Exercise.ID

	// first exercise can not move up
	status, _ := s.doJSON(
		ctx, "POST",
		fmt.Sprintf("/workouts/%d/exercises/%d/swap/up", wi.ID, firstExID),
		token, nil,
	)
	assert.Equal(s.T(), http.StatusBadRequest, status)

	// second one can
	status, respBytes := s.doJSON(
		ctx, "POST",
		fmt.Sprintf("/workouts/%d/exercises/%d/swap/up", wi.ID, secondExID),
		token, nil,
	)
	require.Equal(s.T(), http.StatusOK, status, string(respBytes))

	var swapResp workouts.SwapResponse
	require.NoError(s.T(), json.Unmarshal(respBytes, &swapResp))
	assert.Equal(s.T(), secondExID, swapResp.SwappedID)

	status, respBytes = s.doJSON(ctx, "GET", fmt.Sprintf("/workouts/%d", wi.ID), token, nil)
	require.Equal(s.T(), http.StatusOK, status)
	var reloaded workouts.WorkoutInstance
	require.NoError(s.T(), json.Unmarshal(respBytes, &reloaded))

	require.Len(s.T(), reloaded.Exercises, 3)
	assert.Equal(s.T(), secondExID, reloaded.Exercises[0].Exercise.ID)
	assert.Equal(s.T(), firstExID, reloaded.Exercises[1].Exercise.ID)

	// unknown direction rejected at the boundary
	status, _ = s.doJSON(
		ctx, "POST",
		fmt.Sprintf("/workouts/%d/exercises/%d/swap/sideways", wi.ID, firstExID),
		token, nil,
	)
	assert.Equal(s.T(), http.StatusBadRequest, status)
}

func (s *IntegrationTestSuite) TestAddExerciseSet() {
	ctx := context.Background()
	token := doLogin(ctx, s.T())

	mesocycle := s.createMesocycle(ctx, token, "sets block", 1)
	wi := s.startDay(ctx, token, mesocycle.Instances[0].Days[0].ID)
	exerciseID := wi.Exercises[0].Exercise.ID

	for i := 0; i < 3; i++ {
		status, respBytes := s.doJSON(
			ctx, "POST", fmt.Sprintf("/workouts/%d/sets", wi.ID), token,
			workouts.ExerciseSet{
				ExerciseID: exerciseID,
				SetType:    training.SetTypeWarmup,
				Kilos:      gofakeit.Number(40, 80),
				Reps:       gofakeit.Number(5, 12),
			},
		)
		require.Equal(s.T(), http.StatusCreated, status, string(respBytes))
	}

	status, respBytes := s.doJSON(
		ctx, "POST", fmt.Sprintf("/workouts/%d/sets", wi.ID), token,
		workouts.ExerciseSet{
			ExerciseID: exerciseID,
			SetType:    training.SetTypeWorking,
			Kilos:      100,
			Reps:       8,
		},
	)
	require.Equal(s.T(), http.StatusCreated, status, string(respBytes))

	var addedSet workouts.ExerciseSet
	require.NoError(s.T(), json.Unmarshal(respBytes, &addedSet))
	assert.NotZero(s.T(), addedSet.ID)
	assert.Equal(s.T(), wi.ID, addedSet.WorkoutInstanceID)
	assert.False(s.T(), addedSet.CreatedAt.IsZero())

	// unknown set type enum value is rejected
	status, _ = s.doJSON(
		ctx, "POST", fmt.Sprintf("/workouts/%d/sets", wi.ID), token,
		map[string]any{"exerciseId": exerciseID, "setType": "superduper", "kilos": 100, "reps": 8},
	)
	assert.Equal(s.T(), http.StatusBadRequest, status)

	// exercise not part of the workout
	status, _ = s.doJSON(
		ctx, "POST", fmt.Sprintf("/workouts/%d/sets", wi.ID), token,
		workouts.ExerciseSet{ExerciseID: 4242, SetType: training.SetTypeWorking, Kilos: 60, Reps: 5},
	)
	assert.Equal(s.T(), http.StatusNotFound, status)

	status, respBytes = s.doJSON(ctx, "GET", fmt.Sprintf("/workouts/%d", wi.ID), token, nil)
	require.Equal(s.T(), http.StatusOK, status)
	var reloaded workouts.WorkoutInstance
	require.NoError(s.T(), json.Unmarshal(respBytes, &reloaded))
	require.Len(s.T(), reloaded.Sets, 4)
	// sets come back in logging order, the working set last
	assert.Equal(s.T(), addedSet.ID, reloaded.Sets[3].ID)
	assert.Equal(s.T(), training.SetTypeWarmup, reloaded.Sets[0].SetType)
}

func (s *IntegrationTestSuite) TestOwnerScoping() {
	ctx := context.Background()
	token := doLogin(ctx, s.T())

	mesocycle := s.createMesocycle(ctx, token, "scoping block", 1)

	// unauthenticated requests never reach the handlers
	req, err := http.NewRequestWithContext(
		ctx, "GET", fmt.Sprintf("%s/mesocycles/%d", serverEndpoint, mesocycle.ID), nil,
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()
	assert.Equal(s.T(), http.StatusUnauthorized, resp.StatusCode)

	// unknown ids come back as not found, not as internal errors
	status, _ := s.doJSON(ctx, "GET", "/mesocycles/424242", token, nil)
	assert.Equal(s.T(), http.StatusNotFound, status)
	status, _ = s.doJSON(ctx, "GET", "/plan-instances/424242", token, nil)
	assert.Equal(s.T(), http.StatusNotFound, status)
	status, _ = s.doJSON(ctx, "GET", "/workouts/424242", token, nil)
	assert.Equal(s.T(), http.StatusNotFound, status)
}
