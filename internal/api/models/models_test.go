package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jroosing/subzone/internal/api/models"
)

func TestResultResponse_OmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(models.ResultResponse{Success: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true}`, string(data))

	data, err = json.Marshal(models.ResultResponse{Message: "boom", Created: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"message":"boom","created":true}`, string(data))
}

func TestUpdateRecordRequest_FieldNames(t *testing.T) {
	var req models.UpdateRecordRequest
	body := `{"old_name":"a.example.com","name":"b.example.com","type":"A","content":"1.2.3.4","proxied":true}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	assert.Equal(t, "a.example.com", req.OldName)
	assert.Equal(t, "b.example.com", req.Name)
	assert.True(t, req.Proxied)
}

func TestRecord_CreatedAtOptional(t *testing.T) {
	data, err := json.Marshal(models.Record{Name: "a.example.com", Type: "A", Content: "1.2.3.4"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "created_at")

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	data, err = json.Marshal(models.Record{Name: "a.example.com", CreatedAt: &ts})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"created_at":"2026-01-02T03:04:05Z"`)
}
