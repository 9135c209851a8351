package queue

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJob(t *testing.T) {
	orderID := uuid.NewString()
	payload := []byte(`{"order_id":"` + orderID + `","product_id":"p-1","customer_id":"c-1"}`)

	job, err := DecodeJob(payload)

	require.NoError(t, err)
	assert.Equal(t, orderID, job.OrderID)
	assert.Equal(t, "p-1", job.ProductID)
	assert.Equal(t, "c-1", job.CustomerID)
}

func TestDecodeJobRejectsMalformedPayload(t *testing.T) {
	_, err := DecodeJob([]byte(`{"order_id":`))

	assert.Error(t, err)
}

func TestDecodeJobRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		payload OrderJob
	}{
		{"missing order id", OrderJob{ProductID: "p-1", CustomerID: "c-1"}},
		{"order id not a uuid", OrderJob{OrderID: "42", ProductID: "p-1", CustomerID: "c-1"}},
		{"missing product id", OrderJob{OrderID: uuid.NewString(), CustomerID: "c-1"}},
		{"missing customer id", OrderJob{OrderID: uuid.NewString(), ProductID: "p-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := json.Marshal(tt.payload)
			require.NoError(t, err)

			_, err = DecodeJob(payload)

			assert.Error(t, err)
		})
	}
}

func TestJobPayloadRoundTrip(t *testing.T) {
	job := OrderJob{OrderID: uuid.NewString(), ProductID: "p-1", CustomerID: "c-1"}

	payload, err := json.Marshal(job)
	require.NoError(t, err)

	decoded, err := DecodeJob(payload)
	require.NoError(t, err)
	assert.Equal(t, job, decoded)
}
