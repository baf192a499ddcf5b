package kafka_test

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landdiv/landflow/pkg/channels/kafka"
)

func TestCreateChannel_MissingBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")

	pub, sub, err := kafka.CreateChannel(watermill.NopLogger{}, "landflow-engine")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
	assert.Nil(t, pub)
	assert.Nil(t, sub)
}

func TestCreateChannel_BlankBrokerList(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " , ,")

	pub, sub, err := kafka.CreateChannel(watermill.NopLogger{}, "landflow-engine")
	require.Error(t, err)
	assert.Nil(t, pub)
	assert.Nil(t, sub)
}
