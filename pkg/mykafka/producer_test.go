package mykafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	t.Parallel()

	msg, err := buildMessage(TopicBasketEvents, "7", map[string]any{
		"type":     "basket_created",
		"basketID": 7,
	})
	require.NoError(t, err)

	assert.Equal(t, TopicBasketEvents, msg.Topic)
	assert.Equal(t, []byte("7"), msg.Key)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "content-type", msg.Headers[0].Key)

	var event map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, "basket_created", event["type"])
	assert.EqualValues(t, 7, event["basketID"])
}

func TestBuildMessage_Unmarshalable(t *testing.T) {
	t.Parallel()

	_, err := buildMessage(TopicUserEvents, "k", map[string]any{"ch": make(chan int)})
	require.Error(t, err)
}

func TestNewProducer_NoBrokers(t *testing.T) {
	t.Parallel()

	p, err := NewProducer(nil)
	require.Error(t, err)
	assert.Nil(t, p)
}

func TestNop(t *testing.T) {
	t.Parallel()

	var n Nop
	require.NoError(t, n.PublishEvent(context.Background(), TopicUserEvents, "k", nil))
	require.NoError(t, n.Close())
}
