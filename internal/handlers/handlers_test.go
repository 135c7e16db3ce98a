package handlers

import (
	"testing"
	"time"

	"devconnect/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoActor struct{}

func (e *echoActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case string:
		context.Respond(msg)
	}
}

func TestRequestRecordsMetrics(t *testing.T) {
	system := actor.NewActorSystem()
	pid := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return &echoActor{}
	}))
	t.Cleanup(func() { system.Root.Stop(pid) })

	s := &Server{
		Context:        system.Root,
		Metrics:        utils.NewMetricsCollector(),
		RequestTimeout: time.Second,
	}

	result, err := s.request(pid, "ping")
	require.NoError(t, err)
	assert.Equal(t, "ping", result)

	result, err = s.request(pid, "pong")
	require.NoError(t, err)
	assert.Equal(t, "pong", result)

	assert.Equal(t, 2, s.Metrics.OperationCount("string"))
}
