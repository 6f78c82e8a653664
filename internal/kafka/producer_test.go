package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSaramaConfig(t *testing.T) {
	cfg := newSaramaConfig(ProducerConfig{ClientID: "bfx", MaxRetries: 7})

	assert.Equal(t, "bfx", cfg.ClientID)
	assert.Equal(t, sarama.WaitForAll, cfg.Producer.RequiredAcks)
	assert.Equal(t, 7, cfg.Producer.Retry.Max)
	assert.True(t, cfg.Producer.Return.Successes)
}

func TestSaramaProducerSend(t *testing.T) {
	mockProd := mocks.NewSyncProducer(t, newSaramaConfig(ProducerConfig{MaxRetries: 1}))
	p := &saramaProducer{producer: mockProd}
	defer p.Close()

	mockProd.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"a":1}` {
			return errors.New("unexpected payload " + string(val))
		}
		return nil
	})
	mockProd.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	msg := Message{Topic: "bfx.ticker", Key: "1", Payload: []byte(`{"a":1}`), Headers: map[string]string{"session_id": "x"}}
	require.NoError(t, p.Send(context.Background(), msg))

	err := p.Send(context.Background(), msg)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
}
