package sender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"

	"tickrunner/internal/config"
)

func TestKafkaSender_Send(t *testing.T) {
	mp := mocks.NewAsyncProducer(t, nil)
	mp.ExpectInputWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got map[string]interface{}
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got["type"] != "memory" || got["run_id"] != "run-1" {
			return fmt.Errorf("unexpected message: %s", val)
		}
		return nil
	})

	s := newKafkaSender(mp, "samples")
	if err := s.Send(context.Background(), testSample("memory")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestKafkaSender_ProducerErrorIsLogged(t *testing.T) {
	mp := mocks.NewAsyncProducer(t, nil)
	mp.ExpectInputAndFail(sarama.ErrOutOfBrokers)

	s := newKafkaSender(mp, "samples")
	if err := s.Send(context.Background(), testSample("cpu")); err != nil {
		t.Fatalf("Send should not report async failures, got %v", err)
	}
	// Close drains the error channel through handleErrors.
	_ = s.Close()
}

func TestKafkaSender_SendAfterClose(t *testing.T) {
	mp := mocks.NewAsyncProducer(t, nil)
	s := newKafkaSender(mp, "samples")
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
	if err := s.Send(context.Background(), testSample("cpu")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestNewSaramaConfig(t *testing.T) {
	cfg := config.DefaultConfig().Kafka
	cfg.Compression = "zstd"
	cfg.RequiredAcks = -1
	cfg.SASLEnabled = true
	cfg.SASLMechanism = "scram-sha-512"
	cfg.SASLUser = "user"
	cfg.SASLPassword = "secret"

	sc, err := newSaramaConfig(cfg, config.SOCKSConfig{Host: "127.0.0.1", Port: 1080})
	if err != nil {
		t.Fatalf("newSaramaConfig failed: %v", err)
	}
	if sc.Producer.Compression != sarama.CompressionZSTD {
		t.Errorf("expected zstd compression, got %v", sc.Producer.Compression)
	}
	if sc.Producer.RequiredAcks != sarama.WaitForAll {
		t.Errorf("expected WaitForAll, got %v", sc.Producer.RequiredAcks)
	}
	if sc.Net.SASL.Mechanism != sarama.SASLTypeSCRAMSHA512 {
		t.Errorf("expected SCRAM-SHA-512, got %v", sc.Net.SASL.Mechanism)
	}
	if sc.Net.SASL.SCRAMClientGeneratorFunc == nil {
		t.Error("expected SCRAM client generator")
	}
	if !sc.Net.Proxy.Enable || sc.Net.Proxy.Dialer == nil {
		t.Error("expected SOCKS proxy dialer")
	}
	if sc.Net.DialTimeout != cfg.Timeout {
		t.Errorf("expected dial timeout %v, got %v", cfg.Timeout, sc.Net.DialTimeout)
	}
}

func TestNewSaramaConfig_MissingCAFile(t *testing.T) {
	cfg := config.DefaultConfig().Kafka
	cfg.EnableTLS = true
	cfg.TLSCAFile = "/nonexistent/ca.pem"
	if _, err := newSaramaConfig(cfg, config.SOCKSConfig{}); err == nil {
		t.Fatal("expected error for missing CA file")
	}
}

func TestScramClient_Begin(t *testing.T) {
	c := &scramClient{hashGen: scramSHA256}
	if err := c.Begin("user", "secret", ""); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if c.Done() {
		t.Error("conversation should not be done before any step")
	}
}

func TestApplySASL_UnknownMechanismFallsBackToPlain(t *testing.T) {
	sc := sarama.NewConfig()
	applySASL(sc, config.KafkaConfig{SASLMechanism: "GSSAPI", SASLUser: "u"})
	if sc.Net.SASL.Mechanism != sarama.SASLTypePlaintext {
		t.Errorf("expected PLAIN, got %v", sc.Net.SASL.Mechanism)
	}
	if sc.Net.SASL.SCRAMClientGeneratorFunc != nil {
		t.Error("expected no SCRAM generator for PLAIN")
	}
}

func TestNewKafkaSender_DeliversToBroker(t *testing.T) {
	broker := sarama.NewMockBroker(t, 1)
	defer broker.Close()
	broker.SetHandlerByMap(map[string]sarama.MockResponse{
		"MetadataRequest": sarama.NewMockMetadataResponse(t).
			SetBroker(broker.Addr(), broker.BrokerID()).
			SetLeader("samples", 0, broker.BrokerID()),
		"ProduceRequest": sarama.NewMockProduceResponse(t),
	})

	cfg := config.DefaultConfig().Kafka
	cfg.Brokers = []string{broker.Addr()}
	cfg.Topic = "samples"
	cfg.Compression = "none"

	s, err := NewKafkaSender(cfg, config.SOCKSConfig{})
	if err != nil {
		t.Fatalf("NewKafkaSender failed: %v", err)
	}
	if err := s.Send(context.Background(), testSample("cpu")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	produced := false
	for _, req := range broker.History() {
		if _, ok := req.Request.(*sarama.ProduceRequest); ok {
			produced = true
		}
	}
	if !produced {
		t.Error("expected the broker to receive a produce request")
	}
}
