package sender

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"strings"

	"github.com/IBM/sarama"
	"github.com/xdg-go/scram"

	"tickrunner/internal/config"
)

var (
	scramSHA256 scram.HashGeneratorFcn = func() hash.Hash { return sha256.New() }
	scramSHA512 scram.HashGeneratorFcn = func() hash.Hash { return sha512.New() }
)

// scramClient adapts an xdg-go/scram conversation to sarama.SCRAMClient.
type scramClient struct {
	*scram.ClientConversation
	hashGen scram.HashGeneratorFcn
}

func (c *scramClient) Begin(userName, password, authzID string) error {
	client, err := c.hashGen.NewClient(userName, password, authzID)
	if err != nil {
		return err
	}
	c.ClientConversation = client.NewConversation()
	return nil
}

func (c *scramClient) Step(challenge string) (string, error) {
	return c.ClientConversation.Step(challenge)
}

func (c *scramClient) Done() bool {
	return c.ClientConversation.Done()
}

// applySASL sets the SASL mechanism. Unknown mechanisms fall back to PLAIN.
func applySASL(sc *sarama.Config, cfg config.KafkaConfig) {
	sc.Net.SASL.Enable = true
	sc.Net.SASL.User = cfg.SASLUser
	sc.Net.SASL.Password = cfg.SASLPassword

	var gen scram.HashGeneratorFcn
	switch strings.ToUpper(cfg.SASLMechanism) {
	case "SCRAM-SHA-256":
		sc.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
		gen = scramSHA256
	case "SCRAM-SHA-512":
		sc.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
		gen = scramSHA512
	default:
		sc.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		return
	}
	sc.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
		return &scramClient{hashGen: gen}
	}
}
