package kafka

import (
	"crypto/sha256"
	"crypto/sha512"

	"github.com/IBM/sarama"
	"github.com/xdg-go/scram"
)

// Ensure XDGSCRAMClient implements sarama.SCRAMClient.
var _ sarama.SCRAMClient = (*XDGSCRAMClient)(nil)

// Hash generators for the supported SCRAM mechanisms.
var (
	SHA256 scram.HashGeneratorFcn = sha256.New
	SHA512 scram.HashGeneratorFcn = sha512.New
)

// XDGSCRAMClient implements sarama.SCRAMClient on top of xdg-go/scram.
type XDGSCRAMClient struct {
	*scram.Client
	*scram.ClientConversation
	scram.HashGeneratorFcn
}

// newSCRAMClientGenerator returns a sarama client generator for hashGen.
func newSCRAMClientGenerator(hashGen scram.HashGeneratorFcn) func() sarama.SCRAMClient {
	return func() sarama.SCRAMClient {
		return &XDGSCRAMClient{HashGeneratorFcn: hashGen}
	}
}

// Begin starts a conversation for the given credentials.
func (x *XDGSCRAMClient) Begin(userName, password, authzID string) (err error) {
	x.Client, err = x.HashGeneratorFcn.NewClient(userName, password, authzID)
	if err != nil {
		return err
	}
	x.ClientConversation = x.Client.NewConversation()
	return nil
}

// Step answers one server challenge.
func (x *XDGSCRAMClient) Step(challenge string) (response string, err error) {
	return x.ClientConversation.Step(challenge)
}

// Done reports whether the conversation has completed.
func (x *XDGSCRAMClient) Done() bool {
	return x.ClientConversation.Done()
}
