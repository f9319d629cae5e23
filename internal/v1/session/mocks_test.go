package session

import (
	"sync"

	"github.com/omoknet/gomoku-server/internal/v1/protocol"
	"github.com/omoknet/gomoku-server/internal/v1/types"
)

// MockClient implements types.ClientInterface and records sent messages.
type MockClient struct {
	mu           sync.Mutex
	id           types.ClientIdType
	name         types.DisplayNameType
	messages     []*protocol.Message
	disconnected bool
}

func NewMockClient(id string) *MockClient {
	return &MockClient{id: types.ClientIdType(id)}
}

func (m *MockClient) GetID() types.ClientIdType { return m.id }

func (m *MockClient) GetDisplayName() types.DisplayNameType {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.name
}

func (m *MockClient) SetDisplayName(name types.DisplayNameType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.name = name
}

func (m *MockClient) RemoteAddr() string { return "mock:0" }

func (m *MockClient) Send(msg *protocol.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *MockClient) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnected = true
}

func (m *MockClient) Messages() []*protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*protocol.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

func (m *MockClient) MessagesOfType(msgType string) []*protocol.Message {
	var out []*protocol.Message
	for _, msg := range m.Messages() {
		if msg.Type == msgType {
			out = append(out, msg)
		}
	}
	return out
}

func (m *MockClient) LastOfType(msgType string) *protocol.Message {
	msgs := m.MessagesOfType(msgType)
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

func (m *MockClient) CountOfType(msgType string) int {
	return len(m.MessagesOfType(msgType))
}

func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}
