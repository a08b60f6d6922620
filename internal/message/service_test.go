package message

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/models"
	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

type fakeStore struct {
	users     map[string]bool
	messages  map[string]*models.Message
	createErr error
	lastRead  []string
}

func newFakeStore(users ...string) *fakeStore {
	f := &fakeStore{users: map[string]bool{}, messages: map[string]*models.Message{}}
	for _, u := range users {
		f.users[u] = true
	}
	return f
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if !f.users[id] {
		return nil, store.ErrNotFound
	}
	return &models.User{ID: id}, nil
}

func (f *fakeStore) CreateMessage(_ context.Context, m *models.Message) error {
	if f.createErr != nil {
		return f.createErr
	}
	cp := *m
	f.messages[m.ID] = &cp
	return nil
}

func (f *fakeStore) GetMessage(_ context.Context, id string) (*models.Message, error) {
	m, ok := f.messages[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeStore) UpdateMessageText(_ context.Context, id, text string, at time.Time) error {
	m := f.messages[id]
	m.Text = text
	m.IsEdited = true
	m.EditedAt = &at
	return nil
}

func (f *fakeStore) SoftDeleteMessage(_ context.Context, id string, _ time.Time) error {
	f.messages[id].IsDeleted = true
	return nil
}

func (f *fakeStore) SetReaction(_ context.Context, messageID, userID, emoji string, _ time.Time) (map[string]string, error) {
	m := f.messages[messageID]
	if m.Reactions == nil {
		m.Reactions = map[string]string{}
	}
	if emoji == "" {
		delete(m.Reactions, userID)
	} else {
		m.Reactions[userID] = emoji
	}
	out := make(map[string]string, len(m.Reactions))
	for k, v := range m.Reactions {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) Conversation(_ context.Context, a, b string) ([]*models.Message, error) {
	var out []*models.Message
	for _, m := range f.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkConversationRead(_ context.Context, readerID, peerID string) (int64, error) {
	var n int64
	for _, m := range f.messages {
		if m.ReceiverID == readerID && m.SenderID == peerID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) MarkRead(_ context.Context, _ string, ids []string) (int64, error) {
	f.lastRead = ids
	return int64(len(ids)), nil
}

func (f *fakeStore) Contacts(_ context.Context, _ string) ([]models.Contact, error) {
	return []models.Contact{
		{User: models.User{ID: "bob"}},
		{User: models.User{ID: "carol"}, LastMessage: &models.Message{ID: "m9", Text: "secret", IsDeleted: true}},
	}, nil
}

type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) Deliver(*models.Message) int {
	n.events = append(n.events, models.EventNewMessage)
	return 1
}

func (n *recordingNotifier) DeliverEdited(*models.Message) int {
	n.events = append(n.events, models.EventMessageEdited)
	return 1
}

func (n *recordingNotifier) DeliverDeleted(*models.Message) int {
	n.events = append(n.events, models.EventMessageDeleted)
	return 1
}

func (n *recordingNotifier) DeliverReaction(*models.Message) int {
	n.events = append(n.events, models.EventMessageReacted)
	return 1
}

type onlineSet map[string]bool

func (o onlineSet) IsOnline(userID string) bool { return o[userID] }

type lastSeenMap map[string]time.Time

func (l lastSeenMap) LastSeen(_ context.Context, userID string) (time.Time, bool, error) {
	at, ok := l[userID]
	return at, ok, nil
}

func newTestService(s *fakeStore) (*Service, *recordingNotifier) {
	n := &recordingNotifier{}
	svc := NewService(s, n, nil, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc, n
}

func TestService_Send(t *testing.T) {
	s := newFakeStore("alice", "bob")
	svc, n := newTestService(s)

	msg, err := svc.Send(context.Background(), "alice", "bob", models.MessageDraft{Text: "  hi  "})
	require.NoError(t, err)

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "hi", msg.Text)
	assert.Equal(t, models.MessageTypeText, msg.MessageType)
	assert.Equal(t, fixedNow, msg.CreatedAt)
	assert.Contains(t, s.messages, msg.ID, "persisted")
	assert.Equal(t, []string{models.EventNewMessage}, n.events)
}

func TestService_SendValidation(t *testing.T) {
	tests := []struct {
		name     string
		receiver string
		draft    models.MessageDraft
		wantErr  error
	}{
		{name: "no receiver", receiver: " ", draft: models.MessageDraft{Text: "hi"}, wantErr: ErrInvalid},
		{name: "empty", receiver: "bob", draft: models.MessageDraft{Text: "   "}, wantErr: ErrInvalid},
		{name: "too long", receiver: "bob", draft: models.MessageDraft{Text: strings.Repeat("a", models.MaxTextLength+1)}, wantErr: ErrInvalid},
		{name: "bad type", receiver: "bob", draft: models.MessageDraft{Text: "hi", MessageType: "video"}, wantErr: ErrInvalid},
		{name: "unknown receiver", receiver: "zed", draft: models.MessageDraft{Text: "hi"}, wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFakeStore("alice", "bob")
			svc, n := newTestService(s)

			_, err := svc.Send(context.Background(), "alice", tt.receiver, tt.draft)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, s.messages)
			assert.Empty(t, n.events)
		})
	}
}

func TestService_SendImageOnly(t *testing.T) {
	s := newFakeStore("alice", "bob")
	svc, _ := newTestService(s)

	msg, err := svc.Send(context.Background(), "alice", "bob", models.MessageDraft{Image: "https://cdn.example/a.png"})
	require.NoError(t, err)
	assert.Equal(t, models.MessageTypeImage, msg.MessageType)
}

func TestService_SendPersistFailureIsNotDelivered(t *testing.T) {
	s := newFakeStore("alice", "bob")
	s.createErr = errors.New("disk I/O error")
	svc, n := newTestService(s)

	msg, err := svc.Send(context.Background(), "alice", "bob", models.MessageDraft{Text: "hi"})
	require.Error(t, err)
	assert.Nil(t, msg)
	assert.Empty(t, n.events)
}

func seed(t *testing.T, s *fakeStore, svc *Service) *models.Message {
	t.Helper()
	msg, err := svc.Send(context.Background(), "alice", "bob", models.MessageDraft{Text: "hi"})
	require.NoError(t, err)
	return msg
}

func TestService_Edit(t *testing.T) {
	s := newFakeStore("alice", "bob")
	svc, n := newTestService(s)
	msg := seed(t, s, svc)

	_, err := svc.Edit(context.Background(), "bob", msg.ID, "hacked")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Edit(context.Background(), "alice", msg.ID, "  ")
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = svc.Edit(context.Background(), "alice", "missing", "x")
	assert.ErrorIs(t, err, ErrNotFound)

	edited, err := svc.Edit(context.Background(), "alice", msg.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", edited.Text)
	assert.True(t, edited.IsEdited)
	require.NotNil(t, edited.EditedAt)
	assert.Equal(t, fixedNow, *edited.EditedAt)
	assert.Equal(t, "hello", s.messages[msg.ID].Text)

	assert.Equal(t, []string{models.EventNewMessage, models.EventMessageEdited}, n.events)
}

func TestService_Delete(t *testing.T) {
	s := newFakeStore("alice", "bob")
	svc, n := newTestService(s)
	msg := seed(t, s, svc)

	_, err := svc.Delete(context.Background(), "bob", msg.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	deleted, err := svc.Delete(context.Background(), "alice", msg.ID)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)

	// Deleting again succeeds without a second event.
	_, err = svc.Delete(context.Background(), "alice", msg.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{models.EventNewMessage, models.EventMessageDeleted}, n.events)

	_, err = svc.Edit(context.Background(), "alice", msg.ID, "again")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestService_React(t *testing.T) {
	s := newFakeStore("alice", "bob", "carol")
	svc, n := newTestService(s)
	msg := seed(t, s, svc)

	_, err := svc.React(context.Background(), "carol", msg.ID, "👍")
	assert.ErrorIs(t, err, ErrForbidden)

	reacted, err := svc.React(context.Background(), "bob", msg.ID, "👍")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"bob": "👍"}, reacted.Reactions)

	reacted, err = svc.React(context.Background(), "bob", msg.ID, "❤️")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"bob": "❤️"}, reacted.Reactions, "last reaction wins")

	reacted, err = svc.React(context.Background(), "bob", msg.ID, "")
	require.NoError(t, err)
	assert.Empty(t, reacted.Reactions)

	assert.Len(t, n.events, 4)
}

func TestService_ConversationMasksDeleted(t *testing.T) {
	s := newFakeStore("alice", "bob")
	svc, _ := newTestService(s)
	msg := seed(t, s, svc)
	_, err := svc.Delete(context.Background(), "alice", msg.ID)
	require.NoError(t, err)

	msgs, err := svc.Conversation(context.Background(), "bob", "alice")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.DeletedPlaceholder, msgs[0].Text)
	assert.Equal(t, "hi", s.messages[msg.ID].Text, "stored text is untouched")
}

func TestService_MarkRead(t *testing.T) {
	s := newFakeStore("alice", "bob")
	svc, n := newTestService(s)
	seed(t, s, svc)
	seed(t, s, svc)

	count, err := svc.MarkConversationRead(context.Background(), "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, svc.MarkRead(context.Background(), "bob", []string{"m1"}))
	assert.Equal(t, []string{"m1"}, s.lastRead)
	assert.Equal(t, []string{models.EventNewMessage, models.EventNewMessage}, n.events, "read state emits nothing")
}

func TestService_Contacts(t *testing.T) {
	s := newFakeStore("alice", "bob", "carol")
	svc := NewService(s, &recordingNotifier{}, onlineSet{"bob": true}, lastSeenMap{"carol": fixedNow})

	contacts, err := svc.Contacts(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, contacts, 2)

	assert.True(t, contacts[0].Online)
	assert.Nil(t, contacts[0].LastSeen)

	assert.False(t, contacts[1].Online)
	require.NotNil(t, contacts[1].LastSeen)
	assert.Equal(t, fixedNow, *contacts[1].LastSeen)
	assert.Equal(t, models.DeletedPlaceholder, contacts[1].LastMessage.Text)
}
