package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/vovakirdan/wsflood/internal/proto"
)

var errMissingReceiver = errors.New("receiverUid is required")

// inboundMessage mirrors proto.ChatMessage with presence tracking.
type inboundMessage struct {
	ReceiverUID *int64  `json:"receiverUid"`
	Content     *string `json:"content"`
}

func decodeChatMessage(data []byte) (proto.ChatMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var in inboundMessage
	if err := dec.Decode(&in); err != nil {
		return proto.ChatMessage{}, err
	}
	if in.ReceiverUID == nil {
		return proto.ChatMessage{}, errMissingReceiver
	}

	msg := proto.ChatMessage{ReceiverUID: *in.ReceiverUID}
	if in.Content != nil {
		msg.Content = *in.Content
	}
	return msg, nil
}

// replyFor builds the single reply a sink session sends for one frame.
// ok reports whether the frame was accepted.
func replyFor(senderUID, id int64, data []byte, now time.Time) (reply any, ok bool) {
	msg, err := decodeChatMessage(data)
	if err != nil {
		return proto.ErrorNotification{
			Type:    proto.TypeErrorNotification,
			Message: err.Error(),
		}, false
	}

	return proto.MessageNotification{
		Type:        proto.TypeMessageNotification,
		ID:          id,
		SenderUID:   senderUID,
		ReceiverUID: msg.ReceiverUID,
		Content:     msg.Content,
		IsUser:      true,
		SentAt:      now.Format(proto.SentAtLayout),
	}, true
}
