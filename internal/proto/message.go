package proto

import (
	"bytes"
	"encoding/json"
	"strconv"
)

const (
	TypeMessageNotification = "MESSAGE_NOTIFICATION"
	TypeErrorNotification   = "ERROR_NOTIFICATION"

	// SentAtLayout is the HH:MM form used in notifications.
	SentAtLayout = "15:04"
)

// ChatMessage is the frame the client sends for every iteration.
type ChatMessage struct {
	ReceiverUID int64  `json:"receiverUid"`
	Content     string `json:"content"`
}

// BuildMessage serializes a ChatMessage. Inputs are not validated.
func BuildMessage(receiverUID int64, content string) ([]byte, error) {
	return ChatMessage{ReceiverUID: receiverUID, Content: content}.MarshalJSON()
}

// MarshalJSON writes the two keys in declaration order with ": " and ", "
// separators, so the bytes match what existing clients put on the wire.
func (m ChatMessage) MarshalJSON() ([]byte, error) {
	var content bytes.Buffer
	enc := json.NewEncoder(&content)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m.Content); err != nil {
		return nil, err
	}

	buf := make([]byte, 0, 48+content.Len())
	buf = append(buf, `{"receiverUid": `...)
	buf = strconv.AppendInt(buf, m.ReceiverUID, 10)
	buf = append(buf, `, "content": `...)
	buf = append(buf, bytes.TrimSuffix(content.Bytes(), []byte("\n"))...)
	buf = append(buf, '}')
	return buf, nil
}

// MessageNotification acknowledges a delivered chat message.
type MessageNotification struct {
	Type        string `json:"type"`
	ID          int64  `json:"id"`
	SenderUID   int64  `json:"senderUid"`
	ReceiverUID int64  `json:"receiverUid"`
	Content     string `json:"content"`
	IsUser      bool   `json:"isUser"`
	SentAt      string `json:"sentAt"`
}

// ErrorNotification reports a frame that could not be handled.
type ErrorNotification struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
