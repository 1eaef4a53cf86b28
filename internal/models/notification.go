package models

// CommandRequest is the inbound slash-command payload. Only Text is
// required to be present for validation; everything else is optional.
type CommandRequest struct {
	Text            string `json:"text"`
	CallbackAddress string `json:"callbackAddress,omitempty"`
	ChannelID       string `json:"channelId,omitempty"`
	MessageID       string `json:"messageId,omitempty"`
}

// CommandResponse is the synchronous reply to the command.
type CommandResponse struct {
	Text string `json:"text"`
}

// CallbackMessage is posted to the callback address: first the placeholder
// (ReplaceOriginal=false), then the final answer (ReplaceOriginal=true).
type CallbackMessage struct {
	Text            string `json:"text"`
	ReplaceOriginal bool   `json:"replaceOriginal"`
	ChannelID       string `json:"channelId,omitempty"`
	MessageID       string `json:"messageId,omitempty"`
}

// CallbackAck is what some platforms return from a callback post. Any of
// the id fields may identify the message for later replacement.
type CallbackAck struct {
	OK          bool   `json:"ok"`
	MessageID   string `json:"messageId"`
	MessageIDv2 string `json:"message_id"`
	TS          string `json:"ts"`
}

func (a CallbackAck) ID() string {
	switch {
	case a.MessageID != "":
		return a.MessageID
	case a.MessageIDv2 != "":
		return a.MessageIDv2
	default:
		return a.TS
	}
}
