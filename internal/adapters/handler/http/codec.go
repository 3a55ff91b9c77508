package http

import (
	"encoding/json"
	"fmt"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
)

const (
	typeAddItem         = "AddItem"
	typeVoteItem        = "VoteItem"
	typeActionResponse  = "ActionResponse"
	typePollStateUpdate = "PollStateUpdate"
)

type inboundEnvelope struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

type outboundEnvelope struct {
	Type    string `json:"type"`
	Content any    `json:"content"`
}

type addItemContent struct {
	Text *string `json:"text"`
}

type voteItemContent struct {
	ItemID *domain.ItemID `json:"item_id"`
	Vote   *domain.Vote   `json:"vote"`
}

// DecodeAction parses a client frame. A well-formed frame with an unknown
// type decodes to domain.UnknownAction; anything else unparseable is
// domain.ErrMalformedMessage.
func DecodeAction(data []byte) (domain.Action, error) {
	var env inboundEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedMessage, err)
	}

	switch env.Type {
	case typeAddItem:
		var c addItemContent
		if err := json.Unmarshal(env.Content, &c); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedMessage, err)
		}
		if c.Text == nil {
			return nil, fmt.Errorf("%w: missing text", domain.ErrMalformedMessage)
		}
		return domain.AddItem{Text: *c.Text}, nil
	case typeVoteItem:
		var c voteItemContent
		if err := json.Unmarshal(env.Content, &c); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedMessage, err)
		}
		if c.ItemID == nil || c.Vote == nil {
			return nil, fmt.Errorf("%w: missing item_id or vote", domain.ErrMalformedMessage)
		}
		return domain.VoteItem{ItemID: *c.ItemID, Vote: *c.Vote}, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", domain.ErrMalformedMessage)
	default:
		return domain.UnknownAction{Type: env.Type}, nil
	}
}

func EncodeOutbound(msg domain.Outbound) ([]byte, error) {
	var env outboundEnvelope
	switch m := msg.(type) {
	case domain.ActionResponse:
		env = outboundEnvelope{Type: typeActionResponse, Content: m.Text}
	case domain.PollStateUpdate:
		env = outboundEnvelope{Type: typePollStateUpdate, Content: m.View}
	default:
		return nil, fmt.Errorf("unsupported outbound message %T", msg)
	}
	return json.Marshal(env)
}
