package domain

// Action is a client request against a poll. The set of actions is closed:
// AddItem, VoteItem and UnknownAction.
type Action interface {
	isAction()
}

type AddItem struct {
	Text string `json:"text"`
}

type VoteItem struct {
	ItemID ItemID `json:"item_id"`
	Vote   Vote   `json:"vote"`
}

// UnknownAction carries a well-formed envelope whose type tag is not
// recognized.
type UnknownAction struct {
	Type string
}

func (AddItem) isAction()       {}
func (VoteItem) isAction()      {}
func (UnknownAction) isAction() {}

// Outbound is a server message addressed to a single connection.
type Outbound interface {
	isOutbound()
}

// ActionResponse is a notice for the connection that sent the action.
type ActionResponse struct {
	Text string
}

// PollStateUpdate is a full per-recipient render of the poll.
type PollStateUpdate struct {
	Version uint64
	View    PollView
}

func (ActionResponse) isOutbound()  {}
func (PollStateUpdate) isOutbound() {}
