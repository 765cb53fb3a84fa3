// Package dialog implements the conversational core: the transaction
// recording state machine, the recent-transactions browser and the report
// request flow. It is transport-agnostic; the bot package translates
// Telegram updates into events and responses back into messages.
package dialog

import (
	"kopilka/internal/core"
	"kopilka/internal/report"
)

// Event is a closed set of user intents. The transport layer produces
// exactly these; the machine switches over them exhaustively.
type Event interface {
	isEvent()
}

type StartTransaction struct {
	Kind core.Kind
}

type SelectCategory struct {
	ID int64
}

type SelectSubcategory struct {
	ID int64
}

type SubmitComment struct {
	Text string
}

type SubmitAmount struct {
	Text string
}

type Confirm struct{}

type Cancel struct{}

// MainMenu returns to the top menu and clears any draft in progress.
type MainMenu struct{}

// OpenReportMenu shows the report type picker.
type OpenReportMenu struct{}

type RequestReport struct {
	Kind core.Kind
	Days int
	Mode report.Mode
}

// RequestRecent pages through the user's transactions. Kind is empty for
// all kinds.
type RequestRecent struct {
	Kind   core.Kind
	Offset int
}

// RequestDelete and ConfirmDelete carry the browse position the delete was
// started from so the list comes back on the same page.
type RequestDelete struct {
	TxID   int64
	Kind   core.Kind
	Offset int
}

type ConfirmDelete struct {
	TxID   int64
	Kind   core.Kind
	Offset int
}

type RequestUndo struct{}

func (StartTransaction) isEvent()  {}
func (SelectCategory) isEvent()    {}
func (SelectSubcategory) isEvent() {}
func (SubmitComment) isEvent()     {}
func (SubmitAmount) isEvent()      {}
func (Confirm) isEvent()           {}
func (Cancel) isEvent()            {}
func (MainMenu) isEvent()          {}
func (OpenReportMenu) isEvent()    {}
func (RequestReport) isEvent()     {}
func (RequestRecent) isEvent()     {}
func (RequestDelete) isEvent()     {}
func (ConfirmDelete) isEvent()     {}
func (RequestUndo) isEvent()       {}

// Choice is one pressable button: a label and the opaque token the
// transport hands back when it is pressed.
type Choice struct {
	Label string
	Token string
}

// Response tells the transport what to show. EditInPlace means the live
// prompt is edited; otherwise the previous prompt is retired and a fresh
// message sent. Files are local artifact paths to attach.
type Response struct {
	Text        string
	Choices     [][]Choice
	Files       []string
	EditInPlace bool
}
