package cli

import (
	"time"

	"github.com/iudanet/layoutsync/internal/client/collab"
	"github.com/iudanet/layoutsync/internal/client/iocli"
	"github.com/iudanet/layoutsync/internal/client/pending"
	"github.com/iudanet/layoutsync/internal/models"
	"github.com/iudanet/layoutsync/pkg/api"
)

// printer выводит события сессии в терминал.
// Курсоры не печатаются: они приходят слишком часто, смотрите 'who'.
type printer struct {
	collab.NopSink
	io iocli.IO
}

var _ collab.EventSink = (*printer)(nil)

func newPrinter(out iocli.IO) *printer {
	return &printer{io: out}
}

func (p *printer) OnOpen() {
	p.io.Println("* connected")
}

func (p *printer) OnReconnecting(delay time.Duration) {
	p.io.Printf("* connection lost, reconnecting in %s\n", delay.Round(time.Millisecond))
}

func (p *printer) OnSnapshot(l models.Layout, clients []models.Participant) {
	p.io.Printf("* synced: %d room(s), %d participant(s)\n", len(l.Rooms), len(clients))
}

func (p *printer) OnRemoteOp(rec api.OpRecord, _ models.Layout) {
	p.io.Printf("* %s %s %q\n", displayOr(rec.Actor, displayOr(rec.From, "server")), rec.Op.Kind, rec.Op.Target())
}

func (p *printer) OnAck(ack api.AckMessage) {
	p.io.Printf("* ack %s\n", ack.OpID)
}

func (p *printer) OnPendingExpired(info pending.Info) {
	p.io.Printf("⚠️  %s %q was not acknowledged in time (op %s)\n", info.Op.Kind, info.Op.Target(), info.OpID)
}

func (p *printer) OnRoster(participants []models.Participant) {
	p.io.Printf("* %d participant(s) online\n", len(participants))
}

func (p *printer) OnHistoryNotice(notice api.HistoryNotice) {
	p.io.Printf("* server %s\n", notice.Type)
}

func (p *printer) OnAutosave() {
	p.io.Println("* autosaved")
}

func (p *printer) OnServerError(msg string) {
	p.io.Printf("⚠️  server error: %s\n", msg)
}
