package collab

import (
	"time"

	"github.com/iudanet/layoutsync/internal/client/pending"
	"github.com/iudanet/layoutsync/internal/models"
	"github.com/iudanet/layoutsync/pkg/api"
)

// EventSink получает события сессии.
// Методы вызываются без удержания блокировки клиента и могут приходить из разных горутин.
type EventSink interface {
	// OnOpen соединение открыто, join отправлен
	OnOpen()
	// OnReconnecting запланировано переподключение через delay
	OnReconnecting(delay time.Duration)
	// OnSnapshot layout и список участников заменены целиком
	OnSnapshot(layout models.Layout, clients []models.Participant)
	// OnRemoteOp применена авторитетная операция
	OnRemoteOp(rec api.OpRecord, layout models.Layout)
	// OnAck операция подтверждена сервером
	OnAck(ack api.AckMessage)
	// OnPendingExpired истекло grace-окно операции без ack
	OnPendingExpired(info pending.Info)
	// OnRoster изменился список участников
	OnRoster(participants []models.Participant)
	// OnCursors изменились курсоры других участников
	OnCursors(cursors map[string]models.Cursor)
	// OnHistoryNotice сервер сообщил об undo/redo
	OnHistoryNotice(notice api.HistoryNotice)
	// OnAutosave сервер выполнил автосохранение
	OnAutosave()
	// OnServerError сервер прислал ошибку протокола
	OnServerError(msg string)
}

// NopSink ignores every event.
type NopSink struct{}

var _ EventSink = NopSink{}

func (NopSink) OnOpen() {}
func (NopSink) OnReconnecting(time.Duration) {}
func (NopSink) OnSnapshot(models.Layout, []models.Participant) {}
func (NopSink) OnRemoteOp(api.OpRecord, models.Layout) {}
func (NopSink) OnAck(api.AckMessage) {}
func (NopSink) OnPendingExpired(pending.Info) {}
func (NopSink) OnRoster([]models.Participant) {}
func (NopSink) OnCursors(map[string]models.Cursor) {}
func (NopSink) OnHistoryNotice(api.HistoryNotice) {}
func (NopSink) OnAutosave() {}
func (NopSink) OnServerError(string) {}
