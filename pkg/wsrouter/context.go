package wsrouter

import "context"

type ctxKey string

const (
	messageTypeKey ctxKey = "message_type"
)

func GetMessageTypeFromCtx(ctx context.Context) string {
	msgType, _ := ctx.Value(messageTypeKey).(string)
	return msgType
}
