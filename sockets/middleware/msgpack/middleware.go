// Package msgpack provides the MessagePack message envelope for Aquilify
// WebSocket connections. It parses incoming MessagePack messages and
// serializes outgoing messages according to the envelope format.
//
// The envelope structure matches the JSON middleware: an optional "id" for
// request/reply correlation, a "path" for routing, optional "meta", and the
// "data" payload.
//
// # Usage
//
//	socketRouter := sockets.NewRouter()
//	socketRouter.Use(msgpack.Middleware())
//
// The middleware also validates the Sec-WebSocket-Protocol header, expecting
// "aquilify-msgpack" if present. When no subprotocol is negotiated and the
// frame is not valid MessagePack, the message is passed through untouched so
// other envelope middleware can try it.
package msgpack

import (
	"errors"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/embrake/aquilify/sockets"
)

type messageEnvelope struct {
	ID   string             `msgpack:"id"`
	Path string             `msgpack:"path"`
	Meta map[string]any     `msgpack:"meta"`
	Data msgpack.RawMessage `msgpack:"data"`
}

// Middleware returns the MessagePack envelope middleware.
func Middleware() func(ctx *sockets.Context) {
	return func(ctx *sockets.Context) {
		headers := ctx.Headers()
		secWebSocketProtocol := headers.Get("Sec-WebSocket-Protocol")
		if secWebSocketProtocol != "" && secWebSocketProtocol != "aquilify-msgpack" {
			ctx.Error = errors.New("Unsupported WebSocket Subprotocol: " + secWebSocketProtocol)
			return
		}

		if len(ctx.RawData()) != 0 {
			var envelope messageEnvelope
			if err := msgpack.Unmarshal(ctx.RawData(), &envelope); err != nil {
				if secWebSocketProtocol == "" {
					ctx.Next()
					return
				}
				ctx.Error = err
				return
			}

			if envelope.ID != "" {
				ctx.SetMessageID(envelope.ID)
			}
			if envelope.Path != "" {
				ctx.SetMessagePath(envelope.Path)
			}
			if envelope.Meta != nil {
				ctx.SetMessageMeta(envelope.Meta)
			}
			if envelope.Data != nil {
				ctx.SetMessageData(envelope.Data)
			}
		}

		ctx.SetMessageDecoder(decodeMessage)

		ctx.SetMessageUnmarshaler(func(message *sockets.InboundMessage, into any) error {
			return msgpack.Unmarshal(message.Data, into)
		})

		ctx.SetMessageMarshaller(marshalMessage)

		ctx.Next()
	}
}

func decodeMessage(data []byte) (*sockets.InboundMessage, error) {
	var envelope messageEnvelope
	if err := msgpack.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	return &sockets.InboundMessage{
		ID:      envelope.ID,
		Path:    envelope.Path,
		Meta:    envelope.Meta,
		RawData: data,
		Data:    envelope.Data,
	}, nil
}

func marshalMessage(message *sockets.OutboundMessage) ([]byte, error) {
	switch v := message.Data.(type) {

	case []FieldError:
		message.Data = M{
			"error":  "Validation error",
			"fields": genFieldsField(v),
		}

	case FieldError:
		message.Data = M{
			"error":  "Validation error",
			"fields": genFieldsField([]FieldError{v}),
		}

	case Error:
		message.Data = M{"error": string(v)}

	case string:
		message.Data = M{"message": v}
	}

	envelope := map[string]any{}
	if message.ID != "" {
		envelope["id"] = message.ID
	}
	if message.Data != nil {
		envelope["data"] = message.Data
	}

	return msgpack.Marshal(envelope)
}

func genFieldsField(errors []FieldError) []M {
	var fields []M
	for _, err := range errors {
		field := M{}
		field[err.Field] = err.Error
		fields = append(fields, field)
	}
	return fields
}
